package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	JWT      JWTConfig
	App      AppConfig
	Job      JobConfig
}

type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	Name        string
	SSLMode     string
	MaxConns    int32
	MinConns    int32
	AutoMigrate bool
}

// RedisConfig holds the settings cache connection. An empty URL disables the cache.
type RedisConfig struct {
	URL         string
	Password    string
	DB          *int // nil keeps the database index from URL
	PoolSize    int
	SettingsTTL time.Duration
}

// KafkaConfig holds the notification publisher settings. No brokers disables publishing.
type KafkaConfig struct {
	Brokers           []string
	NotificationTopic string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret         string
	AccessTokenTTL time.Duration
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	AllowedOrigins []string
}

// JobConfig controls the in-process daily aggregation scheduler
type JobConfig struct {
	Enabled           bool
	AggregationHour   int // UTC hour at which yesterday is aggregated
	TenantConcurrency int
	LookbackDays      int
	TenantTimeout     time.Duration
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	dbMaxConns, err := strconv.Atoi(getEnv("DB_MAX_CONNS", "25"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}
	dbMinConns, err := strconv.Atoi(getEnv("DB_MIN_CONNS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:        getEnv("DB_HOST", "localhost"),
		Port:        dbPort,
		User:        getEnv("DB_USER", "postgres"),
		Password:    getEnv("DB_PASSWORD", ""),
		Name:        getEnv("DB_NAME", "site_attendance"),
		SSLMode:     getEnv("DB_SSL_MODE", "disable"),
		MaxConns:    int32(dbMaxConns),
		MinConns:    int32(dbMinConns),
		AutoMigrate: getEnvBool("DB_AUTO_MIGRATE", false),
	}

	// Redis configuration
	var redisDB *int
	if value := getEnv("REDIS_DB", ""); value != "" {
		db, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
		}
		redisDB = &db
	}
	redisPoolSize, err := strconv.Atoi(getEnv("REDIS_POOL_SIZE", "20"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_POOL_SIZE: %w", err)
	}
	settingsTTL, err := time.ParseDuration(getEnv("REDIS_SETTINGS_TTL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_SETTINGS_TTL: %w", err)
	}

	config.Redis = RedisConfig{
		URL:         getEnv("REDIS_URL", ""),
		Password:    getEnv("REDIS_PASSWORD", ""),
		DB:          redisDB,
		PoolSize:    redisPoolSize,
		SettingsTTL: settingsTTL,
	}

	// Kafka configuration
	config.Kafka = KafkaConfig{
		Brokers:           getEnvSlice("KAFKA_BROKERS"),
		NotificationTopic: getEnv("KAFKA_NOTIFICATION_TOPIC", "site-attendance.spa-check"),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:           appPort,
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS"),
	}

	// JWT configuration
	accessTokenTTL, err := time.ParseDuration(getEnv("JWT_ACCESS_TOKEN_EXPIRATION", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_ACCESS_TOKEN_EXPIRATION: %w", err)
	}

	config.JWT = JWTConfig{
		Secret:         getEnv("JWT_SECRET_KEY", ""),
		AccessTokenTTL: accessTokenTTL,
	}

	// Job configuration
	aggregationHour, err := strconv.Atoi(getEnv("JOB_AGGREGATION_HOUR", "1"))
	if err != nil {
		return nil, fmt.Errorf("invalid JOB_AGGREGATION_HOUR: %w", err)
	}
	tenantConcurrency, err := strconv.Atoi(getEnv("JOB_TENANT_CONCURRENCY", "4"))
	if err != nil {
		return nil, fmt.Errorf("invalid JOB_TENANT_CONCURRENCY: %w", err)
	}
	lookbackDays, err := strconv.Atoi(getEnv("JOB_LOOKBACK_DAYS", "7"))
	if err != nil {
		return nil, fmt.Errorf("invalid JOB_LOOKBACK_DAYS: %w", err)
	}
	tenantTimeout, err := time.ParseDuration(getEnv("JOB_TENANT_TIMEOUT", "10m"))
	if err != nil {
		return nil, fmt.Errorf("invalid JOB_TENANT_TIMEOUT: %w", err)
	}

	config.Job = JobConfig{
		Enabled:           getEnvBool("JOB_ENABLED", true),
		AggregationHour:   aggregationHour,
		TenantConcurrency: tenantConcurrency,
		LookbackDays:      lookbackDays,
		TenantTimeout:     tenantTimeout,
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.Job.AggregationHour < 0 || c.Job.AggregationHour > 23 {
		return fmt.Errorf("JOB_AGGREGATION_HOUR must be between 0 and 23")
	}
	if c.Job.TenantConcurrency < 1 {
		return fmt.Errorf("JOB_TENANT_CONCURRENCY must be at least 1")
	}
	if c.Job.LookbackDays < 1 || c.Job.LookbackDays > 90 {
		return fmt.Errorf("JOB_LOOKBACK_DAYS must be between 1 and 90")
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.NotificationTopic == "" {
		return fmt.Errorf("KAFKA_NOTIFICATION_TOPIC is required when KAFKA_BROKERS is set")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// LogLevel maps LOG_LEVEL to a slog level, defaulting to info.
func (c *Config) LogLevel() slog.Level {
	switch strings.ToLower(c.App.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(fallback)))
	if err != nil {
		return fallback
	}
	return value
}

func getEnvSlice(env string) []string {
	value := getEnv(env, "")
	if value == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
