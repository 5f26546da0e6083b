package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/site-attendance-go/internal/config"
	"github.com/cmlabs-hris/site-attendance-go/internal/domain/siteattendance"
	appHTTP "github.com/cmlabs-hris/site-attendance-go/internal/handler/http"
	"github.com/cmlabs-hris/site-attendance-go/internal/pkg/cache"
	"github.com/cmlabs-hris/site-attendance-go/internal/pkg/cron"
	"github.com/cmlabs-hris/site-attendance-go/internal/pkg/database"
	"github.com/cmlabs-hris/site-attendance-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/site-attendance-go/internal/pkg/messaging"
	"github.com/cmlabs-hris/site-attendance-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/site-attendance-go/internal/pkg/sse"
	"github.com/cmlabs-hris/site-attendance-go/internal/repository/postgresql"
	redisRepo "github.com/cmlabs-hris/site-attendance-go/internal/repository/redis"
	attendanceService "github.com/cmlabs-hris/site-attendance-go/internal/service/attendance"
	dashboardService "github.com/cmlabs-hris/site-attendance-go/internal/service/dashboard"
	geofenceService "github.com/cmlabs-hris/site-attendance-go/internal/service/geofence"
	reportService "github.com/cmlabs-hris/site-attendance-go/internal/service/report"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel()})))
	metrics.Register()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolOptions{
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: time.Hour,
	})
	if err != nil {
		return fmt.Errorf("error connecting to database: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := postgresql.EnsureSchema(ctx, db); err != nil {
			return fmt.Errorf("error applying schema: %w", err)
		}
		slog.Info("Database schema applied")
	}

	eventRepo := postgresql.NewEventRepository(db)
	summaryRepo := postgresql.NewSummaryRepository(db)
	siteRepo := postgresql.NewSiteRepository(db)
	tenantRepo := postgresql.NewTenantRepository(db)
	spaRepo := postgresql.NewSpaRepository(db)
	deviceRepo := postgresql.NewDeviceRepository(db)
	transactor := postgresql.NewTransactor(db)

	var settings siteattendance.SettingsProvider = postgresql.NewSettingsRepository(db)
	if cfg.Redis.URL != "" {
		redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("error connecting to redis: %w", err)
		}
		defer redisClient.Close()
		settings = redisRepo.NewSettingsCache(redisClient, settings, cfg.Redis.SettingsTTL)
		slog.Info("Settings cache enabled", "ttl", cfg.Redis.SettingsTTL)
	}

	var notifier siteattendance.Notifier = messaging.LogNotifier{}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaNotifier := messaging.NewKafkaNotifier(
			messaging.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.NotificationTopic),
			cfg.Kafka.NotificationTopic,
		)
		defer kafkaNotifier.Close()
		notifier = kafkaNotifier
		slog.Info("Kafka notifier enabled", "topic", cfg.Kafka.NotificationTopic)
	}

	eventHub := sse.NewHub()

	geofenceSvc := geofenceService.NewGeofenceService(siteRepo, settings)
	attendanceSvc := attendanceService.NewAttendanceService(eventRepo, summaryRepo, siteRepo, deviceRepo, geofenceSvc, settings, notifier).
		WithPublisher(eventHub)
	aggregationSvc := attendanceService.NewAggregationService(eventRepo, summaryRepo, settings, spaRepo, transactor)
	dashboardSvc := dashboardService.NewDashboardService(summaryRepo)
	reportSvc := reportService.NewReportService(summaryRepo)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessTokenTTL)

	router := appHTTP.NewRouter(
		appHTTP.RouterConfig{
			Env:            cfg.App.Env,
			AllowedOrigins: cfg.App.AllowedOrigins,
			LogLevel:       cfg.LogLevel(),
		},
		JWTService,
		appHTTP.Handlers{
			Event:     appHTTP.NewEventHandler(attendanceSvc),
			Geofence:  appHTTP.NewGeofenceHandler(attendanceSvc),
			Summary:   appHTTP.NewSummaryHandler(attendanceSvc, reportSvc),
			Job:       appHTTP.NewJobHandler(aggregationSvc),
			Dashboard: appHTTP.NewDashboardHandler(dashboardSvc),
			Stream:    appHTTP.NewStreamHandler(eventHub),
		},
	)

	if cfg.Job.Enabled {
		scheduler := cron.NewScheduler(ctx)
		cron.NewDailyAggregationJobs(tenantRepo, settings, eventRepo, aggregationSvc, cron.DailyAggregationOptions{
			RunHour:       cfg.Job.AggregationHour,
			Concurrency:   cfg.Job.TenantConcurrency,
			LookbackDays:  cfg.Job.LookbackDays,
			TenantTimeout: cfg.Job.TenantTimeout,
		}).RegisterJobs(scheduler)
		scheduler.Start()
		defer scheduler.Stop()
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Server running", "addr", server.Addr, "env", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
