package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/site-attendance-go/internal/domain/siteattendance"
	"github.com/cmlabs-hris/site-attendance-go/internal/pkg/metrics"
	goredis "github.com/redis/go-redis/v9"
)

const settingsKeyPrefix = "site_attendance:settings:"

type cachedSettings struct {
	ExpectedHoursPerDay     float64 `json:"expected_hours_per_day"`
	GeofenceRadiusMeters    float64 `json:"geofence_radius_meters"`
	NoiseThresholdMeters    float64 `json:"noise_threshold_meters"`
	EntryGracePeriodMinutes int     `json:"entry_grace_period_minutes"`
	ExitGracePeriodMinutes  int     `json:"exit_grace_period_minutes"`
	Timezone                string  `json:"timezone"`
}

// SettingsCache is a read-through cache in front of another SettingsProvider.
// Redis failures fall back to the source; they never fail the read.
type SettingsCache struct {
	client *goredis.Client
	source siteattendance.SettingsProvider
	ttl    time.Duration
}

func NewSettingsCache(client *goredis.Client, source siteattendance.SettingsProvider, ttl time.Duration) *SettingsCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &SettingsCache{client: client, source: source, ttl: ttl}
}

func settingsKey(tenantID string) string {
	return settingsKeyPrefix + tenantID
}

// GetSettings implements siteattendance.SettingsProvider.
func (c *SettingsCache) GetSettings(ctx context.Context, tenantID string) (siteattendance.AttendanceSettings, error) {
	key := settingsKey(tenantID)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached cachedSettings
		if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
			metrics.SettingsCacheHitsTotal.WithLabelValues("hit").Inc()
			return cached.toSettings(tenantID), nil
		}
		slog.Warn("Discarding malformed cached settings", "tenant_id", tenantID)
	case errors.Is(err, goredis.Nil):
		metrics.SettingsCacheHitsTotal.WithLabelValues("miss").Inc()
	default:
		metrics.SettingsCacheHitsTotal.WithLabelValues("error").Inc()
		slog.Warn("Settings cache read failed", "tenant_id", tenantID, "error", err)
	}

	settings, err := c.source.GetSettings(ctx, tenantID)
	if err != nil {
		return siteattendance.AttendanceSettings{}, err
	}

	payload, err := json.Marshal(fromSettings(settings))
	if err == nil {
		if setErr := c.client.Set(ctx, key, payload, c.ttl).Err(); setErr != nil {
			slog.Warn("Settings cache write failed", "tenant_id", tenantID, "error", setErr)
		}
	}

	return settings, nil
}

// Invalidate drops the cached settings for a tenant.
func (c *SettingsCache) Invalidate(ctx context.Context, tenantID string) error {
	if err := c.client.Del(ctx, settingsKey(tenantID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate settings cache: %w", err)
	}
	return nil
}

func fromSettings(s siteattendance.AttendanceSettings) cachedSettings {
	return cachedSettings{
		ExpectedHoursPerDay:     s.ExpectedHoursPerDay,
		GeofenceRadiusMeters:    s.GeofenceRadiusMeters,
		NoiseThresholdMeters:    s.NoiseThresholdMeters,
		EntryGracePeriodMinutes: s.EntryGracePeriodMinutes,
		ExitGracePeriodMinutes:  s.ExitGracePeriodMinutes,
		Timezone:                s.Timezone,
	}
}

func (c cachedSettings) toSettings(tenantID string) siteattendance.AttendanceSettings {
	return siteattendance.AttendanceSettings{
		TenantID:                tenantID,
		ExpectedHoursPerDay:     c.ExpectedHoursPerDay,
		GeofenceRadiusMeters:    c.GeofenceRadiusMeters,
		NoiseThresholdMeters:    c.NoiseThresholdMeters,
		EntryGracePeriodMinutes: c.EntryGracePeriodMinutes,
		ExitGracePeriodMinutes:  c.ExitGracePeriodMinutes,
		Timezone:                c.Timezone,
	}
}
