package redis

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/cmlabs-hris/site-attendance-go/internal/domain/siteattendance"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingProvider struct {
	calls    int
	settings siteattendance.AttendanceSettings
	err      error
}

func (p *countingProvider) GetSettings(ctx context.Context, tenantID string) (siteattendance.AttendanceSettings, error) {
	p.calls++
	if p.err != nil {
		return siteattendance.AttendanceSettings{}, p.err
	}
	s := p.settings
	s.TenantID = tenantID
	return s, nil
}

func newTestClient(t *testing.T) *goredis.Client {
	t.Helper()
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	opts, err := goredis.ParseURL(url)
	require.NoError(t, err)

	client := goredis.NewClient(opts)
	require.NoError(t, client.Ping(context.Background()).Err())
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestSettingsCache_ReadThrough(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	tenantID := "cache-tenant-" + time.Now().Format("150405.000000")

	source := &countingProvider{settings: siteattendance.DefaultSettings("")}
	source.settings.Timezone = "Asia/Jakarta"
	cache := NewSettingsCache(client, source, time.Minute)
	t.Cleanup(func() { _ = cache.Invalidate(ctx, tenantID) })

	first, err := cache.GetSettings(ctx, tenantID)
	require.NoError(t, err)
	second, err := cache.GetSettings(ctx, tenantID)
	require.NoError(t, err)

	assert.Equal(t, 1, source.calls)
	assert.Equal(t, first, second)
	assert.Equal(t, tenantID, second.TenantID)
	assert.Equal(t, "Asia/Jakarta", second.Timezone)

	require.NoError(t, cache.Invalidate(ctx, tenantID))
	_, err = cache.GetSettings(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls)
}

func TestSettingsCache_SourceErrorNotCached(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	tenantID := "cache-error-" + time.Now().Format("150405.000000")

	source := &countingProvider{err: errors.New("db down")}
	cache := NewSettingsCache(client, source, time.Minute)

	_, err := cache.GetSettings(ctx, tenantID)
	assert.Error(t, err)

	exists, err := client.Exists(ctx, settingsKey(tenantID)).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}

func TestSettingsCache_FallsBackWhenRedisUnavailable(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	source := &countingProvider{settings: siteattendance.DefaultSettings("")}
	cache := NewSettingsCache(client, source, time.Minute)

	settings, err := cache.GetSettings(context.Background(), "tenant-x")
	require.NoError(t, err)
	assert.Equal(t, 1, source.calls)
	assert.Equal(t, siteattendance.DefaultExpectedHoursPerDay, settings.ExpectedHoursPerDay)
}
