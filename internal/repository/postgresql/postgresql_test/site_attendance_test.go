package postgresql_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/site-attendance-go/internal/domain/siteattendance"
	"github.com/cmlabs-hris/site-attendance-go/internal/repository/postgresql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTenant = "tenant-integration"

func newID(t *testing.T) string {
	t.Helper()
	id, err := uuid.NewV7()
	require.NoError(t, err)
	return id.String()
}

func createTestSite(t *testing.T, ctx context.Context, setup *TestDatabaseSetup, active bool) string {
	t.Helper()
	id := newID(t)
	_, err := setup.DB.Exec(ctx, `
		INSERT INTO sites (id, tenant_id, name, latitude, longitude, is_active)
		VALUES ($1, $2, 'Integration Site', -6.2, 106.8, $3)
	`, id, testTenant, active)
	require.NoError(t, err)
	return id
}

func TestEventRepository_LifeCycle(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewEventRepository(setup.DB)

	siteID := createTestSite(t, ctx, setup, true)
	employeeID := newID(t)
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	lat, lon := -6.2, 106.8

	var ids []string
	for i, et := range []siteattendance.EventType{siteattendance.EventTypeEnter, siteattendance.EventTypeExit} {
		ev, err := repo.Create(ctx, siteattendance.AttendanceEvent{
			ID:            newID(t),
			TenantID:      testTenant,
			EmployeeID:    employeeID,
			SiteID:        siteID,
			EventType:     et,
			Timestamp:     day.Add(time.Duration(8+i*8) * time.Hour),
			Latitude:      &lat,
			Longitude:     &lon,
			TriggerMethod: siteattendance.TriggerGPS,
		})
		require.NoError(t, err)
		assert.False(t, ev.IsProcessed)
		assert.False(t, ev.CreatedAt.IsZero())
		ids = append(ids, ev.ID)
	}

	pending, err := repo.ListUnprocessed(ctx, testTenant, day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, siteattendance.EventTypeEnter, pending[0].EventType)
	require.NotNil(t, pending[0].Latitude)

	other, err := repo.ListUnprocessed(ctx, "another-tenant", day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Empty(t, other)

	marked, err := repo.MarkProcessed(ctx, testTenant, ids, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, int64(2), marked)

	again, err := repo.MarkProcessed(ctx, testTenant, ids, time.Now().UTC())
	require.NoError(t, err)
	assert.Zero(t, again)

	pending, err = repo.ListUnprocessed(ctx, testTenant, day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Empty(t, pending)

	all, err := repo.ListByEmployeeSite(ctx, testTenant, employeeID, siteID, day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Len(t, all, 2)

	page, total, err := repo.List(ctx, testTenant, siteattendance.EventFilter{Page: 1, Limit: 1, SortOrder: "asc"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, page, 1)
	assert.Equal(t, siteattendance.EventTypeEnter, page[0].EventType)
}

func TestEventRepository_ListUnprocessedDates(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewEventRepository(setup.DB)

	siteID := createTestSite(t, ctx, setup, true)
	employeeID := newID(t)

	timestamps := []time.Time{
		time.Date(2026, 3, 8, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 8, 20, 0, 0, 0, time.UTC), // 03-09 in Jakarta
		time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	}
	var ids []string
	for _, ts := range timestamps {
		ev, err := repo.Create(ctx, siteattendance.AttendanceEvent{
			ID:            newID(t),
			TenantID:      testTenant,
			EmployeeID:    employeeID,
			SiteID:        siteID,
			EventType:     siteattendance.EventTypeEnter,
			Timestamp:     ts,
			TriggerMethod: siteattendance.TriggerGPS,
		})
		require.NoError(t, err)
		ids = append(ids, ev.ID)
	}
	_, err := repo.MarkProcessed(ctx, testTenant, ids[2:], time.Now().UTC())
	require.NoError(t, err)

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)

	dates, err := repo.ListUnprocessedDates(ctx, testTenant, time.UTC, from, to)
	require.NoError(t, err)
	require.Len(t, dates, 1)
	assert.Equal(t, "2026-03-08", dates[0].Format("2006-01-02"))

	jakarta, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)
	dates, err = repo.ListUnprocessedDates(ctx, testTenant, jakarta, from, to)
	require.NoError(t, err)
	require.Len(t, dates, 2)
	assert.Equal(t, "2026-03-08", dates[0].Format("2006-01-02"))
	assert.Equal(t, "2026-03-09", dates[1].Format("2006-01-02"))
	assert.Equal(t, jakarta, dates[1].Location())
}

func TestSummaryRepository_CreateUpdateAndUniqueKey(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewSummaryRepository(setup.DB)

	siteID := createTestSite(t, ctx, setup, true)
	employeeID := newID(t)
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	missing, err := repo.GetByKey(ctx, testTenant, employeeID, siteID, day)
	require.NoError(t, err)
	assert.Nil(t, missing)

	summary := siteattendance.AttendanceSummary{
		ID:            newID(t),
		TenantID:      testTenant,
		EmployeeID:    employeeID,
		SiteID:        siteID,
		Date:          day,
		ExpectedHours: 7.5,
		TotalMinutes:  240,
		EntryCount:    1,
		ExitCount:     1,
		Status:        siteattendance.StatusBelowTarget,
	}
	_, err = repo.Create(ctx, summary)
	require.NoError(t, err)

	duplicate := summary
	duplicate.ID = newID(t)
	_, err = repo.Create(ctx, duplicate)
	assert.True(t, errors.Is(err, siteattendance.ErrSummaryAlreadyExists))

	summary.TotalMinutes = 450
	summary.Status = siteattendance.StatusExcellent
	require.NoError(t, repo.Update(ctx, summary))

	got, err := repo.GetByKey(ctx, testTenant, employeeID, siteID, day)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 450.0, got.TotalMinutes)
	assert.Equal(t, 7.5, got.ExpectedHours)
	assert.Equal(t, siteattendance.StatusExcellent, got.Status)
	require.NotNil(t, got.SiteName)
	assert.Equal(t, "Integration Site", *got.SiteName)

	ranged, err := repo.ListByDateRange(ctx, testTenant, day, day)
	require.NoError(t, err)
	assert.Len(t, ranged, 1)
}

func TestTransactor_RollsBackOnError(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewSummaryRepository(setup.DB)
	tx := postgresql.NewTransactor(setup.DB)

	siteID := createTestSite(t, ctx, setup, true)
	employeeID := newID(t)
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	boom := errors.New("boom")
	err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
		_, err := repo.Create(ctx, siteattendance.AttendanceSummary{
			ID:         newID(t),
			TenantID:   testTenant,
			EmployeeID: employeeID,
			SiteID:     siteID,
			Date:       day,
			Status:     siteattendance.StatusAbsent,
		})
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := repo.GetByKey(ctx, testTenant, employeeID, siteID, day)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSettingsRepository_DefaultsWhenMissing(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewSettingsRepository(setup.DB)

	settings, err := repo.GetSettings(ctx, testTenant)
	require.NoError(t, err)
	assert.Equal(t, siteattendance.DefaultSettings(testTenant), settings)

	_, err = setup.DB.Exec(ctx, `
		INSERT INTO attendance_settings (tenant_id, expected_hours_per_day, geofence_radius_meters, timezone)
		VALUES ($1, 8, 150, 'Asia/Jakarta')
	`, testTenant)
	require.NoError(t, err)

	settings, err = repo.GetSettings(ctx, testTenant)
	require.NoError(t, err)
	assert.Equal(t, 8.0, settings.ExpectedHoursPerDay)
	assert.Equal(t, 150.0, settings.GeofenceRadiusMeters)
	assert.Equal(t, "Asia/Jakarta", settings.Timezone)
}

func TestSiteAndTenantRepository(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	sites := postgresql.NewSiteRepository(setup.DB)
	tenants := postgresql.NewTenantRepository(setup.DB)

	activeID := createTestSite(t, ctx, setup, true)
	createTestSite(t, ctx, setup, false)

	_, err := sites.GetByID(ctx, "another-tenant", activeID)
	assert.ErrorIs(t, err, siteattendance.ErrSiteNotFound)

	active, err := sites.ListActive(ctx, testTenant)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, activeID, active[0].ID)

	ids, err := tenants.ListActiveTenantIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{testTenant}, ids)
}
