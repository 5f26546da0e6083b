package attendance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/site-attendance-go/internal/domain/siteattendance"
	"github.com/cmlabs-hris/site-attendance-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/site-attendance-go/internal/repository/memory"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testTenant    = "tenant-a"
	testEmployee1 = "0190a1b2-0000-7000-8000-000000000001"
	testEmployee2 = "0190a1b2-0000-7000-8000-000000000002"
	testSite1     = "0190a1b2-0000-7000-8000-0000000000a1"
	testSite2     = "0190a1b2-0000-7000-8000-0000000000a2"
)

var (
	aggDate  = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	aggClock = func() time.Time { return time.Date(2026, 3, 11, 2, 0, 0, 0, time.UTC) }
)

type aggregationFixture struct {
	store   *memory.Store
	events  siteattendance.EventRepository
	service *AggregationServiceImpl
}

func newAggregationFixture(t *testing.T) *aggregationFixture {
	t.Helper()
	store := memory.NewStore()
	store.AddSite(siteattendance.Site{ID: testSite1, TenantID: testTenant, Name: "Depot", Latitude: -6.2, Longitude: 106.8, IsActive: true})
	store.AddSite(siteattendance.Site{ID: testSite2, TenantID: testTenant, Name: "Harbour", Latitude: -6.1, Longitude: 106.9, IsActive: true})

	events := store.EventRepository()
	svc := NewAggregationService(events, store.SummaryRepository(), store, store, store).WithClock(aggClock)
	return &aggregationFixture{store: store, events: events, service: svc}
}

func (f *aggregationFixture) seed(t *testing.T, employeeID, siteID string, eventType siteattendance.EventType, ts time.Time, noise bool) siteattendance.AttendanceEvent {
	t.Helper()
	id, err := uuid.NewV7()
	require.NoError(t, err)
	ev, err := f.events.Create(context.Background(), siteattendance.AttendanceEvent{
		ID:            id.String(),
		TenantID:      testTenant,
		EmployeeID:    employeeID,
		SiteID:        siteID,
		EventType:     eventType,
		Timestamp:     ts,
		TriggerMethod: siteattendance.TriggerGPS,
		IsNoise:       noise,
	})
	require.NoError(t, err)
	return ev
}

func hourOf(h, m int) time.Time {
	return aggDate.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func TestRunDailyAggregation_NoEvents(t *testing.T) {
	f := newAggregationFixture(t)

	result, err := f.service.RunDailyAggregation(context.Background(), testTenant, aggDate)

	require.NoError(t, err)
	assert.Equal(t, "2026-03-10", result.Date)
	assert.Zero(t, result.EventsProcessed)
	assert.Zero(t, result.SummariesCreated)
	assert.Zero(t, result.SummariesUpdated)
	assert.NotNil(t, result.Errors)
	assert.Empty(t, result.Errors)
	assert.Empty(t, f.store.Summaries())
}

func TestRunDailyAggregation_CreatesSummary(t *testing.T) {
	f := newAggregationFixture(t)
	f.seed(t, testEmployee1, testSite1, siteattendance.EventTypeEnter, hourOf(8, 0), false)
	f.seed(t, testEmployee1, testSite1, siteattendance.EventTypeExit, hourOf(16, 0), false)
	f.store.AddSpa(testTenant, testEmployee1, testSite1, aggDate)

	result, err := f.service.RunDailyAggregation(context.Background(), testTenant, aggDate)

	require.NoError(t, err)
	assert.Equal(t, 2, result.EventsProcessed)
	assert.Equal(t, 1, result.SummariesCreated)
	assert.Empty(t, result.Errors)

	summaries := f.store.Summaries()
	require.Len(t, summaries, 1)
	s := summaries[0]
	assert.Equal(t, 480.0, s.TotalMinutes)
	assert.Equal(t, siteattendance.DefaultExpectedHoursPerDay, s.ExpectedHours)
	assert.Equal(t, siteattendance.StatusExcellent, s.Status)
	assert.True(t, s.HasSpa)
	assert.Equal(t, 1, s.EntryCount)
	assert.Equal(t, 1, s.ExitCount)
	assert.NotEmpty(t, s.ID)

	for _, ev := range f.store.Events() {
		assert.True(t, ev.IsProcessed)
		assert.NotNil(t, ev.ProcessedAt)
	}
}

func TestRunDailyAggregation_Idempotent(t *testing.T) {
	f := newAggregationFixture(t)
	f.seed(t, testEmployee1, testSite1, siteattendance.EventTypeEnter, hourOf(8, 0), false)
	f.seed(t, testEmployee1, testSite1, siteattendance.EventTypeExit, hourOf(12, 0), false)

	_, err := f.service.RunDailyAggregation(context.Background(), testTenant, aggDate)
	require.NoError(t, err)
	first := f.store.Summaries()

	second, err := f.service.RunDailyAggregation(context.Background(), testTenant, aggDate)
	require.NoError(t, err)

	assert.Zero(t, second.EventsProcessed)
	assert.Zero(t, second.SummariesCreated)
	assert.Zero(t, second.SummariesUpdated)
	assert.Equal(t, first, f.store.Summaries())
}

func TestRunDailyAggregation_LateEventsOnlyIncreaseTotals(t *testing.T) {
	f := newAggregationFixture(t)
	f.seed(t, testEmployee1, testSite1, siteattendance.EventTypeEnter, hourOf(8, 0), false)
	f.seed(t, testEmployee1, testSite1, siteattendance.EventTypeExit, hourOf(12, 0), false)

	_, err := f.service.RunDailyAggregation(context.Background(), testTenant, aggDate)
	require.NoError(t, err)
	before := f.store.Summaries()[0]

	f.seed(t, testEmployee1, testSite1, siteattendance.EventTypeEnter, hourOf(13, 0), false)
	f.seed(t, testEmployee1, testSite1, siteattendance.EventTypeExit, hourOf(15, 0), false)

	result, err := f.service.RunDailyAggregation(context.Background(), testTenant, aggDate)
	require.NoError(t, err)

	assert.Equal(t, 1, result.SummariesUpdated)
	assert.Equal(t, 2, result.EventsProcessed)

	after := f.store.Summaries()[0]
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, 240.0, before.TotalMinutes)
	assert.Equal(t, 360.0, after.TotalMinutes)
	assert.GreaterOrEqual(t, after.TotalMinutes, before.TotalMinutes)
	assert.Equal(t, 2, after.EntryCount)
	assert.Equal(t, siteattendance.StatusGood, after.Status)
}

func TestRunDailyAggregation_NoiseExcludedButProcessed(t *testing.T) {
	f := newAggregationFixture(t)
	f.seed(t, testEmployee1, testSite1, siteattendance.EventTypeEnter, hourOf(8, 0), false)
	f.seed(t, testEmployee1, testSite1, siteattendance.EventTypeExit, hourOf(9, 0), false)
	noise := f.seed(t, testEmployee1, testSite1, siteattendance.EventTypeExit, hourOf(17, 0), true)

	result, err := f.service.RunDailyAggregation(context.Background(), testTenant, aggDate)
	require.NoError(t, err)

	assert.Equal(t, 1, result.NoiseEvents)
	assert.Equal(t, 3, result.EventsProcessed)

	summaries := f.store.Summaries()
	require.Len(t, summaries, 1)
	assert.Equal(t, 60.0, summaries[0].TotalMinutes)
	assert.Equal(t, 1, summaries[0].ExitCount)

	for _, ev := range f.store.Events() {
		if ev.ID == noise.ID {
			assert.True(t, ev.IsProcessed)
		}
	}
}

func TestRunDailyAggregation_OnlyNoiseCreatesNoSummary(t *testing.T) {
	f := newAggregationFixture(t)
	f.seed(t, testEmployee1, testSite1, siteattendance.EventTypeEnter, hourOf(8, 0), true)

	result, err := f.service.RunDailyAggregation(context.Background(), testTenant, aggDate)
	require.NoError(t, err)

	assert.Equal(t, 1, result.NoiseEvents)
	assert.Zero(t, result.SummariesCreated)
	assert.Empty(t, f.store.Summaries())
}

func TestRunDailyAggregation_LoneEnterIsIncomplete(t *testing.T) {
	f := newAggregationFixture(t)
	f.seed(t, testEmployee1, testSite1, siteattendance.EventTypeEnter, hourOf(8, 0), false)

	_, err := f.service.RunDailyAggregation(context.Background(), testTenant, aggDate)
	require.NoError(t, err)

	summaries := f.store.Summaries()
	require.Len(t, summaries, 1)
	assert.Equal(t, siteattendance.StatusIncomplete, summaries[0].Status)
	assert.Zero(t, summaries[0].TotalMinutes)
}

func TestRunDailyAggregation_GroupFailureIsIsolated(t *testing.T) {
	f := newAggregationFixture(t)
	f.seed(t, testEmployee1, testSite1, siteattendance.EventTypeEnter, hourOf(8, 0), false)
	f.seed(t, testEmployee1, testSite1, siteattendance.EventTypeExit, hourOf(16, 0), false)
	f.seed(t, testEmployee2, testSite2, siteattendance.EventTypeEnter, hourOf(8, 0), false)
	f.seed(t, testEmployee2, testSite2, siteattendance.EventTypeExit, hourOf(16, 0), false)

	f.store.Hooks.SaveSummary = func(s siteattendance.AttendanceSummary) error {
		if s.EmployeeID == testEmployee2 {
			return errors.New("disk full")
		}
		return nil
	}

	result, err := f.service.RunDailyAggregation(context.Background(), testTenant, aggDate)
	require.NoError(t, err)

	assert.Equal(t, 1, result.SummariesCreated)
	assert.Equal(t, 2, result.EventsProcessed)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], testEmployee2)

	for _, ev := range f.store.Events() {
		if ev.EmployeeID == testEmployee2 {
			assert.False(t, ev.IsProcessed, "failed group events must stay unprocessed")
		} else {
			assert.True(t, ev.IsProcessed)
		}
	}

	f.store.Hooks.SaveSummary = nil
	retry, err := f.service.RunDailyAggregation(context.Background(), testTenant, aggDate)
	require.NoError(t, err)
	assert.Equal(t, 1, retry.SummariesCreated)
	assert.Len(t, f.store.Summaries(), 2)
}

func TestRunDailyAggregation_MarkFailureRollsBackSummary(t *testing.T) {
	f := newAggregationFixture(t)
	f.seed(t, testEmployee1, testSite1, siteattendance.EventTypeEnter, hourOf(8, 0), false)
	f.seed(t, testEmployee1, testSite1, siteattendance.EventTypeExit, hourOf(16, 0), false)

	f.store.Hooks.MarkProcessed = func([]string) error { return errors.New("lock timeout") }

	result, err := f.service.RunDailyAggregation(context.Background(), testTenant, aggDate)
	require.NoError(t, err)

	assert.Zero(t, result.SummariesCreated)
	assert.Len(t, result.Errors, 1)
	assert.Empty(t, f.store.Summaries())
}

func TestRunDailyAggregation_SettingsFailureIsFatal(t *testing.T) {
	f := newAggregationFixture(t)
	f.seed(t, testEmployee1, testSite1, siteattendance.EventTypeEnter, hourOf(8, 0), false)
	f.store.Hooks.GetSettings = func(string) error { return errors.New("connection refused") }

	_, err := f.service.RunDailyAggregation(context.Background(), testTenant, aggDate)

	require.Error(t, err)
	assert.ErrorIs(t, err, siteattendance.ErrSettingsUnavailable)
	assert.False(t, f.store.Events()[0].IsProcessed)
}

func TestRunDailyAggregation_FetchFailureIsFatal(t *testing.T) {
	f := newAggregationFixture(t)
	f.store.Hooks.ListUnprocessed = func(string) error { return errors.New("timeout") }

	_, err := f.service.RunDailyAggregation(context.Background(), testTenant, aggDate)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch unprocessed events")
}

func TestRunDailyAggregation_RejectsFutureDate(t *testing.T) {
	f := newAggregationFixture(t)

	_, err := f.service.RunDailyAggregation(context.Background(), testTenant, aggDate.AddDate(0, 0, 2))

	assert.ErrorIs(t, err, siteattendance.ErrFutureAggregationDate)
}

func TestRunDailyAggregation_AllowsToday(t *testing.T) {
	f := newAggregationFixture(t)

	_, err := f.service.RunDailyAggregation(context.Background(), testTenant, aggDate.AddDate(0, 0, 1))

	assert.NoError(t, err)
}

func TestRunDailyAggregation_RequiresTenant(t *testing.T) {
	f := newAggregationFixture(t)

	_, err := f.service.RunDailyAggregation(context.Background(), "", aggDate)

	assert.ErrorIs(t, err, siteattendance.ErrTenantRequired)
}

func TestRunDailyAggregation_UsesTenantTimezone(t *testing.T) {
	f := newAggregationFixture(t)
	settings := siteattendance.DefaultSettings(testTenant)
	settings.Timezone = "Asia/Jakarta"
	f.store.SetSettings(settings)

	// 2026-03-10 07:00 local
	f.seed(t, testEmployee1, testSite1, siteattendance.EventTypeEnter, hourOf(0, 0), false)
	// 2026-03-10 15:00 local
	f.seed(t, testEmployee1, testSite1, siteattendance.EventTypeExit, hourOf(8, 0), false)
	// 2026-03-11 01:00 local, belongs to the next day
	f.seed(t, testEmployee1, testSite1, siteattendance.EventTypeEnter, hourOf(18, 0), false)

	result, err := f.service.RunDailyAggregation(context.Background(), testTenant, aggDate)
	require.NoError(t, err)

	assert.Equal(t, 2, result.EventsProcessed)
	summaries := f.store.Summaries()
	require.Len(t, summaries, 1)
	assert.Equal(t, 480.0, summaries[0].TotalMinutes)
	assert.Equal(t, siteattendance.StatusExcellent, summaries[0].Status)
}

func TestRunDailyAggregation_CancelledContext(t *testing.T) {
	f := newAggregationFixture(t)
	f.seed(t, testEmployee1, testSite1, siteattendance.EventTypeEnter, hourOf(8, 0), false)
	f.seed(t, testEmployee1, testSite1, siteattendance.EventTypeExit, hourOf(9, 0), false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := f.service.RunDailyAggregation(ctx, testTenant, aggDate)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, result.SummariesCreated)
	assert.Empty(t, f.store.Summaries())
}

func TestPartitionEvents(t *testing.T) {
	events := []siteattendance.AttendanceEvent{
		{ID: "1", EmployeeID: "b", SiteID: "s1"},
		{ID: "2", EmployeeID: "a", SiteID: "s2"},
		{ID: "3", EmployeeID: "a", SiteID: "s1"},
		{ID: "4", EmployeeID: "a", SiteID: "s1", IsNoise: true},
		{ID: "5", EmployeeID: "b", SiteID: "s1"},
	}

	noise, groups := partitionEvents(events)

	require.Len(t, noise, 1)
	assert.Equal(t, "4", noise[0].ID)
	require.Len(t, groups, 3)
	assert.Equal(t, groupKey{"a", "s1"}, groups[0].Key)
	assert.Equal(t, groupKey{"a", "s2"}, groups[1].Key)
	assert.Equal(t, groupKey{"b", "s1"}, groups[2].Key)
	assert.Len(t, groups[2].Events, 2)
}

func TestRunDailyAggregation_CountsSessionPairing(t *testing.T) {
	f := newAggregationFixture(t)
	f.seed(t, testEmployee1, testSite1, siteattendance.EventTypeEnter, hourOf(8, 0), false)
	f.seed(t, testEmployee1, testSite1, siteattendance.EventTypeEnter, hourOf(9, 0), false)
	f.seed(t, testEmployee1, testSite1, siteattendance.EventTypeExit, hourOf(12, 0), false)
	f.seed(t, testEmployee1, testSite1, siteattendance.EventTypeEnter, hourOf(15, 0), false)

	sessions := func(kind string) float64 {
		return testutil.ToFloat64(metrics.AggregationSessionsTotal.WithLabelValues(kind))
	}
	closed, orphan, open := sessions("closed"), sessions("orphan_enter"), sessions("open")

	result, err := f.service.RunDailyAggregation(context.Background(), testTenant, aggDate)
	require.NoError(t, err)
	require.Empty(t, result.Errors)

	assert.Equal(t, closed+1, sessions("closed"))
	assert.Equal(t, orphan+1, sessions("orphan_enter"))
	assert.Equal(t, open+1, sessions("open"))

	summaries := f.store.Summaries()
	require.Len(t, summaries, 1)
	assert.Equal(t, siteattendance.StatusIncomplete, summaries[0].Status)
	assert.InDelta(t, 180, summaries[0].TotalMinutes, 0.001)
}
