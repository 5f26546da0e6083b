package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/cmlabs-hris/site-attendance-go/internal/domain/siteattendance"
	"github.com/cmlabs-hris/site-attendance-go/internal/pkg/metrics"
	"github.com/google/uuid"
)

var _ siteattendance.AggregationService = (*AggregationServiceImpl)(nil)

type AggregationServiceImpl struct {
	events    siteattendance.EventRepository
	summaries siteattendance.SummaryRepository
	settings  siteattendance.SettingsProvider
	spa       siteattendance.SpaChecker
	tx        siteattendance.Transactor
	now       func() time.Time
}

func NewAggregationService(
	eventRepo siteattendance.EventRepository,
	summaryRepo siteattendance.SummaryRepository,
	settings siteattendance.SettingsProvider,
	spa siteattendance.SpaChecker,
	tx siteattendance.Transactor,
) *AggregationServiceImpl {
	return &AggregationServiceImpl{
		events:    eventRepo,
		summaries: summaryRepo,
		settings:  settings,
		spa:       spa,
		tx:        tx,
		now:       time.Now,
	}
}

// WithClock overrides the wall clock, used for "today" checks and processed timestamps.
func (s *AggregationServiceImpl) WithClock(now func() time.Time) *AggregationServiceImpl {
	s.now = now
	return s
}

type groupKey struct {
	EmployeeID string
	SiteID     string
}

type eventGroup struct {
	Key    groupKey
	Events []siteattendance.AttendanceEvent
}

type groupOutcome struct {
	Key     groupKey
	Created bool
	Marked  int64
	Err     error
}

// partitionEvents splits noise from presence events and groups the latter by
// employee and site in a stable order.
func partitionEvents(events []siteattendance.AttendanceEvent) ([]siteattendance.AttendanceEvent, []eventGroup) {
	var noise []siteattendance.AttendanceEvent
	byKey := make(map[groupKey][]siteattendance.AttendanceEvent)

	for _, ev := range events {
		if ev.IsNoise {
			noise = append(noise, ev)
			continue
		}
		key := groupKey{EmployeeID: ev.EmployeeID, SiteID: ev.SiteID}
		byKey[key] = append(byKey[key], ev)
	}

	groups := make([]eventGroup, 0, len(byKey))
	for key, evs := range byKey {
		groups = append(groups, eventGroup{Key: key, Events: evs})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Key.EmployeeID != groups[j].Key.EmployeeID {
			return groups[i].Key.EmployeeID < groups[j].Key.EmployeeID
		}
		return groups[i].Key.SiteID < groups[j].Key.SiteID
	})

	return noise, groups
}

// RunDailyAggregation implements siteattendance.AggregationService.
func (s *AggregationServiceImpl) RunDailyAggregation(ctx context.Context, tenantID string, date time.Time) (siteattendance.DailyAggregationResult, error) {
	started := time.Now()
	day := siteattendance.DateOnly(date)
	result := siteattendance.DailyAggregationResult{
		TenantID: tenantID,
		Date:     day.Format("2006-01-02"),
		Errors:   []string{},
	}

	if tenantID == "" {
		return result, siteattendance.ErrTenantRequired
	}

	settings, err := s.settings.GetSettings(ctx, tenantID)
	if err != nil {
		metrics.AggregationRunsTotal.WithLabelValues("fatal").Inc()
		return result, fmt.Errorf("%w: %v", siteattendance.ErrSettingsUnavailable, err)
	}
	settings = settings.Normalize()
	loc := settings.Location()

	today := siteattendance.DateOnly(s.now().In(loc))
	if day.After(today) {
		return result, siteattendance.ErrFutureAggregationDate
	}

	from, to := siteattendance.DayWindow(day, loc)
	pending, err := s.events.ListUnprocessed(ctx, tenantID, from, to)
	if err != nil {
		metrics.AggregationRunsTotal.WithLabelValues("fatal").Inc()
		return result, fmt.Errorf("failed to fetch unprocessed events: %w", err)
	}

	if len(pending) == 0 {
		metrics.AggregationRunsTotal.WithLabelValues("empty").Inc()
		return result, nil
	}

	noise, groups := partitionEvents(pending)

	if len(noise) > 0 {
		ids := make([]string, 0, len(noise))
		for _, ev := range noise {
			ids = append(ids, ev.ID)
		}
		marked, err := s.events.MarkProcessed(ctx, tenantID, ids, s.now().UTC())
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("noise events: %v", err))
		} else {
			result.NoiseEvents = len(noise)
			result.EventsProcessed += int(marked)
		}
	}

	var runErr error
	for _, group := range groups {
		if err := ctx.Err(); err != nil {
			runErr = fmt.Errorf("aggregation interrupted: %w", err)
			break
		}

		outcome := s.processGroup(ctx, tenantID, day, from, to, settings, group)
		if outcome.Err != nil {
			metrics.AggregationGroupsTotal.WithLabelValues("failed").Inc()
			slog.Warn("Aggregation group failed",
				"tenant_id", tenantID,
				"employee_id", outcome.Key.EmployeeID,
				"site_id", outcome.Key.SiteID,
				"date", result.Date,
				"error", outcome.Err)
			result.Errors = append(result.Errors, fmt.Sprintf("employee %s at site %s: %v",
				outcome.Key.EmployeeID, outcome.Key.SiteID, outcome.Err))
			continue
		}

		metrics.AggregationGroupsTotal.WithLabelValues("succeeded").Inc()
		result.EventsProcessed += int(outcome.Marked)
		if outcome.Created {
			result.SummariesCreated++
		} else {
			result.SummariesUpdated++
		}
	}

	metrics.AggregationEventsProcessedTotal.Add(float64(result.EventsProcessed))
	metrics.AggregationDuration.Observe(time.Since(started).Seconds())

	if runErr != nil {
		metrics.AggregationRunsTotal.WithLabelValues("interrupted").Inc()
		return result, runErr
	}

	if len(result.Errors) > 0 {
		metrics.AggregationRunsTotal.WithLabelValues("partial").Inc()
	} else {
		metrics.AggregationRunsTotal.WithLabelValues("succeeded").Inc()
	}

	slog.Info("Daily aggregation completed",
		"tenant_id", tenantID,
		"date", result.Date,
		"events_processed", result.EventsProcessed,
		"summaries_created", result.SummariesCreated,
		"summaries_updated", result.SummariesUpdated,
		"errors", len(result.Errors),
		"duration", time.Since(started))

	return result, nil
}

// processGroup recomputes the summary for one employee/site/day from every event
// stored for that key, then marks the group's pending events processed. All writes
// share one transaction so a failed group leaves its events eligible for the next run.
func (s *AggregationServiceImpl) processGroup(
	ctx context.Context,
	tenantID string,
	day, from, to time.Time,
	settings siteattendance.AttendanceSettings,
	group eventGroup,
) groupOutcome {
	outcome := groupOutcome{Key: group.Key}
	employeeID, siteID := group.Key.EmployeeID, group.Key.SiteID
	var calc TimeOnSite

	outcome.Err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		dayEvents, err := s.events.ListByEmployeeSite(ctx, tenantID, employeeID, siteID, from, to)
		if err != nil {
			return fmt.Errorf("failed to load day events: %w", err)
		}

		presence := make([]siteattendance.AttendanceEvent, 0, len(dayEvents))
		for _, ev := range dayEvents {
			if !ev.IsNoise {
				presence = append(presence, ev)
			}
		}
		calc = CalculateTimeOnSite(presence)

		hasSpa, err := s.spa.Exists(ctx, tenantID, employeeID, siteID, day)
		if err != nil {
			return fmt.Errorf("failed to check site photo attendance: %w", err)
		}

		existing, err := s.summaries.GetByKey(ctx, tenantID, employeeID, siteID, day)
		if err != nil {
			return fmt.Errorf("failed to load summary: %w", err)
		}

		summary := siteattendance.AttendanceSummary{
			TenantID:   tenantID,
			EmployeeID: employeeID,
			SiteID:     siteID,
			Date:       day,
		}
		if existing != nil {
			summary = *existing
		}

		summary.ExpectedHours = settings.ExpectedHoursPerDay
		summary.FirstEntry = calc.FirstEntry
		summary.LastExit = calc.LastExit
		summary.TotalMinutes = calc.TotalMinutes
		summary.EntryCount = calc.EntryCount
		summary.ExitCount = calc.ExitCount
		summary.HasSpa = hasSpa
		summary.Status = Classify(calc.TotalMinutes, settings.ExpectedHoursPerDay, len(presence) > 0, calc.OpenSession)

		if existing == nil {
			id, err := uuid.NewV7()
			if err != nil {
				return fmt.Errorf("failed to generate summary id: %w", err)
			}
			summary.ID = id.String()
			if _, err := s.summaries.Create(ctx, summary); err != nil {
				return fmt.Errorf("failed to create summary: %w", err)
			}
			outcome.Created = true
		} else {
			if err := s.summaries.Update(ctx, summary); err != nil {
				return fmt.Errorf("failed to update summary: %w", err)
			}
		}

		ids := make([]string, 0, len(group.Events))
		for _, ev := range group.Events {
			ids = append(ids, ev.ID)
		}
		marked, err := s.events.MarkProcessed(ctx, tenantID, ids, s.now().UTC())
		if err != nil {
			return fmt.Errorf("failed to mark events processed: %w", err)
		}
		outcome.Marked = marked

		return nil
	})

	if outcome.Err != nil {
		outcome.Created = false
		outcome.Marked = 0
		if errors.Is(outcome.Err, context.Canceled) || errors.Is(outcome.Err, context.DeadlineExceeded) {
			outcome.Err = fmt.Errorf("cancelled: %w", outcome.Err)
		}
		return outcome
	}

	metrics.AggregationSessionsTotal.WithLabelValues("closed").Add(float64(calc.ClosedSessions))
	metrics.AggregationSessionsTotal.WithLabelValues("orphan_enter").Add(float64(calc.OrphanEnters))
	if calc.OpenSession {
		metrics.AggregationSessionsTotal.WithLabelValues("open").Inc()
	}
	if calc.OrphanEnters > 0 || calc.OpenSession {
		slog.Debug("Unpaired site attendance events",
			"tenant_id", tenantID,
			"employee_id", employeeID,
			"site_id", siteID,
			"date", day.Format("2006-01-02"),
			"closed_sessions", calc.ClosedSessions,
			"orphan_enters", calc.OrphanEnters,
			"open_session", calc.OpenSession)
	}

	return outcome
}
