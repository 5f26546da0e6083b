package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cmlabs-hris/site-attendance-go/internal/domain/siteattendance"
	"golang.org/x/sync/errgroup"
)

// pendingDates finds tenant-local dates that still hold unprocessed events.
type pendingDates interface {
	ListUnprocessedDates(ctx context.Context, tenantID string, loc *time.Location, from, to time.Time) ([]time.Time, error)
}

// DailyAggregationOptions tunes the multi-tenant pass.
type DailyAggregationOptions struct {
	RunHour       int // UTC hour at which the pass runs
	Concurrency   int
	LookbackDays  int // how many past days are scanned for leftover unprocessed events
	TenantTimeout time.Duration
}

// DailyAggregationJobs runs the daily aggregation for every tenant with active sites.
type DailyAggregationJobs struct {
	tenants     siteattendance.TenantRepository
	settings    siteattendance.SettingsProvider
	events      pendingDates
	aggregation siteattendance.AggregationService

	runHour       int
	concurrency   int
	lookbackDays  int
	tenantTimeout time.Duration
	now           func() time.Time
}

// RunSummary counts tenant outcomes of one multi-tenant pass.
type RunSummary struct {
	Tenants   int
	Succeeded int
	Failed    int
}

func NewDailyAggregationJobs(
	tenants siteattendance.TenantRepository,
	settings siteattendance.SettingsProvider,
	events pendingDates,
	aggregation siteattendance.AggregationService,
	opts DailyAggregationOptions,
) *DailyAggregationJobs {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.LookbackDays < 1 {
		opts.LookbackDays = 1
	}
	return &DailyAggregationJobs{
		tenants:       tenants,
		settings:      settings,
		events:        events,
		aggregation:   aggregation,
		runHour:       opts.RunHour,
		concurrency:   opts.Concurrency,
		lookbackDays:  opts.LookbackDays,
		tenantTimeout: opts.TenantTimeout,
		now:           time.Now,
	}
}

// WithClock overrides the time source. Intended for tests.
func (j *DailyAggregationJobs) WithClock(now func() time.Time) *DailyAggregationJobs {
	j.now = now
	return j
}

func (j *DailyAggregationJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob(Job{
		Name:     "daily_site_attendance_aggregation",
		Interval: 1 * time.Hour,
		Fn:       j.AggregatePreviousDay,
	})
}

// AggregatePreviousDay only acts during the configured UTC hour.
func (j *DailyAggregationJobs) AggregatePreviousDay(ctx context.Context) error {
	if j.now().UTC().Hour() != j.runHour {
		return nil
	}

	slog.Info("Cron: Starting daily site attendance aggregation")
	summary, err := j.RunAllTenants(ctx)
	if err != nil {
		return err
	}

	slog.Info("Cron: Daily site attendance aggregation finished",
		"tenants", summary.Tenants,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed)
	return nil
}

// RunAllTenants aggregates yesterday (in each tenant's timezone) for all tenants, plus any
// earlier date within the lookback window that still has unprocessed events.
// A tenant failure is logged and does not stop the others.
func (j *DailyAggregationJobs) RunAllTenants(ctx context.Context) (RunSummary, error) {
	tenantIDs, err := j.tenants.ListActiveTenantIDs(ctx)
	if err != nil {
		return RunSummary{}, fmt.Errorf("failed to list tenants: %w", err)
	}

	var succeeded, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.concurrency)

	for _, tenantID := range tenantIDs {
		tenantID := tenantID
		g.Go(func() error {
			if err := j.runTenant(gctx, tenantID); err != nil {
				failed.Add(1)
				slog.Error("Cron: Tenant aggregation failed", "tenant_id", tenantID, "error", err)
				return nil
			}
			succeeded.Add(1)
			return nil
		})
	}

	_ = g.Wait()

	return RunSummary{
		Tenants:   len(tenantIDs),
		Succeeded: int(succeeded.Load()),
		Failed:    int(failed.Load()),
	}, ctx.Err()
}

func (j *DailyAggregationJobs) runTenant(ctx context.Context, tenantID string) error {
	if j.tenantTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.tenantTimeout)
		defer cancel()
	}

	settings, err := j.settings.GetSettings(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("%w: %v", siteattendance.ErrSettingsUnavailable, err)
	}
	loc := settings.Normalize().Location()

	dates, err := j.datesToAggregate(ctx, tenantID, loc)
	if err != nil {
		return err
	}

	var errs []error
	for _, date := range dates {
		result, err := j.aggregation.RunDailyAggregation(ctx, tenantID, date)
		if err != nil {
			errs = append(errs, fmt.Errorf("date %s: %w", date.Format("2006-01-02"), err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if len(result.Errors) > 0 {
			slog.Warn("Cron: Tenant aggregation completed with errors",
				"tenant_id", tenantID,
				"date", result.Date,
				"errors", result.Errors)
		}
	}
	return errors.Join(errs...)
}

// datesToAggregate returns yesterday plus every earlier date in the lookback window that
// still has unprocessed events, oldest first.
func (j *DailyAggregationJobs) datesToAggregate(ctx context.Context, tenantID string, loc *time.Location) ([]time.Time, error) {
	now := j.now().In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	yesterday := today.AddDate(0, 0, -1)
	from := today.AddDate(0, 0, -j.lookbackDays)

	pending, err := j.events.ListUnprocessedDates(ctx, tenantID, loc, from, today)
	if err != nil {
		return nil, fmt.Errorf("failed to list dates with unprocessed events: %w", err)
	}

	dates := make([]time.Time, 0, len(pending)+1)
	for _, date := range pending {
		if !date.Equal(yesterday) {
			dates = append(dates, date)
		}
	}
	return append(dates, yesterday), nil
}
