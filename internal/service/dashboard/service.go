package dashboard

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cmlabs-hris/site-attendance-go/internal/domain/dashboard"
	"github.com/cmlabs-hris/site-attendance-go/internal/domain/siteattendance"
	"github.com/cmlabs-hris/site-attendance-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// defaultPeriodDays is the window used when the request leaves a bound empty.
const defaultPeriodDays = 30

var (
	hundred        = decimal.NewFromInt(100)
	minutesPerHour = decimal.NewFromInt(60)
)

var _ dashboard.DashboardService = (*DashboardServiceImpl)(nil)

type DashboardServiceImpl struct {
	dashboard.SummaryReader
	now func() time.Time
}

func NewDashboardService(reader dashboard.SummaryReader) *DashboardServiceImpl {
	return &DashboardServiceImpl{
		SummaryReader: reader,
		now:           time.Now,
	}
}

// WithClock overrides the time source. Intended for tests.
func (s *DashboardServiceImpl) WithClock(now func() time.Time) *DashboardServiceImpl {
	s.now = now
	return s
}

type period struct {
	from time.Time
	to   time.Time
}

func (p period) start() string { return p.from.Format("2006-01-02") }
func (p period) end() string   { return p.to.Format("2006-01-02") }

// resolvePeriod fills missing bounds: end defaults to today, start to a 30 day window ending at end.
func (s *DashboardServiceImpl) resolvePeriod(req dashboard.PeriodRequest) (period, error) {
	if err := req.Validate(); err != nil {
		return period{}, err
	}

	to := siteattendance.DateOnly(s.now().UTC())
	if req.EndDate != "" {
		to, _ = validator.IsValidDate(req.EndDate)
	}
	from := to.AddDate(0, 0, -(defaultPeriodDays - 1))
	if req.StartDate != "" {
		from, _ = validator.IsValidDate(req.StartDate)
	}

	if to.Before(from) {
		return period{}, validator.ValidationErrors{{
			Field:   "start_date",
			Message: "start_date must not be after end_date",
		}}
	}
	if to.Sub(from).Hours()/24 >= dashboard.MaxPeriodDays {
		return period{}, validator.ValidationErrors{{
			Field:   "start_date",
			Message: "period must not exceed 366 days",
		}}
	}

	return period{from: from, to: to}, nil
}

func (s *DashboardServiceImpl) load(ctx context.Context, tenantID string, p period) ([]siteattendance.AttendanceSummary, error) {
	if tenantID == "" {
		return nil, siteattendance.ErrTenantRequired
	}
	summaries, err := s.ListByDateRange(ctx, tenantID, p.from, p.to)
	if err != nil {
		return nil, fmt.Errorf("failed to load summaries: %w", err)
	}
	return summaries, nil
}

// GetDashboard loads the period once and builds the three sections in parallel.
func (s *DashboardServiceImpl) GetDashboard(ctx context.Context, tenantID string, req dashboard.PeriodRequest) (*dashboard.DashboardResponse, error) {
	p, err := s.resolvePeriod(req)
	if err != nil {
		return nil, err
	}

	summaries, err := s.load(ctx, tenantID, p)
	if err != nil {
		return nil, err
	}

	var (
		resp dashboard.DashboardResponse
		g    errgroup.Group
	)

	g.Go(func() error {
		resp.KPIs = buildKPIs(p, summaries)
		return nil
	})

	g.Go(func() error {
		resp.EmployeePerformance = buildPerformance(p, summaries)
		return nil
	})

	g.Go(func() error {
		resp.DailyTrend = buildTrend(p, summaries)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *DashboardServiceImpl) GetKPIs(ctx context.Context, tenantID string, req dashboard.PeriodRequest) (*dashboard.KPIResponse, error) {
	p, err := s.resolvePeriod(req)
	if err != nil {
		return nil, err
	}
	summaries, err := s.load(ctx, tenantID, p)
	if err != nil {
		return nil, err
	}
	kpis := buildKPIs(p, summaries)
	return &kpis, nil
}

func (s *DashboardServiceImpl) GetEmployeePerformance(ctx context.Context, tenantID string, req dashboard.PeriodRequest) (*dashboard.EmployeePerformanceResponse, error) {
	p, err := s.resolvePeriod(req)
	if err != nil {
		return nil, err
	}
	summaries, err := s.load(ctx, tenantID, p)
	if err != nil {
		return nil, err
	}
	performance := buildPerformance(p, summaries)
	return &performance, nil
}

func (s *DashboardServiceImpl) GetDailyTrend(ctx context.Context, tenantID string, req dashboard.PeriodRequest) (*dashboard.DailyTrendResponse, error) {
	p, err := s.resolvePeriod(req)
	if err != nil {
		return nil, err
	}
	summaries, err := s.load(ctx, tenantID, p)
	if err != nil {
		return nil, err
	}
	trend := buildTrend(p, summaries)
	return &trend, nil
}

// ========== ROLLUPS ==========

type rollup struct {
	count    int64
	spa      int64
	minutes  decimal.Decimal
	expected decimal.Decimal
	statuses dashboard.StatusCounts
}

func (r *rollup) add(s siteattendance.AttendanceSummary) {
	r.count++
	if s.HasSpa {
		r.spa++
	}
	r.minutes = r.minutes.Add(decimal.NewFromFloat(s.TotalMinutes))
	r.expected = r.expected.Add(decimal.NewFromFloat(s.ExpectedHours))

	switch s.Status {
	case siteattendance.StatusExcellent:
		r.statuses.Excellent++
	case siteattendance.StatusGood:
		r.statuses.Good++
	case siteattendance.StatusBelowTarget:
		r.statuses.BelowTarget++
	case siteattendance.StatusAbsent:
		r.statuses.Absent++
	case siteattendance.StatusIncomplete:
		r.statuses.Incomplete++
	}
}

func (r rollup) totalHours() float64 {
	return r.minutes.Div(minutesPerHour).Round(2).InexactFloat64()
}

func (r rollup) expectedHours() float64 {
	return r.expected.Round(2).InexactFloat64()
}

func (r rollup) utilization() decimal.Decimal {
	if !r.expected.IsPositive() {
		return decimal.Zero
	}
	return r.minutes.Mul(hundred).Div(r.expected.Mul(minutesPerHour)).Round(2)
}

func (r rollup) spaCoverage() float64 {
	if r.count == 0 {
		return 0
	}
	return decimal.NewFromInt(r.spa).Mul(hundred).Div(decimal.NewFromInt(r.count)).Round(2).InexactFloat64()
}

func buildKPIs(p period, summaries []siteattendance.AttendanceSummary) dashboard.KPIResponse {
	var total rollup
	employees := make(map[string]struct{})
	sites := make(map[string]struct{})

	for _, s := range summaries {
		total.add(s)
		employees[s.EmployeeID] = struct{}{}
		sites[s.SiteID] = struct{}{}
	}

	return dashboard.KPIResponse{
		StartDate:          p.start(),
		EndDate:            p.end(),
		SummaryCount:       total.count,
		EmployeeCount:      int64(len(employees)),
		SiteCount:          int64(len(sites)),
		TotalHours:         total.totalHours(),
		ExpectedHours:      total.expectedHours(),
		UtilizationPercent: total.utilization().InexactFloat64(),
		SpaCoverage:        total.spaCoverage(),
		StatusCounts:       total.statuses,
	}
}

type employeeRollup struct {
	rollup
	employeeID string
	name       *string
	days       map[string]struct{}
}

func buildPerformance(p period, summaries []siteattendance.AttendanceSummary) dashboard.EmployeePerformanceResponse {
	byEmployee := make(map[string]*employeeRollup)
	for _, s := range summaries {
		r, ok := byEmployee[s.EmployeeID]
		if !ok {
			r = &employeeRollup{employeeID: s.EmployeeID, days: make(map[string]struct{})}
			byEmployee[s.EmployeeID] = r
		}
		if r.name == nil && s.EmployeeName != nil {
			r.name = s.EmployeeName
		}
		r.days[s.Date.Format("2006-01-02")] = struct{}{}
		r.add(s)
	}

	rollups := make([]*employeeRollup, 0, len(byEmployee))
	for _, r := range byEmployee {
		rollups = append(rollups, r)
	}
	sort.Slice(rollups, func(i, j int) bool {
		ui, uj := rollups[i].utilization(), rollups[j].utilization()
		if !ui.Equal(uj) {
			return ui.GreaterThan(uj)
		}
		return rollups[i].employeeID < rollups[j].employeeID
	})

	items := make([]dashboard.EmployeePerformanceItem, 0, len(rollups))
	for i, r := range rollups {
		items = append(items, dashboard.EmployeePerformanceItem{
			Rank:               i + 1,
			EmployeeID:         r.employeeID,
			EmployeeName:       r.name,
			Days:               len(r.days),
			TotalHours:         r.totalHours(),
			ExpectedHours:      r.expectedHours(),
			UtilizationPercent: r.utilization().InexactFloat64(),
			StatusCounts:       r.statuses,
		})
	}

	return dashboard.EmployeePerformanceResponse{
		StartDate: p.start(),
		EndDate:   p.end(),
		Employees: items,
	}
}

func buildTrend(p period, summaries []siteattendance.AttendanceSummary) dashboard.DailyTrendResponse {
	byDate := make(map[string]*rollup)
	for _, s := range summaries {
		key := s.Date.Format("2006-01-02")
		r, ok := byDate[key]
		if !ok {
			r = &rollup{}
			byDate[key] = r
		}
		r.add(s)
	}

	days := make([]dashboard.DailyTrendItem, 0)
	for d := p.from; !d.After(p.to); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		item := dashboard.DailyTrendItem{Date: key}
		if r, ok := byDate[key]; ok {
			item.SummaryCount = r.count
			item.TotalHours = r.totalHours()
			item.UtilizationPercent = r.utilization().InexactFloat64()
		}
		days = append(days, item)
	}

	return dashboard.DailyTrendResponse{
		StartDate: p.start(),
		EndDate:   p.end(),
		Days:      days,
	}
}
