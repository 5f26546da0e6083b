package dashboard

import (
	"github.com/cmlabs-hris/site-attendance-go/internal/pkg/validator"
)

// MaxPeriodDays bounds the reporting window.
const MaxPeriodDays = 366

// ========== PERIOD ==========

// PeriodRequest selects the summary dates to aggregate. Both bounds are optional;
// the service fills missing bounds with a window ending today.
type PeriodRequest struct {
	StartDate string `json:"start_date"` // YYYY-MM-DD
	EndDate   string `json:"end_date"`   // YYYY-MM-DD
}

func (r *PeriodRequest) Validate() error {
	var errs validator.ValidationErrors

	start, startValid := validator.IsValidDate(r.StartDate)
	if r.StartDate != "" && !startValid {
		errs = append(errs, validator.ValidationError{
			Field:   "start_date",
			Message: "start_date must be in YYYY-MM-DD format",
		})
	}

	end, endValid := validator.IsValidDate(r.EndDate)
	if r.EndDate != "" && !endValid {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must be in YYYY-MM-DD format",
		})
	}

	if startValid && endValid {
		if end.Before(start) {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must be on or after start_date",
			})
		} else if end.Sub(start).Hours()/24 >= MaxPeriodDays {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "period must not exceed 366 days",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ========== COMBINED DASHBOARD ==========

// DashboardResponse is the combined response for the main dashboard endpoint
type DashboardResponse struct {
	KPIs                KPIResponse                 `json:"kpis"`
	EmployeePerformance EmployeePerformanceResponse `json:"employee_performance"`
	DailyTrend          DailyTrendResponse          `json:"daily_trend"`
}

// ========== KPIs ==========

type StatusCounts struct {
	Excellent   int64 `json:"excellent"`
	Good        int64 `json:"good"`
	BelowTarget int64 `json:"below_target"`
	Absent      int64 `json:"absent"`
	Incomplete  int64 `json:"incomplete"`
}

// KPIResponse rolls every summary in the period into tenant-wide totals.
// UtilizationPercent is total minutes over total expected minutes.
type KPIResponse struct {
	StartDate          string       `json:"start_date"`
	EndDate            string       `json:"end_date"`
	SummaryCount       int64        `json:"summary_count"`
	EmployeeCount      int64        `json:"employee_count"`
	SiteCount          int64        `json:"site_count"`
	TotalHours         float64      `json:"total_hours"`
	ExpectedHours      float64      `json:"expected_hours"`
	UtilizationPercent float64      `json:"utilization_percent"`
	SpaCoverage        float64      `json:"spa_coverage_percent"`
	StatusCounts       StatusCounts `json:"status_counts"`
}

// ========== EMPLOYEE PERFORMANCE ==========

type EmployeePerformanceItem struct {
	Rank               int          `json:"rank"`
	EmployeeID         string       `json:"employee_id"`
	EmployeeName       *string      `json:"employee_name,omitempty"`
	Days               int          `json:"days"`
	TotalHours         float64      `json:"total_hours"`
	ExpectedHours      float64      `json:"expected_hours"`
	UtilizationPercent float64      `json:"utilization_percent"`
	StatusCounts       StatusCounts `json:"status_counts"`
}

// EmployeePerformanceResponse lists employees by utilization, highest first.
type EmployeePerformanceResponse struct {
	StartDate string                    `json:"start_date"`
	EndDate   string                    `json:"end_date"`
	Employees []EmployeePerformanceItem `json:"employees"`
}

// ========== DAILY TREND ==========

type DailyTrendItem struct {
	Date               string  `json:"date"` // Format: "YYYY-MM-DD"
	SummaryCount       int64   `json:"summary_count"`
	TotalHours         float64 `json:"total_hours"`
	UtilizationPercent float64 `json:"utilization_percent"`
}

// DailyTrendResponse has one entry per calendar day in the period, including empty days.
type DailyTrendResponse struct {
	StartDate string           `json:"start_date"`
	EndDate   string           `json:"end_date"`
	Days      []DailyTrendItem `json:"days"`
}
