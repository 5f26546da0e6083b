package dashboard

import "context"

// DashboardService defines the interface for site attendance dashboard operations
type DashboardService interface {
	// GetDashboard returns KPIs, employee performance and the daily trend, loaded concurrently
	GetDashboard(ctx context.Context, tenantID string, req PeriodRequest) (*DashboardResponse, error)

	// GetKPIs returns tenant-wide totals for the period
	GetKPIs(ctx context.Context, tenantID string, req PeriodRequest) (*KPIResponse, error)

	// GetEmployeePerformance returns per-employee totals sorted by utilization
	GetEmployeePerformance(ctx context.Context, tenantID string, req PeriodRequest) (*EmployeePerformanceResponse, error)

	// GetDailyTrend returns per-day totals for the period
	GetDailyTrend(ctx context.Context, tenantID string, req PeriodRequest) (*DailyTrendResponse, error)
}
