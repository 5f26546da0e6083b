package http

import (
	"net/http"

	"github.com/cmlabs-hris/site-attendance-go/internal/domain/dashboard"
	"github.com/cmlabs-hris/site-attendance-go/internal/handler/http/response"
)

type DashboardHandler interface {
	// GetDashboard returns combined dashboard data
	GetDashboard(w http.ResponseWriter, r *http.Request)
	// GetKPIs returns tenant-wide totals
	GetKPIs(w http.ResponseWriter, r *http.Request)
	// GetEmployeePerformance returns the utilization ranking
	GetEmployeePerformance(w http.ResponseWriter, r *http.Request)
	// GetDailyTrend returns per-day totals
	GetDailyTrend(w http.ResponseWriter, r *http.Request)
}

type dashboardHandlerImpl struct {
	dashboardService dashboard.DashboardService
}

func NewDashboardHandler(dashboardService dashboard.DashboardService) DashboardHandler {
	return &dashboardHandlerImpl{dashboardService: dashboardService}
}

func periodFromQuery(r *http.Request) dashboard.PeriodRequest {
	return dashboard.PeriodRequest{
		StartDate: r.URL.Query().Get("start_date"), // format: YYYY-MM-DD
		EndDate:   r.URL.Query().Get("end_date"),
	}
}

// GetDashboard handles GET /dashboard
func (h *dashboardHandlerImpl) GetDashboard(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	result, err := h.dashboardService.GetDashboard(r.Context(), claims.TenantID, periodFromQuery(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetKPIs handles GET /dashboard/kpis
func (h *dashboardHandlerImpl) GetKPIs(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	result, err := h.dashboardService.GetKPIs(r.Context(), claims.TenantID, periodFromQuery(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetEmployeePerformance handles GET /dashboard/employee-performance
func (h *dashboardHandlerImpl) GetEmployeePerformance(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	result, err := h.dashboardService.GetEmployeePerformance(r.Context(), claims.TenantID, periodFromQuery(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetDailyTrend handles GET /dashboard/daily-trend
func (h *dashboardHandlerImpl) GetDailyTrend(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	result, err := h.dashboardService.GetDailyTrend(r.Context(), claims.TenantID, periodFromQuery(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
