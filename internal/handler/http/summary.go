package http

import (
	"net/http"
	"time"

	"github.com/cmlabs-hris/site-attendance-go/internal/domain/report"
	"github.com/cmlabs-hris/site-attendance-go/internal/domain/siteattendance"
	"github.com/cmlabs-hris/site-attendance-go/internal/handler/http/response"
)

type SummaryHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	Export(w http.ResponseWriter, r *http.Request)
}

type summaryHandlerImpl struct {
	attendanceService siteattendance.AttendanceService
	reportService     report.ReportService
}

func NewSummaryHandler(attendanceService siteattendance.AttendanceService, reportService report.ReportService) SummaryHandler {
	return &summaryHandlerImpl{
		attendanceService: attendanceService,
		reportService:     reportService,
	}
}

func summaryFilterFromQuery(r *http.Request) siteattendance.SummaryFilter {
	return siteattendance.SummaryFilter{
		EmployeeID: queryPtr(r, "employee_id"),
		SiteID:     queryPtr(r, "site_id"),
		StartDate:  queryPtr(r, "start_date"),
		EndDate:    queryPtr(r, "end_date"),
		Status:     queryPtr(r, "status"),
		Page:       queryInt(r, "page", 1),
		Limit:      queryInt(r, "limit", 20),
		SortBy:     r.URL.Query().Get("sort_by"),
		SortOrder:  r.URL.Query().Get("sort_order"),
	}
}

// List handles GET /attendance/summaries
func (h *summaryHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	results, err := h.attendanceService.ListSummaries(r.Context(), claims.TenantID, summaryFilterFromQuery(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

// Export handles GET /attendance/summaries/export
func (h *summaryHandlerImpl) Export(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	data, err := h.reportService.ExportSummaries(r.Context(), claims.TenantID, summaryFilterFromQuery(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Attachment(w, report.XLSXContentType, report.ExportFileName(time.Now()), data)
}
