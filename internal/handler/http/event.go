package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/site-attendance-go/internal/domain/siteattendance"
	"github.com/cmlabs-hris/site-attendance-go/internal/handler/http/response"
)

type EventHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
}

type eventHandlerImpl struct {
	attendanceService siteattendance.AttendanceService
}

func NewEventHandler(attendanceService siteattendance.AttendanceService) EventHandler {
	return &eventHandlerImpl{
		attendanceService: attendanceService,
	}
}

// Create handles POST /attendance/events. Non-admin callers may only submit their own events.
func (h *eventHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	var req siteattendance.CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Debug("Failed to decode event request", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	req.TenantID = claims.TenantID
	if !claims.IsAdmin {
		if req.EmployeeID == "" {
			req.EmployeeID = claims.EmployeeID
		}
		if req.EmployeeID != claims.EmployeeID {
			response.Forbidden(w, "Cannot record events for another employee")
			return
		}
	}

	result, err := h.attendanceService.CreateEvent(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Attendance event recorded", result)
}

// List handles GET /attendance/events
func (h *eventHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	filter := siteattendance.EventFilter{
		EmployeeID: queryPtr(r, "employee_id"),
		SiteID:     queryPtr(r, "site_id"),
		StartDate:  queryPtr(r, "start_date"),
		EndDate:    queryPtr(r, "end_date"),
		Page:       queryInt(r, "page", 1),
		Limit:      queryInt(r, "limit", 20),
		SortOrder:  r.URL.Query().Get("sort_order"),
	}

	var err error
	if filter.IsNoise, err = queryBoolPtr(r, "is_noise"); err != nil {
		response.HandleError(w, err)
		return
	}
	if filter.IsProcessed, err = queryBoolPtr(r, "is_processed"); err != nil {
		response.HandleError(w, err)
		return
	}

	results, err := h.attendanceService.ListEvents(r.Context(), claims.TenantID, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}
