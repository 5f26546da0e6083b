package http

import (
	"net/http"

	"github.com/cmlabs-hris/site-attendance-go/internal/domain/siteattendance"
	"github.com/cmlabs-hris/site-attendance-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type GeofenceHandler interface {
	Nearest(w http.ResponseWriter, r *http.Request)
	CheckSite(w http.ResponseWriter, r *http.Request)
}

type geofenceHandlerImpl struct {
	attendanceService siteattendance.AttendanceService
}

func NewGeofenceHandler(attendanceService siteattendance.AttendanceService) GeofenceHandler {
	return &geofenceHandlerImpl{attendanceService: attendanceService}
}

// Nearest handles GET /attendance/geofence/nearest?latitude=&longitude=
func (h *geofenceHandlerImpl) Nearest(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	lat, lon, err := parseCoordinates(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.NearestSite(r.Context(), claims.TenantID, lat, lon)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// CheckSite handles GET /attendance/geofence/sites/{siteID}?latitude=&longitude=
func (h *geofenceHandlerImpl) CheckSite(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	lat, lon, err := parseCoordinates(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.CheckGeofence(r.Context(), claims.TenantID, chi.URLParam(r, "siteID"), lat, lon)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
