package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/site-attendance-go/internal/domain/report"
	"github.com/cmlabs-hris/site-attendance-go/internal/domain/siteattendance"
	"github.com/cmlabs-hris/site-attendance-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/site-attendance-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth errors
	case errors.Is(err, jwt.ErrInvalidToken):
		Unauthorized(w, "Invalid or missing access token")
	case errors.Is(err, jwt.ErrTenantRequired), errors.Is(err, siteattendance.ErrTenantRequired):
		Unauthorized(w, "Tenant is required")

	// Event errors
	case errors.Is(err, siteattendance.ErrSiteNotFound):
		NotFound(w, "Site not found")
	case errors.Is(err, siteattendance.ErrSiteInactive):
		BadRequest(w, "Site is not active", nil)
	case errors.Is(err, siteattendance.ErrDeviceEmployeeMismatch):
		BadRequest(w, "Device is registered to a different employee", nil)
	case errors.Is(err, siteattendance.ErrEventNotFound):
		NotFound(w, "Attendance event not found")

	// Aggregation errors
	case errors.Is(err, siteattendance.ErrFutureAggregationDate):
		BadRequest(w, "Aggregation date cannot be in the future", nil)
	case errors.Is(err, siteattendance.ErrSettingsUnavailable):
		ServiceUnavailable(w, "Attendance settings are temporarily unavailable")

	// Summary errors
	case errors.Is(err, siteattendance.ErrSummaryNotFound):
		NotFound(w, "Attendance summary not found")
	case errors.Is(err, siteattendance.ErrSummaryAlreadyExists):
		Conflict(w, "Attendance summary already exists")

	// Report errors
	case errors.Is(err, report.ErrExportTooLarge):
		BadRequest(w, "Export is too large, narrow the date range or filters", nil)

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
