package http

import (
	"encoding/json"
	"net/http"

	"github.com/cmlabs-hris/site-attendance-go/internal/domain/siteattendance"
	"github.com/cmlabs-hris/site-attendance-go/internal/handler/http/response"
	"github.com/cmlabs-hris/site-attendance-go/internal/pkg/validator"
)

type JobHandler interface {
	RunDailyAggregation(w http.ResponseWriter, r *http.Request)
}

type jobHandlerImpl struct {
	aggregationService siteattendance.AggregationService
}

func NewJobHandler(aggregationService siteattendance.AggregationService) JobHandler {
	return &jobHandlerImpl{aggregationService: aggregationService}
}

// RunDailyAggregation handles POST /attendance/jobs/daily-aggregation. A result with a
// non-empty error list is still a successful run.
func (h *jobHandlerImpl) RunDailyAggregation(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}

	var req siteattendance.RunAggregationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	req.TenantID = claims.TenantID

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}
	date, _ := validator.IsValidDate(req.Date)

	result, err := h.aggregationService.RunDailyAggregation(r.Context(), claims.TenantID, date)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	message := "Daily aggregation completed"
	if len(result.Errors) > 0 {
		message = "Daily aggregation completed with errors"
	}
	response.SuccessWithMessage(w, message, result)
}
