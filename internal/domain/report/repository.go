package report

import (
	"context"

	"github.com/cmlabs-hris/site-attendance-go/internal/domain/siteattendance"
)

// SummaryLister pages through summaries with the same filters as the list endpoint.
type SummaryLister interface {
	List(ctx context.Context, tenantID string, filter siteattendance.SummaryFilter) ([]siteattendance.AttendanceSummary, int64, error)
}
