package dashboard

import (
	"context"
	"time"

	"github.com/cmlabs-hris/site-attendance-go/internal/domain/siteattendance"
)

// SummaryReader is the read side of the summary store used by reporting.
type SummaryReader interface {
	ListByDateRange(ctx context.Context, tenantID string, from, to time.Time) ([]siteattendance.AttendanceSummary, error)
}
