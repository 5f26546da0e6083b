package report

import (
	"context"

	"github.com/cmlabs-hris/site-attendance-go/internal/domain/siteattendance"
)

// ReportService defines the interface for report generation
type ReportService interface {
	// ExportSummaries renders every summary matching filter as an XLSX workbook.
	// Pagination fields on filter are ignored.
	ExportSummaries(ctx context.Context, tenantID string, filter siteattendance.SummaryFilter) ([]byte, error)
}
