package report

import (
	"fmt"
	"time"
)

const (
	// MaxExportRows caps a single workbook.
	MaxExportRows = 10000

	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	SummarySheet = "Summaries"
	TotalsSheet  = "Status Totals"
)

// ExportFileName builds the attachment name for a summary export generated at now.
func ExportFileName(now time.Time) string {
	return fmt.Sprintf("site-attendance-summaries-%s.xlsx", now.UTC().Format("20060102-150405"))
}
