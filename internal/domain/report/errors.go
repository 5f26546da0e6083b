package report

import "errors"

var (
	ErrExportTooLarge         = errors.New("export exceeds the maximum number of rows, narrow the filter")
	ErrReportGenerationFailed = errors.New("failed to generate report")
)
