package report

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/site-attendance-go/internal/domain/report"
	"github.com/cmlabs-hris/site-attendance-go/internal/domain/siteattendance"
	"github.com/cmlabs-hris/site-attendance-go/internal/service/attendance"
	"github.com/xuri/excelize/v2"
)

const exportPageSize = 100

var summaryHeader = []interface{}{
	"Date", "Employee ID", "Employee Name", "Site ID", "Site Name",
	"First Entry", "Last Exit", "Total Minutes", "Total Hours", "Expected Hours",
	"Utilization %", "Entries", "Exits", "Photo Check", "Status",
}

var _ report.ReportService = (*ReportServiceImpl)(nil)

type ReportServiceImpl struct {
	summaries report.SummaryLister
	now       func() time.Time
}

func NewReportService(summaries report.SummaryLister) *ReportServiceImpl {
	return &ReportServiceImpl{
		summaries: summaries,
		now:       time.Now,
	}
}

// ExportSummaries generates the summary workbook
func (s *ReportServiceImpl) ExportSummaries(ctx context.Context, tenantID string, filter siteattendance.SummaryFilter) ([]byte, error) {
	if tenantID == "" {
		return nil, siteattendance.ErrTenantRequired
	}

	filter.Page, filter.Limit = 1, exportPageSize
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	rows, err := s.collect(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}

	data, err := s.render(filter, rows)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", report.ErrReportGenerationFailed, err)
	}
	return data, nil
}

func (s *ReportServiceImpl) collect(ctx context.Context, tenantID string, filter siteattendance.SummaryFilter) ([]siteattendance.AttendanceSummary, error) {
	var out []siteattendance.AttendanceSummary
	for {
		batch, total, err := s.summaries.List(ctx, tenantID, filter)
		if err != nil {
			return nil, fmt.Errorf("failed to list summaries: %w", err)
		}
		if total > report.MaxExportRows {
			return nil, report.ErrExportTooLarge
		}

		out = append(out, batch...)
		if len(batch) == 0 || int64(len(out)) >= total {
			return out, nil
		}
		filter.Page++
	}
}

func (s *ReportServiceImpl) render(filter siteattendance.SummaryFilter, rows []siteattendance.AttendanceSummary) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", report.SummarySheet); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}

	if err := f.SetSheetRow(report.SummarySheet, "A1", &summaryHeader); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(report.SummarySheet, "A1", "O1", headerStyle); err != nil {
		return nil, err
	}

	totals := make(map[siteattendance.SummaryStatus]int, len(siteattendance.AllSummaryStatuses()))
	for i, sum := range rows {
		resp := attendance.MapSummaryToResponse(sum)
		totals[sum.Status]++

		record := []interface{}{
			resp.Date,
			resp.EmployeeID,
			derefOrEmpty(resp.EmployeeName),
			resp.SiteID,
			derefOrEmpty(resp.SiteName),
			derefOrEmpty(resp.FirstEntry),
			derefOrEmpty(resp.LastExit),
			resp.TotalMinutes,
			resp.TotalHours,
			resp.ExpectedHours,
			utilizationCell(resp.Utilization),
			resp.EntryCount,
			resp.ExitCount,
			yesNo(resp.HasSpa),
			resp.Status,
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(report.SummarySheet, cell, &record); err != nil {
			return nil, err
		}
	}

	if err := f.SetColWidth(report.SummarySheet, "A", "O", 16); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(report.SummarySheet, "B", "B", 38); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(report.SummarySheet, "D", "D", 38); err != nil {
		return nil, err
	}

	if err := s.renderTotals(f, filter, headerStyle, totals, len(rows)); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *ReportServiceImpl) renderTotals(f *excelize.File, filter siteattendance.SummaryFilter, headerStyle int, totals map[siteattendance.SummaryStatus]int, count int) error {
	if _, err := f.NewSheet(report.TotalsSheet); err != nil {
		return err
	}

	meta := [][]interface{}{
		{"Generated At", s.now().UTC().Format(time.RFC3339)},
		{"Start Date", derefOrEmpty(filter.StartDate)},
		{"End Date", derefOrEmpty(filter.EndDate)},
		{"Rows", count},
		{},
		{"Status", "Count"},
	}
	for _, status := range siteattendance.AllSummaryStatuses() {
		meta = append(meta, []interface{}{string(status), totals[status]})
	}

	for i, row := range meta {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(report.TotalsSheet, cell, &row); err != nil {
			return err
		}
	}

	if err := f.SetCellStyle(report.TotalsSheet, "A6", "B6", headerStyle); err != nil {
		return err
	}
	return f.SetColWidth(report.TotalsSheet, "A", "B", 22)
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func utilizationCell(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
