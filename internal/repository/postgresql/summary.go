package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/site-attendance-go/internal/domain/siteattendance"
	"github.com/cmlabs-hris/site-attendance-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type summaryRepository struct {
	db *database.DB
}

const summarySelect = `
	SELECT
		s.id, s.tenant_id, s.employee_id, s.site_id, s.date, s.expected_hours::float8,
		s.first_entry, s.last_exit, s.total_minutes, s.entry_count, s.exit_count,
		s.has_spa, s.status, s.created_at, s.updated_at,
		e.full_name AS employee_name,
		st.name AS site_name
	FROM attendance_summaries s
	LEFT JOIN employees e ON e.id = s.employee_id
	LEFT JOIN sites st ON st.id = s.site_id`

func scanSummary(row rowScanner) (siteattendance.AttendanceSummary, error) {
	var s siteattendance.AttendanceSummary
	err := row.Scan(
		&s.ID, &s.TenantID, &s.EmployeeID, &s.SiteID, &s.Date, &s.ExpectedHours,
		&s.FirstEntry, &s.LastExit, &s.TotalMinutes, &s.EntryCount, &s.ExitCount,
		&s.HasSpa, &s.Status, &s.CreatedAt, &s.UpdatedAt,
		&s.EmployeeName, &s.SiteName,
	)
	return s, err
}

// GetByKey implements siteattendance.SummaryRepository.
func (r *summaryRepository) GetByKey(ctx context.Context, tenantID, employeeID, siteID string, date time.Time) (*siteattendance.AttendanceSummary, error) {
	q := GetQuerier(ctx, r.db)

	query := summarySelect + `
		WHERE s.tenant_id = $1
		  AND s.employee_id = $2
		  AND s.site_id = $3
		  AND s.date = $4
		FOR UPDATE OF s
	`

	s, err := scanSummary(q.QueryRow(ctx, query, tenantID, employeeID, siteID, date.Format("2006-01-02")))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attendance summary: %w", err)
	}

	return &s, nil
}

// Create implements siteattendance.SummaryRepository.
func (r *summaryRepository) Create(ctx context.Context, summary siteattendance.AttendanceSummary) (siteattendance.AttendanceSummary, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO attendance_summaries (
			id, tenant_id, employee_id, site_id, date, expected_hours,
			first_entry, last_exit, total_minutes, entry_count, exit_count,
			has_spa, status
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		) RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		summary.ID,
		summary.TenantID,
		summary.EmployeeID,
		summary.SiteID,
		summary.Date.Format("2006-01-02"),
		summary.ExpectedHours,
		summary.FirstEntry,
		summary.LastExit,
		summary.TotalMinutes,
		summary.EntryCount,
		summary.ExitCount,
		summary.HasSpa,
		summary.Status,
	).Scan(&summary.CreatedAt, &summary.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return siteattendance.AttendanceSummary{}, siteattendance.ErrSummaryAlreadyExists
		}
		return siteattendance.AttendanceSummary{}, fmt.Errorf("failed to create attendance summary: %w", err)
	}

	return summary, nil
}

// Update implements siteattendance.SummaryRepository.
func (r *summaryRepository) Update(ctx context.Context, summary siteattendance.AttendanceSummary) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE attendance_summaries
		SET expected_hours = $3,
			first_entry = $4,
			last_exit = $5,
			total_minutes = $6,
			entry_count = $7,
			exit_count = $8,
			has_spa = $9,
			status = $10,
			updated_at = NOW()
		WHERE id = $1 AND tenant_id = $2
	`

	tag, err := q.Exec(ctx, query,
		summary.ID,
		summary.TenantID,
		summary.ExpectedHours,
		summary.FirstEntry,
		summary.LastExit,
		summary.TotalMinutes,
		summary.EntryCount,
		summary.ExitCount,
		summary.HasSpa,
		summary.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to update attendance summary: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return siteattendance.ErrSummaryNotFound
	}

	return nil
}

// List implements siteattendance.SummaryRepository.
func (r *summaryRepository) List(ctx context.Context, tenantID string, filter siteattendance.SummaryFilter) ([]siteattendance.AttendanceSummary, int64, error) {
	q := GetQuerier(ctx, r.db)

	// Build WHERE clause
	baseWhere := "s.tenant_id = $1"
	args := []any{tenantID}
	argIdx := 2

	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		baseWhere += fmt.Sprintf(" AND s.employee_id = $%d", argIdx)
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.SiteID != nil && *filter.SiteID != "" {
		baseWhere += fmt.Sprintf(" AND s.site_id = $%d", argIdx)
		args = append(args, *filter.SiteID)
		argIdx++
	}
	if filter.StartDate != nil && *filter.StartDate != "" {
		baseWhere += fmt.Sprintf(" AND s.date >= $%d", argIdx)
		args = append(args, *filter.StartDate)
		argIdx++
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		baseWhere += fmt.Sprintf(" AND s.date <= $%d", argIdx)
		args = append(args, *filter.EndDate)
		argIdx++
	}
	if filter.Status != nil && *filter.Status != "" {
		baseWhere += fmt.Sprintf(" AND s.status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}

	// Count total
	countQuery := "SELECT COUNT(*) FROM attendance_summaries s WHERE " + baseWhere
	var total int64
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendance summaries: %w", err)
	}

	// Build ORDER BY
	orderByField := "s.date"
	switch filter.SortBy {
	case "total_minutes":
		orderByField = "s.total_minutes"
	case "status":
		orderByField = "s.status"
	case "employee_name":
		orderByField = "e.full_name"
	}
	sortOrder := "DESC"
	if strings.ToLower(filter.SortOrder) == "asc" {
		sortOrder = "ASC"
	}

	selectQuery := fmt.Sprintf(`%s
		WHERE %s
		ORDER BY %s %s, s.id ASC
		LIMIT $%d OFFSET $%d
	`, summarySelect, baseWhere, orderByField, sortOrder, argIdx, argIdx+1)

	limit := filter.Limit
	if limit == 0 {
		limit = 20
	}
	offset := (max(filter.Page, 1) - 1) * limit
	args = append(args, limit, offset)

	summaries, err := r.querySummaries(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, err
	}

	return summaries, total, nil
}

// ListByDateRange implements siteattendance.SummaryRepository.
func (r *summaryRepository) ListByDateRange(ctx context.Context, tenantID string, from, to time.Time) ([]siteattendance.AttendanceSummary, error) {
	query := summarySelect + `
		WHERE s.tenant_id = $1
		  AND s.date >= $2
		  AND s.date <= $3
		ORDER BY s.date ASC, s.employee_id ASC, s.site_id ASC
	`
	return r.querySummaries(ctx, query, tenantID, from.Format("2006-01-02"), to.Format("2006-01-02"))
}

func (r *summaryRepository) querySummaries(ctx context.Context, query string, args ...any) ([]siteattendance.AttendanceSummary, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance summaries: %w", err)
	}
	defer rows.Close()

	var summaries []siteattendance.AttendanceSummary
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance summaries: %w", err)
	}

	return summaries, nil
}

func NewSummaryRepository(db *database.DB) siteattendance.SummaryRepository {
	return &summaryRepository{db: db}
}
