package postgresql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/site-attendance-go/internal/domain/siteattendance"
	"github.com/cmlabs-hris/site-attendance-go/internal/pkg/database"
)

type eventRepository struct {
	db *database.DB
}

const eventColumns = `
	id, tenant_id, employee_id, site_id, event_type, timestamp,
	latitude, longitude, trigger_method, device_id,
	is_noise, distance_to_site_meters, is_processed, processed_at, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (siteattendance.AttendanceEvent, error) {
	var ev siteattendance.AttendanceEvent
	err := row.Scan(
		&ev.ID, &ev.TenantID, &ev.EmployeeID, &ev.SiteID, &ev.EventType, &ev.Timestamp,
		&ev.Latitude, &ev.Longitude, &ev.TriggerMethod, &ev.DeviceID,
		&ev.IsNoise, &ev.DistanceToSiteMeters, &ev.IsProcessed, &ev.ProcessedAt, &ev.CreatedAt,
	)
	return ev, err
}

// Create implements siteattendance.EventRepository.
func (r *eventRepository) Create(ctx context.Context, event siteattendance.AttendanceEvent) (siteattendance.AttendanceEvent, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO attendance_events (
			id, tenant_id, employee_id, site_id, event_type, timestamp,
			latitude, longitude, trigger_method, device_id,
			is_noise, distance_to_site_meters
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		) RETURNING is_processed, created_at
	`

	err := q.QueryRow(ctx, query,
		event.ID,
		event.TenantID,
		event.EmployeeID,
		event.SiteID,
		event.EventType,
		event.Timestamp,
		event.Latitude,
		event.Longitude,
		event.TriggerMethod,
		event.DeviceID,
		event.IsNoise,
		event.DistanceToSiteMeters,
	).Scan(&event.IsProcessed, &event.CreatedAt)

	if err != nil {
		return siteattendance.AttendanceEvent{}, fmt.Errorf("failed to create attendance event: %w", err)
	}

	return event, nil
}

// ListUnprocessed implements siteattendance.EventRepository.
func (r *eventRepository) ListUnprocessed(ctx context.Context, tenantID string, from, to time.Time) ([]siteattendance.AttendanceEvent, error) {
	query := `SELECT ` + eventColumns + `
		FROM attendance_events
		WHERE tenant_id = $1
		  AND is_processed = FALSE
		  AND timestamp >= $2
		  AND timestamp < $3
		ORDER BY timestamp ASC, id ASC
	`
	return r.queryEvents(ctx, query, tenantID, from, to)
}

// ListUnprocessedDates implements siteattendance.EventRepository.
func (r *eventRepository) ListUnprocessedDates(ctx context.Context, tenantID string, loc *time.Location, from, to time.Time) ([]time.Time, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT DISTINCT to_char(timestamp AT TIME ZONE $4, 'YYYY-MM-DD') AS day
		FROM attendance_events
		WHERE tenant_id = $1
		  AND is_processed = FALSE
		  AND timestamp >= $2
		  AND timestamp < $3
		ORDER BY day ASC
	`
	rows, err := q.Query(ctx, query, tenantID, from, to, loc.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query unprocessed event dates: %w", err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			return nil, fmt.Errorf("failed to scan unprocessed event date: %w", err)
		}
		date, err := time.ParseInLocation("2006-01-02", day, loc)
		if err != nil {
			return nil, fmt.Errorf("failed to parse unprocessed event date %q: %w", day, err)
		}
		dates = append(dates, date)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate unprocessed event dates: %w", err)
	}
	return dates, nil
}

// ListByEmployeeSite implements siteattendance.EventRepository.
func (r *eventRepository) ListByEmployeeSite(ctx context.Context, tenantID, employeeID, siteID string, from, to time.Time) ([]siteattendance.AttendanceEvent, error) {
	query := `SELECT ` + eventColumns + `
		FROM attendance_events
		WHERE tenant_id = $1
		  AND employee_id = $2
		  AND site_id = $3
		  AND timestamp >= $4
		  AND timestamp < $5
		ORDER BY timestamp ASC, id ASC
	`
	return r.queryEvents(ctx, query, tenantID, employeeID, siteID, from, to)
}

func (r *eventRepository) queryEvents(ctx context.Context, query string, args ...any) ([]siteattendance.AttendanceEvent, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance events: %w", err)
	}
	defer rows.Close()

	var events []siteattendance.AttendanceEvent
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance events: %w", err)
	}

	return events, nil
}

// List implements siteattendance.EventRepository.
func (r *eventRepository) List(ctx context.Context, tenantID string, filter siteattendance.EventFilter) ([]siteattendance.AttendanceEvent, int64, error) {
	q := GetQuerier(ctx, r.db)

	// Build WHERE clause
	baseWhere := "tenant_id = $1"
	args := []any{tenantID}
	argIdx := 2

	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		baseWhere += fmt.Sprintf(" AND employee_id = $%d", argIdx)
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.SiteID != nil && *filter.SiteID != "" {
		baseWhere += fmt.Sprintf(" AND site_id = $%d", argIdx)
		args = append(args, *filter.SiteID)
		argIdx++
	}
	if filter.StartDate != nil && *filter.StartDate != "" {
		baseWhere += fmt.Sprintf(" AND timestamp >= $%d::date", argIdx)
		args = append(args, *filter.StartDate)
		argIdx++
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		baseWhere += fmt.Sprintf(" AND timestamp < ($%d::date + 1)", argIdx)
		args = append(args, *filter.EndDate)
		argIdx++
	}
	if filter.IsNoise != nil {
		baseWhere += fmt.Sprintf(" AND is_noise = $%d", argIdx)
		args = append(args, *filter.IsNoise)
		argIdx++
	}
	if filter.IsProcessed != nil {
		baseWhere += fmt.Sprintf(" AND is_processed = $%d", argIdx)
		args = append(args, *filter.IsProcessed)
		argIdx++
	}

	// Count total
	countQuery := "SELECT COUNT(*) FROM attendance_events WHERE " + baseWhere
	var total int64
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendance events: %w", err)
	}

	sortOrder := "DESC"
	if strings.ToLower(filter.SortOrder) == "asc" {
		sortOrder = "ASC"
	}

	selectQuery := fmt.Sprintf(`
		SELECT %s
		FROM attendance_events
		WHERE %s
		ORDER BY timestamp %s, id %s
		LIMIT $%d OFFSET $%d
	`, eventColumns, baseWhere, sortOrder, sortOrder, argIdx, argIdx+1)

	limit := filter.Limit
	if limit == 0 {
		limit = 20
	}
	offset := (max(filter.Page, 1) - 1) * limit
	args = append(args, limit, offset)

	events, err := r.queryEvents(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, err
	}

	return events, total, nil
}

// MarkProcessed implements siteattendance.EventRepository.
func (r *eventRepository) MarkProcessed(ctx context.Context, tenantID string, eventIDs []string, processedAt time.Time) (int64, error) {
	if len(eventIDs) == 0 {
		return 0, nil
	}

	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE attendance_events
		SET is_processed = TRUE, processed_at = $3
		WHERE tenant_id = $1
		  AND id = ANY($2::uuid[])
		  AND is_processed = FALSE
	`

	tag, err := q.Exec(ctx, query, tenantID, eventIDs, processedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to mark attendance events processed: %w", err)
	}

	return tag.RowsAffected(), nil
}

func NewEventRepository(db *database.DB) siteattendance.EventRepository {
	return &eventRepository{db: db}
}
