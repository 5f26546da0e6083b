package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/site-attendance-go/internal/domain/siteattendance"
)

type eventRepository struct {
	*Store
}

func (s *Store) EventRepository() siteattendance.EventRepository {
	return &eventRepository{Store: s}
}

// Create implements siteattendance.EventRepository.
func (r *eventRepository) Create(ctx context.Context, event siteattendance.AttendanceEvent) (siteattendance.AttendanceEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = r.now().UTC()
	}
	r.events = append(r.events, event)
	return event, nil
}

// ListUnprocessed implements siteattendance.EventRepository.
func (r *eventRepository) ListUnprocessed(ctx context.Context, tenantID string, from, to time.Time) ([]siteattendance.AttendanceEvent, error) {
	if r.Hooks.ListUnprocessed != nil {
		if err := r.Hooks.ListUnprocessed(tenantID); err != nil {
			return nil, err
		}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []siteattendance.AttendanceEvent
	for _, ev := range r.events {
		if ev.TenantID == tenantID && !ev.IsProcessed && inWindow(ev.Timestamp, from, to) {
			out = append(out, ev)
		}
	}
	sortByTimestamp(out, true)
	return out, nil
}

// ListUnprocessedDates implements siteattendance.EventRepository.
func (r *eventRepository) ListUnprocessedDates(ctx context.Context, tenantID string, loc *time.Location, from, to time.Time) ([]time.Time, error) {
	if r.Hooks.ListUnprocessed != nil {
		if err := r.Hooks.ListUnprocessed(tenantID); err != nil {
			return nil, err
		}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[time.Time]struct{})
	var dates []time.Time
	for _, ev := range r.events {
		if ev.TenantID != tenantID || ev.IsProcessed || !inWindow(ev.Timestamp, from, to) {
			continue
		}
		local := ev.Timestamp.In(loc)
		day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		dates = append(dates, day)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}

// ListByEmployeeSite implements siteattendance.EventRepository.
func (r *eventRepository) ListByEmployeeSite(ctx context.Context, tenantID, employeeID, siteID string, from, to time.Time) ([]siteattendance.AttendanceEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []siteattendance.AttendanceEvent
	for _, ev := range r.events {
		if ev.TenantID == tenantID && ev.EmployeeID == employeeID && ev.SiteID == siteID && inWindow(ev.Timestamp, from, to) {
			out = append(out, ev)
		}
	}
	sortByTimestamp(out, true)
	return out, nil
}

// List implements siteattendance.EventRepository.
func (r *eventRepository) List(ctx context.Context, tenantID string, filter siteattendance.EventFilter) ([]siteattendance.AttendanceEvent, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []siteattendance.AttendanceEvent
	for _, ev := range r.events {
		if ev.TenantID != tenantID {
			continue
		}
		if filter.EmployeeID != nil && ev.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.SiteID != nil && ev.SiteID != *filter.SiteID {
			continue
		}
		if filter.IsNoise != nil && ev.IsNoise != *filter.IsNoise {
			continue
		}
		if filter.IsProcessed != nil && ev.IsProcessed != *filter.IsProcessed {
			continue
		}
		day := ev.Timestamp.UTC().Format("2006-01-02")
		if filter.StartDate != nil && day < *filter.StartDate {
			continue
		}
		if filter.EndDate != nil && day > *filter.EndDate {
			continue
		}
		matched = append(matched, ev)
	}

	sortByTimestamp(matched, filter.SortOrder == "asc")
	total := int64(len(matched))
	return page(matched, filter.Page, filter.Limit), total, nil
}

// MarkProcessed implements siteattendance.EventRepository.
func (r *eventRepository) MarkProcessed(ctx context.Context, tenantID string, eventIDs []string, processedAt time.Time) (int64, error) {
	if r.Hooks.MarkProcessed != nil {
		if err := r.Hooks.MarkProcessed(eventIDs); err != nil {
			return 0, err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make(map[string]struct{}, len(eventIDs))
	for _, id := range eventIDs {
		ids[id] = struct{}{}
	}

	var affected int64
	for i := range r.events {
		ev := &r.events[i]
		if ev.TenantID != tenantID || ev.IsProcessed {
			continue
		}
		if _, ok := ids[ev.ID]; !ok {
			continue
		}
		at := processedAt
		ev.IsProcessed = true
		ev.ProcessedAt = &at
		affected++
	}
	return affected, nil
}

func inWindow(ts, from, to time.Time) bool {
	return !ts.Before(from) && ts.Before(to)
}

func sortByTimestamp(events []siteattendance.AttendanceEvent, asc bool) {
	sort.SliceStable(events, func(i, j int) bool {
		if asc {
			return events[i].Timestamp.Before(events[j].Timestamp)
		}
		return events[i].Timestamp.After(events[j].Timestamp)
	})
}

func page[T any](items []T, pageNum, limit int) []T {
	if limit <= 0 {
		return items
	}
	if pageNum < 1 {
		pageNum = 1
	}
	start := (pageNum - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	end := min(start+limit, len(items))
	return items[start:end]
}
