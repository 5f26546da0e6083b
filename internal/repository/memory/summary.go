package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/cmlabs-hris/site-attendance-go/internal/domain/siteattendance"
)

type summaryRepository struct {
	*Store
}

func (s *Store) SummaryRepository() siteattendance.SummaryRepository {
	return &summaryRepository{Store: s}
}

// GetByKey implements siteattendance.SummaryRepository.
func (r *summaryRepository) GetByKey(ctx context.Context, tenantID, employeeID, siteID string, date time.Time) (*siteattendance.AttendanceSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sum, ok := r.summaries[summaryKey(tenantID, employeeID, siteID, date)]
	if !ok {
		return nil, nil
	}
	return &sum, nil
}

// Create implements siteattendance.SummaryRepository.
func (r *summaryRepository) Create(ctx context.Context, summary siteattendance.AttendanceSummary) (siteattendance.AttendanceSummary, error) {
	if r.Hooks.SaveSummary != nil {
		if err := r.Hooks.SaveSummary(summary); err != nil {
			return siteattendance.AttendanceSummary{}, err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := summaryKey(summary.TenantID, summary.EmployeeID, summary.SiteID, summary.Date)
	if _, exists := r.summaries[key]; exists {
		return siteattendance.AttendanceSummary{}, siteattendance.ErrSummaryAlreadyExists
	}

	now := r.now().UTC()
	summary.CreatedAt = now
	summary.UpdatedAt = now
	r.summaries[key] = summary
	return summary, nil
}

// Update implements siteattendance.SummaryRepository.
func (r *summaryRepository) Update(ctx context.Context, summary siteattendance.AttendanceSummary) error {
	if r.Hooks.SaveSummary != nil {
		if err := r.Hooks.SaveSummary(summary); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := summaryKey(summary.TenantID, summary.EmployeeID, summary.SiteID, summary.Date)
	existing, ok := r.summaries[key]
	if !ok || existing.ID != summary.ID {
		return siteattendance.ErrSummaryNotFound
	}

	summary.CreatedAt = existing.CreatedAt
	summary.UpdatedAt = r.now().UTC()
	r.summaries[key] = summary
	return nil
}

// List implements siteattendance.SummaryRepository.
func (r *summaryRepository) List(ctx context.Context, tenantID string, filter siteattendance.SummaryFilter) ([]siteattendance.AttendanceSummary, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []siteattendance.AttendanceSummary
	for _, sum := range r.summaries {
		if sum.TenantID != tenantID {
			continue
		}
		if filter.EmployeeID != nil && sum.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.SiteID != nil && sum.SiteID != *filter.SiteID {
			continue
		}
		if filter.Status != nil && string(sum.Status) != *filter.Status {
			continue
		}
		day := sum.Date.Format("2006-01-02")
		if filter.StartDate != nil && day < *filter.StartDate {
			continue
		}
		if filter.EndDate != nil && day > *filter.EndDate {
			continue
		}
		matched = append(matched, r.decorate(sum))
	}

	desc := strings.ToLower(filter.SortOrder) != "asc"
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		var less bool
		switch filter.SortBy {
		case "total_minutes":
			less = a.TotalMinutes < b.TotalMinutes
		case "status":
			less = a.Status < b.Status
		case "employee_name":
			less = derefString(a.EmployeeName) < derefString(b.EmployeeName)
		default:
			less = a.Date.Before(b.Date)
		}
		if equalForSort(a, b, filter.SortBy) {
			return a.ID < b.ID
		}
		if desc {
			return !less
		}
		return less
	})

	total := int64(len(matched))
	return page(matched, filter.Page, filter.Limit), total, nil
}

// ListByDateRange implements siteattendance.SummaryRepository.
func (r *summaryRepository) ListByDateRange(ctx context.Context, tenantID string, from, to time.Time) ([]siteattendance.AttendanceSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []siteattendance.AttendanceSummary
	for _, sum := range r.summaries {
		if sum.TenantID != tenantID || sum.Date.Before(from) || sum.Date.After(to) {
			continue
		}
		out = append(out, r.decorate(sum))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].EmployeeID < out[j].EmployeeID
	})
	return out, nil
}

func equalForSort(a, b siteattendance.AttendanceSummary, sortBy string) bool {
	switch sortBy {
	case "total_minutes":
		return a.TotalMinutes == b.TotalMinutes
	case "status":
		return a.Status == b.Status
	case "employee_name":
		return derefString(a.EmployeeName) == derefString(b.EmployeeName)
	default:
		return a.Date.Equal(b.Date)
	}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
