// Package memory holds an in-process implementation of the site attendance
// storage contracts, used by service tests and local runs without Postgres.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cmlabs-hris/site-attendance-go/internal/domain/siteattendance"
)

type spaKey struct {
	TenantID   string
	EmployeeID string
	SiteID     string
	Date       string
}

// Hooks let tests inject failures into specific calls. A nil hook is a no-op.
type Hooks struct {
	GetSettings     func(tenantID string) error
	ListUnprocessed func(tenantID string) error
	SpaExists       func(employeeID, siteID string) error
	SaveSummary     func(summary siteattendance.AttendanceSummary) error
	MarkProcessed   func(eventIDs []string) error
}

type Store struct {
	mu sync.RWMutex

	events    []siteattendance.AttendanceEvent
	summaries map[string]siteattendance.AttendanceSummary
	sites     map[string]siteattendance.Site
	settings  map[string]siteattendance.AttendanceSettings
	devices   []siteattendance.DeviceRegistration
	spa       map[spaKey]bool
	employees map[string]string

	Hooks Hooks
	now   func() time.Time
}

func NewStore() *Store {
	return &Store{
		summaries: make(map[string]siteattendance.AttendanceSummary),
		sites:     make(map[string]siteattendance.Site),
		settings:  make(map[string]siteattendance.AttendanceSettings),
		spa:       make(map[spaKey]bool),
		employees: make(map[string]string),
		now:       time.Now,
	}
}

// ========================================
// SEEDING
// ========================================

func (s *Store) AddSite(site siteattendance.Site) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sites[site.ID] = site
}

func (s *Store) SetSettings(settings siteattendance.AttendanceSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[settings.TenantID] = settings
}

func (s *Store) AddDevice(device siteattendance.DeviceRegistration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.devices = append(s.devices, device)
}

func (s *Store) AddSpa(tenantID, employeeID, siteID string, date time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spa[spaKey{tenantID, employeeID, siteID, date.Format("2006-01-02")}] = true
}

func (s *Store) SetEmployeeName(employeeID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees[employeeID] = name
}

// Events returns a copy of every stored event in insertion order.
func (s *Store) Events() []siteattendance.AttendanceEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]siteattendance.AttendanceEvent, len(s.events))
	copy(out, s.events)
	return out
}

// Summaries returns a copy of every stored summary ordered by employee, site and date.
func (s *Store) Summaries() []siteattendance.AttendanceSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]siteattendance.AttendanceSummary, 0, len(s.summaries))
	for _, sum := range s.summaries {
		out = append(out, s.decorate(sum))
	}
	sort.Slice(out, func(i, j int) bool {
		return summaryKey(out[i].TenantID, out[i].EmployeeID, out[i].SiteID, out[i].Date) <
			summaryKey(out[j].TenantID, out[j].EmployeeID, out[j].SiteID, out[j].Date)
	})
	return out
}

func summaryKey(tenantID, employeeID, siteID string, date time.Time) string {
	return strings.Join([]string{tenantID, employeeID, siteID, date.Format("2006-01-02")}, "|")
}

func (s *Store) decorate(sum siteattendance.AttendanceSummary) siteattendance.AttendanceSummary {
	if name, ok := s.employees[sum.EmployeeID]; ok {
		sum.EmployeeName = &name
	}
	if site, ok := s.sites[sum.SiteID]; ok {
		name := site.Name
		sum.SiteName = &name
	}
	return sum
}

// ========================================
// TRANSACTOR
// ========================================

type snapshot struct {
	events    []siteattendance.AttendanceEvent
	summaries map[string]siteattendance.AttendanceSummary
}

// WithinTransaction restores events and summaries to their prior state when fn fails.
// Writes are not isolated from concurrent readers.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.RLock()
	snap := snapshot{
		events:    make([]siteattendance.AttendanceEvent, len(s.events)),
		summaries: make(map[string]siteattendance.AttendanceSummary, len(s.summaries)),
	}
	copy(snap.events, s.events)
	for k, v := range s.summaries {
		snap.summaries[k] = v
	}
	s.mu.RUnlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.events = snap.events
		s.summaries = snap.summaries
		s.mu.Unlock()
		return err
	}
	return nil
}
