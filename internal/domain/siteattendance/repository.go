package siteattendance

import (
	"context"
	"time"
)

// EventRepository is the append-only attendance event log.
// Every method takes tenantID; implementations must scope all reads and writes to it.
type EventRepository interface {
	// Create appends a new event
	Create(ctx context.Context, event AttendanceEvent) (AttendanceEvent, error)

	// ListUnprocessed returns unprocessed events with from <= timestamp < to, oldest first
	ListUnprocessed(ctx context.Context, tenantID string, from, to time.Time) ([]AttendanceEvent, error)

	// ListUnprocessedDates returns the distinct calendar dates in loc, ascending, that still hold
	// unprocessed events with from <= timestamp < to. Each date is midnight in loc.
	ListUnprocessedDates(ctx context.Context, tenantID string, loc *time.Location, from, to time.Time) ([]time.Time, error)

	// ListByEmployeeSite returns all events (processed or not) for one employee at one site, oldest first
	ListByEmployeeSite(ctx context.Context, tenantID, employeeID, siteID string, from, to time.Time) ([]AttendanceEvent, error)

	// List retrieves events with filters and pagination
	List(ctx context.Context, tenantID string, filter EventFilter) ([]AttendanceEvent, int64, error)

	// MarkProcessed flags the given events as processed. Already processed rows are left untouched.
	MarkProcessed(ctx context.Context, tenantID string, eventIDs []string, processedAt time.Time) (int64, error)
}

// SummaryRepository stores one AttendanceSummary per (tenant, employee, site, date).
type SummaryRepository interface {
	// GetByKey returns nil, nil when no summary exists for the key
	GetByKey(ctx context.Context, tenantID, employeeID, siteID string, date time.Time) (*AttendanceSummary, error)

	Create(ctx context.Context, summary AttendanceSummary) (AttendanceSummary, error)
	Update(ctx context.Context, summary AttendanceSummary) error

	// List retrieves summaries with filters and pagination
	List(ctx context.Context, tenantID string, filter SummaryFilter) ([]AttendanceSummary, int64, error)

	// ListByDateRange returns every summary with from <= date <= to, used by reporting
	ListByDateRange(ctx context.Context, tenantID string, from, to time.Time) ([]AttendanceSummary, error)
}

type SiteRepository interface {
	GetByID(ctx context.Context, tenantID, siteID string) (Site, error)
	ListActive(ctx context.Context, tenantID string) ([]Site, error)
}

// SettingsProvider reads per-tenant attendance settings. Implementations return
// defaults when the tenant has not configured any.
type SettingsProvider interface {
	GetSettings(ctx context.Context, tenantID string) (AttendanceSettings, error)
}

// SpaChecker answers whether a site photo attendance record exists for the key.
type SpaChecker interface {
	Exists(ctx context.Context, tenantID, employeeID, siteID string, date time.Time) (bool, error)
}

type DeviceRepository interface {
	// GetByIdentifier returns nil, nil when the device is not registered
	GetByIdentifier(ctx context.Context, tenantID, deviceIdentifier string) (*DeviceRegistration, error)

	// GetActiveByEmployee returns nil, nil when the employee has no active device
	GetActiveByEmployee(ctx context.Context, tenantID, employeeID string) (*DeviceRegistration, error)
}

type TenantRepository interface {
	// ListActiveTenantIDs returns tenants that have at least one active site
	ListActiveTenantIDs(ctx context.Context) ([]string, error)
}

// Transactor runs fn inside a storage transaction. Repositories called with the
// context passed to fn participate in the transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier is the outbound notification hook. Calls are fire-and-forget from the
// pipeline's point of view.
type Notifier interface {
	NotifyMissingSpaCheck(ctx context.Context, event AttendanceEvent) error
}

// EventPublisher pushes accepted events to live subscribers of a tenant.
type EventPublisher interface {
	PublishEvent(ctx context.Context, tenantID string, event EventResponse)
}
