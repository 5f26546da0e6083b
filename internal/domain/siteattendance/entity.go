package siteattendance

import (
	"time"
)

type EventType string

const (
	EventTypeEnter EventType = "enter"
	EventTypeExit  EventType = "exit"
)

func (t EventType) IsValid() bool {
	return t == EventTypeEnter || t == EventTypeExit
}

type TriggerMethod string

const (
	TriggerGPS    TriggerMethod = "gps"
	TriggerManual TriggerMethod = "manual"
	TriggerQR     TriggerMethod = "qr"
	TriggerBeacon TriggerMethod = "beacon"
	TriggerNFC    TriggerMethod = "nfc"
)

func AllTriggerMethods() []TriggerMethod {
	return []TriggerMethod{TriggerGPS, TriggerManual, TriggerQR, TriggerBeacon, TriggerNFC}
}

type SummaryStatus string

const (
	StatusExcellent   SummaryStatus = "excellent"
	StatusGood        SummaryStatus = "good"
	StatusBelowTarget SummaryStatus = "below_target"
	StatusAbsent      SummaryStatus = "absent"
	StatusIncomplete  SummaryStatus = "incomplete"
)

func AllSummaryStatuses() []SummaryStatus {
	return []SummaryStatus{StatusExcellent, StatusGood, StatusBelowTarget, StatusAbsent, StatusIncomplete}
}

// AttendanceEvent is a single enter/exit ping. Rows are append-only; only
// IsNoise (at creation) and IsProcessed (by the daily job) are ever written.
type AttendanceEvent struct {
	ID                   string
	TenantID             string
	EmployeeID           string
	SiteID               string
	EventType            EventType
	Timestamp            time.Time
	Latitude             *float64
	Longitude            *float64
	TriggerMethod        TriggerMethod
	DeviceID             *string
	IsNoise              bool
	DistanceToSiteMeters *float64
	IsProcessed          bool
	ProcessedAt          *time.Time
	CreatedAt            time.Time
}

// HasLocation reports whether both coordinates were captured.
func (e AttendanceEvent) HasLocation() bool {
	return e.Latitude != nil && e.Longitude != nil
}

// AttendanceSummary is the daily rollup for one (tenant, employee, site, date).
type AttendanceSummary struct {
	ID            string
	TenantID      string
	EmployeeID    string
	SiteID        string
	Date          time.Time
	ExpectedHours float64
	FirstEntry    *time.Time
	LastExit      *time.Time
	TotalMinutes  float64
	EntryCount    int
	ExitCount     int
	HasSpa        bool
	Status        SummaryStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// DTO
	EmployeeName *string
	SiteName     *string
}

// AttendanceSettings is owned by the settings feature; the pipeline only reads it.
type AttendanceSettings struct {
	TenantID                string
	ExpectedHoursPerDay     float64
	GeofenceRadiusMeters    float64
	NoiseThresholdMeters    float64
	EntryGracePeriodMinutes int
	ExitGracePeriodMinutes  int
	Timezone                string
}

const (
	DefaultExpectedHoursPerDay  = 7.5
	DefaultGeofenceRadiusMeters = 100
	DefaultNoiseThresholdMeters = 250
	DefaultGracePeriodMinutes   = 15
	DefaultTimezone             = "UTC"

	MinRadiusMeters = 10
	MaxRadiusMeters = 10000
)

// DefaultSettings returns the settings used when a tenant has none configured.
func DefaultSettings(tenantID string) AttendanceSettings {
	return AttendanceSettings{
		TenantID:                tenantID,
		ExpectedHoursPerDay:     DefaultExpectedHoursPerDay,
		GeofenceRadiusMeters:    DefaultGeofenceRadiusMeters,
		NoiseThresholdMeters:    DefaultNoiseThresholdMeters,
		EntryGracePeriodMinutes: DefaultGracePeriodMinutes,
		ExitGracePeriodMinutes:  DefaultGracePeriodMinutes,
		Timezone:                DefaultTimezone,
	}
}

// Normalize fills unset values with defaults and clamps distances to the supported range.
func (s AttendanceSettings) Normalize() AttendanceSettings {
	if s.ExpectedHoursPerDay <= 0 {
		s.ExpectedHoursPerDay = DefaultExpectedHoursPerDay
	}
	s.GeofenceRadiusMeters = clampRadius(s.GeofenceRadiusMeters, DefaultGeofenceRadiusMeters)
	s.NoiseThresholdMeters = clampRadius(s.NoiseThresholdMeters, DefaultNoiseThresholdMeters)
	if s.EntryGracePeriodMinutes < 0 {
		s.EntryGracePeriodMinutes = 0
	}
	if s.ExitGracePeriodMinutes < 0 {
		s.ExitGracePeriodMinutes = 0
	}
	if s.Timezone == "" {
		s.Timezone = DefaultTimezone
	}
	return s
}

func clampRadius(v, fallback float64) float64 {
	switch {
	case v <= 0:
		return fallback
	case v < MinRadiusMeters:
		return MinRadiusMeters
	case v > MaxRadiusMeters:
		return MaxRadiusMeters
	}
	return v
}

// Location resolves the tenant timezone, falling back to UTC.
func (s AttendanceSettings) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type Site struct {
	ID        string
	TenantID  string
	Name      string
	Latitude  float64
	Longitude float64
	IsActive  bool
}

// DeviceRegistration maps a physical device identifier to an employee.
type DeviceRegistration struct {
	ID               string
	TenantID         string
	EmployeeID       string
	DeviceIdentifier string
	IsActive         bool
	CreatedAt        time.Time
}

// NearestSite is the result of a nearest-site scan.
type NearestSite struct {
	Site           Site
	DistanceMeters float64
}

// NoiseCheck is the outcome of comparing an event's coordinate to its claimed site.
// Checked is false when the event carried no coordinate.
type NoiseCheck struct {
	Checked        bool
	IsNoise        bool
	DistanceMeters *float64
}

// DayWindow returns the UTC bounds [start, end) of the calendar day in loc.
func DayWindow(date time.Time, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)
	return start.UTC(), end.UTC()
}

// DateOnly truncates t to a UTC midnight carrying the same calendar date.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
