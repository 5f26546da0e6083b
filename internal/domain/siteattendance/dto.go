package siteattendance

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/site-attendance-go/internal/pkg/validator"
)

// MaxClockSkew is how far into the future an event timestamp may be.
const MaxClockSkew = 5 * time.Minute

// ========================================
// EVENT DTOs
// ========================================

type CreateEventRequest struct {
	TenantID         string   `json:"-"`
	EmployeeID       string   `json:"employee_id"`
	SiteID           string   `json:"site_id"`
	EventType        string   `json:"event_type"`
	Timestamp        string   `json:"timestamp"` // RFC3339
	Latitude         *float64 `json:"latitude,omitempty"`
	Longitude        *float64 `json:"longitude,omitempty"`
	TriggerMethod    string   `json:"trigger_method"`
	DeviceIdentifier *string  `json:"device_identifier,omitempty"`

	parsedTimestamp time.Time
}

// Validate checks the request against now. On success ParsedTimestamp returns the UTC timestamp.
func (r *CreateEventRequest) Validate(now time.Time) error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.TenantID) {
		errs = append(errs, validator.ValidationError{
			Field:   "tenant_id",
			Message: "tenant_id is required",
		})
	}

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	} else if !validator.IsUUID(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id must be a valid UUID",
		})
	}

	if validator.IsEmpty(r.SiteID) {
		errs = append(errs, validator.ValidationError{
			Field:   "site_id",
			Message: "site_id is required",
		})
	} else if !validator.IsUUID(r.SiteID) {
		errs = append(errs, validator.ValidationError{
			Field:   "site_id",
			Message: "site_id must be a valid UUID",
		})
	}

	r.EventType = strings.ToLower(strings.TrimSpace(r.EventType))
	if !EventType(r.EventType).IsValid() {
		errs = append(errs, validator.ValidationError{
			Field:   "event_type",
			Message: "event_type must be one of: enter, exit",
		})
	}

	r.TriggerMethod = strings.ToLower(strings.TrimSpace(r.TriggerMethod))
	if r.TriggerMethod == "" {
		r.TriggerMethod = string(TriggerGPS)
	}
	validMethods := make([]string, 0, len(AllTriggerMethods()))
	for _, m := range AllTriggerMethods() {
		validMethods = append(validMethods, string(m))
	}
	if !validator.IsInSlice(r.TriggerMethod, validMethods) {
		errs = append(errs, validator.ValidationError{
			Field:   "trigger_method",
			Message: "trigger_method must be one of: " + strings.Join(validMethods, ", "),
		})
	}

	if validator.IsEmpty(r.Timestamp) {
		errs = append(errs, validator.ValidationError{
			Field:   "timestamp",
			Message: "timestamp is required",
		})
	} else if ts, valid := validator.IsValidDateTime(r.Timestamp); !valid {
		errs = append(errs, validator.ValidationError{
			Field:   "timestamp",
			Message: "timestamp must be a valid RFC3339 datetime",
		})
	} else if ts.After(now.Add(MaxClockSkew)) {
		errs = append(errs, validator.ValidationError{
			Field:   "timestamp",
			Message: "timestamp must not be in the future",
		})
	} else {
		r.parsedTimestamp = ts.UTC()
	}

	if (r.Latitude == nil) != (r.Longitude == nil) {
		errs = append(errs, validator.ValidationError{
			Field:   "location",
			Message: "latitude and longitude must be provided together",
		})
	}

	if r.Latitude != nil && !validator.IsValidLatitude(*r.Latitude) {
		errs = append(errs, validator.ValidationError{
			Field:   "latitude",
			Message: "latitude must be between -90 and 90",
		})
	}

	if r.Longitude != nil && !validator.IsValidLongitude(*r.Longitude) {
		errs = append(errs, validator.ValidationError{
			Field:   "longitude",
			Message: "longitude must be between -180 and 180",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ParsedTimestamp is only meaningful after a successful Validate.
func (r *CreateEventRequest) ParsedTimestamp() time.Time {
	return r.parsedTimestamp
}

type EventResponse struct {
	ID                   string   `json:"id"`
	EmployeeID           string   `json:"employee_id"`
	SiteID               string   `json:"site_id"`
	EventType            string   `json:"event_type"`
	Timestamp            string   `json:"timestamp"`
	Latitude             *float64 `json:"latitude,omitempty"`
	Longitude            *float64 `json:"longitude,omitempty"`
	TriggerMethod        string   `json:"trigger_method"`
	DeviceID             *string  `json:"device_id,omitempty"`
	IsNoise              bool     `json:"is_noise"`
	DistanceToSiteMeters *float64 `json:"distance_to_site_meters,omitempty"`
	IsProcessed          bool     `json:"is_processed"`
	CreatedAt            string   `json:"created_at"`
}

type EventFilter struct {
	EmployeeID  *string `json:"employee_id,omitempty"`
	SiteID      *string `json:"site_id,omitempty"`
	StartDate   *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate     *string `json:"end_date,omitempty"`   // YYYY-MM-DD
	IsNoise     *bool   `json:"is_noise,omitempty"`
	IsProcessed *bool   `json:"is_processed,omitempty"`

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`

	SortOrder string `json:"sort_order"` // asc, desc (by timestamp)
}

func (f *EventFilter) Validate() error {
	var errs validator.ValidationErrors

	errs = append(errs, validatePagination(&f.Page, &f.Limit)...)
	errs = append(errs, validateDateRange(f.StartDate, f.EndDate)...)

	if f.SortOrder != "" {
		if !validator.IsInSlice(strings.ToLower(f.SortOrder), []string{"asc", "desc"}) {
			errs = append(errs, validator.ValidationError{
				Field:   "sort_order",
				Message: "sort_order must be one of: asc, desc",
			})
		}
	} else {
		f.SortOrder = "desc"
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type ListEventResponse struct {
	TotalCount int64           `json:"total_count"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"total_pages"`
	Showing    string          `json:"showing"`
	Events     []EventResponse `json:"events"`
}

// ========================================
// GEOFENCE DTOs
// ========================================

type NearestSiteResponse struct {
	Found          bool    `json:"found"`
	SiteID         string  `json:"site_id,omitempty"`
	SiteName       string  `json:"site_name,omitempty"`
	DistanceMeters float64 `json:"distance_meters,omitempty"`
}

type GeofenceCheckResponse struct {
	SiteID       string  `json:"site_id"`
	WithinFence  bool    `json:"within_fence"`
	RadiusMeters float64 `json:"radius_meters"`
}

// ========================================
// SUMMARY DTOs
// ========================================

type SummaryFilter struct {
	EmployeeID *string `json:"employee_id,omitempty"`
	SiteID     *string `json:"site_id,omitempty"`
	StartDate  *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate    *string `json:"end_date,omitempty"`   // YYYY-MM-DD
	Status     *string `json:"status,omitempty"`

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`

	// Sorting
	SortBy    string `json:"sort_by"`    // date, total_minutes, status, employee_name
	SortOrder string `json:"sort_order"` // asc, desc
}

func (f *SummaryFilter) Validate() error {
	var errs validator.ValidationErrors

	errs = append(errs, validatePagination(&f.Page, &f.Limit)...)
	errs = append(errs, validateDateRange(f.StartDate, f.EndDate)...)

	if f.Status != nil {
		validStatuses := make([]string, 0, len(AllSummaryStatuses()))
		for _, s := range AllSummaryStatuses() {
			validStatuses = append(validStatuses, string(s))
		}
		if !validator.IsInSlice(*f.Status, validStatuses) {
			errs = append(errs, validator.ValidationError{
				Field:   "status",
				Message: "status must be one of: " + strings.Join(validStatuses, ", "),
			})
		}
	}

	if f.SortBy != "" {
		validSortFields := []string{"date", "total_minutes", "status", "employee_name"}
		if !validator.IsInSlice(f.SortBy, validSortFields) {
			errs = append(errs, validator.ValidationError{
				Field:   "sort_by",
				Message: "sort_by must be one of: date, total_minutes, status, employee_name",
			})
		}
	} else {
		f.SortBy = "date"
	}

	if f.SortOrder != "" {
		if !validator.IsInSlice(strings.ToLower(f.SortOrder), []string{"asc", "desc"}) {
			errs = append(errs, validator.ValidationError{
				Field:   "sort_order",
				Message: "sort_order must be one of: asc, desc",
			})
		}
	} else {
		f.SortOrder = "desc"
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type SummaryResponse struct {
	ID            string   `json:"id"`
	EmployeeID    string   `json:"employee_id"`
	EmployeeName  *string  `json:"employee_name,omitempty"`
	SiteID        string   `json:"site_id"`
	SiteName      *string  `json:"site_name,omitempty"`
	Date          string   `json:"date"`
	ExpectedHours float64  `json:"expected_hours"`
	FirstEntry    *string  `json:"first_entry,omitempty"`
	LastExit      *string  `json:"last_exit,omitempty"`
	TotalMinutes  float64  `json:"total_minutes"`
	TotalHours    float64  `json:"total_hours"`
	Utilization   *float64 `json:"utilization_percent,omitempty"`
	EntryCount    int      `json:"entry_count"`
	ExitCount     int      `json:"exit_count"`
	HasSpa        bool     `json:"has_spa"`
	Status        string   `json:"status"`
	UpdatedAt     string   `json:"updated_at"`
}

type ListSummaryResponse struct {
	TotalCount int64             `json:"total_count"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
	Showing    string            `json:"showing"`
	Summaries  []SummaryResponse `json:"summaries"`
}

// ========================================
// AGGREGATION DTOs
// ========================================

type RunAggregationRequest struct {
	TenantID string `json:"-"`
	Date     string `json:"date"` // YYYY-MM-DD
}

func (r *RunAggregationRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.TenantID) {
		errs = append(errs, validator.ValidationError{
			Field:   "tenant_id",
			Message: "tenant_id is required",
		})
	}

	if validator.IsEmpty(r.Date) {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date is required",
		})
	} else if _, valid := validator.IsValidDate(r.Date); !valid {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD format",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// DailyAggregationResult reports the outcome of one tenant/date run. A non-empty
// Errors list is not a failure of the run itself.
type DailyAggregationResult struct {
	TenantID         string   `json:"tenant_id"`
	Date             string   `json:"date"`
	EventsProcessed  int      `json:"events_processed"`
	NoiseEvents      int      `json:"noise_events"`
	SummariesCreated int      `json:"summaries_created"`
	SummariesUpdated int      `json:"summaries_updated"`
	Errors           []string `json:"errors"`
}

// ========================================
// SHARED VALIDATION
// ========================================

func validatePagination(page, limit *int) validator.ValidationErrors {
	var errs validator.ValidationErrors

	if *page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if *page == 0 {
		*page = 1
	}

	if *limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if *limit == 0 {
		*limit = 20
	}
	if *limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	return errs
}

func validateDateRange(startDate, endDate *string) validator.ValidationErrors {
	var errs validator.ValidationErrors

	var start, end time.Time
	if startDate != nil && *startDate != "" {
		parsed, valid := validator.IsValidDate(*startDate)
		if !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "start_date",
				Message: "start_date must be in YYYY-MM-DD format",
			})
		}
		start = parsed
	}

	if endDate != nil && *endDate != "" {
		parsed, valid := validator.IsValidDate(*endDate)
		if !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must be in YYYY-MM-DD format",
			})
		}
		end = parsed
	}

	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must not be before start_date",
		})
	}

	return errs
}
