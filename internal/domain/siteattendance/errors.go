package siteattendance

import "errors"

// Site attendance domain errors
var (
	// Event creation errors
	ErrSiteNotFound           = errors.New("site not found")
	ErrSiteInactive           = errors.New("site is not active")
	ErrDeviceEmployeeMismatch = errors.New("device is registered to a different employee")
	ErrEventNotFound          = errors.New("attendance event not found")

	// Aggregation errors
	ErrFutureAggregationDate = errors.New("aggregation date cannot be in the future")
	ErrSettingsUnavailable   = errors.New("attendance settings could not be loaded")

	// Summary errors
	ErrSummaryNotFound      = errors.New("attendance summary not found")
	ErrSummaryAlreadyExists = errors.New("attendance summary already exists for this employee, site and date")

	// General errors
	ErrTenantRequired = errors.New("tenant id is required")
)
