package siteattendance

import (
	"context"
	"time"
)

// GeofenceEvaluator answers containment, nearest-site and noise questions against tenant sites.
type GeofenceEvaluator interface {
	// IsWithinGeofence reports whether the coordinate is within the tenant radius of the site (inclusive)
	IsWithinGeofence(ctx context.Context, tenantID, siteID string, lat, lon float64) (bool, error)

	// FindNearestSite returns nil when the tenant has no active sites
	FindNearestSite(ctx context.Context, tenantID string, lat, lon float64) (*NearestSite, error)

	// CheckForNoise compares the event coordinate to the event's claimed site only
	CheckForNoise(ctx context.Context, tenantID string, event AttendanceEvent) (NoiseCheck, error)
}

// AttendanceService defines event ingestion and read operations
type AttendanceService interface {
	// CreateEvent validates, noise-checks and appends a new event
	CreateEvent(ctx context.Context, req CreateEventRequest) (EventResponse, error)

	// ListEvents retrieves events with filters (admin)
	ListEvents(ctx context.Context, tenantID string, filter EventFilter) (ListEventResponse, error)

	// ListSummaries retrieves daily summaries with filters (admin)
	ListSummaries(ctx context.Context, tenantID string, filter SummaryFilter) (ListSummaryResponse, error)

	NearestSite(ctx context.Context, tenantID string, lat, lon float64) (NearestSiteResponse, error)
	CheckGeofence(ctx context.Context, tenantID, siteID string, lat, lon float64) (GeofenceCheckResponse, error)
}

// AggregationService reduces a tenant's raw events for one day into summaries.
type AggregationService interface {
	RunDailyAggregation(ctx context.Context, tenantID string, date time.Time) (DailyAggregationResult, error)
}
