package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/cmlabs-hris/site-attendance-go/internal/domain/siteattendance"
	"github.com/cmlabs-hris/site-attendance-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/site-attendance-go/internal/pkg/validator"
	"github.com/google/uuid"
)

// notifyTimeout bounds a single notification hook call.
const notifyTimeout = 10 * time.Second

var _ siteattendance.AttendanceService = (*AttendanceServiceImpl)(nil)

type AttendanceServiceImpl struct {
	siteattendance.EventRepository
	siteattendance.SummaryRepository
	siteattendance.SiteRepository
	siteattendance.DeviceRepository
	geofence  siteattendance.GeofenceEvaluator
	settings  siteattendance.SettingsProvider
	notifier  siteattendance.Notifier
	publisher siteattendance.EventPublisher
	now       func() time.Time
}

func NewAttendanceService(
	eventRepo siteattendance.EventRepository,
	summaryRepo siteattendance.SummaryRepository,
	siteRepo siteattendance.SiteRepository,
	deviceRepo siteattendance.DeviceRepository,
	geofence siteattendance.GeofenceEvaluator,
	settings siteattendance.SettingsProvider,
	notifier siteattendance.Notifier,
) *AttendanceServiceImpl {
	return &AttendanceServiceImpl{
		EventRepository:   eventRepo,
		SummaryRepository: summaryRepo,
		SiteRepository:    siteRepo,
		DeviceRepository:  deviceRepo,
		geofence:          geofence,
		settings:          settings,
		notifier:          notifier,
		now:               time.Now,
	}
}

func (a *AttendanceServiceImpl) WithClock(now func() time.Time) *AttendanceServiceImpl {
	a.now = now
	return a
}

// WithPublisher enables the live event feed.
func (a *AttendanceServiceImpl) WithPublisher(publisher siteattendance.EventPublisher) *AttendanceServiceImpl {
	a.publisher = publisher
	return a
}

// CreateEvent implements siteattendance.AttendanceService.
func (a *AttendanceServiceImpl) CreateEvent(ctx context.Context, req siteattendance.CreateEventRequest) (siteattendance.EventResponse, error) {
	if err := req.Validate(a.now().UTC()); err != nil {
		metrics.EventsRejectedTotal.WithLabelValues("validation").Inc()
		return siteattendance.EventResponse{}, err
	}

	site, err := a.SiteRepository.GetByID(ctx, req.TenantID, req.SiteID)
	if err != nil {
		metrics.EventsRejectedTotal.WithLabelValues("site").Inc()
		return siteattendance.EventResponse{}, err
	}
	if !site.IsActive {
		metrics.EventsRejectedTotal.WithLabelValues("site").Inc()
		return siteattendance.EventResponse{}, siteattendance.ErrSiteInactive
	}

	deviceID, err := a.resolveDevice(ctx, req)
	if err != nil {
		metrics.EventsRejectedTotal.WithLabelValues("device").Inc()
		return siteattendance.EventResponse{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return siteattendance.EventResponse{}, fmt.Errorf("failed to generate event id: %w", err)
	}

	event := siteattendance.AttendanceEvent{
		ID:            id.String(),
		TenantID:      req.TenantID,
		EmployeeID:    req.EmployeeID,
		SiteID:        req.SiteID,
		EventType:     siteattendance.EventType(req.EventType),
		Timestamp:     req.ParsedTimestamp(),
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		TriggerMethod: siteattendance.TriggerMethod(req.TriggerMethod),
		DeviceID:      deviceID,
	}

	noise, err := a.geofence.CheckForNoise(ctx, req.TenantID, event)
	if err != nil {
		return siteattendance.EventResponse{}, fmt.Errorf("failed to check event location: %w", err)
	}
	event.IsNoise = noise.IsNoise
	event.DistanceToSiteMeters = noise.DistanceMeters

	created, err := a.EventRepository.Create(ctx, event)
	if err != nil {
		return siteattendance.EventResponse{}, fmt.Errorf("failed to create attendance event: %w", err)
	}

	metrics.EventsIngestedTotal.WithLabelValues(string(created.EventType), strconv.FormatBool(created.IsNoise)).Inc()

	if created.EventType == siteattendance.EventTypeEnter && !created.IsNoise {
		a.notifyAsync(created)
	}

	resp := mapEventToResponse(created)
	if a.publisher != nil {
		a.publisher.PublishEvent(ctx, created.TenantID, resp)
	}
	return resp, nil
}

// resolveDevice returns the registration id to store on the event, if any.
func (a *AttendanceServiceImpl) resolveDevice(ctx context.Context, req siteattendance.CreateEventRequest) (*string, error) {
	if req.DeviceIdentifier != nil && !validator.IsEmpty(*req.DeviceIdentifier) {
		device, err := a.DeviceRepository.GetByIdentifier(ctx, req.TenantID, *req.DeviceIdentifier)
		if err != nil {
			return nil, fmt.Errorf("failed to look up device: %w", err)
		}
		if device == nil {
			return nil, nil
		}
		if device.EmployeeID != req.EmployeeID {
			return nil, siteattendance.ErrDeviceEmployeeMismatch
		}
		return &device.ID, nil
	}

	device, err := a.DeviceRepository.GetActiveByEmployee(ctx, req.TenantID, req.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up employee device: %w", err)
	}
	if device == nil {
		return nil, nil
	}
	return &device.ID, nil
}

// notifyAsync detaches from the request; a failed notification never fails ingestion.
func (a *AttendanceServiceImpl) notifyAsync(event siteattendance.AttendanceEvent) {
	if a.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		if err := a.notifier.NotifyMissingSpaCheck(ctx, event); err != nil {
			metrics.NotificationsFailedTotal.Inc()
			slog.Warn("Failed to send SPA check notification",
				"tenant_id", event.TenantID,
				"event_id", event.ID,
				"employee_id", event.EmployeeID,
				"error", err)
		}
	}()
}

// ListEvents implements siteattendance.AttendanceService.
func (a *AttendanceServiceImpl) ListEvents(ctx context.Context, tenantID string, filter siteattendance.EventFilter) (siteattendance.ListEventResponse, error) {
	if tenantID == "" {
		return siteattendance.ListEventResponse{}, siteattendance.ErrTenantRequired
	}
	if err := filter.Validate(); err != nil {
		return siteattendance.ListEventResponse{}, err
	}

	events, total, err := a.EventRepository.List(ctx, tenantID, filter)
	if err != nil {
		return siteattendance.ListEventResponse{}, fmt.Errorf("failed to list attendance events: %w", err)
	}

	responses := make([]siteattendance.EventResponse, 0, len(events))
	for _, ev := range events {
		responses = append(responses, mapEventToResponse(ev))
	}

	totalPages, showing := paginate(total, filter.Page, filter.Limit)

	return siteattendance.ListEventResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
		Showing:    showing,
		Events:     responses,
	}, nil
}

// ListSummaries implements siteattendance.AttendanceService.
func (a *AttendanceServiceImpl) ListSummaries(ctx context.Context, tenantID string, filter siteattendance.SummaryFilter) (siteattendance.ListSummaryResponse, error) {
	if tenantID == "" {
		return siteattendance.ListSummaryResponse{}, siteattendance.ErrTenantRequired
	}
	if err := filter.Validate(); err != nil {
		return siteattendance.ListSummaryResponse{}, err
	}

	summaries, total, err := a.SummaryRepository.List(ctx, tenantID, filter)
	if err != nil {
		return siteattendance.ListSummaryResponse{}, fmt.Errorf("failed to list attendance summaries: %w", err)
	}

	responses := make([]siteattendance.SummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		responses = append(responses, MapSummaryToResponse(s))
	}

	totalPages, showing := paginate(total, filter.Page, filter.Limit)

	return siteattendance.ListSummaryResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
		Showing:    showing,
		Summaries:  responses,
	}, nil
}

// NearestSite implements siteattendance.AttendanceService.
func (a *AttendanceServiceImpl) NearestSite(ctx context.Context, tenantID string, lat, lon float64) (siteattendance.NearestSiteResponse, error) {
	if err := validateCoordinate(lat, lon); err != nil {
		return siteattendance.NearestSiteResponse{}, err
	}

	nearest, err := a.geofence.FindNearestSite(ctx, tenantID, lat, lon)
	if err != nil {
		return siteattendance.NearestSiteResponse{}, err
	}
	if nearest == nil {
		return siteattendance.NearestSiteResponse{Found: false}, nil
	}

	return siteattendance.NearestSiteResponse{
		Found:          true,
		SiteID:         nearest.Site.ID,
		SiteName:       nearest.Site.Name,
		DistanceMeters: math.Round(nearest.DistanceMeters*100) / 100,
	}, nil
}

// CheckGeofence implements siteattendance.AttendanceService.
func (a *AttendanceServiceImpl) CheckGeofence(ctx context.Context, tenantID, siteID string, lat, lon float64) (siteattendance.GeofenceCheckResponse, error) {
	if err := validateCoordinate(lat, lon); err != nil {
		return siteattendance.GeofenceCheckResponse{}, err
	}

	within, err := a.geofence.IsWithinGeofence(ctx, tenantID, siteID, lat, lon)
	if err != nil {
		return siteattendance.GeofenceCheckResponse{}, err
	}

	settings, err := a.settings.GetSettings(ctx, tenantID)
	if err != nil {
		return siteattendance.GeofenceCheckResponse{}, fmt.Errorf("failed to get attendance settings: %w", err)
	}

	return siteattendance.GeofenceCheckResponse{
		SiteID:       siteID,
		WithinFence:  within,
		RadiusMeters: settings.Normalize().GeofenceRadiusMeters,
	}, nil
}

func validateCoordinate(lat, lon float64) error {
	var errs validator.ValidationErrors
	if !validator.IsValidLatitude(lat) {
		errs = append(errs, validator.ValidationError{
			Field:   "latitude",
			Message: "latitude must be between -90 and 90",
		})
	}
	if !validator.IsValidLongitude(lon) {
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

func paginate(total int64, page, limit int) (int, string) {
	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	showing := fmt.Sprintf("%d-%d of %d", (page-1)*limit+1, min(page*limit, int(total)), total)
	if total == 0 {
		showing = "0 of 0"
	}
	return totalPages, showing
}

func timePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	format := t.UTC().Format(time.RFC3339)
	return &format
}

func mapEventToResponse(ev siteattendance.AttendanceEvent) siteattendance.EventResponse {
	return siteattendance.EventResponse{
		ID:                   ev.ID,
		EmployeeID:           ev.EmployeeID,
		SiteID:               ev.SiteID,
		EventType:            string(ev.EventType),
		Timestamp:            ev.Timestamp.UTC().Format(time.RFC3339),
		Latitude:             ev.Latitude,
		Longitude:            ev.Longitude,
		TriggerMethod:        string(ev.TriggerMethod),
		DeviceID:             ev.DeviceID,
		IsNoise:              ev.IsNoise,
		DistanceToSiteMeters: ev.DistanceToSiteMeters,
		IsProcessed:          ev.IsProcessed,
		CreatedAt:            ev.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// MapSummaryToResponse converts a summary entity to its API shape. Utilization is
// omitted when no hours were expected.
func MapSummaryToResponse(s siteattendance.AttendanceSummary) siteattendance.SummaryResponse {
	var utilization *float64
	if s.ExpectedHours > 0 {
		v := Utilization(s.TotalMinutes, s.ExpectedHours).Round(2).InexactFloat64()
		utilization = &v
	}

	return siteattendance.SummaryResponse{
		ID:            s.ID,
		EmployeeID:    s.EmployeeID,
		EmployeeName:  s.EmployeeName,
		SiteID:        s.SiteID,
		SiteName:      s.SiteName,
		Date:          s.Date.Format("2006-01-02"),
		ExpectedHours: s.ExpectedHours,
		FirstEntry:    timePtrToString(s.FirstEntry),
		LastExit:      timePtrToString(s.LastExit),
		TotalMinutes:  math.Round(s.TotalMinutes*100) / 100,
		TotalHours:    math.Round(s.TotalMinutes/60*100) / 100,
		Utilization:   utilization,
		EntryCount:    s.EntryCount,
		ExitCount:     s.ExitCount,
		HasSpa:        s.HasSpa,
		Status:        string(s.Status),
		UpdatedAt:     s.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
