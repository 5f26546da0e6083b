package geofence

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/site-attendance-go/internal/domain/siteattendance"
	"github.com/cmlabs-hris/site-attendance-go/internal/pkg/geo"
)

type GeofenceServiceImpl struct {
	siteattendance.SiteRepository
	settings siteattendance.SettingsProvider
}

func NewGeofenceService(siteRepo siteattendance.SiteRepository, settings siteattendance.SettingsProvider) siteattendance.GeofenceEvaluator {
	return &GeofenceServiceImpl{
		SiteRepository: siteRepo,
		settings:       settings,
	}
}

// IsWithinGeofence implements siteattendance.GeofenceEvaluator.
func (g *GeofenceServiceImpl) IsWithinGeofence(ctx context.Context, tenantID, siteID string, lat, lon float64) (bool, error) {
	site, err := g.SiteRepository.GetByID(ctx, tenantID, siteID)
	if err != nil {
		return false, err
	}

	settings, err := g.settings.GetSettings(ctx, tenantID)
	if err != nil {
		return false, fmt.Errorf("failed to get attendance settings: %w", err)
	}
	settings = settings.Normalize()

	distance := geo.HaversineDistance(lat, lon, site.Latitude, site.Longitude)
	return distance <= settings.GeofenceRadiusMeters, nil
}

// FindNearestSite implements siteattendance.GeofenceEvaluator.
func (g *GeofenceServiceImpl) FindNearestSite(ctx context.Context, tenantID string, lat, lon float64) (*siteattendance.NearestSite, error) {
	sites, err := g.SiteRepository.ListActive(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active sites: %w", err)
	}

	var nearest *siteattendance.NearestSite
	for _, site := range sites {
		distance := geo.HaversineDistance(lat, lon, site.Latitude, site.Longitude)
		if nearest == nil || distance < nearest.DistanceMeters {
			nearest = &siteattendance.NearestSite{Site: site, DistanceMeters: distance}
		}
	}

	return nearest, nil
}

// CheckForNoise implements siteattendance.GeofenceEvaluator.
// Only the claimed site is consulted; a closer unrelated site does not clear the flag.
func (g *GeofenceServiceImpl) CheckForNoise(ctx context.Context, tenantID string, event siteattendance.AttendanceEvent) (siteattendance.NoiseCheck, error) {
	if !event.HasLocation() {
		return siteattendance.NoiseCheck{}, nil
	}

	site, err := g.SiteRepository.GetByID(ctx, tenantID, event.SiteID)
	if err != nil {
		return siteattendance.NoiseCheck{}, err
	}

	settings, err := g.settings.GetSettings(ctx, tenantID)
	if err != nil {
		return siteattendance.NoiseCheck{}, fmt.Errorf("failed to get attendance settings: %w", err)
	}
	settings = settings.Normalize()

	distance := geo.HaversineDistance(*event.Latitude, *event.Longitude, site.Latitude, site.Longitude)

	return siteattendance.NoiseCheck{
		Checked:        true,
		IsNoise:        distance > settings.NoiseThresholdMeters,
		DistanceMeters: &distance,
	}, nil
}
