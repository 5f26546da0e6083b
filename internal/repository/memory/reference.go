package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/site-attendance-go/internal/domain/siteattendance"
)

// GetByID implements siteattendance.SiteRepository.
func (s *Store) GetByID(ctx context.Context, tenantID, siteID string) (siteattendance.Site, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	site, ok := s.sites[siteID]
	if !ok || site.TenantID != tenantID {
		return siteattendance.Site{}, siteattendance.ErrSiteNotFound
	}
	return site, nil
}

// ListActive implements siteattendance.SiteRepository.
func (s *Store) ListActive(ctx context.Context, tenantID string) ([]siteattendance.Site, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []siteattendance.Site
	for _, site := range s.sites {
		if site.TenantID == tenantID && site.IsActive {
			out = append(out, site)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetSettings implements siteattendance.SettingsProvider.
func (s *Store) GetSettings(ctx context.Context, tenantID string) (siteattendance.AttendanceSettings, error) {
	if s.Hooks.GetSettings != nil {
		if err := s.Hooks.GetSettings(tenantID); err != nil {
			return siteattendance.AttendanceSettings{}, err
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if settings, ok := s.settings[tenantID]; ok {
		return settings, nil
	}
	return siteattendance.DefaultSettings(tenantID), nil
}

// Exists implements siteattendance.SpaChecker.
func (s *Store) Exists(ctx context.Context, tenantID, employeeID, siteID string, date time.Time) (bool, error) {
	if s.Hooks.SpaExists != nil {
		if err := s.Hooks.SpaExists(employeeID, siteID); err != nil {
			return false, err
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.spa[spaKey{tenantID, employeeID, siteID, date.Format("2006-01-02")}], nil
}

// GetByIdentifier implements siteattendance.DeviceRepository.
func (s *Store) GetByIdentifier(ctx context.Context, tenantID, deviceIdentifier string) (*siteattendance.DeviceRegistration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, d := range s.devices {
		if d.TenantID == tenantID && d.DeviceIdentifier == deviceIdentifier {
			device := d
			return &device, nil
		}
	}
	return nil, nil
}

// GetActiveByEmployee implements siteattendance.DeviceRepository.
func (s *Store) GetActiveByEmployee(ctx context.Context, tenantID, employeeID string) (*siteattendance.DeviceRegistration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *siteattendance.DeviceRegistration
	for _, d := range s.devices {
		if d.TenantID != tenantID || d.EmployeeID != employeeID || !d.IsActive {
			continue
		}
		if latest == nil || d.CreatedAt.After(latest.CreatedAt) {
			device := d
			latest = &device
		}
	}
	return latest, nil
}

// ListActiveTenantIDs implements siteattendance.TenantRepository.
func (s *Store) ListActiveTenantIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	var out []string
	for _, site := range s.sites {
		if !site.IsActive {
			continue
		}
		if _, ok := seen[site.TenantID]; ok {
			continue
		}
		seen[site.TenantID] = struct{}{}
		out = append(out, site.TenantID)
	}
	sort.Strings(out)
	return out, nil
}
