package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/site-attendance-go/internal/domain/siteattendance"
	"github.com/cmlabs-hris/site-attendance-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type settingsRepository struct {
	db *database.DB
}

// GetSettings implements siteattendance.SettingsProvider.
// Tenants without a row get the defaults.
func (r *settingsRepository) GetSettings(ctx context.Context, tenantID string) (siteattendance.AttendanceSettings, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT tenant_id, expected_hours_per_day::float8, geofence_radius_meters, noise_threshold_meters,
			   entry_grace_period_minutes, exit_grace_period_minutes, timezone
		FROM attendance_settings
		WHERE tenant_id = $1
	`

	var s siteattendance.AttendanceSettings
	err := q.QueryRow(ctx, query, tenantID).Scan(
		&s.TenantID, &s.ExpectedHoursPerDay, &s.GeofenceRadiusMeters, &s.NoiseThresholdMeters,
		&s.EntryGracePeriodMinutes, &s.ExitGracePeriodMinutes, &s.Timezone,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return siteattendance.DefaultSettings(tenantID), nil
		}
		return siteattendance.AttendanceSettings{}, fmt.Errorf("failed to get attendance settings: %w", err)
	}

	return s, nil
}

type spaRepository struct {
	db *database.DB
}

// Exists implements siteattendance.SpaChecker.
func (r *spaRepository) Exists(ctx context.Context, tenantID, employeeID, siteID string, date time.Time) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT EXISTS (
			SELECT 1
			FROM site_photo_attendances
			WHERE tenant_id = $1
			  AND employee_id = $2
			  AND site_id = $3
			  AND date = $4
		)
	`

	var exists bool
	if err := q.QueryRow(ctx, query, tenantID, employeeID, siteID, date.Format("2006-01-02")).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check site photo attendance: %w", err)
	}

	return exists, nil
}

type deviceRepository struct {
	db *database.DB
}

// GetByIdentifier implements siteattendance.DeviceRepository.
func (r *deviceRepository) GetByIdentifier(ctx context.Context, tenantID, deviceIdentifier string) (*siteattendance.DeviceRegistration, error) {
	query := `
		SELECT id, tenant_id, employee_id, device_identifier, is_active, created_at
		FROM device_registrations
		WHERE tenant_id = $1 AND device_identifier = $2
	`
	return r.getOne(ctx, query, tenantID, deviceIdentifier)
}

// GetActiveByEmployee implements siteattendance.DeviceRepository.
func (r *deviceRepository) GetActiveByEmployee(ctx context.Context, tenantID, employeeID string) (*siteattendance.DeviceRegistration, error) {
	query := `
		SELECT id, tenant_id, employee_id, device_identifier, is_active, created_at
		FROM device_registrations
		WHERE tenant_id = $1 AND employee_id = $2 AND is_active = TRUE
		ORDER BY created_at DESC
		LIMIT 1
	`
	return r.getOne(ctx, query, tenantID, employeeID)
}

func (r *deviceRepository) getOne(ctx context.Context, query string, args ...any) (*siteattendance.DeviceRegistration, error) {
	q := GetQuerier(ctx, r.db)

	var d siteattendance.DeviceRegistration
	err := q.QueryRow(ctx, query, args...).Scan(
		&d.ID, &d.TenantID, &d.EmployeeID, &d.DeviceIdentifier, &d.IsActive, &d.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get device registration: %w", err)
	}

	return &d, nil
}

func NewSettingsRepository(db *database.DB) siteattendance.SettingsProvider {
	return &settingsRepository{db: db}
}

func NewSpaRepository(db *database.DB) siteattendance.SpaChecker {
	return &spaRepository{db: db}
}

func NewDeviceRepository(db *database.DB) siteattendance.DeviceRepository {
	return &deviceRepository{db: db}
}
