package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/site-attendance-go/internal/domain/siteattendance"
	"github.com/cmlabs-hris/site-attendance-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type siteRepository struct {
	db *database.DB
}

// GetByID implements siteattendance.SiteRepository.
func (r *siteRepository) GetByID(ctx context.Context, tenantID, siteID string) (siteattendance.Site, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, tenant_id, name, latitude, longitude, is_active
		FROM sites
		WHERE id = $1 AND tenant_id = $2
	`

	var site siteattendance.Site
	err := q.QueryRow(ctx, query, siteID, tenantID).Scan(
		&site.ID, &site.TenantID, &site.Name, &site.Latitude, &site.Longitude, &site.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return siteattendance.Site{}, siteattendance.ErrSiteNotFound
		}
		return siteattendance.Site{}, fmt.Errorf("failed to get site by ID: %w", err)
	}

	return site, nil
}

// ListActive implements siteattendance.SiteRepository.
func (r *siteRepository) ListActive(ctx context.Context, tenantID string) ([]siteattendance.Site, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, tenant_id, name, latitude, longitude, is_active
		FROM sites
		WHERE tenant_id = $1 AND is_active = TRUE
		ORDER BY id
	`

	rows, err := q.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active sites: %w", err)
	}
	defer rows.Close()

	var sites []siteattendance.Site
	for rows.Next() {
		var site siteattendance.Site
		if err := rows.Scan(&site.ID, &site.TenantID, &site.Name, &site.Latitude, &site.Longitude, &site.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}
		sites = append(sites, site)
	}

	return sites, rows.Err()
}

// ListActiveTenantIDs implements siteattendance.TenantRepository.
func (r *siteRepository) ListActiveTenantIDs(ctx context.Context) ([]string, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT DISTINCT tenant_id FROM sites WHERE is_active = TRUE ORDER BY tenant_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan tenant id: %w", err)
		}
		tenants = append(tenants, id)
	}

	return tenants, rows.Err()
}

func NewSiteRepository(db *database.DB) siteattendance.SiteRepository {
	return &siteRepository{db: db}
}

func NewTenantRepository(db *database.DB) siteattendance.TenantRepository {
	return &siteRepository{db: db}
}
