package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"leadmarket_backend/platform/apperr"
)

const zoneNotFoundMessage = "zone not found"

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new geo repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// ResolvePostalCode finds the zone owning the postal code, optionally
// filtered to a country. Without a country filter, ties across countries
// resolve deterministically by ISO code order.
func (r *Repo) ResolvePostalCode(ctx context.Context, postalCode, countryISO string) (ZoneMatch, error) {
	query := `
		SELECT z.id, z.name, c.iso_code, z.secondary_label
		FROM zone_postal_codes pc
		JOIN zones z ON z.id = pc.zone_id
		JOIN countries c ON c.id = z.country_id
		WHERE pc.postal_code = $1
		  AND ($2 = '' OR c.iso_code = $2)
		ORDER BY c.iso_code ASC
		LIMIT 1`

	var match ZoneMatch
	err := r.pool.QueryRow(ctx, query, postalCode, countryISO).Scan(
		&match.ZoneID, &match.Name, &match.CountryCode, &match.SecondaryLabel,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ZoneMatch{}, apperr.NotFound("no zone serves this postal code")
		}
		return ZoneMatch{}, fmt.Errorf("resolve postal code: %w", err)
	}

	return match, nil
}

// GetZone retrieves a zone with its postal code set.
func (r *Repo) GetZone(ctx context.Context, id uuid.UUID) (Zone, error) {
	query := `
		SELECT z.id, z.country_id, c.iso_code, z.name, z.kind, z.secondary_label, z.state, z.updated_at
		FROM zones z
		JOIN countries c ON c.id = z.country_id
		WHERE z.id = $1`

	var zone Zone
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&zone.ID, &zone.CountryID, &zone.CountryISO, &zone.Name, &zone.Kind,
		&zone.SecondaryLabel, &zone.State, &zone.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Zone{}, apperr.NotFound(zoneNotFoundMessage)
		}
		return Zone{}, fmt.Errorf("get zone: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT postal_code FROM zone_postal_codes WHERE zone_id = $1 ORDER BY postal_code`, id)
	if err != nil {
		return Zone{}, fmt.Errorf("get zone postal codes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return Zone{}, fmt.Errorf("scan postal code: %w", err)
		}
		zone.PostalCodes = append(zone.PostalCodes, code)
	}
	return zone, rows.Err()
}

// ListCountries returns all supported countries.
func (r *Repo) ListCountries(ctx context.Context) ([]Country, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, iso_code, name FROM countries ORDER BY iso_code`)
	if err != nil {
		return nil, fmt.Errorf("list countries: %w", err)
	}
	defer rows.Close()

	var countries []Country
	for rows.Next() {
		var country Country
		if err := rows.Scan(&country.ID, &country.ISOCode, &country.Name); err != nil {
			return nil, fmt.Errorf("scan country: %w", err)
		}
		countries = append(countries, country)
	}
	return countries, rows.Err()
}

// UpdatePostalCodes replaces a zone's postal code set. The update is guarded
// by the zone's updated_at timestamp: a stale expected value means another
// administrator edited concurrently and the caller should reload and retry.
func (r *Repo) UpdatePostalCodes(ctx context.Context, params UpdatePostalCodesParams) (Zone, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Zone{}, fmt.Errorf("begin zone update: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE zones SET updated_at = now()
		 WHERE id = $1 AND updated_at = $2`,
		params.ZoneID, params.ExpectedUpdatedAt,
	)
	if err != nil {
		return Zone{}, fmt.Errorf("update zone version: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM zones WHERE id = $1)`, params.ZoneID,
		).Scan(&exists); err != nil {
			return Zone{}, fmt.Errorf("check zone exists: %w", err)
		}
		if !exists {
			return Zone{}, apperr.NotFound(zoneNotFoundMessage)
		}
		return Zone{}, apperr.Conflict("zone was modified concurrently, reload and retry")
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM zone_postal_codes WHERE zone_id = $1`, params.ZoneID); err != nil {
		return Zone{}, fmt.Errorf("clear zone postal codes: %w", err)
	}

	for _, code := range params.PostalCodes {
		if _, err := tx.Exec(ctx,
			`INSERT INTO zone_postal_codes (zone_id, postal_code) VALUES ($1, $2)
			 ON CONFLICT DO NOTHING`,
			params.ZoneID, code); err != nil {
			return Zone{}, fmt.Errorf("insert zone postal code: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Zone{}, fmt.Errorf("commit zone update: %w", err)
	}

	return r.GetZone(ctx, params.ZoneID)
}

// ImportZones bulk-upserts countries, zones, and their postal codes from a
// geographic reference data load. Returns the number of zones written.
func (r *Repo) ImportZones(ctx context.Context, zones []ImportZone) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback(ctx)

	written := 0
	for _, zone := range zones {
		var countryID uuid.UUID
		err := tx.QueryRow(ctx,
			`INSERT INTO countries (iso_code, name)
			 VALUES ($1, $2)
			 ON CONFLICT (iso_code) DO UPDATE SET name = EXCLUDED.name
			 RETURNING id`,
			zone.CountryISO, zone.CountryName,
		).Scan(&countryID)
		if err != nil {
			return 0, fmt.Errorf("upsert country %s: %w", zone.CountryISO, err)
		}

		var zoneID uuid.UUID
		err = tx.QueryRow(ctx,
			`INSERT INTO zones (country_id, name, kind, secondary_label, state)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (country_id, name) DO UPDATE
			   SET kind = EXCLUDED.kind,
			       secondary_label = EXCLUDED.secondary_label,
			       state = EXCLUDED.state,
			       updated_at = now()
			 RETURNING id`,
			countryID, zone.Name, zone.Kind, zone.SecondaryLabel, zone.State,
		).Scan(&zoneID)
		if err != nil {
			return 0, fmt.Errorf("upsert zone %s: %w", zone.Name, err)
		}

		for _, code := range zone.PostalCodes {
			if _, err := tx.Exec(ctx,
				`INSERT INTO zone_postal_codes (zone_id, postal_code) VALUES ($1, $2)
				 ON CONFLICT DO NOTHING`,
				zoneID, code); err != nil {
				return 0, fmt.Errorf("insert postal code %s: %w", code, err)
			}
		}
		written++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return written, nil
}
