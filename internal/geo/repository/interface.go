package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ZoneKind identifies which geographic taxonomy populated a zone.
// Municipality-based and statistical-area-based zones coexist; the only
// difference visible to callers is where the secondary label comes from.
type ZoneKind string

const (
	KindMunicipality    ZoneKind = "municipality"
	KindStatisticalArea ZoneKind = "statistical_area"
)

// Country is immutable reference data, created once per supported country.
type Country struct {
	ID      uuid.UUID `db:"id"`
	ISOCode string    `db:"iso_code"`
	Name    string    `db:"name"`
}

// Zone is a named service area owning a set of postal codes within one country.
type Zone struct {
	ID             uuid.UUID `db:"id"`
	CountryID      uuid.UUID `db:"country_id"`
	CountryISO     string    `db:"country_iso"`
	Name           string    `db:"name"`
	Kind           ZoneKind  `db:"kind"`
	SecondaryLabel *string   `db:"secondary_label"`
	State          *string   `db:"state"`
	PostalCodes    []string
	UpdatedAt      time.Time `db:"updated_at"`
}

// ZoneMatch is the projection returned by postal code resolution. The
// secondary label is display-only and never used for matching.
type ZoneMatch struct {
	ZoneID         uuid.UUID
	Name           string
	CountryCode    string
	SecondaryLabel *string
}

// ImportZone describes one zone in a bulk geographic data load.
type ImportZone struct {
	CountryISO     string
	CountryName    string
	Name           string
	Kind           ZoneKind
	SecondaryLabel *string
	State          *string
	PostalCodes    []string
}

// UpdatePostalCodesParams carries an optimistic-concurrency zone edit.
type UpdatePostalCodesParams struct {
	ZoneID            uuid.UUID
	PostalCodes       []string
	ExpectedUpdatedAt time.Time
}

// ZoneReader provides read access to zones and resolution.
type ZoneReader interface {
	ResolvePostalCode(ctx context.Context, postalCode, countryISO string) (ZoneMatch, error)
	GetZone(ctx context.Context, id uuid.UUID) (Zone, error)
	ListCountries(ctx context.Context) ([]Country, error)
}

// ZoneWriter provides administrative and bulk-load write access.
type ZoneWriter interface {
	UpdatePostalCodes(ctx context.Context, params UpdatePostalCodesParams) (Zone, error)
	ImportZones(ctx context.Context, zones []ImportZone) (int, error)
}

// Repository combines all zone repository operations.
type Repository interface {
	ZoneReader
	ZoneWriter
}
