package transport

import (
	"time"

	"github.com/google/uuid"
)

// ResolveRequest are the query parameters for postal code resolution.
type ResolveRequest struct {
	PostalCode string `form:"postalCode" validate:"required,min=1,max=16"`
	Country    string `form:"country" validate:"omitempty,len=2"`
}

// ZoneMatchResponse is the resolution result projection. SecondaryLabel is
// for display only and carries whichever taxonomy label the zone was loaded
// with (municipality or statistical area name).
type ZoneMatchResponse struct {
	ZoneID         uuid.UUID `json:"zoneId"`
	Name           string    `json:"name"`
	CountryCode    string    `json:"countryCode"`
	SecondaryLabel *string   `json:"secondaryLabel,omitempty"`
}

// UpdatePostalCodesRequest replaces a zone's postal code set.
// ExpectedUpdatedAt carries the optimistic-concurrency token the admin
// client read together with the zone.
type UpdatePostalCodesRequest struct {
	ZoneID            uuid.UUID `json:"-"`
	PostalCodes       []string  `json:"postalCodes" validate:"required,min=1,dive,min=1,max=16"`
	ExpectedUpdatedAt time.Time `json:"expectedUpdatedAt" validate:"required"`
}

// ZoneResponse represents a zone in API responses.
type ZoneResponse struct {
	ID             uuid.UUID `json:"id"`
	CountryCode    string    `json:"countryCode"`
	Name           string    `json:"name"`
	Kind           string    `json:"kind"`
	SecondaryLabel *string   `json:"secondaryLabel,omitempty"`
	State          *string   `json:"state,omitempty"`
	PostalCodes    []string  `json:"postalCodes"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
