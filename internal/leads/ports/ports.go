// Package ports declares the narrow interfaces the leads module consumes
// from other bounded contexts. Concrete implementations are wired in
// internal/adapters by the composition root.
package ports

import (
	"context"

	"github.com/google/uuid"
)

// ZoneMatch is the zone projection lead intake needs.
type ZoneMatch struct {
	ZoneID      uuid.UUID
	Name        string
	CountryCode string
}

// ZoneResolver maps a postal code plus country hint to a zone. A miss is
// returned as an apperr.NotFound, which intake surfaces as a normal
// negative result.
type ZoneResolver interface {
	Resolve(ctx context.Context, postalCode, countryISO string) (ZoneMatch, error)
}

// CategoryChecker verifies that requested category IDs refer to active
// categories.
type CategoryChecker interface {
	ExistAll(ctx context.Context, ids []uuid.UUID) (bool, error)
}

// EligibleProvider is a provider the directory deems eligible for a lead.
type EligibleProvider struct {
	ID    uuid.UUID
	Name  string
	Email string
}

// ProviderDirectory lists providers eligible for a zone and category set.
// The distribution fan-out itself runs the same predicate store-side inside
// its transaction; this port serves reads outside that boundary.
type ProviderDirectory interface {
	ListEligible(ctx context.Context, zoneID uuid.UUID, categoryIDs []uuid.UUID) ([]EligibleProvider, error)
}

// ChargeProcessor charges a provider for an accepted lead. Invoked by the
// response tracker as part of the accept operation.
type ChargeProcessor interface {
	ChargeForLead(ctx context.Context, providerID, leadID uuid.UUID) error
}
