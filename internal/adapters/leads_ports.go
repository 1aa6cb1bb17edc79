// Package adapters wires the narrow ports one bounded context consumes to
// the services of another. Modules never import each other directly; the
// composition root builds these bridges.
package adapters

import (
	"context"

	"github.com/google/uuid"

	billingrepo "leadmarket_backend/internal/billing/repository"
	billingsvc "leadmarket_backend/internal/billing/service"
	catalogsvc "leadmarket_backend/internal/catalog/service"
	geosvc "leadmarket_backend/internal/geo/service"
	"leadmarket_backend/internal/leads/ports"
	providersvc "leadmarket_backend/internal/providers/service"
)

// LeadZoneResolver adapts the geo service to the leads ZoneResolver port.
type LeadZoneResolver struct {
	geo *geosvc.Service
}

func NewLeadZoneResolver(geo *geosvc.Service) *LeadZoneResolver {
	return &LeadZoneResolver{geo: geo}
}

func (a *LeadZoneResolver) Resolve(ctx context.Context, postalCode, countryISO string) (ports.ZoneMatch, error) {
	match, err := a.geo.Resolve(ctx, postalCode, countryISO)
	if err != nil {
		return ports.ZoneMatch{}, err
	}
	return ports.ZoneMatch{
		ZoneID:      match.ZoneID,
		Name:        match.Name,
		CountryCode: match.CountryCode,
	}, nil
}

var _ ports.ZoneResolver = (*LeadZoneResolver)(nil)

// LeadCategoryChecker adapts the catalog service to the leads
// CategoryChecker port.
type LeadCategoryChecker struct {
	catalog *catalogsvc.Service
}

func NewLeadCategoryChecker(catalog *catalogsvc.Service) *LeadCategoryChecker {
	return &LeadCategoryChecker{catalog: catalog}
}

func (a *LeadCategoryChecker) ExistAll(ctx context.Context, ids []uuid.UUID) (bool, error) {
	return a.catalog.ExistAll(ctx, ids)
}

var _ ports.CategoryChecker = (*LeadCategoryChecker)(nil)

// LeadProviderDirectory adapts the providers service to the leads
// ProviderDirectory port.
type LeadProviderDirectory struct {
	providers *providersvc.Service
}

func NewLeadProviderDirectory(providers *providersvc.Service) *LeadProviderDirectory {
	return &LeadProviderDirectory{providers: providers}
}

func (a *LeadProviderDirectory) ListEligible(ctx context.Context, zoneID uuid.UUID, categoryIDs []uuid.UUID) ([]ports.EligibleProvider, error) {
	eligible, err := a.providers.ListEligible(ctx, zoneID, categoryIDs)
	if err != nil {
		return nil, err
	}
	out := make([]ports.EligibleProvider, 0, len(eligible))
	for _, p := range eligible {
		out = append(out, ports.EligibleProvider{ID: p.ID, Name: p.Name, Email: p.Email})
	}
	return out, nil
}

var _ ports.ProviderDirectory = (*LeadProviderDirectory)(nil)

// LeadChargeProcessor adapts the billing service to the leads
// ChargeProcessor port. A declined charge produced a terminal failed
// transaction; that is reported as an error to the accept flow, which
// records it without reversing the acceptance.
type LeadChargeProcessor struct {
	billing *billingsvc.Service
}

func NewLeadChargeProcessor(billing *billingsvc.Service) *LeadChargeProcessor {
	return &LeadChargeProcessor{billing: billing}
}

func (a *LeadChargeProcessor) ChargeForLead(ctx context.Context, providerID, leadID uuid.UUID) error {
	tx, err := a.billing.Charge(ctx, providerID, leadID)
	if err != nil {
		return err
	}
	if tx.Status != billingrepo.StatusCompleted {
		return &ChargeNotSettledError{Status: string(tx.Status), Reason: tx.FailureReason}
	}
	return nil
}

var _ ports.ChargeProcessor = (*LeadChargeProcessor)(nil)

// ChargeNotSettledError reports a charge that produced a transaction in a
// non-completed state.
type ChargeNotSettledError struct {
	Status string
	Reason string
}

func (e *ChargeNotSettledError) Error() string {
	if e.Reason == "" {
		return "charge did not settle, transaction is " + e.Status
	}
	return "charge did not settle, transaction is " + e.Status + ": " + e.Reason
}
