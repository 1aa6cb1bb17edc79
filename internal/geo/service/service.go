// Package service implements zone resolution on top of the geo repository.
package service

import (
	"context"
	"strings"

	"leadmarket_backend/internal/audit"
	"leadmarket_backend/internal/geo/repository"
	"leadmarket_backend/internal/geo/transport"
	"leadmarket_backend/platform/apperr"
	"leadmarket_backend/platform/logger"

	"github.com/google/uuid"
)

// MatchCache is the read-through cache port for postal code resolution.
// Implementations must treat cache failures as misses.
type MatchCache interface {
	Get(ctx context.Context, countryISO, postalCode string) (repository.ZoneMatch, bool)
	Set(ctx context.Context, countryISO, postalCode string, match repository.ZoneMatch)
	Invalidate(ctx context.Context, countryISO string, postalCodes []string)
}

// Service provides zone resolution and administrative zone editing.
type Service struct {
	repo    repository.Repository
	cache   MatchCache
	auditor audit.Recorder
	log     *logger.Logger
}

// New creates a new geo service.
func New(repo repository.Repository, cache MatchCache, auditor audit.Recorder, log *logger.Logger) *Service {
	if cache == nil {
		cache = NoopCache{}
	}
	return &Service{repo: repo, cache: cache, auditor: auditor, log: log}
}

// NormalizePostalCode applies the normalization documented as part of the
// zone data load contract: trim surrounding whitespace and upper-case.
// Loaded codes and resolver inputs pass through the same function so
// matching stays an exact string comparison.
func NormalizePostalCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Resolve maps a postal code plus optional country hint to a zone.
// A miss is an expected outcome (service not available in the area) and
// surfaces as a NotFound, never as an internal failure.
func (s *Service) Resolve(ctx context.Context, postalCode, countryISO string) (transport.ZoneMatchResponse, error) {
	code := NormalizePostalCode(postalCode)
	if code == "" {
		return transport.ZoneMatchResponse{}, apperr.Validation("postal code is required")
	}
	country := strings.ToUpper(strings.TrimSpace(countryISO))
	if country == "" {
		// The no-hint path is deprecated: the same code can exist in more
		// than one country and resolution is then order-dependent.
		s.log.Warn("postal code resolved without country hint", "postal_code", code)
	}

	if match, ok := s.cache.Get(ctx, country, code); ok {
		return toMatchResponse(match), nil
	}

	match, err := s.repo.ResolvePostalCode(ctx, code, country)
	if err != nil {
		return transport.ZoneMatchResponse{}, err
	}

	s.cache.Set(ctx, country, code, match)
	return toMatchResponse(match), nil
}

// GetZone retrieves a zone with its postal code set.
func (s *Service) GetZone(ctx context.Context, id uuid.UUID) (transport.ZoneResponse, error) {
	zone, err := s.repo.GetZone(ctx, id)
	if err != nil {
		return transport.ZoneResponse{}, err
	}
	return toZoneResponse(zone), nil
}

// UpdatePostalCodes replaces a zone's postal code set under optimistic
// concurrency, records the edit, and invalidates affected cache entries.
func (s *Service) UpdatePostalCodes(ctx context.Context, actorID uuid.UUID, req transport.UpdatePostalCodesRequest) (transport.ZoneResponse, error) {
	before, err := s.repo.GetZone(ctx, req.ZoneID)
	if err != nil {
		return transport.ZoneResponse{}, err
	}

	codes := make([]string, 0, len(req.PostalCodes))
	seen := make(map[string]struct{}, len(req.PostalCodes))
	for _, raw := range req.PostalCodes {
		code := NormalizePostalCode(raw)
		if code == "" {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	if len(codes) == 0 {
		return transport.ZoneResponse{}, apperr.Validation("at least one postal code is required")
	}

	zone, err := s.repo.UpdatePostalCodes(ctx, repository.UpdatePostalCodesParams{
		ZoneID:            req.ZoneID,
		PostalCodes:       codes,
		ExpectedUpdatedAt: req.ExpectedUpdatedAt,
	})
	if err != nil {
		return transport.ZoneResponse{}, err
	}

	s.auditor.Record(ctx, audit.Entry{
		Action:     "zone.postal_codes_updated",
		EntityType: "zone",
		EntityID:   zone.ID.String(),
		ActorID:    &actorID,
		Metadata: map[string]any{
			"countBefore": len(before.PostalCodes),
			"countAfter":  len(zone.PostalCodes),
		},
	})

	// Every code that was or is now in the zone may be cached, for the
	// zone's country and for the deprecated no-hint key.
	affected := append(append([]string{}, before.PostalCodes...), codes...)
	s.cache.Invalidate(ctx, zone.CountryISO, affected)
	s.cache.Invalidate(ctx, "", affected)

	return toZoneResponse(zone), nil
}

func toMatchResponse(match repository.ZoneMatch) transport.ZoneMatchResponse {
	return transport.ZoneMatchResponse{
		ZoneID:         match.ZoneID,
		Name:           match.Name,
		CountryCode:    match.CountryCode,
		SecondaryLabel: match.SecondaryLabel,
	}
}

func toZoneResponse(zone repository.Zone) transport.ZoneResponse {
	return transport.ZoneResponse{
		ID:             zone.ID,
		CountryCode:    zone.CountryISO,
		Name:           zone.Name,
		Kind:           string(zone.Kind),
		SecondaryLabel: zone.SecondaryLabel,
		State:          zone.State,
		PostalCodes:    zone.PostalCodes,
		UpdatedAt:      zone.UpdatedAt,
	}
}
