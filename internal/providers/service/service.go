// Package service provides business logic for the provider directory.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"leadmarket_backend/internal/audit"
	"leadmarket_backend/internal/providers/repository"
	"leadmarket_backend/internal/providers/transport"
	"leadmarket_backend/platform/apperr"
	"leadmarket_backend/platform/logger"
	"leadmarket_backend/platform/phone"
)

// Service provides business logic for providers.
type Service struct {
	repo        repository.Repository
	auditor     audit.Recorder
	log         *logger.Logger
	phoneRegion string
}

// New creates a new provider service.
func New(repo repository.Repository, auditor audit.Recorder, phoneRegion string, log *logger.Logger) *Service {
	return &Service{repo: repo, auditor: auditor, phoneRegion: phoneRegion, log: log}
}

// GetByID retrieves a provider with memberships.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.ProviderResponse, error) {
	provider, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.ProviderResponse{}, err
	}
	return toResponse(provider), nil
}

// List retrieves all providers.
func (s *Service) List(ctx context.Context) (transport.ProviderListResponse, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return transport.ProviderListResponse{}, err
	}

	responses := make([]transport.ProviderResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, toResponse(item))
	}
	return transport.ProviderListResponse{Items: responses, Total: len(responses)}, nil
}

// ListEligible returns the providers a lead in the given zone and
// categories would be offered to. This is the directory query the
// distribution engine runs.
func (s *Service) ListEligible(ctx context.Context, zoneID uuid.UUID, categoryIDs []uuid.UUID) ([]repository.EligibleProvider, error) {
	if zoneID == uuid.Nil || len(categoryIDs) == 0 {
		return nil, apperr.Validation("zone and categories are required")
	}
	return s.repo.ListEligible(ctx, zoneID, categoryIDs)
}

// Create registers a new provider in pending_onboarding status.
func (s *Service) Create(ctx context.Context, actorID uuid.UUID, req transport.CreateProviderRequest) (transport.ProviderResponse, error) {
	provider, err := s.repo.Create(ctx, repository.CreateParams{
		Name:  strings.TrimSpace(req.Name),
		Email: strings.ToLower(strings.TrimSpace(req.Email)),
		Phone: phone.NormalizeE164(req.Phone, s.phoneRegion),
	})
	if err != nil {
		return transport.ProviderResponse{}, err
	}

	s.auditor.Record(ctx, audit.Entry{
		Action:     "provider.created",
		EntityType: "provider",
		EntityID:   provider.ID.String(),
		ActorID:    &actorID,
		Metadata:   map[string]any{"name": provider.Name},
	})

	return toResponse(provider), nil
}

// Activate makes a provider eligible for distribution. Requires a payment
// account on file so an accepted lead can actually be charged.
func (s *Service) Activate(ctx context.Context, actorID uuid.UUID, id uuid.UUID) error {
	provider, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if provider.PaymentAccount == nil || *provider.PaymentAccount == "" {
		return apperr.PreconditionFailed("provider has no payment account on file")
	}

	if err := s.repo.SetStatus(ctx, id, repository.StatusActive); err != nil {
		return err
	}

	s.auditor.Record(ctx, audit.Entry{
		Action:     "provider.activated",
		EntityType: "provider",
		EntityID:   id.String(),
		ActorID:    &actorID,
	})
	return nil
}

// Deactivate removes a provider from distribution. Existing distribution
// records keep their lifecycle.
func (s *Service) Deactivate(ctx context.Context, actorID uuid.UUID, id uuid.UUID) error {
	if err := s.repo.SetStatus(ctx, id, repository.StatusInactive); err != nil {
		return err
	}

	s.auditor.Record(ctx, audit.Entry{
		Action:     "provider.deactivated",
		EntityType: "provider",
		EntityID:   id.String(),
		ActorID:    &actorID,
	})
	return nil
}

// SetZones replaces the provider's zone memberships.
func (s *Service) SetZones(ctx context.Context, actorID uuid.UUID, id uuid.UUID, zoneIDs []uuid.UUID) error {
	if err := s.repo.SetZones(ctx, id, zoneIDs); err != nil {
		return err
	}

	s.auditor.Record(ctx, audit.Entry{
		Action:     "provider.zones_updated",
		EntityType: "provider",
		EntityID:   id.String(),
		ActorID:    &actorID,
		Metadata:   map[string]any{"count": len(zoneIDs)},
	})
	return nil
}

// SetCategories replaces the provider's category memberships.
func (s *Service) SetCategories(ctx context.Context, actorID uuid.UUID, id uuid.UUID, categoryIDs []uuid.UUID) error {
	if err := s.repo.SetCategories(ctx, id, categoryIDs); err != nil {
		return err
	}

	s.auditor.Record(ctx, audit.Entry{
		Action:     "provider.categories_updated",
		EntityType: "provider",
		EntityID:   id.String(),
		ActorID:    &actorID,
		Metadata:   map[string]any{"count": len(categoryIDs)},
	})
	return nil
}

// SetPaymentAccount stores the provider's payment method reference.
func (s *Service) SetPaymentAccount(ctx context.Context, actorID uuid.UUID, id uuid.UUID, account string) error {
	if err := s.repo.SetPaymentAccount(ctx, id, strings.TrimSpace(account)); err != nil {
		return err
	}

	s.auditor.Record(ctx, audit.Entry{
		Action:     "provider.payment_account_updated",
		EntityType: "provider",
		EntityID:   id.String(),
		ActorID:    &actorID,
	})
	return nil
}

func toResponse(provider repository.Provider) transport.ProviderResponse {
	return transport.ProviderResponse{
		ID:          provider.ID,
		Name:        provider.Name,
		Email:       provider.Email,
		Phone:       provider.Phone,
		Status:      string(provider.Status),
		HasPayment:  provider.PaymentAccount != nil && *provider.PaymentAccount != "",
		ZoneIDs:     provider.ZoneIDs,
		CategoryIDs: provider.CategoryIDs,
		CreatedAt:   provider.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   provider.UpdatedAt.Format(time.RFC3339),
	}
}
