// Package service implements lead intake, distribution fan-out and the
// provider response tracker.
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"leadmarket_backend/internal/audit"
	"leadmarket_backend/internal/events"
	"leadmarket_backend/internal/leads/ports"
	"leadmarket_backend/internal/leads/repository"
	"leadmarket_backend/platform/apperr"
	"leadmarket_backend/platform/logger"
	"leadmarket_backend/platform/phone"
)

// CreateLeadInput carries the validated intake payload.
type CreateLeadInput struct {
	PostalCode   string
	CountryISO   string
	ContactName  string
	ContactEmail string
	ContactPhone string
	Description  string
	CategoryIDs  []uuid.UUID
}

type Service struct {
	repo        repository.Repository
	zones       ports.ZoneResolver
	categories  ports.CategoryChecker
	directory   ports.ProviderDirectory
	charger     ports.ChargeProcessor
	bus         events.Bus
	auditor     audit.Recorder
	phoneRegion string
	log         *logger.Logger
}

func New(
	repo repository.Repository,
	zones ports.ZoneResolver,
	categories ports.CategoryChecker,
	directory ports.ProviderDirectory,
	charger ports.ChargeProcessor,
	bus events.Bus,
	auditor audit.Recorder,
	phoneRegion string,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:        repo,
		zones:       zones,
		categories:  categories,
		directory:   directory,
		charger:     charger,
		bus:         bus,
		auditor:     auditor,
		phoneRegion: phoneRegion,
		log:         log,
	}
}

// Create resolves the zone for the submitted postal code and stores the
// lead. A postal code no zone serves is a normal negative outcome and
// surfaces as NotFound, not as a server fault.
func (s *Service) Create(ctx context.Context, input CreateLeadInput) (repository.Lead, error) {
	categoryIDs := dedupeIDs(input.CategoryIDs)
	if len(categoryIDs) == 0 {
		return repository.Lead{}, apperr.Validation("at least one category is required")
	}
	ok, err := s.categories.ExistAll(ctx, categoryIDs)
	if err != nil {
		return repository.Lead{}, fmt.Errorf("check categories: %w", err)
	}
	if !ok {
		return repository.Lead{}, apperr.Validation("one or more categories are unknown or inactive")
	}

	match, err := s.zones.Resolve(ctx, input.PostalCode, input.CountryISO)
	if err != nil {
		return repository.Lead{}, err
	}

	lead, err := s.repo.CreateLead(ctx, repository.CreateLeadParams{
		ZoneID:       match.ZoneID,
		PostalCode:   normalizePostal(input.PostalCode),
		ContactName:  strings.TrimSpace(input.ContactName),
		ContactEmail: strings.ToLower(strings.TrimSpace(input.ContactEmail)),
		ContactPhone: phone.NormalizeE164(input.ContactPhone, s.phoneRegion),
		Description:  strings.TrimSpace(input.Description),
		CategoryIDs:  categoryIDs,
	})
	if err != nil {
		return repository.Lead{}, err
	}

	s.bus.Publish(ctx, events.LeadCreated{
		BaseEvent:   events.NewBaseEvent(),
		LeadID:      lead.ID,
		ZoneID:      lead.ZoneID,
		PostalCode:  lead.PostalCode,
		CategoryIDs: lead.CategoryIDs,
	})
	s.auditor.Record(ctx, audit.Entry{
		Action:     "lead.created",
		EntityType: "lead",
		EntityID:   lead.ID.String(),
		Metadata: map[string]any{
			"zone_id":     lead.ZoneID.String(),
			"postal_code": lead.PostalCode,
		},
	})
	return lead, nil
}

// Distribute fans a lead out to every eligible provider. The repository
// performs matching and offer creation in one transaction, so calling this
// again only fills in providers that became eligible since the last run.
func (s *Service) Distribute(ctx context.Context, leadID uuid.UUID, actorID uuid.UUID) (repository.DistributionResult, error) {
	result, err := s.repo.Distribute(ctx, leadID)
	if err != nil {
		return repository.DistributionResult{}, err
	}

	if len(result.Offers) == 0 {
		s.log.Warn("lead distribution matched no new providers",
			"lead_id", leadID, "zone_id", result.Lead.ZoneID)
	}

	s.bus.Publish(ctx, events.LeadDistributed{
		BaseEvent:     events.NewBaseEvent(),
		LeadID:        leadID,
		ZoneID:        result.Lead.ZoneID,
		ProviderCount: len(result.Offers),
	})
	for _, offer := range result.Offers {
		s.bus.Publish(ctx, events.LeadOffered{
			BaseEvent:      events.NewBaseEvent(),
			LeadProviderID: offer.ID,
			LeadID:         offer.LeadID,
			ProviderID:     offer.ProviderID,
			ProviderName:   offer.ProviderName,
			ProviderEmail:  offer.ProviderEmail,
			ZoneName:       result.Lead.ZoneName,
			PostalCode:     result.Lead.PostalCode,
			SentAt:         offer.SentAt,
		})
	}
	entry := audit.Entry{
		Action:     "lead.distributed",
		EntityType: "lead",
		EntityID:   leadID.String(),
		Metadata:   map[string]any{"provider_count": len(result.Offers)},
	}
	if actorID != uuid.Nil {
		entry.ActorID = &actorID
	}
	s.auditor.Record(ctx, entry)
	return result, nil
}

// RespondResult is the outcome of a Respond call. ChargeErr carries a
// failed charge attempt on accept; the response state itself stands.
type RespondResult struct {
	Offer     repository.Offer
	ChargeErr error
}

// Respond records a provider's decision on an offer. The repository update
// is a compare-and-set, so only the first response per offer wins. An
// accepted offer triggers the lead charge synchronously; a charge failure
// does not undo the acceptance, billing keeps its own record of the
// attempt and the failure is reported alongside the offer.
func (s *Service) Respond(ctx context.Context, offerID uuid.UUID, decision repository.Decision) (RespondResult, error) {
	offer, err := s.repo.Respond(ctx, offerID, decision)
	if err != nil {
		return RespondResult{}, err
	}

	var chargeErr error
	if decision == repository.DecisionAccepted {
		if chargeErr = s.charger.ChargeForLead(ctx, offer.ProviderID, offer.LeadID); chargeErr != nil {
			s.log.Error("lead charge failed after acceptance",
				"offer_id", offer.ID, "provider_id", offer.ProviderID,
				"lead_id", offer.LeadID, "error", chargeErr)
			s.auditor.Record(ctx, audit.Entry{
				Action:     "lead.charge_failed",
				EntityType: "lead_provider",
				EntityID:   offer.ID.String(),
				Metadata: map[string]any{
					"provider_id": offer.ProviderID.String(),
					"lead_id":     offer.LeadID.String(),
					"error":       chargeErr.Error(),
				},
			})
		}
	}

	respondedAt := offer.SentAt
	if offer.RespondedAt != nil {
		respondedAt = *offer.RespondedAt
	}
	s.bus.Publish(ctx, events.LeadProviderResponded{
		BaseEvent:      events.NewBaseEvent(),
		LeadProviderID: offer.ID,
		LeadID:         offer.LeadID,
		ProviderID:     offer.ProviderID,
		Decision:       string(decision),
		RespondedAt:    respondedAt,
	})
	s.auditor.Record(ctx, audit.Entry{
		Action:     "lead.responded",
		EntityType: "lead_provider",
		EntityID:   offer.ID.String(),
		Metadata: map[string]any{
			"lead_id":     offer.LeadID.String(),
			"provider_id": offer.ProviderID.String(),
			"decision":    string(decision),
		},
	})
	return RespondResult{Offer: offer, ChargeErr: chargeErr}, nil
}

// Close ends a lead's lifecycle. Offers already sent stay answerable;
// closing only stops future distribution runs.
func (s *Service) Close(ctx context.Context, id uuid.UUID, actorID uuid.UUID) (repository.Lead, error) {
	lead, err := s.repo.CloseLead(ctx, id)
	if err != nil {
		return repository.Lead{}, err
	}
	s.auditor.Record(ctx, audit.Entry{
		Action:     "lead.closed",
		EntityType: "lead",
		EntityID:   id.String(),
		ActorID:    &actorID,
	})
	return lead, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (repository.Lead, error) {
	return s.repo.GetLead(ctx, id)
}

func (s *Service) List(ctx context.Context, status repository.LeadStatus, limit, offset int) ([]repository.Lead, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListLeads(ctx, status, limit, offset)
}

func (s *Service) ListOffers(ctx context.Context, leadID uuid.UUID) ([]repository.OfferWithProvider, error) {
	if _, err := s.repo.GetLead(ctx, leadID); err != nil {
		return nil, err
	}
	return s.repo.ListOffers(ctx, leadID)
}

// PreviewEligible lists the providers a distribution run would reach right
// now, without creating offers.
func (s *Service) PreviewEligible(ctx context.Context, leadID uuid.UUID) ([]ports.EligibleProvider, error) {
	lead, err := s.repo.GetLead(ctx, leadID)
	if err != nil {
		return nil, err
	}
	return s.directory.ListEligible(ctx, lead.ZoneID, lead.CategoryIDs)
}

func normalizePostal(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// dedupeIDs drops repeated IDs while keeping first-seen order. Intake
// payloads may repeat a category; the stored set and the existence check
// both want each ID once.
func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
