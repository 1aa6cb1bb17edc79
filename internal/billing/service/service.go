// Package service implements the billing engine: charging providers for
// accepted leads and refunding settled charges.
package service

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/google/uuid"

	"leadmarket_backend/internal/audit"
	"leadmarket_backend/internal/billing/pricing"
	"leadmarket_backend/internal/billing/processor"
	"leadmarket_backend/internal/billing/repository"
	"leadmarket_backend/internal/events"
	"leadmarket_backend/platform/apperr"
	"leadmarket_backend/platform/logger"
)

type Service struct {
	repo    repository.Repository
	prices  *pricing.Book
	gateway processor.Processor
	bus     events.Bus
	auditor audit.Recorder
	log     *logger.Logger
}

func New(
	repo repository.Repository,
	prices *pricing.Book,
	gateway processor.Processor,
	bus events.Bus,
	auditor audit.Recorder,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:    repo,
		prices:  prices,
		gateway: gateway,
		bus:     bus,
		auditor: auditor,
		log:     log,
	}
}

// Charge bills a provider for one lead. At most one non-failed transaction
// per (provider, lead) pair can exist; the check here is advisory, the
// store's partial unique index is the guarantee. The returned transaction
// carries the outcome: completed, failed (declined), or pending when the
// gateway call timed out and the charge needs reconciliation.
func (s *Service) Charge(ctx context.Context, providerID, leadID uuid.UUID) (repository.Transaction, error) {
	cc, err := s.repo.ChargeContext(ctx, providerID, leadID)
	if err != nil {
		return repository.Transaction{}, err
	}

	if existing, found, err := s.repo.FindOpen(ctx, providerID, leadID); err != nil {
		return repository.Transaction{}, err
	} else if found {
		return repository.Transaction{}, apperr.Conflict(
			fmt.Sprintf("provider already has a %s transaction for this lead", existing.Status))
	}

	// Fail fast before any transaction exists.
	if cc.PaymentAccount == "" {
		return repository.Transaction{}, apperr.PreconditionFailed("provider has no payment method on file")
	}
	price, err := s.prices.PriceFor(cc.CountryISO)
	if err != nil {
		return repository.Transaction{}, err
	}
	if !cc.ProviderActive {
		s.log.Warn("charging provider that is no longer active",
			"provider_id", providerID, "lead_id", leadID)
	}

	tx, err := s.repo.CreatePending(ctx, providerID, leadID, price.AmountCents(), price.Currency)
	if err != nil {
		return repository.Transaction{}, err
	}

	result, err := s.gateway.Charge(ctx, processor.ChargeRequest{
		AccountRef:  cc.PaymentAccount,
		AmountCents: tx.AmountCents,
		Currency:    tx.Currency,
		Reference:   tx.ID.String(),
	})
	if err != nil {
		if isTimeout(err) {
			// Outcome unknown: the transaction stays pending until
			// reconciliation, never assumed completed.
			s.log.ExternalCallFailed("payment_processor", "charge", err)
			s.recordAttempt(ctx, tx, "billing.charge_timeout", map[string]any{"error": err.Error()})
			return tx, apperr.External("payment processor timed out, charge left pending", err)
		}
		failed, markErr := s.repo.MarkFailed(ctx, tx.ID, err.Error())
		if markErr != nil {
			return repository.Transaction{}, markErr
		}
		s.recordAttempt(ctx, failed, "billing.charge_failed", map[string]any{"error": err.Error()})
		return failed, apperr.External("payment processor call failed", err)
	}

	switch result.Outcome {
	case processor.OutcomeSucceeded:
		completed, err := s.repo.MarkCompleted(ctx, tx.ID, result.PaymentRef)
		if err != nil {
			return repository.Transaction{}, err
		}
		s.bus.Publish(ctx, events.TransactionCompleted{
			BaseEvent:     events.NewBaseEvent(),
			TransactionID: completed.ID,
			ProviderID:    providerID,
			ProviderName:  cc.ProviderName,
			ProviderEmail: cc.ProviderEmail,
			LeadID:        leadID,
			AmountCents:   completed.AmountCents,
			Currency:      completed.Currency,
			PaymentRef:    completed.PaymentRef,
		})
		s.recordAttempt(ctx, completed, "billing.charge_completed", map[string]any{
			"payment_ref": completed.PaymentRef,
		})
		return completed, nil

	default:
		reason := result.Reason
		if reason == "" {
			reason = string(result.Outcome)
		}
		failed, err := s.repo.MarkFailed(ctx, tx.ID, reason)
		if err != nil {
			return repository.Transaction{}, err
		}
		s.recordAttempt(ctx, failed, "billing.charge_failed", map[string]any{
			"outcome": string(result.Outcome),
			"reason":  reason,
		})
		return failed, nil
	}
}

// Refund reverses a settled charge. Only completed transactions are
// refundable; anything else is rejected before the gateway is called.
func (s *Service) Refund(ctx context.Context, transactionID uuid.UUID, actorID uuid.UUID) (repository.Transaction, error) {
	tx, err := s.repo.GetByID(ctx, transactionID)
	if err != nil {
		return repository.Transaction{}, err
	}
	if tx.Status != repository.StatusCompleted {
		return repository.Transaction{}, apperr.PreconditionFailed(
			fmt.Sprintf("only completed transactions can be refunded, this one is %s", tx.Status))
	}

	result, err := s.gateway.Refund(ctx, processor.RefundRequest{
		PaymentRef:  tx.PaymentRef,
		AmountCents: tx.AmountCents,
		Currency:    tx.Currency,
		Reference:   tx.ID.String(),
	})
	if err != nil {
		s.log.ExternalCallFailed("payment_processor", "refund", err)
		return repository.Transaction{}, apperr.External("payment processor refund failed", err)
	}

	refunded, err := s.repo.MarkRefunded(ctx, tx.ID, result.RefundRef)
	if err != nil {
		return repository.Transaction{}, err
	}
	s.bus.Publish(ctx, events.TransactionRefunded{
		BaseEvent:     events.NewBaseEvent(),
		TransactionID: refunded.ID,
		ProviderID:    refunded.ProviderID,
		LeadID:        refunded.LeadID,
		AmountCents:   refunded.AmountCents,
		Currency:      refunded.Currency,
		RefundRef:     refunded.RefundRef,
	})
	s.auditor.Record(ctx, audit.Entry{
		Action:     "billing.refunded",
		EntityType: "transaction",
		EntityID:   refunded.ID.String(),
		ActorID:    &actorID,
		Metadata: map[string]any{
			"provider_id": refunded.ProviderID.String(),
			"lead_id":     refunded.LeadID.String(),
			"refund_ref":  refunded.RefundRef,
		},
	})
	return refunded, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (repository.Transaction, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns transactions filtered by status, newest first. An empty
// status lists everything; the accounting feed asks for completed.
func (s *Service) List(ctx context.Context, status repository.Status, limit, offset int) ([]repository.Transaction, error) {
	limit, offset = clampPage(limit, offset)
	return s.repo.ListByStatus(ctx, status, limit, offset)
}

func (s *Service) ListByProvider(ctx context.Context, providerID uuid.UUID, limit, offset int) ([]repository.Transaction, error) {
	limit, offset = clampPage(limit, offset)
	return s.repo.ListByProvider(ctx, providerID, limit, offset)
}

func (s *Service) recordAttempt(ctx context.Context, tx repository.Transaction, action string, metadata map[string]any) {
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["provider_id"] = tx.ProviderID.String()
	metadata["lead_id"] = tx.LeadID.String()
	metadata["amount_cents"] = tx.AmountCents
	metadata["currency"] = tx.Currency
	s.auditor.Record(ctx, audit.Entry{
		Action:     action,
		EntityType: "transaction",
		EntityID:   tx.ID.String(),
		Metadata:   metadata,
	})
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
