// Package notification turns domain events into provider emails and webhook
// sink events. Domain modules publish events and move on; everything here is
// best-effort and failures never reach the operation that caused them.
//
// Delivery is two-phase: event handlers only insert outbox rows, and the
// scheduler worker claims due rows and dispatches them. A crash between the
// two phases loses nothing.
package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"leadmarket_backend/internal/events"
	"leadmarket_backend/internal/notification/email"
	"leadmarket_backend/internal/notification/outbox"
	"leadmarket_backend/internal/notification/sink"
	"leadmarket_backend/platform/config"
	"leadmarket_backend/platform/logger"
)

const dispatchConcurrency = 8

type offerEmailPayload struct {
	ProviderName string `json:"providerName"`
	ZoneName     string `json:"zoneName"`
	PostalCode   string `json:"postalCode"`
	RespondURL   string `json:"respondUrl"`
}

type receiptEmailPayload struct {
	ProviderName string `json:"providerName"`
	AmountCents  int64  `json:"amountCents"`
	Currency     string `json:"currency"`
}

// Module owns the notification outbox and its delivery channels.
type Module struct {
	outbox  *outbox.Repository
	emails  email.Sender
	sink    sink.Sink
	baseURL string
	log     *logger.Logger
}

// NewModule creates the notification module.
func NewModule(pool *pgxpool.Pool, emails email.Sender, snk sink.Sink, cfg config.LinkConfig, log *logger.Logger) *Module {
	return &Module{
		outbox:  outbox.New(pool),
		emails:  emails,
		sink:    snk,
		baseURL: cfg.GetPublicBaseURL(),
		log:     log,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "notification"
}

// Outbox exposes the outbox repository to the scheduler worker.
func (m *Module) Outbox() *outbox.Repository {
	return m.outbox
}

// Subscribe registers the module's event handlers on the bus.
func (m *Module) Subscribe(bus events.Bus) {
	bus.Subscribe(events.LeadOffered{}.EventName(), events.HandlerFunc(m.onLeadOffered))
	bus.Subscribe(events.LeadProviderResponded{}.EventName(), events.HandlerFunc(m.onProviderResponded))
	bus.Subscribe(events.TransactionCompleted{}.EventName(), events.HandlerFunc(m.onTransactionCompleted))
	bus.Subscribe(events.NotificationOutboxDue{}.EventName(), events.HandlerFunc(m.onOutboxDue))
}

func (m *Module) onOutboxDue(ctx context.Context, event events.Event) error {
	e, ok := event.(events.NotificationOutboxDue)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	m.Dispatch(ctx, e.OutboxID)
	return nil
}

func (m *Module) onLeadOffered(ctx context.Context, event events.Event) error {
	e, ok := event.(events.LeadOffered)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}

	if _, err := m.outbox.Insert(ctx, outbox.InsertParams{
		Kind:      outbox.KindProviderEmail,
		Recipient: e.ProviderEmail,
		Payload: offerEmailPayload{
			ProviderName: e.ProviderName,
			ZoneName:     e.ZoneName,
			PostalCode:   e.PostalCode,
			RespondURL:   fmt.Sprintf("%s/api/v1/lead-responses/%s", m.baseURL, e.LeadProviderID),
		},
	}); err != nil {
		m.log.Error("enqueue offer email failed", "lead_provider_id", e.LeadProviderID, "error", err)
	}

	if _, err := m.outbox.Insert(ctx, outbox.InsertParams{
		Kind: outbox.KindSinkEvent,
		Payload: sink.Event{
			Title:    "Lead offered to provider",
			Severity: sink.SeverityInfo,
			Fields: map[string]string{
				"lead_id":     e.LeadID.String(),
				"provider_id": e.ProviderID.String(),
				"zone":        e.ZoneName,
				"postal_code": e.PostalCode,
			},
		},
	}); err != nil {
		m.log.Error("enqueue sink event failed", "lead_id", e.LeadID, "error", err)
	}
	return nil
}

func (m *Module) onProviderResponded(ctx context.Context, event events.Event) error {
	e, ok := event.(events.LeadProviderResponded)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}

	_, err := m.outbox.Insert(ctx, outbox.InsertParams{
		Kind: outbox.KindSinkEvent,
		Payload: sink.Event{
			Title:    "Provider responded to lead",
			Severity: sink.SeverityInfo,
			Fields: map[string]string{
				"lead_id":     e.LeadID.String(),
				"provider_id": e.ProviderID.String(),
				"decision":    e.Decision,
			},
		},
	})
	if err != nil {
		m.log.Error("enqueue sink event failed", "lead_id", e.LeadID, "error", err)
	}
	return nil
}

func (m *Module) onTransactionCompleted(ctx context.Context, event events.Event) error {
	e, ok := event.(events.TransactionCompleted)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}

	if e.ProviderEmail != "" {
		if _, err := m.outbox.Insert(ctx, outbox.InsertParams{
			Kind:      outbox.KindReceiptEmail,
			Recipient: e.ProviderEmail,
			Payload: receiptEmailPayload{
				ProviderName: e.ProviderName,
				AmountCents:  e.AmountCents,
				Currency:     e.Currency,
			},
		}); err != nil {
			m.log.Error("enqueue receipt email failed", "transaction_id", e.TransactionID, "error", err)
		}
	}

	_, err := m.outbox.Insert(ctx, outbox.InsertParams{
		Kind: outbox.KindSinkEvent,
		Payload: sink.Event{
			Title:    "Lead charge completed",
			Severity: sink.SeverityInfo,
			Fields: map[string]string{
				"transaction_id": e.TransactionID.String(),
				"provider_id":    e.ProviderID.String(),
				"lead_id":        e.LeadID.String(),
				"amount_cents":   fmt.Sprintf("%d", e.AmountCents),
				"currency":       e.Currency,
				"payment_ref":    e.PaymentRef,
			},
		},
	})
	if err != nil {
		m.log.Error("enqueue sink event failed", "transaction_id", e.TransactionID, "error", err)
	}
	return nil
}

// Dispatch delivers a single claimed outbox record. Called by the scheduler
// worker; a failure marks the row failed and is not returned, keeping
// delivery best-effort end to end.
func (m *Module) Dispatch(ctx context.Context, id uuid.UUID) {
	rec, err := m.outbox.GetByID(ctx, id)
	if err != nil {
		m.log.Error("load outbox record failed", "outbox_id", id, "error", err)
		return
	}
	if rec.Status == outbox.StatusSucceeded {
		return
	}
	if err := m.outbox.MarkProcessing(ctx, rec.ID); err != nil {
		m.log.Error("mark outbox processing failed", "outbox_id", id, "error", err)
		return
	}

	if err := m.deliver(ctx, rec); err != nil {
		m.log.Error("notification delivery failed",
			"outbox_id", rec.ID, "kind", rec.Kind, "error", err)
		if markErr := m.outbox.MarkFailed(ctx, rec.ID, err.Error()); markErr != nil {
			m.log.Error("mark outbox failed failed", "outbox_id", rec.ID, "error", markErr)
		}
		return
	}
	if err := m.outbox.MarkSucceeded(ctx, rec.ID); err != nil {
		m.log.Error("mark outbox succeeded failed", "outbox_id", rec.ID, "error", err)
	}
}

// DispatchDue claims every due outbox row and delivers them with bounded
// concurrency. Used both by the periodic worker sweep and at worker start.
func (m *Module) DispatchDue(ctx context.Context, limit int) error {
	records, err := m.outbox.ClaimPending(ctx, limit)
	if err != nil {
		return fmt.Errorf("claim pending notifications: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(dispatchConcurrency)
	for _, rec := range records {
		g.Go(func() error {
			m.Dispatch(gctx, rec.ID)
			return nil
		})
	}
	return g.Wait()
}

func (m *Module) deliver(ctx context.Context, rec outbox.Record) error {
	switch rec.Kind {
	case outbox.KindProviderEmail:
		var p offerEmailPayload
		if err := json.Unmarshal(rec.Payload, &p); err != nil {
			return fmt.Errorf("decode offer email payload: %w", err)
		}
		return m.emails.SendLeadOfferEmail(ctx, rec.Recipient, p.ProviderName, p.ZoneName, p.PostalCode, p.RespondURL)

	case outbox.KindReceiptEmail:
		var p receiptEmailPayload
		if err := json.Unmarshal(rec.Payload, &p); err != nil {
			return fmt.Errorf("decode receipt email payload: %w", err)
		}
		return m.emails.SendChargeReceiptEmail(ctx, rec.Recipient, p.ProviderName, p.AmountCents, p.Currency)

	case outbox.KindSinkEvent:
		var e sink.Event
		if err := json.Unmarshal(rec.Payload, &e); err != nil {
			return fmt.Errorf("decode sink event payload: %w", err)
		}
		return m.sink.Send(ctx, e)

	default:
		return fmt.Errorf("unknown outbox kind %q", rec.Kind)
	}
}
