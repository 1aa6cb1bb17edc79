package notification

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"

	"leadmarket_backend/internal/notification/outbox"
	"leadmarket_backend/internal/notification/sink"
	"leadmarket_backend/platform/logger"
)

type testSender struct {
	offerCalls   int
	receiptCalls int

	lastRecipient  string
	lastRespondURL string
}

func (s *testSender) SendLeadOfferEmail(_ context.Context, toEmail, _, _, _, respondURL string) error {
	s.offerCalls++
	s.lastRecipient = toEmail
	s.lastRespondURL = respondURL
	return nil
}

func (s *testSender) SendChargeReceiptEmail(_ context.Context, toEmail string, _ string, _ int64, _ string) error {
	s.receiptCalls++
	s.lastRecipient = toEmail
	return nil
}

type testSink struct {
	events []sink.Event
}

func (s *testSink) Send(_ context.Context, event sink.Event) error {
	s.events = append(s.events, event)
	return nil
}

func newTestModule(sender *testSender, snk *testSink) *Module {
	return &Module{
		emails:  sender,
		sink:    snk,
		baseURL: "https://leads.example.com",
		log:     logger.New("test"),
	}
}

func mustMarshal(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return raw
}

func TestDeliver_ProviderEmail(t *testing.T) {
	sender := &testSender{}
	m := newTestModule(sender, &testSink{})

	rec := outbox.Record{
		ID:        uuid.New(),
		Kind:      outbox.KindProviderEmail,
		Recipient: "post@raskbygg.example",
		Payload: mustMarshal(t, offerEmailPayload{
			ProviderName: "Rask Bygg AS",
			ZoneName:     "Frogner",
			PostalCode:   "0150",
			RespondURL:   "https://leads.example.com/api/v1/lead-responses/abc",
		}),
	}

	if err := m.deliver(context.Background(), rec); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if sender.offerCalls != 1 {
		t.Fatalf("expected 1 offer email, got %d", sender.offerCalls)
	}
	if sender.lastRecipient != "post@raskbygg.example" {
		t.Fatalf("wrong recipient %q", sender.lastRecipient)
	}
	if sender.lastRespondURL != "https://leads.example.com/api/v1/lead-responses/abc" {
		t.Fatalf("wrong respond URL %q", sender.lastRespondURL)
	}
}

func TestDeliver_ReceiptEmail(t *testing.T) {
	sender := &testSender{}
	m := newTestModule(sender, &testSink{})

	rec := outbox.Record{
		ID:        uuid.New(),
		Kind:      outbox.KindReceiptEmail,
		Recipient: "post@raskbygg.example",
		Payload: mustMarshal(t, receiptEmailPayload{
			ProviderName: "Rask Bygg AS",
			AmountCents:  49000,
			Currency:     "NOK",
		}),
	}

	if err := m.deliver(context.Background(), rec); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if sender.receiptCalls != 1 {
		t.Fatalf("expected 1 receipt email, got %d", sender.receiptCalls)
	}
}

func TestDeliver_SinkEvent(t *testing.T) {
	snk := &testSink{}
	m := newTestModule(&testSender{}, snk)

	rec := outbox.Record{
		ID:   uuid.New(),
		Kind: outbox.KindSinkEvent,
		Payload: mustMarshal(t, sink.Event{
			Title:    "Lead offered to provider",
			Severity: sink.SeverityInfo,
			Fields:   map[string]string{"postal_code": "0150"},
		}),
	}

	if err := m.deliver(context.Background(), rec); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if len(snk.events) != 1 || snk.events[0].Title != "Lead offered to provider" {
		t.Fatalf("expected sink event delivered, got %+v", snk.events)
	}
}

func TestDeliver_UnknownKind(t *testing.T) {
	m := newTestModule(&testSender{}, &testSink{})

	rec := outbox.Record{ID: uuid.New(), Kind: "carrier_pigeon", Payload: json.RawMessage(`{}`)}
	if err := m.deliver(context.Background(), rec); err == nil {
		t.Fatal("expected error for unknown outbox kind")
	}
}

func TestDeliver_MalformedPayload(t *testing.T) {
	sender := &testSender{}
	m := newTestModule(sender, &testSink{})

	rec := outbox.Record{
		ID:      uuid.New(),
		Kind:    outbox.KindProviderEmail,
		Payload: json.RawMessage(`{broken`),
	}
	if err := m.deliver(context.Background(), rec); err == nil {
		t.Fatal("expected decode error")
	}
	if sender.offerCalls != 0 {
		t.Fatal("no email may go out for a payload that does not decode")
	}
}
