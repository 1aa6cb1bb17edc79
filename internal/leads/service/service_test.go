package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"leadmarket_backend/internal/audit"
	"leadmarket_backend/internal/events"
	"leadmarket_backend/internal/leads/ports"
	"leadmarket_backend/internal/leads/repository"
	"leadmarket_backend/platform/apperr"
	"leadmarket_backend/platform/logger"
)

type stubRepo struct {
	createdWith *repository.CreateLeadParams
	lead        repository.Lead
	leadErr     error

	distribution    repository.DistributionResult
	distributionErr error

	offer      repository.Offer
	respondErr error
	decisions  []repository.Decision

	closed   repository.Lead
	closeErr error
}

func (r *stubRepo) GetLead(context.Context, uuid.UUID) (repository.Lead, error) {
	return r.lead, r.leadErr
}

func (r *stubRepo) GetOffer(context.Context, uuid.UUID) (repository.Offer, error) {
	return r.offer, nil
}

func (r *stubRepo) ListOffers(context.Context, uuid.UUID) ([]repository.OfferWithProvider, error) {
	return nil, nil
}

func (r *stubRepo) ListLeads(context.Context, repository.LeadStatus, int, int) ([]repository.Lead, error) {
	return nil, nil
}

func (r *stubRepo) CreateLead(_ context.Context, params repository.CreateLeadParams) (repository.Lead, error) {
	r.createdWith = &params
	lead := r.lead
	if lead.ID == uuid.Nil {
		lead.ID = uuid.New()
	}
	lead.ZoneID = params.ZoneID
	lead.PostalCode = params.PostalCode
	lead.ContactEmail = params.ContactEmail
	lead.ContactPhone = params.ContactPhone
	lead.Status = repository.LeadStatusNew
	lead.CategoryIDs = params.CategoryIDs
	return lead, nil
}

func (r *stubRepo) Distribute(context.Context, uuid.UUID) (repository.DistributionResult, error) {
	return r.distribution, r.distributionErr
}

func (r *stubRepo) Respond(_ context.Context, _ uuid.UUID, decision repository.Decision) (repository.Offer, error) {
	if r.respondErr != nil {
		return repository.Offer{}, r.respondErr
	}
	r.decisions = append(r.decisions, decision)
	offer := r.offer
	offer.Status = repository.OfferStatus(decision)
	now := time.Now()
	offer.RespondedAt = &now
	return offer, nil
}

func (r *stubRepo) CloseLead(context.Context, uuid.UUID) (repository.Lead, error) {
	return r.closed, r.closeErr
}

type stubZones struct {
	match ports.ZoneMatch
	err   error
	calls int
}

func (z *stubZones) Resolve(context.Context, string, string) (ports.ZoneMatch, error) {
	z.calls++
	return z.match, z.err
}

type stubCategories struct {
	exist   bool
	err     error
	checked []uuid.UUID
}

func (c *stubCategories) ExistAll(_ context.Context, ids []uuid.UUID) (bool, error) {
	c.checked = ids
	return c.exist, c.err
}

type stubDirectory struct {
	eligible []ports.EligibleProvider
}

func (d *stubDirectory) ListEligible(context.Context, uuid.UUID, []uuid.UUID) ([]ports.EligibleProvider, error) {
	return d.eligible, nil
}

type stubCharger struct {
	err   error
	calls int
}

func (c *stubCharger) ChargeForLead(context.Context, uuid.UUID, uuid.UUID) error {
	c.calls++
	return c.err
}

type noopAuditor struct{}

func (noopAuditor) Record(context.Context, audit.Entry) {}

// recordingBus captures published events synchronously so tests can assert
// on them without racing the async in-memory bus.
type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBus) PublishSync(ctx context.Context, event events.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func (b *recordingBus) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.events))
	for _, e := range b.events {
		out = append(out, e.EventName())
	}
	return out
}

type fixture struct {
	repo    *stubRepo
	zones   *stubZones
	charger *stubCharger
	bus     *recordingBus
	svc     *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:    &stubRepo{},
		zones:   &stubZones{match: ports.ZoneMatch{ZoneID: uuid.New(), Name: "Frogner", CountryCode: "NO"}},
		charger: &stubCharger{},
		bus:     &recordingBus{},
	}
	f.svc = New(
		f.repo,
		f.zones,
		&stubCategories{exist: true},
		&stubDirectory{},
		f.charger,
		f.bus,
		noopAuditor{},
		"NO",
		logger.New("test"),
	)
	return f
}

func validInput() CreateLeadInput {
	return CreateLeadInput{
		PostalCode:   " 0150 ",
		CountryISO:   "NO",
		ContactName:  "Kari Nordmann",
		ContactEmail: " Kari@Example.COM ",
		ContactPhone: "22 34 56 78",
		Description:  "leaking roof",
		CategoryIDs:  []uuid.UUID{uuid.New()},
	}
}

func TestCreate_NormalizesContactFields(t *testing.T) {
	f := newFixture(t)

	lead, err := f.svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if lead.ZoneID != f.zones.match.ZoneID {
		t.Fatalf("expected lead bound to resolved zone %s, got %s", f.zones.match.ZoneID, lead.ZoneID)
	}
	params := f.repo.createdWith
	if params == nil {
		t.Fatal("expected CreateLead to be called")
	}
	if params.PostalCode != "0150" {
		t.Fatalf("expected postal code trimmed to %q, got %q", "0150", params.PostalCode)
	}
	if params.ContactEmail != "kari@example.com" {
		t.Fatalf("expected lower-cased email, got %q", params.ContactEmail)
	}
	if params.ContactPhone != "+4722345678" {
		t.Fatalf("expected E.164 phone, got %q", params.ContactPhone)
	}
	if got := f.bus.names(); len(got) != 1 || got[0] != "lead.created" {
		t.Fatalf("expected a single lead.created event, got %v", got)
	}
}

func TestCreate_RequiresCategories(t *testing.T) {
	f := newFixture(t)
	input := validInput()
	input.CategoryIDs = nil

	_, err := f.svc.Create(context.Background(), input)
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if f.zones.calls != 0 {
		t.Fatal("zone resolution must not run for invalid input")
	}
}

func TestCreate_UnknownCategory(t *testing.T) {
	f := newFixture(t)
	f.svc.categories = &stubCategories{exist: false}

	_, err := f.svc.Create(context.Background(), validInput())
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("expected validation error for unknown category, got %v", err)
	}
}

func TestCreate_RepeatedCategoriesStoredOnce(t *testing.T) {
	f := newFixture(t)
	cats := &stubCategories{exist: true}
	f.svc.categories = cats

	id := uuid.New()
	input := validInput()
	input.CategoryIDs = []uuid.UUID{id, id}

	_, err := f.svc.Create(context.Background(), input)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(cats.checked) != 1 || cats.checked[0] != id {
		t.Fatalf("expected one unique category checked, got %v", cats.checked)
	}
	params := f.repo.createdWith
	if params == nil {
		t.Fatal("expected CreateLead to be called")
	}
	if len(params.CategoryIDs) != 1 || params.CategoryIDs[0] != id {
		t.Fatalf("expected one unique category stored, got %v", params.CategoryIDs)
	}
}

func TestCreate_UnservedPostalCode(t *testing.T) {
	f := newFixture(t)
	f.zones.err = apperr.NotFound("no zone serves postal code 9999")

	_, err := f.svc.Create(context.Background(), validInput())
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("expected NotFound passed through, got %v", err)
	}
	if f.repo.createdWith != nil {
		t.Fatal("no lead may be stored for an unserved postal code")
	}
}

func TestDistribute_PublishesOfferEvents(t *testing.T) {
	f := newFixture(t)
	leadID := uuid.New()
	f.repo.distribution = repository.DistributionResult{
		Lead: repository.Lead{ID: leadID, ZoneName: "Frogner", PostalCode: "0150"},
		Offers: []repository.OfferWithProvider{
			{Offer: repository.Offer{ID: uuid.New(), LeadID: leadID, ProviderID: uuid.New()}, ProviderName: "A", ProviderEmail: "a@example.com"},
			{Offer: repository.Offer{ID: uuid.New(), LeadID: leadID, ProviderID: uuid.New()}, ProviderName: "B", ProviderEmail: "b@example.com"},
		},
	}

	result, err := f.svc.Distribute(context.Background(), leadID, uuid.Nil)
	if err != nil {
		t.Fatalf("distribute: %v", err)
	}
	if len(result.Offers) != 2 {
		t.Fatalf("expected 2 offers, got %d", len(result.Offers))
	}

	names := f.bus.names()
	want := []string{"lead.distributed", "lead.offered", "lead.offered"}
	if len(names) != len(want) {
		t.Fatalf("expected events %v, got %v", want, names)
	}
	for i, name := range want {
		if names[i] != name {
			t.Fatalf("expected events %v, got %v", want, names)
		}
	}
}

func TestDistribute_NoEligibleProviders(t *testing.T) {
	f := newFixture(t)
	leadID := uuid.New()
	f.repo.distribution = repository.DistributionResult{
		Lead: repository.Lead{ID: leadID, Status: repository.LeadStatusDistributed},
	}

	result, err := f.svc.Distribute(context.Background(), leadID, uuid.Nil)
	if err != nil {
		t.Fatalf("an empty match set is not an error: %v", err)
	}
	if len(result.Offers) != 0 {
		t.Fatalf("expected no offers, got %d", len(result.Offers))
	}
}

func TestRespond_AcceptTriggersCharge(t *testing.T) {
	f := newFixture(t)
	f.repo.offer = repository.Offer{ID: uuid.New(), LeadID: uuid.New(), ProviderID: uuid.New()}

	result, err := f.svc.Respond(context.Background(), f.repo.offer.ID, repository.DecisionAccepted)
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if result.Offer.Status != repository.OfferStatusAccepted {
		t.Fatalf("expected accepted offer, got %s", result.Offer.Status)
	}
	if result.ChargeErr != nil {
		t.Fatalf("unexpected charge error: %v", result.ChargeErr)
	}
	if f.charger.calls != 1 {
		t.Fatalf("expected exactly one charge call, got %d", f.charger.calls)
	}
}

func TestRespond_DeclineDoesNotCharge(t *testing.T) {
	f := newFixture(t)
	f.repo.offer = repository.Offer{ID: uuid.New(), LeadID: uuid.New(), ProviderID: uuid.New()}

	result, err := f.svc.Respond(context.Background(), f.repo.offer.ID, repository.DecisionDeclined)
	if err != nil {
		t.Fatalf("respond: %v", err)
	}
	if result.Offer.Status != repository.OfferStatusDeclined {
		t.Fatalf("expected declined offer, got %s", result.Offer.Status)
	}
	if f.charger.calls != 0 {
		t.Fatal("declining must not charge the provider")
	}
}

func TestRespond_AcceptanceStandsWhenChargeFails(t *testing.T) {
	f := newFixture(t)
	f.repo.offer = repository.Offer{ID: uuid.New(), LeadID: uuid.New(), ProviderID: uuid.New()}
	f.charger.err = errors.New("gateway down")

	result, err := f.svc.Respond(context.Background(), f.repo.offer.ID, repository.DecisionAccepted)
	if err != nil {
		t.Fatalf("a failed charge must not fail the response: %v", err)
	}
	if result.Offer.Status != repository.OfferStatusAccepted {
		t.Fatalf("acceptance must stand, got %s", result.Offer.Status)
	}
	if result.ChargeErr == nil {
		t.Fatal("expected the charge failure to be reported")
	}
}

func TestRespond_SecondResponseRejected(t *testing.T) {
	f := newFixture(t)
	f.repo.respondErr = apperr.PreconditionFailed("offer already accepted")

	_, err := f.svc.Respond(context.Background(), uuid.New(), repository.DecisionDeclined)
	if apperr.GetKind(err) != apperr.KindPreconditionFailed {
		t.Fatalf("expected precondition failure, got %v", err)
	}
	if f.charger.calls != 0 {
		t.Fatal("a rejected response must not charge")
	}
}
