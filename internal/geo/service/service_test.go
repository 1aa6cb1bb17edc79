package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"leadmarket_backend/internal/audit"
	"leadmarket_backend/internal/geo/repository"
	"leadmarket_backend/internal/geo/transport"
	"leadmarket_backend/platform/apperr"
	"leadmarket_backend/platform/logger"
)

type stubRepo struct {
	match        repository.ZoneMatch
	resolveErr   error
	resolveCalls int
	resolvedCode string
	resolvedISO  string

	zone      repository.Zone
	zoneErr   error
	updated   repository.Zone
	updateErr error
	updParams *repository.UpdatePostalCodesParams
}

func (r *stubRepo) ResolvePostalCode(_ context.Context, postalCode, countryISO string) (repository.ZoneMatch, error) {
	r.resolveCalls++
	r.resolvedCode = postalCode
	r.resolvedISO = countryISO
	return r.match, r.resolveErr
}

func (r *stubRepo) GetZone(context.Context, uuid.UUID) (repository.Zone, error) {
	return r.zone, r.zoneErr
}

func (r *stubRepo) ListCountries(context.Context) ([]repository.Country, error) {
	return nil, nil
}

func (r *stubRepo) UpdatePostalCodes(_ context.Context, params repository.UpdatePostalCodesParams) (repository.Zone, error) {
	r.updParams = &params
	return r.updated, r.updateErr
}

func (r *stubRepo) ImportZones(context.Context, []repository.ImportZone) (int, error) {
	return 0, nil
}

type noopAuditor struct{}

func (noopAuditor) Record(context.Context, audit.Entry) {}

func TestResolve_NormalizesInput(t *testing.T) {
	repo := &stubRepo{match: repository.ZoneMatch{ZoneID: uuid.New(), Name: "Frogner", CountryCode: "NO"}}
	svc := New(repo, nil, noopAuditor{}, logger.New("test"))

	match, err := svc.Resolve(context.Background(), " 0150 ", "no")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if repo.resolvedCode != "0150" {
		t.Fatalf("expected normalized code %q, got %q", "0150", repo.resolvedCode)
	}
	if repo.resolvedISO != "NO" {
		t.Fatalf("expected upper-cased country %q, got %q", "NO", repo.resolvedISO)
	}
	if match.Name != "Frogner" {
		t.Fatalf("expected zone Frogner, got %q", match.Name)
	}
}

func TestResolve_EmptyCodeIsValidationError(t *testing.T) {
	svc := New(&stubRepo{}, nil, noopAuditor{}, logger.New("test"))

	_, err := svc.Resolve(context.Background(), "   ", "NO")
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestResolve_MissIsNotFound(t *testing.T) {
	repo := &stubRepo{resolveErr: apperr.NotFound("no zone serves postal code 9999 in AU")}
	svc := New(repo, nil, noopAuditor{}, logger.New("test"))

	_, err := svc.Resolve(context.Background(), "9999", "AU")
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func newTestCache(t *testing.T) *RedisCache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCache(client, time.Minute, logger.New("test"))
}

func TestResolve_UsesCacheOnSecondCall(t *testing.T) {
	repo := &stubRepo{match: repository.ZoneMatch{ZoneID: uuid.New(), Name: "Frogner", CountryCode: "NO"}}
	svc := New(repo, newTestCache(t), noopAuditor{}, logger.New("test"))

	for i := 0; i < 3; i++ {
		match, err := svc.Resolve(context.Background(), "0150", "NO")
		if err != nil {
			t.Fatalf("resolve %d: %v", i, err)
		}
		if match.ZoneID != repo.match.ZoneID {
			t.Fatalf("resolve %d: wrong zone %s", i, match.ZoneID)
		}
	}
	if repo.resolveCalls != 1 {
		t.Fatalf("expected 1 store lookup, got %d", repo.resolveCalls)
	}
}

func TestUpdatePostalCodes_DeduplicatesAndInvalidates(t *testing.T) {
	zoneID := uuid.New()
	repo := &stubRepo{
		match: repository.ZoneMatch{ZoneID: zoneID, Name: "Frogner", CountryCode: "NO"},
		zone: repository.Zone{
			ID:          zoneID,
			CountryISO:  "NO",
			Name:        "Frogner",
			Kind:        repository.KindMunicipality,
			PostalCodes: []string{"0150"},
			UpdatedAt:   time.Now(),
		},
	}
	repo.updated = repo.zone
	repo.updated.PostalCodes = []string{"0151", "0152"}

	cache := newTestCache(t)
	svc := New(repo, cache, noopAuditor{}, logger.New("test"))

	// Warm the cache for a code about to be removed from the zone.
	if _, err := svc.Resolve(context.Background(), "0150", "NO"); err != nil {
		t.Fatalf("warm resolve: %v", err)
	}

	zone, err := svc.UpdatePostalCodes(context.Background(), uuid.New(), transport.UpdatePostalCodesRequest{
		ZoneID:            zoneID,
		PostalCodes:       []string{" 0151", "0152 ", "0151", ""},
		ExpectedUpdatedAt: repo.zone.UpdatedAt,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(zone.PostalCodes) != 2 {
		t.Fatalf("expected 2 postal codes, got %v", zone.PostalCodes)
	}
	if got := repo.updParams.PostalCodes; len(got) != 2 || got[0] != "0151" || got[1] != "0152" {
		t.Fatalf("expected deduplicated normalized codes, got %v", got)
	}

	// The removed code's cache entry must be gone: the next resolve hits
	// the store again.
	if _, err := svc.Resolve(context.Background(), "0150", "NO"); err != nil {
		t.Fatalf("resolve after update: %v", err)
	}
	if repo.resolveCalls != 2 {
		t.Fatalf("expected cache invalidation to force a second store lookup, got %d calls", repo.resolveCalls)
	}
}

func TestUpdatePostalCodes_EmptySetRejected(t *testing.T) {
	repo := &stubRepo{zone: repository.Zone{ID: uuid.New(), CountryISO: "NO"}}
	svc := New(repo, nil, noopAuditor{}, logger.New("test"))

	_, err := svc.UpdatePostalCodes(context.Background(), uuid.New(), transport.UpdatePostalCodesRequest{
		ZoneID:      repo.zone.ID,
		PostalCodes: []string{"  ", ""},
	})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if repo.updParams != nil {
		t.Fatal("store must not be written for an empty code set")
	}
}
