package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"leadmarket_backend/platform/apperr"
)

const providerNotFoundMessage = "provider not found"

const uniqueViolation = "23505"

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new provider repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// GetByID retrieves a provider with its zone and category memberships.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Provider, error) {
	query := `
		SELECT id, name, email, phone, status, payment_account, created_at, updated_at
		FROM providers
		WHERE id = $1`

	var provider Provider
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&provider.ID, &provider.Name, &provider.Email, &provider.Phone,
		&provider.Status, &provider.PaymentAccount, &provider.CreatedAt, &provider.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Provider{}, apperr.NotFound(providerNotFoundMessage)
		}
		return Provider{}, fmt.Errorf("get provider by id: %w", err)
	}

	provider.ZoneIDs, err = r.memberIDs(ctx,
		`SELECT zone_id FROM provider_zones WHERE provider_id = $1`, id)
	if err != nil {
		return Provider{}, err
	}
	provider.CategoryIDs, err = r.memberIDs(ctx,
		`SELECT category_id FROM provider_categories WHERE provider_id = $1`, id)
	if err != nil {
		return Provider{}, err
	}

	return provider, nil
}

func (r *Repo) memberIDs(ctx context.Context, query string, providerID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, query, providerID)
	if err != nil {
		return nil, fmt.Errorf("load provider memberships: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// List retrieves all providers without memberships.
func (r *Repo) List(ctx context.Context) ([]Provider, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, email, phone, status, payment_account, created_at, updated_at
		FROM providers
		ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}
	defer rows.Close()

	var providers []Provider
	for rows.Next() {
		var provider Provider
		if err := rows.Scan(
			&provider.ID, &provider.Name, &provider.Email, &provider.Phone,
			&provider.Status, &provider.PaymentAccount, &provider.CreatedAt, &provider.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan provider: %w", err)
		}
		providers = append(providers, provider)
	}
	return providers, rows.Err()
}

// ListEligible returns ACTIVE providers subscribed to the zone with at least
// one overlapping category. One query, so the distribution engine sees a
// consistent snapshot inside its transaction boundary.
func (r *Repo) ListEligible(ctx context.Context, zoneID uuid.UUID, categoryIDs []uuid.UUID) ([]EligibleProvider, error) {
	query := `
		SELECT DISTINCT p.id, p.name, p.email
		FROM providers p
		JOIN provider_zones pz ON pz.provider_id = p.id
		JOIN provider_categories pc ON pc.provider_id = p.id
		WHERE p.status = 'active'
		  AND pz.zone_id = $1
		  AND pc.category_id = ANY($2)
		ORDER BY p.name ASC`

	rows, err := r.pool.Query(ctx, query, zoneID, categoryIDs)
	if err != nil {
		return nil, fmt.Errorf("list eligible providers: %w", err)
	}
	defer rows.Close()

	var eligible []EligibleProvider
	for rows.Next() {
		var provider EligibleProvider
		if err := rows.Scan(&provider.ID, &provider.Name, &provider.Email); err != nil {
			return nil, fmt.Errorf("scan eligible provider: %w", err)
		}
		eligible = append(eligible, provider)
	}
	return eligible, rows.Err()
}

// Create registers a provider in pending_onboarding status.
func (r *Repo) Create(ctx context.Context, params CreateParams) (Provider, error) {
	query := `
		INSERT INTO providers (name, email, phone, status)
		VALUES ($1, $2, $3, 'pending_onboarding')
		RETURNING id, name, email, phone, status, payment_account, created_at, updated_at`

	var provider Provider
	err := r.pool.QueryRow(ctx, query, params.Name, params.Email, params.Phone).Scan(
		&provider.ID, &provider.Name, &provider.Email, &provider.Phone,
		&provider.Status, &provider.PaymentAccount, &provider.CreatedAt, &provider.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Provider{}, apperr.Conflict("a provider with this email already exists")
		}
		return Provider{}, fmt.Errorf("create provider: %w", err)
	}
	return provider, nil
}

// SetStatus updates the provider lifecycle state.
func (r *Repo) SetStatus(ctx context.Context, id uuid.UUID, status Status) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE providers SET status = $2, updated_at = now() WHERE id = $1`,
		id, string(status),
	)
	if err != nil {
		return fmt.Errorf("set provider status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(providerNotFoundMessage)
	}
	return nil
}

// SetZones replaces the provider's zone memberships.
func (r *Repo) SetZones(ctx context.Context, id uuid.UUID, zoneIDs []uuid.UUID) error {
	return r.replaceMemberships(ctx, id,
		`DELETE FROM provider_zones WHERE provider_id = $1`,
		`INSERT INTO provider_zones (provider_id, zone_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		zoneIDs)
}

// SetCategories replaces the provider's category memberships.
func (r *Repo) SetCategories(ctx context.Context, id uuid.UUID, categoryIDs []uuid.UUID) error {
	return r.replaceMemberships(ctx, id,
		`DELETE FROM provider_categories WHERE provider_id = $1`,
		`INSERT INTO provider_categories (provider_id, category_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		categoryIDs)
}

func (r *Repo) replaceMemberships(ctx context.Context, id uuid.UUID, deleteQuery, insertQuery string, memberIDs []uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin membership update: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM providers WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return fmt.Errorf("check provider exists: %w", err)
	}
	if !exists {
		return apperr.NotFound(providerNotFoundMessage)
	}

	if _, err := tx.Exec(ctx, deleteQuery, id); err != nil {
		return fmt.Errorf("clear memberships: %w", err)
	}
	for _, memberID := range memberIDs {
		if _, err := tx.Exec(ctx, insertQuery, id, memberID); err != nil {
			return fmt.Errorf("insert membership: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit membership update: %w", err)
	}
	return nil
}

// SetPaymentAccount stores the provider's payment method reference.
func (r *Repo) SetPaymentAccount(ctx context.Context, id uuid.UUID, account string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE providers SET payment_account = $2, updated_at = now() WHERE id = $1`,
		id, account,
	)
	if err != nil {
		return fmt.Errorf("set payment account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(providerNotFoundMessage)
	}
	return nil
}
