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

const transactionNotFoundMessage = "transaction not found"

// uniqueViolation is the PostgreSQL error code for unique constraint violations.
const uniqueViolation = "23505"

const transactionColumns = `
	id, provider_id, lead_id, amount_cents, currency, status,
	COALESCE(payment_ref, ''), COALESCE(refund_ref, ''), COALESCE(failure_reason, ''),
	created_at, updated_at`

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new transaction repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Transaction, error) {
	row := r.pool.QueryRow(ctx, `SELECT`+transactionColumns+` FROM transactions WHERE id = $1`, id)
	tx, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, apperr.NotFound(transactionNotFoundMessage)
		}
		return Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}

func (r *Repo) FindOpen(ctx context.Context, providerID, leadID uuid.UUID) (Transaction, bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT`+transactionColumns+`
		FROM transactions
		WHERE provider_id = $1 AND lead_id = $2 AND status <> 'failed'`,
		providerID, leadID)
	tx, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, false, nil
		}
		return Transaction{}, false, fmt.Errorf("find open transaction: %w", err)
	}
	return tx, true, nil
}

func (r *Repo) ListByProvider(ctx context.Context, providerID uuid.UUID, limit, offset int) ([]Transaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+transactionColumns+`
		FROM transactions
		WHERE provider_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		providerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list transactions by provider: %w", err)
	}
	return collectTransactions(rows)
}

func (r *Repo) ListByStatus(ctx context.Context, status Status, limit, offset int) ([]Transaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+transactionColumns+`
		FROM transactions
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		string(status), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list transactions by status: %w", err)
	}
	return collectTransactions(rows)
}

// ChargeContext resolves provider and lead in one round trip. Missing rows
// on either side come back as NotFound.
func (r *Repo) ChargeContext(ctx context.Context, providerID, leadID uuid.UUID) (ChargeContext, error) {
	var (
		cc     ChargeContext
		status string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT p.name, p.email, COALESCE(p.payment_account, ''), p.status, c.iso_code
		FROM providers p
		CROSS JOIN leads l
		JOIN zones z ON z.id = l.zone_id
		JOIN countries c ON c.id = z.country_id
		WHERE p.id = $1 AND l.id = $2`,
		providerID, leadID,
	).Scan(&cc.ProviderName, &cc.ProviderEmail, &cc.PaymentAccount, &status, &cc.CountryISO)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ChargeContext{}, apperr.NotFound("provider or lead not found")
		}
		return ChargeContext{}, fmt.Errorf("load charge context: %w", err)
	}
	cc.ProviderActive = status == "active"
	return cc, nil
}

func (r *Repo) CreatePending(ctx context.Context, providerID, leadID uuid.UUID, amountCents int64, currency string) (Transaction, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO transactions (provider_id, lead_id, amount_cents, currency, status)
		VALUES ($1, $2, $3, $4, 'pending')
		RETURNING`+transactionColumns,
		providerID, leadID, amountCents, currency)
	tx, err := scanTransaction(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Transaction{}, apperr.Conflict("provider already has an open charge for this lead")
		}
		return Transaction{}, fmt.Errorf("insert pending transaction: %w", err)
	}
	return tx, nil
}

func (r *Repo) MarkCompleted(ctx context.Context, id uuid.UUID, paymentRef string) (Transaction, error) {
	return r.update(ctx, `
		UPDATE transactions
		SET status = 'completed', payment_ref = $2, updated_at = now()
		WHERE id = $1
		RETURNING`+transactionColumns,
		id, paymentRef)
}

func (r *Repo) MarkFailed(ctx context.Context, id uuid.UUID, reason string) (Transaction, error) {
	return r.update(ctx, `
		UPDATE transactions
		SET status = 'failed', failure_reason = $2, updated_at = now()
		WHERE id = $1
		RETURNING`+transactionColumns,
		id, reason)
}

func (r *Repo) MarkRefunded(ctx context.Context, id uuid.UUID, refundRef string) (Transaction, error) {
	return r.update(ctx, `
		UPDATE transactions
		SET status = 'refunded', refund_ref = $2, updated_at = now()
		WHERE id = $1
		RETURNING`+transactionColumns,
		id, refundRef)
}

func (r *Repo) update(ctx context.Context, query string, args ...any) (Transaction, error) {
	row := r.pool.QueryRow(ctx, query, args...)
	tx, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, apperr.NotFound(transactionNotFoundMessage)
		}
		return Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	return tx, nil
}

func scanTransaction(row pgx.Row) (Transaction, error) {
	var tx Transaction
	err := row.Scan(
		&tx.ID, &tx.ProviderID, &tx.LeadID, &tx.AmountCents, &tx.Currency,
		&tx.Status, &tx.PaymentRef, &tx.RefundRef, &tx.FailureReason,
		&tx.CreatedAt, &tx.UpdatedAt,
	)
	return tx, err
}

func collectTransactions(rows pgx.Rows) ([]Transaction, error) {
	defer rows.Close()
	var txs []Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txs, nil
}
