package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"leadmarket_backend/platform/apperr"
)

type Repo struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

const leadColumns = `
	l.id, l.zone_id, z.name, c.iso_code, l.postal_code,
	l.contact_name, l.contact_email, l.contact_phone, l.description,
	l.status, l.created_at, l.updated_at`

const leadFrom = `
	FROM leads l
	JOIN zones z ON z.id = l.zone_id
	JOIN countries c ON c.id = z.country_id`

func (r *Repo) CreateLead(ctx context.Context, params CreateLeadParams) (Lead, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Lead{}, fmt.Errorf("begin create lead: %w", err)
	}
	defer tx.Rollback(ctx)

	var id uuid.UUID
	err = tx.QueryRow(ctx, `
		INSERT INTO leads (zone_id, postal_code, contact_name, contact_email, contact_phone, description, status)
		VALUES ($1, $2, $3, $4, $5, $6, 'new')
		RETURNING id`,
		params.ZoneID, params.PostalCode, params.ContactName,
		params.ContactEmail, params.ContactPhone, params.Description,
	).Scan(&id)
	if err != nil {
		return Lead{}, fmt.Errorf("insert lead: %w", err)
	}

	for _, catID := range params.CategoryIDs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO lead_categories (lead_id, category_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING`,
			id, catID,
		); err != nil {
			return Lead{}, fmt.Errorf("insert lead category: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Lead{}, fmt.Errorf("commit create lead: %w", err)
	}
	return r.GetLead(ctx, id)
}

func (r *Repo) GetLead(ctx context.Context, id uuid.UUID) (Lead, error) {
	row := r.pool.QueryRow(ctx, `SELECT`+leadColumns+leadFrom+` WHERE l.id = $1`, id)
	lead, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, apperr.NotFound("lead not found")
		}
		return Lead{}, fmt.Errorf("get lead: %w", err)
	}

	rows, err := r.pool.Query(ctx, `SELECT category_id FROM lead_categories WHERE lead_id = $1`, id)
	if err != nil {
		return Lead{}, fmt.Errorf("get lead categories: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var catID uuid.UUID
		if err := rows.Scan(&catID); err != nil {
			return Lead{}, fmt.Errorf("scan lead category: %w", err)
		}
		lead.CategoryIDs = append(lead.CategoryIDs, catID)
	}
	if err := rows.Err(); err != nil {
		return Lead{}, fmt.Errorf("iterate lead categories: %w", err)
	}
	return lead, nil
}

func (r *Repo) ListLeads(ctx context.Context, status LeadStatus, limit, offset int) ([]Lead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+leadColumns+leadFrom+`
		WHERE ($1 = '' OR l.status = $1)
		ORDER BY l.created_at DESC
		LIMIT $2 OFFSET $3`,
		string(status), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	var leads []Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leads: %w", err)
	}
	return leads, nil
}

// Distribute runs the fan-out for one lead. Matching and offer creation
// happen inside a single transaction so every provider eligible at commit
// time has exactly one offer row. ON CONFLICT keeps re-runs from producing
// duplicates; only rows created by this call are returned.
func (r *Repo) Distribute(ctx context.Context, leadID uuid.UUID) (DistributionResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return DistributionResult{}, fmt.Errorf("begin distribute: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `SELECT`+leadColumns+leadFrom+` WHERE l.id = $1 FOR UPDATE OF l`, leadID)
	lead, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return DistributionResult{}, apperr.NotFound("lead not found")
		}
		return DistributionResult{}, fmt.Errorf("lock lead: %w", err)
	}
	if lead.Status == LeadStatusClosed {
		return DistributionResult{}, apperr.Conflict("lead is closed")
	}

	rows, err := tx.Query(ctx, `
		WITH created AS (
			INSERT INTO lead_providers (lead_id, provider_id, status, sent_at)
			SELECT DISTINCT $1, p.id, 'sent', now()
			FROM providers p
			JOIN provider_zones pz ON pz.provider_id = p.id
			JOIN provider_categories pc ON pc.provider_id = p.id
			JOIN lead_categories lc ON lc.category_id = pc.category_id AND lc.lead_id = $1
			WHERE p.status = 'active' AND pz.zone_id = $2
			ON CONFLICT (lead_id, provider_id) DO NOTHING
			RETURNING id, lead_id, provider_id, status, sent_at, responded_at
		)
		SELECT cr.id, cr.lead_id, cr.provider_id, cr.status, cr.sent_at, cr.responded_at, p.name, p.email
		FROM created cr
		JOIN providers p ON p.id = cr.provider_id`,
		leadID, lead.ZoneID)
	if err != nil {
		return DistributionResult{}, fmt.Errorf("insert offers: %w", err)
	}

	var offers []OfferWithProvider
	for rows.Next() {
		var o OfferWithProvider
		if err := rows.Scan(&o.ID, &o.LeadID, &o.ProviderID, &o.Status, &o.SentAt, &o.RespondedAt, &o.ProviderName, &o.ProviderEmail); err != nil {
			rows.Close()
			return DistributionResult{}, fmt.Errorf("scan offer: %w", err)
		}
		offers = append(offers, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return DistributionResult{}, fmt.Errorf("iterate offers: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE leads SET status = 'distributed', updated_at = now()
		WHERE id = $1 AND status = 'new'`,
		leadID,
	); err != nil {
		return DistributionResult{}, fmt.Errorf("mark lead distributed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return DistributionResult{}, fmt.Errorf("commit distribute: %w", err)
	}

	if lead.Status == LeadStatusNew {
		lead.Status = LeadStatusDistributed
	}
	return DistributionResult{Lead: lead, Offers: offers}, nil
}

func (r *Repo) GetOffer(ctx context.Context, id uuid.UUID) (Offer, error) {
	var o Offer
	err := r.pool.QueryRow(ctx, `
		SELECT id, lead_id, provider_id, status, sent_at, responded_at
		FROM lead_providers WHERE id = $1`,
		id,
	).Scan(&o.ID, &o.LeadID, &o.ProviderID, &o.Status, &o.SentAt, &o.RespondedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Offer{}, apperr.NotFound("offer not found")
		}
		return Offer{}, fmt.Errorf("get offer: %w", err)
	}
	return o, nil
}

func (r *Repo) ListOffers(ctx context.Context, leadID uuid.UUID) ([]OfferWithProvider, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT lp.id, lp.lead_id, lp.provider_id, lp.status, lp.sent_at, lp.responded_at, p.name, p.email
		FROM lead_providers lp
		JOIN providers p ON p.id = lp.provider_id
		WHERE lp.lead_id = $1
		ORDER BY lp.sent_at`,
		leadID)
	if err != nil {
		return nil, fmt.Errorf("list offers: %w", err)
	}
	defer rows.Close()

	var offers []OfferWithProvider
	for rows.Next() {
		var o OfferWithProvider
		if err := rows.Scan(&o.ID, &o.LeadID, &o.ProviderID, &o.Status, &o.SentAt, &o.RespondedAt, &o.ProviderName, &o.ProviderEmail); err != nil {
			return nil, fmt.Errorf("scan offer: %w", err)
		}
		offers = append(offers, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate offers: %w", err)
	}
	return offers, nil
}

// Respond is a compare-and-set: the update only applies while the offer is
// still in sent. Losing a concurrent race reports the same error as arriving
// after an earlier response.
func (r *Repo) Respond(ctx context.Context, offerID uuid.UUID, decision Decision) (Offer, error) {
	var o Offer
	err := r.pool.QueryRow(ctx, `
		UPDATE lead_providers
		SET status = $2, responded_at = now()
		WHERE id = $1 AND status = 'sent'
		RETURNING id, lead_id, provider_id, status, sent_at, responded_at`,
		offerID, string(decision),
	).Scan(&o.ID, &o.LeadID, &o.ProviderID, &o.Status, &o.SentAt, &o.RespondedAt)
	if err == nil {
		return o, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Offer{}, fmt.Errorf("respond to offer: %w", err)
	}

	existing, getErr := r.GetOffer(ctx, offerID)
	if getErr != nil {
		return Offer{}, getErr
	}
	return Offer{}, apperr.PreconditionFailed(
		fmt.Sprintf("offer already %s", existing.Status))
}

func (r *Repo) CloseLead(ctx context.Context, id uuid.UUID) (Lead, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads SET status = 'closed', updated_at = now()
		WHERE id = $1 AND status <> 'closed'`,
		id)
	if err != nil {
		return Lead{}, fmt.Errorf("close lead: %w", err)
	}
	if tag.RowsAffected() == 0 {
		lead, getErr := r.GetLead(ctx, id)
		if getErr != nil {
			return Lead{}, getErr
		}
		return Lead{}, apperr.Conflict(fmt.Sprintf("lead is already %s", lead.Status))
	}
	return r.GetLead(ctx, id)
}

func scanLead(row pgx.Row) (Lead, error) {
	var l Lead
	err := row.Scan(
		&l.ID, &l.ZoneID, &l.ZoneName, &l.CountryISO, &l.PostalCode,
		&l.ContactName, &l.ContactEmail, &l.ContactPhone, &l.Description,
		&l.Status, &l.CreatedAt, &l.UpdatedAt,
	)
	return l, err
}
