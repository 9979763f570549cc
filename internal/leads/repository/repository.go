package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("lead not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Ping verifies database connectivity for readiness checks.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Lead is the subject entity of the tracking engine. Profile fields feed the
// demographic and firmographic score components; consent flags and
// last_contact_date feed the engagement component.
type Lead struct {
	ID              uuid.UUID
	Email           *string
	FirstName       *string
	LastName        *string
	Phone           *string
	Location        *string
	SportType       *string
	CustomerType    *string
	Interests       *string
	Source          *string
	Status          string
	EmailConsent    bool
	SMSConsent      bool
	EngagementScore int
	LastContactDate *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type CreateLeadParams struct {
	Email        *string
	FirstName    *string
	LastName     *string
	Phone        *string
	Location     *string
	SportType    *string
	CustomerType *string
	Interests    *string
	Source       *string
	EmailConsent bool
	SMSConsent   bool
}

const leadColumns = `id, email, first_name, last_name, phone, location, sport_type, customer_type,
	interests, source, status, email_consent, sms_consent, engagement_score, last_contact_date,
	created_at, updated_at`

func scanLead(row pgx.Row) (Lead, error) {
	var lead Lead
	err := row.Scan(
		&lead.ID, &lead.Email, &lead.FirstName, &lead.LastName, &lead.Phone, &lead.Location,
		&lead.SportType, &lead.CustomerType, &lead.Interests, &lead.Source, &lead.Status,
		&lead.EmailConsent, &lead.SMSConsent, &lead.EngagementScore, &lead.LastContactDate,
		&lead.CreatedAt, &lead.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

func (r *Repository) CreateLead(ctx context.Context, params CreateLeadParams) (Lead, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO leads (
			email, first_name, last_name, phone, location, sport_type, customer_type,
			interests, source, status, email_consent, sms_consent
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'new', $10, $11)
		RETURNING `+leadColumns,
		params.Email, params.FirstName, params.LastName, params.Phone, params.Location,
		params.SportType, params.CustomerType, params.Interests, params.Source,
		params.EmailConsent, params.SMSConsent,
	)
	return scanLead(row)
}

func (r *Repository) GetLead(ctx context.Context, id uuid.UUID) (Lead, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	return scanLead(row)
}

// ListLeadIDs returns the IDs of all leads, oldest first. Used by the
// journey refresh job.
func (r *Repository) ListLeadIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM leads ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpdateLeadStatus sets the denormalized status field on the lead.
func (r *Repository) UpdateLeadStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads SET status = $2, updated_at = now() WHERE id = $1
	`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchLead updates the lead's last contact timestamp.
func (r *Repository) TouchLead(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads SET last_contact_date = $2, updated_at = now() WHERE id = $1
	`, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetLeadEngagementScore writes the composite score back onto the lead record.
func (r *Repository) SetLeadEngagementScore(ctx context.Context, id uuid.UUID, score int) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads SET engagement_score = $2, updated_at = now() WHERE id = $1
	`, id, score)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
