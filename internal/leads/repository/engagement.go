package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// EngagementEvent is an immutable, append-only interaction log entry. Events
// are never updated or deleted; engaged_at is the ordering key.
type EngagementEvent struct {
	ID                uuid.UUID
	LeadID            uuid.UUID
	EngagementType    string
	Channel           *string
	SourceType        *string
	SourceID          *uuid.UUID
	SourceName        *string
	Title             *string
	Description       *string
	Metadata          []byte
	Value             int
	RevenueAttributed *float64
	EngagedAt         time.Time
	IPAddress         *string
	UserAgent         *string
	DeviceType        *string
	Location          *string
	CreatedAt         time.Time
}

type CreateEngagementParams struct {
	LeadID            uuid.UUID
	EngagementType    string
	Channel           *string
	SourceType        *string
	SourceID          *uuid.UUID
	SourceName        *string
	Title             *string
	Description       *string
	Metadata          []byte
	Value             int
	RevenueAttributed *float64
	EngagedAt         time.Time
	IPAddress         *string
	UserAgent         *string
	DeviceType        *string
	Location          *string
}

const engagementColumns = `id, lead_id, engagement_type, engagement_channel, source_type, source_id,
	source_name, title, description, event_metadata, engagement_value, revenue_attributed,
	engaged_at, ip_address, user_agent, device_type, location, created_at`

func scanEngagement(row pgx.Row) (EngagementEvent, error) {
	var e EngagementEvent
	err := row.Scan(
		&e.ID, &e.LeadID, &e.EngagementType, &e.Channel, &e.SourceType, &e.SourceID,
		&e.SourceName, &e.Title, &e.Description, &e.Metadata, &e.Value, &e.RevenueAttributed,
		&e.EngagedAt, &e.IPAddress, &e.UserAgent, &e.DeviceType, &e.Location, &e.CreatedAt,
	)
	return e, err
}

func (r *Repository) CreateEngagement(ctx context.Context, params CreateEngagementParams) (EngagementEvent, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO engagement_history (
			lead_id, engagement_type, engagement_channel, source_type, source_id, source_name,
			title, description, event_metadata, engagement_value, revenue_attributed, engaged_at,
			ip_address, user_agent, device_type, location
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING `+engagementColumns,
		params.LeadID, params.EngagementType, params.Channel, params.SourceType, params.SourceID,
		params.SourceName, params.Title, params.Description, params.Metadata, params.Value,
		params.RevenueAttributed, params.EngagedAt, params.IPAddress, params.UserAgent,
		params.DeviceType, params.Location,
	)
	return scanEngagement(row)
}

// ListEngagements returns every engagement for a lead, oldest first.
// This is the touchpoint ordering used by attribution.
func (r *Repository) ListEngagements(ctx context.Context, leadID uuid.UUID) ([]EngagementEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+engagementColumns+`
		FROM engagement_history
		WHERE lead_id = $1
		ORDER BY engaged_at ASC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEngagements(rows)
}

// ListEngagementsSince returns engagements after the cutoff, newest first,
// optionally filtered by engagement type.
func (r *Repository) ListEngagementsSince(ctx context.Context, leadID uuid.UUID, since time.Time, types []string) ([]EngagementEvent, error) {
	query := `
		SELECT ` + engagementColumns + `
		FROM engagement_history
		WHERE lead_id = $1 AND engaged_at >= $2`
	args := []interface{}{leadID, since}
	if len(types) > 0 {
		query += ` AND engagement_type = ANY($3)`
		args = append(args, types)
	}
	query += ` ORDER BY engaged_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEngagements(rows)
}

// ListEngagementsBetween returns engagements in [start, end), oldest first.
// Used by activity summaries.
func (r *Repository) ListEngagementsBetween(ctx context.Context, leadID uuid.UUID, start, end time.Time) ([]EngagementEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+engagementColumns+`
		FROM engagement_history
		WHERE lead_id = $1 AND engaged_at >= $2 AND engaged_at < $3
		ORDER BY engaged_at ASC
	`, leadID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEngagements(rows)
}

func collectEngagements(rows pgx.Rows) ([]EngagementEvent, error) {
	events := make([]EngagementEvent, 0)
	for rows.Next() {
		event, err := scanEngagement(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
