package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrNoJourney is returned when a lead's journey has never been computed.
var ErrNoJourney = errors.New("no journey on record")

// JourneyRecord is the denormalized rollup of a lead's full history. One row
// per lead, fully recomputed on every refresh. StagesCompleted and Milestones
// are JSON snapshots.
type JourneyRecord struct {
	ID                    uuid.UUID
	LeadID                uuid.UUID
	JourneyStart          time.Time
	JourneyDurationDays   int
	LastActivity          time.Time
	DaysSinceLastActivity int
	CurrentStage          string
	TotalEngagements      int
	EmailEngagements      int
	FormSubmissions       int
	PageViews             int
	Purchases             int
	EngagementTrend       string
	ChurnRisk             float64
	StagesCompleted       []byte
	Milestones            []byte
	TotalRevenue          float64
	LifetimeValue         float64
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

type UpsertJourneyParams struct {
	LeadID                uuid.UUID
	JourneyStart          time.Time
	JourneyDurationDays   int
	LastActivity          time.Time
	DaysSinceLastActivity int
	CurrentStage          string
	TotalEngagements      int
	EmailEngagements      int
	FormSubmissions       int
	PageViews             int
	Purchases             int
	EngagementTrend       string
	ChurnRisk             float64
	StagesCompleted       []byte
	Milestones            []byte
	TotalRevenue          float64
	LifetimeValue         float64
}

const journeyColumns = `id, lead_id, journey_start, journey_duration_days, last_activity,
	days_since_last_activity, current_stage, total_engagements, email_engagements,
	form_submissions, page_views, purchases, engagement_trend, churn_risk, stages_completed,
	milestones, total_revenue, lifetime_value, created_at, updated_at`

func scanJourney(row pgx.Row) (JourneyRecord, error) {
	var rec JourneyRecord
	err := row.Scan(
		&rec.ID, &rec.LeadID, &rec.JourneyStart, &rec.JourneyDurationDays, &rec.LastActivity,
		&rec.DaysSinceLastActivity, &rec.CurrentStage, &rec.TotalEngagements,
		&rec.EmailEngagements, &rec.FormSubmissions, &rec.PageViews, &rec.Purchases,
		&rec.EngagementTrend, &rec.ChurnRisk, &rec.StagesCompleted, &rec.Milestones,
		&rec.TotalRevenue, &rec.LifetimeValue, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return JourneyRecord{}, ErrNoJourney
	}
	return rec, err
}

func (r *Repository) GetJourney(ctx context.Context, leadID uuid.UUID) (JourneyRecord, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+journeyColumns+`
		FROM lead_journeys
		WHERE lead_id = $1
	`, leadID)
	return scanJourney(row)
}

// UpsertJourney replaces the journey rollup for a lead.
func (r *Repository) UpsertJourney(ctx context.Context, params UpsertJourneyParams) (JourneyRecord, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO lead_journeys (
			lead_id, journey_start, journey_duration_days, last_activity,
			days_since_last_activity, current_stage, total_engagements, email_engagements,
			form_submissions, page_views, purchases, engagement_trend, churn_risk,
			stages_completed, milestones, total_revenue, lifetime_value
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (lead_id) DO UPDATE SET
			journey_start = EXCLUDED.journey_start,
			journey_duration_days = EXCLUDED.journey_duration_days,
			last_activity = EXCLUDED.last_activity,
			days_since_last_activity = EXCLUDED.days_since_last_activity,
			current_stage = EXCLUDED.current_stage,
			total_engagements = EXCLUDED.total_engagements,
			email_engagements = EXCLUDED.email_engagements,
			form_submissions = EXCLUDED.form_submissions,
			page_views = EXCLUDED.page_views,
			purchases = EXCLUDED.purchases,
			engagement_trend = EXCLUDED.engagement_trend,
			churn_risk = EXCLUDED.churn_risk,
			stages_completed = EXCLUDED.stages_completed,
			milestones = EXCLUDED.milestones,
			total_revenue = EXCLUDED.total_revenue,
			lifetime_value = EXCLUDED.lifetime_value,
			updated_at = now()
		RETURNING `+journeyColumns,
		params.LeadID, params.JourneyStart, params.JourneyDurationDays, params.LastActivity,
		params.DaysSinceLastActivity, params.CurrentStage, params.TotalEngagements,
		params.EmailEngagements, params.FormSubmissions, params.PageViews, params.Purchases,
		params.EngagementTrend, params.ChurnRisk, params.StagesCompleted, params.Milestones,
		params.TotalRevenue, params.LifetimeValue,
	)
	return scanJourney(row)
}
