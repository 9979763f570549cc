package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrNoScore is returned when a lead has never been scored.
var ErrNoScore = errors.New("no score on record")

// ScoreRecord holds the composite score, its five components, and the derived
// grade and temperature. One row per lead, overwritten on each recalculation.
type ScoreRecord struct {
	ID                 uuid.UUID
	LeadID             uuid.UUID
	TotalScore         int
	DemographicScore   int
	BehavioralScore    int
	FirmographicScore  int
	EngagementScore    int
	IntentScore        int
	Grade              string
	Temperature        string
	ScoreChanged       bool
	ScoreChangeAmount  int
	PreviousScore      *int
	LastActivityDate   *time.Time
	ScoreCalculatedAt  time.Time
	DecayRate          float64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type SaveScoreParams struct {
	LeadID            uuid.UUID
	TotalScore        int
	DemographicScore  int
	BehavioralScore   int
	FirmographicScore int
	EngagementScore   int
	IntentScore       int
	Grade             string
	Temperature       string
	ScoreChanged      bool
	ScoreChangeAmount int
	PreviousScore     *int
	LastActivityDate  *time.Time
	ScoreCalculatedAt time.Time
	DecayRate         float64
}

const scoreColumns = `id, lead_id, total_score, demographic_score, behavioral_score, firmographic_score,
	engagement_score, intent_score, grade, temperature, score_changed, score_change_amount,
	previous_score, last_activity_date, score_calculated_at, decay_rate, created_at, updated_at`

func scanScore(row pgx.Row) (ScoreRecord, error) {
	var rec ScoreRecord
	err := row.Scan(
		&rec.ID, &rec.LeadID, &rec.TotalScore, &rec.DemographicScore, &rec.BehavioralScore,
		&rec.FirmographicScore, &rec.EngagementScore, &rec.IntentScore, &rec.Grade,
		&rec.Temperature, &rec.ScoreChanged, &rec.ScoreChangeAmount, &rec.PreviousScore,
		&rec.LastActivityDate, &rec.ScoreCalculatedAt, &rec.DecayRate, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return ScoreRecord{}, ErrNoScore
	}
	return rec, err
}

func (r *Repository) GetScore(ctx context.Context, leadID uuid.UUID) (ScoreRecord, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+scoreColumns+`
		FROM lead_scores
		WHERE lead_id = $1
	`, leadID)
	return scanScore(row)
}

// SaveScore upserts the single score row for a lead.
func (r *Repository) SaveScore(ctx context.Context, params SaveScoreParams) (ScoreRecord, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO lead_scores (
			lead_id, total_score, demographic_score, behavioral_score, firmographic_score,
			engagement_score, intent_score, grade, temperature, score_changed,
			score_change_amount, previous_score, last_activity_date, score_calculated_at, decay_rate
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (lead_id) DO UPDATE SET
			total_score = EXCLUDED.total_score,
			demographic_score = EXCLUDED.demographic_score,
			behavioral_score = EXCLUDED.behavioral_score,
			firmographic_score = EXCLUDED.firmographic_score,
			engagement_score = EXCLUDED.engagement_score,
			intent_score = EXCLUDED.intent_score,
			grade = EXCLUDED.grade,
			temperature = EXCLUDED.temperature,
			score_changed = EXCLUDED.score_changed,
			score_change_amount = EXCLUDED.score_change_amount,
			previous_score = EXCLUDED.previous_score,
			last_activity_date = EXCLUDED.last_activity_date,
			score_calculated_at = EXCLUDED.score_calculated_at,
			decay_rate = EXCLUDED.decay_rate,
			updated_at = now()
		RETURNING `+scoreColumns,
		params.LeadID, params.TotalScore, params.DemographicScore, params.BehavioralScore,
		params.FirmographicScore, params.EngagementScore, params.IntentScore, params.Grade,
		params.Temperature, params.ScoreChanged, params.ScoreChangeAmount, params.PreviousScore,
		params.LastActivityDate, params.ScoreCalculatedAt, params.DecayRate,
	)
	return scanScore(row)
}

// ListStaleScoreLeadIDs returns leads whose last recorded activity predates
// the cutoff. These are the decay candidates.
func (r *Repository) ListStaleScoreLeadIDs(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT lead_id
		FROM lead_scores
		WHERE total_score > 0
		  AND last_activity_date IS NOT NULL
		  AND last_activity_date < $1
		ORDER BY last_activity_date ASC
	`, cutoff)
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
