package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ActivitySummary is a periodic rollup of a lead's activity over a fixed
// window, with stage and score snapshots taken at summary time.
type ActivitySummary struct {
	ID               uuid.UUID
	LeadID           uuid.UUID
	SummaryDate      time.Time
	SummaryPeriod    string
	EmailsSent       int
	EmailsOpened     int
	EmailsClicked    int
	FormsSubmitted   int
	PagesViewed      int
	TotalActivities  int
	WasActive        bool
	EngagementScore  int
	ScoreChange      int
	StageAtStart     string
	StageAtEnd       string
	StageChanged     bool
	CreatedAt        time.Time
}

type CreateActivitySummaryParams struct {
	LeadID          uuid.UUID
	SummaryDate     time.Time
	SummaryPeriod   string
	EmailsSent      int
	EmailsOpened    int
	EmailsClicked   int
	FormsSubmitted  int
	PagesViewed     int
	TotalActivities int
	WasActive       bool
	EngagementScore int
	ScoreChange     int
	StageAtStart    string
	StageAtEnd      string
	StageChanged    bool
}

const summaryColumns = `id, lead_id, summary_date, summary_period, emails_sent, emails_opened,
	emails_clicked, forms_submitted, pages_viewed, total_activities, was_active,
	engagement_score, score_change, stage_at_start, stage_at_end, stage_changed, created_at`

func scanSummary(row pgx.Row) (ActivitySummary, error) {
	var s ActivitySummary
	err := row.Scan(
		&s.ID, &s.LeadID, &s.SummaryDate, &s.SummaryPeriod, &s.EmailsSent, &s.EmailsOpened,
		&s.EmailsClicked, &s.FormsSubmitted, &s.PagesViewed, &s.TotalActivities, &s.WasActive,
		&s.EngagementScore, &s.ScoreChange, &s.StageAtStart, &s.StageAtEnd, &s.StageChanged,
		&s.CreatedAt,
	)
	return s, err
}

func (r *Repository) CreateActivitySummary(ctx context.Context, params CreateActivitySummaryParams) (ActivitySummary, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO lead_activity_summary (
			lead_id, summary_date, summary_period, emails_sent, emails_opened, emails_clicked,
			forms_submitted, pages_viewed, total_activities, was_active, engagement_score,
			score_change, stage_at_start, stage_at_end, stage_changed
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING `+summaryColumns,
		params.LeadID, params.SummaryDate, params.SummaryPeriod, params.EmailsSent,
		params.EmailsOpened, params.EmailsClicked, params.FormsSubmitted, params.PagesViewed,
		params.TotalActivities, params.WasActive, params.EngagementScore, params.ScoreChange,
		params.StageAtStart, params.StageAtEnd, params.StageChanged,
	)
	return scanSummary(row)
}

// ListActivitySummaries returns summaries for a lead, newest first.
func (r *Repository) ListActivitySummaries(ctx context.Context, leadID uuid.UUID, period string) ([]ActivitySummary, error) {
	query := `
		SELECT ` + summaryColumns + `
		FROM lead_activity_summary
		WHERE lead_id = $1`
	args := []interface{}{leadID}
	if period != "" {
		query += ` AND summary_period = $2`
		args = append(args, period)
	}
	query += ` ORDER BY summary_date DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]ActivitySummary, 0)
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}
