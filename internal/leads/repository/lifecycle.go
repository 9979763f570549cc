package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrNoCurrentStage is returned when a lead has never been transitioned.
var ErrNoCurrentStage = errors.New("no current lifecycle stage")

// LifecycleRecord is one row per (lead, stage, time window). At most one
// record per lead has IsCurrentStage set.
type LifecycleRecord struct {
	ID               uuid.UUID
	LeadID           uuid.UUID
	Stage            string
	PreviousStage    *string
	EnteredAt        time.Time
	ExitedAt         *time.Time
	DurationDays     *int
	TransitionReason *string
	TriggeredBy      *string
	TouchpointsCount int
	EngagementScore  int
	IsCurrentStage   bool
	CreatedAt        time.Time
}

type CreateLifecycleParams struct {
	LeadID           uuid.UUID
	Stage            string
	PreviousStage    *string
	EnteredAt        time.Time
	TransitionReason *string
	TriggeredBy      *string
}

const lifecycleColumns = `id, lead_id, stage, previous_stage, entered_at, exited_at, duration_days,
	transition_reason, triggered_by, touchpoints_count, engagement_score, is_current_stage, created_at`

func scanLifecycle(row pgx.Row) (LifecycleRecord, error) {
	var rec LifecycleRecord
	err := row.Scan(
		&rec.ID, &rec.LeadID, &rec.Stage, &rec.PreviousStage, &rec.EnteredAt, &rec.ExitedAt,
		&rec.DurationDays, &rec.TransitionReason, &rec.TriggeredBy, &rec.TouchpointsCount,
		&rec.EngagementScore, &rec.IsCurrentStage, &rec.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return LifecycleRecord{}, ErrNoCurrentStage
	}
	return rec, err
}

// GetCurrentLifecycle returns the single is_current_stage record for the lead.
func (r *Repository) GetCurrentLifecycle(ctx context.Context, leadID uuid.UUID) (LifecycleRecord, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+lifecycleColumns+`
		FROM lead_lifecycle
		WHERE lead_id = $1 AND is_current_stage = true
	`, leadID)
	return scanLifecycle(row)
}

// CloseLifecycle stamps the exit time and duration on a record and clears its
// current flag.
func (r *Repository) CloseLifecycle(ctx context.Context, id uuid.UUID, exitedAt time.Time, durationDays int) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE lead_lifecycle
		SET exited_at = $2, duration_days = $3, is_current_stage = false
		WHERE id = $1
	`, id, exitedAt, durationDays)
	return err
}

// CreateLifecycle opens a new current stage record with zeroed counters.
func (r *Repository) CreateLifecycle(ctx context.Context, params CreateLifecycleParams) (LifecycleRecord, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO lead_lifecycle (
			lead_id, stage, previous_stage, entered_at, transition_reason, triggered_by,
			touchpoints_count, engagement_score, is_current_stage
		) VALUES ($1, $2, $3, $4, $5, $6, 0, 0, true)
		RETURNING `+lifecycleColumns,
		params.LeadID, params.Stage, params.PreviousStage, params.EnteredAt,
		params.TransitionReason, params.TriggeredBy,
	)
	return scanLifecycle(row)
}

// ListLifecycle returns the lead's full stage history, newest first.
func (r *Repository) ListLifecycle(ctx context.Context, leadID uuid.UUID) ([]LifecycleRecord, error) {
	return r.listLifecycle(ctx, leadID, "DESC")
}

// ListLifecycleAsc returns the lead's full stage history, oldest first.
func (r *Repository) ListLifecycleAsc(ctx context.Context, leadID uuid.UUID) ([]LifecycleRecord, error) {
	return r.listLifecycle(ctx, leadID, "ASC")
}

func (r *Repository) listLifecycle(ctx context.Context, leadID uuid.UUID, order string) ([]LifecycleRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+lifecycleColumns+`
		FROM lead_lifecycle
		WHERE lead_id = $1
		ORDER BY entered_at `+order,
		leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]LifecycleRecord, 0)
	for rows.Next() {
		rec, err := scanLifecycle(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// IncrementTouchpoints bumps the touchpoint counter on the lead's current
// stage record, if one exists.
func (r *Repository) IncrementTouchpoints(ctx context.Context, leadID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE lead_lifecycle
		SET touchpoints_count = touchpoints_count + 1
		WHERE lead_id = $1 AND is_current_stage = true
	`, leadID)
	return err
}

// GetStageAt returns the stage the lead was in at a given instant, based on
// the lifecycle windows. Returns "new" when no window covers the instant.
func (r *Repository) GetStageAt(ctx context.Context, leadID uuid.UUID, at time.Time) (string, error) {
	var stage string
	err := r.pool.QueryRow(ctx, `
		SELECT stage
		FROM lead_lifecycle
		WHERE lead_id = $1 AND entered_at <= $2 AND (exited_at IS NULL OR exited_at > $2)
		ORDER BY entered_at DESC
		LIMIT 1
	`, leadID, at).Scan(&stage)
	if errors.Is(err, pgx.ErrNoRows) {
		return "new", nil
	}
	if err != nil {
		return "", err
	}
	return stage, nil
}
