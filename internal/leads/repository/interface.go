package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Segregated repository interfaces. Services depend on the slice they use,
// not on the full Repository.

type LeadStore interface {
	CreateLead(ctx context.Context, params CreateLeadParams) (Lead, error)
	GetLead(ctx context.Context, id uuid.UUID) (Lead, error)
	ListLeadIDs(ctx context.Context) ([]uuid.UUID, error)
	UpdateLeadStatus(ctx context.Context, id uuid.UUID, status string) error
	TouchLead(ctx context.Context, id uuid.UUID, at time.Time) error
	SetLeadEngagementScore(ctx context.Context, id uuid.UUID, score int) error
}

type LifecycleStore interface {
	GetCurrentLifecycle(ctx context.Context, leadID uuid.UUID) (LifecycleRecord, error)
	CloseLifecycle(ctx context.Context, id uuid.UUID, exitedAt time.Time, durationDays int) error
	CreateLifecycle(ctx context.Context, params CreateLifecycleParams) (LifecycleRecord, error)
	ListLifecycle(ctx context.Context, leadID uuid.UUID) ([]LifecycleRecord, error)
	ListLifecycleAsc(ctx context.Context, leadID uuid.UUID) ([]LifecycleRecord, error)
	IncrementTouchpoints(ctx context.Context, leadID uuid.UUID) error
	GetStageAt(ctx context.Context, leadID uuid.UUID, at time.Time) (string, error)
}

type EngagementStore interface {
	CreateEngagement(ctx context.Context, params CreateEngagementParams) (EngagementEvent, error)
	ListEngagements(ctx context.Context, leadID uuid.UUID) ([]EngagementEvent, error)
	ListEngagementsSince(ctx context.Context, leadID uuid.UUID, since time.Time, types []string) ([]EngagementEvent, error)
	ListEngagementsBetween(ctx context.Context, leadID uuid.UUID, start, end time.Time) ([]EngagementEvent, error)
}

type ScoreStore interface {
	GetScore(ctx context.Context, leadID uuid.UUID) (ScoreRecord, error)
	SaveScore(ctx context.Context, params SaveScoreParams) (ScoreRecord, error)
	ListStaleScoreLeadIDs(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error)
}

type AttributionStore interface {
	CreateAttribution(ctx context.Context, params CreateAttributionParams) (AttributionRecord, error)
	ListAttributions(ctx context.Context, leadID uuid.UUID) ([]AttributionRecord, error)
	SumAttributedRevenue(ctx context.Context, leadID uuid.UUID) (float64, error)
}

type JourneyStore interface {
	GetJourney(ctx context.Context, leadID uuid.UUID) (JourneyRecord, error)
	UpsertJourney(ctx context.Context, params UpsertJourneyParams) (JourneyRecord, error)
}

type SummaryStore interface {
	CreateActivitySummary(ctx context.Context, params CreateActivitySummaryParams) (ActivitySummary, error)
	ListActivitySummaries(ctx context.Context, leadID uuid.UUID, period string) ([]ActivitySummary, error)
}

// Composite interfaces consumed by individual services.

type ScoringRepository interface {
	LeadStore
	EngagementStore
	ScoreStore
}

type LifecycleRepository interface {
	LeadStore
	LifecycleStore
}

type EngagementRepository interface {
	LeadStore
	LifecycleStore
	EngagementStore
	SummaryStore
	ScoreStore
}

type AttributionRepository interface {
	LeadStore
	EngagementStore
	AttributionStore
}

type JourneyRepository interface {
	LeadStore
	LifecycleStore
	EngagementStore
	JourneyStore
}

// Store is the full repository surface.
type Store interface {
	LeadStore
	LifecycleStore
	EngagementStore
	ScoreStore
	AttributionStore
	JourneyStore
	SummaryStore
	Ping(ctx context.Context) error
}

var _ Store = (*Repository)(nil)
