// Package engagement records interaction events against leads and produces
// periodic activity summaries.
package engagement

import (
	"context"
	"errors"
	"time"

	"leadtrack_backend/internal/events"
	"leadtrack_backend/internal/leads/domain"
	"leadtrack_backend/internal/leads/repository"
	"leadtrack_backend/platform/logger"

	"github.com/google/uuid"
)

// defaultHistoryDays bounds the history query when no window is given.
const defaultHistoryDays = 90

// JourneyRefresher recomputes the journey rollup after an engagement lands.
type JourneyRefresher interface {
	Refresh(ctx context.Context, leadID uuid.UUID) (repository.JourneyRecord, error)
}

type RecordParams struct {
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
	IPAddress         *string
	UserAgent         *string
	DeviceType        *string
	Location          *string
}

type Service struct {
	repo    repository.EngagementRepository
	journey JourneyRefresher
	bus     events.Bus
	log     *logger.Logger
}

func New(repo repository.EngagementRepository, journey JourneyRefresher, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, journey: journey, bus: bus, log: log}
}

// Record appends an engagement event and updates the lead's recency markers.
// Any engagement type is accepted; the known types just score better.
func (s *Service) Record(ctx context.Context, leadID uuid.UUID, params RecordParams) (repository.EngagementEvent, error) {
	if _, err := s.repo.GetLead(ctx, leadID); err != nil {
		return repository.EngagementEvent{}, err
	}

	now := time.Now().UTC()
	event, err := s.repo.CreateEngagement(ctx, repository.CreateEngagementParams{
		LeadID:            leadID,
		EngagementType:    params.EngagementType,
		Channel:           params.Channel,
		SourceType:        params.SourceType,
		SourceID:          params.SourceID,
		SourceName:        params.SourceName,
		Title:             params.Title,
		Description:       params.Description,
		Metadata:          params.Metadata,
		Value:             params.Value,
		RevenueAttributed: params.RevenueAttributed,
		EngagedAt:         now,
		IPAddress:         params.IPAddress,
		UserAgent:         params.UserAgent,
		DeviceType:        params.DeviceType,
		Location:          params.Location,
	})
	if err != nil {
		return repository.EngagementEvent{}, err
	}

	if err := s.repo.TouchLead(ctx, leadID, now); err != nil {
		return repository.EngagementEvent{}, err
	}

	// No-op when the lead has never been transitioned.
	if err := s.repo.IncrementTouchpoints(ctx, leadID); err != nil {
		s.log.Error("touchpoint increment failed", "lead_id", leadID.String(), "error", err)
	}

	if s.journey != nil {
		if _, err := s.journey.Refresh(ctx, leadID); err != nil {
			s.log.Error("journey refresh after engagement failed", "lead_id", leadID.String(), "error", err)
		}
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.EngagementRecorded{
			BaseEvent:      events.NewBaseEvent(),
			LeadID:         leadID,
			EngagementID:   event.ID,
			EngagementType: event.EngagementType,
			Channel:        derefOr(event.Channel, ""),
			EngagedAt:      event.EngagedAt,
		})
	}

	return event, nil
}

// History returns recent engagements, newest first. days <= 0 falls back to
// the 90-day default; types filters when non-empty.
func (s *Service) History(ctx context.Context, leadID uuid.UUID, days int, types []string) ([]repository.EngagementEvent, error) {
	if _, err := s.repo.GetLead(ctx, leadID); err != nil {
		return nil, err
	}
	if days <= 0 {
		days = defaultHistoryDays
	}
	since := time.Now().UTC().AddDate(0, 0, -days)
	return s.repo.ListEngagementsSince(ctx, leadID, since, types)
}

// summaryWindowDays maps a summary period to its window length.
func summaryWindowDays(period string) int {
	switch period {
	case "weekly":
		return 7
	case "monthly":
		return 30
	default:
		return 1
	}
}

// Summarize rolls up the lead's activity over the trailing period window and
// stores it with stage and score snapshots.
func (s *Service) Summarize(ctx context.Context, leadID uuid.UUID, period string) (repository.ActivitySummary, error) {
	if _, err := s.repo.GetLead(ctx, leadID); err != nil {
		return repository.ActivitySummary{}, err
	}

	now := time.Now().UTC()
	start := now.AddDate(0, 0, -summaryWindowDays(period))

	history, err := s.repo.ListEngagementsBetween(ctx, leadID, start, now)
	if err != nil {
		return repository.ActivitySummary{}, err
	}

	counts := countActivity(history)

	stageAtStart, err := s.repo.GetStageAt(ctx, leadID, start)
	if err != nil {
		return repository.ActivitySummary{}, err
	}
	stageAtEnd, err := s.repo.GetStageAt(ctx, leadID, now)
	if err != nil {
		return repository.ActivitySummary{}, err
	}

	score := 0
	scoreChange := 0
	if record, err := s.repo.GetScore(ctx, leadID); err == nil {
		score = record.TotalScore
		scoreChange = record.ScoreChangeAmount
	} else if !errors.Is(err, repository.ErrNoScore) {
		return repository.ActivitySummary{}, err
	}

	return s.repo.CreateActivitySummary(ctx, repository.CreateActivitySummaryParams{
		LeadID:          leadID,
		SummaryDate:     now,
		SummaryPeriod:   period,
		EmailsSent:      counts.emailsSent,
		EmailsOpened:    counts.emailsOpened,
		EmailsClicked:   counts.emailsClicked,
		FormsSubmitted:  counts.forms,
		PagesViewed:     counts.pages,
		TotalActivities: len(history),
		WasActive:       len(history) > 0,
		EngagementScore: score,
		ScoreChange:     scoreChange,
		StageAtStart:    stageAtStart,
		StageAtEnd:      stageAtEnd,
		StageChanged:    stageAtStart != stageAtEnd,
	})
}

// ListSummaries returns stored summaries, newest first. period filters when
// non-empty.
func (s *Service) ListSummaries(ctx context.Context, leadID uuid.UUID, period string) ([]repository.ActivitySummary, error) {
	if _, err := s.repo.GetLead(ctx, leadID); err != nil {
		return nil, err
	}
	return s.repo.ListActivitySummaries(ctx, leadID, period)
}

type activityCounts struct {
	emailsSent    int
	emailsOpened  int
	emailsClicked int
	forms         int
	pages         int
}

func countActivity(history []repository.EngagementEvent) activityCounts {
	var counts activityCounts
	for _, event := range history {
		switch event.EngagementType {
		case domain.EngagementEmailSent:
			counts.emailsSent++
		case domain.EngagementEmailOpened:
			counts.emailsOpened++
		case domain.EngagementEmailClicked:
			counts.emailsClicked++
		case domain.EngagementFormSubmitted:
			counts.forms++
		case domain.EngagementPageViewed:
			counts.pages++
		}
	}
	return counts
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
