// Package lifecycle manages stage transitions through the lead funnel and
// keeps the per-stage history windows consistent.
package lifecycle

import (
	"context"
	"errors"
	"time"

	"leadtrack_backend/internal/events"
	"leadtrack_backend/internal/leads/repository"
	"leadtrack_backend/platform/logger"

	"github.com/google/uuid"
)

// JourneyRefresher recomputes the journey rollup after a transition.
type JourneyRefresher interface {
	Refresh(ctx context.Context, leadID uuid.UUID) (repository.JourneyRecord, error)
}

type Service struct {
	repo    repository.LifecycleRepository
	journey JourneyRefresher
	bus     events.Bus
	log     *logger.Logger
}

func New(repo repository.LifecycleRepository, journey JourneyRefresher, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, journey: journey, bus: bus, log: log}
}

// Transition closes the lead's current stage window, opens a new one, and
// syncs the denormalized status on the lead. Stage values outside the known
// set are accepted; campaigns define their own stages.
func (s *Service) Transition(ctx context.Context, leadID uuid.UUID, newStage string, reason, triggeredBy *string) (repository.LifecycleRecord, error) {
	if _, err := s.repo.GetLead(ctx, leadID); err != nil {
		return repository.LifecycleRecord{}, err
	}

	now := time.Now().UTC()

	var previousStage *string
	current, err := s.repo.GetCurrentLifecycle(ctx, leadID)
	switch {
	case err == nil:
		duration := int(now.Sub(current.EnteredAt).Hours() / 24)
		if err := s.repo.CloseLifecycle(ctx, current.ID, now, duration); err != nil {
			return repository.LifecycleRecord{}, err
		}
		stage := current.Stage
		previousStage = &stage
	case errors.Is(err, repository.ErrNoCurrentStage):
		// First transition for this lead.
	default:
		return repository.LifecycleRecord{}, err
	}

	record, err := s.repo.CreateLifecycle(ctx, repository.CreateLifecycleParams{
		LeadID:           leadID,
		Stage:            newStage,
		PreviousStage:    previousStage,
		EnteredAt:        now,
		TransitionReason: reason,
		TriggeredBy:      triggeredBy,
	})
	if err != nil {
		return repository.LifecycleRecord{}, err
	}

	if err := s.repo.UpdateLeadStatus(ctx, leadID, newStage); err != nil {
		return repository.LifecycleRecord{}, err
	}

	if s.journey != nil {
		if _, err := s.journey.Refresh(ctx, leadID); err != nil {
			s.log.Error("journey refresh after transition failed", "lead_id", leadID.String(), "error", err)
		}
	}

	s.log.Info("lead stage transitioned",
		"lead_id", leadID.String(),
		"stage", newStage,
		"previous_stage", derefOr(previousStage, ""),
	)

	if s.bus != nil {
		s.bus.Publish(ctx, events.LeadStageChanged{
			BaseEvent:     events.NewBaseEvent(),
			LeadID:        leadID,
			Stage:         newStage,
			PreviousStage: derefOr(previousStage, ""),
			Reason:        derefOr(reason, ""),
			TriggeredBy:   derefOr(triggeredBy, ""),
		})
	}

	return record, nil
}

// Current returns the lead's open stage window.
func (s *Service) Current(ctx context.Context, leadID uuid.UUID) (repository.LifecycleRecord, error) {
	if _, err := s.repo.GetLead(ctx, leadID); err != nil {
		return repository.LifecycleRecord{}, err
	}
	return s.repo.GetCurrentLifecycle(ctx, leadID)
}

// History returns the lead's full stage history, newest first.
func (s *Service) History(ctx context.Context, leadID uuid.UUID) ([]repository.LifecycleRecord, error) {
	if _, err := s.repo.GetLead(ctx, leadID); err != nil {
		return nil, err
	}
	return s.repo.ListLifecycle(ctx, leadID)
}

// StageAt returns the stage the lead was in at a given instant.
func (s *Service) StageAt(ctx context.Context, leadID uuid.UUID, at time.Time) (string, error) {
	return s.repo.GetStageAt(ctx, leadID, at)
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
