// Package leads provides the lead tracking bounded context module.
// This file defines the module that encapsulates all tracking setup and
// route registration.
package leads

import (
	"context"

	"leadtrack_backend/internal/events"
	apphttp "leadtrack_backend/internal/http"
	"leadtrack_backend/internal/leads/attribution"
	"leadtrack_backend/internal/leads/engagement"
	"leadtrack_backend/internal/leads/handler"
	"leadtrack_backend/internal/leads/journey"
	"leadtrack_backend/internal/leads/lifecycle"
	"leadtrack_backend/internal/leads/repository"
	"leadtrack_backend/internal/leads/scoring"
	"leadtrack_backend/internal/leads/service"
	"leadtrack_backend/platform/config"
	"leadtrack_backend/platform/logger"
	"leadtrack_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the lead tracking bounded context implementing http.Module.
type Module struct {
	handler     *handler.Handler
	repo        *repository.Repository
	leads       *service.Service
	engagements *engagement.Service
	lifecycles  *lifecycle.Service
	scores      *scoring.Service
	attribution *attribution.Service
	journeys    *journey.Service
}

// NewModule creates and initializes the tracking module with all its
// dependencies.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, val *validator.Validator, cfg *config.Config, log *logger.Logger) (*Module, error) {
	repo := repository.New(pool)

	journeySvc := journey.New(repo, log)
	leadSvc := service.New(repo, eventBus, log)
	engagementSvc := engagement.New(repo, journeySvc, eventBus, log)
	lifecycleSvc := lifecycle.New(repo, journeySvc, eventBus, log)
	scoringSvc := scoring.New(repo, eventBus, log, cfg.GetDefaultDecayRate())
	attributionSvc := attribution.New(repo, eventBus, log)

	// Every recorded engagement triggers an async score recalculation.
	eventBus.Subscribe(events.EngagementRecorded{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		e, ok := event.(events.EngagementRecorded)
		if !ok {
			return nil
		}

		go func() {
			if _, err := scoringSvc.Recalculate(context.Background(), e.LeadID); err != nil {
				log.Error("score recalculation failed", "error", err, "leadId", e.LeadID)
			}
		}()

		return nil
	}))

	h := handler.New(leadSvc, engagementSvc, lifecycleSvc, scoringSvc, attributionSvc, journeySvc, val)

	return &Module{
		handler:     h,
		repo:        repo,
		leads:       leadSvc,
		engagements: engagementSvc,
		lifecycles:  lifecycleSvc,
		scores:      scoringSvc,
		attribution: attributionSvc,
		journeys:    journeySvc,
	}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "tracking"
}

// Repository returns the shared repository for readiness checks.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// ScoringService returns the scoring service for external use.
func (m *Module) ScoringService() *scoring.Service {
	return m.scores
}

// JourneyService returns the journey service for external use.
func (m *Module) JourneyService() *journey.Service {
	return m.journeys
}

// RegisterRoutes mounts tracking routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// All tracking routes require authentication
	leadsGroup := ctx.Protected.Group("/leads")
	m.handler.RegisterLeadRoutes(leadsGroup)

	trackingGroup := ctx.Protected.Group("/tracking")
	m.handler.RegisterTrackingRoutes(trackingGroup)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
