// Package service provides the minimal lead store the tracking engine hangs
// off: creation with phone normalization, and lookup.
package service

import (
	"context"

	"leadtrack_backend/internal/events"
	"leadtrack_backend/internal/leads/repository"
	"leadtrack_backend/platform/logger"
	"leadtrack_backend/platform/phone"

	"github.com/google/uuid"
)

type CreateParams struct {
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

type Service struct {
	repo repository.LeadStore
	bus  events.Bus
	log  *logger.Logger
}

func New(repo repository.LeadStore, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log}
}

// Create stores a new lead. Phone numbers are normalized to E.164 when they
// parse; unparseable numbers are kept as entered.
func (s *Service) Create(ctx context.Context, params CreateParams) (repository.Lead, error) {
	if params.Phone != nil && *params.Phone != "" {
		normalized := phone.NormalizeE164(*params.Phone)
		params.Phone = &normalized
	}

	lead, err := s.repo.CreateLead(ctx, repository.CreateLeadParams{
		Email:        params.Email,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		Phone:        params.Phone,
		Location:     params.Location,
		SportType:    params.SportType,
		CustomerType: params.CustomerType,
		Interests:    params.Interests,
		Source:       params.Source,
		EmailConsent: params.EmailConsent,
		SMSConsent:   params.SMSConsent,
	})
	if err != nil {
		return repository.Lead{}, err
	}

	s.log.Info("lead created", "lead_id", lead.ID.String())

	if s.bus != nil {
		source := ""
		if lead.Source != nil {
			source = *lead.Source
		}
		s.bus.Publish(ctx, events.LeadCreated{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    lead.ID,
			Source:    source,
		})
	}

	return lead, nil
}

// Get returns a lead by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (repository.Lead, error) {
	return s.repo.GetLead(ctx, id)
}
