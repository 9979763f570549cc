// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"leadtrack_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Lead Tracking Domain Events
// =============================================================================

// LeadCreated is published when a new lead enters the system.
type LeadCreated struct {
	BaseEvent
	LeadID uuid.UUID `json:"leadId"`
	Source string    `json:"source,omitempty"`
}

func (e LeadCreated) EventName() string { return "leads.lead.created" }

// EngagementRecorded is published after an engagement event is appended to a
// lead's history.
type EngagementRecorded struct {
	BaseEvent
	LeadID         uuid.UUID `json:"leadId"`
	EngagementID   uuid.UUID `json:"engagementId"`
	EngagementType string    `json:"engagementType"`
	Channel        string    `json:"channel,omitempty"`
	EngagedAt      time.Time `json:"engagedAt"`
}

func (e EngagementRecorded) EventName() string { return "leads.engagement.recorded" }

// LeadStageChanged is published when a lead transitions to a new lifecycle stage.
type LeadStageChanged struct {
	BaseEvent
	LeadID        uuid.UUID `json:"leadId"`
	Stage         string    `json:"stage"`
	PreviousStage string    `json:"previousStage,omitempty"`
	Reason        string    `json:"reason,omitempty"`
	TriggeredBy   string    `json:"triggeredBy,omitempty"`
}

func (e LeadStageChanged) EventName() string { return "leads.stage.changed" }

// LeadScoreCalculated is published after a score recalculation completes.
type LeadScoreCalculated struct {
	BaseEvent
	LeadID      uuid.UUID `json:"leadId"`
	TotalScore  int       `json:"totalScore"`
	Grade       string    `json:"grade"`
	Temperature string    `json:"temperature"`
	Changed     bool      `json:"changed"`
}

func (e LeadScoreCalculated) EventName() string { return "leads.score.calculated" }

// LeadConverted is published when a conversion is attributed across the
// lead's touchpoint history.
type LeadConverted struct {
	BaseEvent
	LeadID           uuid.UUID `json:"leadId"`
	ConversionType   string    `json:"conversionType"`
	ConversionValue  float64   `json:"conversionValue"`
	AttributionModel string    `json:"attributionModel"`
}

func (e LeadConverted) EventName() string { return "leads.conversion.attributed" }
