// Package transport defines the request and response DTOs for the tracking
// API, with validation at the edge.
package transport

import (
	"encoding/json"
	"time"

	"leadtrack_backend/internal/leads/repository"

	"github.com/google/uuid"
)

// CreateLeadRequest creates a new lead.
type CreateLeadRequest struct {
	Email        *string `json:"email" validate:"omitempty,email"`
	FirstName    *string `json:"firstName" validate:"omitempty,max=100"`
	LastName     *string `json:"lastName" validate:"omitempty,max=100"`
	Phone        *string `json:"phone" validate:"omitempty,max=32"`
	Location     *string `json:"location" validate:"omitempty,max=255"`
	SportType    *string `json:"sportType" validate:"omitempty,max=100"`
	CustomerType *string `json:"customerType" validate:"omitempty,max=100"`
	Interests    *string `json:"interests" validate:"omitempty,max=1000"`
	Source       *string `json:"source" validate:"omitempty,max=100"`
	EmailConsent bool    `json:"emailConsent"`
	SMSConsent   bool    `json:"smsConsent"`
}

// RecordEngagementRequest appends an engagement event to a lead.
type RecordEngagementRequest struct {
	EngagementType    string          `json:"engagementType" validate:"required,min=1,max=100"`
	Channel           *string         `json:"channel" validate:"omitempty,max=100"`
	SourceType        *string         `json:"sourceType" validate:"omitempty,max=100"`
	SourceID          *uuid.UUID      `json:"sourceId"`
	SourceName        *string         `json:"sourceName" validate:"omitempty,max=255"`
	Title             *string         `json:"title" validate:"omitempty,max=255"`
	Description       *string         `json:"description" validate:"omitempty,max=2000"`
	Metadata          json.RawMessage `json:"metadata"`
	Value             int             `json:"value" validate:"gte=0,lte=100"`
	RevenueAttributed *float64        `json:"revenueAttributed" validate:"omitempty,gte=0"`
	IPAddress         *string         `json:"ipAddress" validate:"omitempty,max=64"`
	UserAgent         *string         `json:"userAgent" validate:"omitempty,max=512"`
	DeviceType        *string         `json:"deviceType" validate:"omitempty,max=64"`
	Location          *string         `json:"location" validate:"omitempty,max=255"`
}

// TransitionRequest moves a lead to a new lifecycle stage.
type TransitionRequest struct {
	Stage       string  `json:"stage" validate:"required,oneof=new contacted qualified engaged opportunity customer churned lost"`
	Reason      *string `json:"reason" validate:"omitempty,max=500"`
	TriggeredBy *string `json:"triggeredBy" validate:"omitempty,max=255"`
}

// AttributeConversionRequest records a conversion and distributes its credit.
type AttributeConversionRequest struct {
	ConversionType  string     `json:"conversionType" validate:"required,min=1,max=100"`
	ConversionID    *uuid.UUID `json:"conversionId"`
	ConversionValue float64    `json:"conversionValue" validate:"gte=0"`
	Model           string     `json:"model" validate:"required,oneof=first_touch last_touch linear time_decay u_shaped w_shaped"`
}

// SummarizeRequest rolls up a lead's recent activity.
type SummarizeRequest struct {
	Period string `json:"period" validate:"omitempty,oneof=daily weekly monthly"`
}

// LeadResponse is the API shape of a lead.
type LeadResponse struct {
	ID              uuid.UUID  `json:"id"`
	Email           *string    `json:"email,omitempty"`
	FirstName       *string    `json:"firstName,omitempty"`
	LastName        *string    `json:"lastName,omitempty"`
	Phone           *string    `json:"phone,omitempty"`
	Location        *string    `json:"location,omitempty"`
	SportType       *string    `json:"sportType,omitempty"`
	CustomerType    *string    `json:"customerType,omitempty"`
	Interests       *string    `json:"interests,omitempty"`
	Source          *string    `json:"source,omitempty"`
	Status          string     `json:"status"`
	EmailConsent    bool       `json:"emailConsent"`
	SMSConsent      bool       `json:"smsConsent"`
	EngagementScore int        `json:"engagementScore"`
	LastContactDate *time.Time `json:"lastContactDate,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func FromLead(lead repository.Lead) LeadResponse {
	return LeadResponse{
		ID:              lead.ID,
		Email:           lead.Email,
		FirstName:       lead.FirstName,
		LastName:        lead.LastName,
		Phone:           lead.Phone,
		Location:        lead.Location,
		SportType:       lead.SportType,
		CustomerType:    lead.CustomerType,
		Interests:       lead.Interests,
		Source:          lead.Source,
		Status:          lead.Status,
		EmailConsent:    lead.EmailConsent,
		SMSConsent:      lead.SMSConsent,
		EngagementScore: lead.EngagementScore,
		LastContactDate: lead.LastContactDate,
		CreatedAt:       lead.CreatedAt,
		UpdatedAt:       lead.UpdatedAt,
	}
}

// EngagementResponse is the API shape of one engagement event.
type EngagementResponse struct {
	ID                uuid.UUID       `json:"id"`
	LeadID            uuid.UUID       `json:"leadId"`
	EngagementType    string          `json:"engagementType"`
	Channel           *string         `json:"channel,omitempty"`
	SourceType        *string         `json:"sourceType,omitempty"`
	SourceID          *uuid.UUID      `json:"sourceId,omitempty"`
	SourceName        *string         `json:"sourceName,omitempty"`
	Title             *string         `json:"title,omitempty"`
	Description       *string         `json:"description,omitempty"`
	Metadata          json.RawMessage `json:"metadata,omitempty"`
	Value             int             `json:"value"`
	RevenueAttributed *float64        `json:"revenueAttributed,omitempty"`
	EngagedAt         time.Time       `json:"engagedAt"`
	CreatedAt         time.Time       `json:"createdAt"`
}

func FromEngagement(event repository.EngagementEvent) EngagementResponse {
	return EngagementResponse{
		ID:                event.ID,
		LeadID:            event.LeadID,
		EngagementType:    event.EngagementType,
		Channel:           event.Channel,
		SourceType:        event.SourceType,
		SourceID:          event.SourceID,
		SourceName:        event.SourceName,
		Title:             event.Title,
		Description:       event.Description,
		Metadata:          json.RawMessage(event.Metadata),
		Value:             event.Value,
		RevenueAttributed: event.RevenueAttributed,
		EngagedAt:         event.EngagedAt,
		CreatedAt:         event.CreatedAt,
	}
}

func FromEngagements(events []repository.EngagementEvent) []EngagementResponse {
	out := make([]EngagementResponse, len(events))
	for i, event := range events {
		out[i] = FromEngagement(event)
	}
	return out
}

// LifecycleResponse is the API shape of one stage window.
type LifecycleResponse struct {
	ID               uuid.UUID  `json:"id"`
	LeadID           uuid.UUID  `json:"leadId"`
	Stage            string     `json:"stage"`
	PreviousStage    *string    `json:"previousStage,omitempty"`
	EnteredAt        time.Time  `json:"enteredAt"`
	ExitedAt         *time.Time `json:"exitedAt,omitempty"`
	DurationDays     *int       `json:"durationDays,omitempty"`
	TransitionReason *string    `json:"transitionReason,omitempty"`
	TriggeredBy      *string    `json:"triggeredBy,omitempty"`
	TouchpointsCount int        `json:"touchpointsCount"`
	IsCurrentStage   bool       `json:"isCurrentStage"`
}

func FromLifecycle(rec repository.LifecycleRecord) LifecycleResponse {
	return LifecycleResponse{
		ID:               rec.ID,
		LeadID:           rec.LeadID,
		Stage:            rec.Stage,
		PreviousStage:    rec.PreviousStage,
		EnteredAt:        rec.EnteredAt,
		ExitedAt:         rec.ExitedAt,
		DurationDays:     rec.DurationDays,
		TransitionReason: rec.TransitionReason,
		TriggeredBy:      rec.TriggeredBy,
		TouchpointsCount: rec.TouchpointsCount,
		IsCurrentStage:   rec.IsCurrentStage,
	}
}

func FromLifecycles(records []repository.LifecycleRecord) []LifecycleResponse {
	out := make([]LifecycleResponse, len(records))
	for i, rec := range records {
		out[i] = FromLifecycle(rec)
	}
	return out
}

// ScoreResponse is the API shape of the composite score.
type ScoreResponse struct {
	LeadID            uuid.UUID  `json:"leadId"`
	TotalScore        int        `json:"totalScore"`
	DemographicScore  int        `json:"demographicScore"`
	BehavioralScore   int        `json:"behavioralScore"`
	FirmographicScore int        `json:"firmographicScore"`
	EngagementScore   int        `json:"engagementScore"`
	IntentScore       int        `json:"intentScore"`
	Grade             string     `json:"grade"`
	Temperature       string     `json:"temperature"`
	ScoreChanged      bool       `json:"scoreChanged"`
	ScoreChangeAmount int        `json:"scoreChangeAmount"`
	PreviousScore     *int       `json:"previousScore,omitempty"`
	LastActivityDate  *time.Time `json:"lastActivityDate,omitempty"`
	ScoreCalculatedAt time.Time  `json:"scoreCalculatedAt"`
	DecayRate         float64    `json:"decayRate"`
}

func FromScore(rec repository.ScoreRecord) ScoreResponse {
	return ScoreResponse{
		LeadID:            rec.LeadID,
		TotalScore:        rec.TotalScore,
		DemographicScore:  rec.DemographicScore,
		BehavioralScore:   rec.BehavioralScore,
		FirmographicScore: rec.FirmographicScore,
		EngagementScore:   rec.EngagementScore,
		IntentScore:       rec.IntentScore,
		Grade:             rec.Grade,
		Temperature:       rec.Temperature,
		ScoreChanged:      rec.ScoreChanged,
		ScoreChangeAmount: rec.ScoreChangeAmount,
		PreviousScore:     rec.PreviousScore,
		LastActivityDate:  rec.LastActivityDate,
		ScoreCalculatedAt: rec.ScoreCalculatedAt,
		DecayRate:         rec.DecayRate,
	}
}

// AttributionResponse is the API shape of one recorded conversion. The stored
// touchpoint snapshot is passed through as-is.
type AttributionResponse struct {
	ID                    uuid.UUID       `json:"id"`
	LeadID                uuid.UUID       `json:"leadId"`
	ConversionType        string          `json:"conversionType"`
	ConversionID          *uuid.UUID      `json:"conversionId,omitempty"`
	ConversionValue       float64         `json:"conversionValue"`
	ConversionDate        time.Time       `json:"conversionDate"`
	AttributionModel      string          `json:"attributionModel"`
	Touchpoints           json.RawMessage `json:"touchpoints"`
	TouchpointCount       int             `json:"touchpointCount"`
	FirstTouchSource      *string         `json:"firstTouchSource,omitempty"`
	FirstTouchID          *uuid.UUID      `json:"firstTouchId,omitempty"`
	FirstTouchName        *string         `json:"firstTouchName,omitempty"`
	FirstTouchDate        time.Time       `json:"firstTouchDate"`
	FirstTouchWeight      float64         `json:"firstTouchWeight"`
	LastTouchSource       *string         `json:"lastTouchSource,omitempty"`
	LastTouchID           *uuid.UUID      `json:"lastTouchId,omitempty"`
	LastTouchName         *string         `json:"lastTouchName,omitempty"`
	LastTouchDate         time.Time       `json:"lastTouchDate"`
	LastTouchWeight       float64         `json:"lastTouchWeight"`
	PrimaryTouchpoint     json.RawMessage `json:"primaryTouchpoint,omitempty"`
	SecondaryTouchpoint   json.RawMessage `json:"secondaryTouchpoint,omitempty"`
	JourneyDurationDays   int             `json:"journeyDurationDays"`
	AvgTimeBetweenTouches *float64        `json:"avgTimeBetweenTouches,omitempty"`
	CreatedAt             time.Time       `json:"createdAt"`
}

func FromAttribution(rec repository.AttributionRecord) AttributionResponse {
	return AttributionResponse{
		ID:                    rec.ID,
		LeadID:                rec.LeadID,
		ConversionType:        rec.ConversionType,
		ConversionID:          rec.ConversionID,
		ConversionValue:       rec.ConversionValue,
		ConversionDate:        rec.ConversionDate,
		AttributionModel:      rec.AttributionModel,
		Touchpoints:           json.RawMessage(rec.Touchpoints),
		TouchpointCount:       rec.TouchpointCount,
		FirstTouchSource:      rec.FirstTouchSource,
		FirstTouchID:          rec.FirstTouchID,
		FirstTouchName:        rec.FirstTouchName,
		FirstTouchDate:        rec.FirstTouchDate,
		FirstTouchWeight:      rec.FirstTouchWeight,
		LastTouchSource:       rec.LastTouchSource,
		LastTouchID:           rec.LastTouchID,
		LastTouchName:         rec.LastTouchName,
		LastTouchDate:         rec.LastTouchDate,
		LastTouchWeight:       rec.LastTouchWeight,
		PrimaryTouchpoint:     json.RawMessage(rec.PrimaryTouchpoint),
		SecondaryTouchpoint:   json.RawMessage(rec.SecondaryTouchpoint),
		JourneyDurationDays:   rec.JourneyDurationDays,
		AvgTimeBetweenTouches: rec.AvgTimeBetweenTouches,
		CreatedAt:             rec.CreatedAt,
	}
}

func FromAttributions(records []repository.AttributionRecord) []AttributionResponse {
	out := make([]AttributionResponse, len(records))
	for i, rec := range records {
		out[i] = FromAttribution(rec)
	}
	return out
}

// JourneyResponse is the API shape of the journey rollup.
type JourneyResponse struct {
	LeadID                uuid.UUID `json:"leadId"`
	JourneyStart          time.Time `json:"journeyStart"`
	JourneyDurationDays   int       `json:"journeyDurationDays"`
	LastActivity          time.Time `json:"lastActivity"`
	DaysSinceLastActivity int       `json:"daysSinceLastActivity"`
	CurrentStage          string    `json:"currentStage"`

	TotalEngagements int             `json:"totalEngagements"`
	EmailEngagements int             `json:"emailEngagements"`
	FormSubmissions  int             `json:"formSubmissions"`
	PageViews        int             `json:"pageViews"`
	Purchases        int             `json:"purchases"`
	EngagementTrend  string          `json:"engagementTrend"`
	ChurnRisk        float64         `json:"churnRisk"`
	StagesCompleted  json.RawMessage `json:"stagesCompleted"`
	Milestones       json.RawMessage `json:"milestones"`
	TotalRevenue     float64         `json:"totalRevenue"`
	LifetimeValue    float64         `json:"lifetimeValue"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

func FromJourney(rec repository.JourneyRecord) JourneyResponse {
	return JourneyResponse{
		LeadID:                rec.LeadID,
		JourneyStart:          rec.JourneyStart,
		JourneyDurationDays:   rec.JourneyDurationDays,
		LastActivity:          rec.LastActivity,
		DaysSinceLastActivity: rec.DaysSinceLastActivity,
		CurrentStage:          rec.CurrentStage,

		TotalEngagements: rec.TotalEngagements,
		EmailEngagements: rec.EmailEngagements,
		FormSubmissions:  rec.FormSubmissions,
		PageViews:        rec.PageViews,
		Purchases:        rec.Purchases,
		EngagementTrend:  rec.EngagementTrend,
		ChurnRisk:        rec.ChurnRisk,
		StagesCompleted:  json.RawMessage(rec.StagesCompleted),
		Milestones:       json.RawMessage(rec.Milestones),
		TotalRevenue:     rec.TotalRevenue,
		LifetimeValue:    rec.LifetimeValue,
		UpdatedAt:        rec.UpdatedAt,
	}
}

// SummaryResponse is the API shape of an activity summary.
type SummaryResponse struct {
	ID              uuid.UUID `json:"id"`
	LeadID          uuid.UUID `json:"leadId"`
	SummaryDate     time.Time `json:"summaryDate"`
	SummaryPeriod   string    `json:"summaryPeriod"`
	EmailsSent      int       `json:"emailsSent"`
	EmailsOpened    int       `json:"emailsOpened"`
	EmailsClicked   int       `json:"emailsClicked"`
	FormsSubmitted  int       `json:"formsSubmitted"`
	PagesViewed     int       `json:"pagesViewed"`
	TotalActivities int       `json:"totalActivities"`
	WasActive       bool      `json:"wasActive"`
	EngagementScore int       `json:"engagementScore"`
	ScoreChange     int       `json:"scoreChange"`
	StageAtStart    string    `json:"stageAtStart"`
	StageAtEnd      string    `json:"stageAtEnd"`
	StageChanged    bool      `json:"stageChanged"`
}

func FromSummary(s repository.ActivitySummary) SummaryResponse {
	return SummaryResponse{
		ID:              s.ID,
		LeadID:          s.LeadID,
		SummaryDate:     s.SummaryDate,
		SummaryPeriod:   s.SummaryPeriod,
		EmailsSent:      s.EmailsSent,
		EmailsOpened:    s.EmailsOpened,
		EmailsClicked:   s.EmailsClicked,
		FormsSubmitted:  s.FormsSubmitted,
		PagesViewed:     s.PagesViewed,
		TotalActivities: s.TotalActivities,
		WasActive:       s.WasActive,
		EngagementScore: s.EngagementScore,
		ScoreChange:     s.ScoreChange,
		StageAtStart:    s.StageAtStart,
		StageAtEnd:      s.StageAtEnd,
		StageChanged:    s.StageChanged,
	}
}

func FromSummaries(summaries []repository.ActivitySummary) []SummaryResponse {
	out := make([]SummaryResponse, len(summaries))
	for i, s := range summaries {
		out[i] = FromSummary(s)
	}
	return out
}
