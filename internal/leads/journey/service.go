// Package journey maintains the denormalized per-lead journey rollup:
// engagement totals, trend, churn risk, stage history, and milestones.
package journey

import (
	"context"
	"encoding/json"
	"time"

	"leadtrack_backend/internal/leads/domain"
	"leadtrack_backend/internal/leads/repository"
	"leadtrack_backend/platform/logger"

	"github.com/google/uuid"
)

// StageWindow is the journey snapshot of one lifecycle record.
type StageWindow struct {
	Stage        string     `json:"stage"`
	EnteredAt    time.Time  `json:"entered_at"`
	ExitedAt     *time.Time `json:"exited_at"`
	DurationDays *int       `json:"duration_days"`
}

// Milestone marks a notable moment in the lead's journey.
type Milestone struct {
	Milestone string    `json:"milestone"`
	Date      time.Time `json:"date"`
	Detail    *string   `json:"detail,omitempty"`
}

// milestoneStages are the lifecycle stages worth calling out as milestones.
var milestoneStages = map[string]bool{
	domain.StageQualified:   true,
	domain.StageOpportunity: true,
	domain.StageCustomer:    true,
}

type Service struct {
	repo repository.JourneyRepository
	log  *logger.Logger
}

func New(repo repository.JourneyRepository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Refresh fully recomputes the journey rollup from the lead's history.
func (s *Service) Refresh(ctx context.Context, leadID uuid.UUID) (repository.JourneyRecord, error) {
	lead, err := s.repo.GetLead(ctx, leadID)
	if err != nil {
		return repository.JourneyRecord{}, err
	}

	history, err := s.repo.ListEngagements(ctx, leadID)
	if err != nil {
		return repository.JourneyRecord{}, err
	}

	stages, err := s.repo.ListLifecycleAsc(ctx, leadID)
	if err != nil {
		return repository.JourneyRecord{}, err
	}

	now := time.Now().UTC()
	lastActivity := now
	if lead.LastContactDate != nil {
		lastActivity = *lead.LastContactDate
	}

	emailCount := 0
	forms := 0
	pages := 0
	purchases := 0
	totalRevenue := 0.0
	for _, event := range history {
		if event.Channel != nil && *event.Channel == "email" {
			emailCount++
		}
		switch event.EngagementType {
		case domain.EngagementFormSubmitted:
			forms++
		case domain.EngagementPageViewed:
			pages++
		case domain.EngagementPurchaseMade:
			purchases++
		}
		if event.RevenueAttributed != nil {
			totalRevenue += *event.RevenueAttributed
		}
	}

	stagesJSON, err := json.Marshal(stageWindows(stages))
	if err != nil {
		return repository.JourneyRecord{}, err
	}
	milestonesJSON, err := json.Marshal(buildMilestones(history, stages))
	if err != nil {
		return repository.JourneyRecord{}, err
	}

	currentStage := lead.Status
	if currentStage == "" {
		currentStage = domain.StageNew
	}

	record, err := s.repo.UpsertJourney(ctx, repository.UpsertJourneyParams{
		LeadID:                leadID,
		JourneyStart:          lead.CreatedAt,
		JourneyDurationDays:   wholeDays(lead.CreatedAt, now),
		LastActivity:          lastActivity,
		DaysSinceLastActivity: wholeDays(lastActivity, now),
		CurrentStage:          currentStage,
		TotalEngagements:      len(history),
		EmailEngagements:      emailCount,
		FormSubmissions:       forms,
		PageViews:             pages,
		Purchases:             purchases,
		EngagementTrend:       engagementTrend(history, now),
		ChurnRisk:             churnRisk(lastActivity, now),
		StagesCompleted:       stagesJSON,
		Milestones:            milestonesJSON,
		TotalRevenue:          totalRevenue,
		LifetimeValue:         totalRevenue,
	})
	if err != nil {
		return repository.JourneyRecord{}, err
	}

	s.log.Debug("journey refreshed",
		"lead_id", leadID.String(),
		"total_engagements", len(history),
		"trend", record.EngagementTrend,
	)
	return record, nil
}

// Get returns the stored rollup.
func (s *Service) Get(ctx context.Context, leadID uuid.UUID) (repository.JourneyRecord, error) {
	if _, err := s.repo.GetLead(ctx, leadID); err != nil {
		return repository.JourneyRecord{}, err
	}
	return s.repo.GetJourney(ctx, leadID)
}

// RefreshAll recomputes every lead's journey. Used by the scheduled refresh.
func (s *Service) RefreshAll(ctx context.Context) (int, error) {
	ids, err := s.repo.ListLeadIDs(ctx)
	if err != nil {
		return 0, err
	}

	refreshed := 0
	for _, id := range ids {
		if _, err := s.Refresh(ctx, id); err != nil {
			s.log.Error("journey refresh failed", "lead_id", id.String(), "error", err)
			continue
		}
		refreshed++
	}
	return refreshed, nil
}

// engagementTrend compares the last 30 days of activity against the 30 days
// before that.
func engagementTrend(history []repository.EngagementEvent, now time.Time) string {
	recentCutoff := now.AddDate(0, 0, -30)
	priorCutoff := now.AddDate(0, 0, -60)

	recent := 0
	prior := 0
	for _, event := range history {
		switch {
		case !event.EngagedAt.Before(recentCutoff) && event.EngagedAt.Before(now):
			recent++
		case !event.EngagedAt.Before(priorCutoff) && event.EngagedAt.Before(recentCutoff):
			prior++
		}
	}

	switch {
	case recent > prior:
		return domain.TrendIncreasing
	case recent < prior:
		return domain.TrendDeclining
	default:
		return domain.TrendStable
	}
}

// wholeDays is the number of full days between two instants, floored at zero.
func wholeDays(from, to time.Time) int {
	days := int(to.Sub(from).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// churnRisk bands days of inactivity into a 0.2-0.8 risk score.
func churnRisk(lastActivity, now time.Time) float64 {
	days := int(now.Sub(lastActivity).Hours() / 24)
	switch {
	case days > 90:
		return 0.8
	case days > 60:
		return 0.6
	case days > 30:
		return 0.4
	default:
		return 0.2
	}
}

func stageWindows(stages []repository.LifecycleRecord) []StageWindow {
	windows := make([]StageWindow, len(stages))
	for i, rec := range stages {
		windows[i] = StageWindow{
			Stage:        rec.Stage,
			EnteredAt:    rec.EnteredAt,
			ExitedAt:     rec.ExitedAt,
			DurationDays: rec.DurationDays,
		}
	}
	return windows
}

func buildMilestones(history []repository.EngagementEvent, stages []repository.LifecycleRecord) []Milestone {
	milestones := make([]Milestone, 0)

	// The earliest engagement is first contact, sourced or not.
	if len(history) > 0 {
		milestones = append(milestones, Milestone{
			Milestone: "first_contact",
			Date:      history[0].EngagedAt,
			Detail:    history[0].SourceName,
		})
	}

	for _, rec := range stages {
		if !milestoneStages[rec.Stage] {
			continue
		}
		stage := rec.Stage
		milestones = append(milestones, Milestone{
			Milestone: "reached_" + stage,
			Date:      rec.EnteredAt,
		})
	}

	return milestones
}
