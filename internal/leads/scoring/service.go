// Package scoring computes composite lead scores from five weighted
// components and applies time-based decay to inactive leads.
package scoring

import (
	"context"
	"errors"
	"strings"
	"time"

	"leadtrack_backend/internal/events"
	"leadtrack_backend/internal/leads/domain"
	"leadtrack_backend/internal/leads/repository"
	"leadtrack_backend/platform/logger"

	"github.com/google/uuid"
)

// Component weights. The composite is the weighted sum truncated to an int.
const (
	weightDemographic  = 0.20
	weightBehavioral   = 0.25
	weightFirmographic = 0.15
	weightEngagement   = 0.25
	weightIntent       = 0.15

	behavioralWindowDays = 90
	intentWindowDays     = 30
	replyWindowDays      = 14

	// DefaultDecayRate is points lost per day of inactivity.
	DefaultDecayRate = 0.1
)

// behavioralPoints maps engagement types to their behavioral score
// contribution inside the 90-day window.
var behavioralPoints = map[string]int{
	domain.EngagementEmailOpened:       2,
	domain.EngagementEmailClicked:      5,
	domain.EngagementEmailReplied:      10,
	domain.EngagementFormSubmitted:     15,
	domain.EngagementPageViewed:        1,
	domain.EngagementContentDownloaded: 8,
	domain.EngagementMeetingScheduled:  20,
	domain.EngagementPurchaseMade:      50,
}

// highIntentTypes are the engagement types that signal purchase intent.
var highIntentTypes = map[string]bool{
	domain.EngagementPurchaseMade:      true,
	domain.EngagementMeetingScheduled:  true,
	domain.EngagementContentDownloaded: true,
	domain.EngagementFormSubmitted:     true,
}

// targetLocations mark primary market regions for the firmographic component.
var targetLocations = []string{"United States", "Canada", "United Kingdom", "Australia"}

type Service struct {
	repo      repository.ScoringRepository
	bus       events.Bus
	log       *logger.Logger
	decayRate float64
}

func New(repo repository.ScoringRepository, bus events.Bus, log *logger.Logger, decayRate float64) *Service {
	if decayRate <= 0 {
		decayRate = DefaultDecayRate
	}
	return &Service{repo: repo, bus: bus, log: log, decayRate: decayRate}
}

// Recalculate computes all five components for a lead, persists the score
// row, and mirrors the composite onto the lead record.
func (s *Service) Recalculate(ctx context.Context, leadID uuid.UUID) (repository.ScoreRecord, error) {
	lead, err := s.repo.GetLead(ctx, leadID)
	if err != nil {
		return repository.ScoreRecord{}, err
	}

	history, err := s.repo.ListEngagements(ctx, leadID)
	if err != nil {
		return repository.ScoreRecord{}, err
	}

	now := time.Now().UTC()
	demographic := scoreDemographic(lead)
	behavioral := scoreBehavioral(history, now)
	firmographic := scoreFirmographic(lead)
	engagement := scoreEngagement(lead, now)
	intent := scoreIntent(lead, history, now)

	total := int(
		weightDemographic*float64(demographic) +
			weightBehavioral*float64(behavioral) +
			weightFirmographic*float64(firmographic) +
			weightEngagement*float64(engagement) +
			weightIntent*float64(intent))

	// A previous score of zero is treated the same as no previous score:
	// the first real score is not reported as a change.
	var previous *int
	changed := false
	changeAmount := 0
	decayRate := s.decayRate
	if existing, err := s.repo.GetScore(ctx, leadID); err == nil {
		previous = &existing.TotalScore
		if existing.TotalScore != 0 {
			changeAmount = total - existing.TotalScore
			changed = changeAmount != 0
		}
		if existing.DecayRate > 0 {
			decayRate = existing.DecayRate
		}
	} else if !errors.Is(err, repository.ErrNoScore) {
		return repository.ScoreRecord{}, err
	}

	lastActivity := lead.LastContactDate
	if lastActivity == nil {
		created := lead.CreatedAt
		lastActivity = &created
	}

	grade := domain.GradeForScore(total)
	temperature := domain.TemperatureForScore(total)

	record, err := s.repo.SaveScore(ctx, repository.SaveScoreParams{
		LeadID:            leadID,
		TotalScore:        total,
		DemographicScore:  demographic,
		BehavioralScore:   behavioral,
		FirmographicScore: firmographic,
		EngagementScore:   engagement,
		IntentScore:       intent,
		Grade:             grade,
		Temperature:       temperature,
		ScoreChanged:      changed,
		ScoreChangeAmount: changeAmount,
		PreviousScore:     previous,
		LastActivityDate:  lastActivity,
		ScoreCalculatedAt: now,
		DecayRate:         decayRate,
	})
	if err != nil {
		return repository.ScoreRecord{}, err
	}

	if err := s.repo.SetLeadEngagementScore(ctx, leadID, total); err != nil {
		return repository.ScoreRecord{}, err
	}

	s.log.ScoreCalculated(leadID.String(), total, grade, temperature)
	s.publishCalculated(ctx, leadID, total, grade, temperature, changed)

	return record, nil
}

// Get returns the stored score record.
func (s *Service) Get(ctx context.Context, leadID uuid.UUID) (repository.ScoreRecord, error) {
	if _, err := s.repo.GetLead(ctx, leadID); err != nil {
		return repository.ScoreRecord{}, err
	}
	return s.repo.GetScore(ctx, leadID)
}

// ApplyDecay reduces a lead's score by decayRate points per day of
// inactivity. Returns false when nothing changed.
func (s *Service) ApplyDecay(ctx context.Context, leadID uuid.UUID) (repository.ScoreRecord, bool, error) {
	record, err := s.repo.GetScore(ctx, leadID)
	if err != nil {
		if errors.Is(err, repository.ErrNoScore) {
			return repository.ScoreRecord{}, false, nil
		}
		return repository.ScoreRecord{}, false, err
	}
	if record.LastActivityDate == nil {
		return record, false, nil
	}

	now := time.Now().UTC()
	daysInactive := int(now.Sub(*record.LastActivityDate).Hours() / 24)
	if daysInactive <= 0 {
		return record, false, nil
	}

	// The per-row rate wins so individual leads can decay faster or slower.
	rate := record.DecayRate
	if rate <= 0 {
		rate = s.decayRate
	}

	decayed := record.TotalScore - int(float64(daysInactive)*rate)
	if decayed < 0 {
		decayed = 0
	}
	if decayed == record.TotalScore {
		return record, false, nil
	}

	previous := record.TotalScore
	grade := domain.GradeForScore(decayed)
	temperature := domain.TemperatureForScore(decayed)

	updated, err := s.repo.SaveScore(ctx, repository.SaveScoreParams{
		LeadID:            leadID,
		TotalScore:        decayed,
		DemographicScore:  record.DemographicScore,
		BehavioralScore:   record.BehavioralScore,
		FirmographicScore: record.FirmographicScore,
		EngagementScore:   record.EngagementScore,
		IntentScore:       record.IntentScore,
		Grade:             grade,
		Temperature:       temperature,
		ScoreChanged:      true,
		ScoreChangeAmount: decayed - previous,
		PreviousScore:     &previous,
		LastActivityDate:  record.LastActivityDate,
		ScoreCalculatedAt: now,
		DecayRate:         rate,
	})
	if err != nil {
		return repository.ScoreRecord{}, false, err
	}

	if err := s.repo.SetLeadEngagementScore(ctx, leadID, decayed); err != nil {
		return repository.ScoreRecord{}, false, err
	}

	s.log.Info("lead score decayed",
		"lead_id", leadID.String(),
		"days_inactive", daysInactive,
		"previous_score", previous,
		"new_score", decayed,
	)
	s.publishCalculated(ctx, leadID, decayed, grade, temperature, true)

	return updated, true, nil
}

// DecayStale applies decay to every lead whose last activity is older than a
// day. Returns the number of leads whose score actually moved.
func (s *Service) DecayStale(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-24 * time.Hour)
	ids, err := s.repo.ListStaleScoreLeadIDs(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	decayed := 0
	for _, id := range ids {
		_, moved, err := s.ApplyDecay(ctx, id)
		if err != nil {
			s.log.Error("score decay failed", "lead_id", id.String(), "error", err)
			continue
		}
		if moved {
			decayed++
		}
	}
	return decayed, nil
}

func (s *Service) publishCalculated(ctx context.Context, leadID uuid.UUID, total int, grade, temperature string, changed bool) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, events.LeadScoreCalculated{
		BaseEvent:   events.NewBaseEvent(),
		LeadID:      leadID,
		TotalScore:  total,
		Grade:       grade,
		Temperature: temperature,
		Changed:     changed,
	})
}

// scoreDemographic rewards profile completeness.
func scoreDemographic(lead repository.Lead) int {
	score := 0
	if hasValue(lead.Email) {
		score += 15
	}
	if hasValue(lead.FirstName) {
		score += 10
	}
	if hasValue(lead.LastName) {
		score += 10
	}
	if hasValue(lead.Phone) {
		score += 15
	}
	if hasValue(lead.Location) {
		score += 10
	}
	if hasValue(lead.CustomerType) {
		score += 20
	}
	if hasValue(lead.SportType) {
		score += 10
	}
	if hasValue(lead.Interests) {
		score += 10
	}
	return capComponent(score)
}

// scoreBehavioral sums engagement type points over the trailing 90 days,
// plus a frequency bonus.
func scoreBehavioral(history []repository.EngagementEvent, now time.Time) int {
	cutoff := now.AddDate(0, 0, -behavioralWindowDays)

	score := 0
	recent := 0
	for _, event := range history {
		if event.EngagedAt.Before(cutoff) {
			continue
		}
		recent++
		score += behavioralPoints[event.EngagementType]
	}
	if recent == 0 {
		return 0
	}
	if recent > 10 {
		score += 10
	} else if recent > 5 {
		score += 5
	}
	return capComponent(score)
}

// scoreFirmographic starts from a neutral base and adjusts for market fit.
func scoreFirmographic(lead repository.Lead) int {
	score := 50

	if lead.Location != nil {
		for _, region := range targetLocations {
			if strings.Contains(*lead.Location, region) {
				score += 20
				break
			}
		}
	}

	if lead.CustomerType != nil {
		switch *lead.CustomerType {
		case "coach", "team":
			score += 15
		case "bike_fitter":
			score += 10
		case "athlete":
			score += 5
		}
	}

	if lead.Source != nil {
		switch *lead.Source {
		case "referral", "partner", "shopify":
			score += 15
		case "facebook_lead_ads", "form_submission":
			score += 10
		case "import", "manual":
			score += 5
		}
	}

	return capComponent(score)
}

// scoreEngagement rewards contact recency and consent, floored by the lead's
// lifecycle stage.
func scoreEngagement(lead repository.Lead, now time.Time) int {
	score := 0

	if lead.LastContactDate != nil {
		days := now.Sub(*lead.LastContactDate).Hours() / 24
		switch {
		case days < 7:
			score += 40
		case days < 30:
			score += 30
		case days < 90:
			score += 20
		default:
			score += 10
		}
	}

	if lead.EmailConsent {
		score += 30
	}
	if lead.SMSConsent {
		score += 15
	}

	stage := lead.Status
	if stage == "" {
		stage = domain.StageNew
	}
	if floor := domain.StageEngagementFloor(stage); score < floor {
		score = floor
	}

	return capComponent(score)
}

// scoreIntent combines recent high-intent actions, funnel position, and
// reply velocity.
func scoreIntent(lead repository.Lead, history []repository.EngagementEvent, now time.Time) int {
	intentCutoff := now.AddDate(0, 0, -intentWindowDays)
	replyCutoff := now.AddDate(0, 0, -replyWindowDays)

	highIntent := 0
	replies := 0
	for _, event := range history {
		if highIntentTypes[event.EngagementType] && !event.EngagedAt.Before(intentCutoff) {
			highIntent++
		}
		if event.EngagementType == domain.EngagementEmailReplied && !event.EngagedAt.Before(replyCutoff) {
			replies++
		}
	}

	score := highIntent * 15
	if score > 50 {
		score = 50
	}

	switch lead.Status {
	case domain.StageOpportunity:
		score += 40
	case domain.StageEngaged:
		score += 30
	case domain.StageQualified:
		score += 20
	}

	replyScore := replies * 10
	if replyScore > 30 {
		replyScore = 30
	}
	score += replyScore

	return capComponent(score)
}

func hasValue(s *string) bool {
	return s != nil && *s != ""
}

func capComponent(score int) int {
	if score > 100 {
		return 100
	}
	return score
}
