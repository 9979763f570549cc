package engagement

import (
	"context"
	"testing"
	"time"

	"leadtrack_backend/internal/leads/domain"
	"leadtrack_backend/internal/leads/repository"
	"leadtrack_backend/platform/logger"

	"github.com/google/uuid"
)

// fakeRepo keeps leads, engagements, and lifecycle windows in memory.
type fakeRepo struct {
	lead      repository.Lead
	events    []repository.EngagementEvent
	lifecycle []repository.LifecycleRecord
	summaries []repository.ActivitySummary
	score     *repository.ScoreRecord
}

func (f *fakeRepo) CreateLead(ctx context.Context, params repository.CreateLeadParams) (repository.Lead, error) {
	return f.lead, nil
}

func (f *fakeRepo) GetLead(ctx context.Context, id uuid.UUID) (repository.Lead, error) {
	if id != f.lead.ID {
		return repository.Lead{}, repository.ErrNotFound
	}
	return f.lead, nil
}

func (f *fakeRepo) ListLeadIDs(ctx context.Context) ([]uuid.UUID, error) {
	return []uuid.UUID{f.lead.ID}, nil
}

func (f *fakeRepo) UpdateLeadStatus(ctx context.Context, id uuid.UUID, status string) error {
	f.lead.Status = status
	return nil
}

func (f *fakeRepo) TouchLead(ctx context.Context, id uuid.UUID, at time.Time) error {
	f.lead.LastContactDate = &at
	return nil
}

func (f *fakeRepo) SetLeadEngagementScore(ctx context.Context, id uuid.UUID, score int) error {
	f.lead.EngagementScore = score
	return nil
}

func (f *fakeRepo) GetCurrentLifecycle(ctx context.Context, leadID uuid.UUID) (repository.LifecycleRecord, error) {
	for _, rec := range f.lifecycle {
		if rec.IsCurrentStage {
			return rec, nil
		}
	}
	return repository.LifecycleRecord{}, repository.ErrNoCurrentStage
}

func (f *fakeRepo) CloseLifecycle(ctx context.Context, id uuid.UUID, exitedAt time.Time, durationDays int) error {
	return nil
}

func (f *fakeRepo) CreateLifecycle(ctx context.Context, params repository.CreateLifecycleParams) (repository.LifecycleRecord, error) {
	return repository.LifecycleRecord{}, nil
}

func (f *fakeRepo) ListLifecycle(ctx context.Context, leadID uuid.UUID) ([]repository.LifecycleRecord, error) {
	return f.lifecycle, nil
}

func (f *fakeRepo) ListLifecycleAsc(ctx context.Context, leadID uuid.UUID) ([]repository.LifecycleRecord, error) {
	return f.lifecycle, nil
}

func (f *fakeRepo) IncrementTouchpoints(ctx context.Context, leadID uuid.UUID) error {
	for i := range f.lifecycle {
		if f.lifecycle[i].IsCurrentStage {
			f.lifecycle[i].TouchpointsCount++
		}
	}
	return nil
}

func (f *fakeRepo) GetStageAt(ctx context.Context, leadID uuid.UUID, at time.Time) (string, error) {
	for _, rec := range f.lifecycle {
		if rec.EnteredAt.After(at) {
			continue
		}
		if rec.ExitedAt == nil || rec.ExitedAt.After(at) {
			return rec.Stage, nil
		}
	}
	return "new", nil
}

func (f *fakeRepo) CreateEngagement(ctx context.Context, params repository.CreateEngagementParams) (repository.EngagementEvent, error) {
	event := repository.EngagementEvent{
		ID:             uuid.New(),
		LeadID:         params.LeadID,
		EngagementType: params.EngagementType,
		Channel:        params.Channel,
		SourceName:     params.SourceName,
		Value:          params.Value,
		EngagedAt:      params.EngagedAt,
	}
	f.events = append(f.events, event)
	return event, nil
}

func (f *fakeRepo) ListEngagements(ctx context.Context, leadID uuid.UUID) ([]repository.EngagementEvent, error) {
	return f.events, nil
}

func (f *fakeRepo) ListEngagementsSince(ctx context.Context, leadID uuid.UUID, since time.Time, types []string) ([]repository.EngagementEvent, error) {
	out := make([]repository.EngagementEvent, 0)
	for _, event := range f.events {
		if event.EngagedAt.Before(since) {
			continue
		}
		if len(types) > 0 && !contains(types, event.EngagementType) {
			continue
		}
		out = append(out, event)
	}
	return out, nil
}

func (f *fakeRepo) ListEngagementsBetween(ctx context.Context, leadID uuid.UUID, start, end time.Time) ([]repository.EngagementEvent, error) {
	out := make([]repository.EngagementEvent, 0)
	for _, event := range f.events {
		if event.EngagedAt.Before(start) || !event.EngagedAt.Before(end) {
			continue
		}
		out = append(out, event)
	}
	return out, nil
}

func (f *fakeRepo) GetScore(ctx context.Context, leadID uuid.UUID) (repository.ScoreRecord, error) {
	if f.score == nil {
		return repository.ScoreRecord{}, repository.ErrNoScore
	}
	return *f.score, nil
}

func (f *fakeRepo) SaveScore(ctx context.Context, params repository.SaveScoreParams) (repository.ScoreRecord, error) {
	return repository.ScoreRecord{}, nil
}

func (f *fakeRepo) ListStaleScoreLeadIDs(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	return nil, nil
}

func (f *fakeRepo) CreateActivitySummary(ctx context.Context, params repository.CreateActivitySummaryParams) (repository.ActivitySummary, error) {
	summary := repository.ActivitySummary{
		ID:              uuid.New(),
		LeadID:          params.LeadID,
		SummaryDate:     params.SummaryDate,
		SummaryPeriod:   params.SummaryPeriod,
		EmailsSent:      params.EmailsSent,
		EmailsOpened:    params.EmailsOpened,
		EmailsClicked:   params.EmailsClicked,
		FormsSubmitted:  params.FormsSubmitted,
		PagesViewed:     params.PagesViewed,
		TotalActivities: params.TotalActivities,
		WasActive:       params.WasActive,
		EngagementScore: params.EngagementScore,
		ScoreChange:     params.ScoreChange,
		StageAtStart:    params.StageAtStart,
		StageAtEnd:      params.StageAtEnd,
		StageChanged:    params.StageChanged,
	}
	f.summaries = append(f.summaries, summary)
	return summary, nil
}

func (f *fakeRepo) ListActivitySummaries(ctx context.Context, leadID uuid.UUID, period string) ([]repository.ActivitySummary, error) {
	return f.summaries, nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func newService(repo *fakeRepo) *Service {
	return New(repo, nil, nil, logger.New("development"))
}

func TestRecordUpdatesRecencyAndTouchpoints(t *testing.T) {
	repo := &fakeRepo{
		lead: repository.Lead{ID: uuid.New(), Status: domain.StageContacted},
		lifecycle: []repository.LifecycleRecord{
			{ID: uuid.New(), Stage: domain.StageContacted, IsCurrentStage: true},
		},
	}
	svc := newService(repo)

	event, err := svc.Record(context.Background(), repo.lead.ID, RecordParams{
		EngagementType: domain.EngagementEmailOpened,
	})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if event.EngagementType != domain.EngagementEmailOpened {
		t.Fatalf("event type = %q", event.EngagementType)
	}
	if repo.lead.LastContactDate == nil || !repo.lead.LastContactDate.Equal(event.EngagedAt) {
		t.Fatalf("last contact not synced with engagement time")
	}
	if repo.lifecycle[0].TouchpointsCount != 1 {
		t.Fatalf("touchpoints = %d, want 1", repo.lifecycle[0].TouchpointsCount)
	}
}

func TestRecordWithoutLifecycleWindow(t *testing.T) {
	repo := &fakeRepo{lead: repository.Lead{ID: uuid.New(), Status: domain.StageNew}}
	svc := newService(repo)

	if _, err := svc.Record(context.Background(), repo.lead.ID, RecordParams{
		EngagementType: domain.EngagementPageViewed,
	}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if len(repo.events) != 1 {
		t.Fatalf("events = %d, want 1", len(repo.events))
	}
}

func TestRecordUnknownLead(t *testing.T) {
	repo := &fakeRepo{lead: repository.Lead{ID: uuid.New()}}
	svc := newService(repo)

	_, err := svc.Record(context.Background(), uuid.New(), RecordParams{
		EngagementType: domain.EngagementPageViewed,
	})
	if err != repository.ErrNotFound {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestHistoryDefaultWindowAndFilter(t *testing.T) {
	now := time.Now().UTC()
	repo := &fakeRepo{
		lead: repository.Lead{ID: uuid.New()},
		events: []repository.EngagementEvent{
			{EngagementType: domain.EngagementEmailOpened, EngagedAt: now.AddDate(0, 0, -5)},
			{EngagementType: domain.EngagementPageViewed, EngagedAt: now.AddDate(0, 0, -10)},
			{EngagementType: domain.EngagementEmailOpened, EngagedAt: now.AddDate(0, 0, -100)},
		},
	}
	svc := newService(repo)
	ctx := context.Background()

	all, err := svc.History(ctx, repo.lead.ID, 0, nil)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("default window returned %d events, want 2", len(all))
	}

	opens, err := svc.History(ctx, repo.lead.ID, 0, []string{domain.EngagementEmailOpened})
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(opens) != 1 {
		t.Fatalf("filtered history returned %d events, want 1", len(opens))
	}
}

func TestSummarizeCountsAndStageChange(t *testing.T) {
	now := time.Now().UTC()
	exited := now.Add(-12 * time.Hour)
	repo := &fakeRepo{
		lead: repository.Lead{ID: uuid.New(), Status: domain.StageQualified},
		events: []repository.EngagementEvent{
			{EngagementType: domain.EngagementEmailSent, EngagedAt: now.Add(-2 * time.Hour)},
			{EngagementType: domain.EngagementEmailOpened, EngagedAt: now.Add(-90 * time.Minute)},
			{EngagementType: domain.EngagementEmailClicked, EngagedAt: now.Add(-1 * time.Hour)},
			{EngagementType: domain.EngagementFormSubmitted, EngagedAt: now.Add(-30 * time.Minute)},
			{EngagementType: domain.EngagementPageViewed, EngagedAt: now.Add(-10 * time.Minute)},
			{EngagementType: domain.EngagementPurchaseMade, EngagedAt: now.AddDate(0, 0, -3)},
		},
		lifecycle: []repository.LifecycleRecord{
			{Stage: domain.StageContacted, EnteredAt: now.AddDate(0, 0, -10), ExitedAt: &exited},
			{Stage: domain.StageQualified, EnteredAt: exited, IsCurrentStage: true},
		},
		score: &repository.ScoreRecord{TotalScore: 62, ScoreChangeAmount: 7},
	}
	svc := newService(repo)

	summary, err := svc.Summarize(context.Background(), repo.lead.ID, "daily")
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if summary.EmailsSent != 1 || summary.EmailsOpened != 1 || summary.EmailsClicked != 1 {
		t.Fatalf("email counts = %d/%d/%d", summary.EmailsSent, summary.EmailsOpened, summary.EmailsClicked)
	}
	if summary.FormsSubmitted != 1 || summary.PagesViewed != 1 {
		t.Fatalf("form/page counts = %d/%d", summary.FormsSubmitted, summary.PagesViewed)
	}
	if summary.TotalActivities != 5 {
		t.Fatalf("total activities = %d, want 5 inside the daily window", summary.TotalActivities)
	}
	if !summary.WasActive {
		t.Fatalf("summary should be marked active")
	}
	if summary.StageAtStart != domain.StageContacted || summary.StageAtEnd != domain.StageQualified {
		t.Fatalf("stage snapshots = %q -> %q", summary.StageAtStart, summary.StageAtEnd)
	}
	if !summary.StageChanged {
		t.Fatalf("stage change not detected")
	}
	if summary.EngagementScore != 62 || summary.ScoreChange != 7 {
		t.Fatalf("score snapshot = %d/%d", summary.EngagementScore, summary.ScoreChange)
	}
}

func TestSummarizeQuietPeriod(t *testing.T) {
	repo := &fakeRepo{lead: repository.Lead{ID: uuid.New(), Status: domain.StageNew}}
	svc := newService(repo)

	summary, err := svc.Summarize(context.Background(), repo.lead.ID, "weekly")
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if summary.WasActive {
		t.Fatalf("quiet period marked active")
	}
	if summary.TotalActivities != 0 {
		t.Fatalf("total activities = %d, want 0", summary.TotalActivities)
	}
	if summary.StageAtStart != "new" || summary.StageAtEnd != "new" {
		t.Fatalf("stage snapshots should default to new")
	}
	if summary.StageChanged {
		t.Fatalf("no stage change expected")
	}
}
