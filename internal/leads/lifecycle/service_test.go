package lifecycle

import (
	"context"
	"testing"
	"time"

	"leadtrack_backend/internal/leads/domain"
	"leadtrack_backend/internal/leads/repository"
	"leadtrack_backend/platform/logger"

	"github.com/google/uuid"
)

// fakeRepo keeps lifecycle windows in memory.
type fakeRepo struct {
	lead    repository.Lead
	records []repository.LifecycleRecord
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
	for _, rec := range f.records {
		if rec.LeadID == leadID && rec.IsCurrentStage {
			return rec, nil
		}
	}
	return repository.LifecycleRecord{}, repository.ErrNoCurrentStage
}

func (f *fakeRepo) CloseLifecycle(ctx context.Context, id uuid.UUID, exitedAt time.Time, durationDays int) error {
	for i := range f.records {
		if f.records[i].ID == id {
			exited := exitedAt
			duration := durationDays
			f.records[i].ExitedAt = &exited
			f.records[i].DurationDays = &duration
			f.records[i].IsCurrentStage = false
		}
	}
	return nil
}

func (f *fakeRepo) CreateLifecycle(ctx context.Context, params repository.CreateLifecycleParams) (repository.LifecycleRecord, error) {
	rec := repository.LifecycleRecord{
		ID:               uuid.New(),
		LeadID:           params.LeadID,
		Stage:            params.Stage,
		PreviousStage:    params.PreviousStage,
		EnteredAt:        params.EnteredAt,
		TransitionReason: params.TransitionReason,
		TriggeredBy:      params.TriggeredBy,
		IsCurrentStage:   true,
	}
	f.records = append(f.records, rec)
	return rec, nil
}

func (f *fakeRepo) ListLifecycle(ctx context.Context, leadID uuid.UUID) ([]repository.LifecycleRecord, error) {
	out := make([]repository.LifecycleRecord, len(f.records))
	copy(out, f.records)
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (f *fakeRepo) ListLifecycleAsc(ctx context.Context, leadID uuid.UUID) ([]repository.LifecycleRecord, error) {
	out := make([]repository.LifecycleRecord, len(f.records))
	copy(out, f.records)
	return out, nil
}

func (f *fakeRepo) IncrementTouchpoints(ctx context.Context, leadID uuid.UUID) error {
	for i := range f.records {
		if f.records[i].LeadID == leadID && f.records[i].IsCurrentStage {
			f.records[i].TouchpointsCount++
		}
	}
	return nil
}

func (f *fakeRepo) GetStageAt(ctx context.Context, leadID uuid.UUID, at time.Time) (string, error) {
	for _, rec := range f.records {
		if rec.EnteredAt.After(at) {
			continue
		}
		if rec.ExitedAt == nil || rec.ExitedAt.After(at) {
			return rec.Stage, nil
		}
	}
	return "new", nil
}

func newService(repo *fakeRepo) *Service {
	return New(repo, nil, nil, logger.New("development"))
}

func TestTransitionFirstStage(t *testing.T) {
	repo := &fakeRepo{lead: repository.Lead{ID: uuid.New(), Status: domain.StageNew}}
	svc := newService(repo)

	rec, err := svc.Transition(context.Background(), repo.lead.ID, domain.StageContacted, nil, nil)
	if err != nil {
		t.Fatalf("Transition() error = %v", err)
	}
	if rec.Stage != domain.StageContacted {
		t.Fatalf("stage = %q, want %q", rec.Stage, domain.StageContacted)
	}
	if rec.PreviousStage != nil {
		t.Fatalf("first transition should have no previous stage")
	}
	if repo.lead.Status != domain.StageContacted {
		t.Fatalf("lead status not synced, got %q", repo.lead.Status)
	}
}

func TestTransitionClosesCurrentStage(t *testing.T) {
	repo := &fakeRepo{lead: repository.Lead{ID: uuid.New(), Status: domain.StageNew}}
	svc := newService(repo)
	ctx := context.Background()

	first, err := svc.Transition(ctx, repo.lead.ID, domain.StageContacted, nil, nil)
	if err != nil {
		t.Fatalf("Transition() error = %v", err)
	}
	second, err := svc.Transition(ctx, repo.lead.ID, domain.StageQualified, nil, nil)
	if err != nil {
		t.Fatalf("Transition() error = %v", err)
	}

	if second.PreviousStage == nil || *second.PreviousStage != domain.StageContacted {
		t.Fatalf("previous stage not carried from closed window")
	}

	current := 0
	for _, rec := range repo.records {
		if rec.IsCurrentStage {
			current++
		}
		if rec.ID == first.ID {
			if rec.ExitedAt == nil || rec.DurationDays == nil {
				t.Fatalf("closed window missing exit stamp")
			}
			if *rec.DurationDays != 0 {
				t.Fatalf("same-day window duration = %d, want 0", *rec.DurationDays)
			}
		}
	}
	if current != 1 {
		t.Fatalf("current windows = %d, want exactly 1", current)
	}
}

func TestTransitionAcceptsUnknownStage(t *testing.T) {
	repo := &fakeRepo{lead: repository.Lead{ID: uuid.New(), Status: domain.StageNew}}
	svc := newService(repo)

	rec, err := svc.Transition(context.Background(), repo.lead.ID, "trial_signup", nil, nil)
	if err != nil {
		t.Fatalf("Transition() error = %v", err)
	}
	if rec.Stage != "trial_signup" {
		t.Fatalf("custom stage not stored, got %q", rec.Stage)
	}
}

func TestTransitionUnknownLead(t *testing.T) {
	repo := &fakeRepo{lead: repository.Lead{ID: uuid.New()}}
	svc := newService(repo)

	_, err := svc.Transition(context.Background(), uuid.New(), domain.StageContacted, nil, nil)
	if err != repository.ErrNotFound {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestCurrentWithoutTransitions(t *testing.T) {
	repo := &fakeRepo{lead: repository.Lead{ID: uuid.New()}}
	svc := newService(repo)

	_, err := svc.Current(context.Background(), repo.lead.ID)
	if err != repository.ErrNoCurrentStage {
		t.Fatalf("error = %v, want ErrNoCurrentStage", err)
	}
}
