package attribution

import (
	"context"
	"encoding/json"
	"math"
	"testing"
	"time"

	"leadtrack_backend/internal/leads/domain"
	"leadtrack_backend/internal/leads/repository"
	"leadtrack_backend/platform/logger"

	"github.com/google/uuid"
)

func makeHistory(daysApart []int) []repository.EngagementEvent {
	base := time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)
	history := make([]repository.EngagementEvent, len(daysApart))
	for i, days := range daysApart {
		history[i] = repository.EngagementEvent{
			EngagementType: domain.EngagementPageViewed,
			EngagedAt:      base.AddDate(0, 0, days),
		}
	}
	return history
}

func assertSumsToOne(t *testing.T, weights []float64) {
	t.Helper()
	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Fatalf("weights sum to %v, want 1.0", sum)
	}
}

func TestComputeWeightsFirstTouch(t *testing.T) {
	weights, err := computeWeights(domain.ModelFirstTouch, makeHistory([]int{0, 3, 7}))
	if err != nil {
		t.Fatalf("computeWeights() error = %v", err)
	}
	if weights[0] != 1 || weights[1] != 0 || weights[2] != 0 {
		t.Fatalf("first touch weights = %v", weights)
	}
}

func TestComputeWeightsLastTouch(t *testing.T) {
	weights, err := computeWeights(domain.ModelLastTouch, makeHistory([]int{0, 3, 7}))
	if err != nil {
		t.Fatalf("computeWeights() error = %v", err)
	}
	if weights[0] != 0 || weights[1] != 0 || weights[2] != 1 {
		t.Fatalf("last touch weights = %v", weights)
	}
}

func TestComputeWeightsLinear(t *testing.T) {
	weights, err := computeWeights(domain.ModelLinear, makeHistory([]int{0, 1, 2, 3}))
	if err != nil {
		t.Fatalf("computeWeights() error = %v", err)
	}
	for i, w := range weights {
		if math.Abs(w-0.25) > 1e-9 {
			t.Fatalf("linear weight[%d] = %v, want 0.25", i, w)
		}
	}
	assertSumsToOne(t, weights)
}

func TestComputeWeightsTimeDecay(t *testing.T) {
	// Touches 0, 7, and 14 days in: each half-life doubles the credit.
	weights, err := computeWeights(domain.ModelTimeDecay, makeHistory([]int{0, 7, 14}))
	if err != nil {
		t.Fatalf("computeWeights() error = %v", err)
	}
	assertSumsToOne(t, weights)

	if !(weights[0] < weights[1] && weights[1] < weights[2]) {
		t.Fatalf("time decay should favor recent touches, got %v", weights)
	}
	if math.Abs(weights[1]/weights[0]-2.0) > 1e-9 {
		t.Fatalf("one half-life ratio = %v, want 2.0", weights[1]/weights[0])
	}
	if math.Abs(weights[2]/weights[0]-4.0) > 1e-9 {
		t.Fatalf("two half-life ratio = %v, want 4.0", weights[2]/weights[0])
	}
}

func TestComputeWeightsTimeDecaySameDay(t *testing.T) {
	weights, err := computeWeights(domain.ModelTimeDecay, makeHistory([]int{0, 0, 0}))
	if err != nil {
		t.Fatalf("computeWeights() error = %v", err)
	}
	assertSumsToOne(t, weights)
	for i, w := range weights {
		if math.Abs(w-1.0/3.0) > 1e-9 {
			t.Fatalf("same-day decay weight[%d] = %v, want uniform", i, w)
		}
	}
}

func TestComputeWeightsUShaped(t *testing.T) {
	tests := []struct {
		name string
		n    int
		want []float64
	}{
		{"single touch", 1, []float64{1}},
		{"two touches", 2, []float64{0.5, 0.5}},
		{"four touches", 4, []float64{0.40, 0.10, 0.10, 0.40}},
		{"six touches", 6, []float64{0.40, 0.05, 0.05, 0.05, 0.05, 0.40}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			days := make([]int, tt.n)
			for i := range days {
				days[i] = i
			}
			weights, err := computeWeights(domain.ModelUShaped, makeHistory(days))
			if err != nil {
				t.Fatalf("computeWeights() error = %v", err)
			}
			for i, w := range weights {
				if math.Abs(w-tt.want[i]) > 1e-9 {
					t.Fatalf("weight[%d] = %v, want %v", i, w, tt.want[i])
				}
			}
			assertSumsToOne(t, weights)
		})
	}
}

func TestComputeWeightsWShaped(t *testing.T) {
	tests := []struct {
		name string
		n    int
		want []float64
	}{
		{"single touch", 1, []float64{1}},
		{"two touches", 2, []float64{0.5, 0.5}},
		{"three touches", 3, []float64{0.30, 0.40, 0.30}},
		{"four touches", 4, []float64{0.30, 0.10, 0.30, 0.30}},
		{"five touches", 5, []float64{0.30, 0.05, 0.30, 0.05, 0.30}},
		{"seven touches", 7, []float64{0.30, 0.025, 0.025, 0.30, 0.025, 0.025, 0.30}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			days := make([]int, tt.n)
			for i := range days {
				days[i] = i
			}
			weights, err := computeWeights(domain.ModelWShaped, makeHistory(days))
			if err != nil {
				t.Fatalf("computeWeights() error = %v", err)
			}
			for i, w := range weights {
				if math.Abs(w-tt.want[i]) > 1e-9 {
					t.Fatalf("weight[%d] = %v, want %v", i, w, tt.want[i])
				}
			}
		})
	}
}

func TestComputeWeightsUnknownModel(t *testing.T) {
	_, err := computeWeights("position_based", makeHistory([]int{0}))
	if err != ErrUnknownModel {
		t.Fatalf("error = %v, want ErrUnknownModel", err)
	}
}

func TestTopTouchpoints(t *testing.T) {
	name := func(s string) *string { return &s }

	touchpoints := []Touchpoint{
		{SourceName: name("spring newsletter"), Weight: 0.2},
		{SourceName: name("bike fit webinar"), Weight: 0.5},
		{Channel: name("sms"), Weight: 0.3},
	}

	primaryJSON, secondaryJSON, err := topTouchpoints(touchpoints)
	if err != nil {
		t.Fatalf("topTouchpoints() error = %v", err)
	}

	var primary, secondary Touchpoint
	if err := json.Unmarshal(primaryJSON, &primary); err != nil {
		t.Fatalf("primary unmarshal: %v", err)
	}
	if err := json.Unmarshal(secondaryJSON, &secondary); err != nil {
		t.Fatalf("secondary unmarshal: %v", err)
	}

	if primary.Weight != 0.5 || primary.SourceName == nil || *primary.SourceName != "bike fit webinar" {
		t.Fatalf("primary = %+v, want the 0.5-weight touchpoint", primary)
	}
	if secondary.Weight != 0.3 || secondary.Channel == nil || *secondary.Channel != "sms" {
		t.Fatalf("secondary = %+v, want the 0.3-weight touchpoint", secondary)
	}
}

func TestTopTouchpointsSingle(t *testing.T) {
	touchpoints := []Touchpoint{
		{EngagementType: domain.EngagementPageViewed, Weight: 1},
	}
	primaryJSON, secondaryJSON, err := topTouchpoints(touchpoints)
	if err != nil {
		t.Fatalf("topTouchpoints() error = %v", err)
	}
	if primaryJSON == nil {
		t.Fatalf("primary snapshot missing for a single touchpoint")
	}
	if secondaryJSON != nil {
		t.Fatalf("secondary should be nil for a single touchpoint")
	}
}

func TestAvgTimeBetweenTouches(t *testing.T) {
	if got := avgTimeBetweenTouches(makeHistory([]int{0})); got != nil {
		t.Fatalf("single touch avg = %v, want nil", *got)
	}

	got := avgTimeBetweenTouches(makeHistory([]int{0, 2, 6}))
	if got == nil {
		t.Fatalf("avg = nil for multi-touch history")
	}
	// Gaps of 2 and 4 whole days.
	if math.Abs(*got-3.0) > 1e-9 {
		t.Fatalf("avg = %v, want 3.0", *got)
	}
}

// fakeRepo backs Attribute tests without a database.
type fakeRepo struct {
	lead    repository.Lead
	events  []repository.EngagementEvent
	records []repository.AttributionRecord
}

func (f *fakeRepo) CreateLead(ctx context.Context, params repository.CreateLeadParams) (repository.Lead, error) {
	return f.lead, nil
}

func (f *fakeRepo) GetLead(ctx context.Context, id uuid.UUID) (repository.Lead, error) {
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

func (f *fakeRepo) CreateEngagement(ctx context.Context, params repository.CreateEngagementParams) (repository.EngagementEvent, error) {
	return repository.EngagementEvent{}, nil
}

func (f *fakeRepo) ListEngagements(ctx context.Context, leadID uuid.UUID) ([]repository.EngagementEvent, error) {
	return f.events, nil
}

func (f *fakeRepo) ListEngagementsSince(ctx context.Context, leadID uuid.UUID, since time.Time, types []string) ([]repository.EngagementEvent, error) {
	return f.events, nil
}

func (f *fakeRepo) ListEngagementsBetween(ctx context.Context, leadID uuid.UUID, start, end time.Time) ([]repository.EngagementEvent, error) {
	return f.events, nil
}

func (f *fakeRepo) CreateAttribution(ctx context.Context, params repository.CreateAttributionParams) (repository.AttributionRecord, error) {
	rec := repository.AttributionRecord{
		ID:                    uuid.New(),
		LeadID:                params.LeadID,
		ConversionType:        params.ConversionType,
		ConversionID:          params.ConversionID,
		ConversionValue:       params.ConversionValue,
		ConversionDate:        params.ConversionDate,
		AttributionModel:      params.AttributionModel,
		Touchpoints:           params.Touchpoints,
		TouchpointCount:       params.TouchpointCount,
		FirstTouchSource:      params.FirstTouchSource,
		FirstTouchID:          params.FirstTouchID,
		FirstTouchName:        params.FirstTouchName,
		FirstTouchDate:        params.FirstTouchDate,
		FirstTouchWeight:      params.FirstTouchWeight,
		LastTouchSource:       params.LastTouchSource,
		LastTouchID:           params.LastTouchID,
		LastTouchName:         params.LastTouchName,
		LastTouchDate:         params.LastTouchDate,
		LastTouchWeight:       params.LastTouchWeight,
		PrimaryTouchpoint:     params.PrimaryTouchpoint,
		SecondaryTouchpoint:   params.SecondaryTouchpoint,
		JourneyDurationDays:   params.JourneyDurationDays,
		AvgTimeBetweenTouches: params.AvgTimeBetweenTouches,
	}
	f.records = append(f.records, rec)
	return rec, nil
}

func (f *fakeRepo) ListAttributions(ctx context.Context, leadID uuid.UUID) ([]repository.AttributionRecord, error) {
	return f.records, nil
}

func (f *fakeRepo) SumAttributedRevenue(ctx context.Context, leadID uuid.UUID) (float64, error) {
	total := 0.0
	for _, rec := range f.records {
		total += rec.ConversionValue
	}
	return total, nil
}

func TestAttributeStoresTouchDescriptors(t *testing.T) {
	base := time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)
	str := func(s string) *string { return &s }
	adSource := uuid.New()
	emailSource := uuid.New()

	repo := &fakeRepo{
		lead: repository.Lead{ID: uuid.New(), Status: domain.StageEngaged},
		events: []repository.EngagementEvent{
			{
				EngagementType: domain.EngagementPageViewed,
				SourceType:     str("ad"),
				SourceID:       &adSource,
				SourceName:     str("spring campaign"),
				EngagedAt:      base,
			},
			{
				EngagementType: domain.EngagementEmailOpened,
				EngagedAt:      base.AddDate(0, 0, 2),
			},
			{
				EngagementType: domain.EngagementFormSubmitted,
				SourceType:     str("email"),
				SourceID:       &emailSource,
				SourceName:     str("bike fit webinar"),
				EngagedAt:      base.AddDate(0, 0, 6),
			},
		},
	}
	svc := New(repo, nil, logger.New("development"))

	record, err := svc.Attribute(context.Background(), repo.lead.ID, AttributeParams{
		ConversionType:  "purchase",
		ConversionValue: 250,
		Model:           domain.ModelFirstTouch,
	})
	if err != nil {
		t.Fatalf("Attribute() error = %v", err)
	}

	if record.FirstTouchSource == nil || *record.FirstTouchSource != "ad" {
		t.Fatalf("first touch source = %v, want ad", record.FirstTouchSource)
	}
	if record.FirstTouchID == nil || *record.FirstTouchID != adSource {
		t.Fatalf("first touch id not carried from earliest engagement")
	}
	if record.FirstTouchName == nil || *record.FirstTouchName != "spring campaign" {
		t.Fatalf("first touch name = %v", record.FirstTouchName)
	}
	if !record.FirstTouchDate.Equal(base) {
		t.Fatalf("first touch date = %v, want %v", record.FirstTouchDate, base)
	}
	if record.FirstTouchWeight != 1 {
		t.Fatalf("first touch weight = %v, want 1 under first touch model", record.FirstTouchWeight)
	}

	if record.LastTouchSource == nil || *record.LastTouchSource != "email" {
		t.Fatalf("last touch source = %v, want email", record.LastTouchSource)
	}
	if !record.LastTouchDate.Equal(base.AddDate(0, 0, 6)) {
		t.Fatalf("last touch date = %v", record.LastTouchDate)
	}
	if record.LastTouchWeight != 0 {
		t.Fatalf("last touch weight = %v, want 0 under first touch model", record.LastTouchWeight)
	}

	if record.JourneyDurationDays != 6 {
		t.Fatalf("journey duration = %d, want 6", record.JourneyDurationDays)
	}

	var primary Touchpoint
	if err := json.Unmarshal(record.PrimaryTouchpoint, &primary); err != nil {
		t.Fatalf("primary touchpoint unmarshal: %v", err)
	}
	if primary.Weight != 1 || primary.SourceName == nil || *primary.SourceName != "spring campaign" {
		t.Fatalf("primary touchpoint = %+v, want the full-credit first touch", primary)
	}
	if record.SecondaryTouchpoint == nil {
		t.Fatalf("secondary touchpoint snapshot missing")
	}
}
