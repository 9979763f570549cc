// Package attribution distributes conversion credit across a lead's
// touchpoint history under six standard models.
package attribution

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sort"
	"time"

	"leadtrack_backend/internal/events"
	"leadtrack_backend/internal/leads/domain"
	"leadtrack_backend/internal/leads/repository"
	"leadtrack_backend/platform/logger"

	"github.com/google/uuid"
)

// ErrNoTouchpoints is returned when a conversion cannot be attributed
// because the lead has no engagement history.
var ErrNoTouchpoints = errors.New("no touchpoints to attribute")

// ErrUnknownModel is returned for an unrecognized attribution model.
var ErrUnknownModel = errors.New("unknown attribution model")

// timeDecayHalfLifeDays controls the time decay model: a touchpoint's credit
// doubles every half-life closer to conversion.
const timeDecayHalfLifeDays = 7.0

// Touchpoint is the immutable JSON snapshot stored with each attribution.
type Touchpoint struct {
	SourceType     *string    `json:"source_type"`
	SourceID       *uuid.UUID `json:"source_id"`
	SourceName     *string    `json:"source_name"`
	EngagementType string     `json:"engagement_type"`
	Channel        *string    `json:"channel"`
	Weight         float64    `json:"weight"`
	Date           time.Time  `json:"date"`
	Value          int        `json:"value"`
}

type AttributeParams struct {
	ConversionType  string
	ConversionID    *uuid.UUID
	ConversionValue float64
	Model           string
}

type Service struct {
	repo repository.AttributionRepository
	bus  events.Bus
	log  *logger.Logger
}

func New(repo repository.AttributionRepository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log}
}

// Attribute snapshots the lead's touchpoints, applies the model's weights,
// and records the conversion.
func (s *Service) Attribute(ctx context.Context, leadID uuid.UUID, params AttributeParams) (repository.AttributionRecord, error) {
	if _, err := s.repo.GetLead(ctx, leadID); err != nil {
		return repository.AttributionRecord{}, err
	}

	history, err := s.repo.ListEngagements(ctx, leadID)
	if err != nil {
		return repository.AttributionRecord{}, err
	}
	if len(history) == 0 {
		return repository.AttributionRecord{}, ErrNoTouchpoints
	}

	weights, err := computeWeights(params.Model, history)
	if err != nil {
		return repository.AttributionRecord{}, err
	}

	touchpoints := make([]Touchpoint, len(history))
	for i, event := range history {
		touchpoints[i] = Touchpoint{
			SourceType:     event.SourceType,
			SourceID:       event.SourceID,
			SourceName:     event.SourceName,
			EngagementType: event.EngagementType,
			Channel:        event.Channel,
			Weight:         roundWeight(weights[i]),
			Date:           event.EngagedAt,
			Value:          event.Value,
		}
	}

	snapshot, err := json.Marshal(touchpoints)
	if err != nil {
		return repository.AttributionRecord{}, err
	}

	primary, secondary, err := topTouchpoints(touchpoints)
	if err != nil {
		return repository.AttributionRecord{}, err
	}

	first := touchpoints[0]
	last := touchpoints[len(touchpoints)-1]
	durationDays := int(last.Date.Sub(first.Date).Hours() / 24)

	record, err := s.repo.CreateAttribution(ctx, repository.CreateAttributionParams{
		LeadID:                leadID,
		ConversionType:        params.ConversionType,
		ConversionID:          params.ConversionID,
		ConversionValue:       params.ConversionValue,
		ConversionDate:        time.Now().UTC(),
		AttributionModel:      params.Model,
		Touchpoints:           snapshot,
		TouchpointCount:       len(touchpoints),
		FirstTouchSource:      first.SourceType,
		FirstTouchID:          first.SourceID,
		FirstTouchName:        first.SourceName,
		FirstTouchDate:        first.Date,
		FirstTouchWeight:      first.Weight,
		LastTouchSource:       last.SourceType,
		LastTouchID:           last.SourceID,
		LastTouchName:         last.SourceName,
		LastTouchDate:         last.Date,
		LastTouchWeight:       last.Weight,
		PrimaryTouchpoint:     primary,
		SecondaryTouchpoint:   secondary,
		JourneyDurationDays:   durationDays,
		AvgTimeBetweenTouches: avgTimeBetweenTouches(history),
	})
	if err != nil {
		return repository.AttributionRecord{}, err
	}

	s.log.Info("conversion attributed",
		"lead_id", leadID.String(),
		"conversion_type", params.ConversionType,
		"model", params.Model,
		"touchpoints", len(touchpoints),
	)

	if s.bus != nil {
		s.bus.Publish(ctx, events.LeadConverted{
			BaseEvent:        events.NewBaseEvent(),
			LeadID:           leadID,
			ConversionType:   params.ConversionType,
			ConversionValue:  params.ConversionValue,
			AttributionModel: params.Model,
		})
	}

	return record, nil
}

// List returns all recorded conversions for a lead, newest first.
func (s *Service) List(ctx context.Context, leadID uuid.UUID) ([]repository.AttributionRecord, error) {
	if _, err := s.repo.GetLead(ctx, leadID); err != nil {
		return nil, err
	}
	return s.repo.ListAttributions(ctx, leadID)
}

// computeWeights returns one credit weight per touchpoint, summing to 1.
func computeWeights(model string, history []repository.EngagementEvent) ([]float64, error) {
	n := len(history)
	weights := make([]float64, n)

	switch model {
	case domain.ModelFirstTouch:
		weights[0] = 1

	case domain.ModelLastTouch:
		weights[n-1] = 1

	case domain.ModelLinear:
		for i := range weights {
			weights[i] = 1.0 / float64(n)
		}

	case domain.ModelTimeDecay:
		first := history[0].EngagedAt
		total := 0.0
		for i, event := range history {
			days := int(event.EngagedAt.Sub(first).Hours() / 24)
			weights[i] = math.Exp(math.Ln2 / timeDecayHalfLifeDays * float64(days))
			total += weights[i]
		}
		for i := range weights {
			weights[i] /= total
		}

	case domain.ModelUShaped:
		switch n {
		case 1:
			weights[0] = 1
		case 2:
			weights[0], weights[1] = 0.5, 0.5
		default:
			middle := 0.20 / float64(n-2)
			weights[0] = 0.40
			for i := 1; i < n-1; i++ {
				weights[i] = middle
			}
			weights[n-1] = 0.40
		}

	case domain.ModelWShaped:
		switch n {
		case 1:
			weights[0] = 1
		case 2:
			weights[0], weights[1] = 0.5, 0.5
		case 3:
			weights[0], weights[1], weights[2] = 0.30, 0.40, 0.30
		default:
			// Anchor the first, middle, and last touch at 30% each and
			// spread the remainder across everything else.
			middleIdx := n / 2
			other := 0.10 / float64(n-3)
			for i := range weights {
				weights[i] = other
			}
			weights[0] = 0.30
			weights[middleIdx] = 0.30
			weights[n-1] = 0.30
		}

	default:
		return nil, ErrUnknownModel
	}

	return weights, nil
}

// topTouchpoints returns JSON snapshots of the two highest-weighted
// touchpoints. Secondary is nil when there is only one.
func topTouchpoints(touchpoints []Touchpoint) ([]byte, []byte, error) {
	ranked := make([]Touchpoint, len(touchpoints))
	copy(ranked, touchpoints)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Weight > ranked[j].Weight
	})

	var primary, secondary []byte
	if len(ranked) > 0 {
		data, err := json.Marshal(ranked[0])
		if err != nil {
			return nil, nil, err
		}
		primary = data
	}
	if len(ranked) > 1 {
		data, err := json.Marshal(ranked[1])
		if err != nil {
			return nil, nil, err
		}
		secondary = data
	}
	return primary, secondary, nil
}

func avgTimeBetweenTouches(history []repository.EngagementEvent) *float64 {
	if len(history) < 2 {
		return nil
	}
	totalDays := 0
	for i := 1; i < len(history); i++ {
		totalDays += int(history[i].EngagedAt.Sub(history[i-1].EngagedAt).Hours() / 24)
	}
	avg := float64(totalDays) / float64(len(history)-1)
	return &avg
}

func roundWeight(w float64) float64 {
	return math.Round(w*10000) / 10000
}
