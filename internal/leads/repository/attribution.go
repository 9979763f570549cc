package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AttributionRecord distributes credit for one conversion across the lead's
// touchpoints under a given model. Touchpoints is a JSON snapshot taken at
// attribution time so later engagement edits never rewrite history; the
// first/last touch descriptors and the two highest-weighted touchpoint
// snapshots are denormalized for reporting.
type AttributionRecord struct {
	ID                    uuid.UUID
	LeadID                uuid.UUID
	ConversionType        string
	ConversionID          *uuid.UUID
	ConversionValue       float64
	ConversionDate        time.Time
	AttributionModel      string
	Touchpoints           []byte
	TouchpointCount       int
	FirstTouchSource      *string
	FirstTouchID          *uuid.UUID
	FirstTouchName        *string
	FirstTouchDate        time.Time
	FirstTouchWeight      float64
	LastTouchSource       *string
	LastTouchID           *uuid.UUID
	LastTouchName         *string
	LastTouchDate         time.Time
	LastTouchWeight       float64
	PrimaryTouchpoint     []byte
	SecondaryTouchpoint   []byte
	JourneyDurationDays   int
	AvgTimeBetweenTouches *float64
	CreatedAt             time.Time
}

type CreateAttributionParams struct {
	LeadID                uuid.UUID
	ConversionType        string
	ConversionID          *uuid.UUID
	ConversionValue       float64
	ConversionDate        time.Time
	AttributionModel      string
	Touchpoints           []byte
	TouchpointCount       int
	FirstTouchSource      *string
	FirstTouchID          *uuid.UUID
	FirstTouchName        *string
	FirstTouchDate        time.Time
	FirstTouchWeight      float64
	LastTouchSource       *string
	LastTouchID           *uuid.UUID
	LastTouchName         *string
	LastTouchDate         time.Time
	LastTouchWeight       float64
	PrimaryTouchpoint     []byte
	SecondaryTouchpoint   []byte
	JourneyDurationDays   int
	AvgTimeBetweenTouches *float64
}

const attributionColumns = `id, lead_id, conversion_type, conversion_id, conversion_value, conversion_date,
	attribution_model, touchpoints, touchpoint_count,
	first_touch_source, first_touch_id, first_touch_name, first_touch_date, first_touch_weight,
	last_touch_source, last_touch_id, last_touch_name, last_touch_date, last_touch_weight,
	primary_touchpoint, secondary_touchpoint,
	journey_duration_days, avg_time_between_touches, created_at`

func scanAttribution(row pgx.Row) (AttributionRecord, error) {
	var rec AttributionRecord
	err := row.Scan(
		&rec.ID, &rec.LeadID, &rec.ConversionType, &rec.ConversionID, &rec.ConversionValue,
		&rec.ConversionDate, &rec.AttributionModel, &rec.Touchpoints, &rec.TouchpointCount,
		&rec.FirstTouchSource, &rec.FirstTouchID, &rec.FirstTouchName, &rec.FirstTouchDate,
		&rec.FirstTouchWeight, &rec.LastTouchSource, &rec.LastTouchID, &rec.LastTouchName,
		&rec.LastTouchDate, &rec.LastTouchWeight, &rec.PrimaryTouchpoint, &rec.SecondaryTouchpoint,
		&rec.JourneyDurationDays, &rec.AvgTimeBetweenTouches, &rec.CreatedAt,
	)
	return rec, err
}

func (r *Repository) CreateAttribution(ctx context.Context, params CreateAttributionParams) (AttributionRecord, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO lead_attribution (
			lead_id, conversion_type, conversion_id, conversion_value, conversion_date,
			attribution_model, touchpoints, touchpoint_count,
			first_touch_source, first_touch_id, first_touch_name, first_touch_date, first_touch_weight,
			last_touch_source, last_touch_id, last_touch_name, last_touch_date, last_touch_weight,
			primary_touchpoint, secondary_touchpoint,
			journey_duration_days, avg_time_between_touches
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
		RETURNING `+attributionColumns,
		params.LeadID, params.ConversionType, params.ConversionID, params.ConversionValue,
		params.ConversionDate, params.AttributionModel, params.Touchpoints, params.TouchpointCount,
		params.FirstTouchSource, params.FirstTouchID, params.FirstTouchName, params.FirstTouchDate,
		params.FirstTouchWeight, params.LastTouchSource, params.LastTouchID, params.LastTouchName,
		params.LastTouchDate, params.LastTouchWeight, params.PrimaryTouchpoint, params.SecondaryTouchpoint,
		params.JourneyDurationDays, params.AvgTimeBetweenTouches,
	)
	return scanAttribution(row)
}

// ListAttributions returns all recorded conversions for a lead, newest first.
func (r *Repository) ListAttributions(ctx context.Context, leadID uuid.UUID) ([]AttributionRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+attributionColumns+`
		FROM lead_attribution
		WHERE lead_id = $1
		ORDER BY conversion_date DESC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]AttributionRecord, 0)
	for rows.Next() {
		rec, err := scanAttribution(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// SumAttributedRevenue totals revenue_attributed across the lead's engagement
// events. Null values count as zero.
func (r *Repository) SumAttributedRevenue(ctx context.Context, leadID uuid.UUID) (float64, error) {
	var total float64
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(revenue_attributed), 0)
		FROM engagement_history
		WHERE lead_id = $1
	`, leadID).Scan(&total)
	return total, err
}
