package features

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"hoteliq/internal/batch"
)

// CapacitySource reports total rooms per hotel id.
type CapacitySource interface {
	HotelCapacities(ctx context.Context) (map[int64]int, error)
}

// Engineer chains the feature stages. With a nil Capacity the occupancy
// stage is skipped.
type Engineer struct {
	Capacity CapacitySource
}

// Occupancy looks up hotel capacities and applies OccupancyFeatures.
func (e *Engineer) Occupancy(ctx context.Context, f Frame) (Frame, error) {
	caps, err := e.Capacity.HotelCapacities(ctx)
	if err != nil {
		return Frame{}, fmt.Errorf("load hotel capacities: %w", err)
	}
	log.Debug().Int("hotels", len(caps)).Msg("occupancy features created")
	return OccupancyFeatures(f, caps), nil
}

// Apply runs every stage in order: time, stay, pricing, aggregated, occupancy.
func (e *Engineer) Apply(ctx context.Context, recs []batch.Record) (Frame, error) {
	f := NewFrame(recs)

	f = TimeFeatures(f)
	log.Debug().Int("rows", len(f.Rows)).Msg("time features created")
	f = StayFeatures(f)
	log.Debug().Msg("stay features created")
	f = PricingFeatures(f)
	log.Debug().Msg("pricing features created")
	f = AggregatedFeatures(f)
	log.Debug().Msg("aggregated features created")

	if e.Capacity != nil {
		var err error
		if f, err = e.Occupancy(ctx, f); err != nil {
			return Frame{}, err
		}
	}

	log.Info().Int("rows", len(f.Rows)).Int("total_features", Summarize(f).TotalFeatures).Msg("feature engineering complete")
	return f, nil
}
