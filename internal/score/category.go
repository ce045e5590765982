// Package score turns a row of normalized indicator values into the technical
// master score via category-weighted aggregation.
package score

import (
	"math"

	"github.com/quantfork/chainsignal/internal/types"
	"github.com/quantfork/chainsignal/pkg/errors"
)

// weightTolerance is the accepted deviation of the category weight sum from 1.
const weightTolerance = 1e-6

// neutralScore is assumed for indicators absent from a row and for categories
// with no assigned indicators.
const neutralScore = 0.5

// CategoryWeights maps each indicator category to its share of the master
// score. Weights must sum to 1 within tolerance.
type CategoryWeights map[types.IndicatorCategory]float64

// DefaultCategoryWeights returns the default trend-heavy weighting.
func DefaultCategoryWeights() CategoryWeights {
	return CategoryWeights{
		types.CategoryTrend:      0.40,
		types.CategoryMomentum:   0.30,
		types.CategoryVolume:     0.20,
		types.CategoryVolatility: 0.10,
	}
}

// Validate checks that the weights cover valid categories and sum to 1.
func (w CategoryWeights) Validate() error {
	if len(w) == 0 {
		return errors.New(errors.ErrCodeInvalidWeights, "category weights must not be empty")
	}

	sum := 0.0

	for category, weight := range w {
		valid := false

		for _, known := range types.AllCategories {
			if category == known {
				valid = true

				break
			}
		}

		if !valid {
			return errors.Newf(errors.ErrCodeInvalidWeights, "unknown indicator category: %s", category)
		}

		if weight < 0 {
			return errors.Newf(errors.ErrCodeInvalidWeights, "category %s has negative weight %f", category, weight)
		}

		sum += weight
	}

	if math.Abs(sum-1.0) > weightTolerance {
		return errors.Newf(errors.ErrCodeInvalidWeights, "category weights must sum to 1.0, got %f", sum)
	}

	return nil
}

// MasterScore is the category-weighted composite of one indicator row, with the
// per-category breakdown retained for diagnostics.
type MasterScore struct {
	Master    float64
	SubScores map[types.IndicatorCategory]float64
}

// Aggregator computes master scores from indicator rows.
type Aggregator struct {
	weights CategoryWeights
}

// NewAggregator creates an aggregator with the given category weights.
// The weights are validated once here; changing weights means building a new
// aggregator.
func NewAggregator(weights CategoryWeights) (*Aggregator, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}

	return &Aggregator{weights: weights}, nil
}

// Aggregate computes the master score for one date's normalized indicator row.
// The categories mapping assigns each indicator to its scoring bucket; an
// indicator listed there but absent from the row contributes the neutral 0.5.
func (a *Aggregator) Aggregate(row map[types.IndicatorType]float64, categories map[types.IndicatorType]types.IndicatorCategory) MasterScore {
	sums := make(map[types.IndicatorCategory]float64)
	counts := make(map[types.IndicatorCategory]int)

	for name, category := range categories {
		value, ok := row[name]
		if !ok || math.IsNaN(value) {
			value = neutralScore
		}

		sums[category] += value
		counts[category]++
	}

	result := MasterScore{
		Master:    0,
		SubScores: make(map[types.IndicatorCategory]float64, len(types.AllCategories)),
	}

	for _, category := range types.AllCategories {
		sub := neutralScore
		if counts[category] > 0 {
			sub = sums[category] / float64(counts[category])
		}

		result.SubScores[category] = sub
		result.Master += a.weights[category] * sub
	}

	return result
}
