package combiner

import (
	"math"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/quantfork/chainsignal/internal/types"
	"github.com/quantfork/chainsignal/pkg/errors"
)

// SignalWeights is the fixed linear combination used by weighted-sum ranking.
// Weights must be non-negative and sum to 1.
type SignalWeights struct {
	SupplyChain float64 `yaml:"supply_chain" json:"supply_chain" validate:"gte=0,lte=1"`
	Sentiment   float64 `yaml:"sentiment" json:"sentiment" validate:"gte=0,lte=1"`
	Momentum    float64 `yaml:"momentum" json:"momentum" validate:"gte=0,lte=1"`
	Volume      float64 `yaml:"volume" json:"volume" validate:"gte=0,lte=1"`
}

// DefaultSignalWeights returns the standard combination: 40% supply-chain,
// 30% sentiment, 20% momentum, 10% volume.
func DefaultSignalWeights() SignalWeights {
	return SignalWeights{
		SupplyChain: 0.40,
		Sentiment:   0.30,
		Momentum:    0.20,
		Volume:      0.10,
	}
}

// Validate checks ranges and the unit-sum constraint.
func (w SignalWeights) Validate() error {
	if err := validator.New().Struct(w); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidWeights, "invalid signal weights", err)
	}

	const tolerance = 1e-6

	sum := w.SupplyChain + w.Sentiment + w.Momentum + w.Volume
	if sum < 1-tolerance || sum > 1+tolerance {
		return errors.Newf(errors.ErrCodeInvalidWeights, "signal weights sum to %.6f, expected 1", sum)
	}

	return nil
}

// WeightedCombiner ranks by a fixed linear combination of the feature
// components. Missing components contribute zero.
type WeightedCombiner struct {
	weights SignalWeights
}

// NewWeightedCombiner creates a weighted-sum combiner, validating the weights.
func NewWeightedCombiner(weights SignalWeights) (*WeightedCombiner, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}

	return &WeightedCombiner{weights: weights}, nil
}

// Score computes the weighted sum for one ticker's features.
func (c *WeightedCombiner) Score(f Features) float64 {
	weights := []float64{c.weights.SupplyChain, c.weights.Sentiment, c.weights.Momentum, c.weights.Volume}

	score := 0.0

	for i, component := range f.vector() {
		if math.IsNaN(component) {
			continue
		}

		score += weights[i] * component
	}

	return score
}

// Rank implements Combiner.
func (c *WeightedCombiner) Rank(features []Features, _ time.Time) []types.ScoredTicker {
	scored := make([]types.ScoredTicker, len(features))
	for i, f := range features {
		scored[i] = types.ScoredTicker{Ticker: f.Ticker, Score: c.Score(f)}
	}

	return rankByScore(scored)
}
