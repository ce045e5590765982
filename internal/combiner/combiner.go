package combiner

import (
	"math"
	"sort"
	"time"

	"github.com/quantfork/chainsignal/internal/types"
)

// Features are the per-ticker inputs to ranking at one rebalance date. Each
// component is a bounded score; NaN marks a missing feature.
type Features struct {
	Ticker string
	// SupplyChain is the supply-chain strength score in [0,1].
	SupplyChain float64
	// Sentiment is the news sentiment score in [0,1].
	Sentiment float64
	// Momentum is the technical momentum sub-score in [0,1].
	Momentum float64
	// Volume is the technical volume sub-score in [0,1].
	Volume float64
}

// Complete reports whether every feature component is present.
func (f Features) Complete() bool {
	return !math.IsNaN(f.SupplyChain) && !math.IsNaN(f.Sentiment) &&
		!math.IsNaN(f.Momentum) && !math.IsNaN(f.Volume)
}

func (f Features) vector() []float64 {
	return []float64{f.SupplyChain, f.Sentiment, f.Momentum, f.Volume}
}

// Combiner merges per-ticker features into a single ranking value. Both
// strategies expose the same interface and are interchangeable by
// configuration.
type Combiner interface {
	// Rank orders the tickers by composite score descending. Ties are broken
	// by ticker symbol ascending.
	Rank(features []Features, asOf time.Time) []types.ScoredTicker
}

// rankByScore sorts scored tickers descending with the deterministic
// alphabetical tie-break.
func rankByScore(scored []types.ScoredTicker) []types.ScoredTicker {
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}

		return scored[i].Ticker < scored[j].Ticker
	})

	return scored
}
