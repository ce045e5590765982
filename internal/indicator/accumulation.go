package indicator

import (
	"github.com/moznion/go-optional"
	"github.com/quantfork/chainsignal/internal/types"
)

// Accumulation represents the accumulation/distribution line, a volume-weighted
// measure of buying and selling pressure.
type Accumulation struct{}

// NewAccumulation creates a new Accumulation indicator.
func NewAccumulation() Indicator {
	return &Accumulation{}
}

// Name returns the name of the indicator.
func (a *Accumulation) Name() types.IndicatorType {
	return types.IndicatorTypeAccumulation
}

// Category returns the scoring category.
func (a *Accumulation) Category() types.IndicatorCategory {
	return types.CategoryVolume
}

// StaticBounds returns None; the accumulation line is an unbounded cumulative sum.
func (a *Accumulation) StaticBounds() optional.Option[Bounds] {
	return optional.None[Bounds]()
}

// MinPeriods returns the minimum number of bars required.
func (a *Accumulation) MinPeriods() int {
	return 1
}

// Compute calculates the accumulation/distribution line.
func (a *Accumulation) Compute(bars []types.PriceBar) []float64 {
	raw := nanSeries(len(bars))

	var line float64

	for i, bar := range bars {
		span := bar.High - bar.Low
		if span > 0 {
			// money flow multiplier in [-1, 1] scaled by volume
			mfm := ((bar.Close - bar.Low) - (bar.High - bar.Close)) / span
			line += mfm * bar.Volume
		}

		raw[i] = line
	}

	return raw
}
