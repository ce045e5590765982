package indicator

import (
	"math"

	"github.com/moznion/go-optional"
	"github.com/quantfork/chainsignal/internal/types"
)

// StochasticOscillator represents the stochastic %K oscillator.
type StochasticOscillator struct {
	period int
}

// NewStochasticOscillator creates a new stochastic oscillator with default configuration.
func NewStochasticOscillator() Indicator {
	return &StochasticOscillator{
		period: 14,
	}
}

// Name returns the name of the indicator.
func (s *StochasticOscillator) Name() types.IndicatorType {
	return types.IndicatorTypeStochasticOscillator
}

// Category returns the scoring category.
func (s *StochasticOscillator) Category() types.IndicatorCategory {
	return types.CategoryMomentum
}

// StaticBounds returns the fixed 0-100 range.
func (s *StochasticOscillator) StaticBounds() optional.Option[Bounds] {
	return optional.Some(Bounds{Min: 0, Max: 100})
}

// MinPeriods returns the minimum number of bars required.
func (s *StochasticOscillator) MinPeriods() int {
	return s.period
}

// Compute calculates the %K series.
func (s *StochasticOscillator) Compute(bars []types.PriceBar) []float64 {
	raw := nanSeries(len(bars))

	for i := s.period - 1; i < len(bars); i++ {
		highest := math.Inf(-1)
		lowest := math.Inf(1)

		for j := i - s.period + 1; j <= i; j++ {
			if bars[j].High > highest {
				highest = bars[j].High
			}

			if bars[j].Low < lowest {
				lowest = bars[j].Low
			}
		}

		if highest == lowest {
			raw[i] = 50 // flat window, neither overbought nor oversold

			continue
		}

		raw[i] = 100 * (bars[i].Close - lowest) / (highest - lowest)
	}

	return raw
}
