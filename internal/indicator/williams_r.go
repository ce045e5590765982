package indicator

import (
	"math"

	"github.com/moznion/go-optional"
	"github.com/quantfork/chainsignal/internal/types"
)

// WilliamsR represents the Williams %R oscillator on the [-100, 0] scale.
type WilliamsR struct {
	period int
}

// NewWilliamsR creates a new Williams %R indicator with default configuration.
func NewWilliamsR() Indicator {
	return &WilliamsR{
		period: 14,
	}
}

// Name returns the name of the indicator.
func (w *WilliamsR) Name() types.IndicatorType {
	return types.IndicatorTypeWilliamsR
}

// Category returns the scoring category.
func (w *WilliamsR) Category() types.IndicatorCategory {
	return types.CategoryMomentum
}

// StaticBounds returns the fixed [-100, 0] range, so -100 normalizes to 0 and
// 0 normalizes to 1.
func (w *WilliamsR) StaticBounds() optional.Option[Bounds] {
	return optional.Some(Bounds{Min: -100, Max: 0})
}

// MinPeriods returns the minimum number of bars required.
func (w *WilliamsR) MinPeriods() int {
	return w.period
}

// Compute calculates the %R series.
func (w *WilliamsR) Compute(bars []types.PriceBar) []float64 {
	raw := nanSeries(len(bars))

	for i := w.period - 1; i < len(bars); i++ {
		highest := math.Inf(-1)
		lowest := math.Inf(1)

		for j := i - w.period + 1; j <= i; j++ {
			if bars[j].High > highest {
				highest = bars[j].High
			}

			if bars[j].Low < lowest {
				lowest = bars[j].Low
			}
		}

		if highest == lowest {
			raw[i] = -50

			continue
		}

		raw[i] = -100 * (highest - bars[i].Close) / (highest - lowest)
	}

	return raw
}
