package indicator

import (
	"github.com/moznion/go-optional"
	"github.com/quantfork/chainsignal/internal/types"
)

// Momentum represents the N-day price momentum: the absolute change of the
// close over the lookback period.
type Momentum struct {
	period int
}

// NewMomentum creates a new Momentum indicator with default configuration.
func NewMomentum() Indicator {
	return &Momentum{
		period: 20,
	}
}

// Name returns the name of the indicator.
func (m *Momentum) Name() types.IndicatorType {
	return types.IndicatorTypeMomentum
}

// Category returns the scoring category.
func (m *Momentum) Category() types.IndicatorCategory {
	return types.CategoryMomentum
}

// StaticBounds returns None; raw momentum is unbounded.
func (m *Momentum) StaticBounds() optional.Option[Bounds] {
	return optional.None[Bounds]()
}

// MinPeriods returns the minimum number of bars required.
func (m *Momentum) MinPeriods() int {
	return m.period + 1
}

// Compute calculates the momentum series.
func (m *Momentum) Compute(bars []types.PriceBar) []float64 {
	raw := nanSeries(len(bars))

	for i := m.period; i < len(bars); i++ {
		raw[i] = bars[i].EffectiveClose() - bars[i-m.period].EffectiveClose()
	}

	return raw
}
