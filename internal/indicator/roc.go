package indicator

import (
	"github.com/moznion/go-optional"
	"github.com/quantfork/chainsignal/internal/types"
)

// ROC represents the rate-of-change indicator: the percentage change of the
// close over the lookback period.
type ROC struct {
	period int
}

// NewROC creates a new ROC indicator with default configuration.
func NewROC() Indicator {
	return &ROC{
		period: 10,
	}
}

// Name returns the name of the indicator.
func (r *ROC) Name() types.IndicatorType {
	return types.IndicatorTypeROC
}

// Category returns the scoring category.
func (r *ROC) Category() types.IndicatorCategory {
	return types.CategoryMomentum
}

// StaticBounds returns None; the rate of change is unbounded.
func (r *ROC) StaticBounds() optional.Option[Bounds] {
	return optional.None[Bounds]()
}

// MinPeriods returns the minimum number of bars required.
func (r *ROC) MinPeriods() int {
	return r.period + 1
}

// Compute calculates the ROC series.
func (r *ROC) Compute(bars []types.PriceBar) []float64 {
	raw := nanSeries(len(bars))

	for i := r.period; i < len(bars); i++ {
		prev := bars[i-r.period].EffectiveClose()
		if prev == 0 {
			continue
		}

		raw[i] = 100 * (bars[i].EffectiveClose() - prev) / prev
	}

	return raw
}
