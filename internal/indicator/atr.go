package indicator

import (
	"github.com/moznion/go-optional"
	"github.com/quantfork/chainsignal/internal/types"
)

// ATR represents the Average True Range indicator.
type ATR struct {
	period int
}

// NewATR creates a new ATR indicator with default configuration.
func NewATR() Indicator {
	return &ATR{
		period: 14, // Default period
	}
}

// Name returns the name of the indicator.
func (a *ATR) Name() types.IndicatorType {
	return types.IndicatorTypeATR
}

// Category returns the scoring category.
func (a *ATR) Category() types.IndicatorCategory {
	return types.CategoryVolatility
}

// StaticBounds returns None; the true range scales with price.
func (a *ATR) StaticBounds() optional.Option[Bounds] {
	return optional.None[Bounds]()
}

// MinPeriods returns the minimum number of bars required.
func (a *ATR) MinPeriods() int {
	return a.period + 1
}

// Compute calculates the ATR series using Wilder's smoothing.
func (a *ATR) Compute(bars []types.PriceBar) []float64 {
	raw := nanSeries(len(bars))
	if len(bars) < a.period+1 {
		return raw
	}

	// Seed with the simple average of the first period true ranges
	var atr float64
	for i := 1; i <= a.period; i++ {
		atr += trueRangeAt(bars, i)
	}

	atr /= float64(a.period)
	raw[a.period] = atr

	for i := a.period + 1; i < len(bars); i++ {
		atr = (atr*float64(a.period-1) + trueRangeAt(bars, i)) / float64(a.period)
		raw[i] = atr
	}

	return raw
}
