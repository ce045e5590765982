package indicator

import (
	"github.com/moznion/go-optional"
	"github.com/quantfork/chainsignal/internal/types"
)

// MACD represents the Moving Average Convergence Divergence indicator.
// The raw value is the MACD histogram (MACD line minus signal line).
type MACD struct {
	fastPeriod   int
	slowPeriod   int
	signalPeriod int
}

// NewMACD creates a new MACD indicator with default configuration.
func NewMACD() Indicator {
	return &MACD{
		fastPeriod:   12,
		slowPeriod:   26,
		signalPeriod: 9,
	}
}

// Name returns the name of the indicator.
func (m *MACD) Name() types.IndicatorType {
	return types.IndicatorTypeMACD
}

// Category returns the scoring category.
func (m *MACD) Category() types.IndicatorCategory {
	return types.CategoryTrend
}

// StaticBounds returns None; the histogram is unbounded and normalized with a
// rolling min-max window.
func (m *MACD) StaticBounds() optional.Option[Bounds] {
	return optional.None[Bounds]()
}

// MinPeriods returns the minimum number of bars required.
func (m *MACD) MinPeriods() int {
	return m.slowPeriod + m.signalPeriod
}

// Compute calculates the MACD histogram series.
func (m *MACD) Compute(bars []types.PriceBar) []float64 {
	raw := nanSeries(len(bars))
	if len(bars) < m.MinPeriods() {
		return raw
	}

	closes := make([]float64, len(bars))
	for i, bar := range bars {
		closes[i] = bar.EffectiveClose()
	}

	fast := emaSeries(closes, m.fastPeriod)
	slow := emaSeries(closes, m.slowPeriod)

	macdLine := make([]float64, len(bars))
	for i := range macdLine {
		macdLine[i] = fast[i] - slow[i]
	}

	// Signal line is the EMA of the MACD line, seeded after the slow period
	signal := emaSeries(macdLine[m.slowPeriod-1:], m.signalPeriod)

	for i := m.MinPeriods() - 1; i < len(bars); i++ {
		raw[i] = macdLine[i] - signal[i-(m.slowPeriod-1)]
	}

	return raw
}

// emaSeries computes an exponential moving average seeded with the simple
// average of the first period values.
func emaSeries(values []float64, period int) []float64 {
	ema := make([]float64, len(values))
	if len(values) == 0 {
		return ema
	}

	if len(values) < period {
		copy(ema, values)

		return ema
	}

	seed := 0.0
	for i := 0; i < period; i++ {
		seed += values[i]
	}

	seed /= float64(period)

	multiplier := 2.0 / (float64(period) + 1.0)

	for i := range values {
		switch {
		case i < period-1:
			ema[i] = values[i]
		case i == period-1:
			ema[i] = seed
		default:
			ema[i] = (values[i]-ema[i-1])*multiplier + ema[i-1]
		}
	}

	return ema
}
