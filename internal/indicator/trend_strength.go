package indicator

import (
	"math"

	"github.com/moznion/go-optional"
	"github.com/quantfork/chainsignal/internal/types"
)

// TrendStrength is an ADX-style directional strength indicator on the 0-100
// scale.
type TrendStrength struct {
	period int
}

// NewTrendStrength creates a new TrendStrength indicator with default configuration.
func NewTrendStrength() Indicator {
	return &TrendStrength{
		period: 14,
	}
}

// Name returns the name of the indicator.
func (t *TrendStrength) Name() types.IndicatorType {
	return types.IndicatorTypeTrendStrength
}

// Category returns the scoring category.
func (t *TrendStrength) Category() types.IndicatorCategory {
	return types.CategoryTrend
}

// StaticBounds returns the fixed 0-100 range.
func (t *TrendStrength) StaticBounds() optional.Option[Bounds] {
	return optional.Some(Bounds{Min: 0, Max: 100})
}

// MinPeriods returns the minimum number of bars required. The ADX needs one
// smoothing pass for the directional indexes and another for the DX average.
func (t *TrendStrength) MinPeriods() int {
	return 2 * t.period
}

// Compute calculates the ADX series using Wilder's smoothing.
func (t *TrendStrength) Compute(bars []types.PriceBar) []float64 {
	raw := nanSeries(len(bars))
	if len(bars) < t.MinPeriods() {
		return raw
	}

	n := len(bars)
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	trueRange := make([]float64, n)

	for i := 1; i < n; i++ {
		upMove := bars[i].High - bars[i-1].High
		downMove := bars[i-1].Low - bars[i].Low

		if upMove > downMove && upMove > 0 {
			plusDM[i] = upMove
		}

		if downMove > upMove && downMove > 0 {
			minusDM[i] = downMove
		}

		trueRange[i] = trueRangeAt(bars, i)
	}

	// Wilder-smoothed sums, seeded over the first period
	var smPlus, smMinus, smTR float64
	for i := 1; i <= t.period; i++ {
		smPlus += plusDM[i]
		smMinus += minusDM[i]
		smTR += trueRange[i]
	}

	var adx float64

	dxCount := 0

	for i := t.period; i < n; i++ {
		if i > t.period {
			smPlus = smPlus - smPlus/float64(t.period) + plusDM[i]
			smMinus = smMinus - smMinus/float64(t.period) + minusDM[i]
			smTR = smTR - smTR/float64(t.period) + trueRange[i]
		}

		if smTR == 0 {
			continue
		}

		plusDI := 100 * smPlus / smTR
		minusDI := 100 * smMinus / smTR

		diSum := plusDI + minusDI
		if diSum == 0 {
			continue
		}

		dx := 100 * math.Abs(plusDI-minusDI) / diSum

		dxCount++

		switch {
		case dxCount < t.period:
			adx += dx
		case dxCount == t.period:
			adx = (adx + dx) / float64(t.period)
			raw[i] = adx
		default:
			adx = (adx*float64(t.period-1) + dx) / float64(t.period)
			raw[i] = adx
		}
	}

	return raw
}

// trueRangeAt returns the true range of bar i given its predecessor.
func trueRangeAt(bars []types.PriceBar, i int) float64 {
	highLow := bars[i].High - bars[i].Low
	highPrevClose := math.Abs(bars[i].High - bars[i-1].Close)
	lowPrevClose := math.Abs(bars[i].Low - bars[i-1].Close)

	return math.Max(highLow, math.Max(highPrevClose, lowPrevClose))
}
