package indicator

import (
	"math"

	"github.com/moznion/go-optional"
	"github.com/quantfork/chainsignal/internal/types"
)

// RSI represents the Relative Strength Index indicator.
type RSI struct {
	period int
}

// NewRSI creates a new RSI indicator with default configuration.
func NewRSI() Indicator {
	return &RSI{
		period: 14, // Default period
	}
}

// Name returns the name of the indicator.
func (r *RSI) Name() types.IndicatorType {
	return types.IndicatorTypeRSI
}

// Category returns the scoring category.
func (r *RSI) Category() types.IndicatorCategory {
	return types.CategoryMomentum
}

// StaticBounds returns the fixed 0-100 oscillator range.
func (r *RSI) StaticBounds() optional.Option[Bounds] {
	return optional.Some(Bounds{Min: 0, Max: 100})
}

// MinPeriods returns the minimum number of bars required.
func (r *RSI) MinPeriods() int {
	return r.period + 1
}

// Compute calculates the RSI series with Wilder's smoothing.
func (r *RSI) Compute(bars []types.PriceBar) []float64 {
	raw := nanSeries(len(bars))
	if len(bars) < r.period+1 {
		return raw
	}

	var avgGain, avgLoss float64

	// First average over the initial period
	for i := 1; i <= r.period; i++ {
		change := bars[i].EffectiveClose() - bars[i-1].EffectiveClose()
		if change > 0 {
			avgGain += change
		} else {
			avgLoss += -change
		}
	}

	avgGain /= float64(r.period)
	avgLoss /= float64(r.period)
	raw[r.period] = rsiFromAverages(avgGain, avgLoss)

	// Subsequent averages using Wilder's smoothing method
	for i := r.period + 1; i < len(bars); i++ {
		change := bars[i].EffectiveClose() - bars[i-1].EffectiveClose()

		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}

		avgGain = (avgGain*float64(r.period-1) + gain) / float64(r.period)
		avgLoss = (avgLoss*float64(r.period-1) + loss) / float64(r.period)
		raw[i] = rsiFromAverages(avgGain, avgLoss)
	}

	return raw
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100 // Perfect uptrend
	}

	rs := avgGain / avgLoss

	return 100 - (100 / (1 + rs))
}

// nanSeries returns a series of NaN values of length n.
func nanSeries(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.NaN()
	}

	return s
}
