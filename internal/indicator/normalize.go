package indicator

import (
	"math"

	"github.com/quantfork/chainsignal/pkg/formulas"
)

// NeutralNorm is the normalized value assigned to missing raw observations.
// Warm-up gaps score neutral, never 0 or 1.
const NeutralNorm = 0.5

// rollingEpsilon guards the rolling min-max denominator against a flat window.
const rollingEpsilon = 1e-9

// DefaultRollingWindow is the default trailing window for rolling min-max
// normalization of unbounded indicators.
const DefaultRollingWindow = 252

// NormalizeStatic maps a raw value from a fixed range onto [0,1] with a
// closed-form point-wise formula. The same raw value always normalizes
// identically regardless of surrounding history.
func NormalizeStatic(raw float64, bounds Bounds) float64 {
	if math.IsNaN(raw) {
		return NeutralNorm
	}

	span := bounds.Max - bounds.Min
	if span <= 0 {
		return NeutralNorm
	}

	return formulas.Clip((raw-bounds.Min)/span, 0, 1)
}

// NormalizeRolling maps each raw value onto [0,1] using the min and max of a
// trailing window ending at that index. Only observations at or before index i
// contribute to norm[i]; appending future rows never changes earlier values.
// NaN raw values normalize to the neutral 0.5 and are excluded from the window
// extrema.
func NormalizeRolling(raw []float64, window int) []float64 {
	if window <= 0 {
		window = DefaultRollingWindow
	}

	norm := make([]float64, len(raw))

	for i := range raw {
		if math.IsNaN(raw[i]) {
			norm[i] = NeutralNorm

			continue
		}

		lo := i - window + 1
		if lo < 0 {
			lo = 0
		}

		minVal := math.Inf(1)
		maxVal := math.Inf(-1)

		for j := lo; j <= i; j++ {
			if math.IsNaN(raw[j]) {
				continue
			}

			if raw[j] < minVal {
				minVal = raw[j]
			}

			if raw[j] > maxVal {
				maxVal = raw[j]
			}
		}

		norm[i] = formulas.Clip((raw[i]-minVal)/(maxVal-minVal+rollingEpsilon), 0, 1)
	}

	return norm
}
