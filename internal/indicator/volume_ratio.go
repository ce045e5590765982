package indicator

import (
	"github.com/moznion/go-optional"
	"github.com/quantfork/chainsignal/internal/types"
)

// VolumeRatio represents the ratio of current volume to its trailing moving
// average. Values above 1 indicate unusually heavy trading.
type VolumeRatio struct {
	period int
}

// NewVolumeRatio creates a new VolumeRatio indicator with default configuration.
func NewVolumeRatio() Indicator {
	return &VolumeRatio{
		period: 20,
	}
}

// Name returns the name of the indicator.
func (v *VolumeRatio) Name() types.IndicatorType {
	return types.IndicatorTypeVolumeRatio
}

// Category returns the scoring category.
func (v *VolumeRatio) Category() types.IndicatorCategory {
	return types.CategoryVolume
}

// StaticBounds returns None; the ratio is unbounded above.
func (v *VolumeRatio) StaticBounds() optional.Option[Bounds] {
	return optional.None[Bounds]()
}

// MinPeriods returns the minimum number of bars required.
func (v *VolumeRatio) MinPeriods() int {
	return v.period
}

// Compute calculates the volume ratio series.
func (v *VolumeRatio) Compute(bars []types.PriceBar) []float64 {
	raw := nanSeries(len(bars))

	var rollingSum float64

	for i := range bars {
		rollingSum += bars[i].Volume
		if i >= v.period {
			rollingSum -= bars[i-v.period].Volume
		}

		if i < v.period-1 {
			continue
		}

		avg := rollingSum / float64(v.period)
		if avg == 0 {
			continue
		}

		raw[i] = bars[i].Volume / avg
	}

	return raw
}
