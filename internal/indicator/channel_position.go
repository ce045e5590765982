package indicator

import (
	"math"

	"github.com/moznion/go-optional"
	"github.com/quantfork/chainsignal/internal/types"
)

// ChannelPosition measures where the close sits within the trailing high-low
// channel, from 0 (at the channel low) to 1 (at the channel high).
type ChannelPosition struct {
	period int
}

// NewChannelPosition creates a new ChannelPosition indicator with default configuration.
func NewChannelPosition() Indicator {
	return &ChannelPosition{
		period: 20,
	}
}

// Name returns the name of the indicator.
func (c *ChannelPosition) Name() types.IndicatorType {
	return types.IndicatorTypeChannelPosition
}

// Category returns the scoring category.
func (c *ChannelPosition) Category() types.IndicatorCategory {
	return types.CategoryVolatility
}

// StaticBounds returns the fixed [0, 1] range.
func (c *ChannelPosition) StaticBounds() optional.Option[Bounds] {
	return optional.Some(Bounds{Min: 0, Max: 1})
}

// MinPeriods returns the minimum number of bars required.
func (c *ChannelPosition) MinPeriods() int {
	return c.period
}

// Compute calculates the channel position series.
func (c *ChannelPosition) Compute(bars []types.PriceBar) []float64 {
	raw := nanSeries(len(bars))

	for i := c.period - 1; i < len(bars); i++ {
		highest := math.Inf(-1)
		lowest := math.Inf(1)

		for j := i - c.period + 1; j <= i; j++ {
			if bars[j].High > highest {
				highest = bars[j].High
			}

			if bars[j].Low < lowest {
				lowest = bars[j].Low
			}
		}

		if highest == lowest {
			raw[i] = 0.5

			continue
		}

		raw[i] = (bars[i].Close - lowest) / (highest - lowest)
	}

	return raw
}
