package indicator

import (
	"github.com/moznion/go-optional"
	"github.com/quantfork/chainsignal/internal/types"
)

// Bounds is the fixed output range of a bounded indicator.
type Bounds struct {
	Min float64
	Max float64
}

// Indicator computes one raw technical series from an ordered bar sequence.
//
// Compute must be causal: raw[i] may depend only on bars[0..i]. Positions with
// insufficient warm-up history are NaN; the frame builder normalizes them to
// the neutral 0.5 and never lets NaN propagate downstream.
type Indicator interface {
	// Name returns the name of the indicator.
	Name() types.IndicatorType
	// Category returns the scoring category the indicator belongs to.
	Category() types.IndicatorCategory
	// StaticBounds returns the indicator's fixed output range, or None for
	// unbounded indicators which are normalized with a rolling min-max window.
	StaticBounds() optional.Option[Bounds]
	// MinPeriods returns the minimum number of bars needed before the
	// indicator produces a value.
	MinPeriods() int
	// Compute returns the raw series aligned index-for-index with bars.
	Compute(bars []types.PriceBar) []float64
}
