package indicator

import (
	"time"

	"github.com/quantfork/chainsignal/internal/types"
	"github.com/quantfork/chainsignal/pkg/errors"
)

// Frame holds the raw and normalized indicator values for one ticker, indexed
// by date. Normalized values are in [0,1]; norm[t] depends only on data with
// date <= t. A frame is built once per ticker per run and never mutated.
type Frame struct {
	Ticker string
	Dates  []time.Time
	Raw    map[types.IndicatorType][]float64
	Norm   map[types.IndicatorType][]float64

	categories map[types.IndicatorType]types.IndicatorCategory
	dateIndex  map[time.Time]int
}

// FrameBuilder computes indicator frames from bar histories.
type FrameBuilder struct {
	registry Registry
	window   int
}

// NewFrameBuilder creates a frame builder using the given registry. The window
// is the trailing observation count for rolling min-max normalization of
// unbounded indicators; zero means the 252-observation default.
func NewFrameBuilder(registry Registry, window int) *FrameBuilder {
	if window <= 0 {
		window = DefaultRollingWindow
	}

	return &FrameBuilder{
		registry: registry,
		window:   window,
	}
}

// Build computes the frame for one ticker from its ordered bar history.
// Indicators whose minimum lookback exceeds the history produce NaN raw values
// and neutral 0.5 normalized values; Build never fails on short history.
func (b *FrameBuilder) Build(ticker string, bars []types.PriceBar) (*Frame, error) {
	frame := &Frame{
		Ticker:     ticker,
		Dates:      make([]time.Time, len(bars)),
		Raw:        make(map[types.IndicatorType][]float64),
		Norm:       make(map[types.IndicatorType][]float64),
		categories: make(map[types.IndicatorType]types.IndicatorCategory),
		dateIndex:  make(map[time.Time]int, len(bars)),
	}

	for i, bar := range bars {
		frame.Dates[i] = bar.Time
		frame.dateIndex[bar.Time] = i
	}

	for _, name := range b.registry.ListIndicators() {
		ind, err := b.registry.GetIndicator(name)
		if err != nil {
			return nil, err
		}

		raw := ind.Compute(bars)
		if len(raw) != len(bars) {
			return nil, errors.Newf(errors.ErrCodeIndicatorCalculation,
				"indicator %s returned %d values for %d bars", name, len(raw), len(bars))
		}

		var norm []float64

		if bounds := ind.StaticBounds(); bounds.IsSome() {
			norm = make([]float64, len(raw))
			for i, v := range raw {
				norm[i] = NormalizeStatic(v, bounds.Unwrap())
			}
		} else {
			norm = NormalizeRolling(raw, b.window)
		}

		frame.Raw[name] = raw
		frame.Norm[name] = norm
		frame.categories[name] = ind.Category()
	}

	return frame, nil
}

// Row returns the normalized indicator values at the given date. Indicators
// with no observation at that date report the neutral 0.5. The second return
// is false when the ticker did not trade on that date.
func (f *Frame) Row(date time.Time) (map[types.IndicatorType]float64, bool) {
	i, ok := f.dateIndex[date]
	if !ok {
		return nil, false
	}

	row := make(map[types.IndicatorType]float64, len(f.Norm))
	for name, series := range f.Norm {
		row[name] = series[i]
	}

	return row, true
}

// Category returns the scoring category of an indicator present in the frame.
func (f *Frame) Category(name types.IndicatorType) (types.IndicatorCategory, bool) {
	c, ok := f.categories[name]

	return c, ok
}

// Categories returns the indicator-to-category assignment of the frame.
func (f *Frame) Categories() map[types.IndicatorType]types.IndicatorCategory {
	out := make(map[types.IndicatorType]types.IndicatorCategory, len(f.categories))
	for k, v := range f.categories {
		out[k] = v
	}

	return out
}
