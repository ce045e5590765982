package types

import "time"

// PriceBar represents one day of OHLCV data for a single ticker.
// Bars are immutable after ingestion; all technical computation reads from them.
type PriceBar struct {
	// Time is the trading date of the bar.
	Time time.Time `json:"time" yaml:"time"`
	// Ticker is the symbol of the instrument.
	Ticker string `json:"ticker" yaml:"ticker"`
	// Open is the opening price.
	Open float64 `json:"open" yaml:"open"`
	// High is the highest price.
	High float64 `json:"high" yaml:"high"`
	// Low is the lowest price.
	Low float64 `json:"low" yaml:"low"`
	// Close is the closing price.
	Close float64 `json:"close" yaml:"close"`
	// AdjClose is the split/dividend adjusted close. Zero means unadjusted;
	// use EffectiveClose to read the price used for return computation.
	AdjClose float64 `json:"adj_close" yaml:"adj_close"`
	// Volume is the traded volume.
	Volume float64 `json:"volume" yaml:"volume"`
}

// EffectiveClose returns the adjusted close when available, falling back to
// the raw close. Returns are always computed on this value.
func (b PriceBar) EffectiveClose() float64 {
	if b.AdjClose > 0 {
		return b.AdjClose
	}

	return b.Close
}
