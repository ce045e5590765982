package datasource

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/quantfork/chainsignal/internal/types"
)

// DataSource provides ordered per-ticker daily OHLCV history.
//
// Implementations must return bars sorted by date ascending with no duplicate
// dates per ticker. Missing dates are tolerated; indicator updates simply skip
// them.
type DataSource interface {
	// Initialize loads price data from the given path. CSV and parquet files
	// are supported; the file must expose at least
	// time, ticker, open, high, low, close, volume columns.
	Initialize(path string) error
	// GetHistory returns up to n bars for ticker with dates at or before until,
	// ordered ascending. Fewer bars are returned when history is short.
	GetHistory(ticker string, until time.Time, n int) ([]types.PriceBar, error)
	// GetRange returns all bars for ticker in [start, end], ordered ascending.
	GetRange(ticker string, start time.Time, end time.Time) ([]types.PriceBar, error)
	// GetBar returns the bar for ticker on date, or None if the ticker did not
	// trade that day.
	GetBar(ticker string, date time.Time) (optional.Option[types.PriceBar], error)
	// Tickers returns all distinct tickers, sorted ascending.
	Tickers() ([]string, error)
	// TradingDates returns all distinct trading dates in [start, end] across
	// the whole dataset, sorted ascending.
	TradingDates(start time.Time, end time.Time) ([]time.Time, error)
	// Count returns the number of bars within the optional time range.
	Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error)
	// Close closes the data source and releases any resources.
	Close() error
}
