package datasource

import (
	"sort"
	"time"

	"github.com/moznion/go-optional"
	"github.com/quantfork/chainsignal/internal/types"
	"github.com/quantfork/chainsignal/pkg/errors"
)

// MemoryDataSource keeps bars in memory. Used by tests and for synthetic data.
type MemoryDataSource struct {
	bars map[string][]types.PriceBar
}

// NewMemoryDataSource creates an empty in-memory data source.
func NewMemoryDataSource() *MemoryDataSource {
	return &MemoryDataSource{
		bars: make(map[string][]types.PriceBar),
	}
}

// AddBars appends bars for their tickers, keeping each series sorted by date
// and dropping duplicate dates (first bar wins).
func (m *MemoryDataSource) AddBars(bars ...types.PriceBar) {
	for _, bar := range bars {
		series := m.bars[bar.Ticker]

		duplicate := false

		for _, existing := range series {
			if existing.Time.Equal(bar.Time) {
				duplicate = true

				break
			}
		}

		if duplicate {
			continue
		}

		series = append(series, bar)
		sort.Slice(series, func(i, j int) bool { return series[i].Time.Before(series[j].Time) })
		m.bars[bar.Ticker] = series
	}
}

// Initialize implements DataSource. Memory sources are populated via AddBars.
func (m *MemoryDataSource) Initialize(path string) error {
	return errors.New(errors.ErrCodeInvalidParameter, "memory data source does not load files; use AddBars")
}

// GetHistory implements DataSource.
func (m *MemoryDataSource) GetHistory(ticker string, until time.Time, n int) ([]types.PriceBar, error) {
	if n <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "history size must be positive, got %d", n)
	}

	var result []types.PriceBar

	for _, bar := range m.bars[ticker] {
		if !bar.Time.After(until) {
			result = append(result, bar)
		}
	}

	if len(result) > n {
		result = result[len(result)-n:]
	}

	return result, nil
}

// GetRange implements DataSource.
func (m *MemoryDataSource) GetRange(ticker string, start time.Time, end time.Time) ([]types.PriceBar, error) {
	var result []types.PriceBar

	for _, bar := range m.bars[ticker] {
		if !bar.Time.Before(start) && !bar.Time.After(end) {
			result = append(result, bar)
		}
	}

	return result, nil
}

// GetBar implements DataSource.
func (m *MemoryDataSource) GetBar(ticker string, date time.Time) (optional.Option[types.PriceBar], error) {
	for _, bar := range m.bars[ticker] {
		if bar.Time.Equal(date) {
			return optional.Some(bar), nil
		}
	}

	return optional.None[types.PriceBar](), nil
}

// Tickers implements DataSource.
func (m *MemoryDataSource) Tickers() ([]string, error) {
	tickers := make([]string, 0, len(m.bars))

	for ticker := range m.bars {
		tickers = append(tickers, ticker)
	}

	sort.Strings(tickers)

	return tickers, nil
}

// TradingDates implements DataSource.
func (m *MemoryDataSource) TradingDates(start time.Time, end time.Time) ([]time.Time, error) {
	seen := make(map[time.Time]struct{})

	for _, series := range m.bars {
		for _, bar := range series {
			if !bar.Time.Before(start) && !bar.Time.After(end) {
				seen[bar.Time] = struct{}{}
			}
		}
	}

	dates := make([]time.Time, 0, len(seen))
	for date := range seen {
		dates = append(dates, date)
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	return dates, nil
}

// Count implements DataSource.
func (m *MemoryDataSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	count := 0

	for _, series := range m.bars {
		for _, bar := range series {
			if start.IsSome() && bar.Time.Before(start.Unwrap()) {
				continue
			}

			if end.IsSome() && bar.Time.After(end.Unwrap()) {
				continue
			}

			count++
		}
	}

	return count, nil
}

// Close implements DataSource.
func (m *MemoryDataSource) Close() error {
	return nil
}
