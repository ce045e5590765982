package datasource

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/quantfork/chainsignal/internal/types"
	"github.com/stretchr/testify/suite"
)

type MemoryDataSourceTestSuite struct {
	suite.Suite
	source *MemoryDataSource
}

func TestMemoryDataSourceSuite(t *testing.T) {
	suite.Run(t, new(MemoryDataSourceTestSuite))
}

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func (suite *MemoryDataSourceTestSuite) SetupTest() {
	suite.source = NewMemoryDataSource()
	suite.source.AddBars(
		types.PriceBar{Time: day(3), Ticker: "AAPL", Close: 103, Volume: 10},
		types.PriceBar{Time: day(1), Ticker: "AAPL", Close: 101, Volume: 10},
		types.PriceBar{Time: day(2), Ticker: "AAPL", Close: 102, Volume: 10},
		types.PriceBar{Time: day(2), Ticker: "NVDA", Close: 500, Volume: 20},
	)
}

func (suite *MemoryDataSourceTestSuite) TestHistoryOrderedAscending() {
	bars, err := suite.source.GetHistory("AAPL", day(3), 10)

	suite.NoError(err)
	suite.Len(bars, 3)
	suite.Equal(101.0, bars[0].Close)
	suite.Equal(103.0, bars[2].Close)
}

func (suite *MemoryDataSourceTestSuite) TestHistoryExcludesFuture() {
	bars, err := suite.source.GetHistory("AAPL", day(2), 10)

	suite.NoError(err)
	suite.Len(bars, 2)
	suite.Equal(102.0, bars[1].Close)
}

func (suite *MemoryDataSourceTestSuite) TestHistoryTruncatesToN() {
	bars, err := suite.source.GetHistory("AAPL", day(3), 2)

	suite.NoError(err)
	suite.Len(bars, 2)
	// keeps the most recent n bars
	suite.Equal(102.0, bars[0].Close)
}

func (suite *MemoryDataSourceTestSuite) TestDuplicateDatesDropped() {
	suite.source.AddBars(types.PriceBar{Time: day(1), Ticker: "AAPL", Close: 999})

	bars, err := suite.source.GetHistory("AAPL", day(3), 10)

	suite.NoError(err)
	suite.Len(bars, 3)
	suite.Equal(101.0, bars[0].Close)
}

func (suite *MemoryDataSourceTestSuite) TestTickersSorted() {
	tickers, err := suite.source.Tickers()

	suite.NoError(err)
	suite.Equal([]string{"AAPL", "NVDA"}, tickers)
}

func (suite *MemoryDataSourceTestSuite) TestTradingDates() {
	dates, err := suite.source.TradingDates(day(1), day(3))

	suite.NoError(err)
	suite.Equal([]time.Time{day(1), day(2), day(3)}, dates)
}

func (suite *MemoryDataSourceTestSuite) TestCount() {
	count, err := suite.source.Count(optional.Some(day(2)), optional.None[time.Time]())

	suite.NoError(err)
	suite.Equal(3, count)
}
