package datasource

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"

	"github.com/quantfork/chainsignal/internal/logger"
	"github.com/quantfork/chainsignal/pkg/errors"
)

type DuckDBDataSourceTestSuite struct {
	suite.Suite
	source DataSource
}

func TestDuckDBDataSourceSuite(t *testing.T) {
	suite.Run(t, new(DuckDBDataSourceTestSuite))
}

func (suite *DuckDBDataSourceTestSuite) SetupTest() {
	source, err := NewDuckDBDataSource(":memory:", logger.NewNopLogger())
	suite.Require().NoError(err)
	suite.source = source
}

func (suite *DuckDBDataSourceTestSuite) TearDownTest() {
	suite.NoError(suite.source.Close())
}

func (suite *DuckDBDataSourceTestSuite) writeCSV(content string) string {
	path := filepath.Join(suite.T().TempDir(), "bars.csv")
	suite.Require().NoError(os.WriteFile(path, []byte(content), 0644))

	return path
}

func (suite *DuckDBDataSourceTestSuite) TestIngestWithoutAdjustedClose() {
	path := suite.writeCSV(
		"time,ticker,open,high,low,close,volume\n" +
			"2024-01-01,AAPL,100,102,99,101,1000\n" +
			"2024-01-02,AAPL,101,103,100,102,1100\n")

	suite.Require().NoError(suite.source.Initialize(path))

	bars, err := suite.source.GetRange("AAPL", day(1), day(2))

	suite.NoError(err)
	suite.Require().Len(bars, 2)
	suite.Equal(101.0, bars[0].Close)
	suite.Equal(101.0, bars[0].AdjClose)
	suite.Equal(101.0, bars[0].EffectiveClose())
	suite.Equal(102.0, bars[1].EffectiveClose())
}

func (suite *DuckDBDataSourceTestSuite) TestIngestWithAdjustedClose() {
	path := suite.writeCSV(
		"time,ticker,open,high,low,close,adj_close,volume\n" +
			"2024-01-01,AAPL,100,102,99,101,50.5,1000\n" +
			"2024-01-02,AAPL,101,103,100,102,,1100\n")

	suite.Require().NoError(suite.source.Initialize(path))

	bars, err := suite.source.GetRange("AAPL", day(1), day(2))

	suite.NoError(err)
	suite.Require().Len(bars, 2)
	suite.Equal(50.5, bars[0].AdjClose)
	suite.Equal(50.5, bars[0].EffectiveClose())
	// a blank adjusted value falls back to close
	suite.Equal(102.0, bars[1].AdjClose)
}

func (suite *DuckDBDataSourceTestSuite) TestDuplicateRowsDeduplicated() {
	path := suite.writeCSV(
		"time,ticker,open,high,low,close,volume\n" +
			"2024-01-01,AAPL,100,102,99,101,1000\n" +
			"2024-01-01,AAPL,100,102,99,101,1000\n" +
			"2024-01-02,AAPL,101,103,100,102,1100\n")

	suite.Require().NoError(suite.source.Initialize(path))

	count, err := suite.source.Count(optional.None[time.Time](), optional.None[time.Time]())

	suite.NoError(err)
	suite.Equal(2, count)
}

func (suite *DuckDBDataSourceTestSuite) TestHistoryAscendingAndBarLookup() {
	path := suite.writeCSV(
		"time,ticker,open,high,low,close,volume\n" +
			"2024-01-03,AAPL,102,104,101,103,1200\n" +
			"2024-01-01,AAPL,100,102,99,101,1000\n" +
			"2024-01-02,AAPL,101,103,100,102,1100\n" +
			"2024-01-02,NVDA,500,510,495,505,2000\n")

	suite.Require().NoError(suite.source.Initialize(path))

	bars, err := suite.source.GetHistory("AAPL", day(3), 2)
	suite.NoError(err)
	suite.Require().Len(bars, 2)
	suite.Equal(102.0, bars[0].Close)
	suite.Equal(103.0, bars[1].Close)

	bar, err := suite.source.GetBar("NVDA", day(2))
	suite.NoError(err)
	suite.Require().True(bar.IsSome())
	suite.Equal(505.0, bar.Unwrap().Close)

	missing, err := suite.source.GetBar("NVDA", day(3))
	suite.NoError(err)
	suite.True(missing.IsNone())

	tickers, err := suite.source.Tickers()
	suite.NoError(err)
	suite.Equal([]string{"AAPL", "NVDA"}, tickers)
}

func (suite *DuckDBDataSourceTestSuite) TestReinitializeReplacesBars() {
	first := suite.writeCSV(
		"time,ticker,open,high,low,close,volume\n" +
			"2024-01-01,AAPL,100,102,99,101,1000\n")
	suite.Require().NoError(suite.source.Initialize(first))

	second := filepath.Join(suite.T().TempDir(), "replacement.csv")
	suite.Require().NoError(os.WriteFile(second, []byte(
		"time,ticker,open,high,low,close,volume\n"+
			"2024-01-01,NVDA,500,510,495,505,2000\n"), 0644))
	suite.Require().NoError(suite.source.Initialize(second))

	tickers, err := suite.source.Tickers()

	suite.NoError(err)
	suite.Equal([]string{"NVDA"}, tickers)
}

func (suite *DuckDBDataSourceTestSuite) TestRejectsUnsupportedExtension() {
	err := suite.source.Initialize("bars.txt")

	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
}
