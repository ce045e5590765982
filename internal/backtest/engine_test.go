package backtest

import (
	"context"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"

	"github.com/quantfork/chainsignal/internal/combiner"
	"github.com/quantfork/chainsignal/internal/datasource"
	"github.com/quantfork/chainsignal/internal/indicator"
	"github.com/quantfork/chainsignal/internal/logger"
	"github.com/quantfork/chainsignal/internal/types"
	"github.com/quantfork/chainsignal/pkg/errors"
)

type EngineTestSuite struct {
	suite.Suite
	data    *datasource.MemoryDataSource
	builder *indicator.FrameBuilder
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func (suite *EngineTestSuite) SetupTest() {
	suite.data = datasource.NewMemoryDataSource()
	suite.builder = indicator.NewFrameBuilder(indicator.NewDefaultRegistry(), 30)
}

// addTrendBars appends n weekday bars for ticker starting at start, with a
// constant daily return, and returns the generated bars in date order.
func (suite *EngineTestSuite) addTrendBars(ticker string, start time.Time, n int, dailyReturn float64) []types.PriceBar {
	bars := make([]types.PriceBar, 0, n)
	price := 100.0
	date := start

	for len(bars) < n {
		for date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
			date = date.AddDate(0, 0, 1)
		}

		bars = append(bars, types.PriceBar{
			Time:   date,
			Ticker: ticker,
			Open:   price,
			High:   price * 1.01,
			Low:    price * 0.99,
			Close:  price,
			Volume: 1_000_000,
		})

		price *= 1 + dailyReturn
		date = date.AddDate(0, 0, 1)
	}

	suite.data.AddBars(bars...)

	return bars
}

// technicalOnlyWeights zeroes the news-driven components so ranking depends
// on price signals alone.
func technicalOnlyWeights() combiner.SignalWeights {
	return combiner.SignalWeights{
		SupplyChain: 0,
		Sentiment:   0,
		Momentum:    0.6,
		Volume:      0.4,
	}
}

func (suite *EngineTestSuite) newConfig(start, end time.Time) Config {
	config := DefaultConfig()
	config.InitialCapital = 100000
	config.UniverseSize = 3
	config.TopN = 1
	config.FeeRate = 0
	config.RollingWindow = 30
	config.SignalWeights = technicalOnlyWeights()
	config.StartTime = optional.Some(start)
	config.EndTime = optional.Some(end)

	return config
}

func (suite *EngineTestSuite) newEngine(config Config, universe []string) *Engine {
	weighted, err := combiner.NewWeightedCombiner(config.SignalWeights)
	suite.Require().NoError(err)

	engine, err := NewEngine(config, suite.data, suite.builder, weighted, universe, nil, logger.NewNopLogger())
	suite.Require().NoError(err)

	return engine
}

func (suite *EngineTestSuite) TestWalkForwardRanksUptrendFirst() {
	warmupStart := time.Date(2023, 10, 2, 0, 0, 0, 0, time.UTC)

	up := suite.addTrendBars("UP", warmupStart, 80, 0.01)
	suite.addTrendBars("FLAT", warmupStart, 80, 0.0)
	suite.addTrendBars("DOWN", warmupStart, 80, -0.01)

	// backtest the final 20 trading days, 4 calendar weeks
	backtestStart := up[60].Time
	backtestEnd := up[79].Time

	config := suite.newConfig(backtestStart, backtestEnd)
	engine := suite.newEngine(config, []string{"UP", "FLAT", "DOWN"})

	result, err := engine.Run(context.Background())
	suite.Require().NoError(err)

	suite.Require().NotEmpty(result.Rebalances)

	for _, snapshot := range result.Rebalances {
		suite.Require().NotEmpty(snapshot.Ranking)
		suite.Equal("UP", snapshot.Ranking[0].Ticker, "uptrend ticker must rank first at %s", snapshot.Time)

		_, holdsUp := snapshot.Selected["UP"]
		suite.True(holdsUp)
	}

	// with a single position, full weight and zero fees, the final equity is
	// the starting cash scaled by the held ticker's price path
	firstClose := up[60].Close
	lastClose := up[79].Close
	expected := config.InitialCapital * lastClose / firstClose

	suite.InDelta(expected, result.Stats.FinalEquity, expected*1e-9)
	suite.Equal(types.PhaseHolding, result.Stats.FinalPhase)
	suite.False(result.Stats.KillSwitchFired)
	suite.Len(result.EquityCurve, 20)
}

func (suite *EngineTestSuite) TestKillSwitchLiquidatesAndHaltsTrading() {
	warmupStart := time.Date(2023, 10, 2, 0, 0, 0, 0, time.UTC)

	// steady warm-up, then a sustained crash inside the backtest window
	bars := suite.addTrendBars("CRASH", warmupStart, 60, 0.002)

	crashStart := bars[59].Time.AddDate(0, 0, 1)
	price := bars[59].Close

	var crash []types.PriceBar

	date := crashStart
	for len(crash) < 20 {
		for date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
			date = date.AddDate(0, 0, 1)
		}

		price *= 0.94

		crash = append(crash, types.PriceBar{
			Time:   date,
			Ticker: "CRASH",
			Open:   price,
			High:   price,
			Low:    price,
			Close:  price,
			Volume: 1_000_000,
		})

		date = date.AddDate(0, 0, 1)
	}

	suite.data.AddBars(crash...)

	config := suite.newConfig(crash[0].Time, crash[19].Time)
	config.UniverseSize = 1
	config.TopN = 1
	// disable the per-position stop so the portfolio-level switch is what fires
	config.StopLossThreshold = 0.99

	engine := suite.newEngine(config, []string{"CRASH"})

	result, err := engine.Run(context.Background())
	suite.Require().NoError(err)

	suite.True(result.Stats.KillSwitchFired)
	suite.Equal(types.PhaseLiquidated, result.Stats.FinalPhase)
	suite.Len(result.EquityCurve, 20, "the run completes even after liquidation")

	// after liquidation the portfolio is cash only, so the equity curve tail
	// is flat and no rebalance happens past that date
	var liquidatedAt time.Time

	for i := 1; i < len(result.EquityCurve); i++ {
		if result.EquityCurve[i].Equity == result.EquityCurve[i-1].Equity {
			liquidatedAt = result.EquityCurve[i-1].Time

			break
		}
	}

	suite.False(liquidatedAt.IsZero(), "equity must flatten after the kill-switch")

	for _, snapshot := range result.Rebalances {
		suite.False(snapshot.Time.After(liquidatedAt), "no rebalance after liquidation")
	}
}

func (suite *EngineTestSuite) TestStopLossClosesLosingPosition() {
	warmupStart := time.Date(2023, 10, 2, 0, 0, 0, 0, time.UTC)

	stay := suite.addTrendBars("STAY", warmupStart, 65, 0.001)
	suite.addTrendBars("DROP", warmupStart, 60, 0.001)

	// DROP falls 3% a day inside the one-week backtest window
	dropWarm, err := suite.data.GetRange("DROP", time.Time{}, stay[59].Time)
	suite.Require().NoError(err)

	price := dropWarm[len(dropWarm)-1].Close

	var fall []types.PriceBar

	date := stay[60].Time
	for len(fall) < 5 {
		for date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
			date = date.AddDate(0, 0, 1)
		}

		price *= 0.97

		fall = append(fall, types.PriceBar{
			Time:   date,
			Ticker: "DROP",
			Open:   price,
			High:   price,
			Low:    price,
			Close:  price,
			Volume: 1_000_000,
		})

		date = date.AddDate(0, 0, 1)
	}

	suite.data.AddBars(fall...)

	config := suite.newConfig(stay[60].Time, stay[64].Time)
	config.UniverseSize = 2
	config.TopN = 2

	engine := suite.newEngine(config, []string{"STAY", "DROP"})

	result, err := engine.Run(context.Background())
	suite.Require().NoError(err)

	suite.Equal(1, result.Stats.StopLossExits)
	suite.False(result.Stats.KillSwitchFired)
	suite.Equal(types.PhaseHolding, result.Stats.FinalPhase)
}

func (suite *EngineTestSuite) TestEngineRejectsEmptyUniverse() {
	config := suite.newConfig(
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	)

	weighted, err := combiner.NewWeightedCombiner(config.SignalWeights)
	suite.Require().NoError(err)

	_, err = NewEngine(config, suite.data, suite.builder, weighted, nil, nil, logger.NewNopLogger())
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeBacktestNoUniverse))
}
