package combiner

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/quantfork/chainsignal/internal/logger"
	"github.com/quantfork/chainsignal/pkg/errors"
)

type CombinerTestSuite struct {
	suite.Suite
	weighted *WeightedCombiner
}

func TestCombinerSuite(t *testing.T) {
	suite.Run(t, new(CombinerTestSuite))
}

func (suite *CombinerTestSuite) SetupTest() {
	weighted, err := NewWeightedCombiner(DefaultSignalWeights())
	suite.Require().NoError(err)
	suite.weighted = weighted
}

func (suite *CombinerTestSuite) TestWeightedScore() {
	features := Features{
		Ticker:      "NVDA",
		SupplyChain: 0.8,
		Sentiment:   0.6,
		Momentum:    0.5,
		Volume:      0.4,
	}

	// 0.40*0.8 + 0.30*0.6 + 0.20*0.5 + 0.10*0.4
	suite.InDelta(0.64, suite.weighted.Score(features), 1e-9)
}

func (suite *CombinerTestSuite) TestWeightedScoreSkipsMissingComponents() {
	features := Features{
		Ticker:      "AMD",
		SupplyChain: math.NaN(),
		Sentiment:   0.5,
		Momentum:    0.5,
		Volume:      0.5,
	}

	suite.InDelta(0.30, suite.weighted.Score(features), 1e-9)
}

func (suite *CombinerTestSuite) TestWeightedRankOrderAndTieBreak() {
	asOf := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

	ranked := suite.weighted.Rank([]Features{
		{Ticker: "NVDA", SupplyChain: 0.5, Sentiment: 0.5, Momentum: 0.5, Volume: 0.5},
		{Ticker: "AMD", SupplyChain: 0.5, Sentiment: 0.5, Momentum: 0.5, Volume: 0.5},
		{Ticker: "INTC", SupplyChain: 0.9, Sentiment: 0.9, Momentum: 0.9, Volume: 0.9},
	}, asOf)

	suite.Require().Len(ranked, 3)
	suite.Equal("INTC", ranked[0].Ticker)
	suite.Equal("AMD", ranked[1].Ticker, "equal scores break ties alphabetically")
	suite.Equal("NVDA", ranked[2].Ticker)
}

func (suite *CombinerTestSuite) TestWeightsMustSumToOne() {
	weights := DefaultSignalWeights()
	weights.Momentum = 0.5

	_, err := NewWeightedCombiner(weights)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidWeights))
}

func (suite *CombinerTestSuite) TestModelRejectsTemporalLeakage() {
	backtestStart := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		trainEnd time.Time
		wantErr  bool
	}{
		{
			name:     "train end before backtest start",
			trainEnd: backtestStart.AddDate(0, 0, -1),
			wantErr:  false,
		},
		{
			name:     "train end equals backtest start",
			trainEnd: backtestStart,
			wantErr:  true,
		},
		{
			name:     "train end after backtest start",
			trainEnd: backtestStart.AddDate(0, 1, 0),
			wantErr:  true,
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			_, err := NewModelCombiner(suite.weighted, tc.trainEnd, backtestStart, logger.NewNopLogger())
			if tc.wantErr {
				suite.Require().Error(err)
				suite.True(errors.HasCode(err, errors.ErrCodeTemporalLeakage))
			} else {
				suite.NoError(err)
			}
		})
	}
}

func (suite *CombinerTestSuite) newTrainedModel() *ModelCombiner {
	trainEnd := time.Date(2023, 12, 29, 0, 0, 0, 0, time.UTC)
	backtestStart := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	model, err := NewModelCombiner(suite.weighted, trainEnd, backtestStart, logger.NewNopLogger())
	suite.Require().NoError(err)

	// forward return is exactly 0.1*supply_chain + 0.05*momentum, so the fit
	// should recover the relationship
	samples := make([]TrainingSample, 0, 12)
	observedAt := make([]time.Time, 0, 12)

	values := []float64{0.1, 0.2, 0.35, 0.4, 0.55, 0.6, 0.7, 0.75, 0.8, 0.9, 0.95, 1.0}
	for i, v := range values {
		f := Features{
			Ticker:      "TRAIN",
			SupplyChain: v,
			Sentiment:   values[len(values)-1-i],
			Momentum:    v * v,
			Volume:      math.Sqrt(v),
		}
		samples = append(samples, TrainingSample{Features: f, ForwardReturn: 0.1*f.SupplyChain + 0.05*f.Momentum})
		observedAt = append(observedAt, trainEnd.AddDate(0, 0, -len(values)+i))
	}

	suite.Require().NoError(model.Train(samples, observedAt))

	return model
}

func (suite *CombinerTestSuite) TestModelPredictRecoversLinearTarget() {
	model := suite.newTrainedModel()

	f := Features{Ticker: "NVDA", SupplyChain: 0.65, Sentiment: 0.3, Momentum: 0.42, Volume: 0.5}

	prediction, err := model.Predict(f)
	suite.Require().NoError(err)
	suite.InDelta(0.1*0.65+0.05*0.42, prediction, 1e-6)
}

func (suite *CombinerTestSuite) TestModelTrainRejectsSamplesPastBoundary() {
	trainEnd := time.Date(2023, 12, 29, 0, 0, 0, 0, time.UTC)
	backtestStart := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	model, err := NewModelCombiner(suite.weighted, trainEnd, backtestStart, logger.NewNopLogger())
	suite.Require().NoError(err)

	samples := make([]TrainingSample, 6)
	observedAt := make([]time.Time, 6)

	for i := range samples {
		samples[i] = TrainingSample{Features: Features{Ticker: "X", SupplyChain: 0.5, Sentiment: 0.5, Momentum: 0.5, Volume: 0.5}}
		observedAt[i] = trainEnd.AddDate(0, 0, -i)
	}

	observedAt[3] = trainEnd.AddDate(0, 0, 5)

	err = model.Train(samples, observedAt)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeTemporalLeakage))
}

func (suite *CombinerTestSuite) TestModelTrainRejectsShortSampleSet() {
	trainEnd := time.Date(2023, 12, 29, 0, 0, 0, 0, time.UTC)
	backtestStart := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	model, err := NewModelCombiner(suite.weighted, trainEnd, backtestStart, logger.NewNopLogger())
	suite.Require().NoError(err)

	short := []TrainingSample{
		{Features: Features{Ticker: "X", SupplyChain: 0.5, Sentiment: 0.5, Momentum: 0.5, Volume: 0.5}},
	}

	err = model.Train(short, []time.Time{trainEnd})
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeModelFitFailed))
	suite.True(errors.IsInsufficientDataError(err))
	suite.False(model.Trained())
}

func (suite *CombinerTestSuite) TestModelTrainRejectsWhenFilteringLeavesTooFew() {
	trainEnd := time.Date(2023, 12, 29, 0, 0, 0, 0, time.UTC)
	backtestStart := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	model, err := NewModelCombiner(suite.weighted, trainEnd, backtestStart, logger.NewNopLogger())
	suite.Require().NoError(err)

	// six samples pass the raw count check, but only three survive the
	// completeness filter
	samples := make([]TrainingSample, 6)
	observedAt := make([]time.Time, 6)

	for i := range samples {
		f := Features{Ticker: "X", SupplyChain: float64(i) / 6, Sentiment: 0.5, Momentum: 0.5, Volume: 0.5}
		if i%2 == 0 {
			f.Sentiment = math.NaN()
		}

		samples[i] = TrainingSample{Features: f}
		observedAt[i] = trainEnd.AddDate(0, 0, -i)
	}

	err = model.Train(samples, observedAt)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeModelFitFailed))
	suite.True(errors.IsInsufficientDataError(err))
}

func (suite *CombinerTestSuite) TestModelRankFallsBackPerTicker() {
	model := suite.newTrainedModel()
	asOf := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

	complete := Features{Ticker: "NVDA", SupplyChain: 0.9, Sentiment: 0.9, Momentum: 0.9, Volume: 0.9}
	incomplete := Features{Ticker: "AMD", SupplyChain: math.NaN(), Sentiment: 0.9, Momentum: 0.9, Volume: 0.9}

	ranked := model.Rank([]Features{complete, incomplete}, asOf)
	suite.Require().Len(ranked, 2)

	for _, scored := range ranked {
		if scored.Ticker == "AMD" {
			suite.InDelta(suite.weighted.Score(incomplete), scored.Score, 1e-9, "incomplete features use the weighted fallback")
		} else {
			prediction, err := model.Predict(complete)
			suite.Require().NoError(err)
			suite.InDelta(prediction, scored.Score, 1e-9)
		}
	}
}

func (suite *CombinerTestSuite) TestUntrainedModelFallsBackEverywhere() {
	trainEnd := time.Date(2023, 12, 29, 0, 0, 0, 0, time.UTC)
	backtestStart := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	model, err := NewModelCombiner(suite.weighted, trainEnd, backtestStart, logger.NewNopLogger())
	suite.Require().NoError(err)
	suite.False(model.Trained())

	f := Features{Ticker: "NVDA", SupplyChain: 0.8, Sentiment: 0.6, Momentum: 0.5, Volume: 0.4}

	ranked := model.Rank([]Features{f}, backtestStart)
	suite.Require().Len(ranked, 1)
	suite.InDelta(suite.weighted.Score(f), ranked[0].Score, 1e-9)
}
