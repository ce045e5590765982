package backtest

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/quantfork/chainsignal/internal/combiner"
	"github.com/quantfork/chainsignal/internal/datasource"
	"github.com/quantfork/chainsignal/internal/indicator"
	"github.com/quantfork/chainsignal/internal/score"
	"github.com/quantfork/chainsignal/internal/types"
	"github.com/quantfork/chainsignal/pkg/errors"
)

// forwardHorizon is the forward-return horizon for training targets, in
// trading days. It matches the weekly rebalance cadence.
const forwardHorizon = 5

// BuildTrainingSamples assembles the learned-model training set from the
// configured training window: one sample per (rebalance date, ticker) with
// the realized forward return over the next week as the target.
//
// The window is bounded by config.TrainStart and config.TrainEnd; every
// sample's observation date is returned alongside so the model can enforce
// the temporal boundary at fit time.
func BuildTrainingSamples(
	ctx context.Context,
	config Config,
	data datasource.DataSource,
	builder *indicator.FrameBuilder,
	universe []string,
	newsSignals map[string]NewsSignals,
) ([]combiner.TrainingSample, []time.Time, error) {
	if config.TrainStart.IsNone() || config.TrainEnd.IsNone() {
		return nil, nil, errors.New(errors.ErrCodeInvalidConfiguration, "training requires train_start and train_end")
	}

	start := config.TrainStart.Unwrap()
	end := config.TrainEnd.Unwrap()

	dates, err := data.TradingDates(start, end)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeHistoricalDataFailed, "failed to list training dates", err)
	}

	aggregator, err := score.NewAggregator(config.CategoryWeights)
	if err != nil {
		return nil, nil, err
	}

	ordered := make([]string, len(universe))
	copy(ordered, universe)
	sort.Strings(ordered)

	frames := make(map[string]*indicator.Frame, len(ordered))

	for _, ticker := range ordered {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		bars, err := data.GetRange(ticker, time.Time{}, end)
		if err != nil {
			return nil, nil, errors.Wrapf(errors.ErrCodeHistoricalDataFailed, err, "failed to load history for %s", ticker)
		}

		frame, err := builder.Build(ticker, bars)
		if err != nil {
			return nil, nil, err
		}

		frames[ticker] = frame
	}

	var (
		samples    []combiner.TrainingSample
		observedAt []time.Time
	)

	for i, date := range dates {
		if date.Weekday() != config.RebalanceWeekday || i+forwardHorizon >= len(dates) {
			continue
		}

		forwardDate := dates[i+forwardHorizon]

		for _, ticker := range ordered {
			entry, err := data.GetBar(ticker, date)
			if err != nil || entry.IsNone() {
				continue
			}

			exit, err := data.GetBar(ticker, forwardDate)
			if err != nil || exit.IsNone() {
				continue
			}

			entryPrice := entry.Unwrap().EffectiveClose()
			if entryPrice <= 0 {
				continue
			}

			features := combiner.Features{
				Ticker:      ticker,
				SupplyChain: math.NaN(),
				Sentiment:   math.NaN(),
				Momentum:    math.NaN(),
				Volume:      math.NaN(),
			}

			if signals, ok := newsSignals[ticker]; ok {
				features.SupplyChain = signals.SupplyChain
				features.Sentiment = signals.Sentiment
			}

			if frame, ok := frames[ticker]; ok {
				if row, ok := frame.Row(date); ok {
					master := aggregator.Aggregate(row, frame.Categories())
					features.Momentum = master.SubScores[types.CategoryMomentum]
					features.Volume = master.SubScores[types.CategoryVolume]
				}
			}

			samples = append(samples, combiner.TrainingSample{
				Features:      features,
				ForwardReturn: exit.Unwrap().EffectiveClose()/entryPrice - 1,
			})
			observedAt = append(observedAt, date)
		}
	}

	return samples, observedAt, nil
}
