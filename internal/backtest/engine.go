package backtest

import (
	"context"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/quantfork/chainsignal/internal/combiner"
	"github.com/quantfork/chainsignal/internal/datasource"
	"github.com/quantfork/chainsignal/internal/indicator"
	"github.com/quantfork/chainsignal/internal/logger"
	"github.com/quantfork/chainsignal/internal/score"
	"github.com/quantfork/chainsignal/internal/types"
	"github.com/quantfork/chainsignal/pkg/errors"
	"github.com/quantfork/chainsignal/pkg/formulas"
)

// frameConcurrency bounds parallel per-ticker indicator computation. Results
// merge deterministically by sorted ticker before any ranking happens.
const frameConcurrency = 4

// NewsSignals are the per-ticker scores derived from the extraction cache,
// computed once before the loop starts and constant for the whole run.
type NewsSignals struct {
	// SupplyChain is the supply-chain strength score in [0,1].
	SupplyChain float64
	// Sentiment is the positive-sentiment share in [0,1].
	Sentiment float64
}

// OnDateCallback reports walk-forward progress, one call per trading date.
type OnDateCallback func(current, total int)

// Result is the complete output of one run: the equity curve, every rebalance
// decision, and the summary statistics.
type Result struct {
	EquityCurve []types.EquityPoint
	Rebalances  []types.RebalanceSnapshot
	Stats       types.BacktestStats
}

// Engine drives the weekly-rebalance walk-forward loop over the universe.
//
// The loop is single-threaded; only indicator precomputation fans out across
// tickers. State transitions follow
// initialized -> rebalancing -> holding -> (rebalancing | liquidated), where
// liquidated is terminal for the remainder of the run.
type Engine struct {
	config   Config
	data     datasource.DataSource
	builder  *indicator.FrameBuilder
	combiner combiner.Combiner
	scorer   *score.Aggregator
	logger   *logger.Logger

	universe    []string
	newsSignals map[string]NewsSignals

	frames     map[string]*indicator.Frame
	lastPrices map[string]float64

	portfolio *Portfolio
	snapshots []types.RebalanceSnapshot
	onDate    OnDateCallback
}

// NewEngine creates an engine for one run. The universe is immutable for the
// duration; newsSignals may be nil when no news data exists, in which case
// both news features are marked missing and the combiner's fallback semantics
// apply.
func NewEngine(
	config Config,
	data datasource.DataSource,
	builder *indicator.FrameBuilder,
	comb combiner.Combiner,
	universe []string,
	newsSignals map[string]NewsSignals,
	log *logger.Logger,
) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if data == nil {
		return nil, errors.New(errors.ErrCodeBacktestNoDatasource, "engine requires a data source")
	}

	if len(universe) == 0 {
		return nil, errors.New(errors.ErrCodeBacktestNoUniverse, "engine requires a non-empty universe")
	}

	if builder == nil || comb == nil {
		return nil, errors.New(errors.ErrCodeBacktestInitFailed, "engine requires a frame builder and a combiner")
	}

	aggregator, err := score.NewAggregator(config.CategoryWeights)
	if err != nil {
		return nil, err
	}

	ordered := make([]string, len(universe))
	copy(ordered, universe)
	sort.Strings(ordered)

	return &Engine{
		config:      config,
		data:        data,
		builder:     builder,
		combiner:    comb,
		scorer:      aggregator,
		logger:      log,
		universe:    ordered,
		newsSignals: newsSignals,
		frames:      make(map[string]*indicator.Frame),
		lastPrices:  make(map[string]float64),
		portfolio:   NewPortfolio(config.InitialCapital),
	}, nil
}

// SetOnDate registers a progress callback invoked once per trading date.
func (e *Engine) SetOnDate(callback OnDateCallback) {
	e.onDate = callback
}

// Run executes the walk-forward loop and returns the completed result. The
// run always completes and emits a result; the kill-switch transition halts
// trading but not the loop.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	start, end := e.window()

	dates, err := e.data.TradingDates(start, end)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to list trading dates", err)
	}

	if len(dates) == 0 {
		return nil, errors.New(errors.ErrCodeBacktestInitFailed, "no trading dates in the configured window")
	}

	if err := e.precomputeFrames(ctx, end); err != nil {
		return nil, err
	}

	e.logger.Info("backtest starting",
		zap.Int("universe_size", len(e.universe)),
		zap.Int("trading_dates", len(dates)),
		zap.Time("start", dates[0]),
		zap.Time("end", dates[len(dates)-1]),
	)

	killSwitchFired := false

	for i, date := range dates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		e.refreshPrices(date)

		if e.portfolio.Phase() != types.PhaseLiquidated {
			if i == 0 || date.Weekday() == e.config.RebalanceWeekday {
				e.rebalance(date)
			}

			if closed := e.portfolio.CheckStopLoss(e.lastPrices, e.config.StopLossThreshold, e.config.FeeRate); len(closed) > 0 {
				e.logger.Info("stop-loss closed positions",
					zap.Time("date", date),
					zap.Strings("tickers", closed),
				)
			}
		}

		e.portfolio.MarkToMarket(date, e.lastPrices)

		if e.portfolio.Phase() != types.PhaseLiquidated &&
			e.portfolio.Drawdown(e.lastPrices) > e.config.KillSwitchThreshold {
			e.portfolio.Liquidate(e.lastPrices, e.config.FeeRate)
			killSwitchFired = true

			e.logger.Warn("drawdown kill-switch fired, portfolio liquidated",
				zap.Time("date", date),
				zap.Float64("peak", e.portfolio.Peak()),
				zap.Float64("threshold", e.config.KillSwitchThreshold),
			)
		}

		if e.onDate != nil {
			e.onDate(i+1, len(dates))
		}
	}

	_ = killSwitchFired

	return e.buildResult(), nil
}

// window resolves the configured backtest period to concrete bounds.
func (e *Engine) window() (time.Time, time.Time) {
	start := time.Time{}
	if e.config.StartTime.IsSome() {
		start = e.config.StartTime.Unwrap()
	}

	end := time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)
	if e.config.EndTime.IsSome() {
		end = e.config.EndTime.Unwrap()
	}

	return start, end
}

// precomputeFrames builds the indicator frame of every universe ticker in
// parallel, then merges by sorted ticker.
func (e *Engine) precomputeFrames(ctx context.Context, end time.Time) error {
	frames := make([]*indicator.Frame, len(e.universe))

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(frameConcurrency)

	for i, ticker := range e.universe {
		g.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}

			bars, err := e.data.GetRange(ticker, time.Time{}, end)
			if err != nil {
				return errors.Wrapf(errors.ErrCodeHistoricalDataFailed, err, "failed to load history for %s", ticker)
			}

			frame, err := e.builder.Build(ticker, bars)
			if err != nil {
				return err
			}

			frames[i] = frame

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	for i, ticker := range e.universe {
		e.frames[ticker] = frames[i]
	}

	return nil
}

// refreshPrices updates the last-known adjusted close of every universe
// ticker. A ticker that does not trade on the date keeps its previous quote.
func (e *Engine) refreshPrices(date time.Time) {
	for _, ticker := range e.universe {
		bar, err := e.data.GetBar(ticker, date)
		if err != nil || bar.IsNone() {
			continue
		}

		e.lastPrices[ticker] = bar.Unwrap().EffectiveClose()
	}
}

// rebalance recomputes the ranking as of date, selects the top N, derives
// target weights, and trades to them.
func (e *Engine) rebalance(date time.Time) {
	features := e.featuresAsOf(date)

	ranking := e.combiner.Rank(features, date)
	if len(ranking) == 0 {
		return
	}

	selected := ranking
	if len(selected) > e.config.TopN {
		selected = selected[:e.config.TopN]
	}

	targets := e.targetWeights(selected)

	e.snapshots = append(e.snapshots, types.RebalanceSnapshot{
		Time:     date,
		Ranking:  ranking,
		Selected: targets,
	})

	e.portfolio.ApplyTargets(date, targets, e.lastPrices, e.config.FeeRate)

	e.logger.Debug("rebalanced",
		zap.Time("date", date),
		zap.Int("positions", len(targets)),
	)
}

// featuresAsOf assembles the combiner features of every universe ticker at
// one date, in ticker order.
func (e *Engine) featuresAsOf(date time.Time) []combiner.Features {
	features := make([]combiner.Features, 0, len(e.universe))

	for _, ticker := range e.universe {
		f := combiner.Features{
			Ticker:      ticker,
			SupplyChain: math.NaN(),
			Sentiment:   math.NaN(),
			Momentum:    math.NaN(),
			Volume:      math.NaN(),
		}

		if signals, ok := e.newsSignals[ticker]; ok {
			f.SupplyChain = signals.SupplyChain
			f.Sentiment = signals.Sentiment
		}

		if frame, ok := e.frames[ticker]; ok {
			if row, ok := frame.Row(date); ok {
				master := e.scorer.Aggregate(row, frame.Categories())
				f.Momentum = master.SubScores[types.CategoryMomentum]
				f.Volume = master.SubScores[types.CategoryVolume]
			}
		}

		features = append(features, f)
	}

	return features
}

// targetWeights converts the selected ranking slice into portfolio weights.
func (e *Engine) targetWeights(selected []types.ScoredTicker) map[string]float64 {
	targets := make(map[string]float64, len(selected))

	switch e.config.SizingMode {
	case SizingScoreWeighted:
		total := 0.0
		for _, s := range selected {
			if s.Score > 0 {
				total += s.Score
			}
		}

		if total <= 0 {
			break
		}

		for _, s := range selected {
			if s.Score > 0 {
				targets[s.Ticker] = s.Score / total
			}
		}

		return targets
	case SizingEqualWeight:
	}

	weight := 1.0 / float64(len(selected))
	for _, s := range selected {
		targets[s.Ticker] = weight
	}

	return targets
}

// buildResult folds the finished run into the reportable result.
func (e *Engine) buildResult() *Result {
	curve := e.portfolio.EquityCurve()

	equities := make([]float64, len(curve))
	for i, point := range curve {
		equities[i] = point.Equity
	}

	stats := types.BacktestStats{
		StartEquity:     e.config.InitialCapital,
		Rebalances:      len(e.snapshots),
		TotalFees:       e.portfolio.FeesPaid(),
		StopLossExits:   e.portfolio.StopLossExits(),
		KillSwitchFired: e.portfolio.Phase() == types.PhaseLiquidated,
		FinalPhase:      e.portfolio.Phase(),
	}

	if len(equities) > 0 {
		stats.FinalEquity = equities[len(equities)-1]
		stats.TotalReturn = stats.FinalEquity/e.config.InitialCapital - 1
		stats.PeakEquity = e.portfolio.Peak()
		stats.MaxDrawdown = formulas.MaxDrawdown(equities)

		returns := formulas.CalculateReturns(equities)
		stats.SharpeRatio = formulas.SharpeRatio(returns)

		for _, r := range returns {
			if r > 0 {
				stats.WinningPeriods++
			} else if r < 0 {
				stats.LosingPeriods++
			}
		}

		if periods := stats.WinningPeriods + stats.LosingPeriods; periods > 0 {
			stats.PeriodWinRate = float64(stats.WinningPeriods) / float64(periods)
		}
	}

	return &Result{
		EquityCurve: curve,
		Rebalances:  e.snapshots,
		Stats:       stats,
	}
}
