package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/quantfork/chainsignal/internal/backtest"
	"github.com/quantfork/chainsignal/internal/combiner"
	"github.com/quantfork/chainsignal/internal/datasource"
	"github.com/quantfork/chainsignal/internal/indicator"
	"github.com/quantfork/chainsignal/internal/logger"
	"github.com/quantfork/chainsignal/internal/news"
	"github.com/quantfork/chainsignal/internal/supplychain"
	"github.com/quantfork/chainsignal/internal/universe"
)

// backtestAction wires the full pipeline: prices, news extraction, universe
// construction, signal combination, and the walk-forward loop.
func backtestAction(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	dataPath := cmd.String("data")
	newsDir := cmd.String("news")
	cacheDir := cmd.String("cache")
	resultsDir := cmd.String("results")
	tickers := cmd.StringSlice("tickers")

	log, err := logger.NewLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	raw, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	config, err := backtest.ParseConfig(raw)
	if err != nil {
		return err
	}

	data, err := datasource.NewDuckDBDataSource(":memory:", log)
	if err != nil {
		return err
	}
	defer data.Close()

	if err := data.Initialize(dataPath); err != nil {
		return err
	}

	pool := tickers
	if len(pool) == 0 {
		pool, err = data.Tickers()
		if err != nil {
			return err
		}
	}

	sort.Strings(pool)

	if size := config.UniverseSize * config.PoolMultiplier; len(pool) > size {
		pool = pool[:size]
	}

	selected, newsSignals, err := buildUniverse(ctx, config, pool, newsDir, cacheDir, log)
	if err != nil {
		return err
	}

	log.Info("universe constructed",
		zap.Int("pool_size", len(pool)),
		zap.Strings("universe", selected),
	)

	builder := indicator.NewFrameBuilder(indicator.NewDefaultRegistry(), config.RollingWindow)

	comb, err := buildCombiner(ctx, config, data, builder, selected, newsSignals, log)
	if err != nil {
		return err
	}

	engine, err := backtest.NewEngine(config, data, builder, comb, selected, newsSignals, log)
	if err != nil {
		return err
	}

	var bar *progressbar.ProgressBar

	engine.SetOnDate(func(current, total int) {
		if bar == nil {
			bar = progressbar.Default(int64(total))
		}

		_ = bar.Set(current)
	})

	result, err := engine.Run(ctx)
	if err != nil {
		return err
	}

	runID := uuid.New().String()
	folder := filepath.Join(resultsDir, time.Now().UTC().Format("20060102")+"_"+runID)

	writer, err := backtest.NewResultWriter(folder, log)
	if err != nil {
		return err
	}

	if err := writer.Write(result, config); err != nil {
		return err
	}

	log.Info("backtest complete",
		zap.String("run_id", runID),
		zap.Float64("final_equity", result.Stats.FinalEquity),
		zap.Float64("total_return", result.Stats.TotalReturn),
		zap.Float64("max_drawdown", result.Stats.MaxDrawdown),
		zap.String("final_phase", string(result.Stats.FinalPhase)),
	)

	return nil
}

// buildUniverse ranks the candidate pool by supply-chain score and derives the
// static news signals for the selected tickers. Without a news directory the
// pool is ordered alphabetically and no news signals exist.
func buildUniverse(
	ctx context.Context,
	config backtest.Config,
	pool []string,
	newsDir, cacheDir string,
	log *logger.Logger,
) ([]string, map[string]backtest.NewsSignals, error) {
	if newsDir == "" {
		return universe.Alphabetical(pool, config.UniverseSize), nil, nil
	}

	store, err := news.OpenStore(cacheDir)
	if err != nil {
		return nil, nil, err
	}
	defer store.Close()

	classifier, err := news.NewAnthropicClassifier(news.AnthropicClassifierConfig{
		APIKey: os.Getenv("ANTHROPIC_API_KEY"),
	}, log)
	if err != nil {
		return nil, nil, err
	}

	extractor, err := news.NewExtractor(store, classifier, nil, log)
	if err != nil {
		return nil, nil, err
	}

	scorer, err := supplychain.NewScorer(supplychain.DefaultScorerConfig())
	if err != nil {
		return nil, nil, err
	}

	feed := news.NewFileFeed(newsDir)

	ranker, err := universe.NewRanker(extractor, scorer, feed, log)
	if err != nil {
		return nil, nil, err
	}

	selected := ranker.Rank(ctx, pool, config.UniverseSize)

	signals := make(map[string]backtest.NewsSignals, len(selected))

	for _, ticker := range selected {
		extractions, err := store.ForTicker(ticker)
		if err != nil || len(extractions) == 0 {
			continue
		}

		aggregate := supplychain.Aggregate(ticker, extractions)

		sentiment := 0.5
		if total := aggregate.SentimentTotal(); total > 0 {
			sentiment = float64(aggregate.PositiveCount) / float64(total)
		}

		signals[ticker] = backtest.NewsSignals{
			SupplyChain: scorer.Score(aggregate),
			Sentiment:   sentiment,
		}
	}

	return selected, signals, nil
}

// buildCombiner selects the ranking strategy, training the regression model
// when model mode is configured.
func buildCombiner(
	ctx context.Context,
	config backtest.Config,
	data datasource.DataSource,
	builder *indicator.FrameBuilder,
	selected []string,
	newsSignals map[string]backtest.NewsSignals,
	log *logger.Logger,
) (combiner.Combiner, error) {
	weighted, err := combiner.NewWeightedCombiner(config.SignalWeights)
	if err != nil {
		return nil, err
	}

	if config.CombinerMode != backtest.CombinerModeModel {
		return weighted, nil
	}

	backtestStart := time.Time{}
	if config.StartTime.IsSome() {
		backtestStart = config.StartTime.Unwrap()
	}

	model, err := combiner.NewModelCombiner(weighted, config.TrainEnd.Unwrap(), backtestStart, log)
	if err != nil {
		return nil, err
	}

	samples, observedAt, err := backtest.BuildTrainingSamples(ctx, config, data, builder, selected, newsSignals)
	if err != nil {
		return nil, err
	}

	if err := model.Train(samples, observedAt); err != nil {
		return nil, err
	}

	return model, nil
}

func main() {
	cmd := &cli.Command{
		Name:  "backtest",
		Usage: "Run a walk-forward backtest over the ranked universe",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "Path to the backtest YAML config",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "data",
				Aliases:  []string{"d"},
				Usage:    "Path to the OHLCV data file (CSV or parquet)",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "news",
				Usage: "Directory of per-ticker news YAML files; empty disables news signals",
			},
			&cli.StringFlag{
				Name:  "cache",
				Usage: "Directory for the persistent extraction cache",
				Value: "cache/extractions",
			},
			&cli.StringFlag{
				Name:    "results",
				Aliases: []string{"r"},
				Usage:   "Directory for run results",
				Value:   "results",
			},
			&cli.StringSliceFlag{
				Name:    "tickers",
				Aliases: []string{"t"},
				Usage:   "Candidate pool tickers; defaults to every ticker in the data file",
			},
		},
		Action: backtestAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
