package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/quantfork/chainsignal/internal/logger"
	"github.com/quantfork/chainsignal/internal/news"
	"github.com/quantfork/chainsignal/internal/supplychain"
	"github.com/quantfork/chainsignal/internal/universe"
)

// universeAction ranks a candidate pool by supply-chain score and prints the
// resulting universe, one ticker per line.
func universeAction(ctx context.Context, cmd *cli.Command) error {
	newsDir := cmd.String("news")
	cacheDir := cmd.String("cache")
	size := cmd.Int("size")
	pool := cmd.StringSlice("tickers")

	if len(pool) == 0 {
		return fmt.Errorf("at least one ticker is required")
	}

	sort.Strings(pool)

	zapLogger, err := logger.NewLogger()
	if err != nil {
		return err
	}
	defer zapLogger.Sync()

	store, err := news.OpenStore(cacheDir)
	if err != nil {
		return err
	}
	defer store.Close()

	classifier, err := news.NewAnthropicClassifier(news.AnthropicClassifierConfig{
		APIKey: os.Getenv("ANTHROPIC_API_KEY"),
	}, zapLogger)
	if err != nil {
		return err
	}

	extractor, err := news.NewExtractor(store, classifier, nil, zapLogger)
	if err != nil {
		return err
	}

	scorer, err := supplychain.NewScorer(supplychain.DefaultScorerConfig())
	if err != nil {
		return err
	}

	ranker, err := universe.NewRanker(extractor, scorer, news.NewFileFeed(newsDir), zapLogger)
	if err != nil {
		return err
	}

	selected := ranker.Rank(ctx, pool, int(size))

	zapLogger.Info("universe ranked",
		zap.Int("pool_size", len(pool)),
		zap.Int("universe_size", len(selected)),
	)

	for _, ticker := range selected {
		fmt.Println(ticker)
	}

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "universe",
		Usage: "Rank a candidate ticker pool by AI supply-chain exposure",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:     "tickers",
				Aliases:  []string{"t"},
				Usage:    "Candidate pool tickers",
				Required: true,
			},
			&cli.IntFlag{
				Name:    "size",
				Aliases: []string{"n"},
				Usage:   "Universe size after truncation",
				Value:   20,
			},
			&cli.StringFlag{
				Name:     "news",
				Usage:    "Directory of per-ticker news YAML files",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "cache",
				Usage: "Directory for the persistent extraction cache",
				Value: "cache/extractions",
			},
		},
		Action: universeAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
