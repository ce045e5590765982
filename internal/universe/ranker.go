package universe

import (
	"context"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/quantfork/chainsignal/internal/logger"
	"github.com/quantfork/chainsignal/internal/news"
	"github.com/quantfork/chainsignal/internal/supplychain"
	"github.com/quantfork/chainsignal/internal/types"
	"github.com/quantfork/chainsignal/pkg/errors"
)

// defaultRankConcurrency bounds parallel per-ticker scoring.
const defaultRankConcurrency = 4

// ArticleProvider supplies the candidate articles for one ticker. A nil slice
// means no news coverage, which is valid and scores zero.
type ArticleProvider interface {
	Articles(ctx context.Context, ticker string) ([]types.Article, error)
}

// ArticleProviderFunc adapts a function to the ArticleProvider interface.
type ArticleProviderFunc func(ctx context.Context, ticker string) ([]types.Article, error)

func (f ArticleProviderFunc) Articles(ctx context.Context, ticker string) ([]types.Article, error) {
	return f(ctx, ticker)
}

// Ranker builds the investable universe from a candidate ticker pool by
// supply-chain score. The result is computed once per run and immutable for
// the duration of a backtest.
type Ranker struct {
	extractor   *news.Extractor
	scorer      *supplychain.Scorer
	provider    ArticleProvider
	logger      *logger.Logger
	concurrency int
}

// NewRanker creates a ranker over the extraction and scoring pipeline.
func NewRanker(extractor *news.Extractor, scorer *supplychain.Scorer, provider ArticleProvider, log *logger.Logger) (*Ranker, error) {
	if extractor == nil || scorer == nil || provider == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "ranker requires an extractor, a scorer and an article provider")
	}

	return &Ranker{
		extractor:   extractor,
		scorer:      scorer,
		provider:    provider,
		logger:      log,
		concurrency: defaultRankConcurrency,
	}, nil
}

// Rank scores the candidate pool and returns the top universeSize tickers by
// supply-chain score, descending, with ties broken by ticker ascending.
//
// Ranking never fails the pipeline: when scoring breaks for the pool, the
// fallback is an alphabetical ordering over the candidates, truncated the same
// way, with the degradation logged.
func (r *Ranker) Rank(ctx context.Context, candidates []string, universeSize int) []string {
	if universeSize <= 0 || len(candidates) == 0 {
		return nil
	}

	scored, err := r.scorePool(ctx, candidates)
	if err != nil {
		r.logger.Warn("universe scoring degraded, falling back to alphabetical order",
			zap.Int("candidates", len(candidates)),
			zap.Error(errors.Wrap(errors.ErrCodeRankingDegraded, "pool scoring failed", err)),
		)

		return Alphabetical(candidates, universeSize)
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}

		return scored[i].Ticker < scored[j].Ticker
	})

	if len(scored) > universeSize {
		scored = scored[:universeSize]
	}

	universe := make([]string, len(scored))
	for i, s := range scored {
		universe[i] = s.Ticker
	}

	return universe
}

// Alphabetical is the deterministic fallback ordering: candidates sorted
// ascending and truncated to size.
func Alphabetical(candidates []string, size int) []string {
	ordered := make([]string, len(candidates))
	copy(ordered, candidates)
	sort.Strings(ordered)

	if size > 0 && len(ordered) > size {
		ordered = ordered[:size]
	}

	return ordered
}

func (r *Ranker) scorePool(ctx context.Context, candidates []string) ([]types.ScoredTicker, error) {
	scored := make([]types.ScoredTicker, len(candidates))

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, ticker := range candidates {
		g.Go(func() error {
			score, err := r.scoreTicker(groupCtx, ticker)
			if err != nil {
				return err
			}

			scored[i] = types.ScoredTicker{Ticker: ticker, Score: score}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return scored, nil
}

func (r *Ranker) scoreTicker(ctx context.Context, ticker string) (float64, error) {
	articles, err := r.provider.Articles(ctx, ticker)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrCodeRankingDegraded, err, "failed to load articles for %s", ticker)
	}

	extractions, err := r.extractor.ExtractAll(ctx, ticker, articles)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrCodeRankingDegraded, err, "extraction failed for %s", ticker)
	}

	return r.scorer.Score(supplychain.Aggregate(ticker, extractions)), nil
}
