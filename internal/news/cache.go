package news

import (
	"context"
	"sort"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/quantfork/chainsignal/internal/logger"
	"github.com/quantfork/chainsignal/internal/types"
	"github.com/quantfork/chainsignal/pkg/errors"
	"github.com/timshannon/badgerhold/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// defaultExtractConcurrency bounds parallel classifier calls per ticker.
const defaultExtractConcurrency = 4

// Store is the persistent extraction cache, keyed by (ticker, article).
// Entries are written at most once and never patched; invalidation deletes
// records so they are regenerated on the next run.
type Store struct {
	store *badgerhold.Store
}

// OpenStore opens (or creates) the extraction cache at dir.
func OpenStore(dir string) (*Store, error) {
	options := badgerhold.DefaultOptions
	options.Options = badger.DefaultOptions(dir).WithLogger(nil)

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeExtractionCacheFailed, "failed to open extraction cache", err)
	}

	return &Store{store: store}, nil
}

// Get returns the cached extraction for the key, or false when absent.
func (s *Store) Get(ticker, articleID string) (types.ArticleExtraction, bool, error) {
	var extraction types.ArticleExtraction

	err := s.store.Get(cacheKey(ticker, articleID), &extraction)
	if err == badgerhold.ErrNotFound {
		return types.ArticleExtraction{}, false, nil
	}

	if err != nil {
		return types.ArticleExtraction{}, false, errors.Wrap(errors.ErrCodeExtractionCacheFailed, "cache read failed", err)
	}

	return extraction, true, nil
}

// Put persists an extraction. The first writer wins; a concurrent duplicate
// insert is not an error.
func (s *Store) Put(extraction types.ArticleExtraction) error {
	err := s.store.Insert(cacheKey(extraction.Ticker, extraction.ArticleID), extraction)
	if err != nil && err != badgerhold.ErrKeyExists {
		return errors.Wrap(errors.ErrCodeExtractionCacheFailed, "cache write failed", err)
	}

	return nil
}

// ForTicker returns all cached extractions for a ticker, ordered by article ID.
func (s *Store) ForTicker(ticker string) ([]types.ArticleExtraction, error) {
	var extractions []types.ArticleExtraction

	err := s.store.Find(&extractions, badgerhold.Where("Ticker").Eq(ticker))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeExtractionCacheFailed, "cache query failed", err)
	}

	sort.Slice(extractions, func(i, j int) bool { return extractions[i].ArticleID < extractions[j].ArticleID })

	return extractions, nil
}

// Invalidate deletes all cached extractions for a ticker.
func (s *Store) Invalidate(ticker string) error {
	err := s.store.DeleteMatching(&types.ArticleExtraction{}, badgerhold.Where("Ticker").Eq(ticker))
	if err != nil {
		return errors.Wrap(errors.ErrCodeExtractionCacheFailed, "cache invalidation failed", err)
	}

	return nil
}

// Close closes the underlying store.
func (s *Store) Close() error {
	return s.store.Close()
}

func cacheKey(ticker, articleID string) string {
	return ticker + "|" + articleID
}

// Extractor memoizes classifier calls per (ticker, article). Concurrent misses
// for the same key are deduplicated so the classifier is invoked at most once
// per key; classifier failures resolve to the neutral extraction and are not
// cached, so the article is retried on the next run.
type Extractor struct {
	store       *Store
	classifier  Classifier
	matcher     *KeywordMatcher
	logger      *logger.Logger
	group       singleflight.Group
	concurrency int
}

// NewExtractor creates an extractor. The classifier is a required explicit
// dependency; there is no silent default for a choice this consequential to
// scoring correctness.
func NewExtractor(store *Store, classifier Classifier, matcher *KeywordMatcher, log *logger.Logger) (*Extractor, error) {
	if classifier == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "extractor requires a classifier")
	}

	if matcher == nil {
		matcher = NewKeywordMatcher(DefaultAIKeywords)
	}

	return &Extractor{
		store:       store,
		classifier:  classifier,
		matcher:     matcher,
		logger:      log,
		concurrency: defaultExtractConcurrency,
	}, nil
}

// Extract returns the extraction for one (ticker, article) pair, from cache
// when available. The returned error is non-nil only on context cancellation;
// classifier failures yield the neutral extraction.
func (e *Extractor) Extract(ctx context.Context, ticker string, article types.Article) (types.ArticleExtraction, error) {
	if cached, ok, err := e.store.Get(ticker, article.ID); err == nil && ok {
		return cached, nil
	} else if err != nil {
		e.logger.Warn("extraction cache read failed, classifying without cache",
			zap.String("ticker", ticker),
			zap.String("article_id", article.ID),
			zap.Error(err),
		)
	}

	result, err, _ := e.group.Do(cacheKey(ticker, article.ID), func() (any, error) {
		// another flight may have written the entry while we waited
		if cached, ok, err := e.store.Get(ticker, article.ID); err == nil && ok {
			return cached, nil
		}

		raw, err := e.classifier.Classify(ctx, article.Text())
		if err != nil {
			if ctx.Err() != nil {
				return types.ArticleExtraction{}, ctx.Err()
			}

			e.logger.Warn("classifier failed, using neutral extraction",
				zap.String("ticker", ticker),
				zap.String("article_id", article.ID),
				zap.Error(err),
			)

			return types.NeutralExtraction(ticker, article.ID), nil
		}

		extraction := Normalize(ticker, article, raw, e.matcher)

		if err := e.store.Put(extraction); err != nil {
			e.logger.Warn("failed to persist extraction",
				zap.String("ticker", ticker),
				zap.String("article_id", article.ID),
				zap.Error(err),
			)
		}

		return extraction, nil
	})
	if err != nil {
		return types.ArticleExtraction{}, err
	}

	return result.(types.ArticleExtraction), nil
}

// ExtractAll extracts every article for a ticker with bounded parallelism.
// Results are returned in the input article order regardless of completion
// order.
func (e *Extractor) ExtractAll(ctx context.Context, ticker string, articles []types.Article) ([]types.ArticleExtraction, error) {
	extractions := make([]types.ArticleExtraction, len(articles))

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for i, article := range articles {
		g.Go(func() error {
			extraction, err := e.Extract(groupCtx, ticker, article)
			if err != nil {
				return err
			}

			extractions[i] = extraction

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return extractions, nil
}
