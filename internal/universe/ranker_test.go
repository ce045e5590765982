package universe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/quantfork/chainsignal/internal/logger"
	"github.com/quantfork/chainsignal/internal/news"
	"github.com/quantfork/chainsignal/internal/supplychain"
	"github.com/quantfork/chainsignal/internal/types"
	"github.com/quantfork/chainsignal/pkg/errors"
)

// fixedClassifier returns the same positive extraction for every article, so
// a ticker's score is determined entirely by its article count.
type fixedClassifier struct{}

func (fixedClassifier) Classify(ctx context.Context, text string) (news.RawExtraction, error) {
	return news.RawExtraction{
		Supplier:       "TSMC",
		AIRelated:      true,
		Sentiment:      "positive",
		RelevanceScore: 0.8,
	}, nil
}

type failingClassifier struct{}

func (failingClassifier) Classify(ctx context.Context, text string) (news.RawExtraction, error) {
	return news.RawExtraction{}, errors.New(errors.ErrCodeClassifierUnavailable, "classifier down")
}

type RankerTestSuite struct {
	suite.Suite
	store  *news.Store
	scorer *supplychain.Scorer
}

func TestRankerSuite(t *testing.T) {
	suite.Run(t, new(RankerTestSuite))
}

func (suite *RankerTestSuite) SetupTest() {
	store, err := news.OpenStore(suite.T().TempDir())
	suite.Require().NoError(err)
	suite.store = store

	scorer, err := supplychain.NewScorer(supplychain.DefaultScorerConfig())
	suite.Require().NoError(err)
	suite.scorer = scorer
}

func (suite *RankerTestSuite) TearDownTest() {
	suite.Require().NoError(suite.store.Close())
}

func (suite *RankerTestSuite) newRanker(classifier news.Classifier, provider ArticleProvider) *Ranker {
	extractor, err := news.NewExtractor(suite.store, classifier, nil, logger.NewNopLogger())
	suite.Require().NoError(err)

	ranker, err := NewRanker(extractor, suite.scorer, provider, logger.NewNopLogger())
	suite.Require().NoError(err)

	return ranker
}

// articlesByVolume gives each ticker a distinct article count so scores order
// the pool by coverage.
func articlesByVolume(counts map[string]int) ArticleProvider {
	return ArticleProviderFunc(func(ctx context.Context, ticker string) ([]types.Article, error) {
		articles := make([]types.Article, counts[ticker])
		for i := range articles {
			articles[i] = types.Article{ID: ticker + "-" + string(rune('a'+i)), Headline: "AI supplier news"}
		}

		return articles, nil
	})
}

func (suite *RankerTestSuite) TestRankOrdersByScoreDescending() {
	ranker := suite.newRanker(fixedClassifier{}, articlesByVolume(map[string]int{
		"AMD":  2,
		"NVDA": 8,
		"INTC": 5,
		"MU":   0,
	}))

	universe := ranker.Rank(context.Background(), []string{"AMD", "NVDA", "INTC", "MU"}, 3)

	suite.Equal([]string{"NVDA", "INTC", "AMD"}, universe)
}

func (suite *RankerTestSuite) TestRankBreaksTiesAlphabetically() {
	ranker := suite.newRanker(fixedClassifier{}, articlesByVolume(map[string]int{
		"NVDA": 3,
		"AMD":  3,
		"INTC": 3,
	}))

	universe := ranker.Rank(context.Background(), []string{"NVDA", "INTC", "AMD"}, 2)

	suite.Equal([]string{"AMD", "INTC"}, universe)
}

func (suite *RankerTestSuite) TestRankFallsBackAlphabeticallyOnProviderFailure() {
	provider := ArticleProviderFunc(func(ctx context.Context, ticker string) ([]types.Article, error) {
		return nil, errors.New(errors.ErrCodeDataSourceUnavailable, "news feed offline")
	})

	ranker := suite.newRanker(fixedClassifier{}, provider)

	universe := ranker.Rank(context.Background(), []string{"NVDA", "AMD", "INTC", "MU"}, 3)

	suite.Equal([]string{"AMD", "INTC", "MU"}, universe)
}

func (suite *RankerTestSuite) TestRankWithClassifierDownIsDeterministic() {
	// neutral extractions score every ticker zero, so the ordering reduces to
	// the alphabetical tie-break
	ranker := suite.newRanker(failingClassifier{}, articlesByVolume(map[string]int{
		"NVDA": 2,
		"AMD":  2,
		"INTC": 2,
	}))

	universe := ranker.Rank(context.Background(), []string{"NVDA", "INTC", "AMD"}, 2)

	suite.Equal([]string{"AMD", "INTC"}, universe)
}

func (suite *RankerTestSuite) TestAlphabeticalTruncates() {
	suite.Equal([]string{"AAPL", "AMD"}, Alphabetical([]string{"NVDA", "AMD", "AAPL"}, 2))
	suite.Nil(suite.newRanker(fixedClassifier{}, articlesByVolume(nil)).Rank(context.Background(), nil, 5))
}
