package supplychain

import (
	"github.com/go-playground/validator/v10"

	"github.com/quantfork/chainsignal/internal/types"
	"github.com/quantfork/chainsignal/pkg/errors"
	"github.com/quantfork/chainsignal/pkg/formulas"
)

const (
	// aiCountSaturation is the AI-related article count at which the volume
	// term saturates at 1.
	aiCountSaturation = 10.0

	// neutralSentimentRatio replaces the sentiment term when no article
	// carries a recorded sentiment.
	neutralSentimentRatio = 0.5
)

// ScorerConfig holds the component weights of the supply-chain score. The
// component weights must sum to 1, and the mention sub-weights must sum to 1.
type ScorerConfig struct {
	AICountWeight   float64 `yaml:"ai_count_weight" validate:"gte=0,lte=1"`
	MentionWeight   float64 `yaml:"mention_weight" validate:"gte=0,lte=1"`
	RelevanceWeight float64 `yaml:"relevance_weight" validate:"gte=0,lte=1"`
	SentimentWeight float64 `yaml:"sentiment_weight" validate:"gte=0,lte=1"`

	SupplierSubWeight float64 `yaml:"supplier_sub_weight" validate:"gte=0,lte=1"`
	CustomerSubWeight float64 `yaml:"customer_sub_weight" validate:"gte=0,lte=1"`
	ProductSubWeight  float64 `yaml:"product_sub_weight" validate:"gte=0,lte=1"`
}

// DefaultScorerConfig returns the standard weighting: 0.40 article volume,
// 0.30 mention density, 0.20 relevance, 0.10 sentiment.
func DefaultScorerConfig() ScorerConfig {
	return ScorerConfig{
		AICountWeight:     0.40,
		MentionWeight:     0.30,
		RelevanceWeight:   0.20,
		SentimentWeight:   0.10,
		SupplierSubWeight: 0.4,
		CustomerSubWeight: 0.3,
		ProductSubWeight:  0.3,
	}
}

// Validate checks the weight structure.
func (c ScorerConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidWeights, "invalid scorer weights", err)
	}

	const tolerance = 1e-6

	sum := c.AICountWeight + c.MentionWeight + c.RelevanceWeight + c.SentimentWeight
	if sum < 1-tolerance || sum > 1+tolerance {
		return errors.Newf(errors.ErrCodeInvalidWeights, "scorer component weights sum to %.6f, expected 1", sum)
	}

	subSum := c.SupplierSubWeight + c.CustomerSubWeight + c.ProductSubWeight
	if subSum < 1-tolerance || subSum > 1+tolerance {
		return errors.Newf(errors.ErrCodeInvalidWeights, "mention sub-weights sum to %.6f, expected 1", subSum)
	}

	return nil
}

// Scorer computes the supply-chain strength score in [0,1] from a ticker
// aggregate.
type Scorer struct {
	config ScorerConfig
}

// NewScorer creates a scorer, validating the weights up front.
func NewScorer(config ScorerConfig) (*Scorer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Scorer{config: config}, nil
}

// Score computes the supply-chain score for one ticker aggregate.
//
// A ticker with no articles scores exactly 0. Otherwise the score combines
// AI article volume (saturating at aiCountSaturation articles), mention
// density, average relevance, and the share of positive sentiment, clipped to
// [0,1].
func (s *Scorer) Score(aggregate types.TickerAggregate) float64 {
	if aggregate.TotalArticles == 0 {
		return 0.0
	}

	volumeTerm := formulas.Clip(float64(aggregate.AIRelatedCount)/aiCountSaturation, 0, 1)

	mentionNumerator := s.config.SupplierSubWeight*float64(aggregate.SupplierMentions) +
		s.config.CustomerSubWeight*float64(aggregate.CustomerMentions) +
		s.config.ProductSubWeight*float64(aggregate.ProductMentions)
	mentionTerm := mentionNumerator / float64(aggregate.TotalArticles)

	sentimentTerm := neutralSentimentRatio
	if total := aggregate.SentimentTotal(); total > 0 {
		sentimentTerm = float64(aggregate.PositiveCount) / float64(total)
	}

	score := s.config.AICountWeight*volumeTerm +
		s.config.MentionWeight*mentionTerm +
		s.config.RelevanceWeight*aggregate.AvgRelevance +
		s.config.SentimentWeight*sentimentTerm

	return formulas.Clip(score, 0, 1)
}
