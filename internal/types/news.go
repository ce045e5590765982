package types

import "time"

// Sentiment is the sentiment class assigned to an article by the classifier.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// ParseSentiment maps a raw classifier string onto a Sentiment, defaulting to
// neutral for anything unrecognized.
func ParseSentiment(raw string) Sentiment {
	switch Sentiment(raw) {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return Sentiment(raw)
	default:
		return SentimentNeutral
	}
}

// Article is a single news item about a ticker.
type Article struct {
	// ID uniquely identifies the article within its feed.
	ID string `json:"id" yaml:"id"`
	// Headline is the article title.
	Headline string `json:"headline" yaml:"headline"`
	// Body is the article text. May be empty when only a headline is available.
	Body string `json:"body" yaml:"body"`
	// PublishedAt is the publication time.
	PublishedAt time.Time `json:"published_at" yaml:"published_at"`
}

// Text returns the headline and body joined for classification.
func (a Article) Text() string {
	if a.Body == "" {
		return a.Headline
	}

	return a.Headline + "\n\n" + a.Body
}

// ArticleExtraction is the classifier output for one (ticker, article) pair.
// It is produced once and cached indefinitely; invalidation means deleting the
// cached record and regenerating, never patching in place.
type ArticleExtraction struct {
	Ticker    string `json:"ticker" badgerhold:"index"`
	ArticleID string `json:"article_id"`
	// Supplier, Customer and Product are supply-chain relationships extracted
	// from the article. Empty string means not extracted.
	Supplier string `json:"supplier,omitempty"`
	Customer string `json:"customer,omitempty"`
	Product  string `json:"product,omitempty"`
	// AIRelated reports whether the article concerns the AI supply chain.
	AIRelated bool `json:"ai_related"`
	// Sentiment is the classified sentiment toward the ticker.
	Sentiment Sentiment `json:"sentiment"`
	// RelevanceScore is the classifier's relevance estimate in [0,1].
	RelevanceScore float64 `json:"relevance_score"`
	// CreatedAt records when the extraction was cached.
	CreatedAt time.Time `json:"created_at"`
}

// HasRelationship reports whether any supply-chain relationship was extracted.
func (e ArticleExtraction) HasRelationship() bool {
	return e.Supplier != "" || e.Customer != "" || e.Product != ""
}

// NeutralExtraction returns the default extraction used when the classifier
// fails. It is never cached so the article is retried on the next run.
func NeutralExtraction(ticker, articleID string) ArticleExtraction {
	return ArticleExtraction{
		Ticker:         ticker,
		ArticleID:      articleID,
		AIRelated:      false,
		Sentiment:      SentimentNeutral,
		RelevanceScore: 0.0,
	}
}

// TickerAggregate is the fold of all ArticleExtraction records for one ticker.
// It is always recomputed in full from the extraction set, never incrementally,
// so a cache change cannot cause drift.
type TickerAggregate struct {
	Ticker           string  `json:"ticker" yaml:"ticker"`
	TotalArticles    int     `json:"total_articles" yaml:"total_articles"`
	AIRelatedCount   int     `json:"ai_related_count" yaml:"ai_related_count"`
	SupplierMentions int     `json:"supplier_mentions" yaml:"supplier_mentions"`
	CustomerMentions int     `json:"customer_mentions" yaml:"customer_mentions"`
	ProductMentions  int     `json:"product_mentions" yaml:"product_mentions"`
	PositiveCount    int     `json:"positive_count" yaml:"positive_count"`
	NegativeCount    int     `json:"negative_count" yaml:"negative_count"`
	NeutralCount     int     `json:"neutral_count" yaml:"neutral_count"`
	AvgRelevance     float64 `json:"avg_relevance" yaml:"avg_relevance"`
}

// SentimentTotal returns the number of articles with a recorded sentiment.
func (a TickerAggregate) SentimentTotal() int {
	return a.PositiveCount + a.NegativeCount + a.NeutralCount
}
