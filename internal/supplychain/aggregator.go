package supplychain

import (
	"github.com/quantfork/chainsignal/internal/types"
)

// Aggregate folds a set of cached extractions into a single per-ticker
// aggregate. The fold is always a full recompute over the extraction set, so
// cache invalidation can never leave stale increments behind.
func Aggregate(ticker string, extractions []types.ArticleExtraction) types.TickerAggregate {
	aggregate := types.TickerAggregate{Ticker: ticker}

	relevanceSum := 0.0

	for _, extraction := range extractions {
		aggregate.TotalArticles++
		relevanceSum += extraction.RelevanceScore

		if extraction.AIRelated {
			aggregate.AIRelatedCount++
		}

		if extraction.Supplier != "" {
			aggregate.SupplierMentions++
		}

		if extraction.Customer != "" {
			aggregate.CustomerMentions++
		}

		if extraction.Product != "" {
			aggregate.ProductMentions++
		}

		switch extraction.Sentiment {
		case types.SentimentPositive:
			aggregate.PositiveCount++
		case types.SentimentNegative:
			aggregate.NegativeCount++
		case types.SentimentNeutral:
			aggregate.NeutralCount++
		}
	}

	if aggregate.TotalArticles > 0 {
		aggregate.AvgRelevance = relevanceSum / float64(aggregate.TotalArticles)
	}

	return aggregate
}
