package news

import (
	"regexp"
	"strings"
	"time"

	"github.com/quantfork/chainsignal/internal/types"
	"github.com/quantfork/chainsignal/pkg/formulas"
)

// DefaultAIKeywords are the terms whose whole-word presence marks an article
// as AI-related.
var DefaultAIKeywords = []string{
	"ai",
	"artificial intelligence",
	"machine learning",
	"gpu",
	"llm",
	"neural network",
	"data center",
	"datacenter",
	"accelerator",
}

// KeywordMatcher checks article text for AI-related terms on whole-word
// boundaries. A substring hit inside another word (the "ai" in "AAL") never
// matches.
type KeywordMatcher struct {
	patterns []*regexp.Regexp
}

// NewKeywordMatcher compiles a matcher for the given terms. Empty terms are
// skipped. Matching is case-insensitive.
func NewKeywordMatcher(keywords []string) *KeywordMatcher {
	patterns := make([]*regexp.Regexp, 0, len(keywords))

	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}

		patterns = append(patterns, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(kw)+`\b`))
	}

	return &KeywordMatcher{patterns: patterns}
}

// Matches reports whether any keyword occurs in the text as a whole word.
func (m *KeywordMatcher) Matches(text string) bool {
	for _, p := range m.patterns {
		if p.MatchString(text) {
			return true
		}
	}

	return false
}

// Normalize validates a raw classifier payload into an ArticleExtraction.
//
// AI-relatedness combines the classifier's claim with a whole-word keyword
// match over the article text, then applies the mention gate: an AI-relatedness
// claim with no extracted supplier, customer, or product is treated as
// unreliable and downgraded to false.
func Normalize(ticker string, article types.Article, raw RawExtraction, matcher *KeywordMatcher) types.ArticleExtraction {
	extraction := types.ArticleExtraction{
		Ticker:         ticker,
		ArticleID:      article.ID,
		Supplier:       strings.TrimSpace(raw.Supplier),
		Customer:       strings.TrimSpace(raw.Customer),
		Product:        strings.TrimSpace(raw.Product),
		AIRelated:      raw.AIRelated || matcher.Matches(article.Text()),
		Sentiment:      types.ParseSentiment(strings.ToLower(strings.TrimSpace(raw.Sentiment))),
		RelevanceScore: formulas.Clip(raw.RelevanceScore, 0, 1),
		CreatedAt:      time.Now().UTC(),
	}

	if extraction.AIRelated && !extraction.HasRelationship() {
		extraction.AIRelated = false
	}

	return extraction
}
