package news

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/quantfork/chainsignal/pkg/errors"
)

// RawExtraction is the unvalidated classifier payload for one article. All
// fields are optional; validation into a types.ArticleExtraction happens in
// Normalize.
type RawExtraction struct {
	Supplier       string  `json:"supplier"`
	Customer       string  `json:"customer"`
	Product        string  `json:"product"`
	AIRelated      bool    `json:"ai_related"`
	Sentiment      string  `json:"sentiment"`
	RelevanceScore float64 `json:"relevance_score"`
}

// Classifier is the boundary to the external text classifier. Implementations
// take the article text and return the structured extraction payload.
// Errors are expected and non-fatal: callers resolve them to the neutral
// extraction and retry on a later run.
type Classifier interface {
	Classify(ctx context.Context, text string) (RawExtraction, error)
}

// ParseRawExtraction decodes a classifier response into a RawExtraction.
// The response may wrap the JSON object in prose or a code fence; everything
// outside the outermost braces is ignored.
func ParseRawExtraction(response string) (RawExtraction, error) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")

	if start < 0 || end <= start {
		return RawExtraction{}, errors.New(errors.ErrCodeClassifierResponse, "classifier response contains no JSON object")
	}

	var raw RawExtraction
	if err := json.Unmarshal([]byte(response[start:end+1]), &raw); err != nil {
		return RawExtraction{}, errors.Wrap(errors.ErrCodeClassifierResponse, "failed to decode classifier response", err)
	}

	return raw, nil
}
