package news

import (
	"testing"

	"github.com/quantfork/chainsignal/internal/types"
	"github.com/stretchr/testify/suite"
)

type ExtractionTestSuite struct {
	suite.Suite
	matcher *KeywordMatcher
}

func TestExtractionSuite(t *testing.T) {
	suite.Run(t, new(ExtractionTestSuite))
}

func (suite *ExtractionTestSuite) SetupTest() {
	suite.matcher = NewKeywordMatcher(DefaultAIKeywords)
}

func (suite *ExtractionTestSuite) TestKeywordMatchWholeWordOnly() {
	tests := []struct {
		name    string
		text    string
		matches bool
	}{
		{
			name:    "standalone AI term",
			text:    "The company announced new AI products this quarter",
			matches: true,
		},
		{
			name:    "lowercase ai",
			text:    "betting big on ai infrastructure",
			matches: true,
		},
		{
			name:    "ai inside another word",
			text:    "AAL reported strong passenger demand",
			matches: false,
		},
		{
			name:    "ai inside said",
			text:    "the spokesperson said nothing further",
			matches: false,
		},
		{
			name:    "multi word term",
			text:    "investing in machine learning research",
			matches: true,
		},
		{
			name:    "gpu mention",
			text:    "demand for GPU capacity keeps growing",
			matches: true,
		},
		{
			name:    "no keywords",
			text:    "quarterly dividend raised by two cents",
			matches: false,
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			suite.Equal(tc.matches, suite.matcher.Matches(tc.text))
		})
	}
}

func (suite *ExtractionTestSuite) TestNormalizeMentionGate() {
	article := types.Article{ID: "a1", Headline: "Vendor deepens AI push"}

	// classifier says AI-related but extracted nothing concrete
	raw := RawExtraction{AIRelated: true, Sentiment: "positive", RelevanceScore: 0.9}
	extraction := Normalize("NVDA", article, raw, suite.matcher)
	suite.False(extraction.AIRelated, "relatedness without any mention must be downgraded")

	// same payload with a supplier mention survives the gate
	raw.Supplier = "TSMC"
	extraction = Normalize("NVDA", article, raw, suite.matcher)
	suite.True(extraction.AIRelated)
	suite.Equal("TSMC", extraction.Supplier)
}

func (suite *ExtractionTestSuite) TestNormalizeKeywordOverridesClassifier() {
	article := types.Article{ID: "a2", Headline: "Data center buildout accelerates", Body: "Supplier Vertiv cited hyperscaler orders."}

	raw := RawExtraction{AIRelated: false, Supplier: "Vertiv", Sentiment: "positive", RelevanceScore: 0.7}
	extraction := Normalize("VRT", article, raw, suite.matcher)

	suite.True(extraction.AIRelated, "whole-word keyword hit marks the article AI-related")
}

func (suite *ExtractionTestSuite) TestNormalizeClampsAndDefaults() {
	article := types.Article{ID: "a3", Headline: "Chipmaker update"}

	raw := RawExtraction{
		Supplier:       "  ASML  ",
		Sentiment:      "VeryBullish",
		RelevanceScore: 1.7,
	}
	extraction := Normalize("AMD", article, raw, suite.matcher)

	suite.Equal("ASML", extraction.Supplier)
	suite.Equal(types.SentimentNeutral, extraction.Sentiment)
	suite.Equal(1.0, extraction.RelevanceScore)
}

func (suite *ExtractionTestSuite) TestParseRawExtraction() {
	response := "Here is the result:\n```json\n{\"supplier\": \"TSMC\", \"ai_related\": true, \"sentiment\": \"positive\", \"relevance_score\": 0.8}\n```"

	raw, err := ParseRawExtraction(response)
	suite.Require().NoError(err)
	suite.Equal("TSMC", raw.Supplier)
	suite.True(raw.AIRelated)
	suite.Equal(0.8, raw.RelevanceScore)

	_, err = ParseRawExtraction("no json here")
	suite.Error(err)
}
