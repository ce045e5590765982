package news

import (
	"context"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/cenkalti/backoff/v4"
	"github.com/quantfork/chainsignal/internal/logger"
	"github.com/quantfork/chainsignal/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const extractionSystemPrompt = `You are a financial news analyst. Given a news article about a company, respond with a single JSON object and nothing else:
{"supplier": "<company supplying the subject, or empty>",
 "customer": "<company buying from the subject, or empty>",
 "product": "<AI-related product or component mentioned, or empty>",
 "ai_related": <true if the article concerns the AI supply chain>,
 "sentiment": "<positive|negative|neutral toward the subject company>",
 "relevance_score": <0.0 to 1.0, how relevant the article is to AI supply-chain investing>}`

// AnthropicClassifierConfig configures the Claude-backed classifier.
type AnthropicClassifierConfig struct {
	// APIKey is the Anthropic API key.
	APIKey string `yaml:"api_key" validate:"required"`
	// Model is the model name. Empty selects a default.
	Model string `yaml:"model"`
	// Timeout bounds each classification call.
	Timeout time.Duration `yaml:"timeout"`
	// RequestsPerSecond caps the call rate to the API.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	// MaxRetries bounds retry attempts on transient errors.
	MaxRetries uint64 `yaml:"max_retries"`
}

// AnthropicClassifier implements Classifier using the Anthropic Claude API.
// All calls go through a shared rate limiter and bounded exponential-backoff
// retries; rate limiting is enforced regardless of caller concurrency.
type AnthropicClassifier struct {
	client     anthropic.Client
	model      anthropic.Model
	timeout    time.Duration
	limiter    *rate.Limiter
	maxRetries uint64
	logger     *logger.Logger
}

// NewAnthropicClassifier creates a Claude-backed classifier.
func NewAnthropicClassifier(config AnthropicClassifierConfig, log *logger.Logger) (*AnthropicClassifier, error) {
	if config.APIKey == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "anthropic api key is required")
	}

	model := anthropic.Model(config.Model)
	if config.Model == "" {
		model = anthropic.Model("claude-sonnet-4-20250514")
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	rps := config.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}

	maxRetries := config.MaxRetries
	if maxRetries == 0 {
		maxRetries = 3
	}

	return &AnthropicClassifier{
		client:     anthropic.NewClient(option.WithAPIKey(config.APIKey)),
		model:      model,
		timeout:    timeout,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		maxRetries: maxRetries,
		logger:     log,
	}, nil
}

// Classify implements Classifier.
func (c *AnthropicClassifier) Classify(ctx context.Context, text string) (RawExtraction, error) {
	var raw RawExtraction

	operation := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		resp, err := c.client.Messages.New(callCtx, anthropic.MessageNewParams{
			Model:     c.model,
			MaxTokens: 512,
			System: []anthropic.TextBlockParam{
				{Text: extractionSystemPrompt},
			},
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(text)),
			},
		})
		if err != nil {
			c.logger.Warn("classifier call failed", zap.Error(err))

			return err
		}

		var response string

		for _, block := range resp.Content {
			if block.Type == "text" {
				response += block.Text
			}
		}

		parsed, err := ParseRawExtraction(response)
		if err != nil {
			// a malformed payload will not improve on retry
			return backoff.Permanent(err)
		}

		raw = parsed

		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return RawExtraction{}, errors.Wrap(errors.ErrCodeClassifierUnavailable, "classification failed", err)
	}

	return raw, nil
}
