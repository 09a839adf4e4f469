package oracle

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"

	"meeting-roles-go/internal/logger"
)

const (
	defaultModel          = "gpt-4o-mini"
	defaultRequestTimeout = 25 * time.Second
	maxRetryElapsed       = 45 * time.Second

	// Low temperature for consistent classification output.
	completionTemperature = 0.3
)

// Config captures the settings needed to reach an OpenAI-compatible chat
// completions endpoint.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// ConfigFromEnv reads the LLM settings from the environment.
func ConfigFromEnv() Config {
	return Config{
		APIKey:  os.Getenv("LLM_API_KEY"),
		BaseURL: os.Getenv("LLM_BASE_URL"),
		Model:   os.Getenv("LLM_MODEL"),
	}
}

// NewCompletion returns a CompletionFunc backed by an OpenAI-compatible
// endpoint, with retry/backoff and a bounded per-attempt timeout.
// USE_MOCK_LLM=true enables the deterministic offline mock for demos.
func NewCompletion(cfg Config) (CompletionFunc, error) {
	if os.Getenv("USE_MOCK_LLM") == "true" {
		logger.Component("oracle").Info("mock LLM mode ON - returning deterministic classifications")
		return MockCompletion(), nil
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llm api key not configured")
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultRequestTimeout
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := openai.NewClient(opts...)
	log := logger.Component("oracle").WithField("model", cfg.Model)

	return func(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
		var out string
		var lastErr error

		op := func() error {
			callCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
			defer cancel()

			resp, err := client.Chat.Completions.New(callCtx, openai.ChatCompletionNewParams{
				Model: cfg.Model,
				Messages: []openai.ChatCompletionMessageParamUnion{
					openai.SystemMessage(systemPrompt),
					openai.UserMessage(userPrompt),
				},
				Temperature: param.NewOpt(completionTemperature),
			})
			if err != nil {
				lastErr = err
				if ctx.Err() != nil {
					// Caller gave up; don't keep retrying.
					return backoff.Permanent(err)
				}
				log.WithError(err).Warn("completion request failed")
				return err
			}
			if len(resp.Choices) == 0 {
				lastErr = fmt.Errorf("no choices in completion response")
				return lastErr
			}
			out = resp.Choices[0].Message.Content
			return nil
		}

		b := backoff.NewExponentialBackOff()
		b.MaxElapsedTime = maxRetryElapsed
		if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
			return "", fmt.Errorf("completion failed: %w", lastErr)
		}
		return out, nil
	}, nil
}

// MockCompletion returns a deterministic offline CompletionFunc: the first
// speaker mentioned in the prompt is classified as the advisor, the rest as
// clients. Useful for demos and wiring tests without network access.
func MockCompletion() CompletionFunc {
	return func(_ context.Context, _, userPrompt string) (string, error) {
		var ids []string
		for _, line := range strings.Split(userPrompt, "\n") {
			if strings.HasPrefix(line, "Speaker ") && strings.HasSuffix(line, ":") {
				ids = append(ids, strings.TrimSuffix(strings.TrimPrefix(line, "Speaker "), ":"))
			}
		}
		roles := make([]string, 0, len(ids))
		confs := make([]string, 0, len(ids))
		reasons := make([]string, 0, len(ids))
		for i, id := range ids {
			role, conf := "client", "0.75"
			if i == 0 {
				role, conf = "advisor", "0.9"
			}
			roles = append(roles, fmt.Sprintf("%q: %q", id, role))
			confs = append(confs, fmt.Sprintf("%q: %s", id, conf))
			reasons = append(reasons, fmt.Sprintf("%q: %q", id, "mock classification"))
		}
		return fmt.Sprintf(`{"roles": {%s}, "confidence": {%s}, "reasoning": {%s}}`,
			strings.Join(roles, ", "), strings.Join(confs, ", "), strings.Join(reasons, ", ")), nil
	}
}
