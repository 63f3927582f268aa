package client

import (
	"context"
	"errors"
	"net/http"

	"github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/domain"
	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/infra/resilience"
	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/port"
)

const llmService = "openai"

// OpenAIClient calls an OpenAI-compatible chat completions endpoint.
// It implements port.TextGenerator.
type OpenAIClient struct {
	api      *openai.Client
	model    string
	bulkhead *resilience.Bulkhead
	cb       *gobreaker.CircuitBreaker
	cfg      resilience.Config
	logger   *zap.Logger
}

// NewOpenAIClient creates a client. An empty apiKey yields a client whose
// Generate always reports the source as unavailable.
func NewOpenAIClient(httpClient *http.Client, apiKey, baseURL, model string, bulkhead *resilience.Bulkhead, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *OpenAIClient {
	c := &OpenAIClient{
		model:    model,
		bulkhead: bulkhead,
		cb:       cb,
		cfg:      cfg,
		logger:   logger,
	}
	if apiKey == "" {
		return c
	}

	oc := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		oc.BaseURL = baseURL
	}
	if httpClient != nil {
		oc.HTTPClient = httpClient
	}
	c.api = openai.NewClientWithConfig(oc)
	return c
}

func (c *OpenAIClient) Configured() bool { return c.api != nil }

// Generate asks for a JSON-only completion.
func (c *OpenAIClient) Generate(ctx context.Context, system, prompt string) (*port.Completion, error) {
	ctx, span := tracer.Start(ctx, "OpenAIClient.Generate")
	defer span.End()
	span.SetAttributes(attribute.String("llm.model", c.model))

	if c.api == nil {
		return nil, &domain.ErrSourceUnavailable{Source: llmService, Reason: "missing api key"}
	}

	if err := c.bulkhead.Acquire(ctx); err != nil {
		return nil, err
	}
	defer c.bulkhead.Release()

	var out *port.Completion
	err := call(ctx, c.cb, c.cfg, func() error {
		resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: system},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			Temperature: 0.7,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		})
		if err != nil {
			var apiErr *openai.APIError
			if errors.As(err, &apiErr) && apiErr.HTTPStatusCode >= 400 && apiErr.HTTPStatusCode < 500 && apiErr.HTTPStatusCode != http.StatusTooManyRequests {
				return resilience.Permanent(err)
			}
			return err
		}
		if len(resp.Choices) == 0 {
			return errors.New("openai: no choices returned")
		}

		out = &port.Completion{
			Text:             resp.Choices[0].Message.Content,
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
		}
		return nil
	})
	if err != nil {
		c.logger.Warn("openai: completion failed", zap.String("model", c.model), zap.Error(err))
		return nil, classify(llmService, err)
	}

	c.logger.Debug("openai: completion OK",
		zap.Int("prompt_tokens", out.PromptTokens),
		zap.Int("completion_tokens", out.CompletionTokens),
	)
	return out, nil
}
