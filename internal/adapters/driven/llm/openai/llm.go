// Package openai provides an LLM service adapter for the OpenAI chat
// completions API. Groq and other OpenAI-compatible endpoints are reached
// by changing the base URL.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/custodia-labs/policy-assistant/internal/core/domain"
	"github.com/custodia-labs/policy-assistant/internal/core/ports/driven"
	"github.com/custodia-labs/policy-assistant/internal/logger"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "https://api.openai.com/v1"
	DefaultLLMTimeout = 120 * time.Second
)

// LLMConfig holds configuration for the OpenAI LLM service.
type LLMConfig struct {
	// APIKey is the API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	// Set to https://api.groq.com/openai/v1 for Groq.
	BaseURL string

	// Model is the LLM model to use (required).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration

	// Provider names the service in errors (default: openai).
	Provider string
}

// LLMService provides chat completions through the OpenAI SDK.
// Requests are never retried; a failed completion is reported once.
type LLMService struct {
	client   openai.Client
	model    string
	provider string
}

// NewLLMService creates a new OpenAI-compatible LLM service.
func NewLLMService(cfg LLMConfig) (*LLMService, error) {
	if cfg.Provider == "" {
		cfg.Provider = string(domain.AIProviderOpenAI)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: %w: API key is required", cfg.Provider, domain.ErrConfiguration)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%s: %w: model is required", cfg.Provider, domain.ErrConfiguration)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}

	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")+"/"),
		option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		option.WithMaxRetries(0),
	)

	return &LLMService{
		client:   client,
		model:    cfg.Model,
		provider: cfg.Provider,
	}, nil
}

// Chat sends the conversation and returns the first choice's content.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(s.model),
		Messages:    toParams(messages),
		Temperature: openai.Float(opts.Temperature),
	}
	if opts.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(opts.MaxTokens))
	}
	if opts.JSONMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	completion, err := s.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", s.failure(err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("%s: %w: no response choices returned", s.provider, domain.ErrSynthesisUnavailable)
	}

	choice := completion.Choices[0]
	logger.Debug("%s %s: %d prompt tokens, %d completion tokens",
		s.provider, s.model, completion.Usage.PromptTokens, completion.Usage.CompletionTokens)
	if choice.FinishReason == "length" {
		logger.Warn("%s %s stopped at the token limit, the answer may be cut short", s.provider, s.model)
	}
	return choice.Message.Content, nil
}

func toParams(messages []driven.ChatMessage) []openai.ChatCompletionMessageParamUnion {
	params := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case driven.RoleSystem:
			params = append(params, openai.SystemMessage(msg.Content))
		case driven.RoleAssistant:
			params = append(params, openai.AssistantMessage(msg.Content))
		default:
			params = append(params, openai.UserMessage(msg.Content))
		}
	}
	return params
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping validates the service is reachable by listing models.
// This is a lightweight check that validates the API key without running inference.
func (s *LLMService) Ping(ctx context.Context) error {
	if _, err := s.client.Models.List(ctx); err != nil {
		return fmt.Errorf("ping: %w", s.failure(err))
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}

// failure classifies an SDK error. A rejected key or unknown model is a
// configuration problem; anything else means the provider is unavailable.
func (s *LLMService) failure(err error) error {
	kind := domain.ErrSynthesisUnavailable
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
			kind = domain.ErrConfiguration
		}
		err = fmt.Errorf("API returned status %d: %s", apiErr.StatusCode, apiErr.Message)
	}
	return fmt.Errorf("%s: %w: %w", s.provider, kind, err)
}
