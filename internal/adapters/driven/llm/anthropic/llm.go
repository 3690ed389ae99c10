// Package anthropic answers policy questions with the Anthropic Messages API.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/custodia-labs/policy-assistant/internal/core/domain"
	"github.com/custodia-labs/policy-assistant/internal/core/ports/driven"
	"github.com/custodia-labs/policy-assistant/internal/logger"
)

var _ driven.LLMService = (*LLMService)(nil)

const (
	DefaultBaseURL = "https://api.anthropic.com"
	DefaultTimeout = 120 * time.Second

	// DefaultMaxTokens leaves room for a cited answer of about 200 words
	// plus the JSON envelope. The API rejects requests without a limit.
	DefaultMaxTokens = 1024

	// jsonPrefill starts the assistant turn so the reply continues an object.
	jsonPrefill = "{"
)

// Config holds configuration for the Anthropic LLM service.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// LLMService calls /v1/messages through the Anthropic SDK.
type LLMService struct {
	client anthropic.Client
	model  string
}

// NewLLMService creates a new Anthropic LLM service.
func NewLLMService(cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: %w: API key is required", domain.ErrConfiguration)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("anthropic: %w: model is required", domain.ErrConfiguration)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	client := anthropic.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")+"/"),
		option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		option.WithMaxRetries(0),
	)
	return &LLMService{client: client, model: cfg.Model}, nil
}

// Chat lifts system messages into the system field. The API has no JSON
// mode, so JSON requests prefill the assistant turn with an opening brace.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(s.model),
		MaxTokens:   int64(opts.MaxTokens),
		Temperature: anthropic.Float(opts.Temperature),
	}
	if params.MaxTokens == 0 {
		params.MaxTokens = DefaultMaxTokens
	}

	lastRole := ""
	for _, m := range messages {
		switch m.Role {
		case driven.RoleSystem:
			params.System = append(params.System, anthropic.TextBlockParam{Text: m.Content})
			continue
		case driven.RoleAssistant:
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
		lastRole = m.Role
	}

	prefill := ""
	if (opts.JSONMode || opts.Schema != nil) && lastRole == driven.RoleUser {
		prefill = jsonPrefill
		params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(prefill)))
	}

	resp, err := s.client.Messages.New(ctx, params)
	if err != nil {
		return "", failure(err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("anthropic: %w: no text content returned", domain.ErrSynthesisUnavailable)
	}

	logger.Debug("anthropic %s: %d input tokens, %d output tokens", s.model, resp.Usage.InputTokens, resp.Usage.OutputTokens)
	if resp.StopReason == anthropic.StopReasonMaxTokens {
		logger.Warn("anthropic %s stopped at max_tokens=%d, the answer may be cut short", s.model, params.MaxTokens)
	}
	return prefill + text.String(), nil
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping looks up the configured model, which checks the key and the model
// name without running inference.
func (s *LLMService) Ping(ctx context.Context) error {
	if _, err := s.client.Models.Get(ctx, s.model, anthropic.ModelGetParams{}); err != nil {
		return fmt.Errorf("ping: %w", failure(err))
	}
	return nil
}

// Close is a no-op.
func (s *LLMService) Close() error {
	return nil
}

// failure classifies an SDK error. Rejected credentials and unknown models
// are configuration errors; everything else is reported as unavailable.
func failure(err error) error {
	kind := domain.ErrSynthesisUnavailable
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
			kind = domain.ErrConfiguration
		}
		err = fmt.Errorf("status %d: %s", apiErr.StatusCode, errorMessage(apiErr.RawJSON()))
	}
	return fmt.Errorf("anthropic: %w: %w", kind, err)
}

// errorMessage pulls error.message out of an API error body.
func errorMessage(raw string) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal([]byte(raw), &envelope) == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	return strings.TrimSpace(raw)
}
