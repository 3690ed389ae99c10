// Package ollama answers policy questions with a model served by Ollama.
package ollama

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/policy-assistant/internal/adapters/driven/ollamaclient"
	"github.com/custodia-labs/policy-assistant/internal/core/domain"
	"github.com/custodia-labs/policy-assistant/internal/core/ports/driven"
	"github.com/custodia-labs/policy-assistant/internal/logger"
)

var _ driven.LLMService = (*LLMService)(nil)

// DefaultLLMTimeout allows for a cold model load on the first question.
const DefaultLLMTimeout = 120 * time.Second

// LLMConfig holds configuration for the Ollama LLM service.
type LLMConfig struct {
	// BaseURL defaults to ollamaclient.DefaultBaseURL.
	BaseURL string

	// Model is required, e.g. llama3.2.
	Model string

	Timeout time.Duration
}

// LLMService calls /api/chat without streaming.
type LLMService struct {
	client *ollamaclient.Client
	model  string
}

type options struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	// Format is "json" or a JSON Schema object.
	Format  any     `json:"format,omitempty"`
	Options options `json:"options"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Message         chatMessage `json:"message"`
	Done            bool        `json:"done"`
	DoneReason      string      `json:"done_reason,omitempty"`
	PromptEvalCount int         `json:"prompt_eval_count,omitempty"`
	EvalCount       int         `json:"eval_count,omitempty"`
	Error           string      `json:"error,omitempty"`
}

// NewLLMService creates a new Ollama LLM service.
func NewLLMService(cfg LLMConfig) (*LLMService, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("ollama: %w: model is required", domain.ErrConfiguration)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}
	return &LLMService{
		client: ollamaclient.New(cfg.BaseURL, cfg.Timeout),
		model:  cfg.Model,
	}, nil
}

// Chat returns the assistant reply. A schema in opts is passed as the
// structured output format.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	req := chatRequest{
		Model:    s.model,
		Messages: make([]chatMessage, len(messages)),
		Options: options{
			NumPredict:  opts.MaxTokens,
			Temperature: opts.Temperature,
		},
	}
	for i, m := range messages {
		req.Messages[i] = chatMessage{Role: m.Role, Content: m.Content}
	}
	switch {
	case opts.Schema != nil:
		req.Format = opts.Schema
	case opts.JSONMode:
		req.Format = "json"
	}

	var resp chatResponse
	if err := s.client.Post(ctx, "/api/chat", req, &resp); err != nil {
		return "", s.wrap(err)
	}
	if resp.Error != "" {
		return "", fmt.Errorf("ollama: %w: %s", domain.ErrSynthesisUnavailable, resp.Error)
	}

	logger.Debug("ollama %s: %d prompt tokens, %d completion tokens", s.model, resp.PromptEvalCount, resp.EvalCount)
	if resp.DoneReason == "length" {
		logger.Warn("ollama %s stopped at the token limit, the answer may be cut short", s.model)
	}
	return resp.Message.Content, nil
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping checks that Ollama is up and has the model pulled, without
// running inference.
func (s *LLMService) Ping(ctx context.Context) error {
	if err := s.client.RequireModel(ctx, s.model); err != nil {
		return s.wrap(err)
	}
	return nil
}

// Close is a no-op.
func (s *LLMService) Close() error {
	return nil
}

func (s *LLMService) wrap(err error) error {
	if missing := ollamaclient.NotPulled(err, s.model); missing != nil {
		return fmt.Errorf("ollama: %w: %w", domain.ErrConfiguration, missing)
	}
	return fmt.Errorf("ollama: %w: %w", domain.ErrSynthesisUnavailable, err)
}
