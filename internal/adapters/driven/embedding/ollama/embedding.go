// Package ollama embeds policy chunks and questions with a local Ollama.
package ollama

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/policy-assistant/internal/adapters/driven/ollamaclient"
	"github.com/custodia-labs/policy-assistant/internal/core/domain"
	"github.com/custodia-labs/policy-assistant/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// DefaultTimeout bounds one /api/embed call, which may carry a whole batch.
const DefaultTimeout = 60 * time.Second

// Config holds configuration for the Ollama embedding service.
type Config struct {
	// BaseURL defaults to ollamaclient.DefaultBaseURL.
	BaseURL string

	// Model is required, e.g. all-minilm.
	Model string

	Timeout time.Duration

	// Dimensions is looked up for known models and otherwise learned from
	// the first response.
	Dimensions int
}

// EmbeddingService calls the batch /api/embed endpoint.
type EmbeddingService struct {
	client *ollamaclient.Client
	model  string
	dims   atomic.Int64
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// NewEmbeddingService creates a new Ollama embedding service.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("ollama: %w: embedding model is required", domain.ErrConfiguration)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = domain.EmbeddingDimensions()[cfg.Model]
	}

	s := &EmbeddingService{
		client: ollamaclient.New(cfg.BaseURL, cfg.Timeout),
		model:  cfg.Model,
	}
	s.dims.Store(int64(cfg.Dimensions))
	return s, nil
}

// EmbedQuery embeds a question.
func (s *EmbeddingService) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedDocuments embeds texts in one request, preserving order.
func (s *EmbeddingService) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var resp embedResponse
	if err := s.client.Post(ctx, "/api/embed", embedRequest{Model: s.model, Input: texts}, &resp); err != nil {
		return nil, s.wrap(err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama: %w: got %d embeddings for %d texts",
			domain.ErrEmbeddingUnavailable, len(resp.Embeddings), len(texts))
	}

	for i, v := range resp.Embeddings {
		if len(v) == 0 {
			return nil, fmt.Errorf("ollama: %w: empty embedding for text %d from %s",
				domain.ErrEmbeddingUnavailable, i, s.model)
		}
		want := s.dims.Load()
		if want == 0 {
			s.dims.CompareAndSwap(0, int64(len(v)))
			want = s.dims.Load()
		}
		if int64(len(v)) != want {
			return nil, fmt.Errorf("ollama: %w: %s returned %d dimensions, expected %d",
				domain.ErrDimensionMismatch, s.model, len(v), want)
		}
	}
	return resp.Embeddings, nil
}

// Dimensions returns the vector size, or 0 before the first embedding of
// an unknown model.
func (s *EmbeddingService) Dimensions() int {
	return int(s.dims.Load())
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping checks that Ollama is up and has the model pulled.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	if err := s.client.RequireModel(ctx, s.model); err != nil {
		return s.wrap(err)
	}
	return nil
}

// Close is a no-op.
func (s *EmbeddingService) Close() error {
	return nil
}

func (s *EmbeddingService) wrap(err error) error {
	if missing := ollamaclient.NotPulled(err, s.model); missing != nil {
		return fmt.Errorf("ollama: %w: %w", domain.ErrConfiguration, missing)
	}
	return fmt.Errorf("ollama: %w: %w", domain.ErrEmbeddingUnavailable, err)
}
