package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/policy-assistant/internal/core/domain"
	"github.com/custodia-labs/policy-assistant/internal/core/ports/driven"
	"github.com/custodia-labs/policy-assistant/internal/core/ports/driving"
	"github.com/custodia-labs/policy-assistant/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// RetrievalService embeds questions and searches the served index.
type RetrievalService struct {
	index    *IndexHandle
	embedder driven.EmbeddingService
}

// NewRetrievalService creates a new retrieval service.
func NewRetrievalService(index *IndexHandle, embedder driven.EmbeddingService) *RetrievalService {
	return &RetrievalService{
		index:    index,
		embedder: embedder,
	}
}

// Retrieve returns up to k chunks passing filter, best first.
// The index ranking is returned unchanged.
func (s *RetrievalService) Retrieve(
	ctx context.Context, question string, k int, filter *domain.Filter,
) ([]domain.RetrievalResult, error) {
	defer logger.Stage("Retrieval")()
	logger.Debug("Question: %q, k=%d, filter=%s", question, k, filter)

	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidInput, k)
	}

	idx, err := s.index.Get(ctx)
	if err != nil {
		return nil, err
	}

	if model := idx.Model(); model != "" && model != s.embedder.ModelName() {
		return nil, fmt.Errorf("%w: index was built with embedding model %q but %q is configured; re-run ingestion",
			domain.ErrConfiguration, model, s.embedder.ModelName())
	}

	vector, err := s.embedder.EmbedQuery(ctx, question)
	if err != nil {
		if !errors.Is(err, domain.ErrEmbeddingUnavailable) && !errors.Is(err, domain.ErrConfiguration) {
			err = fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
		}
		return nil, fmt.Errorf("embed question: %w", err)
	}

	results, err := idx.Search(ctx, vector, k, filter)
	if err != nil {
		if errors.Is(err, domain.ErrDimensionMismatch) {
			return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
		}
		return nil, fmt.Errorf("search index: %w", err)
	}

	logger.Debug("Retrieved %d of %d records", len(results), idx.Len())
	return results, nil
}

// Ready reports whether an index can be served.
func (s *RetrievalService) Ready(ctx context.Context) error {
	_, err := s.index.Get(ctx)
	return err
}
