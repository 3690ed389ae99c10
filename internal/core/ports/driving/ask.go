package driving

import (
	"context"

	"github.com/custodia-labs/policy-assistant/internal/core/domain"
)

// AskService answers questions from the policy corpus.
type AskService interface {
	// Ask retrieves context, synthesizes an answer and enriches its citations.
	Ask(ctx context.Context, req domain.AskRequest) (*domain.AskResult, error)
}

// RetrievalService exposes ranked chunk retrieval.
type RetrievalService interface {
	// Retrieve embeds the question and returns up to k chunks passing filter.
	Retrieve(ctx context.Context, question string, k int, filter *domain.Filter) ([]domain.RetrievalResult, error)

	// Ready returns nil when an index is loadable.
	Ready(ctx context.Context) error
}
