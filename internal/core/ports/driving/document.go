package driving

import (
	"context"

	"github.com/custodia-labs/policy-assistant/internal/core/domain"
)

// DocumentService describes the documents held in the index.
type DocumentService interface {
	// List returns every indexed document.
	List(ctx context.Context) ([]domain.DocumentInfo, error)

	// Describe returns one document, or domain.ErrNotFound.
	Describe(ctx context.Context, docID string) (*domain.DocumentInfo, error)
}
