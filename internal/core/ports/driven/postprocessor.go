package driven

import (
	"context"

	"github.com/custodia-labs/policy-assistant/internal/core/domain"
)

// PostProcessor is one step between a normalised page and indexable
// chunks. The chunker receives nil chunks and splits doc; later steps such
// as provenance tagging receive the previous step's output.
type PostProcessor interface {
	// Name is the key used in the processors setting.
	Name() string

	Process(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// PostProcessorPipeline runs the configured steps for one page. Every
// returned chunk carries its id and doc_id.
type PostProcessorPipeline interface {
	Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error)
}
