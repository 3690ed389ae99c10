package driving

import (
	"context"

	"github.com/custodia-labs/policy-assistant/internal/core/domain"
)

// IngestService rebuilds the index from source files.
type IngestService interface {
	// Ingest replaces the whole index with one built from req.Files.
	Ingest(ctx context.Context, req domain.IngestRequest) (*domain.IngestResult, error)
}

// FeedbackService records user verdicts on answers.
type FeedbackService interface {
	// Submit records feedback for a previously returned answer.
	Submit(ctx context.Context, feedback domain.Feedback) error
}
