package driven

import (
	"context"

	"github.com/custodia-labs/policy-assistant/internal/core/domain"
)

// Normaliser extracts the text of one file format.
type Normaliser interface {
	SupportedMIMETypes() []string

	// Priority breaks ties between normalisers for the same MIME type.
	// Format readers use 50 to 89, text fallbacks 1 to 9.
	Priority() int

	// Normalise fails with domain.ErrInvalidInput when the file cannot be
	// read as its declared format.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
}

// NormaliseResult is the extracted text of one file: a single document, or
// one per page for PDFs. Every document carries the file name as its ID.
type NormaliseResult struct {
	Documents []domain.Document
}
