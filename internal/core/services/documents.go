package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/policy-assistant/internal/core/domain"
	"github.com/custodia-labs/policy-assistant/internal/core/ports/driving"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService describes documents held in the served index.
type DocumentService struct {
	index       *IndexHandle
	docsBaseURL string
}

// NewDocumentService creates a new document service.
// docsBaseURL may be empty, in which case documents carry no URL.
func NewDocumentService(index *IndexHandle, docsBaseURL string) *DocumentService {
	return &DocumentService{
		index:       index,
		docsBaseURL: docsBaseURL,
	}
}

// List returns every indexed document in ingestion order.
func (s *DocumentService) List(ctx context.Context) ([]domain.DocumentInfo, error) {
	idx, err := s.index.Get(ctx)
	if err != nil {
		return nil, err
	}

	docs := idx.Documents()
	out := make([]domain.DocumentInfo, len(docs))
	for i, d := range docs {
		out[i] = s.withURL(d)
	}
	return out, nil
}

// Describe returns one document by ID.
func (s *DocumentService) Describe(ctx context.Context, docID string) (*domain.DocumentInfo, error) {
	docs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	for i := range docs {
		if docs[i].DocID == docID {
			return &docs[i], nil
		}
	}
	return nil, fmt.Errorf("%w: document %q", domain.ErrNotFound, docID)
}

func (s *DocumentService) withURL(d domain.DocumentInfo) domain.DocumentInfo {
	if d.URL == "" {
		d.URL = DocumentURL(s.docsBaseURL, d.DocID)
	}
	return d
}
