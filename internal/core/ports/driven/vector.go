package driven

import (
	"context"

	"github.com/custodia-labs/policy-assistant/internal/core/domain"
)

// VectorIndex is a read-only, searchable view of one index snapshot.
// Implementations must be safe for concurrent searches.
type VectorIndex interface {
	// Search returns up to k records passing filter, best-first by cosine
	// similarity, ties broken by insertion order. A nil filter accepts all.
	Search(ctx context.Context, query []float32, k int, filter *domain.Filter) ([]domain.RetrievalResult, error)

	// Documents lists the indexed documents in first-seen order.
	Documents() []domain.DocumentInfo

	// Len returns the number of records.
	Len() int

	// Dimension returns the vector size. Zero for an empty index.
	Dimension() int

	// Model returns the embedding model the vectors were produced with.
	Model() string
}

// IndexBuilder constructs a searchable index from a snapshot.
type IndexBuilder func(snapshot *domain.IndexSnapshot) (VectorIndex, error)

// IndexStore persists index snapshots to durable storage.
type IndexStore interface {
	// Persist writes the snapshot all-or-nothing. Readers never observe a partial index.
	Persist(ctx context.Context, snapshot *domain.IndexSnapshot) error

	// Load reads the persisted snapshot. It returns nil and no error when
	// nothing has been ingested yet.
	Load(ctx context.Context) (*domain.IndexSnapshot, error)

	// Location returns the path of the persisted index.
	Location() string
}
