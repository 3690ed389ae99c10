package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/policy-assistant/internal/core/domain"
	"github.com/custodia-labs/policy-assistant/internal/core/ports/driven"
	"github.com/custodia-labs/policy-assistant/internal/logger"
)

// IndexHandle owns the in-memory index served to readers.
//
// The index is loaded lazily on first use and replaced by Reload after an
// ingestion. A missing index is reported every time, never remembered, so a
// later ingestion is picked up without restarting.
type IndexHandle struct {
	mu      sync.RWMutex
	store   driven.IndexStore
	build   driven.IndexBuilder
	current driven.VectorIndex
}

// NewIndexHandle creates a handle that loads from store and builds with build.
func NewIndexHandle(store driven.IndexStore, build driven.IndexBuilder) *IndexHandle {
	return &IndexHandle{
		store: store,
		build: build,
	}
}

// Get returns the current index, loading it on first use.
// Returns domain.ErrIndexUnavailable when nothing has been ingested.
func (h *IndexHandle) Get(ctx context.Context) (driven.VectorIndex, error) {
	h.mu.RLock()
	idx := h.current
	h.mu.RUnlock()
	if idx != nil {
		return idx, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	// Another caller may have loaded it while we waited.
	if h.current != nil {
		return h.current, nil
	}

	idx, err := h.load(ctx)
	if err != nil {
		return nil, err
	}
	h.current = idx
	return idx, nil
}

// Reload replaces the current index with the persisted one.
// On failure the previous index keeps serving.
func (h *IndexHandle) Reload(ctx context.Context) error {
	idx, err := h.load(ctx)
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.current = idx
	h.mu.Unlock()
	return nil
}

func (h *IndexHandle) load(ctx context.Context) (driven.VectorIndex, error) {
	snapshot, err := h.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}
	if snapshot == nil {
		return nil, fmt.Errorf("%w: no index at %s; run ingestion first", domain.ErrIndexUnavailable, h.store.Location())
	}

	idx, err := h.build(snapshot)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}

	logger.Debug("Loaded index: %d records, model=%s, dim=%d", idx.Len(), idx.Model(), idx.Dimension())
	return idx, nil
}
