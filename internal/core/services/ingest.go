package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/policy-assistant/internal/core/domain"
	"github.com/custodia-labs/policy-assistant/internal/core/ports/driven"
	"github.com/custodia-labs/policy-assistant/internal/core/ports/driving"
	"github.com/custodia-labs/policy-assistant/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestConfig controls how ingestion calls the embedding service.
type IngestConfig struct {
	// BatchSize is the number of texts per embedding request.
	BatchSize int

	// Workers bounds concurrent embedding requests.
	Workers int

	// RequestsPerSecond paces embedding requests. Zero means unlimited.
	RequestsPerSecond float64
}

// IngestService rebuilds the whole index from a batch of files.
type IngestService struct {
	mu sync.Mutex

	normalisers driven.NormaliserRegistry
	pipeline    driven.PostProcessorPipeline
	embedder    driven.EmbeddingService
	store       driven.IndexStore
	build       driven.IndexBuilder
	index       *IndexHandle
	config      IngestConfig
	limiter     *rate.Limiter
	now         func() time.Time
}

// NewIngestService creates a new ingestion service.
func NewIngestService(
	normalisers driven.NormaliserRegistry,
	pipeline driven.PostProcessorPipeline,
	embedder driven.EmbeddingService,
	store driven.IndexStore,
	build driven.IndexBuilder,
	index *IndexHandle,
	config IngestConfig,
) *IngestService {
	defaults := domain.DefaultAppSettings().Embedding
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}
	if config.Workers <= 0 {
		config.Workers = defaults.Workers
	}

	var limiter *rate.Limiter
	if config.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1)
	}

	return &IngestService{
		normalisers: normalisers,
		pipeline:    pipeline,
		embedder:    embedder,
		store:       store,
		build:       build,
		index:       index,
		config:      config,
		limiter:     limiter,
		now:         time.Now,
	}
}

// Ingest replaces the index with one built from req.Files.
//
// Unreadable files are recorded in the result and skipped, unless
// req.Strict is set, in which case the first one aborts the run. The
// previous index stays in place whenever ingestion fails.
func (s *IngestService) Ingest(ctx context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	if !s.mu.TryLock() {
		return nil, domain.ErrIngestionInProgress
	}
	defer s.mu.Unlock()

	defer logger.Stage("Ingestion")()
	logger.Debug("Files: %d, strict=%v", len(req.Files), req.Strict)

	if len(req.Files) == 0 {
		return nil, fmt.Errorf("%w: no files supplied", domain.ErrIngestionInput)
	}

	result := &domain.IngestResult{}
	var chunks []domain.Chunk
	seen := make(map[string]bool, len(req.Files))

	for i := range req.Files {
		file := req.Files[i]

		fileChunks, err := s.processFile(ctx, &file, seen)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if req.Strict {
				return nil, err
			}
			logger.Warn("Skipping %s: %v", file.Name, err)
			result.Failures = append(result.Failures, domain.FileFailure{
				File:  file.Name,
				Error: err.Error(),
			})
			continue
		}

		chunks = append(chunks, fileChunks...)
		result.DocumentsProcessed++
		logger.Debug("  %s: %d chunks", file.Name, len(fileChunks))
	}

	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no chunks produced from %d files", domain.ErrIngestionInput, len(req.Files))
	}

	vectors, err := s.embed(ctx, chunks)
	if err != nil {
		return nil, err
	}

	snapshot := &domain.IndexSnapshot{
		Model:     s.embedder.ModelName(),
		Dimension: len(vectors[0]),
		Records:   make([]domain.VectorRecord, len(chunks)),
		BuiltAt:   s.now().UTC(),
	}
	for i := range chunks {
		snapshot.Records[i] = domain.VectorRecord{Vector: vectors[i], Chunk: chunks[i]}
	}

	// Building validates dimensions before anything reaches disk.
	if _, err := s.build(snapshot); err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	if err := s.store.Persist(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("persist index: %w", err)
	}
	if err := s.index.Reload(ctx); err != nil {
		return nil, fmt.Errorf("reload index: %w", err)
	}

	result.ChunksCreated = len(chunks)
	result.Message = fmt.Sprintf("Successfully processed %d files", result.DocumentsProcessed)

	logger.Info("Indexed %d chunks from %d files (%d skipped)",
		result.ChunksCreated, result.DocumentsProcessed, len(result.Failures))
	return result, nil
}

// processFile normalises and chunks one file. Every returned error wraps
// domain.ErrIngestionInput.
func (s *IngestService) processFile(
	ctx context.Context, file *domain.RawDocument, seen map[string]bool,
) ([]domain.Chunk, error) {
	name := strings.TrimSpace(file.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: file has no name", domain.ErrIngestionInput)
	}
	if seen[name] {
		return nil, fmt.Errorf("%w: %s: duplicate document id", domain.ErrIngestionInput, name)
	}
	seen[name] = true

	normalised, err := s.normalisers.Normalise(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrIngestionInput, name, err)
	}

	var chunks []domain.Chunk
	for i := range normalised.Documents {
		doc := normalised.Documents[i]
		if doc.Region == "" {
			doc.Region = file.Region
		}

		docChunks, err := s.pipeline.Process(ctx, &doc)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrIngestionInput, name, err)
		}
		chunks = append(chunks, docChunks...)
	}

	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: %s: no text extracted", domain.ErrIngestionInput, name)
	}
	return chunks, nil
}

// embed embeds chunk texts in parallel batches, preserving order.
func (s *IngestService) embed(ctx context.Context, chunks []domain.Chunk) ([][]float32, error) {
	defer logger.Stage("Embedding")()

	vectors := make([][]float32, len(chunks))
	batches := (len(chunks) + s.config.BatchSize - 1) / s.config.BatchSize
	logger.Debug("Embedding %d chunks in %d batches with %d workers", len(chunks), batches, s.config.Workers)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Workers)

	for start := 0; start < len(chunks); start += s.config.BatchSize {
		end := min(start+s.config.BatchSize, len(chunks))

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if s.limiter != nil {
				if err := s.limiter.Wait(gctx); err != nil {
					return err
				}
			}

			texts := make([]string, 0, end-start)
			for _, c := range chunks[start:end] {
				texts = append(texts, c.Text)
			}

			out, err := s.embedder.EmbedDocuments(gctx, texts)
			if err != nil {
				return err
			}
			if len(out) != len(texts) {
				return fmt.Errorf("got %d embeddings for %d texts", len(out), len(texts))
			}
			copy(vectors[start:end], out)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if !errors.Is(err, domain.ErrEmbeddingUnavailable) && !errors.Is(err, domain.ErrConfiguration) {
			err = fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
		}
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	return vectors, nil
}
