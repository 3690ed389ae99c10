package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/policy-assistant/internal/adapters/driven/vector/flat"
	"github.com/custodia-labs/policy-assistant/internal/core/domain"
	"github.com/custodia-labs/policy-assistant/internal/normalisers"
	"github.com/custodia-labs/policy-assistant/internal/postprocessors"
)

type ingestFixture struct {
	service  *IngestService
	store    *mockIndexStore
	embedder *mockEmbedder
	handle   *IndexHandle
}

func newIngestFixture(t *testing.T, config IngestConfig) *ingestFixture {
	t.Helper()

	pipeline, err := postprocessors.NewDefaultPipeline(domain.ChunkingSettings{Size: 200, Overlap: 20})
	require.NoError(t, err)

	store := &mockIndexStore{}
	embedder := &mockEmbedder{
		model: "all-minilm",
		fn: func(text string) []float32 {
			return []float32{float32(len(text)), 1}
		},
	}
	handle := NewIndexHandle(store, flat.Build)
	service := NewIngestService(normalisers.NewDefaultRegistry(), pipeline, embedder, store, flat.Build, handle, config)

	return &ingestFixture{service: service, store: store, embedder: embedder, handle: handle}
}

func policyFile(name, content string) domain.RawDocument {
	return domain.RawDocument{Name: name, URI: "policies/" + name, Content: []byte(content)}
}

func longPolicy(heading string, sentences int) string {
	var b strings.Builder
	b.WriteString("# " + heading + "\n\n")
	for i := 0; i < sentences; i++ {
		b.WriteString("Employees must follow the ")
		b.WriteString(heading)
		b.WriteString(" rules at all times. ")
	}
	return b.String()
}

func TestIngestService_Ingest(t *testing.T) {
	f := newIngestFixture(t, IngestConfig{BatchSize: 2, Workers: 2})

	result, err := f.service.Ingest(context.Background(), domain.IngestRequest{
		Files: []domain.RawDocument{
			policyFile("leave.md", longPolicy("Annual Leave", 20)),
			policyFile("expenses.txt", "Travel\n\nEconomy class is required for flights under 6 hours."),
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "Successfully processed 2 files", result.Message)
	assert.Equal(t, 2, result.DocumentsProcessed)
	assert.Greater(t, result.ChunksCreated, 2)
	assert.Empty(t, result.Failures)

	require.Len(t, f.store.persisted, 1)
	snapshot := f.store.persisted[0]
	assert.Equal(t, "all-minilm", snapshot.Model)
	assert.Equal(t, 2, snapshot.Dimension)
	assert.Len(t, snapshot.Records, result.ChunksCreated)
	assert.False(t, snapshot.BuiltAt.IsZero())

	for _, rec := range snapshot.Records {
		assert.Equal(t, float32(len(rec.Chunk.Text)), rec.Vector[0], "vector order matches chunk order")
		assert.NotEmpty(t, rec.Chunk.DocID)
		assert.NotEmpty(t, rec.Chunk.Section)
	}
	assert.Equal(t, "leave.md", snapshot.Records[0].Chunk.DocID)
	assert.Equal(t, "expenses.txt", snapshot.Records[len(snapshot.Records)-1].Chunk.DocID)

	idx, err := f.handle.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, result.ChunksCreated, idx.Len())
}

func TestIngestService_Ingest_Batches(t *testing.T) {
	f := newIngestFixture(t, IngestConfig{BatchSize: 1, Workers: 3, RequestsPerSecond: 1000})

	result, err := f.service.Ingest(context.Background(), domain.IngestRequest{
		Files: []domain.RawDocument{policyFile("leave.md", longPolicy("Annual Leave", 20))},
	})

	require.NoError(t, err)
	assert.Equal(t, int32(result.ChunksCreated), f.embedder.batches.Load())
}

func TestIngestService_Ingest_Region(t *testing.T) {
	f := newIngestFixture(t, IngestConfig{})
	file := policyFile("eu-leave.md", "# EU Leave\n\nEU staff receive 25 days.")
	file.Region = "EU"

	_, err := f.service.Ingest(context.Background(), domain.IngestRequest{Files: []domain.RawDocument{file}})

	require.NoError(t, err)
	for _, rec := range f.store.persisted[0].Records {
		assert.Equal(t, "EU", rec.Chunk.Region)
	}
}

func TestIngestService_Ingest_SkipsBadFiles(t *testing.T) {
	f := newIngestFixture(t, IngestConfig{})

	result, err := f.service.Ingest(context.Background(), domain.IngestRequest{
		Files: []domain.RawDocument{
			policyFile("leave.md", "# Leave\n\n20 days."),
			policyFile("payload.bin", "\x00\x01"),
			policyFile("leave.md", "# Duplicate\n\nagain"),
			policyFile("empty.txt", "   "),
		},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, result.DocumentsProcessed)
	assert.Equal(t, "Successfully processed 1 files", result.Message)
	require.Len(t, result.Failures, 3)
	assert.Equal(t, "payload.bin", result.Failures[0].File)
	assert.Contains(t, result.Failures[0].Error, "unsupported type")
	assert.Equal(t, "leave.md", result.Failures[1].File)
	assert.Contains(t, result.Failures[1].Error, "duplicate")
	assert.Equal(t, "empty.txt", result.Failures[2].File)
}

func TestIngestService_Ingest_Strict(t *testing.T) {
	f := newIngestFixture(t, IngestConfig{})

	_, err := f.service.Ingest(context.Background(), domain.IngestRequest{
		Strict: true,
		Files: []domain.RawDocument{
			policyFile("leave.md", "# Leave\n\n20 days."),
			policyFile("payload.bin", "\x00\x01"),
		},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIngestionInput)
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
	assert.Empty(t, f.store.persisted)
}

func TestIngestService_Ingest_NoChunksKeepsIndex(t *testing.T) {
	f := newIngestFixture(t, IngestConfig{})
	f.store.setSnapshot(testSnapshot("all-minilm"))

	_, err := f.service.Ingest(context.Background(), domain.IngestRequest{
		Files: []domain.RawDocument{policyFile("payload.bin", "\x00")},
	})

	require.ErrorIs(t, err, domain.ErrIngestionInput)
	assert.Empty(t, f.store.persisted)

	idx, err := f.handle.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, idx.Len())
}

func TestIngestService_Ingest_NoFiles(t *testing.T) {
	f := newIngestFixture(t, IngestConfig{})

	_, err := f.service.Ingest(context.Background(), domain.IngestRequest{})

	assert.ErrorIs(t, err, domain.ErrIngestionInput)
}

func TestIngestService_Ingest_EmbeddingFailure(t *testing.T) {
	f := newIngestFixture(t, IngestConfig{})
	f.embedder.err = assert.AnError

	_, err := f.service.Ingest(context.Background(), domain.IngestRequest{
		Files: []domain.RawDocument{policyFile("leave.md", "# Leave\n\n20 days.")},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.Empty(t, f.store.persisted)
}

func TestIngestService_Ingest_EmbedderMisconfigured(t *testing.T) {
	f := newIngestFixture(t, IngestConfig{})
	f.embedder.err = fmt.Errorf("openai: %w: status 401", domain.ErrConfiguration)

	_, err := f.service.Ingest(context.Background(), domain.IngestRequest{
		Files: []domain.RawDocument{policyFile("leave.md", "# Leave\n\n20 days.")},
	})

	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.NotErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.Empty(t, f.store.persisted)
}

func TestIngestService_Ingest_PersistFailure(t *testing.T) {
	f := newIngestFixture(t, IngestConfig{})
	f.store.persistErr = assert.AnError

	_, err := f.service.Ingest(context.Background(), domain.IngestRequest{
		Files: []domain.RawDocument{policyFile("leave.md", "# Leave\n\n20 days.")},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "persist index")
	_, err = f.handle.Get(context.Background())
	assert.ErrorIs(t, err, domain.ErrIndexUnavailable)
}

func TestIngestService_Ingest_InProgress(t *testing.T) {
	f := newIngestFixture(t, IngestConfig{})
	f.service.mu.Lock()
	defer f.service.mu.Unlock()

	_, err := f.service.Ingest(context.Background(), domain.IngestRequest{
		Files: []domain.RawDocument{policyFile("leave.md", "# Leave\n\n20 days.")},
	})

	assert.ErrorIs(t, err, domain.ErrIngestionInProgress)
}

func TestIngestService_Ingest_Cancelled(t *testing.T) {
	f := newIngestFixture(t, IngestConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.service.Ingest(ctx, domain.IngestRequest{
		Files: []domain.RawDocument{policyFile("leave.md", "# Leave\n\n20 days.")},
	})

	require.Error(t, err)
	assert.Empty(t, f.store.persisted)
}
