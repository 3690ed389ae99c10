package flat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/policy-assistant/internal/core/domain"
)

func record(id, docID, region string, vec ...float32) domain.VectorRecord {
	return domain.VectorRecord{
		Vector: vec,
		Chunk:  domain.Chunk{ID: id, DocID: docID, Title: docID + " title", Region: region, Text: id},
	}
}

func testSnapshot() *domain.IndexSnapshot {
	return &domain.IndexSnapshot{
		Model:     "all-minilm",
		Dimension: 2,
		Records: []domain.VectorRecord{
			record("a#0", "leave.md", "UK", 1, 0),
			record("a#1", "leave.md", "UK", 0.8, 0.6),
			record("b#0", "travel.md", "US", 0, 1),
			record("c#0", "handbook.md", "", 0.6, 0.8),
		},
	}
}

func ids(results []domain.RetrievalResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Chunk.ID
	}
	return out
}

func TestBuild_DimensionMismatch(t *testing.T) {
	snap := testSnapshot()
	snap.Records = append(snap.Records, record("d#0", "bad.md", "", 1, 2, 3))

	_, err := Build(snap)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestBuild_NilSnapshot(t *testing.T) {
	_, err := Build(nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestBuild_InfersDimension(t *testing.T) {
	snap := testSnapshot()
	snap.Dimension = 0

	idx, err := New(snap)
	require.NoError(t, err)
	assert.Equal(t, 2, idx.Dimension())
	assert.Equal(t, 4, idx.Len())
	assert.Equal(t, "all-minilm", idx.Model())
}

func TestSearch_OrdersByScore(t *testing.T) {
	idx, err := New(testSnapshot())
	require.NoError(t, err)

	results, err := idx.Search(context.Background(), []float32{1, 0}, 3, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a#0", "a#1", "c#0"}, ids(results))
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.InDelta(t, 0.8, results[1].Score, 1e-6)
}

func TestSearch_KLargerThanIndex(t *testing.T) {
	idx, err := New(testSnapshot())
	require.NoError(t, err)

	results, err := idx.Search(context.Background(), []float32{0, 1}, 50, nil)
	require.NoError(t, err)
	assert.Len(t, results, 4)
	assert.Equal(t, "b#0", results[0].Chunk.ID)
}

func TestSearch_TiesBreakByInsertionOrder(t *testing.T) {
	snap := &domain.IndexSnapshot{
		Model:     "m",
		Dimension: 2,
		Records: []domain.VectorRecord{
			record("x#0", "x", "", 0, 1),
			record("y#0", "y", "", 1, 0),
			record("z#0", "z", "", 2, 0),
			record("w#0", "w", "", 3, 0),
		},
	}
	idx, err := New(snap)
	require.NoError(t, err)

	results, err := idx.Search(context.Background(), []float32{1, 0}, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"y#0", "z#0"}, ids(results))
}

func TestSearch_FilterAppliedDuringScan(t *testing.T) {
	idx, err := New(testSnapshot())
	require.NoError(t, err)

	// b#0 is the nearest vector but tagged US; k is still filled from the rest.
	results, err := idx.Search(context.Background(), []float32{0, 1}, 2, domain.RegionFilter("UK"))
	require.NoError(t, err)
	assert.Equal(t, []string{"c#0", "a#1"}, ids(results))
	for _, r := range results {
		assert.NotEqual(t, "US", r.Chunk.Region)
	}
}

func TestSearch_FilterWithoutAbsent(t *testing.T) {
	idx, err := New(testSnapshot())
	require.NoError(t, err)

	filter := &domain.Filter{Field: domain.FilterFieldRegion, Accepted: []string{"US"}}
	results, err := idx.Search(context.Background(), []float32{1, 0}, 5, filter)
	require.NoError(t, err)
	assert.Equal(t, []string{"b#0"}, ids(results))
}

func TestSearch_InvalidK(t *testing.T) {
	idx, err := New(testSnapshot())
	require.NoError(t, err)

	_, err = idx.Search(context.Background(), []float32{1, 0}, 0, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSearch_QueryDimensionMismatch(t *testing.T) {
	idx, err := New(testSnapshot())
	require.NoError(t, err)

	_, err = idx.Search(context.Background(), []float32{1, 0, 0}, 3, nil)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestSearch_EmptyIndex(t *testing.T) {
	idx, err := New(&domain.IndexSnapshot{Model: "m"})
	require.NoError(t, err)

	results, err := idx.Search(context.Background(), []float32{1, 0}, 3, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_ZeroQueryScoresZero(t *testing.T) {
	idx, err := New(testSnapshot())
	require.NoError(t, err)

	results, err := idx.Search(context.Background(), []float32{0, 0}, 2, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, []string{"a#0", "a#1"}, ids(results))
	assert.Zero(t, results[0].Score)
}

func TestSearch_CancelledContext(t *testing.T) {
	idx, err := New(testSnapshot())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = idx.Search(ctx, []float32{1, 0}, 2, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDocuments_FirstSeenOrder(t *testing.T) {
	idx, err := New(testSnapshot())
	require.NoError(t, err)

	docs := idx.Documents()
	require.Len(t, docs, 3)
	assert.Equal(t, "leave.md", docs[0].DocID)
	assert.Equal(t, 2, docs[0].Chunks)
	assert.Equal(t, "UK", docs[0].Region)
	assert.Equal(t, "travel.md", docs[1].DocID)
	assert.Equal(t, "handbook.md", docs[2].DocID)
	assert.Equal(t, "handbook.md title", docs[2].Title)
}
