package flat

import (
	"container/heap"
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/custodia-labs/policy-assistant/internal/core/domain"
	"github.com/custodia-labs/policy-assistant/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Ensure Build satisfies the builder signature.
var _ driven.IndexBuilder = Build

// Index is an immutable flat vector index.
type Index struct {
	model     string
	dimension int
	records   []domain.VectorRecord
	norms     []float64
	documents []domain.DocumentInfo
}

// Build validates the snapshot and precomputes record norms.
// Every vector must share the snapshot dimension.
func Build(snapshot *domain.IndexSnapshot) (driven.VectorIndex, error) {
	return New(snapshot)
}

// New is Build returning the concrete type.
func New(snapshot *domain.IndexSnapshot) (*Index, error) {
	if snapshot == nil {
		return nil, fmt.Errorf("%w: nil snapshot", domain.ErrInvalidInput)
	}

	dim := snapshot.Dimension
	if dim == 0 && len(snapshot.Records) > 0 {
		dim = len(snapshot.Records[0].Vector)
	}

	idx := &Index{
		model:     snapshot.Model,
		dimension: dim,
		records:   snapshot.Records,
		norms:     make([]float64, len(snapshot.Records)),
	}

	seen := make(map[string]int)
	for i, rec := range snapshot.Records {
		if len(rec.Vector) != dim {
			return nil, fmt.Errorf("%w: record %d (%s) has %d dimensions, index has %d",
				domain.ErrDimensionMismatch, i, rec.Chunk.ID, len(rec.Vector), dim)
		}
		idx.norms[i] = norm(rec.Vector)

		pos, ok := seen[rec.Chunk.DocID]
		if !ok {
			pos = len(idx.documents)
			seen[rec.Chunk.DocID] = pos
			idx.documents = append(idx.documents, domain.DocumentInfo{
				DocID: rec.Chunk.DocID,
				Title: rec.Chunk.Title,
			})
		}
		idx.documents[pos].Chunks++
		if idx.documents[pos].Region == "" {
			idx.documents[pos].Region = rec.Chunk.Region
		}
	}

	return idx, nil
}

// Search scans every record and returns the k most similar passing filter.
func (idx *Index) Search(
	ctx context.Context,
	query []float32,
	k int,
	filter *domain.Filter,
) ([]domain.RetrievalResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidInput, k)
	}
	if len(idx.records) == 0 {
		return []domain.RetrievalResult{}, nil
	}
	if len(query) != idx.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			domain.ErrDimensionMismatch, len(query), idx.dimension)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	qNorm := norm(query)
	h := &topK{}
	for i := range idx.records {
		if !filter.Matches(idx.records[i].Chunk) {
			continue
		}
		c := candidate{seq: i, score: cosine(query, qNorm, idx.records[i].Vector, idx.norms[i])}
		if h.Len() < k {
			heap.Push(h, c)
			continue
		}
		if worse((*h)[0], c) {
			(*h)[0] = c
			heap.Fix(h, 0)
		}
	}

	best := []candidate(*h)
	sort.Slice(best, func(i, j int) bool { return worse(best[j], best[i]) })

	results := make([]domain.RetrievalResult, len(best))
	for i, c := range best {
		results[i] = domain.RetrievalResult{Chunk: idx.records[c.seq].Chunk, Score: c.score}
	}
	return results, nil
}

// Documents lists indexed documents in first-seen order.
func (idx *Index) Documents() []domain.DocumentInfo {
	out := make([]domain.DocumentInfo, len(idx.documents))
	copy(out, idx.documents)
	return out
}

// Len returns the number of records.
func (idx *Index) Len() int { return len(idx.records) }

// Dimension returns the vector size.
func (idx *Index) Dimension() int { return idx.dimension }

// Model returns the embedding model name.
func (idx *Index) Model() string { return idx.model }

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// cosine returns 0 when either vector has zero length.
func cosine(a []float32, aNorm float64, b []float32, bNorm float64) float64 {
	if aNorm == 0 || bNorm == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (aNorm * bNorm)
}

type candidate struct {
	seq   int
	score float64
}

// worse reports whether a ranks below b: lower score, or equal score and
// inserted later.
func worse(a, b candidate) bool {
	if a.score != b.score {
		return a.score < b.score
	}
	return a.seq > b.seq
}

// topK is a min-heap with the worst kept candidate at the root.
type topK []candidate

func (h topK) Len() int           { return len(h) }
func (h topK) Less(i, j int) bool { return worse(h[i], h[j]) }
func (h topK) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *topK) Push(x any) { *h = append(*h, x.(candidate)) }

func (h *topK) Pop() any {
	old := *h
	n := len(old)
	c := old[n-1]
	*h = old[:n-1]
	return c
}
