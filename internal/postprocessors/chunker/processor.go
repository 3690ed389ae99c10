// Package chunker provides a boundary-aware text chunking processor.
//
// Chunks are cut at the latest natural boundary inside the size window:
// a paragraph break, then a line break, then a sentence end, then any
// whitespace. Text without a boundary is cut hard at the size limit.
// Consecutive chunks overlap by exactly the configured number of runes.
package chunker

import (
	"context"
	"strconv"
	"strings"
	"unicode"

	"github.com/custodia-labs/policy-assistant/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1200

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 150

// Processor splits document content into overlapping chunks.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits the document content into chunks.
// Input chunks are ignored; this processor creates new chunks from document content.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if strings.TrimSpace(doc.Content) == "" {
		return nil, nil
	}

	spans := Split([]rune(doc.Content), p.chunkSize, p.overlap)
	chunks := make([]domain.Chunk, 0, len(spans))
	for position, span := range spans {
		chunks = append(chunks, domain.Chunk{
			ID:       ChunkID(doc.ID, doc.Page, position),
			DocID:    doc.ID,
			Text:     span,
			Page:     doc.Page,
			Position: position,
		})
	}
	return chunks, nil
}

// ChunkID derives the deterministic chunk identifier doc_id#page#position.
// Unpaged documents use page 0.
func ChunkID(docID string, page *int, position int) string {
	p := 0
	if page != nil {
		p = *page
	}
	return docID + "#" + strconv.Itoa(p) + "#" + strconv.Itoa(position)
}

// Split cuts text into spans of at most size runes, each starting overlap
// runes before the end of the previous one. Requires 0 <= overlap < size.
func Split(text []rune, size, overlap int) []string {
	var spans []string
	start := 0
	for {
		end := start + size
		if end >= len(text) {
			spans = append(spans, string(text[start:]))
			return spans
		}
		cut := findCut(text, start+overlap, end)
		spans = append(spans, string(text[start:cut]))
		start = cut - overlap
	}
}

// findCut returns the preferred cut index in (lo, hi]. The cut falls
// directly after the chosen boundary.
func findCut(text []rune, lo, hi int) int {
	// Paragraph break.
	for i := hi - 2; i+2 > lo && i >= 0; i-- {
		if text[i] == '\n' && text[i+1] == '\n' {
			return i + 2
		}
	}
	// Line break.
	for i := hi - 1; i+1 > lo && i >= 0; i-- {
		if text[i] == '\n' {
			return i + 1
		}
	}
	// Sentence end.
	for i := hi - 2; i+2 > lo && i >= 0; i-- {
		if isSentenceEnd(text[i]) && text[i+1] == ' ' {
			return i + 2
		}
	}
	// Whitespace.
	for i := hi - 1; i+1 > lo && i >= 0; i-- {
		if unicode.IsSpace(text[i]) {
			return i + 1
		}
	}
	return hi
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
