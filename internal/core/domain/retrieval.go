package domain

import "time"

// IndexFormatVersion is the on-disk layout version of persisted indexes.
const IndexFormatVersion = 1

// RetrievalResult is a ranked chunk with its cosine similarity.
type RetrievalResult struct {
	Chunk Chunk
	Score float64
}

// VectorRecord pairs a chunk with its embedding.
type VectorRecord struct {
	Vector []float32
	Chunk  Chunk
}

// IndexSnapshot is the self-describing content of one corpus index.
// Records are kept in insertion order.
type IndexSnapshot struct {
	// Model is the embedding model every vector was produced with.
	Model string

	// Dimension is the uniform vector length.
	Dimension int

	// Records holds the vectors and their chunks.
	Records []VectorRecord

	// BuiltAt is when ingestion produced the snapshot.
	BuiltAt time.Time
}

// DocumentInfo summarises one indexed document.
type DocumentInfo struct {
	DocID  string `json:"doc_id"`
	Title  string `json:"title"`
	URL    string `json:"url,omitempty"`
	Chunks int    `json:"chunks"`
	Region string `json:"region,omitempty"`
}
