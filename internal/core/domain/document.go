package domain

import "time"

// Document represents a normalised policy document.
// Paged sources (PDF) produce one Document per page.
type Document struct {
	// ID is the document identifier. For ingested files this is the file name.
	ID string

	// URI is the original location (file path or upload name).
	URI string

	// Title is the human-readable title.
	Title string

	// Content is the full text content after normalisation.
	// This is the complete document text before chunking.
	Content string

	// Section is an explicit heading supplied by the source, if any.
	Section string

	// Page is the 1-based page number for paged sources.
	Page *int

	// Region scopes the document to a region. Empty means unscoped.
	Region string

	// Metadata contains arbitrary key-value pairs.
	Metadata map[string]any

	// CreatedAt is when the document was normalised.
	CreatedAt time.Time
}

// Chunk represents a retrieval unit within a document.
// Chunks are immutable once created and are only replaced by full re-ingestion.
type Chunk struct {
	// ID is deterministic: doc_id, page and position joined by '#'.
	ID string

	// DocID links to the parent Document.
	DocID string

	// Title is the parent document title.
	Title string

	// Text is the chunk content.
	Text string

	// Section is the heading the chunk belongs to.
	Section string

	// Page is the 1-based page the chunk came from, if known.
	Page *int

	// Region is the access-scoping tag. Empty means untagged.
	Region string

	// Position is the ordinal position within the document (page).
	Position int
}

// Attribute returns the value of a filterable chunk field.
// The boolean is false when the field is unknown or the value is absent.
func (c Chunk) Attribute(field FilterField) (string, bool) {
	if field != FilterFieldRegion {
		return "", false
	}
	return c.Region, c.Region != ""
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
