package domain

// RawDocument represents opaque bytes handed to ingestion.
// It is the input to normalisation.
type RawDocument struct {
	// Name is the file name. It becomes the document ID.
	Name string

	// URI is the original location (file path, upload name).
	URI string

	// MIMEType is the content type (e.g., "application/pdf").
	MIMEType string

	// Content is the raw bytes.
	Content []byte

	// Region optionally scopes every chunk produced from this file.
	Region string

	// Metadata contains caller-supplied key-value pairs.
	Metadata map[string]any
}
