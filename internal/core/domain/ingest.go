package domain

// IngestRequest is a batch of source files that replaces the whole index.
type IngestRequest struct {
	// Files are the raw policy files.
	Files []RawDocument

	// Strict aborts the batch on the first unreadable file.
	Strict bool
}

// IngestResult summarises an ingestion run.
type IngestResult struct {
	Message            string        `json:"message"`
	DocumentsProcessed int           `json:"documents_processed"`
	ChunksCreated      int           `json:"chunks_created"`
	Failures           []FileFailure `json:"failures,omitempty"`
}

// FileFailure records why one file was skipped.
type FileFailure struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// Feedback is a user's verdict on an answer.
type Feedback struct {
	AnswerID string `json:"answer_id"`
	Helpful  bool   `json:"helpful"`
	Comment  string `json:"comment,omitempty"`
}
