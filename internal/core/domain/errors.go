package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates a file type no normaliser can handle.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrConfiguration indicates missing or invalid credentials, providers
	// or model identifiers. It is fatal at startup or first use.
	ErrConfiguration = errors.New("configuration error")

	// ErrIndexUnavailable indicates no index has been built yet.
	// Ingestion must run before retrieval can succeed.
	ErrIndexUnavailable = errors.New("index unavailable")

	// ErrDimensionMismatch indicates a vector whose length differs from the index dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrEmbeddingUnavailable indicates the embedding service is unreachable or failed.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrSynthesisUnavailable indicates the completion service is unreachable or failed.
	// Malformed completion output is not an error; see OutcomeDegraded.
	ErrSynthesisUnavailable = errors.New("synthesis service unavailable")

	// ErrUnsupportedFilter indicates a retrieval filter key other than region.
	ErrUnsupportedFilter = errors.New("unsupported filter")

	// Ingestion Errors.

	// ErrIngestionInput indicates an unsupported or unreadable source file.
	ErrIngestionInput = errors.New("ingestion input error")

	// ErrIngestionInProgress indicates another ingestion holds the lock.
	ErrIngestionInProgress = errors.New("ingestion in progress")

	// ErrMissingProvenance indicates a chunk that cannot be traced back to its document.
	ErrMissingProvenance = errors.New("missing provenance")
)
