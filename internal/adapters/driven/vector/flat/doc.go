// Package flat provides an exact, in-memory cosine similarity index.
//
// Every search scans all records, so results are exact and deterministic.
// This suits policy corpora of a few thousand chunks; a built Index is
// immutable and safe for concurrent searches.
package flat
