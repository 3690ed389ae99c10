// Package sqlite persists vector index snapshots as SQLite database files.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO, enabling easy cross-compilation.
//
// # Schema
//
// The schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql
// files. A snapshot file holds one index_meta row and the records table.
//
// # Atomic replacement
//
// Persist writes a complete snapshot to a temporary file in the storage
// directory and renames it onto index.db only after the write committed
// and the connection closed. Readers therefore see either the previous
// index or the new one, never a partial write.
package sqlite
