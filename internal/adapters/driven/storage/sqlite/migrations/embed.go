// Package migrations holds the schema of the SQLite index database.
package migrations

import "embed"

// FS holds the numbered up and down scripts, applied in name order.
//
//go:embed *.sql
var FS embed.FS
