package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/policy-assistant/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/policy-assistant/internal/core/domain"
	"github.com/custodia-labs/policy-assistant/internal/core/ports/driven"
	"github.com/custodia-labs/policy-assistant/internal/logger"
)

// IndexFileName is the name of the persisted index inside the storage directory.
const IndexFileName = "index.db"

// Ensure IndexStore implements the interface.
var _ driven.IndexStore = (*IndexStore)(nil)

// IndexStore persists index snapshots to <dir>/index.db.
type IndexStore struct {
	dir  string
	path string
}

// NewIndexStore creates an index store rooted at dir, creating it if needed.
func NewIndexStore(dir string) (*IndexStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: storage directory not set", domain.ErrConfiguration)
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}
	return &IndexStore{
		dir:  dir,
		path: filepath.Join(dir, IndexFileName),
	}, nil
}

// Location returns the index database path.
func (s *IndexStore) Location() string {
	return s.path
}

// Persist writes snapshot to a fresh database and atomically renames it
// over the current index. The previous index is untouched on failure.
func (s *IndexStore) Persist(ctx context.Context, snapshot *domain.IndexSnapshot) (err error) {
	if snapshot == nil {
		return fmt.Errorf("%w: nil snapshot", domain.ErrInvalidInput)
	}
	for i, rec := range snapshot.Records {
		if len(rec.Vector) != snapshot.Dimension {
			return fmt.Errorf("%w: record %d has %d dimensions, snapshot has %d",
				domain.ErrDimensionMismatch, i, len(rec.Vector), snapshot.Dimension)
		}
	}

	tmp := filepath.Join(s.dir, ".index-"+uuid.New().String()+".db")
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
			_ = os.Remove(tmp + "-journal")
		}
	}()

	db, err := open(tmp, false)
	if err != nil {
		return err
	}

	if err := migrate(ctx, db, migrations.FS); err != nil {
		db.Close()
		return fmt.Errorf("running migrations: %w", err)
	}
	if err := writeSnapshot(ctx, db, snapshot); err != nil {
		db.Close()
		return err
	}
	if err := db.Close(); err != nil {
		return fmt.Errorf("closing index database: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing index: %w", err)
	}

	logger.Debug("persisted %d records (%s, dim %d) to %s",
		len(snapshot.Records), snapshot.Model, snapshot.Dimension, s.path)
	return nil
}

// Load reads the persisted snapshot. It returns nil, nil when no index
// has been written yet.
func (s *IndexStore) Load(ctx context.Context) (*domain.IndexSnapshot, error) {
	if _, err := os.Stat(s.path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("checking index: %w", err)
	}

	db, err := open(s.path, true)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	snapshot, count, err := readMeta(ctx, db)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT chunk_id, doc_id, title, section, page, region, chunk_position, text, vector
		FROM records
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	snapshot.Records = make([]domain.VectorRecord, 0, count)
	for rows.Next() {
		var (
			c    domain.Chunk
			page sql.NullInt64
			blob []byte
		)
		if err := rows.Scan(&c.ID, &c.DocID, &c.Title, &c.Section, &page, &c.Region,
			&c.Position, &c.Text, &blob); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		if page.Valid {
			c.Page = domain.IntPtr(int(page.Int64))
		}

		vector := bytesToFloat32Slice(blob)
		if len(vector) != snapshot.Dimension {
			return nil, fmt.Errorf("%w: record %s has %d dimensions, index has %d",
				domain.ErrDimensionMismatch, c.ID, len(vector), snapshot.Dimension)
		}
		snapshot.Records = append(snapshot.Records, domain.VectorRecord{Vector: vector, Chunk: c})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}

	if len(snapshot.Records) != count {
		return nil, fmt.Errorf("%w: index declares %d records but holds %d",
			domain.ErrIndexUnavailable, count, len(snapshot.Records))
	}

	logger.Debug("loaded %d records (%s, dim %d) from %s",
		count, snapshot.Model, snapshot.Dimension, s.path)
	return snapshot, nil
}

// open opens a SQLite database. Index files use a rollback journal so the
// finished database is a single file that can be renamed.
func open(path string, readOnly bool) (*sql.DB, error) {
	dsn := path + "?_pragma=journal_mode(DELETE)&_pragma=busy_timeout(5000)"
	if readOnly {
		dsn += "&_pragma=query_only(1)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

func writeSnapshot(ctx context.Context, db *sql.DB, snapshot *domain.IndexSnapshot) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	builtAt := snapshot.BuiltAt
	if builtAt.IsZero() {
		builtAt = time.Now()
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO index_meta (id, format_version, model, dimension, record_count, built_at)
		VALUES (1, ?, ?, ?, ?, ?)
	`, domain.IndexFormatVersion, snapshot.Model, snapshot.Dimension, len(snapshot.Records),
		builtAt.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("writing index metadata: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (position, chunk_id, doc_id, title, section, page, region, chunk_position, text, vector)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i, rec := range snapshot.Records {
		c := rec.Chunk
		var page sql.NullInt64
		if c.Page != nil {
			page = sql.NullInt64{Int64: int64(*c.Page), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, i, c.ID, c.DocID, c.Title, c.Section, page, c.Region,
			c.Position, c.Text, float32SliceToBytes(rec.Vector)); err != nil {
			return fmt.Errorf("saving record %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func readMeta(ctx context.Context, db *sql.DB) (*domain.IndexSnapshot, int, error) {
	var (
		version int
		count   int
		builtAt string
		snap    domain.IndexSnapshot
	)
	err := db.QueryRowContext(ctx, `
		SELECT format_version, model, dimension, record_count, built_at
		FROM index_meta WHERE id = 1
	`).Scan(&version, &snap.Model, &snap.Dimension, &count, &builtAt)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: reading index metadata: %v", domain.ErrIndexUnavailable, err)
	}

	if version != domain.IndexFormatVersion {
		return nil, 0, fmt.Errorf("%w: index format %d, expected %d; run ingestion again",
			domain.ErrIndexUnavailable, version, domain.IndexFormatVersion)
	}

	if t, err := time.Parse(time.RFC3339Nano, builtAt); err == nil {
		snap.BuiltAt = t
	}
	return &snap, count, nil
}

// migrate runs all pending migrations.
func migrate(ctx context.Context, db *sql.DB, fsys fs.FS) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_index.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := db.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
