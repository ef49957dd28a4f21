package cache

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"
)

// ManifestFile is the SQLite database recording every persisted entry.
const ManifestFile = "manifest.db"

// Entry is one manifest row.
type Entry struct {
	ID        string
	Key       Key
	Filename  string
	Size      int64
	SHA256    string
	RunID     string
	CreatedAt time.Time
}

// EntryStatus is the result of verifying an entry against its file.
type EntryStatus string

const (
	StatusOK       EntryStatus = "ok"
	StatusMissing  EntryStatus = "missing"
	StatusModified EntryStatus = "modified"
)

// Verification pairs an entry with its current on-disk status.
type Verification struct {
	Entry  Entry
	Status EntryStatus
}

// Manifest records cache entries in SQLite. It never deletes files.
type Manifest struct {
	db      *sql.DB
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// OpenManifest opens or creates the manifest at path.
func OpenManifest(path string) (*Manifest, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create manifest directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if err := initManifestSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize manifest schema: %w", err)
	}
	return &Manifest{db: db, entropy: ulid.Monotonic(rand.Reader, 0)}, nil
}

func initManifestSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS entries (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		filename TEXT NOT NULL UNIQUE,
		corpus TEXT NOT NULL,
		vocab TEXT NOT NULL,
		repr TEXT NOT NULL DEFAULT '',
		func TEXT NOT NULL DEFAULT '',
		fine_tune TEXT NOT NULL DEFAULT '',
		size INTEGER NOT NULL,
		sha256 TEXT NOT NULL,
		run_id TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_entries_corpus ON entries(corpus);
	`
	_, err := db.Exec(schema)
	return err
}

func (m *Manifest) newID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return ulid.MustNew(ulid.Now(), m.entropy).String()
}

// Record upserts the entry for key, replacing any previous row for the same file.
func (m *Manifest) Record(ctx context.Context, key Key, size int64, sum, runID string) error {
	_, err := m.db.ExecContext(ctx,
		`INSERT INTO entries (id, kind, filename, corpus, vocab, repr, func, fine_tune, size, sha256, run_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(filename) DO UPDATE SET
			id = excluded.id, size = excluded.size, sha256 = excluded.sha256,
			run_id = excluded.run_id, created_at = excluded.created_at`,
		m.newID(), key.Kind.String(), key.Filename(), key.Corpus, key.Vocab, key.Repr, key.Func, key.FineTune,
		size, sum, runID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("record cache entry %s: %w", key.Filename(), err)
	}
	return nil
}

// List returns all entries ordered by creation.
func (m *Manifest) List(ctx context.Context) ([]Entry, error) {
	rows, err := m.db.QueryContext(ctx,
		`SELECT id, kind, filename, corpus, vocab, repr, func, fine_tune, size, sha256, run_id, created_at
		 FROM entries ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var kind string
		if err := rows.Scan(&e.ID, &kind, &e.Filename, &e.Key.Corpus, &e.Key.Vocab, &e.Key.Repr,
			&e.Key.Func, &e.Key.FineTune, &e.Size, &e.SHA256, &e.RunID, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Key.Kind = parseKind(kind)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Verify re-hashes every recorded file under dir and reports drift.
func (m *Manifest) Verify(ctx context.Context, dir string) ([]Verification, error) {
	entries, err := m.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Verification, 0, len(entries))
	for _, e := range entries {
		status := StatusOK
		_, sum, err := hashFile(filepath.Join(dir, e.Filename))
		switch {
		case os.IsNotExist(err):
			status = StatusMissing
		case err != nil:
			return nil, err
		case sum != e.SHA256:
			status = StatusModified
		}
		out = append(out, Verification{Entry: e, Status: status})
	}
	return out, nil
}

// Close closes the database.
func (m *Manifest) Close() error {
	return m.db.Close()
}

func parseKind(s string) Kind {
	for k := KindTFIDFModel; k <= KindDiversity; k++ {
		if k.String() == s {
			return k
		}
	}
	return Kind(-1)
}

func hashFile(path string) (int64, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, "", err
	}
	defer f.Close()
	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return 0, "", err
	}
	return n, hex.EncodeToString(h.Sum(nil)), nil
}
