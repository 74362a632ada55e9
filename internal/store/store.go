// Package store caches detection results by file content, so that unchanged
// files are not scanned again.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	_ "github.com/mattn/go-sqlite3"

	"github.com/ostafen/trailscan/internal/detect"
)

const schema = `
CREATE TABLE IF NOT EXISTS files (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    digest      TEXT NOT NULL,
    size        INTEGER NOT NULL,
    config      TEXT NOT NULL,
    path        TEXT NOT NULL,
    scanned_at  INTEGER NOT NULL,
    UNIQUE (digest, size, config)
);

CREATE TABLE IF NOT EXISTS detections (
    file_id     INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
    pos         INTEGER NOT NULL,
    exact       INTEGER NOT NULL,
    encrypted   INTEGER NOT NULL,
    span        INTEGER NOT NULL,
    mime        TEXT NOT NULL,
    description TEXT NOT NULL,
    sources     TEXT NOT NULL,
    PRIMARY KEY (file_id, pos)
);

CREATE INDEX IF NOT EXISTS idx_files_path ON files(path);
`

// Key identifies the content of a file and the settings it was scanned with.
type Key struct {
	Digest uint64
	Size   int64
	Config uint64
}

func (k Key) digest() string { return fmt.Sprintf("%016x", k.Digest) }
func (k Key) config() string { return fmt.Sprintf("%016x", k.Config) }

// Store is the SQLite result cache.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// scan workers share the handle; sqlite serialises writers anyway
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Lookup returns the records cached for key. The boolean is false when the
// content was never scanned with these settings.
func (s *Store) Lookup(key Key) ([]detect.Record, bool, error) {
	var id int64
	err := s.db.QueryRow(
		`SELECT id FROM files WHERE digest = ? AND size = ? AND config = ?`,
		key.digest(), key.Size, key.config(),
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("lookup file: %w", err)
	}

	rows, err := s.db.Query(`
		SELECT pos, exact, encrypted, span, mime, description, sources
		FROM detections WHERE file_id = ? ORDER BY pos`, id)
	if err != nil {
		return nil, false, fmt.Errorf("query detections: %w", err)
	}
	defer rows.Close()

	records := []detect.Record{}
	for rows.Next() {
		var (
			r       detect.Record
			offset  int64
			span    int64
			sources string
		)
		if err := rows.Scan(&offset, &r.Exact, &r.Encrypted, &span, &r.MIME.Type, &r.MIME.Description, &sources); err != nil {
			return nil, false, fmt.Errorf("scan detection: %w", err)
		}
		r.Offset, r.Span = uint64(offset), uint64(span)
		r.Sources = parseSources(sources)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate detections: %w", err)
	}
	return records, true, nil
}

// Put replaces the records cached for key.
func (s *Store) Put(key Key, path string, records []detect.Record) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRow(`
		INSERT INTO files (digest, size, config, path, scanned_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (digest, size, config) DO UPDATE SET path = excluded.path, scanned_at = excluded.scanned_at
		RETURNING id`,
		key.digest(), key.Size, key.config(), path, time.Now().Unix(),
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("upsert file: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM detections WHERE file_id = ?`, id); err != nil {
		return fmt.Errorf("clear detections: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO detections (file_id, pos, exact, encrypted, span, mime, description, sources)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.Exec(id, int64(r.Offset), r.Exact, r.Encrypted, int64(r.Span), r.MIME.Type, r.MIME.Description, r.Via()); err != nil {
			return fmt.Errorf("insert detection: %w", err)
		}
	}
	return tx.Commit()
}

// Entry is a cached file with its records.
type Entry struct {
	Path      string
	Size      int64
	ScannedAt time.Time
	Records   []detect.Record
}

// Flagged lists the most recent scan of every path with at least one
// detection.
func (s *Store) Flagged() ([]Entry, error) {
	rows, err := s.db.Query(`
		SELECT f.path, f.size, f.scanned_at, d.pos, d.exact, d.encrypted, d.span, d.mime, d.description, d.sources
		FROM files f JOIN detections d ON d.file_id = f.id
		ORDER BY f.path, f.scanned_at DESC, d.pos`)
	if err != nil {
		return nil, fmt.Errorf("query flagged files: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			scannedAt int64
			r         detect.Record
			offset    int64
			span      int64
			sources   string
		)
		if err := rows.Scan(&e.Path, &e.Size, &scannedAt, &offset, &r.Exact, &r.Encrypted, &span, &r.MIME.Type, &r.MIME.Description, &sources); err != nil {
			return nil, fmt.Errorf("scan flagged file: %w", err)
		}
		r.Offset, r.Span = uint64(offset), uint64(span)
		r.Sources = parseSources(sources)

		if n := len(entries); n > 0 && entries[n-1].Path == e.Path {
			if entries[n-1].ScannedAt.Unix() == scannedAt && entries[n-1].Size == e.Size {
				entries[n-1].Records = append(entries[n-1].Records, r)
			}
			continue
		}
		e.ScannedAt = time.Unix(scannedAt, 0)
		e.Records = []detect.Record{r}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func parseSources(s string) []detect.Source {
	var sources []detect.Source
	for _, name := range strings.Split(s, ",") {
		if name != "" {
			sources = append(sources, detect.Source(name))
		}
	}
	return sources
}

// Digest hashes the first size bytes of r.
func Digest(r io.ReaderAt, size int64) (uint64, error) {
	h := xxhash.New()
	if _, err := io.Copy(h, io.NewSectionReader(r, 0, size)); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}

// ConfigDigest fingerprints the engine options, so that results obtained
// with other thresholds are not reused.
func ConfigDigest(opts detect.Options) uint64 {
	return xxhash.Sum64String(fmt.Sprintf("%+v", opts))
}
