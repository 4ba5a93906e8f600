// Package store is the local persistence layer: books and their chapters,
// bookmarks, highlights and reading progress in a single SQLite file. The
// reading engine never assumes multi-writer access; all writes go through
// SQLite's own transactional save.
package store

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrInvalidHighlight rejects highlights whose offsets are equal or
	// inverted.
	ErrInvalidHighlight = errors.New("store: highlight start must precede end")
)

// Store wraps the library database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the library database and applies the
// schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	// One connection keeps SQLite simple and serializes writers.
	db.SetMaxOpenConns(1)
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS books (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		author TEXT NOT NULL DEFAULT '',
		added_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS chapters (
		book_id INTEGER NOT NULL REFERENCES books(id) ON DELETE CASCADE,
		idx INTEGER NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		ord INTEGER NOT NULL,
		content TEXT NOT NULL,
		PRIMARY KEY (book_id, idx)
	);
	CREATE TABLE IF NOT EXISTS bookmarks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		book_id INTEGER NOT NULL REFERENCES books(id) ON DELETE CASCADE,
		chapter_idx INTEGER NOT NULL,
		page_idx INTEGER NOT NULL,
		chapter_title TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS highlights (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		book_id INTEGER NOT NULL REFERENCES books(id) ON DELETE CASCADE,
		chapter_idx INTEGER NOT NULL,
		page_idx INTEGER NOT NULL,
		start_offset INTEGER NOT NULL,
		end_offset INTEGER NOT NULL,
		text TEXT NOT NULL,
		color TEXT NOT NULL,
		note TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS reading_progress (
		book_id INTEGER PRIMARY KEY REFERENCES books(id) ON DELETE CASCADE,
		current_chapter INTEGER NOT NULL DEFAULT 0,
		payload TEXT NOT NULL DEFAULT '',
		progress REAL NOT NULL DEFAULT 0,
		total_reading_seconds INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'want_to_read',
		last_read_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_highlights_book_chapter
		ON highlights(book_id, chapter_idx);
	CREATE INDEX IF NOT EXISTS idx_bookmarks_book
		ON bookmarks(book_id);
	`)
	return err
}
