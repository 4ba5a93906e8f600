package store

import (
	"database/sql"
	"errors"

	"github.com/islareader/isla/pkg/models"
)

// SaveProgress upserts the one-per-book progress record. It is created
// lazily on first save and updated on every page change and session end.
func (s *Store) SaveProgress(p models.ReadingProgress) error {
	_, err := s.db.Exec(`
		INSERT INTO reading_progress(book_id, current_chapter, payload, progress, total_reading_seconds, status, last_read_at)
		VALUES(?,?,?,?,?,?,?)
		ON CONFLICT(book_id)
		DO UPDATE SET current_chapter=excluded.current_chapter,
		              payload=excluded.payload,
		              progress=excluded.progress,
		              total_reading_seconds=excluded.total_reading_seconds,
		              status=excluded.status,
		              last_read_at=excluded.last_read_at`,
		p.BookID, p.CurrentChapter, p.Payload, p.ProgressPercentage,
		p.TotalReadingTime, p.Status, p.LastReadAt)
	return err
}

// Progress loads a book's progress record; ErrNotFound if never saved.
func (s *Store) Progress(bookID int64) (models.ReadingProgress, error) {
	var p models.ReadingProgress
	err := s.db.QueryRow(`
		SELECT book_id, current_chapter, payload, progress, total_reading_seconds, status, last_read_at
		FROM reading_progress WHERE book_id = ?`, bookID).
		Scan(&p.BookID, &p.CurrentChapter, &p.Payload, &p.ProgressPercentage,
			&p.TotalReadingTime, &p.Status, &p.LastReadAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ReadingProgress{}, ErrNotFound
	}
	return p, err
}
