package store

import "github.com/islareader/isla/pkg/models"

// AddHighlight stores a committed highlight. Offsets must already be
// normalized; equal or inverted offsets are rejected rather than stored.
func (s *Store) AddHighlight(h models.Highlight) (models.Highlight, error) {
	if h.Start.CharacterOffset >= h.End.CharacterOffset ||
		h.Start.ChapterIndex != h.End.ChapterIndex {
		return models.Highlight{}, ErrInvalidHighlight
	}
	res, err := s.db.Exec(
		`INSERT INTO highlights(book_id, chapter_idx, page_idx, start_offset, end_offset, text, color, note)
		 VALUES(?,?,?,?,?,?,?,?)`,
		h.BookID, h.Start.ChapterIndex, h.Start.PageIndex,
		h.Start.CharacterOffset, h.End.CharacterOffset, h.Text, h.Color, h.Note)
	if err != nil {
		return models.Highlight{}, err
	}
	h.ID, err = res.LastInsertId()
	return h, err
}

// Highlights returns a book's highlights in document order.
func (s *Store) Highlights(bookID int64) ([]models.Highlight, error) {
	rows, err := s.db.Query(
		`SELECT id, book_id, chapter_idx, page_idx, start_offset, end_offset, text, color, note, created_at, updated_at
		 FROM highlights WHERE book_id = ? ORDER BY chapter_idx, start_offset`, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Highlight
	for rows.Next() {
		h, err := scanHighlight(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// ChapterHighlights returns the highlights anchored in one chapter.
func (s *Store) ChapterHighlights(bookID int64, chapter int) ([]models.Highlight, error) {
	rows, err := s.db.Query(
		`SELECT id, book_id, chapter_idx, page_idx, start_offset, end_offset, text, color, note, created_at, updated_at
		 FROM highlights WHERE book_id = ? AND chapter_idx = ? ORDER BY start_offset`, bookID, chapter)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Highlight
	for rows.Next() {
		h, err := scanHighlight(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHighlight(r rowScanner) (models.Highlight, error) {
	var h models.Highlight
	var chapter, page int
	err := r.Scan(&h.ID, &h.BookID, &chapter, &page,
		&h.Start.CharacterOffset, &h.End.CharacterOffset,
		&h.Text, &h.Color, &h.Note, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return models.Highlight{}, err
	}
	h.Start.ChapterIndex, h.End.ChapterIndex = chapter, chapter
	h.Start.PageIndex, h.End.PageIndex = page, page
	return h, nil
}

// UpdateHighlightNote attaches or edits a highlight's note.
func (s *Store) UpdateHighlightNote(id int64, note string) error {
	res, err := s.db.Exec(
		`UPDATE highlights SET note = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, note, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteHighlight removes a highlight by id.
func (s *Store) DeleteHighlight(id int64) error {
	res, err := s.db.Exec(`DELETE FROM highlights WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
