package store

import "github.com/islareader/isla/pkg/models"

// AddBookmark stores an explicit page marker.
func (s *Store) AddBookmark(b models.Bookmark) (models.Bookmark, error) {
	res, err := s.db.Exec(
		`INSERT INTO bookmarks(book_id, chapter_idx, page_idx, chapter_title) VALUES(?,?,?,?)`,
		b.BookID, b.ChapterIndex, b.PageIndex, b.ChapterTitle)
	if err != nil {
		return models.Bookmark{}, err
	}
	b.ID, err = res.LastInsertId()
	return b, err
}

// Bookmarks returns a book's bookmarks, newest first.
func (s *Store) Bookmarks(bookID int64) ([]models.Bookmark, error) {
	rows, err := s.db.Query(
		`SELECT id, book_id, chapter_idx, page_idx, chapter_title, created_at
		 FROM bookmarks WHERE book_id = ? ORDER BY created_at DESC, id DESC`, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Bookmark
	for rows.Next() {
		var b models.Bookmark
		if err := rows.Scan(&b.ID, &b.BookID, &b.ChapterIndex, &b.PageIndex, &b.ChapterTitle, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// DeleteBookmark removes a bookmark by id.
func (s *Store) DeleteBookmark(id int64) error {
	res, err := s.db.Exec(`DELETE FROM bookmarks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
