package store

import (
	"database/sql"
	"errors"

	"github.com/islareader/isla/pkg/models"
)

// AddBook inserts a book and its ordered chapters in one transaction.
func (s *Store) AddBook(title, author string, chapters []models.Chapter) (models.Book, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return models.Book{}, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`INSERT INTO books(title, author) VALUES(?, ?)`, title, author)
	if err != nil {
		return models.Book{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Book{}, err
	}
	for i, ch := range chapters {
		if _, err := tx.Exec(
			`INSERT INTO chapters(book_id, idx, title, ord, content) VALUES(?,?,?,?,?)`,
			id, i, ch.Title, ch.Order, ch.Content,
		); err != nil {
			return models.Book{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return models.Book{}, err
	}
	return models.Book{ID: id, Title: title, Author: author, ChapterCount: len(chapters)}, nil
}

// ListBooks returns all books, newest first.
func (s *Store) ListBooks() ([]models.Book, error) {
	rows, err := s.db.Query(`
		SELECT b.id, b.title, b.author, b.added_at,
		       (SELECT COUNT(*) FROM chapters c WHERE c.book_id = b.id)
		FROM books b ORDER BY b.added_at DESC, b.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []models.Book
	for rows.Next() {
		var b models.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.AddedAt, &b.ChapterCount); err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

// GetBook returns one book by id.
func (s *Store) GetBook(id int64) (models.Book, error) {
	var b models.Book
	err := s.db.QueryRow(`
		SELECT b.id, b.title, b.author, b.added_at,
		       (SELECT COUNT(*) FROM chapters c WHERE c.book_id = b.id)
		FROM books b WHERE b.id = ?`, id).
		Scan(&b.ID, &b.Title, &b.Author, &b.AddedAt, &b.ChapterCount)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Book{}, ErrNotFound
	}
	return b, err
}

// Chapters returns a book's chapters in display order.
func (s *Store) Chapters(bookID int64) ([]models.Chapter, error) {
	rows, err := s.db.Query(
		`SELECT book_id, idx, title, ord, content FROM chapters WHERE book_id = ? ORDER BY ord, idx`,
		bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chapters []models.Chapter
	for rows.Next() {
		var ch models.Chapter
		if err := rows.Scan(&ch.BookID, &ch.Index, &ch.Title, &ch.Order, &ch.Content); err != nil {
			return nil, err
		}
		chapters = append(chapters, ch)
	}
	return chapters, rows.Err()
}

// DeleteBook removes a book; chapters, bookmarks, highlights and progress
// cascade with it.
func (s *Store) DeleteBook(id int64) error {
	res, err := s.db.Exec(`DELETE FROM books WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
