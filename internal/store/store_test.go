package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/islareader/isla/pkg/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "library.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func addTestBook(t *testing.T, s *Store) models.Book {
	t.Helper()
	chapters := []models.Chapter{
		{Title: "One", Order: 0, Content: "<p>first</p>"},
		{Title: "Two", Order: 1, Content: "<p>second</p>"},
	}
	b, err := s.AddBook("Test Book", "Author", chapters)
	if err != nil {
		t.Fatalf("AddBook: %v", err)
	}
	return b
}

func TestStore_AddAndGetBook(t *testing.T) {
	s := newTestStore(t)
	b := addTestBook(t, s)

	got, err := s.GetBook(b.ID)
	if err != nil {
		t.Fatalf("GetBook: %v", err)
	}
	if got.Title != "Test Book" || got.Author != "Author" || got.ChapterCount != 2 {
		t.Errorf("book = %+v", got)
	}
}

func TestStore_GetBookNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetBook(42); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetBook(42) error = %v, want ErrNotFound", err)
	}
}

func TestStore_ChaptersKeepOrder(t *testing.T) {
	s := newTestStore(t)
	b := addTestBook(t, s)

	chapters, err := s.Chapters(b.ID)
	if err != nil {
		t.Fatalf("Chapters: %v", err)
	}
	if len(chapters) != 2 {
		t.Fatalf("got %d chapters, want 2", len(chapters))
	}
	if chapters[0].Title != "One" || chapters[1].Title != "Two" {
		t.Errorf("order = %q, %q", chapters[0].Title, chapters[1].Title)
	}
	if chapters[0].Index != 0 || chapters[1].Index != 1 {
		t.Errorf("indexes = %d, %d", chapters[0].Index, chapters[1].Index)
	}
}

func TestStore_ProgressUpsert(t *testing.T) {
	s := newTestStore(t)
	b := addTestBook(t, s)

	if _, err := s.Progress(b.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Progress before save = %v, want ErrNotFound", err)
	}

	rec := models.ReadingProgress{
		BookID:             b.ID,
		CurrentChapter:     0,
		Payload:            `{"chapterIndex":0,"pageIndex":1,"totalPages":5}`,
		ProgressPercentage: 0.1,
		TotalReadingTime:   30,
		Status:             models.StatusReading,
		LastReadAt:         time.Now(),
	}
	if err := s.SaveProgress(rec); err != nil {
		t.Fatalf("first SaveProgress: %v", err)
	}

	rec.CurrentChapter = 1
	rec.ProgressPercentage = 0.6
	rec.TotalReadingTime = 120
	if err := s.SaveProgress(rec); err != nil {
		t.Fatalf("second SaveProgress: %v", err)
	}

	got, err := s.Progress(b.ID)
	if err != nil {
		t.Fatalf("Progress: %v", err)
	}
	if got.CurrentChapter != 1 || got.ProgressPercentage != 0.6 || got.TotalReadingTime != 120 {
		t.Errorf("progress = %+v, want updated record", got)
	}
	if got.Status != models.StatusReading {
		t.Errorf("status = %q, want reading", got.Status)
	}
}

func TestStore_BookmarkLifecycle(t *testing.T) {
	s := newTestStore(t)
	b := addTestBook(t, s)

	saved, err := s.AddBookmark(models.Bookmark{
		BookID: b.ID, ChapterIndex: 1, PageIndex: 3, ChapterTitle: "Two",
	})
	if err != nil {
		t.Fatalf("AddBookmark: %v", err)
	}
	if saved.ID == 0 {
		t.Error("saved bookmark has no id")
	}

	list, err := s.Bookmarks(b.ID)
	if err != nil {
		t.Fatalf("Bookmarks: %v", err)
	}
	if len(list) != 1 || list[0].ChapterIndex != 1 || list[0].PageIndex != 3 {
		t.Errorf("bookmarks = %+v", list)
	}

	if err := s.DeleteBookmark(saved.ID); err != nil {
		t.Fatalf("DeleteBookmark: %v", err)
	}
	if err := s.DeleteBookmark(saved.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete = %v, want ErrNotFound", err)
	}
}

func TestStore_AddHighlightValidatesOffsets(t *testing.T) {
	s := newTestStore(t)
	b := addTestBook(t, s)

	bad := models.Highlight{
		BookID: b.ID,
		Start:  models.Anchor{ChapterIndex: 0, CharacterOffset: 150},
		End:    models.Anchor{ChapterIndex: 0, CharacterOffset: 120},
	}
	if _, err := s.AddHighlight(bad); !errors.Is(err, ErrInvalidHighlight) {
		t.Errorf("inverted offsets = %v, want ErrInvalidHighlight", err)
	}

	crossChapter := models.Highlight{
		BookID: b.ID,
		Start:  models.Anchor{ChapterIndex: 0, CharacterOffset: 10},
		End:    models.Anchor{ChapterIndex: 1, CharacterOffset: 20},
	}
	if _, err := s.AddHighlight(crossChapter); !errors.Is(err, ErrInvalidHighlight) {
		t.Errorf("cross-chapter anchors = %v, want ErrInvalidHighlight", err)
	}
}

func TestStore_HighlightLifecycle(t *testing.T) {
	s := newTestStore(t)
	b := addTestBook(t, s)

	saved, err := s.AddHighlight(models.Highlight{
		BookID: b.ID,
		Start:  models.Anchor{ChapterIndex: 0, PageIndex: 2, CharacterOffset: 120},
		End:    models.Anchor{ChapterIndex: 0, PageIndex: 2, CharacterOffset: 150},
		Text:   "thirty runes of chapter text!!",
		Color:  "#FDE047",
	})
	if err != nil {
		t.Fatalf("AddHighlight: %v", err)
	}

	list, err := s.ChapterHighlights(b.ID, 0)
	if err != nil {
		t.Fatalf("ChapterHighlights: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("got %d highlights, want 1", len(list))
	}
	h := list[0]
	if h.Start.CharacterOffset != 120 || h.End.CharacterOffset != 150 {
		t.Errorf("offsets = [%d, %d), want [120, 150)", h.Start.CharacterOffset, h.End.CharacterOffset)
	}
	if h.Start.ChapterIndex != 0 || h.End.ChapterIndex != 0 {
		t.Errorf("chapter anchors = %d..%d", h.Start.ChapterIndex, h.End.ChapterIndex)
	}

	if err := s.UpdateHighlightNote(saved.ID, "a margin note"); err != nil {
		t.Fatalf("UpdateHighlightNote: %v", err)
	}
	list, _ = s.Highlights(b.ID)
	if list[0].Note != "a margin note" {
		t.Errorf("note = %q", list[0].Note)
	}

	if err := s.DeleteHighlight(saved.ID); err != nil {
		t.Fatalf("DeleteHighlight: %v", err)
	}
	if err := s.UpdateHighlightNote(saved.ID, "gone"); !errors.Is(err, ErrNotFound) {
		t.Errorf("note on deleted highlight = %v, want ErrNotFound", err)
	}
}

func TestStore_DeleteBookCascades(t *testing.T) {
	s := newTestStore(t)
	b := addTestBook(t, s)

	if _, err := s.AddBookmark(models.Bookmark{BookID: b.ID}); err != nil {
		t.Fatalf("AddBookmark: %v", err)
	}
	if err := s.SaveProgress(models.ReadingProgress{BookID: b.ID, Status: models.StatusReading, LastReadAt: time.Now()}); err != nil {
		t.Fatalf("SaveProgress: %v", err)
	}

	if err := s.DeleteBook(b.ID); err != nil {
		t.Fatalf("DeleteBook: %v", err)
	}

	if chapters, _ := s.Chapters(b.ID); len(chapters) != 0 {
		t.Errorf("chapters survived deletion: %d", len(chapters))
	}
	if marks, _ := s.Bookmarks(b.ID); len(marks) != 0 {
		t.Errorf("bookmarks survived deletion: %d", len(marks))
	}
	if _, err := s.Progress(b.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("progress survived deletion: %v", err)
	}
}

func TestStore_ListBooksNewestFirst(t *testing.T) {
	s := newTestStore(t)
	first := addTestBook(t, s)
	second, err := s.AddBook("Later Book", "", []models.Chapter{{Content: "x"}})
	if err != nil {
		t.Fatalf("AddBook: %v", err)
	}

	books, err := s.ListBooks()
	if err != nil {
		t.Fatalf("ListBooks: %v", err)
	}
	if len(books) != 2 {
		t.Fatalf("got %d books, want 2", len(books))
	}
	if books[0].ID != second.ID || books[1].ID != first.ID {
		t.Errorf("order = %d, %d; want newest first", books[0].ID, books[1].ID)
	}
}
