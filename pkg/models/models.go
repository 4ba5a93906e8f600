package models

import "time"

// Book represents an imported book in the local library.
type Book struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Author       string    `json:"author"`
	ChapterCount int       `json:"chapter_count"`
	AddedAt      time.Time `json:"added_at"`
}

// Chapter is one ordered unit of a book's flowable content. The content is
// opaque marked-up text; it is immutable once imported.
type Chapter struct {
	BookID  int64  `json:"book_id"`
	Index   int    `json:"index"`
	Title   string `json:"title"`
	Order   int    `json:"order"`
	Content string `json:"content"`
}

// Anchor is the durable, reflow-independent representation of a text
// position. CharacterOffset counts runes of the chapter's flattened text
// (markup ignored) strictly preceding the position. Anchors are meaningful
// only relative to the chapter's text content, never its layout.
type Anchor struct {
	ChapterIndex    int `json:"chapterIndex"`
	PageIndex       int `json:"pageIndex"`
	CharacterOffset int `json:"characterOffset"`
}

// Position is the serialized resume-position payload saved with reading
// progress.
type Position struct {
	ChapterIndex int `json:"chapterIndex"`
	PageIndex    int `json:"pageIndex"`
	TotalPages   int `json:"totalPages"`
}

// Bookmark marks an explicit page, without a character offset.
type Bookmark struct {
	ID           int64     `json:"id"`
	BookID       int64     `json:"book_id"`
	ChapterIndex int       `json:"chapter_index"`
	PageIndex    int       `json:"page_index"`
	ChapterTitle string    `json:"chapter_title"`
	CreatedAt    time.Time `json:"created_at"`
}

// Highlight is a user-selected text span anchored by two offsets within a
// single chapter. Start.CharacterOffset < End.CharacterOffset always holds
// for a stored highlight.
type Highlight struct {
	ID        int64     `json:"id"`
	BookID    int64     `json:"book_id"`
	Start     Anchor    `json:"start"`
	End       Anchor    `json:"end"`
	Text      string    `json:"text"`
	Color     string    `json:"color"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HighlightSpan is the renderer-facing shape of a highlight: resolved
// offsets plus display color.
type HighlightSpan struct {
	ID          int64  `json:"id"`
	StartOffset int    `json:"startOffset"`
	EndOffset   int    `json:"endOffset"`
	ColorHex    string `json:"colorHex"`
}

// Reading status values.
const (
	StatusWantToRead = "want_to_read"
	StatusReading    = "reading"
	StatusPaused     = "paused"
	StatusFinished   = "finished"
)

// ReadingProgress is the one-per-book progress record. CurrentChapter keeps
// its legacy name; Payload holds the serialized Position.
type ReadingProgress struct {
	BookID             int64     `json:"book_id"`
	CurrentChapter     int       `json:"current_chapter"`
	Payload            string    `json:"payload"`
	ProgressPercentage float64   `json:"progress_percentage"`
	TotalReadingTime   int64     `json:"total_reading_seconds"`
	Status             string    `json:"status"`
	LastReadAt         time.Time `json:"last_read_at"`
}
