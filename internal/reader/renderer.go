package reader

import "github.com/islareader/isla/pkg/models"

// Renderer is the contract the reading engine drives. The renderer lays out
// one chapter at a time and talks back through the report types below —
// discrete, ordered messages on the UI loop; the engine never blocks on it.
type Renderer interface {
	// LoadDocument hands the renderer a chapter's markup and the typography
	// signature it was laid out under. A load cancels and resets all
	// gesture/layout state for that chapter.
	LoadDocument(chapter int, markup, signature string)
	// JumpToPage moves the renderer's scroll position to a page start.
	JumpToPage(index int, animated bool)
	// ApplyHighlights paints resolved spans over the loaded chapter.
	ApplyHighlights(chapter int, spans []models.HighlightSpan)
}

// PageCountReport is the renderer's measurement of a laid-out chapter.
type PageCountReport struct {
	Chapter   int
	Pages     int
	Signature string
}

// SelectionReport describes a committed text selection: rune offsets into
// the chapter's flattened text plus the page it was made on.
type SelectionReport struct {
	Text        string
	StartOffset int
	EndOffset   int
	PageIndex   int
}

// HighlightTapReport fires when the reader taps an existing highlight.
type HighlightTapReport struct {
	ID   int64
	Text string
}

// InteractionReport signals that the renderer entered or left a direct
// interaction (e.g. an active selection drag).
type InteractionReport struct {
	Active bool
}

// Feedback is the non-fatal signal path for boundary conditions and
// committed transitions.
type Feedback int

const (
	// FeedbackPageTurn: a page transition committed; one per transition.
	FeedbackPageTurn Feedback = iota
	// FeedbackBoundary: navigation past the book's start or end; a
	// distinct signal, never an error.
	FeedbackBoundary
)
