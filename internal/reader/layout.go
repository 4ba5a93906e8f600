package reader

// Direction of a page turn.
type Direction int

const (
	Forward  Direction = 1
	Backward Direction = -1
)

// PageState tracks where the reader is within one chapter's laid-out
// content. The invariant 0 <= PageIndex < TotalPages holds after every
// mutation; TotalPages floors at 1 so an empty or not-yet-measured chapter
// is still one page.
type PageState struct {
	PageIndex  int
	TotalPages int
}

// Move describes the result of an Advance: the chapter and page the layout
// landed on, and whether a chapter boundary was crossed.
type Move struct {
	Chapter        int
	Page           int
	CrossedChapter bool
}

// Layout owns per-chapter page counts and the current page index. Page
// counts arrive from the renderer and are cached keyed by typography
// signature; a signature change invalidates the cached count but preserves
// the page index for re-clamping once the new count arrives.
type Layout struct {
	chapterCount int
	chapter      int
	states       map[int]PageState
	sigs         map[int]string
}

// NewLayout creates a layout for a book with the given chapter count.
func NewLayout(chapterCount int) *Layout {
	if chapterCount < 1 {
		chapterCount = 1
	}
	return &Layout{
		chapterCount: chapterCount,
		states:       make(map[int]PageState),
		sigs:         make(map[int]string),
	}
}

// ComputePageCount maps a rendered extent to a discrete page count. The
// units are whatever the renderer laid out in (pixels, cells, lines); only
// the ratio matters. Never returns less than 1, even for empty content.
func ComputePageCount(renderedWidth, viewportWidth int) int {
	if renderedWidth <= 0 || viewportWidth <= 0 {
		return 1
	}
	n := (renderedWidth + viewportWidth - 1) / viewportWidth
	if n < 1 {
		n = 1
	}
	return n
}

// ChapterCount returns the number of chapters in the book.
func (l *Layout) ChapterCount() int { return l.chapterCount }

// Chapter returns the current chapter index.
func (l *Layout) Chapter() int { return l.chapter }

// SetChapter moves to a chapter, clamping to the valid range.
func (l *Layout) SetChapter(i int) {
	if i < 0 {
		i = 0
	}
	if i >= l.chapterCount {
		i = l.chapterCount - 1
	}
	l.chapter = i
}

// State returns the page state for a chapter. A chapter whose page count has
// not been reported yet defaults to one page at index zero (lazy layout).
func (l *Layout) State(chapter int) PageState {
	if s, ok := l.states[chapter]; ok {
		return s
	}
	return PageState{PageIndex: 0, TotalPages: 1}
}

// Current returns the page state of the current chapter.
func (l *Layout) Current() PageState { return l.State(l.chapter) }

// ReportPageCount records the renderer's measured page count for a chapter
// under the given typography signature. The existing page index is
// re-clamped, never silently reset.
func (l *Layout) ReportPageCount(chapter, total int, sig string) PageState {
	if total < 1 {
		total = 1
	}
	s := l.State(chapter)
	s.TotalPages = total
	if s.PageIndex >= total {
		s.PageIndex = total - 1
	}
	if s.PageIndex < 0 {
		s.PageIndex = 0
	}
	l.states[chapter] = s
	l.sigs[chapter] = sig
	return s
}

// Invalidate drops a chapter's cached page count if its typography
// signature changed, and reports whether a relayout is needed. The page
// state is left in place — stale but consistent — until the renderer
// reports the count for the new signature, which re-clamps the index.
func (l *Layout) Invalidate(chapter int, sig string) bool {
	old, ok := l.sigs[chapter]
	if ok && old == sig {
		return false
	}
	delete(l.sigs, chapter)
	return true
}

// SetPageIndex sets the current page within a chapter, clamped to
// [0, TotalPages-1], and returns the resulting state.
func (l *Layout) SetPageIndex(chapter, index int) PageState {
	s := l.State(chapter)
	if index < 0 {
		index = 0
	}
	if index >= s.TotalPages {
		index = s.TotalPages - 1
	}
	s.PageIndex = index
	l.states[chapter] = s
	return s
}

// ScrollOffset converts a page index to the renderer's scroll target.
func ScrollOffset(pageIndex, perPage int) int {
	return pageIndex * perPage
}

// Advance moves one page in the given direction. At a chapter boundary the
// move continues transparently into the adjacent chapter (its last page when
// moving backward, its first when moving forward). It returns false only at
// the absolute start or end of the book, in which case state is unchanged.
func (l *Layout) Advance(dir Direction) (Move, bool) {
	s := l.State(l.chapter)
	switch dir {
	case Forward:
		if s.PageIndex < s.TotalPages-1 {
			ns := l.SetPageIndex(l.chapter, s.PageIndex+1)
			return Move{Chapter: l.chapter, Page: ns.PageIndex}, true
		}
		if l.chapter >= l.chapterCount-1 {
			return Move{Chapter: l.chapter, Page: s.PageIndex}, false
		}
		l.chapter++
		ns := l.SetPageIndex(l.chapter, 0)
		return Move{Chapter: l.chapter, Page: ns.PageIndex, CrossedChapter: true}, true
	case Backward:
		if s.PageIndex > 0 {
			ns := l.SetPageIndex(l.chapter, s.PageIndex-1)
			return Move{Chapter: l.chapter, Page: ns.PageIndex}, true
		}
		if l.chapter == 0 {
			return Move{Chapter: 0, Page: s.PageIndex}, false
		}
		l.chapter--
		prev := l.State(l.chapter)
		ns := l.SetPageIndex(l.chapter, prev.TotalPages-1)
		return Move{Chapter: l.chapter, Page: ns.PageIndex, CrossedChapter: true}, true
	}
	return Move{Chapter: l.chapter, Page: s.PageIndex}, false
}

// CanAdvance reports whether a page turn in the given direction would move.
func (l *Layout) CanAdvance(dir Direction) bool {
	s := l.State(l.chapter)
	if dir == Forward {
		return s.PageIndex < s.TotalPages-1 || l.chapter < l.chapterCount-1
	}
	return s.PageIndex > 0 || l.chapter > 0
}

// Resize recomputes the current page after the viewport changed size. The
// old page's start offset is reapplied against the new per-page extent, so
// the reader stays at the same point in the content rather than at the same
// raw index. oldIndex must be the page index captured before the new page
// count was reported: reporting re-clamps the stored index against the new
// total, which would lose the position whenever the per-page extent grew.
func (l *Layout) Resize(chapter, oldIndex, oldPerPage, newPerPage int) PageState {
	if oldPerPage <= 0 || newPerPage <= 0 {
		return l.State(chapter)
	}
	if oldIndex < 0 {
		oldIndex = 0
	}
	start := ScrollOffset(oldIndex, oldPerPage)
	return l.SetPageIndex(chapter, start/newPerPage)
}
