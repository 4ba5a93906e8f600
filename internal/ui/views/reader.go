package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/islareader/isla/internal/config"
	"github.com/islareader/isla/internal/reader"
	"github.com/islareader/isla/internal/store"
	"github.com/islareader/isla/internal/ui/styles"
	"github.com/islareader/isla/pkg/models"
)

// transitionDuration paces a committed page turn before the engine is told
// the animation finished.
const transitionDuration = 140 * time.Millisecond

// highlightPalette is the cycle of highlight colors.
var highlightPalette = []string{"#FDE047", "#86EFAC", "#93C5FD", "#F9A8D4", "#FDBA74"}

// ReaderView displays book content as discrete pages. It is the terminal
// Content Renderer: the engine drives it through reader.Renderer, and it
// reports layout measurements and selections back.
type ReaderView struct {
	store  *store.Store
	config *config.Config

	// Current book
	book     *models.Book
	chapters []models.Chapter
	ctrl     *reader.Controller

	// Loaded chapter layout
	loadedChapter int
	loadedSig     string
	flat          string
	lines         []reader.Line
	spans         []models.HighlightSpan

	// Gesture visuals
	dragOffset int
	mouseDown  bool
	animating  bool

	// Overlays
	showTOC         bool
	tocCursor       int
	showBookmarks   bool
	bookmarkCursor  int
	bookmarks       []models.Bookmark
	showHighlights  bool
	highlightCursor int
	highlights      []models.Highlight
	noteMode        bool
	noteInput       textinput.Model
	noteTarget      int64

	// Selection
	selecting bool
	selAnchor int
	selCursor int
	colorIdx  int

	// State
	chromeHidden    bool
	hint            string
	loading         bool
	err             error
	pendingProgress *models.ReadingProgress

	// Dimensions
	width  int
	height int
}

// NewReaderView creates a new reader view.
func NewReaderView(st *store.Store, cfg *config.Config) *ReaderView {
	ti := textinput.New()
	ti.Placeholder = "note"
	ti.CharLimit = 500
	return &ReaderView{
		store:     st,
		config:    cfg,
		noteInput: ti,
		width:     80,
		height:    24,
	}
}

// SetBook sets the current book to read.
func (v *ReaderView) SetBook(book models.Book) {
	v.book = &book
	v.chapters = nil
	v.ctrl = nil
	v.flat = ""
	v.lines = nil
	v.spans = nil
	v.bookmarks = nil
	v.highlights = nil
	v.resetModes()
	v.hint = ""
	v.err = nil
}

func (v *ReaderView) resetModes() {
	v.showTOC = false
	v.showBookmarks = false
	v.showHighlights = false
	v.noteMode = false
	v.selecting = false
	v.dragOffset = 0
	v.mouseDown = false
	v.animating = false
	v.chromeHidden = false
}

// SavePositionOnExit commits session time and the current position (called
// when leaving the reader). Best-effort: a failed save never blocks leaving.
func (v *ReaderView) SavePositionOnExit() {
	if v.ctrl == nil {
		return
	}
	v.ctrl.PauseSession()
	if v.pendingProgress != nil {
		rec := *v.pendingProgress
		v.pendingProgress = nil
		_ = v.store.SaveProgress(rec)
	}
}

// Renderer contract

// LoadDocument lays out a chapter's markup and reports its page count back
// to the engine.
func (v *ReaderView) LoadDocument(chapter int, markup, signature string) {
	v.loadedChapter = chapter
	v.loadedSig = signature
	v.flat = reader.FlattenText(markup)
	v.selecting = false
	v.dragOffset = 0
	v.relayout()
}

// JumpToPage applies a page jump; the actual paging is index arithmetic at
// render time, so this only resets transient drag state.
func (v *ReaderView) JumpToPage(index int, animated bool) {
	v.dragOffset = 0
}

// ApplyHighlights receives the resolved spans to paint.
func (v *ReaderView) ApplyHighlights(chapter int, spans []models.HighlightSpan) {
	if chapter == v.loadedChapter {
		v.spans = spans
	}
}

// relayout wraps the flattened text for the current dimensions and reports
// the measurement.
func (v *ReaderView) relayout() {
	if v.ctrl == nil {
		return
	}
	v.lines = reader.Wrap(v.flat, v.contentWidth())
	pages := reader.ComputePageCount(len(v.lines), v.linesPerPage())
	v.ctrl.HandlePageCount(reader.PageCountReport{
		Chapter:   v.loadedChapter,
		Pages:     pages,
		Signature: v.loadedSig,
	})
	v.refreshSpans()
}

// contentWidth returns the wrap width: the viewport minus margins, narrowed
// by the font scale (larger type reads as narrower lines).
func (v *ReaderView) contentWidth() int {
	t := v.typography()
	base := v.width - 4 - 2*t.Margin
	scaled := int(float64(base) / t.FontScale)
	if scaled < 20 {
		scaled = 20
	}
	if scaled > base && base >= 20 {
		scaled = base
	}
	return scaled
}

// linesPerPage returns how many wrapped lines one page holds. Chrome does
// not change it, so toggling the toolbar never repages the chapter.
func (v *ReaderView) linesPerPage() int {
	rows := v.height - 4
	per := int(float64(rows) / v.typography().LineSpacing)
	if per < 1 {
		per = 1
	}
	return per
}

func (v *ReaderView) typography() reader.Typography {
	if v.ctrl != nil {
		return v.ctrl.Typography()
	}
	return v.config.Typography
}

func (v *ReaderView) refreshSpans() {
	if v.ctrl == nil {
		return
	}
	var chapterHLs []models.Highlight
	for _, h := range v.highlights {
		if h.Start.ChapterIndex == v.loadedChapter {
			chapterHLs = append(chapterHLs, h)
		}
	}
	v.spans = v.ctrl.ResolveHighlights(v.loadedChapter, chapterHLs)
}

// Message types
type bookLoadedMsg struct {
	chapters    []models.Chapter
	progress    models.ReadingProgress
	hasProgress bool
	bookmarks   []models.Bookmark
	highlights  []models.Highlight
	err         error
}

type progressSavedMsg struct {
	err error
}

type bookmarkSavedMsg struct {
	bookmark models.Bookmark
	err      error
}

type bookmarkDeletedMsg struct {
	id  int64
	err error
}

type highlightSavedMsg struct {
	highlight models.Highlight
	err       error
}

type highlightDeletedMsg struct {
	id  int64
	err error
}

type noteSavedMsg struct {
	id   int64
	note string
	err  error
}

type transitionDoneMsg struct{}

// Init implements View.
func (v *ReaderView) Init() tea.Cmd {
	if v.book == nil {
		return nil
	}
	v.loading = true
	return v.loadBook()
}

// loadBook loads chapters and every persisted record for the book.
func (v *ReaderView) loadBook() tea.Cmd {
	bookID := v.book.ID
	return func() tea.Msg {
		chapters, err := v.store.Chapters(bookID)
		if err != nil {
			return bookLoadedMsg{err: err}
		}
		msg := bookLoadedMsg{chapters: chapters}
		if progress, err := v.store.Progress(bookID); err == nil {
			msg.progress = progress
			msg.hasProgress = true
		}
		// Bookmarks and highlights render without their records only as
		// missing, never as errors.
		msg.bookmarks, _ = v.store.Bookmarks(bookID)
		msg.highlights, _ = v.store.Highlights(bookID)
		return msg
	}
}

// Update implements View - dispatches messages to specialized handlers.
func (v *ReaderView) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		v.hint = "" // transient hints clear on any key
		return v.handleKeyMsg(msg)
	case tea.MouseMsg:
		return v.handleMouseMsg(msg)
	case bookLoadedMsg:
		return v.handleBookLoaded(msg)
	case transitionDoneMsg:
		v.animating = false
		if v.ctrl != nil {
			v.ctrl.AnimationDone()
		}
		return v, v.flush(nil)
	case progressSavedMsg:
		if msg.err != nil {
			// Reading continues on in-memory state; retried on the next
			// natural save point.
			v.hint = "Progress not saved"
		}
		return v, nil
	case bookmarkSavedMsg:
		if msg.err != nil {
			v.hint = "Failed to add bookmark"
		} else {
			v.bookmarks = append([]models.Bookmark{msg.bookmark}, v.bookmarks...)
			v.hint = "Bookmark added"
		}
		return v, nil
	case bookmarkDeletedMsg:
		if msg.err == nil {
			v.bookmarks = removeBookmark(v.bookmarks, msg.id)
			if v.bookmarkCursor >= len(v.bookmarks) && v.bookmarkCursor > 0 {
				v.bookmarkCursor--
			}
		}
		return v, nil
	case highlightSavedMsg:
		if msg.err != nil {
			v.hint = "Failed to save highlight"
		} else {
			v.highlights = append(v.highlights, msg.highlight)
			v.refreshSpans()
			v.hint = "Highlight saved"
		}
		return v, nil
	case highlightDeletedMsg:
		if msg.err == nil {
			v.highlights = removeHighlight(v.highlights, msg.id)
			if v.highlightCursor >= len(v.highlights) && v.highlightCursor > 0 {
				v.highlightCursor--
			}
			v.refreshSpans()
		}
		return v, nil
	case noteSavedMsg:
		if msg.err == nil {
			for i := range v.highlights {
				if v.highlights[i].ID == msg.id {
					v.highlights[i].Note = msg.note
				}
			}
		}
		return v, nil
	}
	return v, nil
}

// handleBookLoaded wires up the engine once chapters arrive.
func (v *ReaderView) handleBookLoaded(msg bookLoadedMsg) (View, tea.Cmd) {
	v.loading = false
	if msg.err != nil {
		v.err = msg.err
		return v, nil
	}
	if len(msg.chapters) == 0 {
		v.err = fmt.Errorf("book has no chapters")
		return v, nil
	}
	v.chapters = msg.chapters
	v.bookmarks = msg.bookmarks
	v.highlights = msg.highlights
	v.err = nil

	v.ctrl = reader.NewController(v.book.ID, msg.chapters, v.config.Typography, v, v.config.Gestures)
	v.ctrl.Gestures().SetViewport(float64(v.width))
	v.ctrl.Feedback = v.onFeedback
	v.ctrl.OnProgress = func(rec models.ReadingProgress) {
		v.pendingProgress = &rec
	}

	if msg.hasProgress {
		v.ctrl.SetStatus(msg.progress.Status)
		v.ctrl.Tracker().SetTotal(time.Duration(msg.progress.TotalReadingTime) * time.Second)
		v.ctrl.Resume(msg.progress.Payload)
	} else {
		v.ctrl.OpenChapter(0, 0)
	}
	v.ctrl.StartSession()
	return v, v.flush(nil)
}

// onFeedback surfaces engine feedback: boundaries get a transient hint,
// committed turns stay silent.
func (v *ReaderView) onFeedback(f reader.Feedback) {
	if f == reader.FeedbackBoundary {
		v.hint = "No more pages"
	}
}

// flush drains deferred work after a handler ran: best-effort progress
// saves and the page-transition timer.
func (v *ReaderView) flush(cmds []tea.Cmd) tea.Cmd {
	if v.pendingProgress != nil {
		rec := *v.pendingProgress
		v.pendingProgress = nil
		cmds = append(cmds, v.saveProgress(rec))
	}
	if v.ctrl != nil && v.ctrl.Gestures().Phase() == reader.PhaseAnimating && !v.animating {
		v.animating = true
		cmds = append(cmds, tea.Tick(transitionDuration, func(time.Time) tea.Msg {
			return transitionDoneMsg{}
		}))
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

func (v *ReaderView) saveProgress(rec models.ReadingProgress) tea.Cmd {
	return func() tea.Msg {
		return progressSavedMsg{err: v.store.SaveProgress(rec)}
	}
}

// handleKeyMsg dispatches key messages to mode-specific handlers.
func (v *ReaderView) handleKeyMsg(msg tea.KeyMsg) (View, tea.Cmd) {
	if v.ctrl == nil {
		switch msg.String() {
		case "q", "esc":
			return v, func() tea.Msg { return CloseBookMsg{} }
		case "r":
			if v.err != nil {
				v.err = nil
				v.loading = true
				return v, v.loadBook()
			}
		}
		return v, nil
	}
	if v.noteMode {
		return v.updateNoteInput(msg)
	}
	if v.showTOC {
		return v.updateTOC(msg)
	}
	if v.showBookmarks {
		return v.updateBookmarks(msg)
	}
	if v.showHighlights {
		return v.updateHighlights(msg)
	}
	if v.selecting {
		return v.updateSelection(msg)
	}
	return v.handleReaderKeyMsg(msg)
}

// handleReaderKeyMsg handles key presses in the main reader view.
func (v *ReaderView) handleReaderKeyMsg(msg tea.KeyMsg) (View, tea.Cmd) {
	switch msg.String() {
	case "right", "l", " ", "pgdown":
		v.ctrl.Advance(reader.Forward)
	case "left", "h", "pgup":
		v.ctrl.Advance(reader.Backward)
	case "n":
		if cur := v.ctrl.Layout().Chapter(); cur < len(v.chapters)-1 {
			v.ctrl.OpenChapter(cur+1, 0)
		}
	case "p":
		if cur := v.ctrl.Layout().Chapter(); cur > 0 {
			v.ctrl.OpenChapter(cur-1, 0)
		}
	case "g", "home":
		v.ctrl.OpenChapter(v.ctrl.Layout().Chapter(), 0)
	case "G", "end":
		cur := v.ctrl.Layout().Chapter()
		v.ctrl.OpenChapter(cur, v.ctrl.Layout().State(cur).TotalPages-1)
	case "t":
		v.showTOC = true
		v.tocCursor = v.ctrl.Layout().Chapter()
	case "B":
		return v, v.addBookmark()
	case "b":
		v.showBookmarks = true
		v.bookmarkCursor = 0
	case "x":
		v.showHighlights = true
		v.highlightCursor = 0
	case "v":
		v.beginSelection()
	case "c":
		v.chromeHidden = !v.chromeHidden
	case "+", "=":
		v.adjustFontScale(config.FontScaleStep)
	case "-", "_":
		v.adjustFontScale(-config.FontScaleStep)
	case "0":
		v.setFontScale(config.DefaultFontScale)
	case "s":
		v.cycleLineSpacing()
	case "m":
		v.cycleMargin()
	case "D":
		v.toggleDarkMode()
	case "q", "esc":
		return v, func() tea.Msg { return CloseBookMsg{} }
	}
	return v, v.flush(nil)
}

// handleMouseMsg feeds pointer events into the gesture machine.
func (v *ReaderView) handleMouseMsg(msg tea.MouseMsg) (View, tea.Cmd) {
	if v.ctrl == nil {
		return v, nil
	}
	now := time.Now()
	x, y := float64(msg.X), float64(msg.Y)

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button == tea.MouseButtonLeft {
			v.mouseDown = true
			v.ctrl.PointerDown(x, y, now)
		}
	case tea.MouseActionMotion:
		if v.mouseDown {
			if off, dragging := v.ctrl.PointerMove(x, y, now); dragging {
				v.dragOffset = int(off)
				v.chromeHidden = true
			}
		}
	case tea.MouseActionRelease:
		if !v.mouseDown {
			break
		}
		v.mouseDown = false
		res := v.ctrl.PointerUp(x, y, now)
		v.hint = "" // new gesture clears stale hints
		if f := v.feedbackHint(res); f != "" {
			v.hint = f
		}
		switch res.Kind {
		case reader.GestureSpringBack, reader.GestureBoundary:
			v.dragOffset = 0
		case reader.GestureCommit:
			v.dragOffset = 0
		case reader.GestureTapCandidate:
			return v.handleTap(msg.X, msg.Y, res, now)
		}
	}
	return v, v.flush(nil)
}

func (v *ReaderView) feedbackHint(res reader.Result) string {
	if res.Kind == reader.GestureBoundary {
		return "No more pages"
	}
	return v.hint
}

// handleTap resolves a tap that was neither a drag nor an edge page turn:
// taps on a highlight open its note, center taps toggle chrome.
func (v *ReaderView) handleTap(x, y int, res reader.Result, now time.Time) (View, tea.Cmd) {
	if id, ok := v.highlightAt(x, y); ok {
		rep := reader.HighlightTapReport{ID: id}
		for _, h := range v.highlights {
			if h.ID == id {
				rep.Text = h.Text
				break
			}
		}
		v.ctrl.HandleHighlightTap(rep, now)
		v.openNoteEditor(id)
		return v, v.flush(nil)
	}
	if res.Tap == reader.TapToggleChrome {
		v.chromeHidden = !v.chromeHidden
	}
	return v, v.flush(nil)
}

// highlightAt maps a terminal cell to a highlight span, if any.
func (v *ReaderView) highlightAt(x, y int) (int64, bool) {
	offset, ok := v.offsetAt(x, y)
	if !ok {
		return 0, false
	}
	for _, s := range v.spans {
		if offset >= s.StartOffset && offset < s.EndOffset {
			return s.ID, true
		}
	}
	return 0, false
}

// offsetAt converts a terminal cell to a rune offset in the flattened text.
// Rows map through the same stride renderPage emits, so the blank rows
// interleaved at wide line spacing hit nothing.
func (v *ReaderView) offsetAt(x, y int) (int, bool) {
	row := y - v.headerRows()
	stride := v.rowStride()
	if row < 0 || row%stride != 0 {
		return 0, false
	}
	per := v.linesPerPage()
	s := v.ctrl.Layout().Current()
	idx := reader.ScrollOffset(s.PageIndex, per) + row/stride
	if idx >= len(v.lines) {
		return 0, false
	}
	line := v.lines[idx]
	col := x - 2 - v.typography().Margin
	if col < 0 {
		col = 0
	}
	width := len([]rune(line.Text))
	if col >= width {
		if width == 0 {
			return line.Start, true
		}
		col = width - 1
	}
	return line.Start + col, true
}

func (v *ReaderView) headerRows() int {
	if v.chromeHidden {
		return 0
	}
	return 1
}

// rowStride is how many terminal rows one wrapped line occupies once blank
// spacing rows are interleaved. 1.5 spacing is approximated by page density
// alone, so it strides like single spacing.
func (v *ReaderView) rowStride() int {
	t := v.typography()
	blank := int(t.LineSpacing) - 1
	if t.LineSpacing > 1 && t.LineSpacing < 2 {
		blank = 0
	}
	if blank < 0 {
		blank = 0
	}
	return 1 + blank
}

// Selection handling

// beginSelection enters selection mode anchored at the top of the current
// page.
func (v *ReaderView) beginSelection() {
	per := v.linesPerPage()
	s := v.ctrl.Layout().Current()
	start := reader.ScrollOffset(s.PageIndex, per)
	if start >= len(v.lines) {
		return
	}
	v.selecting = true
	v.selAnchor = v.lines[start].Start
	v.selCursor = v.selAnchor
	v.ctrl.HandleInteraction(reader.InteractionReport{Active: true})
}

func (v *ReaderView) endSelection() {
	v.selecting = false
	v.ctrl.HandleInteraction(reader.InteractionReport{Active: false})
}

// updateSelection handles keys while selecting text.
func (v *ReaderView) updateSelection(msg tea.KeyMsg) (View, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		v.endSelection()
	case "l", "right":
		v.moveSelCursor(v.selCursor + 1)
	case "h", "left":
		v.moveSelCursor(v.selCursor - 1)
	case "w":
		v.moveSelCursor(v.nextWord(v.selCursor))
	case "b":
		v.moveSelCursor(v.prevWord(v.selCursor))
	case "j", "down":
		v.moveSelVertical(1)
	case "k", "up":
		v.moveSelVertical(-1)
	case "c":
		v.colorIdx = (v.colorIdx + 1) % len(highlightPalette)
	case "enter":
		cmd := v.commitSelection()
		v.endSelection()
		return v, cmd
	}
	return v, nil
}

// moveSelCursor clamps and follows the cursor across page boundaries.
func (v *ReaderView) moveSelCursor(offset int) {
	flatLen := len([]rune(v.flat))
	if offset < 0 {
		offset = 0
	}
	if offset > flatLen-1 {
		offset = flatLen - 1
	}
	if offset < 0 {
		return
	}
	v.selCursor = offset
	// Keep the cursor's page visible.
	per := v.linesPerPage()
	page := reader.LineAt(v.lines, offset) / per
	chapter := v.ctrl.Layout().Chapter()
	if page != v.ctrl.Layout().State(chapter).PageIndex {
		v.ctrl.Layout().SetPageIndex(chapter, page)
		v.dragOffset = 0
	}
}

func (v *ReaderView) moveSelVertical(delta int) {
	idx := reader.LineAt(v.lines, v.selCursor)
	col := v.selCursor - v.lines[idx].Start
	next := idx + delta
	if next < 0 || next >= len(v.lines) {
		return
	}
	width := len([]rune(v.lines[next].Text))
	if col > width {
		col = width
	}
	v.moveSelCursor(v.lines[next].Start + col)
}

func (v *ReaderView) nextWord(offset int) int {
	runes := []rune(v.flat)
	i := offset
	for i < len(runes) && runes[i] != ' ' && runes[i] != '\n' {
		i++
	}
	for i < len(runes) && (runes[i] == ' ' || runes[i] == '\n') {
		i++
	}
	return i
}

func (v *ReaderView) prevWord(offset int) int {
	runes := []rune(v.flat)
	i := offset
	for i > 0 && (runes[i-1] == ' ' || runes[i-1] == '\n') {
		i--
	}
	for i > 0 && runes[i-1] != ' ' && runes[i-1] != '\n' {
		i--
	}
	return i
}

// commitSelection turns the selection into a persisted highlight.
func (v *ReaderView) commitSelection() tea.Cmd {
	start, end := v.selAnchor, v.selCursor
	if start > end {
		start, end = end, start
	}
	end++ // selection includes the cursor character
	runes := []rune(v.flat)
	if end > len(runes) {
		end = len(runes)
	}
	sel := reader.SelectionReport{
		Text:        string(runes[start:end]),
		StartOffset: start,
		EndOffset:   end,
		PageIndex:   v.ctrl.Layout().Current().PageIndex,
	}
	h, err := v.ctrl.CommitSelection(sel, highlightPalette[v.colorIdx])
	if err != nil {
		v.hint = "Nothing selected"
		return nil
	}
	return func() tea.Msg {
		saved, err := v.store.AddHighlight(h)
		return highlightSavedMsg{highlight: saved, err: err}
	}
}

// Bookmarks

// addBookmark marks the current page.
func (v *ReaderView) addBookmark() tea.Cmd {
	chapter := v.ctrl.Layout().Chapter()
	title := ""
	if ch, ok := v.ctrl.Chapter(chapter); ok {
		title = ch.Title
	}
	b := models.Bookmark{
		BookID:       v.book.ID,
		ChapterIndex: chapter,
		PageIndex:    v.ctrl.Layout().Current().PageIndex,
		ChapterTitle: title,
		CreatedAt:    time.Now(),
	}
	return func() tea.Msg {
		saved, err := v.store.AddBookmark(b)
		return bookmarkSavedMsg{bookmark: saved, err: err}
	}
}

// updateBookmarks handles bookmarks list navigation.
func (v *ReaderView) updateBookmarks(msg tea.KeyMsg) (View, tea.Cmd) {
	switch msg.String() {
	case "esc", "b", "q":
		v.showBookmarks = false
	case "j", "down":
		if v.bookmarkCursor < len(v.bookmarks)-1 {
			v.bookmarkCursor++
		}
	case "k", "up":
		if v.bookmarkCursor > 0 {
			v.bookmarkCursor--
		}
	case "enter":
		if v.bookmarkCursor < len(v.bookmarks) {
			bm := v.bookmarks[v.bookmarkCursor]
			v.showBookmarks = false
			v.ctrl.OpenChapter(bm.ChapterIndex, bm.PageIndex)
		}
	case "d", "x":
		if v.bookmarkCursor < len(v.bookmarks) {
			id := v.bookmarks[v.bookmarkCursor].ID
			return v, func() tea.Msg {
				return bookmarkDeletedMsg{id: id, err: v.store.DeleteBookmark(id)}
			}
		}
	}
	return v, v.flush(nil)
}

// Highlights overlay

// updateHighlights handles highlight list navigation.
func (v *ReaderView) updateHighlights(msg tea.KeyMsg) (View, tea.Cmd) {
	switch msg.String() {
	case "esc", "x", "q":
		v.showHighlights = false
	case "j", "down":
		if v.highlightCursor < len(v.highlights)-1 {
			v.highlightCursor++
		}
	case "k", "up":
		if v.highlightCursor > 0 {
			v.highlightCursor--
		}
	case "enter":
		if v.highlightCursor < len(v.highlights) {
			h := v.highlights[v.highlightCursor]
			v.showHighlights = false
			v.ctrl.OpenChapter(h.Start.ChapterIndex, h.Start.PageIndex)
		}
	case "n":
		if v.highlightCursor < len(v.highlights) {
			v.showHighlights = false
			v.openNoteEditor(v.highlights[v.highlightCursor].ID)
		}
	case "d":
		if v.highlightCursor < len(v.highlights) {
			id := v.highlights[v.highlightCursor].ID
			return v, func() tea.Msg {
				return highlightDeletedMsg{id: id, err: v.store.DeleteHighlight(id)}
			}
		}
	}
	return v, v.flush(nil)
}

// Note editing

func (v *ReaderView) openNoteEditor(id int64) {
	for _, h := range v.highlights {
		if h.ID == id {
			v.noteInput.SetValue(h.Note)
			break
		}
	}
	v.noteTarget = id
	v.noteMode = true
	v.noteInput.Focus()
}

func (v *ReaderView) updateNoteInput(msg tea.KeyMsg) (View, tea.Cmd) {
	switch msg.String() {
	case "esc":
		v.noteMode = false
		v.noteInput.Blur()
		return v, nil
	case "enter":
		v.noteMode = false
		v.noteInput.Blur()
		id, note := v.noteTarget, v.noteInput.Value()
		return v, func() tea.Msg {
			return noteSavedMsg{id: id, note: note, err: v.store.UpdateHighlightNote(id, note)}
		}
	}
	var cmd tea.Cmd
	v.noteInput, cmd = v.noteInput.Update(msg)
	return v, cmd
}

// updateTOC handles TOC navigation.
func (v *ReaderView) updateTOC(msg tea.KeyMsg) (View, tea.Cmd) {
	switch msg.String() {
	case "esc", "t", "q":
		v.showTOC = false
	case "j", "down":
		if v.tocCursor < len(v.chapters)-1 {
			v.tocCursor++
		}
	case "k", "up":
		if v.tocCursor > 0 {
			v.tocCursor--
		}
	case "g", "home":
		v.tocCursor = 0
	case "G", "end":
		v.tocCursor = len(v.chapters) - 1
	case "enter":
		v.showTOC = false
		v.ctrl.OpenChapter(v.tocCursor, 0)
	}
	return v, v.flush(nil)
}

// Typography mutations: all go through the controller so cached page counts
// invalidate and the position re-clamps.

func (v *ReaderView) adjustFontScale(delta float64) {
	t := v.typography()
	v.setFontScale(t.FontScale + delta)
}

func (v *ReaderView) setFontScale(scale float64) {
	if scale < config.MinFontScale {
		scale = config.MinFontScale
	}
	if scale > config.MaxFontScale {
		scale = config.MaxFontScale
	}
	t := v.typography()
	if scale == t.FontScale {
		return
	}
	t.FontScale = scale
	v.applyTypography(t)
}

func (v *ReaderView) cycleLineSpacing() {
	t := v.typography()
	switch {
	case t.LineSpacing < 1.5:
		t.LineSpacing = 1.5
	case t.LineSpacing < 2:
		t.LineSpacing = 2
	default:
		t.LineSpacing = 1
	}
	v.applyTypography(t)
}

func (v *ReaderView) cycleMargin() {
	t := v.typography()
	t.Margin += 2
	if t.Margin > 8 {
		t.Margin = 0
	}
	v.applyTypography(t)
}

func (v *ReaderView) toggleDarkMode() {
	t := v.typography()
	t.Dark = !t.Dark
	styles.Apply(styles.ThemeFor(t.Dark))
	v.applyTypography(t)
}

func (v *ReaderView) applyTypography(t reader.Typography) {
	if err := v.config.SetTypography(t); err != nil {
		v.hint = "Settings not saved"
	}
	v.ctrl.SetTypography(v.config.Typography)
}

// SetSize implements View. A resize preserves the reading position: same
// wrap width means the engine re-derives the page from the old page start;
// a new wrap width re-anchors on the offset of the old page's first line.
func (v *ReaderView) SetSize(width, height int) {
	oldWidth := v.contentWidth()
	oldPer := v.linesPerPage()
	var topOffset, oldIndex int
	hadLines := false
	if v.ctrl != nil && len(v.lines) > 0 {
		s := v.ctrl.Layout().Current()
		oldIndex = s.PageIndex
		idx := reader.ScrollOffset(s.PageIndex, oldPer)
		if idx >= len(v.lines) {
			idx = len(v.lines) - 1
		}
		topOffset = v.lines[idx].Start
		hadLines = true
	}

	v.width = width
	v.height = height
	if v.ctrl == nil {
		return
	}
	v.ctrl.Gestures().SetViewport(float64(width))
	if v.flat == "" {
		return
	}
	v.relayout()
	if !hadLines {
		return
	}
	chapter := v.ctrl.Layout().Chapter()
	if v.contentWidth() == oldWidth {
		// relayout already re-clamped the stored index against the new
		// count; the captured pre-report index carries the real position.
		v.ctrl.Layout().Resize(chapter, oldIndex, oldPer, v.linesPerPage())
		return
	}
	page := reader.LineAt(v.lines, topOffset) / v.linesPerPage()
	v.ctrl.Layout().SetPageIndex(chapter, page)
}

// View implements View.
func (v *ReaderView) View() string {
	if v.book == nil {
		return styles.ErrorStyle.Render("No book selected")
	}
	if v.loading {
		return lipgloss.Place(v.width, v.height, lipgloss.Center, lipgloss.Center,
			styles.MutedText.Render("Loading..."))
	}
	if v.err != nil {
		return v.renderErrorView()
	}
	if v.showTOC {
		return v.renderTOC()
	}
	if v.showBookmarks {
		return v.renderBookmarks()
	}
	if v.showHighlights {
		return v.renderHighlights()
	}

	var b strings.Builder
	if !v.chromeHidden {
		b.WriteString(v.renderHeader() + "\n")
	}
	b.WriteString(v.renderPage())
	b.WriteString("\n")
	if v.noteMode {
		b.WriteString(v.renderNoteInput())
	} else if !v.chromeHidden || v.hint != "" {
		b.WriteString(v.renderFooter())
	}
	return b.String()
}

// renderErrorView is the blocking error surface for unrecoverable content
// load failures, with a way back.
func (v *ReaderView) renderErrorView() string {
	body := styles.ErrorStyle.Render("Error: "+v.err.Error()) + "\n\n" +
		styles.Help.Render("r retry • q back to library")
	return lipgloss.Place(v.width, v.height, lipgloss.Center, lipgloss.Center, body)
}

// renderPage paints the current page's lines with highlights and selection.
func (v *ReaderView) renderPage() string {
	if v.ctrl == nil || len(v.lines) == 0 {
		return ""
	}
	t := v.typography()
	per := v.linesPerPage()
	s := v.ctrl.Layout().Current()
	start := reader.ScrollOffset(s.PageIndex, per)

	pad := strings.Repeat(" ", 2+t.Margin)
	blank := v.rowStride() - 1

	var b strings.Builder
	rows := 0
	maxRows := v.height - 4
	for i := start; i < len(v.lines) && i < start+per && rows < maxRows; i++ {
		line := v.paintLine(v.lines[i])
		line = v.applyDragShift(line)
		b.WriteString(pad + styles.ReaderContent.Render(line) + "\n")
		rows++
		for j := 0; j < blank && rows < maxRows; j++ {
			b.WriteString("\n")
			rows++
		}
	}
	for rows < maxRows {
		b.WriteString("\n")
		rows++
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// paintLine applies highlight spans and the live selection to one wrapped
// line, splitting it into styled segments by rune offset.
func (v *ReaderView) paintLine(line reader.Line) string {
	type interval struct {
		start, end int
		style      lipgloss.Style
	}
	var ivs []interval
	for _, s := range v.spans {
		ivs = append(ivs, interval{s.StartOffset, s.EndOffset, styles.Highlight(s.ColorHex)})
	}
	if v.selecting {
		a, c := v.selAnchor, v.selCursor
		if a > c {
			a, c = c, a
		}
		ivs = append(ivs, interval{a, c + 1, styles.SelectionStyle})
	}
	if len(ivs) == 0 {
		return line.Text
	}

	runes := []rune(line.Text)
	lineStart, lineEnd := line.Start, line.Start+len(runes)
	var b strings.Builder
	pos := lineStart
	for pos < lineEnd {
		// Find the interval covering pos, preferring the selection (added
		// last) over stored spans.
		var active *interval
		for i := len(ivs) - 1; i >= 0; i-- {
			if pos >= ivs[i].start && pos < ivs[i].end {
				active = &ivs[i]
				break
			}
		}
		if active == nil {
			// Advance to the next interval start on this line.
			next := lineEnd
			for _, iv := range ivs {
				if iv.start > pos && iv.start < next {
					next = iv.start
				}
			}
			b.WriteString(string(runes[pos-lineStart : next-lineStart]))
			pos = next
			continue
		}
		end := active.end
		if end > lineEnd {
			end = lineEnd
		}
		b.WriteString(active.style.Render(string(runes[pos-lineStart : end-lineStart])))
		pos = end
	}
	return b.String()
}

// applyDragShift nudges a line horizontally to visualize a damped drag.
func (v *ReaderView) applyDragShift(line string) string {
	switch {
	case v.dragOffset > 0:
		return strings.Repeat(" ", min(v.dragOffset, v.width/2)) + line
	case v.dragOffset < 0:
		runes := []rune(line)
		cut := min(-v.dragOffset, len(runes))
		return string(runes[cut:])
	default:
		return line
	}
}

// renderHeader renders the reader header with progress bars.
func (v *ReaderView) renderHeader() string {
	maxTitleWidth := v.width / 3
	if maxTitleWidth < 10 {
		maxTitleWidth = 10
	}
	title := styles.TruncateText(v.book.Title, maxTitleWidth)
	titlePart := styles.ReaderHeader.Render(" " + title + " ")

	chapter := v.ctrl.Layout().Chapter()
	chapterTitle := ""
	if ch, ok := v.ctrl.Chapter(chapter); ok {
		chapterTitle = styles.TruncateText(ch.Title, 20)
	}
	s := v.ctrl.Layout().Current()
	chapterPart := styles.Help.Render(fmt.Sprintf(" Ch %d/%d: %s · p.%d/%d ",
		chapter+1, len(v.chapters), chapterTitle, s.PageIndex+1, s.TotalPages))

	progress := reader.Progress(chapter, len(v.chapters), s.PageIndex, s.TotalPages)
	bar := renderProgressBar(12, progress)
	progressPart := styles.MutedText.Render("Book:") + bar +
		styles.ReaderProgress.Render(fmt.Sprintf(" %d%%", int(progress*100)))

	left := titlePart + chapterPart
	gap := v.width - lipgloss.Width(left) - lipgloss.Width(progressPart)
	if gap < 0 {
		gap = 0
	}
	return left + strings.Repeat(" ", gap) + progressPart
}

// renderProgressBar renders a progress bar using Unicode block characters.
func renderProgressBar(width int, progress float64) string {
	if width < 3 {
		width = 3
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	filled := int(progress * float64(width))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// renderFooter renders the help/hint bar.
func (v *ReaderView) renderFooter() string {
	if v.hint != "" {
		return styles.FooterBar.Width(v.width).Render(styles.HintBanner.Render(v.hint))
	}
	if v.selecting {
		info := fmt.Sprintf("selecting %d chars", abs(v.selCursor-v.selAnchor)+1)
		help := []string{
			styles.HelpKey.Render("h/l/w/b/j/k") + styles.Help.Render(" extend"),
			styles.HelpKey.Render("c") + styles.Help.Render(" color"),
			styles.HelpKey.Render("enter") + styles.Help.Render(" highlight"),
			styles.HelpKey.Render("esc") + styles.Help.Render(" cancel"),
		}
		swatch := styles.Highlight(highlightPalette[v.colorIdx]).Render("  ")
		return styles.FooterBar.Width(v.width).Render(
			styles.SecondaryText.Render(info) + " " + swatch + "  " + strings.Join(help, "  "))
	}
	scale := fmt.Sprintf("%.0f%%", v.typography().FontScale*100)
	help := []string{
		styles.HelpKey.Render("h/l") + styles.Help.Render(" page"),
		styles.HelpKey.Render("t") + styles.Help.Render(" toc"),
		styles.HelpKey.Render("v") + styles.Help.Render(" select"),
		styles.HelpKey.Render("b/B") + styles.Help.Render(" marks"),
		styles.HelpKey.Render("x") + styles.Help.Render(" notes"),
		styles.HelpKey.Render("+/-") + styles.Help.Render(" "+scale),
		styles.HelpKey.Render("q") + styles.Help.Render(" back"),
	}
	return styles.FooterBar.Width(v.width).Render(strings.Join(help, "  "))
}

func (v *ReaderView) renderNoteInput() string {
	return styles.InputLabel.Render("Note: ") + v.noteInput.View() + "  " +
		styles.Help.Render("enter save • esc cancel")
}

// renderTOC renders the table of contents overlay.
func (v *ReaderView) renderTOC() string {
	var b strings.Builder
	b.WriteString(styles.DialogTitle.Render("Table of Contents") + "\n\n")

	maxVisible := v.height - 8
	offset := 0
	if v.tocCursor >= maxVisible {
		offset = v.tocCursor - maxVisible + 1
	}
	current := v.ctrl.Layout().Chapter()
	for i := offset; i < min(offset+maxVisible, len(v.chapters)); i++ {
		line := fmt.Sprintf("%d. %s", i+1, v.chapters[i].Title)
		line = styles.TruncateText(line, v.width-12)
		switch {
		case i == v.tocCursor:
			b.WriteString(styles.ListItemSelected.Render("▸ "+line) + "\n")
		case i == current:
			b.WriteString(styles.BookAuthor.Render("  "+line+" (current)") + "\n")
		default:
			b.WriteString(styles.ListItem.Render("  "+line) + "\n")
		}
	}
	b.WriteString("\n" + styles.Help.Render("j/k navigate • enter select • esc close"))
	dialog := styles.Dialog.Width(min(60, v.width-4)).Render(b.String())
	return lipgloss.Place(v.width, v.height, lipgloss.Center, lipgloss.Center, dialog)
}

// renderBookmarks renders the bookmarks overlay.
func (v *ReaderView) renderBookmarks() string {
	var b strings.Builder
	b.WriteString(styles.DialogTitle.Render("Bookmarks") + "\n\n")

	if len(v.bookmarks) == 0 {
		b.WriteString(styles.MutedText.Render("No bookmarks for this book.\n\nPress B to add one."))
	} else {
		maxVisible := v.height - 10
		offset := 0
		if v.bookmarkCursor >= maxVisible {
			offset = v.bookmarkCursor - maxVisible + 1
		}
		for i := offset; i < min(offset+maxVisible, len(v.bookmarks)); i++ {
			bm := v.bookmarks[i]
			label := fmt.Sprintf("Ch %d", bm.ChapterIndex+1)
			if bm.ChapterTitle != "" {
				label = fmt.Sprintf("Ch %d: %s", bm.ChapterIndex+1, styles.TruncateText(bm.ChapterTitle, 20))
			}
			line := fmt.Sprintf("%s · page %d", label, bm.PageIndex+1)
			if i == v.bookmarkCursor {
				b.WriteString(styles.ListItemSelected.Render("▸ "+line) + "\n")
			} else {
				b.WriteString(styles.ListItem.Render("  "+line) + "\n")
			}
		}
	}
	b.WriteString("\n" + styles.Help.Render("j/k navigate • enter go • d delete • esc close"))
	dialog := styles.Dialog.Width(min(50, v.width-4)).Render(b.String())
	return lipgloss.Place(v.width, v.height, lipgloss.Center, lipgloss.Center, dialog)
}

// renderHighlights renders the highlights overlay.
func (v *ReaderView) renderHighlights() string {
	var b strings.Builder
	b.WriteString(styles.DialogTitle.Render("Highlights") + "\n\n")

	if len(v.highlights) == 0 {
		b.WriteString(styles.MutedText.Render("No highlights yet.\n\nPress v in the reader to select text."))
	} else {
		maxVisible := (v.height - 10) / 2
		if maxVisible < 1 {
			maxVisible = 1
		}
		offset := 0
		if v.highlightCursor >= maxVisible {
			offset = v.highlightCursor - maxVisible + 1
		}
		for i := offset; i < min(offset+maxVisible, len(v.highlights)); i++ {
			h := v.highlights[i]
			text := styles.TruncateText(strings.ReplaceAll(h.Text, "\n", " "), v.width-16)
			line := styles.Highlight(h.Color).Render(" ") + " " + text
			if i == v.highlightCursor {
				b.WriteString(styles.ListItemSelected.Render("▸ "+line) + "\n")
			} else {
				b.WriteString(styles.ListItem.Render("  "+line) + "\n")
			}
			meta := fmt.Sprintf("    Ch %d", h.Start.ChapterIndex+1)
			if h.Note != "" {
				meta += " · " + styles.TruncateText(h.Note, 40)
			}
			b.WriteString(styles.MutedText.Render(meta) + "\n")
		}
	}
	b.WriteString("\n" + styles.Help.Render("j/k navigate • enter go • n note • d delete • esc close"))
	dialog := styles.Dialog.Width(min(64, v.width-4)).Render(b.String())
	return lipgloss.Place(v.width, v.height, lipgloss.Center, lipgloss.Center, dialog)
}

func removeBookmark(list []models.Bookmark, id int64) []models.Bookmark {
	out := list[:0]
	for _, b := range list {
		if b.ID != id {
			out = append(out, b)
		}
	}
	return out
}

func removeHighlight(list []models.Highlight, id int64) []models.Highlight {
	out := list[:0]
	for _, h := range list {
		if h.ID != id {
			out = append(out, h)
		}
	}
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
