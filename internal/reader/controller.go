package reader

import (
	"errors"
	"time"

	"github.com/islareader/isla/pkg/models"
)

// ErrEmptySelection rejects highlight commits whose anchors are equal,
// inverted, or cross a chapter boundary.
var ErrEmptySelection = errors.New("reader: selection is empty or inverted")

// Controller wires the layout engine, gesture machine and session tracker to
// a Renderer for one open book. All methods run on the single UI loop;
// renderer callbacks come back through the Handle* methods as ordered
// messages.
type Controller struct {
	bookID   int64
	chapters []models.Chapter
	typ      Typography

	layout   *Layout
	gestures *Recognizer
	tracker  *Tracker
	renderer Renderer

	status      string
	interacting bool

	// pendingJump is the latest requested page for a chapter whose count
	// has not been reported yet. A newer request replaces an older one:
	// last-writer-wins on the target page.
	pendingJump     int
	pendingJumpSet  bool
	pendingAnimated bool

	// Feedback receives boundary and page-turn signals; optional.
	Feedback func(Feedback)
	// OnProgress receives the updated progress record after every page
	// change and session commit; persistence is best-effort and must not
	// block navigation.
	OnProgress func(models.ReadingProgress)
}

// NewController creates the engine for an opened book.
func NewController(bookID int64, chapters []models.Chapter, typ Typography, renderer Renderer, cfg GestureConfig) *Controller {
	return &Controller{
		bookID:   bookID,
		chapters: chapters,
		typ:      typ,
		layout:   NewLayout(len(chapters)),
		gestures: NewRecognizer(cfg),
		tracker:  NewTracker(),
		renderer: renderer,
		status:   models.StatusWantToRead,
	}
}

// Layout exposes the pagination state (read-mostly; mutation goes through
// the controller).
func (c *Controller) Layout() *Layout { return c.layout }

// Gestures exposes the recognizer for pointer plumbing.
func (c *Controller) Gestures() *Recognizer { return c.gestures }

// Tracker exposes session time accounting.
func (c *Controller) Tracker() *Tracker { return c.tracker }

// Status returns the current reading status.
func (c *Controller) Status() string { return c.status }

// SetStatus seeds status from a persisted record.
func (c *Controller) SetStatus(s string) {
	if s != "" {
		c.status = s
	}
}

// Chapter returns the chapter record at an index, ok=false out of range.
func (c *Controller) Chapter(i int) (models.Chapter, bool) {
	if i < 0 || i >= len(c.chapters) {
		return models.Chapter{}, false
	}
	return c.chapters[i], true
}

// OpenChapter loads a chapter into the renderer, resetting gesture state and
// invalidating stale layout for it. The requested page is applied once the
// renderer reports the chapter's page count.
func (c *Controller) OpenChapter(index, page int) {
	ch, ok := c.Chapter(index)
	if !ok {
		return
	}
	c.layout.SetChapter(index)
	c.gestures.Reset()
	sig := c.typ.Signature(ch.Content)
	c.layout.Invalidate(index, sig)
	c.pendingJump = page
	c.pendingJumpSet = true
	c.pendingAnimated = false
	c.renderer.LoadDocument(index, ch.Content, sig)
}

// SetTypography applies a new typography configuration and reloads the
// current chapter under the new signature. The current page index is kept
// for re-clamping against the recomputed count.
func (c *Controller) SetTypography(t Typography) {
	c.typ = t
	cur := c.layout.Chapter()
	c.OpenChapter(cur, c.layout.State(cur).PageIndex)
}

// Typography returns the active typography configuration.
func (c *Controller) Typography() Typography { return c.typ }

// HandlePageCount ingests the renderer's measurement. The page index is
// re-clamped, any pending jump (the latest requested target) is issued, and
// navigability is refreshed.
func (c *Controller) HandlePageCount(rep PageCountReport) {
	s := c.layout.ReportPageCount(rep.Chapter, rep.Pages, rep.Signature)
	if rep.Chapter == c.layout.Chapter() {
		if c.pendingJumpSet {
			s = c.layout.SetPageIndex(rep.Chapter, c.pendingJump)
			c.pendingJumpSet = false
			c.renderer.JumpToPage(s.PageIndex, c.pendingAnimated)
		}
		c.refreshNavigability()
		c.publishProgress()
	}
}

// Advance moves one page, transparently crossing chapters. While a
// transition is animating the command queues instead — never dropped, never
// interrupting. Returns false only at the absolute start or end of the book,
// which emits boundary feedback.
func (c *Controller) Advance(dir Direction) bool {
	if c.gestures.Phase() == PhaseAnimating {
		c.gestures.Queue(dir)
		return true
	}
	return c.advanceNow(dir)
}

// advanceNow applies a page turn without consulting the animation queue.
// Drag commits and queued-command application come through here while the
// recognizer is already in PhaseAnimating.
func (c *Controller) advanceNow(dir Direction) bool {
	move, ok := c.layout.Advance(dir)
	if !ok {
		c.emit(FeedbackBoundary)
		return false
	}
	c.applyMove(move)
	return true
}

// applyMove issues the renderer work for a completed layout move. The
// page-index write has already happened; the jump always follows it.
func (c *Controller) applyMove(move Move) {
	if move.CrossedChapter {
		ch, _ := c.Chapter(move.Chapter)
		sig := c.typ.Signature(ch.Content)
		c.layout.Invalidate(move.Chapter, sig)
		c.pendingJump = move.Page
		c.pendingJumpSet = true
		c.pendingAnimated = true
		c.renderer.LoadDocument(move.Chapter, ch.Content, sig)
	} else {
		c.renderer.JumpToPage(move.Page, true)
	}
	c.refreshNavigability()
	c.emit(FeedbackPageTurn)
	c.publishProgress()
}

// HandleHighlightTap records that a tap landed on an existing highlight.
// The tap is consumed by selectable content, so chrome toggles pause for the
// cooldown window while the renderer opens the highlight.
func (c *Controller) HandleHighlightTap(rep HighlightTapReport, t time.Time) {
	c.gestures.TapConsumedBySelection(t)
}

// HandleInteraction tracks the renderer's direct-interaction state (an
// active selection). While interacting, pointer input navigates nothing —
// the selection owns it.
func (c *Controller) HandleInteraction(rep InteractionReport) {
	if rep.Active {
		c.gestures.Cancel()
	}
	c.interacting = rep.Active
}

// PointerDown starts gesture tracking.
func (c *Controller) PointerDown(x, y float64, t time.Time) {
	if c.interacting {
		return
	}
	c.gestures.Begin(x, y, t)
}

// PointerMove tracks a drag and returns the damped visual offset.
func (c *Controller) PointerMove(x, y float64, t time.Time) (float64, bool) {
	if c.interacting {
		return 0, false
	}
	return c.gestures.Move(x, y, t)
}

// PointerUp classifies the release and applies its outcome. The returned
// result lets the renderer animate the right thing.
func (c *Controller) PointerUp(x, y float64, t time.Time) Result {
	if c.interacting {
		return Result{Kind: GestureNone}
	}
	res := c.gestures.End(x, y, t)
	switch res.Kind {
	case GestureCommit:
		c.advanceNow(res.Dir)
	case GestureBoundary:
		c.emit(FeedbackBoundary)
	case GestureTapCandidate:
		res.Tap = c.gestures.ClassifyTap(x, t)
		switch res.Tap {
		case TapPageForward:
			c.Advance(Forward)
		case TapPageBackward:
			c.Advance(Backward)
		}
	}
	return res
}

// AnimationDone tells the engine a transition finished. Queued navigation is
// applied immediately, one command per completed transition; the recognizer
// holds PhaseAnimating until the queue drains, so the renderer keeps driving
// completions until every queued command has landed.
func (c *Controller) AnimationDone() {
	if dir, ok := c.gestures.AnimationDone(); ok {
		c.advanceNow(dir)
	}
}

// CommitSelection turns a non-empty selection into a highlight with
// normalized anchors. Equal or inverted offsets are rejected.
func (c *Controller) CommitSelection(sel SelectionReport, color string) (models.Highlight, error) {
	chapter := c.layout.Chapter()
	a := EncodeAnchor(chapter, sel.PageIndex, sel.StartOffset)
	b := EncodeAnchor(chapter, sel.PageIndex, sel.EndOffset)
	start, end, ok := NormalizeAnchors(a, b)
	if !ok {
		return models.Highlight{}, ErrEmptySelection
	}
	now := time.Now()
	return models.Highlight{
		BookID:    c.bookID,
		Start:     start,
		End:       end,
		Text:      sel.Text,
		Color:     color,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ResolveHighlights maps stored highlights for a chapter onto renderer
// spans. Unresolvable (stale) highlights are skipped, not discarded: the
// records stay put for a future resolution attempt.
func (c *Controller) ResolveHighlights(chapter int, highlights []models.Highlight) []models.HighlightSpan {
	ch, ok := c.Chapter(chapter)
	if !ok {
		return nil
	}
	var spans []models.HighlightSpan
	for _, h := range highlights {
		if h.Start.ChapterIndex != chapter {
			continue
		}
		span, ok := ResolveSpan(ch.Content, h.Start, h.End)
		if !ok {
			continue
		}
		spans = append(spans, models.HighlightSpan{
			ID:          h.ID,
			StartOffset: span.Start,
			EndOffset:   span.End,
			ColorHex:    h.Color,
		})
	}
	return spans
}

// Resume restores a persisted position payload; a malformed payload starts
// from the beginning instead of failing.
func (c *Controller) Resume(payload string) {
	pos, ok := DecodePosition(payload)
	if !ok {
		c.OpenChapter(0, 0)
		return
	}
	if pos.ChapterIndex >= len(c.chapters) {
		pos.ChapterIndex = len(c.chapters) - 1
	}
	c.OpenChapter(pos.ChapterIndex, pos.PageIndex)
}

// Position snapshots the current location as a resume payload.
func (c *Controller) Position() models.Position {
	chapter := c.layout.Chapter()
	s := c.layout.State(chapter)
	return models.Position{
		ChapterIndex: chapter,
		PageIndex:    s.PageIndex,
		TotalPages:   s.TotalPages,
	}
}

// ProgressRecord builds the persistable progress snapshot.
func (c *Controller) ProgressRecord() models.ReadingProgress {
	chapter := c.layout.Chapter()
	s := c.layout.State(chapter)
	p := Progress(chapter, len(c.chapters), s.PageIndex, s.TotalPages)
	c.status = NextStatus(c.status, p)
	return models.ReadingProgress{
		BookID:             c.bookID,
		CurrentChapter:     chapter,
		Payload:            EncodePosition(c.Position()),
		ProgressPercentage: p,
		TotalReadingTime:   int64(c.tracker.Total().Seconds()),
		Status:             c.status,
		LastReadAt:         time.Now(),
	}
}

// StartSession stamps session start (view appeared / app foregrounded).
func (c *Controller) StartSession() { c.tracker.Start() }

// PauseSession commits elapsed time immediately and publishes the updated
// record (time is never deferred to a later save).
func (c *Controller) PauseSession() {
	c.tracker.Pause()
	c.publishProgress()
}

func (c *Controller) refreshNavigability() {
	c.gestures.SetNavigability(Navigability{
		Forward:  c.layout.CanAdvance(Forward),
		Backward: c.layout.CanAdvance(Backward),
	})
}

func (c *Controller) emit(f Feedback) {
	if c.Feedback != nil {
		c.Feedback(f)
	}
}

func (c *Controller) publishProgress() {
	if c.OnProgress != nil {
		c.OnProgress(c.ProgressRecord())
	}
}
