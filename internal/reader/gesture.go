package reader

import (
	"math"
	"time"
)

// Phase is the gesture machine's state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseDragging
	PhaseAnimating
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseDragging:
		return "dragging"
	case PhaseAnimating:
		return "animating"
	default:
		return "unknown"
	}
}

// GestureKind classifies the outcome of a pointer sequence.
type GestureKind int

const (
	// GestureNone: nothing to do (ambiguous input defaults to this).
	GestureNone GestureKind = iota
	// GestureCommit: a page turn was committed in Result.Dir.
	GestureCommit
	// GestureSpringBack: released below threshold; snap back, no page change.
	GestureSpringBack
	// GestureBoundary: the reader pushed past the first/last page of the
	// book; emit boundary feedback, no page change.
	GestureBoundary
	// GestureTapCandidate: the pointer never became a drag; run the tap
	// classifier.
	GestureTapCandidate
)

// TapAction is the tap classifier's verdict.
type TapAction int

const (
	TapNone TapAction = iota
	TapPageForward
	TapPageBackward
	TapToggleChrome
)

// Result is what a pointer release produced. Tap is filled in by the tap
// classifier when Kind is GestureTapCandidate.
type Result struct {
	Kind GestureKind
	Dir  Direction
	Tap  TapAction
}

// GestureConfig tunes the recognizer. Distances are in the renderer's
// horizontal units (pixels, cells); the defaults assume cells but scale with
// the viewport where it matters.
type GestureConfig struct {
	// DragThreshold is the horizontal travel needed before a pointer
	// sequence is treated as a drag rather than a tap.
	DragThreshold float64 `json:"drag_threshold"`
	// CommitFraction of the viewport width a drag must cover to commit.
	CommitFraction float64 `json:"commit_fraction"`
	// VelocityThreshold (units/sec) commits a fast flick below the
	// distance threshold.
	VelocityThreshold float64 `json:"velocity_threshold"`
	// Damping scales raw drag travel into visual offset.
	Damping float64 `json:"damping"`
	// EdgeResistance further attenuates drags toward a page that does not
	// exist, producing resistance instead of a hard stop.
	EdgeResistance float64 `json:"edge_resistance"`
	// EdgeBandRatio is the fraction of viewport width on each side where a
	// tap turns the page.
	EdgeBandRatio float64 `json:"edge_band_ratio"`
	// DoubleTapWindow debounces repeated center taps.
	DoubleTapWindow time.Duration `json:"double_tap_window"`
	// SelectionCooldown suppresses chrome toggles right after a tap was
	// consumed by selectable content.
	SelectionCooldown time.Duration `json:"selection_cooldown"`
}

// DefaultGestureConfig returns the stock tuning.
func DefaultGestureConfig() GestureConfig {
	return GestureConfig{
		DragThreshold:     10,
		CommitFraction:    0.2,
		VelocityThreshold: 300,
		Damping:           0.55,
		EdgeResistance:    0.28,
		EdgeBandRatio:     0.26,
		DoubleTapWindow:   220 * time.Millisecond,
		SelectionCooldown: 500 * time.Millisecond,
	}
}

// Navigability tells the recognizer which directions currently have a page
// to land on.
type Navigability struct {
	Forward  bool
	Backward bool
}

// Recognizer turns raw pointer events into committed page transitions. It is
// driven from the single UI event loop and holds no locks. While a
// transition animates, new navigation commands queue and apply in order once
// the animation completes; they are never dropped and never interrupt the
// running transition.
type Recognizer struct {
	cfg      GestureConfig
	phase    Phase
	viewport float64
	nav      Navigability

	startX, startY float64
	startAt        time.Time
	lastX          float64
	lastAt         time.Time
	prevX          float64
	prevAt         time.Time

	queue []Direction

	lastCenterTap   time.Time
	selectionTapAt  time.Time
	hasSelectionTap bool
}

// NewRecognizer creates a recognizer with the given tuning.
func NewRecognizer(cfg GestureConfig) *Recognizer {
	return &Recognizer{cfg: cfg}
}

// Phase returns the current machine state.
func (r *Recognizer) Phase() Phase { return r.phase }

// SetViewport records the viewport width used for thresholds and bands.
func (r *Recognizer) SetViewport(w float64) {
	if w > 0 {
		r.viewport = w
	}
}

// SetNavigability updates which directions have a destination page.
func (r *Recognizer) SetNavigability(n Navigability) { r.nav = n }

// Reset abandons any in-flight gesture and queued commands. A full document
// reload (new chapter) goes through here.
func (r *Recognizer) Reset() {
	r.phase = PhaseIdle
	r.queue = nil
}

// Begin starts tracking a pointer. Ignored while a transition animates; the
// gesture that ends that animation must start after Idle is re-entered.
func (r *Recognizer) Begin(x, y float64, t time.Time) {
	if r.phase == PhaseAnimating {
		return
	}
	r.phase = PhaseIdle
	r.startX, r.startY = x, y
	r.startAt = t
	r.lastX, r.lastAt = x, t
	r.prevX, r.prevAt = x, t
}

// Move tracks pointer motion and returns the damped visual offset the
// renderer should show. Entering the drag hides chrome; the bool reports
// whether the machine is (now) dragging.
func (r *Recognizer) Move(x, y float64, t time.Time) (offset float64, dragging bool) {
	if r.phase == PhaseAnimating {
		return 0, false
	}
	dx := x - r.startX
	dy := y - r.startY
	if r.phase == PhaseIdle {
		if math.Abs(dx) <= math.Abs(dy) || math.Abs(dx) <= r.cfg.DragThreshold {
			return 0, false
		}
		r.phase = PhaseDragging
	}
	r.prevX, r.prevAt = r.lastX, r.lastAt
	r.lastX, r.lastAt = x, t

	off := dx * r.cfg.Damping
	if !r.navigable(dragDirection(dx)) {
		off *= r.cfg.EdgeResistance
	}
	return off, true
}

// End finishes a pointer sequence and classifies it. Commits enter
// PhaseAnimating; the caller drives the transition and then calls
// AnimationDone. Spring-backs also animate before Idle. A sequence that
// never became a drag returns GestureTapCandidate for the tap classifier.
func (r *Recognizer) End(x, y float64, t time.Time) Result {
	if r.phase == PhaseAnimating {
		return Result{Kind: GestureNone}
	}
	if r.phase != PhaseDragging {
		r.phase = PhaseIdle
		return Result{Kind: GestureTapCandidate}
	}

	dx := x - r.startX
	dir := dragDirection(dx)

	commit := false
	if r.viewport > 0 && math.Abs(dx) > r.cfg.CommitFraction*r.viewport {
		commit = true
	}
	if v := r.velocity(x, t); math.Abs(v) > r.cfg.VelocityThreshold && dragDirection(v) == dir {
		commit = true
	}

	if !commit {
		r.phase = PhaseAnimating
		return Result{Kind: GestureSpringBack}
	}
	if !r.navigable(dir) {
		// Pushing past the edge of the book: spring back with feedback,
		// never wrap around.
		r.phase = PhaseAnimating
		return Result{Kind: GestureBoundary, Dir: dir}
	}
	r.phase = PhaseAnimating
	return Result{Kind: GestureCommit, Dir: dir}
}

// Cancel aborts a drag with no state change (gesture ambiguity policy).
func (r *Recognizer) Cancel() {
	if r.phase == PhaseDragging {
		r.phase = PhaseIdle
	}
}

// Queue records a navigation command that arrived while a transition was
// animating. It is applied right after the animation completes.
func (r *Recognizer) Queue(dir Direction) {
	r.queue = append(r.queue, dir)
}

// AnimationDone marks the running transition finished. If navigation queued
// during it, the oldest command is returned for immediate application and the
// machine stays in PhaseAnimating for the transition that command starts, so
// each completion drains exactly one command. Idle is re-entered only once
// the queue is empty; only then is the layout's page index authoritative.
func (r *Recognizer) AnimationDone() (Direction, bool) {
	if len(r.queue) == 0 {
		r.phase = PhaseIdle
		return 0, false
	}
	dir := r.queue[0]
	r.queue = r.queue[1:]
	r.phase = PhaseAnimating
	return dir, true
}

// ClassifyTap decides what a tap at x does. Edge-band taps turn the page
// immediately, undamped and with no threshold. Center taps toggle chrome,
// debounced against the double-tap window and suppressed for a cooldown
// after a tap that selectable content consumed.
func (r *Recognizer) ClassifyTap(x float64, t time.Time) TapAction {
	if r.phase != PhaseIdle || r.viewport <= 0 {
		return TapNone
	}
	band := r.cfg.EdgeBandRatio * r.viewport
	switch {
	case x < band:
		return TapPageBackward
	case x > r.viewport-band:
		return TapPageForward
	}
	if r.hasSelectionTap && t.Sub(r.selectionTapAt) < r.cfg.SelectionCooldown {
		return TapNone
	}
	if !r.lastCenterTap.IsZero() && t.Sub(r.lastCenterTap) < r.cfg.DoubleTapWindow {
		return TapNone
	}
	r.lastCenterTap = t
	return TapToggleChrome
}

// TapConsumedBySelection records that selectable content handled a tap, so
// chrome toggles pause for the cooldown window.
func (r *Recognizer) TapConsumedBySelection(t time.Time) {
	r.selectionTapAt = t
	r.hasSelectionTap = true
}

func (r *Recognizer) navigable(dir Direction) bool {
	if dir == Forward {
		return r.nav.Forward
	}
	return r.nav.Backward
}

// velocity estimates release velocity from the last two samples.
func (r *Recognizer) velocity(x float64, t time.Time) float64 {
	dt := t.Sub(r.prevAt).Seconds()
	if dt <= 0 {
		return 0
	}
	return (x - r.prevX) / dt
}

// dragDirection maps horizontal travel to a page direction: dragging the
// content left (negative dx) reveals the next page.
func dragDirection(dx float64) Direction {
	if dx < 0 {
		return Forward
	}
	return Backward
}
