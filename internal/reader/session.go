package reader

import (
	"time"

	"github.com/islareader/isla/pkg/models"
)

// MinSession is the shortest session that counts toward reading time; view
// churn below this is noise.
const MinSession = time.Second

// finishedThreshold absorbs the approximation error of the equal-weight
// progress formula; 0.99 rather than exactly 1.0.
const finishedThreshold = 0.99

// Progress derives the reading-progress fraction from the current position.
// Chapters are weighted equally regardless of length — an accepted
// simplification. Always clamped to [0, 1].
func Progress(chapter, chapterCount, page, totalPages int) float64 {
	if chapterCount < 1 {
		return 0
	}
	if totalPages < 1 {
		totalPages = 1
	}
	p := float64(chapter)/float64(chapterCount) +
		float64(page)/float64(totalPages)/float64(chapterCount)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// NextStatus applies the status transition rule. Reaching the finished
// threshold promotes to finished; active reading below it promotes
// want-to-read or paused to reading. Finished is never auto-downgraded.
func NextStatus(current string, progress float64) string {
	if current == models.StatusFinished {
		return current
	}
	if progress >= finishedThreshold {
		return models.StatusFinished
	}
	if current == models.StatusWantToRead || current == models.StatusPaused || current == "" {
		return models.StatusReading
	}
	return current
}

// Tracker accounts active reading time. Start stamps when the view appears
// or the app foregrounds; Pause/End commit the elapsed slice immediately,
// counting only sessions of at least MinSession.
type Tracker struct {
	now     func() time.Time
	started time.Time
	active  bool
	total   time.Duration
}

// NewTracker creates a tracker on the wall clock.
func NewTracker() *Tracker {
	return &Tracker{now: time.Now}
}

// NewTrackerAt creates a tracker with an injected clock, for tests.
func NewTrackerAt(now func() time.Time) *Tracker {
	return &Tracker{now: now}
}

// Start begins a session. Starting an already-active session restarts its
// clock (the previous slice was already committed or is discarded as noise).
func (t *Tracker) Start() {
	t.started = t.now()
	t.active = true
}

// Active reports whether a session is running.
func (t *Tracker) Active() bool { return t.active }

// Pause commits the elapsed time since Start and returns the committed
// slice. Slices shorter than MinSession are dropped.
func (t *Tracker) Pause() time.Duration {
	if !t.active {
		return 0
	}
	t.active = false
	elapsed := t.now().Sub(t.started)
	if elapsed < MinSession {
		return 0
	}
	t.total += elapsed
	return elapsed
}

// End is Pause at the end of a session's lifecycle.
func (t *Tracker) End() time.Duration { return t.Pause() }

// Total returns the accumulated reading time across committed slices.
func (t *Tracker) Total() time.Duration { return t.total }

// SetTotal seeds the accumulated time from a persisted record.
func (t *Tracker) SetTotal(d time.Duration) {
	if d > 0 {
		t.total = d
	}
}
