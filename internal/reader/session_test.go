package reader

import (
	"testing"
	"time"

	"github.com/islareader/isla/pkg/models"
)

func TestProgress_Formula(t *testing.T) {
	tests := []struct {
		name       string
		chapter    int
		count      int
		page       int
		totalPages int
		want       float64
	}{
		{"start of book", 0, 10, 0, 5, 0},
		{"halfway through first chapter pages", 0, 2, 1, 2, 0.25},
		{"second of two chapters", 1, 2, 0, 4, 0.5},
		{"single page chapter", 1, 4, 0, 1, 0.25},
		{"no chapters", 0, 0, 0, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Progress(tt.chapter, tt.count, tt.page, tt.totalPages)
			if got != tt.want {
				t.Errorf("Progress(%d,%d,%d,%d) = %v, want %v",
					tt.chapter, tt.count, tt.page, tt.totalPages, got, tt.want)
			}
		})
	}
}

func TestProgress_Clamped(t *testing.T) {
	if got := Progress(9, 10, 99, 10); got > 1 {
		t.Errorf("Progress = %v, want clamped to 1", got)
	}
	if got := Progress(-1, 10, 0, 1); got < 0 {
		t.Errorf("Progress = %v, want clamped to 0", got)
	}
}

func TestProgress_MonotonicThroughBook(t *testing.T) {
	// Walking every page of a 3-chapter book forward never decreases the
	// fraction, including across chapter boundaries.
	pages := []int{4, 1, 6}
	last := -1.0
	for ch := 0; ch < len(pages); ch++ {
		for p := 0; p < pages[ch]; p++ {
			got := Progress(ch, len(pages), p, pages[ch])
			if got < last {
				t.Fatalf("progress decreased at ch %d page %d: %v < %v", ch, p, got, last)
			}
			last = got
		}
	}
}

func TestNextStatus_Transitions(t *testing.T) {
	tests := []struct {
		name     string
		current  string
		progress float64
		want     string
	}{
		{"want-to-read starts reading", models.StatusWantToRead, 0.1, models.StatusReading},
		{"paused resumes reading", models.StatusPaused, 0.5, models.StatusReading},
		{"empty status starts reading", "", 0.1, models.StatusReading},
		{"reading stays reading", models.StatusReading, 0.5, models.StatusReading},
		{"threshold promotes to finished", models.StatusReading, 0.99, models.StatusFinished},
		{"above threshold finishes", models.StatusWantToRead, 1.0, models.StatusFinished},
		{"finished never downgrades", models.StatusFinished, 0.2, models.StatusFinished},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextStatus(tt.current, tt.progress); got != tt.want {
				t.Errorf("NextStatus(%q, %v) = %q, want %q", tt.current, tt.progress, got, tt.want)
			}
		})
	}
}

// fakeClock steps a tracker's time by hand.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestTracker_CommitsSessionOnPause(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	tr := NewTrackerAt(clock.now)

	tr.Start()
	clock.advance(90 * time.Second)
	if got := tr.Pause(); got != 90*time.Second {
		t.Errorf("committed slice = %v, want 90s", got)
	}
	if tr.Total() != 90*time.Second {
		t.Errorf("total = %v, want 90s", tr.Total())
	}
}

func TestTracker_DropsSubSecondSessions(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	tr := NewTrackerAt(clock.now)
	tr.SetTotal(10 * time.Second)

	tr.Start()
	clock.advance(400 * time.Millisecond)
	if got := tr.End(); got != 0 {
		t.Errorf("0.4s session committed %v, want 0", got)
	}
	if tr.Total() != 10*time.Second {
		t.Errorf("total changed to %v, want unchanged 10s", tr.Total())
	}
}

func TestTracker_AccumulatesAcrossSessions(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	tr := NewTrackerAt(clock.now)

	tr.Start()
	clock.advance(2 * time.Second)
	tr.Pause()

	tr.Start()
	clock.advance(3 * time.Second)
	tr.Pause()

	if tr.Total() != 5*time.Second {
		t.Errorf("total = %v, want 5s", tr.Total())
	}
}

func TestTracker_PauseWithoutStart(t *testing.T) {
	tr := NewTracker()
	if got := tr.Pause(); got != 0 {
		t.Errorf("pause without start committed %v", got)
	}
	if tr.Active() {
		t.Error("tracker should be inactive")
	}
}
