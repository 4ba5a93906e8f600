package reader

import "testing"

func TestComputePageCount_Rounding(t *testing.T) {
	tests := []struct {
		name     string
		rendered int
		viewport int
		want     int
	}{
		{"exact multiple", 1000, 100, 10},
		{"partial last page", 1050, 100, 11},
		{"single page fit", 80, 100, 1},
		{"empty content", 0, 100, 1},
		{"negative rendered", -5, 100, 1},
		{"zero viewport", 500, 0, 1},
		{"one unit over", 101, 100, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputePageCount(tt.rendered, tt.viewport); got != tt.want {
				t.Errorf("ComputePageCount(%d, %d) = %d, want %d",
					tt.rendered, tt.viewport, got, tt.want)
			}
		})
	}
}

func TestLayout_DefaultState(t *testing.T) {
	l := NewLayout(3)
	s := l.State(1)
	if s.PageIndex != 0 || s.TotalPages != 1 {
		t.Errorf("unmeasured chapter state = %+v, want {0 1}", s)
	}
}

func TestLayout_ReportPageCountReclamps(t *testing.T) {
	l := NewLayout(1)
	l.ReportPageCount(0, 10, "sig-a")
	l.SetPageIndex(0, 9)

	// Shrinking the count must pull the index back inside the new range.
	s := l.ReportPageCount(0, 4, "sig-b")
	if s.PageIndex != 3 || s.TotalPages != 4 {
		t.Errorf("after shrink state = %+v, want {3 4}", s)
	}

	// A zero or negative count floors at one page.
	s = l.ReportPageCount(0, 0, "sig-c")
	if s.PageIndex != 0 || s.TotalPages != 1 {
		t.Errorf("after zero report state = %+v, want {0 1}", s)
	}
}

func TestLayout_SetPageIndexClamps(t *testing.T) {
	l := NewLayout(1)
	l.ReportPageCount(0, 5, "sig")

	if s := l.SetPageIndex(0, 99); s.PageIndex != 4 {
		t.Errorf("over-range index = %d, want 4", s.PageIndex)
	}
	if s := l.SetPageIndex(0, -3); s.PageIndex != 0 {
		t.Errorf("negative index = %d, want 0", s.PageIndex)
	}
}

func TestLayout_Invalidate(t *testing.T) {
	l := NewLayout(1)
	l.ReportPageCount(0, 5, "sig-a")

	if l.Invalidate(0, "sig-a") {
		t.Error("same signature should not require relayout")
	}
	if !l.Invalidate(0, "sig-b") {
		t.Error("changed signature should require relayout")
	}
	// The page state stays consistent while the new count is pending.
	s := l.State(0)
	if s.PageIndex >= s.TotalPages {
		t.Errorf("invalidated state %+v violates index < total", s)
	}
}

func TestLayout_AdvanceWithinChapter(t *testing.T) {
	l := NewLayout(2)
	l.ReportPageCount(0, 3, "a")

	move, ok := l.Advance(Forward)
	if !ok || move.Chapter != 0 || move.Page != 1 || move.CrossedChapter {
		t.Errorf("Advance(Forward) = %+v, %v", move, ok)
	}
	move, ok = l.Advance(Backward)
	if !ok || move.Page != 0 || move.CrossedChapter {
		t.Errorf("Advance(Backward) = %+v, %v", move, ok)
	}
}

func TestLayout_AdvanceCrossesChapters(t *testing.T) {
	l := NewLayout(2)
	l.ReportPageCount(0, 2, "a")
	l.ReportPageCount(1, 3, "b")
	l.SetPageIndex(0, 1)

	// Forward off the last page lands on the next chapter's first page.
	move, ok := l.Advance(Forward)
	if !ok || move.Chapter != 1 || move.Page != 0 || !move.CrossedChapter {
		t.Errorf("forward crossing = %+v, %v", move, ok)
	}

	// Backward off the first page lands on the previous chapter's last page.
	move, ok = l.Advance(Backward)
	if !ok || move.Chapter != 0 || move.Page != 1 || !move.CrossedChapter {
		t.Errorf("backward crossing = %+v, %v", move, ok)
	}
}

func TestLayout_AdvanceAtBookBoundary(t *testing.T) {
	l := NewLayout(1)
	l.ReportPageCount(0, 1, "a")

	if _, ok := l.Advance(Forward); ok {
		t.Error("Advance(Forward) at end of book should fail")
	}
	if _, ok := l.Advance(Backward); ok {
		t.Error("Advance(Backward) at start of book should fail")
	}
	// State unchanged after both refusals.
	if s := l.Current(); s.PageIndex != 0 {
		t.Errorf("boundary refusal moved to page %d", s.PageIndex)
	}
}

func TestLayout_CanAdvance(t *testing.T) {
	l := NewLayout(2)
	l.ReportPageCount(0, 1, "a")
	l.ReportPageCount(1, 1, "b")

	if !l.CanAdvance(Forward) {
		t.Error("should advance forward into chapter 2")
	}
	if l.CanAdvance(Backward) {
		t.Error("should not advance backward from the first page of the book")
	}
	l.SetChapter(1)
	if l.CanAdvance(Forward) {
		t.Error("should not advance forward past the last page of the book")
	}
	if !l.CanAdvance(Backward) {
		t.Error("should advance backward into chapter 1")
	}
}

func TestLayout_ResizePreservesContentPosition(t *testing.T) {
	l := NewLayout(1)
	// 100 lines at 10 per page: page 4 starts at line 40.
	l.ReportPageCount(0, 10, "before")
	l.SetPageIndex(0, 4)

	// 20 per page: line 40 is now on page 2.
	l.ReportPageCount(0, 5, "after")
	s := l.Resize(0, 4, 10, 20)
	if s.PageIndex != 2 {
		t.Errorf("resized page = %d, want 2", s.PageIndex)
	}
}

func TestLayout_ResizeSurvivesPreReportClamp(t *testing.T) {
	l := NewLayout(1)
	l.ReportPageCount(0, 10, "before")
	s := l.SetPageIndex(0, 7)
	oldIndex := s.PageIndex

	// Reporting the new, smaller count clamps the stored index to 4. The
	// index captured beforehand still recovers line 70 as page 3 of 5.
	l.ReportPageCount(0, 5, "after")
	if s := l.Resize(0, oldIndex, 10, 20); s.PageIndex != 3 {
		t.Errorf("resized page = %d, want 3", s.PageIndex)
	}
}

func TestScrollOffset(t *testing.T) {
	if got := ScrollOffset(3, 25); got != 75 {
		t.Errorf("ScrollOffset(3, 25) = %d, want 75", got)
	}
}
