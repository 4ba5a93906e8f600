package views

import (
	"strings"
	"testing"

	"github.com/islareader/isla/internal/config"
	"github.com/islareader/isla/internal/reader"
	"github.com/islareader/isla/pkg/models"
)

func newTestReaderView(t *testing.T, spacing float64, content string) *ReaderView {
	t.Helper()
	cfg := &config.Config{
		Typography: reader.Typography{FontScale: 1.0, LineSpacing: spacing, Margin: 0},
		Gestures:   reader.DefaultGestureConfig(),
	}
	v := NewReaderView(nil, cfg)
	v.width, v.height = 44, 24

	book := models.Book{ID: 1, Title: "Test Book"}
	v.book = &book
	chapters := []models.Chapter{{BookID: 1, Index: 0, Title: "One", Content: content}}
	v.chapters = chapters
	v.ctrl = reader.NewController(book.ID, chapters, cfg.Typography, v, cfg.Gestures)
	v.ctrl.Gestures().SetViewport(float64(v.width))
	v.ctrl.OpenChapter(0, 0)
	return v
}

func TestSetSize_TallerViewportKeepsPosition(t *testing.T) {
	// 800 words wrap to 8 per line at width 40: 100 lines.
	v := newTestReaderView(t, 1.0, strings.Repeat("word ", 800))
	if len(v.lines) < 100 {
		t.Fatalf("content wrapped into %d lines, need 100", len(v.lines))
	}

	// 10 lines per page at height 14; read into the back half.
	v.SetSize(44, 14)
	v.ctrl.Layout().SetPageIndex(0, 7)

	// Same width, 20 lines per page: the page count shrinks to 5 and the
	// stored index gets clamped, but line 70 is page 3, not page 4 or 2.
	v.SetSize(44, 24)
	if got := v.ctrl.Layout().Current().PageIndex; got != 3 {
		t.Errorf("page after growing the viewport = %d, want 3", got)
	}
}

func TestOffsetAt_MapsCellsToRuneOffsets(t *testing.T) {
	v := newTestReaderView(t, 1.0,
		"alpha beta gamma delta epsilon zeta eta theta iota kappa")
	if len(v.lines) < 2 {
		t.Fatalf("content wrapped into %d lines, need at least 2", len(v.lines))
	}

	// Row 0 is the header; text starts on row 1, column 2 (pad, zero margin).
	off, ok := v.offsetAt(2, 1)
	if !ok || off != v.lines[0].Start {
		t.Errorf("first line start = %d, %v; want offset %d", off, ok, v.lines[0].Start)
	}
	off, ok = v.offsetAt(2, 2)
	if !ok || off != v.lines[1].Start {
		t.Errorf("second line start = %d, %v; want offset %d", off, ok, v.lines[1].Start)
	}
	if _, ok := v.offsetAt(2, 0); ok {
		t.Error("header row should not map to an offset")
	}
}

func TestOffsetAt_DoubleSpacingSkipsBlankRows(t *testing.T) {
	v := newTestReaderView(t, 2.0,
		"alpha beta gamma delta epsilon zeta eta theta iota kappa")
	if len(v.lines) < 2 {
		t.Fatalf("content wrapped into %d lines, need at least 2", len(v.lines))
	}

	// At double spacing every wrapped line is followed by one blank row, so
	// the second line sits two rows below the first.
	off, ok := v.offsetAt(2, 1)
	if !ok || off != v.lines[0].Start {
		t.Errorf("first text row = %d, %v; want offset %d", off, ok, v.lines[0].Start)
	}
	if _, ok := v.offsetAt(2, 2); ok {
		t.Error("blank spacing row should not map to an offset")
	}
	off, ok = v.offsetAt(2, 3)
	if !ok || off != v.lines[1].Start {
		t.Errorf("second text row = %d, %v; want offset %d", off, ok, v.lines[1].Start)
	}
}
