package reader

import (
	"strings"
	"testing"

	"github.com/islareader/isla/pkg/models"
)

func TestFlattenText_PlainTextPassesThrough(t *testing.T) {
	in := "Just plain text\nwith a line break"
	if got := FlattenText(in); got != in {
		t.Errorf("FlattenText(plain):\n got: %q\nwant: %q", got, in)
	}
}

func TestFlattenText_StripsTags(t *testing.T) {
	in := `<p>Hello <em>world</em></p>`
	want := "Hello world"
	if got := FlattenText(in); got != want {
		t.Errorf("FlattenText():\n got: %q\nwant: %q", got, want)
	}
}

func TestFlattenText_BlockTagsBreakLines(t *testing.T) {
	in := `<h1>Title</h1><p>First.</p><p>Second.</p>`
	want := "Title\nFirst.\nSecond."
	if got := FlattenText(in); got != want {
		t.Errorf("FlattenText():\n got: %q\nwant: %q", got, want)
	}
}

func TestFlattenText_SkipsScriptAndStyle(t *testing.T) {
	in := `<p>Before</p><script>var x = "hidden";</script><style>p{}</style><p>After</p>`
	want := "Before\nAfter"
	if got := FlattenText(in); got != want {
		t.Errorf("FlattenText():\n got: %q\nwant: %q", got, want)
	}
}

func TestFlattenText_CollapsesWhitespace(t *testing.T) {
	in := "<p>too   many\n\t spaces</p>"
	want := "too many spaces"
	if got := FlattenText(in); got != want {
		t.Errorf("FlattenText():\n got: %q\nwant: %q", got, want)
	}
}

func TestFlattenText_Deterministic(t *testing.T) {
	in := `<div><p>Some <b>rich</b> content</p><ul><li>a</li><li>b</li></ul></div>`
	first := FlattenText(in)
	for i := 0; i < 5; i++ {
		if got := FlattenText(in); got != first {
			t.Fatalf("walk %d produced %q, first walk produced %q", i, got, first)
		}
	}
}

func TestDecodeAnchor_RoundTrip(t *testing.T) {
	a := EncodeAnchor(2, 14, 350)
	got, ok := DecodeAnchor([]byte(`{"chapterIndex":2,"pageIndex":14,"characterOffset":350}`))
	if !ok {
		t.Fatal("DecodeAnchor failed on valid payload")
	}
	if got != a {
		t.Errorf("decoded %+v, want %+v", got, a)
	}
}

func TestDecodeAnchor_Malformed(t *testing.T) {
	for _, payload := range []string{"", "not json", `{"chapterIndex":-1}`, `{"characterOffset":-5}`} {
		if _, ok := DecodeAnchor([]byte(payload)); ok {
			t.Errorf("DecodeAnchor(%q) accepted malformed payload", payload)
		}
	}
}

func TestDecodePosition_RoundTrip(t *testing.T) {
	p := models.Position{ChapterIndex: 3, PageIndex: 7, TotalPages: 20}
	got, ok := DecodePosition(EncodePosition(p))
	if !ok || got != p {
		t.Errorf("round trip = %+v, %v; want %+v", got, ok, p)
	}
}

func TestDecodePosition_Malformed(t *testing.T) {
	for _, payload := range []string{"", "garbage", `{"totalPages":0}`, `{"chapterIndex":-1,"totalPages":1}`} {
		if _, ok := DecodePosition(payload); ok {
			t.Errorf("DecodePosition(%q) accepted malformed payload", payload)
		}
	}
}

func TestNormalizeAnchors(t *testing.T) {
	a := EncodeAnchor(1, 0, 150)
	b := EncodeAnchor(1, 0, 120)

	start, end, ok := NormalizeAnchors(a, b)
	if !ok {
		t.Fatal("inverted anchors in the same chapter should normalize")
	}
	if start.CharacterOffset != 120 || end.CharacterOffset != 150 {
		t.Errorf("normalized to [%d, %d), want [120, 150)", start.CharacterOffset, end.CharacterOffset)
	}

	if _, _, ok := NormalizeAnchors(a, a); ok {
		t.Error("equal anchors should be rejected")
	}
	if _, _, ok := NormalizeAnchors(EncodeAnchor(0, 0, 5), EncodeAnchor(1, 0, 9)); ok {
		t.Error("cross-chapter anchors should be rejected")
	}
}

func TestResolveSpan_ExtractsText(t *testing.T) {
	markup := `<p>The quick brown fox jumps over the lazy dog.</p>`
	span, ok := ResolveSpan(markup, EncodeAnchor(0, 0, 4), EncodeAnchor(0, 0, 9))
	if !ok {
		t.Fatal("ResolveSpan failed on valid anchors")
	}
	if span.Text != "quick" {
		t.Errorf("span text = %q, want %q", span.Text, "quick")
	}
	if span.Start != 4 || span.End != 9 {
		t.Errorf("span bounds = [%d, %d), want [4, 9)", span.Start, span.End)
	}
}

func TestResolveSpan_IdempotentAcrossReruns(t *testing.T) {
	markup := `<h2>Chapter</h2><p>Anchors survive any reflow because they never reference layout.</p>`
	a, b := EncodeAnchor(0, 3, 10), EncodeAnchor(0, 3, 25)

	first, ok := ResolveSpan(markup, a, b)
	if !ok {
		t.Fatal("first resolution failed")
	}
	for i := 0; i < 3; i++ {
		again, ok := ResolveSpan(markup, a, b)
		if !ok || again != first {
			t.Fatalf("re-resolution %d = %+v, %v; want %+v", i, again, ok, first)
		}
	}
}

func TestResolveSpan_StaleAnchor(t *testing.T) {
	markup := `<p>short</p>`
	if _, ok := ResolveSpan(markup, EncodeAnchor(0, 0, 2), EncodeAnchor(0, 0, 500)); ok {
		t.Error("anchor past the end of the text should not resolve")
	}
}

func TestResolveSpan_UnicodeOffsetsAreRunes(t *testing.T) {
	markup := "<p>héllo wörld</p>"
	span, ok := ResolveSpan(markup, EncodeAnchor(0, 0, 0), EncodeAnchor(0, 0, 5))
	if !ok {
		t.Fatal("ResolveSpan failed")
	}
	if span.Text != "héllo" {
		t.Errorf("span text = %q, want %q", span.Text, "héllo")
	}
}

func TestFlattenText_LongDocumentStable(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 200; i++ {
		b.WriteString("<p>paragraph body text here</p>")
	}
	flat := FlattenText(b.String())
	if lines := strings.Count(flat, "\n"); lines != 199 {
		t.Errorf("flattened 200 paragraphs into %d breaks, want 199", lines)
	}
}
