package reader

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/islareader/isla/pkg/models"
)

// EncodeAnchor builds the durable anchor for a selection boundary. The
// offset is the count of runes in the chapter's flattened text strictly
// preceding the boundary, independent of page or pixel layout.
func EncodeAnchor(chapter, page, offset int) models.Anchor {
	return models.Anchor{ChapterIndex: chapter, PageIndex: page, CharacterOffset: offset}
}

// DecodeAnchor parses a serialized anchor. A malformed or negative payload
// yields ok=false; callers treat that as "anchor missing", never fatal.
func DecodeAnchor(data []byte) (models.Anchor, bool) {
	var a models.Anchor
	if err := json.Unmarshal(data, &a); err != nil {
		return models.Anchor{}, false
	}
	if a.ChapterIndex < 0 || a.PageIndex < 0 || a.CharacterOffset < 0 {
		return models.Anchor{}, false
	}
	return a, true
}

// EncodePosition serializes a resume position as the structured text blob
// stored with reading progress.
func EncodePosition(p models.Position) string {
	data, _ := json.Marshal(p)
	return string(data)
}

// DecodePosition parses a resume payload; malformed input is a missing
// position, not an error.
func DecodePosition(payload string) (models.Position, bool) {
	var p models.Position
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return models.Position{}, false
	}
	if p.ChapterIndex < 0 || p.PageIndex < 0 || p.TotalPages < 1 {
		return models.Position{}, false
	}
	return p, true
}

// blockAtoms are the tags that break the flattened text into lines so
// paragraph structure survives markup removal.
var blockAtoms = map[atom.Atom]bool{
	atom.P: true, atom.Br: true, atom.Div: true,
	atom.H1: true, atom.H2: true, atom.H3: true,
	atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Li: true, atom.Tr: true, atom.Blockquote: true, atom.Hr: true,
}

// skipAtoms are the tags whose content never contributes text.
var skipAtoms = map[atom.Atom]bool{
	atom.Script: true,
	atom.Style:  true,
}

// FlattenText extracts the plain text of a chapter's markup by an in-order
// walk of its text nodes. Block-level tags emit line breaks; script/style
// content is skipped; whitespace runs collapse to single spaces. The walk is
// deterministic: for unchanged markup it always yields the same text, which
// is what makes rune offsets into it durable anchors. Plain text (no tags)
// passes through unchanged.
func FlattenText(markup string) string {
	if !strings.ContainsRune(markup, '<') {
		return strings.TrimSpace(markup)
	}
	tok := html.NewTokenizer(strings.NewReader(markup))
	var buf strings.Builder
	skipDepth := 0
	lastWasBreak := true

	for {
		switch tok.Next() {
		case html.ErrorToken:
			if errors.Is(tok.Err(), io.EOF) {
				return strings.TrimSpace(buf.String())
			}
			// Malformed markup degrades to whatever was extracted; the
			// anchor walk must never fail outright.
			return strings.TrimSpace(buf.String())

		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := tok.TagName()
			a := atom.Lookup(name)
			if skipAtoms[a] {
				skipDepth++
				continue
			}
			if skipDepth > 0 {
				continue
			}
			if blockAtoms[a] && buf.Len() > 0 && !lastWasBreak {
				buf.WriteByte('\n')
				lastWasBreak = true
			}

		case html.EndTagToken:
			name, _ := tok.TagName()
			if skipAtoms[atom.Lookup(name)] && skipDepth > 0 {
				skipDepth--
			}

		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			text := collapseSpace(string(tok.Text()))
			if text == "" {
				continue
			}
			if lastWasBreak {
				text = strings.TrimLeft(text, " ")
				if text == "" {
					continue
				}
			}
			buf.WriteString(text)
			lastWasBreak = false
		}
	}
}

// collapseSpace reduces whitespace runs to single spaces, keeping a leading
// and trailing space when present so inline elements stay separated.
func collapseSpace(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	out := strings.Join(fields, " ")
	if isSpace(rune(s[0])) {
		out = " " + out
	}
	if isSpace(rune(s[len(s)-1])) {
		out += " "
	}
	return out
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

// Span is a resolved highlight region over a chapter's flattened text.
type Span struct {
	Start int
	End   int
	Text  string
}

// NormalizeAnchors orders a highlight's two anchors so start < end. Anchors
// from different chapters cannot form a span.
func NormalizeAnchors(a, b models.Anchor) (start, end models.Anchor, ok bool) {
	if a.ChapterIndex != b.ChapterIndex {
		return a, b, false
	}
	if a.CharacterOffset > b.CharacterOffset {
		a, b = b, a
	}
	if a.CharacterOffset == b.CharacterOffset {
		return a, b, false
	}
	return a, b, true
}

// ResolveSpan re-walks a chapter's text and locates the region between two
// anchors. It depends only on the text sequence, never on layout, so it can
// be re-run after any reflow and yields the same span for unchanged text.
// A stale anchor (offset beyond the text) resolves to ok=false; the anchor
// itself is preserved by callers for a later attempt.
func ResolveSpan(markup string, a, b models.Anchor) (Span, bool) {
	start, end, ok := NormalizeAnchors(a, b)
	if !ok || start.CharacterOffset < 0 {
		return Span{}, false
	}
	text := FlattenText(markup)
	total := utf8.RuneCountInString(text)
	if end.CharacterOffset > total {
		return Span{}, false
	}
	runes := []rune(text)
	return Span{
		Start: start.CharacterOffset,
		End:   end.CharacterOffset,
		Text:  string(runes[start.CharacterOffset:end.CharacterOffset]),
	}, true
}
