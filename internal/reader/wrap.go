package reader

import "strings"

// Line is one wrapped visual line, with the rune offset of its first
// character in the flattened chapter text. Keeping the offset is what lets a
// visual selection map exactly back to durable anchors, and anchors map back
// to painted spans, across any reflow.
type Line struct {
	Start int
	Text  string
}

// End returns the rune offset just past the line's last character.
func (l Line) End() int {
	return l.Start + len([]rune(l.Text))
}

// Wrap greedily word-wraps flattened text to the given width, slicing the
// original string so every line keeps its exact starting offset. Words wider
// than the width are split hard. Empty paragraphs become empty lines.
func Wrap(text string, width int) []Line {
	if width < 1 {
		width = 1
	}
	var lines []Line
	offset := 0
	for _, para := range strings.Split(text, "\n") {
		lines = append(lines, wrapParagraph(para, offset, width)...)
		offset += len([]rune(para)) + 1 // +1 for the newline itself
	}
	return lines
}

func wrapParagraph(para string, base, width int) []Line {
	runes := []rune(para)
	if len(runes) == 0 {
		return []Line{{Start: base}}
	}
	var lines []Line
	pos := 0
	for pos < len(runes) {
		// Skip leading spaces between lines, but keep the offsets honest.
		for pos < len(runes) && runes[pos] == ' ' {
			pos++
		}
		if pos >= len(runes) {
			break
		}
		end := pos + width
		if end >= len(runes) {
			lines = append(lines, Line{Start: base + pos, Text: string(runes[pos:])})
			break
		}
		// Break at the last space inside the width, or hard-split a word
		// wider than the line.
		cut := -1
		for i := end; i > pos; i-- {
			if runes[i-1] == ' ' {
				cut = i - 1
				break
			}
		}
		if cut <= pos {
			cut = end
		}
		lines = append(lines, Line{Start: base + pos, Text: string(runes[pos:cut])})
		pos = cut
	}
	if len(lines) == 0 {
		lines = []Line{{Start: base}}
	}
	return lines
}

// LineAt returns the index of the wrapped line containing the given rune
// offset, or the last line if the offset is past the end.
func LineAt(lines []Line, offset int) int {
	for i := len(lines) - 1; i >= 0; i-- {
		if offset >= lines[i].Start {
			return i
		}
	}
	return 0
}
