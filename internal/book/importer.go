// Package book ingests chapter files into the library. A book is imported
// from a directory whose files, sorted by name, become the ordered chapter
// sequence. Chapter content is stored verbatim; the reading engine treats it
// as opaque markup.
package book

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/islareader/isla/internal/store"
	"github.com/islareader/isla/pkg/models"
)

// ErrNoChapters is returned when the directory holds no importable files.
var ErrNoChapters = errors.New("book: no chapter files found")

var chapterExts = map[string]bool{
	".html":  true,
	".xhtml": true,
	".htm":   true,
	".txt":   true,
	".md":    true,
}

// Import reads a directory of chapter files and stores them as one book.
// Title defaults to the directory name, chapter titles come from the markup
// (<title> or first heading) or the filename.
func Import(s *store.Store, dir, title, author string) (models.Book, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return models.Book{}, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if chapterExts[strings.ToLower(filepath.Ext(e.Name()))] {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return models.Book{}, ErrNoChapters
	}
	sort.Strings(names)

	chapters := make([]models.Chapter, 0, len(names))
	for i, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return models.Book{}, fmt.Errorf("book: reading %s: %w", name, err)
		}
		content := string(data)
		chapters = append(chapters, models.Chapter{
			Index:   i,
			Title:   chapterTitle(name, content),
			Order:   i,
			Content: content,
		})
	}

	if title == "" {
		title = filepath.Base(filepath.Clean(dir))
	}
	return s.AddBook(title, author, chapters)
}

// chapterTitle extracts a display title for a chapter: the markup's <title>
// or first heading when present, the first non-empty line for plain text,
// the bare filename otherwise.
func chapterTitle(filename, content string) string {
	if strings.Contains(content, "<") {
		if t := markupTitle(content); t != "" {
			return t
		}
	}
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(strings.Trim(line, "#"))
		if line != "" && !strings.HasPrefix(line, "<") {
			if len(line) > 80 {
				line = line[:80]
			}
			return line
		}
	}
	name := filepath.Base(filename)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

var titleAtoms = []atom.Atom{atom.Title, atom.H1, atom.H2, atom.H3}

// markupTitle finds the first <title> or heading element and returns its
// text content.
func markupTitle(content string) string {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return ""
	}
	for _, a := range titleAtoms {
		if n := findElement(doc, a); n != nil {
			if t := strings.TrimSpace(nodeText(n)); t != "" {
				return t
			}
		}
	}
	return ""
}

// findElement is a depth-first search for the first node with the given tag.
func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
