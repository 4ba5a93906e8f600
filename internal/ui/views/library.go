package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/islareader/isla/internal/config"
	"github.com/islareader/isla/internal/store"
	"github.com/islareader/isla/internal/ui/styles"
	"github.com/islareader/isla/pkg/models"
)

// LibraryView lists the imported books with their reading progress.
type LibraryView struct {
	store  *store.Store
	config *config.Config

	books    []models.Book
	progress map[int64]models.ReadingProgress
	cursor   int

	searchMode  bool
	searchInput textinput.Model
	filtered    []models.Book

	confirmDelete bool
	loading       bool
	err           error

	width  int
	height int
}

// NewLibraryView creates a new library view.
func NewLibraryView(st *store.Store, cfg *config.Config) *LibraryView {
	ti := textinput.New()
	ti.Placeholder = "Search books..."
	ti.CharLimit = 100
	return &LibraryView{
		store:       st,
		config:      cfg,
		searchInput: ti,
		progress:    make(map[int64]models.ReadingProgress),
		width:       80,
		height:      24,
	}
}

type booksLoadedMsg struct {
	books    []models.Book
	progress map[int64]models.ReadingProgress
	err      error
}

type bookDeletedMsg struct {
	id  int64
	err error
}

// Init implements View.
func (v *LibraryView) Init() tea.Cmd {
	v.loading = true
	return v.loadBooks()
}

// loadBooks fetches the library and each book's progress record.
func (v *LibraryView) loadBooks() tea.Cmd {
	return func() tea.Msg {
		books, err := v.store.ListBooks()
		if err != nil {
			return booksLoadedMsg{err: err}
		}
		progress := make(map[int64]models.ReadingProgress, len(books))
		for _, b := range books {
			if p, err := v.store.Progress(b.ID); err == nil {
				progress[b.ID] = p
			}
		}
		return booksLoadedMsg{books: books, progress: progress}
	}
}

// Update implements View.
func (v *LibraryView) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case booksLoadedMsg:
		v.loading = false
		if msg.err != nil {
			v.err = msg.err
			return v, nil
		}
		v.err = nil
		v.books = msg.books
		v.progress = msg.progress
		v.applyFilter()
		if v.cursor >= len(v.visible()) {
			v.cursor = max(0, len(v.visible())-1)
		}
		return v, nil

	case bookDeletedMsg:
		if msg.err != nil {
			v.err = msg.err
			return v, nil
		}
		return v, v.loadBooks()

	case tea.KeyMsg:
		if v.searchMode {
			return v.updateSearch(msg)
		}
		if v.confirmDelete {
			return v.updateConfirm(msg)
		}
		return v.handleKeyMsg(msg)
	}
	return v, nil
}

func (v *LibraryView) handleKeyMsg(msg tea.KeyMsg) (View, tea.Cmd) {
	books := v.visible()
	switch msg.String() {
	case "j", "down":
		if v.cursor < len(books)-1 {
			v.cursor++
		}
	case "k", "up":
		if v.cursor > 0 {
			v.cursor--
		}
	case "g", "home":
		v.cursor = 0
	case "G", "end":
		v.cursor = max(0, len(books)-1)
	case "/":
		v.searchMode = true
		v.searchInput.Focus()
		return v, textinput.Blink
	case "d", "x":
		if len(books) > 0 {
			v.confirmDelete = true
		}
	case "r":
		v.loading = true
		return v, v.loadBooks()
	case "enter", " ":
		if v.cursor < len(books) {
			book := books[v.cursor]
			_ = v.config.AddRecentlyRead(book.ID, book.Title)
			return v, func() tea.Msg { return OpenBookMsg{Book: book} }
		}
	}
	return v, nil
}

func (v *LibraryView) updateSearch(msg tea.KeyMsg) (View, tea.Cmd) {
	switch msg.String() {
	case "esc":
		v.searchMode = false
		v.searchInput.Blur()
		v.searchInput.SetValue("")
		v.applyFilter()
		return v, nil
	case "enter":
		v.searchMode = false
		v.searchInput.Blur()
		return v, nil
	}
	var cmd tea.Cmd
	v.searchInput, cmd = v.searchInput.Update(msg)
	v.applyFilter()
	v.cursor = 0
	return v, cmd
}

func (v *LibraryView) updateConfirm(msg tea.KeyMsg) (View, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.confirmDelete = false
		books := v.visible()
		if v.cursor < len(books) {
			id := books[v.cursor].ID
			return v, func() tea.Msg {
				return bookDeletedMsg{id: id, err: v.store.DeleteBook(id)}
			}
		}
	default:
		v.confirmDelete = false
	}
	return v, nil
}

// applyFilter recomputes the visible list from the search query.
func (v *LibraryView) applyFilter() {
	query := strings.ToLower(strings.TrimSpace(v.searchInput.Value()))
	if query == "" {
		v.filtered = nil
		return
	}
	v.filtered = v.filtered[:0]
	for _, b := range v.books {
		if strings.Contains(strings.ToLower(b.Title), query) ||
			strings.Contains(strings.ToLower(b.Author), query) {
			v.filtered = append(v.filtered, b)
		}
	}
}

func (v *LibraryView) visible() []models.Book {
	if strings.TrimSpace(v.searchInput.Value()) != "" {
		return v.filtered
	}
	return v.books
}

// SetSize implements View.
func (v *LibraryView) SetSize(width, height int) {
	v.width = width
	v.height = height
}

// View implements View.
func (v *LibraryView) View() string {
	if v.loading {
		return lipgloss.Place(v.width, v.height, lipgloss.Center, lipgloss.Center,
			styles.MutedText.Render("Loading library..."))
	}
	if v.err != nil {
		return styles.ErrorStyle.Render("Error: "+v.err.Error()) + "\n" +
			styles.Help.Render("r retry • q quit")
	}

	var b strings.Builder
	b.WriteString(styles.DialogTitle.Render("Library") + "\n")
	if v.searchMode || v.searchInput.Value() != "" {
		b.WriteString(styles.InputLabel.Render("Search: ") + v.searchInput.View() + "\n")
	}
	b.WriteString("\n")

	books := v.visible()
	if len(books) == 0 {
		if v.searchInput.Value() != "" {
			b.WriteString(styles.MutedText.Render("No books match.") + "\n")
		} else {
			b.WriteString(styles.MutedText.Render("Library is empty. Import a book with -import.") + "\n")
		}
	}

	maxVisible := v.height - 8
	if maxVisible < 1 {
		maxVisible = 1
	}
	offset := 0
	if v.cursor >= maxVisible {
		offset = v.cursor - maxVisible + 1
	}
	for i := offset; i < min(offset+maxVisible, len(books)); i++ {
		b.WriteString(v.renderBookLine(books[i], i == v.cursor) + "\n")
	}

	b.WriteString("\n")
	if v.confirmDelete && v.cursor < len(books) {
		b.WriteString(styles.HintBanner.Render(
			fmt.Sprintf("Delete %q and all its marks? (y/n)", books[v.cursor].Title)))
	} else {
		help := []string{
			styles.HelpKey.Render("j/k") + styles.Help.Render(" move"),
			styles.HelpKey.Render("enter") + styles.Help.Render(" read"),
			styles.HelpKey.Render("/") + styles.Help.Render(" search"),
			styles.HelpKey.Render("d") + styles.Help.Render(" delete"),
			styles.HelpKey.Render("q") + styles.Help.Render(" quit"),
		}
		b.WriteString(styles.FooterBar.Render(strings.Join(help, "  ")))
	}
	return b.String()
}

// renderBookLine renders one library row: title, author, chapters, progress.
func (v *LibraryView) renderBookLine(book models.Book, selected bool) string {
	title := styles.TruncateText(book.Title, v.width/2)
	author := book.Author
	if author == "" {
		author = "Unknown"
	}

	meta := fmt.Sprintf("%d ch", book.ChapterCount)
	if p, ok := v.progress[book.ID]; ok {
		switch p.Status {
		case models.StatusFinished:
			meta += " · " + "finished"
		case models.StatusReading, models.StatusPaused:
			meta += fmt.Sprintf(" · %d%%", int(p.ProgressPercentage*100))
		}
	}

	line := fmt.Sprintf("%s  %s  %s",
		styles.BookTitle.Render(title),
		styles.BookAuthor.Render(author),
		styles.MutedText.Render(meta))
	if selected {
		return styles.ListItemSelected.Render("▸ " + title + "  " + author + "  " + meta)
	}
	return styles.ListItem.Render("  ") + line
}
