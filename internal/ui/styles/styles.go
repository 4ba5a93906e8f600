package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

var (
	// Help text
	Help    lipgloss.Style
	HelpKey lipgloss.Style

	// Text styles
	MutedText     lipgloss.Style
	SecondaryText lipgloss.Style
	ErrorStyle    lipgloss.Style
	SuccessStyle  lipgloss.Style

	// List styles
	ListItem         lipgloss.Style
	ListItemSelected lipgloss.Style
	ListItemDimmed   lipgloss.Style

	// Reader styles
	ReaderContent  lipgloss.Style
	ReaderHeader   lipgloss.Style
	ReaderProgress lipgloss.Style
	HintBanner     lipgloss.Style
	SelectionStyle lipgloss.Style

	// Dialog/Modal styles
	Dialog      lipgloss.Style
	DialogTitle lipgloss.Style

	// Footer bar
	FooterBar lipgloss.Style

	// Book info styles
	BookTitle  lipgloss.Style
	BookAuthor lipgloss.Style

	// Input field
	InputLabel lipgloss.Style
)

func rebuild() {
	t := current

	Help = lipgloss.NewStyle().Foreground(t.Muted)
	HelpKey = lipgloss.NewStyle().Foreground(t.Secondary).Bold(true)

	MutedText = lipgloss.NewStyle().Foreground(t.Muted)
	SecondaryText = lipgloss.NewStyle().Foreground(t.Secondary)
	ErrorStyle = lipgloss.NewStyle().Foreground(t.Error).Bold(true).Padding(0, 1)
	SuccessStyle = lipgloss.NewStyle().Foreground(t.Success).Bold(true).Padding(0, 1)

	ListItem = lipgloss.NewStyle().Foreground(t.Foreground).Padding(0, 2)
	ListItemSelected = lipgloss.NewStyle().Foreground(t.SelectionText).Background(t.Selection).Padding(0, 2).Bold(true)
	ListItemDimmed = lipgloss.NewStyle().Foreground(t.Muted).Padding(0, 2)

	ReaderContent = lipgloss.NewStyle().Foreground(t.Foreground)
	ReaderHeader = lipgloss.NewStyle().Foreground(t.SelectionText).Background(t.Primary).Padding(0, 1).Bold(true)
	ReaderProgress = lipgloss.NewStyle().Foreground(t.Secondary).Align(lipgloss.Right)
	HintBanner = lipgloss.NewStyle().Foreground(t.Warning).Bold(true).Padding(0, 1)
	SelectionStyle = lipgloss.NewStyle().Background(t.Selection).Foreground(t.SelectionText)

	Dialog = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(t.Primary).Padding(1, 2)
	DialogTitle = lipgloss.NewStyle().Foreground(t.Primary).Bold(true).MarginBottom(1)

	FooterBar = lipgloss.NewStyle().Foreground(t.Muted).Padding(0, 1)

	BookTitle = lipgloss.NewStyle().Foreground(t.Foreground).Bold(true)
	BookAuthor = lipgloss.NewStyle().Foreground(t.Secondary)

	InputLabel = lipgloss.NewStyle().Foreground(t.Foreground).Bold(true)
}

func init() {
	rebuild()
}

// Highlight returns a painting style for a highlight color hex value.
func Highlight(colorHex string) lipgloss.Style {
	return lipgloss.NewStyle().Background(lipgloss.Color(colorHex)).Foreground(lipgloss.Color("#111827"))
}

// TruncateText shortens text to maxWidth display cells, unicode-safe.
func TruncateText(text string, maxWidth int) string {
	if runewidth.StringWidth(text) <= maxWidth {
		return text
	}
	if maxWidth <= 3 {
		return runewidth.Truncate(text, maxWidth, "")
	}
	return runewidth.Truncate(text, maxWidth, "...")
}
