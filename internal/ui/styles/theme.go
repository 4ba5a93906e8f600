package styles

import "github.com/charmbracelet/lipgloss"

// Theme represents a color scheme for the application. The reader's
// dark/light setting feeds the typography signature, so switching themes
// triggers a relayout.
type Theme struct {
	Name        string
	Description string

	Primary    lipgloss.Color
	Secondary  lipgloss.Color
	Background lipgloss.Color
	Foreground lipgloss.Color

	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Muted   lipgloss.Color

	Border        lipgloss.Color
	Selection     lipgloss.Color
	SelectionText lipgloss.Color
}

// Built-in themes
var (
	// DarkTheme is the default dark theme
	DarkTheme = Theme{
		Name:          "dark",
		Description:   "Dark theme (default)",
		Primary:       lipgloss.Color("#7C3AED"),
		Secondary:     lipgloss.Color("#06B6D4"),
		Background:    lipgloss.Color("#1F2937"),
		Foreground:    lipgloss.Color("#F9FAFB"),
		Success:       lipgloss.Color("#10B981"),
		Warning:       lipgloss.Color("#F59E0B"),
		Error:         lipgloss.Color("#EF4444"),
		Muted:         lipgloss.Color("#6B7280"),
		Border:        lipgloss.Color("#374151"),
		Selection:     lipgloss.Color("#7C3AED"),
		SelectionText: lipgloss.Color("#F9FAFB"),
	}

	// LightTheme is a light color scheme
	LightTheme = Theme{
		Name:          "light",
		Description:   "Light theme",
		Primary:       lipgloss.Color("#7C3AED"),
		Secondary:     lipgloss.Color("#0891B2"),
		Background:    lipgloss.Color("#F9FAFB"),
		Foreground:    lipgloss.Color("#111827"),
		Success:       lipgloss.Color("#059669"),
		Warning:       lipgloss.Color("#D97706"),
		Error:         lipgloss.Color("#DC2626"),
		Muted:         lipgloss.Color("#9CA3AF"),
		Border:        lipgloss.Color("#D1D5DB"),
		Selection:     lipgloss.Color("#7C3AED"),
		SelectionText: lipgloss.Color("#F9FAFB"),
	}
)

// ThemeFor returns the theme matching a dark/light flag.
func ThemeFor(dark bool) Theme {
	if dark {
		return DarkTheme
	}
	return LightTheme
}

// Apply rebuilds the package styles from a theme.
func Apply(t Theme) {
	current = t
	rebuild()
}

// Current returns the active theme.
func Current() Theme { return current }

var current = DarkTheme
