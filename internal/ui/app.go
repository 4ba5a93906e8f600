package ui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/islareader/isla/internal/config"
	"github.com/islareader/isla/internal/store"
	"github.com/islareader/isla/internal/ui/styles"
	"github.com/islareader/isla/internal/ui/views"
)

// App is the main application model
type App struct {
	config *config.Config
	store  *store.Store
	keys   KeyMap

	// Current view state
	currentView views.ViewType

	// Window dimensions
	width  int
	height int

	// View models
	libraryView views.View
	readerView  views.View

	// Error/status message
	err      error
	showHelp bool
}

// NewApp creates a new application instance
func NewApp(cfg *config.Config, st *store.Store) *App {
	app := &App{
		config:      cfg,
		store:       st,
		keys:        DefaultKeyMap(),
		currentView: views.ViewLibrary,
		width:       80,
		height:      24,
	}

	if theme := cfg.Theme; theme == "light" {
		styles.Apply(styles.LightTheme)
	}

	app.libraryView = views.NewLibraryView(st, cfg)
	app.readerView = views.NewReaderView(st, cfg)

	return app
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.getCurrentView().Init(),
		tea.SetWindowTitle("isla"),
	)
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.libraryView.SetSize(msg.Width, msg.Height)
		a.readerView.SetSize(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, a.keys.ForceQuit):
			return a.quit()

		case key.Matches(msg, a.keys.Help):
			// The reader owns its keys while open; help only overlays the
			// library.
			if a.currentView == views.ViewLibrary {
				a.showHelp = !a.showHelp
				return a, nil
			}

		case key.Matches(msg, a.keys.Quit):
			if a.showHelp {
				a.showHelp = false
				return a, nil
			}
			if a.currentView == views.ViewLibrary {
				return a.quit()
			}
		}
		if a.showHelp {
			a.showHelp = false
			return a, nil
		}

	case views.OpenBookMsg:
		a.readerView.(*views.ReaderView).SetBook(msg.Book)
		return a.switchView(views.ViewReader)

	case views.CloseBookMsg:
		return a.switchView(views.ViewLibrary)

	case views.ErrorMsg:
		a.err = msg.Err
		return a, nil

	case views.ClearErrorMsg:
		a.err = nil
		return a, nil

	case views.SwitchViewMsg:
		return a.switchView(msg.View)
	}

	// Delegate to current view
	var cmd tea.Cmd
	switch a.currentView {
	case views.ViewLibrary:
		a.libraryView, cmd = a.libraryView.Update(msg)
	case views.ViewReader:
		a.readerView, cmd = a.readerView.Update(msg)
	}
	return a, cmd
}

// View implements tea.Model
func (a *App) View() string {
	var content string
	switch a.currentView {
	case views.ViewLibrary:
		content = a.libraryView.View()
	case views.ViewReader:
		content = a.readerView.View()
	default:
		content = "Unknown view"
	}

	if a.err != nil {
		errorBar := styles.ErrorStyle.Render("Error: " + a.err.Error())
		content = lipgloss.JoinVertical(lipgloss.Left, content, errorBar)
	}

	if a.showHelp {
		content = a.renderHelp()
	}

	return content
}

// quit commits any open reading session before exiting.
func (a *App) quit() (*App, tea.Cmd) {
	if a.currentView == views.ViewReader {
		a.readerView.(*views.ReaderView).SavePositionOnExit()
	}
	return a, tea.Quit
}

// switchView changes the current view and initializes it
func (a *App) switchView(view views.ViewType) (*App, tea.Cmd) {
	// Save position when leaving the reader
	if a.currentView == views.ViewReader && view != views.ViewReader {
		a.readerView.(*views.ReaderView).SavePositionOnExit()
	}

	a.currentView = view
	a.err = nil

	return a, a.getCurrentView().Init()
}

// getCurrentView returns the current view model
func (a *App) getCurrentView() views.View {
	switch a.currentView {
	case views.ViewReader:
		return a.readerView
	default:
		return a.libraryView
	}
}

// renderHelp renders the help overlay
func (a *App) renderHelp() string {
	help := styles.Dialog.Width(60).Render(
		styles.DialogTitle.Render("Keyboard Shortcuts") + "\n\n" +
			styles.HelpKey.Render("Library") + "\n" +
			"  j/↓     Move down\n" +
			"  k/↑     Move up\n" +
			"  /       Search\n" +
			"  Enter   Open book\n" +
			"  d       Delete book\n\n" +
			styles.HelpKey.Render("Reader") + "\n" +
			"  h/l     Previous/Next page\n" +
			"  Space   Next page\n" +
			"  p/n     Previous/Next chapter\n" +
			"  t       Table of contents\n" +
			"  B/b     Add/List bookmarks\n" +
			"  v       Select text to highlight\n" +
			"  x       List highlights\n" +
			"  +/-/0   Text size\n" +
			"  s/m     Line spacing / margins\n" +
			"  D       Dark/light mode\n" +
			"  c       Hide toolbar\n\n" +
			styles.HelpKey.Render("General") + "\n" +
			"  q/Esc   Back / Quit\n" +
			"  ?       Toggle help\n",
	)

	return lipgloss.Place(
		a.width,
		a.height,
		lipgloss.Center,
		lipgloss.Center,
		help,
	)
}
