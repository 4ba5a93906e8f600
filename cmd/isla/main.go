package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/islareader/isla/internal/book"
	"github.com/islareader/isla/internal/config"
	"github.com/islareader/isla/internal/store"
	"github.com/islareader/isla/internal/ui"
)

func main() {
	// Define flags
	importDir := flag.String("import", "", "Import a directory of chapter files as a book")
	flag.StringVar(importDir, "i", "", "Import a book (shorthand)")
	title := flag.String("title", "", "Title for the imported book (defaults to the directory name)")
	author := flag.String("author", "", "Author for the imported book")
	dbPath := flag.String("db", "", "Library database path (overrides config)")
	showHelp := flag.Bool("help", false, "Show help message")
	flag.BoolVar(showHelp, "h", false, "Show help (shorthand)")
	debug := flag.Bool("debug", false, "Log debug output to debug.log")

	flag.Parse()

	if *showHelp {
		printUsage()
		os.Exit(0)
	}

	if *debug {
		f, err := tea.LogToFile("debug.log", "isla")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening debug log: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *dbPath != "" {
		cfg.LibraryPath = *dbPath
	}

	st, err := store.Open(cfg.Library())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening library: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	// Handle import mode
	if *importDir != "" {
		if err := handleImport(st, *importDir, *title, *author); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Run TUI mode
	app := ui.NewApp(cfg, st)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("isla - terminal book reader")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  isla                        Start the reader")
	fmt.Println("  isla -import <dir>          Import a directory of chapter files")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -i, --import <dir>     Import a book from a directory")
	fmt.Println("      --title <title>    Title for the imported book")
	fmt.Println("      --author <name>    Author for the imported book")
	fmt.Println("      --db <path>        Library database path")
	fmt.Println("      --debug            Log debug output to debug.log")
	fmt.Println("  -h, --help             Show this help message")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  isla -import ~/books/dracula --author 'Bram Stoker'")
	fmt.Println("  isla --db ~/library.db")
	fmt.Println()
	fmt.Println("Config: ~/.config/isla/config.json")
}

func handleImport(st *store.Store, dir, title, author string) error {
	b, err := book.Import(st, dir, title, author)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %q", b.Title)
	if b.Author != "" {
		fmt.Printf(" by %s", b.Author)
	}
	fmt.Printf(" (%d chapters)\n", b.ChapterCount)
	return nil
}
