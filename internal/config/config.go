package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/islareader/isla/internal/reader"
)

const (
	configFileName  = "config.json"
	configDirName   = "isla"
	libraryFileName = "library.db"

	// MaxRecentlyRead is how many recently opened books are tracked.
	MaxRecentlyRead = 10
)

// Text scale bounds for the reader.
const (
	MinFontScale     = 0.5
	MaxFontScale     = 3.0
	DefaultFontScale = 1.0
	FontScaleStep    = 0.1
)

// RecentlyReadEntry records a recently opened book.
type RecentlyReadEntry struct {
	BookID   int64     `json:"book_id"`
	Title    string    `json:"title"`
	OpenedAt time.Time `json:"opened_at"`
}

// Config holds the application configuration. Typography is the explicit
// value handed to the layout engine on every recomputation — it never acts
// as ambient process state.
type Config struct {
	LibraryPath  string               `json:"library_path,omitempty"`
	Typography   reader.Typography    `json:"typography"`
	Gestures     reader.GestureConfig `json:"gestures"`
	Theme        string               `json:"theme,omitempty"`
	RecentlyRead []RecentlyReadEntry  `json:"recently_read,omitempty"`

	// Path to config file (not persisted)
	path string `json:"-"`
}

// Load loads configuration from the config file, falling back to defaults.
func Load() (*Config, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Typography: reader.DefaultTypography(),
		Gestures:   reader.DefaultGestureConfig(),
		path:       configPath,
	}

	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.path = configPath
	cfg.clampTypography()
	return cfg, nil
}

// Save persists the configuration to disk.
func (c *Config) Save() error {
	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, data, 0o600)
}

// Library returns the library database path, defaulting next to the config.
func (c *Config) Library() string {
	if c.LibraryPath != "" {
		return c.LibraryPath
	}
	return filepath.Join(filepath.Dir(c.path), libraryFileName)
}

// SetTypography updates typography settings and saves.
func (c *Config) SetTypography(t reader.Typography) error {
	c.Typography = t
	c.clampTypography()
	return c.Save()
}

func (c *Config) clampTypography() {
	if c.Typography.FontScale < MinFontScale {
		c.Typography.FontScale = MinFontScale
	}
	if c.Typography.FontScale > MaxFontScale {
		c.Typography.FontScale = MaxFontScale
	}
	if c.Typography.LineSpacing < 1 {
		c.Typography.LineSpacing = 1
	}
	if c.Typography.Margin < 0 {
		c.Typography.Margin = 0
	}
}

// AddRecentlyRead moves a book to the front of the recently read list.
func (c *Config) AddRecentlyRead(bookID int64, title string) error {
	newList := make([]RecentlyReadEntry, 0, MaxRecentlyRead)
	for _, entry := range c.RecentlyRead {
		if entry.BookID != bookID {
			newList = append(newList, entry)
		}
	}
	entry := RecentlyReadEntry{BookID: bookID, Title: title, OpenedAt: time.Now()}
	c.RecentlyRead = append([]RecentlyReadEntry{entry}, newList...)
	if len(c.RecentlyRead) > MaxRecentlyRead {
		c.RecentlyRead = c.RecentlyRead[:MaxRecentlyRead]
	}
	return c.Save()
}

// getConfigPath returns the path to the config file.
func getConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, configDirName, configFileName), nil
}
