package config

import (
	"path/filepath"
	"testing"

	"github.com/islareader/isla/internal/reader"
)

func loadTestConfig(t *testing.T) *Config {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return cfg
}

func TestLoad_DefaultsWhenMissing(t *testing.T) {
	cfg := loadTestConfig(t)
	if cfg.Typography != reader.DefaultTypography() {
		t.Errorf("typography = %+v, want defaults", cfg.Typography)
	}
	if cfg.Gestures.CommitFraction != 0.2 {
		t.Errorf("commit fraction = %v, want 0.2", cfg.Gestures.CommitFraction)
	}
}

func TestConfig_SaveAndReload(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	typ := cfg.Typography
	typ.FontScale = 1.4
	typ.Dark = true
	if err := cfg.SetTypography(typ); err != nil {
		t.Fatalf("SetTypography: %v", err)
	}

	again, err := Load()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again.Typography.FontScale != 1.4 || !again.Typography.Dark {
		t.Errorf("reloaded typography = %+v", again.Typography)
	}
}

func TestSetTypography_ClampsScale(t *testing.T) {
	cfg := loadTestConfig(t)

	typ := cfg.Typography
	typ.FontScale = 99
	if err := cfg.SetTypography(typ); err != nil {
		t.Fatalf("SetTypography: %v", err)
	}
	if cfg.Typography.FontScale != MaxFontScale {
		t.Errorf("scale = %v, want clamped to %v", cfg.Typography.FontScale, MaxFontScale)
	}

	typ.FontScale = 0.01
	if err := cfg.SetTypography(typ); err != nil {
		t.Fatalf("SetTypography: %v", err)
	}
	if cfg.Typography.FontScale != MinFontScale {
		t.Errorf("scale = %v, want clamped to %v", cfg.Typography.FontScale, MinFontScale)
	}
}

func TestConfig_LibraryDefaultsNextToConfig(t *testing.T) {
	cfg := loadTestConfig(t)
	if got, want := filepath.Base(cfg.Library()), libraryFileName; got != want {
		t.Errorf("library file = %q, want %q", got, want)
	}

	cfg.LibraryPath = "/tmp/custom.db"
	if cfg.Library() != "/tmp/custom.db" {
		t.Errorf("override ignored: %q", cfg.Library())
	}
}

func TestAddRecentlyRead_DedupesAndCaps(t *testing.T) {
	cfg := loadTestConfig(t)

	for i := int64(1); i <= int64(MaxRecentlyRead)+3; i++ {
		if err := cfg.AddRecentlyRead(i, "book"); err != nil {
			t.Fatalf("AddRecentlyRead: %v", err)
		}
	}
	if len(cfg.RecentlyRead) != MaxRecentlyRead {
		t.Errorf("list length = %d, want %d", len(cfg.RecentlyRead), MaxRecentlyRead)
	}

	// Re-opening an existing book moves it to the front without duplicating.
	if err := cfg.AddRecentlyRead(5, "book"); err != nil {
		t.Fatalf("AddRecentlyRead: %v", err)
	}
	if cfg.RecentlyRead[0].BookID != 5 {
		t.Errorf("front = %d, want 5", cfg.RecentlyRead[0].BookID)
	}
	seen := map[int64]bool{}
	for _, e := range cfg.RecentlyRead {
		if seen[e.BookID] {
			t.Fatalf("book %d appears twice", e.BookID)
		}
		seen[e.BookID] = true
	}
}
