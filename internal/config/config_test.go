package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("RSS_API_URL", "")
	t.Setenv("VITE_API_URL", "")
	return home
}

func TestDefaultOpener(t *testing.T) {
	expected := map[string]string{
		"darwin":  "open",
		"linux":   "xdg-open",
		"windows": "start",
	}

	opener := DefaultOpener()
	if want, ok := expected[runtime.GOOS]; ok && opener != want {
		t.Errorf("DefaultOpener() = %s, want %s for %s", opener, want, runtime.GOOS)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.API.BaseURL != "http://localhost:5001" {
		t.Errorf("API.BaseURL = %s, want http://localhost:5001", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 10*time.Second {
		t.Errorf("API.Timeout = %v, want 10s", cfg.API.Timeout)
	}
	if cfg.UI.ItemsPerPage != 10 {
		t.Errorf("UI.ItemsPerPage = %d, want 10", cfg.UI.ItemsPerPage)
	}
	if cfg.Feed.DefaultCategory != "Technology" {
		t.Errorf("Feed.DefaultCategory = %s, want Technology", cfg.Feed.DefaultCategory)
	}
	if cfg.Keys.Modifier != "ctrl" {
		t.Errorf("Keys.Modifier = %s, want 'ctrl'", cfg.Keys.Modifier)
	}
	if cfg.Log.Level != "off" {
		t.Errorf("Log.Level = %s, want off", cfg.Log.Level)
	}
}

func TestLoad_DefaultConfig(t *testing.T) {
	home := isolateHome(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.API.BaseURL != DefaultBaseURL {
		t.Errorf("API.BaseURL = %s, want %s", cfg.API.BaseURL, DefaultBaseURL)
	}
	if cfg.API.Timeout != 10*time.Second {
		t.Errorf("API.Timeout = %v, want 10s", cfg.API.Timeout)
	}
	wantDB := filepath.Join(home, ".rss", "bookmarks.db")
	if cfg.Bookmarks.Path != wantDB {
		t.Errorf("Bookmarks.Path = %s, want %s", cfg.Bookmarks.Path, wantDB)
	}
}

func TestLoad_EnvOverridesBaseURL(t *testing.T) {
	tests := []struct {
		name string
		rss  string
		vite string
		want string
	}{
		{name: "RSS_API_URL", rss: "http://api.internal:8000", want: "http://api.internal:8000"},
		{name: "VITE_API_URL fallback", vite: "http://vite.internal:5001", want: "http://vite.internal:5001"},
		{name: "RSS_API_URL wins", rss: "http://a:1", vite: "http://b:2", want: "http://a:1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateHome(t)
			t.Setenv("RSS_API_URL", tt.rss)
			t.Setenv("VITE_API_URL", tt.vite)

			cfg, err := Load("")
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if cfg.API.BaseURL != tt.want {
				t.Errorf("API.BaseURL = %s, want %s", cfg.API.BaseURL, tt.want)
			}
		})
	}
}

func TestLoad_FromFile(t *testing.T) {
	isolateHome(t)
	configPath := filepath.Join(t.TempDir(), "test-config.toml")
	configContent := `
[api]
base_url = "https://rss.example.org"
timeout = "30s"

[ui]
items_per_page = 25

[ui.colors]
primary = "#FF0000"

[bookmarks]
path = "/tmp/bookmarks-test.db"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.API.BaseURL != "https://rss.example.org" {
		t.Errorf("API.BaseURL = %s", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 30*time.Second {
		t.Errorf("API.Timeout = %v, want 30s", cfg.API.Timeout)
	}
	if cfg.UI.ItemsPerPage != 25 {
		t.Errorf("UI.ItemsPerPage = %d, want 25", cfg.UI.ItemsPerPage)
	}
	if cfg.UI.Colors.Primary != "#FF0000" {
		t.Errorf("UI.Colors.Primary = %s, want '#FF0000'", cfg.UI.Colors.Primary)
	}
	if cfg.UI.Colors.Secondary != "#4ECDC4" {
		t.Errorf("UI.Colors.Secondary = %s, want default", cfg.UI.Colors.Secondary)
	}
	if cfg.Bookmarks.Path != "/tmp/bookmarks-test.db" {
		t.Errorf("Bookmarks.Path = %s", cfg.Bookmarks.Path)
	}
	// Untouched sections keep defaults.
	if cfg.API.FetchLimit != 500 {
		t.Errorf("API.FetchLimit = %d, want 500", cfg.API.FetchLimit)
	}
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	isolateHome(t)
	configPath := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(configPath, []byte("[ui]\nitems_per_page = 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(configPath); err == nil {
		t.Fatal("Load() should reject items_per_page = 0")
	}
}

func TestSave(t *testing.T) {
	isolateHome(t)
	cfg := defaultConfig()
	cfg.API.BaseURL = "http://saved:9000"
	cfg.API.Timeout = 45 * time.Second
	cfg.UI.ItemsPerPage = 15
	cfg.UI.Colors.Primary = "#00FF00"
	cfg.Keys.Modifier = "alt"
	cfg.Browser.Opener = "firefox"

	savePath := filepath.Join(t.TempDir(), "nested", "saved-config.toml")
	if err := Save(cfg, savePath); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(savePath)
	if err != nil {
		t.Fatalf("Failed to load saved config: %v", err)
	}

	if loaded.API.BaseURL != cfg.API.BaseURL {
		t.Errorf("Loaded API.BaseURL = %s, want %s", loaded.API.BaseURL, cfg.API.BaseURL)
	}
	if loaded.API.Timeout != cfg.API.Timeout {
		t.Errorf("Loaded API.Timeout = %v, want %v", loaded.API.Timeout, cfg.API.Timeout)
	}
	if loaded.UI.ItemsPerPage != 15 {
		t.Errorf("Loaded UI.ItemsPerPage = %d, want 15", loaded.UI.ItemsPerPage)
	}
	if loaded.UI.Colors.Primary != "#00FF00" {
		t.Errorf("Loaded UI.Colors.Primary = %s", loaded.UI.Colors.Primary)
	}
	if loaded.Keys.Modifier != "alt" {
		t.Errorf("Loaded Keys.Modifier = %s, want alt", loaded.Keys.Modifier)
	}
	if loaded.Browser.Opener != "firefox" {
		t.Errorf("Loaded Browser.Opener = %s, want firefox", loaded.Browser.Opener)
	}
}

func TestGenerateDefaultConfig(t *testing.T) {
	isolateHome(t)
	configPath := filepath.Join(t.TempDir(), "generated.toml")
	if err := GenerateDefaultConfig(configPath); err != nil {
		t.Fatalf("GenerateDefaultConfig() error = %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load generated config: %v", err)
	}
	if cfg.Keys.Modifier != "ctrl" {
		t.Errorf("Generated config has Keys.Modifier = %s, want 'ctrl'", cfg.Keys.Modifier)
	}
	if cfg.UI.ItemsPerPage != DefaultItemsPerPage {
		t.Errorf("Generated config has UI.ItemsPerPage = %d", cfg.UI.ItemsPerPage)
	}
}

func TestTestConfig(t *testing.T) {
	cfg := TestConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("TestConfig() is invalid: %v", err)
	}
	if cfg.Bookmarks.Path != "" {
		t.Errorf("TestConfig Bookmarks.Path = %s, want empty", cfg.Bookmarks.Path)
	}
	if !cfg.Feed.AllowPrivateHosts {
		t.Error("TestConfig should allow private hosts for httptest servers")
	}
}
