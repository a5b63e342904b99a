package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// DefaultBaseURL is the local development endpoint of the rss-reader API.
	DefaultBaseURL = "http://localhost:5001"
	// DefaultItemsPerPage is the page size of the article list.
	DefaultItemsPerPage = 10
	// DefaultCategory is used when a feed is added without a category.
	DefaultCategory = "Technology"
)

type Config struct {
	API       APIConfig       `mapstructure:"api"`
	Feed      FeedConfig      `mapstructure:"feed"`
	UI        UIConfig        `mapstructure:"ui"`
	Bookmarks BookmarksConfig `mapstructure:"bookmarks"`
	Browser   BrowserConfig   `mapstructure:"browser"`
	Keys      KeyConfig       `mapstructure:"keys"`
	Log       LogConfig       `mapstructure:"log"`
}

type APIConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	FetchLimit int           `mapstructure:"fetch_limit"`
}

type FeedConfig struct {
	ProbeTimeout      time.Duration `mapstructure:"probe_timeout"`
	UserAgent         string        `mapstructure:"user_agent"`
	DefaultCategory   string        `mapstructure:"default_category"`
	AllowPrivateHosts bool          `mapstructure:"allow_private_hosts"`
}

type UIConfig struct {
	ItemsPerPage int           `mapstructure:"items_per_page"`
	Colors       UIColors      `mapstructure:"colors"`
	Article      ArticleConfig `mapstructure:"article"`
}

type UIColors struct {
	Primary   string `mapstructure:"primary"`
	Secondary string `mapstructure:"secondary"`
	Accent    string `mapstructure:"accent"`
	Text      string `mapstructure:"text"`
	Muted     string `mapstructure:"muted"`
	Unread    string `mapstructure:"unread"`
	Error     string `mapstructure:"error"`
}

type ArticleConfig struct {
	MaxDescriptionLength int    `mapstructure:"max_description_length"`
	WordWrapMaxWidth     int    `mapstructure:"word_wrap_max_width"`
	WordWrapMinWidth     int    `mapstructure:"word_wrap_min_width"`
	GlamourStyle         string `mapstructure:"glamour_style"`
}

type BookmarksConfig struct {
	Path        string        `mapstructure:"path"`
	Timeout     time.Duration `mapstructure:"timeout"`
	SearchIndex string        `mapstructure:"search_index"`
}

type BrowserConfig struct {
	// Opener overrides the platform default (open, xdg-open, start).
	Opener string `mapstructure:"opener"`
}

type KeyConfig struct {
	Modifier string `mapstructure:"modifier"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

func defaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".rss")

	return &Config{
		API: APIConfig{
			BaseURL:    DefaultBaseURL,
			Timeout:    10 * time.Second,
			FetchLimit: 500,
		},
		Feed: FeedConfig{
			ProbeTimeout:    15 * time.Second,
			UserAgent:       "rss-reader/1.0 (+https://github.com/pders01/rss-reader)",
			DefaultCategory: DefaultCategory,
		},
		UI: UIConfig{
			ItemsPerPage: DefaultItemsPerPage,
			Colors: UIColors{
				Primary:   "#FF6B6B",
				Secondary: "#4ECDC4",
				Accent:    "#95E1D3",
				Text:      "#EAEAEA",
				Muted:     "#94A3B8",
				Unread:    "#FFE66D",
				Error:     "#EF4444",
			},
			Article: ArticleConfig{
				MaxDescriptionLength: 120,
				WordWrapMaxWidth:     120,
				WordWrapMinWidth:     40,
			},
		},
		Bookmarks: BookmarksConfig{
			Path:        filepath.Join(dataDir, "bookmarks.db"),
			Timeout:     1 * time.Second,
			SearchIndex: filepath.Join(dataDir, "bookmarks.bleve"),
		},
		Keys: KeyConfig{
			Modifier: "ctrl",
		},
		Log: LogConfig{
			Level: "off",
			File:  filepath.Join(dataDir, "rss.log"),
		},
	}
}

// DefaultColors is the built-in ui.colors palette.
func DefaultColors() UIColors {
	return defaultConfig().UI.Colors
}

// DefaultOpener returns the command that opens a URL on the running platform.
func DefaultOpener() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "windows":
		return "start"
	default:
		return "xdg-open"
	}
}

// DefaultConfigPath is where Load looks when no explicit path is given.
func DefaultConfigPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "rss", "config.toml")
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("api.base_url", cfg.API.BaseURL)
	v.SetDefault("api.timeout", cfg.API.Timeout)
	v.SetDefault("api.fetch_limit", cfg.API.FetchLimit)

	v.SetDefault("feed.probe_timeout", cfg.Feed.ProbeTimeout)
	v.SetDefault("feed.user_agent", cfg.Feed.UserAgent)
	v.SetDefault("feed.default_category", cfg.Feed.DefaultCategory)
	v.SetDefault("feed.allow_private_hosts", cfg.Feed.AllowPrivateHosts)

	v.SetDefault("ui.items_per_page", cfg.UI.ItemsPerPage)
	for key, value := range colorsMap(cfg.UI.Colors) {
		v.SetDefault("ui.colors."+key, value)
	}
	for key, value := range articleMap(cfg.UI.Article) {
		v.SetDefault("ui.article."+key, value)
	}

	v.SetDefault("bookmarks.path", cfg.Bookmarks.Path)
	v.SetDefault("bookmarks.timeout", cfg.Bookmarks.Timeout)
	v.SetDefault("bookmarks.search_index", cfg.Bookmarks.SearchIndex)

	v.SetDefault("browser.opener", cfg.Browser.Opener)
	v.SetDefault("keys.modifier", cfg.Keys.Modifier)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.file", cfg.Log.File)
}

func colorsMap(c UIColors) map[string]interface{} {
	return map[string]interface{}{
		"primary":   c.Primary,
		"secondary": c.Secondary,
		"accent":    c.Accent,
		"text":      c.Text,
		"muted":     c.Muted,
		"unread":    c.Unread,
		"error":     c.Error,
	}
}

func articleMap(a ArticleConfig) map[string]interface{} {
	return map[string]interface{}{
		"max_description_length": a.MaxDescriptionLength,
		"word_wrap_max_width":    a.WordWrapMaxWidth,
		"word_wrap_min_width":    a.WordWrapMinWidth,
		"glamour_style":          a.GlamourStyle,
	}
}

func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v, defaultConfig())

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(filepath.Dir(DefaultConfigPath()))
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("RSS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The web frontend read VITE_API_URL; keep honouring it after RSS_API_URL.
	if err := v.BindEnv("api.base_url", "RSS_API_URL", "VITE_API_URL"); err != nil {
		return nil, fmt.Errorf("binding env: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	expandPaths(&config)

	return &config, nil
}

// Validate rejects values the client cannot work with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return fmt.Errorf("api.base_url must not be empty")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive, got %s", c.API.Timeout)
	}
	if c.UI.ItemsPerPage < 1 {
		return fmt.Errorf("ui.items_per_page must be positive, got %d", c.UI.ItemsPerPage)
	}
	return nil
}

// expandPath expands ~ to the home directory and makes the path absolute.
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}

func expandPaths(cfg *Config) {
	cfg.Bookmarks.Path = expandPath(cfg.Bookmarks.Path)
	cfg.Bookmarks.SearchIndex = expandPath(cfg.Bookmarks.SearchIndex)
	cfg.Log.File = expandPath(cfg.Log.File)
}

func Save(config *Config, path string) error {
	v := viper.New()

	// Durations are written as strings so the TOML stays readable.
	v.Set("api", map[string]interface{}{
		"base_url":    config.API.BaseURL,
		"timeout":     config.API.Timeout.String(),
		"fetch_limit": config.API.FetchLimit,
	})
	v.Set("feed", map[string]interface{}{
		"probe_timeout":       config.Feed.ProbeTimeout.String(),
		"user_agent":          config.Feed.UserAgent,
		"default_category":    config.Feed.DefaultCategory,
		"allow_private_hosts": config.Feed.AllowPrivateHosts,
	})
	v.Set("ui", map[string]interface{}{
		"items_per_page": config.UI.ItemsPerPage,
		"colors":         colorsMap(config.UI.Colors),
		"article":        articleMap(config.UI.Article),
	})
	v.Set("bookmarks", map[string]interface{}{
		"path":         config.Bookmarks.Path,
		"timeout":      config.Bookmarks.Timeout.String(),
		"search_index": config.Bookmarks.SearchIndex,
	})
	v.Set("browser", map[string]interface{}{"opener": config.Browser.Opener})
	v.Set("keys", map[string]interface{}{"modifier": config.Keys.Modifier})
	v.Set("log", map[string]interface{}{
		"level": config.Log.Level,
		"file":  config.Log.File,
	})

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return v.WriteConfigAs(path)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}
