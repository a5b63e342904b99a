package config

import "time"

// TestConfig returns a config suitable for testing
func TestConfig() *Config {
	cfg := defaultConfig()
	cfg.API.Timeout = 2 * time.Second
	cfg.API.FetchLimit = 100
	cfg.Feed.ProbeTimeout = 2 * time.Second
	cfg.Feed.UserAgent = "rss-reader-test/1.0"
	cfg.Feed.AllowPrivateHosts = true
	cfg.UI.Article.GlamourStyle = "notty"
	cfg.Bookmarks.Path = ""
	cfg.Bookmarks.SearchIndex = ""
	cfg.Browser.Opener = "true"
	cfg.Log.Level = "off"
	cfg.Log.File = ""
	return cfg
}
