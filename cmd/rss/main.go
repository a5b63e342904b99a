package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/pders01/rss-reader/internal/api"
	"github.com/pders01/rss-reader/internal/bookmarks"
	"github.com/pders01/rss-reader/internal/browser"
	"github.com/pders01/rss-reader/internal/config"
	"github.com/pders01/rss-reader/internal/debuglog"
	"github.com/pders01/rss-reader/internal/feed"
	"github.com/pders01/rss-reader/internal/listing"
	"github.com/pders01/rss-reader/internal/search"
	"github.com/pders01/rss-reader/internal/tui"
)

// Version is the version of the application, set at build time
var Version = "dev"

// options are the persistent flags shared by every command.
type options struct {
	configPath string
	apiURL     string
	logLevel   string
	quiet      bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "rss",
		Short:         "Terminal client for the rss-reader API",
		Long:          "rss browses, searches and manages the articles of an rss-reader server.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, opts)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = debuglog.Close()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to configuration file")
	flags.StringVar(&opts.apiURL, "api-url", "", "rss-reader API base URL (overrides config)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error, off")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "skip startup banner")

	root.AddCommand(
		newVersionCmd(),
		newConfigCmd(),
		newArticlesCmd(opts),
		newStatsCmd(opts),
		newFeedsCmd(opts),
		newBookmarksCmd(opts),
	)
	return root
}

// load reads the config and applies flag overrides and logging.
func (o *options) load() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if o.apiURL != "" {
		cfg.API.BaseURL = o.apiURL
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if err := debuglog.Setup(debuglog.ParseLogLevel(cfg.Log.Level), cfg.Log.File); err != nil {
		return nil, fmt.Errorf("setting up logging: %w", err)
	}
	return cfg, nil
}

func (o *options) client() (*config.Config, *api.Client, error) {
	cfg, err := o.load()
	if err != nil {
		return nil, nil, err
	}
	client, err := api.NewClient(cfg.API)
	if err != nil {
		return nil, nil, err
	}
	return cfg, client, nil
}

// openBookmarks opens the bookmark store with its search index attached.
// The returned func closes both.
func openBookmarks(cfg *config.Config) (*bookmarks.Store, func(), error) {
	store, err := bookmarks.Open(cfg.Bookmarks.Path, cfg.Bookmarks.Timeout)
	if err != nil {
		return nil, nil, fmt.Errorf("opening bookmarks: %w", err)
	}
	idx, err := search.Open(cfg.Bookmarks.SearchIndex)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	if err := store.AttachIndex(idx); err != nil {
		idx.Close()
		store.Close()
		return nil, nil, err
	}
	return store, func() {
		idx.Close()
		store.Close()
	}, nil
}

func runTUI(cmd *cobra.Command, opts *options) error {
	cfg, client, err := opts.client()
	if err != nil {
		return err
	}

	if !opts.quiet {
		tui.ShowBanner(cmd.OutOrStdout(), Version, client.BaseURL())
	}

	svc := tui.Services{
		Listing:    listing.New(client, client, cfg.UI.ItemsPerPage),
		Feeds:      client,
		Subscriber: feed.NewSubscriber(client, cfg.Feed),
	}

	store, closeStore, err := openBookmarks(cfg)
	if err != nil {
		debuglog.Warnf("bookmarks disabled: %v", err)
	} else {
		defer closeStore()
		svc.Bookmarks = store
	}

	if opener, err := browser.New(cfg.Browser); err != nil {
		debuglog.Warnf("browser opener disabled: %v", err)
	} else {
		svc.Opener = opener
	}

	app := tui.NewApp(svc, cfg)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running ui: %w", err)
	}
	return nil
}

func commandContext(cmd *cobra.Command, cfg *config.Config) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, cfg.API.Timeout+cfg.Feed.ProbeTimeout)
}
