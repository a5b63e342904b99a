package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pders01/rss-reader/internal/config"
	"github.com/pders01/rss-reader/internal/feed"
	"github.com/pders01/rss-reader/internal/listing"
	"github.com/pders01/rss-reader/internal/render"
	"github.com/pders01/rss-reader/internal/tui"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", tui.AppName, Version)
			fmt.Fprintln(out, "Terminal client for the rss-reader API")
			fmt.Fprintln(out, "github.com/pders01/rss-reader")
		},
	}
}

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	var path string
	generate := &cobra.Command{
		Use:   "generate",
		Short: "Write a config file with the default settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if path == "" {
				path = config.DefaultConfigPath()
			}
			if err := config.GenerateDefaultConfig(path); err != nil {
				return fmt.Errorf("generating config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generated default configuration at: %s\n", path)
			return nil
		},
	}
	generate.Flags().StringVarP(&path, "output", "o", "", "where to write the file (default "+config.DefaultConfigPath()+")")

	configCmd.AddCommand(generate)
	return configCmd
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

// loadListing builds a controller over the API and performs the first load.
func loadListing(cmd *cobra.Command, opts *options) (*config.Config, *listing.Controller, error) {
	cfg, client, err := opts.client()
	if err != nil {
		return nil, nil, err
	}
	c := listing.New(client, client, cfg.UI.ItemsPerPage)
	ctx, cancel := commandContext(cmd, cfg)
	defer cancel()
	if err := c.Load(ctx); err != nil {
		return nil, nil, err
	}
	return cfg, c, nil
}

func newArticlesCmd(opts *options) *cobra.Command {
	var (
		term     string
		unread   bool
		page     int
		feedName string
		category string
	)

	articlesCmd := &cobra.Command{
		Use:   "articles",
		Short: "List articles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, c, err := loadListing(cmd, opts)
			if err != nil {
				return err
			}
			if unread {
				c.SetFilter(listing.FilterUnread)
			}
			c.SelectFeed(feedName)
			c.SelectCategory(category)
			c.SetSearchTerm(term)
			c.SetPage(page)

			out := cmd.OutOrStdout()
			arts := c.VisibleArticles()
			if len(arts) == 0 {
				fmt.Fprintln(out, tui.MsgNoArticles)
			}
			printCards(out, arts, time.Now(), cfg.UI.Article.MaxDescriptionLength)
			fmt.Fprintln(out, tui.MsgPage(c.CurrentPage(), c.PageCount(), c.MatchCount()))
			return nil
		},
	}
	f := articlesCmd.Flags()
	f.StringVarP(&term, "search", "s", "", "only articles whose title or description contains this")
	f.BoolVarP(&unread, "unread", "u", false, "only unread articles")
	f.IntVarP(&page, "page", "p", 1, "page number")
	f.StringVar(&feedName, "feed", "", "only articles from the feed with this name")
	f.StringVarP(&category, "category", "c", "", "only articles from feeds in this category")

	articlesCmd.AddCommand(
		newMarkCmd(opts, "read", "Mark an article as read", (*listing.Controller).MarkAsRead),
		newMarkCmd(opts, "unread", "Mark an article as unread", (*listing.Controller).MarkAsUnread),
	)
	return articlesCmd
}

func newMarkCmd(opts *options, state, short string, mark func(*listing.Controller, context.Context, int64) error) *cobra.Command {
	return &cobra.Command{
		Use:   state + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			cfg, c, err := loadListing(cmd, opts)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd, cfg)
			defer cancel()
			if err := mark(c, ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Marked article %d as %s\n", id, state)
			return nil
		},
	}
}

func newStatsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show feed and article counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, client, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd, cfg)
			defer cancel()
			st, err := client.Stats(ctx)
			if err != nil {
				return err
			}
			if err := st.Validate(); err != nil {
				return err
			}
			printStats(cmd.OutOrStdout(), st)
			return nil
		},
	}
}

func newFeedsCmd(opts *options) *cobra.Command {
	feedsCmd := &cobra.Command{
		Use:   "feeds",
		Short: "List, add and delete feeds",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List feeds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, client, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd, cfg)
			defer cancel()
			feeds, err := client.Feeds(ctx)
			if err != nil {
				return err
			}
			printFeeds(cmd.OutOrStdout(), feeds)
			return nil
		},
	}

	var name, category string
	add := &cobra.Command{
		Use:   "add <url>",
		Short: "Probe a feed and add it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, client, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd, cfg)
			defer cancel()
			f, err := feed.NewSubscriber(client, cfg.Feed).Subscribe(ctx, feed.Request{
				URL:      args[0],
				Name:     name,
				Category: category,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tui.MsgAddedFeed(f.Name))
			return nil
		},
	}
	add.Flags().StringVarP(&name, "name", "n", "", "display name (default: the feed title)")
	add.Flags().StringVarP(&category, "category", "c", "", "category (default "+config.DefaultCategory+")")

	del := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a feed and its articles",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			cfg, client, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd, cfg)
			defer cancel()
			if err := client.DeleteFeed(ctx, id); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tui.MsgFeedDeleted)
			return nil
		},
	}

	categories := &cobra.Command{
		Use:   "categories",
		Short: "List feed categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, client, err := opts.client()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd, cfg)
			defer cancel()
			cats, err := client.Categories(ctx)
			if err != nil {
				return err
			}
			for _, c := range cats {
				fmt.Fprintln(cmd.OutOrStdout(), c)
			}
			return nil
		},
	}

	feedsCmd.AddCommand(list, add, del, categories)
	return feedsCmd
}

func newBookmarksCmd(opts *options) *cobra.Command {
	bookmarksCmd := &cobra.Command{
		Use:   "bookmarks",
		Short: "Manage locally saved articles",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List bookmarks, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			store, closeStore, err := openBookmarks(cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			saved, err := store.List()
			if err != nil {
				return err
			}
			printBookmarks(cmd.OutOrStdout(), saved, cfg.UI.Article.MaxDescriptionLength)
			return nil
		},
	}

	var limit int
	searchCmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search over bookmarks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(strings.Join(args, " "))
			if query == "" {
				return errEmptyQuery
			}
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			store, closeStore, err := openBookmarks(cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			found, err := store.Search(query, limit)
			if err != nil {
				return err
			}
			printBookmarks(cmd.OutOrStdout(), found, cfg.UI.Article.MaxDescriptionLength)
			fmt.Fprintln(cmd.OutOrStdout(), tui.MsgResultsCount(len(found)))
			return nil
		},
	}
	searchCmd.Flags().IntVarP(&limit, "limit", "l", 20, "maximum number of results")

	add := &cobra.Command{
		Use:   "add <article-id>",
		Short: "Bookmark an article from the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			cfg, c, err := loadListing(cmd, opts)
			if err != nil {
				return err
			}
			art, ok := c.Article(id)
			if !ok {
				return fmt.Errorf("%w: %d", listing.ErrUnknownArticle, id)
			}
			store, closeStore, err := openBookmarks(cfg)
			if err != nil {
				return err
			}
			defer closeStore()
			if _, err := store.Add(art); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tui.MsgBookmarked(render.PlainText(art.Title), true))
			return nil
		},
	}

	remove := &cobra.Command{
		Use:     "remove <article-id>",
		Aliases: []string{"rm"},
		Short:   "Remove a bookmark",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			store, closeStore, err := openBookmarks(cfg)
			if err != nil {
				return err
			}
			defer closeStore()
			b, err := store.Get(id)
			if err != nil {
				return err
			}
			if err := store.Remove(id); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tui.MsgBookmarked(render.PlainText(b.Article.Title), false))
			return nil
		},
	}

	bookmarksCmd.AddCommand(list, searchCmd, add, remove)
	return bookmarksCmd
}

var errEmptyQuery = errors.New("search query must not be empty")
