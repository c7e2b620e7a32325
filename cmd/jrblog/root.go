package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"impractical.co/jrblog"
	"impractical.co/jrblog/config"
	"impractical.co/jrblog/content/contentfs"
	"impractical.co/jrblog/i18n"
	"impractical.co/jrblog/theme"
)

type options struct {
	configPath string
	logLevel   string
	logFormat  string
}

// app is what every command needs, built from the flags and the config.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	engine *theme.Engine
}

func rootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "jrblog",
		Short: "Render a blog from Markdown and HTML files",
		Long: `jrblog renders a blog's posts, pages, comments and widgets from a
directory of Markdown and HTML files with YAML front matter.

It can serve the blog over HTTP, reloading it as the files change, or build
every page of it into a directory of static files.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (YAML); JRBLOG_ environment variables override it")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "log format (text, json)")

	cmd.AddCommand(serveCmd(opts), buildCmd(opts))
	return cmd
}

func newLogger(out io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	handlerOpts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "text":
		return slog.New(slog.NewTextHandler(out, handlerOpts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(out, handlerOpts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q, must be text or json", format)
	}
}

// setup loads the config and builds the logger and Engine. The returned
// context carries the logger.
func (o *options) setup(ctx context.Context, stderr io.Writer) (context.Context, *app, error) {
	logger, err := newLogger(stderr, o.logLevel, o.logFormat)
	if err != nil {
		return ctx, nil, err
	}
	ctx = jrblog.LoggingContext(ctx, logger)

	cfg, err := config.Load(o.configPath)
	if err != nil {
		return ctx, nil, fmt.Errorf("error loading config: %w", err)
	}
	bundle, err := i18n.LoadEmbedded()
	if err != nil {
		return ctx, nil, fmt.Errorf("error loading translations: %w", err)
	}
	templates := theme.Templates
	if cfg.Content.Templates != "" {
		templates = os.DirFS(cfg.Content.Templates)
	}
	engine, err := theme.NewEngine(*cfg, bundle, templates)
	if err != nil {
		return ctx, nil, fmt.Errorf("error creating engine: %w", err)
	}
	logger.DebugContext(ctx, "loaded config", "config_file", o.configPath, "locale", cfg.Site.Locale, "content_dir", cfg.Content.Dir)
	return ctx, &app{cfg: cfg, logger: logger, engine: engine}, nil
}

func (a *app) loadContent(ctx context.Context) (*contentfs.Repository, error) {
	repo, err := contentfs.Load(ctx, os.DirFS(a.cfg.Content.Dir))
	if err != nil {
		return nil, fmt.Errorf("error loading content from %s: %w", a.cfg.Content.Dir, err)
	}
	return repo, nil
}

// assets is the theme's asset directory, or nil when there isn't one or
// the assets are served from another host.
func (a *app) assets() fs.FS {
	if a.cfg.Theme.AssetDir == "" || !strings.HasPrefix(a.cfg.Theme.AssetURL, "/") {
		return nil
	}
	return os.DirFS(a.cfg.Theme.AssetDir)
}
