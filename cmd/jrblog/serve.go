package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"impractical.co/jrblog"
	"impractical.co/jrblog/internal/server"
)

func serveCmd(opts *options) *cobra.Command {
	var (
		addr  string
		watch bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the blog over HTTP",
		Long: `The serve command loads the content directory and serves every view of
the blog, with Prometheus metrics at /metrics. With --watch it reloads the
content, and the layout templates, when their files change.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ctx, a, err := opts.setup(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				a.cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("watch") {
				a.cfg.Server.Watch = watch
			}
			return a.serve(ctx)
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "address to listen on (default server.addr)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "reload when content or templates change")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	log := jrblog.Logger(ctx)
	repo, err := a.loadContent(ctx)
	if err != nil {
		return err
	}
	srv, err := server.New(server.Options{
		Engine:       a.engine,
		Repository:   repo,
		Logger:       a.logger,
		Assets:       a.assets(),
		AssetPath:    a.cfg.Theme.AssetURL,
		PreviewToken: a.cfg.Server.PreviewToken,
	})
	if err != nil {
		return err
	}

	if a.cfg.Server.Watch {
		dirs := []string{a.cfg.Content.Dir}
		if a.cfg.Content.Templates != "" {
			dirs = append(dirs, a.cfg.Content.Templates)
		}
		w, err := newWatcher(dirs, func(ctx context.Context) error {
			repo, err := a.loadContent(ctx)
			if err != nil {
				return err
			}
			srv.SetRepository(ctx, repo)
			return nil
		})
		if err != nil {
			return err
		}
		defer w.Close()
		go w.Run(ctx)
	}

	httpServer := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           srv,
		ReadTimeout:       a.cfg.Server.ReadTimeout,
		ReadHeaderTimeout: a.cfg.Server.ReadTimeout,
		WriteTimeout:      a.cfg.Server.WriteTimeout,
		BaseContext: func(net.Listener) context.Context {
			return context.WithoutCancel(ctx)
		},
	}
	errs := make(chan error, 1)
	go func() {
		log.InfoContext(ctx, "serving", "addr", a.cfg.Server.Addr, "base_url", a.cfg.Site.BaseURL, "watch", a.cfg.Server.Watch)
		errs <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("error serving: %w", err)
	case <-ctx.Done():
	}

	log.InfoContext(ctx, "shutting down", "timeout", a.cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error shutting down: %w", err)
	}
	return nil
}
