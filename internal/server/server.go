// Package server serves the theme's views over HTTP.
package server

import (
	"bytes"
	"context"
	"crypto/subtle"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"impractical.co/jrblog"
	"impractical.co/jrblog/content"
	"impractical.co/jrblog/theme"
)

// Options configures a Server.
type Options struct {
	Engine     *theme.Engine
	Repository content.Repository

	// Logger is put in the context of every request. Nil discards
	// everything.
	Logger *slog.Logger

	// Registry is where the server's metrics are registered and what
	// /metrics exposes. Nil uses a new registry.
	Registry *prometheus.Registry

	// Assets, when set, is served under AssetPath.
	Assets    fs.FS
	AssetPath string

	// PreviewToken is the value ?preview must have for a request to be
	// rendered as a customizer preview. Empty turns previews off.
	PreviewToken string
}

// Server is an http.Handler serving every view of a site. The Repository
// it reads from can be replaced while it serves.
type Server struct {
	engine       *theme.Engine
	repo         atomic.Pointer[repository]
	logger       *slog.Logger
	metrics      *metrics
	router       chi.Router
	previewToken string
}

type repository struct {
	content.Repository
}

// New returns a Server for the engine and repository in opts.
func New(opts Options) (*Server, error) {
	if opts.Engine == nil {
		return nil, errors.New("server needs an Engine")
	}
	if opts.Repository == nil {
		return nil, errors.New("server needs a Repository")
	}
	registry := opts.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	s := &Server{
		engine:       opts.Engine,
		logger:       opts.Logger,
		metrics:      newMetrics(registry),
		previewToken: opts.PreviewToken,
	}
	s.repo.Store(&repository{opts.Repository})

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, s.withLogger, middleware.Recoverer, middleware.StripSlashes)
	r.NotFound(s.view(func(r *http.Request) (theme.Request, bool) {
		return theme.Request{}, false
	}))
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	if opts.Assets != nil && strings.HasPrefix(opts.AssetPath, "/") {
		prefix := strings.TrimRight(opts.AssetPath, "/")
		r.Handle(prefix+"/*", http.StripPrefix(prefix, http.FileServerFS(opts.Assets)))
	}

	r.Get(theme.FeedPath, s.feed)
	r.Get("/", s.view(home))
	r.Get("/page/{page}", s.view(home))
	r.Get("/posts/{slug}", s.view(singular(theme.KindSingle)))
	r.Get("/posts/{slug}/{subpage}", s.view(singular(theme.KindSingle)))
	r.Get("/attachment/{slug}", s.view(singular(theme.KindAttachment)))
	for _, archive := range []theme.ArchiveKind{theme.ArchiveCategory, theme.ArchiveTag, theme.ArchiveAuthor} {
		r.Get("/"+string(archive)+"/{slug}", s.view(archiveOf(archive)))
		r.Get("/"+string(archive)+"/{slug}/page/{page}", s.view(archiveOf(archive)))
	}
	r.Get("/{slug}", s.view(singular(theme.KindPage)))
	r.Get("/{slug}/{subpage}", s.view(singular(theme.KindPage)))
	s.router = r
	return s, nil
}

// ServeHTTP routes the request to the view it asks for.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Repository returns the Repository views are currently read from.
func (s *Server) Repository() content.Repository {
	return s.repo.Load().Repository
}

// SetRepository replaces the Repository views are read from and drops
// the cached templates, so the next request sees new content and
// templates. Requests already being served finish with the old one.
func (s *Server) SetRepository(ctx context.Context, repo content.Repository) {
	s.repo.Store(&repository{repo})
	s.engine.Site().Invalidate(ctx)
	s.metrics.reloads.Inc()
	jrblog.Logger(ctx).InfoContext(ctx, "replaced content repository")
}

func (s *Server) withLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.logger == nil {
			next.ServeHTTP(w, r)
			return
		}
		logger := s.logger.With(
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
		)
		next.ServeHTTP(w, r.WithContext(jrblog.LoggingContext(r.Context(), logger)))
	})
}

// route turns a matched request into the view it asks for. It returns
// false when the URL can't name a view, like a page number that isn't one.
type route func(r *http.Request) (theme.Request, bool)

func home(r *http.Request) (theme.Request, bool) {
	page, ok := number(r, "page")
	return theme.Request{Kind: theme.KindHome, Page: page}, ok
}

func singular(kind theme.RequestKind) route {
	return func(r *http.Request) (theme.Request, bool) {
		sub, ok := number(r, "subpage")
		return theme.Request{
			Kind:    kind,
			Slug:    chi.URLParam(r, "slug"),
			SubPage: sub,
		}, ok
	}
}

func archiveOf(archive theme.ArchiveKind) route {
	return func(r *http.Request) (theme.Request, bool) {
		page, ok := number(r, "page")
		return theme.Request{
			Kind:    theme.KindArchive,
			Archive: archive,
			Slug:    chi.URLParam(r, "slug"),
			Page:    page,
		}, ok
	}
}

// number reads a positive number from the URL. A parameter that isn't in
// the URL is 1.
func number(r *http.Request, param string) (int, bool) {
	value := chi.URLParam(r, param)
	if value == "" {
		return 1, true
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// previewing reports whether the request carries the preview token.
func (s *Server) previewing(r *http.Request) bool {
	if s.previewToken == "" {
		return false
	}
	token := r.URL.Query().Get("preview")
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.previewToken)) == 1
}

// view serves the view a route asks for. Views that don't exist get the
// not found view with a 404, and views that can't be rendered get the
// server error page with a 500.
func (s *Server) view(route route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := jrblog.Logger(ctx)
		start := time.Now()

		req, ok := route(r)
		if !ok {
			req = theme.Request{Kind: theme.KindNotFound}
		}
		req.Previewing = s.previewing(r)
		status := http.StatusOK
		if req.Kind == theme.KindNotFound {
			status = http.StatusNotFound
		}

		var buf bytes.Buffer
		err := s.render(ctx, &buf, req)
		if errors.Is(err, content.ErrNotFound) {
			log.DebugContext(ctx, "view not found", "error", err)
			status = http.StatusNotFound
			buf.Reset()
			err = s.render(ctx, &buf, theme.Request{Kind: theme.KindNotFound, Previewing: req.Previewing})
		}
		if err != nil {
			log.ErrorContext(ctx, "error rendering view", "kind", req.Kind, "slug", req.Slug, "error", err)
			status = http.StatusInternalServerError
			buf.Reset()
			s.engine.RenderError(ctx, &buf)
		}

		s.metrics.renderDuration.WithLabelValues(string(req.Kind)).Observe(time.Since(start).Seconds())
		s.metrics.requests.WithLabelValues(string(req.Kind), strconv.Itoa(status)).Inc()

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		if _, err := buf.WriteTo(w); err != nil {
			log.DebugContext(ctx, "error writing response", "error", err)
		}
	}
}

// feedKind labels feed requests in the metrics.
const feedKind = "feed"

// feed serves the site's RSS feed.
func (s *Server) feed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	status := http.StatusOK

	var buf bytes.Buffer
	if err := s.engine.RenderFeed(ctx, &buf, s.Repository()); err != nil {
		jrblog.Logger(ctx).ErrorContext(ctx, "error rendering feed", "error", err)
		status = http.StatusInternalServerError
	}
	s.metrics.renderDuration.WithLabelValues(feedKind).Observe(time.Since(start).Seconds())
	s.metrics.requests.WithLabelValues(feedKind, strconv.Itoa(status)).Inc()

	if status != http.StatusOK {
		http.Error(w, http.StatusText(status), status)
		return
	}
	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		jrblog.Logger(ctx).DebugContext(ctx, "error writing response", "error", err)
	}
}

func (s *Server) render(ctx context.Context, buf *bytes.Buffer, req theme.Request) error {
	snap, err := s.engine.Load(ctx, s.Repository(), req)
	if err != nil {
		return err
	}
	return s.engine.Render(ctx, buf, snap)
}
