package theme

import (
	"context"
	"html/template"
	"io/fs"

	"impractical.co/jrblog"
	"impractical.co/jrblog/i18n"
)

var (
	_ jrblog.Site             = &Site{}
	_ jrblog.ServerErrorPager = &Site{}
	_ jrblog.FuncMapExtender  = &Site{}
)

// Site is the jrblog.Site Documents are rendered with. Its templates are
// cached until Invalidate is called.
type Site struct {
	*jrblog.CachedSite

	loc *i18n.Localizer
}

// NewSite returns a Site reading templates from templates.
func NewSite(templates fs.FS, loc *i18n.Localizer) *Site {
	return &Site{
		CachedSite: jrblog.NewCachedSite(templates),
		loc:        loc,
	}
}

// FuncMap makes T, which translates a message, and footerAreas, which lists
// the footer widget areas in order, available to every template.
func (s *Site) FuncMap(_ context.Context) template.FuncMap {
	return template.FuncMap{
		"T": s.loc.T,
		"footerAreas": func() []string {
			return []string{AreaFooter1, AreaFooter2, AreaFooter3, AreaFooter4}
		},
	}
}

// ServerErrorPage is rendered when a Document can't be.
func (s *Site) ServerErrorPage(_ context.Context) jrblog.Renderable {
	return ErrorPage{Lang: s.loc.Locale()}
}

// ErrorPage is a standalone page apologising for a server error.
type ErrorPage struct {
	Lang string
}

// Templates returns the error page's template.
func (ErrorPage) Templates(_ context.Context) []string {
	return []string{"layout/error.tmpl"}
}

// Key returns the key the error page's templates are cached under.
func (ErrorPage) Key(_ context.Context) string {
	return "jrblog.theme.error"
}

// ExecutedTemplate returns the template that renders the error page.
func (ErrorPage) ExecutedTemplate(_ context.Context) string {
	return "error"
}
