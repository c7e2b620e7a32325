package theme

import (
	"context"
	"html/template"

	"impractical.co/jrblog"
	"impractical.co/jrblog/content"
)

var (
	_ jrblog.Renderable    = &Document{}
	_ jrblog.AssetDeclarer = &Document{}
)

// Document is one composed view, ready to be rendered by the layout
// templates. Every fragment it shows is already markup; the layout only
// places them.
type Document struct {
	TemplateID TemplateID
	Fragments  []FragmentID

	Lang      string
	Title     string
	BodyClass string
	Schema    string
	Site      content.SiteMeta
	HomeURL   string
	FeedURL   string

	// ContentWidth is how wide, in pixels, embedded media may be.
	ContentWidth int

	Menu template.HTML

	// Areas holds the rendered widget areas that have widgets, by ID.
	Areas map[string]template.HTML

	ArchiveTitle template.HTML
	Articles     []template.HTML
	ContentNav   template.HTML
	Comments     template.HTML

	assets []jrblog.Asset
}

// Templates returns the layout templates.
func (*Document) Templates(_ context.Context) []string {
	return []string{"layout/*.tmpl"}
}

// Key returns the key the layout templates are cached under. Every
// Document uses the same templates.
func (*Document) Key(_ context.Context) string {
	return "jrblog.theme.document"
}

// ExecutedTemplate returns the template that renders the whole document.
func (*Document) ExecutedTemplate(_ context.Context) string {
	return "base"
}

// Assets returns the stylesheets and scripts the Document needs.
func (d *Document) Assets(_ context.Context) []jrblog.Asset {
	return d.assets
}

// Area returns the rendered widget area with the ID, or nothing when it
// has no widgets.
func (d *Document) Area(id string) template.HTML {
	return d.Areas[id]
}
