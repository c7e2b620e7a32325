package theme

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"impractical.co/jrblog"
	"impractical.co/jrblog/content"
	"impractical.co/jrblog/i18n"
)

//go:embed templates
var embedded embed.FS

// Templates holds the theme's built-in templates: layout/*.tmpl for whole
// documents and items/*.tmpl for the pieces FragmentRenderer produces.
var Templates fs.FS = mustSub(embedded, "templates")

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

// excerptWords is how many words an excerpt made from the body keeps.
const excerptWords = 55

// FragmentRenderer turns content into the markup for articles, comment
// lists and their navigation. It can safely be used by multiple goroutines.
type FragmentRenderer struct {
	Links Links
	Meta  Meta
	Loc   *i18n.Localizer

	markdown goldmark.Markdown
	tmpl     *template.Template
}

// NewFragmentRenderer parses the item templates from templates, which is
// laid out like Templates.
func NewFragmentRenderer(templates fs.FS, links Links, loc *i18n.Localizer) (*FragmentRenderer, error) {
	funcs := template.FuncMap{
		"T":     loc.T,
		"THTML": loc.HTML,
	}
	tmpl, err := jrblog.ParseTemplates(templates, funcs, "items/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("error parsing item templates: %w", err)
	}
	return &FragmentRenderer{
		Links: links,
		Meta:  Meta{Links: links, Loc: loc, tmpl: tmpl},
		Loc:   loc,
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			// bodies are written by the site's authors and are trusted
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
		tmpl: tmpl,
	}, nil
}

// ItemRequest is what RenderItem needs to render one article.
type ItemRequest struct {
	Item    content.ContentItem
	Author  content.Author
	Context TemplateContext

	// Excerpt renders the item's excerpt instead of its body.
	Excerpt bool
}

// ItemView is the data the article template is executed with.
type ItemView struct {
	Item      content.ContentItem
	Classes   string
	Permalink string
	Singular  bool
	Featured  bool
	ShowTitle bool
	Anchor    bool
	Excerpt   bool
	Body      template.HTML
	PageLinks template.HTML
	Meta      template.HTML
	EditURL   string

	loc *i18n.Localizer
}

// T translates a message for the template.
func (v ItemView) T(key string, args ...string) string {
	return v.loc.T(key, args...)
}

// RenderItem renders an item as an <article>.
func (f *FragmentRenderer) RenderItem(ctx context.Context, req ItemRequest) (template.HTML, error) {
	item := req.Item
	view := ItemView{
		Item:      item,
		Classes:   strings.Join(ArticleClasses(item, req.Context), " "),
		Permalink: f.Links.Item(item),
		Singular:  req.Context.Singular(),
		Featured:  featured(item, req.Context),
		ShowTitle: !titleless(item),
		Anchor:    item.Kind == content.KindPage,
		Excerpt:   req.Excerpt,
		loc:       f.Loc,
	}
	var err error
	if req.Excerpt {
		view.Body, err = f.excerpt(item)
	} else {
		view.Body, view.PageLinks, err = f.body(item, req.Context)
	}
	if err != nil {
		return "", fmt.Errorf("error rendering body of item %d: %w", item.ID, err)
	}
	switch {
	case item.Kind != content.KindPost:
	case titleless(item):
		view.Meta, err = f.Meta.DateAnchor(item)
	default:
		view.Meta, err = f.Meta.EntryMeta(item, req.Author)
	}
	if err != nil {
		return "", fmt.Errorf("error rendering meta of item %d: %w", item.ID, err)
	}
	if req.Context.CanEdit {
		view.EditURL = f.Links.Edit(item)
	}
	article, err := execute(f.tmpl, "article", view)
	if err != nil {
		return "", fmt.Errorf("error rendering item %d: %w", item.ID, err)
	}
	jrblog.Logger(ctx).DebugContext(ctx, "rendered item", "id", item.ID, "excerpt", req.Excerpt)
	return article, nil
}

// execute runs one of the item templates. html/template has escaped its
// output, so it's safe to insert as it is.
func execute(tmpl *template.Template, name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("error executing %s template: %w", name, err)
	}
	return template.HTML(buf.String()), nil // #nosec G203
}

// trusted marks markup the site's authors wrote, or goldmark made from
// what they wrote, as safe to insert.
func trusted(markup string) template.HTML {
	return template.HTML(markup) // #nosec G203
}

type moreLinkView struct {
	URL string
	ID  int64
}

type excerptView struct {
	Text      string
	Truncated bool
}

// body renders the part of the item the view shows. Singular views show
// one sub-page and link to the others; list views show the first sub-page
// up to the more marker, followed by a link to the rest.
func (f *FragmentRenderer) body(item content.ContentItem, tc TemplateContext) (template.HTML, template.HTML, error) {
	pages := strings.Split(item.Body, content.PageBreak)
	var src string
	var more, links template.HTML
	var err error
	if tc.Singular() {
		current := min(tc.SubPage(), len(pages))
		// the marker is part of the source, which goldmark passes through
		src = strings.Replace(pages[current-1], content.MoreBreak,
			`<span id="more-`+strconv.FormatInt(item.ID, 10)+`"></span>`, 1)
		links, err = f.PageLinks(item, current, len(pages))
	} else {
		src = pages[0]
		if teaser, _, found := strings.Cut(src, content.MoreBreak); found {
			src = teaser
			more, err = execute(f.tmpl, "more-link", moreLinkView{URL: f.Links.Item(item), ID: item.ID})
		}
	}
	if err != nil {
		return "", "", err
	}
	rendered, err := f.convert(src, item.Format)
	if err != nil {
		return "", "", err
	}
	return trusted(strings.TrimSpace(rendered)) + more, links, nil
}

// excerpt is the item's own excerpt, or the start of its body with the
// markup removed.
func (f *FragmentRenderer) excerpt(item content.ContentItem) (template.HTML, error) {
	if item.Excerpt != "" {
		return execute(f.tmpl, "excerpt", excerptView{Text: item.Excerpt})
	}
	src, _, _ := strings.Cut(item.Body, content.PageBreak)
	src, _, _ = strings.Cut(src, content.MoreBreak)
	rendered, err := f.convert(src, item.Format)
	if err != nil {
		return "", err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rendered))
	if err != nil {
		return "", fmt.Errorf("error parsing body: %w", err)
	}
	doc.Find("script, style").Remove()
	words := strings.Fields(doc.Text())
	return execute(f.tmpl, "excerpt", excerptView{
		Text:      strings.Join(words[:min(len(words), excerptWords)], " "),
		Truncated: len(words) > excerptWords,
	})
}

func (f *FragmentRenderer) convert(src string, format content.Format) (string, error) {
	if format != content.FormatMarkdown {
		return src, nil
	}
	var buf bytes.Buffer
	if err := f.markdown.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("error converting markdown: %w", err)
	}
	return buf.String(), nil
}

// ArticleClasses are the classes on an item's <article>.
func ArticleClasses(item content.ContentItem, tc TemplateContext) []string {
	kind := string(item.Kind)
	classes := []string{
		"post-" + strconv.FormatInt(item.ID, 10),
		kind,
		"type-" + kind,
		"status-publish",
	}
	if item.Kind == content.KindPost {
		format := item.PostFormat
		if format == "" {
			format = "standard"
		}
		classes = append(classes, "format-"+format)
	}
	if item.HasThumbnail() {
		classes = append(classes, "has-post-thumbnail")
	}
	if featured(item, tc) {
		classes = append(classes, "sticky")
	}
	classes = append(classes, "hentry")
	for _, term := range item.Categories {
		classes = append(classes, "category-"+term.Slug)
	}
	for _, term := range item.Tags {
		classes = append(classes, "tag-"+term.Slug)
	}
	return classes
}

// featured reports whether a sticky item is being shown where stickiness
// matters: the first page of the home list.
func featured(item content.ContentItem, tc TemplateContext) bool {
	return item.Sticky && tc.Kind == KindHome && tc.Paged() == 1
}

// titleless reports whether the item's format is shown without a title.
func titleless(item content.ContentItem) bool {
	return item.PostFormat == "aside" || item.PostFormat == "status"
}
