package theme

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"slices"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"impractical.co/jrblog"
	"impractical.co/jrblog/config"
	"impractical.co/jrblog/content"
	"impractical.co/jrblog/i18n"
)

const instrumentationName = "impractical.co/jrblog/theme"

// DefaultSchema is the schema.org type sites present themselves as when
// they don't pick one.
const DefaultSchema = "Blog"

// ErrUnknownKind is returned when a Request asks for a kind of view the
// theme doesn't have.
var ErrUnknownKind = errors.New("unknown request kind")

// menuPageSize is how many pages are fetched at a time for the page menu.
const menuPageSize = 100

// AuthorFinder is implemented by Repositories that can look authors up by
// slug. Author archives need it; without it they're never found.
type AuthorFinder interface {
	FetchAuthorBySlug(ctx context.Context, slug string) (content.Author, error)
}

// Request says which view to render.
type Request struct {
	Kind RequestKind

	// Slug is the item shown by singular views, or the term or author
	// listed by archive views.
	Slug    string
	Archive ArchiveKind

	// Page is the page of a list view. SubPage is the sub-page of a
	// multi-page item. Zero means 1 for both.
	Page    int
	SubPage int

	Feed       bool
	Previewing bool
	CanEdit    bool
}

// Snapshot is everything a view shows, read from the Repository by Load.
// Compose only ever reads it.
type Snapshot struct {
	Request Request
	Site    content.SiteMeta

	// Items are the items a list view lists, or the one item a singular
	// view shows.
	Items      []content.ContentItem
	TotalPages int

	Authors  map[int64]content.Author
	Comments []content.CommentItem
	Widgets  map[string][]content.Widget

	// Pages are the pages the header menu lists.
	Pages []content.ContentItem

	// ArchiveName is the name of the term or author an archive lists.
	ArchiveName string
}

// Engine renders the views of a site. Create one with NewEngine; it can
// safely be used by multiple goroutines.
type Engine struct {
	// Titles and BodyClasses are the filter chains the document title and
	// the body classes go through. Handlers can be added to them at any
	// time.
	Titles      *jrblog.Filter[DocumentTitle]
	BodyClasses *jrblog.Filter[BodyClasses]

	cfg       config.ThemeConfig
	loc       *i18n.Localizer
	links     Links
	resolver  Resolver
	areas     *WidgetRegistry
	fragments *FragmentRenderer
	assets    AssetRegistrar
	site      *Site
}

// NewEngine returns an Engine rendering with the templates in templates,
// which are laid out like Templates. bundle may be nil, leaving everything
// in English.
func NewEngine(cfg config.Config, bundle *i18n.Bundle, templates fs.FS) (*Engine, error) {
	loc := bundle.Localizer(cfg.Site.Locale)
	links := NewLinks(cfg.Site.BaseURL)
	fragments, err := NewFragmentRenderer(templates, links, loc)
	if err != nil {
		return nil, err
	}
	areas := &WidgetRegistry{}
	if err := RegisterThemeAreas(areas, loc); err != nil {
		return nil, fmt.Errorf("error registering widget areas: %w", err)
	}
	return &Engine{
		Titles:      NewTitleFilter(loc),
		BodyClasses: NewBodyClassFilter(),
		cfg:         cfg.Theme,
		loc:         loc,
		links:       links,
		areas:       areas,
		fragments:   fragments,
		assets: AssetRegistrar{
			AssetURL:          cfg.Theme.AssetURL,
			Secure:            cfg.Site.Secure,
			Fonts:             cfg.Theme.Fonts,
			Subset:            cfg.Theme.FontSubset,
			ThreadComments:    cfg.Theme.ThreadComments,
			DefaultBackground: cfg.Theme.DefaultBackground,
			Loc:               loc,
		},
		site: NewSite(templates, loc),
	}, nil
}

// Site is the jrblog.Site the Engine renders Documents with.
func (e *Engine) Site() *Site {
	return e.site
}

// Links returns the URLs the Engine links to.
func (e *Engine) Links() Links {
	return e.links
}

// Areas returns the Engine's widget areas.
func (e *Engine) Areas() *WidgetRegistry {
	return e.areas
}

// MaxCommentDepth is how deeply comments nest. With threading off, they
// don't.
func (e *Engine) MaxCommentDepth() int {
	if !e.cfg.ThreadComments {
		return 1
	}
	return max(e.cfg.MaxCommentDepth, 1)
}

func startSpan(ctx context.Context, name string, req Request) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, name, trace.WithAttributes(
		attribute.String("jrblog.request.kind", string(req.Kind)),
		attribute.String("jrblog.request.slug", req.Slug),
	))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Load reads everything the view req asks for from repo. Views of things
// that don't exist, and pages past the end of a list, return an error
// wrapping content.ErrNotFound.
func (e *Engine) Load(ctx context.Context, repo content.Repository, req Request) (_ *Snapshot, err error) {
	ctx, span := startSpan(ctx, "theme.Load", req)
	defer func() { endSpan(span, err) }()

	site, err := repo.FetchSiteMeta(ctx)
	if err != nil {
		return nil, fmt.Errorf("error fetching site metadata: %w", err)
	}
	snap := &Snapshot{
		Request: req,
		Site:    site,
		Authors: map[int64]content.Author{},
		Widgets: map[string][]content.Widget{},
	}
	switch req.Kind {
	case KindHome:
		err = e.loadList(ctx, repo, snap, content.Query{Kind: content.KindPost})
	case KindSingle, KindPage, KindAttachment:
		err = e.loadItem(ctx, repo, snap)
	case KindArchive:
		err = e.loadArchive(ctx, repo, snap)
	case KindNotFound:
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownKind, req.Kind)
	}
	if err != nil {
		return nil, err
	}
	for _, item := range snap.Items {
		if _, ok := snap.Authors[item.AuthorID]; ok {
			continue
		}
		author, err := repo.FetchAuthor(ctx, item.AuthorID)
		if err != nil && !errors.Is(err, content.ErrNotFound) {
			return nil, fmt.Errorf("error fetching author %d: %w", item.AuthorID, err)
		}
		snap.Authors[item.AuthorID] = author
	}
	for _, area := range e.areas.Areas() {
		widgets, err := repo.FetchWidgets(ctx, area.ID)
		if err != nil {
			return nil, fmt.Errorf("error fetching widgets for %s: %w", area.ID, err)
		}
		if len(widgets) > 0 {
			snap.Widgets[area.ID] = widgets
		}
	}
	snap.Pages, err = e.menuPages(ctx, repo)
	if err != nil {
		return nil, err
	}
	jrblog.Logger(ctx).DebugContext(ctx, "loaded view", "kind", req.Kind, "slug", req.Slug, "items", len(snap.Items))
	return snap, nil
}

func (e *Engine) loadList(ctx context.Context, repo content.Repository, snap *Snapshot, query content.Query) error {
	query.Page = max(snap.Request.Page, 1)
	query.PerPage = e.cfg.PostsPerPage
	result, err := repo.FetchContentItems(ctx, query)
	if err != nil {
		return fmt.Errorf("error fetching page %d of the list: %w", query.Page, err)
	}
	if query.Page > 1 && len(result.Items) == 0 {
		return fmt.Errorf("page %d of %d: %w", query.Page, result.TotalPages, content.ErrNotFound)
	}
	snap.Items = result.Items
	snap.TotalPages = result.TotalPages
	return nil
}

var singularKinds = map[RequestKind]content.Kind{
	KindSingle:     content.KindPost,
	KindPage:       content.KindPage,
	KindAttachment: content.KindAttachment,
}

func (e *Engine) loadItem(ctx context.Context, repo content.Repository, snap *Snapshot) error {
	kind := singularKinds[snap.Request.Kind]
	result, err := repo.FetchContentItems(ctx, content.Query{Kind: kind, Slug: snap.Request.Slug, PerPage: 1})
	if err != nil {
		return fmt.Errorf("error fetching %s %q: %w", kind, snap.Request.Slug, err)
	}
	if len(result.Items) == 0 {
		return fmt.Errorf("%s %q: %w", kind, snap.Request.Slug, content.ErrNotFound)
	}
	snap.Items = result.Items[:1]
	snap.TotalPages = 1
	snap.Comments, err = repo.FetchComments(ctx, snap.Items[0].ID)
	if err != nil {
		return fmt.Errorf("error fetching comments on %s %q: %w", kind, snap.Request.Slug, err)
	}
	return nil
}

func (e *Engine) loadArchive(ctx context.Context, repo content.Repository, snap *Snapshot) error {
	slug := snap.Request.Slug
	query := content.Query{Kind: content.KindPost}
	switch snap.Request.Archive {
	case ArchiveCategory:
		query.Category = slug
	case ArchiveTag:
		query.Tag = slug
	case ArchiveAuthor:
		finder, ok := repo.(AuthorFinder)
		if !ok {
			return fmt.Errorf("author %q: %w", slug, content.ErrNotFound)
		}
		author, err := finder.FetchAuthorBySlug(ctx, slug)
		if err != nil {
			return fmt.Errorf("error fetching author %q: %w", slug, err)
		}
		query.AuthorID = author.ID
		snap.ArchiveName = author.Name
	default:
		return fmt.Errorf("%s archive %q: %w", snap.Request.Archive, slug, content.ErrNotFound)
	}
	if err := e.loadList(ctx, repo, snap, query); err != nil {
		return err
	}
	if len(snap.Items) == 0 {
		return fmt.Errorf("%s archive %q: %w", snap.Request.Archive, slug, content.ErrNotFound)
	}
	if snap.ArchiveName == "" {
		terms := snap.Items[0].Categories
		if snap.Request.Archive == ArchiveTag {
			terms = snap.Items[0].Tags
		}
		snap.ArchiveName = e.termName(terms, slug)
	}
	return nil
}

// termName is the name of the term with the slug, or the slug turned into
// a title when the term has no name.
func (e *Engine) termName(terms []content.Term, slug string) string {
	for _, term := range terms {
		if term.Slug == slug && term.Name != "" {
			return term.Name
		}
	}
	tag, err := language.Parse(e.loc.Locale())
	if err != nil {
		tag = language.English
	}
	return cases.Title(tag).String(strings.ReplaceAll(slug, "-", " "))
}

func (e *Engine) menuPages(ctx context.Context, repo content.Repository) ([]content.ContentItem, error) {
	var pages []content.ContentItem
	for page := 1; ; page++ {
		result, err := repo.FetchContentItems(ctx, content.Query{Kind: content.KindPage, Page: page, PerPage: menuPageSize})
		if err != nil {
			return nil, fmt.Errorf("error fetching pages for the menu: %w", err)
		}
		pages = append(pages, result.Items...)
		if page >= result.TotalPages {
			break
		}
	}
	slices.SortStableFunc(pages, func(a, b content.ContentItem) int {
		return cmp.Or(cmp.Compare(a.Title, b.Title), cmp.Compare(a.ID, b.ID))
	})
	return pages, nil
}

// TemplateContext describes the view the snapshot was loaded for.
func (s *Snapshot) TemplateContext() TemplateContext {
	req := s.Request
	tc := TemplateContext{
		Kind:       req.Kind,
		Pagination: Pagination{Current: max(req.Page, 1), Total: s.TotalPages},
		Page:       req.SubPage,
		Feed:       req.Feed,
		FrontPage:  req.Kind == KindHome,
		Previewing: req.Previewing,
		CanEdit:    req.CanEdit,
	}
	if item := s.Item(); item != nil {
		tc.TemplateSlug = item.Template
	}
	return tc
}

// Item returns a copy of the item a singular view shows, or nil.
func (s *Snapshot) Item() *content.ContentItem {
	switch s.Request.Kind {
	case KindSingle, KindPage, KindAttachment:
	default:
		return nil
	}
	if len(s.Items) == 0 {
		return nil
	}
	item := s.Items[0]
	return &item
}

// Compose turns a snapshot into the Document showing it. It reads nothing
// but the snapshot, and composing the same snapshot again gives the same
// Document.
func (e *Engine) Compose(ctx context.Context, snap *Snapshot) (_ *Document, err error) {
	ctx, span := startSpan(ctx, "theme.Compose", snap.Request)
	defer func() { endSpan(span, err) }()

	tc := snap.TemplateContext()
	item := snap.Item()
	tmpl := e.resolver.Resolve(tc)
	span.SetAttributes(attribute.String("jrblog.template", string(tmpl.ID)))

	active := map[string]bool{}
	for id, widgets := range snap.Widgets {
		active[id] = len(widgets) > 0
	}
	background := snap.Site.Background(e.cfg.DefaultBackground)
	assets := e.assets.Assets(AssetRequest{
		Context:         tc,
		CommentsOpen:    item != nil && item.CommentsOpen,
		BackgroundColor: background,
	})
	classes := e.BodyClasses.Apply(ctx, BodyClasses{
		Classes:         viewClasses(tc, item, snap.Request.Archive, snap.Request.Slug),
		Context:         tc,
		Template:        tmpl,
		Item:            item,
		BackgroundColor: background,
		ActiveAreas:     active,
		FontQueued:      e.assets.FontsEnabled(),
		AuthorCount:     snap.Site.AuthorCount,
	})

	doc := &Document{
		TemplateID:   tmpl.ID,
		Fragments:    tmpl.Fragments,
		Lang:         e.loc.Locale(),
		Title:        e.title(ctx, snap, tc),
		BodyClass:    strings.Join(uniqueClasses(classes.Classes), " "),
		Schema:       cmp.Or(snap.Site.Schema, DefaultSchema),
		Site:         snap.Site,
		HomeURL:      e.links.Home(),
		FeedURL:      e.links.Feed(),
		ContentWidth: ContentWidth(e.cfg.ContentWidth, e.cfg.FullContentWidth, tmpl, tc, active),
		Areas:        map[string]template.HTML{},
		assets:       assets,
	}
	if doc.Menu, err = e.fragments.PageMenu(snap.Pages, tc, item); err != nil {
		return nil, err
	}
	for _, area := range e.areas.Areas() {
		if widgets := snap.Widgets[area.ID]; len(widgets) > 0 {
			if doc.Areas[area.ID], err = e.fragments.RenderArea(area, widgets); err != nil {
				return nil, err
			}
		}
	}

	if tmpl.Has(FragmentArchiveHeader) {
		if doc.ArchiveTitle, err = e.archiveTitle(snap); err != nil {
			return nil, err
		}
	}
	if tmpl.Has(FragmentLoop) || tmpl.Has(FragmentSingle) {
		for _, listed := range snap.Items {
			article, err := e.fragments.RenderItem(ctx, ItemRequest{
				Item:    listed,
				Author:  snap.Authors[listed.AuthorID],
				Context: tc,
				Excerpt: tc.Kind == KindArchive,
			})
			if err != nil {
				return nil, err
			}
			doc.Articles = append(doc.Articles, article)
		}
	}
	if tmpl.Has(FragmentContentNav) {
		if doc.ContentNav, err = e.fragments.ContentNav("nav-below", e.listURL(snap), tc.Pagination); err != nil {
			return nil, err
		}
	}
	if tmpl.Has(FragmentComments) && item != nil && (item.CommentsOpen || len(snap.Comments) > 0) {
		doc.Comments, err = e.fragments.RenderComments(ctx, CommentsRequest{
			Item:     *item,
			Comments: snap.Comments,
			MaxDepth: e.MaxCommentDepth(),
			CanEdit:  tc.CanEdit,
		})
		if err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// Render composes the snapshot and writes the Document to out. Nothing is
// written if it fails.
func (e *Engine) Render(ctx context.Context, out io.Writer, snap *Snapshot) error {
	doc, err := e.Compose(ctx, snap)
	if err != nil {
		return err
	}
	return jrblog.Execute(ctx, out, e.site, doc)
}

// RenderError writes the server error page to out.
func (e *Engine) RenderError(ctx context.Context, out io.Writer) {
	jrblog.Render(ctx, out, e.site, e.site.ServerErrorPage(ctx))
}

func (e *Engine) title(ctx context.Context, snap *Snapshot, tc TemplateContext) string {
	in := DocumentTitle{Sep: TitleSeparator, Site: snap.Site, Context: tc}
	switch item := snap.Item(); {
	case item != nil:
		in.Title = item.Title
	case tc.Kind == KindArchive:
		in.Title = snap.ArchiveName
	case tc.Kind == KindNotFound:
		in.Title = e.loc.T("Nothing Found")
	}
	return e.Titles.Apply(ctx, in).Title
}

var archiveTitles = map[ArchiveKind]string{
	ArchiveCategory: "Category Archives: {name}",
	ArchiveTag:      "Tag Archives: {name}",
	ArchiveAuthor:   "Author Archives: {name}",
}

func (e *Engine) archiveTitle(snap *Snapshot) (template.HTML, error) {
	key, ok := archiveTitles[snap.Request.Archive]
	if !ok {
		return "", nil
	}
	name, err := execute(e.fragments.tmpl, "archive-name", snap.ArchiveName)
	if err != nil {
		return "", err
	}
	return e.loc.HTML(key, "name", name), nil
}

// listURL is the URL of the first page of the list a snapshot shows.
func (e *Engine) listURL(snap *Snapshot) string {
	if snap.Request.Kind != KindArchive {
		return e.links.Home()
	}
	switch snap.Request.Archive {
	case ArchiveCategory:
		return e.links.Category(content.Term{Slug: snap.Request.Slug})
	case ArchiveTag:
		return e.links.Tag(content.Term{Slug: snap.Request.Slug})
	default:
		return e.links.Author(content.Author{Slug: snap.Request.Slug})
	}
}

func uniqueClasses(classes []string) []string {
	seen := make(map[string]struct{}, len(classes))
	results := make([]string, 0, len(classes))
	for _, class := range classes {
		class = strings.TrimSpace(class)
		if class == "" {
			continue
		}
		if _, ok := seen[class]; ok {
			continue
		}
		seen[class] = struct{}{}
		results = append(results, class)
	}
	return results
}
