package theme

// RequestKind is the kind of view being rendered.
type RequestKind string

const (
	KindHome       RequestKind = "home"
	KindSingle     RequestKind = "single"
	KindPage       RequestKind = "page"
	KindArchive    RequestKind = "archive"
	KindAttachment RequestKind = "attachment"
	KindNotFound   RequestKind = "not-found"
)

// ArchiveKind says what an archive view lists posts by.
type ArchiveKind string

const (
	ArchiveCategory ArchiveKind = "category"
	ArchiveTag      ArchiveKind = "tag"
	ArchiveAuthor   ArchiveKind = "author"
)

// Pagination is where a list view is in its list.
type Pagination struct {
	// Current is the 1-based page being shown. Zero means 1.
	Current int
	Total   int
}

// TemplateContext describes the view being rendered. It's built per request
// and never shared.
type TemplateContext struct {
	Kind RequestKind

	// TemplateSlug is the custom template the page being shown asked for,
	// if any.
	TemplateSlug string

	Pagination Pagination

	// Page is the 1-based sub-page of a multi-page item. Zero means 1.
	Page int

	// Feed is set when the view is being rendered for a feed reader.
	Feed bool

	// FrontPage is set when the view is the site's front page.
	FrontPage bool

	// Previewing is set while the site's appearance is being customised.
	Previewing bool

	// CanEdit is set when the viewer is allowed to edit what's shown.
	CanEdit bool
}

// Singular reports whether the view shows one item.
func (c TemplateContext) Singular() bool {
	switch c.Kind {
	case KindSingle, KindPage, KindAttachment:
		return true
	}
	return false
}

// Paged returns the current page of a list view, at least 1.
func (c TemplateContext) Paged() int {
	return max(c.Pagination.Current, 1)
}

// SubPage returns the current sub-page of a multi-page item, at least 1.
func (c TemplateContext) SubPage() int {
	return max(c.Page, 1)
}
