// Package content defines the data the theme renders and the Repository
// interface it reads that data through. The rendering layer never changes
// any of these values; they belong to whatever implements Repository.
package content

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned by a Repository when the requested item doesn't
// exist.
var ErrNotFound = errors.New("content not found")

// Kind is the kind of a ContentItem.
type Kind string

const (
	KindPost       Kind = "post"
	KindPage       Kind = "page"
	KindAttachment Kind = "attachment"
)

// Format describes how a ContentItem's Body is written.
type Format string

const (
	// FormatHTML bodies are trusted, pre-rendered markup. It's the zero
	// value's meaning.
	FormatHTML Format = "html"

	// FormatMarkdown bodies are converted to HTML when rendered.
	FormatMarkdown Format = "markdown"
)

const (
	// PageBreak splits a Body into pages.
	PageBreak = "<!--nextpage-->"

	// MoreBreak marks where the teaser of a Body ends on list views.
	MoreBreak = "<!--more-->"
)

// Term is a category or tag.
type Term struct {
	Name string `yaml:"name"`
	Slug string `yaml:"slug"`
}

// ContentItem is a post, page or attachment.
type ContentItem struct {
	ID          int64
	Kind        Kind
	Slug        string
	Title       string
	Body        string
	Format      Format
	Excerpt     string
	AuthorID    int64
	PublishedAt time.Time
	Categories  []Term
	Tags        []Term

	// Thumbnail is the URL of the featured image, if there is one.
	Thumbnail string

	Sticky bool

	// PostFormat is one of the formats the theme supports (aside, image,
	// link, quote, status). Empty means standard.
	PostFormat string

	// Template is the slug of the custom template a page asked for.
	Template string

	CommentsOpen bool
}

// HasThumbnail reports whether the item has a featured image.
func (c ContentItem) HasThumbnail() bool {
	return c.Thumbnail != ""
}

// PageCount is how many sub-pages the item's Body is split into.
func (c ContentItem) PageCount() int {
	return strings.Count(c.Body, PageBreak) + 1
}

// CommentType is the variant of a CommentItem.
type CommentType string

const (
	CommentTypeComment   CommentType = "comment"
	CommentTypePingback  CommentType = "pingback"
	CommentTypeTrackback CommentType = "trackback"
)

// ApprovalState says whether a comment has been moderated yet.
type ApprovalState string

const (
	Approved ApprovalState = "approved"
	Pending  ApprovalState = "pending"
)

// CommentItem is one comment, pingback or trackback on a ContentItem.
type CommentItem struct {
	ID int64

	// ParentID is the ID of the comment this one replies to, or 0.
	ParentID int64

	PostID     int64
	AuthorName string
	AuthorURL  string

	// UserID is the ID of the registered author who left the comment, or
	// 0 for anonymous comments.
	UserID int64

	Body        string
	PublishedAt time.Time
	Approval    ApprovalState
	Type        CommentType
}

// Variant returns the comment's type, treating an empty type as an ordinary
// comment.
func (c CommentItem) Variant() CommentType {
	if c.Type == "" {
		return CommentTypeComment
	}
	return c.Type
}

// Author is someone who writes ContentItems.
type Author struct {
	ID   int64  `yaml:"id"`
	Name string `yaml:"name"`
	Slug string `yaml:"slug"`
}

// Widget is one display module in a widget area.
type Widget struct {
	ID    string `yaml:"id"`
	Type  string `yaml:"type"`
	Title string `yaml:"title"`

	// Body is trusted markup.
	Body string `yaml:"body"`
}

// SiteMeta describes the site as a whole.
type SiteMeta struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	URL         string `yaml:"url"`

	// BackgroundColor is a hex colour without the leading #. Nil means
	// the site never set one; an empty string means it was cleared.
	BackgroundColor *string `yaml:"background_color"`

	AuthorCount int `yaml:"author_count"`

	// Schema is the schema.org type the site presents itself as.
	Schema string `yaml:"schema"`
}

// Background returns the site's background colour, or fallback when the
// site never set one.
func (s SiteMeta) Background(fallback string) string {
	if s.BackgroundColor == nil {
		return fallback
	}
	return *s.BackgroundColor
}

// Query selects ContentItems. Zero fields don't filter.
type Query struct {
	Kind     Kind
	Slug     string
	Category string
	Tag      string
	AuthorID int64

	// Page is the 1-based page of results to return.
	Page    int
	PerPage int
}

// Result is one page of ContentItems matching a Query.
type Result struct {
	Items      []ContentItem
	TotalPages int
}

// Repository is the system of record for everything the theme renders.
type Repository interface {
	// FetchContentItems returns the items matching the query, newest
	// first. In an unfiltered post query, sticky posts lead the list.
	FetchContentItems(ctx context.Context, query Query) (Result, error)

	// FetchComments returns every comment on the item, oldest first. The
	// comments form a tree through their ParentID.
	FetchComments(ctx context.Context, postID int64) ([]CommentItem, error)

	FetchSiteMeta(ctx context.Context) (SiteMeta, error)

	// FetchAuthor returns ErrNotFound if there's no author with that ID.
	FetchAuthor(ctx context.Context, id int64) (Author, error)

	// FetchWidgets returns the widgets placed in the area, in display
	// order. An area nobody has placed widgets in has none.
	FetchWidgets(ctx context.Context, areaID string) ([]Widget, error)
}
