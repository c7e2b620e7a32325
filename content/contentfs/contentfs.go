// Package contentfs is a read-only content.Repository backed by an fs.FS of
// Markdown and HTML files with YAML front matter.
//
// The expected layout is:
//
//	site.yaml            site metadata (content.SiteMeta)
//	authors.yaml         a list of content.Author
//	widgets.yaml         a map of widget area ID to a list of content.Widget
//	posts/**/*.md        posts; .html files are taken as pre-rendered markup
//	pages/**/*.md        pages
//	attachments/**/*.md  attachments
//	comments/<slug>.yaml the comments on the post or page with that slug
//
// Everything is read once, by Load. A Repository never changes after that,
// so it can be shared between goroutines; load a new one to pick up changes.
package contentfs

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/adrg/frontmatter"
	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"impractical.co/jrblog"
	"impractical.co/jrblog/content"
)

// DefaultPerPage is used when a Query doesn't set PerPage.
const DefaultPerPage = 10

var dateFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

var _ content.Repository = &Repository{}

// Repository serves content loaded from an fs.FS.
type Repository struct {
	site     content.SiteMeta
	authors  map[int64]content.Author
	slugs    map[string]int64
	items    []content.ContentItem
	comments map[int64][]content.CommentItem
	widgets  map[string][]content.Widget
}

type frontMatter struct {
	ID           int64    `yaml:"id"`
	Title        string   `yaml:"title"`
	Slug         string   `yaml:"slug"`
	Date         string   `yaml:"date"`
	Author       int64    `yaml:"author"`
	Categories   []string `yaml:"categories"`
	Tags         []string `yaml:"tags"`
	Thumbnail    string   `yaml:"thumbnail"`
	Sticky       bool     `yaml:"sticky"`
	Format       string   `yaml:"format"`
	Template     string   `yaml:"template"`
	Excerpt      string   `yaml:"excerpt"`
	CommentsOpen *bool    `yaml:"comments_open"`
}

type commentEntry struct {
	ID     int64  `yaml:"id"`
	Parent int64  `yaml:"parent"`
	Author string `yaml:"author"`
	URL    string `yaml:"url"`
	User   int64  `yaml:"user"`
	Date   string `yaml:"date"`
	Status string `yaml:"status"`
	Type   string `yaml:"type"`
	Body   string `yaml:"body"`
}

// Load reads every file the Repository serves from fsys.
func Load(ctx context.Context, fsys fs.FS) (*Repository, error) {
	repo := &Repository{
		authors:  map[int64]content.Author{},
		slugs:    map[string]int64{},
		comments: map[int64][]content.CommentItem{},
		widgets:  map[string][]content.Widget{},
	}
	if err := readYAML(fsys, "site.yaml", &repo.site); err != nil {
		return nil, err
	}
	var authors []content.Author
	if err := readYAML(fsys, "authors.yaml", &authors); err != nil {
		return nil, err
	}
	if err := repo.addAuthors(authors); err != nil {
		return nil, err
	}
	if repo.site.AuthorCount == 0 {
		repo.site.AuthorCount = len(repo.authors)
	}
	if err := readYAML(fsys, "widgets.yaml", &repo.widgets); err != nil {
		return nil, err
	}

	kinds := []struct {
		dir  string
		kind content.Kind
	}{
		{dir: "posts", kind: content.KindPost},
		{dir: "pages", kind: content.KindPage},
		{dir: "attachments", kind: content.KindAttachment},
	}
	for _, k := range kinds {
		files, err := doublestar.Glob(fsys, k.dir+"/**/*.{md,html}")
		if err != nil {
			return nil, fmt.Errorf("error listing %s: %w", k.dir, err)
		}
		slices.Sort(files)
		for _, file := range files {
			item, err := readItem(fsys, file, k.kind)
			if err != nil {
				return nil, err
			}
			repo.items = append(repo.items, item)
		}
	}
	assignIDs(repo.items)
	if err := checkSlugs(repo.items); err != nil {
		return nil, err
	}

	commentFiles, err := doublestar.Glob(fsys, "comments/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("error listing comments: %w", err)
	}
	for _, file := range commentFiles {
		if err := repo.readComments(fsys, file); err != nil {
			return nil, err
		}
	}

	jrblog.Logger(ctx).InfoContext(ctx, "loaded content", "items", len(repo.items), "authors", len(repo.authors), "widget_areas", len(repo.widgets))
	return repo, nil
}

func readYAML(fsys fs.FS, name string, target any) error {
	data, err := fs.ReadFile(fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("error reading %s: %w", name, err)
	}
	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("error parsing %s: %w", name, err)
	}
	return nil
}

func readItem(fsys fs.FS, file string, kind content.Kind) (content.ContentItem, error) {
	data, err := fs.ReadFile(fsys, file)
	if err != nil {
		return content.ContentItem{}, fmt.Errorf("error reading %s: %w", file, err)
	}
	var meta frontMatter
	body, err := frontmatter.Parse(bytes.NewReader(data), &meta)
	if err != nil {
		return content.ContentItem{}, fmt.Errorf("error parsing front matter of %s: %w", file, err)
	}
	base := strings.TrimSuffix(path.Base(file), path.Ext(file))
	item := content.ContentItem{
		ID:         meta.ID,
		Kind:       kind,
		Slug:       cmp.Or(meta.Slug, Slugify(base)),
		Title:      meta.Title,
		Body:       strings.TrimSpace(string(body)),
		Format:     content.FormatMarkdown,
		Excerpt:    meta.Excerpt,
		AuthorID:   meta.Author,
		Categories: terms(meta.Categories),
		Tags:       terms(meta.Tags),
		Thumbnail:  meta.Thumbnail,
		Sticky:     meta.Sticky,
		PostFormat: meta.Format,
		Template:   meta.Template,
		// posts take comments unless they say otherwise, pages don't
		CommentsOpen: kind == content.KindPost,
	}
	if path.Ext(file) == ".html" {
		item.Format = content.FormatHTML
	}
	if meta.CommentsOpen != nil {
		item.CommentsOpen = *meta.CommentsOpen
	}
	if meta.Date != "" {
		item.PublishedAt, err = parseDate(meta.Date)
		if err != nil {
			return content.ContentItem{}, fmt.Errorf("error parsing date of %s: %w", file, err)
		}
	}
	return item, nil
}

func (r *Repository) readComments(fsys fs.FS, file string) error {
	slug := strings.TrimSuffix(path.Base(file), path.Ext(file))
	var owner *content.ContentItem
	for pos := range r.items {
		if r.items[pos].Slug == slug {
			owner = &r.items[pos]
			break
		}
	}
	if owner == nil {
		return fmt.Errorf("error reading %s: %w: no post or page with slug %q", file, content.ErrNotFound, slug)
	}
	var entries []commentEntry
	if err := readYAML(fsys, file, &entries); err != nil {
		return err
	}
	for _, entry := range entries {
		comment := content.CommentItem{
			ID:         entry.ID,
			ParentID:   entry.Parent,
			PostID:     owner.ID,
			AuthorName: entry.Author,
			AuthorURL:  entry.URL,
			UserID:     entry.User,
			Body:       entry.Body,
			Approval:   content.Approved,
			Type:       content.CommentTypeComment,
		}
		if entry.Status == string(content.Pending) {
			comment.Approval = content.Pending
		}
		switch content.CommentType(entry.Type) {
		case content.CommentTypePingback, content.CommentTypeTrackback:
			comment.Type = content.CommentType(entry.Type)
		}
		if entry.Date != "" {
			published, err := parseDate(entry.Date)
			if err != nil {
				return fmt.Errorf("error parsing date of comment %d in %s: %w", entry.ID, file, err)
			}
			comment.PublishedAt = published
		}
		r.comments[owner.ID] = append(r.comments[owner.ID], comment)
	}
	slices.SortStableFunc(r.comments[owner.ID], func(a, b content.CommentItem) int {
		return a.PublishedAt.Compare(b.PublishedAt)
	})
	return nil
}

func parseDate(value string) (time.Time, error) {
	for _, format := range dateFormats {
		parsed, err := time.Parse(format, value)
		if err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q, use YYYY-MM-DD or RFC 3339", value)
}

// assignIDs gives every item without an ID one higher than any ID in use.
func assignIDs(items []content.ContentItem) {
	var highest int64
	for _, item := range items {
		highest = max(highest, item.ID)
	}
	for pos := range items {
		if items[pos].ID == 0 {
			highest++
			items[pos].ID = highest
		}
	}
}

// addAuthors indexes authors by ID and slug. Authors without a slug get
// one made from their name. IDs and slugs must be unique.
func (r *Repository) addAuthors(authors []content.Author) error {
	for _, author := range authors {
		if author.Slug == "" {
			author.Slug = Slugify(author.Name)
		}
		if _, ok := r.authors[author.ID]; ok {
			return fmt.Errorf("duplicate author id %d (%q)", author.ID, author.Name)
		}
		if id, ok := r.slugs[author.Slug]; ok {
			return fmt.Errorf("duplicate author slug %q (ids %d and %d)", author.Slug, id, author.ID)
		}
		r.authors[author.ID] = author
		r.slugs[author.Slug] = author.ID
	}
	return nil
}

func checkSlugs(items []content.ContentItem) error {
	seen := map[string]struct{}{}
	ids := map[int64]struct{}{}
	for _, item := range items {
		key := string(item.Kind) + "/" + item.Slug
		if _, ok := seen[key]; ok {
			return fmt.Errorf("duplicate %s slug %q", item.Kind, item.Slug)
		}
		seen[key] = struct{}{}
		if _, ok := ids[item.ID]; ok {
			return fmt.Errorf("duplicate id %d (%s %q)", item.ID, item.Kind, item.Slug)
		}
		ids[item.ID] = struct{}{}
	}
	return nil
}

func terms(names []string) []content.Term {
	var results []content.Term
	for _, name := range names {
		results = append(results, content.Term{Name: name, Slug: Slugify(name)})
	}
	return results
}

// Slugify lowercases s and replaces every run of characters that aren't
// letters or digits with a single hyphen.
func Slugify(s string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}
