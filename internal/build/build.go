// Package build renders every view of a site to static files.
package build

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"impractical.co/jrblog"
	"impractical.co/jrblog/content"
	"impractical.co/jrblog/theme"
)

// NotFoundFile is the file the not found view is written to, at the root of
// the output directory.
const NotFoundFile = "404.html"

// FeedFile is the file the feed is written to, at the root of the output
// directory. It's served at theme.FeedPath.
var FeedFile = strings.TrimPrefix(theme.FeedPath, "/")

const listPageSize = 100

// Builder writes a site to a directory.
type Builder struct {
	Engine     *theme.Engine
	Repository content.Repository

	// OutputDir is created if it doesn't exist. Files already in it are
	// overwritten but never removed.
	OutputDir string

	// Concurrency is how many views are rendered at once. Zero means 4.
	Concurrency int

	// Assets, when set, is copied to AssetPath below OutputDir.
	Assets    fs.FS
	AssetPath string
}

// view is one file to write.
type view struct {
	req  theme.Request
	url  string
	file string
}

// Build renders every view of the site and returns the files it wrote,
// relative to OutputDir, in order.
func (b Builder) Build(ctx context.Context) ([]string, error) {
	views, err := b.views(ctx)
	if err != nil {
		return nil, err
	}
	base, err := url.Parse(b.Engine.Links().BaseURL)
	if err != nil {
		return nil, fmt.Errorf("error parsing base URL: %w", err)
	}

	files := make([]string, len(views))
	for i, v := range views {
		files[i] = v.file
		if files[i] != "" {
			continue
		}
		files[i], err = outputFile(base.Path, v.url)
		if err != nil {
			return nil, err
		}
	}

	limit := b.Concurrency
	if limit < 1 {
		limit = 4
	}
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(limit)
	for i, v := range views {
		group.Go(func() error {
			return b.write(ctx, v.req, files[i])
		})
	}
	group.Go(func() error {
		return b.writeFeed(ctx)
	})
	if b.Assets != nil {
		group.Go(func() error {
			copied, err := b.copyAssets()
			if err != nil {
				return err
			}
			jrblog.Logger(ctx).DebugContext(ctx, "copied assets", "files", copied)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	files = append(files, FeedFile)
	slices.Sort(files)
	jrblog.Logger(ctx).InfoContext(ctx, "built site", "files", len(files), "output_dir", b.OutputDir)
	return files, nil
}

func (b Builder) write(ctx context.Context, req theme.Request, file string) error {
	snap, err := b.Engine.Load(ctx, b.Repository, req)
	if err != nil {
		return fmt.Errorf("error loading %s: %w", file, err)
	}
	var buf bytes.Buffer
	if err := b.Engine.Render(ctx, &buf, snap); err != nil {
		return fmt.Errorf("error rendering %s: %w", file, err)
	}
	if err := b.writeFile(file, buf.Bytes()); err != nil {
		return err
	}
	jrblog.Logger(ctx).DebugContext(ctx, "wrote view", "file", file, "kind", req.Kind)
	return nil
}

func (b Builder) writeFeed(ctx context.Context) error {
	var buf bytes.Buffer
	if err := b.Engine.RenderFeed(ctx, &buf, b.Repository); err != nil {
		return fmt.Errorf("error rendering %s: %w", FeedFile, err)
	}
	return b.writeFile(FeedFile, buf.Bytes())
}

func (b Builder) writeFile(file string, data []byte) error {
	path := filepath.Join(b.OutputDir, filepath.FromSlash(file))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil { // #nosec G301
		return fmt.Errorf("error creating directory for %s: %w", file, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { // #nosec G306
		return fmt.Errorf("error writing %s: %w", file, err)
	}
	return nil
}

// copyAssets copies every file in Assets below OutputDir, returning how
// many it copied.
func (b Builder) copyAssets() (int, error) {
	dest := filepath.Join(b.OutputDir, filepath.FromSlash(strings.Trim(b.AssetPath, "/")))
	copied := 0
	err := fs.WalkDir(b.Assets, ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		target := filepath.Join(dest, filepath.FromSlash(name))
		if d.IsDir() {
			return os.MkdirAll(target, 0o755) // #nosec G301
		}
		src, err := b.Assets.Open(name)
		if err != nil {
			return err
		}
		defer src.Close()
		out, err := os.Create(target) // #nosec G304
		if err != nil {
			return err
		}
		if _, err := io.Copy(out, src); err != nil {
			out.Close()
			return err
		}
		copied++
		return out.Close()
	})
	if err != nil {
		return copied, fmt.Errorf("error copying assets: %w", err)
	}
	return copied, nil
}

// outputFile is the file a URL is served from: its path below the site's
// base path, followed by index.html.
func outputFile(basePath, link string) (string, error) {
	u, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("error parsing %q: %w", link, err)
	}
	rel, ok := strings.CutPrefix(u.Path, strings.TrimRight(basePath, "/"))
	if !ok {
		return "", fmt.Errorf("%q isn't below the base URL", link)
	}
	rel, err = url.PathUnescape(strings.Trim(rel, "/"))
	if err != nil {
		return "", fmt.Errorf("error unescaping %q: %w", link, err)
	}
	if rel == "" {
		return "index.html", nil
	}
	return rel + "/index.html", nil
}

// views lists every view of the site: each page of the home list, every
// sub-page of every item, each page of every archive, and the not found
// view.
func (b Builder) views(ctx context.Context) ([]view, error) {
	links := b.Engine.Links()
	var views []view

	pages, err := b.pageCount(ctx, theme.Request{Kind: theme.KindHome})
	if err != nil {
		return nil, err
	}
	for n := 1; n <= pages; n++ {
		views = append(views, view{
			req: theme.Request{Kind: theme.KindHome, Page: n},
			url: links.Paged(links.Home(), n),
		})
	}

	categories := map[string]struct{}{}
	tags := map[string]struct{}{}
	authors := map[int64]struct{}{}
	kinds := []struct {
		kind    content.Kind
		request theme.RequestKind
	}{
		{kind: content.KindPost, request: theme.KindSingle},
		{kind: content.KindPage, request: theme.KindPage},
		{kind: content.KindAttachment, request: theme.KindAttachment},
	}
	for _, k := range kinds {
		items, err := b.items(ctx, k.kind)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			for sub := 1; sub <= item.PageCount(); sub++ {
				views = append(views, view{
					req: theme.Request{Kind: k.request, Slug: item.Slug, SubPage: sub},
					url: links.ItemPage(item, sub),
				})
			}
			if k.kind != content.KindPost {
				continue
			}
			for _, term := range item.Categories {
				categories[term.Slug] = struct{}{}
			}
			for _, term := range item.Tags {
				tags[term.Slug] = struct{}{}
			}
			authors[item.AuthorID] = struct{}{}
		}
	}

	archives := map[theme.ArchiveKind][]string{
		theme.ArchiveCategory: sortedKeys(categories),
		theme.ArchiveTag:      sortedKeys(tags),
	}
	for _, id := range sortedKeys(authors) {
		author, err := b.Repository.FetchAuthor(ctx, id)
		if errors.Is(err, content.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("error fetching author %d: %w", id, err)
		}
		archives[theme.ArchiveAuthor] = append(archives[theme.ArchiveAuthor], author.Slug)
	}
	for _, archive := range []theme.ArchiveKind{theme.ArchiveCategory, theme.ArchiveTag, theme.ArchiveAuthor} {
		for _, slug := range archives[archive] {
			req := theme.Request{Kind: theme.KindArchive, Archive: archive, Slug: slug}
			pages, err := b.pageCount(ctx, req)
			if errors.Is(err, content.ErrNotFound) {
				jrblog.Logger(ctx).WarnContext(ctx, "skipping archive", "archive", archive, "slug", slug, "error", err)
				continue
			}
			if err != nil {
				return nil, err
			}
			first := archiveURL(links, archive, slug)
			for n := 1; n <= pages; n++ {
				req.Page = n
				views = append(views, view{req: req, url: links.Paged(first, n)})
			}
		}
	}

	views = append(views, view{req: theme.Request{Kind: theme.KindNotFound}, file: NotFoundFile})
	return views, nil
}

func (b Builder) pageCount(ctx context.Context, req theme.Request) (int, error) {
	snap, err := b.Engine.Load(ctx, b.Repository, req)
	if err != nil {
		return 0, fmt.Errorf("error loading %s list: %w", req.Kind, err)
	}
	return max(snap.TotalPages, 1), nil
}

func (b Builder) items(ctx context.Context, kind content.Kind) ([]content.ContentItem, error) {
	var items []content.ContentItem
	for page := 1; ; page++ {
		result, err := b.Repository.FetchContentItems(ctx, content.Query{Kind: kind, Page: page, PerPage: listPageSize})
		if err != nil {
			return nil, fmt.Errorf("error listing %s items: %w", kind, err)
		}
		items = append(items, result.Items...)
		if page >= result.TotalPages {
			return items, nil
		}
	}
}

func archiveURL(links theme.Links, archive theme.ArchiveKind, slug string) string {
	switch archive {
	case theme.ArchiveCategory:
		return links.Category(content.Term{Slug: slug})
	case theme.ArchiveTag:
		return links.Tag(content.Term{Slug: slug})
	default:
		return links.Author(content.Author{Slug: slug})
	}
}

func sortedKeys[K string | int64](m map[K]struct{}) []K {
	keys := make([]K, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}
