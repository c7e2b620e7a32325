package contentfs

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"impractical.co/jrblog/content"
)

// FetchContentItems returns the items matching query, newest first. An empty
// query.Kind selects posts. In a post query with no other filters, sticky
// posts come before everything else.
func (r *Repository) FetchContentItems(ctx context.Context, query content.Query) (content.Result, error) {
	if err := ctx.Err(); err != nil {
		return content.Result{}, err
	}
	kind := cmp.Or(query.Kind, content.KindPost)
	perPage := query.PerPage
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	page := max(query.Page, 1)

	var matches []content.ContentItem
	for _, item := range r.items {
		if item.Kind != kind {
			continue
		}
		if query.Slug != "" && item.Slug != query.Slug {
			continue
		}
		if query.AuthorID != 0 && item.AuthorID != query.AuthorID {
			continue
		}
		if query.Category != "" && !hasTerm(item.Categories, query.Category) {
			continue
		}
		if query.Tag != "" && !hasTerm(item.Tags, query.Tag) {
			continue
		}
		matches = append(matches, item)
	}

	// stickies lead the unfiltered post list, so every page of it is cut
	// from the same order
	leadSticky := kind == content.KindPost && query.Slug == "" &&
		query.AuthorID == 0 && query.Category == "" && query.Tag == ""
	slices.SortStableFunc(matches, func(a, b content.ContentItem) int {
		if leadSticky && a.Sticky != b.Sticky {
			if a.Sticky {
				return -1
			}
			return 1
		}
		if c := b.PublishedAt.Compare(a.PublishedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})

	total := (len(matches) + perPage - 1) / perPage
	result := content.Result{TotalPages: max(total, 1)}
	start := (page - 1) * perPage
	if start >= len(matches) {
		return result, nil
	}
	end := min(start+perPage, len(matches))
	result.Items = slices.Clone(matches[start:end])
	return result, nil
}

// FetchComments returns the comments on the item with the passed ID, oldest
// first. Items without comments have none; that isn't an error.
func (r *Repository) FetchComments(ctx context.Context, postID int64) ([]content.CommentItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return slices.Clone(r.comments[postID]), nil
}

// FetchSiteMeta returns the contents of site.yaml.
func (r *Repository) FetchSiteMeta(ctx context.Context) (content.SiteMeta, error) {
	if err := ctx.Err(); err != nil {
		return content.SiteMeta{}, err
	}
	return r.site, nil
}

// FetchAuthor returns the author with the passed ID, or content.ErrNotFound.
func (r *Repository) FetchAuthor(ctx context.Context, id int64) (content.Author, error) {
	if err := ctx.Err(); err != nil {
		return content.Author{}, err
	}
	author, ok := r.authors[id]
	if !ok {
		return content.Author{}, fmt.Errorf("author %d: %w", id, content.ErrNotFound)
	}
	return author, nil
}

// FetchAuthorBySlug returns the author with the passed slug, or
// content.ErrNotFound.
func (r *Repository) FetchAuthorBySlug(ctx context.Context, slug string) (content.Author, error) {
	if err := ctx.Err(); err != nil {
		return content.Author{}, err
	}
	id, ok := r.slugs[slug]
	if !ok {
		return content.Author{}, fmt.Errorf("author %q: %w", slug, content.ErrNotFound)
	}
	return r.authors[id], nil
}

// FetchWidgets returns the widgets placed in the area, in the order
// widgets.yaml lists them.
func (r *Repository) FetchWidgets(ctx context.Context, areaID string) ([]content.Widget, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return slices.Clone(r.widgets[areaID]), nil
}

func hasTerm(terms []content.Term, slug string) bool {
	return slices.ContainsFunc(terms, func(term content.Term) bool {
		return term.Slug == slug
	})
}
