package theme

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"impractical.co/jrblog/content"
)

func newRenderer(t *testing.T) *FragmentRenderer {
	t.Helper()
	f, err := NewFragmentRenderer(Templates, NewLinks("http://example.com"), nil)
	require.NoError(t, err)
	return f
}

func post() content.ContentItem {
	return content.ContentItem{
		ID:          3,
		Kind:        content.KindPost,
		Slug:        "multi",
		Title:       "A <Multi> Page Post",
		Format:      content.FormatMarkdown,
		AuthorID:    1,
		PublishedAt: time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC),
		Categories:  []content.Term{{Name: "News", Slug: "news"}},
		Tags:        []content.Term{{Name: "Go", Slug: "go"}},
		Body: "# Part one\n\nIntro **bold**.\n\n<!--more-->\n\nAfter the fold.\n\n" +
			content.PageBreak + "\n\nPart *two*.\n\n" + content.PageBreak + "\n\nPart three.",
		CommentsOpen: true,
	}
}

func TestRenderItemSingular(t *testing.T) {
	t.Parallel()

	f := newRenderer(t)
	got, err := f.RenderItem(context.Background(), ItemRequest{
		Item:    post(),
		Author:  content.Author{ID: 1, Name: "Ada", Slug: "ada"},
		Context: TemplateContext{Kind: KindSingle},
	})
	require.NoError(t, err)

	doc := parseFragment(t, string(got))
	article := doc.Find("article#post-3")
	require.Equal(t, 1, article.Length())
	assert.Equal(t, "post-3 post type-post status-publish format-standard hentry category-news tag-go", article.AttrOr("class", ""))
	assert.Equal(t, "A <Multi> Page Post", article.Find("h1.entry-title").Text())
	assert.Equal(t, 0, article.Find("h1.entry-title a").Length(), "singular titles aren't links")

	body := article.Find(".entry-content")
	assert.Equal(t, "Part one", body.Find("h1").Text())
	assert.Equal(t, "bold", body.Find("strong").Text())
	assert.Contains(t, body.Text(), "After the fold.")
	assert.NotContains(t, body.Text(), "Part two")
	assert.Equal(t, 1, body.Find("span#more-3").Length())

	links := body.Find(".page-links")
	require.Equal(t, 1, links.Length())
	assert.Equal(t, "2", links.Find(`a[href="http://example.com/posts/multi/2/"]`).Text())
	assert.Equal(t, "1", links.Find("span.current").Text())

	assert.Contains(t, article.Find("footer.entry-meta").Text(), "This entry was posted in News and tagged Go on March 1, 2024 by Ada.")
	assert.Equal(t, 0, article.Find(".edit-link").Length())
}

func TestRenderItemSubPage(t *testing.T) {
	t.Parallel()

	f := newRenderer(t)
	got, err := f.RenderItem(context.Background(), ItemRequest{
		Item:    post(),
		Context: TemplateContext{Kind: KindSingle, Page: 2, CanEdit: true},
	})
	require.NoError(t, err)

	doc := parseFragment(t, string(got))
	body := doc.Find(".entry-content")
	assert.Equal(t, "two", body.Find("em").Text())
	assert.NotContains(t, body.Text(), "Part one")
	assert.Equal(t, "2", body.Find(".page-links span.current").Text())
	assert.Equal(t, "http://example.com/admin/edit/3", doc.Find(".edit-link a.post-edit-link").AttrOr("href", ""))

	// sub-pages past the end show the last one
	got, err = f.RenderItem(context.Background(), ItemRequest{Item: post(), Context: TemplateContext{Kind: KindSingle, Page: 9}})
	require.NoError(t, err)
	assert.Contains(t, parseFragment(t, string(got)).Find(".entry-content").Text(), "Part three.")
}

func TestRenderItemList(t *testing.T) {
	t.Parallel()

	f := newRenderer(t)
	item := post()
	item.Sticky = true
	got, err := f.RenderItem(context.Background(), ItemRequest{Item: item, Context: TemplateContext{Kind: KindHome}})
	require.NoError(t, err)

	doc := parseFragment(t, string(got))
	article := doc.Find("article")
	assert.True(t, article.HasClass("sticky"))
	assert.Equal(t, "Featured post", article.Find(".featured-post").Text())
	title := article.Find("h1.entry-title a")
	assert.Equal(t, "http://example.com/posts/multi/", title.AttrOr("href", ""))
	assert.Equal(t, "Permalink to A <Multi> Page Post", title.AttrOr("title", ""))

	body := article.Find(".entry-content")
	assert.Contains(t, body.Text(), "Intro bold.")
	assert.NotContains(t, body.Text(), "After the fold.")
	more := body.Find("a.more-link")
	assert.Equal(t, "http://example.com/posts/multi/#more-3", more.AttrOr("href", ""))
	assert.Equal(t, "Continue reading →", more.Text())
	assert.Equal(t, 0, body.Find(".page-links").Length())

	// stickiness only shows on the first page of the home list
	got, err = f.RenderItem(context.Background(), ItemRequest{Item: item, Context: TemplateContext{Kind: KindHome, Pagination: Pagination{Current: 2, Total: 2}}})
	require.NoError(t, err)
	assert.False(t, parseFragment(t, string(got)).Find("article").HasClass("sticky"))
}

func TestRenderItemExcerpt(t *testing.T) {
	t.Parallel()

	f := newRenderer(t)
	item := post()
	got, err := f.RenderItem(context.Background(), ItemRequest{Item: item, Context: TemplateContext{Kind: KindArchive}, Excerpt: true})
	require.NoError(t, err)
	summary := parseFragment(t, string(got)).Find(".entry-summary")
	assert.Equal(t, "Part one Intro bold.", strings.TrimSpace(summary.Text()))

	item.Body = strings.Repeat("word ", 80)
	got, err = f.RenderItem(context.Background(), ItemRequest{Item: item, Context: TemplateContext{Kind: KindArchive}, Excerpt: true})
	require.NoError(t, err)
	text := strings.TrimSpace(parseFragment(t, string(got)).Find(".entry-summary").Text())
	assert.True(t, strings.HasSuffix(text, "[…]"))
	assert.Len(t, strings.Fields(text), excerptWords+1)

	item.Excerpt = "Hand <written>."
	got, err = f.RenderItem(context.Background(), ItemRequest{Item: item, Context: TemplateContext{Kind: KindArchive}, Excerpt: true})
	require.NoError(t, err)
	assert.Contains(t, string(got), "<p>Hand &lt;written&gt;.</p>")
}

func TestRenderItemFormatsAndKinds(t *testing.T) {
	t.Parallel()

	f := newRenderer(t)

	aside := post()
	aside.PostFormat = "aside"
	aside.Body = "Just a thought."
	got, err := f.RenderItem(context.Background(), ItemRequest{Item: aside, Context: TemplateContext{Kind: KindHome}})
	require.NoError(t, err)
	doc := parseFragment(t, string(got))
	assert.True(t, doc.Find("article").HasClass("format-aside"))
	assert.Equal(t, 0, doc.Find(".entry-title").Length())
	assert.Equal(t, 1, doc.Find("footer.entry-meta time.entry-date").Length())
	assert.NotContains(t, doc.Find("footer.entry-meta").Text(), "This entry was posted")

	page := content.ContentItem{ID: 20, Kind: content.KindPage, Slug: "about", Title: "About", Body: "<p>About us.</p>", Thumbnail: "/img/about.jpg"}
	got, err = f.RenderItem(context.Background(), ItemRequest{Item: page, Context: TemplateContext{Kind: KindPage}})
	require.NoError(t, err)
	doc = parseFragment(t, string(got))
	article := doc.Find("article#post-20")
	assert.Equal(t, "post-20 page type-page status-publish has-post-thumbnail hentry", article.AttrOr("class", ""))
	assert.Equal(t, 1, article.Find("a#heading").Length())
	assert.Equal(t, "/img/about.jpg", article.Find("img.wp-post-image").AttrOr("src", ""))
	assert.Equal(t, "About us.", article.Find(".entry-content p").Text())
	assert.Empty(t, strings.TrimSpace(article.Find("footer.entry-meta").Text()))
}

func TestPageLinks(t *testing.T) {
	t.Parallel()

	f := newRenderer(t)
	item := content.ContentItem{Kind: content.KindPage, Slug: "guide"}
	got, err := f.PageLinks(item, 1, 1)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = f.PageLinks(item, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, `<div class="page-links">Pages: <a href="http://example.com/guide/">1</a> <span class="current">2</span>`+
		` <a href="http://example.com/guide/3/">3</a></div>`, string(got))
}

func TestContentNav(t *testing.T) {
	t.Parallel()

	f := newRenderer(t)
	home := f.Links.Home()
	nav := func(t *testing.T, id, base string, pagination Pagination) string {
		t.Helper()
		got, err := f.ContentNav(id, base, pagination)
		require.NoError(t, err)
		return string(got)
	}
	assert.Empty(t, nav(t, "nav-below", home, Pagination{Current: 1, Total: 1}))
	assert.Empty(t, nav(t, "nav-below", home, Pagination{}))

	doc := parseFragment(t, nav(t, "nav-below", home, Pagination{Current: 1, Total: 3}))
	below := doc.Find("nav#nav-below")
	assert.Equal(t, "Post navigation", below.Find("h3.assistive-text").Text())
	assert.Equal(t, "http://example.com/page/2/", below.Find(".nav-previous a").AttrOr("href", ""))
	assert.Equal(t, "← Older posts", below.Find(".nav-previous a").Text())
	assert.Equal(t, 1, below.Find(".nav-previous a span.meta-nav").Length())
	assert.Equal(t, 0, below.Find(".nav-next a").Length())

	doc = parseFragment(t, nav(t, "nav-below", home, Pagination{Current: 3, Total: 3}))
	assert.Equal(t, 0, doc.Find(".nav-previous a").Length())
	assert.Equal(t, "http://example.com/page/2/", doc.Find(".nav-next a").AttrOr("href", ""))

	doc = parseFragment(t, nav(t, "nav-below", "http://example.com/tag/go/", Pagination{Current: 2, Total: 3}))
	assert.Equal(t, "http://example.com/tag/go/page/3/", doc.Find(".nav-previous a").AttrOr("href", ""))
	assert.Equal(t, "http://example.com/tag/go/", doc.Find(".nav-next a").AttrOr("href", ""))
}

func TestPageMenu(t *testing.T) {
	t.Parallel()

	f := newRenderer(t)
	pages := []content.ContentItem{
		{ID: 20, Kind: content.KindPage, Slug: "about", Title: "About"},
		{ID: 21, Kind: content.KindPage, Slug: "contact", Title: "Contact & Such"},
	}

	menu := func(t *testing.T, tc TemplateContext, current *content.ContentItem) string {
		t.Helper()
		got, err := f.PageMenu(pages, tc, current)
		require.NoError(t, err)
		return string(got)
	}
	doc := parseFragment(t, menu(t, TemplateContext{Kind: KindHome}, nil))
	items := doc.Find(".menu li")
	require.Equal(t, 3, items.Length())
	assert.Equal(t, "Home", items.Eq(0).Text())
	assert.True(t, items.Eq(0).HasClass("current_page_item"))
	assert.Equal(t, "http://example.com/", items.Eq(0).Find("a").AttrOr("href", ""))
	assert.Equal(t, "Contact & Such", items.Eq(2).Text())

	current := pages[0]
	doc = parseFragment(t, menu(t, TemplateContext{Kind: KindPage}, &current))
	items = doc.Find(".menu li")
	assert.False(t, items.Eq(0).HasClass("current_page_item"))
	assert.Equal(t, "page_item page-item-20 current_page_item", items.Eq(1).AttrOr("class", ""))
}
