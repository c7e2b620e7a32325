package theme

import (
	"net/url"
	"strconv"
	"strings"

	"impractical.co/jrblog/content"
)

// Links builds the URLs the theme links to. Every URL starts with BaseURL,
// which has no trailing slash.
type Links struct {
	BaseURL string
}

// NewLinks returns Links rooted at baseURL.
func NewLinks(baseURL string) Links {
	return Links{BaseURL: strings.TrimRight(baseURL, "/")}
}

// Home is the URL of the front page.
func (l Links) Home() string {
	return l.BaseURL + "/"
}

// Feed is the URL of the site's feed.
func (l Links) Feed() string {
	return l.BaseURL + FeedPath
}

// Item is the URL of a post, page or attachment.
func (l Links) Item(item content.ContentItem) string {
	slug := url.PathEscape(item.Slug)
	switch item.Kind {
	case content.KindPage:
		return l.BaseURL + "/" + slug + "/"
	case content.KindAttachment:
		return l.BaseURL + "/attachment/" + slug + "/"
	default:
		return l.BaseURL + "/posts/" + slug + "/"
	}
}

// ItemPage is the URL of one sub-page of a multi-page item. The first
// sub-page is the item's own URL.
func (l Links) ItemPage(item content.ContentItem, page int) string {
	if page <= 1 {
		return l.Item(item)
	}
	return l.Item(item) + strconv.Itoa(page) + "/"
}

// Comment is the URL of one comment on an item.
func (l Links) Comment(item content.ContentItem, commentID int64) string {
	return l.Item(item) + "#comment-" + strconv.FormatInt(commentID, 10)
}

// Author is the URL of an author's archive.
func (l Links) Author(author content.Author) string {
	return l.BaseURL + "/author/" + url.PathEscape(author.Slug) + "/"
}

// Category is the URL of a category archive.
func (l Links) Category(term content.Term) string {
	return l.BaseURL + "/category/" + url.PathEscape(term.Slug) + "/"
}

// Tag is the URL of a tag archive.
func (l Links) Tag(term content.Term) string {
	return l.BaseURL + "/tag/" + url.PathEscape(term.Slug) + "/"
}

// Paged is the URL of page n of the list at base, which must end in a
// slash. The first page is base itself.
func (l Links) Paged(base string, n int) string {
	if n <= 1 {
		return base
	}
	return base + "page/" + strconv.Itoa(n) + "/"
}

// Edit is the URL the item is edited at.
func (l Links) Edit(item content.ContentItem) string {
	return l.BaseURL + "/admin/edit/" + strconv.FormatInt(item.ID, 10)
}

// EditComment is the URL the comment is edited at.
func (l Links) EditComment(comment content.CommentItem) string {
	return l.BaseURL + "/admin/comment/" + strconv.FormatInt(comment.ID, 10)
}

// Reply is the URL that opens the comment form as a reply to a comment.
func (l Links) Reply(item content.ContentItem, commentID int64) string {
	return l.Item(item) + "?replytocom=" + strconv.FormatInt(commentID, 10) + "#respond"
}
