package theme

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"impractical.co/jrblog/content"
)

func commentedPost(open bool) content.ContentItem {
	return content.ContentItem{ID: 10, Kind: content.KindPost, Slug: "first", Title: "First & Best", AuthorID: 2, CommentsOpen: open}
}

func at(day int) time.Time {
	return time.Date(2024, time.January, day, 15, 4, 0, 0, time.UTC)
}

// chain is a reply thread n comments deep.
func chain(n int) []content.CommentItem {
	var comments []content.CommentItem
	for i := 1; i <= n; i++ {
		comments = append(comments, content.CommentItem{
			ID: int64(i), ParentID: int64(i - 1), PostID: 10,
			AuthorName: "Commenter " + strconv.Itoa(i), Body: "Reply " + strconv.Itoa(i),
			PublishedAt: at(i), Approval: content.Approved,
		})
	}
	return comments
}

func renderComments(t *testing.T, req CommentsRequest) *goquery.Document {
	t.Helper()
	got, err := newRenderer(t).RenderComments(context.Background(), req)
	require.NoError(t, err)
	return parseFragment(t, string(got))
}

func TestRenderComments(t *testing.T) {
	t.Parallel()

	doc := renderComments(t, CommentsRequest{
		Item: commentedPost(true),
		Comments: []content.CommentItem{
			{ID: 1, PostID: 10, AuthorName: "Someone", AuthorURL: "https://someone.example", Body: "Nice post.\n\nReally <b>nice</b>.", PublishedAt: at(2), Approval: content.Approved},
			{ID: 2, ParentID: 1, PostID: 10, AuthorName: "Grace", UserID: 2, Body: "Thanks!", PublishedAt: at(3), Approval: content.Approved},
			{ID: 3, PostID: 10, AuthorName: "Other Blog", AuthorURL: "https://other.example/post", Type: content.CommentTypePingback, PublishedAt: at(4), Approval: content.Approved},
			{ID: 4, PostID: 10, AuthorName: "Newcomer", Body: "First time here", PublishedAt: at(5), Approval: content.Pending},
		},
		MaxDepth: 5,
	})

	assert.Equal(t, "3 thoughts on “First & Best”", doc.Find("h2.comments-title").Text())

	first := doc.Find("li#li-comment-1")
	require.Equal(t, 1, first.Length())
	article := first.ChildrenFiltered("article")
	assert.Equal(t, "comment even thread-even depth-1 parent", first.AttrOr("class", ""))
	author := article.Find("cite.fn a.url")
	assert.Equal(t, "https://someone.example", author.AttrOr("href", ""))
	assert.Equal(t, "external nofollow", author.AttrOr("rel", ""))
	assert.Equal(t, "http://example.com/posts/first/#comment-1", article.Find("header > a").AttrOr("href", ""))
	assert.Equal(t, "2024-01-02T15:04:00Z", article.Find("time").AttrOr("datetime", ""))
	assert.Equal(t, "January 2, 2024 at 3:04 pm", article.Find("time").Text())
	assert.Equal(t, 2, article.Find(".comment-content p").Length())
	assert.Equal(t, 0, article.Find(".comment-content b").Length(), "comment markup is escaped")
	reply := article.Find(".reply a.comment-reply-link")
	assert.Equal(t, "http://example.com/posts/first/?replytocom=1#respond", reply.AttrOr("href", ""))
	assert.Equal(t, "1", reply.AttrOr("data-depth", ""))
	assert.Equal(t, "5", reply.AttrOr("data-max-depth", ""))
	assert.Equal(t, 0, article.Find("cite span").Length(), "only the post's author gets the badge")

	byAuthor := first.Find("ol.children > li#li-comment-2")
	require.Equal(t, 1, byAuthor.Length())
	assert.Equal(t, "comment byuser bypostauthor odd alt depth-2", byAuthor.AttrOr("class", ""))
	assert.Equal(t, "Post author", byAuthor.Find("cite.fn span").Text())

	pingback := doc.Find("li#comment-3")
	require.Equal(t, 1, pingback.Length())
	assert.Equal(t, "pingback even thread-odd thread-alt depth-1", pingback.AttrOr("class", ""))
	assert.Equal(t, "Pingback: Other Blog", pingback.Find("p").Text())
	assert.Equal(t, 0, pingback.Find("article, .reply").Length())

	pending := doc.Find("li#li-comment-4")
	assert.Equal(t, "Your comment is awaiting moderation.", pending.Find(".comment-awaiting-moderation").Text())
	assert.Equal(t, 0, article.Find(".comment-awaiting-moderation").Length())

	assert.Equal(t, 0, doc.Find(".nocomments").Length())
	assert.Equal(t, 1, doc.Find("#respond").Length())
	assert.Equal(t, 0, doc.Find(".comment-edit-link").Length())
}

func TestRenderCommentsReplyDepth(t *testing.T) {
	t.Parallel()

	for _, maxDepth := range []int{1, 2, 3, 5} {
		t.Run(strconv.Itoa(maxDepth), func(t *testing.T) {
			t.Parallel()
			doc := renderComments(t, CommentsRequest{Item: commentedPost(true), Comments: chain(7), MaxDepth: maxDepth})
			require.Equal(t, 7, doc.Find("li.comment").Length())
			doc.Find("li.comment").Each(func(_ int, li *goquery.Selection) {
				depth := li.ParentsFiltered("ol.children").Length() + 1
				assert.LessOrEqual(t, depth, maxDepth)
				assert.True(t, li.HasClass("depth-"+strconv.Itoa(depth)))
				replies := li.ChildrenFiltered("article").Find(".comment-reply-link").Length()
				if depth >= maxDepth {
					assert.Zero(t, replies, "no replies at depth %d of %d", depth, maxDepth)
				} else {
					assert.Equal(t, 1, replies)
				}
			})
		})
	}
}

func TestRenderCommentsClosed(t *testing.T) {
	t.Parallel()

	doc := renderComments(t, CommentsRequest{Item: commentedPost(false), Comments: chain(3), MaxDepth: 5, CanEdit: true})
	assert.Equal(t, 0, doc.Find(".comment-reply-link").Length())
	assert.Equal(t, "Comments are closed.", doc.Find("p.nocomments").Text())
	assert.Equal(t, 0, doc.Find("#respond").Length())
	assert.Equal(t, "http://example.com/admin/comment/2", doc.Find("#comment-2 .comment-edit-link").AttrOr("href", ""))

	single := renderComments(t, CommentsRequest{Item: commentedPost(false), Comments: chain(1), MaxDepth: 5})
	assert.Equal(t, "One thought on “First & Best”", single.Find("h2.comments-title").Text())

	none := renderComments(t, CommentsRequest{Item: commentedPost(false)})
	assert.Equal(t, 0, none.Find(".comments-title, .commentlist, .nocomments").Length())
}

func TestCommentBody(t *testing.T) {
	t.Parallel()

	f := newRenderer(t)
	got, err := f.CommentBody("  \n ")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = f.CommentBody("One\r\ntwo & three\n\n\n<script>")
	require.NoError(t, err)
	assert.Equal(t, "<p>One<br>\ntwo &amp; three</p>\n<p>&lt;script&gt;</p>", string(got))
}
