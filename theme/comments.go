package theme

import (
	"context"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"impractical.co/jrblog/content"
	"impractical.co/jrblog/i18n"
)

// commentTemplates picks the template each variant of comment is rendered
// with. Variants without an entry are rendered as ordinary comments.
var commentTemplates = map[content.CommentType]string{
	content.CommentTypeComment:   "comment",
	content.CommentTypePingback:  "pingback",
	content.CommentTypeTrackback: "pingback",
}

// CommentsRequest is what RenderComments needs to render an item's
// comments.
type CommentsRequest struct {
	Item     content.ContentItem
	Comments []content.CommentItem

	// MaxDepth is how deeply replies nest. Replies can't be made to
	// comments at MaxDepth.
	MaxDepth int

	CanEdit bool
}

// CommentView is the data the comment and pingback templates are executed
// with.
type CommentView struct {
	Comment      content.CommentItem
	Classes      string
	Permalink    string
	Datetime     string
	When         string
	ByPostAuthor bool
	Pending      bool
	Body         template.HTML
	EditURL      string

	// ReplyURL is empty when the comment can't be replied to.
	ReplyURL string

	Depth    int
	MaxDepth int

	// Template is the template the comment is rendered with, and
	// Children are the replies nested under it.
	Template string
	Children []CommentView

	loc *i18n.Localizer
}

// T translates a message for the template.
func (v CommentView) T(key string, args ...string) string {
	return v.loc.T(key, args...)
}

type commentsView struct {
	Count   int
	Heading template.HTML
	Thread  []CommentView
	Closed  bool
	Open    bool

	loc *i18n.Localizer
}

func (v commentsView) T(key string, args ...string) string {
	return v.loc.T(key, args...)
}

// commentWalker renders a comment tree, keeping the alternation counters
// the comment classes need.
type commentWalker struct {
	f       *FragmentRenderer
	req     CommentsRequest
	count   int
	threads int
}

// RenderComments renders the comments area of an item: a heading, the
// threaded list of comments, and a notice when comments are closed.
func (f *FragmentRenderer) RenderComments(_ context.Context, req CommentsRequest) (template.HTML, error) {
	req.MaxDepth = max(req.MaxDepth, 1)
	walker := &commentWalker{f: f, req: req}
	thread, err := walker.walk(content.BuildCommentTree(req.Comments, req.MaxDepth))
	if err != nil {
		return "", err
	}

	approved := 0
	for _, comment := range req.Comments {
		if comment.Approval != content.Pending {
			approved++
		}
	}
	view := commentsView{
		Count:  len(req.Comments),
		Thread: thread,
		Closed: !req.Item.CommentsOpen && approved > 0,
		Open:   req.Item.CommentsOpen,
		loc:    f.Loc,
	}
	if approved == 1 {
		view.Heading = f.Loc.HTML("One thought on &ldquo;{title}&rdquo;", "title", req.Item.Title)
	} else {
		view.Heading = f.Loc.HTML("{count} thoughts on &ldquo;{title}&rdquo;", "count", approved, "title", req.Item.Title)
	}

	out, err := execute(f.tmpl, "comments", view)
	if err != nil {
		return "", fmt.Errorf("error rendering comments of item %d: %w", req.Item.ID, err)
	}
	return out, nil
}

// walk builds the views of a comment tree depth first, in the order the
// comments are shown, so the alternating classes come out right.
func (w *commentWalker) walk(nodes []*content.CommentNode) ([]CommentView, error) {
	views := make([]CommentView, 0, len(nodes))
	for _, node := range nodes {
		view, err := w.view(node)
		if err != nil {
			return nil, err
		}
		if view.Children, err = w.walk(node.Children); err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func (w *commentWalker) view(node *content.CommentNode) (CommentView, error) {
	comment := node.Comment
	item := w.req.Item
	name, ok := commentTemplates[comment.Variant()]
	if !ok {
		name = "comment"
	}
	body, err := w.f.CommentBody(comment.Body)
	if err != nil {
		return CommentView{}, fmt.Errorf("error rendering comment %d: %w", comment.ID, err)
	}
	view := CommentView{
		Comment:      comment,
		Classes:      strings.Join(w.classes(node), " "),
		Permalink:    w.f.Links.Comment(item, comment.ID),
		Datetime:     comment.PublishedAt.Format(time.RFC3339),
		When:         w.f.Meta.CommentTime(comment.PublishedAt),
		ByPostAuthor: isPostAuthor(comment, item),
		Pending:      comment.Approval == content.Pending,
		Body:         body,
		Depth:        node.Depth,
		MaxDepth:     w.req.MaxDepth,
		Template:     name,
		loc:          w.f.Loc,
	}
	if item.CommentsOpen && node.Depth < w.req.MaxDepth {
		view.ReplyURL = w.f.Links.Reply(item, comment.ID)
	}
	if w.req.CanEdit {
		view.EditURL = w.f.Links.EditComment(comment)
	}
	return view, nil
}

// classes alternates even and odd over every comment, and thread-even and
// thread-odd over top-level ones, starting with even.
func (w *commentWalker) classes(node *content.CommentNode) []string {
	comment := node.Comment
	classes := []string{string(comment.Variant())}
	if comment.UserID != 0 {
		classes = append(classes, "byuser")
	}
	if isPostAuthor(comment, w.req.Item) {
		classes = append(classes, "bypostauthor")
	}
	if w.count%2 == 0 {
		classes = append(classes, "even")
	} else {
		classes = append(classes, "odd", "alt")
	}
	w.count++
	if node.Depth == 1 {
		if w.threads%2 == 0 {
			classes = append(classes, "thread-even")
		} else {
			classes = append(classes, "thread-odd", "thread-alt")
		}
		w.threads++
	}
	classes = append(classes, "depth-"+strconv.Itoa(node.Depth))
	if len(node.Children) > 0 {
		classes = append(classes, "parent")
	}
	return classes
}

func isPostAuthor(comment content.CommentItem, item content.ContentItem) bool {
	return comment.UserID != 0 && comment.UserID == item.AuthorID
}

// CommentBody turns a comment's plain text into paragraphs. Blank lines
// separate paragraphs and single newlines become line breaks. Comments are
// written by visitors, so all of the text is escaped.
func (f *FragmentRenderer) CommentBody(text string) (template.HTML, error) {
	text = strings.ReplaceAll(strings.TrimSpace(text), "\r\n", "\n")
	var paragraphs [][]string
	for _, paragraph := range strings.Split(text, "\n\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}
		lines := strings.Split(paragraph, "\n")
		for i, line := range lines {
			lines[i] = strings.TrimSpace(line)
		}
		paragraphs = append(paragraphs, lines)
	}
	return execute(f.tmpl, "comment-body", paragraphs)
}
