package theme

import (
	"context"
	"fmt"
	"io"

	"github.com/gorilla/feeds"

	"impractical.co/jrblog/content"
)

// FeedPath is where the site's feed lives, below the base URL.
const FeedPath = "/feed.xml"

// FeedRequest is the view the feed is made from: the first page of posts,
// loaded for a feed reader.
var FeedRequest = Request{Kind: KindHome, Feed: true}

// Feed turns the items of a snapshot into an RSS feed. Item titles go
// through the title filter chain as feed titles, so ThemeTitle leaves
// them alone. Item descriptions are excerpts.
func (e *Engine) Feed(ctx context.Context, snap *Snapshot) (_ *feeds.Feed, err error) {
	ctx, span := startSpan(ctx, "theme.Feed", snap.Request)
	defer func() { endSpan(span, err) }()

	feed := &feeds.Feed{
		Title:       snap.Site.Name,
		Link:        &feeds.Link{Href: e.links.Home()},
		Description: snap.Site.Description,
	}
	tc := TemplateContext{Kind: KindSingle, Feed: true}
	for _, item := range snap.Items {
		excerpt, err := e.fragments.excerpt(item)
		if err != nil {
			return nil, fmt.Errorf("error building excerpt of item %d: %w", item.ID, err)
		}
		title := e.Titles.Apply(ctx, DocumentTitle{Title: item.Title, Sep: TitleSeparator, Site: snap.Site, Context: tc})
		entry := &feeds.Item{
			Id:          e.links.Item(item),
			Title:       title.Title,
			Link:        &feeds.Link{Href: e.links.Item(item)},
			Description: string(excerpt),
			Created:     item.PublishedAt,
		}
		if author := snap.Authors[item.AuthorID]; author.Name != "" {
			entry.Author = &feeds.Author{Name: author.Name}
		}
		feed.Items = append(feed.Items, entry)
		if item.PublishedAt.After(feed.Updated) {
			feed.Updated = item.PublishedAt
		}
	}
	return feed, nil
}

// RenderFeed loads the feed from repo and writes it to out as RSS 2.0.
// Nothing is written if it fails.
func (e *Engine) RenderFeed(ctx context.Context, out io.Writer, repo content.Repository) error {
	snap, err := e.Load(ctx, repo, FeedRequest)
	if err != nil {
		return err
	}
	feed, err := e.Feed(ctx, snap)
	if err != nil {
		return err
	}
	rss, err := feed.ToRss()
	if err != nil {
		return fmt.Errorf("error encoding feed: %w", err)
	}
	_, err = io.WriteString(out, rss)
	return err
}
