package theme

import (
	"html/template"
	"time"

	"impractical.co/jrblog/content"
	"impractical.co/jrblog/i18n"
)

const (
	// DateFormat is how dates are shown to readers.
	DateFormat = "January 2, 2006"

	// TimeFormat is how times of day are shown to readers.
	TimeFormat = "3:04 pm"
)

// The three entry meta sentences. Which one is used depends on whether the
// item has tags, only categories, or neither.
const (
	metaTagged        = `This entry was posted in {categories} and tagged {tags} on {date}<span class="by-author"> by {author}</span>.`
	metaCategorised   = `This entry was posted in {categories} on {date}<span class="by-author"> by {author}</span>.`
	metaUncategorised = `This entry was posted on {date}<span class="by-author"> by {author}</span>.`
)

// Meta composes the small pieces of markup describing an item: its date,
// its author, and the sentence tying them to its categories and tags.
type Meta struct {
	Links Links
	Loc   *i18n.Localizer

	tmpl *template.Template
}

type dateView struct {
	URL      string
	Time     string
	Datetime string
	Date     string
}

type authorView struct {
	URL    string
	Author content.Author
}

type termView struct {
	URL  string
	Name string
}

type termsView struct {
	Terms []termView
	Rel   string
	Sep   string
}

// DateAnchor links to the item, showing when it was published.
func (m Meta) DateAnchor(item content.ContentItem) (template.HTML, error) {
	return execute(m.tmpl, "date-anchor", dateView{
		URL:      m.Links.Item(item),
		Time:     item.PublishedAt.Format(TimeFormat),
		Datetime: item.PublishedAt.Format(time.RFC3339),
		Date:     item.PublishedAt.Format(DateFormat),
	})
}

// AuthorAnchor links to the author's archive.
func (m Meta) AuthorAnchor(author content.Author) (template.HTML, error) {
	return execute(m.tmpl, "author-anchor", authorView{URL: m.Links.Author(author), Author: author})
}

// CategoryList links to the archive of each of the item's categories.
func (m Meta) CategoryList(item content.ContentItem) (template.HTML, error) {
	return m.termList(item.Categories, m.Links.Category, "category tag")
}

// TagList links to the archive of each of the item's tags.
func (m Meta) TagList(item content.ContentItem) (template.HTML, error) {
	return m.termList(item.Tags, m.Links.Tag, "tag")
}

func (m Meta) termList(terms []content.Term, link func(content.Term) string, rel string) (template.HTML, error) {
	view := termsView{Rel: rel, Sep: m.Loc.T(", ")}
	for _, term := range terms {
		view.Terms = append(view.Terms, termView{URL: link(term), Name: term.Name})
	}
	return execute(m.tmpl, "term-list", view)
}

// EntryMeta is the sentence under a post saying where it was filed, when,
// and by whom. Items with tags get the tagged sentence, items with only
// categories the categorised one, and items with neither mention only the
// date and author.
func (m Meta) EntryMeta(item content.ContentItem, author content.Author) (template.HTML, error) {
	categories, err := m.CategoryList(item)
	if err != nil {
		return "", err
	}
	tags, err := m.TagList(item)
	if err != nil {
		return "", err
	}
	date, err := m.DateAnchor(item)
	if err != nil {
		return "", err
	}
	byline, err := m.AuthorAnchor(author)
	if err != nil {
		return "", err
	}
	key := metaUncategorised
	switch {
	case tags != "":
		key = metaTagged
	case categories != "":
		key = metaCategorised
	}
	return m.Loc.HTML(key, "categories", categories, "tags", tags, "date", date, "author", byline), nil
}

// CommentTime is the "{date} at {time}" text a comment's permalink shows.
func (m Meta) CommentTime(published time.Time) string {
	return m.Loc.T("{date} at {time}", "date", published.Format(DateFormat), "time", published.Format(TimeFormat))
}
