package theme

import (
	"context"
	"slices"
	"strconv"
	"strings"

	"impractical.co/jrblog"
	"impractical.co/jrblog/content"
	"impractical.co/jrblog/i18n"
)

// TitleSeparator goes between the parts of the document title.
const TitleSeparator = "|"

// DocumentTitle is the value the title filter chain works on. Handlers
// change Title; the other fields describe the view.
type DocumentTitle struct {
	// Title starts out as the title of what's being shown, or empty on
	// list views.
	Title string

	Sep     string
	Site    content.SiteMeta
	Context TemplateContext
}

// ThemeTitle is the theme's document title handler. Feed titles are left
// alone. Everything else gets the site name, then the site description on
// the home or front page, then the page number when past the first page of
// a list or a multi-page item, all joined by the separator.
func ThemeTitle(loc *i18n.Localizer) jrblog.FilterFunc[DocumentTitle] {
	return func(_ context.Context, title DocumentTitle) DocumentTitle {
		if title.Context.Feed {
			return title
		}
		parts := []string{title.Title, title.Site.Name}
		if title.Site.Description != "" && (title.Context.Kind == KindHome || title.Context.FrontPage) {
			parts = append(parts, title.Site.Description)
		}
		if page := max(title.Context.Paged(), title.Context.SubPage()); page >= 2 {
			parts = append(parts, loc.T("Page {number}", "number", strconv.Itoa(page)))
		}
		parts = slices.DeleteFunc(parts, func(part string) bool { return part == "" })
		title.Title = strings.Join(parts, " "+title.Sep+" ")
		return title
	}
}

// NewTitleFilter returns a title filter chain with ThemeTitle registered as
// "theme" at the default priority.
func NewTitleFilter(loc *i18n.Localizer) *jrblog.Filter[DocumentTitle] {
	var filter jrblog.Filter[DocumentTitle]
	filter.Add("theme", jrblog.DefaultPriority, ThemeTitle(loc))
	return &filter
}
