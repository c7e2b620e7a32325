package theme

import (
	"context"
	"strconv"
	"strings"

	"impractical.co/jrblog"
	"impractical.co/jrblog/content"
)

// BodyClasses is the value the body class filter chain works on. Handlers
// append to Classes; the other fields describe the view.
type BodyClasses struct {
	Classes []string

	Context  TemplateContext
	Template Template

	// Item is what a singular view shows, or nil.
	Item *content.ContentItem

	// BackgroundColor is the site's background colour, after defaults
	// have been applied. It may have a leading #.
	BackgroundColor string

	// ActiveAreas are the IDs of the widget areas with widgets in them.
	ActiveAreas map[string]bool

	// FontQueued is set when the web font stylesheet is on the page.
	FontQueued bool

	AuthorCount int
}

// BackgroundClass returns the class describing a background colour:
// custom-background-empty when there isn't one, custom-background-white for
// white, and nothing for other colours.
func BackgroundClass(color string) string {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(color), "#")) {
	case "":
		return "custom-background-empty"
	case "fff", "ffffff":
		return "custom-background-white"
	}
	return ""
}

// ThemeBodyClasses is the theme's body class handler.
func ThemeBodyClasses(_ context.Context, in BodyClasses) BodyClasses {
	if !in.ActiveAreas[AreaRightSidebar] || in.Template.ID == TemplateFullWidth {
		in.Classes = append(in.Classes, "full-width")
	}
	if in.Template.ID == TemplateFrontPage {
		in.Classes = append(in.Classes, "template-front-page")
		if in.Item != nil && in.Item.HasThumbnail() {
			in.Classes = append(in.Classes, "has-post-thumbnail")
		}
		if in.ActiveAreas[AreaRightSidebar] && in.ActiveAreas[AreaLeftSidebar] {
			in.Classes = append(in.Classes, "two-sidebars")
		}
	}
	if class := BackgroundClass(in.BackgroundColor); class != "" {
		in.Classes = append(in.Classes, class)
	}
	if in.FontQueued {
		in.Classes = append(in.Classes, "custom-font-enabled")
	}
	if in.AuthorCount <= 1 {
		in.Classes = append(in.Classes, "single-author")
	}
	return in
}

// NewBodyClassFilter returns a body class filter chain with ThemeBodyClasses
// registered as "theme" at the default priority.
func NewBodyClassFilter() *jrblog.Filter[BodyClasses] {
	var filter jrblog.Filter[BodyClasses]
	filter.Add("theme", jrblog.DefaultPriority, ThemeBodyClasses)
	return &filter
}

// viewClasses are the classes every view gets before the filter chain
// runs, describing what kind of view it is.
func viewClasses(tc TemplateContext, item *content.ContentItem, archive ArchiveKind, archiveSlug string) []string {
	var classes []string
	switch tc.Kind {
	case KindHome:
		classes = append(classes, "home", "blog")
	case KindSingle:
		classes = append(classes, "single", "single-post")
	case KindPage:
		classes = append(classes, "page")
	case KindAttachment:
		classes = append(classes, "attachment", "single")
	case KindArchive:
		classes = append(classes, "archive")
		if archive != "" {
			classes = append(classes, string(archive), string(archive)+"-"+archiveSlug)
		}
	case KindNotFound:
		classes = append(classes, "error404")
	}
	if item != nil {
		switch item.Kind {
		case content.KindPage:
			classes = append(classes, "page-id-"+strconv.FormatInt(item.ID, 10))
		default:
			classes = append(classes, "postid-"+strconv.FormatInt(item.ID, 10))
		}
	}
	if tc.Kind == KindPage && IsCustomTemplate(tc.TemplateSlug) {
		classes = append(classes, "page-template", "page-template-"+tc.TemplateSlug)
	}
	if tc.FrontPage && tc.Kind != KindHome {
		classes = append(classes, "home")
	}
	if paged := tc.Paged(); paged >= 2 {
		classes = append(classes, "paged", "paged-"+strconv.Itoa(paged))
	}
	if tc.Previewing {
		classes = append(classes, "customize-preview")
	}
	classes = append(classes, "custom-background")
	return classes
}

// ContentWidth is how wide, in pixels, embedded media in the content may
// be: full for the full-width template, attachments, and views without a
// right sidebar.
func ContentWidth(normal, full int, tmpl Template, tc TemplateContext, activeAreas map[string]bool) int {
	if tmpl.ID == TemplateFullWidth || tc.Kind == KindAttachment || !activeAreas[AreaRightSidebar] {
		return full
	}
	return normal
}
