package theme

import "slices"

// TemplateID identifies a page layout.
type TemplateID string

const (
	TemplateIndex       TemplateID = "index"
	TemplateSingle      TemplateID = "single"
	TemplatePage        TemplateID = "page"
	TemplateArchive     TemplateID = "archive"
	TemplateAttachment  TemplateID = "attachment"
	TemplateNotFound    TemplateID = "404"
	TemplateFullWidth   TemplateID = "full-width"
	TemplateFrontPage   TemplateID = "front-page"
	TemplateLeftSidebar TemplateID = "left-sidebar"
	TemplateTwoSidebars TemplateID = "two-sidebars"
)

// FragmentID identifies a region of the page.
type FragmentID string

const (
	FragmentHeader        FragmentID = "header"
	FragmentLeftSidebar   FragmentID = "sidebar-left"
	FragmentArchiveHeader FragmentID = "archive-header"
	FragmentLoop          FragmentID = "loop"
	FragmentContentNav    FragmentID = "content-nav"
	FragmentSingle        FragmentID = "single"
	FragmentComments      FragmentID = "comments"
	FragmentNotFound      FragmentID = "not-found"
	FragmentFrontSidebars FragmentID = "front-sidebars"
	FragmentSidebar       FragmentID = "sidebar"
	FragmentFooter        FragmentID = "footer"
)

// Template is a layout and the regions it renders, in order.
type Template struct {
	ID        TemplateID
	Fragments []FragmentID
}

// Has reports whether the template renders the fragment.
func (t Template) Has(id FragmentID) bool {
	return slices.Contains(t.Fragments, id)
}

var templateTable = map[TemplateID][]FragmentID{
	TemplateIndex:       {FragmentHeader, FragmentLoop, FragmentContentNav, FragmentSidebar, FragmentFooter},
	TemplateSingle:      {FragmentHeader, FragmentSingle, FragmentComments, FragmentSidebar, FragmentFooter},
	TemplatePage:        {FragmentHeader, FragmentSingle, FragmentComments, FragmentSidebar, FragmentFooter},
	TemplateArchive:     {FragmentHeader, FragmentArchiveHeader, FragmentLoop, FragmentContentNav, FragmentSidebar, FragmentFooter},
	TemplateAttachment:  {FragmentHeader, FragmentSingle, FragmentComments, FragmentFooter},
	TemplateNotFound:    {FragmentHeader, FragmentNotFound, FragmentSidebar, FragmentFooter},
	TemplateFullWidth:   {FragmentHeader, FragmentSingle, FragmentComments, FragmentFooter},
	TemplateFrontPage:   {FragmentHeader, FragmentSingle, FragmentFrontSidebars, FragmentFooter},
	TemplateLeftSidebar: {FragmentHeader, FragmentLeftSidebar, FragmentSingle, FragmentComments, FragmentFooter},
	TemplateTwoSidebars: {FragmentHeader, FragmentLeftSidebar, FragmentSingle, FragmentComments, FragmentSidebar, FragmentFooter},
}

var kindTemplates = map[RequestKind]TemplateID{
	KindHome:       TemplateIndex,
	KindSingle:     TemplateSingle,
	KindPage:       TemplatePage,
	KindArchive:    TemplateArchive,
	KindAttachment: TemplateAttachment,
	KindNotFound:   TemplateNotFound,
}

// customTemplates are the templates a page can ask for by slug.
var customTemplates = map[string]TemplateID{
	string(TemplateFullWidth):   TemplateFullWidth,
	string(TemplateFrontPage):   TemplateFrontPage,
	string(TemplateLeftSidebar): TemplateLeftSidebar,
	string(TemplateTwoSidebars): TemplateTwoSidebars,
}

// Resolver picks the Template for a view.
type Resolver struct{}

// Resolve returns the Template for the view. Pages asking for a custom
// template by a slug the theme knows get that template; everything else
// gets the template for its kind, and kinds without one get the index
// template. It never fails.
func (Resolver) Resolve(tc TemplateContext) Template {
	id, ok := kindTemplates[tc.Kind]
	if !ok {
		id = TemplateIndex
	}
	if tc.Kind == KindPage {
		if custom, ok := customTemplates[tc.TemplateSlug]; ok {
			id = custom
		}
	}
	return Template{
		ID:        id,
		Fragments: slices.Clone(templateTable[id]),
	}
}

// IsCustomTemplate reports whether slug names a template pages can ask for.
func IsCustomTemplate(slug string) bool {
	_, ok := customTemplates[slug]
	return ok
}
