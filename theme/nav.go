package theme

import (
	"html/template"
	"strconv"

	"impractical.co/jrblog/content"
)

type pageLinkView struct {
	Number  int
	URL     string
	Current bool
}

// PageLinks links to every sub-page of a multi-page item. The current
// sub-page isn't linked. Items with one sub-page get nothing.
func (f *FragmentRenderer) PageLinks(item content.ContentItem, current, total int) (template.HTML, error) {
	if total < 2 {
		return "", nil
	}
	pages := make([]pageLinkView, 0, total)
	for page := 1; page <= total; page++ {
		link := pageLinkView{Number: page, Current: page == current}
		if !link.Current {
			link.URL = f.Links.ItemPage(item, page)
		}
		pages = append(pages, link)
	}
	return execute(f.tmpl, "page-links", struct{ Pages []pageLinkView }{pages})
}

type contentNavView struct {
	ID    string
	Older string
	Newer string
}

// ContentNav links to the older and newer pages of a list whose first page
// is at base. Lists with only one page get nothing.
func (f *FragmentRenderer) ContentNav(id, base string, pagination Pagination) (template.HTML, error) {
	if pagination.Total <= 1 {
		return "", nil
	}
	current := max(pagination.Current, 1)
	view := contentNavView{ID: id}
	if current < pagination.Total {
		view.Older = f.Links.Paged(base, current+1)
	}
	if current > 1 {
		view.Newer = f.Links.Paged(base, current-1)
	}
	return execute(f.tmpl, "content-nav", view)
}

type menuItemView struct {
	Class string
	URL   string
	Title string
}

type pageMenuView struct {
	Home        string
	HomeCurrent bool
	Pages       []menuItemView
}

// PageMenu lists the site's pages, led by a link home. The link to what's
// being shown is marked as the current item.
func (f *FragmentRenderer) PageMenu(pages []content.ContentItem, tc TemplateContext, current *content.ContentItem) (template.HTML, error) {
	view := pageMenuView{
		Home:        f.Links.Home(),
		HomeCurrent: tc.Kind == KindHome && tc.Paged() == 1,
	}
	for _, page := range pages {
		class := "page_item page-item-" + strconv.FormatInt(page.ID, 10)
		if current != nil && current.ID == page.ID {
			class += " current_page_item"
		}
		view.Pages = append(view.Pages, menuItemView{Class: class, URL: f.Links.Item(page), Title: page.Title})
	}
	return execute(f.tmpl, "page-menu", view)
}
