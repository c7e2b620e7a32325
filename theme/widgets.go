package theme

import (
	"cmp"
	"errors"
	"fmt"
	"html/template"
	"sync"

	"impractical.co/jrblog/content"
	"impractical.co/jrblog/i18n"
)

// ErrDuplicateArea is returned when a widget area is registered with an ID
// that's already taken.
var ErrDuplicateArea = errors.New("widget area already registered")

// The widget areas the theme registers.
const (
	AreaRightSidebar     = "sidebar-1"
	AreaLeftSidebar      = "sidebar-2"
	AreaHeaderImage      = "header-1"
	AreaHeaderSidebar    = "sidebar-3"
	AreaCopyrightFooter  = "copyright-1"
	AreaCopyrightSidebar = "copyright-2"
	AreaFooter1          = "footer-1"
	AreaFooter2          = "footer-2"
	AreaFooter3          = "footer-3"
	AreaFooter4          = "footer-4"
)

// The item templates widgets are wrapped with.
const (
	WidgetAside     = "widget-aside"
	WidgetCopyright = "widget-copyright"
	WidgetFooter    = "widget-footer"
	WidgetHeader    = "widget-header"
)

// WidgetArea is a named region of the page that site owners fill with
// widgets.
//
// Template names the item template each widget in the area is wrapped
// with. Areas without one use WidgetAside.
type WidgetArea struct {
	ID          string
	Name        string
	Description string
	Template    string
}

// WidgetRegistry holds the widget areas a site has. It can safely be used by
// multiple goroutines.
type WidgetRegistry struct {
	mu    sync.RWMutex
	areas []WidgetArea
}

// Register adds an area. Areas are listed in the order they're registered.
func (r *WidgetRegistry) Register(area WidgetArea) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.areas {
		if existing.ID == area.ID {
			return fmt.Errorf("%w: %q (%s)", ErrDuplicateArea, area.ID, existing.Name)
		}
	}
	r.areas = append(r.areas, area)
	return nil
}

// Area returns the area registered with the ID.
func (r *WidgetRegistry) Area(id string) (WidgetArea, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, area := range r.areas {
		if area.ID == id {
			return area, true
		}
	}
	return WidgetArea{}, false
}

// Areas returns every registered area, in registration order.
func (r *WidgetRegistry) Areas() []WidgetArea {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]WidgetArea(nil), r.areas...)
}

type widgetView struct {
	ID    string
	Class string
	Title string
	Body  template.HTML
}

// RenderArea wraps each widget in the area's markup. Widget titles are
// escaped; widget bodies are trusted markup and aren't.
func (f *FragmentRenderer) RenderArea(area WidgetArea, widgets []content.Widget) (template.HTML, error) {
	name := cmp.Or(area.Template, WidgetAside)
	var out template.HTML
	for _, widget := range widgets {
		wrapped, err := execute(f.tmpl, name, widgetView{
			ID:    widget.ID,
			Class: "widget_" + widget.Type,
			Title: widget.Title,
			Body:  trusted(widget.Body),
		})
		if err != nil {
			return "", fmt.Errorf("error rendering widget %q in %s: %w", widget.ID, area.ID, err)
		}
		out += wrapped
	}
	return out, nil
}

// RegisterThemeAreas registers the theme's widget areas: two sidebars, a
// header image and header sidebar, two copyright areas, and four footers.
func RegisterThemeAreas(r *WidgetRegistry, loc *i18n.Localizer) error {
	aside := func(id, name, description string) WidgetArea {
		return WidgetArea{ID: id, Name: name, Description: description, Template: WidgetAside}
	}
	copyright := func(id, name, description string) WidgetArea {
		return WidgetArea{ID: id, Name: name, Description: description, Template: WidgetCopyright}
	}
	footer := func(id, number, description string) WidgetArea {
		return WidgetArea{
			ID:          id,
			Name:        loc.T("Footer {number}", "number", number),
			Description: description,
			Template:    WidgetFooter,
		}
	}
	areas := []WidgetArea{
		aside(AreaRightSidebar, loc.T("Right Sidebar"), loc.T("Right sidebar for the page. Can be used in right sidebar and three-column layouts.")),
		aside(AreaLeftSidebar, loc.T("Left Sidebar"), loc.T("Left sidebar for the page. Can be used in left sidebar and three-column layouts.")),
		{
			ID:          AreaHeaderImage,
			Name:        loc.T("Header Image"),
			Description: loc.T("Header area for the site logo to go."),
			Template:    WidgetHeader,
		},
		aside(AreaHeaderSidebar, loc.T("Header Sidebar"), loc.T("Header sidebar to the right of the header image.")),
		copyright(AreaCopyrightFooter, loc.T("Copyright Footer"), loc.T("Footer area for the copyright.")),
		copyright(AreaCopyrightSidebar, loc.T("Copyright Sidebar"), loc.T("Sidebar for the copyright to enable two-column copyright area")),
		footer(AreaFooter1, "1", loc.T("First widget area of the site footer.")),
		footer(AreaFooter2, "2", loc.T("Second widget area of the site footer.")),
		footer(AreaFooter3, "3", loc.T("Third widget area of the site footer.")),
		footer(AreaFooter4, "4", loc.T("Fourth widget area of the site footer.")),
	}
	for _, area := range areas {
		if err := r.Register(area); err != nil {
			return err
		}
	}
	return nil
}
