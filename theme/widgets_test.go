package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"impractical.co/jrblog/content"
)

func TestRegisterThemeAreas(t *testing.T) {
	t.Parallel()

	var registry WidgetRegistry
	require.NoError(t, RegisterThemeAreas(&registry, nil))

	var ids []string
	for _, area := range registry.Areas() {
		ids = append(ids, area.ID)
	}
	assert.Equal(t, []string{
		"sidebar-1", "sidebar-2", "header-1", "sidebar-3",
		"copyright-1", "copyright-2",
		"footer-1", "footer-2", "footer-3", "footer-4",
	}, ids)

	footer, ok := registry.Area(AreaFooter3)
	require.True(t, ok)
	assert.Equal(t, "Footer 3", footer.Name)

	// registering the theme's areas twice collides on the first one
	err := RegisterThemeAreas(&registry, nil)
	require.ErrorIs(t, err, ErrDuplicateArea)
	assert.Len(t, registry.Areas(), 10)
}

func TestRegisterDuplicateArea(t *testing.T) {
	t.Parallel()

	var registry WidgetRegistry
	require.NoError(t, registry.Register(WidgetArea{ID: "sidebar-1", Name: "Right Sidebar"}))
	err := registry.Register(WidgetArea{ID: "sidebar-1", Name: "Header Sidebar"})
	require.ErrorIs(t, err, ErrDuplicateArea)

	_, ok := registry.Area("sidebar-9")
	assert.False(t, ok)
}

func TestRenderArea(t *testing.T) {
	t.Parallel()

	var registry WidgetRegistry
	require.NoError(t, RegisterThemeAreas(&registry, nil))

	f := newRenderer(t)
	right, _ := registry.Area(AreaRightSidebar)
	got, err := f.RenderArea(right, []content.Widget{
		{ID: "search-2", Type: "search", Title: "Search <here>", Body: "<form></form>"},
		{ID: "text-3", Type: "text", Body: "<p>Hi</p>"},
	})
	require.NoError(t, err)
	assert.Equal(t, `<aside id="search-2" class="widget widget_search"><h3 class="widget-title">Search &lt;here&gt;</h3><form></form></aside>`+
		`<aside id="text-3" class="widget widget_text"><p>Hi</p></aside>`, string(got))

	header, _ := registry.Area(AreaHeaderImage)
	got, err = f.RenderArea(header, []content.Widget{{ID: "image-1", Type: "image", Title: "Logo", Body: `<img src="/logo.png">`}})
	require.NoError(t, err)
	assert.Equal(t, `<header id="image-1" class="widget widget_image">Logo<img src="/logo.png"></header>`, string(got))

	got, err = f.RenderArea(right, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRenderAreaWrappers(t *testing.T) {
	t.Parallel()

	var registry WidgetRegistry
	require.NoError(t, RegisterThemeAreas(&registry, nil))
	widget := content.Widget{ID: `x" onclick="alert(1)`, Type: "text", Title: "Title", Body: "body"}

	tests := map[string]struct {
		area    string
		element string
		title   string
	}{
		"aside":     {area: AreaLeftSidebar, element: "aside", title: "h3.widget-title"},
		"copyright": {area: AreaCopyrightFooter, element: "small", title: "h6.copyright-title"},
		"footer":    {area: AreaFooter2, element: "footer", title: "h4.footer-title"},
		"unset":     {element: "aside", title: "h3.widget-title"},
	}
	f := newRenderer(t)
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			area, ok := registry.Area(test.area)
			if test.area == "" {
				area, ok = WidgetArea{ID: "custom"}, true
			}
			require.True(t, ok)
			got, err := f.RenderArea(area, []content.Widget{widget})
			require.NoError(t, err)

			doc := parseFragment(t, string(got))
			wrapper := doc.Find(test.element + ".widget_text")
			require.Equal(t, 1, wrapper.Length())
			assert.Equal(t, widget.ID, wrapper.AttrOr("id", ""))
			_, injected := wrapper.Attr("onclick")
			assert.False(t, injected)
			assert.Equal(t, "Title", wrapper.Find(test.title).Text())
		})
	}
}
