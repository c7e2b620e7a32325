package jrblog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type assetComponent struct {
	assets []Asset
	uses   []Component
}

func (assetComponent) Templates(_ context.Context) []string {
	return nil
}

func (c assetComponent) Assets(_ context.Context) []Asset {
	return c.assets
}

func (c assetComponent) UseComponents(_ context.Context) []Component {
	return c.uses
}

func handles(assets []Asset) []string {
	results := make([]string, 0, len(assets))
	for _, asset := range assets {
		results = append(results, asset.Handle)
	}
	return results
}

func TestOrderAssetsDependenciesFirst(t *testing.T) {
	t.Parallel()

	page := assetComponent{
		assets: []Asset{
			{Handle: "ie", URL: "/ie.css", Deps: []string{"style"}},
			{Handle: "fonts", URL: "/fonts.css"},
		},
		uses: []Component{
			assetComponent{assets: []Asset{
				{Handle: "style", URL: "/style.css"},
			}},
		},
	}
	styles, head, foot, err := OrderAssets(context.Background(), page)
	require.NoError(t, err)
	assert.Equal(t, []string{"fonts", "style", "ie"}, handles(styles))
	assert.Empty(t, head)
	assert.Empty(t, foot)
}

func TestOrderAssetsImplicitOrderingWithinComponent(t *testing.T) {
	t.Parallel()

	// "b" would be free to go first, but it's declared after "a" by the
	// same component
	page := assetComponent{
		assets: []Asset{
			{Handle: "a", URL: "/a.css", Deps: []string{"c"}},
			{Handle: "b", URL: "/b.css"},
			{Handle: "c", URL: "/c.css"},
		},
	}
	styles, _, _, err := OrderAssets(context.Background(), page)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "a"}, handles(styles))
}

func TestOrderAssetsDeduplicatesHandles(t *testing.T) {
	t.Parallel()

	shared := assetComponent{assets: []Asset{
		{Handle: "jquery", Kind: AssetScript, URL: "/jquery.js"},
	}}
	page := assetComponent{
		assets: []Asset{
			{Handle: "jquery", Kind: AssetScript, URL: "/other-jquery.js"},
		},
		uses: []Component{shared, shared},
	}
	_, head, _, err := OrderAssets(context.Background(), page)
	require.NoError(t, err)
	require.Len(t, head, 1)
	assert.Equal(t, "/other-jquery.js", head[0].URL)
}

func TestOrderAssetsStyleAndScriptHandlesAreSeparate(t *testing.T) {
	t.Parallel()

	page := assetComponent{assets: []Asset{
		{Handle: "gumby", URL: "/gumby.css"},
		{Handle: "gumby", Kind: AssetScript, URL: "/gumby.js"},
	}}
	styles, head, _, err := OrderAssets(context.Background(), page)
	require.NoError(t, err)
	assert.Equal(t, []string{"gumby"}, handles(styles))
	assert.Equal(t, []string{"gumby"}, handles(head))
}

func TestOrderAssetsPromotesFooterDependencies(t *testing.T) {
	t.Parallel()

	page := assetComponent{assets: []Asset{
		{Handle: "jquery", Kind: AssetScript, URL: "/jquery.js", InFooter: true},
		{Handle: "navigation", Kind: AssetScript, URL: "/navigation.js", InFooter: true, Deps: []string{"jquery"}},
		{Handle: "modernizr", Kind: AssetScript, URL: "/modernizr.js", Deps: []string{"jquery"}},
	}}
	_, head, foot, err := OrderAssets(context.Background(), page)
	require.NoError(t, err)
	assert.Equal(t, []string{"jquery", "modernizr"}, handles(head))
	assert.Equal(t, []string{"navigation"}, handles(foot))
}

func TestOrderAssetsUnknownDependency(t *testing.T) {
	t.Parallel()

	page := assetComponent{assets: []Asset{
		{Handle: "bootstrap", Kind: AssetScript, URL: "/bootstrap.js", Deps: []string{"jquery"}},
	}}
	_, _, _, err := OrderAssets(context.Background(), page)
	require.ErrorIs(t, err, ErrUnknownDependency)
	assert.Contains(t, err.Error(), `"bootstrap" depends on "jquery"`)
}

func TestOrderAssetsDependencyOfOtherKindIsUnknown(t *testing.T) {
	t.Parallel()

	page := assetComponent{assets: []Asset{
		{Handle: "style", URL: "/style.css"},
		{Handle: "app", Kind: AssetScript, URL: "/app.js", Deps: []string{"style"}},
	}}
	_, _, _, err := OrderAssets(context.Background(), page)
	require.ErrorIs(t, err, ErrUnknownDependency)
}

func TestOrderAssetsCycle(t *testing.T) {
	t.Parallel()

	page := assetComponent{assets: []Asset{
		{Handle: "a", URL: "/a.css", Deps: []string{"b"}},
		{Handle: "b", URL: "/b.css", Deps: []string{"a"}},
		{Handle: "c", URL: "/c.css"},
	}}
	_, _, _, err := OrderAssets(context.Background(), page)
	require.ErrorIs(t, err, ErrResourceCycle)
	assert.Contains(t, err.Error(), "style(a)")
}

func TestOrderAssetsNoHandle(t *testing.T) {
	t.Parallel()

	page := assetComponent{assets: []Asset{
		{URL: "/a.css"},
	}}
	_, _, _, err := OrderAssets(context.Background(), page)
	require.ErrorIs(t, err, ErrNoHandle)
}

func TestAssetHTML(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		asset    Asset
		expected string
	}{
		"linked-style": {
			asset:    Asset{Handle: "fonts", URL: "https://fonts.example.com/css?family=Open+Sans&subset=latin"},
			expected: `<link rel="stylesheet" id="fonts-css" href="https://fonts.example.com/css?family=Open+Sans&amp;subset=latin" type="text/css" media="all">` + "\n",
		},
		"versioned-style-with-media": {
			asset:    Asset{Handle: "print", URL: "/print.css", Version: "2", Media: "print"},
			expected: `<link rel="stylesheet" id="print-css" href="/print.css?ver=2" type="text/css" media="print">` + "\n",
		},
		"inline-style": {
			asset:    Asset{Handle: "custom-background", Inline: "body { color: red; }"},
			expected: "<style id=\"custom-background-inline-css\">\nbody { color: red; }\n</style>\n",
		},
		"linked-script-with-query": {
			asset:    Asset{Handle: "app", Kind: AssetScript, URL: "/app.js?x=1", Version: "3"},
			expected: `<script id="app-js" src="/app.js?x=1&amp;ver=3"></script>` + "\n",
		},
		"inline-script": {
			asset:    Asset{Handle: "boot", Kind: AssetScript, Inline: "boot();"},
			expected: "<script id=\"boot-js\">\nboot();\n</script>\n",
		},
		"conditional": {
			asset:    Asset{Handle: "ie", URL: "/ie.css", Condition: "lt IE 9"},
			expected: "<!--[if lt IE 9]>\n<link rel=\"stylesheet\" id=\"ie-css\" href=\"/ie.css\" type=\"text/css\" media=\"all\">\n<![endif]-->\n",
		},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			html, err := test.asset.HTML()
			require.NoError(t, err)
			assert.Equal(t, test.expected, string(html))
		})
	}
}

func TestAssetHTMLEscapes(t *testing.T) {
	t.Parallel()

	html, err := Asset{Handle: `x"><script>`, URL: `javascript:alert(1)`}.HTML()
	require.NoError(t, err)
	assert.NotContains(t, string(html), "<script>")
	assert.NotContains(t, string(html), "javascript:")

	_, err = Asset{Handle: "ie", URL: "/ie.css", Condition: "IE]><script>x()</script><![if IE"}.HTML()
	require.ErrorIs(t, err, ErrInvalidCondition)
}
