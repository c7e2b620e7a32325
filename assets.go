package jrblog

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"html/template"
	"regexp"
	"strings"
)

// AssetKind separates stylesheets from scripts. Dependencies only resolve
// against assets of the same kind.
type AssetKind string

const (
	// AssetStyle is a stylesheet, rendered as a <link> or <style> element.
	AssetStyle AssetKind = "style"

	// AssetScript is a script, rendered as a <script> element.
	AssetScript AssetKind = "script"
)

// Asset declares a stylesheet or script a Component needs on the page.
//
// Assets are identified by their Handle. When more than one Component
// declares the same Handle for the same AssetKind, the first declaration
// wins and the rest are ignored.
type Asset struct {
	// Handle is the unique name of the asset. Other assets refer to it in
	// their Deps.
	Handle string

	// Kind is whether this is a stylesheet or a script. The zero value is
	// treated as AssetStyle.
	Kind AssetKind

	// URL is where the asset is loaded from. If it's empty, Inline is
	// embedded in the page instead.
	URL string

	// Inline is the body of an embedded <style> or <script> element. It's
	// written to the page as-is, so it must never contain untrusted
	// input.
	Inline string

	// Deps are the handles of assets of the same Kind that must be
	// rendered before this one. Every handle listed must be declared by
	// some Component on the page.
	Deps []string

	// Version is appended to URL as a ver query parameter, to bust
	// caches.
	Version string

	// Condition wraps the element in an Internet Explorer conditional
	// comment, e.g. "lt IE 9". It's never evaluated here.
	Condition string

	// Media is the media attribute for linked stylesheets. It defaults to
	// "all".
	Media string

	// InFooter places a script at the end of the body instead of in the
	// head. A footer script that a head script depends on is moved to
	// the head.
	InFooter bool

	// DisableImplicitOrdering stops this asset from being ordered after
	// the asset declared just before it by the same Component. Assets
	// with Deps are never implicitly ordered.
	DisableImplicitOrdering bool
}

// AssetDeclarer is an interface that Components can fulfill to declare the
// stylesheets and scripts they need. The output of every AssetDeclarer used
// by a page is ordered so that dependencies always come first, and made
// available to the template as .CSS, .HeaderJS, and .FooterJS.
type AssetDeclarer interface {
	// Assets returns the assets the Component needs, in the order the
	// Component would like them rendered.
	Assets(context.Context) []Asset
}

func (a Asset) kind() AssetKind {
	if a.Kind == "" {
		return AssetStyle
	}
	return a.Kind
}

// Src returns the URL the asset is loaded from, including the version query
// parameter if the asset has a Version.
func (a Asset) Src() string {
	if a.URL == "" || a.Version == "" {
		return a.URL
	}
	sep := "?"
	if strings.Contains(a.URL, "?") {
		sep = "&"
	}
	return a.URL + sep + "ver=" + a.Version
}

// ErrInvalidCondition is returned when an asset's Condition isn't an
// Internet Explorer version expression.
var ErrInvalidCondition = errors.New("invalid asset condition")

var conditionPattern = regexp.MustCompile(`^[A-Za-z0-9 !()&|.]+$`)

var assetTemplates = template.Must(template.New("assets").Parse(`
{{- define "style" -}}
{{ if .URL -}}
<link rel="stylesheet" id="{{ .Handle }}-css" href="{{ .Src }}" type="text/css" media="{{ .Media }}">
{{- else -}}
<style id="{{ .Handle }}-inline-css">
{{ .CSS }}
</style>
{{- end }}
{{- end }}

{{- define "script" -}}
{{ if .URL -}}
<script id="{{ .Handle }}-js" src="{{ .Src }}"></script>
{{- else -}}
<script id="{{ .Handle }}-js">
{{ .JS }}
</script>
{{- end }}
{{- end }}`))

// assetView is what the asset templates are executed with.
type assetView struct {
	Asset

	Media string
	CSS   template.CSS
	JS    template.JS
}

// HTML returns the element that loads or embeds the asset, followed by a
// newline.
func (a Asset) HTML() (template.HTML, error) {
	if a.Condition != "" && !conditionPattern.MatchString(a.Condition) {
		return "", fmt.Errorf("%w: %q on %s %q", ErrInvalidCondition, a.Condition, a.kind(), a.Handle)
	}
	view := assetView{
		Asset: a,
		Media: cmp.Or(a.Media, "all"),
		// Inline is trusted, see its docs
		CSS: template.CSS(a.Inline), // #nosec G203
		JS:  template.JS(a.Inline),  // #nosec G203
	}
	var buf bytes.Buffer
	if err := assetTemplates.ExecuteTemplate(&buf, string(a.kind()), view); err != nil {
		return "", fmt.Errorf("error rendering %s %q: %w", a.kind(), a.Handle, err)
	}
	element := buf.String()
	if a.Condition != "" {
		element = "<!--[if " + a.Condition + "]>\n" + element + "\n<![endif]-->"
	}
	return template.HTML(element + "\n"), nil // #nosec G203
}

func assetsHTML(assets []Asset) (template.HTML, error) {
	var result template.HTML
	for _, asset := range assets {
		html, err := asset.HTML()
		if err != nil {
			return "", err
		}
		result += html
	}
	return result, nil
}
