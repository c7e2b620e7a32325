package jrblog_test

import (
	"context"
	"log/slog"
	"os"

	"impractical.co/jrblog"
)

type ApologeticSite struct {
	*jrblog.CachedSite
}

func (ApologeticSite) ServerErrorPage(_ context.Context) jrblog.Renderable {
	return ApologyPage{}
}

type DraftPage struct {
	Title  string
	Layout PostLayout
}

func (DraftPage) Templates(_ context.Context) []string {
	return []string{"draft.tmpl"}
}

func (p DraftPage) UseComponents(_ context.Context) []jrblog.Component {
	return []jrblog.Component{
		p.Layout,
	}
}

func (DraftPage) Key(_ context.Context) string {
	return "draft.tmpl"
}

func (p DraftPage) ExecutedTemplate(_ context.Context) string {
	return p.Layout.BaseTemplate()
}

type ApologyPage struct{}

func (ApologyPage) Templates(_ context.Context) []string {
	return []string{"error.tmpl"}
}

func (ApologyPage) Key(_ context.Context) string {
	return "error.tmpl"
}

func (ApologyPage) ExecutedTemplate(_ context.Context) string {
	return "error.tmpl"
}

func ExampleRender_serverError() {
	templates := templateFS(map[string]string{
		// DraftPage has no PublishedAt, so executing this fails
		"draft.tmpl": `{{ define "content" }}<h1>{{ .Page.Title }}</h1>
<time>{{ .Page.PublishedAt }}</time>{{ end }}`,
		"layout.tmpl": `<!doctype html>
<html lang="en">
<body>
{{ block "content" . }}{{ end }}
</body>
</html>`,
		"error.tmpl": `<!doctype html>
<html lang="en">
<body class="error500">
<h1>This is somewhat embarrassing, isn't it?</h1>
</body>
</html>`,
	})

	// the failure is logged; discard it so it doesn't end up in the output
	ctx := jrblog.LoggingContext(context.Background(), slog.New(slog.DiscardHandler))

	site := ApologeticSite{
		CachedSite: jrblog.NewCachedSite(templates),
	}
	page := DraftPage{
		Title:  "Coming Soon",
		Layout: PostLayout{},
	}
	jrblog.Render(ctx, os.Stdout, site, page)

	//Output:
	// <!doctype html>
	// <html lang="en">
	// <body class="error500">
	// <h1>This is somewhat embarrassing, isn't it?</h1>
	// </body>
	// </html>
}
