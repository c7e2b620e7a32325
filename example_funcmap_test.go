package jrblog_test

import (
	"context"
	"html/template"
	"log/slog"
	"os"
	"strings"

	"impractical.co/jrblog"
)

type TranslatedSite struct {
	*jrblog.CachedSite

	Messages map[string]string
}

func (s TranslatedSite) FuncMap(_ context.Context) template.FuncMap {
	// available to every page and component
	return template.FuncMap{
		"T": func(msg string) string {
			if translated, ok := s.Messages[msg]; ok {
				return translated
			}
			return msg
		},
	}
}

type CategoriesPage struct {
	Categories []string
	Layout     PostLayout
}

func (CategoriesPage) Templates(_ context.Context) []string {
	return []string{"categories.tmpl"}
}

func (p CategoriesPage) UseComponents(_ context.Context) []jrblog.Component {
	return []jrblog.Component{
		p.Layout,
	}
}

func (CategoriesPage) Key(_ context.Context) string {
	return "categories.tmpl"
}

func (p CategoriesPage) ExecutedTemplate(_ context.Context) string {
	return p.Layout.BaseTemplate()
}

func (CategoriesPage) FuncMap(_ context.Context) template.FuncMap {
	// only available to this page
	return template.FuncMap{
		"sentence": func(and string, items []string) string {
			switch len(items) {
			case 0:
				return ""
			case 1:
				return items[0]
			}
			return strings.Join(items[:len(items)-1], ", ") + " " + and + " " + items[len(items)-1]
		},
	}
}

func ExampleRender_funcMaps() {
	templates := templateFS(map[string]string{
		"categories.tmpl": `{{ define "content" }}{{ T "Posted in" }} {{ sentence (T "and") .Page.Categories }}.{{ end }}`,
		"layout.tmpl":     `<p class="entry-meta">{{ block "content" . }}{{ end }}</p>`,
	})

	ctx := jrblog.LoggingContext(context.Background(), slog.Default())

	site := TranslatedSite{
		CachedSite: jrblog.NewCachedSite(templates),
		Messages: map[string]string{
			"Posted in": "Опубликовано в рубриках",
			"and":       "и",
		},
	}
	page := CategoriesPage{
		Categories: []string{"Новости", "Go", "Веб"},
		Layout:     PostLayout{},
	}
	jrblog.Render(ctx, os.Stdout, site, page)

	//Output:
	// <p class="entry-meta">Опубликовано в рубриках Новости, Go и Веб.</p>
}
