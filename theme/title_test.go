package theme

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"impractical.co/jrblog"
	"impractical.co/jrblog/content"
)

func TestThemeTitle(t *testing.T) {
	t.Parallel()

	site := content.SiteMeta{Name: "Jr Blog", Description: "Notes and things"}
	tests := map[string]struct {
		in   DocumentTitle
		want string
	}{
		"sub-page 3 of a post": {
			in:   DocumentTitle{Title: "Hello", Sep: "|", Site: site, Context: TemplateContext{Kind: KindSingle, Page: 3, Pagination: Pagination{Current: 1}}},
			want: "Hello | Jr Blog | Page 3",
		},
		"first page": {
			in:   DocumentTitle{Title: "Hello", Sep: "|", Site: site, Context: TemplateContext{Kind: KindSingle, Page: 1, Pagination: Pagination{Current: 1}}},
			want: "Hello | Jr Blog",
		},
		"second page of the home list": {
			in:   DocumentTitle{Sep: "|", Site: site, Context: TemplateContext{Kind: KindHome, Pagination: Pagination{Current: 2, Total: 4}}},
			want: "Jr Blog | Notes and things | Page 2",
		},
		"home": {
			in:   DocumentTitle{Sep: "|", Site: site, Context: TemplateContext{Kind: KindHome}},
			want: "Jr Blog | Notes and things",
		},
		"front page": {
			in:   DocumentTitle{Title: "Welcome", Sep: "|", Site: site, Context: TemplateContext{Kind: KindPage, FrontPage: true}},
			want: "Welcome | Jr Blog | Notes and things",
		},
		"home without a description": {
			in:   DocumentTitle{Sep: "|", Site: content.SiteMeta{Name: "Jr Blog"}, Context: TemplateContext{Kind: KindHome}},
			want: "Jr Blog",
		},
		"post on a site without a name": {
			in:   DocumentTitle{Title: "Hello", Sep: "|", Context: TemplateContext{Kind: KindSingle}},
			want: "Hello",
		},
		"feed": {
			in:   DocumentTitle{Title: "Hello", Sep: "|", Site: site, Context: TemplateContext{Kind: KindSingle, Feed: true, Page: 3}},
			want: "Hello",
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got := NewTitleFilter(nil).Apply(context.Background(), tt.in)
			assert.Equal(t, tt.want, got.Title)
		})
	}
}

func TestTitleFilterExtension(t *testing.T) {
	t.Parallel()

	filter := NewTitleFilter(nil)
	filter.Add("shout", jrblog.DefaultPriority+1, func(_ context.Context, title DocumentTitle) DocumentTitle {
		title.Title = strings.ToUpper(title.Title)
		return title
	})
	got := filter.Apply(context.Background(), DocumentTitle{Sep: "|", Site: content.SiteMeta{Name: "Jr Blog"}})
	assert.Equal(t, "JR BLOG", got.Title)
	assert.Equal(t, []string{"theme", "shout"}, filter.Names())
}
