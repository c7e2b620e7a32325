package theme

import (
	"strings"

	"impractical.co/jrblog"
	"impractical.co/jrblog/config"
	"impractical.co/jrblog/i18n"
)

// Asset handles the theme declares.
const (
	HandleJQuery           = "jquery"
	HandleCommentReply     = "comment-reply"
	HandleNavigation       = "jrblog-navigation"
	HandleFonts            = "jrblog-fonts"
	HandleStyle            = "jrblog-style"
	HandleStyles           = "jrc-styles"
	HandleIE               = "jrblog-ie"
	HandleModernizr        = "modernizr"
	HandleGumby            = "gumby"
	HandleBootstrap        = "bootstrap"
	HandleCustomBackground = "jrblog-custom-background"
	HandleCustomizer       = "jrblog-customizer"
)

const (
	fontFamily     = "Open+Sans:400italic,700italic,400,700"
	defaultSubsets = "latin,latin-ext"
)

// AssetRegistrar decides which stylesheets and scripts a view needs.
type AssetRegistrar struct {
	// AssetURL is where the theme's own files are served from, without a
	// trailing slash.
	AssetURL string

	// Secure loads the web font over https.
	Secure bool

	Fonts  config.FontMode
	Subset config.Subset

	ThreadComments bool

	// DefaultBackground is the background colour the stylesheet already
	// uses. Sites with that colour don't need an inline style.
	DefaultBackground string

	// Loc decides the font mode and subset when they're left to the
	// translation catalog.
	Loc *i18n.Localizer
}

// AssetRequest is what the registrar needs to know about a view.
type AssetRequest struct {
	Context      TemplateContext
	CommentsOpen bool

	// BackgroundColor is the site's background colour, after defaults
	// have been applied.
	BackgroundColor string
}

// FontsEnabled reports whether the web font stylesheet is declared.
func (r AssetRegistrar) FontsEnabled() bool {
	switch r.Fonts {
	case config.FontsOn:
		return true
	case config.FontsOff:
		return false
	default:
		return r.Loc.FontEnabled()
	}
}

// FontSubsets returns the character subsets the web font is loaded with:
// latin and latin-ext, plus at most one of greek, cyrillic and vietnamese.
func (r AssetRegistrar) FontSubsets() string {
	subset := r.Subset
	if subset == config.SubsetAuto {
		subset = config.Subset(r.Loc.FontSubset())
	}
	switch subset {
	case config.SubsetCyrillic:
		return defaultSubsets + ",cyrillic,cyrillic-ext"
	case config.SubsetGreek:
		return defaultSubsets + ",greek,greek-ext"
	case config.SubsetVietnamese:
		return defaultSubsets + ",vietnamese"
	default:
		return defaultSubsets
	}
}

// FontURL is the URL of the web font stylesheet.
func (r AssetRegistrar) FontURL() string {
	protocol := "http"
	if r.Secure {
		protocol = "https"
	}
	return protocol + "://fonts.googleapis.com/css?family=" + fontFamily + "&subset=" + r.FontSubsets()
}

func (r AssetRegistrar) themeURL(path string) string {
	return strings.TrimRight(r.AssetURL, "/") + path
}

// Assets returns the view's stylesheets and scripts in the order the theme
// declares them. Rendering order is resolved from their dependencies.
func (r AssetRegistrar) Assets(req AssetRequest) []jrblog.Asset {
	assets := []jrblog.Asset{
		{Handle: HandleJQuery, Kind: jrblog.AssetScript, URL: r.themeURL("/js/libs/jquery.min.js"), Version: "1.8.3"},
	}
	if req.Context.Singular() && req.CommentsOpen && r.ThreadComments {
		assets = append(assets, jrblog.Asset{
			Handle: HandleCommentReply, Kind: jrblog.AssetScript, URL: r.themeURL("/js/comment-reply.min.js"),
		})
	}
	assets = append(assets, jrblog.Asset{
		Handle: HandleNavigation, Kind: jrblog.AssetScript, URL: r.themeURL("/js/navigation.js"), Version: "1.0", InFooter: true,
	})
	if r.FontsEnabled() {
		assets = append(assets, jrblog.Asset{Handle: HandleFonts, Kind: jrblog.AssetStyle, URL: r.FontURL()})
	}
	assets = append(assets,
		jrblog.Asset{Handle: HandleStyle, Kind: jrblog.AssetStyle, URL: r.themeURL("/style.css")},
		jrblog.Asset{Handle: HandleStyles, Kind: jrblog.AssetStyle, URL: r.themeURL("/css/style.css")},
		jrblog.Asset{
			Handle: HandleIE, Kind: jrblog.AssetStyle, URL: r.themeURL("/css/ie.css"),
			Deps: []string{HandleStyle}, Version: "20121010", Condition: "lt IE 9",
		},
		jrblog.Asset{
			Handle: HandleModernizr, Kind: jrblog.AssetScript, URL: r.themeURL("/js/libs/modernizr-2.0.6.min.js"),
			Deps: []string{HandleJQuery}, Version: "2.0.6",
		},
		jrblog.Asset{
			Handle: HandleGumby, Kind: jrblog.AssetScript, URL: r.themeURL("/js/libs/gumby.min.js"),
			Deps: []string{HandleJQuery}, Version: "1.1",
		},
		jrblog.Asset{
			Handle: HandleBootstrap, Kind: jrblog.AssetScript, URL: r.themeURL("/js/bootstrap.min.js"),
			Deps: []string{HandleJQuery}, Version: "2.2.1",
		},
	)
	if style := r.backgroundStyle(req.BackgroundColor); style != "" {
		assets = append(assets, jrblog.Asset{Handle: HandleCustomBackground, Kind: jrblog.AssetStyle, Inline: style})
	}
	if req.Context.Previewing {
		assets = append(assets, jrblog.Asset{
			Handle: HandleCustomizer, Kind: jrblog.AssetScript, URL: r.themeURL("/js/theme-customizer.js"),
			Deps: []string{HandleJQuery}, Version: "20120827", InFooter: true,
		})
	}
	return assets
}

// backgroundStyle returns the inline style for a background colour, or
// nothing when the stylesheet's default already covers it. Only hex colours
// are used, so nothing from the content ends up in the style verbatim.
func (r AssetRegistrar) backgroundStyle(color string) string {
	color = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(color), "#"))
	if color == "" || color == strings.ToLower(r.DefaultBackground) || !isHex(color) {
		return ""
	}
	return "body.custom-background { background-color: #" + color + "; }"
}

func isHex(s string) bool {
	if len(s) != 3 && len(s) != 6 {
		return false
	}
	for _, r := range s {
		if !strings.ContainsRune("0123456789abcdef", r) {
			return false
		}
	}
	return true
}
