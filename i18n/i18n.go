// Package i18n holds the translations of every string the theme shows to
// readers.
//
// Message keys are the English text, with named placeholders in braces:
//
//	View all posts by {author}
//
// Two keys aren't prose. FontKey and SubsetKey let a locale switch the Open
// Sans web font off, or ask for an extra character subset, because only the
// people translating into a language know whether the font covers it.
package i18n

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"slices"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

const (
	// BaseLocale is the locale the message keys are written in. It must
	// always have a catalog.
	BaseLocale = "en-US"

	// FontKey translates to "on" or "off".
	FontKey = "Open Sans font: on or off"

	// SubsetKey translates to "greek", "cyrillic", "vietnamese" or
	// NoSubset.
	SubsetKey = "Open Sans font: add new subset (greek, cyrillic, vietnamese)"

	// NoSubset is the SubsetKey translation for locales the default
	// subsets cover.
	NoSubset = "no-subset"
)

type catalogFile struct {
	Locale   string            `yaml:"locale"`
	Messages map[string]string `yaml:"messages"`
}

//go:embed locales/*.yaml
var embeddedLocales embed.FS

// Bundle is every locale's catalog. It's read-only once loaded.
type Bundle struct {
	builder  *catalog.Builder
	tags     []language.Tag
	matcher  language.Matcher
	messages map[string]map[string]string
}

// LoadEmbedded loads the catalogs that ship with the theme.
func LoadEmbedded() (*Bundle, error) {
	return LoadFromFS(embeddedLocales)
}

// LoadFromFS loads every locales/*.yaml file in fsys. Each file names its
// locale, which has to match the file name.
func LoadFromFS(fsys fs.FS) (*Bundle, error) {
	paths, err := fs.Glob(fsys, "locales/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob locale catalogs: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no catalog files found")
	}
	slices.Sort(paths)

	bundle := &Bundle{
		builder:  catalog.NewBuilder(catalog.Fallback(language.MustParse(BaseLocale))),
		messages: map[string]map[string]string{},
	}
	for _, file := range paths {
		data, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", file, err)
		}
		var parsed catalogFile
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", file, err)
		}
		if err := bundle.add(file, parsed); err != nil {
			return nil, err
		}
	}
	if _, ok := bundle.messages[BaseLocale]; !ok {
		return nil, fmt.Errorf("base locale %s is not defined in catalogs", BaseLocale)
	}

	// the base locale goes first so the matcher falls back to it
	slices.SortStableFunc(bundle.tags, func(a, b language.Tag) int {
		switch {
		case a.String() == BaseLocale:
			return -1
		case b.String() == BaseLocale:
			return 1
		}
		return 0
	})
	bundle.matcher = language.NewMatcher(bundle.tags)
	return bundle, nil
}

func (b *Bundle) add(file string, parsed catalogFile) error {
	locale := strings.TrimSpace(parsed.Locale)
	if locale == "" {
		return fmt.Errorf("catalog %s: locale is required", file)
	}
	if fromPath := strings.TrimSuffix(path.Base(file), path.Ext(file)); locale != fromPath {
		return fmt.Errorf("catalog %s: locale %q must match file name %q", file, locale, fromPath)
	}
	if _, exists := b.messages[locale]; exists {
		return fmt.Errorf("catalog %s: locale %q already defined", file, locale)
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return fmt.Errorf("catalog %s: parse locale tag %q: %w", file, locale, err)
	}

	keys := make([]string, 0, len(parsed.Messages))
	for key := range parsed.Messages {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	messages := make(map[string]string, len(keys))
	for _, key := range keys {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("catalog %s: message key cannot be blank", file)
		}
		if err := b.builder.SetString(tag, key, parsed.Messages[key]); err != nil {
			return fmt.Errorf("catalog %s: set %q: %w", file, key, err)
		}
		messages[key] = parsed.Messages[key]
	}
	b.messages[locale] = messages
	b.tags = append(b.tags, tag)
	return nil
}

// Locales returns the locale of every catalog, sorted.
func (b *Bundle) Locales() []string {
	if b == nil {
		return nil
	}
	out := make([]string, 0, len(b.messages))
	for locale := range b.messages {
		out = append(out, locale)
	}
	slices.Sort(out)
	return out
}

// Localizer returns a Localizer for the catalog that best matches locale.
// Locales without a close match get BaseLocale.
func (b *Bundle) Localizer(locale string) *Localizer {
	if b == nil {
		return nil
	}
	tag := b.tags[0]
	if requested, err := language.Parse(locale); err == nil {
		_, index, confidence := b.matcher.Match(requested)
		if confidence != language.No {
			tag = b.tags[index]
		}
	}
	return &Localizer{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(b.builder)),
	}
}

// Localizer translates messages into one locale. A nil *Localizer leaves
// every message in English.
type Localizer struct {
	tag     language.Tag
	printer *message.Printer
}

// Locale returns the locale the Localizer translates into.
func (l *Localizer) Locale() string {
	if l == nil {
		return BaseLocale
	}
	return l.tag.String()
}

// T translates key and fills in its placeholders. args are pairs of
// placeholder name and value: T("Page {number}", "number", "3"). Values are
// inserted as they are, so HTML in them survives.
func (l *Localizer) T(key string, args ...string) string {
	translated := key
	if l != nil {
		translated = l.printer.Sprintf(key)
	}
	if len(args) < 2 {
		return translated
	}
	pairs := make([]string, 0, len(args))
	for i := 0; i+1 < len(args); i += 2 {
		pairs = append(pairs, "{"+args[i]+"}", args[i+1])
	}
	return strings.NewReplacer(pairs...).Replace(translated)
}

// HTML translates key like T, for messages that carry markup. The
// translated message is trusted. Values that are template.HTML are inserted
// as they are; anything else is escaped first.
func (l *Localizer) HTML(key string, args ...any) template.HTML {
	values := make([]string, 0, len(args))
	for i, arg := range args {
		switch v := arg.(type) {
		case template.HTML:
			values = append(values, string(v))
		default:
			value := fmt.Sprint(v)
			if i%2 == 1 {
				value = template.HTMLEscapeString(value)
			}
			values = append(values, value)
		}
	}
	return template.HTML(l.T(key, values...)) // #nosec G203
}

// FontEnabled reports whether the locale wants the Open Sans web font.
func (l *Localizer) FontEnabled() bool {
	return l.T(FontKey) != "off"
}

// FontSubset returns the extra character subset the locale asked for, or
// an empty string if it didn't ask for one it recognises.
func (l *Localizer) FontSubset() string {
	switch subset := l.T(SubsetKey); subset {
	case "greek", "cyrillic", "vietnamese":
		return subset
	default:
		return ""
	}
}
