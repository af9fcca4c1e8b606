// Package i18n renders phrase keys in the caller's locale. Catalogs are flat
// YAML maps from the English phrase to its translation, embedded at build
// time. Unknown phrases fall back to the phrase itself.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yml
var embeddedFS embed.FS

var placeholder = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*\}\}`)

// Translator implements internal.MessageResolver.
type Translator struct {
	catalogs      map[string]map[string]string
	tags          []language.Tag
	matcher       language.Matcher
	matched       []string
	defaultLocale string
}

// New loads the embedded catalogs.
func New(defaultLocale string) (*Translator, error) {
	return Load(embeddedFS, defaultLocale)
}

// Load reads every locales/<locale>.yml file of fsys.
func Load(fsys fs.FS, defaultLocale string) (*Translator, error) {
	paths, err := fs.Glob(fsys, "locales/*.yml")
	if err != nil {
		return nil, fmt.Errorf("glob locale catalogs: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no catalog files found")
	}
	sort.Strings(paths)

	t := &Translator{catalogs: make(map[string]map[string]string, len(paths))}
	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", p, err)
		}

		messages := map[string]string{}
		if err := yaml.Unmarshal(data, &messages); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", p, err)
		}

		locale := strings.TrimSuffix(path.Base(p), path.Ext(p))
		tag, err := language.Parse(locale)
		if err != nil {
			return nil, fmt.Errorf("catalog %s: %w", p, err)
		}
		t.catalogs[tag.String()] = messages
		t.tags = append(t.tags, tag)
	}

	defaultTag, err := language.Parse(defaultLocale)
	if err != nil {
		return nil, fmt.Errorf("default locale %q: %w", defaultLocale, err)
	}
	if _, ok := t.catalogs[defaultTag.String()]; !ok {
		return nil, fmt.Errorf("default locale %q has no catalog", defaultLocale)
	}
	t.defaultLocale = defaultTag.String()

	// the matcher falls back to its first tag
	tags := []language.Tag{defaultTag}
	t.matched = []string{t.defaultLocale}
	for _, tag := range t.tags {
		if tag != defaultTag {
			tags = append(tags, tag)
			t.matched = append(t.matched, tag.String())
		}
	}
	t.matcher = language.NewMatcher(tags)
	return t, nil
}

// DefaultLocale returns the locale used when nothing better matches.
func (t *Translator) DefaultLocale() string {
	return t.defaultLocale
}

// Locales lists the locales that have a catalog.
func (t *Translator) Locales() []string {
	out := make([]string, 0, len(t.catalogs))
	for locale := range t.catalogs {
		out = append(out, locale)
	}
	sort.Strings(out)
	return out
}

// Match returns the supported locale closest to the first parseable
// preference, or the default locale.
func (t *Translator) Match(preferences ...string) string {
	for _, pref := range preferences {
		pref = strings.TrimSpace(pref)
		if pref == "" {
			continue
		}
		tags, _, err := language.ParseAcceptLanguage(pref)
		if err != nil || len(tags) == 0 {
			continue
		}
		_, index, confidence := t.matcher.Match(tags...)
		if confidence == language.No {
			continue
		}
		return t.matched[index]
	}
	return t.defaultLocale
}

// Resolve renders phrase in locale, substituting {{name}} placeholders from
// args. Placeholders without an argument are left as they are.
func (t *Translator) Resolve(phrase, locale string, args map[string]any) string {
	text := phrase
	if messages, ok := t.catalogs[t.Match(locale)]; ok {
		if translated, ok := messages[phrase]; ok && translated != "" {
			text = translated
		}
	}
	return Interpolate(text, args)
}

func Interpolate(text string, args map[string]any) string {
	if len(args) == 0 {
		return text
	}
	return placeholder.ReplaceAllStringFunc(text, func(match string) string {
		name := placeholder.FindStringSubmatch(match)[1]
		if v, ok := args[name]; ok {
			return fmt.Sprint(v)
		}
		return match
	})
}
