// Package i18n provides message catalogs and locale-aware number handling
// for bound forms. A Catalog hands out forms.Translator values for a list of
// preferred locales; a NumberLocalizer implements forms.NumberLocalizer.
package i18n

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formbind/pkg/forms"
)

var (
	// ErrMissingTranslation reports a message without an entry for the
	// matched locale.
	ErrMissingTranslation = errors.New("i18n: missing translation")
	// ErrUnknownLocale reports a locale that does not parse as a BCP 47 tag.
	ErrUnknownLocale = errors.New("i18n: unknown locale")
)

//go:embed locales/*.yaml
var builtin embed.FS

// MissingTranslationHandler decides the text used when a message has no
// entry. fallback is the untranslated text already resolved for the plural
// count.
type MissingTranslationHandler func(locale, message, fallback string, err error) string

func missingTranslationDefault(_, _, fallback string, _ error) string {
	return fallback
}

// Entry is one catalog message. Text serves Gettext lookups; Plural holds
// the CLDR plural forms used by Ngettext. An entry written as a plain YAML
// string fills Text only.
type Entry struct {
	Text   string
	Plural map[plural.Form]string
}

var pluralForms = map[string]plural.Form{
	"zero":  plural.Zero,
	"one":   plural.One,
	"two":   plural.Two,
	"few":   plural.Few,
	"many":  plural.Many,
	"other": plural.Other,
}

// UnmarshalYAML accepts either a scalar string or a map of plural forms.
func (e *Entry) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		return node.Decode(&e.Text)
	}
	var byForm map[string]string
	if err := node.Decode(&byForm); err != nil {
		return fmt.Errorf("i18n: entry at line %d: %w", node.Line, err)
	}
	e.Plural = make(map[plural.Form]string, len(byForm))
	for key, text := range byForm {
		form, ok := pluralForms[strings.ToLower(strings.TrimSpace(key))]
		if !ok {
			return fmt.Errorf("i18n: entry at line %d: unknown plural form %q", node.Line, key)
		}
		e.Plural[form] = text
	}
	e.Text = e.Plural[plural.One]
	if e.Text == "" {
		e.Text = e.Plural[plural.Other]
	}
	return nil
}

type catalogDocument struct {
	Locale   string           `yaml:"locale"`
	Messages map[string]Entry `yaml:"messages"`
}

// Catalog stores translated messages per locale. It is safe for concurrent
// use; translators handed out by For read it under a shared lock.
type Catalog struct {
	mu       sync.RWMutex
	messages map[language.Tag]map[string]Entry
	tags     []language.Tag
	matcher  language.Matcher

	// OnMissing is consulted for messages without an entry. The default
	// returns the untranslated text.
	OnMissing MissingTranslationHandler
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{messages: make(map[language.Tag]map[string]Entry)}
}

// Default returns a catalog preloaded with the bundled translations of the
// built-in field and validator messages.
func Default() *Catalog {
	c := NewCatalog()
	if err := c.LoadFS(builtin, "locales/*.yaml"); err != nil {
		panic(err)
	}
	return c
}

// Add merges messages into the catalog under locale.
func (c *Catalog) Add(locale string, messages map[string]Entry) error {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		return fmt.Errorf("%w %q: %v", ErrUnknownLocale, locale, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	bucket, ok := c.messages[tag]
	if !ok {
		bucket = make(map[string]Entry, len(messages))
		c.messages[tag] = bucket
		c.tags = append(c.tags, tag)
		sort.Slice(c.tags, func(i, j int) bool { return c.tags[i].String() < c.tags[j].String() })
		c.matcher = language.NewMatcher(c.tags)
	}
	for key, entry := range messages {
		bucket[key] = entry
	}
	return nil
}

// ParseYAML loads one catalog document. A document without a locale key
// uses fallbackLocale.
func (c *Catalog) ParseYAML(data []byte, fallbackLocale string) error {
	var doc catalogDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("i18n: parse catalog: %w", err)
	}
	locale := strings.TrimSpace(doc.Locale)
	if locale == "" {
		locale = fallbackLocale
	}
	return c.Add(locale, doc.Messages)
}

// LoadFS loads every file matching patterns. Files without a locale key are
// named by locale, e.g. "es.yaml".
func (c *Catalog) LoadFS(fsys fs.FS, patterns ...string) error {
	if fsys == nil {
		return fmt.Errorf("i18n: file system is required")
	}
	if len(patterns) == 0 {
		patterns = []string{"*.yaml", "*.yml"}
	}
	for _, pattern := range patterns {
		matches, err := fs.Glob(fsys, pattern)
		if err != nil {
			return fmt.Errorf("i18n: glob %q: %w", pattern, err)
		}
		for _, name := range matches {
			data, err := fs.ReadFile(fsys, name)
			if err != nil {
				return fmt.Errorf("i18n: read %s: %w", name, err)
			}
			base := strings.TrimSuffix(path.Base(name), path.Ext(name))
			if err := c.ParseYAML(data, base); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		}
	}
	return nil
}

// Locales lists the catalog locales in tag order.
func (c *Catalog) Locales() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, len(c.tags))
	for i, tag := range c.tags {
		out[i] = tag.String()
	}
	return out
}

// For returns a translator for the first catalog locale matching the
// preferred locales. Unparseable preferences are skipped; with no match the
// translator returns messages untranslated.
func (c *Catalog) For(locales ...string) *Translator {
	desired := make([]language.Tag, 0, len(locales))
	for _, locale := range locales {
		if tag, err := language.Parse(strings.TrimSpace(locale)); err == nil {
			desired = append(desired, tag)
		}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	t := &Translator{catalog: c, locale: strings.Join(locales, ",")}
	if c.matcher == nil || len(desired) == 0 {
		return t
	}
	_, index, confidence := c.matcher.Match(desired...)
	if confidence == language.No {
		return t
	}
	t.tag = c.tags[index]
	t.matched = true
	return t
}

func (c *Catalog) lookup(tag language.Tag, message string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.messages[tag][message]
	return entry, ok
}

func (c *Catalog) missing(locale, message, fallback string, err error) string {
	if c.OnMissing != nil {
		return c.OnMissing(locale, message, fallback, err)
	}
	return missingTranslationDefault(locale, message, fallback, err)
}

// Translator implements forms.Translator for one matched catalog locale.
type Translator struct {
	catalog *Catalog
	tag     language.Tag
	matched bool
	locale  string
}

// Locale returns the matched catalog locale, or "" when none matched.
func (t *Translator) Locale() string {
	if !t.matched {
		return ""
	}
	return t.tag.String()
}

// Gettext implements forms.Translator.
func (t *Translator) Gettext(message string) string {
	if t.matched {
		if entry, ok := t.catalog.lookup(t.tag, message); ok && entry.Text != "" {
			return entry.Text
		}
	}
	return t.catalog.missing(t.locale, message, message, ErrMissingTranslation)
}

// Ngettext implements forms.Translator. The singular text is the lookup
// key; the plural form is chosen by the CLDR cardinal rules of the matched
// locale.
func (t *Translator) Ngettext(singular, pluralText string, n int) string {
	fallback := forms.NopTranslator{}.Ngettext(singular, pluralText, n)
	if !t.matched {
		return t.catalog.missing(t.locale, singular, fallback, ErrMissingTranslation)
	}
	entry, ok := t.catalog.lookup(t.tag, singular)
	if !ok {
		return t.catalog.missing(t.locale, singular, fallback, ErrMissingTranslation)
	}
	if len(entry.Plural) == 0 {
		if entry.Text != "" {
			return entry.Text
		}
		return t.catalog.missing(t.locale, singular, fallback, ErrMissingTranslation)
	}

	count := n
	if count < 0 {
		count = -count
	}
	form := plural.Cardinal.MatchPlural(t.tag, count, 0, 0, 0, 0)
	if text, ok := entry.Plural[form]; ok && text != "" {
		return text
	}
	if text, ok := entry.Plural[plural.Other]; ok && text != "" {
		return text
	}
	return t.catalog.missing(t.locale, singular, fallback, ErrMissingTranslation)
}

var _ forms.Translator = (*Translator)(nil)
