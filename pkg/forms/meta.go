package forms

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Translator localizes user-facing messages. Implementations receive the
// English message as the lookup key.
type Translator interface {
	Gettext(message string) string
	Ngettext(singular, plural string, n int) string
}

// Renderer produces a presentational representation of a bound field. The
// core never renders; it only forwards calls.
type Renderer interface {
	RenderField(field Field, kw map[string]any) (string, error)
}

// NumberLocalizer parses and formats locale-aware decimals.
type NumberLocalizer interface {
	ParseDecimal(value, locale string) (decimal.Decimal, error)
	FormatDecimal(value decimal.Decimal, format, locale string) string
}

// ObjectAccessor reads and writes named attributes on arbitrary objects.
// Assign is destructive: an existing value is overwritten unconditionally.
type ObjectAccessor interface {
	Lookup(obj any, name string) (any, bool)
	Assign(obj any, name string, value any) error
	// Allocate returns a fresh, populatable value of the attribute's type, or
	// false when the attribute's type cannot be instantiated.
	Allocate(obj any, name string) (any, bool)
}

// Meta carries the collaborators shared by a form and every field bound
// under it, including fields of nested forms and list entries.
type Meta struct {
	Translator Translator
	Renderer   Renderer
	Numbers    NumberLocalizer
	Accessor   ObjectAccessor
	Locales    []string
	Logger     *zap.Logger
}

// Locale returns the primary locale, or "" when none is configured.
func (m *Meta) Locale() string {
	if m == nil || len(m.Locales) == 0 {
		return ""
	}
	return m.Locales[0]
}

func (m *Meta) withDefaults() *Meta {
	out := &Meta{}
	if m != nil {
		*out = *m
		out.Locales = append([]string(nil), m.Locales...)
	}
	if out.Translator == nil {
		out.Translator = NopTranslator{}
	}
	if out.Accessor == nil {
		out.Accessor = defaultAccessor
	}
	if out.Logger == nil {
		out.Logger = zap.NewNop()
	}
	return out
}

// NopTranslator returns messages untranslated.
type NopTranslator struct{}

// Gettext returns message unchanged.
func (NopTranslator) Gettext(message string) string { return message }

// Ngettext returns singular when n == 1 and plural otherwise.
func (NopTranslator) Ngettext(singular, plural string, n int) string {
	if n == 1 {
		return singular
	}
	return plural
}
