package render

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-formbind/pkg/forms"
)

// TemplateI18nConfig configures template-level translation helpers.
type TemplateI18nConfig struct {
	// FuncName customizes the singular helper name (defaults to "gettext").
	FuncName string
	// PluralFuncName customizes the plural helper name (defaults to
	// "ngettext").
	PluralFuncName string
}

// TemplateI18nFuncs returns helpers suitable for injecting into template
// data; the vanilla renderer adds them to every form payload.
// The helper signatures are:
//
//	gettext(message, ...args) string
//	ngettext(singular, plural, n, ...args) string
//
// Arguments, when present, are applied to the translated text with
// fmt.Sprintf. A nil translator returns messages untranslated.
func TemplateI18nFuncs(t forms.Translator, cfg TemplateI18nConfig) map[string]any {
	if t == nil {
		t = forms.NopTranslator{}
	}

	name := strings.TrimSpace(cfg.FuncName)
	if name == "" {
		name = "gettext"
	}
	pluralName := strings.TrimSpace(cfg.PluralFuncName)
	if pluralName == "" {
		pluralName = "ngettext"
	}

	return map[string]any{
		name: func(message string, args ...any) string {
			return format(t.Gettext(message), args)
		},
		pluralName: func(singular, plural string, n int, args ...any) string {
			return format(t.Ngettext(singular, plural, n), args)
		},
	}
}

func format(text string, args []any) string {
	if len(args) == 0 {
		return text
	}
	return fmt.Sprintf(text, args...)
}
