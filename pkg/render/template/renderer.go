package template

import (
	"html"
	"sort"
	"strings"

	"github.com/spf13/cast"
)

// TemplateRenderer renders a named template with a map of values. The pongo
// subpackage provides the default implementation.
type TemplateRenderer interface {
	RenderTemplate(name string, data map[string]any) (string, error)
}

// HTMLAttrs renders attrs as escaped HTML attributes sorted by name, each
// preceded by a space. A trailing underscore is dropped so reserved words
// such as "class_" and "for_" can be passed, and a "data_" prefix becomes
// "data-". true renders a bare attribute; false and nil are omitted.
func HTMLAttrs(attrs map[string]any) string {
	if len(attrs) == 0 {
		return ""
	}
	names := make(map[string]any, len(attrs))
	for key, value := range attrs {
		name := strings.TrimSuffix(strings.TrimSpace(key), "_")
		if rest, ok := strings.CutPrefix(name, "data_"); ok {
			name = "data-" + strings.ReplaceAll(rest, "_", "-")
		}
		if name == "" {
			continue
		}
		names[name] = value
	}

	keys := make([]string, 0, len(names))
	for name := range names {
		keys = append(keys, name)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, name := range keys {
		switch value := names[name].(type) {
		case nil:
			continue
		case bool:
			if !value {
				continue
			}
			b.WriteByte(' ')
			b.WriteString(html.EscapeString(name))
		default:
			b.WriteByte(' ')
			b.WriteString(html.EscapeString(name))
			b.WriteString(`="`)
			b.WriteString(html.EscapeString(cast.ToString(value)))
			b.WriteByte('"')
		}
	}
	return b.String()
}
