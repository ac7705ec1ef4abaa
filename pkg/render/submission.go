package render

import (
	"fmt"
	"sort"
	"strings"
)

// HiddenField is a hidden input emitted alongside the bound fields, for
// values the form itself does not declare (CSRF tokens, versions).
type HiddenField struct {
	Name  string
	Value string
}

// Hidden returns a HiddenField for an arbitrary name/value pair.
func Hidden(name string, value any) HiddenField {
	return HiddenField{
		Name:  strings.TrimSpace(name),
		Value: fmt.Sprint(value),
	}
}

// CSRFToken constructs a hidden field carrying token under the input name
// the backend expects, e.g. "csrf_token".
func CSRFToken(name, token string) HiddenField {
	return Hidden(name, token)
}

// VersionField constructs a hidden field used for optimistic locking.
func VersionField(name string, version any) HiddenField {
	return Hidden(name, version)
}

// MethodOverride returns the hidden _method field for verbs browsers
// cannot submit, and false for GET and POST.
func MethodOverride(method string) (HiddenField, bool) {
	switch verb := strings.ToUpper(strings.TrimSpace(method)); verb {
	case "", "GET", "POST":
		return HiddenField{}, false
	default:
		return HiddenField{Name: "_method", Value: verb}, true
	}
}

// SortedHiddenFields drops unnamed fields, lets later fields win on name
// collisions and sorts by name for deterministic rendering.
func SortedHiddenFields(fields ...HiddenField) []HiddenField {
	byName := make(map[string]string, len(fields))
	for _, field := range fields {
		name := strings.TrimSpace(field.Name)
		if name == "" {
			continue
		}
		byName[name] = field.Value
	}
	if len(byName) == 0 {
		return nil
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]HiddenField, 0, len(names))
	for _, name := range names {
		out = append(out, HiddenField{Name: name, Value: byName[name]})
	}
	return out
}
