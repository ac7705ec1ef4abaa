package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goliatone/go-formbind/pkg/forms"
)

// FieldSubset selects top-level fields by declared name, by a flag set on
// the field (e.g. "required") or by kind. A field matching any filter is
// kept. An empty subset keeps every field.
type FieldSubset struct {
	Names []string
	Flags []string
	Kinds []string
}

// ApplySubset returns the fields matching subset, in their original order.
func ApplySubset(fields []forms.Field, subset FieldSubset) []forms.Field {
	matcher := newSubsetMatcher(subset)
	if matcher.empty() {
		return fields
	}

	filtered := make([]forms.Field, 0, len(fields))
	for _, field := range fields {
		if matcher.matches(field) {
			filtered = append(filtered, field)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	return filtered
}

type subsetMatcher struct {
	names map[string]struct{}
	flags map[string]struct{}
	kinds map[string]struct{}
}

func newSubsetMatcher(subset FieldSubset) subsetMatcher {
	return subsetMatcher{
		names: normaliseTokens(subset.Names),
		flags: normaliseTokens(subset.Flags),
		kinds: normaliseTokens(subset.Kinds),
	}
}

func (m subsetMatcher) empty() bool {
	return len(m.names) == 0 && len(m.flags) == 0 && len(m.kinds) == 0
}

func (m subsetMatcher) matches(field forms.Field) bool {
	core := field.Core()
	if len(m.names) > 0 {
		for _, name := range []string{core.ShortName(), core.Name()} {
			if _, ok := m.names[normaliseToken(name)]; ok {
				return true
			}
		}
	}

	if len(m.flags) > 0 {
		for flag := range m.flags {
			if core.Flags().Has(flag) {
				return true
			}
		}
	}

	if len(m.kinds) > 0 {
		if _, ok := m.kinds[normaliseToken(core.Kind())]; ok {
			return true
		}
	}

	return false
}

func normaliseTokens(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	result := make(map[string]struct{}, len(values))
	for _, value := range values {
		token := normaliseToken(value)
		if token == "" {
			continue
		}
		result[token] = struct{}{}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func normaliseToken(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		if _, exists := seen[value]; exists {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}

// ParseTokenList splits a comma separated or JSON array list into
// lower-cased, de-duplicated tokens.
func ParseTokenList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	if strings.HasPrefix(raw, "[") {
		var parsed []any
		if err := json.Unmarshal([]byte(raw), &parsed); err == nil {
			tokens := make([]string, 0, len(parsed))
			for _, entry := range parsed {
				if token := normaliseToken(fmt.Sprint(entry)); token != "" {
					tokens = append(tokens, token)
				}
			}
			return dedupe(tokens)
		}
	}

	parts := strings.Split(raw, ",")
	tokens := make([]string, 0, len(parts))
	for _, part := range parts {
		if token := normaliseToken(part); token != "" {
			tokens = append(tokens, token)
		}
	}
	return dedupe(tokens)
}
