package widgets

import (
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-formbind/pkg/forms"
)

// Built-in widget identifiers exposed by the registry.
const (
	WidgetText           = "text"
	WidgetTextArea       = "textarea"
	WidgetPassword       = "password"
	WidgetHidden         = "hidden"
	WidgetEmail          = "email"
	WidgetURL            = "url"
	WidgetSearch         = "search"
	WidgetTel            = "tel"
	WidgetNumber         = "number"
	WidgetRange          = "range"
	WidgetCheckbox       = "checkbox"
	WidgetDate           = "date"
	WidgetDateTime       = "datetime-local"
	WidgetTime           = "time"
	WidgetMonth          = "month"
	WidgetSelect         = "select"
	WidgetSelectMultiple = "select-multiple"
	WidgetRadioList      = "radio-list"
	WidgetSubform        = "subform"
	WidgetList           = "list"
)

// Matcher decides whether a widget renderer should handle the supplied field.
type Matcher func(field forms.Field) bool

type rule struct {
	name     string
	priority int
	match    Matcher
	order    int
}

// Registry selects widgets for bound fields based on an explicit widget set
// with forms.WithWidget or registered matchers. Higher priority wins; ties
// fall back to registration order. An empty registry never resolves a widget.
type Registry struct {
	mu    sync.RWMutex
	rules []rule
}

// NewRegistry constructs a registry with the built-in widget matchers
// registered.
func NewRegistry() *Registry {
	reg := &Registry{}
	reg.registerBuiltins()
	return reg
}

// Register adds a widget matcher with the provided name and priority. Higher
// priority values take precedence. Callers should avoid duplicate names; the
// latest registration wins during resolution.
func (r *Registry) Register(name string, priority int, matcher Matcher) {
	if r == nil || matcher == nil {
		return
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules = append(r.rules, rule{
		name:     trimmed,
		priority: priority,
		match:    matcher,
		order:    len(r.rules),
	})
}

// Resolve returns the widget name for a field. The field's own widget is
// honoured before matcher evaluation.
func (r *Registry) Resolve(field forms.Field) (string, bool) {
	if field == nil {
		return "", false
	}
	if explicit := strings.TrimSpace(field.Core().Widget()); explicit != "" {
		return explicit, true
	}
	if r == nil {
		return "", false
	}
	r.mu.RLock()
	if len(r.rules) == 0 {
		r.mu.RUnlock()
		return "", false
	}
	rules := append([]rule(nil), r.rules...)
	r.mu.RUnlock()
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].priority == rules[j].priority {
			return rules[i].order < rules[j].order
		}
		return rules[i].priority > rules[j].priority
	})
	for _, entry := range rules {
		if entry.match(field) {
			return entry.name, true
		}
	}
	return "", false
}

// Assign resolves a widget for every field of the form, descending into
// nested forms and list entries. The result is keyed by wire name.
func (r *Registry) Assign(form *forms.Form) map[string]string {
	out := make(map[string]string)
	if form == nil {
		return out
	}
	r.assignFields(form.Fields(), out)
	return out
}

func (r *Registry) assignFields(fields []forms.Field, out map[string]string) {
	for _, field := range fields {
		if widget, ok := r.Resolve(field); ok && widget != "" {
			out[field.Core().Name()] = widget
		}
		switch f := field.(type) {
		case *forms.FormField:
			r.assignFields(f.Fields(), out)
		case *forms.FieldList:
			r.assignFields(f.Entries, out)
		}
	}
}

func kindIs(kinds ...string) Matcher {
	return func(field forms.Field) bool {
		kind := field.Core().Kind()
		for _, k := range kinds {
			if kind == k {
				return true
			}
		}
		return false
	}
}

func (r *Registry) registerBuiltins() {
	r.Register(WidgetSubform, 100, kindIs(forms.KindForm))
	r.Register(WidgetList, 100, kindIs(forms.KindList))

	r.Register(WidgetCheckbox, 90, kindIs(forms.KindBoolean))
	r.Register(WidgetSelectMultiple, 80, kindIs(forms.KindSelectMulti))
	r.Register(WidgetRadioList, 80, kindIs(forms.KindRadio))
	r.Register(WidgetSelect, 70, kindIs(forms.KindSelect))

	r.Register(WidgetRange, 60, kindIs(forms.KindIntegerRange, forms.KindDecimalRange))
	r.Register(WidgetNumber, 60, kindIs(forms.KindInteger, forms.KindFloat, forms.KindDecimal))

	r.Register(WidgetDate, 50, kindIs(forms.KindDate))
	r.Register(WidgetDateTime, 50, kindIs(forms.KindDateTime, forms.KindDateTimeLocal))
	r.Register(WidgetTime, 50, kindIs(forms.KindTime))
	r.Register(WidgetMonth, 50, kindIs(forms.KindMonth))

	r.Register(WidgetTextArea, 40, kindIs(forms.KindTextArea))
	r.Register(WidgetPassword, 40, kindIs(forms.KindPassword))
	r.Register(WidgetHidden, 40, kindIs(forms.KindHidden))
	r.Register(WidgetEmail, 40, kindIs(forms.KindEmail))
	r.Register(WidgetURL, 40, kindIs(forms.KindURL))
	r.Register(WidgetSearch, 40, kindIs(forms.KindSearch))
	r.Register(WidgetTel, 40, kindIs(forms.KindTel))

	r.Register(WidgetText, 0, func(forms.Field) bool { return true })
}
