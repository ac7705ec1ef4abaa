package forms

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/spf13/cast"

	"github.com/goliatone/go-formbind/pkg/attrs"
)

// Choice is one selectable value of a select or radio field.
type Choice struct {
	Value any
	Label string
}

// Choices builds choices whose labels equal their values.
func Choices(values ...string) []Choice {
	out := make([]Choice, 0, len(values))
	for _, value := range values {
		out = append(out, Choice{Value: value, Label: value})
	}
	return out
}

// Pairs builds choices from alternating value, label arguments. A trailing
// value without a label is labelled with itself.
func Pairs(pairs ...string) []Choice {
	out := make([]Choice, 0, (len(pairs)+1)/2)
	for i := 0; i < len(pairs); i += 2 {
		label := pairs[i]
		if i+1 < len(pairs) {
			label = pairs[i+1]
		}
		out = append(out, Choice{Value: pairs[i], Label: label})
	}
	return out
}

// CoerceFunc converts a submitted or object value for a select field.
type CoerceFunc func(value any) (any, error)

// CoerceString converts value to its string form.
func CoerceString(value any) (any, error) {
	if s, ok := value.(string); ok {
		return s, nil
	}
	if stringer, ok := value.(fmt.Stringer); ok {
		return stringer.String(), nil
	}
	return cast.ToStringE(value)
}

// CoerceInt converts value to int.
func CoerceInt(value any) (any, error) {
	if s, ok := value.(string); ok {
		return strconv.Atoi(strings.TrimSpace(s))
	}
	return cast.ToIntE(value)
}

// CoerceFloat converts value to float64.
func CoerceFloat(value any) (any, error) {
	if s, ok := value.(string); ok {
		return strconv.ParseFloat(strings.TrimSpace(s), 64)
	}
	return cast.ToFloat64E(value)
}

// CoerceBool converts value to bool using strconv.ParseBool rules for
// strings.
func CoerceBool(value any) (any, error) {
	return cast.ToBoolE(value)
}

// ChoiceOption describes one rendered option of a select or radio field.
type ChoiceOption struct {
	ID       string
	Value    string
	Label    string
	Selected bool
}

// SelectField accepts a single value from Choices.
type SelectField struct {
	*FieldCore
	// Choices is nil when none were configured; validation then fails with
	// ErrChoicesNil.
	Choices        []Choice
	Coerce         CoerceFunc
	ValidateChoice bool
}

func selectBuilder(core *FieldCore, cfg *config) (Field, error) {
	field := &SelectField{
		FieldCore:      core,
		Coerce:         cfg.coerce,
		ValidateChoice: !cfg.skipChoiceTest,
	}
	if field.Coerce == nil {
		field.Coerce = CoerceString
	}
	field.Choices = resolveChoices(cfg)
	return field, nil
}

func resolveChoices(cfg *config) []Choice {
	if cfg.choicesFunc != nil {
		choices := cfg.choicesFunc()
		if choices == nil {
			return []Choice{}
		}
		return append([]Choice{}, choices...)
	}
	if cfg.choicesSet {
		return append([]Choice{}, cfg.choices...)
	}
	return nil
}

// Select declares a single choice drop-down.
func Select(opts ...Option) *Template { return newTemplate(KindSelect, selectBuilder, opts) }

// Radio declares a single choice radio group.
func Radio(opts ...Option) *Template { return newTemplate(KindRadio, selectBuilder, opts) }

// ProcessData coerces value; a failed coercion yields nil data without an
// error.
func (f *SelectField) ProcessData(value any) error {
	if value == nil || IsUnset(value) {
		f.data = nil
		return nil
	}
	coerced, err := f.Coerce(value)
	if err != nil {
		f.data = nil
		return nil
	}
	f.data = coerced
	return nil
}

// ProcessFormdata coerces the first submitted value.
func (f *SelectField) ProcessFormdata(raw []string) error {
	if len(raw) == 0 {
		return nil
	}
	coerced, err := f.Coerce(raw[0])
	if err != nil {
		f.data = nil
		return coercionError(f.Gettext("Invalid Choice: could not coerce."))
	}
	f.data = coerced
	return nil
}

// PreValidate checks that data is one of the coerced choice values.
func (f *SelectField) PreValidate(_ *Form) error {
	if f.Choices == nil {
		return ErrChoicesNil
	}
	if !f.ValidateChoice {
		return nil
	}
	for _, choice := range f.Choices {
		if f.matches(choice.Value, f.data) {
			return nil
		}
	}
	return Invalid(f.Gettext("Not a valid choice."))
}

// Options lists the choices with their selection state.
func (f *SelectField) Options() []ChoiceOption {
	out := make([]ChoiceOption, 0, len(f.Choices))
	for idx, choice := range f.Choices {
		out = append(out, ChoiceOption{
			ID:       fmt.Sprintf("%s-%d", f.id, idx),
			Value:    fmt.Sprint(choice.Value),
			Label:    choice.Label,
			Selected: f.matches(choice.Value, f.data),
		})
	}
	return out
}

// Value renders data as a string.
func (f *SelectField) Value() string {
	if f.data == nil {
		return ""
	}
	return fmt.Sprint(f.data)
}

func (f *SelectField) matches(choiceValue, data any) bool {
	coerced, err := f.Coerce(choiceValue)
	if err != nil {
		return false
	}
	return reflect.DeepEqual(coerced, data)
}

// SelectMultipleField accepts any subset of Choices. Data is []any.
type SelectMultipleField struct {
	SelectField
}

// SelectMultiple declares a multi-value select.
func SelectMultiple(opts ...Option) *Template {
	return newTemplate(KindSelectMulti, func(core *FieldCore, cfg *config) (Field, error) {
		inner, err := selectBuilder(core, cfg)
		if err != nil {
			return nil, err
		}
		return &SelectMultipleField{SelectField: *inner.(*SelectField)}, nil
	}, opts)
}

// ProcessData coerces every element; any failure yields nil data.
func (f *SelectMultipleField) ProcessData(value any) error {
	f.data = nil
	if value == nil || IsUnset(value) {
		return nil
	}
	items, ok := attrs.Elements(value)
	if !ok {
		return nil
	}
	out := make([]any, 0, len(items))
	for _, item := range items {
		coerced, err := f.Coerce(item)
		if err != nil {
			return nil
		}
		out = append(out, coerced)
	}
	f.data = out
	return nil
}

// ProcessFormdata coerces every submitted value.
func (f *SelectMultipleField) ProcessFormdata(raw []string) error {
	out := make([]any, 0, len(raw))
	for _, item := range raw {
		coerced, err := f.Coerce(item)
		if err != nil {
			f.data = nil
			return coercionError(f.Gettext("Invalid choice(s): one or more data inputs could not be coerced."))
		}
		out = append(out, coerced)
	}
	f.data = out
	return nil
}

// PreValidate checks that every selected value is an acceptable choice.
func (f *SelectMultipleField) PreValidate(_ *Form) error {
	if f.Choices == nil {
		return ErrChoicesNil
	}
	if !f.ValidateChoice || !Truthy(f.data) {
		return nil
	}
	selected, _ := f.data.([]any)

	acceptable := make([]any, 0, len(f.Choices))
	for _, choice := range f.Choices {
		if coerced, err := f.Coerce(choice.Value); err == nil {
			acceptable = append(acceptable, coerced)
		}
	}

	var unacceptable []string
	seen := make(map[string]struct{})
	for _, value := range selected {
		if containsValue(acceptable, value) {
			continue
		}
		text := fmt.Sprint(value)
		if _, dup := seen[text]; dup {
			continue
		}
		seen[text] = struct{}{}
		unacceptable = append(unacceptable, text)
	}
	if len(unacceptable) == 0 {
		return nil
	}
	message := f.Ngettext(
		"'%s' is not a valid choice for this field.",
		"'%s' are not valid choices for this field.",
		len(unacceptable),
	)
	return Invalidf(message, strings.Join(unacceptable, "', '"))
}

// Options lists the choices with their selection state.
func (f *SelectMultipleField) Options() []ChoiceOption {
	selected, _ := f.data.([]any)
	out := make([]ChoiceOption, 0, len(f.Choices))
	for idx, choice := range f.Choices {
		coerced, err := f.Coerce(choice.Value)
		out = append(out, ChoiceOption{
			ID:       fmt.Sprintf("%s-%d", f.id, idx),
			Value:    fmt.Sprint(choice.Value),
			Label:    choice.Label,
			Selected: err == nil && containsValue(selected, coerced),
		})
	}
	return out
}

// Value renders the selected values joined by commas.
func (f *SelectMultipleField) Value() string {
	selected, _ := f.data.([]any)
	parts := make([]string, 0, len(selected))
	for _, value := range selected {
		parts = append(parts, fmt.Sprint(value))
	}
	return strings.Join(parts, ",")
}

func containsValue(values []any, want any) bool {
	for _, value := range values {
		if reflect.DeepEqual(value, want) {
			return true
		}
	}
	return false
}
