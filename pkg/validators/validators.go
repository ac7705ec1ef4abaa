// Package validators provides the common field validators. Every validator is
// stateless, translates its default message through the field translator and
// may carry a custom message set with WithMessage.
package validators

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-formbind/pkg/forms"
)

// Option customises a validator.
type Option func(*settings)

type settings struct {
	message string
}

// WithMessage replaces the default message. Custom messages are used
// verbatim, without translation.
func WithMessage(message string) Option {
	return func(s *settings) {
		s.message = message
	}
}

func apply(opts []Option) settings {
	var s settings
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}
	return s
}

func (s settings) text(field forms.Field, fallback string) string {
	if s.message != "" {
		return s.message
	}
	return field.Core().Gettext(fallback)
}

// RequiredValidator stops the chain when the field data is falsy or a blank
// string.
type RequiredValidator struct {
	settings
}

// DataRequired requires truthy coerced data.
func DataRequired(opts ...Option) *RequiredValidator {
	return &RequiredValidator{settings: apply(opts)}
}

// Validate implements forms.Validator.
func (v *RequiredValidator) Validate(_ *forms.Form, field forms.Field) error {
	data := field.Data()
	if s, ok := data.(string); ok && strings.TrimSpace(s) == "" {
		data = nil
	}
	if forms.Truthy(data) {
		return nil
	}
	field.Core().ClearErrors()
	return forms.Stop(v.text(field, "This field is required."))
}

// FieldFlags implements forms.FlagProvider.
func (v *RequiredValidator) FieldFlags() map[string]any {
	return map[string]any{"required": true}
}

// InputRequiredValidator stops the chain when nothing was submitted for the
// field.
type InputRequiredValidator struct {
	settings
}

// InputRequired requires a non-empty first submitted value.
func InputRequired(opts ...Option) *InputRequiredValidator {
	return &InputRequiredValidator{settings: apply(opts)}
}

// Validate implements forms.Validator.
func (v *InputRequiredValidator) Validate(_ *forms.Form, field forms.Field) error {
	raw := field.Core().RawData()
	if len(raw) > 0 && raw[0] != "" {
		return nil
	}
	field.Core().ClearErrors()
	return forms.Stop(v.text(field, "This field is required."))
}

// FieldFlags implements forms.FlagProvider.
func (v *InputRequiredValidator) FieldFlags() map[string]any {
	return map[string]any{"required": true}
}

// OptionalValidator silently stops the chain, and clears earlier errors,
// when the field input is empty.
type OptionalValidator struct {
	StripWhitespace bool
}

// Optional allows empty input. Whitespace-only input counts as empty.
func Optional() *OptionalValidator {
	return &OptionalValidator{StripWhitespace: true}
}

// Validate implements forms.Validator.
func (v *OptionalValidator) Validate(_ *forms.Form, field forms.Field) error {
	raw := field.Core().RawData()
	empty := len(raw) == 0
	if !empty {
		first := raw[0]
		if v.StripWhitespace {
			first = strings.TrimSpace(first)
		}
		empty = first == ""
	}
	if !empty {
		return nil
	}
	field.Core().ClearErrors()
	return forms.Stop("")
}

// FieldFlags implements forms.FlagProvider.
func (v *OptionalValidator) FieldFlags() map[string]any {
	return map[string]any{"optional": true}
}

// ReadOnlyValidator rejects data that differs from the object data.
type ReadOnlyValidator struct {
	settings
}

// ReadOnly marks the field read-only.
func ReadOnly(opts ...Option) *ReadOnlyValidator {
	return &ReadOnlyValidator{settings: apply(opts)}
}

// Validate implements forms.Validator.
func (v *ReadOnlyValidator) Validate(_ *forms.Form, field forms.Field) error {
	if fmt.Sprint(field.Data()) != fmt.Sprint(field.Core().ObjectData()) {
		return forms.Invalid(v.text(field, "This field cannot be edited."))
	}
	return nil
}

// FieldFlags implements forms.FlagProvider.
func (v *ReadOnlyValidator) FieldFlags() map[string]any {
	return map[string]any{"readonly": true}
}

// DisabledValidator rejects any submitted value.
type DisabledValidator struct {
	settings
}

// Disabled marks the field disabled.
func Disabled(opts ...Option) *DisabledValidator {
	return &DisabledValidator{settings: apply(opts)}
}

// Validate implements forms.Validator.
func (v *DisabledValidator) Validate(_ *forms.Form, field forms.Field) error {
	if field.Core().RawData() != nil {
		return forms.Stop(v.text(field, "This field is disabled and cannot have a value."))
	}
	return nil
}

// FieldFlags implements forms.FlagProvider.
func (v *DisabledValidator) FieldFlags() map[string]any {
	return map[string]any{"disabled": true}
}

// EqualToValidator compares the field with another field of the same form.
type EqualToValidator struct {
	settings
	Other string
}

// EqualTo requires the data to equal the data of the named field.
func EqualTo(other string, opts ...Option) *EqualToValidator {
	return &EqualToValidator{settings: apply(opts), Other: other}
}

// Validate implements forms.Validator.
func (v *EqualToValidator) Validate(form *forms.Form, field forms.Field) error {
	if form == nil {
		return forms.Invalidf(field.Core().Gettext("Invalid field name '%s'."), v.Other)
	}
	other, ok := form.Field(v.Other)
	if !ok {
		return forms.Invalidf(field.Core().Gettext("Invalid field name '%s'."), v.Other)
	}
	if fmt.Sprint(field.Data()) == fmt.Sprint(other.Data()) {
		return nil
	}
	if v.message != "" {
		return forms.Invalid(v.message)
	}
	label := other.Core().Label().Text
	if label == "" {
		label = v.Other
	}
	return forms.Invalidf(field.Core().Gettext("Field must be equal to %s."), label)
}

// MembershipValidator checks the data against a fixed set of values.
type MembershipValidator struct {
	settings
	Values []any
	negate bool
}

// AnyOf requires the data to be one of values.
func AnyOf(values []any, opts ...Option) *MembershipValidator {
	return &MembershipValidator{settings: apply(opts), Values: append([]any(nil), values...)}
}

// NoneOf requires the data to be none of values.
func NoneOf(values []any, opts ...Option) *MembershipValidator {
	return &MembershipValidator{settings: apply(opts), Values: append([]any(nil), values...), negate: true}
}

// Validate implements forms.Validator.
func (v *MembershipValidator) Validate(_ *forms.Form, field forms.Field) error {
	data := fmt.Sprint(field.Data())
	found := false
	parts := make([]string, 0, len(v.Values))
	for _, value := range v.Values {
		text := fmt.Sprint(value)
		parts = append(parts, text)
		if text == data {
			found = true
		}
	}
	if found != v.negate {
		return nil
	}
	if v.message != "" {
		return forms.Invalid(v.message)
	}
	joined := strings.Join(parts, ", ")
	if v.negate {
		return forms.Invalidf(field.Core().Gettext("Invalid value, can't be any of: %s."), joined)
	}
	return forms.Invalidf(field.Core().Gettext("Invalid value, must be one of: %s."), joined)
}
