package forms

import (
	"fmt"

	"github.com/goliatone/go-formbind/pkg/attrs"
)

// FormField embeds a whole schema as one field. Its inner form is rebuilt on
// every process, with wire names prefixed by the field name and Separator.
type FormField struct {
	*FieldCore
	Separator string
	schema    *Schema
	inner     *Form
}

// Nested declares a field holding an instance of schema. Filters and
// validators are rejected; declare them on the inner fields.
func Nested(schema *Schema, opts ...Option) *Template {
	tpl := newTemplate(KindForm, func(core *FieldCore, cfg *config) (Field, error) {
		return &FormField{FieldCore: core, Separator: cfg.separator, schema: schema}, nil
	}, opts)
	if tpl.err != nil {
		return tpl
	}
	switch {
	case schema == nil:
		tpl.err = fmt.Errorf("form field: %w", ErrMissingTemplate)
	case len(tpl.cfg.filters) > 0:
		tpl.err = ErrCompositeFilters
	case len(tpl.cfg.validators) > 0:
		tpl.err = ErrCompositeValidators
	}
	return tpl
}

// Process rebuilds the inner form from sub and data. Mapping data seeds the
// inner fields by name; any other value is read as an object.
func (f *FormField) Process(sub Submission, data any, extra ...Filter) error {
	if len(extra) > 0 {
		return ErrCompositeFilters
	}
	if IsUnset(data) {
		data = f.resolveDefault()
	}
	f.objectData = data

	opts := []FormOption{
		WithMeta(f.meta),
		WithPrefix(f.name + f.Separator),
		WithSubmission(sub),
	}
	switch value := data.(type) {
	case nil:
	case map[string]any:
		opts = append(opts, WithData(value))
	default:
		opts = append(opts, WithObject(value))
	}

	inner, err := f.schema.New(opts...)
	if err != nil {
		return fmt.Errorf("forms: nested %q: %w", f.name, err)
	}
	f.inner = inner
	return nil
}

// Validate delegates to the inner form.
func (f *FormField) Validate(_ *Form, extra ...Validator) (bool, error) {
	if len(extra) > 0 {
		return false, ErrCompositeValidators
	}
	if f.inner == nil {
		return true, nil
	}
	return f.inner.Validate(nil)
}

// PopulateObject populates the target's existing attribute value, or the
// object the field was processed with, or a freshly allocated value of the
// attribute's type, then assigns it back onto target.
func (f *FormField) PopulateObject(target any, name string) error {
	if f.inner == nil {
		return fmt.Errorf("forms: populate %q: %w", f.name, ErrNothingToPopulate)
	}
	accessor := f.accessor()

	candidate, ok := accessor.Lookup(target, name)
	if !ok || candidate == nil {
		candidate = nil
		if f.objectData != nil && !IsUnset(f.objectData) {
			candidate = f.objectData
		} else if allocated, ok := accessor.Allocate(target, name); ok {
			candidate = allocated
		}
	}
	if candidate == nil {
		return fmt.Errorf("forms: populate %q: %w", f.name, ErrNothingToPopulate)
	}

	candidate = attrs.Addressable(candidate)
	if err := f.inner.PopulateObject(candidate); err != nil {
		return err
	}
	if err := accessor.Assign(target, name, candidate); err != nil {
		return fmt.Errorf("forms: populate %q: %w", f.name, err)
	}
	return nil
}

// Inner returns the inner form, nil before the first process.
func (f *FormField) Inner() *Form { return f.inner }

// Data returns the inner form data keyed by declared name.
func (f *FormField) Data() any {
	if f.inner == nil {
		return nil
	}
	return f.inner.Data()
}

// Errors flattens the messages of the inner form.
func (f *FormField) Errors() []string {
	if f.inner == nil {
		return nil
	}
	return f.inner.ErrorList()
}

// FieldErrors maps inner wire names to their messages.
func (f *FormField) FieldErrors() map[string][]string {
	if f.inner == nil {
		return map[string][]string{}
	}
	return f.inner.Errors()
}

// Field returns the inner field declared under name.
func (f *FormField) Field(name string) (Field, bool) {
	if f.inner == nil {
		return nil, false
	}
	return f.inner.Field(name)
}

// Fields returns the inner fields in order.
func (f *FormField) Fields() []Field {
	if f.inner == nil {
		return nil
	}
	return f.inner.Fields()
}

func (f *FormField) collectErrors(out map[string][]string) {
	if f.inner == nil {
		return
	}
	for _, field := range f.inner.fields {
		collectErrors(field, out)
	}
	if len(f.inner.formErrors) > 0 {
		out[f.name] = append([]string(nil), f.inner.formErrors...)
	}
}
