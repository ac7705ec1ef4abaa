package forms

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// FormOption configures a form construction.
type FormOption func(*formConfig)

type formConfig struct {
	meta         Meta
	prefix       string
	submission   Submission
	object       any
	data         map[string]any
	fieldFilters map[string][]Filter
}

// WithSubmission supplies the wire data. A nil Values is treated as no
// submission.
func WithSubmission(sub Submission) FormOption {
	return func(c *formConfig) {
		if values, ok := sub.(Values); ok && values == nil {
			sub = nil
		}
		c.submission = sub
	}
}

// WithObject supplies an object whose attributes seed the fields.
func WithObject(obj any) FormOption {
	return func(c *formConfig) {
		c.object = obj
	}
}

// WithData supplies per-field values used when the object lacks the
// attribute.
func WithData(data map[string]any) FormOption {
	return func(c *formConfig) {
		if c.data == nil {
			c.data = make(map[string]any, len(data))
		}
		for key, value := range data {
			c.data[key] = value
		}
	}
}

// WithPrefix namespaces every wire name. A prefix not ending in one of
// "-_;:/." gets a trailing "-".
func WithPrefix(prefix string) FormOption {
	return func(c *formConfig) {
		c.prefix = normalisePrefix(prefix)
	}
}

// WithMeta replaces the collaborators shared by the form's fields.
func WithMeta(meta *Meta) FormOption {
	return func(c *formConfig) {
		if meta == nil {
			c.meta = Meta{}
			return
		}
		c.meta = *meta
	}
}

// WithTranslator sets the message translator.
func WithTranslator(translator Translator) FormOption {
	return func(c *formConfig) {
		c.meta.Translator = translator
	}
}

// WithLocales sets the preferred locales, most preferred first.
func WithLocales(locales ...string) FormOption {
	return func(c *formConfig) {
		c.meta.Locales = append([]string(nil), locales...)
	}
}

// WithNumberLocalizer sets the collaborator used by locale-aware decimals.
func WithNumberLocalizer(numbers NumberLocalizer) FormOption {
	return func(c *formConfig) {
		c.meta.Numbers = numbers
	}
}

// WithRenderer sets the renderer used by RenderField.
func WithRenderer(renderer Renderer) FormOption {
	return func(c *formConfig) {
		c.meta.Renderer = renderer
	}
}

// WithAccessor sets the object accessor used to read and populate objects.
func WithAccessor(accessor ObjectAccessor) FormOption {
	return func(c *formConfig) {
		c.meta.Accessor = accessor
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) FormOption {
	return func(c *formConfig) {
		c.meta.Logger = logger
	}
}

// WithFieldFilters adds filters applied after the declared filters of the
// named field.
func WithFieldFilters(name string, filters ...Filter) FormOption {
	return func(c *formConfig) {
		if c.fieldFilters == nil {
			c.fieldFilters = make(map[string][]Filter)
		}
		c.fieldFilters[name] = append(c.fieldFilters[name], filters...)
	}
}

func normalisePrefix(prefix string) string {
	if prefix == "" {
		return ""
	}
	if strings.ContainsAny(prefix[len(prefix)-1:], "-_;:/.") {
		return prefix
	}
	return prefix + "-"
}

// Form is one bound instance of a schema. It is owned by a single request.
type Form struct {
	schema       *Schema
	prefix       string
	meta         *Meta
	fields       []Field
	names        []string
	index        map[string]Field
	fieldFilters map[string][]Filter
	formErrors   []string
}

// New binds every template of s and processes the fields with the
// submission, object and data supplied through opts.
func (s *Schema) New(opts ...FormOption) (*Form, error) {
	cfg := formConfig{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	form := &Form{
		schema:       s,
		prefix:       cfg.prefix,
		meta:         cfg.meta.withDefaults(),
		index:        make(map[string]Field, len(s.decls)),
		fieldFilters: cfg.fieldFilters,
	}
	for name := range cfg.fieldFilters {
		if _, ok := s.index[name]; !ok {
			return nil, fmt.Errorf("forms: schema %q: %w: %s", s.name, ErrUnknownField, name)
		}
	}

	for _, decl := range s.decls {
		field, err := decl.Template.Bind(BindParams{
			Name:   decl.Template.WireName(decl.Name),
			Prefix: form.prefix,
			Meta:   form.meta,
			Form:   form,
		})
		if err != nil {
			return nil, fmt.Errorf("forms: schema %q: %w", s.name, err)
		}
		form.fields = append(form.fields, field)
		form.names = append(form.names, decl.Name)
		form.index[decl.Name] = field
	}

	if err := form.Process(cfg.submission, cfg.object, cfg.data); err != nil {
		return nil, err
	}
	return form, nil
}

// Process feeds every field the submission and its object attribute, data
// entry or Unset, in that order of preference.
func (f *Form) Process(sub Submission, obj any, data map[string]any) error {
	accessor := f.meta.Accessor
	for idx, field := range f.fields {
		name := f.names[idx]
		value := Unset
		if obj != nil {
			if attr, ok := accessor.Lookup(obj, name); ok {
				value = attr
			} else if entry, ok := data[name]; ok {
				value = entry
			}
		} else if entry, ok := data[name]; ok {
			value = entry
		}
		if err := ProcessField(field, sub, value, f.fieldFilters[name]...); err != nil {
			return fmt.Errorf("forms: process %q: %w", field.Core().Name(), err)
		}
	}
	f.meta.Logger.Debug("form processed",
		zap.String("schema", f.schema.name),
		zap.String("prefix", f.prefix),
		zap.Int("fields", len(f.fields)),
		zap.Bool("submitted", sub != nil),
	)
	return nil
}

// Validate validates every field in order, then runs the schema's form
// validators. A failing field never prevents the others from validating.
// The error is only set for configuration problems.
func (f *Form) Validate(extra map[string][]Validator) (bool, error) {
	for name := range extra {
		if _, ok := f.index[name]; !ok {
			return false, fmt.Errorf("forms: schema %q: %w: %s", f.schema.name, ErrUnknownField, name)
		}
	}

	success := true
	for idx, field := range f.fields {
		ok, err := ValidateField(field, f, extra[f.names[idx]]...)
		if err != nil {
			return false, err
		}
		if !ok {
			success = false
		}
	}

	f.formErrors = nil
	for _, validator := range f.schema.formValidators {
		if validator == nil {
			return false, ErrInvalidValidator
		}
		err := validator.ValidateForm(f)
		if err == nil {
			continue
		}
		if message, ok := signalMessage(err); ok {
			if message != "" {
				f.formErrors = append(f.formErrors, message)
			}
			if isStop(err) {
				break
			}
			continue
		}
		return false, fmt.Errorf("forms: schema %q: %w", f.schema.name, err)
	}
	if len(f.formErrors) > 0 {
		success = false
	}

	f.meta.Logger.Debug("form validated",
		zap.String("schema", f.schema.name),
		zap.Bool("valid", success),
		zap.Int("invalid_fields", len(f.Errors())),
	)
	return success, nil
}

// PopulateObject writes every field's data onto target, in order. Existing
// values are overwritten.
func (f *Form) PopulateObject(target any) error {
	for idx, field := range f.fields {
		if err := PopulateField(field, target, f.names[idx]); err != nil {
			return err
		}
	}
	return nil
}

// Schema returns the schema the form was built from.
func (f *Form) Schema() *Schema { return f.schema }

// Prefix returns the normalised wire name prefix.
func (f *Form) Prefix() string { return f.prefix }

// Meta returns the collaborators shared by the form's fields.
func (f *Form) Meta() *Meta { return f.meta }

// Field returns the field declared under name.
func (f *Form) Field(name string) (Field, bool) {
	field, ok := f.index[name]
	return field, ok
}

// MustField returns the field declared under name and panics when there is
// none.
func (f *Form) MustField(name string) Field {
	field, ok := f.index[name]
	if !ok {
		panic(fmt.Errorf("forms: schema %q: %w: %s", f.schema.name, ErrUnknownField, name))
	}
	return field
}

// Fields returns the bound fields in order.
func (f *Form) Fields() []Field {
	return append([]Field(nil), f.fields...)
}

// Names returns the declared field names in order.
func (f *Form) Names() []string {
	return append([]string(nil), f.names...)
}

// Data maps declared field names to field data.
func (f *Form) Data() map[string]any {
	out := make(map[string]any, len(f.fields))
	for idx, field := range f.fields {
		out[f.names[idx]] = field.Data()
	}
	return out
}

// Errors maps wire names to the messages recorded by the last validation.
// Composite fields contribute the errors of their inner fields.
func (f *Form) Errors() map[string][]string {
	out := make(map[string][]string)
	for _, field := range f.fields {
		collectErrors(field, out)
	}
	return out
}

// FormErrors returns the messages recorded by form validators.
func (f *Form) FormErrors() []string {
	return append([]string(nil), f.formErrors...)
}

// ErrorList flattens Errors and FormErrors, fields first in declaration
// order, wire names sorted within a composite.
func (f *Form) ErrorList() []string {
	var out []string
	for _, field := range f.fields {
		errs := make(map[string][]string)
		collectErrors(field, errs)
		keys := make([]string, 0, len(errs))
		for key := range errs {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			out = append(out, errs[key]...)
		}
	}
	return append(out, f.formErrors...)
}

type errorCollector interface {
	collectErrors(out map[string][]string)
}

// ErrorsOf maps wire names to the messages of field and, for composites,
// of every nested field.
func ErrorsOf(field Field) map[string][]string {
	out := make(map[string][]string)
	if field != nil {
		collectErrors(field, out)
	}
	return out
}

func collectErrors(field Field, out map[string][]string) {
	if collector, ok := field.(errorCollector); ok {
		collector.collectErrors(out)
		return
	}
	if errs := field.Errors(); len(errs) > 0 {
		out[field.Core().Name()] = append([]string(nil), errs...)
	}
}

func signalMessage(err error) (string, bool) {
	var stop *StopValidation
	var invalid *ValidationError
	switch {
	case errors.As(err, &stop):
		return stop.Message, true
	case errors.As(err, &invalid):
		return invalid.Message, true
	}
	return "", false
}

func isStop(err error) bool {
	var stop *StopValidation
	return errors.As(err, &stop)
}
