package forms

import (
	"errors"
	"fmt"
	"strings"
)

// Field is a bound, stateful schema entry attached to one form instance.
// Concrete field types embed *FieldCore and override the optional hooks
// below; composite fields replace the protocols entirely.
type Field interface {
	Core() *FieldCore
	Data() any
	Errors() []string
}

// DataProcessor coerces object or default data into the field's type.
type DataProcessor interface {
	ProcessData(value any) error
}

// FormdataProcessor coerces the submitted values recorded under the field's
// wire name. It is called whenever a submission is supplied, with an empty
// list when the key is missing.
type FormdataProcessor interface {
	ProcessFormdata(raw []string) error
}

// PreValidator runs before the validator chain.
type PreValidator interface {
	PreValidate(form *Form) error
}

// PostValidator runs after the validator chain, halted or not.
type PostValidator interface {
	PostValidate(form *Form, stopped bool) error
}

// Processor replaces the default process protocol.
type Processor interface {
	Process(sub Submission, data any, extra ...Filter) error
}

// SelfValidator replaces the default validation protocol.
type SelfValidator interface {
	Validate(form *Form, extra ...Validator) (bool, error)
}

// ObjectPopulator replaces the default attribute assignment.
type ObjectPopulator interface {
	PopulateObject(target any, name string) error
}

// Valuer returns the string a renderer puts in the field's input.
type Valuer interface {
	Value() string
}

type unsetValue struct{}

// Unset marks the absence of object data, as opposed to a nil value.
var Unset any = unsetValue{}

// IsUnset reports whether v is the Unset marker.
func IsUnset(v any) bool {
	_, ok := v.(unsetValue)
	return ok
}

// Flags holds boolean-ish markers contributed by validators, such as
// "required". Missing flags read as nil.
type Flags map[string]any

// Has reports whether the flag is set to a truthy value.
func (f Flags) Has(name string) bool {
	return Truthy(f[name])
}

// Get returns the flag value or nil.
func (f Flags) Get(name string) any {
	return f[name]
}

// Set stores a flag value.
func (f Flags) Set(name string, value any) {
	f[name] = value
}

// Label is the text associated with a field id.
type Label struct {
	FieldID string
	Text    string
}

func (l Label) String() string {
	return l.Text
}

// FieldCore carries identity, configuration and runtime state shared by all
// field kinds.
type FieldCore struct {
	kind        string
	name        string
	shortName   string
	id          string
	prefix      string
	label       Label
	description string
	validators  []Validator
	filters     []Filter
	renderKw    map[string]any
	widget      string
	flags       Flags
	meta        *Meta
	form        *Form

	defaultValue any
	defaultFunc  func() any

	rawData       []string
	objectData    any
	data          any
	errors        []string
	processErrors []string
}

// Core returns the receiver, letting embedding types satisfy Field.
func (c *FieldCore) Core() *FieldCore { return c }

func (c *FieldCore) Kind() string            { return c.kind }
func (c *FieldCore) Name() string            { return c.name }
func (c *FieldCore) ShortName() string       { return c.shortName }
func (c *FieldCore) ID() string              { return c.id }
func (c *FieldCore) Label() Label            { return c.label }
func (c *FieldCore) Description() string     { return c.description }
func (c *FieldCore) Flags() Flags            { return c.flags }
func (c *FieldCore) Widget() string          { return c.widget }
func (c *FieldCore) Meta() *Meta             { return c.meta }
func (c *FieldCore) Form() *Form             { return c.form }
func (c *FieldCore) Validators() []Validator { return c.validators }

// RenderKw returns the default render keywords.
func (c *FieldCore) RenderKw() map[string]any {
	return c.renderKw
}

// RawData returns the submitted values: nil when no submission was
// processed, empty when the submission lacked the key.
func (c *FieldCore) RawData() []string { return c.rawData }

// ObjectData returns the value supplied to process before coercion.
func (c *FieldCore) ObjectData() any { return c.objectData }

// Data returns the coerced value.
func (c *FieldCore) Data() any { return c.data }

// SetData replaces the coerced value.
func (c *FieldCore) SetData(value any) { c.data = value }

// Errors returns the messages recorded by the last validation.
func (c *FieldCore) Errors() []string { return c.errors }

// ProcessErrors returns coercion messages recorded by the last process.
func (c *FieldCore) ProcessErrors() []string { return c.processErrors }

// AddError appends a validation message.
func (c *FieldCore) AddError(message string) {
	c.errors = append(c.errors, message)
}

// ClearErrors drops every recorded validation message, including those
// seeded from process errors.
func (c *FieldCore) ClearErrors() {
	c.errors = c.errors[:0]
}

// Gettext translates message through the field translator.
func (c *FieldCore) Gettext(message string) string {
	if c.meta == nil || c.meta.Translator == nil {
		return message
	}
	return c.meta.Translator.Gettext(message)
}

// Ngettext translates a pluralizable message.
func (c *FieldCore) Ngettext(singular, plural string, n int) string {
	if c.meta == nil || c.meta.Translator == nil {
		return NopTranslator{}.Ngettext(singular, plural, n)
	}
	return c.meta.Translator.Ngettext(singular, plural, n)
}

// ProcessData stores value unchanged.
func (c *FieldCore) ProcessData(value any) error {
	c.data = value
	return nil
}

// ProcessFormdata stores the first submitted value.
func (c *FieldCore) ProcessFormdata(raw []string) error {
	if len(raw) > 0 {
		c.data = raw[0]
	}
	return nil
}

// Value renders data as a string, or "" when nil.
func (c *FieldCore) Value() string {
	if c.data == nil {
		return ""
	}
	return fmt.Sprint(c.data)
}

func (c *FieldCore) resolveDefault() any {
	if c.defaultFunc != nil {
		return c.defaultFunc()
	}
	return c.defaultValue
}

func (c *FieldCore) recordProcessError(err error) {
	c.processErrors = append(c.processErrors, messageOf(err))
}

// ProcessField feeds a field its submission and object data. Coercion errors
// are recorded on the field; only configuration errors are returned.
func ProcessField(f Field, sub Submission, data any, extra ...Filter) error {
	if p, ok := f.(Processor); ok {
		return p.Process(sub, data, extra...)
	}

	core := f.Core()
	core.processErrors = nil
	if IsUnset(data) {
		data = core.resolveDefault()
	}
	core.objectData = data

	if dp, ok := f.(DataProcessor); ok {
		if err := dp.ProcessData(data); err != nil {
			core.recordProcessError(err)
		}
	}

	if sub != nil {
		raw := []string{}
		if sub.Has(core.name) {
			raw = append(raw, sub.GetAll(core.name)...)
		}
		core.rawData = raw
		if fp, ok := f.(FormdataProcessor); ok {
			if err := fp.ProcessFormdata(raw); err != nil {
				core.recordProcessError(err)
			}
		}
	}

	for _, filter := range append(append([]Filter(nil), core.filters...), extra...) {
		if filter == nil {
			continue
		}
		value, err := filter(core.data)
		if err != nil {
			core.recordProcessError(err)
			break
		}
		core.data = value
	}
	return nil
}

// ValidateField runs the pre-validate hook, the validator chain and the
// post-validate hook. It reports whether the field ended without errors.
func ValidateField(f Field, form *Form, extra ...Validator) (bool, error) {
	if v, ok := f.(SelfValidator); ok {
		return v.Validate(form, extra...)
	}
	if err := checkValidators(extra); err != nil {
		return false, err
	}

	core := f.Core()
	core.errors = append([]string{}, core.processErrors...)
	stopped := false

	if pre, ok := f.(PreValidator); ok {
		if err := pre.PreValidate(form); err != nil {
			halted, fatal := core.recordSignal(err)
			if fatal != nil {
				return false, fatal
			}
			stopped = halted
		}
	}

	if !stopped {
		chain := append(append([]Validator(nil), core.validators...), extra...)
		halted, err := RunChain(form, f, chain)
		if err != nil {
			return false, err
		}
		stopped = halted
	}

	if post, ok := f.(PostValidator); ok {
		if err := post.PostValidate(form, stopped); err != nil {
			if _, fatal := core.recordSignal(err); fatal != nil {
				return false, fatal
			}
		}
	}

	return len(core.errors) == 0, nil
}

// recordSignal appends the message carried by a validation signal and
// reports whether it halts. Errors that are not validation signals are
// returned as fatal.
func (c *FieldCore) recordSignal(err error) (halted bool, fatal error) {
	var stop *StopValidation
	if errors.As(err, &stop) {
		if stop.Message != "" {
			c.errors = append(c.errors, stop.Message)
		}
		return true, nil
	}
	var invalid *ValidationError
	if errors.As(err, &invalid) {
		c.errors = append(c.errors, invalid.Message)
		return false, nil
	}
	return false, fmt.Errorf("forms: validate %q: %w", c.name, err)
}

// PopulateField writes the field's data onto target.name. The write is
// destructive.
func PopulateField(f Field, target any, name string) error {
	if p, ok := f.(ObjectPopulator); ok {
		return p.PopulateObject(target, name)
	}
	core := f.Core()
	if err := core.accessor().Assign(target, name, f.Data()); err != nil {
		return fmt.Errorf("forms: populate %q: %w", core.name, err)
	}
	return nil
}

// ValueOf returns the render value of f.
func ValueOf(f Field) string {
	if v, ok := f.(Valuer); ok {
		return v.Value()
	}
	if data := f.Data(); data != nil {
		return fmt.Sprint(data)
	}
	return ""
}

// ErrNoRenderer is returned by RenderField when no renderer is configured.
var ErrNoRenderer = errors.New("forms: no renderer configured")

// RenderField renders f through the form's renderer, merging the field's
// default render keywords under kw.
func RenderField(f Field, kw map[string]any) (string, error) {
	core := f.Core()
	if core.meta == nil || core.meta.Renderer == nil {
		return "", ErrNoRenderer
	}
	merged := make(map[string]any, len(core.renderKw)+len(kw))
	for key, value := range core.renderKw {
		merged[key] = value
	}
	for key, value := range kw {
		merged[strings.TrimSuffix(key, "_")] = value
	}
	return core.meta.Renderer.RenderField(f, merged)
}

func (c *FieldCore) accessor() ObjectAccessor {
	if c.meta == nil || c.meta.Accessor == nil {
		return defaultAccessor
	}
	return c.meta.Accessor
}
