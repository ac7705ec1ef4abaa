package forms

import (
	"fmt"
	"strings"
	"sync/atomic"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Field kinds. Renderers and widget registries key off these values.
const (
	KindString        = "string"
	KindTextArea      = "textarea"
	KindPassword      = "password"
	KindHidden        = "hidden"
	KindEmail         = "email"
	KindURL           = "url"
	KindSearch        = "search"
	KindTel           = "tel"
	KindInteger       = "integer"
	KindIntegerRange  = "integer_range"
	KindFloat         = "float"
	KindDecimal       = "decimal"
	KindDecimalRange  = "decimal_range"
	KindBoolean       = "boolean"
	KindDateTime      = "datetime"
	KindDateTimeLocal = "datetime_local"
	KindDate          = "date"
	KindTime          = "time"
	KindMonth         = "month"
	KindSelect        = "select"
	KindSelectMulti   = "select_multiple"
	KindRadio         = "radio"
	KindForm          = "form"
	KindList          = "list"
)

var templateSequence atomic.Uint64

type builder func(core *FieldCore, cfg *config) (Field, error)

// Template is an unbound field declaration. It is immutable once created and
// may be bound any number of times, by any number of forms.
type Template struct {
	kind     string
	cfg      config
	build    builder
	sequence uint64
	err      error
}

func newTemplate(kind string, build builder, opts []Option) *Template {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	tpl := &Template{
		kind:     kind,
		cfg:      cfg,
		build:    build,
		sequence: templateSequence.Add(1),
	}
	if err := checkValidators(cfg.validators); err != nil {
		tpl.err = fmt.Errorf("%s field: %w", kind, err)
	}
	return tpl
}

// Kind reports the field kind the template builds.
func (t *Template) Kind() string { return t.kind }

// Sequence is the creation order of the template, used as the default field
// order within a schema.
func (t *Template) Sequence() uint64 { return t.sequence }

// Err reports a configuration error detected when the template was created.
func (t *Template) Err() error { return t.err }

// WireName returns the name given with WithName, or fallback when none was.
func (t *Template) WireName(fallback string) string {
	if t.cfg.name != "" {
		return t.cfg.name
	}
	return fallback
}

// BindParams supplies the per-binding context of a template.
type BindParams struct {
	// Name is the local (short) name of the field.
	Name string
	// Prefix is prepended to Name to form the wire name.
	Prefix string
	// ID overrides the field id; it defaults to the wire name.
	ID   string
	Meta *Meta
	// Form is the owning form; list entries are bound without one.
	Form *Form
}

// Bind builds a live field from the template.
func (t *Template) Bind(params BindParams) (Field, error) {
	if t == nil {
		return nil, ErrMissingTemplate
	}
	if t.err != nil {
		return nil, t.err
	}
	shortName := params.Name
	if strings.TrimSpace(shortName) == "" {
		return nil, fmt.Errorf("forms: bind %s field: name is required", t.kind)
	}

	meta := params.Meta
	if meta == nil {
		meta = (&Meta{}).withDefaults()
	}

	cfg := t.cfg.clone()
	name := params.Prefix + shortName
	id := params.ID
	if id == "" {
		id = cfg.id
	}
	if id == "" {
		id = name
	}

	core := &FieldCore{
		kind:         t.kind,
		name:         name,
		shortName:    shortName,
		id:           id,
		prefix:       params.Prefix,
		description:  cfg.description,
		validators:   cfg.validators,
		filters:      cfg.filters,
		defaultValue: cfg.defaultValue,
		defaultFunc:  cfg.defaultFunc,
		renderKw:     cfg.renderKw,
		widget:       cfg.widget,
		flags:        Flags{},
		meta:         meta,
		form:         params.Form,
	}

	text := ""
	if cfg.label != nil {
		text = *cfg.label
	} else {
		text = core.Gettext(defaultLabel(shortName))
	}
	core.label = Label{FieldID: id, Text: text}

	for _, v := range cfg.validators {
		if provider, ok := v.(FlagProvider); ok {
			for key, value := range provider.FieldFlags() {
				core.flags[key] = value
			}
		}
	}

	field, err := t.build(core, &cfg)
	if err != nil {
		return nil, fmt.Errorf("forms: bind %q: %w", name, err)
	}
	return field, nil
}

// defaultLabel title-cases the short name. Casers are stateful, so one is
// built per call.
func defaultLabel(name string) string {
	return cases.Title(language.Und).String(strings.ReplaceAll(name, "_", " "))
}
