package openapi

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/spf13/cast"

	"github.com/goliatone/go-formbind/pkg/forms"
	"github.com/goliatone/go-formbind/pkg/validators"
)

const extensionKey = "x-formbind"

// ErrRecursiveSchema is returned when an object schema contains itself;
// forms cannot nest without bound.
var ErrRecursiveSchema = errors.New("openapi: recursive schema")

type templateFunc func(opts ...forms.Option) *forms.Template

// overridableKinds are the kinds an "x-formbind" kind hint may select.
var overridableKinds = map[string]templateFunc{
	forms.KindString:        forms.String,
	forms.KindTextArea:      forms.TextArea,
	forms.KindPassword:      forms.Password,
	forms.KindHidden:        forms.Hidden,
	forms.KindEmail:         forms.Email,
	forms.KindURL:           forms.URL,
	forms.KindSearch:        forms.Search,
	forms.KindTel:           forms.Tel,
	forms.KindInteger:       forms.Integer,
	forms.KindIntegerRange:  forms.IntegerRange,
	forms.KindFloat:         forms.Float,
	forms.KindDecimal:       forms.Decimal,
	forms.KindDecimalRange:  forms.DecimalRange,
	forms.KindBoolean:       forms.Boolean,
	forms.KindDateTime:      forms.DateTime,
	forms.KindDateTimeLocal: forms.DateTimeLocal,
	forms.KindDate:          forms.Date,
	forms.KindTime:          forms.Time,
	forms.KindMonth:         forms.Month,
	forms.KindSelect:        forms.Select,
	forms.KindRadio:         forms.Radio,
	forms.KindSelectMulti:   forms.SelectMultiple,
}

type converter struct {
	visiting map[*openapi3.Schema]bool
}

func newConverter() *converter {
	return &converter{visiting: make(map[*openapi3.Schema]bool)}
}

type hints struct {
	Kind     string
	Label    string
	Widget   string
	RenderKw map[string]any
}

func readHints(schema *openapi3.Schema) hints {
	raw, ok := schema.Extensions[extensionKey].(map[string]any)
	if !ok {
		return hints{}
	}
	h := hints{
		Kind:   strings.ToLower(strings.TrimSpace(cast.ToString(raw["kind"]))),
		Label:  cast.ToString(raw["label"]),
		Widget: cast.ToString(raw["widget"]),
	}
	if kw, ok := raw["render_kw"].(map[string]any); ok {
		h.RenderKw = kw
	}
	return h
}

// schema converts an object schema into a forms.Schema named name.
func (c *converter) schema(name string, ref *openapi3.SchemaRef) (*forms.Schema, error) {
	if ref == nil || ref.Value == nil {
		return nil, fmt.Errorf("schema %s is unresolved", name)
	}
	src := ref.Value
	if c.visiting[src] {
		return nil, fmt.Errorf("%w: %s", ErrRecursiveSchema, name)
	}
	c.visiting[src] = true
	defer delete(c.visiting, src)

	properties, required := flattenObject(src)
	if len(properties) == 0 {
		return nil, fmt.Errorf("schema %s has no properties", name)
	}

	names := make([]string, 0, len(properties))
	for prop := range properties {
		names = append(names, prop)
	}
	sort.Strings(names)

	decls := make([]forms.Decl, 0, len(names))
	for _, prop := range names {
		propRef := properties[prop]
		if propRef == nil || propRef.Value == nil || propRef.Value.ReadOnly {
			continue
		}
		tpl, err := c.field(name+"."+prop, propRef, required[prop])
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", prop, err)
		}
		decls = append(decls, forms.Declare(prop, tpl))
	}
	return forms.NewSchema(name, decls...)
}

// flattenObject merges allOf members into one property set.
func flattenObject(src *openapi3.Schema) (openapi3.Schemas, map[string]bool) {
	properties := openapi3.Schemas{}
	required := map[string]bool{}
	var walk func(s *openapi3.Schema)
	walk = func(s *openapi3.Schema) {
		for _, member := range s.AllOf {
			if member != nil && member.Value != nil {
				walk(member.Value)
			}
		}
		for name, prop := range s.Properties {
			properties[name] = prop
		}
		for _, name := range s.Required {
			required[name] = true
		}
	}
	walk(src)
	return properties, required
}

func (c *converter) field(path string, ref *openapi3.SchemaRef, required bool) (*forms.Template, error) {
	src := ref.Value
	h := readHints(src)
	opts := baseOptions(src, h)

	switch schemaType(src) {
	case openapi3.TypeObject:
		nested, err := c.schema(path, ref)
		if err != nil {
			return nil, err
		}
		return forms.Nested(nested, opts...), nil
	case openapi3.TypeArray:
		return c.array(path, src, h, opts)
	}

	kind, fieldValidators, err := scalar(src)
	if err != nil {
		return nil, err
	}
	if h.Kind != "" {
		if _, ok := overridableKinds[h.Kind]; !ok {
			return nil, fmt.Errorf("unsupported %s kind %q", extensionKey, h.Kind)
		}
		kind = h.Kind
	}

	if len(src.Enum) > 0 {
		opts = append(opts, forms.WithChoices(enumChoices(src.Enum)...))
		if schemaType(src) == openapi3.TypeInteger {
			opts = append(opts, forms.WithCoerce(forms.CoerceInt))
		}
	}
	if src.Default != nil && !isDateKind(kind) {
		opts = append(opts, forms.WithDefault(src.Default))
	}

	var chain []forms.Validator
	switch {
	case required && (kind == forms.KindBoolean || isNumberKind(kind)):
		chain = append(chain, validators.InputRequired())
	case required:
		chain = append(chain, validators.DataRequired())
	case len(fieldValidators) > 0:
		chain = append(chain, validators.Optional())
	}
	chain = append(chain, fieldValidators...)
	if len(chain) > 0 {
		opts = append(opts, forms.WithValidators(chain...))
	}

	return overridableKinds[kind](opts...), nil
}

func (c *converter) array(path string, src *openapi3.Schema, h hints, opts []forms.Option) (*forms.Template, error) {
	items := src.Items
	if items == nil || items.Value == nil {
		return nil, errors.New("array schema must define items")
	}
	if len(items.Value.Enum) > 0 {
		opts = append(opts, forms.WithChoices(enumChoices(items.Value.Enum)...))
		if schemaType(items.Value) == openapi3.TypeInteger {
			opts = append(opts, forms.WithCoerce(forms.CoerceInt))
		}
		return forms.SelectMultiple(opts...), nil
	}

	entry, err := c.field(path, items, false)
	if err != nil {
		return nil, fmt.Errorf("items: %w", err)
	}
	if src.MinItems > 0 {
		opts = append(opts, forms.WithMinEntries(int(src.MinItems)))
	}
	if src.MaxItems != nil {
		opts = append(opts, forms.WithMaxEntries(int(*src.MaxItems)))
	}
	return forms.List(entry, opts...), nil
}

func baseOptions(src *openapi3.Schema, h hints) []forms.Option {
	var opts []forms.Option
	switch {
	case h.Label != "":
		opts = append(opts, forms.WithLabel(h.Label))
	case src.Title != "":
		opts = append(opts, forms.WithLabel(src.Title))
	}
	if src.Description != "" {
		opts = append(opts, forms.WithDescription(src.Description))
	}
	if h.Widget != "" {
		opts = append(opts, forms.WithWidget(h.Widget))
	}
	if len(h.RenderKw) > 0 {
		opts = append(opts, forms.WithRenderKw(h.RenderKw))
	}
	return opts
}

// scalar picks the field kind for a primitive schema and the validators its
// constraints imply.
func scalar(src *openapi3.Schema) (string, []forms.Validator, error) {
	var chain []forms.Validator
	switch schemaType(src) {
	case openapi3.TypeBoolean:
		return forms.KindBoolean, nil, nil
	case openapi3.TypeInteger, openapi3.TypeNumber:
		kind := forms.KindInteger
		if schemaType(src) == openapi3.TypeNumber {
			kind = forms.KindFloat
			if src.Format == "decimal" {
				kind = forms.KindDecimal
			}
		}
		if src.Min != nil || src.Max != nil {
			var min, max any
			if src.Min != nil {
				min = *src.Min
			}
			if src.Max != nil {
				max = *src.Max
			}
			chain = append(chain, validators.NumberRange(min, max))
		}
		if len(src.Enum) > 0 {
			kind = forms.KindSelect
		}
		return kind, chain, nil
	case openapi3.TypeString, "":
	default:
		return "", nil, fmt.Errorf("unsupported type %q", schemaType(src))
	}

	kind := forms.KindString
	switch src.Format {
	case "email":
		kind = forms.KindEmail
		chain = append(chain, validators.Email())
	case "uri", "url":
		kind = forms.KindURL
		chain = append(chain, validators.URL())
	case "uuid":
		chain = append(chain, validators.UUID())
	case "ipv4":
		chain = append(chain, validators.IPAddress(false))
	case "ipv6":
		chain = append(chain, validators.IPv6Address())
	case "password":
		kind = forms.KindPassword
	case "date":
		kind = forms.KindDate
	case "date-time":
		kind = forms.KindDateTimeLocal
	case "time":
		kind = forms.KindTime
	}
	if len(src.Enum) > 0 {
		kind = forms.KindSelect
	}

	if src.MinLength > 0 || src.MaxLength != nil {
		min, max := validators.Unbounded, validators.Unbounded
		if src.MinLength > 0 {
			min = int(src.MinLength)
		}
		if src.MaxLength != nil {
			max = int(*src.MaxLength)
		}
		if max != validators.Unbounded && min != validators.Unbounded && max < min {
			return "", nil, fmt.Errorf("maxLength %d is lower than minLength %d", max, min)
		}
		chain = append(chain, validators.Length(min, max))
	}
	if src.Pattern != "" {
		if _, err := regexp.Compile(src.Pattern); err != nil {
			return "", nil, fmt.Errorf("pattern: %w", err)
		}
		chain = append(chain, validators.Regexp(src.Pattern))
	}
	return kind, chain, nil
}

func enumChoices(values []any) []forms.Choice {
	out := make([]forms.Choice, 0, len(values))
	for _, value := range values {
		if value == nil {
			continue
		}
		out = append(out, forms.Choice{Value: value, Label: cast.ToString(value)})
	}
	return out
}

// schemaType returns the first non-null type, defaulting to object when
// properties are present.
func schemaType(src *openapi3.Schema) string {
	if src.Type != nil {
		for _, t := range src.Type.Slice() {
			if t != "null" {
				return t
			}
		}
	}
	if len(src.Properties) > 0 || len(src.AllOf) > 0 {
		return openapi3.TypeObject
	}
	return ""
}

func isNumberKind(kind string) bool {
	switch kind {
	case forms.KindInteger, forms.KindIntegerRange, forms.KindFloat, forms.KindDecimal, forms.KindDecimalRange:
		return true
	}
	return false
}

func isDateKind(kind string) bool {
	switch kind {
	case forms.KindDateTime, forms.KindDateTimeLocal, forms.KindDate, forms.KindTime, forms.KindMonth:
		return true
	}
	return false
}
