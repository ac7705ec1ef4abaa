package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/goliatone/go-formbind/pkg/forms"
)

var (
	// ErrUnknownForm is returned when a nested field references a schema no
	// loaded document declares, or when Set.Schema is asked for one.
	ErrUnknownForm = errors.New("loader: unknown form")
	// ErrDuplicateForm is returned when two documents declare the same name.
	ErrDuplicateForm = errors.New("loader: duplicate form")
	// ErrCycle is returned when nested form references loop back on
	// themselves.
	ErrCycle = errors.New("loader: form reference cycle")
)

// Option configures a load.
type Option func(*options)

type options struct {
	validators *Registry
	filters    map[string]forms.Filter
	choices    map[string]func() []forms.Choice
	logger     *zap.Logger
}

// WithValidatorRegistry replaces the builtin validator registry.
func WithValidatorRegistry(registry *Registry) Option {
	return func(o *options) {
		if registry != nil {
			o.validators = registry
		}
	}
}

// WithFilter makes a filter available to documents under name.
func WithFilter(name string, filter forms.Filter) Option {
	return func(o *options) {
		if filter != nil {
			o.filters[normalizeName(name)] = filter
		}
	}
}

// WithChoiceSource makes a choices producer available to documents under
// name, referenced from a field with choices_from. The producer runs on
// every bind, so it can serve lists that change at runtime.
func WithChoiceSource(name string, source func() []forms.Choice) Option {
	return func(o *options) {
		if source != nil {
			o.choices[normalizeName(name)] = source
		}
	}
}

// WithLogger attaches a logger; loads log the files and schemas they build
// at debug level.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		validators: nil,
		filters:    builtinFilters(),
		choices:    map[string]func() []forms.Choice{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.validators == nil {
		o.validators = NewRegistry()
	}
	return o
}

func builtinFilters() map[string]forms.Filter {
	str := func(fn func(string) string) forms.Filter {
		return func(value any) (any, error) {
			s, ok := value.(string)
			if !ok {
				return value, nil
			}
			return fn(s), nil
		}
	}
	return map[string]forms.Filter{
		"strip": str(strings.TrimSpace),
		"lower": str(strings.ToLower),
		"upper": str(strings.ToUpper),
	}
}

// Set holds the schemas built from one or more documents.
type Set struct {
	schemas map[string]*forms.Schema
	sources map[string]string
}

// Schema returns the named schema.
func (s *Set) Schema(name string) (*forms.Schema, error) {
	if s != nil {
		if schema, ok := s.schemas[name]; ok {
			return schema, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownForm, name)
}

// MustSchema mirrors Schema but panics when the name is unknown.
func (s *Set) MustSchema(name string) *forms.Schema {
	schema, err := s.Schema(name)
	if err != nil {
		panic(err)
	}
	return schema
}

// Names lists the loaded schema names, sorted.
func (s *Set) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.schemas))
	for name := range s.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Source reports the file a schema was declared in.
func (s *Set) Source(name string) string {
	if s == nil {
		return ""
	}
	return s.sources[name]
}

// Load builds the schemas of a single document. source names the document
// in error messages.
func Load(data []byte, source string, opts ...Option) (*Set, error) {
	b := newBuilder(newOptions(opts))
	if err := b.add(data, source); err != nil {
		return nil, err
	}
	return b.build()
}

// LoadFile reads and builds a document from disk.
func LoadFile(path string, opts ...Option) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loader: read %s: %w", path, err)
	}
	return Load(data, filepath.Base(path), opts...)
}

// LoadFS walks fsys and builds every .json, .yaml and .yml document in it.
// References between documents are resolved once all files are read.
func LoadFS(fsys fs.FS, opts ...Option) (*Set, error) {
	b := newBuilder(newOptions(opts))
	if fsys == nil {
		return b.build()
	}
	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isDocumentFile(path) {
			return nil
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("loader: read %s: %w", path, err)
		}
		return b.add(data, path)
	})
	if err != nil {
		return nil, err
	}
	return b.build()
}

// MustLoad mirrors Load but panics on error.
func MustLoad(data []byte, source string, opts ...Option) *Set {
	set, err := Load(data, source, opts...)
	if err != nil {
		panic(err)
	}
	return set
}

func isDocumentFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

type builder struct {
	opts     *options
	raw      map[string]formFile
	sources  map[string]string
	built    map[string]*forms.Schema
	visiting map[string]bool
}

func newBuilder(opts *options) *builder {
	return &builder{
		opts:     opts,
		raw:      make(map[string]formFile),
		sources:  make(map[string]string),
		built:    make(map[string]*forms.Schema),
		visiting: make(map[string]bool),
	}
}

func (b *builder) add(data []byte, source string) error {
	doc, err := parseDocument(data, source)
	if err != nil {
		return err
	}
	for name, form := range doc.Forms {
		name = strings.TrimSpace(name)
		if name == "" {
			return fmt.Errorf("loader: file %s declares a form without a name", source)
		}
		if prev, exists := b.sources[name]; exists {
			return fmt.Errorf("%w: %q in %s (first declared in %s)", ErrDuplicateForm, name, source, prev)
		}
		b.raw[name] = form
		b.sources[name] = source
	}
	b.opts.logger.Debug("loader: document parsed",
		zap.String("source", source),
		zap.Int("forms", len(doc.Forms)),
	)
	return nil
}

func (b *builder) build() (*Set, error) {
	names := make([]string, 0, len(b.raw))
	for name := range b.raw {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := b.schema(name, nil); err != nil {
			return nil, err
		}
	}
	return &Set{schemas: b.built, sources: b.sources}, nil
}

func (b *builder) schema(name string, path []string) (*forms.Schema, error) {
	if schema, ok := b.built[name]; ok {
		return schema, nil
	}
	raw, ok := b.raw[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownForm, name)
	}
	path = append(path, name)
	if b.visiting[name] {
		return nil, fmt.Errorf("%w: %s", ErrCycle, strings.Join(path, " -> "))
	}
	b.visiting[name] = true
	defer delete(b.visiting, name)

	decls := make([]forms.Decl, 0, len(raw.Fields))
	for i, field := range raw.Fields {
		fieldName := strings.TrimSpace(field.Name)
		if fieldName == "" {
			return nil, fmt.Errorf("loader: form %q (file %s) field %d has no name", name, b.sources[name], i)
		}
		tpl, err := b.template(field, path)
		if err != nil {
			if errors.Is(err, ErrCycle) || errors.Is(err, ErrUnknownForm) {
				return nil, err
			}
			return nil, fmt.Errorf("loader: form %q (file %s) field %q: %w", name, b.sources[name], fieldName, err)
		}
		decls = append(decls, forms.Declare(fieldName, tpl))
	}

	schema, err := forms.NewSchema(name, decls...)
	if err != nil {
		return nil, fmt.Errorf("loader: form %q (file %s): %w", name, b.sources[name], err)
	}
	b.built[name] = schema
	b.opts.logger.Debug("loader: schema built",
		zap.String("form", name),
		zap.Int("fields", len(decls)),
	)
	return schema, nil
}

func (b *builder) template(field fieldFile, path []string) (*forms.Template, error) {
	opts, err := b.fieldOptions(field)
	if err != nil {
		return nil, err
	}

	kind := normalizeName(field.Kind)
	if kind == "" {
		kind = forms.KindString
	}

	var tpl *forms.Template
	switch kind {
	case forms.KindString:
		tpl = forms.String(opts...)
	case forms.KindTextArea:
		tpl = forms.TextArea(opts...)
	case forms.KindPassword:
		tpl = forms.Password(opts...)
	case forms.KindHidden:
		tpl = forms.Hidden(opts...)
	case forms.KindEmail:
		tpl = forms.Email(opts...)
	case forms.KindURL:
		tpl = forms.URL(opts...)
	case forms.KindSearch:
		tpl = forms.Search(opts...)
	case forms.KindTel:
		tpl = forms.Tel(opts...)
	case forms.KindInteger:
		tpl = forms.Integer(opts...)
	case forms.KindIntegerRange:
		tpl = forms.IntegerRange(opts...)
	case forms.KindFloat:
		tpl = forms.Float(opts...)
	case forms.KindDecimal:
		tpl = forms.Decimal(opts...)
	case forms.KindDecimalRange:
		tpl = forms.DecimalRange(opts...)
	case forms.KindBoolean:
		tpl = forms.Boolean(opts...)
	case forms.KindDateTime:
		tpl = forms.DateTime(opts...)
	case forms.KindDateTimeLocal:
		tpl = forms.DateTimeLocal(opts...)
	case forms.KindDate:
		tpl = forms.Date(opts...)
	case forms.KindTime:
		tpl = forms.Time(opts...)
	case forms.KindMonth:
		tpl = forms.Month(opts...)
	case forms.KindSelect:
		tpl = forms.Select(opts...)
	case forms.KindSelectMulti:
		tpl = forms.SelectMultiple(opts...)
	case forms.KindRadio:
		tpl = forms.Radio(opts...)
	case forms.KindForm:
		ref := strings.TrimSpace(field.Form)
		if ref == "" {
			return nil, errors.New(`kind "form" needs a "form" reference`)
		}
		nested, err := b.schema(ref, path)
		if err != nil {
			return nil, err
		}
		tpl = forms.Nested(nested, opts...)
	case forms.KindList:
		if field.Entry == nil {
			return nil, errors.New(`kind "list" needs an "entry" field`)
		}
		entry, err := b.template(*field.Entry, path)
		if err != nil {
			return nil, fmt.Errorf("entry: %w", err)
		}
		tpl = forms.List(entry, opts...)
	default:
		return nil, fmt.Errorf("unknown kind %q", field.Kind)
	}

	if err := tpl.Err(); err != nil {
		return nil, err
	}
	return tpl, nil
}

func (b *builder) fieldOptions(field fieldFile) ([]forms.Option, error) {
	var opts []forms.Option
	if field.Label != "" {
		opts = append(opts, forms.WithLabel(field.Label))
	}
	if field.Description != "" {
		opts = append(opts, forms.WithDescription(field.Description))
	}
	if field.ID != "" {
		opts = append(opts, forms.WithID(field.ID))
	}
	if field.WireName != "" {
		opts = append(opts, forms.WithName(field.WireName))
	}
	if field.Default != nil {
		opts = append(opts, forms.WithDefault(field.Default))
	}
	if field.Widget != "" {
		opts = append(opts, forms.WithWidget(field.Widget))
	}
	if len(field.RenderKw) > 0 {
		opts = append(opts, forms.WithRenderKw(field.RenderKw))
	}

	if len(field.Validators) > 0 {
		validators := make([]forms.Validator, 0, len(field.Validators))
		for _, spec := range field.Validators {
			v, err := b.opts.validators.Build(spec)
			if err != nil {
				return nil, err
			}
			validators = append(validators, v)
		}
		opts = append(opts, forms.WithValidators(validators...))
	}

	if len(field.Filters) > 0 {
		filters := make([]forms.Filter, 0, len(field.Filters))
		for _, name := range field.Filters {
			filter, ok := b.opts.filters[normalizeName(name)]
			if !ok {
				return nil, fmt.Errorf("unknown filter %q", name)
			}
			filters = append(filters, filter)
		}
		opts = append(opts, forms.WithFilters(filters...))
	}

	if len(field.Choices) > 0 {
		choices, err := parseChoices(field.Choices)
		if err != nil {
			return nil, err
		}
		opts = append(opts, forms.WithChoices(choices...))
	}
	if field.ChoicesFrom != "" {
		if len(field.Choices) > 0 {
			return nil, errors.New("choices and choices_from are mutually exclusive")
		}
		source, ok := b.opts.choices[normalizeName(field.ChoicesFrom)]
		if !ok {
			return nil, fmt.Errorf("unknown choice source %q", field.ChoicesFrom)
		}
		opts = append(opts, forms.WithChoicesFunc(source))
	}
	if field.ValidChoice != nil && !*field.ValidChoice {
		opts = append(opts, forms.WithoutChoiceValidation())
	}

	if field.Places != nil {
		if *field.Places < 0 {
			opts = append(opts, forms.WithoutQuantize())
		} else {
			opts = append(opts, forms.WithPlaces(*field.Places))
		}
	}
	if field.Rounding != "" {
		mode, err := parseRounding(field.Rounding)
		if err != nil {
			return nil, err
		}
		opts = append(opts, forms.WithRounding(mode))
	}
	if field.NumberFormat != "" {
		opts = append(opts, forms.WithLocale(field.NumberFormat))
	}
	if field.FalseValues != nil {
		opts = append(opts, forms.WithFalseValues(field.FalseValues...))
	}
	if field.Format != "" {
		opts = append(opts, forms.WithFormat(field.Format))
	}
	if field.Separator != "" {
		opts = append(opts, forms.WithSeparator(field.Separator))
	}
	if field.MinEntries > 0 {
		opts = append(opts, forms.WithMinEntries(field.MinEntries))
	}
	if field.MaxEntries > 0 {
		opts = append(opts, forms.WithMaxEntries(field.MaxEntries))
	}
	return opts, nil
}

// parseChoices accepts bare values, single-key {value: label} maps and
// {value: .., label: ..} maps.
func parseChoices(raw []any) ([]forms.Choice, error) {
	out := make([]forms.Choice, 0, len(raw))
	for i, item := range raw {
		switch value := item.(type) {
		case map[string]any:
			if v, ok := value["value"]; ok {
				label := cast.ToString(value["label"])
				if label == "" {
					label = cast.ToString(v)
				}
				out = append(out, forms.Choice{Value: v, Label: label})
				continue
			}
			if len(value) != 1 {
				return nil, fmt.Errorf("choice %d: expected value and label", i)
			}
			for v, label := range value {
				out = append(out, forms.Choice{Value: v, Label: cast.ToString(label)})
			}
		case nil:
			return nil, fmt.Errorf("choice %d is empty", i)
		default:
			out = append(out, forms.Choice{Value: value, Label: cast.ToString(value)})
		}
	}
	return out, nil
}

func parseRounding(raw string) (forms.Rounding, error) {
	switch normalizeName(raw) {
	case "half_even":
		return forms.RoundHalfEven, nil
	case "half_up":
		return forms.RoundHalfUp, nil
	case "up":
		return forms.RoundUp, nil
	case "down":
		return forms.RoundDown, nil
	case "ceiling":
		return forms.RoundCeiling, nil
	case "floor":
		return forms.RoundFloor, nil
	}
	return 0, fmt.Errorf("unknown rounding %q", raw)
}
