package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/goliatone/go-formbind/pkg/forms"
	"github.com/goliatone/go-formbind/pkg/loader"
	"github.com/goliatone/go-formbind/pkg/openapi"
	"github.com/goliatone/go-formbind/pkg/render"
	"github.com/goliatone/go-formbind/pkg/renderers/vanilla"
)

const defaultRendererName = "vanilla"

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithLoader injects the loader used to fetch documents.
func WithLoader(l *openapi.Loader) Option {
	return func(o *Orchestrator) {
		o.loader = l
	}
}

// WithParser injects the OpenAPI parser.
func WithParser(p *openapi.Parser) Option {
	return func(o *Orchestrator) {
		o.parser = p
	}
}

// WithSchemaOptions forwards options to the forms document loader.
func WithSchemaOptions(opts ...loader.Option) Option {
	return func(o *Orchestrator) {
		o.schemaOptions = append(o.schemaOptions, opts...)
	}
}

// WithRegistry injects a renderer registry.
func WithRegistry(registry *render.Registry) Option {
	return func(o *Orchestrator) {
		o.registry = registry
	}
}

// WithDefaultRenderer overrides the renderer used when a request omits an
// explicit Renderer field.
func WithDefaultRenderer(name string) Option {
	return func(o *Orchestrator) {
		o.defaultRenderer = name
	}
}

// WithTransformer registers a Transformer that runs on the bound form before
// rendering.
func WithTransformer(t Transformer) Option {
	return func(o *Orchestrator) {
		if t != nil {
			o.transformers = append(o.transformers, t)
		}
	}
}

// WithFormOptions adds options applied to every bound form, such as a
// translator or locales.
func WithFormOptions(opts ...forms.FormOption) Option {
	return func(o *Orchestrator) {
		o.formOptions = append(o.formOptions, opts...)
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Orchestrator coordinates the pipeline from a schema document to a rendered
// form: load, resolve the schema, bind, validate, transform and render.
type Orchestrator struct {
	loader          *openapi.Loader
	parser          *openapi.Parser
	schemaOptions   []loader.Option
	registry        *render.Registry
	defaultRenderer string
	transformers    []Transformer
	formOptions     []forms.FormOption
	logger          *zap.Logger
	initialiseErr   error
}

// New constructs an Orchestrator. Missing dependencies get the built-in
// implementations: a file loader, the OpenAPI parser and a registry holding
// the vanilla HTML renderer.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{
		defaultRenderer: defaultRendererName,
		logger:          zap.NewNop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(o)
		}
	}
	o.applyDefaults()
	return o
}

func (o *Orchestrator) applyDefaults() {
	if o.loader == nil {
		o.loader = openapi.NewLoader()
	}
	if o.parser == nil {
		o.parser = openapi.NewParser(openapi.WithParserLogger(o.logger))
	}
	if o.registry == nil {
		renderer, err := vanilla.New(vanilla.WithLogger(o.logger))
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: default renderer: %w", err)
			return
		}
		o.registry, err = render.NewRegistry(renderer)
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: default registry: %w", err)
		}
	}
}

// Request describes one pass through the pipeline.
type Request struct {
	// Source identifies the schema document. Optional when Document is set.
	Source openapi.Source

	// Document bypasses the loader.
	Document *openapi.Document

	// Format forces the document format (FormatForms or FormatOpenAPI);
	// it is detected from the payload when empty.
	Format string

	// Form names the schema: a form name in a forms document or an
	// operationId in an OpenAPI document.
	Form string

	// Renderer names the renderer; the default renderer is used when empty.
	Renderer string

	// Submission and Data feed the bound form.
	Submission forms.Values
	Data       map[string]any

	// Validate runs validation before rendering so field errors show up.
	Validate bool

	// ExtraValidators are passed to Form.Validate.
	ExtraValidators map[string][]forms.Validator

	// ErrorPayload holds errors reported by a backend, keyed by wire name,
	// dotted path or JSON pointer. Generate maps them onto the bound fields
	// and shows unmatched keys as form-level errors.
	ErrorPayload map[string][]string

	RenderOptions render.RenderOptions
}

// Result is the outcome of Bind.
type Result struct {
	Form *forms.Form
	// Valid is false when validation ran and failed.
	Valid bool
	// Validated reports whether validation ran.
	Validated bool
}

// Resolve loads the document and returns the requested schema.
func (o *Orchestrator) Resolve(ctx context.Context, req Request) (*forms.Schema, error) {
	if err := o.ready(ctx); err != nil {
		return nil, err
	}
	if req.Form == "" {
		return nil, errors.New("orchestrator: form name is required")
	}
	catalog, err := o.Catalog(ctx, req)
	if err != nil {
		return nil, err
	}
	schema, ok := catalog.Schemas[req.Form]
	if !ok {
		return nil, fmt.Errorf("orchestrator: form %q not found (available: %s)", req.Form, joinNames(catalog.Names()))
	}
	return schema, nil
}

// Bind resolves the schema, binds the request data to a new form and
// validates it when asked.
func (o *Orchestrator) Bind(ctx context.Context, req Request) (Result, error) {
	schema, err := o.Resolve(ctx, req)
	if err != nil {
		return Result{}, err
	}

	opts := append([]forms.FormOption{forms.WithLogger(o.logger)}, o.formOptions...)
	if req.Submission != nil {
		opts = append(opts, forms.WithSubmission(req.Submission))
	}
	if req.Data != nil {
		opts = append(opts, forms.WithData(req.Data))
	}
	form, err := schema.New(opts...)
	if err != nil {
		return Result{}, fmt.Errorf("orchestrator: bind %q: %w", req.Form, err)
	}

	result := Result{Form: form, Valid: true}
	if req.Validate {
		ok, err := form.Validate(req.ExtraValidators)
		if err != nil {
			return Result{}, fmt.Errorf("orchestrator: validate %q: %w", req.Form, err)
		}
		result.Valid = ok
		result.Validated = true
	}

	for _, t := range o.transformers {
		if err := t.Transform(ctx, form); err != nil {
			return Result{}, fmt.Errorf("orchestrator: transform form: %w", err)
		}
	}

	o.logger.Debug("orchestrator: form bound",
		zap.String("form", req.Form),
		zap.Bool("validated", result.Validated),
		zap.Bool("valid", result.Valid),
	)
	return result, nil
}

// Generate binds the request and renders the form with the named renderer.
func (o *Orchestrator) Generate(ctx context.Context, req Request) ([]byte, error) {
	renderer, err := o.rendererFor(req.Renderer)
	if err != nil {
		return nil, err
	}
	result, err := o.Bind(ctx, req)
	if err != nil {
		return nil, err
	}
	output, err := renderer.Render(ctx, result.Form, withErrorPayload(result.Form, req))
	if err != nil {
		return nil, fmt.Errorf("orchestrator: render output: %w", err)
	}
	return output, nil
}

func withErrorPayload(form *forms.Form, req Request) render.RenderOptions {
	opts := req.RenderOptions
	if len(req.ErrorPayload) == 0 {
		return opts
	}
	mapping := render.MapErrorPayload(form, req.ErrorPayload)
	errs := make(map[string][]string, len(opts.Errors)+len(mapping.Fields))
	for name, messages := range opts.Errors {
		errs[name] = append(errs[name], messages...)
	}
	for name, messages := range mapping.Fields {
		errs[name] = append(errs[name], messages...)
	}
	opts.Errors = errs
	opts.FormErrors = render.MergeFormErrors(opts.FormErrors, mapping.Form...)
	return opts
}

// Registry exposes the renderer registry so callers can add renderers.
func (o *Orchestrator) Registry() *render.Registry { return o.registry }

func (o *Orchestrator) ready(ctx context.Context) error {
	if ctx == nil {
		return errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return o.initialiseErr
}

func (o *Orchestrator) rendererFor(name string) (render.Renderer, error) {
	if o.initialiseErr != nil {
		return nil, o.initialiseErr
	}
	if o.registry == nil {
		return nil, errors.New("orchestrator: renderer registry is nil")
	}

	target := name
	if target == "" {
		target = o.defaultRenderer
	}
	if target != "" {
		renderer, err := o.registry.Get(target)
		if err == nil {
			return renderer, nil
		}
		if name != "" {
			return nil, fmt.Errorf("orchestrator: renderer %q: %w", name, err)
		}
	}

	names := o.registry.List()
	if len(names) == 0 {
		return nil, errors.New("orchestrator: no renderers registered")
	}
	return o.registry.Get(names[0])
}
