package vanilla

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-formbind/pkg/forms"
	"github.com/goliatone/go-formbind/pkg/render"
	rendertemplate "github.com/goliatone/go-formbind/pkg/render/template"
	"github.com/goliatone/go-formbind/pkg/render/template/pongo"
	"github.com/goliatone/go-formbind/pkg/renderers/vanilla/components"
	"github.com/goliatone/go-formbind/pkg/widgets"
)

const (
	formTemplate = "templates/form.tmpl"
	rowTemplate  = "templates/row.tmpl"
)

type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	components       *components.Registry
	widgets          *widgets.Registry
	inlineStyles     bool
	logger           *zap.Logger
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithComponentRegistry replaces the default component registry.
func WithComponentRegistry(registry *components.Registry) Option {
	return func(cfg *config) {
		if registry != nil {
			cfg.components = registry
		}
	}
}

// WithComponent registers or overrides a single component on top of the
// default registry.
func WithComponent(name string, descriptor components.Descriptor) Option {
	return func(cfg *config) {
		if cfg.components == nil {
			cfg.components = components.NewDefaultRegistry()
		}
		cfg.components.MustRegister(name, descriptor)
	}
}

// WithWidgetRegistry replaces the registry that maps fields to widgets.
func WithWidgetRegistry(registry *widgets.Registry) Option {
	return func(cfg *config) {
		if registry != nil {
			cfg.widgets = registry
		}
	}
}

// WithInlineStylesheet embeds the default stylesheet in a <style> block.
func WithInlineStylesheet(enabled bool) Option {
	return func(cfg *config) {
		cfg.inlineStyles = enabled
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// Renderer produces plain HTML for bound forms. It implements both
// render.Renderer for whole forms and forms.Renderer for single controls.
type Renderer struct {
	templates    rendertemplate.TemplateRenderer
	components   *components.Registry
	widgets      *widgets.Registry
	inlineStyles bool
	logger       *zap.Logger
}

var (
	_ render.Renderer = (*Renderer)(nil)
	_ forms.Renderer  = (*Renderer)(nil)
)

// New constructs the vanilla renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{templateFS: TemplatesFS()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}
	if cfg.components == nil {
		cfg.components = components.NewDefaultRegistry()
	}
	if cfg.widgets == nil {
		cfg.widgets = widgets.NewRegistry()
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		engine, err := pongo.New(cfg.templateFS, pongo.WithName("vanilla"))
		if err != nil {
			return nil, fmt.Errorf("vanilla renderer: configure template renderer: %w", err)
		}
		renderer = engine
	}

	return &Renderer{
		templates:    renderer,
		components:   cfg.components,
		widgets:      cfg.widgets,
		inlineStyles: cfg.inlineStyles,
		logger:       cfg.logger,
	}, nil
}

func (r *Renderer) Name() string {
	return "vanilla"
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render writes the complete form: one row per top-level field, hidden
// inputs and the submit button.
func (r *Renderer) Render(ctx context.Context, form *forms.Form, options render.RenderOptions) ([]byte, error) {
	if r.templates == nil {
		return nil, fmt.Errorf("vanilla renderer: template renderer is nil")
	}
	if form == nil {
		return nil, fmt.Errorf("vanilla renderer: form is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	messages := form.Errors()
	for name, extra := range options.Errors {
		messages[name] = append(messages[name], extra...)
	}

	fields := render.ApplySubset(form.Fields(), options.Subset)
	rows := make([]any, 0, len(fields))
	for _, field := range fields {
		row, err := r.renderRow(field, messages)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	hidden := options.Hidden
	if override, ok := render.MethodOverride(options.Method); ok {
		hidden = append(append([]render.HiddenField(nil), hidden...), override)
	}
	hiddenInputs := make([]any, 0, len(hidden))
	for _, field := range render.SortedHiddenFields(hidden...) {
		hiddenInputs = append(hiddenInputs, map[string]any{
			"name":  field.Name,
			"value": field.Value,
		})
	}

	formErrors := make([]any, 0)
	for _, message := range render.MergeFormErrors(form.FormErrors(), options.FormErrors...) {
		formErrors = append(formErrors, message)
	}

	payload := map[string]any{
		"attrs":       formAttrs(form, options),
		"rows":        rows,
		"hidden":      hiddenInputs,
		"form_errors": formErrors,
		"submit":      options.Submit,
		"stylesheets": r.stylesheets(form),
	}
	if r.inlineStyles {
		payload["stylesheet"] = defaultStylesheet()
	}
	for name, fn := range render.TemplateI18nFuncs(translator(form), render.TemplateI18nConfig{}) {
		payload[name] = fn
	}

	result, err := r.templates.RenderTemplate(formTemplate, payload)
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: render template: %w", err)
	}
	r.logger.Debug("rendered form",
		zap.Int("fields", len(fields)),
		zap.Int("hidden", len(hiddenInputs)),
	)
	return []byte(result), nil
}

// RenderField renders the control of a single field without its label or
// errors. kw entries become HTML attributes.
func (r *Renderer) RenderField(field forms.Field, kw map[string]any) (string, error) {
	if field == nil {
		return "", fmt.Errorf("vanilla renderer: field is nil")
	}
	return r.renderControl(field, kw, forms.ErrorsOf(field))
}

// renderRow renders label, control, description and the messages recorded
// under the field's wire name. Composite rows only show their own
// messages; nested rows show theirs.
func (r *Renderer) renderRow(field forms.Field, messages map[string][]string) (string, error) {
	core := field.Core()

	control, err := r.renderControl(field, core.RenderKw(), messages)
	if err != nil {
		return "", err
	}

	widget, _ := r.widgets.Resolve(field)
	if widget == widgets.WidgetHidden {
		return control, nil
	}

	errorItems := make([]any, 0)
	for _, message := range messages[core.Name()] {
		errorItems = append(errorItems, message)
	}

	row, err := r.templates.RenderTemplate(rowTemplate, map[string]any{
		"id":          core.ID(),
		"widget":      widget,
		"label":       sanitizeText(core.Label().Text),
		"required":    core.Flags().Has("required"),
		"description": sanitizeText(core.Description()),
		"control":     control,
		"errors":      errorItems,
	})
	if err != nil {
		return "", fmt.Errorf("vanilla renderer: render row %q: %w", core.Name(), err)
	}
	return row, nil
}

func (r *Renderer) renderControl(field forms.Field, kw map[string]any, messages map[string][]string) (string, error) {
	core := field.Core()
	widget, ok := r.widgets.Resolve(field)
	if !ok {
		return "", fmt.Errorf("vanilla renderer: no widget for field %q", core.Name())
	}
	descriptor, ok := r.components.Descriptor(widget)
	if !ok {
		return "", fmt.Errorf("vanilla renderer: no component registered for widget %q", widget)
	}

	attrs := controlAttrs(field, len(messages[core.Name()]) > 0)
	for key, value := range kw {
		attrs[strings.TrimSuffix(key, "_")] = value
	}

	var buf bytes.Buffer
	err := descriptor.Renderer(&buf, field, components.ComponentData{
		Template: r.templates,
		Attrs:    attrs,
		RenderChild: func(child forms.Field) (string, error) {
			return r.renderRow(child, messages)
		},
	})
	if err != nil {
		return "", fmt.Errorf("vanilla renderer: render %q as %s: %w", core.Name(), widget, err)
	}
	return buf.String(), nil
}

var (
	booleanFlags = []string{"required", "disabled", "readonly"}
	valueFlags   = []string{"minlength", "maxlength", "min", "max"}
)

func controlAttrs(field forms.Field, invalid bool) map[string]any {
	core := field.Core()
	attrs := map[string]any{
		"id":   core.ID(),
		"name": core.Name(),
	}
	flags := core.Flags()
	for _, flag := range booleanFlags {
		if flags.Has(flag) {
			attrs[flag] = true
		}
	}
	for _, flag := range valueFlags {
		if value := flags.Get(flag); value != nil {
			attrs[flag] = fmt.Sprint(value)
		}
	}
	if invalid {
		attrs["aria-invalid"] = "true"
	}
	return attrs
}

func formAttrs(form *forms.Form, options render.RenderOptions) map[string]any {
	method := "post"
	if strings.EqualFold(strings.TrimSpace(options.Method), "GET") {
		method = "get"
	}
	attrs := map[string]any{
		"class":  "formbind",
		"method": method,
	}
	if action := strings.TrimSpace(options.Action); action != "" {
		attrs["action"] = action
	}
	if prefix := strings.TrimSuffix(form.Prefix(), "-"); prefix != "" {
		attrs["id"] = prefix
	}
	return attrs
}

func (r *Renderer) stylesheets(form *forms.Form) []any {
	assigned := r.widgets.Assign(form)
	names := make([]string, 0, len(assigned))
	for _, widget := range assigned {
		names = append(names, widget)
	}
	slices.Sort(names)
	out := make([]any, 0)
	for _, href := range r.components.Stylesheets(names) {
		out = append(out, href)
	}
	return out
}

func translator(form *forms.Form) forms.Translator {
	if meta := form.Meta(); meta != nil && meta.Translator != nil {
		return meta.Translator
	}
	return forms.NopTranslator{}
}
