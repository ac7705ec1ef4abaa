// Package pongo renders form templates with pongo2.
package pongo

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-formbind/pkg/render/template"
)

// Extension is appended to template names that do not carry it.
const Extension = ".tmpl"

// Option configures the engine before construction.
type Option func(*config)

type config struct {
	name  string
	debug bool
}

// WithName names the underlying pongo2 template set.
func WithName(name string) Option {
	return func(cfg *config) {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			cfg.name = trimmed
		}
	}
}

// WithDebug reparses templates on every render.
func WithDebug(debug bool) Option {
	return func(cfg *config) {
		cfg.debug = debug
	}
}

// Engine satisfies template.TemplateRenderer using a pongo2 template set
// backed by an fs.FS.
type Engine struct {
	set *pongo2.TemplateSet
}

var _ template.TemplateRenderer = (*Engine)(nil)

var (
	filtersOnce sync.Once
	filtersErr  error
)

// New constructs an Engine reading templates from files.
func New(files fs.FS, options ...Option) (*Engine, error) {
	if files == nil {
		return nil, errors.New("pongo: template filesystem is required")
	}
	cfg := config{name: "formbind"}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	filtersOnce.Do(func() {
		if !pongo2.FilterExists("attrs") {
			filtersErr = pongo2.RegisterFilter("attrs", filterAttrs)
		}
	})
	if filtersErr != nil {
		return nil, fmt.Errorf("pongo: register attrs filter: %w", filtersErr)
	}

	set := pongo2.NewSet(cfg.name, pongo2.NewFSLoader(files))
	set.Debug = cfg.debug
	return &Engine{set: set}, nil
}

// RenderTemplate renders the named template to a string.
func (e *Engine) RenderTemplate(name string, data map[string]any) (string, error) {
	var b strings.Builder
	if err := e.Execute(&b, name, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Execute renders the named template into w. Nothing is written when
// execution fails.
func (e *Engine) Execute(w io.Writer, name string, data map[string]any) error {
	if e == nil || e.set == nil {
		return errors.New("pongo: engine is nil")
	}
	path := name
	if !strings.HasSuffix(path, Extension) {
		path += Extension
	}
	tmpl, err := e.set.FromCache(path)
	if err != nil {
		return fmt.Errorf("pongo: load template %q: %w", path, err)
	}
	if err := tmpl.ExecuteWriter(pongo2.Context(data), w); err != nil {
		return fmt.Errorf("pongo: execute template %q: %w", path, err)
	}
	return nil
}

// filterAttrs renders a map as escaped HTML attributes. true renders a bare
// attribute; false and nil drop it.
func filterAttrs(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	attrs, ok := in.Interface().(map[string]any)
	if !ok || len(attrs) == 0 {
		return pongo2.AsSafeValue(""), nil
	}
	return pongo2.AsSafeValue(template.HTMLAttrs(attrs)), nil
}
