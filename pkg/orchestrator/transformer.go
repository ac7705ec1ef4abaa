package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formbind/pkg/forms"
)

// Transformer mutates a bound form before it is rendered, for example to
// attach errors reported by a backend.
type Transformer interface {
	Transform(ctx context.Context, form *forms.Form) error
}

// TransformerFunc adapts plain functions to the Transformer interface.
type TransformerFunc func(ctx context.Context, form *forms.Form) error

// Transform executes the wrapped function when non-nil.
func (fn TransformerFunc) Transform(ctx context.Context, form *forms.Form) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, form)
}

// PresetTransformer applies declarative data and error overrides read from
// a JSON or YAML document:
//
//	data:
//	  country: NZ
//	errors:
//	  email: [already registered]
//
// Keys are field names; unknown names are an error so presets cannot drift
// silently from their schema.
type PresetTransformer struct {
	Data   map[string]any      `json:"data" yaml:"data"`
	Errors map[string][]string `json:"errors" yaml:"errors"`
}

// NewPresetTransformer parses a preset document.
func NewPresetTransformer(raw []byte) (*PresetTransformer, error) {
	var preset PresetTransformer
	if err := json.Unmarshal(raw, &preset); err == nil {
		return &preset, nil
	}
	if err := yaml.Unmarshal(raw, &preset); err != nil {
		return nil, fmt.Errorf("orchestrator: parse preset: %w", err)
	}
	return &preset, nil
}

// NewPresetTransformerFromFS reads a preset document from fsys.
func NewPresetTransformerFromFS(fsys fs.FS, path string) (*PresetTransformer, error) {
	raw, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: read preset %s: %w", path, err)
	}
	return NewPresetTransformer(raw)
}

// Transform implements Transformer.
func (p *PresetTransformer) Transform(_ context.Context, form *forms.Form) error {
	if p == nil || form == nil {
		return nil
	}
	for name, value := range p.Data {
		field, ok := form.Field(name)
		if !ok {
			return fmt.Errorf("%w: preset data %q", forms.ErrUnknownField, name)
		}
		field.Core().SetData(value)
	}
	for name, messages := range p.Errors {
		field, ok := form.Field(name)
		if !ok {
			return fmt.Errorf("%w: preset errors %q", forms.ErrUnknownField, name)
		}
		for _, message := range messages {
			field.Core().AddError(message)
		}
	}
	return nil
}
