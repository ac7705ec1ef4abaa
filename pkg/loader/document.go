// Package loader builds forms.Schema values from declarative YAML or JSON
// documents.
//
// A document maps schema names to their fields:
//
//	forms:
//	  address:
//	    fields:
//	      - name: street
//	        kind: string
//	        validators: [data_required, {length: {max: 80}}]
//	  signup:
//	    fields:
//	      - name: address
//	        kind: form
//	        form: address
//	      - name: tags
//	        kind: list
//	        max_entries: 5
//	        entry: {kind: string}
//
// Nested "form" references may point at schemas declared in any document
// of the same load; they are resolved after every file has been read.
package loader

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

type documentFile struct {
	Forms map[string]formFile `json:"forms" yaml:"forms"`
}

type formFile struct {
	Fields []fieldFile `json:"fields" yaml:"fields"`
}

type fieldFile struct {
	Name         string         `json:"name" yaml:"name"`
	Kind         string         `json:"kind" yaml:"kind"`
	Label        string         `json:"label,omitempty" yaml:"label,omitempty"`
	Description  string         `json:"description,omitempty" yaml:"description,omitempty"`
	ID           string         `json:"id,omitempty" yaml:"id,omitempty"`
	WireName     string         `json:"wire_name,omitempty" yaml:"wire_name,omitempty"`
	Default      any            `json:"default,omitempty" yaml:"default,omitempty"`
	Widget       string         `json:"widget,omitempty" yaml:"widget,omitempty"`
	RenderKw     map[string]any `json:"render_kw,omitempty" yaml:"render_kw,omitempty"`
	Validators   []any          `json:"validators,omitempty" yaml:"validators,omitempty"`
	Filters      []string       `json:"filters,omitempty" yaml:"filters,omitempty"`
	Choices      []any          `json:"choices,omitempty" yaml:"choices,omitempty"`
	ChoicesFrom  string         `json:"choices_from,omitempty" yaml:"choices_from,omitempty"`
	ValidChoice  *bool          `json:"validate_choice,omitempty" yaml:"validate_choice,omitempty"`
	Places       *int           `json:"places,omitempty" yaml:"places,omitempty"`
	Rounding     string         `json:"rounding,omitempty" yaml:"rounding,omitempty"`
	NumberFormat string         `json:"number_format,omitempty" yaml:"number_format,omitempty"`
	FalseValues  []string       `json:"false_values,omitempty" yaml:"false_values,omitempty"`
	Format       string         `json:"format,omitempty" yaml:"format,omitempty"`
	Separator    string         `json:"separator,omitempty" yaml:"separator,omitempty"`
	Form         string         `json:"form,omitempty" yaml:"form,omitempty"`
	Entry        *fieldFile     `json:"entry,omitempty" yaml:"entry,omitempty"`
	MinEntries   int            `json:"min_entries,omitempty" yaml:"min_entries,omitempty"`
	MaxEntries   int            `json:"max_entries,omitempty" yaml:"max_entries,omitempty"`
}

// parseDocument accepts JSON first and falls back to YAML, so JSON files
// keep JSON error positions when they are malformed in both.
func parseDocument(data []byte, source string) (documentFile, error) {
	var doc documentFile
	if len(strings.TrimSpace(string(data))) == 0 {
		return documentFile{}, fmt.Errorf("loader: file %s is empty", source)
	}

	jsonErr := json.Unmarshal(data, &doc)
	if jsonErr == nil {
		return doc, nil
	}

	doc = documentFile{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return documentFile{}, fmt.Errorf("loader: parse %s: invalid JSON or YAML: %w", source, err)
	}
	return doc, nil
}
