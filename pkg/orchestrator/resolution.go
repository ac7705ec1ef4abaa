package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/goliatone/go-formbind/pkg/forms"
	"github.com/goliatone/go-formbind/pkg/loader"
	"github.com/goliatone/go-formbind/pkg/openapi"
)

// Document formats understood by the orchestrator.
const (
	FormatForms   = "forms"
	FormatOpenAPI = "openapi"
)

// Catalog lists the schemas one document provides.
type Catalog struct {
	Format  string
	Schemas map[string]*forms.Schema
}

// Names returns the schema names, sorted.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c.Schemas))
	for name := range c.Schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Catalog loads the request's document and builds every schema in it.
func (o *Orchestrator) Catalog(ctx context.Context, req Request) (Catalog, error) {
	if err := o.ready(ctx); err != nil {
		return Catalog{}, err
	}
	doc, err := o.resolveDocument(ctx, req)
	if err != nil {
		return Catalog{}, err
	}

	format := strings.ToLower(strings.TrimSpace(req.Format))
	if format == "" {
		format = DetectFormat(doc.Raw())
	}

	switch format {
	case FormatOpenAPI:
		ops, err := o.parser.Operations(ctx, doc)
		if err != nil {
			return Catalog{}, fmt.Errorf("orchestrator: parse operations: %w", err)
		}
		catalog := Catalog{Format: format, Schemas: make(map[string]*forms.Schema, len(ops))}
		for id, op := range ops {
			catalog.Schemas[id] = op.Schema
		}
		return catalog, nil
	case FormatForms:
		set, err := loader.Load(doc.Raw(), doc.Location(), o.schemaOptions...)
		if err != nil {
			return Catalog{}, fmt.Errorf("orchestrator: load forms: %w", err)
		}
		catalog := Catalog{Format: format, Schemas: make(map[string]*forms.Schema)}
		for _, name := range set.Names() {
			catalog.Schemas[name] = set.MustSchema(name)
		}
		return catalog, nil
	default:
		return Catalog{}, fmt.Errorf("orchestrator: unknown format %q", format)
	}
}

func (o *Orchestrator) resolveDocument(ctx context.Context, req Request) (openapi.Document, error) {
	if req.Document != nil {
		return *req.Document, nil
	}
	if req.Source == nil {
		return openapi.Document{}, errors.New("orchestrator: source or document is required")
	}
	doc, err := o.loader.Load(ctx, req.Source)
	if err != nil {
		return openapi.Document{}, fmt.Errorf("orchestrator: load document: %w", err)
	}
	return doc, nil
}

// DetectFormat reports FormatOpenAPI for payloads carrying an "openapi" or
// "swagger" version key and FormatForms otherwise.
func DetectFormat(raw []byte) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return FormatForms
	}
	if trimmed[0] == '{' {
		var payload map[string]any
		if err := json.Unmarshal(trimmed, &payload); err == nil {
			if _, ok := payload["openapi"]; ok {
				return FormatOpenAPI
			}
			if _, ok := payload["swagger"]; ok {
				return FormatOpenAPI
			}
			return FormatForms
		}
	}
	for _, line := range strings.Split(string(trimmed), "\n") {
		line = strings.ToLower(strings.TrimSpace(line))
		if strings.HasPrefix(line, "openapi:") || strings.HasPrefix(line, "swagger:") {
			return FormatOpenAPI
		}
	}
	return FormatForms
}

func joinNames(names []string) string {
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}
