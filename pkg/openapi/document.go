package openapi

import (
	"errors"
	"sort"

	"github.com/goliatone/go-formbind/pkg/forms"
)

// Document wraps a raw OpenAPI payload and its origin.
type Document struct {
	source Source
	raw    []byte
}

// NewDocument validates the inputs and copies raw.
func NewDocument(src Source, raw []byte) (Document, error) {
	if src == nil {
		return Document{}, errors.New("openapi: source is required")
	}
	if len(raw) == 0 {
		return Document{}, errors.New("openapi: raw document is empty")
	}
	return Document{source: src, raw: append([]byte(nil), raw...)}, nil
}

// MustNewDocument panics if the document cannot be created.
func MustNewDocument(src Source, raw []byte) Document {
	doc, err := NewDocument(src, raw)
	if err != nil {
		panic(err)
	}
	return doc
}

// Source returns the origin of the document.
func (d Document) Source() Source { return d.source }

// Raw returns a copy of the payload.
func (d Document) Raw() []byte { return append([]byte(nil), d.raw...) }

// Location returns the string identifier of the origin.
func (d Document) Location() string {
	if d.source == nil {
		return ""
	}
	return d.source.Location()
}

// Operation is one API operation whose request body was turned into a form
// schema.
type Operation struct {
	ID          string
	Method      string
	Path        string
	Summary     string
	Description string
	// ContentType is the request media type the schema was taken from.
	ContentType string
	Schema      *forms.Schema
}

// Operations is keyed by operationId.
type Operations map[string]Operation

// IDs returns the operation ids, sorted.
func (ops Operations) IDs() []string {
	ids := make([]string, 0, len(ops))
	for id := range ops {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Schema returns the form schema of an operation.
func (ops Operations) Schema(id string) (*forms.Schema, bool) {
	op, ok := ops[id]
	if !ok || op.Schema == nil {
		return nil, false
	}
	return op.Schema, true
}
