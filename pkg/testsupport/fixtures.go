package testsupport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formbind/pkg/forms"
	"github.com/goliatone/go-formbind/pkg/loader"
	"github.com/goliatone/go-formbind/pkg/openapi"
)

// LoadDocument reads an OpenAPI fixture using a file source.
func LoadDocument(t *testing.T, path string) openapi.Document {
	t.Helper()

	doc, err := LoadDocumentFromPath(path)
	if err != nil {
		t.Fatalf("load document: %v", err)
	}
	return doc
}

// LoadDocumentFromPath returns a Document without requiring testing.T, for
// setup code that runs outside a test.
func LoadDocumentFromPath(path string) (openapi.Document, error) {
	if path == "" {
		return openapi.Document{}, errors.New("testsupport: document path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return openapi.Document{}, fmt.Errorf("testsupport: read document: %w", err)
	}
	doc, err := openapi.NewDocument(openapi.SourceFromFile(path), data)
	if err != nil {
		return openapi.Document{}, fmt.Errorf("testsupport: new document: %w", err)
	}
	return doc, nil
}

// MustLoadOperations parses an OpenAPI fixture into form schemas.
func MustLoadOperations(t *testing.T, path string) openapi.Operations {
	t.Helper()

	ops, err := openapi.NewParser().Operations(Context(), LoadDocument(t, path))
	if err != nil {
		t.Fatalf("parse operations: %v", err)
	}
	return ops
}

// MustLoadSchemas builds a schema set from a YAML or JSON forms document.
func MustLoadSchemas(t *testing.T, path string, opts ...loader.Option) *loader.Set {
	t.Helper()

	set, err := loader.LoadFile(path, opts...)
	if err != nil {
		t.Fatalf("load schemas: %v", err)
	}
	return set
}

// MustBind binds values to a new form of schema.
func MustBind(t *testing.T, schema *forms.Schema, values forms.Values, opts ...forms.FormOption) *forms.Form {
	t.Helper()

	if values != nil {
		opts = append([]forms.FormOption{forms.WithSubmission(values)}, opts...)
	}
	form, err := schema.New(opts...)
	if err != nil {
		t.Fatalf("bind %s: %v", schema.Name(), err)
	}
	return form
}

// WriteGolden writes value as indented JSON when UPDATE_GOLDENS is set.
func WriteGolden(t *testing.T, path string, value any) {
	t.Helper()

	if os.Getenv("UPDATE_GOLDENS") == "" {
		return
	}
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		t.Fatalf("marshal golden: %v", err)
	}
	writeFile(t, path, payload)
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// MustReadGoldenString reads a golden file and returns its string content.
func MustReadGoldenString(t *testing.T, path string) string {
	t.Helper()
	return string(MustReadGolden(t, path))
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	writeFile(t, path, data)
	return true
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// CaptureOutput runs fn against a buffer and returns what it wrote.
func CaptureOutput(t *testing.T, fn func(io.Writer) error) string {
	t.Helper()

	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		t.Fatalf("capture output: %v", err)
	}
	return buf.String()
}
