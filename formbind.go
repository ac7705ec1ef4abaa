// Package formbind is the top-level entry point: it re-exports the pipeline
// types most callers need and offers one-call helpers that load a document,
// bind a form and render it.
package formbind

import (
	"context"

	"github.com/goliatone/go-formbind/pkg/forms"
	"github.com/goliatone/go-formbind/pkg/openapi"
	"github.com/goliatone/go-formbind/pkg/orchestrator"
	"github.com/goliatone/go-formbind/pkg/render"
)

// Request aliases orchestrator.Request.
type Request = orchestrator.Request

// RenderOptions describes per-request overrides that renderers can use to
// prefill values or surface server-side validation errors.
type RenderOptions = render.RenderOptions

// FieldSubset aliases render.FieldSubset for callers rendering part of a
// form by group, tag or section.
type FieldSubset = render.FieldSubset

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// GenerateHTML loads source, resolves the named form (a form name or an
// OpenAPI operation id) and renders it with the named renderer. An empty
// renderer name selects the default HTML renderer.
func GenerateHTML(ctx context.Context, source openapi.Source, form, rendererName string, options ...orchestrator.Option) ([]byte, error) {
	return orchestrator.New(options...).Generate(ctx, orchestrator.Request{
		Source:   source,
		Form:     form,
		Renderer: rendererName,
	})
}

// GenerateHTMLFromDocument renders a form from a pre-loaded document,
// bypassing the loader stage.
func GenerateHTMLFromDocument(ctx context.Context, doc openapi.Document, form, rendererName string, options ...orchestrator.Option) ([]byte, error) {
	return orchestrator.New(options...).Generate(ctx, orchestrator.Request{
		Document: &doc,
		Form:     form,
		Renderer: rendererName,
	})
}

// BindAndValidate binds a submission to the named form and validates it.
// The bound form is returned even when validation fails so callers can
// re-render it with its errors.
func BindAndValidate(ctx context.Context, source openapi.Source, form string, submission forms.Values, options ...orchestrator.Option) (*forms.Form, bool, error) {
	result, err := orchestrator.New(options...).Bind(ctx, orchestrator.Request{
		Source:     source,
		Form:       form,
		Submission: submission,
		Validate:   true,
	})
	if err != nil {
		return nil, false, err
	}
	return result.Form, result.Valid, nil
}
