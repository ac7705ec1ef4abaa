// Package openapi derives forms.Schema values from the request bodies of an
// OpenAPI 3 document.
//
// A Loader fetches the raw document from a file, an fs.FS entry or a URL; a
// Parser hands it to kin-openapi and converts each operation's request body
// into a schema keyed by operationId. Properties are declared in sorted
// order; required properties get DataRequired (InputRequired for booleans)
// and optional ones with constraints get Optional first, so blank optional
// input skips the remaining checks.
//
// Per-property hints live under the "x-formbind" extension:
//
//	x-formbind:
//	  kind: textarea
//	  label: Biography
//	  widget: markdown
package openapi
