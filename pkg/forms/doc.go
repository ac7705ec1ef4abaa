// Package forms declares, binds and validates HTML style forms. A Template
// is an immutable field declaration; a Schema orders named templates; a Form
// binds the schema against one Submission (flat, multi-valued, dash keyed
// wire data) and an optional object, coercing every field. Validation runs
// each field's validator chain, where a *StopValidation halts the chain and a
// *ValidationError records a message and continues. FormField and FieldList
// are composites that recurse into nested schemas and repeated entries,
// naming their inner fields "outer-inner" and "list-index". Rendering,
// translation and locale-aware numbers are collaborators supplied through
// Meta and implemented by sibling packages.
package forms
