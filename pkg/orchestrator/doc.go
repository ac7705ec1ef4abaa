// Package orchestrator wires the document loaders, the forms binding core and
// the renderer registry into a single request/response pipeline.
package orchestrator
