package openapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"go.uber.org/zap"
)

// ParserOptions configures a Parser.
type ParserOptions struct {
	// ValidateDocument runs kin-openapi's document validation before
	// conversion.
	ValidateDocument bool
	// AllowPartialDocuments accepts documents without paths or without any
	// operation carrying a request body.
	AllowPartialDocuments bool
	Logger                *zap.Logger
}

// ParserOption mutates ParserOptions.
type ParserOption func(*ParserOptions)

// WithDocumentValidation enables kin-openapi document validation.
func WithDocumentValidation() ParserOption {
	return func(o *ParserOptions) { o.ValidateDocument = true }
}

// WithPartialDocuments accepts documents that yield no operations.
func WithPartialDocuments() ParserOption {
	return func(o *ParserOptions) { o.AllowPartialDocuments = true }
}

// WithParserLogger attaches a logger for skipped operations.
func WithParserLogger(logger *zap.Logger) ParserOption {
	return func(o *ParserOptions) {
		if logger != nil {
			o.Logger = logger
		}
	}
}

// Parser turns OpenAPI documents into form schemas.
type Parser struct {
	options ParserOptions
}

// NewParser builds a Parser.
func NewParser(options ...ParserOption) *Parser {
	cfg := ParserOptions{Logger: zap.NewNop()}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Parser{options: cfg}
}

// requestMediaTypes lists the media types a request schema is taken from, in
// order of preference. Other media types are used only when none of these
// is present.
var requestMediaTypes = []string{
	"application/x-www-form-urlencoded",
	"multipart/form-data",
	"application/json",
}

var methods = []string{
	"GET", "PUT", "POST", "DELETE", "PATCH", "HEAD", "OPTIONS", "TRACE",
}

// Operations converts every operation with a request body into a schema
// keyed by operationId. Operations without an id are keyed
// "<method>:<path>" in lower case method.
func (p *Parser) Operations(ctx context.Context, doc Document) (Operations, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw := doc.Raw()
	if len(raw) == 0 {
		return nil, errors.New("openapi: parser: document payload is empty")
	}

	loader := &openapi3.Loader{Context: ctx}
	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi: parser: load %s: %w", doc.Location(), err)
	}
	if p.options.ValidateDocument {
		if err := spec.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return nil, fmt.Errorf("openapi: parser: validate %s: %w", doc.Location(), err)
		}
	}
	if (spec.Paths == nil || spec.Paths.Len() == 0) && !p.options.AllowPartialDocuments {
		return nil, errors.New("openapi: parser: document does not contain any paths")
	}

	operations := make(Operations)
	if spec.Paths != nil {
		paths := spec.Paths.Map()
		keys := make([]string, 0, len(paths))
		for path := range paths {
			keys = append(keys, path)
		}
		sort.Strings(keys)

		for _, path := range keys {
			item := paths[path]
			if item == nil {
				continue
			}
			for _, method := range methods {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				if err := p.collect(operations, method, path, item.GetOperation(method)); err != nil {
					return nil, err
				}
			}
		}
	}

	if len(operations) == 0 && !p.options.AllowPartialDocuments {
		return nil, errors.New("openapi: parser: no operation declares a request body")
	}
	return operations, nil
}

func (p *Parser) collect(target Operations, method, path string, operation *openapi3.Operation) error {
	if operation == nil {
		return nil
	}
	id := operation.OperationID
	if id == "" {
		id = strings.ToLower(method) + ":" + path
	}
	contentType, schemaRef := requestSchema(operation.RequestBody)
	if schemaRef == nil {
		p.options.Logger.Debug("openapi: operation has no request schema",
			zap.String("operation", id),
		)
		return nil
	}
	if _, exists := target[id]; exists {
		return fmt.Errorf("openapi: parser: duplicate operation id %q", id)
	}

	schema, err := newConverter().schema(id, schemaRef)
	if err != nil {
		return fmt.Errorf("openapi: parser: operation %q: %w", id, err)
	}
	target[id] = Operation{
		ID:          id,
		Method:      method,
		Path:        path,
		Summary:     operation.Summary,
		Description: operation.Description,
		ContentType: contentType,
		Schema:      schema,
	}
	p.options.Logger.Debug("openapi: operation converted",
		zap.String("operation", id),
		zap.String("content_type", contentType),
		zap.Int("fields", schema.Len()),
	)
	return nil
}

func requestSchema(body *openapi3.RequestBodyRef) (string, *openapi3.SchemaRef) {
	if body == nil || body.Value == nil {
		return "", nil
	}
	content := body.Value.Content
	for _, mediaType := range requestMediaTypes {
		if mt, ok := content[mediaType]; ok && mt != nil && mt.Schema != nil {
			return mediaType, mt.Schema
		}
	}
	names := make([]string, 0, len(content))
	for name := range content {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if mt := content[name]; mt != nil && mt.Schema != nil {
			return name, mt.Schema
		}
	}
	return "", nil
}
