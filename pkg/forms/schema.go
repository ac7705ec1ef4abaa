package forms

import (
	"fmt"
	"sort"
	"strings"
)

// Decl names a template within a schema.
type Decl struct {
	Name     string
	Template *Template
}

// Declare pairs a field name with its template.
func Declare(name string, tpl *Template) Decl {
	return Decl{Name: name, Template: tpl}
}

// FormValidator checks a whole form after its fields have been validated.
// It follows the Validator signal contract; messages are recorded as form
// errors.
type FormValidator interface {
	ValidateForm(form *Form) error
}

// FormValidatorFunc adapts a function to FormValidator.
type FormValidatorFunc func(form *Form) error

// ValidateForm calls fn.
func (fn FormValidatorFunc) ValidateForm(form *Form) error {
	return fn(form)
}

// Schema is an ordered registry of named templates. It is read-only once
// built and may be shared by concurrent form constructions.
type Schema struct {
	name           string
	decls          []Decl
	index          map[string]int
	formValidators []FormValidator
}

// NewSchema builds a schema from decls ordered by template creation
// sequence, ties broken by name.
func NewSchema(name string, decls ...Decl) (*Schema, error) {
	sorted, err := sortDecls(name, decls)
	if err != nil {
		return nil, err
	}
	s := &Schema{name: name, index: make(map[string]int, len(sorted))}
	for _, decl := range sorted {
		s.index[decl.Name] = len(s.decls)
		s.decls = append(s.decls, decl)
	}
	return s, nil
}

// MustSchema panics when err is not nil. It is meant for package level
// schema declarations.
func MustSchema(s *Schema, err error) *Schema {
	if err != nil {
		panic(err)
	}
	return s
}

// Extend derives a schema from s. Declarations overriding an existing name
// keep that name's position; new names are appended in sequence order.
func (s *Schema) Extend(name string, decls ...Decl) (*Schema, error) {
	sorted, err := sortDecls(name, decls)
	if err != nil {
		return nil, err
	}
	out := s.clone()
	out.name = name
	for _, decl := range sorted {
		if idx, ok := out.index[decl.Name]; ok {
			out.decls[idx] = decl
			continue
		}
		out.index[decl.Name] = len(out.decls)
		out.decls = append(out.decls, decl)
	}
	return out, nil
}

// WithFormValidators returns a copy of s that runs validators after every
// field has been validated.
func (s *Schema) WithFormValidators(validators ...FormValidator) *Schema {
	out := s.clone()
	out.formValidators = append(out.formValidators, validators...)
	return out
}

// Name returns the schema name.
func (s *Schema) Name() string { return s.name }

// Len returns the number of declared fields.
func (s *Schema) Len() int { return len(s.decls) }

// Names returns the declared field names in order.
func (s *Schema) Names() []string {
	out := make([]string, 0, len(s.decls))
	for _, decl := range s.decls {
		out = append(out, decl.Name)
	}
	return out
}

// Template returns the template declared under name.
func (s *Schema) Template(name string) (*Template, bool) {
	idx, ok := s.index[name]
	if !ok {
		return nil, false
	}
	return s.decls[idx].Template, true
}

// Decls returns a copy of the ordered declarations.
func (s *Schema) Decls() []Decl {
	return append([]Decl(nil), s.decls...)
}

func (s *Schema) clone() *Schema {
	out := &Schema{
		name:           s.name,
		decls:          append([]Decl(nil), s.decls...),
		index:          make(map[string]int, len(s.index)),
		formValidators: append([]FormValidator(nil), s.formValidators...),
	}
	for key, value := range s.index {
		out.index[key] = value
	}
	return out
}

func sortDecls(schema string, decls []Decl) ([]Decl, error) {
	seen := make(map[string]struct{}, len(decls))
	out := make([]Decl, 0, len(decls))
	for _, decl := range decls {
		if strings.TrimSpace(decl.Name) == "" {
			return nil, fmt.Errorf("forms: schema %q: field name is required", schema)
		}
		if decl.Template == nil {
			return nil, fmt.Errorf("forms: schema %q field %q: %w", schema, decl.Name, ErrMissingTemplate)
		}
		if err := decl.Template.Err(); err != nil {
			return nil, fmt.Errorf("forms: schema %q field %q: %w", schema, decl.Name, err)
		}
		if _, dup := seen[decl.Name]; dup {
			return nil, fmt.Errorf("forms: schema %q: %w: %s", schema, ErrDuplicateField, decl.Name)
		}
		seen[decl.Name] = struct{}{}
		out = append(out, decl)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Template.Sequence(), out[j].Template.Sequence()
		if a != b {
			return a < b
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}
