// Package attrs reads and writes named attributes on maps, struct pointers and
// values implementing Getter/Setter. Struct fields are matched by their
// `form` tag first, then by name ignoring case, underscores and dashes, so the
// attribute "first_name" resolves to a field named FirstName.
package attrs

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// DefaultTag is the struct tag consulted when matching attribute names.
const DefaultTag = "form"

var (
	ErrNilTarget      = errors.New("attrs: target is nil")
	ErrNotAddressable = errors.New("attrs: target is not addressable; pass a pointer")
	ErrNoAttribute    = errors.New("attrs: attribute not found")
)

// Getter is implemented by values that expose attributes without reflection.
type Getter interface {
	GetAttr(name string) (any, bool)
}

// Setter is implemented by values that accept attribute writes without
// reflection.
type Setter interface {
	SetAttr(name string, value any) error
}

// Allocator is implemented by values that know how to build a fresh value
// for one of their attributes.
type Allocator interface {
	AllocAttr(name string) (any, bool)
}

// Accessor is the reflection based attribute accessor. The zero value uses
// DefaultTag.
type Accessor struct {
	Tag string
}

func (a Accessor) tag() string {
	if strings.TrimSpace(a.Tag) == "" {
		return DefaultTag
	}
	return a.Tag
}

// Lookup returns the attribute value and whether the attribute exists. Nil
// pointers and interfaces are reported as a nil value.
func (a Accessor) Lookup(obj any, name string) (any, bool) {
	if obj == nil || name == "" {
		return nil, false
	}
	if getter, ok := obj.(Getter); ok {
		return getter.GetAttr(name)
	}

	value := indirect(reflect.ValueOf(obj))
	if !value.IsValid() {
		return nil, false
	}

	switch value.Kind() {
	case reflect.Map:
		if value.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		item := value.MapIndex(reflect.ValueOf(name).Convert(value.Type().Key()))
		if !item.IsValid() {
			return nil, false
		}
		return export(item), true
	case reflect.Struct:
		field, ok := a.structField(value, name)
		if !ok {
			return nil, false
		}
		return export(field), true
	default:
		return nil, false
	}
}

// Assign writes value onto the named attribute, converting between
// assignable, pointer and numeric types and rebuilding slices element by
// element when needed.
func (a Accessor) Assign(obj any, name string, value any) error {
	if obj == nil {
		return ErrNilTarget
	}
	if setter, ok := obj.(Setter); ok {
		return setter.SetAttr(name, value)
	}

	root := reflect.ValueOf(obj)
	target := indirect(root)
	if !target.IsValid() {
		return ErrNilTarget
	}

	switch target.Kind() {
	case reflect.Map:
		if target.IsNil() {
			return ErrNilTarget
		}
		keyType := target.Type().Key()
		if keyType.Kind() != reflect.String {
			return fmt.Errorf("attrs: map key type %s is not a string", keyType)
		}
		converted, err := Convert(value, target.Type().Elem())
		if err != nil {
			return fmt.Errorf("attrs: assign %q: %w", name, err)
		}
		target.SetMapIndex(reflect.ValueOf(name).Convert(keyType), converted)
		return nil
	case reflect.Struct:
		if root.Kind() != reflect.Pointer {
			return ErrNotAddressable
		}
		field, ok := a.structField(target, name)
		if !ok {
			return fmt.Errorf("%w: %q on %s", ErrNoAttribute, name, target.Type())
		}
		if !field.CanSet() {
			return fmt.Errorf("attrs: field for %q on %s cannot be set", name, target.Type())
		}
		converted, err := Convert(value, field.Type())
		if err != nil {
			return fmt.Errorf("attrs: assign %q: %w", name, err)
		}
		field.Set(converted)
		return nil
	default:
		return fmt.Errorf("attrs: cannot assign attributes on %s", target.Type())
	}
}

// Allocate returns a fresh value for the named attribute's declared type: a
// pointer for struct types and an empty map for map types.
func (a Accessor) Allocate(obj any, name string) (any, bool) {
	if obj == nil {
		return nil, false
	}
	if allocator, ok := obj.(Allocator); ok {
		return allocator.AllocAttr(name)
	}
	value := indirect(reflect.ValueOf(obj))
	if !value.IsValid() {
		return nil, false
	}

	var typ reflect.Type
	switch value.Kind() {
	case reflect.Map:
		if value.Type().Elem().Kind() == reflect.Interface {
			return map[string]any{}, true
		}
		typ = value.Type().Elem()
	case reflect.Struct:
		field, ok := a.structField(value, name)
		if !ok {
			return nil, false
		}
		typ = field.Type()
	default:
		return nil, false
	}
	return allocate(typ)
}

// AllocateElem returns a fresh value of the element type of the named slice
// or array attribute.
func (a Accessor) AllocateElem(obj any, name string) (any, bool) {
	if obj == nil {
		return nil, false
	}
	value := indirect(reflect.ValueOf(obj))
	if !value.IsValid() {
		return nil, false
	}

	var typ reflect.Type
	switch value.Kind() {
	case reflect.Map:
		if value.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		item := value.MapIndex(reflect.ValueOf(name).Convert(value.Type().Key()))
		if !item.IsValid() {
			return nil, false
		}
		if item.Kind() == reflect.Interface {
			if item.IsNil() {
				return nil, false
			}
			item = item.Elem()
		}
		typ = item.Type()
	case reflect.Struct:
		field, ok := a.structField(value, name)
		if !ok {
			return nil, false
		}
		typ = field.Type()
	default:
		return nil, false
	}
	if typ.Kind() != reflect.Slice && typ.Kind() != reflect.Array {
		return nil, false
	}
	return allocate(typ.Elem())
}

func allocate(typ reflect.Type) (any, bool) {
	switch typ.Kind() {
	case reflect.Pointer:
		if typ.Elem().Kind() == reflect.Struct {
			return reflect.New(typ.Elem()).Interface(), true
		}
	case reflect.Struct:
		return reflect.New(typ).Interface(), true
	case reflect.Map:
		if typ.Key().Kind() == reflect.String {
			return reflect.MakeMap(typ).Interface(), true
		}
	case reflect.Interface:
		return map[string]any{}, true
	}
	return nil, false
}

// Addressable returns a pointer to a copy of v when v is a struct value, so
// that attributes can be assigned on it. Other values are returned unchanged.
func Addressable(v any) any {
	if v == nil {
		return nil
	}
	value := reflect.ValueOf(v)
	if value.Kind() != reflect.Struct {
		return v
	}
	ptr := reflect.New(value.Type())
	ptr.Elem().Set(value)
	return ptr.Interface()
}

// Elements returns the items of a slice or array. Nil yields an empty list;
// any other kind reports false.
func Elements(v any) ([]any, bool) {
	if v == nil {
		return nil, true
	}
	value := reflect.ValueOf(v)
	switch value.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, 0, value.Len())
		for i := 0; i < value.Len(); i++ {
			out = append(out, export(value.Index(i)))
		}
		return out, true
	default:
		return nil, false
	}
}

func (a Accessor) structField(value reflect.Value, name string) (reflect.Value, bool) {
	tag := a.tag()
	want := normalise(name)
	var fallback []int

	for _, field := range reflect.VisibleFields(value.Type()) {
		if !field.IsExported() || field.Anonymous {
			continue
		}
		if tagged, ok := field.Tag.Lookup(tag); ok {
			tagName := strings.TrimSpace(strings.Split(tagged, ",")[0])
			if tagName == "-" {
				continue
			}
			if tagName == name {
				return fieldByIndex(value, field.Index)
			}
			if tagName != "" {
				continue
			}
		}
		if fallback == nil && normalise(field.Name) == want {
			fallback = field.Index
		}
	}
	if fallback != nil {
		return fieldByIndex(value, fallback)
	}
	return reflect.Value{}, false
}

func fieldByIndex(value reflect.Value, index []int) (reflect.Value, bool) {
	field, err := value.FieldByIndexErr(index)
	if err != nil {
		return reflect.Value{}, false
	}
	return field, true
}

func normalise(name string) string {
	var builder strings.Builder
	builder.Grow(len(name))
	for _, r := range name {
		if r == '_' || r == '-' || r == ' ' {
			continue
		}
		builder.WriteRune(r)
	}
	return strings.ToLower(builder.String())
}

func indirect(value reflect.Value) reflect.Value {
	for value.IsValid() && (value.Kind() == reflect.Pointer || value.Kind() == reflect.Interface) {
		if value.IsNil() {
			return reflect.Value{}
		}
		value = value.Elem()
	}
	return value
}

func export(value reflect.Value) any {
	if !value.IsValid() || !value.CanInterface() {
		return nil
	}
	switch value.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		if value.IsNil() {
			return nil
		}
	}
	if value.Kind() == reflect.Interface {
		return value.Elem().Interface()
	}
	return value.Interface()
}
