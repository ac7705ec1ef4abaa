package attrs

import (
	"fmt"
	"reflect"
)

// Convert adapts value to typ. Nil becomes the zero value; pointers are added
// or removed as required; numeric kinds convert between each other; slices
// and arrays are rebuilt element by element.
func Convert(value any, typ reflect.Type) (reflect.Value, error) {
	if value == nil {
		return reflect.Zero(typ), nil
	}
	source := reflect.ValueOf(value)
	return convertValue(source, typ)
}

func convertValue(source reflect.Value, typ reflect.Type) (reflect.Value, error) {
	if !source.IsValid() {
		return reflect.Zero(typ), nil
	}
	if source.Kind() == reflect.Interface {
		if source.IsNil() {
			return reflect.Zero(typ), nil
		}
		source = source.Elem()
	}

	if source.Type().AssignableTo(typ) {
		return source, nil
	}

	switch {
	case typ.Kind() == reflect.Pointer && source.Kind() != reflect.Pointer:
		inner, err := convertValue(source, typ.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		ptr := reflect.New(typ.Elem())
		ptr.Elem().Set(inner)
		return ptr, nil
	case source.Kind() == reflect.Pointer && typ.Kind() != reflect.Pointer:
		if source.IsNil() {
			return reflect.Zero(typ), nil
		}
		return convertValue(source.Elem(), typ)
	case typ.Kind() == reflect.Slice && (source.Kind() == reflect.Slice || source.Kind() == reflect.Array):
		out := reflect.MakeSlice(typ, source.Len(), source.Len())
		for i := 0; i < source.Len(); i++ {
			item, err := convertValue(source.Index(i), typ.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("index %d: %w", i, err)
			}
			out.Index(i).Set(item)
		}
		return out, nil
	case isNumeric(source.Kind()) && isNumeric(typ.Kind()):
		return source.Convert(typ), nil
	case source.Kind() == reflect.String && typ.Kind() == reflect.String:
		return source.Convert(typ), nil
	case source.Kind() == reflect.Bool && typ.Kind() == reflect.Bool:
		return source.Convert(typ), nil
	case source.Type().ConvertibleTo(typ) && source.Kind() == typ.Kind():
		return source.Convert(typ), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %s as %s", source.Type(), typ)
}

func isNumeric(kind reflect.Kind) bool {
	switch kind {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
