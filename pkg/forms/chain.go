package forms

import (
	"fmt"
	"reflect"

	"github.com/goliatone/go-formbind/pkg/attrs"
)

var defaultAccessor ObjectAccessor = attrs.Accessor{}

// Validator checks a field. Return nil to pass, a *StopValidation to record
// an optional message and halt the chain, or a *ValidationError to record a
// message and continue. Any other error aborts validation and is returned to
// the caller. Validators must be stateless.
type Validator interface {
	Validate(form *Form, field Field) error
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(form *Form, field Field) error

// Validate calls fn.
func (fn ValidatorFunc) Validate(form *Form, field Field) error {
	return fn(form, field)
}

// FlagProvider is implemented by validators that mark the fields they are
// attached to, for example with "required".
type FlagProvider interface {
	FieldFlags() map[string]any
}

// RunChain runs validators in order against field, appending their messages
// to the field's errors. It reports whether a validator halted the chain.
func RunChain(form *Form, field Field, validators []Validator) (bool, error) {
	core := field.Core()
	for _, validator := range validators {
		if isNilValidator(validator) {
			return false, ErrInvalidValidator
		}
		err := validator.Validate(form, field)
		if err == nil {
			continue
		}
		halted, fatal := core.recordSignal(err)
		if fatal != nil {
			return false, fatal
		}
		if halted {
			return true, nil
		}
	}
	return false, nil
}

func checkValidators(validators []Validator) error {
	for idx, validator := range validators {
		if isNilValidator(validator) {
			return fmt.Errorf("%w (position %d)", ErrInvalidValidator, idx)
		}
	}
	return nil
}

func isNilValidator(validator Validator) bool {
	if validator == nil {
		return true
	}
	value := reflect.ValueOf(validator)
	switch value.Kind() {
	case reflect.Func, reflect.Pointer, reflect.Map, reflect.Interface:
		return value.IsNil()
	}
	return false
}
