package forms

import (
	"errors"
	"fmt"
)

// Configuration errors. These are returned when a schema or field is wired
// incorrectly and are never recorded as field errors.
var (
	ErrInvalidValidator    = errors.New("forms: validator must not be nil")
	ErrCompositeFilters    = errors.New("forms: composite fields do not accept filters; define them on the enclosed fields")
	ErrCompositeValidators = errors.New("forms: composite fields do not accept in-line validators; define them on the enclosed fields")
	ErrLocaleConflict      = errors.New("forms: places and rounding cannot be combined with locale-aware numbers")
	ErrMissingLocalizer    = errors.New("forms: locale-aware numbers require a NumberLocalizer")
	ErrMaxEntries          = errors.New("forms: cannot have more than max entries in a field list")
	ErrChoicesNil          = errors.New("forms: choices cannot be nil")
	ErrNothingToPopulate   = errors.New("forms: cannot find a value to populate from the provided object or input data/defaults")
	ErrUnknownField        = errors.New("forms: unknown field")
	ErrDuplicateField      = errors.New("forms: duplicate field name")
	ErrMissingTemplate     = errors.New("forms: template is required")
)

// StopValidation halts the remaining validators of the current chain. An
// empty message halts without recording anything.
type StopValidation struct {
	Message string
}

func (e *StopValidation) Error() string {
	if e.Message == "" {
		return "validation stopped"
	}
	return e.Message
}

// ValidationError records a message and lets the chain continue.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// CoercionError is returned by data and formdata hooks when a value cannot be
// converted to the field's type. Process records the message and continues.
type CoercionError struct {
	Message string
}

func (e *CoercionError) Error() string {
	return e.Message
}

// Stop builds a halting validation signal.
func Stop(message string) error {
	return &StopValidation{Message: message}
}

// Stopf builds a halting validation signal with a formatted message.
func Stopf(format string, args ...any) error {
	return &StopValidation{Message: fmt.Sprintf(format, args...)}
}

// Invalid builds a non-halting validation signal.
func Invalid(message string) error {
	return &ValidationError{Message: message}
}

// Invalidf builds a non-halting validation signal with a formatted message.
func Invalidf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func coercionError(message string) error {
	return &CoercionError{Message: message}
}

// messageOf extracts the user-facing message from a recorded error.
func messageOf(err error) string {
	var stop *StopValidation
	if errors.As(err, &stop) {
		return stop.Message
	}
	var invalid *ValidationError
	if errors.As(err, &invalid) {
		return invalid.Message
	}
	var coercion *CoercionError
	if errors.As(err, &coercion) {
		return coercion.Message
	}
	return err.Error()
}
