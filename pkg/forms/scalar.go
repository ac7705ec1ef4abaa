package forms

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// StringField holds the first submitted value as a string.
type StringField struct {
	*FieldCore
}

func stringBuilder(core *FieldCore, _ *config) (Field, error) {
	return &StringField{FieldCore: core}, nil
}

// String declares a text input.
func String(opts ...Option) *Template { return newTemplate(KindString, stringBuilder, opts) }

// TextArea declares a multi-line text input.
func TextArea(opts ...Option) *Template { return newTemplate(KindTextArea, stringBuilder, opts) }

// Password declares a password input.
func Password(opts ...Option) *Template { return newTemplate(KindPassword, stringBuilder, opts) }

// Hidden declares a hidden input.
func Hidden(opts ...Option) *Template { return newTemplate(KindHidden, stringBuilder, opts) }

// Email declares an email input.
func Email(opts ...Option) *Template { return newTemplate(KindEmail, stringBuilder, opts) }

// URL declares a URL input.
func URL(opts ...Option) *Template { return newTemplate(KindURL, stringBuilder, opts) }

// Search declares a search input.
func Search(opts ...Option) *Template { return newTemplate(KindSearch, stringBuilder, opts) }

// Tel declares a telephone input.
func Tel(opts ...Option) *Template { return newTemplate(KindTel, stringBuilder, opts) }

// IntegerField coerces input to int.
type IntegerField struct {
	*FieldCore
}

func integerBuilder(core *FieldCore, _ *config) (Field, error) {
	return &IntegerField{FieldCore: core}, nil
}

// Integer declares an integer input.
func Integer(opts ...Option) *Template { return newTemplate(KindInteger, integerBuilder, opts) }

// IntegerRange declares an integer range slider.
func IntegerRange(opts ...Option) *Template {
	return newTemplate(KindIntegerRange, integerBuilder, opts)
}

// ProcessData converts value to int; nil and Unset produce nil data.
func (f *IntegerField) ProcessData(value any) error {
	if value == nil || IsUnset(value) {
		f.data = nil
		return nil
	}
	var (
		n   int
		err error
	)
	if s, ok := value.(string); ok {
		n, err = strconv.Atoi(strings.TrimSpace(s))
	} else {
		n, err = cast.ToIntE(value)
	}
	if err != nil {
		f.data = nil
		return coercionError(f.Gettext("Not a valid integer value."))
	}
	f.data = n
	return nil
}

// ProcessFormdata parses the first submitted value.
func (f *IntegerField) ProcessFormdata(raw []string) error {
	if len(raw) == 0 {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw[0]))
	if err != nil {
		f.data = nil
		return coercionError(f.Gettext("Not a valid integer value."))
	}
	f.data = n
	return nil
}

// Value prefers the submitted text so invalid input is echoed back.
func (f *IntegerField) Value() string {
	if len(f.rawData) > 0 {
		return f.rawData[0]
	}
	if f.data != nil {
		return fmt.Sprint(f.data)
	}
	return ""
}

// FloatField coerces submitted input to float64. Object data is kept as-is.
type FloatField struct {
	*FieldCore
}

// Float declares a floating point input.
func Float(opts ...Option) *Template {
	return newTemplate(KindFloat, func(core *FieldCore, _ *config) (Field, error) {
		return &FloatField{FieldCore: core}, nil
	}, opts)
}

// ProcessFormdata parses the first submitted value.
func (f *FloatField) ProcessFormdata(raw []string) error {
	if len(raw) == 0 {
		return nil
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(raw[0]), 64)
	if err != nil {
		f.data = nil
		return coercionError(f.Gettext("Not a valid float value."))
	}
	f.data = n
	return nil
}

// Value prefers the submitted text so invalid input is echoed back.
func (f *FloatField) Value() string {
	if len(f.rawData) > 0 {
		return f.rawData[0]
	}
	if f.data != nil {
		return fmt.Sprint(f.data)
	}
	return ""
}

// DefaultFalseValues are the submitted values a boolean field reads as false.
var DefaultFalseValues = []string{"false", ""}

// BooleanField is a checkbox: any submitted value outside FalseValues is
// true, and a submission without the key is false.
type BooleanField struct {
	*FieldCore
	FalseValues []string
}

// Boolean declares a checkbox.
func Boolean(opts ...Option) *Template {
	return newTemplate(KindBoolean, func(core *FieldCore, cfg *config) (Field, error) {
		falseValues := DefaultFalseValues
		if cfg.falseValuesSet {
			falseValues = cfg.falseValues
		}
		return &BooleanField{FieldCore: core, FalseValues: append([]string(nil), falseValues...)}, nil
	}, opts)
}

// ProcessData stores the truthiness of value.
func (f *BooleanField) ProcessData(value any) error {
	if IsUnset(value) {
		value = nil
	}
	f.data = Truthy(value)
	return nil
}

// ProcessFormdata reads the first submitted value.
func (f *BooleanField) ProcessFormdata(raw []string) error {
	if len(raw) == 0 {
		f.data = false
		return nil
	}
	for _, candidate := range f.FalseValues {
		if raw[0] == candidate {
			f.data = false
			return nil
		}
	}
	f.data = true
	return nil
}

// Value is the checkbox value attribute.
func (f *BooleanField) Value() string {
	if len(f.rawData) > 0 {
		return f.rawData[0]
	}
	return "y"
}
