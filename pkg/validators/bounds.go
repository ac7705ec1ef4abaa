package validators

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"github.com/goliatone/go-formbind/pkg/forms"
)

// Unbounded disables one side of a Length check.
const Unbounded = -1

// LengthValidator bounds the character count of string data.
type LengthValidator struct {
	settings
	Min int
	Max int
}

// Length requires between min and max characters. Pass Unbounded for
// either side to leave it open. It panics when both sides are open or when
// max is lower than min.
func Length(min, max int, opts ...Option) *LengthValidator {
	if min != Unbounded && max != Unbounded && max < min {
		panic(fmt.Sprintf("validators: length max %d is lower than min %d", max, min))
	}
	if min == Unbounded && max == Unbounded {
		panic("validators: length needs a min or a max bound")
	}
	return &LengthValidator{settings: apply(opts), Min: min, Max: max}
}

// Validate implements forms.Validator.
func (v *LengthValidator) Validate(_ *forms.Form, field forms.Field) error {
	length := 0
	if s, ok := field.Data().(string); ok {
		length = utf8.RuneCountInString(s)
	}
	if length >= v.Min && (v.Max == Unbounded || length <= v.Max) {
		return nil
	}
	if v.message != "" {
		return forms.Invalid(v.message)
	}

	core := field.Core()
	switch {
	case v.Max == Unbounded:
		return forms.Invalidf(core.Ngettext(
			"Field must be at least %d character long.",
			"Field must be at least %d characters long.", v.Min), v.Min)
	case v.Min == Unbounded:
		return forms.Invalidf(core.Ngettext(
			"Field cannot be longer than %d character.",
			"Field cannot be longer than %d characters.", v.Max), v.Max)
	case v.Min == v.Max:
		return forms.Invalidf(core.Ngettext(
			"Field must be exactly %d character long.",
			"Field must be exactly %d characters long.", v.Max), v.Max)
	default:
		return forms.Invalidf(core.Gettext("Field must be between %d and %d characters long."), v.Min, v.Max)
	}
}

// FieldFlags implements forms.FlagProvider.
func (v *LengthValidator) FieldFlags() map[string]any {
	flags := map[string]any{}
	if v.Min != Unbounded {
		flags["minlength"] = v.Min
	}
	if v.Max != Unbounded {
		flags["maxlength"] = v.Max
	}
	return flags
}

// RangeValidator bounds numeric data. Comparisons use decimal arithmetic so
// ints, floats and decimals compare exactly.
type RangeValidator struct {
	settings
	Min any
	Max any

	min, max *decimal.Decimal
}

// NumberRange requires data between min and max, inclusive. A nil bound is
// open. Bounds may be any integer, float, decimal or numeric string; anything
// else panics.
func NumberRange(min, max any, opts ...Option) *RangeValidator {
	v := &RangeValidator{settings: apply(opts), Min: min, Max: max}
	if min != nil {
		d, ok := toDecimal(min)
		if !ok {
			panic(fmt.Sprintf("validators: number range min %v is not a number", min))
		}
		v.min = &d
	}
	if max != nil {
		d, ok := toDecimal(max)
		if !ok {
			panic(fmt.Sprintf("validators: number range max %v is not a number", max))
		}
		v.max = &d
	}
	return v
}

// Validate implements forms.Validator.
func (v *RangeValidator) Validate(_ *forms.Form, field forms.Field) error {
	data := field.Data()
	if data != nil {
		if value, ok := toDecimal(data); ok {
			if (v.min == nil || !value.LessThan(*v.min)) && (v.max == nil || !value.GreaterThan(*v.max)) {
				return nil
			}
		}
	}
	if v.message != "" {
		return forms.Invalid(v.message)
	}

	core := field.Core()
	switch {
	case v.max == nil:
		return forms.Invalidf(core.Gettext("Number must be at least %s."), fmt.Sprint(v.Min))
	case v.min == nil:
		return forms.Invalidf(core.Gettext("Number must be at most %s."), fmt.Sprint(v.Max))
	default:
		return forms.Invalidf(core.Gettext("Number must be between %s and %s."), fmt.Sprint(v.Min), fmt.Sprint(v.Max))
	}
}

// FieldFlags implements forms.FlagProvider.
func (v *RangeValidator) FieldFlags() map[string]any {
	flags := map[string]any{}
	if v.Min != nil {
		flags["min"] = v.Min
	}
	if v.Max != nil {
		flags["max"] = v.Max
	}
	return flags
}

func toDecimal(value any) (decimal.Decimal, bool) {
	switch n := value.(type) {
	case decimal.Decimal:
		return n, true
	case *decimal.Decimal:
		if n == nil {
			return decimal.Decimal{}, false
		}
		return *n, true
	case float32:
		return fromFloat(float64(n))
	case float64:
		return fromFloat(n)
	case string:
		d, err := decimal.NewFromString(n)
		return d, err == nil
	case bool:
		return decimal.Decimal{}, false
	}
	i, err := cast.ToInt64E(value)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return decimal.NewFromInt(i), true
}

func fromFloat(f float64) (decimal.Decimal, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Decimal{}, false
	}
	return decimal.NewFromFloat(f), true
}
