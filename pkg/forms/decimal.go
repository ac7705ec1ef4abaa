package forms

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// Rounding selects how decimals are quantized for display.
type Rounding int

const (
	// RoundHalfEven rounds to the nearest neighbour, ties to even.
	RoundHalfEven Rounding = iota
	// RoundHalfUp rounds ties away from zero.
	RoundHalfUp
	// RoundUp rounds away from zero.
	RoundUp
	// RoundDown truncates towards zero.
	RoundDown
	// RoundCeiling rounds towards positive infinity.
	RoundCeiling
	// RoundFloor rounds towards negative infinity.
	RoundFloor
)

func (r Rounding) apply(d decimal.Decimal, places int32) decimal.Decimal {
	switch r {
	case RoundHalfUp:
		return d.Round(places)
	case RoundUp:
		return d.RoundUp(places)
	case RoundDown:
		return d.RoundDown(places)
	case RoundCeiling:
		return d.RoundCeil(places)
	case RoundFloor:
		return d.RoundFloor(places)
	default:
		return d.RoundBank(places)
	}
}

// DecimalField holds a decimal.Decimal parsed from input.
type DecimalField struct {
	*FieldCore
	// Places is the display precision; nil renders the value unquantized.
	Places    *int
	Rounding  Rounding
	UseLocale bool
	// NumberFormat is passed to the NumberLocalizer when UseLocale is set.
	NumberFormat string
}

func decimalBuilder(core *FieldCore, cfg *config) (Field, error) {
	if cfg.useLocale && (cfg.placesSet || cfg.roundingSet) {
		return nil, ErrLocaleConflict
	}
	if cfg.useLocale && (core.meta == nil || core.meta.Numbers == nil) {
		return nil, ErrMissingLocalizer
	}
	field := &DecimalField{
		FieldCore:    core,
		Rounding:     cfg.rounding,
		UseLocale:    cfg.useLocale,
		NumberFormat: cfg.numberFormat,
	}
	if !cfg.noQuantize {
		places := 2
		if cfg.placesSet {
			places = cfg.places
		}
		field.Places = &places
	}
	return field, nil
}

// Decimal declares a decimal input.
func Decimal(opts ...Option) *Template { return newTemplate(KindDecimal, decimalBuilder, opts) }

// DecimalRange declares a decimal range slider.
func DecimalRange(opts ...Option) *Template {
	return newTemplate(KindDecimalRange, decimalBuilder, opts)
}

// ProcessFormdata parses the first submitted value, through the form's
// NumberLocalizer when UseLocale is set.
func (f *DecimalField) ProcessFormdata(raw []string) error {
	if len(raw) == 0 {
		return nil
	}
	var (
		value decimal.Decimal
		err   error
	)
	if f.UseLocale {
		value, err = f.meta.Numbers.ParseDecimal(raw[0], f.meta.Locale())
	} else {
		value, err = decimal.NewFromString(strings.TrimSpace(raw[0]))
	}
	if err != nil {
		f.data = nil
		return coercionError(f.Gettext("Not a valid decimal value."))
	}
	f.data = value
	return nil
}

// Value renders the submitted text, or the quantized or localized data.
func (f *DecimalField) Value() string {
	if len(f.rawData) > 0 {
		return f.rawData[0]
	}
	if f.data == nil {
		return ""
	}
	d, ok := toDecimal(f.data)
	if !ok {
		return fmt.Sprint(f.data)
	}
	if f.UseLocale {
		return f.meta.Numbers.FormatDecimal(d, f.NumberFormat, f.meta.Locale())
	}
	if f.Places == nil {
		return fmt.Sprint(f.data)
	}
	places := int32(*f.Places)
	return f.Rounding.apply(d, places).StringFixed(places)
}

// toDecimal converts object data that did not come from ProcessFormdata.
func toDecimal(v any) (decimal.Decimal, bool) {
	if d, ok := asDecimal(v); ok {
		return d, true
	}
	switch value := v.(type) {
	case float32:
		return decimal.NewFromFloat32(value), true
	case float64:
		return decimal.NewFromFloat(value), true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(value))
		return d, err == nil
	}
	n, err := cast.ToInt64E(v)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return decimal.NewFromInt(n), true
}

func asDecimal(v any) (decimal.Decimal, bool) {
	switch value := v.(type) {
	case decimal.Decimal:
		return value, true
	case *decimal.Decimal:
		if value == nil {
			return decimal.Decimal{}, false
		}
		return *value, true
	default:
		return decimal.Decimal{}, false
	}
}
