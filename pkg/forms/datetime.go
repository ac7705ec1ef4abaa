package forms

import (
	"strings"
	"time"
)

// Default layouts of the date and time fields.
const (
	LayoutDateTime      = "2006-01-02 15:04:05"
	LayoutDateTimeLocal = "2006-01-02T15:04"
	LayoutDate          = "2006-01-02"
	LayoutTime          = "15:04"
	LayoutMonth         = "2006-01"
)

// DateTimeField parses submitted values, joined by spaces, with a Go time
// layout. Date, Time and Month fields are DateTimeFields with different
// layouts and messages.
type DateTimeField struct {
	*FieldCore
	Layout  string
	message string
}

func dateTimeBuilder(layout, message string) builder {
	return func(core *FieldCore, cfg *config) (Field, error) {
		effective := layout
		if cfg.format != "" {
			effective = cfg.format
		}
		return &DateTimeField{FieldCore: core, Layout: effective, message: message}, nil
	}
}

// DateTime declares a date and time input.
func DateTime(opts ...Option) *Template {
	return newTemplate(KindDateTime, dateTimeBuilder(LayoutDateTime, "Not a valid datetime value."), opts)
}

// DateTimeLocal declares a browser datetime-local input.
func DateTimeLocal(opts ...Option) *Template {
	return newTemplate(KindDateTimeLocal, dateTimeBuilder(LayoutDateTimeLocal, "Not a valid datetime value."), opts)
}

// Date declares a date input.
func Date(opts ...Option) *Template {
	return newTemplate(KindDate, dateTimeBuilder(LayoutDate, "Not a valid date value."), opts)
}

// Time declares a time of day input.
func Time(opts ...Option) *Template {
	return newTemplate(KindTime, dateTimeBuilder(LayoutTime, "Not a valid time value."), opts)
}

// Month declares a month input; the parsed date is the first of the month.
func Month(opts ...Option) *Template {
	return newTemplate(KindMonth, dateTimeBuilder(LayoutMonth, "Not a valid date value."), opts)
}

// ProcessFormdata parses the submitted values joined by a space.
func (f *DateTimeField) ProcessFormdata(raw []string) error {
	if len(raw) == 0 {
		return nil
	}
	parsed, err := time.Parse(f.Layout, strings.Join(raw, " "))
	if err != nil {
		f.data = nil
		return coercionError(f.Gettext(f.message))
	}
	f.data = parsed
	return nil
}

// Value renders the submitted text or formats data with Layout.
func (f *DateTimeField) Value() string {
	if len(f.rawData) > 0 {
		return strings.Join(f.rawData, " ")
	}
	switch value := f.data.(type) {
	case time.Time:
		if value.IsZero() {
			return ""
		}
		return value.Format(f.Layout)
	case *time.Time:
		if value == nil || value.IsZero() {
			return ""
		}
		return value.Format(f.Layout)
	}
	return ""
}
