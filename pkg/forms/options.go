package forms

// Option configures a field template.
type Option func(*config)

// Filter transforms a field's data after coercion. A returned error is
// recorded as a process error and stops the remaining filters.
type Filter func(value any) (any, error)

type config struct {
	label        *string
	validators   []Validator
	filters      []Filter
	description  string
	id           string
	name         string
	defaultValue any
	defaultFunc  func() any
	renderKw     map[string]any
	widget       string

	choices        []Choice
	choicesSet     bool
	choicesFunc    func() []Choice
	coerce         CoerceFunc
	skipChoiceTest bool

	places       int
	placesSet    bool
	noQuantize   bool
	rounding     Rounding
	roundingSet  bool
	useLocale    bool
	numberFormat string

	falseValues    []string
	falseValuesSet bool

	format string

	separator  string
	minEntries int
	maxEntries int
}

func defaultConfig() config {
	return config{
		separator: "-",
	}
}

func (c config) clone() config {
	out := c
	out.validators = append([]Validator(nil), c.validators...)
	out.filters = append([]Filter(nil), c.filters...)
	out.choices = append([]Choice(nil), c.choices...)
	out.falseValues = append([]string(nil), c.falseValues...)
	if c.renderKw != nil {
		out.renderKw = make(map[string]any, len(c.renderKw))
		for key, value := range c.renderKw {
			out.renderKw[key] = value
		}
	}
	return out
}

// WithLabel sets the label text. Without it the label is the title-cased
// field name.
func WithLabel(label string) Option {
	return func(c *config) {
		c.label = &label
	}
}

// WithValidators appends validators run, in order, by Validate.
func WithValidators(validators ...Validator) Option {
	return func(c *config) {
		c.validators = append(c.validators, validators...)
	}
}

// WithFilters appends filters run, in order, by Process.
func WithFilters(filters ...Filter) Option {
	return func(c *config) {
		c.filters = append(c.filters, filters...)
	}
}

// WithDescription sets help text for the field.
func WithDescription(description string) Option {
	return func(c *config) {
		c.description = description
	}
}

// WithID overrides the field id, which otherwise defaults to the wire name.
func WithID(id string) Option {
	return func(c *config) {
		c.id = id
	}
}

// WithName overrides the wire name; the field is still addressed by its
// declared name on the form.
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// WithDefault sets the value used when no object data is supplied.
func WithDefault(value any) Option {
	return func(c *config) {
		c.defaultValue = value
		c.defaultFunc = nil
	}
}

// WithDefaultFunc sets a producer called for every process without object
// data.
func WithDefaultFunc(fn func() any) Option {
	return func(c *config) {
		c.defaultFunc = fn
		c.defaultValue = nil
	}
}

// WithRenderKw sets default keywords passed to the renderer.
func WithRenderKw(kw map[string]any) Option {
	return func(c *config) {
		if c.renderKw == nil {
			c.renderKw = make(map[string]any, len(kw))
		}
		for key, value := range kw {
			c.renderKw[key] = value
		}
	}
}

// WithWidget overrides the widget a renderer picks for the field.
func WithWidget(widget string) Option {
	return func(c *config) {
		c.widget = widget
	}
}

// WithChoices sets the choices of a select or radio field. Passing no
// choices sets an empty, non-nil list.
func WithChoices(choices ...Choice) Option {
	return func(c *config) {
		c.choices = append([]Choice{}, choices...)
		c.choicesSet = true
		c.choicesFunc = nil
	}
}

// WithChoicesFunc sets a producer evaluated once per bind.
func WithChoicesFunc(fn func() []Choice) Option {
	return func(c *config) {
		c.choicesFunc = fn
		c.choicesSet = fn != nil
		c.choices = nil
	}
}

// WithCoerce sets the conversion applied to submitted and object values of a
// select field. The default converts to string.
func WithCoerce(fn CoerceFunc) Option {
	return func(c *config) {
		c.coerce = fn
	}
}

// WithoutChoiceValidation disables the membership check of select fields.
func WithoutChoiceValidation() Option {
	return func(c *config) {
		c.skipChoiceTest = true
	}
}

// WithPlaces sets the number of decimal places used when rendering a decimal
// field. The default is 2.
func WithPlaces(places int) Option {
	return func(c *config) {
		c.places = places
		c.placesSet = true
		c.noQuantize = false
	}
}

// WithoutQuantize renders decimals as-is.
func WithoutQuantize() Option {
	return func(c *config) {
		c.noQuantize = true
		c.placesSet = true
	}
}

// WithRounding sets the rounding mode used when quantizing decimals.
func WithRounding(mode Rounding) Option {
	return func(c *config) {
		c.rounding = mode
		c.roundingSet = true
	}
}

// WithLocale enables locale-aware decimal parsing and formatting using the
// form's NumberLocalizer and primary locale.
func WithLocale(format string) Option {
	return func(c *config) {
		c.useLocale = true
		c.numberFormat = format
	}
}

// WithFalseValues replaces the submitted values treated as false by a
// boolean field.
func WithFalseValues(values ...string) Option {
	return func(c *config) {
		c.falseValues = append([]string{}, values...)
		c.falseValuesSet = true
	}
}

// WithFormat sets the Go time layout of a date or time field.
func WithFormat(layout string) Option {
	return func(c *config) {
		c.format = layout
	}
}

// WithSeparator sets the string joining a nested form field's name and its
// inner field names.
func WithSeparator(separator string) Option {
	return func(c *config) {
		c.separator = separator
	}
}

// WithMinEntries pads a field list with blank entries up to n.
func WithMinEntries(n int) Option {
	return func(c *config) {
		c.minEntries = n
	}
}

// WithMaxEntries caps the entries a field list accepts from a submission.
// Zero means unbounded.
func WithMaxEntries(n int) Option {
	return func(c *config) {
		c.maxEntries = n
	}
}
