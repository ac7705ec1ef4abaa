package render

// RenderOptions describe per-request data that renderers can use to customise
// their output without mutating the bound form.
type RenderOptions struct {
	// Action is the form action URL. Empty keeps the current URL.
	Action string
	// Method overrides the default POST. Renderers translate verbs browsers
	// cannot submit (PATCH/PUT/DELETE) into POST plus a hidden _method input.
	Method string
	// Errors adds server-side messages keyed by wire name, for example the
	// Fields of a MapErrorPayload result. They are shown after the field's
	// own errors.
	Errors map[string][]string
	// FormErrors adds form-level messages shown above the fields.
	FormErrors []string
	// Hidden fields are emitted after the visible fields in name order.
	Hidden []HiddenField
	// Subset restricts the top-level fields that are rendered.
	Subset FieldSubset
	// Submit labels the submit button. Empty omits the button.
	Submit string
}
