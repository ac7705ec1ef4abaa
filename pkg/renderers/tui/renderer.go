package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-formbind/pkg/forms"
	"github.com/goliatone/go-formbind/pkg/render"
	"github.com/goliatone/go-formbind/pkg/widgets"
)

const defaultMaxAttempts = 3

// Renderer implements render.Renderer for terminal-driven sessions. It
// prompts for every field, submits the answers to a fresh copy of the form
// and repeats the prompts of invalid fields until validation passes.
type Renderer struct {
	driver            PromptDriver
	outputFormat      OutputFormat
	submitTransformer SubmitTransformer
	theme             Theme
	widgets           *widgets.Registry
	maxAttempts       int
	logger            *zap.Logger
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs a TUI renderer with defaults (survey driver, JSON output).
func New(options ...Option) (*Renderer, error) {
	r := &Renderer{
		outputFormat: OutputFormatJSON,
		maxAttempts:  defaultMaxAttempts,
	}

	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}

	if r.driver == nil {
		r.driver = NewSurveyDriver()
	}
	if r.widgets == nil {
		r.widgets = widgets.NewRegistry()
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	switch r.outputFormat {
	case OutputFormatJSON, OutputFormatFormURLEncoded, OutputFormatPrettyText:
	default:
		return nil, fmt.Errorf("tui: unknown output format %q", r.outputFormat)
	}

	return r, nil
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return "tui"
}

// ContentType reports the serialization format used by Render.
func (r *Renderer) ContentType() string {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatPrettyText:
		return "text/plain; charset=utf-8"
	default:
		return "application/json"
	}
}

// Render collects answers for form and serializes the validated result in
// the configured output format.
func (r *Renderer) Render(ctx context.Context, form *forms.Form, opts render.RenderOptions) ([]byte, error) {
	bound, values, err := r.Collect(ctx, form, opts)
	if err != nil {
		return nil, err
	}
	return r.serialize(bound, values)
}

// Collect prompts for the fields selected by opts.Subset and returns a new
// form bound to the answers, together with the raw answers. form itself is
// not modified. Fields outside the subset keep their current values.
func (r *Renderer) Collect(ctx context.Context, form *forms.Form, opts render.RenderOptions) (*forms.Form, forms.Values, error) {
	if ctx == nil {
		return nil, nil, errors.New("tui: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if form == nil {
		return nil, nil, errors.New("tui: form is nil")
	}
	if r.driver == nil {
		return nil, nil, errors.New("tui: prompt driver is nil")
	}

	work, err := rebind(form, forms.WithData(form.Data()))
	if err != nil {
		return nil, nil, err
	}

	initial := form.Errors()
	for name, messages := range opts.Errors {
		initial[name] = append(initial[name], messages...)
	}
	state := NewState(initial)
	seedValues(work.Fields(), state)

	for _, message := range append(form.FormErrors(), opts.FormErrors...) {
		if err := r.driver.Info(ctx, r.theme.ErrorPrefix+message); err != nil {
			return nil, nil, err
		}
	}

	fields := render.ApplySubset(work.Fields(), opts.Subset)
	pending := fields
	for attempt := 1; ; attempt++ {
		for _, field := range pending {
			if err := r.promptField(ctx, field, state); err != nil {
				return nil, nil, err
			}
		}

		values := cloneValues(state.Values())
		if r.submitTransformer != nil {
			values, err = r.submitTransformer(values)
			if err != nil {
				return nil, nil, fmt.Errorf("tui: submit transformer: %w", err)
			}
		}

		bound, err := rebind(form, forms.WithSubmission(values))
		if err != nil {
			return nil, nil, err
		}
		ok, err := bound.Validate(nil)
		if err != nil {
			return nil, nil, fmt.Errorf("tui: validate: %w", err)
		}
		r.logger.Debug("prompt round finished",
			zap.Int("attempt", attempt),
			zap.Bool("valid", ok),
		)
		if ok {
			return bound, values, nil
		}
		if attempt >= r.maxAttempts {
			return bound, values, fmt.Errorf("%w: %s", ErrTooManyAttempts, strings.Join(bound.ErrorList(), "; "))
		}

		errs := bound.Errors()
		state.SetErrors(errs)
		for _, message := range bound.FormErrors() {
			if err := r.driver.Info(ctx, r.theme.ErrorPrefix+message); err != nil {
				return nil, nil, err
			}
		}
		pending = invalidFields(fields, errs)
		if len(pending) == 0 {
			pending = fields
		}
	}
}

func rebind(form *forms.Form, opts ...forms.FormOption) (*forms.Form, error) {
	base := []forms.FormOption{
		forms.WithMeta(form.Meta()),
		forms.WithPrefix(form.Prefix()),
	}
	bound, err := form.Schema().New(append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("tui: bind form: %w", err)
	}
	return bound, nil
}

// seedValues records the current value of every leaf so fields that are
// not prompted still reach the submission.
func seedValues(fields []forms.Field, state *State) {
	for _, field := range fields {
		name := field.Core().Name()
		switch f := field.(type) {
		case *forms.FormField:
			seedValues(f.Fields(), state)
		case *forms.FieldList:
			seedValues(f.Entries, state)
		default:
			switch f.Core().Kind() {
			case forms.KindBoolean:
				if forms.Truthy(f.Data()) {
					state.Set(name, forms.ValueOf(f))
				}
			case forms.KindSelectMulti:
				state.Set(name, selectedValues(f)...)
			default:
				if value := forms.ValueOf(f); value != "" {
					state.Set(name, value)
				}
			}
		}
	}
}

// invalidFields returns the top-level fields owning at least one message,
// including messages of nested fields.
func invalidFields(fields []forms.Field, errs map[string][]string) []forms.Field {
	var out []forms.Field
	for _, field := range fields {
		name := field.Core().Name()
		for key := range errs {
			if key == name || strings.HasPrefix(key, name+"-") {
				out = append(out, field)
				break
			}
		}
	}
	return out
}

func (r *Renderer) promptField(ctx context.Context, field forms.Field, state *State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	core := field.Core()
	for _, message := range state.ErrorsFor(core.Name()) {
		if err := r.driver.Info(ctx, r.theme.ErrorPrefix+message); err != nil {
			return err
		}
	}

	switch f := field.(type) {
	case *forms.FormField:
		if err := r.driver.Info(ctx, r.theme.InfoPrefix+core.Label().Text); err != nil {
			return err
		}
		for _, child := range f.Fields() {
			if err := r.promptField(ctx, child, state); err != nil {
				return err
			}
		}
		return nil
	case *forms.FieldList:
		return r.promptList(ctx, f, state)
	}

	widget, _ := r.widgets.Resolve(field)
	switch widget {
	case widgets.WidgetHidden:
		return nil
	case widgets.WidgetCheckbox:
		return r.promptBoolean(ctx, field, state)
	case widgets.WidgetSelect, widgets.WidgetRadioList:
		return r.promptSelect(ctx, field, state)
	case widgets.WidgetSelectMultiple:
		return r.promptMultiSelect(ctx, field, state)
	case widgets.WidgetTextArea:
		return r.promptTextArea(ctx, field, state)
	case widgets.WidgetPassword:
		return r.promptPassword(ctx, field, state)
	default:
		return r.promptInput(ctx, field, state)
	}
}

func (r *Renderer) promptInput(ctx context.Context, field forms.Field, state *State) error {
	core := field.Core()
	current, _ := state.Default(core.Name())
	answer, err := r.driver.Input(ctx, InputConfig{
		Message:   r.message(field),
		Default:   current,
		Help:      core.Description(),
		Validator: requiredValidator(field),
	})
	if err != nil {
		return err
	}
	state.Set(core.Name(), answer)
	return nil
}

func (r *Renderer) promptPassword(ctx context.Context, field forms.Field, state *State) error {
	core := field.Core()
	answer, err := r.driver.Password(ctx, InputConfig{
		Message:   r.message(field),
		Help:      core.Description(),
		Validator: requiredValidator(field),
	})
	if err != nil {
		return err
	}
	state.Set(core.Name(), answer)
	return nil
}

func (r *Renderer) promptTextArea(ctx context.Context, field forms.Field, state *State) error {
	core := field.Core()
	current, _ := state.Default(core.Name())
	answer, err := r.driver.TextArea(ctx, TextAreaConfig{
		Message:   r.message(field),
		Default:   current,
		Help:      core.Description(),
		Validator: requiredValidator(field),
	})
	if err != nil {
		return err
	}
	state.Set(core.Name(), answer)
	return nil
}

func (r *Renderer) promptBoolean(ctx context.Context, field forms.Field, state *State) error {
	core := field.Core()
	_, checked := state.Default(core.Name())
	answer, err := r.driver.Confirm(ctx, ConfirmConfig{
		Message: r.message(field),
		Default: checked,
		Help:    core.Description(),
	})
	if err != nil {
		return err
	}
	if answer {
		state.Set(core.Name(), forms.ValueOf(field))
		return nil
	}
	state.Clear(core.Name())
	return nil
}

type optionLister interface {
	Options() []forms.ChoiceOption
}

func (r *Renderer) promptSelect(ctx context.Context, field forms.Field, state *State) error {
	core := field.Core()
	options := fieldOptions(field)
	if len(options) == 0 {
		return r.driver.Info(ctx, r.theme.InfoPrefix+fmt.Sprintf("%s: no choices available", core.Label().Text))
	}
	current, _ := state.Default(core.Name())
	labels := make([]string, len(options))
	defaultIndex := -1
	for i, option := range options {
		labels[i] = option.Label
		if option.Value == current {
			defaultIndex = i
		}
	}
	idx, err := r.driver.Select(ctx, SelectConfig{
		Message:      r.message(field),
		Options:      labels,
		DefaultIndex: defaultIndex,
		Help:         core.Description(),
	})
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(options) {
		state.Clear(core.Name())
		return nil
	}
	state.Set(core.Name(), options[idx].Value)
	return nil
}

func (r *Renderer) promptMultiSelect(ctx context.Context, field forms.Field, state *State) error {
	core := field.Core()
	options := fieldOptions(field)
	if len(options) == 0 {
		return r.driver.Info(ctx, r.theme.InfoPrefix+fmt.Sprintf("%s: no choices available", core.Label().Text))
	}
	current := make(map[string]struct{})
	for _, value := range state.Values().GetAll(core.Name()) {
		current[value] = struct{}{}
	}
	labels := make([]string, len(options))
	var defaults []int
	for i, option := range options {
		labels[i] = option.Label
		if _, ok := current[option.Value]; ok {
			defaults = append(defaults, i)
		}
	}
	indices, err := r.driver.MultiSelect(ctx, SelectConfig{
		Message:  r.message(field),
		Options:  labels,
		Defaults: defaults,
		Help:     core.Description(),
	})
	if err != nil {
		return err
	}
	values := make([]string, 0, len(indices))
	for _, idx := range indices {
		if idx >= 0 && idx < len(options) {
			values = append(values, options[idx].Value)
		}
	}
	state.Set(core.Name(), values...)
	return nil
}

// promptList prompts every existing entry, then offers to append entries
// until the user declines or MaxEntries is reached.
func (r *Renderer) promptList(ctx context.Context, list *forms.FieldList, state *State) error {
	label := list.Core().Label().Text
	if err := r.driver.Info(ctx, r.theme.InfoPrefix+label); err != nil {
		return err
	}
	for _, entry := range list.Entries {
		if err := r.promptField(ctx, entry, state); err != nil {
			return err
		}
	}
	for list.MaxEntries == 0 || list.Len() < list.MaxEntries {
		more, err := r.driver.Confirm(ctx, ConfirmConfig{
			Message: r.theme.PromptPrefix + fmt.Sprintf(list.Core().Gettext("Add another %s entry?"), label),
		})
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
		entry, err := list.AppendEntry(nil)
		if err != nil {
			return fmt.Errorf("tui: append entry to %q: %w", list.Core().Name(), err)
		}
		if err := r.promptField(ctx, entry, state); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) message(field forms.Field) string {
	core := field.Core()
	label := core.Label().Text
	if label == "" {
		label = core.ShortName()
	}
	if core.Flags().Has("required") {
		label += " *"
	}
	return r.theme.PromptPrefix + label
}

func requiredValidator(field forms.Field) func(string) error {
	core := field.Core()
	if !core.Flags().Has("required") {
		return nil
	}
	message := core.Gettext("This field is required.")
	return func(answer string) error {
		if strings.TrimSpace(answer) == "" {
			return errors.New(message)
		}
		return nil
	}
}

func fieldOptions(field forms.Field) []forms.ChoiceOption {
	lister, ok := field.(optionLister)
	if !ok {
		return nil
	}
	return lister.Options()
}

func selectedValues(field forms.Field) []string {
	var out []string
	for _, option := range fieldOptions(field) {
		if option.Selected {
			out = append(out, option.Value)
		}
	}
	return out
}

func cloneValues(src forms.Values) forms.Values {
	out := make(forms.Values, len(src))
	for key, values := range src {
		out[key] = append([]string(nil), values...)
	}
	return out
}

func (r *Renderer) serialize(form *forms.Form, values forms.Values) ([]byte, error) {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return []byte(url.Values(values).Encode()), nil
	case OutputFormatPrettyText:
		var b strings.Builder
		writePretty(&b, form.Fields(), "")
		return []byte(b.String()), nil
	default:
		payload, err := json.MarshalIndent(form.Data(), "", "  ")
		if err != nil {
			return nil, fmt.Errorf("tui: encode json: %w", err)
		}
		return payload, nil
	}
}

func writePretty(b *strings.Builder, fields []forms.Field, indent string) {
	for _, field := range fields {
		core := field.Core()
		label := core.Label().Text
		switch f := field.(type) {
		case *forms.FormField:
			fmt.Fprintf(b, "%s%s:\n", indent, label)
			writePretty(b, f.Fields(), indent+"  ")
			continue
		case *forms.FieldList:
			fmt.Fprintf(b, "%s%s:\n", indent, label)
			writePretty(b, f.Entries, indent+"  ")
			continue
		}
		value := forms.ValueOf(field)
		switch core.Kind() {
		case forms.KindPassword:
			if value != "" {
				value = "********"
			}
		case forms.KindBoolean:
			value = "no"
			if forms.Truthy(field.Data()) {
				value = "yes"
			}
		case forms.KindSelectMulti:
			value = strings.Join(selectedValues(field), ", ")
		}
		fmt.Fprintf(b, "%s%s: %s\n", indent, label, value)
	}
}
