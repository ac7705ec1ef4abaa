package components

import (
	"bytes"
	"fmt"

	"github.com/goliatone/go-formbind/pkg/forms"
	"github.com/goliatone/go-formbind/pkg/widgets"
)

const (
	templatePrefix = "templates/components/"
)

var inputWidgets = []string{
	widgets.WidgetText,
	widgets.WidgetPassword,
	widgets.WidgetHidden,
	widgets.WidgetEmail,
	widgets.WidgetURL,
	widgets.WidgetSearch,
	widgets.WidgetTel,
	widgets.WidgetNumber,
	widgets.WidgetRange,
	widgets.WidgetDate,
	widgets.WidgetDateTime,
	widgets.WidgetTime,
	widgets.WidgetMonth,
}

// NewDefaultRegistry constructs a registry with a component for every
// built-in widget.
func NewDefaultRegistry() *Registry {
	registry := New()

	for _, name := range inputWidgets {
		registry.MustRegister(name, Descriptor{
			Renderer: inputRenderer(name),
		})
	}
	registry.MustRegister(widgets.WidgetCheckbox, Descriptor{
		Renderer: checkboxRenderer,
	})
	registry.MustRegister(widgets.WidgetTextArea, Descriptor{
		Renderer: templateComponentRenderer(templatePrefix+"textarea.tmpl", valuePayload),
	})
	registry.MustRegister(widgets.WidgetSelect, Descriptor{
		Renderer: templateComponentRenderer(templatePrefix+"select.tmpl", optionsPayload(false)),
	})
	registry.MustRegister(widgets.WidgetSelectMultiple, Descriptor{
		Renderer: templateComponentRenderer(templatePrefix+"select.tmpl", optionsPayload(true)),
	})
	registry.MustRegister(widgets.WidgetRadioList, Descriptor{
		Renderer: templateComponentRenderer(templatePrefix+"radio.tmpl", radioPayload),
	})
	registry.MustRegister(widgets.WidgetSubform, Descriptor{
		Renderer: childrenRenderer(templatePrefix+"subform.tmpl", subformChildren),
	})
	registry.MustRegister(widgets.WidgetList, Descriptor{
		Renderer: childrenRenderer(templatePrefix+"list.tmpl", listChildren),
	})

	return registry
}

type payloadFunc func(field forms.Field, data ComponentData) (map[string]any, error)

func templateComponentRenderer(templateName string, payload payloadFunc) Renderer {
	return func(buf *bytes.Buffer, field forms.Field, data ComponentData) error {
		if data.Template == nil {
			return fmt.Errorf("components: template renderer not configured for %q", templateName)
		}
		values, err := payload(field, data)
		if err != nil {
			return err
		}
		rendered, err := data.Template.RenderTemplate(templateName, values)
		if err != nil {
			return fmt.Errorf("components: render template %q: %w", templateName, err)
		}
		buf.WriteString(rendered)
		return nil
	}
}

func inputRenderer(inputType string) Renderer {
	return templateComponentRenderer(templatePrefix+"input.tmpl", func(field forms.Field, data ComponentData) (map[string]any, error) {
		attrs := withDefaults(data.Attrs, map[string]any{"type": inputType})
		if inputType != widgets.WidgetPassword {
			attrs = withDefaults(attrs, map[string]any{"value": forms.ValueOf(field)})
		}
		return map[string]any{"attrs": attrs}, nil
	})
}

var checkboxRenderer = templateComponentRenderer(templatePrefix+"input.tmpl", func(field forms.Field, data ComponentData) (map[string]any, error) {
	attrs := withDefaults(data.Attrs, map[string]any{
		"type":    "checkbox",
		"value":   forms.ValueOf(field),
		"checked": forms.Truthy(field.Data()),
	})
	return map[string]any{"attrs": attrs}, nil
})

func valuePayload(field forms.Field, data ComponentData) (map[string]any, error) {
	return map[string]any{
		"attrs": data.Attrs,
		"value": forms.ValueOf(field),
	}, nil
}

type optionLister interface {
	Options() []forms.ChoiceOption
}

func optionsPayload(multiple bool) payloadFunc {
	return func(field forms.Field, data ComponentData) (map[string]any, error) {
		lister, ok := field.(optionLister)
		if !ok {
			return nil, fmt.Errorf("components: field %q has no options", field.Core().Name())
		}
		options := make([]any, 0)
		for _, option := range lister.Options() {
			options = append(options, map[string]any{
				"id":       option.ID,
				"value":    option.Value,
				"label":    option.Label,
				"selected": option.Selected,
			})
		}
		attrs := data.Attrs
		if multiple {
			attrs = withDefaults(attrs, map[string]any{"multiple": true})
		}
		return map[string]any{
			"attrs":   attrs,
			"name":    field.Core().Name(),
			"options": options,
		}, nil
	}
}

// radioPayload moves the control name onto the individual inputs; the
// wrapping list only keeps the id and presentational attributes.
func radioPayload(field forms.Field, data ComponentData) (map[string]any, error) {
	payload, err := optionsPayload(false)(field, data)
	if err != nil {
		return nil, err
	}
	payload["attrs"] = without(data.Attrs, "name", "required", "value")
	return payload, nil
}

func subformChildren(field forms.Field) []forms.Field {
	if f, ok := field.(*forms.FormField); ok {
		return f.Fields()
	}
	return nil
}

func listChildren(field forms.Field) []forms.Field {
	if f, ok := field.(*forms.FieldList); ok {
		return f.Entries
	}
	return nil
}

func childrenRenderer(templateName string, children func(forms.Field) []forms.Field) Renderer {
	return templateComponentRenderer(templateName, func(field forms.Field, data ComponentData) (map[string]any, error) {
		if data.RenderChild == nil {
			return nil, fmt.Errorf("components: child renderer not configured for %q", field.Core().Name())
		}
		rendered := make([]any, 0)
		for _, child := range children(field) {
			markup, err := data.RenderChild(child)
			if err != nil {
				return nil, err
			}
			rendered = append(rendered, markup)
		}
		return map[string]any{
			"attrs":    without(data.Attrs, "name", "value"),
			"children": rendered,
		}, nil
	})
}

// withDefaults returns a copy of attrs with defaults filled in for missing
// keys.
func withDefaults(attrs map[string]any, defaults map[string]any) map[string]any {
	out := make(map[string]any, len(attrs)+len(defaults))
	for key, value := range defaults {
		out[key] = value
	}
	for key, value := range attrs {
		out[key] = value
	}
	return out
}

func without(attrs map[string]any, keys ...string) map[string]any {
	out := make(map[string]any, len(attrs))
	for key, value := range attrs {
		out[key] = value
	}
	for _, key := range keys {
		delete(out, key)
	}
	return out
}
