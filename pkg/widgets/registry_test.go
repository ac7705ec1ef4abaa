package widgets

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formbind/pkg/forms"
)

func bind(t *testing.T, decls ...forms.Decl) *forms.Form {
	t.Helper()
	schema, err := forms.NewSchema("widgets", decls...)
	if err != nil {
		t.Fatalf("new schema: %v", err)
	}
	form, err := schema.New()
	if err != nil {
		t.Fatalf("new form: %v", err)
	}
	return form
}

func TestResolve_ExplicitWidgetWins(t *testing.T) {
	reg := NewRegistry()
	form := bind(t, forms.Declare("enabled", forms.Boolean(forms.WithWidget("custom-toggle"))))

	if got, ok := reg.Resolve(form.MustField("enabled")); !ok || got != "custom-toggle" {
		t.Fatalf("expected explicit widget to win, got %q (ok=%v)", got, ok)
	}
}

func TestResolve_Builtins(t *testing.T) {
	reg := NewRegistry()

	cases := []struct {
		name   string
		tpl    *forms.Template
		expect string
	}{
		{name: "boolean checkbox", tpl: forms.Boolean(), expect: WidgetCheckbox},
		{name: "string text", tpl: forms.String(), expect: WidgetText},
		{name: "textarea", tpl: forms.TextArea(), expect: WidgetTextArea},
		{name: "password", tpl: forms.Password(), expect: WidgetPassword},
		{name: "integer number", tpl: forms.Integer(), expect: WidgetNumber},
		{name: "decimal range", tpl: forms.DecimalRange(), expect: WidgetRange},
		{name: "date", tpl: forms.Date(), expect: WidgetDate},
		{name: "datetime", tpl: forms.DateTime(), expect: WidgetDateTime},
		{name: "select", tpl: forms.Select(forms.WithChoices(forms.Choices("a")...)), expect: WidgetSelect},
		{name: "select multiple", tpl: forms.SelectMultiple(forms.WithChoices(forms.Choices("a")...)), expect: WidgetSelectMultiple},
		{name: "radio", tpl: forms.Radio(forms.WithChoices(forms.Choices("a")...)), expect: WidgetRadioList},
		{name: "list", tpl: forms.List(forms.String()), expect: WidgetList},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			form := bind(t, forms.Declare("value", tc.tpl))
			got, ok := reg.Resolve(form.MustField("value"))
			if !ok {
				t.Fatalf("expected resolution for %s", tc.name)
			}
			if got != tc.expect {
				t.Fatalf("resolve %s: want %q, got %q", tc.name, tc.expect, got)
			}
		})
	}
}

func TestResolve_PriorityOverride(t *testing.T) {
	reg := NewRegistry()
	reg.Register("toggle", 999, func(field forms.Field) bool {
		return field.Core().Kind() == forms.KindBoolean
	})

	form := bind(t, forms.Declare("enabled", forms.Boolean()))
	got, ok := reg.Resolve(form.MustField("enabled"))
	if !ok || got != "toggle" {
		t.Fatalf("priority matcher should win, got %q (ok=%v)", got, ok)
	}
}

func TestResolve_EmptyRegistry(t *testing.T) {
	reg := &Registry{}
	form := bind(t, forms.Declare("name", forms.String()))
	if got, ok := reg.Resolve(form.MustField("name")); ok {
		t.Fatalf("expected no resolution, got %q", got)
	}
}

func TestAssign_DescendsIntoComposites(t *testing.T) {
	reg := NewRegistry()
	address := forms.MustSchema(forms.NewSchema("address",
		forms.Declare("street", forms.String()),
		forms.Declare("primary", forms.Boolean()),
	))
	form := bind(t,
		forms.Declare("address", forms.Nested(address)),
		forms.Declare("phones", forms.List(forms.Tel(), forms.WithMinEntries(2))),
	)

	want := map[string]string{
		"address":         WidgetSubform,
		"address-street":  WidgetText,
		"address-primary": WidgetCheckbox,
		"phones":          WidgetList,
		"phones-0":        WidgetTel,
		"phones-1":        WidgetTel,
	}
	if diff := cmp.Diff(want, reg.Assign(form)); diff != "" {
		t.Fatalf("assignments mismatch (-want +got):\n%s", diff)
	}
}
