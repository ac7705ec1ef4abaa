package forms_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/shopspring/decimal"

	"github.com/goliatone/go-formbind/pkg/forms"
)

func bindOne(t *testing.T, tpl *forms.Template, opts ...forms.FormOption) (*forms.Form, forms.Field) {
	t.Helper()
	schema, err := forms.NewSchema("single", forms.Declare("value", tpl))
	if err != nil {
		t.Fatalf("new schema: %v", err)
	}
	form, err := schema.New(opts...)
	if err != nil {
		t.Fatalf("new form: %v", err)
	}
	return form, form.MustField("value")
}

func submit(values ...string) forms.FormOption {
	sub := forms.Values{}
	for i := 0; i+1 < len(values); i += 2 {
		sub.Add(values[i], values[i+1])
	}
	return forms.WithSubmission(sub)
}

func TestNumericFields_UnparseableInputRecordsTypeMessage(t *testing.T) {
	cases := []struct {
		name    string
		tpl     *forms.Template
		message string
	}{
		{name: "integer", tpl: forms.Integer(), message: "Not a valid integer value."},
		{name: "integer range", tpl: forms.IntegerRange(), message: "Not a valid integer value."},
		{name: "float", tpl: forms.Float(), message: "Not a valid float value."},
		{name: "decimal", tpl: forms.Decimal(), message: "Not a valid decimal value."},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			form, field := bindOne(t, tc.tpl, submit("value", "twelve"))
			ok, err := form.Validate(nil)
			if err != nil {
				t.Fatalf("validate: %v", err)
			}
			if ok {
				t.Fatalf("expected validation failure")
			}
			if field.Data() != nil {
				t.Fatalf("expected nil data, got %#v", field.Data())
			}
			if diff := cmp.Diff([]string{tc.message}, field.Errors()); diff != "" {
				t.Fatalf("errors mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNumericFields_ParseValidInput(t *testing.T) {
	_, integer := bindOne(t, forms.Integer(), submit("value", " 42 "))
	if diff := cmp.Diff(any(42), integer.Data()); diff != "" {
		t.Fatalf("integer mismatch (-want +got):\n%s", diff)
	}

	_, float := bindOne(t, forms.Float(), submit("value", "2.5"))
	if diff := cmp.Diff(any(2.5), float.Data()); diff != "" {
		t.Fatalf("float mismatch (-want +got):\n%s", diff)
	}

	_, dec := bindOne(t, forms.Decimal(), submit("value", "10.125"))
	got, ok := dec.Data().(decimal.Decimal)
	if !ok || !got.Equal(decimal.RequireFromString("10.125")) {
		t.Fatalf("expected decimal 10.125, got %#v", dec.Data())
	}
}

func TestIntegerField_ObjectDataIsCoerced(t *testing.T) {
	_, field := bindOne(t, forms.Integer(), forms.WithData(map[string]any{"value": int64(7)}))
	if diff := cmp.Diff(any(7), field.Data()); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
	if got := forms.ValueOf(field); got != "7" {
		t.Fatalf("expected value 7, got %q", got)
	}
}

func TestIntegerField_ValueEchoesSubmittedText(t *testing.T) {
	_, field := bindOne(t, forms.Integer(), submit("value", "abc"))
	if got := forms.ValueOf(field); got != "abc" {
		t.Fatalf("expected submitted text to be echoed, got %q", got)
	}
}

func TestBooleanField_FalseValues(t *testing.T) {
	cases := []struct {
		name string
		opts []forms.FormOption
		tpl  *forms.Template
		want bool
	}{
		{name: "literal false", tpl: forms.Boolean(), opts: []forms.FormOption{submit("value", "false")}, want: false},
		{name: "empty string", tpl: forms.Boolean(), opts: []forms.FormOption{submit("value", "")}, want: false},
		{name: "any other value", tpl: forms.Boolean(), opts: []forms.FormOption{submit("value", "y")}, want: true},
		{name: "zero is true by default", tpl: forms.Boolean(), opts: []forms.FormOption{submit("value", "0")}, want: true},
		{name: "absent key", tpl: forms.Boolean(), opts: []forms.FormOption{submit("other", "1")}, want: false},
		{name: "empty submission", tpl: forms.Boolean(), opts: []forms.FormOption{forms.WithSubmission(forms.Values{})}, want: false},
		{name: "custom false values", tpl: forms.Boolean(forms.WithFalseValues("off", "0")), opts: []forms.FormOption{submit("value", "0")}, want: false},
		{
			name: "absent key overrides object data",
			tpl:  forms.Boolean(),
			opts: []forms.FormOption{forms.WithData(map[string]any{"value": true}), submit("other", "1")},
			want: false,
		},
		{
			name: "object data without submission",
			tpl:  forms.Boolean(),
			opts: []forms.FormOption{forms.WithData(map[string]any{"value": true})},
			want: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, field := bindOne(t, tc.tpl, tc.opts...)
			if diff := cmp.Diff(any(tc.want), field.Data()); diff != "" {
				t.Fatalf("data mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStringField_FiltersAndDefaults(t *testing.T) {
	trim := func(value any) (any, error) {
		s, _ := value.(string)
		return strings.TrimSpace(s), nil
	}
	_, field := bindOne(t, forms.String(forms.WithFilters(trim)), submit("value", "  hi  "))
	if diff := cmp.Diff(any("hi"), field.Data()); diff != "" {
		t.Fatalf("filtered data mismatch (-want +got):\n%s", diff)
	}

	_, field = bindOne(t, forms.String(forms.WithDefault("fallback")))
	if diff := cmp.Diff(any("fallback"), field.Data()); diff != "" {
		t.Fatalf("default mismatch (-want +got):\n%s", diff)
	}

	calls := 0
	producer := forms.String(forms.WithDefaultFunc(func() any {
		calls++
		return "produced"
	}))
	_, field = bindOne(t, producer)
	if field.Data() != "produced" || calls != 1 {
		t.Fatalf("expected producer to run once, data=%#v calls=%d", field.Data(), calls)
	}
}

func TestFilterErrorIsRecordedAndStopsLaterFilters(t *testing.T) {
	later := false
	failing := func(any) (any, error) { return nil, errors.New("filter failed") }
	record := func(value any) (any, error) {
		later = true
		return value, nil
	}
	form, field := bindOne(t, forms.String(forms.WithFilters(failing, record)), submit("value", "x"))
	if later {
		t.Fatalf("expected the filter chain to stop at the first error")
	}
	if _, err := form.Validate(nil); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if diff := cmp.Diff([]string{"filter failed"}, field.Errors()); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestSelectField_ChoiceRoundTrip(t *testing.T) {
	choices := forms.Pairs("a", "A", "b", "B")

	form, field := bindOne(t, forms.Select(forms.WithChoices(choices...)), submit("value", "b"))
	ok, err := form.Validate(nil)
	if err != nil || !ok {
		t.Fatalf("expected valid choice, ok=%v err=%v errors=%v", ok, err, field.Errors())
	}
	if diff := cmp.Diff(any("b"), field.Data()); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}

	form, field = bindOne(t, forms.Select(forms.WithChoices(choices...)), submit("value", "c"))
	ok, err = form.Validate(nil)
	if err != nil || ok {
		t.Fatalf("expected invalid choice, ok=%v err=%v", ok, err)
	}
	if diff := cmp.Diff([]string{"Not a valid choice."}, field.Errors()); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestSelectField_CoerceAndOptions(t *testing.T) {
	tpl := forms.Select(
		forms.WithChoices(forms.Choice{Value: 1, Label: "One"}, forms.Choice{Value: 2, Label: "Two"}),
		forms.WithCoerce(forms.CoerceInt),
	)
	form, field := bindOne(t, tpl, submit("value", "2"))
	if ok, err := form.Validate(nil); err != nil || !ok {
		t.Fatalf("expected valid, ok=%v err=%v", ok, err)
	}
	selectField, ok := field.(*forms.SelectField)
	if !ok {
		t.Fatalf("expected *forms.SelectField, got %T", field)
	}
	want := []forms.ChoiceOption{
		{ID: "value-0", Value: "1", Label: "One"},
		{ID: "value-1", Value: "2", Label: "Two", Selected: true},
	}
	if diff := cmp.Diff(want, selectField.Options()); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
}

func TestSelectField_CoercionFailure(t *testing.T) {
	tpl := forms.Select(forms.WithChoices(forms.Choice{Value: 1, Label: "One"}), forms.WithCoerce(forms.CoerceInt))
	form, field := bindOne(t, tpl, submit("value", "one"), forms.WithData(map[string]any{"value": 1}))
	if got := field.Data(); got != nil {
		t.Fatalf("expected failed coercion to clear data, got %#v", got)
	}
	if _, err := form.Validate(nil); err != nil {
		t.Fatalf("validate: %v", err)
	}
	want := []string{"Invalid Choice: could not coerce.", "Not a valid choice."}
	if diff := cmp.Diff(want, field.Errors()); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestSelectField_NilChoicesIsAConfigurationError(t *testing.T) {
	form, _ := bindOne(t, forms.Select(), submit("value", "a"))
	_, err := form.Validate(nil)
	if !errors.Is(err, forms.ErrChoicesNil) {
		t.Fatalf("expected ErrChoicesNil, got %v", err)
	}

	form, _ = bindOne(t, forms.Select(forms.WithChoices()), submit("value", "a"))
	ok, err := form.Validate(nil)
	if err != nil || ok {
		t.Fatalf("expected an empty choice list to reject input, ok=%v err=%v", ok, err)
	}
}

func TestSelectField_WithoutChoiceValidation(t *testing.T) {
	tpl := forms.Select(forms.WithChoices(forms.Choices("a")...), forms.WithoutChoiceValidation())
	form, _ := bindOne(t, tpl, submit("value", "z"))
	if ok, err := form.Validate(nil); err != nil || !ok {
		t.Fatalf("expected unchecked choice to pass, ok=%v err=%v", ok, err)
	}
}

func TestSelectMultipleField_InvalidChoicesArePluralised(t *testing.T) {
	choices := forms.Choices("a", "b")

	form, field := bindOne(t, forms.SelectMultiple(forms.WithChoices(choices...)),
		submit("value", "a", "value", "x", "value", "y", "value", "x"))
	if _, err := form.Validate(nil); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if diff := cmp.Diff([]string{"'x', 'y' are not valid choices for this field."}, field.Errors()); diff != "" {
		t.Fatalf("plural mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(any([]any{"a", "x", "y", "x"}), field.Data()); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}

	form, field = bindOne(t, forms.SelectMultiple(forms.WithChoices(choices...)), submit("value", "b", "value", "q"))
	if _, err := form.Validate(nil); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if diff := cmp.Diff([]string{"'q' is not a valid choice for this field."}, field.Errors()); diff != "" {
		t.Fatalf("singular mismatch (-want +got):\n%s", diff)
	}
}

func TestSelectMultipleField_ObjectData(t *testing.T) {
	tpl := forms.SelectMultiple(forms.WithChoices(forms.Choices("1", "2", "3")...), forms.WithCoerce(forms.CoerceInt))
	form, field := bindOne(t, tpl, forms.WithData(map[string]any{"value": []string{"1", "3"}}))
	if diff := cmp.Diff(any([]any{1, 3}), field.Data()); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
	if ok, err := form.Validate(nil); err != nil || !ok {
		t.Fatalf("expected valid, ok=%v err=%v errors=%v", ok, err, field.Errors())
	}
	if got := forms.ValueOf(field); got != "1,3" {
		t.Fatalf("expected value 1,3, got %q", got)
	}
}

func TestDecimalField_Quantize(t *testing.T) {
	cases := []struct {
		name string
		tpl  *forms.Template
		data string
		want string
	}{
		{name: "default two places", tpl: forms.Decimal(), data: "2.5", want: "2.50"},
		{name: "half even", tpl: forms.Decimal(forms.WithPlaces(0)), data: "2.5", want: "2"},
		{name: "half up", tpl: forms.Decimal(forms.WithPlaces(0), forms.WithRounding(forms.RoundHalfUp)), data: "2.5", want: "3"},
		{name: "floor", tpl: forms.Decimal(forms.WithPlaces(1), forms.WithRounding(forms.RoundFloor)), data: "-1.25", want: "-1.3"},
		{name: "unquantized", tpl: forms.Decimal(forms.WithoutQuantize()), data: "1.23456", want: "1.23456"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, field := bindOne(t, tc.tpl, forms.WithData(map[string]any{"value": decimal.RequireFromString(tc.data)}))
			if got := forms.ValueOf(field); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

type recordingNumbers struct {
	formatted []string
}

func (r *recordingNumbers) ParseDecimal(value, _ string) (decimal.Decimal, error) {
	return decimal.NewFromString(value)
}

func (r *recordingNumbers) FormatDecimal(value decimal.Decimal, format, locale string) string {
	r.formatted = append(r.formatted, value.String())
	return locale + ":" + format + ":" + value.String()
}

func TestDecimalField_LocalizesObjectData(t *testing.T) {
	cases := []struct {
		name string
		data any
		want string
	}{
		{name: "decimal", data: decimal.RequireFromString("1234.5"), want: "de:#,##0.###:1234.5"},
		{name: "float", data: 1234.567, want: "de:#,##0.###:1234.567"},
		{name: "integer", data: 42, want: "de:#,##0.###:42"},
		{name: "numeric string", data: " 7.25 ", want: "de:#,##0.###:7.25"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			numbers := &recordingNumbers{}
			_, field := bindOne(t, forms.Decimal(forms.WithLocale("#,##0.###")),
				forms.WithNumberLocalizer(numbers),
				forms.WithLocales("de"),
				forms.WithData(map[string]any{"value": tc.data}))
			if got := forms.ValueOf(field); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
			if len(numbers.formatted) != 1 {
				t.Fatalf("expected one localizer call, got %v", numbers.formatted)
			}
		})
	}
}

func TestDecimalField_QuantizesFloatData(t *testing.T) {
	_, field := bindOne(t, forms.Decimal(forms.WithPlaces(1), forms.WithRounding(forms.RoundHalfUp)),
		forms.WithData(map[string]any{"value": 2.25}))
	if got := forms.ValueOf(field); got != "2.3" {
		t.Fatalf("expected %q, got %q", "2.3", got)
	}
}

func TestDecimalField_LocaleConfiguration(t *testing.T) {
	schema := forms.MustSchema(forms.NewSchema("money",
		forms.Declare("amount", forms.Decimal(forms.WithLocale(""), forms.WithPlaces(2))),
	))
	if _, err := schema.New(); !errors.Is(err, forms.ErrLocaleConflict) {
		t.Fatalf("expected ErrLocaleConflict, got %v", err)
	}

	schema = forms.MustSchema(forms.NewSchema("money",
		forms.Declare("amount", forms.Decimal(forms.WithLocale(""))),
	))
	if _, err := schema.New(); !errors.Is(err, forms.ErrMissingLocalizer) {
		t.Fatalf("expected ErrMissingLocalizer, got %v", err)
	}
}

func TestDateTimeFields(t *testing.T) {
	_, field := bindOne(t, forms.Date(), submit("value", "2024-03-05"))
	want := time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)
	if diff := cmp.Diff(any(want), field.Data()); diff != "" {
		t.Fatalf("date mismatch (-want +got):\n%s", diff)
	}

	_, field = bindOne(t, forms.DateTime(), submit("value", "2024-03-05", "value", "10:30:00"))
	want = time.Date(2024, time.March, 5, 10, 30, 0, 0, time.UTC)
	if diff := cmp.Diff(any(want), field.Data()); diff != "" {
		t.Fatalf("datetime mismatch (-want +got):\n%s", diff)
	}

	form, field := bindOne(t, forms.Date(), submit("value", "05/03/2024"))
	if _, err := form.Validate(nil); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if diff := cmp.Diff([]string{"Not a valid date value."}, field.Errors()); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}

	_, field = bindOne(t, forms.Date(forms.WithFormat("02/01/2006")),
		forms.WithData(map[string]any{"value": time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)}))
	if got := forms.ValueOf(field); got != "05/03/2024" {
		t.Fatalf("expected custom layout, got %q", got)
	}
}

func TestFieldIdentity(t *testing.T) {
	schema := forms.MustSchema(forms.NewSchema("profile",
		forms.Declare("first_name", forms.String()),
		forms.Declare("email", forms.Email(forms.WithName("e-mail"), forms.WithLabel("E-mail address"))),
		forms.Declare("nick", forms.String(forms.WithID("nickname"))),
	))
	form, err := schema.New(forms.WithPrefix("user"), submit("user-e-mail", "a@b.c"))
	if err != nil {
		t.Fatalf("new form: %v", err)
	}

	first := form.MustField("first_name").Core()
	if first.Name() != "user-first_name" || first.ShortName() != "first_name" || first.ID() != "user-first_name" {
		t.Fatalf("unexpected identity: name=%q short=%q id=%q", first.Name(), first.ShortName(), first.ID())
	}
	if first.Label().Text != "First Name" {
		t.Fatalf("expected default label, got %q", first.Label().Text)
	}

	email := form.MustField("email")
	if email.Core().Name() != "user-e-mail" || email.Data() != "a@b.c" {
		t.Fatalf("expected wire name override, name=%q data=%#v", email.Core().Name(), email.Data())
	}
	if email.Core().Label().Text != "E-mail address" {
		t.Fatalf("expected explicit label, got %q", email.Core().Label().Text)
	}
	if got := form.MustField("nick").Core().ID(); got != "nickname" {
		t.Fatalf("expected id override, got %q", got)
	}
}

func TestFlagsFromValidators(t *testing.T) {
	_, field := bindOne(t, forms.String(forms.WithValidators(requiredFlag{})))
	if !field.Core().Flags().Has("required") {
		t.Fatalf("expected required flag")
	}
	if field.Core().Flags().Has("optional") {
		t.Fatalf("expected missing flags to read false")
	}
}

type requiredFlag struct{}

func (requiredFlag) Validate(*forms.Form, forms.Field) error { return nil }
func (requiredFlag) FieldFlags() map[string]any              { return map[string]any{"required": true} }

type recordingRenderer struct {
	field forms.Field
	kw    map[string]any
}

func (r *recordingRenderer) RenderField(field forms.Field, kw map[string]any) (string, error) {
	r.field = field
	r.kw = kw
	return "<input>", nil
}

func TestRenderField(t *testing.T) {
	_, field := bindOne(t, forms.String())
	if _, err := forms.RenderField(field, nil); !errors.Is(err, forms.ErrNoRenderer) {
		t.Fatalf("expected ErrNoRenderer, got %v", err)
	}

	renderer := &recordingRenderer{}
	_, field = bindOne(t, forms.String(forms.WithRenderKw(map[string]any{"placeholder": "Name", "class": "a"})),
		forms.WithRenderer(renderer))
	out, err := forms.RenderField(field, map[string]any{"class_": "b"})
	if err != nil || out != "<input>" {
		t.Fatalf("unexpected render result %q err=%v", out, err)
	}
	want := map[string]any{"placeholder": "Name", "class": "b"}
	if diff := cmp.Diff(want, renderer.kw); diff != "" {
		t.Fatalf("render kw mismatch (-want +got):\n%s", diff)
	}
}

func TestTruthy(t *testing.T) {
	cases := []struct {
		value any
		want  bool
	}{
		{nil, false},
		{"", false},
		{"x", true},
		{0, false},
		{3, true},
		{0.0, false},
		{[]string{}, false},
		{[]string{"a"}, true},
		{map[string]any{}, false},
		{decimal.Zero, false},
		{decimal.NewFromInt(1), true},
		{false, false},
		{struct{}{}, true},
	}
	for _, tc := range cases {
		if got := forms.Truthy(tc.value); got != tc.want {
			t.Errorf("Truthy(%#v) = %v, want %v", tc.value, got, tc.want)
		}
	}
}

func TestValidFieldHasNoErrors(t *testing.T) {
	form, field := bindOne(t, forms.String(), submit("value", "x"))
	ok, err := form.Validate(nil)
	if err != nil || !ok {
		t.Fatalf("expected valid form, ok=%v err=%v", ok, err)
	}
	if diff := cmp.Diff([]string(nil), field.Errors(), cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}
