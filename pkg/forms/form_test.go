package forms_test

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/goliatone/go-formbind/pkg/forms"
)

type required struct{}

func (required) Validate(_ *forms.Form, field forms.Field) error {
	if !forms.Truthy(field.Data()) {
		field.Core().ClearErrors()
		return forms.Stop("This field is required.")
	}
	return nil
}

func (required) FieldFlags() map[string]any { return map[string]any{"required": true} }

func TestValidationChain_StopHaltsRemainingValidators(t *testing.T) {
	ran := false
	stop := forms.ValidatorFunc(func(*forms.Form, forms.Field) error { return forms.Stop("stop") })
	never := forms.ValidatorFunc(func(*forms.Form, forms.Field) error {
		ran = true
		return forms.Invalid("never runs")
	})

	form, field := bindOne(t, forms.String(forms.WithValidators(stop, never)), submit("value", "x"))
	ok, err := form.Validate(nil)
	if err != nil || ok {
		t.Fatalf("expected failure, ok=%v err=%v", ok, err)
	}
	if ran {
		t.Fatalf("validator after a stop signal must not run")
	}
	if diff := cmp.Diff([]string{"stop"}, field.Errors()); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestValidationChain_RecordsAndContinues(t *testing.T) {
	first := forms.ValidatorFunc(func(*forms.Form, forms.Field) error { return forms.Invalid("first") })
	second := forms.ValidatorFunc(func(*forms.Form, forms.Field) error { return forms.Invalidf("second %d", 2) })
	silentStop := forms.ValidatorFunc(func(*forms.Form, forms.Field) error { return forms.Stop("") })
	third := forms.ValidatorFunc(func(*forms.Form, forms.Field) error { return forms.Invalid("third") })

	form, field := bindOne(t, forms.String(forms.WithValidators(first, second, silentStop, third)))
	if _, err := form.Validate(nil); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if diff := cmp.Diff([]string{"first", "second 2"}, field.Errors()); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestValidationChain_OtherErrorsAreFatal(t *testing.T) {
	boom := errors.New("database unavailable")
	failing := forms.ValidatorFunc(func(*forms.Form, forms.Field) error { return boom })

	form, _ := bindOne(t, forms.String(forms.WithValidators(failing)))
	if _, err := form.Validate(nil); !errors.Is(err, boom) {
		t.Fatalf("expected fatal error to be returned, got %v", err)
	}
}

func TestValidationChain_RejectsNilValidators(t *testing.T) {
	var nilFunc forms.ValidatorFunc
	if err := forms.String(forms.WithValidators(nilFunc)).Err(); !errors.Is(err, forms.ErrInvalidValidator) {
		t.Fatalf("expected ErrInvalidValidator at template creation, got %v", err)
	}
	if _, err := forms.NewSchema("bad", forms.Declare("a", forms.String(forms.WithValidators(nil)))); !errors.Is(err, forms.ErrInvalidValidator) {
		t.Fatalf("expected ErrInvalidValidator from schema, got %v", err)
	}

	form, _ := bindOne(t, forms.String())
	if _, err := form.Validate(map[string][]forms.Validator{"value": {nil}}); !errors.Is(err, forms.ErrInvalidValidator) {
		t.Fatalf("expected ErrInvalidValidator at validate time, got %v", err)
	}
}

func TestPostValidateRunsAfterHalt(t *testing.T) {
	stop := forms.ValidatorFunc(func(*forms.Form, forms.Field) error { return forms.Stop("halted") })
	schema := forms.MustSchema(forms.NewSchema("post", forms.Declare("value", forms.String(forms.WithValidators(stop)))))
	form, err := schema.New()
	if err != nil {
		t.Fatalf("new form: %v", err)
	}
	field := form.MustField("value")
	ok, err := forms.ValidateField(&postField{Field: field}, form)
	if err != nil || ok {
		t.Fatalf("expected failure, ok=%v err=%v", ok, err)
	}
	if diff := cmp.Diff([]string{"halted", "post saw stop"}, field.Errors()); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

type postField struct {
	forms.Field
}

func (p *postField) PostValidate(_ *forms.Form, stopped bool) error {
	if stopped {
		return forms.Invalid("post saw stop")
	}
	return nil
}

func TestForm_ValidateDoesNotShortCircuit(t *testing.T) {
	schema := forms.MustSchema(forms.NewSchema("signup",
		forms.Declare("name", forms.String(forms.WithValidators(required{}))),
		forms.Declare("age", forms.Integer()),
		forms.Declare("nick", forms.String()),
	))
	form, err := schema.New(submit("age", "old"))
	if err != nil {
		t.Fatalf("new form: %v", err)
	}
	ok, err := form.Validate(nil)
	if err != nil || ok {
		t.Fatalf("expected failure, ok=%v err=%v", ok, err)
	}
	want := map[string][]string{
		"name": {"This field is required."},
		"age":  {"Not a valid integer value."},
	}
	if diff := cmp.Diff(want, form.Errors()); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"This field is required.", "Not a valid integer value."}, form.ErrorList()); diff != "" {
		t.Fatalf("error list mismatch (-want +got):\n%s", diff)
	}
}

func TestForm_ExtraValidatorsByName(t *testing.T) {
	schema := forms.MustSchema(forms.NewSchema("extra", forms.Declare("name", forms.String())))
	form, err := schema.New(submit("name", ""))
	if err != nil {
		t.Fatalf("new form: %v", err)
	}
	ok, err := form.Validate(map[string][]forms.Validator{"name": {required{}}})
	if err != nil || ok {
		t.Fatalf("expected extra validator to fail, ok=%v err=%v", ok, err)
	}

	if _, err := form.Validate(map[string][]forms.Validator{"missing": {required{}}}); !errors.Is(err, forms.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestForm_FormValidators(t *testing.T) {
	base := forms.MustSchema(forms.NewSchema("password",
		forms.Declare("password", forms.Password()),
		forms.Declare("confirm", forms.Password()),
	))
	schema := base.WithFormValidators(forms.FormValidatorFunc(func(form *forms.Form) error {
		if form.MustField("password").Data() != form.MustField("confirm").Data() {
			return forms.Invalid("Passwords must match.")
		}
		return nil
	}))

	form, err := schema.New(submit("password", "a", "confirm", "b"))
	if err != nil {
		t.Fatalf("new form: %v", err)
	}
	ok, err := form.Validate(nil)
	if err != nil || ok {
		t.Fatalf("expected form level failure, ok=%v err=%v", ok, err)
	}
	if diff := cmp.Diff([]string{"Passwords must match."}, form.FormErrors()); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string][]string{}, form.Errors(), cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}

	form, err = base.New(submit("password", "a", "confirm", "b"))
	if err != nil {
		t.Fatalf("new form: %v", err)
	}
	if ok, _ := form.Validate(nil); !ok {
		t.Fatalf("expected base schema to be unaffected by derived form validators")
	}
}

func TestSchema_OrderFollowsTemplateCreation(t *testing.T) {
	first := forms.String()
	second := forms.Integer()
	third := forms.Boolean()

	schema, err := forms.NewSchema("ordered",
		forms.Declare("c", third),
		forms.Declare("a", first),
		forms.Declare("b", second),
	)
	if err != nil {
		t.Fatalf("new schema: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, schema.Names()); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}

	shared := forms.String()
	schema, err = forms.NewSchema("ties", forms.Declare("z", shared), forms.Declare("y", shared))
	if err != nil {
		t.Fatalf("new schema: %v", err)
	}
	if diff := cmp.Diff([]string{"y", "z"}, schema.Names()); diff != "" {
		t.Fatalf("tie order mismatch (-want +got):\n%s", diff)
	}
}

func TestSchema_ExtendKeepsAncestorPositions(t *testing.T) {
	base := forms.MustSchema(forms.NewSchema("base",
		forms.Declare("a", forms.String()),
		forms.Declare("b", forms.String()),
		forms.Declare("c", forms.String()),
	))
	derived, err := base.Extend("derived",
		forms.Declare("d", forms.String()),
		forms.Declare("b", forms.Integer()),
	)
	if err != nil {
		t.Fatalf("extend: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b", "c", "d"}, derived.Names()); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	tpl, _ := derived.Template("b")
	if tpl.Kind() != forms.KindInteger {
		t.Fatalf("expected override to win, got kind %q", tpl.Kind())
	}
	baseTpl, _ := base.Template("b")
	if baseTpl.Kind() != forms.KindString {
		t.Fatalf("expected ancestor to be untouched, got kind %q", baseTpl.Kind())
	}
}

func TestSchema_RejectsDuplicatesAndMissingTemplates(t *testing.T) {
	if _, err := forms.NewSchema("dup", forms.Declare("a", forms.String()), forms.Declare("a", forms.String())); !errors.Is(err, forms.ErrDuplicateField) {
		t.Fatalf("expected ErrDuplicateField, got %v", err)
	}
	if _, err := forms.NewSchema("nil", forms.Declare("a", nil)); !errors.Is(err, forms.ErrMissingTemplate) {
		t.Fatalf("expected ErrMissingTemplate, got %v", err)
	}
}

func TestForm_ObjectAttributesWinOverData(t *testing.T) {
	type account struct {
		Email string `form:"email_address"`
		Age   int
	}
	schema := forms.MustSchema(forms.NewSchema("account",
		forms.Declare("email_address", forms.Email()),
		forms.Declare("age", forms.Integer()),
		forms.Declare("note", forms.String()),
	))
	form, err := schema.New(
		forms.WithObject(&account{Email: "a@example.com", Age: 30}),
		forms.WithData(map[string]any{"email_address": "ignored@example.com", "note": "from data"}),
	)
	if err != nil {
		t.Fatalf("new form: %v", err)
	}
	want := map[string]any{"email_address": "a@example.com", "age": 30, "note": "from data"}
	if diff := cmp.Diff(want, form.Data()); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
}

func TestForm_PopulateObjectOverwrites(t *testing.T) {
	type account struct {
		Email string
		Age   int
	}
	schema := forms.MustSchema(forms.NewSchema("account",
		forms.Declare("email", forms.Email()),
		forms.Declare("age", forms.Integer()),
	))
	form, err := schema.New(submit("email", "new@example.com", "age", "41"))
	if err != nil {
		t.Fatalf("new form: %v", err)
	}
	target := &account{Email: "old@example.com", Age: 1}
	if err := form.PopulateObject(target); err != nil {
		t.Fatalf("populate: %v", err)
	}
	if diff := cmp.Diff(&account{Email: "new@example.com", Age: 41}, target); diff != "" {
		t.Fatalf("target mismatch (-want +got):\n%s", diff)
	}

	values := map[string]any{}
	if err := form.PopulateObject(values); err != nil {
		t.Fatalf("populate map: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"email": "new@example.com", "age": 41}, values); diff != "" {
		t.Fatalf("map mismatch (-want +got):\n%s", diff)
	}
}

func TestForm_PrefixNormalisation(t *testing.T) {
	schema := forms.MustSchema(forms.NewSchema("p", forms.Declare("name", forms.String())))
	cases := map[string]string{
		"":      "name",
		"user":  "user-name",
		"user-": "user-name",
		"user_": "user_name",
		"user.": "user.name",
		"user:": "user:name",
	}
	for prefix, want := range cases {
		form, err := schema.New(forms.WithPrefix(prefix))
		if err != nil {
			t.Fatalf("new form: %v", err)
		}
		if got := form.MustField("name").Core().Name(); got != want {
			t.Errorf("prefix %q: expected %q, got %q", prefix, want, got)
		}
	}
}

func TestForm_FieldFilters(t *testing.T) {
	upper := func(value any) (any, error) {
		s, _ := value.(string)
		return strings.ToUpper(s), nil
	}
	schema := forms.MustSchema(forms.NewSchema("f", forms.Declare("code", forms.String())))
	form, err := schema.New(submit("code", "abc"), forms.WithFieldFilters("code", upper))
	if err != nil {
		t.Fatalf("new form: %v", err)
	}
	if got := form.MustField("code").Data(); got != "ABC" {
		t.Fatalf("expected filtered data, got %#v", got)
	}

	if _, err := schema.New(forms.WithFieldFilters("nope", upper)); !errors.Is(err, forms.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestForm_NilValuesIsNoSubmission(t *testing.T) {
	schema := forms.MustSchema(forms.NewSchema("n", forms.Declare("flag", forms.Boolean())))
	var values forms.Values
	form, err := schema.New(forms.WithSubmission(values), forms.WithData(map[string]any{"flag": true}))
	if err != nil {
		t.Fatalf("new form: %v", err)
	}
	if got := form.MustField("flag").Data(); got != true {
		t.Fatalf("expected object data to survive a nil submission, got %#v", got)
	}
	if raw := form.MustField("flag").Core().RawData(); raw != nil {
		t.Fatalf("expected nil raw data, got %#v", raw)
	}
}

func TestSubmission_FromRequest(t *testing.T) {
	req := httptest.NewRequest("POST", "/signup?source=ad", strings.NewReader("name=Ann&tags-0=a&tags-1=b&tags-0=c"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	values, err := forms.FromRequest(req)
	if err != nil {
		t.Fatalf("from request: %v", err)
	}
	want := forms.Values{
		"name":   {"Ann"},
		"tags-0": {"a", "c"},
		"tags-1": {"b"},
		"source": {"ad"},
	}
	if diff := cmp.Diff(want, values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"name", "source", "tags-0", "tags-1"}, values.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}

	parsed, err := forms.ParseQuery("a=1&a=2")
	if err != nil {
		t.Fatalf("parse query: %v", err)
	}
	got := parsed.GetAll("a")
	got[0] = "mutated"
	if diff := cmp.Diff([]string{"1", "2"}, parsed.GetAll("a")); diff != "" {
		t.Fatalf("GetAll must return a copy (-want +got):\n%s", diff)
	}
}
