package tui

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formbind/pkg/forms"
	"github.com/goliatone/go-formbind/pkg/render"
	"github.com/goliatone/go-formbind/pkg/validators"
)

type stubDriver struct {
	inputs       []string
	selectIdx    []int
	multiIdx     [][]int
	confirm      []bool
	textAreas    []string
	passwords    []string
	infoMessages []string
	prompts      []string
	inputPos     int
	selectPos    int
	multiPos     int
	confirmPos   int
	textPos      int
	passPos      int
	abortOnInput bool
}

func (s *stubDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	if s.abortOnInput {
		return "", ErrAborted
	}
	if s.inputPos >= len(s.inputs) {
		return "", errors.New("no input scripted")
	}
	s.prompts = append(s.prompts, cfg.Message)
	val := s.inputs[s.inputPos]
	s.inputPos++
	if cfg.Validator != nil {
		if err := cfg.Validator(val); err != nil {
			return "", err
		}
	}
	return val, nil
}

func (s *stubDriver) Password(_ context.Context, cfg InputConfig) (string, error) {
	if s.passPos >= len(s.passwords) {
		return "", errors.New("no password scripted")
	}
	s.prompts = append(s.prompts, cfg.Message)
	val := s.passwords[s.passPos]
	s.passPos++
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, cfg ConfirmConfig) (bool, error) {
	if s.confirmPos >= len(s.confirm) {
		return false, errors.New("no confirm scripted")
	}
	s.prompts = append(s.prompts, cfg.Message)
	val := s.confirm[s.confirmPos]
	s.confirmPos++
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, cfg SelectConfig) (int, error) {
	if s.selectPos >= len(s.selectIdx) {
		return -1, errors.New("no select scripted")
	}
	s.prompts = append(s.prompts, cfg.Message)
	val := s.selectIdx[s.selectPos]
	s.selectPos++
	return val, nil
}

func (s *stubDriver) MultiSelect(_ context.Context, cfg SelectConfig) ([]int, error) {
	if s.multiPos >= len(s.multiIdx) {
		return nil, errors.New("no multiselect scripted")
	}
	s.prompts = append(s.prompts, cfg.Message)
	val := s.multiIdx[s.multiPos]
	s.multiPos++
	return val, nil
}

func (s *stubDriver) TextArea(_ context.Context, cfg TextAreaConfig) (string, error) {
	if s.textPos >= len(s.textAreas) {
		return "", errors.New("no textarea scripted")
	}
	s.prompts = append(s.prompts, cfg.Message)
	val := s.textAreas[s.textPos]
	s.textPos++
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infoMessages = append(s.infoMessages, msg)
	return nil
}

func newForm(t *testing.T, opts []forms.FormOption, decls ...forms.Decl) *forms.Form {
	t.Helper()
	schema, err := forms.NewSchema("prompt", decls...)
	if err != nil {
		t.Fatalf("new schema: %v", err)
	}
	form, err := schema.New(opts...)
	if err != nil {
		t.Fatalf("new form: %v", err)
	}
	return form
}

func TestRender_StringSelectAndBooleanAsJSON(t *testing.T) {
	driver := &stubDriver{
		inputs:    []string{"Ada"},
		selectIdx: []int{1},
		multiIdx:  [][]int{{0, 2}},
		confirm:   []bool{true},
		textAreas: []string{"likes engines"},
	}
	r, err := New(WithPromptDriver(driver))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	form := newForm(t, nil,
		forms.Declare("name", forms.String(forms.WithValidators(validators.DataRequired()))),
		forms.Declare("role", forms.Select(forms.WithChoices(forms.Choices("admin", "user")...))),
		forms.Declare("langs", forms.SelectMultiple(forms.WithChoices(forms.Choices("go", "c", "lisp")...))),
		forms.Declare("agree", forms.Boolean()),
		forms.Declare("bio", forms.TextArea()),
	)

	out, err := r.Render(context.Background(), form, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	want := map[string]any{
		"name":  "Ada",
		"role":  "user",
		"langs": []any{"go", "lisp"},
		"agree": true,
		"bio":   "likes engines",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
	if driver.prompts[0] != "Name *" {
		t.Fatalf("expected required marker on first prompt, got %q", driver.prompts[0])
	}
}

func TestRender_RepromptsInvalidFields(t *testing.T) {
	driver := &stubDriver{
		inputs: []string{"10", "Ada", "21"},
	}
	r, err := New(WithPromptDriver(driver), WithTheme(Theme{ErrorPrefix: "! "}))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	form := newForm(t, nil,
		forms.Declare("age", forms.Integer(forms.WithValidators(validators.NumberRange(18, nil)))),
		forms.Declare("name", forms.String()),
	)

	bound, values, err := r.Collect(context.Background(), form, render.RenderOptions{})
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if driver.inputPos != 3 {
		t.Fatalf("expected only the invalid field to be prompted again, got %d inputs", driver.inputPos)
	}
	if diff := cmp.Diff([]string{"! Number must be at least 18."}, driver.infoMessages); diff != "" {
		t.Fatalf("info mismatch (-want +got):\n%s", diff)
	}
	if got := bound.MustField("age").Data(); got != 21 {
		t.Fatalf("expected 21, got %#v", got)
	}
	if diff := cmp.Diff(forms.Values{"age": {"21"}, "name": {"Ada"}}, values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_TooManyAttempts(t *testing.T) {
	driver := &stubDriver{inputs: []string{"x"}}
	r, err := New(WithPromptDriver(driver), WithMaxAttempts(1))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	form := newForm(t, nil, forms.Declare("age", forms.Integer()))

	_, err = r.Render(context.Background(), form, render.RenderOptions{})
	if !errors.Is(err, ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts, got %v", err)
	}
	if !strings.Contains(err.Error(), "Not a valid integer value.") {
		t.Fatalf("expected field message in error, got %v", err)
	}
}

func TestRender_ListAppendsEntriesAsFormEncoded(t *testing.T) {
	driver := &stubDriver{
		inputs:  []string{"a", "b"},
		confirm: []bool{true},
	}
	r, err := New(WithPromptDriver(driver), WithOutputFormat(OutputFormatFormURLEncoded))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	form := newForm(t, nil,
		forms.Declare("tags", forms.List(forms.String(), forms.WithMinEntries(1), forms.WithMaxEntries(2))),
	)

	out, err := r.Render(context.Background(), form, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got := string(out); got != "tags-0=a&tags-1=b" {
		t.Fatalf("unexpected payload %q", got)
	}
	if r.ContentType() != "application/x-www-form-urlencoded" {
		t.Fatalf("unexpected content type %q", r.ContentType())
	}
	if got := form.MustField("tags").(*forms.FieldList).Len(); got != 1 {
		t.Fatalf("caller form must not change, got %d entries", got)
	}
}

func TestRender_SubsetKeepsOtherValues(t *testing.T) {
	driver := &stubDriver{inputs: []string{"Ada"}}
	r, err := New(WithPromptDriver(driver), WithOutputFormat(OutputFormatFormURLEncoded))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	form := newForm(t,
		[]forms.FormOption{forms.WithData(map[string]any{"nick": "zed", "token": "t1"})},
		forms.Declare("name", forms.String()),
		forms.Declare("nick", forms.String()),
		forms.Declare("token", forms.Hidden()),
	)

	out, err := r.Render(context.Background(), form, render.RenderOptions{
		Subset: render.FieldSubset{Names: []string{"name"}},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got := string(out); got != "name=Ada&nick=zed&token=t1" {
		t.Fatalf("unexpected payload %q", got)
	}
}

func TestRender_PrettyMasksPasswords(t *testing.T) {
	driver := &stubDriver{
		inputs:    []string{"ada", "Main St"},
		passwords: []string{"hunter2"},
		confirm:   []bool{false},
	}
	r, err := New(WithPromptDriver(driver), WithOutputFormat(OutputFormatPrettyText))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	address := forms.MustSchema(forms.NewSchema("address", forms.Declare("street", forms.String())))
	form := newForm(t, nil,
		forms.Declare("user", forms.String()),
		forms.Declare("secret", forms.Password()),
		forms.Declare("admin", forms.Boolean()),
		forms.Declare("address", forms.Nested(address)),
	)

	out, err := r.Render(context.Background(), form, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := "User: ada\nSecret: ********\nAdmin: no\nAddress:\n  Street: Main St\n"
	if diff := cmp.Diff(want, string(out)); diff != "" {
		t.Fatalf("pretty mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_AbortPropagates(t *testing.T) {
	r, err := New(WithPromptDriver(&stubDriver{abortOnInput: true}))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	form := newForm(t, nil, forms.Declare("name", forms.String()))
	if _, err := r.Render(context.Background(), form, render.RenderOptions{}); !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
}

func TestNew_RejectsUnknownFormat(t *testing.T) {
	if _, err := New(WithPromptDriver(&stubDriver{}), WithOutputFormat("yaml")); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestState(t *testing.T) {
	state := NewState(map[string][]string{"a": {"bad"}})
	state.Set("a", "1")
	if got, ok := state.Default("a"); !ok || got != "1" {
		t.Fatalf("unexpected default %q (%v)", got, ok)
	}
	state.Clear("a")
	if _, ok := state.Default("a"); ok {
		t.Fatalf("expected cleared value")
	}
	if diff := cmp.Diff([]string{"bad"}, state.ErrorsFor("a")); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	state.SetErrors(nil)
	if got := state.ErrorsFor("a"); got != nil {
		t.Fatalf("expected no errors, got %v", got)
	}
}
