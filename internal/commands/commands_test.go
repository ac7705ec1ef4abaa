package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-formbind/pkg/renderers/tui"
)

const signupForms = `
forms:
  signup:
    fields:
      - name: email
        kind: email
        label: Email address
        validators: [data_required, email]
      - name: age
        kind: integer
        validators: [input_required, {number_range: {min: 18}}]
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, driver tui.PromptDriver, args ...string) (string, string, error) {
	t.Helper()
	root := RootCmd()
	root.AddCommand(ValidateCmd(), RenderCmd(), newPromptCmd(driver), ListCmd())

	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestValidate_ValidSubmission(t *testing.T) {
	schema := writeFile(t, t.TempDir(), "forms.yaml", signupForms)

	out, _, err := execute(t, nil, "validate", "--schema", schema, "--form", "signup",
		"--value", "email=ada@example.com", "--value", "age=36")
	require.NoError(t, err)

	var report map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, true, report["valid"])
	assert.Equal(t, map[string]any{"email": "ada@example.com", "age": float64(36)}, report["data"])
	assert.NotContains(t, report, "errors")
}

func TestValidate_InvalidSubmissionFails(t *testing.T) {
	dir := t.TempDir()
	schema := writeFile(t, dir, "forms.yaml", signupForms)
	submission := writeFile(t, dir, "signup.json", `{"email": "not-an-email", "age": 12}`)

	out, _, err := execute(t, nil, "validate", "-s", schema, "-f", "signup", "--submission", submission)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidSubmission))

	var report validationReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.False(t, report.Valid)
	assert.Contains(t, report.Errors, "email")
	assert.Contains(t, report.Errors, "age")
}

func TestValidate_ArgumentErrors(t *testing.T) {
	schema := writeFile(t, t.TempDir(), "forms.yaml", signupForms)

	_, _, err := execute(t, nil, "validate", "--form", "signup")
	assert.ErrorContains(t, err, "--schema is required")

	_, _, err = execute(t, nil, "validate", "--schema", schema)
	assert.ErrorContains(t, err, "--form is required")

	_, _, err = execute(t, nil, "validate", "--schema", schema, "--form", "signup", "--value", "broken")
	assert.ErrorContains(t, err, `invalid --value "broken"`)

	_, _, err = execute(t, nil, "validate", "--schema", schema, "--form", "login")
	assert.ErrorContains(t, err, "available: signup")
}

func TestRender_UsesConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	schema := writeFile(t, dir, "forms.yaml", signupForms)
	config := writeFile(t, dir, "formbind.yaml", "schema: "+schema+"\nform: signup\naction: /signup\n")
	t.Setenv("FORMBIND_SUBMIT", "Join")

	out, _, err := execute(t, nil, "render", "--config", config, "--value", "email=ada@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, `action="/signup"`)
	assert.Contains(t, out, `method="post"`)
	assert.Contains(t, out, `value="ada@example.com"`)
	assert.Contains(t, out, `<button type="submit">Join</button>`)
	assert.NotContains(t, out, `<ul class="formbind-errors`)
}

func TestRender_ValidateWritesOutputFile(t *testing.T) {
	dir := t.TempDir()
	schema := writeFile(t, dir, "forms.yaml", signupForms)
	target := filepath.Join(dir, "signup.html")

	_, stderr, err := execute(t, nil, "render", "-s", schema, "-f", "signup", "--validate", "-o", target)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Form written to "+target)

	html, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(html), "<li>This field is required.</li>")

	_, _, err = execute(t, nil, "render", "-s", schema, "-f", "signup", "--renderer", "pdf")
	assert.Error(t, err)
}

func TestRender_BackendErrorsAndSubset(t *testing.T) {
	dir := t.TempDir()
	schema := writeFile(t, dir, "forms.yaml", signupForms)
	payload := writeFile(t, dir, "errors.json", `{"data.email": "already registered", "non_field_errors": ["try later"]}`)

	out, _, err := execute(t, nil, "render", "-s", schema, "-f", "signup", "--errors", payload, "--fields", "email")
	require.NoError(t, err)
	assert.Contains(t, out, "<li>already registered</li>")
	assert.Contains(t, out, "<li>try later</li>")
	assert.Contains(t, out, `name="email"`)
	assert.NotContains(t, out, `name="age"`)
}

func TestPrompt_CollectsAnswers(t *testing.T) {
	schema := writeFile(t, t.TempDir(), "forms.yaml", signupForms)
	driver := &scriptedDriver{inputs: []string{"ada@example.com", "36"}}

	out, _, err := execute(t, driver, "prompt", "--schema", schema, "--form", "signup")
	require.NoError(t, err)
	assert.JSONEq(t, `{"email": "ada@example.com", "age": 36}`, out)
	assert.Equal(t, []string{"Email address *", "Age *"}, driver.prompts)
}

func TestPrompt_GivesUpAfterMaxAttempts(t *testing.T) {
	schema := writeFile(t, t.TempDir(), "forms.yaml", signupForms)
	driver := &scriptedDriver{inputs: []string{"nope", "3", "nope", "4"}}

	_, _, err := execute(t, driver, "prompt", "--schema", schema, "--form", "signup", "--max-attempts", "2", "--format", "form")
	assert.ErrorIs(t, err, tui.ErrTooManyAttempts)
}

func TestList_PrintsForms(t *testing.T) {
	out, stderr, err := execute(t, nil, "list", "--schema", "../../pkg/openapi/testdata/petstore.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "createPet")
	assert.Contains(t, out, "patch:/owners/{id}")
	assert.Contains(t, stderr, "2 form(s) in openapi document")
}

func TestParseSubmission(t *testing.T) {
	values, err := parseSubmission([]byte(`{"tags": ["a", 2], "ok": true, "skip": null}`), true)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "2"}, values.GetAll("tags"))
	assert.Equal(t, []string{"true"}, values.GetAll("ok"))
	assert.False(t, values.Has("skip"))

	values, err = parseSubmission([]byte("name=Ada&tags=a&tags=b\n"), false)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, values.GetAll("tags"))

	_, err = parseSubmission([]byte(`{"nested": {"a": 1}}`), true)
	assert.Error(t, err)
}

type scriptedDriver struct {
	inputs  []string
	prompts []string
	pos     int
}

func (d *scriptedDriver) Input(_ context.Context, cfg tui.InputConfig) (string, error) {
	if d.pos >= len(d.inputs) {
		return "", tui.ErrAborted
	}
	d.prompts = append(d.prompts, cfg.Message)
	value := d.inputs[d.pos]
	d.pos++
	return value, nil
}

func (d *scriptedDriver) Password(ctx context.Context, cfg tui.InputConfig) (string, error) {
	return d.Input(ctx, cfg)
}

func (d *scriptedDriver) Confirm(context.Context, tui.ConfirmConfig) (bool, error) {
	return false, tui.ErrAborted
}

func (d *scriptedDriver) Select(context.Context, tui.SelectConfig) (int, error) {
	return -1, tui.ErrAborted
}

func (d *scriptedDriver) MultiSelect(context.Context, tui.SelectConfig) ([]int, error) {
	return nil, tui.ErrAborted
}

func (d *scriptedDriver) TextArea(ctx context.Context, cfg tui.TextAreaConfig) (string, error) {
	return "", tui.ErrAborted
}

func (d *scriptedDriver) Info(context.Context, string) error { return nil }
