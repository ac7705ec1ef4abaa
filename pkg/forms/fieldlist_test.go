package forms_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/goliatone/go-formbind/pkg/forms"
)

func listForm(t *testing.T, tpl *forms.Template, opts ...forms.FormOption) (*forms.Form, *forms.FieldList) {
	t.Helper()
	schema, err := forms.NewSchema("lists", forms.Declare("x", tpl))
	if err != nil {
		t.Fatalf("new schema: %v", err)
	}
	form, err := schema.New(opts...)
	if err != nil {
		t.Fatalf("new form: %v", err)
	}
	list, ok := form.MustField("x").(*forms.FieldList)
	if !ok {
		t.Fatalf("expected *forms.FieldList, got %T", form.MustField("x"))
	}
	return form, list
}

func entryNames(list *forms.FieldList) []string {
	out := make([]string, 0, len(list.Entries))
	for _, entry := range list.Entries {
		out = append(out, entry.Core().Name())
	}
	return out
}

func TestFieldList_PreservesSubmittedIndices(t *testing.T) {
	_, list := listForm(t, forms.List(forms.String()),
		submit("x-5", "five", "x-0", "zero", "x-2", "two", "x-2", "again"))

	if diff := cmp.Diff([]string{"x-0", "x-2", "x-5"}, entryNames(list)); diff != "" {
		t.Fatalf("entry names mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(any([]any{"zero", "two", "five"}), list.Data()); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
	if list.LastIndex != 5 {
		t.Fatalf("expected last index 5, got %d", list.LastIndex)
	}
	if got := list.Entries[1].Core().ID(); got != "x-2" {
		t.Fatalf("expected entry id x-2, got %q", got)
	}
}

func TestFieldList_IgnoresKeysWithoutIndex(t *testing.T) {
	_, list := listForm(t, forms.List(forms.String()),
		submit("x-a", "no", "x-", "no", "xy-1", "no", "x-+3", "no", "x-1", "yes"))
	if diff := cmp.Diff([]string{"x-1"}, entryNames(list)); diff != "" {
		t.Fatalf("entry names mismatch (-want +got):\n%s", diff)
	}
}

func TestFieldList_PadsToMinEntries(t *testing.T) {
	_, list := listForm(t, forms.List(forms.String(), forms.WithMinEntries(3)))

	if diff := cmp.Diff([]string{"x-0", "x-1", "x-2"}, entryNames(list)); diff != "" {
		t.Fatalf("entry names mismatch (-want +got):\n%s", diff)
	}
	for idx, entry := range list.Entries {
		if entry.Data() != nil {
			t.Fatalf("entry %d: expected blank data, got %#v", idx, entry.Data())
		}
	}
}

func TestFieldList_TruncatesToMaxEntries(t *testing.T) {
	_, list := listForm(t, forms.List(forms.String(), forms.WithMaxEntries(3)),
		submit("x-4", "d", "x-0", "a", "x-9", "e", "x-2", "b", "x-7", "c"))

	if diff := cmp.Diff([]string{"x-0", "x-2", "x-4"}, entryNames(list)); diff != "" {
		t.Fatalf("entry names mismatch (-want +got):\n%s", diff)
	}
}

func TestFieldList_ObjectDataWithoutSubmission(t *testing.T) {
	_, list := listForm(t, forms.List(forms.Integer(), forms.WithMinEntries(3)),
		forms.WithData(map[string]any{"x": []int{10, 20}}))

	if diff := cmp.Diff([]string{"x-0", "x-1", "x-2"}, entryNames(list)); diff != "" {
		t.Fatalf("entry names mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(any([]any{10, 20, nil}), list.Data()); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
}

func TestFieldList_EmptySubmissionUsesObjectData(t *testing.T) {
	_, list := listForm(t, forms.List(forms.String()),
		forms.WithSubmission(forms.Values{}),
		forms.WithData(map[string]any{"x": []string{"a", "b"}}))

	if diff := cmp.Diff(any([]any{"a", "b"}), list.Data()); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
}

func TestFieldList_SubmissionPairsWithObjectData(t *testing.T) {
	_, list := listForm(t, forms.List(forms.Integer()),
		submit("x-3", "1", "x-8", "2"),
		forms.WithData(map[string]any{"x": []int{100}}))

	want := []any{1, 2}
	if diff := cmp.Diff(any(want), list.Data()); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(any(100), list.Entries[0].Core().ObjectData()); diff != "" {
		t.Fatalf("object data mismatch (-want +got):\n%s", diff)
	}
	if got := list.Entries[1].Core().ObjectData(); got != nil {
		t.Fatalf("expected exhausted object data to fall back to the default, got %#v", got)
	}
}

func TestFieldList_ValidateKeepsEntryErrorsApart(t *testing.T) {
	tooFew := forms.ValidatorFunc(func(_ *forms.Form, field forms.Field) error {
		if list := field.(*forms.FieldList); list.Len() < 3 {
			return forms.Invalid("Need three entries.")
		}
		return nil
	})

	form, list := listForm(t, forms.List(forms.Integer(), forms.WithValidators(tooFew)),
		submit("x-0", "1", "x-1", "2"))
	ok, err := form.Validate(nil)
	if err != nil || ok {
		t.Fatalf("expected list level failure, ok=%v err=%v", ok, err)
	}
	if list.EntryErrors() != nil {
		t.Fatalf("expected entry errors to be dropped when every entry passed, got %#v", list.EntryErrors())
	}
	if diff := cmp.Diff([]string{"Need three entries."}, list.Errors()); diff != "" {
		t.Fatalf("list errors mismatch (-want +got):\n%s", diff)
	}

	form, list = listForm(t, forms.List(forms.Integer()), submit("x-0", "1", "x-1", "two"))
	ok, err = form.Validate(nil)
	if err != nil || ok {
		t.Fatalf("expected entry failure, ok=%v err=%v", ok, err)
	}
	want := [][]string{{}, {"Not a valid integer value."}}
	if diff := cmp.Diff(want, list.EntryErrors(), cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("entry errors mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Not a valid integer value."}, list.Errors()); diff != "" {
		t.Fatalf("flattened list errors mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string][]string{"x-1": {"Not a valid integer value."}}, form.Errors()); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}
}

func TestFieldList_ErrorsFlattenEntriesThenList(t *testing.T) {
	atMostOne := forms.ValidatorFunc(func(_ *forms.Form, field forms.Field) error {
		if field.(*forms.FieldList).Len() > 1 {
			return forms.Invalid("One entry only.")
		}
		return nil
	})

	form, list := listForm(t, forms.List(forms.Integer(), forms.WithValidators(atMostOne)),
		forms.WithPrefix("p"),
		submit("p-x-1", "bad", "p-x-4", "9"))
	ok, err := form.Validate(nil)
	if err != nil || ok {
		t.Fatalf("expected failure, ok=%v err=%v", ok, err)
	}
	want := []string{"Not a valid integer value.", "One entry only."}
	if diff := cmp.Diff(want, list.Errors()); diff != "" {
		t.Fatalf("list errors mismatch (-want +got):\n%s", diff)
	}
	wantForm := map[string][]string{
		"p-x-1": {"Not a valid integer value."},
		"p-x":   {"One entry only."},
	}
	if diff := cmp.Diff(wantForm, form.Errors()); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}
}

func TestFieldList_AppendAndPop(t *testing.T) {
	_, list := listForm(t, forms.List(forms.String(), forms.WithMaxEntries(3)), submit("x-0", "a", "x-4", "b"))

	entry, err := list.AppendEntry("c")
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if entry.Core().Name() != "x-5" || entry.Data() != "c" {
		t.Fatalf("unexpected appended entry name=%q data=%#v", entry.Core().Name(), entry.Data())
	}
	if entry.Core().RawData() != nil {
		t.Fatalf("expected appended entry to ignore the submission, raw=%#v", entry.Core().RawData())
	}

	if _, err := list.AppendEntry("d"); !errors.Is(err, forms.ErrMaxEntries) {
		t.Fatalf("expected ErrMaxEntries, got %v", err)
	}

	popped, ok := list.PopEntry()
	if !ok || popped.Core().Name() != "x-5" {
		t.Fatalf("unexpected popped entry ok=%v", ok)
	}
	if list.LastIndex != 4 || list.Len() != 2 {
		t.Fatalf("unexpected state after pop: last=%d len=%d", list.LastIndex, list.Len())
	}
}

func TestFieldList_PopulateScalars(t *testing.T) {
	type target struct {
		Tags []string
	}
	schema := forms.MustSchema(forms.NewSchema("tagged", forms.Declare("tags", forms.List(forms.String()))))
	form, err := schema.New(submit("tags-0", "go", "tags-1", "forms"))
	if err != nil {
		t.Fatalf("new form: %v", err)
	}

	got := &target{Tags: []string{"old"}}
	if err := form.PopulateObject(got); err != nil {
		t.Fatalf("populate: %v", err)
	}
	if diff := cmp.Diff(&target{Tags: []string{"go", "forms"}}, got); diff != "" {
		t.Fatalf("target mismatch (-want +got):\n%s", diff)
	}
}

func TestFieldList_PopulateNestedEntries(t *testing.T) {
	type address struct {
		Street string
		City   string
	}
	type person struct {
		Addresses []address
	}

	addressSchema := forms.MustSchema(forms.NewSchema("address",
		forms.Declare("street", forms.String()),
		forms.Declare("city", forms.String()),
	))
	schema := forms.MustSchema(forms.NewSchema("person",
		forms.Declare("addresses", forms.List(forms.Nested(addressSchema))),
	))
	form, err := schema.New(submit(
		"addresses-0-street", "Main St",
		"addresses-0-city", "Springfield",
		"addresses-1-street", "Elm St",
		"addresses-1-city", "Shelbyville",
	))
	if err != nil {
		t.Fatalf("new form: %v", err)
	}

	got := &person{Addresses: []address{{Street: "stale", City: "stale"}}}
	if err := form.PopulateObject(got); err != nil {
		t.Fatalf("populate: %v", err)
	}
	want := &person{Addresses: []address{
		{Street: "Main St", City: "Springfield"},
		{Street: "Elm St", City: "Shelbyville"},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("target mismatch (-want +got):\n%s", diff)
	}
}

func TestFieldList_RejectsFilters(t *testing.T) {
	noop := func(value any) (any, error) { return value, nil }
	if _, err := forms.NewSchema("bad", forms.Declare("x", forms.List(forms.String(), forms.WithFilters(noop)))); !errors.Is(err, forms.ErrCompositeFilters) {
		t.Fatalf("expected ErrCompositeFilters, got %v", err)
	}

	schema := forms.MustSchema(forms.NewSchema("ok", forms.Declare("x", forms.List(forms.String()))))
	if _, err := schema.New(forms.WithFieldFilters("x", noop)); !errors.Is(err, forms.ErrCompositeFilters) {
		t.Fatalf("expected extra filters to be rejected, got %v", err)
	}
}
