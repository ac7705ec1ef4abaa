package render_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formbind/pkg/render"
)

func TestSortedHiddenFields(t *testing.T) {
	sorted := render.SortedHiddenFields(
		render.Hidden(" existing ", "stale"),
		render.CSRFToken("csrf_token", "token123"),
		render.VersionField("version", 4),
		render.Hidden("  ", "skip"),
		render.Hidden("existing", "keep"),
	)

	want := []render.HiddenField{
		{Name: "csrf_token", Value: "token123"},
		{Name: "existing", Value: "keep"},
		{Name: "version", Value: "4"},
	}
	if diff := cmp.Diff(want, sorted); diff != "" {
		t.Fatalf("sorted hidden fields mismatch (-want +got):\n%s", diff)
	}
	if got := render.SortedHiddenFields(render.Hidden("", "x")); got != nil {
		t.Fatalf("expected nil for unnamed fields, got %v", got)
	}
}

func TestMethodOverride(t *testing.T) {
	if _, ok := render.MethodOverride("post"); ok {
		t.Fatalf("POST needs no override")
	}
	field, ok := render.MethodOverride("patch")
	if !ok || field != (render.HiddenField{Name: "_method", Value: "PATCH"}) {
		t.Fatalf("expected PATCH override, got %+v (ok=%v)", field, ok)
	}
}
