package goform_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/reoring/goform"
	"github.com/reoring/goform/fieldpath"
)

func TestSetValue_ModifiedIdempotence(t *testing.T) {
	f, _ := newForm(t, goform.Config{InitialValues: map[string]any{"name": "a"}})
	for _, v := range []string{"b", "c", "a"} {
		if err := f.SetValue("name", v); err != nil {
			t.Fatalf("SetValue(%q): %v", v, err)
		}
	}
	if m, _ := f.IsModified("name"); m {
		t.Fatalf("value back at initial must not be modified")
	}
	if m, _ := f.IsModified(""); m {
		t.Fatalf("form-level modified should be false")
	}
}

func TestSetValue_BothNullishIsNotModified(t *testing.T) {
	f, _ := newForm(t, goform.Config{})
	if err := f.SetValue("note", nil); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	if m, _ := f.IsModified("note"); m {
		t.Fatalf("nil over undefined must not count as modified")
	}
	if _, ok, _ := f.LookupValue("note"); !ok {
		t.Fatalf("explicit nil must be stored")
	}
}

func TestSetValue_UnchangedIsNoop(t *testing.T) {
	f, _ := newForm(t, goform.Config{InitialValues: map[string]any{"a": 1}})
	n := 0
	f.Subscribe(func(goform.State) { n++ })
	if _, err := f.Watch("a", func(goform.WatchEvent) { n++ }); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if err := f.SetValue("a", 1); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	if n != 0 {
		t.Fatalf("no-op write notified %d times", n)
	}
}

func TestSetValue_ClearsErrorAtPath(t *testing.T) {
	f, _ := newForm(t, goform.Config{InitialErrors: map[string]any{"a": "bad", "b": "bad"}})
	_ = f.SetValue("a", "fixed")
	if diff := cmp.Diff(goform.ErrorMap{"b": "bad"}, f.Errors()); diff != "" {
		t.Fatalf("errors (-want +got):\n%s", diff)
	}
}

func TestSetValue_Nullify(t *testing.T) {
	f, _ := newForm(t, goform.Config{Nullify: true, InitialValues: map[string]any{"name": "x"}})
	_ = f.SetValue("name", "")
	v, ok, _ := f.LookupValue("name")
	if !ok || v != nil {
		t.Fatalf("got %v (set=%v) want explicit nil", v, ok)
	}
}

func TestSetValue_UndefinedDeletes(t *testing.T) {
	f, _ := newForm(t, goform.Config{InitialValues: map[string]any{"a": 1, "b": 2}})
	_ = f.SetValue("a", fieldpath.Undefined)
	if diff := cmp.Diff(map[string]any{"b": 2}, f.Values()); diff != "" {
		t.Fatalf("values (-want +got):\n%s", diff)
	}
}

func TestSetValue_NestedCreatesContainers(t *testing.T) {
	f, _ := newForm(t, goform.Config{})
	_ = f.SetValue("user.tags[1]", "b")
	want := map[string]any{"user": map[string]any{"tags": []any{nil, "b"}}}
	if diff := cmp.Diff(want, f.Values()); diff != "" {
		t.Fatalf("values (-want +got):\n%s", diff)
	}
}

func TestSetValue_SyntaxErrorPropagates(t *testing.T) {
	f, _ := newForm(t, goform.Config{})
	if err := f.SetValue("a. b", 1); !errors.Is(err, fieldpath.ErrSyntax) {
		t.Fatalf("err=%v want ErrSyntax", err)
	}
	if _, err := f.GetValue("array[]", nil); !errors.Is(err, fieldpath.ErrSyntax) {
		t.Fatalf("err=%v want ErrSyntax", err)
	}
}

func TestSetValue_RootReplaces(t *testing.T) {
	f, _ := newForm(t, goform.Config{InitialValues: map[string]any{"a": 1}})
	if err := f.SetValue("", map[string]any{"b": 2}); err != nil {
		t.Fatalf("SetValue root: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"b": 2}, f.Values()); diff != "" {
		t.Fatalf("values (-want +got):\n%s", diff)
	}
	if err := f.SetValue("", 3); err == nil {
		t.Fatalf("non-record root accepted")
	}
}

func TestGetValue_Default(t *testing.T) {
	f, _ := newForm(t, goform.Config{InitialValues: map[string]any{"a": nil}})
	if v, _ := f.GetValue("missing", "def"); v != "def" {
		t.Fatalf("got %v want def", v)
	}
	if v, _ := f.GetValue("a", "def"); v != nil {
		t.Fatalf("explicit nil must win over the default, got %v", v)
	}
}

func TestValues_ReturnsCopy(t *testing.T) {
	f, _ := newForm(t, goform.Config{InitialValues: map[string]any{"user": map[string]any{"name": "a"}}})
	v := f.Values()
	v["user"].(map[string]any)["name"] = "z"
	if got := mustValue(t, f, "user.name"); got != "a" {
		t.Fatalf("Values aliases state: %v", got)
	}
	iv := f.InitialValues()
	iv["user"] = nil
	if got := mustValue(t, f, "user.name"); got != "a" {
		t.Fatalf("InitialValues aliases state")
	}
}

func TestInitialValuesAreNotAliased(t *testing.T) {
	init := map[string]any{"user": map[string]any{"name": "a"}}
	f, _ := newForm(t, goform.Config{InitialValues: init})
	init["user"].(map[string]any)["name"] = "caller"
	_ = f.SetValue("user.name", "b")
	if got := f.InitialValues()["user"].(map[string]any)["name"]; got != "a" {
		t.Fatalf("initial values changed to %v", got)
	}
}

func TestSetValues_Partial(t *testing.T) {
	f, _ := newForm(t, goform.Config{InitialValues: map[string]any{"keep": true, "user": map[string]any{"name": "a"}}})
	err := f.SetValues(map[string]any{
		"user.name": "b",
		"tags[0]":   "x",
	}, goform.SetOptions{Partial: true})
	if err != nil {
		t.Fatalf("SetValues: %v", err)
	}
	want := map[string]any{"keep": true, "user": map[string]any{"name": "b"}, "tags": []any{"x"}}
	if diff := cmp.Diff(want, f.Values()); diff != "" {
		t.Fatalf("values (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(goform.FlagMap{"user.name": true, "tags[0]": true}, f.Modified()); diff != "" {
		t.Fatalf("modified (-want +got):\n%s", diff)
	}
}

func TestSetValues_Replace(t *testing.T) {
	f, _ := newForm(t, goform.Config{InitialValues: map[string]any{"a": 1, "b": 2}})
	if err := f.SetValues(map[string]any{"a": 1, "c": 3}); err != nil {
		t.Fatalf("SetValues: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"a": 1, "c": 3}, f.Values()); diff != "" {
		t.Fatalf("values (-want +got):\n%s", diff)
	}
	want := goform.FlagMap{"a": false, "b": true, "c": true}
	if diff := cmp.Diff(want, f.Modified()); diff != "" {
		t.Fatalf("modified (-want +got):\n%s", diff)
	}
}

func TestSetValues_ReplaceRefreshesNestedStatus(t *testing.T) {
	f, _ := newForm(t, goform.Config{InitialValues: map[string]any{"user": map[string]any{"name": "a"}}})
	_ = f.SetValue("user.name", "b")
	_ = f.SetError("user.name", "bad")
	if m, _ := f.IsModified("user.name"); !m {
		t.Fatalf("user.name not modified after write")
	}

	if err := f.SetValues(map[string]any{"user": map[string]any{"name": "a"}}); err != nil {
		t.Fatalf("SetValues: %v", err)
	}
	if v, _ := f.GetValue("user.name", nil); v != "a" {
		t.Fatalf("user.name=%v", v)
	}
	if m, _ := f.IsModified("user.name"); m {
		t.Fatalf("user.name still modified after restoring its initial value")
	}
	if e, _ := f.GetError("user.name"); e != nil {
		t.Fatalf("nested error kept: %v", e)
	}
}

func TestSetValue_IndexAboveMaxIsSyntaxError(t *testing.T) {
	f, _ := newForm(t, goform.Config{})
	if err := f.SetValue("items[2000000000]", 1); !errors.Is(err, fieldpath.ErrSyntax) {
		t.Fatalf("err=%v want ErrSyntax", err)
	}
	if err := f.SetValue("items[65535]", 1); err != nil {
		t.Fatalf("SetValue at MaxIndex: %v", err)
	}
	if v, _ := f.GetValue("items", nil); len(v.([]any)) != fieldpath.MaxIndex+1 {
		t.Fatalf("len=%d", len(v.([]any)))
	}
}

func TestSetValues_KeepModified(t *testing.T) {
	f, _ := newForm(t, goform.Config{})
	_ = f.SetValues(map[string]any{"a": 1}, goform.SetOptions{Partial: true, KeepModified: true})
	if len(f.Modified()) != 0 {
		t.Fatalf("modified touched: %v", f.Modified())
	}
}

func TestClearValues(t *testing.T) {
	f, _ := newForm(t, goform.Config{InitialValues: map[string]any{"a": "x", "b": "y"}})
	if err := f.ClearValues("a"); err != nil {
		t.Fatalf("ClearValues: %v", err)
	}
	if _, ok, _ := f.LookupValue("a"); ok {
		t.Fatalf("a still set")
	}
	if f.InitialValues()["a"] != "x" {
		t.Fatalf("ClearValues must keep initial values")
	}
	if m, _ := f.IsModified("a"); !m {
		t.Fatalf("cleared value differs from initial")
	}

	_ = f.ClearValues()
	if len(f.Values()) != 0 {
		t.Fatalf("values not cleared: %v", f.Values())
	}
}

func TestResetValues_Paths(t *testing.T) {
	f, _ := newForm(t, goform.Config{InitialValues: map[string]any{"user": map[string]any{"name": "a", "age": 1}}})
	_ = f.SetValue("user.name", "b")
	_ = f.SetValue("user.age", 2)
	_ = f.SetError("user.name", "bad")

	if err := f.ResetValues("user.name"); err != nil {
		t.Fatalf("ResetValues: %v", err)
	}
	if got := mustValue(t, f, "user.name"); got != "a" {
		t.Fatalf("name=%v", got)
	}
	if got := mustValue(t, f, "user.age"); got != 2 {
		t.Fatalf("age must be kept, got %v", got)
	}
	if m, _ := f.IsModified("user.name"); m {
		t.Fatalf("reset path still modified")
	}
	if m, _ := f.IsModified("user.age"); !m {
		t.Fatalf("other path lost its modified flag")
	}
	if e, _ := f.GetError("user.name"); e != "bad" {
		t.Fatalf("ResetValues must not touch errors, got %v", e)
	}
}

func TestResetValues_ClearsStatus(t *testing.T) {
	f, _ := newForm(t, goform.Config{InitialValues: map[string]any{"a": 1}})
	_, _ = f.Validate(t.Context())
	_ = f.SetValue("a", 2)
	_ = f.ResetValues()
	s := f.Snapshot()
	if s.Validated || s.Submitted || s.IsModified() {
		t.Fatalf("status not cleared: %+v", s)
	}
}

func TestRemoveValues(t *testing.T) {
	f, _ := newForm(t, goform.Config{
		InitialValues:  map[string]any{"user": map[string]any{"name": "a"}, "b": 1},
		InitialErrors:  map[string]any{"user.name": "bad"},
		InitialTouched: map[string]bool{"user.name": true},
	})
	if err := f.RemoveValues("user"); err != nil {
		t.Fatalf("RemoveValues: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"b": 1}, f.Values()); diff != "" {
		t.Fatalf("values (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]any{"b": 1}, f.InitialValues()); diff != "" {
		t.Fatalf("initial values (-want +got):\n%s", diff)
	}
	if len(f.Errors()) != 0 || len(f.Touched()) != 0 {
		t.Fatalf("nested entries survived: errors=%v touched=%v", f.Errors(), f.Touched())
	}
	_ = f.ResetErrors()
	if len(f.Errors()) != 0 {
		t.Fatalf("initial errors under a removed path survived")
	}
}

func TestSetInitialValues_RecomputesModified(t *testing.T) {
	f, _ := newForm(t, goform.Config{InitialValues: map[string]any{"a": "x"}})
	_ = f.SetValue("a", "y")
	if err := f.SetInitialValues(map[string]any{"a": "y"}); err != nil {
		t.Fatalf("SetInitialValues: %v", err)
	}
	if m, _ := f.IsModified("a"); m {
		t.Fatalf("a equals the new initial value")
	}
	if got := mustValue(t, f, "a"); got != "y" {
		t.Fatalf("current values must be kept, got %v", got)
	}
}

func TestUpdateInitialValues(t *testing.T) {
	f, _ := newForm(t, goform.Config{InitialValues: map[string]any{"a": 1}})
	_ = f.UpdateInitialValues(map[string]any{"a": 2})
	if got := mustValue(t, f, "a"); got != 1 {
		t.Fatalf("without Reinitialize the update must be ignored, got %v", got)
	}

	g, _ := newForm(t, goform.Config{InitialValues: map[string]any{"a": 1}, Reinitialize: true})
	_ = g.SetValue("a", 5)
	_ = g.UpdateInitialValues(map[string]any{"a": 2})
	if got := mustValue(t, g, "a"); got != 2 {
		t.Fatalf("reinitialize did not re-seed, got %v", got)
	}
	if m, _ := g.IsModified(""); m {
		t.Fatalf("re-seeded form must not be modified")
	}
}

func TestSetValue_ContainerIsAlwaysModified(t *testing.T) {
	f, _ := newForm(t, goform.Config{InitialValues: map[string]any{"user": map[string]any{"name": "a"}}})
	_ = f.SetValue("user", map[string]any{"name": "a"})
	// records compare by identity
	if m, _ := f.IsModified("user"); !m {
		t.Fatalf("an equal but distinct record reads as modified")
	}
}
