package goform_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/reoring/goform"
)

func TestForm_EndToEnd_SetThenReset(t *testing.T) {
	f, _ := newForm(t, goform.Config{InitialValues: map[string]any{"username": "a"}})

	if err := f.SetValue("username", "b"); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	if got := mustValue(t, f, "username"); got != "b" {
		t.Fatalf("username=%v want b", got)
	}
	if m, _ := f.IsModified("username"); !m {
		t.Fatalf("username should be modified")
	}

	if err := f.ResetValues(); err != nil {
		t.Fatalf("ResetValues: %v", err)
	}
	if got := mustValue(t, f, "username"); got != "a" {
		t.Fatalf("username=%v want a", got)
	}
	if m, _ := f.IsModified("username"); m {
		t.Fatalf("username should not be modified after reset")
	}
}

func TestNew_CanonicalizesInitialMaps(t *testing.T) {
	f, _ := newForm(t, goform.Config{
		InitialErrors:  map[string]any{`items[00]["name"]`: "bad", "ok": nil},
		InitialTouched: map[string]bool{`a["b"]`: true},
	})
	if diff := cmp.Diff(goform.ErrorMap{"items[0].name": "bad"}, f.Errors()); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(goform.FlagMap{"a.b": true}, f.Touched()); diff != "" {
		t.Fatalf("touched mismatch (-want +got):\n%s", diff)
	}
}

func TestNew_RejectsMalformedInitialKeys(t *testing.T) {
	_, err := goform.New(goform.Config{InitialErrors: map[string]any{"a..b": "x"}})
	if err == nil {
		t.Fatalf("expected syntax error")
	}
}

func TestNew_WarnsWhenLoaderAndInitialValuesAreSet(t *testing.T) {
	_, h := newForm(t, goform.Config{
		InitialValues: map[string]any{"a": 1},
		OnLoad:        func(context.Context) (map[string]any, error) { return nil, nil },
	})
	if h.messages() == "" {
		t.Fatalf("expected a warning")
	}
}

func TestSubscribe_ControlledPublishesEveryChange(t *testing.T) {
	f, _ := newForm(t, goform.Config{})
	var snaps []goform.State
	unsub := f.Subscribe(func(s goform.State) { snaps = append(snaps, s) })

	_ = f.SetValue("a", 1)
	_ = f.SetTouchedField("a", true)
	if len(snaps) != 2 {
		t.Fatalf("got %d snapshots want 2", len(snaps))
	}
	if snaps[1].Touched["a"] != true || snaps[1].Values["a"] != 1 {
		t.Fatalf("unexpected snapshot: %+v", snaps[1])
	}

	unsub()
	unsub()
	_ = f.SetValue("a", 2)
	if len(snaps) != 2 {
		t.Fatalf("unsubscribed callback still called")
	}
}

func TestSubscribe_UncontrolledOnlyForcedUpdates(t *testing.T) {
	f, _ := newForm(t, goform.Config{Mode: goform.Uncontrolled})
	n := 0
	f.Subscribe(func(goform.State) { n++ })

	_ = f.SetValue("a", 1)
	if n != 0 {
		t.Fatalf("uncontrolled write published")
	}
	if got := mustValue(t, f, "a"); got != 1 {
		t.Fatalf("reads must see the latest value, got %v", got)
	}
	_ = f.SetValue("a", 2, goform.SetOptions{ForceUpdate: true})
	_ = f.Append("list", "x")
	_ = f.ForceUpdate()
	if n != 3 {
		t.Fatalf("got %d forced publications want 3", n)
	}
}

func TestSubscribe_SnapshotIsDetached(t *testing.T) {
	f, _ := newForm(t, goform.Config{InitialValues: map[string]any{"user": map[string]any{"name": "a"}}})
	var snap goform.State
	f.Subscribe(func(s goform.State) { snap = s })
	_ = f.SetValue("user.name", "b")

	snap.Values["user"].(map[string]any)["name"] = "mutated"
	if got := mustValue(t, f, "user.name"); got != "b" {
		t.Fatalf("snapshot aliases live state: %v", got)
	}
}

func TestSnapshot_DeepCopy(t *testing.T) {
	f, _ := newForm(t, goform.Config{InitialValues: map[string]any{"tags": []any{"a"}}})
	s := f.Snapshot()
	s.Values["tags"].([]any)[0] = "z"
	s.Errors["x"] = "y"
	if got := mustValue(t, f, "tags[0]"); got != "a" {
		t.Fatalf("snapshot aliases values: %v", got)
	}
	if has, _ := f.HasError(); has {
		t.Fatalf("snapshot aliases errors")
	}
}

func TestReset_RestoresEverything(t *testing.T) {
	f, _ := newForm(t, goform.Config{
		InitialValues:  map[string]any{"a": "x"},
		InitialErrors:  map[string]any{"a": "server"},
		InitialTouched: map[string]bool{"a": true},
	})
	_ = f.SetValue("a", "y")
	_ = f.SetTouchedField("b", true)
	_ = f.SetError("b", "bad")

	if err := f.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	s := f.Snapshot()
	if diff := cmp.Diff(map[string]any{"a": "x"}, s.Values); diff != "" {
		t.Fatalf("values (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(goform.ErrorMap{"a": "server"}, s.Errors); diff != "" {
		t.Fatalf("errors (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(goform.FlagMap{"a": true}, s.Touched); diff != "" {
		t.Fatalf("touched (-want +got):\n%s", diff)
	}
	if s.IsModified() || s.Validated || s.Submitted {
		t.Fatalf("status not cleared: %+v", s)
	}
}

func TestReset_RejectedWhileValidating(t *testing.T) {
	bv := newBlockingValidator(nil)
	f, h := newForm(t, goform.Config{Validate: bv.validate, InitialValues: map[string]any{"a": 1}})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = f.Validate(context.Background())
	}()
	<-bv.entered

	_ = f.SetValue("a", 2)
	if err := f.Reset(); !errors.Is(err, goform.ErrValidating) {
		t.Fatalf("Reset err=%v want ErrValidating", err)
	}
	if err := f.ResetValues(); !errors.Is(err, goform.ErrValidating) {
		t.Fatalf("ResetValues err=%v want ErrValidating", err)
	}
	if got := mustValue(t, f, "a"); got != 2 {
		t.Fatalf("rejected reset changed state: %v", got)
	}
	if !h.warned("reset") || !h.warned("resetValues") {
		t.Fatalf("misuse not logged:\n%s", h.messages())
	}
	close(bv.release)
	<-done
}

func TestSetDisabled(t *testing.T) {
	f, _ := newForm(t, goform.Config{})
	if f.IsDisabled() {
		t.Fatalf("disabled by default")
	}
	_ = f.SetDisabled(true)
	if !f.IsDisabled() {
		t.Fatalf("SetDisabled(true) ignored")
	}
}

func TestClose_MutationsFail(t *testing.T) {
	f, _ := newForm(t, goform.Config{})
	f.Close()
	f.Close()
	if err := f.SetValue("a", 1); !errors.Is(err, goform.ErrClosed) {
		t.Fatalf("err=%v want ErrClosed", err)
	}
	if _, err := f.Watch("a", func(goform.WatchEvent) {}); !errors.Is(err, goform.ErrClosed) {
		t.Fatalf("watch err=%v want ErrClosed", err)
	}
}

func TestClose_InFlightValidationIsDiscarded(t *testing.T) {
	bv := newBlockingValidator(goform.ErrorMap{"a": "late"})
	f, _ := newForm(t, goform.Config{Validate: bv.validate})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = f.Validate(context.Background())
	}()
	<-bv.entered
	f.Close()
	close(bv.release)
	<-done

	if has, _ := f.HasError(); has {
		t.Fatalf("late validation result applied after Close")
	}
}

func TestCallbackPanicIsContained(t *testing.T) {
	f, h := newForm(t, goform.Config{
		OnValuesChange: func(next, prev map[string]any) { panic("boom") },
	})
	called := false
	f.Subscribe(func(goform.State) { called = true })
	if err := f.SetValue("a", 1); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	if !called {
		t.Fatalf("subscriber skipped after panicking callback")
	}
	if h.messages() == "" {
		t.Fatalf("panic not logged")
	}
}

func TestOnValuesChange_ReceivesNextAndPrevious(t *testing.T) {
	var gotNext, gotPrev map[string]any
	f, _ := newForm(t, goform.Config{
		InitialValues:  map[string]any{"a": 1},
		OnValuesChange: func(next, prev map[string]any) { gotNext, gotPrev = next, prev },
	})
	_ = f.SetValue("a", 2)
	if gotNext["a"] != 2 || gotPrev["a"] != 1 {
		t.Fatalf("next=%v prev=%v", gotNext, gotPrev)
	}
}

func TestReentrantMutationFromCallback(t *testing.T) {
	var f *goform.Form
	f, _ = newForm(t, goform.Config{
		OnValuesChange: func(next, _ map[string]any) {
			if next["a"] == 1 {
				_ = f.SetValue("b", 2)
			}
		},
	})
	if err := f.SetValue("a", 1); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	if got := mustValue(t, f, "b"); got != 2 {
		t.Fatalf("reentrant write lost: %v", got)
	}
}
