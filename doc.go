package goform

// Package goform provides:
//
// - A form session (Form) owning a value tree, its initial snapshot, per-path errors and modified/touched status
// - Path addressing with `a.b[0]["x.y"]` syntax via the fieldpath package
// - List helpers (Append/Insert/Remove/Move/Swap/Replace) that keep errors and status aligned with shifted indexes
// - Debounced field-level and form-level validation, validate-then-submit sequencing and per-path watches
//
// Design policy:
// - Keep only public APIs in the root package; put detailed implementations under internal/.
// - Every mutation is a typed action folded by a single reducer under one lock; callbacks run outside it.
// - Validation rules live in rules/, document decoding in source/, file configuration in config/.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//  form, err := goform.New(goform.Config{
//      InitialValues: map[string]any{"username": ""},
//      ValidateField: rules.ByPath(map[string]rules.Check{"username": rules.Required()}),
//      Submit:        save,
//  })
//  _ = form.SetValue("username", "alice")
//  result, err := form.Submit(ctx)
//
