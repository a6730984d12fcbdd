package goform

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/reoring/goform/fieldpath"
	"github.com/reoring/goform/internal/tree"
)

// InputKind is the coarse kind of the control that produced a raw value.
type InputKind int

const (
	InputText InputKind = iota
	InputNumber
	InputCheckbox
	InputMultiple
)

// Hint describes the control behind a change so a ValueParser can coerce
// the raw value.
type Hint struct {
	Kind InputKind
	// Checked is the checkbox state.
	Checked bool
	// Option is the checkbox value for checkbox groups bound to a sequence.
	// Empty means a single boolean checkbox.
	Option string
}

// ValueParser turns a raw input value into the value stored in the form.
// current is the value stored at the field before the change.
type ValueParser interface {
	Parse(raw any, hint Hint, current any) (any, error)
}

// ValueParserFunc adapts a function to ValueParser.
type ValueParserFunc func(raw any, hint Hint, current any) (any, error)

func (fn ValueParserFunc) Parse(raw any, hint Hint, current any) (any, error) {
	return fn(raw, hint, current)
}

// PassthroughParser stores raw values unchanged.
var PassthroughParser ValueParser = ValueParserFunc(func(raw any, _ Hint, _ any) (any, error) {
	return raw, nil
})

// CoercingParser applies the usual control semantics: numbers parse from
// strings (empty is nil), single checkboxes store their checked state,
// checkbox groups toggle Option in a sequence, and multiple selects store
// a sequence.
var CoercingParser ValueParser = ValueParserFunc(coerce)

func coerce(raw any, hint Hint, current any) (any, error) {
	switch hint.Kind {
	case InputNumber:
		s, ok := raw.(string)
		if !ok {
			return raw, nil
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, nil
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("goform: not a number: %q", s)
		}
		return n, nil
	case InputCheckbox:
		if hint.Option == "" {
			return hint.Checked, nil
		}
		seq, _ := current.([]any)
		out := slices.DeleteFunc(slices.Clone(seq), func(v any) bool { return v == hint.Option })
		if hint.Checked {
			out = append(out, hint.Option)
		}
		if out == nil {
			out = []any{}
		}
		return out, nil
	case InputMultiple:
		switch t := raw.(type) {
		case []string:
			out := make([]any, len(t))
			for i, s := range t {
				out[i] = s
			}
			return out, nil
		case []any:
			return t, nil
		case nil:
			return []any{}, nil
		}
		return []any{raw}, nil
	}
	return raw, nil
}

// Field is a handle bound to one path of a form. Its path is parsed once;
// registered fields are visited by whole-form field-level validation even
// when they hold no value.
type Field struct {
	form *Form
	path fieldpath.Path
	key  string
}

// Field returns the handle for path and registers it.
func (f *Form) Field(path string) (*Field, error) {
	p, err := fieldpath.Parse(path)
	if err != nil {
		return nil, err
	}
	if len(p) == 0 {
		return nil, fmt.Errorf("goform: field path must not be empty")
	}
	key := p.String()
	f.mu.Lock()
	f.fields[key] = p
	f.mu.Unlock()
	return &Field{form: f, path: p, key: key}, nil
}

// Name is the canonical path.
func (fd *Field) Name() string { return fd.key }

// Value returns a copy of the field value, or nil when unset.
func (fd *Field) Value() any {
	v, _ := fd.Lookup()
	return v
}

// Lookup returns a copy of the field value and whether it is set.
func (fd *Field) Lookup() (any, bool) {
	v, ok := fd.path.Resolve(fd.form.current().Values)
	return tree.Clone(v), ok
}

// SetValue writes the field value.
func (fd *Field) SetValue(v any, opts ...SetOptions) error {
	return fd.form.SetValue(fd.key, v, opts...)
}

// Err returns the error stored at the field, or nil.
func (fd *Field) Err() any { return fd.form.current().Errors[fd.key] }

// SetErr stores an error at the field; a no-error value clears it.
func (fd *Field) SetErr(e any) error { return fd.form.SetError(fd.key, e) }

// Touched reports the field touched flag.
func (fd *Field) Touched() bool { return fd.form.current().Touched[fd.key] }

// SetTouched overrides the field touched flag.
func (fd *Field) SetTouched(touched bool) error {
	return fd.form.SetTouchedField(fd.key, touched)
}

// Modified reports the field modified flag.
func (fd *Field) Modified() bool { return fd.form.current().Modified[fd.key] }

// HandleChange parses raw through the form's ValueParser and writes the
// result. A parse failure is stored as the field error and returned.
func (fd *Field) HandleChange(raw any, hint Hint) error {
	cur, _ := fd.path.Resolve(fd.form.current().Values)
	v, err := fd.form.cfg.Parser.Parse(raw, hint, tree.Clone(cur))
	if err != nil {
		if serr := fd.form.SetError(fd.key, err.Error()); serr != nil {
			return serr
		}
		return err
	}
	return fd.form.SetValue(fd.key, v)
}

// HandleBlur marks the field touched and, with ValidateOnChange, schedules
// its validation.
func (fd *Field) HandleBlur() error {
	if err := fd.form.SetTouchedField(fd.key, true); err != nil {
		return err
	}
	if fd.form.cfg.ValidateOnChange && fd.form.cfg.hasValidator() {
		return fd.form.requestValidation([]string{fd.key}, false)
	}
	return nil
}

// Watch registers fn for changes of the field value.
func (fd *Field) Watch(fn WatchFunc) (func(), error) { return fd.form.Watch(fd.key, fn) }
