package goform

import (
	"fmt"
	"sort"
	"strings"

	"github.com/reoring/goform/fieldpath"
	"github.com/reoring/goform/internal/tree"
)

// SetOptions tune value writes. When several are passed, the last one wins.
type SetOptions struct {
	// Partial merges a record into the current values; otherwise SetValues
	// replaces the whole tree. Ignored by SetValue.
	Partial bool
	// KeepModified leaves the modified map untouched.
	KeepModified bool
	// ForceUpdate publishes the change to subscribers in Uncontrolled mode.
	ForceUpdate bool
}

func setOptions(opts []SetOptions) SetOptions {
	var o SetOptions
	if len(opts) > 0 {
		o = opts[len(opts)-1]
	}
	return o
}

// GetValue returns the value at path, or def when the path does not resolve.
func (f *Form) GetValue(path string, def any) (any, error) {
	v, ok, err := f.LookupValue(path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return def, nil
	}
	return v, nil
}

// LookupValue returns a copy of the value at path and whether it is set.
// An explicit nil is set; a missing key is not.
func (f *Form) LookupValue(path string) (any, bool, error) {
	p, err := fieldpath.Parse(path)
	if err != nil {
		return nil, false, err
	}
	v, ok := p.Resolve(f.current().Values)
	return tree.Clone(v), ok, nil
}

// Values returns a copy of the current values.
func (f *Form) Values() map[string]any { return tree.CloneRecord(f.current().Values) }

// InitialValues returns a copy of the initial values.
func (f *Form) InitialValues() map[string]any {
	return tree.CloneRecord(f.current().InitialValues)
}

// SetValue writes value at path. Writing a value identical to the current
// one is a no-op and notifies nobody. Writing fieldpath.Undefined deletes
// the key. The root path replaces the whole tree and requires a record.
func (f *Form) SetValue(path string, value any, opts ...SetOptions) error {
	p, err := fieldpath.Parse(path)
	if err != nil {
		return err
	}
	o := setOptions(opts)
	if len(p) == 0 {
		rec, ok := value.(map[string]any)
		if !ok {
			return f.reject("setValue", path, fmt.Errorf("goform: root value must be a record, got %T", value))
		}
		o.Partial = false
		return f.SetValues(rec, o)
	}
	w := write{path: p, key: p.String(), value: f.prepareWrite(value)}
	return f.writeValues(setValuesAction{
		writes:         []write{w},
		updateModified: !o.KeepModified,
		skipUnchanged:  true,
		schedule:       f.cfg.ValidateOnChange,
		force:          o.ForceUpdate,
	})
}

// SetValues writes a record. With Partial each key is a path (flat keys
// such as "a.b[0]" and nested records both work) merged into the current
// values in sorted key order. Without Partial the record replaces the tree.
func (f *Form) SetValues(values map[string]any, opts ...SetOptions) error {
	o := setOptions(opts)
	a := setValuesAction{
		updateModified: !o.KeepModified,
		schedule:       f.cfg.ValidateOnChange,
		force:          o.ForceUpdate,
	}
	if !o.Partial {
		rec, _ := f.prepareWrite(values).(map[string]any)
		if rec == nil {
			rec = map[string]any{}
		}
		a.replace = rec
		return f.writeValues(a)
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		p, err := fieldpath.Parse(k)
		if err != nil {
			return err
		}
		if len(p) == 0 {
			continue
		}
		a.writes = append(a.writes, write{path: p, key: p.String(), value: f.prepareWrite(values[k])})
	}
	a.skipUnchanged = true
	return f.writeValues(a)
}

func (f *Form) writeValues(a setValuesAction) error {
	next, changed, err := f.dispatchIf(nil, a)
	if err != nil {
		return err
	}
	if changed && a.schedule {
		var keys []string
		if a.replace == nil {
			keys = writtenKeys(a)
		} else {
			keys = tree.Leaves(next.Values)
		}
		f.requestValidation(keys, len(keys) == 0)
	}
	return nil
}

// prepareWrite copies v and applies Nullify.
func (f *Form) prepareWrite(v any) any {
	v = tree.Clone(v)
	if f.cfg.Nullify {
		v = mapStrings(v, func(s string) any {
			if s == "" {
				return nil
			}
			return s
		})
	}
	return v
}

// mapStrings rewrites every string leaf of an already copied tree in place.
func mapStrings(v any, fn func(string) any) any {
	switch t := v.(type) {
	case string:
		return fn(t)
	case map[string]any:
		for k, e := range t {
			t[k] = mapStrings(e, fn)
		}
	case []any:
		for i, e := range t {
			t[i] = mapStrings(e, fn)
		}
	}
	return v
}

// ClearValues deletes the current values at paths, or every current value
// when no path is given. Initial values are kept.
func (f *Form) ClearValues(paths ...string) error {
	ws, err := canonicalKeys(paths)
	if err != nil {
		return err
	}
	a := setValuesAction{updateModified: true}
	if ws == nil {
		a.replace = map[string]any{}
		return f.writeValues(a)
	}
	for i := range ws {
		ws[i].value = fieldpath.Undefined
	}
	a.writes = ws
	a.skipUnchanged = true
	return f.writeValues(a)
}

// ResetValues restores paths to their initial values and clears their
// modified flags. Without paths the whole tree and the modified map are
// restored and the validation and submission status is cleared. Errors are
// left alone. It is rejected while a validation is in flight.
func (f *Form) ResetValues(paths ...string) error {
	ws, err := canonicalKeys(paths)
	if err != nil {
		return err
	}
	_, _, err = f.dispatchIf(func(s State) error {
		if s.Validating {
			return ErrValidating
		}
		return nil
	}, resetValuesAction{paths: ws})
	if err != nil {
		return f.reject("resetValues", strings.Join(keysOf(ws), ","), err)
	}
	return nil
}

// RemoveValues deletes paths from both the current and the initial values,
// together with every error and status entry at or below them.
func (f *Form) RemoveValues(paths ...string) error {
	ws, err := canonicalKeys(paths)
	if err != nil {
		return err
	}
	if len(ws) == 0 {
		return nil
	}
	_, _, err = f.dispatchIf(nil, removeValuesAction{paths: ws})
	return err
}

// SetInitialValues replaces the initial values and recomputes every tracked
// modified flag against them. Current values are kept.
func (f *Form) SetInitialValues(values map[string]any) error {
	_, _, err := f.dispatchIf(nil, setInitialValues{values: tree.CloneRecord(values)})
	return err
}

// UpdateInitialValues hands the form a new set of external initial values.
// With Reinitialize the form is re-seeded from them, keeping the initial
// error and status snapshots; otherwise the call is ignored.
func (f *Form) UpdateInitialValues(values map[string]any) error {
	if !f.cfg.Reinitialize {
		f.log.Debug("goform: initial values changed without reinitialize; ignored")
		return nil
	}
	st := f.current()
	_, _, err := f.dispatchIf(nil, initAction{
		values:   values,
		errors:   st.InitialErrors,
		touched:  st.InitialTouched,
		modified: st.InitialModified,
	})
	return err
}
