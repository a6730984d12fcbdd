package goform

import "github.com/reoring/goform/fieldpath"

// ErrorOptions tune error writes. When several are passed, the last one wins.
type ErrorOptions struct {
	// Partial merges into the current errors instead of replacing them.
	// A no-error value (nil, false, fieldpath.Undefined) removes the entry.
	Partial bool
	// ForceUpdate publishes the change to subscribers in Uncontrolled mode.
	ForceUpdate bool
}

// Errors returns a copy of the error map.
func (f *Form) Errors() ErrorMap { return cloneErrors(f.current().Errors) }

// InitialErrors returns a copy of the errors the form was seeded with.
func (f *Form) InitialErrors() ErrorMap { return cloneErrors(f.current().InitialErrors) }

// GetError returns the error stored at path, or nil.
func (f *Form) GetError(path string) (any, error) {
	k, err := fieldpath.Canonical(path)
	if err != nil {
		return nil, err
	}
	return f.current().Errors[k], nil
}

// HasError reports whether any error is stored. With a path it reports
// whether an error is stored at that path or below it.
func (f *Form) HasError(path ...string) (bool, error) {
	errs := f.current().Errors
	if len(path) == 0 {
		return len(errs) > 0, nil
	}
	for _, s := range path {
		k, err := fieldpath.Canonical(s)
		if err != nil {
			return false, err
		}
		for e := range errs {
			if fieldpath.Within(e, k) {
				return true, nil
			}
		}
	}
	return false, nil
}

// SetErrors stores errs. Entries that are not errors are dropped before the
// merge or replace.
func (f *Form) SetErrors(errs map[string]any, opts ...ErrorOptions) error {
	var o ErrorOptions
	if len(opts) > 0 {
		o = opts[len(opts)-1]
	}
	m, err := canonicalMap(errs)
	if err != nil {
		return err
	}
	_, _, err = f.dispatchIf(nil, setErrorsAction{errors: cloneErrors(m), partial: o.Partial, force: o.ForceUpdate})
	return err
}

// SetError stores a single error; a no-error value clears the entry.
func (f *Form) SetError(path string, e any) error {
	return f.SetErrors(map[string]any{path: e}, ErrorOptions{Partial: true})
}

// ClearErrors removes the errors at paths, or every error when no path is
// given.
func (f *Form) ClearErrors(paths ...string) error {
	ws, err := canonicalKeys(paths)
	if err != nil {
		return err
	}
	_, _, err = f.dispatchIf(nil, clearErrorsAction{keys: keysOf(ws)})
	return err
}

// ResetErrors restores the errors at paths, or every error when no path is
// given, to the values the form was seeded with.
func (f *Form) ResetErrors(paths ...string) error {
	ws, err := canonicalKeys(paths)
	if err != nil {
		return err
	}
	_, _, err = f.dispatchIf(nil, resetErrorsAction{keys: keysOf(ws)})
	return err
}
