package goform

import "github.com/reoring/goform/fieldpath"

// FlagOptions tune status writes. When several are passed, the last one wins.
type FlagOptions struct {
	// Partial merges into the current map instead of replacing it.
	Partial bool
}

// Modified returns a copy of the modified map.
func (f *Form) Modified() FlagMap { return cloneFlags(f.current().Modified) }

// IsModified reports modified[path]. The empty path is the form-level flag.
func (f *Form) IsModified(path string) (bool, error) {
	return f.isFlag(flagModified, path)
}

// SetModifiedField overrides the modified flag of one path.
func (f *Form) SetModifiedField(path string, modified bool) error {
	return f.setFlags(flagModified, map[string]bool{path: modified}, FlagOptions{Partial: true})
}

// SetModified merges or replaces the modified map.
func (f *Form) SetModified(flags map[string]bool, opts ...FlagOptions) error {
	return f.setFlags(flagModified, flags, opts...)
}

// ClearModified deletes the modified flags at paths, or all of them.
func (f *Form) ClearModified(paths ...string) error {
	return f.clearFlags(flagModified, paths)
}

// ResetModified restores paths, or the whole map, to the initial snapshot.
func (f *Form) ResetModified(paths ...string) error {
	return f.resetFlags(flagModified, paths)
}

// Touched returns a copy of the touched map.
func (f *Form) Touched() FlagMap { return cloneFlags(f.current().Touched) }

// IsTouched reports touched[path]. The empty path is the form-level flag.
func (f *Form) IsTouched(path string) (bool, error) {
	return f.isFlag(flagTouched, path)
}

// SetTouchedField marks one path as interacted with, or not.
func (f *Form) SetTouchedField(path string, touched bool) error {
	return f.setFlags(flagTouched, map[string]bool{path: touched}, FlagOptions{Partial: true})
}

// SetTouched merges or replaces the touched map.
func (f *Form) SetTouched(flags map[string]bool, opts ...FlagOptions) error {
	return f.setFlags(flagTouched, flags, opts...)
}

// ClearTouched deletes the touched flags at paths, or all of them.
func (f *Form) ClearTouched(paths ...string) error {
	return f.clearFlags(flagTouched, paths)
}

// ResetTouched restores paths, or the whole map, to the initial snapshot.
func (f *Form) ResetTouched(paths ...string) error {
	return f.resetFlags(flagTouched, paths)
}

func (f *Form) isFlag(kind flagKind, path string) (bool, error) {
	st := f.current()
	m := st.Modified
	if kind == flagTouched {
		m = st.Touched
	}
	if path == "" {
		return m.Any(), nil
	}
	k, err := fieldpath.Canonical(path)
	if err != nil {
		return false, err
	}
	return m[k], nil
}

func (f *Form) setFlags(kind flagKind, flags map[string]bool, opts ...FlagOptions) error {
	var o FlagOptions
	if len(opts) > 0 {
		o = opts[len(opts)-1]
	}
	m, err := canonicalMap(flags)
	if err != nil {
		return err
	}
	_, _, err = f.dispatchIf(nil, setFlagsAction{kind: kind, flags: FlagMap(m), partial: o.Partial})
	return err
}

func (f *Form) clearFlags(kind flagKind, paths []string) error {
	ws, err := canonicalKeys(paths)
	if err != nil {
		return err
	}
	_, _, err = f.dispatchIf(nil, clearFlagsAction{kind: kind, keys: keysOf(ws)})
	return err
}

func (f *Form) resetFlags(kind flagKind, paths []string) error {
	ws, err := canonicalKeys(paths)
	if err != nil {
		return err
	}
	_, _, err = f.dispatchIf(nil, resetFlagsAction{kind: kind, keys: keysOf(ws)})
	return err
}
