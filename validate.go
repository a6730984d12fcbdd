package goform

import (
	"context"
	"maps"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/reoring/goform/fieldpath"
	"github.com/reoring/goform/internal/tree"
)

// Validate runs every configured validator against the current values and
// stores the result. Field-level results are merged first and form-level
// results override them. With no validator configured the result is an
// empty map and the form becomes validated. A collaborator failure is
// returned and stored in ValidateError; field errors are returned as data.
func (f *Form) Validate(ctx context.Context) (ErrorMap, error) {
	return f.validate(ctx, nil)
}

// ValidateFields validates only the given paths. Errors at or below the
// paths are replaced; other errors are kept. A partial run never marks the
// form validated. Without paths it behaves like Validate.
func (f *Form) ValidateFields(ctx context.Context, paths ...string) (ErrorMap, error) {
	ws, err := canonicalKeys(paths)
	if err != nil {
		return nil, err
	}
	if len(ws) == 0 {
		return f.validate(ctx, nil)
	}
	return f.validate(ctx, keysOf(ws))
}

// RequestValidation schedules a debounced validation of paths, or of the
// whole form when none is given. Requests issued within ValidateDelay
// collapse into one run against the values current when it fires.
func (f *Form) RequestValidation(paths ...string) error {
	ws, err := canonicalKeys(paths)
	if err != nil {
		return err
	}
	keys := keysOf(ws)
	return f.requestValidation(keys, len(keys) == 0)
}

func (f *Form) requestValidation(keys []string, all bool) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	if all {
		f.requestAll = true
	} else {
		if f.requested == nil {
			f.requested = map[string]bool{}
		}
		for _, k := range keys {
			f.requested[k] = true
		}
	}
	f.mu.Unlock()
	f.validateDeb.Trigger(f.fireValidation)
	return nil
}

func (f *Form) fireValidation() {
	f.mu.Lock()
	all := f.requestAll
	keys := make([]string, 0, len(f.requested))
	for k := range f.requested {
		keys = append(keys, k)
	}
	f.requested, f.requestAll = nil, false
	f.mu.Unlock()
	sort.Strings(keys)

	var err error
	switch {
	case all:
		_, err = f.validate(context.Background(), nil)
	case len(keys) > 0:
		_, err = f.validate(context.Background(), keys)
	}
	if err != nil {
		f.log.Debug("goform: scheduled validation failed", "err", err)
	}
}

// FlushValidation runs a pending debounced validation immediately. It
// reports whether one was pending.
func (f *Form) FlushValidation() bool { return f.validateDeb.Flush() }

func (f *Form) validate(ctx context.Context, keys []string) (ErrorMap, error) {
	st, _, err := f.dispatchIf(nil, validateStartAction{disable: f.cfg.DisableWhileValidating})
	if err != nil {
		return nil, err
	}
	gen := st.validateGen
	f.log.Debug("goform: validation started", "gen", gen, "paths", keys)

	errs, err := f.runValidators(ctx, st, keys)
	if err != nil {
		if _, changed := f.dispatch(validateFailAction{gen: gen, err: err}); changed {
			f.log.Debug("goform: validation failed", "gen", gen, "err", err)
		}
		return nil, err
	}
	if _, changed := f.dispatch(validateDoneAction{gen: gen, errors: errs, keys: keys}); !changed {
		f.log.Debug("goform: discarded stale validation result", "gen", gen)
	}
	return errs, nil
}

func (f *Form) runValidators(ctx context.Context, st State, keys []string) (ErrorMap, error) {
	out := ErrorMap{}
	if f.cfg.ValidateField != nil {
		targets := keys
		if targets == nil {
			targets = f.fieldTargets(st)
		}
		res, err := f.validateEach(ctx, st.Values, targets)
		if err != nil {
			return nil, err
		}
		maps.Copy(out, res)
	}
	if f.cfg.Validate != nil {
		var res ErrorMap
		err := f.call("validate", func() error {
			var err error
			res, err = f.cfg.Validate(ctx, tree.CloneRecord(st.Values), cloneFlags(st.Modified))
			return err
		})
		if err != nil {
			return nil, err
		}
		for k, v := range res {
			c, err := fieldpath.Canonical(k)
			if err != nil {
				return nil, err
			}
			if keys != nil && !coveredBy(c, keys) {
				continue
			}
			out[c] = v
		}
	}
	return filterErrors(out), nil
}

// fieldTargets lists every path a whole-form field-level run visits: the
// leaves of the value tree, the paths holding errors and the registered
// fields.
func (f *Form) fieldTargets(st State) []string {
	set := map[string]bool{}
	for _, k := range tree.Leaves(st.Values) {
		set[k] = true
	}
	for k := range st.Errors {
		set[k] = true
	}
	f.mu.Lock()
	for k := range f.fields {
		set[k] = true
	}
	f.mu.Unlock()
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// validateEach runs the field validator for every path concurrently. The
// first collaborator failure cancels the rest.
func (f *Form) validateEach(ctx context.Context, values map[string]any, paths []string) (ErrorMap, error) {
	results := make([]any, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	for i, key := range paths {
		g.Go(func() error {
			p := fieldpath.MustParse(key)
			v, _ := p.Resolve(values)
			return f.call("validateField", func() error {
				r, err := f.cfg.ValidateField(gctx, key, tree.Clone(v), tree.CloneRecord(values))
				results[i] = r
				return err
			})
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out := ErrorMap{}
	for i, key := range paths {
		if !IsNoError(results[i]) {
			out[key] = results[i]
		}
	}
	return out, nil
}

func coveredBy(path string, keys []string) bool {
	for _, k := range keys {
		if fieldpath.Within(path, k) {
			return true
		}
	}
	return false
}
