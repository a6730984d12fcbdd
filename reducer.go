package goform

import (
	"fmt"
	"maps"
	"sort"

	"github.com/reoring/goform/fieldpath"
	"github.com/reoring/goform/internal/tree"
)

// policy carries the configuration the transition table depends on.
type policy struct {
	keepErrorsWhilePending bool
}

// reduce applies a to s and reports whether anything changed. It never
// mutates containers reachable from s: every map it touches is copied first.
func reduce(s State, a action, pol policy) (State, bool) {
	switch a := a.(type) {
	case initAction:
		return reduceInit(s, a), true
	case loadStartAction:
		s.Loading = true
		s.Loaded = false
		s.LoadError = nil
		return s, true
	case loadSuccessAction:
		s.Values = tree.CloneRecord(a.values)
		s.InitialValues = tree.CloneRecord(a.values)
		s.Modified = cloneFlags(s.InitialModified)
		s.Loading = false
		s.Loaded = true
		s.Initialized = true
		s.Validated = false
		return s, true
	case loadFailAction:
		s.Loading = false
		s.LoadError = a.err
		return s, true
	case setValuesAction:
		return reduceSetValues(s, a, pol)
	case resetValuesAction:
		return reduceResetValues(s, a)
	case removeValuesAction:
		return reduceRemoveValues(s, a), true
	case setInitialValues:
		s.InitialValues = a.values
		s.Modified = cloneFlags(s.Modified)
		for k := range s.Modified {
			p, err := fieldpath.Parse(k)
			if err != nil {
				continue
			}
			s.Modified[k] = modifiedAt(p, s.Values, s.InitialValues)
		}
		return s, true
	case setErrorsAction:
		if a.partial {
			merged := make(map[string]any, len(s.Errors)+len(a.errors))
			maps.Copy(merged, s.Errors)
			maps.Copy(merged, a.errors)
			s.Errors = filterErrors(merged)
		} else {
			s.Errors = filterErrors(a.errors)
		}
		if s.HasError() {
			s.Validated = false
		}
		return s, true
	case clearErrorsAction:
		if a.keys == nil {
			s.Errors = ErrorMap{}
			return s, true
		}
		s.Errors = maps.Clone(s.Errors)
		for _, k := range a.keys {
			delete(s.Errors, k)
		}
		return s, true
	case resetErrorsAction:
		s.Errors = restoreErrors(s.Errors, s.InitialErrors, a.keys)
		return s, true
	case setFlagsAction:
		cur := flagsOf(&s, a.kind)
		if a.partial {
			next := cloneFlags(*cur)
			maps.Copy(next, a.flags)
			*cur = next
		} else {
			*cur = cloneFlags(a.flags)
		}
		return s, true
	case clearFlagsAction:
		cur := flagsOf(&s, a.kind)
		if a.keys == nil {
			*cur = FlagMap{}
			return s, true
		}
		next := cloneFlags(*cur)
		for _, k := range a.keys {
			delete(next, k)
		}
		*cur = next
		return s, true
	case resetFlagsAction:
		cur := flagsOf(&s, a.kind)
		initial := s.InitialModified
		if a.kind == flagTouched {
			initial = s.InitialTouched
		}
		*cur = restoreFlags(*cur, initial, a.keys)
		return s, true
	case setDisabledAction:
		if s.Disabled == a.disabled {
			return s, false
		}
		s.Disabled = a.disabled
		s.disabledByValidation = false
		return s, true
	case validateStartAction:
		s.validateGen++
		s.Validating = true
		s.NeedValidation = false
		s.pending = nil
		s.ValidateError = nil
		if a.disable && !s.Disabled {
			s.Disabled = true
			s.disabledByValidation = true
		}
		return s, true
	case validateDoneAction:
		if a.gen != s.validateGen || !s.Validating {
			return s, false
		}
		errs := filterErrors(a.errors)
		if a.keys == nil {
			s.Errors = errs
		} else {
			merged := s.Errors
			for _, k := range a.keys {
				merged = tree.Drop(merged, k)
			}
			merged = maps.Clone(merged)
			if merged == nil {
				merged = ErrorMap{}
			}
			maps.Copy(merged, errs)
			s.Errors = merged
		}
		s.Validating = false
		switch {
		case s.HasError():
			s.Validated = false
		case a.keys == nil:
			s.Validated = true
			s.Errors = ErrorMap{}
		}
		endValidation(&s)
		return s, true
	case validateFailAction:
		if a.gen != s.validateGen || !s.Validating {
			return s, false
		}
		s.Validating = false
		s.Validated = false
		s.ValidateError = a.err
		endValidation(&s)
		return s, true
	case submitStartAction:
		s.Submitting = true
		s.Submitted = false
		s.SubmitError = nil
		s.SubmitResult = nil
		return s, true
	case submitSuccessAction:
		return reduceSubmitSuccess(s, a), true
	case submitFailAction:
		s.Submitting = false
		s.SubmitError = a.err
		s.SubmitCount++
		return s, true
	case listAction:
		return reduceList(s, a)
	case resetAction:
		s.validateGen++
		s.Values = tree.CloneRecord(s.InitialValues)
		s.Errors = cloneErrors(s.InitialErrors)
		s.Modified = cloneFlags(s.InitialModified)
		s.Touched = cloneFlags(s.InitialTouched)
		s.NeedValidation = false
		s.pending = nil
		s.Validating = false
		s.Validated = false
		s.ValidateError = nil
		s.Submitted = false
		s.SubmitError = nil
		s.SubmitResult = nil
		s.SubmitCount = 0
		endValidation(&s)
		return s, true
	case forceUpdateAction:
		return s, true
	default:
		panic(fmt.Sprintf("goform: unhandled action %T", a))
	}
}

func reduceInit(s State, a initAction) State {
	s.validateGen++
	s.Values = tree.CloneRecord(a.values)
	s.InitialValues = tree.CloneRecord(a.values)
	s.Errors = cloneErrors(a.errors)
	s.InitialErrors = cloneErrors(a.errors)
	s.Touched = cloneFlags(a.touched)
	s.InitialTouched = cloneFlags(a.touched)
	s.Modified = cloneFlags(a.modified)
	s.InitialModified = cloneFlags(a.modified)
	s.Initialized = true
	s.NeedValidation = false
	s.pending = nil
	s.Validating = false
	s.Validated = false
	s.ValidateError = nil
	s.Submitted = false
	s.SubmitError = nil
	s.SubmitResult = nil
	s.SubmitCount = 0
	endValidation(&s)
	return s
}

func reduceSetValues(s State, a setValuesAction, pol policy) (State, bool) {
	writes := a.writes
	var next map[string]any
	if a.replace != nil {
		next = a.replace
		writes = replacedKeys(s.Values, a.replace)
	} else {
		if a.skipUnchanged {
			writes = changedWrites(s.Values, writes)
		}
		if len(writes) == 0 {
			return s, false
		}
		var root any = s.Values
		for _, w := range writes {
			root = w.path.Build(w.value, root)
		}
		next, _ = root.(map[string]any)
		if next == nil {
			next = map[string]any{}
		}
	}
	s.Values = next
	s.Modified = cloneFlags(s.Modified)
	s.Errors = maps.Clone(s.Errors)
	if a.schedule {
		schedule(&s, writes)
	}
	for _, w := range writes {
		if a.updateModified {
			s.Modified[w.key] = modifiedAt(w.path, s.Values, s.InitialValues)
		}
		if pol.keepErrorsWhilePending && s.pendingCovers(w.key) {
			continue
		}
		delete(s.Errors, w.key)
	}
	if a.replace != nil {
		replaceNested(&s, writes, a.updateModified, pol)
	}
	s.Validated = false
	return s, true
}

// replaceNested brings flags and errors nested below the replaced top-level
// keys in line with the new tree. s.Modified and s.Errors must already be
// copies.
func replaceNested(s *State, writes []write, updateModified bool, pol policy) {
	below := func(k string) bool {
		for _, w := range writes {
			if k != w.key && fieldpath.Within(k, w.key) {
				return true
			}
		}
		return false
	}
	if updateModified {
		for k := range s.Modified {
			if !below(k) {
				continue
			}
			if p, err := fieldpath.Parse(k); err == nil {
				s.Modified[k] = modifiedAt(p, s.Values, s.InitialValues)
			}
		}
	}
	for k := range s.Errors {
		if !below(k) {
			continue
		}
		if pol.keepErrorsWhilePending && s.pendingCovers(k) {
			continue
		}
		delete(s.Errors, k)
	}
}

// changedWrites drops writes that would not change the tree.
func changedWrites(values map[string]any, writes []write) []write {
	var out []write
	for _, w := range writes {
		old, found := w.path.Resolve(values)
		if fieldpath.IsUndefined(w.value) {
			if found {
				out = append(out, w)
			}
			continue
		}
		if found && tree.Same(old, w.value) {
			continue
		}
		out = append(out, w)
	}
	return out
}

// replacedKeys lists the top-level keys of both trees, sorted.
func replacedKeys(prev, next map[string]any) []write {
	seen := make(map[string]bool, len(prev)+len(next))
	var keys []string
	for _, m := range []map[string]any{next, prev} {
		for k := range m {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	out := make([]write, len(keys))
	for i, k := range keys {
		p := fieldpath.Path{fieldpath.Key(k)}
		out[i] = write{path: p, key: p.String()}
	}
	return out
}

func schedule(s *State, writes []write) {
	switch {
	case !s.NeedValidation:
		s.pending = FlagMap{}
	case s.pending == nil:
		// whole form already scheduled
		return
	default:
		s.pending = cloneFlags(s.pending)
	}
	s.NeedValidation = true
	for _, w := range writes {
		s.pending[w.key] = true
	}
}

// modifiedAt compares the current and initial value at p. Records and
// sequences compare by identity, so a container written with equal content
// still reads as modified.
func modifiedAt(p fieldpath.Path, values, initial map[string]any) bool {
	cur, ok := p.Resolve(values)
	if !ok {
		cur = fieldpath.Undefined
	}
	was, ok := p.Resolve(initial)
	if !ok {
		was = fieldpath.Undefined
	}
	if tree.Nullish(cur) && tree.Nullish(was) {
		return false
	}
	return !tree.Same(cur, was)
}

func reduceResetValues(s State, a resetValuesAction) (State, bool) {
	if s.Validating {
		return s, false
	}
	if len(a.paths) == 0 {
		s.Values = tree.CloneRecord(s.InitialValues)
		s.Modified = cloneFlags(s.InitialModified)
		s.NeedValidation = false
		s.pending = nil
		s.Validated = false
		s.ValidateError = nil
		s.Submitted = false
		s.SubmitError = nil
		s.SubmitResult = nil
		return s, true
	}
	var root any = s.Values
	modified := s.Modified
	for _, w := range a.paths {
		v := fieldpath.Undefined
		if was, ok := w.path.Resolve(s.InitialValues); ok {
			v = tree.Clone(was)
		}
		root = w.path.Build(v, root)
		modified = tree.Drop(modified, w.key)
		modified[w.key] = false
	}
	s.Values, _ = root.(map[string]any)
	if s.Values == nil {
		s.Values = map[string]any{}
	}
	s.Modified = modified
	s.Validated = false
	return s, true
}

func reduceRemoveValues(s State, a removeValuesAction) State {
	var cur, initial any = s.Values, s.InitialValues
	for _, w := range a.paths {
		cur = w.path.Build(fieldpath.Undefined, cur)
		initial = w.path.Build(fieldpath.Undefined, initial)
		s.Errors = tree.Drop(s.Errors, w.key)
		s.InitialErrors = tree.Drop(s.InitialErrors, w.key)
		s.Modified = tree.Drop(s.Modified, w.key)
		s.InitialModified = tree.Drop(s.InitialModified, w.key)
		s.Touched = tree.Drop(s.Touched, w.key)
		s.InitialTouched = tree.Drop(s.InitialTouched, w.key)
	}
	s.Values = asRecord(cur)
	s.InitialValues = asRecord(initial)
	return s
}

func reduceSubmitSuccess(s State, a submitSuccessAction) State {
	s.Submitting = false
	s.Submitted = true
	s.SubmitResult = a.result
	s.SubmitCount = 0
	switch a.after {
	case AfterSubmitClear:
		s.Values = map[string]any{}
		s.Errors = ErrorMap{}
		s.Modified = FlagMap{}
		s.Touched = FlagMap{}
		s.Validated = false
	case AfterSubmitInitialize:
		// the submitted snapshot, after trim and nullify, becomes the new baseline
		s.Values = tree.CloneRecord(a.submitted)
		s.InitialValues = tree.CloneRecord(a.submitted)
		s.Modified = FlagMap{}
		s.InitialModified = FlagMap{}
		s.Touched = FlagMap{}
		s.InitialTouched = FlagMap{}
	case AfterSubmitReset:
		s.Values = tree.CloneRecord(s.InitialValues)
		s.Modified = cloneFlags(s.InitialModified)
		s.Touched = cloneFlags(s.InitialTouched)
		s.Validated = false
	case AfterSubmitKeep:
	}
	return s
}

func endValidation(s *State) {
	if s.disabledByValidation {
		s.Disabled = false
		s.disabledByValidation = false
	}
}

func flagsOf(s *State, kind flagKind) *FlagMap {
	if kind == flagTouched {
		return &s.Touched
	}
	return &s.Modified
}

func restoreErrors(cur, initial ErrorMap, keys []string) ErrorMap {
	if keys == nil {
		return cloneErrors(initial)
	}
	out := maps.Clone(cur)
	if out == nil {
		out = ErrorMap{}
	}
	for _, k := range keys {
		if v, ok := initial[k]; ok {
			out[k] = tree.Clone(v)
		} else {
			delete(out, k)
		}
	}
	return out
}

func restoreFlags(cur, initial FlagMap, keys []string) FlagMap {
	if keys == nil {
		return cloneFlags(initial)
	}
	out := cloneFlags(cur)
	for _, k := range keys {
		if v, ok := initial[k]; ok {
			out[k] = v
		} else {
			delete(out, k)
		}
	}
	return out
}

func asRecord(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}
