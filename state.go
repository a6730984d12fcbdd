package goform

import (
	"fmt"
	"maps"
	"sort"
	"strings"

	"github.com/reoring/goform/fieldpath"
	"github.com/reoring/goform/internal/tree"
)

// ErrorMap maps canonical field paths to error values. Only entries holding
// an actual error are ever stored; see IsNoError.
type ErrorMap map[string]any

// Error summarizes the first few entries so an ErrorMap can be returned as
// an error when validation blocks a submission.
func (m ErrorMap) Error() string {
	if len(m) == 0 {
		return ""
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	const maxShown = 3
	b := &strings.Builder{}
	for i, k := range keys {
		if i == maxShown {
			fmt.Fprintf(b, "; ... (total %d)", len(keys))
			break
		}
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(b, "%s: %v", k, m[k])
	}
	return b.String()
}

// Has reports whether the map holds at least one error.
func (m ErrorMap) Has() bool { return len(m) > 0 }

// FlagMap maps canonical field paths to a boolean status (modified, touched).
// A false entry and a missing entry read the same.
type FlagMap map[string]bool

// Any is the form-level OR-reduction.
func (m FlagMap) Any() bool {
	for _, v := range m {
		if v {
			return true
		}
	}
	return false
}

// IsNoError reports whether v means "no error": nil, false, or
// fieldpath.Undefined.
func IsNoError(v any) bool {
	if v == nil || fieldpath.IsUndefined(v) {
		return true
	}
	b, ok := v.(bool)
	return ok && !b
}

// filterErrors drops every entry that is not an error.
func filterErrors(m map[string]any) ErrorMap {
	out := make(ErrorMap, len(m))
	for k, v := range m {
		if IsNoError(v) {
			continue
		}
		out[k] = v
	}
	return out
}

// State is the form lifecycle record. The form transitions it atomically per
// action; callers only ever see copies.
type State struct {
	Values        map[string]any
	InitialValues map[string]any

	Errors          ErrorMap
	InitialErrors   ErrorMap
	Modified        FlagMap
	InitialModified FlagMap
	Touched         FlagMap
	InitialTouched  FlagMap

	Initialized bool
	Disabled    bool

	Loading   bool
	Loaded    bool
	LoadError error

	NeedValidation bool
	Validating     bool
	Validated      bool
	ValidateError  error

	Submitting   bool
	Submitted    bool
	SubmitError  error
	SubmitResult any
	SubmitCount  int

	// pending holds the paths a scheduled validation will cover; nil
	// together with NeedValidation means the whole form.
	pending FlagMap
	// validateGen identifies the latest validation run.
	validateGen uint64
	// disabledByValidation records that Disabled was set on validation
	// start and must be cleared when it ends.
	disabledByValidation bool
}

// HasError reports whether any field holds an error.
func (s State) HasError() bool { return len(s.Errors) > 0 }

// IsModified is the form-level modified flag.
func (s State) IsModified() bool { return s.Modified.Any() }

// IsTouched is the form-level touched flag.
func (s State) IsTouched() bool { return s.Touched.Any() }

// clone deep-copies every container so the copy shares nothing mutable
// with s.
func (s State) clone() State {
	out := s
	out.Values = tree.CloneRecord(s.Values)
	out.InitialValues = tree.CloneRecord(s.InitialValues)
	out.Errors = cloneErrors(s.Errors)
	out.InitialErrors = cloneErrors(s.InitialErrors)
	out.Modified = cloneFlags(s.Modified)
	out.InitialModified = cloneFlags(s.InitialModified)
	out.Touched = cloneFlags(s.Touched)
	out.InitialTouched = cloneFlags(s.InitialTouched)
	out.pending = maps.Clone(s.pending)
	return out
}

func cloneErrors(m ErrorMap) ErrorMap {
	out := make(ErrorMap, len(m))
	for k, v := range m {
		out[k] = tree.Clone(v)
	}
	return out
}

func cloneFlags(m FlagMap) FlagMap {
	out := make(FlagMap, len(m))
	maps.Copy(out, m)
	return out
}

// pendingCovers reports whether a scheduled validation covers path.
func (s State) pendingCovers(path string) bool {
	if !s.NeedValidation {
		return false
	}
	if s.pending == nil {
		return true
	}
	for p := range s.pending {
		if fieldpath.Within(path, p) {
			return true
		}
	}
	return false
}
