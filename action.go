package goform

import "github.com/reoring/goform/fieldpath"

// action is the closed set of state transitions folded by reduce.
//
//sumtype:decl
type action interface{ isAction() }

// write is a single value assignment at a canonical path.
type write struct {
	path  fieldpath.Path
	key   string
	value any
}

// flagKind selects one of the two status maps.
type flagKind int

const (
	flagModified flagKind = iota
	flagTouched
)

type (
	initAction struct {
		values   map[string]any
		errors   ErrorMap
		touched  FlagMap
		modified FlagMap
	}

	loadStartAction   struct{}
	loadSuccessAction struct{ values map[string]any }
	loadFailAction    struct{ err error }

	setValuesAction struct {
		writes []write
		// replace swaps in a whole new tree; writes then only lists the
		// top-level keys for modified/error bookkeeping.
		replace        map[string]any
		updateModified bool
		skipUnchanged  bool
		schedule       bool
		force          bool
	}

	resetValuesAction  struct{ paths []write }
	removeValuesAction struct{ paths []write }
	setInitialValues   struct{ values map[string]any }

	setErrorsAction struct {
		errors  ErrorMap
		partial bool
		force   bool
	}
	clearErrorsAction struct{ keys []string }
	resetErrorsAction struct{ keys []string }

	setFlagsAction struct {
		kind    flagKind
		flags   FlagMap
		partial bool
	}
	clearFlagsAction struct {
		kind flagKind
		keys []string
	}
	resetFlagsAction struct {
		kind flagKind
		keys []string
	}

	setDisabledAction struct{ disabled bool }

	validateStartAction struct {
		disable bool
	}
	validateDoneAction struct {
		gen    uint64
		errors ErrorMap
		// keys limits the merge to the validated paths; nil replaces the
		// whole error map.
		keys []string
	}
	validateFailAction struct {
		gen uint64
		err error
	}

	submitStartAction   struct{}
	submitSuccessAction struct {
		result    any
		after     AfterSubmit
		submitted map[string]any
	}
	submitFailAction struct{ err error }

	listAction struct {
		path fieldpath.Path
		key  string
		op   listOp
	}

	resetAction       struct{}
	forceUpdateAction struct{}
)

func (initAction) isAction()          {}
func (loadStartAction) isAction()     {}
func (loadSuccessAction) isAction()   {}
func (loadFailAction) isAction()      {}
func (setValuesAction) isAction()     {}
func (resetValuesAction) isAction()   {}
func (removeValuesAction) isAction()  {}
func (setInitialValues) isAction()    {}
func (setErrorsAction) isAction()     {}
func (clearErrorsAction) isAction()   {}
func (resetErrorsAction) isAction()   {}
func (setFlagsAction) isAction()      {}
func (clearFlagsAction) isAction()    {}
func (resetFlagsAction) isAction()    {}
func (setDisabledAction) isAction()   {}
func (validateStartAction) isAction() {}
func (validateDoneAction) isAction()  {}
func (validateFailAction) isAction()  {}
func (submitStartAction) isAction()   {}
func (submitSuccessAction) isAction() {}
func (submitFailAction) isAction()    {}
func (listAction) isAction()          {}
func (resetAction) isAction()         {}
func (forceUpdateAction) isAction()   {}

// forced reports whether an action must reach subscribers even in
// Uncontrolled mode.
func forced(a action) bool {
	switch a := a.(type) {
	case setValuesAction:
		return a.force
	case setErrorsAction:
		return a.force
	case listAction, forceUpdateAction, initAction, resetAction:
		return true
	}
	return false
}

// writtenKeys lists the paths an action writes, in input order. The watch
// bus emits in this order.
func writtenKeys(a action) []string {
	switch a := a.(type) {
	case setValuesAction:
		out := make([]string, len(a.writes))
		for i, w := range a.writes {
			out[i] = w.key
		}
		return out
	case resetValuesAction:
		out := make([]string, len(a.paths))
		for i, w := range a.paths {
			out[i] = w.key
		}
		return out
	case removeValuesAction:
		out := make([]string, len(a.paths))
		for i, w := range a.paths {
			out[i] = w.key
		}
		return out
	case listAction:
		return []string{a.key}
	}
	return nil
}
