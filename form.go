package goform

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/reoring/goform/fieldpath"
	"github.com/reoring/goform/internal/debounce"
	"github.com/reoring/goform/internal/tree"
)

var (
	// ErrClosed is returned by every mutation after Close.
	ErrClosed = errors.New("goform: form is closed")
	// ErrValidating rejects value rollbacks while a validation is in flight.
	ErrValidating = errors.New("goform: validation in progress")
	// ErrSubmitting rejects a submission while another one is in flight.
	ErrSubmitting = errors.New("goform: submission in progress")
	// ErrSubmitMissing is returned by Submit when no SubmitFunc is configured.
	ErrSubmitMissing = errors.New("goform: no submit function configured")
	// ErrNoLoader is returned by Load when no LoadFunc is configured.
	ErrNoLoader = errors.New("goform: no load function configured")
	// ErrNotArray is returned by list operations on a non-sequence value.
	ErrNotArray = errors.New("goform: value is not a sequence")
	// ErrIndexOutOfRange is returned by list operations on a bad index.
	ErrIndexOutOfRange = errors.New("goform: index out of range")
	// ErrCollaboratorPanic wraps a panic raised by a collaborator function.
	ErrCollaboratorPanic = errors.New("goform: collaborator panicked")
)

// Form is one form session. It exclusively owns the value, error and status
// maps; every mutation is folded through a single serialized update path.
// A Form is safe for concurrent use.
type Form struct {
	cfg Config
	log *slog.Logger
	pol policy

	mu       sync.Mutex
	state    State
	closed   bool
	queue    []func()
	draining bool

	watchers map[string]*watcher
	subs     map[ulid.ULID]func(State)
	fields   map[string]fieldpath.Path

	validateDeb *debounce.Debouncer
	submitDeb   *debounce.Debouncer
	// requested accumulates paths for the next debounced validation;
	// requestAll widens it to the whole form.
	requested  map[string]bool
	requestAll bool
}

// New creates a form session seeded from cfg. Initial error, touched and
// modified keys are canonicalized; a malformed key is a *fieldpath.SyntaxError.
func New(cfg Config) (*Form, error) {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	if cfg.Parser == nil {
		cfg.Parser = PassthroughParser
	}
	errs, err := canonicalMap(cfg.InitialErrors)
	if err != nil {
		return nil, err
	}
	touched, err := canonicalMap(cfg.InitialTouched)
	if err != nil {
		return nil, err
	}
	modified, err := canonicalMap(cfg.InitialModified)
	if err != nil {
		return nil, err
	}
	if cfg.OnLoad != nil && cfg.InitialValues != nil {
		log.Warn("goform: both OnLoad and InitialValues are set; Load replaces the initial values")
	}
	f := &Form{
		cfg:         cfg,
		log:         log,
		pol:         policy{keepErrorsWhilePending: cfg.KeepErrorsWhilePending},
		watchers:    map[string]*watcher{},
		subs:        map[ulid.ULID]func(State){},
		fields:      map[string]fieldpath.Path{},
		validateDeb: debounce.New(cfg.ValidateDelay),
		submitDeb:   debounce.New(cfg.SubmitDelay),
	}
	f.dispatch(initAction{
		values:   cfg.InitialValues,
		errors:   filterErrors(errs),
		touched:  FlagMap(touched),
		modified: FlagMap(modified),
	})
	return f, nil
}

func canonicalMap[V any](m map[string]V) (map[string]V, error) {
	out := make(map[string]V, len(m))
	for k, v := range m {
		c, err := fieldpath.Canonical(k)
		if err != nil {
			return nil, err
		}
		out[c] = v
	}
	return out, nil
}

// canonicalKeys canonicalizes paths, preserving order and dropping
// duplicates. A nil input stays nil so callers can tell "all" from "none".
func canonicalKeys(paths []string) ([]write, error) {
	if paths == nil {
		return nil, nil
	}
	out := make([]write, 0, len(paths))
	seen := make(map[string]bool, len(paths))
	for _, s := range paths {
		p, err := fieldpath.Parse(s)
		if err != nil {
			return nil, err
		}
		k := p.String()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, write{path: p, key: k})
	}
	return out, nil
}

func keysOf(ws []write) []string {
	if ws == nil {
		return nil
	}
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.key
	}
	return out
}

// dispatch folds a into the state. It returns the resulting state, which
// callers must treat as read-only, and whether anything changed.
func (f *Form) dispatch(a action) (State, bool) {
	st, changed, _ := f.dispatchIf(nil, a)
	return st, changed
}

// dispatchIf is dispatch with a precondition evaluated under the lock.
func (f *Form) dispatchIf(check func(State) error, a action) (State, bool, error) {
	f.mu.Lock()
	if f.closed {
		st := f.state
		f.mu.Unlock()
		return st, false, ErrClosed
	}
	if check != nil {
		if err := check(f.state); err != nil {
			st := f.state
			f.mu.Unlock()
			return st, false, err
		}
	}
	prev := f.state
	next, changed := reduce(prev, a, f.pol)
	if changed {
		f.state = next
		f.enqueueLocked(prev, next, a)
	}
	f.mu.Unlock()
	f.drain()
	return next, changed, nil
}

// enqueueLocked queues the notifications a transition produces. Payloads
// are copied here so callbacks never observe later transitions.
func (f *Form) enqueueLocked(prev, next State, a action) {
	if !tree.Same(prev.Values, next.Values) {
		if events := f.watchEventsLocked(prev, next, writtenKeys(a)); len(events) > 0 {
			f.queue = append(f.queue, func() { f.emit(events) })
		}
		if cb := f.cfg.OnValuesChange; cb != nil {
			nv, pv := tree.CloneRecord(next.Values), tree.CloneRecord(prev.Values)
			f.queue = append(f.queue, func() { cb(nv, pv) })
		}
	}
	if len(f.subs) == 0 {
		return
	}
	if f.cfg.Mode == Uncontrolled && !forced(a) {
		return
	}
	ids := slices.SortedFunc(maps.Keys(f.subs), func(a, b ulid.ULID) int { return a.Compare(b) })
	fns := make([]func(State), len(ids))
	for i, id := range ids {
		fns[i] = f.subs[id]
	}
	snap := next.clone()
	f.queue = append(f.queue, func() {
		for _, fn := range fns {
			f.safeCall("subscriber", func() { fn(snap) })
		}
	})
}

// drain delivers queued notifications outside the lock, in order. Only one
// goroutine drains at a time; reentrant dispatches enqueue and return.
func (f *Form) drain() {
	f.mu.Lock()
	if f.draining {
		f.mu.Unlock()
		return
	}
	f.draining = true
	for len(f.queue) > 0 {
		job := f.queue[0]
		f.queue = f.queue[1:]
		f.mu.Unlock()
		f.safeCall("notify", job)
		f.mu.Lock()
	}
	f.queue = nil
	f.draining = false
	f.mu.Unlock()
}

func (f *Form) safeCall(op string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			f.log.Error("goform: callback panicked", "op", op, "panic", r)
		}
	}()
	fn()
}

// call runs a collaborator and turns a panic into an error.
func (f *Form) call(op string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", ErrCollaboratorPanic, op, r)
		}
	}()
	return fn()
}

// reject logs operational misuse and returns err unchanged.
func (f *Form) reject(op, path string, err error) error {
	if path != "" {
		f.log.Warn("goform: operation rejected", "op", op, "path", path, "err", err)
	} else {
		f.log.Warn("goform: operation rejected", "op", op, "err", err)
	}
	return err
}

// current returns the live state. Its containers are shared and must not
// be mutated or handed out.
func (f *Form) current() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Snapshot returns a deep copy of the whole lifecycle state.
func (f *Form) Snapshot() State {
	return f.current().clone()
}

// Subscribe registers fn to receive state snapshots. In Controlled mode fn
// runs after every transition; in Uncontrolled mode only after forced ones.
// The returned function unsubscribes and is safe to call more than once.
func (f *Form) Subscribe(fn func(State)) (unsubscribe func()) {
	id := ulid.Make()
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return func() {}
	}
	f.subs[id] = fn
	f.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
		})
	}
}

// ForceUpdate publishes the current state to subscribers regardless of mode.
func (f *Form) ForceUpdate() error {
	_, _, err := f.dispatchIf(nil, forceUpdateAction{})
	return err
}

// SetDisabled sets the form-level disabled flag.
func (f *Form) SetDisabled(disabled bool) error {
	_, _, err := f.dispatchIf(nil, setDisabledAction{disabled: disabled})
	return err
}

// IsDisabled reports the form-level disabled flag.
func (f *Form) IsDisabled() bool { return f.current().Disabled }

// Reset restores values, errors, touched and modified to their initial
// snapshots and clears the validation and submission status. It is rejected
// while a validation is in flight.
func (f *Form) Reset() error {
	_, _, err := f.dispatchIf(func(s State) error {
		if s.Validating {
			return ErrValidating
		}
		return nil
	}, resetAction{})
	if err != nil {
		return f.reject("reset", "", err)
	}
	f.mu.Lock()
	f.requested, f.requestAll = nil, false
	f.mu.Unlock()
	return nil
}

// Close tears the session down. Pending debounced calls are cancelled and
// in-flight collaborator results are discarded. Close is idempotent.
func (f *Form) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	f.watchers = map[string]*watcher{}
	f.subs = map[ulid.ULID]func(State){}
	vd, sd := f.validateDeb, f.submitDeb
	f.mu.Unlock()
	vd.Stop()
	sd.Stop()
}
