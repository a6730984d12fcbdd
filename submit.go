package goform

import (
	"context"
	"errors"
	"strings"

	"github.com/reoring/goform/internal/tree"
)

// Submit validates the form when a validator is configured and it is not
// validated yet, then hands a prepared copy of the values to the SubmitFunc.
// When validation finds errors the SubmitFunc is not called and the
// ErrorMap is returned as the error. A SubmitFunc failure is stored in
// SubmitError and increments SubmitCount; values and errors are kept.
func (f *Form) Submit(ctx context.Context) (any, error) {
	if f.cfg.Submit == nil {
		return nil, f.reject("submit", "", ErrSubmitMissing)
	}
	st := f.current()
	if st.Submitting {
		return nil, f.reject("submit", "", ErrSubmitting)
	}
	if f.cfg.hasValidator() && !st.Validated {
		errs, err := f.Validate(ctx)
		if err != nil {
			return nil, err
		}
		if errs.Has() {
			f.log.Debug("goform: submission blocked by validation", "errors", len(errs))
			return nil, errs
		}
	}

	st, _, err := f.dispatchIf(func(s State) error {
		if s.Submitting {
			return ErrSubmitting
		}
		return nil
	}, submitStartAction{})
	if err != nil {
		if errors.Is(err, ErrSubmitting) {
			return nil, f.reject("submit", "", err)
		}
		return nil, err
	}
	values := f.prepareSubmit(st.Values)
	f.log.Debug("goform: submission started")

	var result any
	err = f.call("submit", func() error {
		var err error
		result, err = f.cfg.Submit(ctx, tree.CloneRecord(values))
		return err
	})
	if err != nil {
		f.dispatch(submitFailAction{err: err})
		f.log.Debug("goform: submission failed", "err", err)
		return nil, err
	}
	if _, _, err := f.dispatchIf(nil, submitSuccessAction{result: result, after: f.cfg.AfterSubmit, submitted: values}); err != nil {
		return result, nil
	}
	if cb := f.cfg.OnSuccess; cb != nil {
		f.safeCall("onSuccess", func() { cb(result, values) })
	}
	return result, nil
}

// RequestSubmit schedules a debounced Submit. Calls issued within
// SubmitDelay collapse into one submission of the values current when it
// fires.
func (f *Form) RequestSubmit() error {
	f.mu.Lock()
	closed := f.closed
	f.mu.Unlock()
	if closed {
		return ErrClosed
	}
	f.submitDeb.Trigger(func() {
		if _, err := f.Submit(context.Background()); err != nil {
			f.log.Debug("goform: scheduled submission failed", "err", err)
		}
	})
	return nil
}

// FlushSubmit runs a pending debounced submission immediately. It reports
// whether one was pending.
func (f *Form) FlushSubmit() bool { return f.submitDeb.Flush() }

// prepareSubmit copies values and applies TrimOnSubmit and Nullify to the
// copy only.
func (f *Form) prepareSubmit(values map[string]any) map[string]any {
	out := tree.CloneRecord(values)
	if !f.cfg.TrimOnSubmit && !f.cfg.Nullify {
		return out
	}
	mapStrings(out, func(s string) any {
		if f.cfg.TrimOnSubmit {
			s = strings.TrimSpace(s)
		}
		if f.cfg.Nullify && s == "" {
			return nil
		}
		return s
	})
	return out
}
