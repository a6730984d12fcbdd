package goform

import (
	"context"

	"github.com/reoring/goform/internal/tree"
)

// Load calls the OnLoad collaborator and seeds the form from its result.
// The loaded values become both the current and the initial values. A
// failure is stored in LoadError and returned.
func (f *Form) Load(ctx context.Context) error {
	if f.cfg.OnLoad == nil {
		return f.reject("load", "", ErrNoLoader)
	}
	if _, _, err := f.dispatchIf(nil, loadStartAction{}); err != nil {
		return err
	}
	f.log.Debug("goform: load started")
	var values map[string]any
	err := f.call("load", func() error {
		var err error
		values, err = f.cfg.OnLoad(ctx)
		return err
	})
	if err != nil {
		f.dispatch(loadFailAction{err: err})
		f.log.Debug("goform: load failed", "err", err)
		return err
	}
	f.dispatch(loadSuccessAction{values: tree.CloneRecord(values)})
	return nil
}
