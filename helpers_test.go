package goform_test

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/reoring/goform"
)

// recordHandler captures log records for assertions.
type recordHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *recordHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	h.records = append(h.records, r.Clone())
	h.mu.Unlock()
	return nil
}

func (h *recordHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordHandler) WithGroup(string) slog.Handler      { return h }

// warned reports whether a warning carrying op was logged.
func (h *recordHandler) warned(op string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, r := range h.records {
		if r.Level != slog.LevelWarn {
			continue
		}
		found := false
		r.Attrs(func(a slog.Attr) bool {
			if a.Key == "op" && a.Value.String() == op {
				found = true
				return false
			}
			return true
		})
		if found {
			return true
		}
	}
	return false
}

func (h *recordHandler) messages() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var b strings.Builder
	for _, r := range h.records {
		b.WriteString(r.Message)
		b.WriteString("\n")
	}
	return b.String()
}

func newForm(t *testing.T, cfg goform.Config) (*goform.Form, *recordHandler) {
	t.Helper()
	h := &recordHandler{}
	cfg.Logger = slog.New(h)
	f, err := goform.New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(f.Close)
	return f, h
}

func mustValue(t *testing.T, f *goform.Form, path string) any {
	t.Helper()
	v, ok, err := f.LookupValue(path)
	if err != nil {
		t.Fatalf("LookupValue(%q): %v", path, err)
	}
	if !ok {
		t.Fatalf("LookupValue(%q): not set", path)
	}
	return v
}

// blockingValidator returns a form-level validator whose calls block until
// released. entered receives once per call.
type blockingValidator struct {
	entered chan struct{}
	release chan struct{}
	result  goform.ErrorMap
}

func newBlockingValidator(result goform.ErrorMap) *blockingValidator {
	return &blockingValidator{entered: make(chan struct{}, 8), release: make(chan struct{}), result: result}
}

func (b *blockingValidator) validate(ctx context.Context, _ map[string]any, _ goform.FlagMap) (goform.ErrorMap, error) {
	b.entered <- struct{}{}
	<-b.release
	return b.result, nil
}
