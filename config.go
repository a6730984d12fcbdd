package goform

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Mode selects how eagerly subscribers see state changes.
type Mode int

const (
	// Controlled publishes a snapshot to subscribers after every mutation.
	Controlled Mode = iota
	// Uncontrolled publishes only for forced updates (structural list
	// changes, ForceUpdate options, ForceUpdate calls). Reads always see
	// the latest state.
	Uncontrolled
)

func (m Mode) String() string {
	switch m {
	case Controlled:
		return "controlled"
	case Uncontrolled:
		return "uncontrolled"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode parses "controlled" or "uncontrolled". The empty string is
// Controlled.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "controlled":
		return Controlled, nil
	case "uncontrolled":
		return Uncontrolled, nil
	}
	return Controlled, fmt.Errorf("goform: unknown mode %q", s)
}

// AfterSubmit selects what happens to values after a successful submission.
type AfterSubmit int

const (
	AfterSubmitKeep       AfterSubmit = iota // leave values untouched
	AfterSubmitClear                         // blank current values
	AfterSubmitInitialize                    // submitted values become the initial values
	AfterSubmitReset                         // restore the pre-submission initial values
)

func (a AfterSubmit) String() string {
	switch a {
	case AfterSubmitKeep:
		return ""
	case AfterSubmitClear:
		return "clear"
	case AfterSubmitInitialize:
		return "initialize"
	case AfterSubmitReset:
		return "reset"
	}
	return fmt.Sprintf("AfterSubmit(%d)", int(a))
}

// ParseAfterSubmit parses "clear", "initialize", "reset" or "" (keep).
func ParseAfterSubmit(s string) (AfterSubmit, error) {
	switch s {
	case "", "none", "null":
		return AfterSubmitKeep, nil
	case "clear":
		return AfterSubmitClear, nil
	case "initialize":
		return AfterSubmitInitialize, nil
	case "reset":
		return AfterSubmitReset, nil
	}
	return AfterSubmitKeep, fmt.Errorf("goform: unknown afterSubmit %q", s)
}

// LoadFunc supplies initial values asynchronously.
type LoadFunc func(ctx context.Context) (map[string]any, error)

// ValidateFunc validates the whole form. A nil or empty map means valid.
type ValidateFunc func(ctx context.Context, values map[string]any, modified FlagMap) (ErrorMap, error)

// ValidateFieldFunc validates a single field. A nil result (or any value
// accepted by IsNoError) means valid.
type ValidateFieldFunc func(ctx context.Context, path string, value any, values map[string]any) (any, error)

// SubmitFunc hands the prepared values to the outside world.
type SubmitFunc func(ctx context.Context, values map[string]any) (any, error)

// Config bundles the collaborators and options of a form session.
type Config struct {
	InitialValues   map[string]any
	InitialErrors   map[string]any
	InitialTouched  map[string]bool
	InitialModified map[string]bool

	OnLoad        LoadFunc
	Validate      ValidateFunc
	ValidateField ValidateFieldFunc
	Submit        SubmitFunc

	// OnValuesChange observes every change of the values tree.
	OnValuesChange func(next, prev map[string]any)
	// OnSuccess observes successful submissions with the submitted values.
	OnSuccess func(result any, values map[string]any)
	// Parser turns raw input handed to Field.HandleChange into a value.
	// Defaults to PassthroughParser.
	Parser ValueParser

	Mode Mode
	// Nullify stores nil instead of the empty string on value writes and in
	// the submitted snapshot.
	Nullify bool
	// TrimOnSubmit trims string values in the submitted snapshot only.
	TrimOnSubmit  bool
	ValidateDelay time.Duration
	SubmitDelay   time.Duration
	AfterSubmit   AfterSubmit
	// Reinitialize lets UpdateInitialValues re-seed the form.
	Reinitialize bool
	// ValidateOnChange schedules a debounced validation of written paths.
	ValidateOnChange bool
	// KeepErrorsWhilePending keeps a field's error on write while a
	// scheduled validation covers that field, avoiding error flicker.
	KeepErrorsWhilePending bool
	// DisableWhileValidating marks the form disabled during validation.
	DisableWhileValidating bool

	Logger *slog.Logger
}

func (c Config) hasValidator() bool { return c.Validate != nil || c.ValidateField != nil }
