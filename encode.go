package goform

import (
	json "github.com/goccy/go-json"
)

type stateJSON struct {
	Values          map[string]any `json:"values"`
	InitialValues   map[string]any `json:"initialValues"`
	Errors          map[string]any `json:"errors"`
	InitialErrors   map[string]any `json:"initialErrors,omitempty"`
	Modified        FlagMap        `json:"modified"`
	InitialModified FlagMap        `json:"initialModified,omitempty"`
	Touched         FlagMap        `json:"touched"`
	InitialTouched  FlagMap        `json:"initialTouched,omitempty"`

	Initialized bool `json:"initialized"`
	Disabled    bool `json:"disabled"`
	HasError    bool `json:"hasError"`
	IsModified  bool `json:"isModified"`
	IsTouched   bool `json:"isTouched"`

	Loading   bool   `json:"loading"`
	Loaded    bool   `json:"loaded"`
	LoadError string `json:"loadError,omitempty"`

	NeedValidation bool   `json:"needValidation"`
	Validating     bool   `json:"validating"`
	Validated      bool   `json:"validated"`
	ValidateError  string `json:"validateError,omitempty"`

	Submitting   bool   `json:"submitting"`
	Submitted    bool   `json:"submitted"`
	SubmitError  string `json:"submitError,omitempty"`
	SubmitResult any    `json:"submitResult,omitempty"`
	SubmitCount  int    `json:"submitCount"`
}

// MarshalJSON encodes the state for debugging tools and server round trips.
// Error values that implement error are encoded as their message.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(stateJSON{
		Values:          nonNilRecord(s.Values),
		InitialValues:   nonNilRecord(s.InitialValues),
		Errors:          encodeErrors(s.Errors),
		InitialErrors:   encodeErrors(s.InitialErrors),
		Modified:        nonNilFlags(s.Modified),
		InitialModified: s.InitialModified,
		Touched:         nonNilFlags(s.Touched),
		InitialTouched:  s.InitialTouched,
		Initialized:     s.Initialized,
		Disabled:        s.Disabled,
		HasError:        s.HasError(),
		IsModified:      s.IsModified(),
		IsTouched:       s.IsTouched(),
		Loading:         s.Loading,
		Loaded:          s.Loaded,
		LoadError:       errString(s.LoadError),
		NeedValidation:  s.NeedValidation,
		Validating:      s.Validating,
		Validated:       s.Validated,
		ValidateError:   errString(s.ValidateError),
		Submitting:      s.Submitting,
		Submitted:       s.Submitted,
		SubmitError:     errString(s.SubmitError),
		SubmitResult:    s.SubmitResult,
		SubmitCount:     s.SubmitCount,
	})
}

func encodeErrors(m ErrorMap) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch t := v.(type) {
		case Issue:
			out[k] = t
		case error:
			out[k] = t.Error()
		default:
			out[k] = v
		}
	}
	return out
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func nonNilRecord(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func nonNilFlags(m FlagMap) FlagMap {
	if m == nil {
		return FlagMap{}
	}
	return m
}
