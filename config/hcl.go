package config

import (
	"fmt"
	"math/big"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// hclFile mirrors File for gohcl. Free-form values stay cty.Value until
// they are converted to value trees.
type hclFile struct {
	Mode                   string    `hcl:"mode,optional"`
	Nullify                bool      `hcl:"nullify,optional"`
	TrimOnSubmit           bool      `hcl:"trim_on_submit,optional"`
	ValidateDelay          cty.Value `hcl:"validate_delay,optional"`
	SubmitDelay            cty.Value `hcl:"submit_delay,optional"`
	AfterSubmit            string    `hcl:"after_submit,optional"`
	Reinitialize           bool      `hcl:"reinitialize,optional"`
	ValidateOnChange       bool      `hcl:"validate_on_change,optional"`
	KeepErrorsWhilePending bool      `hcl:"keep_errors_while_pending,optional"`
	DisableWhileValidating bool      `hcl:"disable_while_validating,optional"`

	InitialValues   cty.Value `hcl:"initial_values,optional"`
	InitialErrors   cty.Value `hcl:"initial_errors,optional"`
	InitialTouched  cty.Value `hcl:"initial_touched,optional"`
	InitialModified cty.Value `hcl:"initial_modified,optional"`
}

// LoadHCL decodes an HCL configuration document. filename is only used in
// diagnostics.
func LoadHCL(data []byte, filename string) (*File, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("config: failed to parse HCL file %s: %w", filename, diags)
	}
	var raw hclFile
	if diags := gohcl.DecodeBody(file.Body, nil, &raw); diags.HasErrors() {
		return nil, fmt.Errorf("config: failed to decode HCL file %s: %w", filename, diags)
	}

	out := &File{
		Mode:                   raw.Mode,
		Nullify:                raw.Nullify,
		TrimOnSubmit:           raw.TrimOnSubmit,
		AfterSubmit:            raw.AfterSubmit,
		Reinitialize:           raw.Reinitialize,
		ValidateOnChange:       raw.ValidateOnChange,
		KeepErrorsWhilePending: raw.KeepErrorsWhilePending,
		DisableWhileValidating: raw.DisableWhileValidating,
	}
	var err error
	if out.ValidateDelay, err = ctyDuration(raw.ValidateDelay); err != nil {
		return nil, fmt.Errorf("config: validate_delay: %w", err)
	}
	if out.SubmitDelay, err = ctyDuration(raw.SubmitDelay); err != nil {
		return nil, fmt.Errorf("config: submit_delay: %w", err)
	}
	if out.InitialValues, err = ctyRecord(raw.InitialValues); err != nil {
		return nil, fmt.Errorf("config: initial_values: %w", err)
	}
	if out.InitialErrors, err = ctyRecord(raw.InitialErrors); err != nil {
		return nil, fmt.Errorf("config: initial_errors: %w", err)
	}
	if out.InitialTouched, err = ctyFlags(raw.InitialTouched); err != nil {
		return nil, fmt.Errorf("config: initial_touched: %w", err)
	}
	if out.InitialModified, err = ctyFlags(raw.InitialModified); err != nil {
		return nil, fmt.Errorf("config: initial_modified: %w", err)
	}
	return out, nil
}

func isAbsent(v cty.Value) bool {
	return !v.IsKnown() || v.IsNull()
}

func ctyDuration(v cty.Value) (Duration, error) {
	if isAbsent(v) {
		return 0, nil
	}
	switch v.Type() {
	case cty.String:
		return parseDuration(v.AsString())
	case cty.Number:
		ms, _ := v.AsBigFloat().Int64()
		return Duration(time.Duration(ms) * time.Millisecond), nil
	}
	return 0, fmt.Errorf("expected a duration string or milliseconds, got %s", v.Type().FriendlyName())
}

func ctyRecord(v cty.Value) (map[string]any, error) {
	if isAbsent(v) {
		return nil, nil
	}
	out, err := ctyValueToInterface(v)
	if err != nil {
		return nil, err
	}
	m, ok := out.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected an object, got %s", v.Type().FriendlyName())
	}
	return m, nil
}

func ctyFlags(v cty.Value) (map[string]bool, error) {
	m, err := ctyRecord(v)
	if err != nil || m == nil {
		return nil, err
	}
	out := make(map[string]bool, len(m))
	for k, e := range m {
		b, ok := e.(bool)
		if !ok {
			return nil, fmt.Errorf("%s: expected a bool, got %T", k, e)
		}
		out[k] = b
	}
	return out, nil
}

// ctyValueToInterface converts a cty.Value to a value tree node. Whole
// numbers become int64, other numbers float64.
func ctyValueToInterface(val cty.Value) (any, error) {
	if !val.IsKnown() || val.IsNull() {
		return nil, nil
	}
	ty := val.Type()
	if ty.IsPrimitiveType() {
		switch ty {
		case cty.String:
			return val.AsString(), nil
		case cty.Number:
			bf := val.AsBigFloat()
			if bf.IsInt() {
				if i, acc := bf.Int64(); acc == big.Exact {
					return i, nil
				}
			}
			f, _ := bf.Float64()
			return f, nil
		case cty.Bool:
			return val.True(), nil
		default:
			return nil, fmt.Errorf("unsupported primitive type: %s", ty.FriendlyName())
		}
	}
	if ty.IsObjectType() || ty.IsMapType() {
		out := make(map[string]any)
		for it := val.ElementIterator(); it.Next(); {
			k, v := it.Element()
			e, err := ctyValueToInterface(v)
			if err != nil {
				return nil, err
			}
			out[k.AsString()] = e
		}
		return out, nil
	}
	if ty.IsTupleType() || ty.IsListType() || ty.IsSetType() {
		out := make([]any, 0, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			_, v := it.Element()
			e, err := ctyValueToInterface(v)
			if err != nil {
				return nil, err
			}
			out = append(out, e)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported cty.Type for conversion: %s", ty.FriendlyName())
}
