// Package config loads the serializable part of a goform.Config from YAML or
// HCL files. Collaborator functions cannot be expressed in a file; they are
// set in code and the file only carries options and initial state.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/reoring/goform"
	"github.com/reoring/goform/source"
)

// File is the decoded form configuration file.
type File struct {
	Mode                   string   `yaml:"mode"`
	Nullify                bool     `yaml:"nullify"`
	TrimOnSubmit           bool     `yaml:"trim_on_submit"`
	ValidateDelay          Duration `yaml:"validate_delay"`
	SubmitDelay            Duration `yaml:"submit_delay"`
	AfterSubmit            string   `yaml:"after_submit"`
	Reinitialize           bool     `yaml:"reinitialize"`
	ValidateOnChange       bool     `yaml:"validate_on_change"`
	KeepErrorsWhilePending bool     `yaml:"keep_errors_while_pending"`
	DisableWhileValidating bool     `yaml:"disable_while_validating"`

	InitialValues   map[string]any  `yaml:"initial_values"`
	InitialErrors   map[string]any  `yaml:"initial_errors"`
	InitialTouched  map[string]bool `yaml:"initial_touched"`
	InitialModified map[string]bool `yaml:"initial_modified"`
}

// Duration is a time.Duration written as a Go duration string ("300ms") or
// as an integer number of milliseconds.
type Duration time.Duration

// UnmarshalYAML accepts "300ms"-style strings and integer milliseconds.
func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	var ms int64
	if err := n.Decode(&ms); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}
	var s string
	if err := n.Decode(&s); err != nil {
		return fmt.Errorf("config: line %d: duration must be a string or milliseconds", n.Line)
	}
	v, err := parseDuration(s)
	if err != nil {
		return fmt.Errorf("config: line %d: %w", n.Line, err)
	}
	*d = v
	return nil
}

func parseDuration(s string) (Duration, error) {
	if s == "" {
		return 0, nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return Duration(v), nil
}

// LoadYAML decodes a YAML configuration document. Unknown keys are errors.
func LoadYAML(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	f.InitialValues = source.NormalizeRecord(f.InitialValues)
	f.InitialErrors = source.NormalizeRecord(f.InitialErrors)
	return &f, nil
}

// LoadFile reads a .yaml, .yml or .hcl configuration file.
func LoadFile(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAML(b)
	case ".hcl":
		return LoadHCL(b, path)
	}
	return nil, fmt.Errorf("config: unsupported file extension %q", filepath.Ext(path))
}

// Apply copies the file settings onto cfg. Initial maps present in the file
// replace those in cfg; collaborators and the logger are left alone.
func (f *File) Apply(cfg *goform.Config) error {
	mode, err := goform.ParseMode(f.Mode)
	if err != nil {
		return err
	}
	after, err := goform.ParseAfterSubmit(f.AfterSubmit)
	if err != nil {
		return err
	}
	cfg.Mode = mode
	cfg.AfterSubmit = after
	cfg.Nullify = f.Nullify
	cfg.TrimOnSubmit = f.TrimOnSubmit
	cfg.ValidateDelay = time.Duration(f.ValidateDelay)
	cfg.SubmitDelay = time.Duration(f.SubmitDelay)
	cfg.Reinitialize = f.Reinitialize
	cfg.ValidateOnChange = f.ValidateOnChange
	cfg.KeepErrorsWhilePending = f.KeepErrorsWhilePending
	cfg.DisableWhileValidating = f.DisableWhileValidating
	if f.InitialValues != nil {
		cfg.InitialValues = f.InitialValues
	}
	if f.InitialErrors != nil {
		cfg.InitialErrors = f.InitialErrors
	}
	if f.InitialTouched != nil {
		cfg.InitialTouched = f.InitialTouched
	}
	if f.InitialModified != nil {
		cfg.InitialModified = f.InitialModified
	}
	return nil
}
