package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/reoring/goform"
	"github.com/reoring/goform/config"
)

const yamlDoc = `
mode: uncontrolled
nullify: true
trim_on_submit: true
validate_delay: 300ms
submit_delay: 250
after_submit: reset
validate_on_change: true
keep_errors_while_pending: true
initial_values:
  user:
    name: a
  tags: [x, y]
initial_errors:
  user.name: taken
initial_touched:
  user.name: true
`

const hclDoc = `
mode                      = "uncontrolled"
nullify                   = true
trim_on_submit            = true
validate_delay            = "300ms"
submit_delay              = 250
after_submit              = "reset"
validate_on_change        = true
keep_errors_while_pending = true

initial_values = {
  user = { name = "a" }
  tags = ["x", "y"]
}
initial_errors = {
  "user.name" = "taken"
}
initial_touched = {
  "user.name" = true
}
`

func checkApplied(t *testing.T, f *config.File) {
	t.Helper()
	var cfg goform.Config
	require.NoError(t, f.Apply(&cfg))

	require.Equal(t, goform.Uncontrolled, cfg.Mode)
	require.Equal(t, goform.AfterSubmitReset, cfg.AfterSubmit)
	require.True(t, cfg.Nullify)
	require.True(t, cfg.TrimOnSubmit)
	require.True(t, cfg.ValidateOnChange)
	require.True(t, cfg.KeepErrorsWhilePending)
	require.False(t, cfg.DisableWhileValidating)
	require.Equal(t, 300*time.Millisecond, cfg.ValidateDelay)
	require.Equal(t, 250*time.Millisecond, cfg.SubmitDelay)

	want := map[string]any{"user": map[string]any{"name": "a"}, "tags": []any{"x", "y"}}
	if diff := cmp.Diff(want, cfg.InitialValues); diff != "" {
		t.Fatalf("initial values (-want +got):\n%s", diff)
	}
	require.Equal(t, map[string]any{"user.name": "taken"}, cfg.InitialErrors)
	require.Equal(t, map[string]bool{"user.name": true}, cfg.InitialTouched)
	require.Nil(t, cfg.InitialModified)

	form, err := goform.New(cfg)
	require.NoError(t, err)
	defer form.Close()
	e, err := form.GetError("user.name")
	require.NoError(t, err)
	require.Equal(t, "taken", e)
}

func TestLoadYAML(t *testing.T) {
	f, err := config.LoadYAML([]byte(yamlDoc))
	require.NoError(t, err)
	checkApplied(t, f)
}

func TestLoadHCL(t *testing.T) {
	f, err := config.LoadHCL([]byte(hclDoc), "form.hcl")
	require.NoError(t, err)
	checkApplied(t, f)
}

func TestLoadHCL_WholeNumbersAreIntegers(t *testing.T) {
	f, err := config.LoadHCL([]byte(`initial_values = { qty = 3, price = 1.5 }`), "form.hcl")
	require.NoError(t, err)
	require.Equal(t, map[string]any{"qty": int64(3), "price": 1.5}, f.InitialValues)
}

func TestLoadYAML_Empty(t *testing.T) {
	f, err := config.LoadYAML(nil)
	require.NoError(t, err)
	var cfg goform.Config
	require.NoError(t, f.Apply(&cfg))
	require.Equal(t, goform.Controlled, cfg.Mode)
	require.Zero(t, cfg.ValidateDelay)
}

func TestLoadYAML_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown key", "validate_dealy: 1s\n"},
		{"bad duration", "validate_delay: soon\n"},
		{"negative duration", "validate_delay: -1s\n"},
		{"bad type", "nullify: [1]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.LoadYAML([]byte(tt.doc))
			require.Error(t, err)
		})
	}
}

func TestLoadHCL_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"syntax", `mode = `},
		{"unknown attribute", `modee = "controlled"`},
		{"bad duration", `validate_delay = true`},
		{"non-object initial values", `initial_values = ["a"]`},
		{"non-bool touched", `initial_touched = { a = "yes" }`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.LoadHCL([]byte(tt.doc), "form.hcl")
			require.Error(t, err)
		})
	}
}

func TestApply_RejectsUnknownEnums(t *testing.T) {
	var cfg goform.Config
	require.Error(t, (&config.File{Mode: "sometimes"}).Apply(&cfg))
	require.Error(t, (&config.File{AfterSubmit: "explode"}).Apply(&cfg))
}

func TestApply_KeepsCollaborators(t *testing.T) {
	cfg := goform.Config{
		InitialValues: map[string]any{"a": 1},
		Submit:        func(context.Context, map[string]any) (any, error) { return nil, nil },
	}
	require.NoError(t, (&config.File{}).Apply(&cfg))
	require.NotNil(t, cfg.Submit)
	require.Equal(t, map[string]any{"a": 1}, cfg.InitialValues)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	for name, doc := range map[string]string{"form.yaml": yamlDoc, "form.hcl": hclDoc} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
		f, err := config.LoadFile(path)
		require.NoError(t, err, name)
		checkApplied(t, f)
	}

	path := filepath.Join(dir, "form.toml")
	require.NoError(t, os.WriteFile(path, nil, 0o600))
	_, err := config.LoadFile(path)
	require.Error(t, err)
}
