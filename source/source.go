// Package source reads and writes value trees as JSON or YAML documents, so
// a form can be seeded from fixtures, files or server payloads.
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/reoring/goform"
)

// ErrNotRecord reports a document whose root is not a record.
var ErrNotRecord = errors.New("source: document root is not a record")

// Format names a document serialization.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return FormatJSON, fmt.Errorf("source: unsupported file extension %q", filepath.Ext(path))
}

// Options tune decoding. When several are passed, the last one wins.
type Options struct {
	// UseNumber keeps JSON numbers as json.Number instead of float64.
	UseNumber bool
}

// JSON decodes a single JSON object into a value tree. Trailing data after
// the object is an error.
func JSON(r io.Reader, opts ...Options) (map[string]any, error) {
	var o Options
	if len(opts) > 0 {
		o = opts[len(opts)-1]
	}
	dec := json.NewDecoder(r)
	if o.UseNumber {
		dec.UseNumber()
	}
	var root any
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("source: decode json: %w", err)
	}
	var extra any
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, errors.New("source: decode json: trailing data after document")
	}
	return asRecord(root)
}

// YAML decodes the first YAML document into a value tree. Mappings with
// non-string keys drop those keys. An empty document is an empty record.
func YAML(r io.Reader) (map[string]any, error) {
	var root any
	if err := yaml.NewDecoder(r).Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("source: decode yaml: %w", err)
	}
	return asRecord(Normalize(root))
}

// Bytes decodes b in the given format.
func Bytes(format Format, b []byte, opts ...Options) (map[string]any, error) {
	switch format {
	case FormatJSON:
		return JSON(bytes.NewReader(b), opts...)
	case FormatYAML:
		return YAML(bytes.NewReader(b))
	}
	return nil, fmt.Errorf("source: unknown format %v", format)
}

// File reads a JSON or YAML file chosen by extension.
func File(path string, opts ...Options) (map[string]any, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Bytes(format, b, opts...)
}

// Loader returns a goform.LoadFunc reading path on every Load.
func Loader(path string, opts ...Options) goform.LoadFunc {
	return func(ctx context.Context) (map[string]any, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return File(path, opts...)
	}
}

// Encode writes values in the given format. JSON is indented by two spaces.
func Encode(w io.Writer, format Format, values map[string]any) error {
	if values == nil {
		values = map[string]any{}
	}
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(values)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(values); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("source: unknown format %v", format)
}

func asRecord(v any) (map[string]any, error) {
	switch t := v.(type) {
	case map[string]any:
		return t, nil
	case nil:
		return map[string]any{}, nil
	}
	return nil, fmt.Errorf("%w: got %T", ErrNotRecord, v)
}

// NormalizeRecord is Normalize for a record. A nil record stays nil.
func NormalizeRecord(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out, _ := Normalize(m).(map[string]any)
	return out
}

// Normalize converts YAML-decoded values (which may contain map[any]any)
// into JSON-like records recursively. Non-string keys are dropped.
func Normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = Normalize(vv)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			ks, ok := k.(string)
			if !ok {
				continue
			}
			out[ks] = Normalize(vv)
		}
		return out
	case []any:
		arr := make([]any, len(t))
		for i := range t {
			arr[i] = Normalize(t[i])
		}
		return arr
	default:
		return v
	}
}
