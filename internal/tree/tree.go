// Package tree holds the structural copy and comparison helpers used to keep
// current and initial value trees from aliasing each other.
package tree

import (
	"reflect"
	"sort"
	"time"

	"github.com/reoring/goform/fieldpath"
)

// Clone deep-copies records (map[string]any) and sequences ([]any). Any
// other value is an opaque leaf and is returned as is; leaves are expected
// to be immutable values (strings, numbers, time.Time, ...).
func Clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneRecord(t)
	case []any:
		if t == nil {
			return []any(nil)
		}
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Clone(e)
		}
		return out
	default:
		return v
	}
}

// CloneRecord deep-copies a record. A nil record clones to an empty one.
func CloneRecord(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = Clone(v)
	}
	return out
}

// Nullish reports whether v is nil or fieldpath.Undefined.
func Nullish(v any) bool {
	return v == nil || fieldpath.IsUndefined(v)
}

// Same is the modified comparison: comparable scalars compare with ==,
// time.Time with Equal, and maps, slices, pointers and funcs by identity.
// Two distinct records holding equal data are not Same.
func Same(a, b any) bool {
	if fieldpath.IsUndefined(a) || fieldpath.IsUndefined(b) {
		return fieldpath.IsUndefined(a) && fieldpath.IsUndefined(b)
	}
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if !ra.IsValid() || !rb.IsValid() {
		return ra.IsValid() == rb.IsValid()
	}
	if ra.Type() != rb.Type() {
		return false
	}
	switch ra.Kind() {
	case reflect.Slice:
		if ra.Len() != rb.Len() || ra.IsNil() != rb.IsNil() {
			return false
		}
		return ra.UnsafePointer() == rb.UnsafePointer()
	case reflect.Map, reflect.Pointer, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return ra.UnsafePointer() == rb.UnsafePointer()
	}
	if !ra.Comparable() || !rb.Comparable() {
		return false
	}
	return a == b
}

// Leaves returns the canonical paths of every scalar leaf and empty container
// under root, sorted.
func Leaves(root any) []string {
	var out []string
	walk(root, fieldpath.Path{}, &out)
	sort.Strings(out)
	return out
}

func walk(v any, at fieldpath.Path, out *[]string) {
	switch t := v.(type) {
	case map[string]any:
		if len(t) == 0 && len(at) > 0 {
			*out = append(*out, at.String())
		}
		for k, e := range t {
			walk(e, at.Child(fieldpath.Key(k)), out)
		}
	case []any:
		if len(t) == 0 && len(at) > 0 {
			*out = append(*out, at.String())
		}
		for i, e := range t {
			walk(e, at.Child(fieldpath.Index(i)), out)
		}
	default:
		if len(at) > 0 {
			*out = append(*out, at.String())
		}
	}
}
