package rules

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"unicode/utf8"

	"github.com/reoring/goform"
	"github.com/reoring/goform/fieldpath"
	"github.com/reoring/goform/i18n"
)

// Check validates the value of one field. values is the whole form. It
// returns nil when the value is valid.
type Check func(value any, values map[string]any) *goform.Issue

// FormRule validates the whole form and returns every issue found.
type FormRule func(values map[string]any) goform.Issues

func issue(code, rule string, params map[string]any) *goform.Issue {
	return &goform.Issue{Code: code, Rule: rule, Message: i18n.Format(code, params), Params: params}
}

// Required rejects nil, empty strings and empty sequences.
func Required() Check {
	return func(v any, _ map[string]any) *goform.Issue {
		if isEmpty(v) {
			return issue(goform.CodeRequired, "required", nil)
		}
		return nil
	}
}

// MinLength rejects strings with fewer than n runes and sequences with fewer
// than n items. Empty values pass; combine with Required.
func MinLength(n int) Check {
	return func(v any, _ map[string]any) *goform.Issue {
		l, ok := length(v)
		if !ok || l == 0 || l >= n {
			return nil
		}
		return issue(goform.CodeTooShort, "minLength", map[string]any{"min": n, "got": l})
	}
}

// MaxLength rejects strings with more than n runes and sequences with more
// than n items.
func MaxLength(n int) Check {
	return func(v any, _ map[string]any) *goform.Issue {
		l, ok := length(v)
		if !ok || l <= n {
			return nil
		}
		return issue(goform.CodeTooLong, "maxLength", map[string]any{"max": n, "got": l})
	}
}

// Min rejects numbers below n.
func Min(n float64) Check {
	return func(v any, _ map[string]any) *goform.Issue {
		f, ok := toFloat(v)
		if !ok || f >= n {
			return nil
		}
		return issue(goform.CodeTooSmall, "min", map[string]any{"min": n, "got": f})
	}
}

// Max rejects numbers above n.
func Max(n float64) Check {
	return func(v any, _ map[string]any) *goform.Issue {
		f, ok := toFloat(v)
		if !ok || f <= n {
			return nil
		}
		return issue(goform.CodeTooBig, "max", map[string]any{"max": n, "got": f})
	}
}

// Pattern rejects non-empty strings that do not match expr. It panics when
// expr does not compile, like regexp.MustCompile.
func Pattern(expr string) Check {
	re := regexp.MustCompile(expr)
	return func(v any, _ map[string]any) *goform.Issue {
		s, ok := v.(string)
		if !ok || s == "" || re.MatchString(s) {
			return nil
		}
		return issue(goform.CodePattern, "pattern", map[string]any{"pattern": expr})
	}
}

// OneOf rejects non-empty values outside options.
func OneOf(options ...any) Check {
	return func(v any, _ map[string]any) *goform.Issue {
		if isEmpty(v) {
			return nil
		}
		for _, o := range options {
			if reflect.DeepEqual(v, o) {
				return nil
			}
		}
		return issue(goform.CodeInvalidEnum, "oneOf", map[string]any{"options": options})
	}
}

// Chain runs checks in order and returns the first issue.
func Chain(checks ...Check) Check {
	return func(v any, values map[string]any) *goform.Issue {
		for _, c := range checks {
			if c == nil {
				continue
			}
			if iss := c(v, values); iss != nil {
				return iss
			}
		}
		return nil
	}
}

// ByPath builds a field-level validator from checks keyed by path pattern.
// A `[*]` segment matches any index or key, so "items[*].sku" covers every
// item. Paths without a matching pattern are valid.
func ByPath(checks map[string]Check) goform.ValidateFieldFunc {
	type entry struct {
		pattern fieldpath.Path
		check   Check
	}
	entries := make([]entry, 0, len(checks))
	for pat, c := range checks {
		entries = append(entries, entry{pattern: fieldpath.MustParse(pat), check: c})
	}
	// exact patterns run before wildcards, then lexical order
	sort.Slice(entries, func(i, j int) bool {
		wi, wj := wildcards(entries[i].pattern), wildcards(entries[j].pattern)
		if wi != wj {
			return wi < wj
		}
		return entries[i].pattern.String() < entries[j].pattern.String()
	})
	return func(_ context.Context, path string, value any, values map[string]any) (any, error) {
		p, err := fieldpath.Parse(path)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if !matches(e.pattern, p) {
				continue
			}
			if iss := e.check(value, values); iss != nil {
				iss.Path = path
				return *iss, nil
			}
		}
		return nil, nil
	}
}

// Form builds a form-level validator from rules. When several issues land
// on one path the first one is kept.
func Form(rules ...FormRule) goform.ValidateFunc {
	return func(_ context.Context, values map[string]any, _ goform.FlagMap) (goform.ErrorMap, error) {
		out := goform.ErrorMap{}
		for _, r := range rules {
			if r == nil {
				continue
			}
			for _, iss := range r(values) {
				if _, dup := out[iss.Path]; !dup {
					out[iss.Path] = iss
				}
			}
		}
		return out, nil
	}
}

// AtLeastOne ensures the sequence at path holds at least one item.
func AtLeastOne(path string) FormRule {
	p := fieldpath.MustParse(path)
	key := p.String()
	return func(values map[string]any) goform.Issues {
		v, _ := p.Resolve(values)
		if seq, ok := v.([]any); ok && len(seq) > 0 {
			return nil
		}
		iss := issue(goform.CodeTooFewItems, "atLeastOne", map[string]any{"min": 1})
		iss.Path = key
		return goform.Issues{*iss}
	}
}

// UniqueBy ensures the items of the sequence at collectionPath have unique
// values at keyPath, a path relative to each item. Every duplicate after
// the first occurrence gets an issue at its key.
// Note: keys compare by their fmt.Sprint rendering, so 1 and "1" collide.
func UniqueBy(collectionPath, keyPath string) FormRule {
	cp := fieldpath.MustParse(collectionPath)
	kp := fieldpath.MustParse(keyPath)
	return func(values map[string]any) goform.Issues {
		v, _ := cp.Resolve(values)
		seq, ok := v.([]any)
		if !ok {
			return nil
		}
		seen := map[string]int{}
		var out goform.Issues
		for i, item := range seq {
			kv, ok := kp.Resolve(item)
			if !ok || kv == nil {
				continue
			}
			key := fmt.Sprint(kv)
			j, dup := seen[key]
			if !dup {
				seen[key] = i
				continue
			}
			at := cp.Child(fieldpath.Index(i))
			for _, s := range kp {
				at = at.Child(s)
			}
			iss := issue(goform.CodeUniqueness, "uniqueBy", map[string]any{"first": j, "dup": i, "key": key})
			iss.Path = at.String()
			out = goform.AppendIssues(out, *iss)
		}
		return out
	}
}

// ------- helpers -------

func matches(pattern, p fieldpath.Path) bool {
	if len(pattern) != len(p) {
		return false
	}
	for i, s := range pattern {
		if !s.IsIndex && s.Key == "*" {
			continue
		}
		if s != p[i] {
			return false
		}
	}
	return true
}

func wildcards(p fieldpath.Path) int {
	n := 0
	for _, s := range p {
		if !s.IsIndex && s.Key == "*" {
			n++
		}
	}
	return n
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return fieldpath.IsUndefined(v)
}

func length(v any) (int, bool) {
	switch t := v.(type) {
	case string:
		return utf8.RuneCountInString(t), true
	case []any:
		return len(t), true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch {
	case !rv.IsValid():
		return 0, false
	case isIntLike(rv.Kind()):
		return float64(toInt64(rv)), true
	case isFloatLike(rv.Kind()):
		return rv.Float(), true
	}
	return 0, false
}

func isIntLike(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	default:
		return false
	}
}

func isFloatLike(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}

func toInt64(v reflect.Value) int64 {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(v.Uint())
	default:
		return 0
	}
}
