package goform

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Issue codes emitted by the rules package and accepted from custom
// validators.
const (
	CodeRequired     = "required"
	CodeInvalidType  = "invalid_type"
	CodeTooShort     = "too_short"
	CodeTooLong      = "too_long"
	CodeTooSmall     = "too_small"
	CodeTooBig       = "too_big"
	CodePattern      = "pattern"
	CodeInvalidEnum  = "invalid_enum"
	CodeTooFewItems  = "too_few_items"
	CodeUniqueness   = "uniqueness"
	CodeBusinessRule = "business_rule"
)

// Issue is a structured field error. It is the error value produced by the
// rules package; any other non-empty value works as a field error too.
type Issue struct {
	Path    string `json:"path"` // canonical field path, e.g. items[2].price
	Code    string `json:"code"` // one of the codes above or a custom one
	Message string `json:"message,omitempty"`
	// Params carries structured parameters (e.g. {"min": 3}) for i18n.
	Params map[string]any `json:"params,omitempty"`
	// Rule optionally records the rule name that produced this issue.
	Rule string `json:"rule,omitempty"`
}

func (i Issue) Error() string {
	if i.Message != "" {
		return fmt.Sprintf("%s: %s", i.Path, i.Message)
	}
	return fmt.Sprintf("%s at %s", i.Code, i.Path)
}

// Issues is a collection of issues that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. too_short at /path
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// AppendIssues appends more to dst, skipping issues whose path already has
// one. The first issue per path wins, matching how ErrorMap keeps them.
func AppendIssues(dst Issues, more ...Issue) Issues {
	for _, iss := range more {
		if slices.ContainsFunc(dst, func(x Issue) bool { return x.Path == iss.Path }) {
			continue
		}
		dst = append(dst, iss)
	}
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	var m ErrorMap
	if errors.As(err, &m) {
		return m.Issues(), true
	}
	return nil, false
}

// Issues projects the map into a list sorted by path. Entries that are not
// Issue values become an Issue with CodeBusinessRule and the value rendered
// as its message.
func (m ErrorMap) Issues() Issues {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make(Issues, 0, len(keys))
	for _, k := range keys {
		switch v := m[k].(type) {
		case Issue:
			if v.Path == "" {
				v.Path = k
			}
			out = append(out, v)
		case *Issue:
			it := *v
			if it.Path == "" {
				it.Path = k
			}
			out = append(out, it)
		default:
			out = append(out, Issue{Path: k, Code: CodeBusinessRule, Message: fmt.Sprint(v)})
		}
	}
	return out
}
