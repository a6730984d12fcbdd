package fieldpath

import (
	"strconv"
	"strings"
)

// Segment is a single step of a parsed path: either a record key or a
// sequence index.
type Segment struct {
	Key     string
	Index   int
	IsIndex bool
}

// MaxIndex is the largest sequence index a path may address. Build pads
// sequences up to the written index, so the bound caps that allocation.
const MaxIndex = 1<<16 - 1

// Key returns a record-key segment.
func Key(k string) Segment { return Segment{Key: k} }

// Index returns a sequence-index segment.
func Index(i int) Segment { return Segment{Index: i, IsIndex: true} }

// index reports the sequence index addressed by s. Only bracketed indexes
// address sequence elements; `a.0` is a record key.
func (s Segment) index() (int, bool) {
	return s.Index, s.IsIndex
}

// key returns the record key addressed by s.
func (s Segment) key() string {
	if s.IsIndex {
		return strconv.Itoa(s.Index)
	}
	return s.Key
}

// Path is a parsed field path. The zero value addresses the root.
type Path []Segment

// Parse parses a path string. The empty string is the root path.
func Parse(path string) (Path, error) {
	if path == "" {
		return Path{}, nil
	}
	p := &parser{src: path}
	return p.parse()
}

// MustParse is like Parse but panics on malformed input. It is meant for
// package-level constants and tests.
func MustParse(path string) Path {
	p, err := Parse(path)
	if err != nil {
		panic(err)
	}
	return p
}

// Canonical parses path and renders it back in canonical form.
func Canonical(path string) (string, error) {
	p, err := Parse(path)
	if err != nil {
		return "", err
	}
	return p.String(), nil
}

// String renders the canonical form: bare keys joined with '.', indexes in
// brackets and keys that cannot be bare in quoted brackets.
func (p Path) String() string {
	var b strings.Builder
	for i, s := range p {
		switch {
		case s.IsIndex:
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(s.Index))
			b.WriteByte(']')
		case isBareKey(s.Key):
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(s.Key)
		default:
			b.WriteString(`["`)
			b.WriteString(escapeKey(s.Key))
			b.WriteString(`"]`)
		}
	}
	return b.String()
}

// Child returns a new path with seg appended. p is left untouched.
func (p Path) Child(seg Segment) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, seg)
}

// Equal reports whether both paths address the same location.
func (p Path) Equal(o Path) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether prefix is p itself or one of its ancestors.
func (p Path) HasPrefix(prefix Path) bool {
	return len(p) >= len(prefix) && p[:len(prefix)].Equal(prefix)
}

// Within reports whether path (canonical) is prefix itself or nested below
// it. Both arguments must be canonical strings.
func Within(path, prefix string) bool {
	if prefix == "" || path == prefix {
		return true
	}
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	c := path[len(prefix)]
	return c == '.' || c == '['
}

// --- parser ---

type parser struct {
	src string
	i   int
}

func (p *parser) fail(reason string) error {
	return &SyntaxError{Path: p.src, Offset: p.i, Reason: reason}
}

func (p *parser) parse() (Path, error) {
	var segs Path
	var seg Segment
	var err error
	if p.src[0] == '[' {
		seg, err = p.bracket()
	} else {
		seg, err = p.bare()
	}
	if err != nil {
		return nil, err
	}
	segs = append(segs, seg)
	for p.i < len(p.src) {
		switch p.src[p.i] {
		case '.':
			p.i++
			seg, err = p.bare()
		case '[':
			seg, err = p.bracket()
		case ']':
			return nil, p.fail("unbalanced ']'")
		default:
			return nil, p.fail("expected '.' or '[' after segment")
		}
		if err != nil {
			return nil, err
		}
		segs = append(segs, seg)
	}
	return segs, nil
}

func (p *parser) bare() (Segment, error) {
	start := p.i
	for p.i < len(p.src) && isKeyChar(p.src[p.i]) {
		p.i++
	}
	if p.i > start {
		return Key(p.src[start:p.i]), nil
	}
	switch {
	case p.i >= len(p.src):
		return Segment{}, p.fail("dangling separator")
	case isSpace(p.src[p.i]):
		return Segment{}, p.fail("whitespace around separator")
	case p.src[p.i] == ']':
		return Segment{}, p.fail("unbalanced ']'")
	default:
		return Segment{}, p.fail("empty segment")
	}
}

func (p *parser) bracket() (Segment, error) {
	p.i++ // '['
	if p.i >= len(p.src) {
		return Segment{}, p.fail("unclosed '['")
	}
	switch p.src[p.i] {
	case ']':
		return Segment{}, p.fail("empty brackets")
	case '"', '\'':
		return p.quoted()
	}
	start := p.i
	for p.i < len(p.src) && p.src[p.i] != ']' {
		if p.src[p.i] == '[' {
			return Segment{}, p.fail("nested '['")
		}
		p.i++
	}
	if p.i >= len(p.src) {
		return Segment{}, p.fail("unclosed '['")
	}
	raw := p.src[start:p.i]
	if isSpace(raw[0]) || isSpace(raw[len(raw)-1]) {
		p.i = start
		return Segment{}, p.fail("whitespace around separator")
	}
	p.i++ // ']'
	if isDigits(raw) {
		n, err := strconv.Atoi(raw)
		if err != nil || n > MaxIndex {
			p.i = start
			return Segment{}, p.fail("index out of range")
		}
		return Index(n), nil
	}
	return Key(raw), nil
}

func (p *parser) quoted() (Segment, error) {
	q := p.src[p.i]
	p.i++
	var b strings.Builder
	for p.i < len(p.src) {
		c := p.src[p.i]
		switch {
		case c == '\\' && p.i+1 < len(p.src):
			b.WriteByte(p.src[p.i+1])
			p.i += 2
			continue
		case c == q:
			p.i++
			if p.i >= len(p.src) || p.src[p.i] != ']' {
				return Segment{}, p.fail("expected ']' after quoted key")
			}
			p.i++
			return Key(b.String()), nil
		}
		b.WriteByte(c)
		p.i++
	}
	return Segment{}, p.fail("unterminated quoted key")
}

func isKeyChar(c byte) bool {
	return c != '.' && c != '[' && c != ']' && !isSpace(c)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isBareKey(k string) bool {
	if k == "" {
		return false
	}
	for i := 0; i < len(k); i++ {
		if !isKeyChar(k[i]) || k[i] == '"' || k[i] == '\'' || k[i] == '\\' {
			return false
		}
	}
	return true
}

func escapeKey(k string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(k)
}
