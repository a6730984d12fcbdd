package fieldpath

// Build parses path and returns a copy of tree with value written at it.
func Build(path string, value any, tree any) (any, error) {
	p, err := Parse(path)
	if err != nil {
		return nil, err
	}
	return p.Build(value, tree), nil
}

// Build returns a copy of tree with value written at p. Containers on the
// way from the root to the write point are copied; everything else is
// shared with tree. Missing containers are created: a sequence when the
// segment is an index, a record otherwise. Writing Undefined deletes the
// key (or leaves a nil hole in a sequence).
//
// Building at the root path returns value itself.
func (p Path) Build(value any, tree any) any {
	if len(p) == 0 {
		if IsUndefined(value) {
			return nil
		}
		return value
	}
	return set(tree, p, value)
}

func set(node any, p Path, value any) any {
	s := p[0]
	switch c := node.(type) {
	case []any:
		if i, ok := s.index(); ok {
			return setIndex(c, i, p, value)
		}
		// A record key on a sequence: the write wins and the sequence is
		// replaced by a record.
		return setKey(nil, s.key(), p, value)
	case map[string]any:
		return setKey(c, s.key(), p, value)
	}
	if s.IsIndex {
		return setIndex(nil, s.Index, p, value)
	}
	return setKey(nil, s.Key, p, value)
}

func setKey(m map[string]any, key string, p Path, value any) map[string]any {
	out := make(map[string]any, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	if len(p) == 1 {
		if IsUndefined(value) {
			delete(out, key)
		} else {
			out[key] = value
		}
		return out
	}
	out[key] = set(m[key], p[1:], value)
	return out
}

func setIndex(s []any, i int, p Path, value any) []any {
	if i < 0 || i > MaxIndex {
		// Such indexes never parse from a string; a hand-built Path
		// holding one is treated as a no-op write.
		out := make([]any, len(s))
		copy(out, s)
		return out
	}
	n := len(s)
	if len(p) == 1 && IsUndefined(value) {
		out := make([]any, n)
		copy(out, s)
		if i < n {
			out[i] = nil
		}
		return out
	}
	if i >= n {
		n = i + 1
	}
	out := make([]any, n)
	copy(out, s)
	if len(p) == 1 {
		out[i] = value
		return out
	}
	var child any
	if i < len(s) {
		child = s[i]
	}
	out[i] = set(child, p[1:], value)
	return out
}
