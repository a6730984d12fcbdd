package fieldpath

// undefined is the type of Undefined.
type undefined struct{}

func (undefined) String() string { return "undefined" }

// Undefined marks the absence of a value. It is distinct from nil, which is
// an explicit empty value. Build deletes the addressed key when handed
// Undefined, and Resolve never returns it.
var Undefined any = undefined{}

// IsUndefined reports whether v is Undefined.
func IsUndefined(v any) bool {
	_, ok := v.(undefined)
	return ok
}

// Resolve parses path and looks it up in tree. found is false when any
// segment is missing; err is non-nil only for malformed paths.
func Resolve(path string, tree any) (value any, found bool, err error) {
	p, err := Parse(path)
	if err != nil {
		return nil, false, err
	}
	v, ok := p.Resolve(tree)
	return v, ok, nil
}

// Resolve looks p up in tree. The root path returns tree itself.
func (p Path) Resolve(tree any) (any, bool) {
	cur := tree
	for _, s := range p {
		switch c := cur.(type) {
		case map[string]any:
			v, ok := c[s.key()]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			i, ok := s.index()
			if !ok || i < 0 || i >= len(c) {
				return nil, false
			}
			cur = c[i]
		default:
			return nil, false
		}
	}
	if IsUndefined(cur) {
		return nil, false
	}
	return cur, true
}

// Get is Resolve with a fallback for missing values.
func (p Path) Get(tree any, def any) any {
	if v, ok := p.Resolve(tree); ok {
		return v
	}
	return def
}
