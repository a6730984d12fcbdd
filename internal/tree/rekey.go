package tree

import "github.com/reoring/goform/fieldpath"

// Rekey rewrites the keys of a flat path-keyed map after the sequence at base
// shifted its elements. For every key nested below base[i], remap(i) gives
// the new index, or false to drop the entry. Keys outside base (including
// base itself) are copied unchanged. The input map is not modified.
func Rekey[V any](m map[string]V, base fieldpath.Path, remap func(i int) (int, bool)) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		p, err := fieldpath.Parse(k)
		if err != nil || len(p) <= len(base) || !p.HasPrefix(base) {
			out[k] = v
			continue
		}
		seg := p[len(base)]
		if !seg.IsIndex {
			out[k] = v
			continue
		}
		to, keep := remap(seg.Index)
		if !keep {
			continue
		}
		np := make(fieldpath.Path, len(p))
		copy(np, p)
		np[len(base)] = fieldpath.Index(to)
		out[np.String()] = v
	}
	return out
}

// Drop returns a copy of m without prefix and everything nested below it.
func Drop[V any](m map[string]V, prefix string) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		if fieldpath.Within(k, prefix) {
			continue
		}
		out[k] = v
	}
	return out
}
