package goform

import (
	"fmt"
	"sort"

	"github.com/reoring/goform/fieldpath"
	"github.com/reoring/goform/internal/tree"
)

// listOp is the closed set of structural sequence operations.
//
//sumtype:decl
type listOp interface{ isListOp() }

type (
	// insertOp inserts items before index at; at < 0 appends.
	insertOp struct {
		at    int
		items []any
	}
	removeOp  struct{ indices []int }
	moveOp    struct{ from, to int }
	swapOp    struct{ i, j int }
	replaceOp struct {
		index int
		item  any
	}
)

func (insertOp) isListOp()  {}
func (removeOp) isListOp()  {}
func (moveOp) isListOp()    {}
func (swapOp) isListOp()    {}
func (replaceOp) isListOp() {}

// Append adds items at the end of the sequence at path. A missing sequence
// is created.
func (f *Form) Append(path string, items ...any) error {
	return f.listOp("append", path, insertOp{at: -1, items: items})
}

// Prepend adds items at the start of the sequence at path.
func (f *Form) Prepend(path string, items ...any) error {
	return f.listOp("prepend", path, insertOp{at: 0, items: items})
}

// Insert adds items before index at. Indexes past the end append.
func (f *Form) Insert(path string, at int, items ...any) error {
	if at < 0 {
		return f.reject("insert", path, fmt.Errorf("%w: %d", ErrIndexOutOfRange, at))
	}
	return f.listOp("insert", path, insertOp{at: at, items: items})
}

// Remove deletes the elements at the given indexes. Out-of-range indexes
// are ignored.
func (f *Form) Remove(path string, indices ...int) error {
	return f.listOp("remove", path, removeOp{indices: indices})
}

// Move moves the element at from to index to, shifting the elements in
// between by one slot.
func (f *Form) Move(path string, from, to int) error {
	return f.listOp("move", path, moveOp{from: from, to: to})
}

// Swap exchanges the elements at i and j.
func (f *Form) Swap(path string, i, j int) error {
	return f.listOp("swap", path, swapOp{i: i, j: j})
}

// Replace overwrites the element at index.
func (f *Form) Replace(path string, index int, item any) error {
	return f.listOp("replace", path, replaceOp{index: index, item: item})
}

func (f *Form) listOp(op, path string, lo listOp) error {
	p, err := fieldpath.Parse(path)
	if err != nil {
		return err
	}
	switch o := lo.(type) {
	case insertOp:
		o.items = cloneItems(o.items)
		lo = o
	case replaceOp:
		o.item = tree.Clone(o.item)
		lo = o
	}
	a := listAction{path: p, key: p.String(), op: lo}
	_, _, err = f.dispatchIf(func(s State) error { return checkList(s, a) }, a)
	if err != nil {
		return f.reject(op, a.key, err)
	}
	return nil
}

func cloneItems(items []any) []any {
	out := make([]any, len(items))
	for i, it := range items {
		out[i] = tree.Clone(it)
	}
	return out
}

// sequenceAt returns the sequence at p. A missing value is an empty
// sequence; anything else is ErrNotArray.
func sequenceAt(values map[string]any, p fieldpath.Path) ([]any, error) {
	v, ok := p.Resolve(values)
	if !ok || v == nil {
		return nil, nil
	}
	seq, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: found %T", ErrNotArray, v)
	}
	return seq, nil
}

func checkList(s State, a listAction) error {
	seq, err := sequenceAt(s.Values, a.path)
	if err != nil {
		return err
	}
	n := len(seq)
	inRange := func(i int) bool { return i >= 0 && i < n }
	switch o := a.op.(type) {
	case insertOp:
		return nil
	case removeOp:
		return nil
	case moveOp:
		if !inRange(o.from) || !inRange(o.to) {
			return fmt.Errorf("%w: move %d -> %d on length %d", ErrIndexOutOfRange, o.from, o.to, n)
		}
	case swapOp:
		if !inRange(o.i) || !inRange(o.j) {
			return fmt.Errorf("%w: swap %d <-> %d on length %d", ErrIndexOutOfRange, o.i, o.j, n)
		}
	case replaceOp:
		if !inRange(o.index) {
			return fmt.Errorf("%w: replace %d on length %d", ErrIndexOutOfRange, o.index, n)
		}
	}
	return nil
}

// reduceList applies a structural change and re-keys every tracked path
// nested under a shifted index. The sequence path and every index whose
// position changed are marked modified.
func reduceList(s State, a listAction) (State, bool) {
	seq, err := sequenceAt(s.Values, a.path)
	if err != nil {
		return s, false
	}
	n := len(seq)
	var (
		next  []any
		remap func(int) (int, bool)
		dirty []int
		fresh []int
	)
	switch o := a.op.(type) {
	case insertOp:
		if len(o.items) == 0 {
			return s, false
		}
		at := o.at
		if at < 0 || at > n {
			at = n
		}
		k := len(o.items)
		next = make([]any, 0, n+k)
		next = append(next, seq[:at]...)
		next = append(next, o.items...)
		next = append(next, seq[at:]...)
		remap = func(i int) (int, bool) {
			if i >= at {
				return i + k, true
			}
			return i, true
		}
		dirty = span(at, len(next)-1)
		fresh = span(at, at+k-1)
	case removeOp:
		removed := map[int]bool{}
		for _, i := range o.indices {
			if i >= 0 && i < n {
				removed[i] = true
			}
		}
		if len(removed) == 0 {
			return s, false
		}
		desc := make([]int, 0, len(removed))
		for i := range removed {
			desc = append(desc, i)
		}
		sort.Sort(sort.Reverse(sort.IntSlice(desc)))
		next = append([]any(nil), seq...)
		for _, i := range desc {
			next = append(next[:i], next[i+1:]...)
		}
		remap = func(i int) (int, bool) {
			if removed[i] {
				return 0, false
			}
			shift := 0
			for _, r := range desc {
				if r < i {
					shift++
				}
			}
			return i - shift, true
		}
		dirty = span(desc[len(desc)-1], len(next)-1)
	case moveOp:
		if o.from == o.to {
			return s, false
		}
		item := seq[o.from]
		next = make([]any, 0, n)
		next = append(next, seq[:o.from]...)
		next = append(next, seq[o.from+1:]...)
		next = append(next[:o.to], append([]any{item}, next[o.to:]...)...)
		from, to := o.from, o.to
		remap = func(i int) (int, bool) {
			switch {
			case i == from:
				return to, true
			case from < to && i > from && i <= to:
				return i - 1, true
			case to < from && i >= to && i < from:
				return i + 1, true
			}
			return i, true
		}
		dirty = span(min(from, to), max(from, to))
	case swapOp:
		if o.i == o.j {
			return s, false
		}
		next = append([]any(nil), seq...)
		next[o.i], next[o.j] = next[o.j], next[o.i]
		i, j := o.i, o.j
		remap = func(k int) (int, bool) {
			switch k {
			case i:
				return j, true
			case j:
				return i, true
			}
			return k, true
		}
		dirty = []int{i, j}
	case replaceOp:
		next = append([]any(nil), seq...)
		next[o.index] = o.item
		s.Errors = tree.Drop(s.Errors, a.path.Child(fieldpath.Index(o.index)).String())
		dirty = []int{o.index}
	}

	s.Values = asRecord(a.path.Build(next, s.Values))
	if remap != nil {
		s.Errors = tree.Rekey(s.Errors, a.path, remap)
		s.Modified = tree.Rekey(s.Modified, a.path, remap)
		s.Touched = tree.Rekey(s.Touched, a.path, remap)
	} else {
		s.Modified = cloneFlags(s.Modified)
	}
	for _, i := range fresh {
		s.Touched = tree.Drop(s.Touched, a.path.Child(fieldpath.Index(i)).String())
	}
	for _, i := range dirty {
		s.Modified[a.path.Child(fieldpath.Index(i)).String()] = true
	}
	s.Modified[a.key] = true
	s.Validated = false
	return s, true
}

// span lists the integers in [lo, hi].
func span(lo, hi int) []int {
	if hi < lo {
		return nil
	}
	out := make([]int, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		out = append(out, i)
	}
	return out
}
