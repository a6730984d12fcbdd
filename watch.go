package goform

import (
	"maps"
	"slices"
	"sort"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/reoring/goform/fieldpath"
	"github.com/reoring/goform/internal/tree"
)

// WatchEvent describes a change of the value at one watched path.
type WatchEvent struct {
	Name          string // canonical path
	Value         any    // fieldpath.Undefined when the path no longer resolves
	PreviousValue any
	Modified      bool
	Touched       bool
}

// WatchFunc receives watch events.
type WatchFunc func(WatchEvent)

type watcher struct {
	path fieldpath.Path
	fns  map[ulid.ULID]WatchFunc
}

type watchDelivery struct {
	event WatchEvent
	fns   []WatchFunc
}

// Watch registers fn for changes of the value resolved at path. Handlers of
// one path run in registration order. The returned function unregisters fn
// and is a no-op when called again.
func (f *Form) Watch(path string, fn WatchFunc) (unwatch func(), err error) {
	p, err := fieldpath.Parse(path)
	if err != nil {
		return nil, err
	}
	key := p.String()
	id := ulid.Make()

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return func() {}, ErrClosed
	}
	w := f.watchers[key]
	if w == nil {
		w = &watcher{path: p, fns: map[ulid.ULID]WatchFunc{}}
		f.watchers[key] = w
	}
	w.fns[id] = fn
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			w := f.watchers[key]
			if w == nil {
				return
			}
			delete(w.fns, id)
			if len(w.fns) == 0 {
				delete(f.watchers, key)
			}
		})
	}, nil
}

// watchEventsLocked compares every watched path between two snapshots.
// Paths written by the action come first in input order, the remaining
// watched paths follow sorted.
func (f *Form) watchEventsLocked(prev, next State, written []string) []watchDelivery {
	if len(f.watchers) == 0 {
		return nil
	}
	order := make([]string, 0, len(f.watchers))
	seen := make(map[string]bool, len(f.watchers))
	for _, k := range written {
		if f.watchers[k] != nil && !seen[k] {
			seen[k] = true
			order = append(order, k)
		}
	}
	var rest []string
	for k := range f.watchers {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	order = append(order, rest...)

	var out []watchDelivery
	for _, k := range order {
		w := f.watchers[k]
		was := valueAt(w.path, prev.Values)
		cur := valueAt(w.path, next.Values)
		if tree.Same(was, cur) {
			continue
		}
		ids := slices.SortedFunc(maps.Keys(w.fns), func(a, b ulid.ULID) int { return a.Compare(b) })
		fns := make([]WatchFunc, len(ids))
		for i, id := range ids {
			fns[i] = w.fns[id]
		}
		out = append(out, watchDelivery{
			event: WatchEvent{
				Name:          k,
				Value:         tree.Clone(cur),
				PreviousValue: tree.Clone(was),
				Modified:      next.Modified[k],
				Touched:       next.Touched[k],
			},
			fns: fns,
		})
	}
	return out
}

func (f *Form) emit(ds []watchDelivery) {
	for _, d := range ds {
		for _, fn := range d.fns {
			f.safeCall("watch", func() { fn(d.event) })
		}
	}
}

// valueAt resolves p, returning fieldpath.Undefined when it does not resolve.
func valueAt(p fieldpath.Path, values map[string]any) any {
	v, ok := p.Resolve(values)
	if !ok {
		return fieldpath.Undefined
	}
	return v
}
