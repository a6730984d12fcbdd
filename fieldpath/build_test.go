package fieldpath_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/reoring/goform/fieldpath"
)

func sampleTree() map[string]any {
	return map[string]any{
		"user": map[string]any{
			"name": "reo",
			"tags": []any{"a", "b"},
		},
		"items": []any{
			map[string]any{"id": 1},
			map[string]any{"id": 2},
		},
		"nothing": nil,
	}
}

func TestResolve(t *testing.T) {
	tree := sampleTree()
	cases := []struct {
		path  string
		want  any
		found bool
	}{
		{"user.name", "reo", true},
		{"user.tags[1]", "b", true},
		{"items[0].id", 1, true},
		{"items.1.id", nil, false},
		{`user["name"]`, "reo", true},
		{"user.missing", nil, false},
		{"items[5].id", nil, false},
		{"nothing", nil, true},
		{"nothing.deeper", nil, false},
		{"user.name.length", nil, false},
	}
	for _, c := range cases {
		got, found, err := fieldpath.Resolve(c.path, tree)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", c.path, err)
		}
		if found != c.found || got != c.want {
			t.Fatalf("Resolve(%q) = (%v, %v), want (%v, %v)", c.path, got, found, c.want, c.found)
		}
	}
}

func TestResolve_RootReturnsContext(t *testing.T) {
	tree := sampleTree()
	got, found, err := fieldpath.Resolve("", tree)
	if err != nil || !found {
		t.Fatalf("unexpected root resolve: %v %v", found, err)
	}
	if diff := cmp.Diff(tree, got); diff != "" {
		t.Fatalf("root mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_SyntaxErrorIsReturned(t *testing.T) {
	for _, p := range []string{"array[]", "a. b"} {
		_, _, err := fieldpath.Resolve(p, map[string]any{})
		if !errors.Is(err, fieldpath.ErrSyntax) {
			t.Fatalf("Resolve(%q): expected syntax error, got %v", p, err)
		}
	}
}

func TestBuild_RoundTrip(t *testing.T) {
	paths := []string{"user.name", "user.tags[3]", "items[1].id", "fresh.nested[0].x", `odd["a.b"]`, "[0]"}
	for _, p := range paths {
		out, err := fieldpath.Build(p, "v", sampleTree())
		if err != nil {
			t.Fatalf("Build(%q): %v", p, err)
		}
		got, found, _ := fieldpath.Resolve(p, out)
		if !found || got != "v" {
			t.Fatalf("Resolve(Build(%q)) = (%v, %v)", p, got, found)
		}
	}
}

func TestBuild_DoesNotMutateInput(t *testing.T) {
	tree := sampleTree()
	before := sampleTree()
	out, err := fieldpath.Build("items[0].id", 99, tree)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(before, tree); diff != "" {
		t.Fatalf("input tree changed (-before +after):\n%s", diff)
	}
	if got := out.(map[string]any)["items"].([]any)[0].(map[string]any)["id"]; got != 99 {
		t.Fatalf("expected written value, got %v", got)
	}
}

func TestBuild_CreatesContainers(t *testing.T) {
	out, err := fieldpath.Build("a.list[1].name", "x", nil)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]any{
		"a": map[string]any{
			"list": []any{nil, map[string]any{"name": "x"}},
		},
	}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Fatalf("unexpected tree (-want +got):\n%s", diff)
	}
}

func TestBuild_SparseIndexLeavesHole(t *testing.T) {
	out, err := fieldpath.Build("[1]", "b", []any{})
	if err != nil {
		t.Fatal(err)
	}
	seq := out.([]any)
	if len(seq) != 2 || seq[0] != nil || seq[1] != "b" {
		t.Fatalf("expected [nil b], got %#v", seq)
	}
}

func TestBuild_UndefinedDeletesKey(t *testing.T) {
	out, err := fieldpath.Build("user.name", fieldpath.Undefined, sampleTree())
	if err != nil {
		t.Fatal(err)
	}
	user := out.(map[string]any)["user"].(map[string]any)
	if _, ok := user["name"]; ok {
		t.Fatalf("expected key to be deleted, got %#v", user)
	}
	if _, found, _ := fieldpath.Resolve("user.name", out); found {
		t.Fatalf("deleted key must resolve as not found")
	}
}

func TestBuild_Idempotent(t *testing.T) {
	once, _ := fieldpath.Build("user.name", "z", sampleTree())
	twice, _ := fieldpath.Build("user.name", "z", once)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Fatalf("repeated build changed the tree (-once +twice):\n%s", diff)
	}
}

func TestBuild_SiblingsShared(t *testing.T) {
	tree := sampleTree()
	out, _ := fieldpath.Build("user.name", "z", tree)
	m := out.(map[string]any)
	orig := tree["items"].([]any)
	got := m["items"].([]any)
	if &orig[0] != &got[0] {
		t.Fatalf("siblings off the write path should be shared")
	}
	if tree["user"].(map[string]any)["name"] != "reo" {
		t.Fatalf("original record on the write path was mutated")
	}
}

func TestBuild_HandBuiltIndexAboveMaxIsNoop(t *testing.T) {
	p := fieldpath.Path{fieldpath.Key("l"), fieldpath.Index(fieldpath.MaxIndex + 1)}
	out := p.Build("x", map[string]any{"l": []any{"a"}})
	got := out.(map[string]any)["l"].([]any)
	if len(got) != 1 || got[0] != "a" {
		t.Fatalf("got %#v", got)
	}
}

func TestResolve_NumericDotKeyOnSequence(t *testing.T) {
	tree := map[string]any{"l": []any{"a", "b"}, "m": map[string]any{"1": "one"}}
	if _, found, _ := fieldpath.Resolve("l.1", tree); found {
		t.Fatalf("l.1 resolved on a sequence")
	}
	if v, found, _ := fieldpath.Resolve("m.1", tree); !found || v != "one" {
		t.Fatalf("m.1 = %v, %v", v, found)
	}
}
