// Package fieldpath parses and evaluates field paths against nested value
// trees.
//
// A path addresses a location inside a tree made of records
// (map[string]any) and sequences ([]any):
//
//	user.name            record attribute descent
//	items[0].price       sequence index (at most MaxIndex)
//	items.0              record key "0", never a sequence index
//	labels["x.y z"]      free-form record key (quoted, '\' escapes)
//	labels[x-y]          free-form record key (unquoted, no surrounding spaces)
//
// Malformed paths fail fast with a *SyntaxError; missing data never does.
// Resolve returns found == false when an intermediate segment is absent or
// not a container, and Build returns a copy of the tree with the value
// written, creating records and sequences along the way. Writing Undefined
// deletes the addressed key.
//
// Paths used as keys of flat maps must be canonical (see Canonical) so that
// `a["b"]` and `a.b` address the same entry.
package fieldpath
