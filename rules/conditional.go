package rules

import (
	"reflect"

	"github.com/reoring/goform"
	"github.com/reoring/goform/fieldpath"
)

// Op defines simple comparison operators for If(...).Then(...)
type Op int

const (
	Eq Op = iota
	Ne
	Lt
	Le
	Gt
	Ge
)

// Conditional gates checks on the value of another field.
type Conditional struct {
	path fieldpath.Path
	op   Op
	want any
	all  []Conditional // composite AND
	any  []Conditional // composite OR
}

// If builds a conditional that compares the value at path with want.
func If(path string, op Op, want any) Conditional {
	return Conditional{path: fieldpath.MustParse(path), op: op, want: want}
}

// IfAll builds a conditional that requires all conditions to hold.
func IfAll(conds ...Conditional) Conditional { return Conditional{all: conds} }

// IfAny builds a conditional that requires any condition to hold.
func IfAny(conds ...Conditional) Conditional { return Conditional{any: conds} }

// And combines the receiver with additional conditions using logical AND.
func (c Conditional) And(others ...Conditional) Conditional {
	return IfAll(append([]Conditional{c}, others...)...)
}

// Or combines the receiver with additional conditions using logical OR.
func (c Conditional) Or(others ...Conditional) Conditional {
	return IfAny(append([]Conditional{c}, others...)...)
}

// Then runs checks, chained, only when the condition holds.
func (c Conditional) Then(checks ...Check) Check {
	chained := Chain(checks...)
	return func(v any, values map[string]any) *goform.Issue {
		if !c.eval(values) {
			return nil
		}
		return chained(v, values)
	}
}

func (c Conditional) eval(values map[string]any) bool {
	if len(c.all) > 0 {
		for _, it := range c.all {
			if !it.eval(values) {
				return false
			}
		}
		return true
	}
	if len(c.any) > 0 {
		for _, it := range c.any {
			if it.eval(values) {
				return true
			}
		}
		return false
	}
	cur, ok := c.path.Resolve(values)
	if !ok {
		return false
	}
	return compare(cur, c.op, c.want)
}

func compare(cur any, op Op, want any) bool {
	switch op {
	case Eq:
		return reflect.DeepEqual(cur, want) || numericEqual(cur, want)
	case Ne:
		return !reflect.DeepEqual(cur, want) && !numericEqual(cur, want)
	case Lt, Le, Gt, Ge:
		a, ok1 := toFloat(cur)
		b, ok2 := toFloat(want)
		if !ok1 || !ok2 {
			return false
		}
		switch op {
		case Lt:
			return a < b
		case Le:
			return a <= b
		case Gt:
			return a > b
		case Ge:
			return a >= b
		}
	}
	return false
}

// numericEqual treats 3 and 3.0 as equal; decoded JSON yields float64.
func numericEqual(a, b any) bool {
	x, ok1 := toFloat(a)
	y, ok2 := toFloat(b)
	return ok1 && ok2 && x == y
}
