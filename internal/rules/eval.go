package rules

// eval.go walks compiled expression trees for one row at a time.
//
// Evaluation is three-valued. A comparison with a null operand (missing cell
// or failed coercion) is indeterminate rather than false: the row's
// missingness is already scored by the completeness dimension, so the row
// rule must not fire on it again. Conjunction and disjunction follow Kleene
// logic, and a rule fires only when the whole expression is definitively
// false.

import (
	"strings"
	"time"

	"github.com/carlhabs/data-quality-analyzer/internal/coerce"
)

// Tri is a three-valued boolean.
type Tri int8

const (
	TriFalse Tri = iota
	TriTrue
	TriIndeterminate
)

// RowValues resolves a column name to its raw cell value for one row.
type RowValues interface {
	Value(column string) (string, bool)
}

// Eval evaluates the rule against one row. The rule fires (is violated) only
// when the result is TriFalse.
func (r RowRule) Eval(row RowValues) Tri {
	return r.root.eval(row)
}

// Violated reports whether the rule definitively fails for the row.
func (r RowRule) Violated(row RowValues) bool {
	return r.root.eval(row) == TriFalse
}

type boolNode interface {
	eval(row RowValues) Tri
}

type operand interface {
	resolve(row RowValues) coerce.Value
}

// ----------------------------------------------------------------------------
// Operands
// ----------------------------------------------------------------------------

type columnOperand struct {
	name string
	typ  coerce.Type // declared type, or "" for per-value inference
}

func (c *columnOperand) resolve(row RowValues) coerce.Value {
	raw, ok := row.Value(c.name)
	if !ok || coerce.IsMissing(raw) {
		return coerce.Null(c.typ)
	}
	typ := c.typ
	if typ == "" {
		typ = coerce.Infer(raw)
	}
	return coerce.Coerce(raw, typ)
}

type literalOperand struct {
	value coerce.Value
}

func (l *literalOperand) resolve(RowValues) coerce.Value { return l.value }

// ----------------------------------------------------------------------------
// Boolean nodes
// ----------------------------------------------------------------------------

type andNode struct{ left, right boolNode }

func (n *andNode) eval(row RowValues) Tri {
	l := n.left.eval(row)
	if l == TriFalse {
		return TriFalse
	}
	r := n.right.eval(row)
	if r == TriFalse {
		return TriFalse
	}
	if l == TriIndeterminate || r == TriIndeterminate {
		return TriIndeterminate
	}
	return TriTrue
}

type orNode struct{ left, right boolNode }

func (n *orNode) eval(row RowValues) Tri {
	l := n.left.eval(row)
	if l == TriTrue {
		return TriTrue
	}
	r := n.right.eval(row)
	if r == TriTrue {
		return TriTrue
	}
	if l == TriIndeterminate || r == TriIndeterminate {
		return TriIndeterminate
	}
	return TriFalse
}

// callNode is is_null/not_null. These are the only null-aware predicates and
// always evaluate definitively.
type callNode struct {
	fn     string
	column *columnOperand
}

func (n *callNode) eval(row RowValues) Tri {
	raw, ok := row.Value(n.column.name)
	isNull := !ok || coerce.IsMissing(raw)
	if n.fn == "not_null" {
		isNull = !isNull
	}
	if isNull {
		return TriTrue
	}
	return TriFalse
}

// boolColumnNode is a bare column reference used as a boolean.
type boolColumnNode struct {
	column *columnOperand
}

func (n *boolColumnNode) eval(row RowValues) Tri {
	raw, ok := row.Value(n.column.name)
	if !ok || coerce.IsMissing(raw) {
		return TriIndeterminate
	}
	b, ok := coerce.ParseBool(raw)
	if !ok {
		return TriIndeterminate
	}
	if b {
		return TriTrue
	}
	return TriFalse
}

type cmpNode struct {
	op          string
	left, right operand
}

func (n *cmpNode) eval(row RowValues) Tri {
	l := n.left.resolve(row)
	r := n.right.resolve(row)
	if l.Null || r.Null {
		return TriIndeterminate
	}
	cmp, ok := compare(l, r)
	if !ok {
		return TriIndeterminate
	}
	var result bool
	switch n.op {
	case "<":
		result = cmp < 0
	case "<=":
		result = cmp <= 0
	case ">":
		result = cmp > 0
	case ">=":
		result = cmp >= 0
	case "==":
		result = cmp == 0
	case "!=":
		result = cmp != 0
	}
	if result {
		return TriTrue
	}
	return TriFalse
}

// compare orders two non-null values after unifying their types. It returns
// ok=false when the operands cannot be brought to a common type; the caller
// treats that as indeterminate, the same as a failed coercion.
func compare(l, r coerce.Value) (int, bool) {
	// Numeric comparison when both sides are (or parse as) numbers.
	if lf, ok := asFloat(l); ok {
		if rf, ok := asFloat(r); ok {
			return cmpFloat(lf, rf), true
		}
	}

	// Date comparison: either side already a date, the other may be a
	// date-shaped string literal.
	if l.Type == coerce.TypeDate || r.Type == coerce.TypeDate {
		lt, lok := asDate(l)
		rt, rok := asDate(r)
		if !lok || !rok {
			return 0, false
		}
		switch {
		case lt.Before(rt):
			return -1, true
		case lt.After(rt):
			return 1, true
		}
		return 0, true
	}

	// Boolean equality.
	if l.Type == coerce.TypeBool || r.Type == coerce.TypeBool {
		lb, lok := asBool(l)
		rb, rok := asBool(r)
		if !lok || !rok {
			return 0, false
		}
		if lb == rb {
			return 0, true
		}
		return 1, true // unequal; ordering of booleans is not meaningful
	}

	// Fall back to lexicographic string comparison.
	return strings.Compare(asString(l), asString(r)), true
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func asFloat(v coerce.Value) (float64, bool) {
	switch v.Type {
	case coerce.TypeInt:
		return float64(v.Int), true
	case coerce.TypeFloat:
		return v.Float, true
	}
	return 0, false
}

func asDate(v coerce.Value) (time.Time, bool) {
	switch v.Type {
	case coerce.TypeDate:
		return v.Time, true
	case coerce.TypeString:
		if d, ok := coerce.ParseDate(v.Str); ok {
			return d, true
		}
	}
	return time.Time{}, false
}

func asBool(v coerce.Value) (bool, bool) {
	switch v.Type {
	case coerce.TypeBool:
		return v.Bool, true
	case coerce.TypeString:
		return coerce.ParseBool(v.Str)
	}
	return false, false
}

func asString(v coerce.Value) string {
	switch v.Type {
	case coerce.TypeString:
		return v.Str
	case coerce.TypeBool:
		if v.Bool {
			return "true"
		}
		return "false"
	}
	return v.Str
}
