// Package value implements the tagged runtime Value the evaluator
// (lang/vm) operates on: the lvalue/rvalue category, reference
// collapsing, and the unary/binary/comparison operator tables.
package value

import (
	"fmt"
	"strings"
)

// Kind tags which variant of the runtime value union is active.
type Kind int

const (
	Null Kind = iota
	Bool
	Number
	String
	ScriptFunction
	CoreObject
	CoreFunction
	Reference
)

// Category distinguishes an assignable named slot (LValue) from an
// ephemeral computed result (RValue). Only an LValue may be the target
// of ASSIGN or ASSIGNREF.
type Category int

const (
	RValue Category = iota
	LValue
)

// Handle is the narrow evaluator surface a CoreFunction needs: pulling
// the next queued call argument and pushing its result. lang/vm's
// Evaluator satisfies this without value importing vm.
type Handle interface {
	PopArgument() (*Value, error)
	Push(v *Value)
}

// Object is the host core-object protocol (§6): member lookup by name,
// returning the stable storage cell for that member so callers can
// wrap it in an lvalue Reference.
type Object interface {
	GetMember(name string) (*Value, error)
}

// Function is the host core-function protocol (§6): a single method
// invoked synchronously with a handle to the evaluator.
type Function interface {
	Call(h Handle) error
}

// Value is the tagged runtime union described in §3.
type Value struct {
	Kind     Kind
	Category Category

	Bool   bool
	Number float64
	Str    string
	Addr   int // ScriptFunction entry point

	Object   Object
	Function Function

	Ref *Value // Reference target; never itself a Reference (collapsed at construction)
}

func NewNull() *Value              { return &Value{Kind: Null} }
func NewBool(b bool) *Value        { return &Value{Kind: Bool, Bool: b} }
func NewNumber(n float64) *Value   { return &Value{Kind: Number, Number: n} }
func NewString(s string) *Value    { return &Value{Kind: String, Str: s} }
func NewScriptFunction(addr int) *Value {
	return &Value{Kind: ScriptFunction, Addr: addr}
}
func NewCoreObject(o Object) *Value     { return &Value{Kind: CoreObject, Object: o} }
func NewCoreFunction(f Function) *Value { return &Value{Kind: CoreFunction, Function: f} }

// NewReference builds a reference to target, collapsing reference
// chains so a Reference's Ref field always points directly at a
// non-Reference cell (spec invariant: ref->ref is collapsed at
// construction, so cycles cannot form).
func NewReference(target *Value) *Value {
	for target.Kind == Reference {
		target = target.Ref
	}
	return &Value{Kind: Reference, Category: RValue, Ref: target}
}

// AsLValue returns a shallow copy of v tagged as an assignable slot.
func (v *Value) AsLValue() *Value {
	cp := *v
	cp.Category = LValue
	return &cp
}

// Resolve follows a reference chain (of length at most one, by
// construction) down to the concrete underlying value cell.
func Resolve(v *Value) *Value {
	for v.Kind == Reference {
		v = v.Ref
	}
	return v
}

// Deref resolves references and returns a fresh rvalue copy of the
// concrete value's contents, per the DEREF opcode and the rule that
// every binary operation first dereferences both operands.
func Deref(v *Value) *Value {
	cp := *Resolve(v)
	cp.Category = RValue
	cp.Ref = nil
	return &cp
}

// TypeError reports an operator applied to incompatible operand kinds.
type TypeError struct {
	Op     string
	Reason string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("type error: %s: %s", e.Op, e.Reason)
}

// Truthy implements the IF/AND/OR truthiness rule: null is false, bool
// is itself, number is non-zero, anything else is a type error.
func Truthy(v *Value) (bool, error) {
	d := Deref(v)
	switch d.Kind {
	case Null:
		return false, nil
	case Bool:
		return d.Bool, nil
	case Number:
		return d.Number != 0, nil
	default:
		return false, &TypeError{Op: "IF", Reason: "value is not bool, number, or null"}
	}
}

// Stringify renders a value the way ADD's string-concatenation branch
// and println do: null -> "Null", bool -> "True"/"False", number ->
// fixed six-fractional-digit decimal, string -> itself.
func Stringify(v *Value) string {
	d := Deref(v)
	switch d.Kind {
	case Null:
		return "Null"
	case Bool:
		if d.Bool {
			return "True"
		}
		return "False"
	case Number:
		return fmt.Sprintf("%.6f", d.Number)
	case String:
		return d.Str
	default:
		return fmt.Sprintf("<%s>", kindName(d.Kind))
	}
}

func kindName(k Kind) string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case ScriptFunction:
		return "function"
	case CoreObject:
		return "object"
	case CoreFunction:
		return "core-function"
	case Reference:
		return "reference"
	default:
		return "unknown"
	}
}

func toNumber(v *Value) (float64, bool) {
	switch v.Kind {
	case Number:
		return v.Number, true
	case Bool:
		if v.Bool {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// Not implements the NOT opcode: defined for bool/number, negating
// truthiness.
func Not(a *Value) (*Value, error) {
	d := Deref(a)
	if d.Kind != Bool && d.Kind != Number {
		return nil, &TypeError{Op: "NOT", Reason: "operand must be bool or number"}
	}
	truthy, _ := Truthy(d)
	return NewBool(!truthy), nil
}

// Unm implements the UNM opcode: defined for bool/number, negating the
// numeric coercion of the operand.
func Unm(a *Value) (*Value, error) {
	d := Deref(a)
	n, ok := toNumber(d)
	if !ok {
		return nil, &TypeError{Op: "UNM", Reason: "operand must be bool or number"}
	}
	return NewNumber(-n), nil
}

// Add implements the ADD opcode: string concatenation if either
// operand is a string, else numeric sum of bool/number operands.
func Add(a, b *Value) (*Value, error) {
	da, db := Deref(a), Deref(b)
	if da.Kind == String || db.Kind == String {
		return NewString(Stringify(da) + Stringify(db)), nil
	}
	na, oka := toNumber(da)
	nb, okb := toNumber(db)
	if oka && okb {
		return NewNumber(na + nb), nil
	}
	return nil, &TypeError{Op: "ADD", Reason: "operands must be string, bool, or number"}
}

func arithmetic(op string, a, b *Value, f func(x, y float64) float64) (*Value, error) {
	da, db := Deref(a), Deref(b)
	na, oka := toNumber(da)
	nb, okb := toNumber(db)
	if !oka || !okb {
		return nil, &TypeError{Op: op, Reason: "operands must be bool or number"}
	}
	return NewNumber(f(na, nb)), nil
}

func Sub(a, b *Value) (*Value, error) {
	return arithmetic("SUB", a, b, func(x, y float64) float64 { return x - y })
}

func Mul(a, b *Value) (*Value, error) {
	return arithmetic("MUL", a, b, func(x, y float64) float64 { return x * y })
}

func Div(a, b *Value) (*Value, error) {
	return arithmetic("DIV", a, b, func(x, y float64) float64 { return x / y })
}

func logical(op string, a, b *Value, f func(x, y bool) bool) (*Value, error) {
	da, db := Deref(a), Deref(b)
	if (da.Kind != Bool && da.Kind != Number) || (db.Kind != Bool && db.Kind != Number) {
		return nil, &TypeError{Op: op, Reason: "operands must be bool or number"}
	}
	ta, _ := Truthy(da)
	tb, _ := Truthy(db)
	return NewBool(f(ta, tb)), nil
}

func And(a, b *Value) (*Value, error) {
	return logical("AND", a, b, func(x, y bool) bool { return x && y })
}

func Or(a, b *Value) (*Value, error) {
	return logical("OR", a, b, func(x, y bool) bool { return x || y })
}

// Eq implements the == comparison table: null==null is true, exactly
// one null is false, bool/number compare numerically (bool==bool
// compares directly), string compares lexicographically, any other
// pairing is a type error.
func Eq(a, b *Value) (*Value, error) {
	da, db := Deref(a), Deref(b)

	if da.Kind == Null && db.Kind == Null {
		return NewBool(true), nil
	}
	if da.Kind == Null || db.Kind == Null {
		return NewBool(false), nil
	}
	if da.Kind == Bool && db.Kind == Bool {
		return NewBool(da.Bool == db.Bool), nil
	}
	if na, oka := toNumber(da); oka {
		if nb, okb := toNumber(db); okb {
			return NewBool(na == nb), nil
		}
	}
	if da.Kind == String && db.Kind == String {
		return NewBool(da.Str == db.Str), nil
	}
	return nil, &TypeError{Op: "EQ", Reason: "operands are not comparable"}
}

func Neq(a, b *Value) (*Value, error) {
	eq, err := Eq(a, b)
	if err != nil {
		return nil, &TypeError{Op: "NEQ", Reason: err.Error()}
	}
	return NewBool(!eq.Bool), nil
}

type ordering int

const (
	orderLess ordering = iota
	orderLessEqual
	orderGreater
	orderGreaterEqual
)

func compareOrder(op string, kind ordering, a, b *Value) (*Value, error) {
	da, db := Deref(a), Deref(b)

	if da.Kind == Null && db.Kind == Null {
		switch kind {
		case orderLessEqual, orderGreaterEqual:
			return NewBool(true), nil
		default:
			return NewBool(false), nil
		}
	}

	if na, oka := toNumber(da); oka {
		if nb, okb := toNumber(db); okb {
			return NewBool(applyOrder(kind, na, nb)), nil
		}
	}

	if da.Kind == String && db.Kind == String {
		c := strings.Compare(da.Str, db.Str)
		return NewBool(applyOrder(kind, float64(c), 0)), nil
	}

	return nil, &TypeError{Op: op, Reason: "operands are not ordered comparable"}
}

func applyOrder(kind ordering, x, y float64) bool {
	switch kind {
	case orderLess:
		return x < y
	case orderLessEqual:
		return x <= y
	case orderGreater:
		return x > y
	default:
		return x >= y
	}
}

func Lt(a, b *Value) (*Value, error) { return compareOrder("LT", orderLess, a, b) }
func Le(a, b *Value) (*Value, error) { return compareOrder("LE", orderLessEqual, a, b) }
func Gt(a, b *Value) (*Value, error) { return compareOrder("GT", orderGreater, a, b) }
func Ge(a, b *Value) (*Value, error) { return compareOrder("GE", orderGreaterEqual, a, b) }
