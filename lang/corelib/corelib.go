// Package corelib is the host "standard library" that pre-populates
// the evaluator's bottom scope block: println, len, and a math core
// object, built on the core-object/core-function protocol in
// lang/value.
package corelib

import (
	"fmt"
	"io"
	"math"

	"github.com/shadowCow/corelang/lang/value"
)

// Println is the println(x) core function. It stringifies its one
// argument per the ADD/stringification rule and writes it newline
// terminated to Out.
type Println struct {
	Out io.Writer
}

func (p *Println) Call(h value.Handle) error {
	arg, err := h.PopArgument()
	if err != nil {
		return fmt.Errorf("println: %w", err)
	}
	fmt.Fprintln(p.Out, value.Stringify(arg))
	h.Push(value.NewNull())
	return nil
}

// Len is the len(x) core function: the length of a string argument.
type Len struct{}

func (Len) Call(h value.Handle) error {
	arg, err := h.PopArgument()
	if err != nil {
		return fmt.Errorf("len: %w", err)
	}
	d := value.Deref(arg)
	if d.Kind != value.String {
		return &value.TypeError{Op: "len", Reason: "argument must be a string"}
	}
	h.Push(value.NewNumber(float64(len(d.Str))))
	return nil
}

// Abs is the math.abs(x) core function.
type Abs struct{}

func (Abs) Call(h value.Handle) error {
	arg, err := h.PopArgument()
	if err != nil {
		return fmt.Errorf("math.abs: %w", err)
	}
	d := value.Deref(arg)
	if d.Kind != value.Number {
		return &value.TypeError{Op: "math.abs", Reason: "argument must be a number"}
	}
	h.Push(value.NewNumber(math.Abs(d.Number)))
	return nil
}

// Math is the `math` core object: a constant `pi` member and a unary
// `abs` core function member, reached via STRUCTREF.
type Math struct {
	members map[string]*value.Value
}

// NewMath builds the math core object with its members pre-populated.
func NewMath() *Math {
	return &Math{
		members: map[string]*value.Value{
			"pi":  value.NewNumber(math.Pi).AsLValue(),
			"abs": value.NewCoreFunction(Abs{}).AsLValue(),
		},
	}
}

// GetMember implements value.Object.
func (m *Math) GetMember(name string) (*value.Value, error) {
	cell, ok := m.members[name]
	if !ok {
		return nil, fmt.Errorf("lookup error: math has no member %q", name)
	}
	return cell, nil
}

// Builtins returns the name -> storage-cell bindings the evaluator
// installs into its bottom, always-present scope block before running
// any user code, writing println's output to out.
func Builtins(out io.Writer) map[string]*value.Value {
	return map[string]*value.Value{
		"println": value.NewCoreFunction(&Println{Out: out}).AsLValue(),
		"len":     value.NewCoreFunction(Len{}).AsLValue(),
		"math":    value.NewCoreObject(NewMath()).AsLValue(),
	}
}
