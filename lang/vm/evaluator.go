// Package vm implements the stack-based tree-walking evaluator: the
// work stack, pointer stack, FIFO argument queue and scope-block stack
// described for bytecode execution, dispatching over the opcode
// catalog in lang/bytecode.
package vm

import (
	"fmt"

	"github.com/shadowCow/corelang/lang/bytecode"
	"github.com/shadowCow/corelang/lang/value"
)

// LookupError reports an identifier missing from every visible scope,
// an empty argument queue at POPARG, or a core-object member miss.
type LookupError struct {
	Reason string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("lookup error: %s", e.Reason)
}

// ScopeError reports a duplicate declaration in one block, or
// DELBLOCK leaving only the host block.
type ScopeError struct {
	Reason string
}

func (e *ScopeError) Error() string {
	return fmt.Sprintf("scope error: %s", e.Reason)
}

// Block is one scope frame: identifier slice to storage-cell bindings.
type Block map[string]*value.Value

// stackItem is a work-stack slot: either a not-yet-resolved identifier
// slice or an already-resolved value.
type stackItem struct {
	isIdent bool
	ident   string
	val     *value.Value
}

// Evaluator holds all the execution state described for bytecode
// interpretation: program counter over the flat program, a work stack
// of stack items, a separate pointer stack of jump/return addresses, a
// FIFO argument queue, and a stack of scope blocks whose bottom
// element persists for the evaluator's lifetime and hosts the
// standard library.
type Evaluator struct {
	Program bytecode.Program
	pc      int

	work     []stackItem
	pointers []int
	args     []*value.Value
	scopes   []Block
}

// Option configures an Evaluator at construction time.
type Option func(*Evaluator)

// WithBuiltins installs name -> cell bindings into the host block
// before execution starts.
func WithBuiltins(builtins map[string]*value.Value) Option {
	return func(e *Evaluator) {
		for name, cell := range builtins {
			e.scopes[0][name] = cell
		}
	}
}

// New builds an Evaluator over program, applying opts in order.
func New(program bytecode.Program, opts ...Option) *Evaluator {
	e := &Evaluator{Program: program, scopes: []Block{{}}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes the program to completion or until an opcode fails.
func (e *Evaluator) Run() error {
	for e.pc < len(e.Program) {
		item := e.Program[e.pc]
		if item.Kind != bytecode.KindOpcode {
			e.pushRaw(item)
			e.pc++
			continue
		}

		op := item.Op
		at := e.pc
		e.pc++
		if err := e.dispatch(op); err != nil {
			return fmt.Errorf("runtime error at %d (%s): %w", at, op, err)
		}
	}
	return nil
}

// TopValue resolves and returns the work stack's top item without
// removing it, for callers inspecting the result of a finished run.
func (e *Evaluator) TopValue() (*value.Value, bool) {
	if len(e.work) == 0 {
		return nil, false
	}
	v, err := e.resolve(e.work[len(e.work)-1])
	if err != nil {
		return nil, false
	}
	return v, true
}

// PopArgument implements value.Handle for core functions.
func (e *Evaluator) PopArgument() (*value.Value, error) {
	if len(e.args) == 0 {
		return nil, &LookupError{Reason: "argument queue is empty"}
	}
	v := e.args[0]
	e.args = e.args[1:]
	return v, nil
}

// Push implements value.Handle for core functions: places a result
// onto the work stack exactly as a script return value would be.
func (e *Evaluator) Push(v *value.Value) {
	e.pushResolved(v)
}

func (e *Evaluator) dispatch(op bytecode.Opcode) error {
	switch op {
	case bytecode.DECLVAR:
		return e.opDeclVar()
	case bytecode.DECLFUN:
		return e.opDeclFun()
	case bytecode.ASSIGN:
		return e.opAssign()
	case bytecode.ASSIGNREF:
		return e.opAssignRef()
	case bytecode.DEREF:
		return e.opDeref()
	case bytecode.STRUCTREF:
		return e.opStructRef()
	case bytecode.POP:
		return e.opPop()
	case bytecode.NOT:
		return e.unary(value.Not)
	case bytecode.UNM:
		return e.unary(value.Unm)
	case bytecode.ADD:
		return e.binary(value.Add)
	case bytecode.SUB:
		return e.binary(value.Sub)
	case bytecode.MUL:
		return e.binary(value.Mul)
	case bytecode.DIV:
		return e.binary(value.Div)
	case bytecode.AND:
		return e.binary(value.And)
	case bytecode.OR:
		return e.binary(value.Or)
	case bytecode.EQ:
		return e.binary(value.Eq)
	case bytecode.NEQ:
		return e.binary(value.Neq)
	case bytecode.LT:
		return e.binary(value.Lt)
	case bytecode.LE:
		return e.binary(value.Le)
	case bytecode.GT:
		return e.binary(value.Gt)
	case bytecode.GE:
		return e.binary(value.Ge)
	case bytecode.IF:
		return e.opIf()
	case bytecode.JMP:
		return e.opJmp()
	case bytecode.CALL:
		return e.opCall()
	case bytecode.RET:
		return e.opRet()
	case bytecode.PUSHARG:
		return e.opPushArg()
	case bytecode.POPARG:
		return e.opPopArg()
	case bytecode.DEFBLOCK:
		return e.opDefBlock()
	case bytecode.DELBLOCK:
		return e.opDelBlock()
	default:
		return fmt.Errorf("runtime error: unknown opcode %s", op)
	}
}

func (e *Evaluator) opDeclVar() error {
	item, err := e.popWork()
	if err != nil {
		return err
	}
	if !item.isIdent {
		return &ScopeError{Reason: "DECLVAR requires an identifier"}
	}
	top := e.scopes[len(e.scopes)-1]
	if _, exists := top[item.ident]; exists {
		return &ScopeError{Reason: fmt.Sprintf("%q already declared in this block", item.ident)}
	}
	top[item.ident] = value.NewNull().AsLValue()
	return nil
}

func (e *Evaluator) opDeclFun() error {
	nameItem, err := e.popWork()
	if err != nil {
		return err
	}
	if !nameItem.isIdent {
		return &ScopeError{Reason: "DECLFUN requires an identifier"}
	}
	addr, err := e.popPointer()
	if err != nil {
		return err
	}
	top := e.scopes[len(e.scopes)-1]
	if _, exists := top[nameItem.ident]; exists {
		return &ScopeError{Reason: fmt.Sprintf("%q already declared in this block", nameItem.ident)}
	}
	top[nameItem.ident] = value.NewScriptFunction(addr).AsLValue()
	return nil
}

func (e *Evaluator) opAssign() error {
	valItem, err := e.popWork()
	if err != nil {
		return err
	}
	targetItem, err := e.popWork()
	if err != nil {
		return err
	}

	val, err := e.resolve(valItem)
	if err != nil {
		return err
	}
	target, err := e.resolve(targetItem)
	if err != nil {
		return err
	}

	cell := value.Resolve(target)
	if cell.Category != value.LValue {
		return &value.TypeError{Op: "ASSIGN", Reason: "assignment target is not an lvalue"}
	}

	rv := value.Deref(val)
	cell.Kind = rv.Kind
	cell.Bool = rv.Bool
	cell.Number = rv.Number
	cell.Str = rv.Str
	cell.Addr = rv.Addr
	cell.Object = rv.Object
	cell.Function = rv.Function
	cell.Ref = nil
	return nil
}

func (e *Evaluator) opAssignRef() error {
	valItem, err := e.popWork()
	if err != nil {
		return err
	}
	targetItem, err := e.popWork()
	if err != nil {
		return err
	}

	val, err := e.resolve(valItem)
	if err != nil {
		return err
	}
	if value.Resolve(val).Category != value.LValue {
		return &value.TypeError{Op: "ASSIGNREF", Reason: "cannot create a reference to an rvalue"}
	}

	target, err := e.resolve(targetItem)
	if err != nil {
		return err
	}
	cell := value.Resolve(target)
	if cell.Category != value.LValue {
		return &value.TypeError{Op: "ASSIGNREF", Reason: "assignment target is not an lvalue"}
	}

	pointee := value.Resolve(val)
	cell.Kind = value.Reference
	cell.Ref = pointee
	cell.Bool = false
	cell.Number = 0
	cell.Str = ""
	cell.Addr = 0
	cell.Object = nil
	cell.Function = nil
	return nil
}

func (e *Evaluator) opDeref() error {
	item, err := e.popWork()
	if err != nil {
		return err
	}
	v, err := e.resolve(item)
	if err != nil {
		return err
	}
	e.pushResolved(value.Deref(v))
	return nil
}

func (e *Evaluator) opStructRef() error {
	nameItem, err := e.popWork()
	if err != nil {
		return err
	}
	if !nameItem.isIdent {
		return &value.TypeError{Op: "STRUCTREF", Reason: "member name must be an identifier"}
	}
	objItem, err := e.popWork()
	if err != nil {
		return err
	}
	objVal, err := e.resolve(objItem)
	if err != nil {
		return err
	}
	obj := value.Deref(objVal)
	if obj.Kind != value.CoreObject {
		return &value.TypeError{Op: "STRUCTREF", Reason: "target is not a core object"}
	}
	member, err := obj.Object.GetMember(nameItem.ident)
	if err != nil {
		return &LookupError{Reason: err.Error()}
	}
	e.pushResolved(value.NewReference(member))
	return nil
}

func (e *Evaluator) opPop() error {
	if len(e.work) > 0 {
		e.work = e.work[:len(e.work)-1]
	}
	return nil
}

func (e *Evaluator) unary(f func(*value.Value) (*value.Value, error)) error {
	item, err := e.popWork()
	if err != nil {
		return err
	}
	v, err := e.resolve(item)
	if err != nil {
		return err
	}
	res, err := f(v)
	if err != nil {
		return err
	}
	e.pushResolved(res)
	return nil
}

func (e *Evaluator) binary(f func(a, b *value.Value) (*value.Value, error)) error {
	rightItem, err := e.popWork()
	if err != nil {
		return err
	}
	leftItem, err := e.popWork()
	if err != nil {
		return err
	}
	right, err := e.resolve(rightItem)
	if err != nil {
		return err
	}
	left, err := e.resolve(leftItem)
	if err != nil {
		return err
	}
	res, err := f(left, right)
	if err != nil {
		return err
	}
	e.pushResolved(res)
	return nil
}

func (e *Evaluator) opIf() error {
	item, err := e.popWork()
	if err != nil {
		return err
	}
	v, err := e.resolve(item)
	if err != nil {
		return err
	}
	falseAddr, err := e.popPointer()
	if err != nil {
		return err
	}
	trueAddr, err := e.popPointer()
	if err != nil {
		return err
	}
	truthy, err := value.Truthy(v)
	if err != nil {
		return err
	}
	if truthy {
		e.pc = trueAddr
	} else {
		e.pc = falseAddr
	}
	return nil
}

func (e *Evaluator) opJmp() error {
	addr, err := e.popPointer()
	if err != nil {
		return err
	}
	e.pc = addr
	return nil
}

func (e *Evaluator) opCall() error {
	item, err := e.popWork()
	if err != nil {
		return err
	}
	v, err := e.resolve(item)
	if err != nil {
		return err
	}
	callee := value.Resolve(v)
	switch callee.Kind {
	case value.ScriptFunction:
		e.pointers = append(e.pointers, e.pc)
		e.pc = callee.Addr
		return nil
	case value.CoreFunction:
		if err := callee.Function.Call(e); err != nil {
			return err
		}
		e.args = nil
		return nil
	default:
		return &value.TypeError{Op: "CALL", Reason: "value is not callable"}
	}
}

func (e *Evaluator) opRet() error {
	e.args = nil
	addr, err := e.popPointer()
	if err != nil {
		return err
	}
	e.pc = addr
	return nil
}

func (e *Evaluator) opPushArg() error {
	item, err := e.popWork()
	if err != nil {
		return err
	}
	if item.isIdent {
		cell, err := e.lookup(item.ident)
		if err != nil {
			return err
		}
		e.args = append(e.args, value.NewReference(cell))
		return nil
	}
	if item.val.Category == value.LValue {
		e.args = append(e.args, value.NewReference(item.val))
	} else {
		e.args = append(e.args, item.val)
	}
	return nil
}

func (e *Evaluator) opPopArg() error {
	v, err := e.PopArgument()
	if err != nil {
		return err
	}
	e.pushResolved(v)
	return nil
}

func (e *Evaluator) opDefBlock() error {
	e.scopes = append(e.scopes, Block{})
	return nil
}

func (e *Evaluator) opDelBlock() error {
	if len(e.scopes) <= 1 {
		return &ScopeError{Reason: "cannot delete the host block"}
	}
	e.scopes = e.scopes[:len(e.scopes)-1]
	return nil
}

func (e *Evaluator) lookup(name string) (*value.Value, error) {
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if v, ok := e.scopes[i][name]; ok {
			return v, nil
		}
	}
	return nil, &LookupError{Reason: fmt.Sprintf("undefined identifier %q", name)}
}

func (e *Evaluator) resolve(item stackItem) (*value.Value, error) {
	if item.isIdent {
		return e.lookup(item.ident)
	}
	return item.val, nil
}

func (e *Evaluator) pushRaw(item bytecode.Item) {
	switch item.Kind {
	case bytecode.KindAddress:
		e.pointers = append(e.pointers, item.Addr)
	case bytecode.KindIdent:
		e.work = append(e.work, stackItem{isIdent: true, ident: item.Str})
	default:
		e.work = append(e.work, stackItem{val: valueFromItem(item)})
	}
}

func valueFromItem(item bytecode.Item) *value.Value {
	switch item.Kind {
	case bytecode.KindBool:
		return value.NewBool(item.Bool)
	case bytecode.KindNumber:
		return value.NewNumber(item.Number)
	case bytecode.KindString:
		return value.NewString(item.Str)
	default:
		return value.NewNull()
	}
}

func (e *Evaluator) pushResolved(v *value.Value) {
	e.work = append(e.work, stackItem{val: v})
}

func (e *Evaluator) popWork() (stackItem, error) {
	if len(e.work) == 0 {
		return stackItem{}, fmt.Errorf("runtime error: work stack underflow")
	}
	item := e.work[len(e.work)-1]
	e.work = e.work[:len(e.work)-1]
	return item, nil
}

func (e *Evaluator) popPointer() (int, error) {
	if len(e.pointers) == 0 {
		return 0, fmt.Errorf("runtime error: pointer stack underflow")
	}
	addr := e.pointers[len(e.pointers)-1]
	e.pointers = e.pointers[:len(e.pointers)-1]
	return addr, nil
}
