package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadowCow/corelang/lang/bytecode"
	"github.com/shadowCow/corelang/lang/value"
)

func topNumber(t *testing.T, e *Evaluator) float64 {
	t.Helper()
	v, ok := e.TopValue()
	require.True(t, ok, "expected a value on the work stack")
	require.Equal(t, value.Number, value.Deref(v).Kind)
	return value.Deref(v).Number
}

func TestArithmeticPrecedence(t *testing.T) {
	// 2 + 3 * 4: push 2, push 3, push 4, MUL, ADD.
	prog := bytecode.Program{
		bytecode.Number(2),
		bytecode.Number(3),
		bytecode.Number(4),
		bytecode.Op(bytecode.MUL),
		bytecode.Op(bytecode.ADD),
	}
	e := New(prog)
	require.NoError(t, e.Run())
	assert.Equal(t, 14.0, topNumber(t, e))
}

func TestDeclareAssignAndRead(t *testing.T) {
	prog := bytecode.Program{
		bytecode.Ident("x"),
		bytecode.Op(bytecode.DECLVAR),
		bytecode.Ident("x"),
		bytecode.Number(5),
		bytecode.Op(bytecode.ASSIGN),
		bytecode.Ident("x"),
		bytecode.Op(bytecode.DEREF),
	}
	e := New(prog)
	require.NoError(t, e.Run())
	assert.Equal(t, 5.0, topNumber(t, e))
}

func TestDeclareDuplicateInSameBlockFails(t *testing.T) {
	prog := bytecode.Program{
		bytecode.Ident("x"),
		bytecode.Op(bytecode.DECLVAR),
		bytecode.Ident("x"),
		bytecode.Op(bytecode.DECLVAR),
	}
	e := New(prog)
	err := e.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already declared")
}

func TestIfBranchesTrue(t *testing.T) {
	prog := bytecode.Program{
		bytecode.Bool(true),
		bytecode.Addr(4),
		bytecode.Addr(7),
		bytecode.Op(bytecode.IF),
		bytecode.Number(111),
		bytecode.Addr(8),
		bytecode.Op(bytecode.JMP),
		bytecode.Number(222),
	}
	e := New(prog)
	require.NoError(t, e.Run())
	assert.Equal(t, 111.0, topNumber(t, e))
}

func TestIfBranchesFalse(t *testing.T) {
	prog := bytecode.Program{
		bytecode.Bool(false),
		bytecode.Addr(4),
		bytecode.Addr(7),
		bytecode.Op(bytecode.IF),
		bytecode.Number(111),
		bytecode.Addr(8),
		bytecode.Op(bytecode.JMP),
		bytecode.Number(222),
	}
	e := New(prog)
	require.NoError(t, e.Run())
	assert.Equal(t, 222.0, topNumber(t, e))
}

func TestCallAndReturn(t *testing.T) {
	// idx0-1: jump over the body; idx2-3: body (push 42, return);
	// idx4: main calls the function bound externally to address 2.
	prog := bytecode.Program{
		bytecode.Addr(4),
		bytecode.Op(bytecode.JMP),
		bytecode.Number(42),
		bytecode.Op(bytecode.RET),
		bytecode.Ident("f"),
		bytecode.Op(bytecode.CALL),
	}
	e := New(prog, WithBuiltins(map[string]*value.Value{
		"f": value.NewScriptFunction(2).AsLValue(),
	}))
	require.NoError(t, e.Run())
	assert.Equal(t, 42.0, topNumber(t, e))
}

func TestPushArgAndPopArgBindParameter(t *testing.T) {
	// double(a) { let a... bound via POPARG/ASSIGN ...; return a * 2; }
	prog := bytecode.Program{
		bytecode.Addr(12), // 0: jump-over target
		bytecode.Op(bytecode.JMP),     // 1
		bytecode.Ident("a"),           // 2  body start (addr=2)
		bytecode.Op(bytecode.DECLVAR), // 3
		bytecode.Ident("a"),           // 4
		bytecode.Op(bytecode.POPARG),  // 5
		bytecode.Op(bytecode.ASSIGN),  // 6
		bytecode.Ident("a"),           // 7
		bytecode.Op(bytecode.DEREF),   // 8
		bytecode.Number(2),            // 9
		bytecode.Op(bytecode.MUL),     // 10
		bytecode.Op(bytecode.RET),     // 11
		bytecode.Number(21),           // 12 main start
		bytecode.Op(bytecode.PUSHARG), // 13
		bytecode.Ident("double"),      // 14
		bytecode.Op(bytecode.CALL),    // 15
	}
	e := New(prog, WithBuiltins(map[string]*value.Value{
		"double": value.NewScriptFunction(2).AsLValue(),
	}))
	require.NoError(t, e.Run())
	assert.Equal(t, 42.0, topNumber(t, e))
}

func TestAssignRefSwapsThroughReference(t *testing.T) {
	prog := bytecode.Program{
		bytecode.Ident("x"),
		bytecode.Op(bytecode.DECLVAR),
		bytecode.Ident("x"),
		bytecode.Number(5),
		bytecode.Op(bytecode.ASSIGN),
		bytecode.Ident("r"),
		bytecode.Op(bytecode.DECLVAR),
		bytecode.Ident("r"),
		bytecode.Ident("x"),
		bytecode.Op(bytecode.ASSIGNREF),
		bytecode.Ident("r"),
		bytecode.Number(99),
		bytecode.Op(bytecode.ASSIGN),
		bytecode.Ident("x"),
		bytecode.Op(bytecode.DEREF),
	}
	e := New(prog)
	require.NoError(t, e.Run())
	assert.Equal(t, 99.0, topNumber(t, e))
}

func TestAssignRefToRvalueFails(t *testing.T) {
	prog := bytecode.Program{
		bytecode.Ident("r"),
		bytecode.Op(bytecode.DECLVAR),
		bytecode.Ident("r"),
		bytecode.Number(5), // a bare literal is an rvalue, not a referenceable lvalue
		bytecode.Op(bytecode.ASSIGNREF),
	}
	e := New(prog)
	err := e.Run()
	require.Error(t, err)
	var typeErr *value.TypeError
	require.ErrorAs(t, err, &typeErr)
}

func TestDelBlockOnHostBlockFails(t *testing.T) {
	prog := bytecode.Program{bytecode.Op(bytecode.DELBLOCK)}
	e := New(prog)
	err := e.Run()
	require.Error(t, err)
	var scopeErr *ScopeError
	require.ErrorAs(t, err, &scopeErr)
}

func TestDefBlockThenDelBlockRoundTrips(t *testing.T) {
	prog := bytecode.Program{
		bytecode.Op(bytecode.DEFBLOCK),
		bytecode.Ident("y"),
		bytecode.Op(bytecode.DECLVAR),
		bytecode.Op(bytecode.DELBLOCK),
	}
	e := New(prog)
	require.NoError(t, e.Run())
}

func TestPopArgOnEmptyQueueFails(t *testing.T) {
	prog := bytecode.Program{bytecode.Op(bytecode.POPARG)}
	e := New(prog)
	err := e.Run()
	require.Error(t, err)
	var lookupErr *LookupError
	require.ErrorAs(t, err, &lookupErr)
}

func TestStructRefReadsCoreObjectMember(t *testing.T) {
	obj := &fakeObject{members: map[string]*value.Value{
		"answer": value.NewNumber(42).AsLValue(),
	}}
	prog := bytecode.Program{
		bytecode.Ident("obj"),
		bytecode.Ident("answer"),
		bytecode.Op(bytecode.STRUCTREF),
		bytecode.Op(bytecode.DEREF),
	}
	e := New(prog, WithBuiltins(map[string]*value.Value{
		"obj": value.NewCoreObject(obj).AsLValue(),
	}))
	require.NoError(t, e.Run())
	assert.Equal(t, 42.0, topNumber(t, e))
}

type fakeObject struct {
	members map[string]*value.Value
}

func (o *fakeObject) GetMember(name string) (*value.Value, error) {
	v, ok := o.members[name]
	if !ok {
		return nil, assert.AnError
	}
	return v, nil
}
