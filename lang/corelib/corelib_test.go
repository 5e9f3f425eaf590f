package corelib

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadowCow/corelang/lang/value"
)

type queueHandle struct {
	args    []*value.Value
	pushed  *value.Value
}

func (q *queueHandle) PopArgument() (*value.Value, error) {
	if len(q.args) == 0 {
		return nil, assert.AnError
	}
	v := q.args[0]
	q.args = q.args[1:]
	return v, nil
}

func (q *queueHandle) Push(v *value.Value) {
	q.pushed = v
}

func TestPrintln_WritesStringified(t *testing.T) {
	var buf bytes.Buffer
	p := &Println{Out: &buf}
	h := &queueHandle{args: []*value.Value{value.NewNumber(7)}}

	require.NoError(t, p.Call(h))
	assert.Equal(t, "7.000000\n", buf.String())
	assert.Equal(t, value.Null, h.pushed.Kind)
}

func TestLen_ReturnsStringLength(t *testing.T) {
	h := &queueHandle{args: []*value.Value{value.NewString("hello")}}
	require.NoError(t, Len{}.Call(h))
	assert.Equal(t, 5.0, h.pushed.Number)
}

func TestLen_RejectsNonString(t *testing.T) {
	h := &queueHandle{args: []*value.Value{value.NewNumber(1)}}
	err := Len{}.Call(h)
	require.Error(t, err)
}

func TestMath_MembersResolve(t *testing.T) {
	m := NewMath()

	pi, err := m.GetMember("pi")
	require.NoError(t, err)
	assert.InDelta(t, 3.14159, pi.Number, 0.001)

	abs, err := m.GetMember("abs")
	require.NoError(t, err)
	assert.Equal(t, value.CoreFunction, abs.Kind)

	_, err = m.GetMember("nope")
	assert.Error(t, err)
}

func TestMath_Abs(t *testing.T) {
	h := &queueHandle{args: []*value.Value{value.NewNumber(-4)}}
	require.NoError(t, Abs{}.Call(h))
	assert.Equal(t, 4.0, h.pushed.Number)
}

func TestBuiltins_InstallsExpectedNames(t *testing.T) {
	var buf bytes.Buffer
	b := Builtins(&buf)
	assert.Contains(t, b, "println")
	assert.Contains(t, b, "len")
	assert.Contains(t, b, "math")
}
