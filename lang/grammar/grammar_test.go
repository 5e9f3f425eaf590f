package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shadowCow/corelang/lang/token"
)

// A tiny grammar: S -> A B ; A -> "a" | (empty) ; B -> "b"
func buildTiny() *Grammar {
	return NewBuilder("S").
		Define("S", Alt(NonTerminal("A"), NonTerminal("B"))).
		Define("A",
			Alt(Terminal(token.IDENT)),
			Alt(), // epsilon
		).
		Define("B", Alt(Terminal(token.NUMBER))).
		Build()
}

func TestNullability(t *testing.T) {
	g := buildTiny()
	assert.True(t, g.IsNullable("A"))
	assert.False(t, g.IsNullable("B"))
	assert.False(t, g.IsNullable("S"))
}

func TestRuleLookup(t *testing.T) {
	g := buildTiny()
	require := assert.New(t)
	require.NotNil(g.Rule("S"))
	require.Nil(g.Rule("Z"))
	require.Equal(Symbol("S"), g.Start)
}

func TestBuilderPanicsOnDuplicateRule(t *testing.T) {
	defer func() {
		r := recover()
		assert.NotNil(t, r)
	}()
	NewBuilder("S").
		Define("S", Alt()).
		Define("S", Alt())
}
