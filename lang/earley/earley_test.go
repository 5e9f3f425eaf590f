package earley

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadowCow/corelang/lang/grammar"
	"github.com/shadowCow/corelang/lang/token"
)

// Sum -> Sum "+" Num | Num ; Num -> NUMBER
func sumGrammar() *grammar.Grammar {
	return grammar.NewBuilder("Sum").
		Define("Sum",
			grammar.Alt(grammar.NonTerminal("Sum"), grammar.Terminal(token.PLUS), grammar.NonTerminal("Num")),
			grammar.Alt(grammar.NonTerminal("Num")),
		).
		Define("Num", grammar.Alt(grammar.Terminal(token.NUMBER))).
		Build()
}

func numTok(lexeme string, offset int) token.Token {
	return token.Token{Kind: token.NUMBER, Lexeme: lexeme, Offset: offset}
}

func plusTok(offset int) token.Token {
	return token.Token{Kind: token.PLUS, Lexeme: "+", Offset: offset}
}

func TestRecognize_Accepts(t *testing.T) {
	g := sumGrammar()
	toks := []token.Token{numTok("1", 0), plusTok(1), numTok("2", 2), plusTok(3), numTok("3", 4)}

	result, err := Recognize(g, toks)
	require.NoError(t, err)
	assert.Len(t, result.States, len(toks)+1)
	assert.Equal(t, grammar.Symbol("Sum"), result.Accept.Rule)
	assert.Equal(t, 0, result.Accept.Origin)
	assert.True(t, result.Accept.Complete(g))
}

func TestRecognize_RejectsInvalidToken(t *testing.T) {
	g := sumGrammar()
	toks := []token.Token{numTok("1", 0), plusTok(1), plusTok(2)}

	_, err := Recognize(g, toks)
	require.Error(t, err)
	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.False(t, perr.UnexpectedEOF)
}

func TestRecognize_RejectsUnexpectedEOF(t *testing.T) {
	g := sumGrammar()
	toks := []token.Token{numTok("1", 0), plusTok(1)}

	_, err := Recognize(g, toks)
	require.Error(t, err)
	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.True(t, perr.UnexpectedEOF)
}

func TestRecognize_StateSetCountMatchesTokenCountPlusOne(t *testing.T) {
	g := sumGrammar()
	toks := []token.Token{numTok("42", 0)}

	result, err := Recognize(g, toks)
	require.NoError(t, err)
	assert.Len(t, result.States, 2)
}

func TestRecognize_NullableRule(t *testing.T) {
	g := grammar.NewBuilder("S").
		Define("S", grammar.Alt(grammar.NonTerminal("A"), grammar.Terminal(token.NUMBER))).
		Define("A",
			grammar.Alt(grammar.Terminal(token.IDENT)),
			grammar.Alt(),
		).
		Build()

	toks := []token.Token{{Kind: token.NUMBER, Lexeme: "7"}}
	result, err := Recognize(g, toks)
	require.NoError(t, err)
	assert.Equal(t, grammar.Symbol("S"), result.Accept.Rule)
}
