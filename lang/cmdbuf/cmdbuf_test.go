package cmdbuf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadowCow/corelang/lang/bytecode"
	"github.com/shadowCow/corelang/lang/grammar"
	"github.com/shadowCow/corelang/lang/token"
)

func TestGenerate_PlainItems(t *testing.T) {
	b := New()
	b.PushRoot(func(e *Buffer) {
		e.Push(bytecode.Number(1))
		e.Push(bytecode.Number(2))
	})

	prog, err := b.Generate()
	require.NoError(t, err)
	assert.Equal(t, bytecode.Program{bytecode.Number(1), bytecode.Number(2)}, prog)
}

func TestGenerate_PositionResolvesPastItsOwnSlot(t *testing.T) {
	b := New()
	b.PushRoot(func(e *Buffer) {
		idx := e.CreatePositionIndex()
		e.RequestPosition(idx)
		e.Push(bytecode.Op(bytecode.POP))
		e.ReplyPosition(idx)
	})

	prog, err := b.Generate()
	require.NoError(t, err)
	require.Len(t, prog, 2)
	assert.Equal(t, bytecode.Addr(2), prog[0])
	assert.Equal(t, bytecode.Op(bytecode.POP), prog[1])
}

func TestGenerate_NestedTranslate(t *testing.T) {
	leaf := &fakeNode{
		alt: &grammar.Alternative{
			Important: true,
			Translate: func(n grammar.TranslateNode, e grammar.Emitter) {
				e.Push(bytecode.Number(9))
			},
		},
	}
	root := &fakeNode{
		alt: &grammar.Alternative{
			Important: true,
			Translate: grammar.DefaultTranslate,
		},
		children: []grammar.TranslateNode{leaf, leaf},
	}

	b := New()
	b.PushRootNode(root)

	prog, err := b.Generate()
	require.NoError(t, err)
	assert.Equal(t, bytecode.Program{bytecode.Number(9), bytecode.Number(9)}, prog)
}

func TestGenerate_PropagatesTranslationFailure(t *testing.T) {
	b := New()
	b.PushRoot(func(e *Buffer) {
		e.Fail("continue outside loop")
	})

	_, err := b.Generate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "continue outside loop")
}

func TestLoopBounds_StackAndScopeDepthSnapshot(t *testing.T) {
	b := New()
	b.EnterScope()
	start := b.CreatePositionIndex()
	end := b.CreatePositionIndex()
	b.PushLoopBounds(start, end)
	b.EnterScope()

	gotStart, gotEnd, depth, ok := b.LoopBounds()
	require.True(t, ok)
	assert.Equal(t, start, gotStart)
	assert.Equal(t, end, gotEnd)
	assert.Equal(t, 1, depth)
	assert.Equal(t, 2, b.ScopeDepth())

	b.PopLoopBounds()
	_, _, _, ok = b.LoopBounds()
	assert.False(t, ok)
}

type fakeNode struct {
	alt      *grammar.Alternative
	children []grammar.TranslateNode
}

func (n *fakeNode) Alternative() *grammar.Alternative { return n.alt }
func (n *fakeNode) Children() []grammar.TranslateNode { return n.children }
func (n *fakeNode) Token() (token.Token, bool)         { return token.Token{}, false }
