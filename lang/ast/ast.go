// Package ast reconstructs a single parse tree from the Earley chart
// that lang/earley produces, keeping only "important" alternatives as
// nodes and hoisting the sole child of elided ones. The result
// implements grammar.TranslateNode so lang/cmdbuf's translators can
// walk it without ast and grammar importing each other.
package ast

import (
	"fmt"

	"github.com/shadowCow/corelang/lang/earley"
	"github.com/shadowCow/corelang/lang/grammar"
	"github.com/shadowCow/corelang/lang/token"
)

// Node is either an interior node bound to a grammar alternative and a
// token range [Origin, End), or a leaf wrapping a single token.
type Node struct {
	rule     grammar.Symbol
	alt      *grammar.Alternative
	children []*Node
	tok      *token.Token
	Origin   int
	End      int
}

// Alternative implements grammar.TranslateNode.
func (n *Node) Alternative() *grammar.Alternative {
	return n.alt
}

// Children implements grammar.TranslateNode.
func (n *Node) Children() []grammar.TranslateNode {
	out := make([]grammar.TranslateNode, len(n.children))
	for i, c := range n.children {
		out[i] = c
	}
	return out
}

// Token implements grammar.TranslateNode.
func (n *Node) Token() (token.Token, bool) {
	if n.tok == nil {
		return token.Token{}, false
	}
	return *n.tok, true
}

// Rule reports the non-terminal name this node derives, or "" for a leaf.
func (n *Node) Rule() grammar.Symbol {
	return n.rule
}

// RawChildren exposes *Node children directly, for ast-internal and
// test code that wants concrete types instead of the TranslateNode view.
func (n *Node) RawChildren() []*Node {
	return n.children
}

// Error reports a failure to reconstruct a tree from an accepted parse.
// Since Build only ever runs after earley.Recognize has already accepted
// the input, this indicates a malformed grammar table rather than bad
// input.
type Error struct {
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("ast construction error: %s", e.Reason)
}

// Build reconstructs the tree for an accepted parse. tokens must be the
// exact slice passed to earley.Recognize, and result its return value.
func Build(g *grammar.Grammar, tokens []token.Token, result *earley.Result) (*Node, error) {
	b := &builder{g: g, tokens: tokens, states: result.States}
	b.index()

	node, pos, ok := b.build(result.Accept, len(tokens))
	if !ok || pos != result.Accept.Origin {
		return nil, &Error{Reason: "no consistent derivation for the accepted parse"}
	}
	return node, nil
}

type builder struct {
	g       *grammar.Grammar
	tokens  []token.Token
	states  []*earley.State
	byEnd   map[int][]earley.Item
}

// index groups every completed item by the state-set position it
// completed in (its end boundary), so build can look up candidate
// completions for a non-terminal ending at a given position.
func (b *builder) index() {
	b.byEnd = make(map[int][]earley.Item)
	for end, set := range b.states {
		for _, it := range set.Items() {
			if it.Complete(b.g) {
				b.byEnd[end] = append(b.byEnd[end], it)
			}
		}
	}
}

// build reconstructs the node for a completed item known to end at
// end, returning the node and the position its span begins at. It
// walks the alternative's symbols right to left, consuming one token
// per terminal and recursively resolving one completed sub-item per
// non-terminal, backtracking over ambiguous completions until it finds
// one whose begin position lines up with the symbol to its left.
func (b *builder) build(it earley.Item, end int) (*Node, int, bool) {
	alt := it.Alternative(b.g)
	children, begin, ok := b.buildSymbols(alt.Symbols, end, it.Origin)
	if !ok {
		return nil, 0, false
	}

	node := &Node{rule: it.Rule, alt: &alt, children: children, Origin: begin, End: end}
	if !alt.Important {
		if len(children) != 1 {
			return nil, 0, false
		}
		return children[0], begin, true
	}
	return node, begin, true
}

// buildSymbols resolves symbols[0:] against the token range ending at
// end, requiring the whole sequence to begin at exactly floor (the
// item's recorded origin). It recurses from the last symbol backward.
func (b *builder) buildSymbols(symbols []grammar.RuleSymbol, end int, floor int) ([]*Node, int, bool) {
	if len(symbols) == 0 {
		if end != floor {
			return nil, 0, false
		}
		return nil, end, true
	}

	last := symbols[len(symbols)-1]
	rest := symbols[:len(symbols)-1]

	if last.Kind == grammar.Term {
		if end <= floor {
			return nil, 0, false
		}
		pos := end - 1
		if b.tokens[pos].Kind != last.Token {
			return nil, 0, false
		}
		leaf := &Node{tok: &b.tokens[pos], Origin: pos, End: end}
		prefix, begin, ok := b.buildSymbols(rest, pos, floor)
		if !ok {
			return nil, 0, false
		}
		return append(prefix, leaf), begin, true
	}

	for _, cand := range b.byEnd[end] {
		if cand.Rule != last.Rule || cand.Origin < floor {
			continue
		}
		childNode, childBegin, ok := b.build(cand, end)
		if !ok {
			continue
		}
		prefix, begin, ok := b.buildSymbols(rest, childBegin, floor)
		if !ok {
			continue
		}
		return append(prefix, childNode), begin, true
	}

	return nil, 0, false
}
