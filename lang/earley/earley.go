// Package earley implements an Earley recognizer over the grammar
// table in lang/grammar: predict, scan and complete operations filling
// one state set per input position, deduplicated by structural
// equality of (rule, alternative, origin, dot).
package earley

import (
	"fmt"

	"github.com/shadowCow/corelang/lang/grammar"
	"github.com/shadowCow/corelang/lang/token"
)

// Item is a dotted production: the alternative identified by
// (Rule, AltIndex), how far the dot has advanced into its symbols, and
// the state-set index where the alternative's match began.
type Item struct {
	Rule     grammar.Symbol
	AltIndex int
	Origin   int
	Dot      int
}

// Alternative looks up the grammar.Alternative this item walks.
func (it Item) Alternative(g *grammar.Grammar) grammar.Alternative {
	return g.Rule(it.Rule).Alternatives[it.AltIndex]
}

// Complete reports whether the dot has reached the end of the
// alternative's symbol sequence.
func (it Item) Complete(g *grammar.Grammar) bool {
	return it.Dot == len(it.Alternative(g).Symbols)
}

// NextSymbol returns the symbol immediately after the dot. Only valid
// when !Complete.
func (it Item) NextSymbol(g *grammar.Grammar) grammar.RuleSymbol {
	return it.Alternative(g).Symbols[it.Dot]
}

func (it Item) advance() Item {
	return Item{Rule: it.Rule, AltIndex: it.AltIndex, Origin: it.Origin, Dot: it.Dot + 1}
}

// State is one state set: an ordered, deduplicated item list. Iteration
// order is insertion order, which is what lets the recognizer's main
// loop keep discovering newly predicted/completed items by indexing
// past the end of the slice as it grows.
type State struct {
	items []Item
	seen  map[Item]bool
}

func newState() *State {
	return &State{seen: map[Item]bool{}}
}

func (s *State) add(it Item) bool {
	if s.seen[it] {
		return false
	}
	s.seen[it] = true
	s.items = append(s.items, it)
	return true
}

// Items returns the state's items in insertion order.
func (s *State) Items() []Item {
	return s.items
}

// Error distinguishes the two rejection classes described for the
// recognizer: a token that could not be scanned against anything
// predicted (Invalid), versus a token stream that ended with the
// recognizer still expecting more input (UnexpectedEOF).
type Error struct {
	UnexpectedEOF bool
	Position      int
}

func (e *Error) Error() string {
	if e.UnexpectedEOF {
		return "parse error: unexpected end of stream"
	}
	return fmt.Sprintf("parse error: input is invalid at token %d", e.Position)
}

// Result holds the full run of state sets produced by Recognize, plus
// the completed accept item for the grammar's start symbol (needed by
// lang/ast to begin tree construction).
type Result struct {
	States []*State
	Accept Item
}

// Recognize runs the Earley algorithm over tokens against g, returning
// every state set on success or an *Error on rejection.
func Recognize(g *grammar.Grammar, tokens []token.Token) (*Result, error) {
	n := len(tokens)
	states := make([]*State, n+1)
	for i := range states {
		states[i] = newState()
	}

	startRule := g.Rule(g.Start)
	for altIdx := range startRule.Alternatives {
		states[0].add(Item{Rule: g.Start, AltIndex: altIdx, Origin: 0, Dot: 0})
	}

	for i := 0; i <= n; i++ {
		set := states[i]
		for idx := 0; idx < len(set.items); idx++ {
			it := set.items[idx]
			if it.Complete(g) {
				completeOp(g, states, i, it)
				continue
			}
			sym := it.NextSymbol(g)
			if sym.Kind == grammar.NonTerm {
				predictOp(g, set, sym.Rule, i)
			} else if i < n && tokens[i].Kind == sym.Token {
				scanOp(states, i, it)
			}
		}
	}

	for i := 1; i <= n; i++ {
		if len(states[i].items) == 0 {
			return nil, &Error{Position: i - 1}
		}
	}

	final := states[n]
	for _, it := range final.items {
		if it.Rule == g.Start && it.Origin == 0 && it.Complete(g) {
			return &Result{States: states, Accept: it}, nil
		}
	}

	return nil, &Error{UnexpectedEOF: true, Position: n}
}

func predictOp(g *grammar.Grammar, set *State, name grammar.Symbol, i int) {
	rule := g.Rule(name)
	for altIdx := range rule.Alternatives {
		set.add(Item{Rule: name, AltIndex: altIdx, Origin: i, Dot: 0})
	}
	if g.IsNullable(name) {
		// Advance every item in set waiting on this (now known nullable)
		// non-terminal, since it may match the empty string.
		for idx := 0; idx < len(set.items); idx++ {
			it := set.items[idx]
			if it.Complete(g) {
				continue
			}
			sym := it.NextSymbol(g)
			if sym.Kind == grammar.NonTerm && sym.Rule == name {
				set.add(it.advance())
			}
		}
	}
}

func scanOp(states []*State, i int, it Item) {
	states[i+1].add(it.advance())
}

func completeOp(g *grammar.Grammar, states []*State, i int, it Item) {
	origin := states[it.Origin]
	for _, cand := range origin.items {
		if cand.Complete(g) {
			continue
		}
		sym := cand.NextSymbol(g)
		if sym.Kind == grammar.NonTerm && sym.Rule == it.Rule {
			states[i].add(cand.advance())
		}
	}
}
