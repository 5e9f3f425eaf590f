// Package grammar describes the fixed non-terminal -> alternatives table
// the Earley recognizer (lang/earley) walks and the AST builder
// (lang/ast) consults to decide which completed items become tree
// nodes. The concrete C-like language table lives in lang/langdef;
// this package only defines the shape.
package grammar

import (
	"github.com/shadowCow/corelang/lang/bytecode"
	"github.com/shadowCow/corelang/lang/token"
)

// Symbol names a non-terminal.
type Symbol string

// SymbolKind distinguishes a terminal reference from a non-terminal
// reference within an alternative's symbol sequence.
type SymbolKind int

const (
	Term SymbolKind = iota
	NonTerm
)

// RuleSymbol is one element of an alternative's right-hand side: either
// a terminal of a given token kind, or a reference to another rule by
// name.
type RuleSymbol struct {
	Kind  SymbolKind
	Token token.Kind // meaningful when Kind == Term
	Rule  Symbol     // meaningful when Kind == NonTerm
}

// Terminal builds a RuleSymbol matching a single token of kind k.
func Terminal(k token.Kind) RuleSymbol {
	return RuleSymbol{Kind: Term, Token: k}
}

// NonTerminal builds a RuleSymbol referencing another rule by name.
func NonTerminal(name Symbol) RuleSymbol {
	return RuleSymbol{Kind: NonTerm, Rule: name}
}

func (s RuleSymbol) String() string {
	if s.Kind == Term {
		return string(s.Token)
	}
	return string(s.Rule)
}

// TranslateNode is the minimal view of an AST node a Translator needs.
// lang/ast's Node implements this; grammar itself has no dependency on
// lang/ast, which keeps the two packages from importing each other.
type TranslateNode interface {
	// Alternative is the grammar alternative that produced this node,
	// or nil for a leaf node wrapping a single token.
	Alternative() *Alternative
	// Children returns this node's ordered children; empty for leaves.
	Children() []TranslateNode
	// Token returns the wrapped token and true when this node is a leaf.
	Token() (token.Token, bool)
}

// Emitter is the narrow command-buffer surface a Translator uses to
// emit bytecode items and manage forward-referenced addresses.
// lang/cmdbuf implements this.
type Emitter interface {
	// Push appends a finished bytecode item at the current cursor.
	Push(item bytecode.Item)
	// Translate invokes node's own translator, which emits at the
	// current cursor exactly as a direct Push would.
	Translate(node TranslateNode)
	// CreatePositionIndex allocates a new, as-yet-unbound position index.
	CreatePositionIndex() int
	// RequestPosition emits a placeholder later resolved to index's address.
	RequestPosition(index int)
	// ReplyPosition binds index to the current bytecode address.
	ReplyPosition(index int)
	// PushLoopBounds records the (start, end) position indices and the
	// current scope depth for the innermost enclosing loop.
	PushLoopBounds(startIndex, endIndex int)
	// PopLoopBounds discards the innermost loop bound record.
	PopLoopBounds()
	// LoopBounds reports the innermost loop's start/end indices and the
	// scope depth that was active when it was pushed. ok is false
	// outside any loop.
	LoopBounds() (startIndex, endIndex, scopeDepth int, ok bool)
	// EnterScope records that a DEFBLOCK was just emitted for a real,
	// lexically-nested block (not a break/continue unwind). ExitScope
	// records the matching DELBLOCK. ScopeDepth reports the net count,
	// used to snapshot and later compute break/continue unwinding.
	EnterScope()
	ExitScope()
	ScopeDepth() int
	// PushFunctionFloor records the scope depth a function body started
	// at, so a nested return statement knows how many enclosing blocks
	// (including the function's own parameter-binding block) to unwind
	// before RET. PopFunctionFloor discards the innermost record.
	PushFunctionFloor(depth int)
	PopFunctionFloor()
	FunctionFloor() (depth int, ok bool)
	// Fail records a translation-time error (malformed tree shape,
	// break/continue/return outside their required context). Generate
	// aborts with the first recorded failure once pass 1 completes.
	Fail(reason string)
}

// Translator is a grammar alternative's deferred bytecode-emission
// callback. It runs during the command buffer's expand pass and emits
// through e.
type Translator func(node TranslateNode, e Emitter)

// Alternative is one production right-hand side of a non-terminal.
type Alternative struct {
	Symbols []RuleSymbol
	// Important marks alternatives that materialize as their own AST
	// node; non-important alternatives are elided in favor of their
	// sole structural child. Zero value is false, so constructors below
	// default it to true explicitly.
	Important bool
	Translate Translator
}

// DefaultTranslate translates every important child of node, in order.
// It is the translator used when an Alternative does not supply its own.
func DefaultTranslate(node TranslateNode, e Emitter) {
	for _, child := range node.Children() {
		e.Translate(child)
	}
}

// Alt builds an important alternative with the default child-translate
// behavior.
func Alt(symbols ...RuleSymbol) Alternative {
	return Alternative{Symbols: symbols, Important: true, Translate: DefaultTranslate}
}

// AltT builds an important alternative with an explicit translator.
func AltT(t Translator, symbols ...RuleSymbol) Alternative {
	return Alternative{Symbols: symbols, Important: true, Translate: t}
}

// Unimportant builds an alternative elided from the AST in favor of its
// sole child; used for precedence-ladder pass-through productions like
// `Equality -> Relational`.
func Unimportant(symbols ...RuleSymbol) Alternative {
	return Alternative{Symbols: symbols, Important: false}
}

// Rule is one non-terminal's full set of alternatives.
type Rule struct {
	Name         Symbol
	Alternatives []Alternative
}

// Grammar is the frozen, process-wide table a Builder produces.
type Grammar struct {
	Start Symbol
	rules map[Symbol]*Rule
	order []Symbol

	nullable map[Symbol]bool
}

// Builder accumulates rules before Grammar freezes them via Build.
type Builder struct {
	start Symbol
	rules map[Symbol]*Rule
	order []Symbol
}

// NewBuilder starts a grammar builder whose start symbol is start.
func NewBuilder(start Symbol) *Builder {
	return &Builder{start: start, rules: map[Symbol]*Rule{}}
}

// Define registers name's alternatives. Calling Define twice for the
// same name is a builder error (panics), since the grammar table is a
// fixed, build-once-at-startup structure.
func (b *Builder) Define(name Symbol, alts ...Alternative) *Builder {
	if _, exists := b.rules[name]; exists {
		panic("grammar: rule " + string(name) + " defined twice")
	}
	b.rules[name] = &Rule{Name: name, Alternatives: alts}
	b.order = append(b.order, name)
	return b
}

// Build freezes the grammar and computes nullability by fixed point.
func (b *Builder) Build() *Grammar {
	g := &Grammar{
		Start:    b.start,
		rules:    b.rules,
		order:    b.order,
		nullable: map[Symbol]bool{},
	}
	g.computeNullable()
	return g
}

// Rule looks up a non-terminal's definition.
func (g *Grammar) Rule(name Symbol) *Rule {
	return g.rules[name]
}

// Names returns every non-terminal name in declaration order.
func (g *Grammar) Names() []Symbol {
	return g.order
}

// IsNullable reports whether name can derive the empty string.
func (g *Grammar) IsNullable(name Symbol) bool {
	return g.nullable[name]
}

func (g *Grammar) alternativeNullable(alt Alternative) bool {
	for _, sym := range alt.Symbols {
		if sym.Kind == Term {
			return false
		}
		if !g.nullable[sym.Rule] {
			return false
		}
	}
	return true
}

func (g *Grammar) computeNullable() {
	for _, name := range g.order {
		g.nullable[name] = false
	}
	for {
		changed := false
		for _, name := range g.order {
			if g.nullable[name] {
				continue
			}
			rule := g.rules[name]
			for _, alt := range rule.Alternatives {
				if g.alternativeNullable(alt) {
					g.nullable[name] = true
					changed = true
					break
				}
			}
		}
		if !changed {
			return
		}
	}
}
