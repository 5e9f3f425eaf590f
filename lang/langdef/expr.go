package langdef

import (
	"github.com/shadowCow/corelang/lang/bytecode"
	"github.com/shadowCow/corelang/lang/grammar"
	"github.com/shadowCow/corelang/lang/token"
)

// defineExpressions wires the full expression grammar, from lowest to
// highest precedence: assignment < logical-or < logical-and < equality
// < relational < additive < multiplicative < unary < postfix < primary.
// Earley parses left-recursive rules natively, so each level is the
// ordinary left-recursive "level -> level op next | next" shape; no
// left-factoring is needed the way an LL(1) table would require.
func defineExpressions(b *grammar.Builder) {
	b.Define(Expr,
		grammar.Unimportant(grammar.NonTerminal(Assignment)),
	)

	b.Define(Assignment,
		grammar.AltT(translateAssignment,
			grammar.NonTerminal(Postfix), grammar.Terminal(token.ASSIGN), grammar.NonTerminal(Assignment)),
		grammar.Unimportant(grammar.NonTerminal(LogicalOr)),
	)

	b.Define(LogicalOr,
		grammar.AltT(binaryTranslator(bytecode.OR),
			grammar.NonTerminal(LogicalOr), grammar.Terminal(token.OR), grammar.NonTerminal(LogicalAnd)),
		grammar.Unimportant(grammar.NonTerminal(LogicalAnd)),
	)

	b.Define(LogicalAnd,
		grammar.AltT(binaryTranslator(bytecode.AND),
			grammar.NonTerminal(LogicalAnd), grammar.Terminal(token.AND), grammar.NonTerminal(Equality)),
		grammar.Unimportant(grammar.NonTerminal(Equality)),
	)

	b.Define(Equality,
		grammar.AltT(binaryTranslator(bytecode.EQ),
			grammar.NonTerminal(Equality), grammar.Terminal(token.EQ), grammar.NonTerminal(Relational)),
		grammar.AltT(binaryTranslator(bytecode.NEQ),
			grammar.NonTerminal(Equality), grammar.Terminal(token.NEQ), grammar.NonTerminal(Relational)),
		grammar.Unimportant(grammar.NonTerminal(Relational)),
	)

	b.Define(Relational,
		grammar.AltT(binaryTranslator(bytecode.LT),
			grammar.NonTerminal(Relational), grammar.Terminal(token.LT), grammar.NonTerminal(Additive)),
		grammar.AltT(binaryTranslator(bytecode.LE),
			grammar.NonTerminal(Relational), grammar.Terminal(token.LE), grammar.NonTerminal(Additive)),
		grammar.AltT(binaryTranslator(bytecode.GT),
			grammar.NonTerminal(Relational), grammar.Terminal(token.GT), grammar.NonTerminal(Additive)),
		grammar.AltT(binaryTranslator(bytecode.GE),
			grammar.NonTerminal(Relational), grammar.Terminal(token.GE), grammar.NonTerminal(Additive)),
		grammar.Unimportant(grammar.NonTerminal(Additive)),
	)

	b.Define(Additive,
		grammar.AltT(binaryTranslator(bytecode.ADD),
			grammar.NonTerminal(Additive), grammar.Terminal(token.PLUS), grammar.NonTerminal(Multiplicative)),
		grammar.AltT(binaryTranslator(bytecode.SUB),
			grammar.NonTerminal(Additive), grammar.Terminal(token.MINUS), grammar.NonTerminal(Multiplicative)),
		grammar.Unimportant(grammar.NonTerminal(Multiplicative)),
	)

	b.Define(Multiplicative,
		grammar.AltT(binaryTranslator(bytecode.MUL),
			grammar.NonTerminal(Multiplicative), grammar.Terminal(token.STAR), grammar.NonTerminal(Unary)),
		grammar.AltT(binaryTranslator(bytecode.DIV),
			grammar.NonTerminal(Multiplicative), grammar.Terminal(token.SLASH), grammar.NonTerminal(Unary)),
		grammar.Unimportant(grammar.NonTerminal(Unary)),
	)

	b.Define(Unary,
		grammar.AltT(unaryTranslator(bytecode.NOT), grammar.Terminal(token.NOT), grammar.NonTerminal(Unary)),
		grammar.AltT(unaryTranslator(bytecode.UNM), grammar.Terminal(token.MINUS), grammar.NonTerminal(Unary)),
		grammar.Unimportant(grammar.NonTerminal(Postfix)),
	)

	b.Define(Postfix,
		grammar.AltT(translatePostfixMember,
			grammar.NonTerminal(Postfix), grammar.Terminal(token.DOT), grammar.Terminal(token.IDENT)),
		grammar.AltT(translatePostfixCall,
			grammar.NonTerminal(Postfix), grammar.Terminal(token.LPAREN), grammar.NonTerminal(ArgList), grammar.Terminal(token.RPAREN)),
		grammar.Unimportant(grammar.NonTerminal(Primary)),
	)

	b.Define(Primary,
		grammar.AltT(translateIdent, grammar.Terminal(token.IDENT)),
		grammar.AltT(translateNull, grammar.Terminal(token.NULL)),
		grammar.AltT(translateTrue, grammar.Terminal(token.TRUE)),
		grammar.AltT(translateFalse, grammar.Terminal(token.FALSE)),
		grammar.AltT(translateNumber, grammar.Terminal(token.NUMBER)),
		grammar.AltT(translateString, grammar.Terminal(token.STRING)),
		grammar.AltT(translateMiddleChild, grammar.Terminal(token.LPAREN), grammar.NonTerminal(Expr), grammar.Terminal(token.RPAREN)),
	)

	b.Define(ArgList,
		grammar.Alt(grammar.NonTerminal(Expr), grammar.NonTerminal(ArgListTail)),
		grammar.Alt(),
	)
	b.Define(ArgListTail,
		grammar.Alt(grammar.Terminal(token.COMMA), grammar.NonTerminal(Expr), grammar.NonTerminal(ArgListTail)),
		grammar.Alt(),
	)
}

// binaryTranslator builds the shared shape for every left-recursive
// binary level: translate the left operand, then the right, then emit
// the opcode. The VM's binary dispatch pops right-then-left, matching
// this push order (right ends up on top).
func binaryTranslator(op bytecode.Opcode) grammar.Translator {
	return func(node grammar.TranslateNode, e grammar.Emitter) {
		children := node.Children()
		e.Translate(children[0])
		e.Translate(children[2])
		e.Push(bytecode.Op(op))
	}
}

func unaryTranslator(op bytecode.Opcode) grammar.Translator {
	return func(node grammar.TranslateNode, e grammar.Emitter) {
		e.Translate(node.Children()[1])
		e.Push(bytecode.Op(op))
	}
}

// translateAssignment emits translate(target), translate(value), ASSIGN.
// target is itself a Postfix production, so a bare name and a struct
// member path (`obj.field = x`) are both handled by the same emission:
// ASSIGN only needs its target operand to resolve to an LValue cell,
// however that operand was produced.
func translateAssignment(node grammar.TranslateNode, e grammar.Emitter) {
	children := node.Children()
	e.Translate(children[0])
	e.Translate(children[2])
	e.Push(bytecode.Op(bytecode.ASSIGN))
}

func translatePostfixMember(node grammar.TranslateNode, e grammar.Emitter) {
	children := node.Children()
	memberTok, _ := children[2].Token()
	e.Translate(children[0])
	e.Push(bytecode.Ident(memberTok.Lexeme))
	e.Push(bytecode.Op(bytecode.STRUCTREF))
}

// translatePostfixCall evaluates every argument expression onto the
// work stack first, then queues them with PUSHARG contiguously right
// before CALL. This ordering matters: PUSHARG/POPARG/RET all operate
// on the evaluator's single shared argument queue, so if a PUSHARG for
// one argument were interleaved with the *evaluation* of a later
// argument (as a naive left-to-right "translate, PUSHARG" loop would
// do), a function call appearing in that later argument would run its
// own PUSHARG/POPARG/RET against the same queue mid-flight - its RET
// clears the queue out from under the outer call, and its own
// POPARGs would wrongly consume the outer call's already-queued
// arguments. Evaluating all arguments first means any nested calls
// fully complete (including draining and clearing the queue via their
// own RET) before this call ever touches the queue itself.
//
// Arguments are translated in reverse so the first argument ends up
// on top of the work stack, then PUSHARG is emitted once per
// argument: each PUSHARG pops the current top and enqueues it, so the
// first argument is enqueued first, preserving the left-to-right
// order the callee's POPARG prologue expects.
func translatePostfixCall(node grammar.TranslateNode, e grammar.Emitter) {
	children := node.Children()
	args := collectArgList(children[2])
	for i := len(args) - 1; i >= 0; i-- {
		e.Translate(args[i])
	}
	for range args {
		e.Push(bytecode.Op(bytecode.PUSHARG))
	}
	e.Translate(children[0])
	e.Push(bytecode.Op(bytecode.CALL))
}

func translateIdent(node grammar.TranslateNode, e grammar.Emitter) {
	tok, _ := node.Children()[0].Token()
	e.Push(bytecode.Ident(tok.Lexeme))
}

func translateNull(node grammar.TranslateNode, e grammar.Emitter) {
	e.Push(bytecode.Null())
}

func translateTrue(node grammar.TranslateNode, e grammar.Emitter) {
	e.Push(bytecode.Bool(true))
}

func translateFalse(node grammar.TranslateNode, e grammar.Emitter) {
	e.Push(bytecode.Bool(false))
}

func translateNumber(node grammar.TranslateNode, e grammar.Emitter) {
	tok, _ := node.Children()[0].Token()
	e.Push(bytecode.Number(parseNumber(tok.Lexeme)))
}

func translateString(node grammar.TranslateNode, e grammar.Emitter) {
	tok, _ := node.Children()[0].Token()
	e.Push(bytecode.Str(unescapeString(tok.Lexeme)))
}
