package langdef

import (
	"github.com/shadowCow/corelang/lang/bytecode"
	"github.com/shadowCow/corelang/lang/grammar"
	"github.com/shadowCow/corelang/lang/token"
)

// defineProgram wires the top-level list of general statements (plain
// statements interleaved with function declarations) and the Block
// construct, which is restricted to plain statements only.
func defineProgram(b *grammar.Builder) {
	b.Define(Program,
		grammar.Alt(grammar.NonTerminal(StmtList)),
	)
	b.Define(StmtList,
		grammar.Alt(grammar.NonTerminal(GeneralStmt), grammar.NonTerminal(StmtList)),
		grammar.Alt(),
	)
	b.Define(GeneralStmt,
		grammar.Unimportant(grammar.NonTerminal(Stmt)),
		grammar.Unimportant(grammar.NonTerminal(FunctionDecl)),
	)

	b.Define(Block,
		grammar.AltT(translateBlock,
			grammar.Terminal(token.LBRACE), grammar.NonTerminal(BlockStmtList), grammar.Terminal(token.RBRACE)),
	)
	b.Define(BlockStmtList,
		grammar.Alt(grammar.NonTerminal(Stmt), grammar.NonTerminal(BlockStmtList)),
		grammar.Alt(),
	)
}

func translateBlock(node grammar.TranslateNode, e grammar.Emitter) {
	children := node.Children()
	e.Push(bytecode.Op(bytecode.DEFBLOCK))
	e.EnterScope()
	e.Translate(children[1])
	e.Push(bytecode.Op(bytecode.DELBLOCK))
	e.ExitScope()
}

// defineFunctions wires function declarations and their parameter list.
func defineFunctions(b *grammar.Builder) {
	b.Define(FunctionDecl,
		grammar.AltT(translateFunctionDecl,
			grammar.Terminal(token.FUNCTION), grammar.Terminal(token.IDENT),
			grammar.Terminal(token.LPAREN), grammar.NonTerminal(ParamList), grammar.Terminal(token.RPAREN),
			grammar.NonTerminal(Block)),
	)
	b.Define(ParamList,
		grammar.Alt(grammar.NonTerminal(Param), grammar.NonTerminal(ParamListTail)),
		grammar.Alt(),
	)
	b.Define(ParamListTail,
		grammar.Alt(grammar.Terminal(token.COMMA), grammar.NonTerminal(Param), grammar.NonTerminal(ParamListTail)),
		grammar.Alt(),
	)
	b.Define(Param,
		grammar.Alt(grammar.Terminal(token.REF), grammar.Terminal(token.IDENT)),
		grammar.Alt(grammar.Terminal(token.IDENT)),
	)
}

// translateFunctionDecl lowers a function declaration to: a jump over
// the body, the body itself (parameter bindings followed by the block,
// with an implicit `return null` if control falls off the end), and a
// DECLFUN binding the function's name to the body's address, emitted at
// the point right after the jump lands - i.e. in the same textual
// position the declaration itself occupies.
func translateFunctionDecl(node grammar.TranslateNode, e grammar.Emitter) {
	children := node.Children()
	nameTok, _ := children[1].Token()
	params := collectParamList(children[3])
	block := children[5]

	skipIx := e.CreatePositionIndex()
	bodyIx := e.CreatePositionIndex()

	floor := e.ScopeDepth()

	e.RequestPosition(skipIx)
	e.Push(bytecode.Op(bytecode.JMP))

	e.ReplyPosition(bodyIx)
	e.Push(bytecode.Op(bytecode.DEFBLOCK))
	e.EnterScope()
	e.PushFunctionFloor(floor)
	for _, p := range params {
		info := paramOf(p)
		e.Push(bytecode.Ident(info.name))
		e.Push(bytecode.Op(bytecode.DECLVAR))
		e.Push(bytecode.Ident(info.name))
		e.Push(bytecode.Op(bytecode.POPARG))
		if info.ref {
			e.Push(bytecode.Op(bytecode.ASSIGNREF))
		} else {
			e.Push(bytecode.Op(bytecode.ASSIGN))
		}
	}
	e.Translate(block)
	e.Push(bytecode.Null())
	e.Push(bytecode.Op(bytecode.DELBLOCK))
	e.ExitScope()
	e.PopFunctionFloor()
	e.Push(bytecode.Op(bytecode.RET))

	e.ReplyPosition(skipIx)
	e.Push(bytecode.Ident(nameTok.Lexeme))
	e.RequestPosition(bodyIx)
	e.Push(bytecode.Op(bytecode.DECLFUN))
}

// defineStatements wires every Statement alternative and the loop
// constructs' translators.
func defineStatements(b *grammar.Builder) {
	b.Define(Stmt,
		grammar.Unimportant(grammar.NonTerminal(ForLoop)),
		grammar.Unimportant(grammar.NonTerminal(DoWhile)),
		grammar.Unimportant(grammar.NonTerminal(While)),
		grammar.Unimportant(grammar.NonTerminal(IfElse)),
		grammar.Unimportant(grammar.NonTerminal(If)),
		grammar.Unimportant(grammar.NonTerminal(VarDeclStmt)),
		grammar.Unimportant(grammar.NonTerminal(ExprStmt)),
		grammar.Unimportant(grammar.NonTerminal(ReturnStmt)),
		grammar.Unimportant(grammar.NonTerminal(BreakStmt)),
		grammar.Unimportant(grammar.NonTerminal(ContinueStmt)),
		grammar.Unimportant(grammar.NonTerminal(Block)),
	)

	b.Define(Condition,
		grammar.AltT(translateMiddleChild, grammar.Terminal(token.LPAREN), grammar.NonTerminal(Expr), grammar.Terminal(token.RPAREN)),
	)

	b.Define(If,
		grammar.AltT(translateIf, grammar.Terminal(token.IF), grammar.NonTerminal(Condition), grammar.NonTerminal(Block)),
	)
	b.Define(IfElse,
		grammar.AltT(translateIfElse,
			grammar.Terminal(token.IF), grammar.NonTerminal(Condition), grammar.NonTerminal(Block),
			grammar.Terminal(token.ELSE), grammar.NonTerminal(Block)),
	)
	b.Define(While,
		grammar.AltT(translateWhile, grammar.Terminal(token.WHILE), grammar.NonTerminal(Condition), grammar.NonTerminal(Block)),
	)
	b.Define(DoWhile,
		grammar.AltT(translateDoWhile,
			grammar.Terminal(token.DO), grammar.NonTerminal(Block),
			grammar.Terminal(token.WHILE), grammar.NonTerminal(Condition), grammar.Terminal(token.SEMICOLON)),
	)
	b.Define(ForLoop,
		grammar.AltT(translateFor,
			grammar.Terminal(token.FOR), grammar.Terminal(token.LPAREN),
			grammar.NonTerminal(ForInit), grammar.Terminal(token.SEMICOLON),
			grammar.NonTerminal(Expr), grammar.Terminal(token.SEMICOLON),
			grammar.NonTerminal(Expr), grammar.Terminal(token.RPAREN),
			grammar.NonTerminal(Block)),
	)
	b.Define(ForInit,
		grammar.Unimportant(grammar.NonTerminal(VarDecl)),
		grammar.Unimportant(grammar.NonTerminal(Expr)),
	)

	b.Define(VarDecl,
		grammar.AltT(translateVarDeclInit,
			grammar.Terminal(token.LET), grammar.Terminal(token.IDENT), grammar.Terminal(token.ASSIGN), grammar.NonTerminal(Expr)),
		grammar.AltT(translateVarDeclBare,
			grammar.Terminal(token.LET), grammar.Terminal(token.IDENT)),
		grammar.AltT(translateVarDeclRef,
			grammar.Terminal(token.LET), grammar.Terminal(token.REF), grammar.Terminal(token.IDENT),
			grammar.Terminal(token.ASSIGN), grammar.NonTerminal(Expr)),
	)
	b.Define(VarDeclStmt,
		grammar.AltT(translateFirstChild, grammar.NonTerminal(VarDecl), grammar.Terminal(token.SEMICOLON)),
	)

	b.Define(ExprStmt,
		grammar.AltT(translateExprStmt, grammar.NonTerminal(Expr), grammar.Terminal(token.SEMICOLON)),
	)

	b.Define(ReturnStmt,
		grammar.AltT(translateReturnValue,
			grammar.Terminal(token.RETURN), grammar.NonTerminal(Expr), grammar.Terminal(token.SEMICOLON)),
		grammar.AltT(translateReturnVoid,
			grammar.Terminal(token.RETURN), grammar.Terminal(token.SEMICOLON)),
	)
	b.Define(BreakStmt,
		grammar.AltT(translateBreak, grammar.Terminal(token.BREAK), grammar.Terminal(token.SEMICOLON)),
	)
	b.Define(ContinueStmt,
		grammar.AltT(translateContinue, grammar.Terminal(token.CONTINUE), grammar.Terminal(token.SEMICOLON)),
	)
}

func translateIf(node grammar.TranslateNode, e grammar.Emitter) {
	children := node.Children()
	cond, block := children[1], children[2]

	trueIx := e.CreatePositionIndex()
	falseIx := e.CreatePositionIndex()

	e.Translate(cond)
	e.RequestPosition(trueIx)
	e.RequestPosition(falseIx)
	e.Push(bytecode.Op(bytecode.IF))
	e.ReplyPosition(trueIx)
	e.Translate(block)
	e.ReplyPosition(falseIx)
}

func translateIfElse(node grammar.TranslateNode, e grammar.Emitter) {
	children := node.Children()
	cond, trueBlock, elseBlock := children[1], children[2], children[4]

	trueIx := e.CreatePositionIndex()
	falseIx := e.CreatePositionIndex()
	endIx := e.CreatePositionIndex()

	e.Translate(cond)
	e.RequestPosition(trueIx)
	e.RequestPosition(falseIx)
	e.Push(bytecode.Op(bytecode.IF))
	e.ReplyPosition(trueIx)
	e.Translate(trueBlock)
	e.RequestPosition(endIx)
	e.Push(bytecode.Op(bytecode.JMP))
	e.ReplyPosition(falseIx)
	e.Translate(elseBlock)
	e.ReplyPosition(endIx)
}

func translateWhile(node grammar.TranslateNode, e grammar.Emitter) {
	children := node.Children()
	cond, block := children[1], children[2]

	startIx := e.CreatePositionIndex()
	bodyIx := e.CreatePositionIndex()
	endIx := e.CreatePositionIndex()

	e.PushLoopBounds(startIx, endIx)
	e.ReplyPosition(startIx)
	e.Translate(cond)
	e.RequestPosition(bodyIx)
	e.RequestPosition(endIx)
	e.Push(bytecode.Op(bytecode.IF))
	e.ReplyPosition(bodyIx)
	e.Translate(block)
	e.RequestPosition(startIx)
	e.Push(bytecode.Op(bytecode.JMP))
	e.ReplyPosition(endIx)
	e.PopLoopBounds()
}

// translateDoWhile's loop-bound start is the body's own entry, so a
// `continue` re-enters the body directly rather than jumping to the
// condition check.
func translateDoWhile(node grammar.TranslateNode, e grammar.Emitter) {
	children := node.Children()
	block, cond := children[1], children[3]

	bodyIx := e.CreatePositionIndex()
	endIx := e.CreatePositionIndex()

	e.PushLoopBounds(bodyIx, endIx)
	e.ReplyPosition(bodyIx)
	e.Translate(block)
	e.Translate(cond)
	e.RequestPosition(bodyIx)
	e.RequestPosition(endIx)
	e.Push(bytecode.Op(bytecode.IF))
	e.ReplyPosition(endIx)
	e.PopLoopBounds()
}

func translateFor(node grammar.TranslateNode, e grammar.Emitter) {
	children := node.Children()
	init, cond, step, block := children[2], children[4], children[6], children[8]

	e.Push(bytecode.Op(bytecode.DEFBLOCK))
	e.EnterScope()
	e.Translate(init)

	condIx := e.CreatePositionIndex()
	bodyIx := e.CreatePositionIndex()
	endIx := e.CreatePositionIndex()

	e.PushLoopBounds(condIx, endIx)
	e.ReplyPosition(condIx)
	e.Translate(cond)
	e.RequestPosition(bodyIx)
	e.RequestPosition(endIx)
	e.Push(bytecode.Op(bytecode.IF))
	e.ReplyPosition(bodyIx)
	e.Translate(block)
	e.Translate(step)
	e.Push(bytecode.Op(bytecode.POP))
	e.RequestPosition(condIx)
	e.Push(bytecode.Op(bytecode.JMP))
	e.ReplyPosition(endIx)
	e.PopLoopBounds()

	e.Push(bytecode.Op(bytecode.DELBLOCK))
	e.ExitScope()
}

func translateVarDeclInit(node grammar.TranslateNode, e grammar.Emitter) {
	children := node.Children()
	nameTok, _ := children[1].Token()
	e.Push(bytecode.Ident(nameTok.Lexeme))
	e.Push(bytecode.Op(bytecode.DECLVAR))
	e.Push(bytecode.Ident(nameTok.Lexeme))
	e.Translate(children[3])
	e.Push(bytecode.Op(bytecode.ASSIGN))
}

func translateVarDeclBare(node grammar.TranslateNode, e grammar.Emitter) {
	nameTok, _ := node.Children()[1].Token()
	e.Push(bytecode.Ident(nameTok.Lexeme))
	e.Push(bytecode.Op(bytecode.DECLVAR))
}

func translateVarDeclRef(node grammar.TranslateNode, e grammar.Emitter) {
	children := node.Children()
	nameTok, _ := children[2].Token()
	e.Push(bytecode.Ident(nameTok.Lexeme))
	e.Push(bytecode.Op(bytecode.DECLVAR))
	e.Push(bytecode.Ident(nameTok.Lexeme))
	e.Translate(children[4])
	e.Push(bytecode.Op(bytecode.ASSIGNREF))
}

func translateExprStmt(node grammar.TranslateNode, e grammar.Emitter) {
	e.Translate(node.Children()[0])
	e.Push(bytecode.Op(bytecode.POP))
}

// translateReturnValue decays the returned expression to a plain
// rvalue with DEREF before unwinding every block opened since the
// function's own entry, so a returned local never forwards a reference
// into a scope about to close.
func translateReturnValue(node grammar.TranslateNode, e grammar.Emitter) {
	e.Translate(node.Children()[1])
	e.Push(bytecode.Op(bytecode.DEREF))
	unwindToFunctionFloor(e)
	e.Push(bytecode.Op(bytecode.RET))
}

func translateReturnVoid(node grammar.TranslateNode, e grammar.Emitter) {
	e.Push(bytecode.Null())
	unwindToFunctionFloor(e)
	e.Push(bytecode.Op(bytecode.RET))
}

func translateBreak(node grammar.TranslateNode, e grammar.Emitter) {
	_, endIx, floor, ok := e.LoopBounds()
	if !ok {
		e.Fail("break outside of a loop")
		return
	}
	unwindTo(e, floor)
	e.RequestPosition(endIx)
	e.Push(bytecode.Op(bytecode.JMP))
}

func translateContinue(node grammar.TranslateNode, e grammar.Emitter) {
	startIx, _, floor, ok := e.LoopBounds()
	if !ok {
		e.Fail("continue outside of a loop")
		return
	}
	unwindTo(e, floor)
	e.RequestPosition(startIx)
	e.Push(bytecode.Op(bytecode.JMP))
}

func unwindToFunctionFloor(e grammar.Emitter) {
	floor, ok := e.FunctionFloor()
	if !ok {
		e.Fail("return outside of a function")
		return
	}
	unwindTo(e, floor)
}

// unwindTo emits one DELBLOCK per block opened since depth floor. These
// DELBLOCKs are plain Push calls, not EnterScope/ExitScope-tracked: they
// exist purely to keep the evaluator's runtime scope stack balanced
// across a non-local jump, not to change this translator's own view of
// the current lexical nesting, which later sibling statements still
// need to see un-perturbed.
func unwindTo(e grammar.Emitter, floor int) {
	for depth := e.ScopeDepth(); depth > floor; depth-- {
		e.Push(bytecode.Op(bytecode.DELBLOCK))
	}
}
