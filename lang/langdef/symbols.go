// Package langdef defines the concrete C-like grammar: the fixed table
// of non-terminals built on lang/grammar, and the Translator callbacks
// that turn each construct into bytecode through a lang/grammar.Emitter.
// lang/runner wires Build's result through lang/earley, lang/ast and
// lang/cmdbuf to go from source text to a finished lang/bytecode.Program.
package langdef

import "github.com/shadowCow/corelang/lang/grammar"

// Non-terminal names, declared once so the rest of the package never
// repeats a rule name as a bare string literal.
const (
	Program         grammar.Symbol = "Program"
	StmtList        grammar.Symbol = "StmtList"
	GeneralStmt     grammar.Symbol = "GeneralStmt"
	FunctionDecl    grammar.Symbol = "FunctionDecl"
	ParamList       grammar.Symbol = "ParamList"
	ParamListTail   grammar.Symbol = "ParamListTail"
	Param           grammar.Symbol = "Param"
	Block           grammar.Symbol = "Block"
	BlockStmtList   grammar.Symbol = "BlockStmtList"
	Stmt            grammar.Symbol = "Stmt"
	ForLoop         grammar.Symbol = "ForLoop"
	ForInit         grammar.Symbol = "ForInit"
	DoWhile         grammar.Symbol = "DoWhile"
	While           grammar.Symbol = "While"
	IfElse          grammar.Symbol = "IfElse"
	If              grammar.Symbol = "If"
	Condition       grammar.Symbol = "Condition"
	VarDeclStmt     grammar.Symbol = "VarDeclStmt"
	VarDecl         grammar.Symbol = "VarDecl"
	ExprStmt        grammar.Symbol = "ExprStmt"
	ReturnStmt      grammar.Symbol = "ReturnStmt"
	BreakStmt       grammar.Symbol = "BreakStmt"
	ContinueStmt    grammar.Symbol = "ContinueStmt"
	ArgList         grammar.Symbol = "ArgList"
	ArgListTail     grammar.Symbol = "ArgListTail"
	Expr            grammar.Symbol = "Expr"
	Assignment      grammar.Symbol = "Assignment"
	LogicalOr       grammar.Symbol = "LogicalOr"
	LogicalAnd      grammar.Symbol = "LogicalAnd"
	Equality        grammar.Symbol = "Equality"
	Relational      grammar.Symbol = "Relational"
	Additive        grammar.Symbol = "Additive"
	Multiplicative  grammar.Symbol = "Multiplicative"
	Unary           grammar.Symbol = "Unary"
	Postfix         grammar.Symbol = "Postfix"
	Primary         grammar.Symbol = "Primary"
)

// Build assembles the complete grammar table. It panics if a rule name
// is ever registered twice, which would be a bug in this package, not
// something a caller can trigger.
func Build() *grammar.Grammar {
	b := grammar.NewBuilder(Program)
	defineProgram(b)
	defineFunctions(b)
	defineStatements(b)
	defineExpressions(b)
	return b.Build()
}
