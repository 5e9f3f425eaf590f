package langdef

import (
	"strconv"
	"strings"

	"github.com/shadowCow/corelang/lang/grammar"
)

// parseNumber converts a NUMBER lexeme to its float64 value. The token
// catalog's pattern guarantees a well-formed decimal, so a parse error
// here would mean the lexer and this package have drifted apart.
func parseNumber(lexeme string) float64 {
	n, err := strconv.ParseFloat(lexeme, 64)
	if err != nil {
		panic("langdef: lexer produced an unparseable NUMBER lexeme: " + lexeme)
	}
	return n
}

// unescapeString strips a STRING lexeme's surrounding quotes and
// resolves its backslash escapes. The lexer's STRING pattern treats any
// backslash followed by one character as a single escaped unit without
// assigning it further meaning, so this keeps the same policy: the
// escaped character survives verbatim and the backslash is dropped.
func unescapeString(lexeme string) string {
	body := strings.TrimSuffix(strings.TrimPrefix(lexeme, `"`), `"`)
	var out strings.Builder
	out.Grow(len(body))
	for i := 0; i < len(body); i++ {
		if body[i] == '\\' && i+1 < len(body) {
			i++
			out.WriteByte(body[i])
			continue
		}
		out.WriteByte(body[i])
	}
	return out.String()
}

// translateFirstChild builds a translator for a wrapper alternative
// (payload plus a trailing terminal, e.g. `VarDecl ";"`) that has no
// bytecode shape of its own: it simply forwards to its first child.
// Such alternatives can't use grammar.Unimportant because that requires
// exactly one child, and these always carry the trailing terminal too.
func translateFirstChild(node grammar.TranslateNode, e grammar.Emitter) {
	e.Translate(node.Children()[0])
}

// translateMiddleChild is the same idea for a parenthesized wrapper
// (`"(" Expr ")"`): three symbols, so grammar.Unimportant's one-child
// hoist rule doesn't apply, but the node still carries no bytecode
// shape of its own beyond its middle child's.
func translateMiddleChild(node grammar.TranslateNode, e grammar.Emitter) {
	e.Translate(node.Children()[1])
}

// collectParamList walks a `ParamList -> Param ParamListTail | ε` /
// `ParamListTail -> "," Param ParamListTail | ε` chain into a flat,
// left-to-right slice of Param nodes.
func collectParamList(node grammar.TranslateNode) []grammar.TranslateNode {
	children := node.Children()
	if len(children) == 0 {
		return nil
	}
	return append([]grammar.TranslateNode{children[0]}, collectParamListTail(children[1])...)
}

func collectParamListTail(node grammar.TranslateNode) []grammar.TranslateNode {
	children := node.Children()
	if len(children) == 0 {
		return nil
	}
	return append([]grammar.TranslateNode{children[1]}, collectParamListTail(children[2])...)
}

// collectArgList does the same for `ArgList -> Expr ArgListTail | ε` /
// `ArgListTail -> "," Expr ArgListTail | ε`.
func collectArgList(node grammar.TranslateNode) []grammar.TranslateNode {
	children := node.Children()
	if len(children) == 0 {
		return nil
	}
	return append([]grammar.TranslateNode{children[0]}, collectArgListTail(children[1])...)
}

func collectArgListTail(node grammar.TranslateNode) []grammar.TranslateNode {
	children := node.Children()
	if len(children) == 0 {
		return nil
	}
	return append([]grammar.TranslateNode{children[1]}, collectArgListTail(children[2])...)
}

type paramInfo struct {
	name string
	ref  bool
}

// paramOf reads a Param node's (name, ref) pair directly from its
// leaves; Param has no translator of its own since it never reaches
// the command buffer through Translate.
func paramOf(node grammar.TranslateNode) paramInfo {
	children := node.Children()
	if len(children) == 2 {
		tok, _ := children[1].Token()
		return paramInfo{name: tok.Lexeme, ref: true}
	}
	tok, _ := children[0].Token()
	return paramInfo{name: tok.Lexeme}
}
