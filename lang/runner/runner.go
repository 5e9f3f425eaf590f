// Package runner provides a simple API to execute corelang programs
// from source text: the complete pipeline from bytes on disk to a
// finished evaluator run, wired from lang/lexer through lang/vm.
package runner

import (
	"fmt"
	"io"
	"os"

	"github.com/shadowCow/corelang/lang/ast"
	"github.com/shadowCow/corelang/lang/cmdbuf"
	"github.com/shadowCow/corelang/lang/corelib"
	"github.com/shadowCow/corelang/lang/earley"
	"github.com/shadowCow/corelang/lang/langdef"
	"github.com/shadowCow/corelang/lang/lexer"
	"github.com/shadowCow/corelang/lang/token"
	"github.com/shadowCow/corelang/lang/vm"
)

var programGrammar = langdef.Build()

// Diagnostics collects the intermediate artifacts of a Run call, for
// the -l flag's dump; all fields remain populated at their last
// successfully-completed stage even when Run ultimately errors partway
// through, so a failing program's last reached stage is still visible.
type Diagnostics struct {
	Enabled bool

	Tokens   []string
	Accepted bool
	Program  string
}

// Run executes a corelang program read from filePath, writing any
// println output to out. diag, if non-nil and Enabled, is populated
// with a trace of each pipeline stage as it completes.
func Run(filePath string, out io.Writer, diag *Diagnostics) error {
	source, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read file %q: %w", filePath, err)
	}
	return RunSource(string(source), out, diag)
}

// RunSource is Run without the file-reading step, for callers (and
// tests) that already have source text in hand.
func RunSource(source string, out io.Writer, diag *Diagnostics) error {
	tokens, err := lexer.Scan(source)
	if err != nil {
		return fmt.Errorf("lex error: %w", err)
	}
	if diag != nil && diag.Enabled {
		diag.Tokens = tokenStrings(tokens)
	}

	result, err := earley.Recognize(programGrammar, tokens)
	if err != nil {
		return fmt.Errorf("parse error: %w", err)
	}
	if diag != nil && diag.Enabled {
		diag.Accepted = true
	}

	root, err := ast.Build(programGrammar, tokens, result)
	if err != nil {
		return fmt.Errorf("ast error: %w", err)
	}

	buf := cmdbuf.New()
	buf.PushRootNode(root)
	program, err := buf.Generate()
	if err != nil {
		return fmt.Errorf("translation error: %w", err)
	}
	if diag != nil && diag.Enabled {
		diag.Program = program.String()
	}

	e := vm.New(program, vm.WithBuiltins(corelib.Builtins(out)))
	if err := e.Run(); err != nil {
		return fmt.Errorf("runtime error: %w", err)
	}
	return nil
}

func tokenStrings(tokens []token.Token) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.String()
	}
	return out
}
