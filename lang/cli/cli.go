// Package cli is the command-line adapter for corelang: flag parsing
// and delegating to lang/runner, with lexer/parser/bytecode tracing
// under -l routed through internal/logx.
package cli

import (
	"flag"
	"fmt"
	"io"

	"github.com/shadowCow/corelang/internal/logx"
	"github.com/shadowCow/corelang/lang/runner"
)

// Config holds the CLI invocation: the raw argument vector (including
// the program name, as os.Args provides it) and the stream program
// output (println etc.) is written to. Trace/error logging goes to
// ErrOutput, kept separate so piping a program's println output never
// mixes with diagnostic lines.
type Config struct {
	Args      []string
	Output    io.Writer
	ErrOutput io.Writer
}

// Run parses config.Args, executes the named source file, and returns
// a process exit code alongside any error the pipeline produced. Every
// error path - flag parsing, usage, and runtime - is logged through
// internal/logx before Run returns, so the returned code is always
// log.ExitCode(): 0 on success, 1 once anything has been logged as an
// error.
func Run(config Config) (int, error) {
	log := logx.New(config.ErrOutput)

	fs := flag.NewFlagSet("corelang", flag.ContinueOnError)
	fs.SetOutput(config.ErrOutput)
	listTokens := fs.Bool("l", false, "print the token stream and generated bytecode after running")
	fs.Usage = func() {
		fmt.Fprintf(config.ErrOutput, "usage: %s [-l] <file>\n", progName(config.Args))
	}

	args := config.Args[1:]
	if err := fs.Parse(args); err != nil {
		log.ErrorIf(err)
		return log.ExitCode(), err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		err := fmt.Errorf("expected exactly one source file argument, got %d", fs.NArg())
		log.ErrorIf(err)
		return log.ExitCode(), err
	}
	filePath := fs.Arg(0)

	diag := &runner.Diagnostics{Enabled: *listTokens}

	err := runner.Run(filePath, config.Output, diag)

	if *listTokens {
		trace := log.Leveledf("TRACE")
		for _, tok := range diag.Tokens {
			trace("token %s", tok)
		}
		if diag.Accepted {
			trace("parse accepted")
		}
		if diag.Program != "" {
			trace("bytecode:\n%s", diag.Program)
		}
	}

	log.ErrorIf(err)
	return log.ExitCode(), err
}

func progName(args []string) string {
	if len(args) == 0 {
		return "corelang"
	}
	return args[0]
}
