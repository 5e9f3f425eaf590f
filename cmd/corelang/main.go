// Command corelang runs a corelang source file.
package main

import (
	"os"

	"github.com/shadowCow/corelang/lang/cli"
)

func main() {
	code, _ := cli.Run(cli.Config{Args: os.Args, Output: os.Stdout, ErrOutput: os.Stderr})
	if code != 0 {
		os.Exit(code)
	}
}
