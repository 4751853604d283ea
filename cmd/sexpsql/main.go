// Command sexpsql compiles s-expression statements to SQL.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/roach88/sexpsql/internal/cli"
)

func main() {
	os.Exit(run())
}

func run() int {
	cmd := cli.NewRootCommand()
	err := cmd.ExecuteContext(context.Background())
	if err == nil {
		return cli.ExitSuccess
	}

	// Commands report their own errors; only errors raised by cobra itself,
	// such as unknown flags, still need printing.
	if _, reported := err.(*cli.ExitError); !reported {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return cli.ExitCommandError
	}
	return cli.GetExitCode(err)
}
