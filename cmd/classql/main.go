// Command classql is the ClassQL CLI entry point.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/CFdefense/ClassQL/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		// Compilation failures already printed their diagnostics;
		// everything else still needs reporting.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) || exitErr.Code != cli.ExitFailure {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
