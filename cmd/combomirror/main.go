// Command combomirror publishes, mirrors and queries a replicated combo
// catalog.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/combomirror/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
