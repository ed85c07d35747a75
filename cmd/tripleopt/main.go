// Command tripleopt optimizes logical query plans over RDF triple data.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/tripleopt/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	err := cmd.Execute()
	if err == nil {
		return
	}

	// Command failures are already written in the selected format.
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(cli.GetExitCode(err))
}
