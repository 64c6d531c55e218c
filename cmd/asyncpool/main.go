// Command asyncpool inspects, verifies and synchronizes the finalized
// asynchronous message pool.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/asyncpool/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
