// Command jstore inspects and modifies namespaced JSON records kept in a
// SQLite file and broadcasts commands between processes sharing it.
package main

import (
	"fmt"
	"os"

	"github.com/tarmac-project/jstore/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
