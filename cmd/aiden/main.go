// Command aiden builds data transformations from a declared intent.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/aiden/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
