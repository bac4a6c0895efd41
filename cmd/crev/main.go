// Executable crev command-line tool. See README for usage instructions.
package main

import (
	"github.com/crev-dev/crev-go/cli"
	"github.com/crev-dev/crev-go/cmd/crev/internal/cmd"
)

func main() {
	cli.ExecuteRoot(cmd.RootCmd)
}
