package cmd

import (
	"github.com/crev-dev/crev-go/cli"
)

var versionCmd = cli.NewVersionCommand("crev")

func init() {
	RootCmd.AddCommand(versionCmd)
}
