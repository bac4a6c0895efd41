package cmd

import (
	"github.com/crev-dev/crev-go/cli"
)

// RootCmd represents the base "crev" command when called without any
// subcommands (id, trust, review, verify, fetch, pull, push).
var RootCmd = cli.NewRootCommand("crev",
	"Distributed, cryptographically verifiable code review",
	`crev lets a web of reviewers vouch for the packages and code they have
examined. Trust (or distrust) other reviewers, review the packages you have
audited, and verify a dependency tree against the reviews your web of trust
has published.`)

func init() {
	RootCmd.PersistentFlags().StringP("config", "c", "",
		"Path to the crev config file (default: $XDG_CONFIG_HOME/crev/config.toml)")
}
