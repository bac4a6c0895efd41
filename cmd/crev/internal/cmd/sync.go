package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/crev-dev/crev-go/cli"
	"github.com/crev-dev/crev-go/config"
	"github.com/crev-dev/crev-go/logging"
	"github.com/crev-dev/crev-go/repo"
)

// fetchCmd, pullCmd, and pushCmd drive the repository sync adapter
// (spec.md §4.7) against the active identity's proof repository.
var fetchCmd = cli.NewLeafCommand("fetch", "Download new refs without touching the working tree",
	"Fetch new refs from the active identity's proof repository remote.", runFetch)
var pullCmd = cli.NewLeafCommand("pull", "Fetch and fast-forward the working tree",
	"Pull the active identity's proof repository, fast-forwarding the local working tree.", runPull)
var pushCmd = cli.NewLeafCommand("push", "Push locally committed proofs",
	"Push the active identity's locally committed proofs to its remote.", runPush)

func init() {
	RootCmd.AddCommand(fetchCmd)
	RootCmd.AddCommand(pullCmd)
	RootCmd.AddCommand(pushCmd)
}

func runFetch(cmd *cobra.Command, args []string) {
	conf := loadConfigOrExit(cmd)
	logger := newLoggerOrExit(conf)
	r := openRepoOrExit(conf, logger)
	if err := r.Fetch(cmd.Context(), conf.Identity.URL); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runPull(cmd *cobra.Command, args []string) {
	conf := loadConfigOrExit(cmd)
	logger := newLoggerOrExit(conf)
	r := openRepoOrExit(conf, logger)
	if err := r.Pull(cmd.Context(), conf.Identity.URL); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runPush(cmd *cobra.Command, args []string) {
	conf := loadConfigOrExit(cmd)
	logger := newLoggerOrExit(conf)
	r := openRepoOrExit(conf, logger)
	if err := r.Push(cmd.Context(), conf.Identity.URL); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func openRepoOrExit(conf *config.Config, logger *logging.Logger) *repo.Repository {
	if conf.Identity.ProofRepoDir == "" {
		fmt.Println("No proof repository configured (identity.proof-repo-dir).")
		os.Exit(1)
	}
	r, err := repo.Open(conf.Identity.ProofRepoDir)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	r.SetLogger(logger.Named("repo"))
	return r
}
