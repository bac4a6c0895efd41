package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/crev-dev/crev-go/cli"
	"github.com/crev-dev/crev-go/proof"
	"github.com/crev-dev/crev-go/store"
)

// trustCmd groups setting and querying trust relationships (spec.md §4.5,
// the "query" mode supplemented per SPEC_FULL.md dumps effective_trust
// independent of a verify run).
var trustCmd = cli.NewRootCommand("trust", "Manage trust relationships",
	"Sign trust (or distrust) proofs for other identities, or query the effective trust your web of trust assigns.")

func init() {
	RootCmd.AddCommand(trustCmd)
	trustCmd.AddCommand(trustSetCmd)
	trustCmd.AddCommand(trustQueryCmd)

	trustSetCmd.Flags().StringP("level", "l", "medium", "Trust level to assign: distrust, low, medium, or high")
	trustSetCmd.Flags().StringP("url", "u", "", "The trusted identity's self-reported proof repository URL")
	trustSetCmd.Flags().StringSlice("override", nil, "Identities whose trust proofs for this same id should be suppressed")
}

var trustSetCmd = cli.NewLeafCommand("set <id>", "Sign a trust proof for an identity",
	"Sign a trust proof declaring the given level of trust (or distrust) for the named identity, and commit it to your proof repository.",
	runTrustSet)

func runTrustSet(cmd *cobra.Command, args []string) {
	if len(args) != 1 {
		fmt.Println("usage: crev trust set <id> [--level LEVEL] [--url URL]")
		os.Exit(1)
	}

	levelStr, _ := cmd.Flags().GetString("level")
	level, err := proof.ParseTrustLevel(levelStr)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	url, _ := cmd.Flags().GetString("url")
	overrideIds, _ := cmd.Flags().GetStringSlice("override")

	conf := loadConfigOrExit(cmd)
	logger := newLoggerOrExit(conf)
	authorId, seed := unlockIdentityOrExit(conf)
	if conf.Identity.ProofRepoDir == "" {
		fmt.Println("No proof repository configured (identity.proof-repo-dir).")
		os.Exit(1)
	}

	var override []proof.IdentityRecord
	for _, o := range overrideIds {
		override = append(override, proof.IdentityRecord{IdType: "crev", Id: o})
	}

	b := &proof.Body{
		Kind:     proof.KindTrust,
		Ids:      []proof.IdentityRecord{{IdType: "crev", Id: args[0], URL: url}},
		Trust:    &level,
		Override: override,
	}

	s := store.New()
	s.SetLogger(logger.Named("store"))
	layout := store.Layout{Root: conf.Identity.ProofRepoDir, HostSalt: hostSaltOrExit(conf)}
	committer := store.NewCommitter(layout)
	if err := committer.Commit(s, authorId, seed, b, time.Now().UTC()); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	gitCommit(conf, logger, authorId, fmt.Sprintf("trust: %s %s", level, args[0]))
	fmt.Printf("Recorded %s trust in %s\n", level, args[0])
}

var trustQueryCmd = cli.NewLeafCommand("query", "Print your effective trust map",
	"Compute and print the effective trust level your web of trust assigns to every identity it can reach.",
	runTrustQuery)

func runTrustQuery(cmd *cobra.Command, args []string) {
	conf := loadConfigOrExit(cmd)
	logger := newLoggerOrExit(conf)
	rootId, seed := unlockIdentityOrExit(conf)
	s := openStoreOrExit(conf, logger)

	result := computeTrust(conf, s, rootId, seed, logger)
	for identity, level := range result.Effective {
		fmt.Printf("%s\t%s\n", level, identity)
	}
}
