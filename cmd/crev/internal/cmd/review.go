package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/crev-dev/crev-go/cli"
	"github.com/crev-dev/crev-go/digest"
	"github.com/crev-dev/crev-go/proof"
	"github.com/crev-dev/crev-go/store"
)

// reviewCmd signs and commits package review proofs (spec.md §4.6's input
// side: the proofs the verification engine later consumes).
var reviewCmd = cli.NewLeafCommand("review <source> <name> <version> <path>",
	"Review a package version",
	"Compute the recursive digest of the tree at <path>, and sign and commit a package review proof for <source>/<name>@<version>.",
	runReview)

func init() {
	RootCmd.AddCommand(reviewCmd)
	reviewCmd.Flags().String("rating", "positive", "dangerous, negative, neutral, positive, or strong")
	reviewCmd.Flags().String("thoroughness", "medium", "none, low, medium, or high")
	reviewCmd.Flags().String("understanding", "medium", "none, low, medium, or high")
	reviewCmd.Flags().String("comment", "", "Free-text comment attached to the review")
	reviewCmd.Flags().Bool("unmaintained", false, "Flag the package as unmaintained, independent of version")
}

func runReview(cmd *cobra.Command, args []string) {
	if len(args) != 4 {
		fmt.Println("usage: crev review <source> <name> <version> <path>")
		os.Exit(1)
	}
	source, name, version, path := args[0], args[1], args[2], args[3]

	rating, err := proof.ParseRating(mustFlag(cmd, "rating"))
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	thoroughness, err := proof.ParseLevel(mustFlag(cmd, "thoroughness"))
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	understanding, err := proof.ParseLevel(mustFlag(cmd, "understanding"))
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	d, err := digest.Digest(path, nil)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	conf := loadConfigOrExit(cmd)
	logger := newLoggerOrExit(conf)
	authorId, seed := unlockIdentityOrExit(conf)
	if conf.Identity.ProofRepoDir == "" {
		fmt.Println("No proof repository configured (identity.proof-repo-dir).")
		os.Exit(1)
	}

	b := &proof.Body{
		Kind: proof.KindPackageReview,
		Package: &proof.PackageId{
			Source:  source,
			Name:    name,
			Version: version,
			Digest:  digest.EncodeString(d),
		},
		Review: &proof.Review{Thoroughness: thoroughness, Understanding: understanding, Rating: rating},
	}
	if comment := mustFlag(cmd, "comment"); comment != "" {
		b.Comment = comment
	}
	if unmaintained, _ := cmd.Flags().GetBool("unmaintained"); unmaintained {
		b.Flags = &proof.Flags{Unmaintained: unmaintained}
	}

	s := store.New()
	s.SetLogger(logger.Named("store"))
	layout := store.Layout{Root: conf.Identity.ProofRepoDir, HostSalt: hostSaltOrExit(conf)}
	committer := store.NewCommitter(layout)
	if err := committer.Commit(s, authorId, seed, b, time.Now().UTC()); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	gitCommit(conf, logger, authorId, fmt.Sprintf("review: %s %s/%s@%s", rating, source, name, version))
	fmt.Printf("Recorded %s review of %s/%s@%s (digest %s)\n", rating, source, name, version, digest.EncodeString(d))
}

func mustFlag(cmd *cobra.Command, name string) string {
	return cmd.Flag(name).Value.String()
}
