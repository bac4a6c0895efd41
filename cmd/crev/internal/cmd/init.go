package cmd

import (
	"fmt"
	"os"

	"github.com/go-git/go-git/v5"
	"github.com/spf13/cobra"

	"github.com/crev-dev/crev-go/cli"
	"github.com/crev-dev/crev-go/id"
)

// initCmd bootstraps a fresh crev setup in one step: a new identity and a
// freshly git-initialized proof repository, for a user who has never run
// any crev command before. `crev id new` and `crev id switch` remain the
// way to manage identities once this has been done once.
var initCmd = cli.NewInitCommand("crev", runInit)

func init() {
	RootCmd.AddCommand(initCmd)
	initCmd.Flags().StringP("dir", "d", ".", "Directory to initialize as the proof repository")
}

func runInit(cmd *cobra.Command, args []string) {
	dir := cmd.Flag("dir").Value.String()
	conf := loadConfigOrExit(cmd)

	if conf.Identity.SecretKeyPath == "" {
		publicId, seed, err := id.Generate()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		passphrase, err := id.ReadPassphrase("New passphrase: ", os.Stdin)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		params, err := id.DefaultKDFParams()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		locked, err := id.Lock(seed, passphrase, "", params)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		idsPath, err := idsDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		keyPath := idsPath + "/" + string(publicId) + ".yaml"
		if err := id.SaveLockedId(keyPath, locked); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		conf.Identity.CurrentId = string(publicId)
		conf.Identity.SecretKeyPath = keyPath
		fmt.Println("Generated identity:", publicId)
	}

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	}
	if _, err := git.PlainInit(dir, false); err != nil && err != git.ErrRepositoryAlreadyExists {
		fmt.Println(err)
		os.Exit(1)
	}
	conf.Identity.ProofRepoDir = dir

	if err := conf.Save(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	fmt.Println("Initialized proof repository at", dir)
}
