package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/spf13/cobra"

	"github.com/crev-dev/crev-go/config"
	"github.com/crev-dev/crev-go/id"
	"github.com/crev-dev/crev-go/logging"
	"github.com/crev-dev/crev-go/proof"
	"github.com/crev-dev/crev-go/repo"
	"github.com/crev-dev/crev-go/store"
	"github.com/crev-dev/crev-go/wot"
)

const configMissingUsage = `
Couldn't load crev's config file.

To get started, run
  crev id new
this creates a fresh identity and a config file referencing it. The config
file is named "config.toml" under $XDG_CONFIG_HOME/crev by default; pass
--config to use a different location.
`

// configPath resolves the config file path from the --config flag,
// falling back to config.DefaultDir()'s config.toml.
func configPath(cmd *cobra.Command) (string, error) {
	if p := cmd.Flag("config").Value.String(); p != "" {
		return p, nil
	}
	dir, err := config.DefaultDir()
	if err != nil {
		return "", err
	}
	return dir + string(os.PathSeparator) + "config.toml", nil
}

func loadConfigOrExit(cmd *cobra.Command) *config.Config {
	path, err := configPath(cmd)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	conf, err := config.Load(path)
	if err != nil {
		fmt.Println(err)
		fmt.Print(configMissingUsage)
		os.Exit(1)
	}
	return conf
}

func newLoggerOrExit(conf *config.Config) *logging.Logger {
	lConf := conf.Logger
	if lConf == nil {
		lConf = &logging.Config{Environment: "production"}
	}
	logger, err := logging.New(lConf)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	return logger
}

// unlockIdentityOrExit loads the current identity's LockedId and unlocks
// it, prompting for a passphrase on the controlling terminal (or via
// CREV_PASSPHRASE_COMMAND, per id.ReadPassphrase).
func unlockIdentityOrExit(conf *config.Config) (id.Id, id.Seed) {
	if conf.Identity.SecretKeyPath == "" {
		fmt.Println("No identity configured. Run `crev id new` first.")
		os.Exit(1)
	}
	locked, err := id.LoadLockedId(conf.Identity.SecretKeyPath)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	passphrase, err := id.ReadPassphrase(
		fmt.Sprintf("Passphrase for %s: ", locked.PublicId), os.Stdin)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	seed, err := id.Unlock(locked, passphrase)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	return locked.PublicId, seed
}

// openStoreOrExit builds a Store, attaches the on-disk verification cache
// under the config directory (creating it on first use), and ingests every
// proof under the active proof repository.
func openStoreOrExit(conf *config.Config, logger *logging.Logger) *store.Store {
	s := store.New()
	s.SetLogger(logger.Named("store"))

	cacheDir, err := config.DefaultDir()
	if err == nil {
		if cache, cerr := store.OpenCache(cacheDir + "/cache"); cerr == nil {
			s.UseCache(cache)
		} else {
			logger.Warn("could not open verification cache, re-verifying every signature", "err", cerr)
		}
	}

	if conf.Identity.ProofRepoDir == "" {
		return s
	}
	// s's own logger (attached above) reports per-envelope and aggregate
	// outcomes; the CLI layer only needs to know whether the walk itself
	// failed.
	if _, err := s.IngestTree(conf.Identity.ProofRepoDir); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	return s
}

// seedTrustedIds signs an ephemeral high-trust proof for every id in
// conf.TrustedIds, as authorId, and feeds it directly into s without
// writing it to the proof repository (spec.md's ambient "trusted_ids"
// convenience: it seeds the WoT root's direct trust edges without needing
// a first trust proof to already exist on disk).
func seedTrustedIds(s *store.Store, authorId id.Id, seed id.Seed, trustedIds []string) error {
	if len(trustedIds) == 0 {
		return nil
	}
	level := proof.TrustHigh
	ids := make([]proof.IdentityRecord, len(trustedIds))
	for i, t := range trustedIds {
		ids[i] = proof.IdentityRecord{IdType: "crev", Id: t}
	}
	b := &proof.Body{
		Version: proof.ActiveSchemaVersion,
		Kind:    proof.KindTrust,
		Date:    time.Now().UTC(),
		From:    proof.IdentityRecord{IdType: "crev", Id: string(authorId)},
		Ids:     ids,
		Trust:   &level,
	}
	envelope, err := proof.Sign(seed, b)
	if err != nil {
		return fmt.Errorf("cmd: signing ambient trusted-ids seed: %w", err)
	}
	_, err = s.Ingest(envelope, "trusted-ids (ambient config)")
	return err
}

// hostSaltOrExit returns this host's salt for proof filenames (store.Layout),
// generating and persisting one to conf on first use (spec.md §4.4, §4.7).
func hostSaltOrExit(conf *config.Config) string {
	if conf.Identity.HostSalt != "" {
		return conf.Identity.HostSalt
	}
	salt, err := store.NewHostSalt()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	conf.Identity.HostSalt = salt
	if err := conf.Save(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	return salt
}

// gitCommit stages and commits the working tree change store.Committer just
// wrote, so a later `crev push` has something to send. A missing or
// non-git working tree (e.g. one not yet cloned from a remote) only
// produces a warning: the proof is already durably on disk either way.
func gitCommit(conf *config.Config, logger *logging.Logger, authorId id.Id, message string) {
	r, err := repo.Open(conf.Identity.ProofRepoDir)
	if err != nil {
		logger.Warn("could not open proof repository for a git commit", "err", err)
		return
	}
	r.SetLogger(logger.Named("repo"))
	sig := object.Signature{Name: string(authorId), Email: string(authorId) + "@crev", When: time.Now()}
	if _, err := r.Commit(message, sig); err != nil {
		logger.Warn("could not commit proof to the local working tree", "err", err)
	}
}

// computeTrust runs the WoT engine for root against s using conf's policy,
// after seeding conf.TrustedIds.
func computeTrust(conf *config.Config, s *store.Store, root id.Id, seed id.Seed, logger *logging.Logger) *wot.Result {
	if err := seedTrustedIds(s, root, seed, conf.TrustedIds); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	engine := wot.NewEngine(s)
	engine.SetLogger(logger.Named("wot"))
	return engine.Compute(root, conf.Policy.ToPolicy(), conf.Policy.Redundancy)
}
