// Package config loads the ambient configuration read by the CLI: which
// identity is active, the WoT policy and verification thresholds applied
// when none are given on the command line, the known-owners list passed
// through opaquely to the package-manager adapter, a list of ambiently
// trusted ids seeding the WoT root's direct trust edges, and logging setup
// (spec.md §6, "Persisted on-disk state").
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/crev-dev/crev-go/logging"
	"github.com/crev-dev/crev-go/proof"
	"github.com/crev-dev/crev-go/wot"
)

// PolicyConfig mirrors wot.Policy plus the redundancy threshold shared
// between the WoT and verification engines, in their toml-friendly form.
type PolicyConfig struct {
	Depth      int `toml:"depth"`
	HighCost   int `toml:"high_cost"`
	MediumCost int `toml:"medium_cost"`
	LowCost    int `toml:"low_cost"`
	Redundancy int `toml:"redundancy"`
}

// ToPolicy converts to the WoT engine's Policy type.
func (p PolicyConfig) ToPolicy() wot.Policy {
	return wot.Policy{Depth: p.Depth, HighCost: p.HighCost, MediumCost: p.MediumCost, LowCost: p.LowCost}
}

// DefaultPolicyConfig matches wot.DefaultRedundancy and the cost scale
// suggested by spec.md §4.5 (equal cost per level, shallow depth).
func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{Depth: 6, HighCost: 1, MediumCost: 1, LowCost: 1, Redundancy: wot.DefaultRedundancy}
}

// ThresholdsConfig is the toml-friendly form of verify.Thresholds, using
// named levels instead of verify's typed enums so a config file reads as
// "trust_level_min = \"medium\"".
type ThresholdsConfig struct {
	TrustLevelMin    string `toml:"trust_level_min"`
	ThoroughnessMin  string `toml:"thoroughness_min"`
	UnderstandingMin string `toml:"understanding_min"`
}

// DefaultThresholdsConfig matches the "low" baseline used by spec.md §8's
// S1 scenario.
func DefaultThresholdsConfig() ThresholdsConfig {
	return ThresholdsConfig{TrustLevelMin: "low", ThoroughnessMin: "low", UnderstandingMin: "low"}
}

// Parsed resolves the string levels to their typed form.
func (t ThresholdsConfig) Parsed() (trustMin proof.TrustLevel, thoroughnessMin, understandingMin proof.Level, err error) {
	if trustMin, err = proof.ParseTrustLevel(t.TrustLevelMin); err != nil {
		return
	}
	if thoroughnessMin, err = proof.ParseLevel(t.ThoroughnessMin); err != nil {
		return
	}
	understandingMin, err = proof.ParseLevel(t.UnderstandingMin)
	return
}

// IdentityConfig names the currently active identity and where its
// proof repository lives.
type IdentityConfig struct {
	CurrentId     string `toml:"current-id"`
	URL           string `toml:"url,omitempty"`
	ProofRepoDir  string `toml:"proof-repo-dir,omitempty"`
	SecretKeyPath string `toml:"secret-key-path,omitempty"`
	HostSalt      string `toml:"host-salt,omitempty"`
}

// Config is the full on-disk configuration tree, rooted at the crev
// config directory (spec.md §6, "Config directory").
type Config struct {
	Identity    IdentityConfig   `toml:"identity"`
	Policy      PolicyConfig     `toml:"policy"`
	Thresholds  ThresholdsConfig `toml:"thresholds"`
	KnownOwners []string         `toml:"known-owners,omitempty"`
	TrustedIds  []string         `toml:"trusted-ids,omitempty"`
	Logger      *logging.Config  `toml:"logger,omitempty"`

	path string
}

// Default returns a Config with no identity selected yet and every other
// field at its documented default.
func Default() *Config {
	return &Config{
		Policy:     DefaultPolicyConfig(),
		Thresholds: DefaultThresholdsConfig(),
		Logger:     &logging.Config{Environment: "production"},
	}
}

// Load reads and parses a toml config file at path. A missing file is not
// an error: it returns Default() with path recorded for a later Save.
func Load(path string) (*Config, error) {
	conf := Default()
	conf.path = path

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return conf, nil
	}
	if _, err := toml.DecodeFile(path, conf); err != nil {
		return nil, fmt.Errorf("config: failed to load %s: %w", path, err)
	}
	conf.path = path
	return conf, nil
}

// Save writes conf back to its originating path, creating parent
// directories as needed.
func (c *Config) Save() error {
	if c.path == "" {
		return fmt.Errorf("config: no path to save to")
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("config: creating config directory: %w", err)
	}
	f, err := os.OpenFile(c.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("config: opening %s: %w", c.path, err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("config: encoding %s: %w", c.path, err)
	}
	return nil
}

// Path returns the file this Config was loaded from or will be saved to.
func (c *Config) Path() string {
	return c.path
}

// DefaultDir returns the default crev config directory,
// $XDG_CONFIG_HOME/crev or ~/.config/crev.
func DefaultDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: resolving user config directory: %w", err)
	}
	return filepath.Join(dir, "crev"), nil
}
