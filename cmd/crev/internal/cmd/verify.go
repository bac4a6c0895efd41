package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/crev-dev/crev-go/cli"
	"github.com/crev-dev/crev-go/verify"
)

// verifyCmd runs a verify query against a dependency manifest (spec.md
// §4.6): one line per entry, "<source> <name> <version> <path>", or
// "<source> <name> <version> local" for an entry with no resolvable
// registry source.
var verifyCmd = cli.NewLeafCommand("verify <manifest>",
	"Verify a dependency tree against your web of trust",
	"Read a manifest of package entries and print a pass/none/flagged/dangerous/local verdict for each, per your configured trust and review thresholds. Exits non-zero unless every entry is pass or local.",
	runVerify)

func init() {
	RootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) {
	if len(args) != 1 {
		fmt.Println("usage: crev verify <manifest>")
		os.Exit(1)
	}

	entries, err := readManifest(args[0])
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	conf := loadConfigOrExit(cmd)
	logger := newLoggerOrExit(conf)
	rootId, seed := unlockIdentityOrExit(conf)
	s := openStoreOrExit(conf, logger)
	trust := computeTrust(conf, s, rootId, seed, logger)

	trustMin, thoroughnessMin, understandingMin, err := conf.Thresholds.Parsed()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	th := verify.Thresholds{
		TrustLevelMin:    trustMin,
		ThoroughnessMin:  thoroughnessMin,
		UnderstandingMin: understandingMin,
		Redundancy:       conf.Policy.Redundancy,
	}

	engine := verify.NewEngine(s, trust)
	engine.SetLogger(logger.Named("verify"))
	report := engine.Run(cmd.Context(), entries, th)

	for _, r := range report.Results {
		fmt.Printf("%-10s %s/%s@%s\n", r.Status, r.Entry.Source, r.Entry.Name, r.Entry.Version)
		for _, d := range r.Diagnostics {
			fmt.Printf("    %s\n", d)
		}
		if r.Err != nil {
			fmt.Printf("    error: %v\n", r.Err)
		}
	}

	if !report.ExitOK() {
		os.Exit(1)
	}
}

func readManifest(path string) ([]verify.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cmd: opening manifest %s: %w", path, err)
	}
	defer f.Close()

	var entries []verify.Entry
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			return nil, fmt.Errorf("cmd: manifest %s line %d: want \"source name version path\", got %q", path, lineNo, line)
		}
		entry := verify.Entry{Source: fields[0], Name: fields[1], Version: fields[2]}
		if fields[3] == "local" {
			entry.Local = true
		} else {
			entry.LocalPath = fields[3]
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cmd: reading manifest %s: %w", path, err)
	}
	return entries, nil
}
