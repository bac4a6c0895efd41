// Package verify implements the verification engine (spec.md §4.6): for
// each queried package entry, it computes the entry's recursive digest,
// collects trust-filtered reviews, issues and advisories, and derives a
// status label.
package verify

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/crev-dev/crev-go/digest"
	"github.com/crev-dev/crev-go/logging"
	"github.com/crev-dev/crev-go/proof"
	"github.com/crev-dev/crev-go/store"
	"github.com/crev-dev/crev-go/wot"
)

// Status is the per-entry outcome label, in increasing severity except for
// Local, which is orthogonal (spec.md §4.6 step 7).
type Status string

const (
	StatusPass      Status = "pass"
	StatusNone      Status = "none"
	StatusFlagged   Status = "flagged"
	StatusDangerous Status = "dangerous"
	StatusLocal     Status = "local"
)

var severity = map[Status]int{
	StatusPass:      0,
	StatusNone:      1,
	StatusFlagged:   2,
	StatusDangerous: 3,
}

// worse reports whether a is a strictly more severe status than b. Local is
// never compared by severity: it is resolved immediately and skips the rest
// of the per-entry procedure.
func worse(a, b Status) bool {
	return severity[a] > severity[b]
}

// Entry is one package version to verify. Local is set by the
// package-manager adapter when the entry has no resolvable registry source
// (spec.md §4.6 "Additional derived columns").
type Entry struct {
	Source    string
	Name      string
	Version   string
	LocalPath string
	Local     bool
}

// Thresholds are the filter parameters of one verify query (spec.md §4.6
// "Inputs per query").
type Thresholds struct {
	TrustLevelMin    proof.TrustLevel
	ThoroughnessMin  proof.Level
	UnderstandingMin proof.Level
	Redundancy       int
}

// Result is the verdict for one entry.
type Result struct {
	Entry       Entry
	Status      Status
	Digest      []byte
	Diagnostics []string
	Err         error
}

// Report collects every entry's Result from one verify run, sorted by entry
// name then version (spec.md §5, "Ordering guarantees").
type Report struct {
	Results []Result
}

// ExitOK reports whether every entry resolved to pass or local (spec.md §6,
// "Exit status of the verify query").
func (r *Report) ExitOK() bool {
	for _, res := range r.Results {
		if res.Status != StatusPass && res.Status != StatusLocal {
			return false
		}
	}
	return true
}

// Engine runs verify queries against a fixed proof store and a precomputed
// WoT result.
type Engine struct {
	store  *store.Store
	trust  *wot.Result
	logger *logging.Logger
}

// NewEngine returns an Engine. trust must have been computed (via
// wot.Engine.Compute) against the same store.
func NewEngine(s *store.Store, trust *wot.Result) *Engine {
	return &Engine{store: s, trust: trust, logger: logging.Nop()}
}

// SetLogger attaches l so Run reports query size and per-entry outcome as
// structured log entries. An Engine logs nowhere until this is called.
func (e *Engine) SetLogger(l *logging.Logger) {
	e.logger = l
}

// Run verifies every entry, in parallel bounded by GOMAXPROCS (spec.md §5,
// "Recursive digest computation across package entries — embarrassingly
// parallel over dependencies"). ctx is checked between entries; in-flight
// entries are allowed to finish.
func (e *Engine) Run(ctx context.Context, entries []Entry, th Thresholds) *Report {
	e.logger.Debug("starting verify run", "entries", len(entries))
	results := make([]Result, len(entries))

	workers := runtime.GOMAXPROCS(0)
	if workers > len(entries) {
		workers = len(entries)
	}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = e.verifyEntry(entries[i], th)
			}
		}()
	}
loop:
	for i := range entries {
		select {
		case <-ctx.Done():
			break loop
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	sort.Slice(results, func(i, j int) bool {
		if results[i].Entry.Name != results[j].Entry.Name {
			return results[i].Entry.Name < results[j].Entry.Name
		}
		return results[i].Entry.Version < results[j].Entry.Version
	})

	counts := map[Status]int{}
	for _, r := range results {
		counts[r.Status]++
	}
	e.logger.Info("verify run complete", "entries", len(entries),
		"pass", counts[StatusPass], "none", counts[StatusNone],
		"flagged", counts[StatusFlagged], "dangerous", counts[StatusDangerous], "local", counts[StatusLocal])
	return &Report{Results: results}
}

// verifyEntry applies the per-entry procedure of spec.md §4.6 steps 1-7.
func (e *Engine) verifyEntry(entry Entry, th Thresholds) Result {
	if entry.Local {
		return Result{Entry: entry, Status: StatusLocal}
	}

	d, err := digest.Digest(entry.LocalPath, nil)
	if err != nil {
		return Result{Entry: entry, Status: StatusNone, Err: err,
			Diagnostics: []string{fmt.Sprintf("digest error: %v", err)}}
	}
	encodedDigest := digest.EncodeString(d)

	reviews, diagnostics := e.collectReviews(entry.Source, entry.Name, th.TrustLevelMin)

	positive := 0
	for _, r := range reviews {
		pkg := r.Body.Package
		if pkg.Version != entry.Version {
			continue
		}
		if r.Body.CoversOnlyFiles() {
			ok, diag := e.filesCover(entry, r.Body.Files)
			if diag != "" {
				diagnostics = append(diagnostics, diag)
			}
			if !ok {
				continue
			}
		} else if pkg.Digest != encodedDigest {
			diagnostics = append(diagnostics, fmt.Sprintf(
				"digest mismatch: %s's review of %s@%s declares digest %s, local tree is %s",
				r.Body.From.Id, entry.Name, entry.Version, pkg.Digest, encodedDigest))
			continue
		}
		if r.Body.Review == nil || !r.Body.Review.Rating.Positive() {
			continue
		}
		if r.Body.Review.Thoroughness < th.ThoroughnessMin {
			continue
		}
		if r.Body.Review.Understanding < th.UnderstandingMin {
			continue
		}
		positive++
	}

	status := StatusNone
	redundancy := th.Redundancy
	if redundancy < 1 {
		redundancy = 1
	}
	if positive >= redundancy {
		status = StatusPass
	} else if diag := diffDiagnostic(entry, reviews); diag != "" {
		diagnostics = append(diagnostics, diag)
	}

	affStatus, affDiagnostics := e.applyIssuesAndAdvisories(entry, reviews)
	diagnostics = append(diagnostics, affDiagnostics...)
	if worse(affStatus, status) {
		status = affStatus
	}

	if unmaintainedStatus, diag := unmaintainedFlag(entry, reviews); diag != "" {
		diagnostics = append(diagnostics, diag)
		if worse(unmaintainedStatus, status) {
			status = unmaintainedStatus
		}
	}

	e.logger.Debug("verified entry", "name", entry.Name, "version", entry.Version,
		"status", string(status), "positive_reviews", positive)
	return Result{Entry: entry, Status: status, Digest: d, Diagnostics: diagnostics}
}

// filesCover checks a code review proof scoped to specific files
// (spec.md §3, "Code review proof... covers only the listed files"):
// every listed file must exist under entry.LocalPath with the declared
// digest. filesCover never touches the whole-tree digest.
func (e *Engine) filesCover(entry Entry, files []proof.FileEntry) (bool, string) {
	for _, fe := range files {
		fd, err := digest.Digest(filepath.Join(entry.LocalPath, fe.Path), nil)
		if err != nil {
			return false, fmt.Sprintf("code review file %s: %v", fe.Path, err)
		}
		if digest.EncodeString(fd) != fe.Digest {
			return false, fmt.Sprintf(
				"digest mismatch: code review declares %s at digest %s, local file is %s",
				fe.Path, fe.Digest, digest.EncodeString(fd))
		}
	}
	return true, ""
}

// collectReviews returns every review of (source, name), across all
// versions, from an author whose effective trust is at least trustMin, with
// any override-suppressed author's reviews of the overriding review's exact
// package version removed (spec.md §4.6 step 2, scenario S6).
func (e *Engine) collectReviews(source, name string, trustMin proof.TrustLevel) ([]*proof.Proof, []string) {
	all := e.store.ReviewsOfPackage(source, name)

	var inScope []*proof.Proof
	for _, p := range all {
		if e.trust.Level(p.Body.From.Id) >= trustMin {
			inScope = append(inScope, p)
		}
	}

	type suppressKey struct {
		author, version string
	}
	suppressed := map[suppressKey]bool{}
	for _, p := range inScope {
		for _, ov := range p.Body.Override {
			suppressed[suppressKey{author: ov.Id, version: p.Body.Package.Version}] = true
		}
	}

	var diagnostics []string
	var out []*proof.Proof
	for _, p := range inScope {
		key := suppressKey{author: p.Body.From.Id, version: p.Body.Package.Version}
		if suppressed[key] {
			diagnostics = append(diagnostics, fmt.Sprintf(
				"%s's review of %s@%s suppressed by an overriding review in scope",
				p.Body.From.Id, name, p.Body.Package.Version))
			continue
		}
		out = append(out, p)
	}
	return out, diagnostics
}

// applyIssuesAndAdvisories derives the dangerous/flagged downgrade from the
// issues and advisories carried by reviews, per spec.md §4.6 step 6.
func (e *Engine) applyIssuesAndAdvisories(entry Entry, reviews []*proof.Proof) (Status, []string) {
	status := StatusPass
	var diagnostics []string

	for _, r := range reviews {
		for _, adv := range r.Body.Advisories {
			if !inAdvisoryWindow(entry.Version, r.Body.Package.Version, adv.Range) {
				continue
			}
			next := StatusDangerous
			if adv.Severity < proof.LevelHigh {
				next = StatusFlagged
			}
			if worse(next, status) {
				status = next
			}
			diagnostics = append(diagnostics, fmt.Sprintf(
				"advisory %v from %s fixed in %s@%s covers %s (severity %v)",
				adv.Ids, r.Body.From.Id, entry.Name, r.Body.Package.Version, entry.Version, adv.Severity))
		}
	}

	for _, r := range reviews {
		for _, issue := range r.Body.Issues {
			if !leVersion(r.Body.Package.Version, entry.Version) {
				continue // the issue was reported against a later version than the one queried.
			}
			if issueFixed(reviews, issue.Id, r.Body.Package.Version, entry.Version) {
				continue
			}
			if worse(StatusDangerous, status) {
				status = StatusDangerous
			}
			diagnostics = append(diagnostics, fmt.Sprintf(
				"unfixed issue %s reported by %s at %s@%s (severity %v)",
				issue.Id, r.Body.From.Id, entry.Name, r.Body.Package.Version, issue.Severity))
		}
	}

	return status, diagnostics
}

// issueFixed reports whether some advisory among reviews, with a matching
// id, was published at a version in [reportedAt, queried] — i.e. the fix
// landed at or before the version being verified.
func issueFixed(reviews []*proof.Proof, issueId, reportedAt, queried string) bool {
	for _, r := range reviews {
		for _, adv := range r.Body.Advisories {
			if !idIn(adv.Ids, issueId) {
				continue
			}
			fixedAt := r.Body.Package.Version
			if lessVersion(fixedAt, reportedAt) {
				continue
			}
			if leVersion(fixedAt, queried) {
				return true
			}
		}
	}
	return false
}

// diffDiagnostic reports, when no review exactly covers entry's queried
// version, which reviewed version of the package is closest to it — a
// purely informational hint for "you're one patch release away from a
// reviewed one" (spec.md's review-adjacency convenience, built on the
// store's existing reviews_of_package index).
func diffDiagnostic(entry Entry, reviews []*proof.Proof) string {
	var others []string
	for _, r := range reviews {
		if r.Body.Package.Version != entry.Version {
			others = append(others, r.Body.Package.Version)
		}
	}
	closest, ok := closestVersion(entry.Version, others)
	if !ok {
		return ""
	}
	return fmt.Sprintf("no review covers %s@%s; the closest reviewed version is %s", entry.Name, entry.Version, closest)
}

// unmaintainedFlag applies spec.md §9(b)'s suggested resolution for
// flags.unmaintained: a whole-package-scoped flag from any in-scope review
// applies to every version of the package, downgrading status to at least
// flagged, but never overrides a positive rating into dangerous on its own.
func unmaintainedFlag(entry Entry, reviews []*proof.Proof) (Status, string) {
	for _, r := range reviews {
		if r.Body.Flags != nil && r.Body.Flags.Unmaintained {
			return StatusFlagged, fmt.Sprintf(
				"%s flags %s as unmaintained", r.Body.From.Id, entry.Name)
		}
	}
	return StatusPass, ""
}

func idIn(ids []string, target string) bool {
	for _, id := range ids {
		if id == target {
			return true
		}
	}
	return false
}
