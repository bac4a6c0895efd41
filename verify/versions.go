package verify

import (
	"github.com/Masterminds/semver/v3"

	"github.com/crev-dev/crev-go/proof"
)

// inAdvisoryWindow reports whether queried is covered by an advisory fixed
// in fixedIn, given the advisory's range (spec.md §4.6 step 6, §3 GLOSSARY
// "Advisory"). Unparseable versions are compared lexicographically so that
// non-semver schemes still degrade to a reasonable ordering instead of
// panicking.
func inAdvisoryWindow(queried, fixedIn string, rng proof.AdvisoryRange) bool {
	q, errQ := semver.NewVersion(queried)
	f, errF := semver.NewVersion(fixedIn)
	if errQ != nil || errF != nil {
		return queried < fixedIn
	}
	if !q.LessThan(f) {
		return false // fixedIn's advisory only covers versions strictly before it.
	}
	switch rng {
	case proof.RangeAll:
		return true
	case proof.RangeMajor:
		return q.Major() == f.Major()
	case proof.RangeMinor:
		return q.Major() == f.Major() && q.Minor() == f.Minor()
	default:
		return false
	}
}

// lessVersion orders two version strings, falling back to lexicographic
// comparison when either fails to parse as semver.
func lessVersion(a, b string) bool {
	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)
	if errA != nil || errB != nil {
		return a < b
	}
	return va.LessThan(vb)
}

// leVersion reports whether a <= b under the same fallback rule as
// lessVersion.
func leVersion(a, b string) bool {
	return a == b || lessVersion(a, b)
}

// closestVersion picks the candidate nearest to target under semver
// ordering distance, for the verification report's diagnostic "no review
// of the exact queried version, but one exists for an adjacent version".
// Candidates that fail to parse as semver are skipped; if target or every
// candidate fails to parse, the candidate whose string length is nearest
// target's is returned instead (the first one on a tie).
func closestVersion(target string, candidates []string) (string, bool) {
	t, err := semver.NewVersion(target)
	if err != nil {
		return closestLexical(target, candidates)
	}

	best := ""
	bestDist := -1.0
	for _, c := range candidates {
		cv, err := semver.NewVersion(c)
		if err != nil {
			continue
		}
		dist := versionDistance(t, cv)
		if bestDist < 0 || dist < bestDist {
			bestDist = dist
			best = c
		}
	}
	if best == "" {
		return closestLexical(target, candidates)
	}
	return best, true
}

func versionDistance(a, b *semver.Version) float64 {
	d := func(x, y uint64) float64 {
		if x > y {
			return float64(x - y)
		}
		return float64(y - x)
	}
	return d(a.Major(), b.Major())*1e6 + d(a.Minor(), b.Minor())*1e3 + d(a.Patch(), b.Patch())
}

func closestLexical(target string, candidates []string) (string, bool) {
	best := ""
	for _, c := range candidates {
		if best == "" || abs(len(c)-len(target)) < abs(len(best)-len(target)) {
			best = c
		}
	}
	return best, best != ""
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
