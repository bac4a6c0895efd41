// Package wot computes, for a root identity, the set of effectively
// trusted identities and their degraded trust level, by propagating the
// latest trust proofs in a store (spec.md §4.5).
package wot

import (
	"container/heap"

	"github.com/crev-dev/crev-go/id"
	"github.com/crev-dev/crev-go/logging"
	"github.com/crev-dev/crev-go/proof"
	"github.com/crev-dev/crev-go/store"
)

// Policy configures how far and at what cost trust propagates
// (spec.md §4.5).
type Policy struct {
	Depth      int
	HighCost   int
	MediumCost int
	LowCost    int
}

func (p Policy) costOf(lvl proof.TrustLevel) int {
	switch lvl {
	case proof.TrustHigh:
		return p.HighCost
	case proof.TrustMedium:
		return p.MediumCost
	case proof.TrustLow:
		return p.LowCost
	default:
		return 0
	}
}

// DefaultRedundancy is the number of independent distrust edges required
// to fix a node at distrust before it would otherwise be reached
// (spec.md §4.5 point 6).
const DefaultRedundancy = 1

// Engine computes effective trust maps against a fixed proof store.
type Engine struct {
	store  *store.Store
	logger *logging.Logger
}

// NewEngine returns an Engine backed by s. s is assumed immutable for the
// lifetime of any single Compute call (spec.md §5).
func NewEngine(s *store.Store) *Engine {
	return &Engine{store: s, logger: logging.Nop()}
}

// SetLogger attaches l so Compute reports traversal size and outcome as
// structured log entries. An Engine logs nowhere until this is called.
func (e *Engine) SetLogger(l *logging.Logger) {
	e.logger = l
}

// Result is the outcome of one trust computation.
type Result struct {
	// Effective maps an identity to the trust level root ultimately
	// assigns it. Identities absent from the map were not reached within
	// policy.Depth and are implicitly "none".
	Effective map[string]proof.TrustLevel
}

// Level returns the effective trust level for id, defaulting to
// proof.TrustNone if id was never reached.
func (r *Result) Level(identity string) proof.TrustLevel {
	if l, ok := r.Effective[identity]; ok {
		return l
	}
	return proof.TrustNone
}

type edge struct {
	to    string
	level proof.TrustLevel
}

type override struct {
	by         string
	suppressed string
}

// Compute runs the effective-trust traversal described in spec.md §4.5
// starting from root.
func (e *Engine) Compute(root id.Id, policy Policy, redundancy int) *Result {
	if redundancy <= 0 {
		redundancy = DefaultRedundancy
	}
	e.logger.Debug("starting trust traversal", "root", string(root),
		"depth", policy.Depth, "redundancy", redundancy)

	positive, distrust, overridesBySubject := e.buildGraph()

	level := map[string]proof.TrustLevel{}
	settled := map[string]bool{}
	distrustVotes := map[string]int{}

	pq := &candidateQueue{}
	heap.Init(pq)
	heap.Push(pq, candidate{node: string(root), cost: 0, level: proof.TrustHigh})

	for pq.Len() > 0 {
		c := heap.Pop(pq).(candidate)
		if settled[c.node] {
			continue
		}
		settled[c.node] = true
		level[c.node] = c.level

		// Register distrust votes this node casts (spec.md §4.5 point 6).
		for _, target := range distrust[c.node] {
			if settled[target] {
				continue // too late: target was already positively reached.
			}
			if isOverridden(overridesBySubject, target, c.node, settled) {
				continue
			}
			distrustVotes[target]++
			if distrustVotes[target] >= redundancy {
				settled[target] = true
				level[target] = proof.TrustDistrust
			}
		}

		for _, ed := range positive[c.node] {
			if settled[ed.to] {
				continue
			}
			if isOverridden(overridesBySubject, ed.to, c.node, settled) {
				continue
			}
			newCost := c.cost + policy.costOf(ed.level)
			if newCost > policy.Depth {
				continue
			}
			newLevel := minLevel(c.level, ed.level)
			heap.Push(pq, candidate{node: ed.to, cost: newCost, level: newLevel, pred: c.node})
		}
	}

	e.logger.Info("trust traversal complete", "root", string(root), "reached", len(level))
	return &Result{Effective: level}
}

// buildGraph constructs the positive-trust adjacency, the distrust
// adjacency, and the set of (subject -> overridden authors) suppressions
// declared by any trust proof in the store.
func (e *Engine) buildGraph() (positive map[string][]edge, distrust map[string][]string, overridesBySubject map[string][]override) {
	positive = map[string][]edge{}
	distrust = map[string][]string{}
	overridesBySubject = map[string][]override{}

	for _, te := range e.store.AllTrustEdges() {
		p := te.Proof
		if p.Body.Trust == nil {
			continue
		}
		author := te.Subject.Author
		subject := te.Subject.Trusted
		lvl := *p.Body.Trust

		for _, ov := range p.Body.Override {
			overridesBySubject[subject] = append(overridesBySubject[subject], override{by: author, suppressed: ov.Id})
		}

		switch lvl {
		case proof.TrustDistrust:
			distrust[author] = append(distrust[author], subject)
		case proof.TrustNone:
			// carries no propagated positive trust (spec.md §4.5 step 2).
		default:
			positive[author] = append(positive[author], edge{to: subject, level: lvl})
		}
	}
	return positive, distrust, overridesBySubject
}

// isOverridden reports whether some already-reached node's trust proof has
// suppressed author's proofs for subject (spec.md §4.5 point 7: suppression
// takes effect "when processing the proof of A", i.e. once A is reached).
func isOverridden(overridesBySubject map[string][]override, subject, author string, settled map[string]bool) bool {
	for _, ov := range overridesBySubject[subject] {
		if ov.suppressed == author && settled[ov.by] {
			return true
		}
	}
	return false
}

func minLevel(a, b proof.TrustLevel) proof.TrustLevel {
	if a < b {
		return a
	}
	return b
}

// candidate is one entry in the traversal's priority queue: a proposal
// that node can be reached at cost via pred, carrying level. Priority
// order is non-increasing level first (spec.md §4.5 step 5: effective[Y]
// is the maximum over all incoming propagated levels), then non-decreasing
// cost as the tie-break among equal levels, then lexicographically
// smallest predecessor, matching spec.md §4.5's tie-break rules.
type candidate struct {
	node  string
	cost  int
	level proof.TrustLevel
	pred  string
}

type candidateQueue []candidate

func (q candidateQueue) Len() int { return len(q) }
func (q candidateQueue) Less(i, j int) bool {
	if q[i].level != q[j].level {
		return q[i].level > q[j].level
	}
	if q[i].cost != q[j].cost {
		return q[i].cost < q[j].cost
	}
	return q[i].pred < q[j].pred
}
func (q candidateQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *candidateQueue) Push(x interface{}) {
	*q = append(*q, x.(candidate))
}
func (q *candidateQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}
