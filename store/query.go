package store

import "github.com/crev-dev/crev-go/proof"

// ProofsByAuthor returns every proof ever ingested from id, in ingestion
// order, including superseded ones kept for audit (spec.md §3 "Lifecycle").
func (s *Store) ProofsByAuthor(authorId string) []*proof.Proof {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*proof.Proof, len(s.byAuthor[authorId]))
	copy(out, s.byAuthor[authorId])
	return out
}

// TrustProofsFrom returns the latest trust proof authorId has issued for
// each subject it has ever trusted.
func (s *Store) TrustProofsFrom(authorId string) []*proof.Proof {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*proof.Proof
	for subject, p := range s.trustLatest {
		if subject.Author == authorId {
			out = append(out, p)
		}
	}
	return out
}

// LatestTrust returns the effective (latest-date) trust proof author has
// issued for subject, if any (spec.md §4.4, "latest_trust").
func (s *Store) LatestTrust(author, subject string) (*proof.Proof, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.trustLatest[TrustSubject{Author: author, Trusted: subject}]
	return p, ok
}

// TrustEdge pairs a trust subject with the latest trust proof that governs
// it, for the WoT engine to build its adjacency map from.
type TrustEdge struct {
	Subject TrustSubject
	Proof   *proof.Proof
}

// AllTrustEdges returns the latest trust proof for every (author, subject)
// pair ever seen.
func (s *Store) AllTrustEdges() []TrustEdge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]TrustEdge, 0, len(s.trustLatest))
	for subject, p := range s.trustLatest {
		out = append(out, TrustEdge{Subject: subject, Proof: p})
	}
	return out
}

// ReviewsOf returns the latest review (package or code review) of exactly
// (source, name, version), one per author that has reviewed it.
func (s *Store) ReviewsOf(source, name, version string) []*proof.Proof {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*proof.Proof
	for subject, p := range s.reviewLatest {
		if subject.Source == source && subject.Name == name && subject.Version == version {
			out = append(out, p)
		}
	}
	return out
}

// ReviewsOfPackage returns the latest review for every (author, version)
// pair of the named package, across all versions.
func (s *Store) ReviewsOfPackage(source, name string) []*proof.Proof {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*proof.Proof
	for subject, p := range s.reviewLatest {
		if subject.Source == source && subject.Name == name {
			out = append(out, p)
		}
	}
	return out
}
