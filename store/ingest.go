package store

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/crev-dev/crev-go/proof"
)

// IngestReport summarizes the outcome of one Ingest call, per spec.md §4.4.
type IngestReport struct {
	SourceTag string
	New       int
	Duplicate int
	Invalid   int
	Errors    []error
}

// Ingest decodes and signature-verifies every envelope in stream, adding
// newly-seen valid proofs to the store. Signature verification is
// parallelized across envelopes (spec.md §5); invalid envelopes are
// dropped, logged via the returned report, and never propagate
// (spec.md §7: ingestion-time errors are local to a single envelope).
func (s *Store) Ingest(stream []byte, sourceTag string) (*IngestReport, error) {
	envelopes, err := proof.Unwrap(stream)
	if err != nil {
		return nil, fmt.Errorf("store: unwrapping envelopes from %s: %w", sourceTag, err)
	}

	report := &IngestReport{SourceTag: sourceTag}
	if len(envelopes) == 0 {
		return report, nil
	}

	type result struct {
		p   *proof.Proof
		raw proof.RawEnvelope
		err error
	}
	results := make([]result, len(envelopes))

	workers := runtime.GOMAXPROCS(0)
	if workers > len(envelopes) {
		workers = len(envelopes)
	}
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	jobs := make(chan int)
	now := time.Now().UTC()

	s.mu.RLock()
	cache := s.cache
	logger := s.logger
	s.mu.RUnlock()

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				p, err := verifyOrTrustCache(envelopes[i], now, cache)
				results[i] = result{p: p, raw: envelopes[i], err: err}
			}
		}()
	}
	for i := range envelopes {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range results {
		if r.err != nil {
			report.Invalid++
			report.Errors = append(report.Errors, r.err)
			continue
		}
		if s.insertLocked(r.p) {
			report.New++
		} else {
			report.Duplicate++
		}
	}
	for _, err := range report.Errors {
		logger.Warn("rejected envelope", "source", sourceTag, "err", err)
	}
	logger.Debug("ingested envelopes", "source", sourceTag,
		"new", report.New, "duplicate", report.Duplicate, "invalid", report.Invalid)
	return report, nil
}

// verifyOrTrustCache verifies env's signature unless cache already recorded
// it as verified, in which case the expensive Ed25519 check is skipped. A
// cache miss or absent cache always falls back to full verification.
func verifyOrTrustCache(env proof.RawEnvelope, now time.Time, cache *Cache) (*proof.Proof, error) {
	b, err := proof.Decode(env.Body)
	if err != nil {
		return nil, err
	}
	hash := hashBody(env.Body)
	if cache != nil && cache.Seen(b.From.Id, hash) {
		return &proof.Proof{
			Body:       b,
			Kind:       env.Kind,
			Signature:  env.Signature,
			Suspicious: b.Date.After(now.Add(proof.MaxClockSkew)),
		}, nil
	}

	p, err := proof.ParseAndVerify(env, now)
	if err != nil {
		return nil, err
	}
	if cache != nil {
		// A failed cache write only means this proof is verified again on
		// the next run; the proof itself is valid.
		_ = cache.MarkSeen(b.From.Id, hash)
	}
	return p, nil
}

// insertLocked adds p to the store if it has not been seen before
// (deduplicated by (author, content hash) per spec.md §4.4) and updates the
// latest-date indices. Caller must hold s.mu.
func (s *Store) insertLocked(p *proof.Proof) (isNew bool) {
	key := proofKey{Author: p.Body.From.Id, Hash: hashBody(mustEncode(p.Body))}
	if _, exists := s.byKey[key]; exists {
		return false
	}
	s.byKey[key] = p
	s.byAuthor[p.Body.From.Id] = append(s.byAuthor[p.Body.From.Id], p)

	switch p.Body.Kind {
	case proof.KindTrust:
		for _, trusted := range p.Body.Ids {
			subject := TrustSubject{Author: p.Body.From.Id, Trusted: trusted.Id}
			if cur, ok := s.trustLatest[subject]; !ok || p.Body.Date.After(cur.Body.Date) {
				s.trustLatest[subject] = p
			}
		}
	case proof.KindPackageReview, proof.KindCodeReview:
		if p.Body.Package != nil {
			subject := ReviewSubject{
				Author:  p.Body.From.Id,
				Source:  p.Body.Package.Source,
				Name:    p.Body.Package.Name,
				Version: p.Body.Package.Version,
			}
			if cur, ok := s.reviewLatest[subject]; !ok || p.Body.Date.After(cur.Body.Date) {
				s.reviewLatest[subject] = p
			}
		}
	}
	return true
}

// mustEncode re-encodes a body for hashing purposes. Encode only fails on
// a structurally broken Body, which cannot happen here since p.Body was
// itself produced by a successful Decode.
func mustEncode(b *proof.Body) []byte {
	encoded, err := proof.Encode(b)
	if err != nil {
		panic(fmt.Sprintf("store: re-encoding a previously decoded body: %v", err))
	}
	return encoded
}

// IngestTree walks every *.proof file under root (the layout produced by
// PathFor) and ingests it, one IngestReport per file. A single unreadable
// or malformed file never aborts the walk; its error is folded into that
// file's report.
func (s *Store) IngestTree(root string) ([]*IngestReport, error) {
	var reports []*IngestReport
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".proof") {
			return nil
		}
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			reports = append(reports, &IngestReport{SourceTag: path, Errors: []error{readErr}})
			return nil
		}
		report, ingestErr := s.Ingest(data, path)
		if ingestErr != nil {
			reports = append(reports, &IngestReport{SourceTag: path, Errors: []error{ingestErr}})
			return nil
		}
		reports = append(reports, report)
		return nil
	})
	if err != nil {
		return reports, fmt.Errorf("store: walking proof tree %s: %w", root, err)
	}

	var newCount, invalidCount int
	for _, r := range reports {
		newCount += r.New
		invalidCount += r.Invalid
	}
	s.log().Info("ingested proof tree", "root", root,
		"files", len(reports), "new", newCount, "invalid", invalidCount)
	return reports, nil
}
