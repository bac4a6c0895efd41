// Package repo implements the repository sync adapter (spec.md §4.7):
// cloning, fetching, pulling, committing to, and pushing a proof
// repository's local git working tree, with bounded retry on transient
// network failures and a per-repository file lock guarding concurrent
// writes to the shared clone cache.
package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/gofrs/flock"

	"github.com/crev-dev/crev-go/logging"
)

// SyncTransport wraps a network or git-protocol failure, per spec.md §7.
// Retried transparently by Clone/Fetch/Pull/Push; surfaced once retries are
// exhausted.
type SyncTransport struct {
	Op  string
	URL string
	Err error
}

func (e *SyncTransport) Error() string {
	return fmt.Sprintf("repo: %s %s: %v", e.Op, e.URL, e.Err)
}
func (e *SyncTransport) Unwrap() error { return e.Err }

// AuthFailure marks an authentication failure as terminal: spec.md §4.7
// says it must never be retried.
type AuthFailure struct {
	URL string
	Err error
}

func (e *AuthFailure) Error() string {
	return fmt.Sprintf("repo: authentication failed for %s: %v", e.URL, e.Err)
}
func (e *AuthFailure) Unwrap() error { return e.Err }

// RetryPolicy bounds the backoff applied to transient network errors.
type RetryPolicy struct {
	MaxElapsed time.Duration
}

// DefaultRetryPolicy retries for up to thirty seconds with exponential
// backoff, the default most callers want for a single sync operation.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxElapsed: 30 * time.Second}
}

// Repository is one proof repository's local working tree.
type Repository struct {
	path   string
	policy RetryPolicy
	logger *logging.Logger
}

// Open opens an already-cloned working tree at path.
func Open(path string) (*Repository, error) {
	return &Repository{path: path, policy: DefaultRetryPolicy(), logger: logging.Nop()}, nil
}

// SetLogger attaches l so Fetch, Pull, Push, and Commit report their
// outcome as structured log entries. A Repository logs nowhere until this
// is called; Clone does not log.
func (r *Repository) SetLogger(l *logging.Logger) {
	r.logger = l
}

// Path returns the local working tree path.
func (r *Repository) Path() string { return r.path }

// WithRetryPolicy returns a shallow copy of r using policy instead of the
// default retry bound.
func (r *Repository) WithRetryPolicy(policy RetryPolicy) *Repository {
	clone := *r
	clone.policy = policy
	return &clone
}

// Clone clones url into dest, retrying transient failures with bounded
// backoff (spec.md §4.7).
func Clone(ctx context.Context, url, dest string, policy RetryPolicy) (*Repository, error) {
	op := func() error {
		_, err := git.PlainCloneContext(ctx, dest, false, &git.CloneOptions{URL: url})
		return classify("clone", url, err)
	}
	if err := retry(ctx, policy, op); err != nil {
		return nil, err
	}
	return &Repository{path: dest, policy: policy, logger: logging.Nop()}, nil
}

// Fetch downloads new refs from the working tree's default remote
// ("origin") without updating the working tree. url does not select the
// remote; it only labels errors and log entries.
func (r *Repository) Fetch(ctx context.Context, url string) error {
	repository, err := git.PlainOpen(r.path)
	if err != nil {
		return fmt.Errorf("repo: opening %s: %w", r.path, err)
	}
	op := func() error {
		err := repository.FetchContext(ctx, &git.FetchOptions{})
		if errors.Is(err, git.NoErrAlreadyUpToDate) {
			return nil
		}
		return classify("fetch", url, err)
	}
	err = retry(ctx, r.policy, op)
	if err != nil {
		r.logger.Warn("fetch failed", "url", url, "path", r.path, "err", err)
	} else {
		r.logger.Debug("fetch complete", "url", url, "path", r.path)
	}
	return err
}

// Pull fetches and fast-forwards the working tree from its default remote
// ("origin"). url does not select the remote; it only labels errors and
// log entries.
func (r *Repository) Pull(ctx context.Context, url string) error {
	lock, err := r.lock()
	if err != nil {
		return err
	}
	defer lock.Unlock()

	repository, err := git.PlainOpen(r.path)
	if err != nil {
		return fmt.Errorf("repo: opening %s: %w", r.path, err)
	}
	wt, err := repository.Worktree()
	if err != nil {
		return fmt.Errorf("repo: getting worktree for %s: %w", r.path, err)
	}

	op := func() error {
		err := wt.PullContext(ctx, &git.PullOptions{})
		if errors.Is(err, git.NoErrAlreadyUpToDate) {
			return nil
		}
		return classify("pull", url, err)
	}
	err = retry(ctx, r.policy, op)
	if err != nil {
		r.logger.Warn("pull failed", "url", url, "path", r.path, "err", err)
	} else {
		r.logger.Debug("pull complete", "url", url, "path", r.path)
	}
	return err
}

// Commit stages every change under the working tree and commits it as
// author with message. It does not assume a linear history: callers append
// proofs under salted, per-host filenames (store.Layout) so two hosts
// writing concurrently never touch the same path (spec.md §4.7).
func (r *Repository) Commit(message string, author object.Signature) (plumbing.Hash, error) {
	lock, err := r.lock()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	defer lock.Unlock()

	repository, err := git.PlainOpen(r.path)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("repo: opening %s: %w", r.path, err)
	}
	wt, err := repository.Worktree()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("repo: getting worktree for %s: %w", r.path, err)
	}
	if _, err := wt.Add("."); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("repo: staging changes in %s: %w", r.path, err)
	}

	hash, err := wt.Commit(message, &git.CommitOptions{Author: &author})
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("repo: committing in %s: %w", r.path, err)
	}
	r.logger.Info("committed proof", "path", r.path, "hash", hash.String(), "author", author.Name)
	return hash, nil
}

// Push uploads the current branch to the default remote ("origin"),
// retrying transient failures. url does not select the remote; it only
// labels errors and log entries.
func (r *Repository) Push(ctx context.Context, url string) error {
	repository, err := git.PlainOpen(r.path)
	if err != nil {
		return fmt.Errorf("repo: opening %s: %w", r.path, err)
	}
	op := func() error {
		err := repository.PushContext(ctx, &git.PushOptions{})
		if errors.Is(err, git.NoErrAlreadyUpToDate) {
			return nil
		}
		return classify("push", url, err)
	}
	err = retry(ctx, r.policy, op)
	if err != nil {
		r.logger.Warn("push failed", "url", url, "path", r.path, "err", err)
	} else {
		r.logger.Info("push complete", "url", url, "path", r.path)
	}
	return err
}

// lock acquires the per-repository-root file lock guarding concurrent
// writes to the shared clone cache (spec.md §5, "Shared-resource policy").
func (r *Repository) lock() (*flock.Flock, error) {
	l := flock.New(r.path + ".lock")
	if err := l.Lock(); err != nil {
		return nil, fmt.Errorf("repo: locking %s: %w", r.path, err)
	}
	return l, nil
}

// classify turns a raw go-git/transport error into AuthFailure (terminal)
// or SyncTransport (retryable), matching spec.md §4.7: "reports
// authentication failure as a terminal error."
func classify(op, url string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, transport.ErrAuthenticationRequired) || errors.Is(err, transport.ErrAuthorizationFailed) {
		return backoff.Permanent(&AuthFailure{URL: url, Err: err})
	}
	return &SyncTransport{Op: op, URL: url, Err: err}
}

// retry runs op with policy's bounded exponential backoff. An error
// wrapped in backoff.Permanent (as classify does for auth failures) stops
// retrying immediately.
func retry(ctx context.Context, policy RetryPolicy, op func() error) error {
	eb := backoff.NewExponentialBackOff()
	eb.MaxElapsedTime = policy.MaxElapsed
	return backoff.Retry(op, backoff.WithContext(eb, ctx))
}
