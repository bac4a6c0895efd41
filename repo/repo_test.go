package repo

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
)

func initRepo(t *testing.T) *Repository {
	t.Helper()
	dir := t.TempDir()
	if _, err := git.PlainInit(dir, false); err != nil {
		t.Fatal(err)
	}
	r, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestCommitProducesNonZeroHash(t *testing.T) {
	r := initRepo(t)
	if err := os.WriteFile(filepath.Join(r.Path(), "a.proof"), []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	hash, err := r.Commit("add a.proof", object.Signature{Name: "tester", Email: "tester@example.com", When: time.Now()})
	if err != nil {
		t.Fatal(err)
	}
	if hash.IsZero() {
		t.Error("expected a non-zero commit hash")
	}
}

func TestCommitTwiceDoesNotConflict(t *testing.T) {
	r := initRepo(t)
	for i, name := range []string{"host-a.proof", "host-b.proof"} {
		if err := os.WriteFile(filepath.Join(r.Path(), name), []byte("entry"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := r.Commit("add "+name, object.Signature{Name: "tester", Email: "t@example.com", When: time.Now()}); err != nil {
			t.Fatalf("commit %d: %v", i, err)
		}
	}
}

func TestClassifyMarksAuthFailureAsPermanent(t *testing.T) {
	err := classify("push", "https://example.com/repo.git", transport.ErrAuthenticationRequired)
	var perm *backoff.PermanentError
	if !errors.As(err, &perm) {
		t.Fatalf("expected a permanent (non-retryable) error, got %v (%T)", err, err)
	}
	var af *AuthFailure
	if !errors.As(err, &af) {
		t.Errorf("expected the wrapped error to be an AuthFailure, got %T", errors.Unwrap(err))
	}
}

func TestClassifyMarksOtherErrorsAsTransient(t *testing.T) {
	err := classify("fetch", "https://example.com/repo.git", errors.New("connection reset"))
	var st *SyncTransport
	if !errors.As(err, &st) {
		t.Fatalf("expected a SyncTransport error, got %T", err)
	}
}
