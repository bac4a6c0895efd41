package id

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestLockUnlockRoundTrips(t *testing.T) {
	publicId, seed, err := Generate()
	if err != nil {
		t.Fatal(err)
	}
	params, err := DefaultKDFParams()
	if err != nil {
		t.Fatal(err)
	}
	locked, err := Lock(seed, "correct horse battery staple", "https://example.com/proofs", params)
	if err != nil {
		t.Fatal(err)
	}
	if locked.PublicId != publicId {
		t.Fatalf("locked.PublicId = %q, want %q", locked.PublicId, publicId)
	}

	unlocked, err := Unlock(locked, "correct horse battery staple")
	if err != nil {
		t.Fatal(err)
	}
	if !Matches(unlocked, publicId) {
		t.Error("unlocked seed does not match the original identity")
	}
}

func TestUnlockRejectsWrongPassphrase(t *testing.T) {
	_, seed, err := Generate()
	if err != nil {
		t.Fatal(err)
	}
	params, err := DefaultKDFParams()
	if err != nil {
		t.Fatal(err)
	}
	locked, err := Lock(seed, "right", "", params)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Unlock(locked, "wrong"); !errors.Is(err, ErrBadPassphrase) {
		t.Fatalf("expected ErrBadPassphrase, got %v", err)
	}
}

func TestSaveLoadLockedIdRoundTrips(t *testing.T) {
	_, seed, err := Generate()
	if err != nil {
		t.Fatal(err)
	}
	params, err := DefaultKDFParams()
	if err != nil {
		t.Fatal(err)
	}
	locked, err := Lock(seed, "hunter2", "https://example.com", params)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "id.yaml")
	if err := SaveLockedId(path, locked); err != nil {
		t.Fatal(err)
	}
	reloaded, err := LoadLockedId(path)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.PublicId != locked.PublicId {
		t.Errorf("PublicId = %q, want %q", reloaded.PublicId, locked.PublicId)
	}
	seedBack, err := Unlock(reloaded, "hunter2")
	if err != nil {
		t.Fatal(err)
	}
	if !Matches(seedBack, locked.PublicId) {
		t.Error("reloaded LockedId unlocked to a seed that does not match")
	}
}
