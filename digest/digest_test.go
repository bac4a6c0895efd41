package digest

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDigestStableUnderRename(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "hello")
	writeFile(t, filepath.Join(dir, "sub", "b.txt"), "world")

	d1, err := Digest(dir, nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := os.Rename(filepath.Join(dir, "a.txt"), filepath.Join(dir, "z.txt")); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(filepath.Join(dir, "z.txt"), filepath.Join(dir, "a.txt")); err != nil {
		t.Fatal(err)
	}

	d2, err := Digest(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(d1, d2) {
		t.Error("digest changed after a non-semantic rename round trip")
	}
}

func TestDigestChangesOnByteChange(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "hello")
	d1, err := Digest(dir, nil)
	if err != nil {
		t.Fatal(err)
	}

	writeFile(t, filepath.Join(dir, "a.txt"), "hellp")
	d2, err := Digest(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(d1, d2) {
		t.Error("digest did not change after a single byte flip")
	}
}

func TestDigestPathKindInjectivity(t *testing.T) {
	fileDir := t.TempDir()
	writeFile(t, filepath.Join(fileDir, "f"), "X")
	fileDigest, err := Digest(fileDir, nil)
	if err != nil {
		t.Fatal(err)
	}

	linkDir := t.TempDir()
	if err := os.Symlink("X", filepath.Join(linkDir, "f")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	linkDigest, err := Digest(linkDir, nil)
	if err != nil {
		t.Fatal(err)
	}

	if bytes.Equal(fileDigest, linkDigest) {
		t.Error("a file and a symlink with the same content hash identically")
	}
}

func TestFilterPrunesSubtree(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "keep.txt"), "keep")
	writeFile(t, filepath.Join(dir, "target", "bin"), "built artifact")

	withTarget, err := Digest(dir, nil)
	if err != nil {
		t.Fatal(err)
	}

	filtered, err := Digest(dir, func(rel string, kind EntryKind) bool {
		return rel == "target"
	})
	if err != nil {
		t.Fatal(err)
	}

	if bytes.Equal(withTarget, filtered) {
		t.Error("filtered digest should differ once target/ is pruned")
	}

	// Removing the ignored subtree entirely should now match the filtered digest.
	if err := os.RemoveAll(filepath.Join(dir, "target")); err != nil {
		t.Fatal(err)
	}
	withoutTarget, err := Digest(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(filtered, withoutTarget) {
		t.Error("filtering a subtree should match physically removing it")
	}
}

func TestDigestIoErrorOnMissingRoot(t *testing.T) {
	_, err := Digest(filepath.Join(t.TempDir(), "does-not-exist"), nil)
	if err == nil {
		t.Fatal("expected an error for a missing root")
	}
	var ioErr *IoError
	if !errors.As(err, &ioErr) {
		t.Errorf("expected *IoError, got %T", err)
	}
}
