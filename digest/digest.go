// Package digest computes the recursive content digest of a filesystem
// tree, per spec.md §3/§4.3: a content-addressed hash of files, symlinks,
// and directories, independent of anything but the bytes and names
// involved.
package digest

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/crypto/blake2b"
)

// Size is the length in bytes of a digest.
const Size = blake2b.Size256

// tag bytes distinguish entry kinds inside the hash input, as specified in
// spec.md §3.
const (
	tagFile      byte = 0x46 // 'F'
	tagSymlink   byte = 0x53 // 'S'
	tagDirectory byte = 0x44 // 'D'
)

// EntryKind classifies a filesystem entry for the Filter callback.
type EntryKind int

const (
	KindFile EntryKind = iota
	KindDir
	KindSymlink
)

// Filter is consulted for every entry before it is descended into or
// hashed. Returning true excludes the entry (and, for directories, its
// entire subtree) from the digest.
type Filter func(relPath string, kind EntryKind) bool

// IoError wraps a filesystem failure encountered while computing a digest.
// The verification engine treats it as a per-entry soft failure rather than
// aborting the whole run (spec.md §4.3, §7).
type IoError struct {
	Path string
	Err  error
}

func (e *IoError) Error() string { return fmt.Sprintf("digest: %s: %v", e.Path, e.Err) }
func (e *IoError) Unwrap() error { return e.Err }

// EncodeString renders a digest as the base64 URL-safe, unpadded string
// used in proof bodies and on the wire (spec.md §6, "Digest format").
func EncodeString(d []byte) string {
	return base64.RawURLEncoding.EncodeToString(d)
}

// DecodeString parses a digest previously produced by EncodeString.
func DecodeString(s string) ([]byte, error) {
	d, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("digest: malformed digest string %q: %w", s, err)
	}
	return d, nil
}

// Digest computes the recursive content digest of root. filter may be nil,
// meaning nothing is excluded.
func Digest(root string, filter Filter) ([]byte, error) {
	info, err := os.Lstat(root)
	if err != nil {
		return nil, &IoError{Path: root, Err: err}
	}
	return digestEntry(root, "", info, filter)
}

func digestEntry(fullPath, relPath string, info os.FileInfo, filter Filter) ([]byte, error) {
	switch {
	case info.Mode()&os.ModeSymlink != 0:
		return digestSymlink(fullPath)
	case info.IsDir():
		return digestDir(fullPath, relPath, filter)
	default:
		return digestFile(fullPath)
	}
}

func digestFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IoError{Path: path, Err: err}
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return nil, fmt.Errorf("digest: building hasher: %w", err)
	}
	h.Write([]byte{tagFile})
	if _, err := io.Copy(h, f); err != nil {
		return nil, &IoError{Path: path, Err: err}
	}
	return h.Sum(nil), nil
}

func digestSymlink(path string) ([]byte, error) {
	target, err := os.Readlink(path)
	if err != nil {
		return nil, &IoError{Path: path, Err: err}
	}
	h, err := blake2b.New256(nil)
	if err != nil {
		return nil, fmt.Errorf("digest: building hasher: %w", err)
	}
	h.Write([]byte{tagSymlink})
	h.Write([]byte(target))
	return h.Sum(nil), nil
}

func digestDir(fullPath, relPath string, filter Filter) ([]byte, error) {
	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, &IoError{Path: fullPath, Err: err}
	}

	// Sort by raw byte sequence of name, ascending (spec.md §3).
	names := make([]string, 0, len(entries))
	byName := make(map[string]os.DirEntry, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
		byName[e.Name()] = e
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	h, err := blake2b.New256(nil)
	if err != nil {
		return nil, fmt.Errorf("digest: building hasher: %w", err)
	}
	h.Write([]byte{tagDirectory})

	for _, name := range names {
		entry := byName[name]
		childRel := filepath.Join(relPath, name)
		var kind EntryKind
		switch {
		case entry.Type()&os.ModeSymlink != 0:
			kind = KindSymlink
		case entry.IsDir():
			kind = KindDir
		default:
			kind = KindFile
		}
		if filter != nil && filter(childRel, kind) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return nil, &IoError{Path: filepath.Join(fullPath, name), Err: err}
		}
		childDigest, err := digestEntry(filepath.Join(fullPath, name), childRel, info, filter)
		if err != nil {
			return nil, err
		}

		nameHash := blake2b.Sum256([]byte(name))
		h.Write(nameHash[:])
		h.Write(childDigest)
	}

	return h.Sum(nil), nil
}
