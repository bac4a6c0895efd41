package id

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/ed25519"
	"gopkg.in/yaml.v3"
)

// ErrBadPassphrase is returned by Unlock when the AEAD tag does not verify,
// per spec.md §4.2: "successful unlock is indicated solely by AEAD tag
// validation".
var ErrBadPassphrase = errors.New("id: bad passphrase")

const (
	saltSize  = 16
	nonceSize = chacha20poly1305.NonceSize
)

// KDFParams are the Argon2id cost parameters used to derive a symmetric key
// from a passphrase. They travel with the LockedId so a record can be
// upgraded to stronger parameters later without invalidating older ones.
type KDFParams struct {
	Algorithm   string `yaml:"algorithm"`
	Salt        []byte `yaml:"salt"`
	MemoryKiB   uint32 `yaml:"memory_kib"`
	Iterations  uint32 `yaml:"iterations"`
	Parallelism uint8  `yaml:"parallelism"`
}

// DefaultKDFParams returns the parameters used when locking a freshly
// generated identity.
func DefaultKDFParams() (KDFParams, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return KDFParams{}, fmt.Errorf("id: generating KDF salt: %w", err)
	}
	return KDFParams{
		Algorithm:   "argon2id",
		Salt:        salt,
		MemoryKiB:   64 * 1024,
		Iterations:  3,
		Parallelism: 4,
	}, nil
}

func (p KDFParams) deriveKey(passphrase string) ([]byte, error) {
	if p.Algorithm != "argon2id" {
		return nil, fmt.Errorf("id: unsupported KDF algorithm %q", p.Algorithm)
	}
	return argon2.IDKey([]byte(passphrase), p.Salt, p.Iterations, p.MemoryKiB, p.Parallelism, chacha20poly1305.KeySize), nil
}

// LockedId is a passphrase-protected secret key together with the public
// metadata needed to recognize and use it without unlocking: the public Id,
// the author's self-reported proof-repository URL, and the KDF parameters.
type LockedId struct {
	PublicId Id        `yaml:"id"`
	URL      string    `yaml:"url,omitempty"`
	KDF      KDFParams `yaml:"kdf"`
	Nonce    []byte    `yaml:"nonce"`
	Sealed   []byte    `yaml:"sealed_seed"`
}

// Lock encrypts seed under a key derived from passphrase via Argon2id, using
// ChaCha20-Poly1305 AEAD. The resulting LockedId's own public Id is
// recomputed from seed so it can never drift from the key it protects.
func Lock(seed Seed, passphrase, url string, params KDFParams) (*LockedId, error) {
	key, err := params.deriveKey(passphrase)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("id: building AEAD cipher: %w", err)
	}
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("id: generating nonce: %w", err)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)

	sealed := aead.Seal(nil, nonce, seed, nil)
	return &LockedId{
		PublicId: idFromPublicKey(pub),
		URL:      url,
		KDF:      params,
		Nonce:    nonce,
		Sealed:   sealed,
	}, nil
}

// Unlock decrypts the LockedId's seed. It fails with ErrBadPassphrase if the
// AEAD tag does not validate, and refuses to return a seed that would not
// regenerate the advertised public key (spec.md §3 invariant).
func Unlock(l *LockedId, passphrase string) (Seed, error) {
	key, err := l.KDF.deriveKey(passphrase)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("id: building AEAD cipher: %w", err)
	}
	seed, err := aead.Open(nil, l.Nonce, l.Sealed, nil)
	if err != nil {
		return nil, ErrBadPassphrase
	}
	if !Matches(Seed(seed), l.PublicId) {
		return nil, fmt.Errorf("id: %w: unlocked seed does not regenerate %s", ErrBadPassphrase, l.PublicId)
	}
	return Seed(seed), nil
}

// EncodeNonce/EncodeSealed render the nonce and the sealed seed as base64
// URL-safe, unpadded strings. SaveLockedId does not use them: it marshals
// the whole record with yaml.Marshal.
func (l *LockedId) EncodeNonce() string  { return base64.RawURLEncoding.EncodeToString(l.Nonce) }
func (l *LockedId) EncodeSealed() string { return base64.RawURLEncoding.EncodeToString(l.Sealed) }

// SaveLockedId writes l as the structured text record described in
// spec.md §6, "LockedId file": a YAML document at path.
func SaveLockedId(path string, l *LockedId) error {
	data, err := yaml.Marshal(l)
	if err != nil {
		return fmt.Errorf("id: encoding locked id: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("id: writing locked id to %s: %w", path, err)
	}
	return nil
}

// LoadLockedId reads back a record written by SaveLockedId.
func LoadLockedId(path string) (*LockedId, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("id: reading locked id from %s: %w", path, err)
	}
	var l LockedId
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("id: decoding locked id from %s: %w", path, err)
	}
	return &l, nil
}
