package proof

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// MalformedProof is returned by Decode when the body does not parse as a
// structured document at all.
type MalformedProof struct {
	Err error
}

func (e *MalformedProof) Error() string { return fmt.Sprintf("proof: malformed body: %v", e.Err) }
func (e *MalformedProof) Unwrap() error { return e.Err }

// Encode serializes a Body to canonical bytes: deterministic field order
// (struct declaration order, per gopkg.in/yaml.v3 semantics), with unknown
// fields merged back in from Extra. This is the exact byte sequence a
// signature covers (spec.md §3, §4.1).
func Encode(b *Body) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(b); err != nil {
		return nil, fmt.Errorf("proof: encoding body: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("proof: encoding body: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses canonical bytes into a Body. Fields this implementation
// does not recognize are kept verbatim in Body.Extra so that Encode can
// reproduce them (spec.md §8 invariant 3).
func Decode(data []byte) (*Body, error) {
	// CRLF is normalized on decode only; encoding always produces LF
	// (spec.md §4.1 edge cases).
	normalized := bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))

	var b Body
	if err := yaml.Unmarshal(normalized, &b); err != nil {
		return nil, &MalformedProof{Err: err}
	}
	return &b, nil
}
