package proof

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"
)

// RawEnvelope is one armored proof as it appears on the wire: a kind name
// (uppercase, e.g. "TRUST", "PACKAGE REVIEW", or an unrecognized future
// kind), the exact canonical body bytes the signature covers, and the
// detached signature bytes. Kinds this implementation does not interpret
// still unwrap into a RawEnvelope, so they pass through ingestion instead
// of being rejected here (spec.md §3, §6).
type RawEnvelope struct {
	Kind      string
	Body      []byte
	Signature []byte
}

func beginMarker(kind string) string { return "-----BEGIN CREV " + kind + "-----" }
func sigMarker(kind string) string   { return "-----BEGIN CREV " + kind + " SIGNATURE-----" }
func endMarker(kind string) string   { return "-----END CREV " + kind + "-----" }

// Wrap renders one armored envelope for a proof of the given kind.
func Wrap(kind string, body, signature []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString(beginMarker(kind))
	buf.WriteByte('\n')
	buf.Write(body)
	if len(body) == 0 || body[len(body)-1] != '\n' {
		buf.WriteByte('\n')
	}
	buf.WriteString(sigMarker(kind))
	buf.WriteByte('\n')
	buf.WriteString(base64.RawURLEncoding.EncodeToString(signature))
	buf.WriteByte('\n')
	buf.WriteString(endMarker(kind))
	buf.WriteByte('\n')
	return buf.Bytes()
}

// Unwrap splits a stream of concatenated armored envelopes into individual
// RawEnvelopes, in order. It rejects envelopes with trailing data inside
// the signature block (spec.md §4.1 edge cases).
func Unwrap(stream []byte) ([]RawEnvelope, error) {
	normalized := bytes.ReplaceAll(stream, []byte("\r\n"), []byte("\n"))
	scanner := bufio.NewScanner(bytes.NewReader(normalized))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var envelopes []RawEnvelope
	var line string
	advance := func() bool {
		if !scanner.Scan() {
			return false
		}
		line = scanner.Text()
		return true
	}

	for advance() {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		kind, ok := parseBegin(trimmed)
		if !ok {
			return nil, fmt.Errorf("proof: expected envelope begin marker, got %q", trimmed)
		}

		var bodyLines []string
		wantSig := sigMarker(kind)
		for {
			if !advance() {
				return nil, fmt.Errorf("proof: unterminated envelope for kind %q (missing signature marker)", kind)
			}
			if strings.TrimSpace(line) == wantSig {
				break
			}
			bodyLines = append(bodyLines, line)
		}

		var sigLines []string
		wantEnd := endMarker(kind)
		for {
			if !advance() {
				return nil, fmt.Errorf("proof: unterminated envelope for kind %q (missing end marker)", kind)
			}
			if strings.TrimSpace(line) == wantEnd {
				break
			}
			sigLines = append(sigLines, line)
		}
		if len(sigLines) != 1 {
			return nil, fmt.Errorf("proof: envelope for kind %q has trailing data in its signature block", kind)
		}
		sig, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(sigLines[0]))
		if err != nil {
			return nil, fmt.Errorf("proof: envelope for kind %q has a malformed signature: %w", kind, err)
		}

		envelopes = append(envelopes, RawEnvelope{
			Kind:      kind,
			Body:      []byte(strings.Join(bodyLines, "\n") + "\n"),
			Signature: sig,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("proof: scanning envelope stream: %w", err)
	}
	return envelopes, nil
}

func parseBegin(line string) (kind string, ok bool) {
	const prefix = "-----BEGIN CREV "
	const suffix = "-----"
	if !strings.HasPrefix(line, prefix) || !strings.HasSuffix(line, suffix) {
		return "", false
	}
	kind = line[len(prefix) : len(line)-len(suffix)]
	if kind == "" || strings.HasSuffix(kind, " SIGNATURE") {
		return "", false
	}
	return kind, true
}
