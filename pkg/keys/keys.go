package keys

import (
	"bytes"
	"fmt"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // antelope key checksums are ripemd160 by definition
)

// WAX uses the Antelope text formats for keys and signatures: a base58
// payload carrying the raw bytes plus a 4-byte ripemd160 checksum. The
// modern format suffixes the checksum input with the curve tag ("K1");
// the legacy "EOS" format does not.
const (
	PublicKeyK1Prefix     = "PUB_K1_"
	PublicKeyLegacyPrefix = "EOS"
	SignatureK1Prefix     = "SIG_K1_"

	curveTagK1 = "K1"

	compressedPointLen = 33
	checksumLen        = 4
	signatureLen       = 65
)

// PublicKey is a parsed secp256k1 public key in compressed form.
type PublicKey struct {
	// Data is the 33-byte compressed curve point.
	Data []byte
	// Legacy records whether the key was parsed from the legacy EOS format.
	Legacy bool
}

func checksum(data []byte, tag string) []byte {
	h := ripemd160.New()
	_, _ = h.Write(data)
	if tag != "" {
		_, _ = h.Write([]byte(tag))
	}
	return h.Sum(nil)[:checksumLen]
}

func decodeChecked(encoded, tag string, payloadLen int) ([]byte, error) {
	raw, err := base58.Decode(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid base58: %w", err)
	}
	if len(raw) != payloadLen+checksumLen {
		return nil, fmt.Errorf("unexpected payload length %d, want %d", len(raw), payloadLen+checksumLen)
	}
	payload := raw[:payloadLen]
	if !bytes.Equal(checksum(payload, tag), raw[payloadLen:]) {
		return nil, fmt.Errorf("checksum mismatch")
	}
	return payload, nil
}

func encodeChecked(payload []byte, tag string) string {
	buf := make([]byte, 0, len(payload)+checksumLen)
	buf = append(buf, payload...)
	buf = append(buf, checksum(payload, tag)...)
	return base58.Encode(buf)
}

// ParsePublicKey parses a WAX public key in either the PUB_K1_ or the
// legacy EOS text format, verifying the checksum.
func ParsePublicKey(s string) (*PublicKey, error) {
	switch {
	case len(s) > len(PublicKeyK1Prefix) && s[:len(PublicKeyK1Prefix)] == PublicKeyK1Prefix:
		data, err := decodeChecked(s[len(PublicKeyK1Prefix):], curveTagK1, compressedPointLen)
		if err != nil {
			return nil, fmt.Errorf("invalid %s key: %w", PublicKeyK1Prefix, err)
		}
		return &PublicKey{Data: data}, nil

	case len(s) > len(PublicKeyLegacyPrefix) && s[:len(PublicKeyLegacyPrefix)] == PublicKeyLegacyPrefix:
		data, err := decodeChecked(s[len(PublicKeyLegacyPrefix):], "", compressedPointLen)
		if err != nil {
			return nil, fmt.Errorf("invalid legacy key: %w", err)
		}
		return &PublicKey{Data: data, Legacy: true}, nil

	default:
		return nil, fmt.Errorf("unrecognized public key prefix in %q", s)
	}
}

// String renders the key in the modern PUB_K1_ format.
func (k *PublicKey) String() string {
	return PublicKeyK1Prefix + encodeChecked(k.Data, curveTagK1)
}

// LegacyString renders the key in the legacy EOS format.
func (k *PublicKey) LegacyString() string {
	return PublicKeyLegacyPrefix + encodeChecked(k.Data, "")
}

// ValidatePublicKeys parses every key and reports the first invalid one.
func ValidatePublicKeys(pubKeys []string) error {
	for i, s := range pubKeys {
		if _, err := ParsePublicKey(s); err != nil {
			return fmt.Errorf("public key %d (%q): %w", i, s, err)
		}
	}
	return nil
}

// FormatSignatureK1 renders a recoverable secp256k1 signature in the
// SIG_K1_ text format. r and s must be 32 bytes each; recoveryID is the
// raw recovery index (0-3).
func FormatSignatureK1(recoveryID byte, r, s []byte) (string, error) {
	if len(r) != 32 || len(s) != 32 {
		return "", fmt.Errorf("r and s must be 32 bytes, got %d and %d", len(r), len(s))
	}
	if recoveryID > 3 {
		return "", fmt.Errorf("recovery ID %d out of range", recoveryID)
	}

	sig := make([]byte, 0, signatureLen)
	// 27 marks a recoverable signature, +4 marks a compressed public key.
	sig = append(sig, 27+4+recoveryID)
	sig = append(sig, r...)
	sig = append(sig, s...)

	return SignatureK1Prefix + encodeChecked(sig, curveTagK1), nil
}

// ParseSignatureK1 decodes a SIG_K1_ signature back into its 65 raw bytes
// (header, r, s), verifying the checksum.
func ParseSignatureK1(s string) ([]byte, error) {
	if len(s) <= len(SignatureK1Prefix) || s[:len(SignatureK1Prefix)] != SignatureK1Prefix {
		return nil, fmt.Errorf("unrecognized signature prefix in %q", s)
	}
	sig, err := decodeChecked(s[len(SignatureK1Prefix):], curveTagK1, signatureLen)
	if err != nil {
		return nil, fmt.Errorf("invalid %s signature: %w", SignatureK1Prefix, err)
	}
	return sig, nil
}
