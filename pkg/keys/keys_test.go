package keys

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Well-known Antelope example key.
const legacyKey = "EOS6MRyAjQq8ud7hVNYcfnVPJqcVpscN5So8BhtHuGYqET5GDW5CV"

func TestParsePublicKey_Legacy(t *testing.T) {
	k, err := ParsePublicKey(legacyKey)
	require.NoError(t, err)
	assert.True(t, k.Legacy)
	assert.Len(t, k.Data, 33)
	assert.Equal(t, legacyKey, k.LegacyString())
}

func TestParsePublicKey_K1RoundTrip(t *testing.T) {
	legacy, err := ParsePublicKey(legacyKey)
	require.NoError(t, err)

	modern := legacy.String()
	assert.Contains(t, modern, PublicKeyK1Prefix)

	parsed, err := ParsePublicKey(modern)
	require.NoError(t, err)
	assert.False(t, parsed.Legacy)
	assert.True(t, bytes.Equal(legacy.Data, parsed.Data))
}

func TestParsePublicKey_Errors(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{name: "empty", key: ""},
		{name: "unknown prefix", key: "PUB_R1_6MRyAjQq8ud7hVNYcfnVPJqcVpscN5So8BhtHuGYqET5GDW5CV"},
		{name: "corrupted checksum", key: legacyKey[:len(legacyKey)-1] + "W"},
		{name: "truncated payload", key: "EOS6MRyAjQq8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePublicKey(tt.key)
			require.Error(t, err)
		})
	}
}

func TestValidatePublicKeys(t *testing.T) {
	require.NoError(t, ValidatePublicKeys([]string{legacyKey}))
	require.NoError(t, ValidatePublicKeys(nil))

	err := ValidatePublicKeys([]string{legacyKey, "not-a-key"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "public key 1")
}

func TestFormatSignatureK1_RoundTrip(t *testing.T) {
	r := bytes.Repeat([]byte{0x11}, 32)
	s := bytes.Repeat([]byte{0x22}, 32)

	text, err := FormatSignatureK1(1, r, s)
	require.NoError(t, err)
	assert.Contains(t, text, SignatureK1Prefix)

	raw, err := ParseSignatureK1(text)
	require.NoError(t, err)
	require.Len(t, raw, 65)
	assert.Equal(t, byte(27+4+1), raw[0])
	assert.Equal(t, r, raw[1:33])
	assert.Equal(t, s, raw[33:])
}

func TestFormatSignatureK1_Errors(t *testing.T) {
	_, err := FormatSignatureK1(0, []byte{1}, bytes.Repeat([]byte{0}, 32))
	require.Error(t, err)

	_, err = FormatSignatureK1(4, bytes.Repeat([]byte{0}, 32), bytes.Repeat([]byte{0}, 32))
	require.Error(t, err)
}
