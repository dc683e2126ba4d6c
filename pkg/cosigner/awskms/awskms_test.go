package awskms

import (
	"context"
	"encoding/asn1"
	"math/big"
	"testing"

	awskmssdk "github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	decredecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/waxio/cloudwallet-go/pkg/keys"
)

var (
	oidECPublicKey = asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1}
	oidSecp256k1   = asn1.ObjectIdentifier{1, 3, 132, 0, 10}
)

func spkiDER(t *testing.T, pub *secp256k1.PublicKey) []byte {
	t.Helper()
	uncompressed := pub.SerializeUncompressed()
	der, err := asn1.Marshal(asn1EcPublicKey{
		EcPublicKeyInfo: asn1EcPublicKeyInfo{
			Algorithm:  oidECPublicKey,
			Parameters: oidSecp256k1,
		},
		PublicKey: asn1.BitString{Bytes: uncompressed, BitLength: len(uncompressed) * 8},
	})
	require.NoError(t, err)
	return der
}

// fakeKMS signs with a local key, mimicking the KMS wire encodings.
type fakeKMS struct {
	t         *testing.T
	priv      *secp256k1.PrivateKey
	pubCalls  int
	signCalls int
}

func (f *fakeKMS) GetPublicKey(_ context.Context, _ *awskmssdk.GetPublicKeyInput, _ ...func(*awskmssdk.Options)) (*awskmssdk.GetPublicKeyOutput, error) {
	f.pubCalls++
	return &awskmssdk.GetPublicKeyOutput{PublicKey: spkiDER(f.t, f.priv.PubKey())}, nil
}

func (f *fakeKMS) Sign(_ context.Context, params *awskmssdk.SignInput, _ ...func(*awskmssdk.Options)) (*awskmssdk.SignOutput, error) {
	f.signCalls++
	sig := decredecdsa.Sign(f.priv, params.Message)
	return &awskmssdk.SignOutput{Signature: sig.Serialize()}, nil
}

func newTestSigner(t *testing.T) (*Signer, *fakeKMS) {
	t.Helper()
	priv, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)

	fake := &fakeKMS{t: t, priv: priv}
	signer, err := NewSignerWithClient(fake, &SignerConfig{
		KeyIDs: []string{"alias/wax-cosigner"},
		Logger: zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	return signer, fake
}

func TestNewSignerWithClient_ValidationErrors(t *testing.T) {
	logger := zaptest.NewLogger(t)
	fake := &fakeKMS{t: t}

	tests := []struct {
		name        string
		client      KMSAPI
		config      *SignerConfig
		expectedErr string
	}{
		{
			name:        "nil config",
			client:      fake,
			config:      nil,
			expectedErr: "config cannot be nil",
		},
		{
			name:        "nil client",
			client:      nil,
			config:      &SignerConfig{KeyIDs: []string{"k"}, Logger: logger},
			expectedErr: "KMS client is required",
		},
		{
			name:        "no key IDs",
			client:      fake,
			config:      &SignerConfig{Logger: logger},
			expectedErr: "at least one key ID is required",
		},
		{
			name:        "nil logger",
			client:      fake,
			config:      &SignerConfig{KeyIDs: []string{"k"}},
			expectedErr: "logger is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signer, err := NewSignerWithClient(tt.client, tt.config)
			assert.Nil(t, signer)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedErr)
		})
	}
}

func TestPublicKeys_MatchesLocalKeyAndCaches(t *testing.T) {
	signer, fake := newTestSigner(t)

	pubKeys, err := signer.PublicKeys(context.Background())
	require.NoError(t, err)
	require.Len(t, pubKeys, 1)

	expected := (&keys.PublicKey{Data: fake.priv.PubKey().SerializeCompressed()}).String()
	assert.Equal(t, expected, pubKeys[0])

	_, err = signer.PublicKeys(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, fake.pubCalls)
}

func TestSign_ProducesRecoverableSignature(t *testing.T) {
	signer, fake := newTestSigner(t)

	chainID := make([]byte, 32)
	chainID[0] = 0x42
	serialized := []byte{0xde, 0xad, 0xbe, 0xef}

	sigs, err := signer.Sign(context.Background(), chainID, serialized)
	require.NoError(t, err)
	require.Len(t, sigs, 1)
	assert.Equal(t, 1, fake.signCalls)

	raw, err := keys.ParseSignatureK1(sigs[0])
	require.NoError(t, err)

	digest := SigningDigest(chainID, serialized)
	recovered, _, err := decredecdsa.RecoverCompact(raw, digest[:])
	require.NoError(t, err)
	assert.Equal(t, fake.priv.PubKey().SerializeCompressed(), recovered.SerializeCompressed())
}

func TestSignatureText_CanonicalizesHighS(t *testing.T) {
	priv, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)

	digest := SigningDigest(make([]byte, 32), []byte{1})
	sig := decredecdsa.Sign(priv, digest[:])

	// Re-encode the signature with S flipped above the half order.
	raw, err := keys.ParseSignatureK1(mustText(t, sig.Serialize(), digest[:], priv.PubKey()))
	require.NoError(t, err)
	r := new(big.Int).SetBytes(raw[1:33])
	s := new(big.Int).SetBytes(raw[33:65])
	highS := new(big.Int).Sub(secp256k1.S256().N, s)
	highDER, err := asn1.Marshal(struct{ R, S *big.Int }{r, highS})
	require.NoError(t, err)

	text, err := SignatureText(highDER, digest[:], priv.PubKey())
	require.NoError(t, err)

	rawAgain, err := keys.ParseSignatureK1(text)
	require.NoError(t, err)
	sAgain := new(big.Int).SetBytes(rawAgain[33:65])
	halfOrder := new(big.Int).Rsh(secp256k1.S256().N, 1)
	assert.True(t, sAgain.Cmp(halfOrder) <= 0, "signature S must be canonical")

	recovered, _, err := decredecdsa.RecoverCompact(rawAgain, digest[:])
	require.NoError(t, err)
	assert.Equal(t, priv.PubKey().SerializeCompressed(), recovered.SerializeCompressed())
}

func TestSignatureText_WrongKeyFails(t *testing.T) {
	priv, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)
	other, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)

	digest := SigningDigest(make([]byte, 32), []byte{1})
	sig := decredecdsa.Sign(priv, digest[:])

	_, err = SignatureText(sig.Serialize(), digest[:], other.PubKey())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recovery ID")
}

func mustText(t *testing.T, derSig, digest []byte, pub *secp256k1.PublicKey) string {
	t.Helper()
	text, err := SignatureText(derSig, digest, pub)
	require.NoError(t, err)
	return text
}
