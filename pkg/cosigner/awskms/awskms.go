// Package awskms implements a co-signer backed by AWS KMS secp256k1 keys.
// KMS never releases the private key; signatures come back as DER-encoded
// ECDSA and are converted to the recoverable SIG_K1 text format.
package awskms

import (
	"context"
	"crypto/sha256"
	"encoding/asn1"
	"fmt"
	"math/big"
	"os"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awskmssdk "github.com/aws/aws-sdk-go-v2/service/kms"
	kmstypes "github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	decredecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/waxio/cloudwallet-go/pkg/cosigner"
	"github.com/waxio/cloudwallet-go/pkg/keys"
)

// KMSAPI is the subset of the AWS KMS client the signer uses.
type KMSAPI interface {
	GetPublicKey(ctx context.Context, params *awskmssdk.GetPublicKeyInput, optFns ...func(*awskmssdk.Options)) (*awskmssdk.GetPublicKeyOutput, error)
	Sign(ctx context.Context, params *awskmssdk.SignInput, optFns ...func(*awskmssdk.Options)) (*awskmssdk.SignOutput, error)
}

// SignerConfig holds the configuration for the KMS co-signer.
type SignerConfig struct {
	// KeyIDs are the KMS key IDs or aliases to sign with, in order.
	KeyIDs []string
	// Region optionally overrides the AWS region from the environment.
	Region string
	Logger *zap.Logger
}

// Signer signs transaction digests with AWS KMS keys.
type Signer struct {
	kmsClient KMSAPI
	keyIDs    []string
	logger    *zap.Logger

	mu     sync.Mutex
	pubs   []*secp256k1.PublicKey
	pubTxt []string
}

var _ cosigner.Signer = (*Signer)(nil)

// NewSigner creates a co-signer, loading AWS credentials from the default
// chain: the shared config profile when running outside Kubernetes, the
// pod identity otherwise.
func NewSigner(ctx context.Context, config *SignerConfig) (*Signer, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	var options []func(*awsconfig.LoadOptions) error
	if !runningInKubernetes() {
		options = append(options, awsconfig.WithSharedConfigProfile(awsProfile()))
	}
	if config.Region != "" {
		options = append(options, awsconfig.WithRegion(config.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, options...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load AWS config")
	}

	return NewSignerWithClient(awskmssdk.NewFromConfig(awsCfg), config)
}

func runningInKubernetes() bool {
	_, err := os.Stat("/var/run/secrets/kubernetes.io/serviceaccount/token")
	return err == nil
}

func awsProfile() string {
	if profile := os.Getenv("AWS_PROFILE"); profile != "" {
		return profile
	}
	return "default"
}

// NewSignerWithClient creates a co-signer with an explicit KMS client.
func NewSignerWithClient(client KMSAPI, config *SignerConfig) (*Signer, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if client == nil {
		return nil, fmt.Errorf("KMS client is required")
	}
	if len(config.KeyIDs) == 0 {
		return nil, fmt.Errorf("at least one key ID is required")
	}
	if config.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &Signer{
		kmsClient: client,
		keyIDs:    config.KeyIDs,
		logger:    config.Logger,
	}, nil
}

// PublicKeys returns the signing keys in WAX text form, fetching and
// caching them from KMS on first use.
func (s *Signer) PublicKeys(ctx context.Context) ([]string, error) {
	if _, err := s.loadPublicKeys(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.pubTxt))
	copy(out, s.pubTxt)
	return out, nil
}

// Sign signs the transaction digest with every configured key and returns
// the signatures in SIG_K1 text form, one per key.
func (s *Signer) Sign(ctx context.Context, chainID []byte, serializedTransaction []byte) ([]string, error) {
	pubs, err := s.loadPublicKeys(ctx)
	if err != nil {
		return nil, err
	}

	digest := SigningDigest(chainID, serializedTransaction)

	signatures := make([]string, 0, len(s.keyIDs))
	for i, keyID := range s.keyIDs {
		signOutput, err := s.kmsClient.Sign(ctx, &awskmssdk.SignInput{
			KeyId:            aws.String(keyID),
			Message:          digest[:],
			SigningAlgorithm: kmstypes.SigningAlgorithmSpecEcdsaSha256,
			MessageType:      kmstypes.MessageTypeDigest,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "KMS sign failed for key %s", keyID)
		}

		sig, err := SignatureText(signOutput.Signature, digest[:], pubs[i])
		if err != nil {
			return nil, errors.Wrapf(err, "failed to convert KMS signature for key %s", keyID)
		}

		s.logger.Sugar().Debugw("Produced co-signing signature", "keyId", keyID)
		signatures = append(signatures, sig)
	}

	return signatures, nil
}

func (s *Signer) loadPublicKeys(ctx context.Context) ([]*secp256k1.PublicKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pubs != nil {
		return s.pubs, nil
	}

	pubs := make([]*secp256k1.PublicKey, 0, len(s.keyIDs))
	txts := make([]string, 0, len(s.keyIDs))
	for _, keyID := range s.keyIDs {
		res, err := s.kmsClient.GetPublicKey(ctx, &awskmssdk.GetPublicKeyInput{
			KeyId: aws.String(keyID),
		})
		if err != nil {
			return nil, errors.Wrapf(err, "failed to get public key for key %s", keyID)
		}

		pub, err := ParseSPKIPublicKey(res.PublicKey)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse public key for key %s", keyID)
		}

		pubs = append(pubs, pub)
		txts = append(txts, (&keys.PublicKey{Data: pub.SerializeCompressed()}).String())
	}

	s.pubs = pubs
	s.pubTxt = txts
	return pubs, nil
}

// SigningDigest computes the digest signed for a transaction: the chain ID,
// the serialized transaction, and a zeroed context-free data hash.
func SigningDigest(chainID []byte, serializedTransaction []byte) [32]byte {
	h := sha256.New()
	_, _ = h.Write(chainID)
	_, _ = h.Write(serializedTransaction)
	_, _ = h.Write(make([]byte, 32))

	var digest [32]byte
	copy(digest[:], h.Sum(nil))
	return digest
}

// ASN.1 shapes of the KMS public key and signature encodings.
type asn1EcPublicKey struct {
	EcPublicKeyInfo asn1EcPublicKeyInfo
	PublicKey       asn1.BitString
}

type asn1EcPublicKeyInfo struct {
	Algorithm  asn1.ObjectIdentifier
	Parameters asn1.ObjectIdentifier
}

type asn1EcSig struct {
	R asn1.RawValue
	S asn1.RawValue
}

// ParseSPKIPublicKey parses the DER-encoded SubjectPublicKeyInfo returned
// by KMS into a secp256k1 public key.
func ParseSPKIPublicKey(derBytes []byte) (*secp256k1.PublicKey, error) {
	var spki asn1EcPublicKey
	if _, err := asn1.Unmarshal(derBytes, &spki); err != nil {
		return nil, fmt.Errorf("failed to parse ASN.1 public key: %w", err)
	}
	pub, err := secp256k1.ParsePubKey(spki.PublicKey.Bytes)
	if err != nil {
		return nil, fmt.Errorf("invalid curve point: %w", err)
	}
	return pub, nil
}

// SignatureText converts a DER-encoded ECDSA signature over digest into the
// recoverable SIG_K1 text format. The signature is canonicalized to low-S,
// and the recovery ID is found by recovering candidate public keys and
// matching against pub.
func SignatureText(derSig []byte, digest []byte, pub *secp256k1.PublicKey) (string, error) {
	var sigAsn1 asn1EcSig
	if _, err := asn1.Unmarshal(derSig, &sigAsn1); err != nil {
		return "", fmt.Errorf("failed to parse ASN.1 signature: %w", err)
	}

	r := new(big.Int).SetBytes(sigAsn1.R.Bytes)
	s := new(big.Int).SetBytes(sigAsn1.S.Bytes)

	// Low-S canonicalization for malleability protection.
	order := secp256k1.S256().N
	halfOrder := new(big.Int).Rsh(order, 1)
	if s.Cmp(halfOrder) > 0 {
		s = new(big.Int).Sub(order, s)
	}

	rBytes := r.FillBytes(make([]byte, 32))
	sBytes := s.FillBytes(make([]byte, 32))
	expected := pub.SerializeCompressed()

	for recoveryID := byte(0); recoveryID < 4; recoveryID++ {
		compact := make([]byte, 65)
		// 27 marks a recoverable signature, +4 a compressed public key.
		compact[0] = 27 + 4 + recoveryID
		copy(compact[1:33], rBytes)
		copy(compact[33:65], sBytes)

		recovered, _, err := decredecdsa.RecoverCompact(compact, digest)
		if err != nil {
			continue
		}
		if string(recovered.SerializeCompressed()) == string(expected) {
			return keys.FormatSignatureK1(recoveryID, rBytes, sBytes)
		}
	}

	return "", fmt.Errorf("could not determine valid recovery ID")
}
