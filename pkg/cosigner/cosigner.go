// Package cosigner defines the interface for services that contribute
// additional signatures to a transaction, typically to cover bandwidth
// for accounts the application sponsors.
package cosigner

import "context"

// Signer produces co-signing signatures for a serialized transaction.
type Signer interface {
	// PublicKeys returns the signing keys the co-signer controls, in
	// WAX text form.
	PublicKeys(ctx context.Context) ([]string, error)

	// Sign signs the serialized transaction for the given chain and
	// returns the resulting signatures in SIG_K1 text form.
	Sign(ctx context.Context, chainID []byte, serializedTransaction []byte) ([]string, error)
}
