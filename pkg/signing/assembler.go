package signing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/waxio/cloudwallet-go/pkg/cosigner"
	"github.com/waxio/cloudwallet-go/pkg/session"
	"github.com/waxio/cloudwallet-go/pkg/types"
)

// AssemblerConfig holds the collaborators of an Assembler.
type AssemblerConfig struct {
	Router  *Router
	Session *session.Manager
	// Cosigner optionally contributes bandwidth-covering signatures. When
	// set, ChainID must carry the chain the co-signer signs for.
	Cosigner cosigner.Signer
	ChainID  []byte
	Logger   *zap.Logger
}

// Assembler produces the complete signature set for a transaction: the
// wallet's signatures from the router, plus the co-signer's when one is
// configured.
type Assembler struct {
	router   *Router
	session  *session.Manager
	cosigner cosigner.Signer
	chainID  []byte
	logger   *zap.Logger
}

// NewAssembler creates a signature assembler.
func NewAssembler(config *AssemblerConfig) (*Assembler, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if config.Router == nil {
		return nil, fmt.Errorf("router is required")
	}
	if config.Session == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if config.Cosigner != nil && len(config.ChainID) == 0 {
		return nil, fmt.Errorf("chain ID is required when a co-signer is configured")
	}
	if config.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &Assembler{
		router:   config.Router,
		session:  config.Session,
		cosigner: config.Cosigner,
		chainID:  config.ChainID,
		logger:   config.Logger,
	}, nil
}

// AvailableKeys returns the wallet's session keys plus the co-signer's keys.
// Co-signer enumeration failures are logged and its keys omitted; key
// enumeration itself never fails.
func (a *Assembler) AvailableKeys(ctx context.Context) []string {
	available := a.session.PublicKeys()

	if a.cosigner != nil {
		coKeys, err := a.cosigner.PublicKeys(ctx)
		if err != nil {
			a.logger.Sugar().Warnw("Co-signer key enumeration failed, omitting its keys",
				"error", err,
			)
		} else {
			available = append(available, coKeys...)
		}
	}

	return available
}

// Sign runs a transaction through the router and appends the co-signer's
// signatures. The wallet pays bandwidth exactly when no co-signer is
// configured. The input transaction is never modified: the wallet-signed
// serialized form is passed to the co-signer explicitly, and a fresh result
// is assembled.
func (a *Assembler) Sign(ctx context.Context, tx types.Transaction, autoSign bool) (*types.SignResult, error) {
	req := &types.SigningRequest{
		Transaction:      tx,
		WaxPaysBandwidth: a.cosigner == nil,
		RequestID:        uuid.NewString(),
	}

	walletResult, err := a.router.Sign(ctx, req, autoSign)
	if err != nil {
		return nil, err
	}

	if a.cosigner == nil {
		return walletResult, nil
	}

	coSignatures, err := a.cosigner.Sign(ctx, a.chainID, walletResult.SerializedTransaction)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "co-signing failed")
	}

	combined := make([]string, 0, len(walletResult.Signatures)+len(coSignatures))
	combined = append(combined, walletResult.Signatures...)
	combined = append(combined, coSignatures...)

	return &types.SignResult{
		Signatures:            combined,
		SerializedTransaction: walletResult.SerializedTransaction,
	}, nil
}
