// Package whitelist decides whether a transaction may be signed without
// user confirmation. The decision is security relevant: a wrong match here
// silently auto-signs an action the user never approved, so matching is
// strict and every failure mode falls back to "needs confirmation".
package whitelist

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/waxio/cloudwallet-go/pkg/types"
)

// Token transfers are matched against the entry's recipient list as well
// as its contract.
const (
	tokenContract  = "eosio.token"
	transferAction = "transfer"
)

// TransactionDecoder deserializes an opaque transaction into its actions.
// Implementations typically wrap a chain RPC/ABI library; tests inject
// fakes.
type TransactionDecoder interface {
	DecodeTransaction(ctx context.Context, serialized []byte) ([]types.Action, error)
}

// IsWhitelisted reports whether a single action is covered by the
// user-approved rules. A rule matches when its contract equals the
// action's contract account; token transfers additionally require the
// transfer destination to be listed among the rule's recipients.
func IsWhitelisted(action types.Action, wl []types.WhitelistEntry) bool {
	for _, entry := range wl {
		if entry.Contract != action.Account {
			continue
		}
		if action.Account == tokenContract && action.Name == transferAction {
			to, ok := action.Data["to"].(string)
			if !ok {
				// Cannot verify the recipient; deny rather than guess.
				continue
			}
			for _, recipient := range entry.Recipients {
				if recipient == to {
					return true
				}
			}
			continue
		}
		return true
	}
	return false
}

// Evaluator answers the auto-sign question for whole transactions,
// decoding opaque ones through the injected decoder.
type Evaluator struct {
	decoder TransactionDecoder
	logger  *zap.Logger
}

// NewEvaluator creates an evaluator with dependency injection.
func NewEvaluator(decoder TransactionDecoder, logger *zap.Logger) (*Evaluator, error) {
	if decoder == nil {
		return nil, fmt.Errorf("transaction decoder is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Evaluator{decoder: decoder, logger: logger}, nil
}

// CanAutoSign reports whether every action in the transaction is covered
// by the whitelist. An empty action list auto-signs trivially. Decode
// failures answer false: the transaction then goes through interactive
// confirmation, never silently through the endpoint.
func (e *Evaluator) CanAutoSign(ctx context.Context, tx types.Transaction, wl []types.WhitelistEntry) bool {
	actions := tx.Actions
	if tx.NeedsDecoding() {
		decoded, err := e.decoder.DecodeTransaction(ctx, tx.Serialized)
		if err != nil {
			e.logger.Sugar().Debugw("Failed to decode transaction for whitelist check, requiring confirmation",
				"error", err,
			)
			return false
		}
		actions = decoded
	}

	for _, action := range actions {
		if !IsWhitelisted(action, wl) {
			return false
		}
	}
	return true
}
