// Package signing routes signing requests between the backend auto-signing
// endpoint and the interactive confirmation window, and assembles the final
// signature set from the wallet and an optional co-signer.
package signing

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/waxio/cloudwallet-go/pkg/bridge"
	"github.com/waxio/cloudwallet-go/pkg/clients/waxsigning"
	"github.com/waxio/cloudwallet-go/pkg/session"
	"github.com/waxio/cloudwallet-go/pkg/types"
)

// RouterConfig holds the collaborators of a Router.
type RouterConfig struct {
	// Endpoint is the backend auto-signing client.
	Endpoint waxsigning.IWaxSigning
	// Bridge opens and talks to confirmation windows.
	Bridge bridge.Opener
	// Session receives whitelist updates carried on signing results.
	Session *session.Manager
	// SigningURL is the confirmation window address.
	SigningURL string
	Logger     *zap.Logger
}

// Router executes one signing request at a time: the auto path goes through
// the backend endpoint and falls back, at most once, to the confirmation
// window; the interactive path goes straight to the window, reusing a
// pre-opened one when available.
type Router struct {
	endpoint   waxsigning.IWaxSigning
	bridge     bridge.Opener
	session    *session.Manager
	signingURL string
	logger     *zap.Logger

	mu      sync.Mutex
	stashed bridge.Window
}

// NewRouter creates a signing router.
func NewRouter(config *RouterConfig) (*Router, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if config.Endpoint == nil {
		return nil, fmt.Errorf("endpoint client is required")
	}
	if config.Bridge == nil {
		return nil, fmt.Errorf("bridge is required")
	}
	if config.Session == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if config.SigningURL == "" {
		return nil, fmt.Errorf("signing URL is required")
	}
	if config.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &Router{
		endpoint:   config.Endpoint,
		bridge:     config.Bridge,
		session:    config.Session,
		signingURL: config.SigningURL,
		logger:     config.Logger,
	}, nil
}

// StashWindow hands the router a pre-opened confirmation window. The next
// interactive signing attempt consumes it instead of opening a fresh one.
func (r *Router) StashWindow(w bridge.Window) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stashed != nil {
		_ = r.stashed.Close()
	}
	r.stashed = w
}

func (r *Router) takeStashed() bridge.Window {
	w := r.stashed
	r.stashed = nil
	return w
}

// Sign executes a signing request. Attempts are serialized: a second caller
// blocks until the first finishes.
func (r *Router) Sign(ctx context.Context, req *types.SigningRequest, autoSign bool) (*types.SignResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	serialized := req.Transaction.Serialized
	if len(serialized) == 0 {
		return nil, fmt.Errorf("signing request carries no serialized transaction")
	}

	if autoSign {
		resp, err := r.endpoint.Sign(ctx, serialized, req.WaxPaysBandwidth)
		if err == nil {
			return r.accept(resp), nil
		}
		// The whitelist that promised this transaction could auto-sign is
		// stale. Wipe it before asking the user.
		r.logger.Sugar().Warnw("Auto-signing endpoint failed, falling back to confirmation",
			"requestId", req.RequestID,
			"error", err,
		)
		r.session.ClearWhitelist()
		return r.confirm(ctx, req, nil)
	}

	return r.confirm(ctx, req, r.takeStashed())
}

// confirm runs the interactive confirmation flow. The prompt is posted as
// soon as the window is available and re-posted whenever the window reports
// READY, so windows that finish loading late still receive it.
func (r *Router) confirm(ctx context.Context, req *types.SigningRequest, w bridge.Window) (*types.SignResult, error) {
	prompt := &types.TransactionPrompt{
		Type:             types.MessageKindTransaction,
		Transaction:      req.Transaction.Serialized,
		WaxPaysBandwidth: req.WaxPaysBandwidth,
		RequestID:        req.RequestID,
	}

	var err error
	if w == nil {
		w, err = r.bridge.Open(ctx, r.signingURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to open confirmation window: %w", err)
		}
	}
	defer func() { _ = w.Close() }()

	if err := w.Post(ctx, prompt); err != nil {
		return nil, fmt.Errorf("failed to post signing prompt: %w", err)
	}

	for {
		msg, err := r.bridge.Await(ctx, w)
		if err != nil {
			return nil, fmt.Errorf("lost the confirmation window: %w", err)
		}

		switch msg.Kind {
		case types.MessageKindReady:
			if err := w.Post(ctx, prompt); err != nil {
				return nil, fmt.Errorf("failed to post signing prompt: %w", err)
			}

		case types.MessageKindTransactionSigned:
			if msg.Signed == nil || !msg.Signed.Verified || msg.Signed.Signatures == nil {
				r.logger.Sugar().Debugw("Signing request declined", "requestId", req.RequestID)
				return nil, ErrSigningDeclined
			}
			return r.accept(msg.Signed), nil

		default:
			return nil, &UnexpectedResponseError{Kind: msg.Kind, Raw: msg.Raw}
		}
	}
}

// accept applies a successful signing response: the whitelist travelling on
// it replaces the session's whitelist, even when empty.
func (r *Router) accept(resp *types.SigningResponse) *types.SignResult {
	r.session.ReplaceWhitelist(resp.WhitelistedContracts)
	return &types.SignResult{
		Signatures:            resp.Signatures,
		SerializedTransaction: resp.SerializedTransaction,
	}
}
