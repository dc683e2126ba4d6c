// Package wallet is the entry point of the library: it bootstraps a wallet
// session over the configured login paths and intercepts transactions to
// route them through auto-signing or user confirmation.
package wallet

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/waxio/cloudwallet-go/pkg/bridge"
	"github.com/waxio/cloudwallet-go/pkg/clients/waxsigning"
	"github.com/waxio/cloudwallet-go/pkg/config"
	"github.com/waxio/cloudwallet-go/pkg/cosigner"
	"github.com/waxio/cloudwallet-go/pkg/keys"
	"github.com/waxio/cloudwallet-go/pkg/persistence"
	"github.com/waxio/cloudwallet-go/pkg/session"
	"github.com/waxio/cloudwallet-go/pkg/signing"
	"github.com/waxio/cloudwallet-go/pkg/types"
	"github.com/waxio/cloudwallet-go/pkg/whitelist"
)

// Deps are the injected collaborators of a Client.
type Deps struct {
	// Bridge opens login and confirmation windows.
	Bridge bridge.Opener
	// Decoder deserializes transactions for whitelist evaluation.
	Decoder whitelist.TransactionDecoder
	// Store persists the user's auto-login preference.
	Store persistence.Store
	// Cosigner optionally contributes bandwidth-covering signatures.
	// ChainID must be set alongside it.
	Cosigner cosigner.Signer
	ChainID  []byte
	// Endpoint overrides the backend client, mainly for tests. When nil a
	// client is built from the configured auto-signing URL.
	Endpoint waxsigning.IWaxSigning
	Logger   *zap.Logger
}

// Client bootstraps and holds one wallet session.
type Client struct {
	cfg       *config.Config
	endpoint  waxsigning.IWaxSigning
	bridge    bridge.Opener
	store     persistence.Store
	session   *session.Manager
	evaluator *whitelist.Evaluator
	router    *signing.Router
	assembler *signing.Assembler
	logger    *zap.Logger

	loginGroup singleflight.Group
}

// New creates a wallet client. When the configuration carries an account
// name and public keys, the session is established directly without any
// network or window interaction.
func New(cfg *config.Config, deps Deps) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if deps.Bridge == nil {
		return nil, fmt.Errorf("bridge is required")
	}
	if deps.Decoder == nil {
		return nil, fmt.Errorf("transaction decoder is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("persistence store is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	endpoint := deps.Endpoint
	if endpoint == nil {
		var err error
		endpoint, err = waxsigning.NewClient(&waxsigning.ClientConfig{
			BaseURL: cfg.WaxAutoSigningURL,
			Logger:  deps.Logger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to build backend client: %w", err)
		}
	}

	evaluator, err := whitelist.NewEvaluator(deps.Decoder, deps.Logger)
	if err != nil {
		return nil, err
	}

	mgr := session.NewManager()

	router, err := signing.NewRouter(&signing.RouterConfig{
		Endpoint:   endpoint,
		Bridge:     deps.Bridge,
		Session:    mgr,
		SigningURL: cfg.SigningURL(),
		Logger:     deps.Logger,
	})
	if err != nil {
		return nil, err
	}

	assembler, err := signing.NewAssembler(&signing.AssemblerConfig{
		Router:   router,
		Session:  mgr,
		Cosigner: deps.Cosigner,
		ChainID:  deps.ChainID,
		Logger:   deps.Logger,
	})
	if err != nil {
		return nil, err
	}

	c := &Client{
		cfg:       cfg,
		endpoint:  endpoint,
		bridge:    deps.Bridge,
		store:     deps.Store,
		session:   mgr,
		evaluator: evaluator,
		router:    router,
		assembler: assembler,
		logger:    deps.Logger,
	}

	if cfg.UserAccount != "" && len(cfg.PubKeys) > 0 {
		// A constructor-supplied identity logs in without any interaction,
		// so the persisted preference is auto-login.
		direct := &types.LoginResponse{
			Verified:    true,
			UserAccount: cfg.UserAccount,
			PubKeys:     cfg.PubKeys,
			AutoLogin:   true,
		}
		if err := c.receiveLogin(context.Background(), direct); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Account returns the logged-in account name, empty before login.
func (c *Client) Account() string {
	return c.session.Account()
}

// IsLoggedIn reports whether a session is established.
func (c *Client) IsLoggedIn() bool {
	return c.session.Authenticated()
}

// AvailableKeys returns the keys a transaction can currently be signed
// with: the session's keys plus the co-signer's.
func (c *Client) AvailableKeys(ctx context.Context) []string {
	return c.assembler.AvailableKeys(ctx)
}

// Login establishes a session. When auto-login is enabled the backend
// endpoint is tried first; if it cannot log the user in silently, the
// interactive login window takes over. Concurrent callers share one
// in-flight attempt.
func (c *Client) Login(ctx context.Context) (string, error) {
	account, err, _ := c.loginGroup.Do("login", func() (any, error) {
		if c.session.Authenticated() {
			return c.session.Account(), nil
		}

		if c.cfg.TryAutoLogin {
			account, err := c.LoginViaEndpoint(ctx)
			if err == nil {
				return account, nil
			}
			c.logger.Sugar().Debugw("Auto-login unavailable, falling back to interactive login",
				"error", err,
			)
		}

		return c.loginInteractive(ctx)
	})
	if err != nil {
		return "", err
	}
	return account.(string), nil
}

// LoginViaEndpoint performs the silent backend login.
func (c *Client) LoginViaEndpoint(ctx context.Context) (string, error) {
	resp, err := c.endpoint.Login(ctx)
	if err != nil {
		return "", &LoginEndpointError{Err: err}
	}
	if err := c.receiveLogin(ctx, resp); err != nil {
		return "", err
	}
	return c.session.Account(), nil
}

// IsAutoLoginAvailable probes the silent login path. On success the session
// is established as a side effect; any failure reports false.
func (c *Client) IsAutoLoginAvailable(ctx context.Context) bool {
	_, err := c.LoginViaEndpoint(ctx)
	return err == nil
}

// loginInteractive opens the login window and waits for its result. READY
// handshakes are consumed; the first login-shaped message resolves the
// attempt.
func (c *Client) loginInteractive(ctx context.Context) (string, error) {
	w, err := c.bridge.Open(ctx, c.cfg.LoginURL(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to open login window: %w", err)
	}
	defer func() { _ = w.Close() }()

	for {
		msg, err := c.bridge.Await(ctx, w)
		if err != nil {
			return "", fmt.Errorf("lost the login window: %w", err)
		}

		switch msg.Kind {
		case types.MessageKindReady:
			continue

		case types.MessageKindLogin:
			if err := c.receiveLogin(ctx, msg.Login); err != nil {
				return "", err
			}
			return c.session.Account(), nil

		default:
			return "", &signing.UnexpectedResponseError{Kind: msg.Kind, Raw: msg.Raw}
		}
	}
}

// receiveLogin is the single convergence point of all login paths. It
// validates the payload, persists the auto-login preference on every
// successful login, and installs the identity and whitelist into the
// session.
func (c *Client) receiveLogin(ctx context.Context, resp *types.LoginResponse) error {
	if resp == nil || !resp.Verified {
		return ErrLoginDeclined
	}
	if resp.UserAccount == "" || len(resp.PubKeys) == 0 {
		return ErrNoBlockchainAccount
	}

	// Malformed keys don't block the login; signing against them fails
	// later with a clearer context.
	if err := keys.ValidatePublicKeys(resp.PubKeys); err != nil {
		c.logger.Sugar().Warnw("Login carried keys that fail validation",
			"userAccount", resp.UserAccount,
			"error", err,
		)
	}

	if err := c.store.SaveAutoLogin(ctx, resp.AutoLogin); err != nil {
		c.logger.Sugar().Warnw("Failed to persist auto-login preference",
			"error", err,
		)
	}

	c.session.SetIdentity(resp.UserAccount, resp.PubKeys)
	c.session.ReplaceWhitelist(resp.WhitelistedContracts)

	c.logger.Sugar().Infow("Wallet session established",
		"userAccount", resp.UserAccount,
		"keys", len(resp.PubKeys),
		"whitelistedContracts", len(resp.WhitelistedContracts),
	)
	return nil
}

// Logout drops the session and clears the persisted auto-login preference.
func (c *Client) Logout(ctx context.Context) error {
	c.session.SetIdentity("", nil)
	c.session.ClearWhitelist()
	if err := c.store.SaveAutoLogin(ctx, false); err != nil {
		return fmt.Errorf("failed to clear auto-login preference: %w", err)
	}
	return nil
}

// Transact signs a transaction under the current session. Whitelisted
// transactions go through the silent endpoint; everything else needs user
// confirmation, for which a window is pre-opened here, while the caller is
// still inside its user gesture, and handed to the router.
func (c *Client) Transact(ctx context.Context, tx types.Transaction) (*types.SignResult, error) {
	if !c.session.Authenticated() {
		return nil, fmt.Errorf("login required before signing")
	}

	autoSign := c.evaluator.CanAutoSign(ctx, tx, c.session.Whitelist())
	if !autoSign {
		w, err := c.bridge.Open(ctx, c.cfg.SigningURL(), nil)
		if err != nil {
			// The router opens its own window if none is stashed; a
			// failed pre-open only loses the popup-blocker dodge.
			c.logger.Sugar().Warnw("Failed to pre-open confirmation window",
				"error", err,
			)
		} else {
			c.router.StashWindow(w)
		}
	}

	return c.assembler.Sign(ctx, tx, autoSign)
}
