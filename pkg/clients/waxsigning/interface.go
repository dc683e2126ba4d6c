package waxsigning

import (
	"context"
	"net/http"

	"github.com/waxio/cloudwallet-go/pkg/types"
)

// IWaxSigning defines the interface for the wallet backend's silent login
// and signing endpoints. It abstracts the HTTP client so routers and the
// session bootstrapper can be tested against fakes.
type IWaxSigning interface {
	// SetHttpClient allows setting a custom HTTP client.
	// Useful for testing or custom transport configuration.
	SetHttpClient(client *http.Client)

	// Login performs the credentialed auto-login request. The returned
	// payload is shape-identical to the login window's message.
	Login(ctx context.Context) (*types.LoginResponse, error)

	// Sign submits a serialized transaction for unattended signing.
	// waxPaysBandwidth asks the backend to cover resource cost.
	Sign(ctx context.Context, serializedTransaction []byte, waxPaysBandwidth bool) (*types.SigningResponse, error)
}

// Compile-time check to ensure Client implements IWaxSigning
var _ IWaxSigning = (*Client)(nil)
