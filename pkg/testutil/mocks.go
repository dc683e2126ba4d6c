// Package testutil provides scripted fakes for the wallet's injected
// collaborators: the confirmation-window bridge, the transaction decoder,
// the co-signer, and the backend endpoint client.
package testutil

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/waxio/cloudwallet-go/pkg/bridge"
	"github.com/waxio/cloudwallet-go/pkg/clients/waxsigning"
	"github.com/waxio/cloudwallet-go/pkg/types"
	"github.com/waxio/cloudwallet-go/pkg/whitelist"
)

// MockWindow records posted payloads and replays scripted messages.
type MockWindow struct {
	mu       sync.Mutex
	posted   []any
	messages []types.WalletMessage
	closed   bool
}

var _ bridge.Window = (*MockWindow)(nil)

// NewMockWindow creates a window that will deliver the given messages, in
// order, one per Await call.
func NewMockWindow(messages ...types.WalletMessage) *MockWindow {
	return &MockWindow{messages: messages}
}

func (w *MockWindow) Post(_ context.Context, payload any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return fmt.Errorf("window is closed")
	}
	w.posted = append(w.posted, payload)
	return nil
}

func (w *MockWindow) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

// Posted returns the payloads delivered into the window so far.
func (w *MockWindow) Posted() []any {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]any, len(w.posted))
	copy(out, w.posted)
	return out
}

// Closed reports whether the window has been dismissed.
func (w *MockWindow) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

func (w *MockWindow) next() (types.WalletMessage, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return types.WalletMessage{}, fmt.Errorf("window is closed")
	}
	if len(w.messages) == 0 {
		return types.WalletMessage{}, fmt.Errorf("no scripted messages left")
	}
	msg := w.messages[0]
	w.messages = w.messages[1:]
	return msg, nil
}

// MockBridge implements bridge.Opener over scripted MockWindows.
type MockBridge struct {
	mu      sync.Mutex
	windows []*MockWindow
	opened  []string
	openErr error
}

var _ bridge.Opener = (*MockBridge)(nil)

// NewMockBridge creates a bridge that hands out the given windows, in
// order, one per Open call.
func NewMockBridge(windows ...*MockWindow) *MockBridge {
	return &MockBridge{windows: windows}
}

// FailOpens makes every subsequent Open call return err.
func (b *MockBridge) FailOpens(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.openErr = err
}

func (b *MockBridge) Open(_ context.Context, url string, payload any) (bridge.Window, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.openErr != nil {
		return nil, b.openErr
	}
	b.opened = append(b.opened, url)
	if len(b.windows) == 0 {
		return nil, fmt.Errorf("no scripted windows left")
	}
	w := b.windows[0]
	b.windows = b.windows[1:]
	if payload != nil {
		if err := w.Post(context.Background(), payload); err != nil {
			return nil, err
		}
	}
	return w, nil
}

func (b *MockBridge) Await(_ context.Context, w bridge.Window) (types.WalletMessage, error) {
	mw, ok := w.(*MockWindow)
	if !ok {
		return types.WalletMessage{}, fmt.Errorf("unexpected window type %T", w)
	}
	return mw.next()
}

// OpenedURLs returns the URLs passed to Open so far.
func (b *MockBridge) OpenedURLs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.opened))
	copy(out, b.opened)
	return out
}

// MockDecoder implements whitelist.TransactionDecoder with fixed output.
type MockDecoder struct {
	Actions []types.Action
	Err     error
}

var _ whitelist.TransactionDecoder = (*MockDecoder)(nil)

func (d *MockDecoder) DecodeTransaction(_ context.Context, _ []byte) ([]types.Action, error) {
	if d.Err != nil {
		return nil, d.Err
	}
	return d.Actions, nil
}

// MockCosigner returns fixed keys and signatures.
type MockCosigner struct {
	Keys       []string
	KeysErr    error
	Signatures []string
	SignErr    error

	mu        sync.Mutex
	signedTxs [][]byte
}

func (c *MockCosigner) PublicKeys(_ context.Context) ([]string, error) {
	if c.KeysErr != nil {
		return nil, c.KeysErr
	}
	return c.Keys, nil
}

func (c *MockCosigner) Sign(_ context.Context, _ []byte, serializedTransaction []byte) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SignErr != nil {
		return nil, c.SignErr
	}
	tx := make([]byte, len(serializedTransaction))
	copy(tx, serializedTransaction)
	c.signedTxs = append(c.signedTxs, tx)
	return c.Signatures, nil
}

// SignedTransactions returns the serialized transactions the co-signer was
// asked to sign.
func (c *MockCosigner) SignedTransactions() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.signedTxs))
	copy(out, c.signedTxs)
	return out
}

// MockEndpoint implements waxsigning.IWaxSigning with scripted responses.
type MockEndpoint struct {
	LoginResponse *types.LoginResponse
	LoginErr      error
	SignResponse  *types.SigningResponse
	SignErr       error

	mu         sync.Mutex
	loginCalls int
	signCalls  int
}

var _ waxsigning.IWaxSigning = (*MockEndpoint)(nil)

func (e *MockEndpoint) SetHttpClient(_ *http.Client) {}

func (e *MockEndpoint) Login(_ context.Context) (*types.LoginResponse, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loginCalls++
	if e.LoginErr != nil {
		return nil, e.LoginErr
	}
	return e.LoginResponse, nil
}

func (e *MockEndpoint) Sign(_ context.Context, _ []byte, _ bool) (*types.SigningResponse, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.signCalls++
	if e.SignErr != nil {
		return nil, e.SignErr
	}
	return e.SignResponse, nil
}

// LoginCalls returns how many times Login was invoked.
func (e *MockEndpoint) LoginCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loginCalls
}

// SignCalls returns how many times Sign was invoked.
func (e *MockEndpoint) SignCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.signCalls
}
