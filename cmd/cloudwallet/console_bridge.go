package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/waxio/cloudwallet-go/pkg/bridge"
	"github.com/waxio/cloudwallet-go/pkg/types"
	"github.com/waxio/cloudwallet-go/pkg/whitelist"
)

// consoleBridge drives wallet windows over a terminal: opening a window
// prints its URL, posts print the payload, and Await reads one JSON line
// from stdin and runs it through the same boundary validation a real
// bridge would.
type consoleBridge struct {
	mu  sync.Mutex
	in  *bufio.Scanner
	out io.Writer
}

var _ bridge.Opener = (*consoleBridge)(nil)

func newConsoleBridge(in io.Reader, out io.Writer) *consoleBridge {
	return &consoleBridge{in: bufio.NewScanner(in), out: out}
}

type consoleWindow struct {
	parent *consoleBridge
	closed bool
}

var _ bridge.Window = (*consoleWindow)(nil)

func (b *consoleBridge) Open(ctx context.Context, url string, payload any) (bridge.Window, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fmt.Fprintf(b.out, "Open %s in the wallet.\n", url)
	w := &consoleWindow{parent: b}
	if payload != nil {
		if err := w.post(payload); err != nil {
			return nil, err
		}
	}
	return w, nil
}

func (b *consoleBridge) Await(ctx context.Context, w bridge.Window) (types.WalletMessage, error) {
	cw, ok := w.(*consoleWindow)
	if !ok {
		return types.WalletMessage{}, fmt.Errorf("unexpected window type %T", w)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if cw.closed {
		return types.WalletMessage{}, fmt.Errorf("window is closed")
	}

	fmt.Fprint(b.out, "Paste the wallet's JSON reply: ")
	if !b.in.Scan() {
		if err := b.in.Err(); err != nil {
			return types.WalletMessage{}, err
		}
		return types.WalletMessage{}, io.EOF
	}
	return bridge.DecodeMessage(b.in.Bytes())
}

func (w *consoleWindow) Post(ctx context.Context, payload any) error {
	w.parent.mu.Lock()
	defer w.parent.mu.Unlock()
	if w.closed {
		return fmt.Errorf("window is closed")
	}
	return w.post(payload)
}

// post requires the parent's lock.
func (w *consoleWindow) post(payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	fmt.Fprintf(w.parent.out, "-> %s\n", data)
	return nil
}

func (w *consoleWindow) Close() error {
	w.parent.mu.Lock()
	defer w.parent.mu.Unlock()
	w.closed = true
	return nil
}

// opaqueDecoder never deserializes; every transaction goes through user
// confirmation.
type opaqueDecoder struct{}

var _ whitelist.TransactionDecoder = opaqueDecoder{}

func (opaqueDecoder) DecodeTransaction(_ context.Context, _ []byte) ([]types.Action, error) {
	return nil, fmt.Errorf("no transaction decoder configured")
}
