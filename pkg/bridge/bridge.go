// Package bridge defines the ports through which the wallet reaches its
// user-facing confirmation surface. The browser original opened popup
// windows and exchanged origin-checked postMessage events; embedders supply
// an equivalent here, and tests supply scripted fakes.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/waxio/cloudwallet-go/pkg/types"
)

// Window is a handle to one open confirmation surface.
type Window interface {
	// Post delivers a payload into the surface.
	Post(ctx context.Context, payload any) error

	// Close dismisses the surface. Closing while a wait is pending makes
	// the wait fail.
	Close() error
}

// Opener opens confirmation surfaces and awaits their messages.
type Opener interface {
	// Open creates a surface at url. A non-nil payload is delivered once
	// the surface is ready to receive it.
	Open(ctx context.Context, url string, payload any) (Window, error)

	// Await blocks until the surface delivers its next qualifying message
	// (origin checks are the implementation's responsibility), or the
	// context is done, or the surface is closed.
	Await(ctx context.Context, w Window) (types.WalletMessage, error)
}

// DecodeMessage validates a raw wallet payload into the tagged union. The
// login window sends its payload without a type field, so a typeless
// payload carrying login fields is tagged as a login message. Kinds the
// decoder does not recognize are passed through with only Kind and Raw set;
// rejecting them is the state machine's call.
func DecodeMessage(raw []byte) (types.WalletMessage, error) {
	msg := types.WalletMessage{Raw: json.RawMessage(raw)}

	var envelope struct {
		Type        types.MessageKind `json:"type"`
		Verified    *bool             `json:"verified"`
		UserAccount *string           `json:"userAccount"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return msg, fmt.Errorf("malformed wallet message: %w", err)
	}

	switch envelope.Type {
	case types.MessageKindReady:
		msg.Kind = types.MessageKindReady
		return msg, nil

	case types.MessageKindTransactionSigned:
		var signed types.SigningResponse
		if err := json.Unmarshal(raw, &signed); err != nil {
			return msg, fmt.Errorf("malformed %s payload: %w", types.MessageKindTransactionSigned, err)
		}
		msg.Kind = types.MessageKindTransactionSigned
		msg.Signed = &signed
		return msg, nil

	case "":
		if envelope.Verified != nil || envelope.UserAccount != nil {
			var login types.LoginResponse
			if err := json.Unmarshal(raw, &login); err != nil {
				return msg, fmt.Errorf("malformed login payload: %w", err)
			}
			msg.Kind = types.MessageKindLogin
			msg.Login = &login
			return msg, nil
		}
		return msg, nil

	default:
		msg.Kind = envelope.Type
		return msg, nil
	}
}
