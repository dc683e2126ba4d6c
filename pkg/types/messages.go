package types

import "encoding/json"

// MessageKind tags every message crossing the wallet boundary. Payloads are
// decoded into a tagged union before they enter the login/signing state
// machines; untyped payloads never travel past the bridge.
type MessageKind string

const (
	// MessageKindReady is the handshake the confirmation window sends once
	// its document has loaded. It carries no result.
	MessageKindReady MessageKind = "READY"

	// MessageKindTransaction is the outbound prompt asking the window to
	// confirm and sign a transaction.
	MessageKindTransaction MessageKind = "TRANSACTION"

	// MessageKindTransactionSigned is the window's signing result.
	MessageKindTransactionSigned MessageKind = "TX_SIGNED"

	// MessageKindLogin tags login payloads. The wallet window sends login
	// results without a type field; the bridge synthesizes this kind when
	// the payload has the login shape.
	MessageKindLogin MessageKind = "LOGIN"
)

// LoginResponse is the login payload shared by the backend auto-login
// endpoint and the login window.
type LoginResponse struct {
	Verified             bool             `json:"verified"`
	UserAccount          string           `json:"userAccount"`
	PubKeys              []string         `json:"pubKeys"`
	AutoLogin            bool             `json:"autoLogin"`
	WhitelistedContracts []WhitelistEntry `json:"whitelistedContracts"`
}

// SigningResponse is the TX_SIGNED payload shared by the backend
// auto-signing endpoint and the confirmation window.
type SigningResponse struct {
	Type                  string           `json:"type,omitempty"`
	Verified              bool             `json:"verified"`
	Signatures            []string         `json:"signatures"`
	SerializedTransaction ByteSequence     `json:"serializedTransaction"`
	WhitelistedContracts  []WhitelistEntry `json:"whitelistedContracts"`
}

// TransactionPrompt is posted into the confirmation window to request a
// signature.
type TransactionPrompt struct {
	Type             MessageKind  `json:"type"`
	Transaction      ByteSequence `json:"transaction"`
	WaxPaysBandwidth bool         `json:"waxPaysBW"`
	RequestID        string       `json:"requestId,omitempty"`
}

// WalletMessage is the tagged union produced at the bridge boundary. At most
// one of Login and Signed is set, according to Kind; Raw preserves the
// original payload for diagnostics on unexpected kinds.
type WalletMessage struct {
	Kind   MessageKind
	Login  *LoginResponse
	Signed *SigningResponse
	Raw    json.RawMessage
}
