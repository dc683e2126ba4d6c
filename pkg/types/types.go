package types

// WhitelistEntry is a single user-approved auto-signing rule: a contract
// account, plus an optional recipient restriction that only applies to
// token transfers.
type WhitelistEntry struct {
	Contract   string   `json:"contract"`
	Recipients []string `json:"recipients,omitempty"`
}

// Action is one deserialized blockchain action. Data carries the decoded
// action payload; only the "to" field of token transfers is inspected by
// the whitelist evaluator.
type Action struct {
	Account string         `json:"account"`
	Name    string         `json:"name"`
	Data    map[string]any `json:"data"`
}

// Transaction is either already deserialized (Actions set) or an opaque
// serialized form that needs an external decode before inspection.
type Transaction struct {
	Actions    []Action
	Serialized ByteSequence
}

// NeedsDecoding reports whether the transaction must be deserialized
// before its actions can be inspected. A transaction constructed with an
// explicit (possibly empty) action list never needs decoding.
func (t Transaction) NeedsDecoding() bool {
	return t.Actions == nil && len(t.Serialized) > 0
}

// SigningRequest is the unit of work handed to the signing router.
// Routers and assemblers treat it as read-only.
type SigningRequest struct {
	Transaction Transaction
	// WaxPaysBandwidth asks the backend to cover resource cost. It is set
	// when no external co-signer is configured.
	WaxPaysBandwidth bool
	// RequestID correlates a signing attempt across logs and bridge messages.
	RequestID string
}

// SignResult is the outcome of a successful signing round-trip.
type SignResult struct {
	Signatures            []string
	SerializedTransaction ByteSequence
}

// Session holds the authenticated identity and the current auto-signing
// whitelist.
type Session struct {
	AccountName string
	PublicKeys  []string
	Whitelist   []WhitelistEntry
}
