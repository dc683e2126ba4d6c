package signing

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/waxio/cloudwallet-go/pkg/types"
)

// ErrSigningDeclined is returned when the confirmation window reports a
// result that is unverified or carries no signatures.
var ErrSigningDeclined = errors.New("user declined the signing request")

// UnexpectedResponseError reports a wallet message of a kind the signing
// flow cannot interpret. Raw preserves the payload for diagnostics.
type UnexpectedResponseError struct {
	Kind types.MessageKind
	Raw  json.RawMessage
}

func (e *UnexpectedResponseError) Error() string {
	return fmt.Sprintf("unexpected wallet response of kind %q", e.Kind)
}
