package wallet

import (
	"errors"
	"fmt"
)

// ErrLoginDeclined is returned when the login window reports an unverified
// result, meaning the user dismissed or rejected the login.
var ErrLoginDeclined = errors.New("user declined the login request")

// ErrNoBlockchainAccount is returned when a verified login carries no
// account name or no public keys, which happens for wallet accounts that
// have not finished blockchain account creation.
var ErrNoBlockchainAccount = errors.New("wallet account has no blockchain account yet")

// LoginEndpointError reports a failed auto-login attempt against the
// backend endpoint. It wraps the underlying cause.
type LoginEndpointError struct {
	Err error
}

func (e *LoginEndpointError) Error() string {
	return fmt.Sprintf("auto-login endpoint failed: %v", e.Err)
}

func (e *LoginEndpointError) Unwrap() error {
	return e.Err
}
