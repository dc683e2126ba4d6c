// Package session holds the authenticated wallet identity and the current
// auto-signing whitelist. State changes arrive exclusively from login and
// signing responses and are last-write-wins; the whitelist is always
// replaced wholesale, never merged with its previous value.
package session

import (
	"sync"

	"github.com/waxio/cloudwallet-go/pkg/types"
)

// Manager is the thread-safe holder of session state.
type Manager struct {
	mu sync.RWMutex

	accountName string
	publicKeys  []string
	whitelist   []types.WhitelistEntry
}

// NewManager creates an empty, unauthenticated session.
func NewManager() *Manager {
	return &Manager{}
}

// SetIdentity records the authenticated account and its public keys.
func (m *Manager) SetIdentity(accountName string, publicKeys []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.accountName = accountName
	m.publicKeys = append([]string(nil), publicKeys...)
}

// ReplaceWhitelist installs the whitelist from the most recent login or
// signing response, superseding the previous one entirely. A nil argument
// installs an empty whitelist.
func (m *Manager) ReplaceWhitelist(entries []types.WhitelistEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.whitelist = make([]types.WhitelistEntry, 0, len(entries))
	for _, e := range entries {
		m.whitelist = append(m.whitelist, types.WhitelistEntry{
			Contract:   e.Contract,
			Recipients: append([]string(nil), e.Recipients...),
		})
	}
}

// ClearWhitelist forcibly empties the whitelist. Called before falling back
// to interactive confirmation after an auto-signing endpoint failure, so a
// compromised or unreachable endpoint cannot leave stale trust in place.
func (m *Manager) ClearWhitelist() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.whitelist = []types.WhitelistEntry{}
}

// Account returns the authenticated account name, empty before login.
func (m *Manager) Account() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.accountName
}

// Authenticated reports whether a login has completed.
func (m *Manager) Authenticated() bool {
	return m.Account() != ""
}

// PublicKeys returns a copy of the wallet's own public keys.
func (m *Manager) PublicKeys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]string(nil), m.publicKeys...)
}

// Whitelist returns a copy of the current whitelist snapshot.
func (m *Manager) Whitelist() []types.WhitelistEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]types.WhitelistEntry, 0, len(m.whitelist))
	for _, e := range m.whitelist {
		out = append(out, types.WhitelistEntry{
			Contract:   e.Contract,
			Recipients: append([]string(nil), e.Recipients...),
		})
	}
	return out
}
