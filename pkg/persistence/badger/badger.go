package badger

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	badgerdb "github.com/dgraph-io/badger/v3"
	"go.uber.org/zap"

	"github.com/waxio/cloudwallet-go/pkg/persistence"
)

// Key prefixes for namespacing
const (
	keyPrefixPreference  = "pref:"
	keySchemaVersion     = "metadata:schema_version"
	currentSchemaVersion = "v1"
)

// BadgerStore is a durable, disk-backed preference store. It is the
// default backend for long-lived host applications that need the
// auto-login preference to survive restarts.
type BadgerStore struct {
	db     *badgerdb.DB
	logger *zap.Logger
	mu     sync.RWMutex
	closed bool
}

// NewBadgerStore opens a Badger-backed store at the given path with
// SyncWrites enabled for durability.
func NewBadgerStore(dataPath string, logger *zap.Logger) (*BadgerStore, error) {
	absPath, err := filepath.Abs(dataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	opts := badgerdb.DefaultOptions(absPath)
	opts.Logger = &badgerLoggerAdapter{logger: logger}
	opts.SyncWrites = true
	opts.CompactL0OnClose = true
	opts.NumVersionsToKeep = 1

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database at %s: %w", absPath, err)
	}

	bs := &BadgerStore{
		db:     db,
		logger: logger,
	}

	if err := bs.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Sugar().Infow("Badger preference store initialized", "path", absPath)
	return bs, nil
}

func (b *BadgerStore) initSchema() error {
	return b.db.Update(func(txn *badgerdb.Txn) error {
		_, err := txn.Get([]byte(keySchemaVersion))
		if err == badgerdb.ErrKeyNotFound {
			return txn.Set([]byte(keySchemaVersion), []byte(currentSchemaVersion))
		}
		return err
	})
}

// SaveAutoLogin records the auto-login preference.
func (b *BadgerStore) SaveAutoLogin(_ context.Context, enabled bool) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return fmt.Errorf("preference store is closed")
	}

	key := []byte(keyPrefixPreference + persistence.KeyAutoLogin)
	err := b.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(key, persistence.EncodeBool(enabled))
	})
	if err != nil {
		return fmt.Errorf("failed to save auto-login preference: %w", err)
	}
	return nil
}

// LoadAutoLogin returns the persisted auto-login preference, false when unset.
func (b *BadgerStore) LoadAutoLogin(_ context.Context) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return false, fmt.Errorf("preference store is closed")
	}

	key := []byte(keyPrefixPreference + persistence.KeyAutoLogin)
	var raw []byte
	err := b.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(key)
		if err == badgerdb.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to load auto-login preference: %w", err)
	}
	if raw == nil {
		return false, nil
	}
	return persistence.DecodeBool(raw)
}

// Close shuts down the store.
func (b *BadgerStore) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	if err := b.db.Close(); err != nil {
		return fmt.Errorf("failed to close badger database: %w", err)
	}
	return nil
}

// HealthCheck verifies the store is operational.
func (b *BadgerStore) HealthCheck(_ context.Context) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return fmt.Errorf("preference store is closed")
	}

	return b.db.View(func(txn *badgerdb.Txn) error {
		_, err := txn.Get([]byte(keySchemaVersion))
		return err
	})
}

var _ persistence.Store = (*BadgerStore)(nil)
