// ABOUTME: Test utilities for creating isolated charm clients
// ABOUTME: Uses in-memory BadgerDB so tests never reach a charm server

package charm

import (
	"testing"

	"github.com/dgraph-io/badger/v3"
)

// badgerKV stands in for charm/kv.KV without server connectivity.
type badgerKV struct {
	db *badger.DB
	// failSync makes Sync return this error, to exercise transport failures
	failSync error
}

func (b *badgerKV) Get(key []byte) ([]byte, error) {
	var result []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		result, err = item.ValueCopy(nil)
		return err
	})
	return result, err
}

func (b *badgerKV) Set(key, value []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

func (b *badgerKV) Delete(key []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

func (b *badgerKV) Keys() ([][]byte, error) {
	var keys [][]byte
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	return keys, err
}

func (b *badgerKV) Sync() error {
	return b.failSync
}

func (b *badgerKV) Reset() error {
	return b.db.DropAll()
}

// Close is a no-op; the test cleanup owns the database.
func (b *badgerKV) Close() error {
	return nil
}

// NewTestClient returns a client over an in-memory BadgerDB that is closed
// when the test finishes. Auto-sync is on so sync failures can be injected.
func NewTestClient(t *testing.T) *Client {
	t.Helper()

	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		t.Fatalf("Failed to open badger: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: failed to close test database: %v", err)
		}
	})

	return &Client{
		kv:     &badgerKV{db: db},
		config: &Config{Host: "localhost", AutoSync: true},
	}
}

// FailSync makes every following sync on a test client fail with err.
func FailSync(c *Client, err error) {
	if b, ok := c.kv.(*badgerKV); ok {
		c.mu.Lock()
		b.failSync = err
		c.mu.Unlock()
	}
}
