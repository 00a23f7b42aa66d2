package prefs

import (
	"fmt"
	"os"
	"path/filepath"

	bolt "go.etcd.io/bbolt"
)

var prefsBucket = []byte("prefs")

// BoltStore is a bbolt-backed Store. Writes are committed synchronously;
// write failures are swallowed per the Store contract so a full disk never
// takes the UI down with it.
type BoltStore struct {
	db *bolt.DB
}

// OpenBolt opens (creating if needed) the preference database at path.
func OpenBolt(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create preference directory: %w", err)
	}
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open preference store: %w", err)
	}
	return &BoltStore{db: db}, nil
}

// Get implements Store.
func (s *BoltStore) Get(key string) (string, bool) {
	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(prefsBucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			out = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil || out == nil {
		return "", false
	}
	return string(out), true
}

// Set implements Store.
func (s *BoltStore) Set(key, value string) {
	_ = s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(prefsBucket)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), []byte(value))
	})
}

// Close releases the underlying database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
