package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// BadgerStore is an on-disk Store so cached responses survive restarts.
type BadgerStore struct {
	db  *badger.DB
	ttl time.Duration
}

// NewBadgerStore opens (or creates) a Badger database in dir.
func NewBadgerStore(dir string, ttl time.Duration) (*BadgerStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("badger cache dir is not configured")
	}
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open badger %s: %w", dir, err)
	}
	return NewBadgerStoreFromDB(db, ttl), nil
}

// NewBadgerStoreFromDB wraps an open database.
func NewBadgerStoreFromDB(db *badger.DB, ttl time.Duration) *BadgerStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &BadgerStore{db: db, ttl: ttl}
}

func (s *BadgerStore) Name() string { return "badger" }

func (s *BadgerStore) Get(_ context.Context, key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get %s: %w", key, err)
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	recordLookup("badger", err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *BadgerStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.ttl
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(key), value).WithTTL(ttl))
	})
}

func (s *BadgerStore) Delete(_ context.Context, key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(key)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return nil
	})
}

func (s *BadgerStore) Close() error { return s.db.Close() }
