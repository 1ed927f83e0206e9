package scene_rank_store_repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Super-Badmen-Viper/songrank/domain/domain_rank/scene_rank_interface"
	"github.com/dgraph-io/badger/v4"
)

type badgerStore struct {
	db *badger.DB
}

// NewBadgerStore db 的生命周期由调用方管理
func NewBadgerStore(db *badger.DB) scene_rank_interface.KeyValueStore {
	return &badgerStore{db: db}
}

func (s *badgerStore) Get(_ context.Context, key string) (string, bool, error) {
	var value string
	found := false

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			value = string(val)
			found = true
			return nil
		})
	})
	if err != nil {
		return "", false, fmt.Errorf("badger get %q: %w", key, err)
	}
	return value, found, nil
}

func (s *badgerStore) Set(_ context.Context, key, value string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("badger set %q: %w", key, err)
	}
	return nil
}

func (s *badgerStore) Remove(_ context.Context, key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("badger delete %q: %w", key, err)
	}
	return nil
}
