package scene_rank_store_repository

import (
	"context"
	"fmt"

	"github.com/Super-Badmen-Viper/songrank/domain/domain_rank/scene_rank_interface"
	bolt "go.etcd.io/bbolt"
)

// BoltBucket 所有键都写在同一个 bucket 中
var BoltBucket = []byte("songrank")

type boltStore struct {
	db *bolt.DB
}

// NewBoltStore 确保 bucket 存在，db 的生命周期由调用方管理
func NewBoltStore(db *bolt.DB) (scene_rank_interface.KeyValueStore, error) {
	err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(BoltBucket)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create bolt bucket: %w", err)
	}
	return &boltStore{db: db}, nil
}

func (s *boltStore) Get(_ context.Context, key string) (string, bool, error) {
	var value string
	found := false

	err := s.db.View(func(tx *bolt.Tx) error {
		// bolt 返回的切片只在事务内有效，必须复制
		if val := tx.Bucket(BoltBucket).Get([]byte(key)); val != nil {
			value = string(val)
			found = true
		}
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("bolt get %q: %w", key, err)
	}
	return value, found, nil
}

func (s *boltStore) Set(_ context.Context, key, value string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(BoltBucket).Put([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("bolt put %q: %w", key, err)
	}
	return nil
}

func (s *boltStore) Remove(_ context.Context, key string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(BoltBucket).Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("bolt delete %q: %w", key, err)
	}
	return nil
}
