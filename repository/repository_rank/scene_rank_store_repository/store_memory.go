package scene_rank_store_repository

import (
	"context"
	"sync"

	"github.com/Super-Badmen-Viper/songrank/domain/domain_rank/scene_rank_interface"
)

type memoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore 进程内存储，重启后丢失，用于测试和本地调试
func NewMemoryStore() scene_rank_interface.KeyValueStore {
	return &memoryStore{values: make(map[string]string)}
}

func (s *memoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	return value, ok, nil
}

func (s *memoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *memoryStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}
