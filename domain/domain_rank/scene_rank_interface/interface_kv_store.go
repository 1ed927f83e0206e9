package scene_rank_interface

import "context"

// KeyValueStore 扁平键值存储，键不存在时 ok 为 false 且 err 为 nil
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
