package scene_rank_store_repository

import (
	"context"
	"fmt"

	"github.com/Super-Badmen-Viper/songrank/domain"
	"github.com/Super-Badmen-Viper/songrank/domain/domain_rank/scene_rank_interface"
	"github.com/Super-Badmen-Viper/songrank/domain/domain_rank/scene_rank_models"
	"github.com/Super-Badmen-Viper/songrank/mongo"
	"github.com/Super-Badmen-Viper/songrank/repository"
	"go.mongodb.org/mongo-driver/bson"
)

type mongoStore struct {
	repo domain.BaseRepository[scene_rank_models.KVEntry]
}

// NewMongoStore 每个键一条文档，key 字段上有唯一索引
func NewMongoStore(db mongo.Database, collection string) scene_rank_interface.KeyValueStore {
	return &mongoStore{
		repo: repository.NewBaseMongoRepository[scene_rank_models.KVEntry](db, collection),
	}
}

func (s *mongoStore) Get(ctx context.Context, key string) (string, bool, error) {
	entry, err := s.repo.GetOneByFilter(ctx, bson.M{"key": key})
	if err != nil {
		return "", false, fmt.Errorf("mongo get %q: %w", key, err)
	}
	if entry == nil {
		return "", false, nil
	}
	return entry.Value, true, nil
}

func (s *mongoStore) Set(ctx context.Context, key, value string) error {
	if err := s.repo.UpsertOne(ctx, bson.M{"key": key}, bson.M{"key": key, "value": value}); err != nil {
		return fmt.Errorf("mongo set %q: %w", key, err)
	}
	return nil
}

func (s *mongoStore) Remove(ctx context.Context, key string) error {
	if _, err := s.repo.DeleteMany(ctx, bson.M{"key": key}); err != nil {
		return fmt.Errorf("mongo delete %q: %w", key, err)
	}
	return nil
}
