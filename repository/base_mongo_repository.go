package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Super-Badmen-Viper/songrank/domain"
	"github.com/Super-Badmen-Viper/songrank/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	driver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// BaseMongoRepository MongoDB通用Repository实现
type BaseMongoRepository[T any] struct {
	db         mongo.Database
	collection string
}

// NewBaseMongoRepository 创建新的MongoDB Repository实例
func NewBaseMongoRepository[T any](db mongo.Database, collection string) domain.BaseRepository[T] {
	return &BaseMongoRepository[T]{
		db:         db,
		collection: collection,
	}
}

// UpsertOne 按过滤条件更新，不存在时插入，统一写入 updated_at
func (r *BaseMongoRepository[T]) UpsertOne(ctx context.Context, filter interface{}, set bson.M) error {
	if set == nil {
		return errors.New("update cannot be nil")
	}
	set["updated_at"] = primitive.NewDateTimeFromTime(time.Now())

	opts := options.Update().SetUpsert(true)
	if _, err := r.UpdateOne(ctx, filter, bson.M{"$set": set}, opts); err != nil {
		return fmt.Errorf("failed to update or insert entity: %w", err)
	}
	return nil
}

// DeleteMany 批量删除
func (r *BaseMongoRepository[T]) DeleteMany(ctx context.Context, filter interface{}) (int64, error) {
	coll := r.db.Collection(r.collection)
	deletedCount, err := coll.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to delete entities: %w", err)
	}

	return deletedCount, nil
}

// GetOneByFilter 根据过滤条件获取单个实体
func (r *BaseMongoRepository[T]) GetOneByFilter(ctx context.Context, filter interface{}) (*T, error) {
	coll := r.db.Collection(r.collection)
	var entity T
	err := coll.FindOne(ctx, filter).Decode(&entity)
	if err != nil {
		if errors.Is(err, driver.ErrNoDocuments) {
			return nil, nil // 没找到返回nil，不是错误
		}
		return nil, fmt.Errorf("failed to find entity: %w", err)
	}

	return &entity, nil
}

// Aggregate 执行聚合管道，结果按 T 解码
func (r *BaseMongoRepository[T]) Aggregate(ctx context.Context, pipeline interface{}) ([]*T, error) {
	coll := r.db.Collection(r.collection)
	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	defer cursor.Close(ctx)

	return decodeAll[T](ctx, cursor)
}

// UpdateOne 原生更新
func (r *BaseMongoRepository[T]) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*driver.UpdateResult, error) {
	coll := r.db.Collection(r.collection)
	return coll.UpdateOne(ctx, filter, update, opts...)
}

func decodeAll[T any](ctx context.Context, cursor mongo.Cursor) ([]*T, error) {
	var entities []*T
	for cursor.Next(ctx) {
		var entity T
		if err := cursor.Decode(&entity); err != nil {
			return nil, fmt.Errorf("failed to decode entity: %w", err)
		}
		entities = append(entities, &entity)
	}
	// Next 为 false 也可能是 getMore 失败，此时结果不完整
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor iteration failed: %w", err)
	}
	return entities, nil
}
