package domain

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// BaseRepository 通用Repository接口
// T: 实体类型，必须包含ID字段
type BaseRepository[T any] interface {
	// 写操作
	UpsertOne(ctx context.Context, filter interface{}, set bson.M) error
	DeleteMany(ctx context.Context, filter interface{}) (int64, error)

	// 查询操作
	GetOneByFilter(ctx context.Context, filter interface{}) (*T, error)
	Aggregate(ctx context.Context, pipeline interface{}) ([]*T, error)

	// MongoDB原生操作支持
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
}
