package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// ============== 接口定义 ==============

type Database interface {
	Collection(string) Collection
}

type Collection interface {
	FindOne(context.Context, interface{}) SingleResult
	DeleteMany(context.Context, interface{}) (int64, error)
	Aggregate(context.Context, interface{}) (Cursor, error)
	UpdateOne(context.Context, interface{}, interface{}, ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	Indexes() IndexView
}

type SingleResult interface {
	Decode(interface{}) error
}

type Cursor interface {
	Close(context.Context) error
	Next(context.Context) bool
	Decode(interface{}) error
	// Err Next 返回 false 后区分正常结束与 getMore 失败
	Err() error
}

type Client interface {
	Database(string) Database
	Connect(context.Context) error
	Disconnect(context.Context) error
	Ping(context.Context) error
}

type IndexView interface {
	CreateOne(ctx context.Context, model mongo.IndexModel) (string, error)
	ListSpecifications(ctx context.Context) ([]*mongo.IndexSpecification, error)
}

// ============== 驱动适配 ==============

type mongoClient struct{ cl *mongo.Client }
type mongoDatabase struct{ db *mongo.Database }
type mongoCollection struct{ coll *mongo.Collection }
type mongoSingleResult struct{ sr *mongo.SingleResult }
type mongoCursor struct{ mc *mongo.Cursor }
type mongoIndexView struct{ iv mongo.IndexView }

func (mc *mongoClient) Ping(ctx context.Context) error {
	return mc.cl.Ping(ctx, readpref.Primary())
}

func (mc *mongoClient) Database(dbName string) Database {
	return &mongoDatabase{db: mc.cl.Database(dbName)}
}

func (mc *mongoClient) Connect(ctx context.Context) error {
	return mc.cl.Connect(ctx)
}

func (mc *mongoClient) Disconnect(ctx context.Context) error {
	return mc.cl.Disconnect(ctx)
}

func (md *mongoDatabase) Collection(colName string) Collection {
	return &mongoCollection{coll: md.db.Collection(colName)}
}

func (mc *mongoCollection) FindOne(ctx context.Context, filter interface{}) SingleResult {
	return &mongoSingleResult{sr: mc.coll.FindOne(ctx, filter)}
}

func (mc *mongoCollection) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return mc.coll.UpdateOne(ctx, filter, update, opts...)
}

func (mc *mongoCollection) DeleteMany(ctx context.Context, filter interface{}) (int64, error) {
	res, err := mc.coll.DeleteMany(ctx, filter)
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (mc *mongoCollection) Aggregate(ctx context.Context, pipeline interface{}) (Cursor, error) {
	cursor, err := mc.coll.Aggregate(ctx, pipeline)
	return &mongoCursor{mc: cursor}, err
}

func (mc *mongoCollection) Indexes() IndexView {
	return &mongoIndexView{iv: mc.coll.Indexes()}
}

func (sr *mongoSingleResult) Decode(v interface{}) error {
	return sr.sr.Decode(v)
}

func (mr *mongoCursor) Close(ctx context.Context) error {
	return mr.mc.Close(ctx)
}

func (mr *mongoCursor) Next(ctx context.Context) bool {
	return mr.mc.Next(ctx)
}

func (mr *mongoCursor) Decode(v interface{}) error {
	return mr.mc.Decode(v)
}

func (mr *mongoCursor) Err() error {
	return mr.mc.Err()
}

func (miv *mongoIndexView) CreateOne(ctx context.Context, model mongo.IndexModel) (string, error) {
	return miv.iv.CreateOne(ctx, model)
}

func (miv *mongoIndexView) ListSpecifications(ctx context.Context) ([]*mongo.IndexSpecification, error) {
	return miv.iv.ListSpecifications(ctx)
}

// ============== 客户端初始化 ==============

func NewClient(connection string) (Client, error) {
	time.Local = time.UTC
	c, err := mongo.NewClient(options.Client().ApplyURI(connection))
	return &mongoClient{cl: c}, err
}
