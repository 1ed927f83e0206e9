// Package mongotest 内存版 mongo.Database，供仓储层单元测试使用。
// 只支持本项目用到的操作：按字段相等过滤、$set 更新（可 upsert）、
// 预置结果的聚合和索引记录。
package mongotest

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/Super-Badmen-Viper/songrank/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	driver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrUnsupported = errors.New("mongotest: unsupported operation")

type Database struct {
	mu          sync.Mutex
	collections map[string]*Collection
}

func NewDatabase() *Database {
	return &Database{collections: make(map[string]*Collection)}
}

func (d *Database) Collection(name string) mongo.Collection {
	return d.Coll(name)
}

// Coll 返回具体类型，便于测试预置数据或检查结果
func (d *Database) Coll(name string) *Collection {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.collections[name]
	if !ok {
		c = &Collection{}
		d.collections[name] = c
	}
	return c
}

type Collection struct {
	mu        sync.Mutex
	docs      []bson.M
	indexes   []*driver.IndexSpecification
	pipelines []interface{}

	// AggregateResults 聚合返回的文档，管道本身不执行
	AggregateResults []bson.M
	// AggregateErr 不为 nil 时 Aggregate 直接失败
	AggregateErr error
	// CursorErr 游标遍历完 AggregateResults 后由 Err() 返回
	CursorErr error
}

// Insert 预置文档
func (c *Collection) Insert(docs ...bson.M) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, doc := range docs {
		c.docs = append(c.docs, copyDoc(doc))
	}
}

func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.docs)
}

func (c *Collection) Documents() []bson.M {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]bson.M, 0, len(c.docs))
	for _, doc := range c.docs {
		out = append(out, copyDoc(doc))
	}
	return out
}

// Pipelines 每次 Aggregate 收到的管道
func (c *Collection) Pipelines() []interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]interface{}(nil), c.pipelines...)
}

func (c *Collection) FindOne(_ context.Context, filter interface{}) mongo.SingleResult {
	f, err := asM(filter)
	if err != nil {
		return &singleResult{err: err}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, doc := range c.docs {
		if matches(doc, f) {
			return &singleResult{doc: copyDoc(doc)}
		}
	}
	return &singleResult{err: driver.ErrNoDocuments}
}

func (c *Collection) DeleteMany(_ context.Context, filter interface{}) (int64, error) {
	f, err := asM(filter)
	if err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.docs[:0]
	var deleted int64
	for _, doc := range c.docs {
		if matches(doc, f) {
			deleted++
			continue
		}
		kept = append(kept, doc)
	}
	c.docs = kept
	return deleted, nil
}

func (c *Collection) UpdateOne(_ context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*driver.UpdateResult, error) {
	f, err := asM(filter)
	if err != nil {
		return nil, err
	}
	u, err := asM(update)
	if err != nil {
		return nil, err
	}
	set, ok := u["$set"].(bson.M)
	if !ok || len(u) != 1 {
		return nil, fmt.Errorf("%w: only $set updates", ErrUnsupported)
	}
	upsert := false
	for _, opt := range opts {
		if opt != nil && opt.Upsert != nil {
			upsert = *opt.Upsert
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, doc := range c.docs {
		if matches(doc, f) {
			for k, v := range set {
				doc[k] = v
			}
			return &driver.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
		}
	}
	if !upsert {
		return &driver.UpdateResult{}, nil
	}

	id := primitive.NewObjectID()
	doc := bson.M{"_id": id}
	for k, v := range f {
		doc[k] = v
	}
	for k, v := range set {
		doc[k] = v
	}
	c.docs = append(c.docs, doc)
	return &driver.UpdateResult{UpsertedCount: 1, UpsertedID: id}, nil
}

func (c *Collection) Aggregate(_ context.Context, pipeline interface{}) (mongo.Cursor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pipelines = append(c.pipelines, pipeline)
	if c.AggregateErr != nil {
		return nil, c.AggregateErr
	}
	docs := make([]bson.M, 0, len(c.AggregateResults))
	for _, doc := range c.AggregateResults {
		docs = append(docs, copyDoc(doc))
	}
	return &cursor{docs: docs, index: -1, err: c.CursorErr}, nil
}

func (c *Collection) Indexes() mongo.IndexView {
	return &indexView{c: c}
}

type singleResult struct {
	doc bson.M
	err error
}

func (r *singleResult) Decode(v interface{}) error {
	if r.err != nil {
		return r.err
	}
	return decode(r.doc, v)
}

type cursor struct {
	docs  []bson.M
	index int
	err   error
}

func (c *cursor) Close(context.Context) error { return nil }

func (c *cursor) Next(context.Context) bool {
	if c.index+1 >= len(c.docs) {
		return false
	}
	c.index++
	return true
}

func (c *cursor) Decode(v interface{}) error {
	if c.index < 0 || c.index >= len(c.docs) {
		return fmt.Errorf("%w: decode without a current document", ErrUnsupported)
	}
	return decode(c.docs[c.index], v)
}

func (c *cursor) Err() error {
	if c.index+1 < len(c.docs) {
		return nil
	}
	return c.err
}

type indexView struct {
	c *Collection
}

func (iv *indexView) CreateOne(_ context.Context, model driver.IndexModel) (string, error) {
	spec := &driver.IndexSpecification{}
	if model.Options != nil {
		if model.Options.Name != nil {
			spec.Name = *model.Options.Name
		}
		spec.Unique = model.Options.Unique
	}
	iv.c.mu.Lock()
	defer iv.c.mu.Unlock()
	iv.c.indexes = append(iv.c.indexes, spec)
	return spec.Name, nil
}

func (iv *indexView) ListSpecifications(context.Context) ([]*driver.IndexSpecification, error) {
	iv.c.mu.Lock()
	defer iv.c.mu.Unlock()
	return append([]*driver.IndexSpecification(nil), iv.c.indexes...), nil
}

func asM(v interface{}) (bson.M, error) {
	m, ok := v.(bson.M)
	if !ok {
		return nil, fmt.Errorf("%w: expected bson.M, got %T", ErrUnsupported, v)
	}
	return m, nil
}

func matches(doc, filter bson.M) bool {
	for k, v := range filter {
		if !reflect.DeepEqual(doc[k], v) {
			return false
		}
	}
	return true
}

func copyDoc(doc bson.M) bson.M {
	out := make(bson.M, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}

// decode 经 BSON 编解码写入目标结构，与驱动的 Decode 行为一致
func decode(doc bson.M, v interface{}) error {
	data, err := bson.Marshal(doc)
	if err != nil {
		return err
	}
	return bson.Unmarshal(data, v)
}
