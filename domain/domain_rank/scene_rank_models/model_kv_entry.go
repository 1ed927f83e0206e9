package scene_rank_models

import "go.mongodb.org/mongo-driver/bson/primitive"

// KVEntry mongo 键值存储中的一条记录
type KVEntry struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Key       string             `bson:"key"`
	Value     string             `bson:"value"`
	UpdatedAt primitive.DateTime `bson:"updated_at"`
}
