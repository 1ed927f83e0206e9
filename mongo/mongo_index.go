package mongo

import (
	"context"
	"time"

	"github.com/Super-Badmen-Viper/songrank/domain"
	"github.com/Super-Badmen-Viper/songrank/internal/logging"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateIndexes 启动时为排序相关集合建立索引，失败只记录日志
func CreateIndexes(db Database) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// KV Collection：账本与排序结果
	kvCollection := db.Collection(domain.CollectionRankKeyValue)
	createIndex(ctx, kvCollection, bson.D{{Key: "key", Value: 1}}, "key_unique", true)
	createIndex(ctx, kvCollection, bson.D{{Key: "updated_at", Value: -1}}, "updated_at", false)

	// Playlist Track Collection
	trackCollection := db.Collection(domain.CollectionRankPlaylistTrack)
	createIndex(ctx, trackCollection, bson.D{
		{Key: "playlist_id", Value: 1},
		{Key: "index", Value: 1}}, "playlist_index_compound", false)

	// Media File Collection
	mediaCollection := db.Collection(domain.CollectionRankMediaFile)
	createIndex(ctx, mediaCollection, bson.D{{Key: "artist_pinyin", Value: 1}}, "artist_pinyin", false)
}

func createIndex(
	ctx context.Context,
	collection Collection,
	keys bson.D,
	name string,
	unique bool,
) {
	logger := logging.With().Str("index", name).Logger()

	// 已存在同名索引时跳过
	if specs, err := collection.Indexes().ListSpecifications(ctx); err == nil {
		for _, spec := range specs {
			if spec.Name == name {
				logger.Debug().Msg("索引已存在，跳过创建")
				return
			}
		}
	}

	indexModel := mongo.IndexModel{
		Keys:    keys,
		Options: options.Index().SetName(name).SetUnique(unique),
	}
	if _, err := collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		logger.Warn().Err(err).Msg("创建索引失败")
		return
	}
	logger.Info().Msg("索引创建成功")
}
