package scene_rank_catalog_repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Super-Badmen-Viper/songrank/domain"
	"github.com/Super-Badmen-Viper/songrank/domain/domain_rank/scene_rank_interface"
	"github.com/Super-Badmen-Viper/songrank/domain/domain_rank/scene_rank_models"
	"github.com/Super-Badmen-Viper/songrank/internal/metrics"
	"github.com/Super-Badmen-Viper/songrank/mongo"
	"github.com/Super-Badmen-Viper/songrank/repository"
	"go.mongodb.org/mongo-driver/bson"
)

type mongoCatalog struct {
	tracks domain.BaseRepository[scene_rank_models.Song]
}

// NewMongoCatalog 歌单曲目表 {playlist_id, media_file_id, index} 关联媒体文件表
func NewMongoCatalog(db mongo.Database) scene_rank_interface.CatalogSource {
	return &mongoCatalog{
		tracks: repository.NewBaseMongoRepository[scene_rank_models.Song](db, domain.CollectionRankPlaylistTrack),
	}
}

func (c *mongoCatalog) GetSongs(ctx context.Context, playlistID string) (songs []scene_rank_models.Song, err error) {
	start := time.Now()
	defer func() { metrics.RecordCatalogFetch("mongo", time.Since(start), err) }()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	results, err := c.tracks.Aggregate(ctx, playlistTrackPipeline(playlistID))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", scene_rank_interface.ErrCatalogUnavailable, err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: %q", scene_rank_interface.ErrPlaylistNotFound, playlistID)
	}

	songs = make([]scene_rank_models.Song, 0, len(results))
	for _, song := range results {
		songs = append(songs, normalizeSong(*song))
	}
	return songs, nil
}

func playlistTrackPipeline(playlistID string) []bson.D {
	return []bson.D{
		// 匹配播放列表
		{
			{Key: "$match", Value: bson.D{
				{Key: "playlist_id", Value: playlistID},
			}},
		},
		{
			{Key: "$sort", Value: bson.D{{Key: "index", Value: 1}}},
		},
		// 关联媒体文件
		{
			{Key: "$lookup", Value: bson.D{
				{Key: "from", Value: domain.CollectionRankMediaFile},
				{Key: "localField", Value: "media_file_id"},
				{Key: "foreignField", Value: "_id"},
				{Key: "as", Value: "media_file"},
			}},
		},
		{
			{Key: "$unwind", Value: bson.D{
				{Key: "path", Value: "$media_file"},
				{Key: "preserveNullAndEmptyArrays", Value: false},
			}},
		},
		// 替换根节点
		{
			{Key: "$replaceRoot", Value: bson.D{
				{Key: "newRoot", Value: "$media_file"},
			}},
		},
	}
}
