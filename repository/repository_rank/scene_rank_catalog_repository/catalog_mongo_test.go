package scene_rank_catalog_repository

import (
	"context"
	"errors"
	"testing"

	"github.com/Super-Badmen-Viper/songrank/domain"
	"github.com/Super-Badmen-Viper/songrank/domain/domain_rank/scene_rank_interface"
	"github.com/Super-Badmen-Viper/songrank/mongo/mongotest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestPlaylistTrackPipeline(t *testing.T) {
	pipeline := playlistTrackPipeline("pl1")
	require.Len(t, pipeline, 5)

	assert.Equal(t, "$match", pipeline[0][0].Key)
	assert.Equal(t, bson.D{{Key: "playlist_id", Value: "pl1"}}, pipeline[0][0].Value)

	assert.Equal(t, "$sort", pipeline[1][0].Key)

	lookup, ok := pipeline[2][0].Value.(bson.D)
	require.True(t, ok)
	assert.Contains(t, lookup, bson.E{Key: "from", Value: domain.CollectionRankMediaFile})

	assert.Equal(t, "$replaceRoot", pipeline[4][0].Key)
}

func newTrackDatabase(results ...bson.M) (*mongotest.Database, *mongotest.Collection) {
	db := mongotest.NewDatabase()
	tracks := db.Coll(domain.CollectionRankPlaylistTrack)
	tracks.AggregateResults = results
	return db, tracks
}

func TestMongoCatalog_GetSongs(t *testing.T) {
	db, tracks := newTrackDatabase(
		bson.M{"_id": "m2", "title": "晴天", "artist": "周杰伦", "album": "叶惠美"},
		bson.M{"_id": "m1", "title": "Yellow", "artist": "Coldplay", "duration": 266.0},
	)

	songs, err := NewMongoCatalog(db).GetSongs(context.Background(), "pl1")
	require.NoError(t, err)
	require.Len(t, songs, 2)

	assert.Equal(t, "m2", songs[0].ID)
	assert.Equal(t, "晴天", songs[0].Title)
	assert.NotEmpty(t, songs[0].ArtistPinyin)
	assert.Equal(t, "m1", songs[1].ID)
	assert.Equal(t, 266.0, songs[1].Duration)

	require.Len(t, tracks.Pipelines(), 1)
	assert.Equal(t, playlistTrackPipeline("pl1"), tracks.Pipelines()[0])
}

func TestMongoCatalog_Errors(t *testing.T) {
	t.Run("empty playlist", func(t *testing.T) {
		db, _ := newTrackDatabase()
		_, err := NewMongoCatalog(db).GetSongs(context.Background(), "missing")
		assert.ErrorIs(t, err, scene_rank_interface.ErrPlaylistNotFound)
	})

	t.Run("aggregate fails", func(t *testing.T) {
		db, tracks := newTrackDatabase()
		tracks.AggregateErr = errors.New("connection reset")
		_, err := NewMongoCatalog(db).GetSongs(context.Background(), "pl1")
		assert.ErrorIs(t, err, scene_rank_interface.ErrCatalogUnavailable)
	})

	// 游标中途失败时不能把已读到的部分歌曲当作完整歌单
	t.Run("cursor fails after partial results", func(t *testing.T) {
		db, tracks := newTrackDatabase(bson.M{"_id": "m1", "title": "Yellow", "artist": "Coldplay"})
		tracks.CursorErr = errors.New("getMore: cursor killed")

		songs, err := NewMongoCatalog(db).GetSongs(context.Background(), "pl1")
		assert.ErrorIs(t, err, scene_rank_interface.ErrCatalogUnavailable)
		assert.Nil(t, songs)
	})
}
