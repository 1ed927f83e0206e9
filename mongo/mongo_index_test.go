package mongo_test

import (
	"context"
	"testing"

	"github.com/Super-Badmen-Viper/songrank/domain"
	"github.com/Super-Badmen-Viper/songrank/mongo"
	"github.com/Super-Badmen-Viper/songrank/mongo/mongotest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func indexNames(t *testing.T, coll *mongotest.Collection) map[string]bool {
	t.Helper()
	specs, err := coll.Indexes().ListSpecifications(context.Background())
	require.NoError(t, err)
	names := make(map[string]bool, len(specs))
	for _, spec := range specs {
		names[spec.Name] = spec.Unique != nil && *spec.Unique
	}
	return names
}

func TestCreateIndexes(t *testing.T) {
	db := mongotest.NewDatabase()
	mongo.CreateIndexes(db)
	// 重复调用跳过已存在的索引
	mongo.CreateIndexes(db)

	assert.Equal(t, map[string]bool{"key_unique": true, "updated_at": false},
		indexNames(t, db.Coll(domain.CollectionRankKeyValue)))
	assert.Equal(t, map[string]bool{"playlist_index_compound": false},
		indexNames(t, db.Coll(domain.CollectionRankPlaylistTrack)))
	assert.Equal(t, map[string]bool{"artist_pinyin": false},
		indexNames(t, db.Coll(domain.CollectionRankMediaFile)))
}
