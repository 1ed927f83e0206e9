package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/Super-Badmen-Viper/songrank/internal/logging"
	"github.com/Super-Badmen-Viper/songrank/mongo"
)

func NewMongoDatabase(env *Env) (mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.NewClient(env.MongoURI())
	if err != nil {
		return nil, fmt.Errorf("create mongo client: %w", err)
	}
	if err := client.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	mongo.CreateIndexes(client.Database(env.DBName))
	logging.Info().Str("host", env.DBHost).Str("db", env.DBName).Msg("MongoDB 连接成功")
	return client, nil
}

func CloseMongoDBConnection(client mongo.Client) {
	if client == nil {
		return
	}
	if err := client.Disconnect(context.TODO()); err != nil {
		logging.Error().Err(err).Msg("关闭 MongoDB 连接失败")
		return
	}
	logging.Info().Msg("MongoDB 连接已关闭")
}
