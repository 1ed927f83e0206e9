package bootstrap

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Super-Badmen-Viper/songrank/domain"
	"github.com/Super-Badmen-Viper/songrank/domain/domain_rank/scene_rank_interface"
	"github.com/Super-Badmen-Viper/songrank/internal/logging"
	"github.com/Super-Badmen-Viper/songrank/mongo"
	"github.com/Super-Badmen-Viper/songrank/repository/repository_rank/scene_rank_catalog_repository"
	"github.com/Super-Badmen-Viper/songrank/repository/repository_rank/scene_rank_store_repository"
	"github.com/Super-Badmen-Viper/songrank/usecase/usecase_rank/scene_rank_session_usecase"
	"github.com/dgraph-io/badger/v4"
	bolt "go.etcd.io/bbolt"
)

type Application struct {
	Env         *Env
	Mongo       mongo.Client
	Store       scene_rank_interface.KeyValueStore
	Catalog     scene_rank_interface.CatalogSource
	RankUsecase scene_rank_interface.RankSessionUsecase

	closers []func() error
}

func App() (*Application, error) {
	env, err := NewEnv()
	if err != nil {
		return nil, err
	}
	logging.Init(logging.Config{Level: env.LogLevel, Format: env.LogFormat})
	return NewApplication(env)
}

// NewApplication 按配置选择键值存储与歌单来源，失败时释放已打开的资源
func NewApplication(env *Env) (*Application, error) {
	app := &Application{Env: env}

	if env.UsesMongo() {
		client, err := NewMongoDatabase(env)
		if err != nil {
			return nil, err
		}
		app.Mongo = client
		app.closers = append(app.closers, func() error {
			CloseMongoDBConnection(client)
			return nil
		})
	}

	store, err := app.newKeyValueStore()
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Store = store

	catalog, err := app.newCatalog()
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Catalog = catalog

	app.RankUsecase = scene_rank_session_usecase.NewRankSessionUsecase(
		app.Catalog,
		app.Store,
		time.Duration(env.ContextTimeout)*time.Second,
		env.KeepLedgerOnComplete,
	)

	logging.Info().
		Str("store", env.StoreDriver).
		Str("catalog", env.CatalogDriver).
		Msg("应用初始化完成")
	return app, nil
}

func (app *Application) newKeyValueStore() (scene_rank_interface.KeyValueStore, error) {
	env := app.Env
	switch env.StoreDriver {
	case StoreDriverMemory:
		return scene_rank_store_repository.NewMemoryStore(), nil

	case StoreDriverMongo:
		db := app.Mongo.Database(env.DBName)
		return scene_rank_store_repository.NewMongoStore(db, domain.CollectionRankKeyValue), nil

	case StoreDriverBadger:
		// STORE_PATH 为 badger 数据目录
		opts := badger.DefaultOptions(env.StorePath).WithLogger(nil)
		db, err := badger.Open(opts)
		if err != nil {
			return nil, fmt.Errorf("open badger store %s: %w", env.StorePath, err)
		}
		app.closers = append(app.closers, db.Close)
		return scene_rank_store_repository.NewBadgerStore(db), nil

	case StoreDriverBolt:
		// STORE_PATH 为 bolt 数据文件
		if err := os.MkdirAll(filepath.Dir(env.StorePath), 0o755); err != nil {
			return nil, fmt.Errorf("create bolt store directory: %w", err)
		}
		db, err := bolt.Open(env.StorePath, 0o600, &bolt.Options{Timeout: time.Second})
		if err != nil {
			return nil, fmt.Errorf("open bolt store %s: %w", env.StorePath, err)
		}
		app.closers = append(app.closers, db.Close)
		return scene_rank_store_repository.NewBoltStore(db)
	}
	return nil, fmt.Errorf("%w: unknown STORE_DRIVER %q", ErrInvalidEnv, env.StoreDriver)
}

func (app *Application) newCatalog() (scene_rank_interface.CatalogSource, error) {
	env := app.Env
	switch env.CatalogDriver {
	case CatalogDriverSpotify:
		return scene_rank_catalog_repository.NewSpotifyCatalog(scene_rank_catalog_repository.SpotifyConfig{
			ClientID:     env.SpotifyClientID,
			ClientSecret: env.SpotifyClientSecret,
			TokenURL:     env.SpotifyTokenURL,
			APIURL:       env.SpotifyAPIURL,
		}), nil
	case CatalogDriverMongo:
		return scene_rank_catalog_repository.NewMongoCatalog(app.Mongo.Database(env.DBName)), nil
	case CatalogDriverLibrary:
		return scene_rank_catalog_repository.NewLibraryCatalog(env.LibraryPath), nil
	}
	return nil, fmt.Errorf("%w: unknown CATALOG_DRIVER %q", ErrInvalidEnv, env.CatalogDriver)
}

// Close 先停止所有排名会话，再按打开的逆序关闭存储
func (app *Application) Close() error {
	if app.RankUsecase != nil {
		app.RankUsecase.Close()
	}
	var errs []error
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	app.closers = nil
	return errors.Join(errs...)
}
