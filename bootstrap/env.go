package bootstrap

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/viper"
)

const (
	StoreDriverMemory = "memory"
	StoreDriverMongo  = "mongo"
	StoreDriverBadger = "badger"
	StoreDriverBolt   = "bolt"

	CatalogDriverSpotify = "spotify"
	CatalogDriverMongo   = "mongo"
	CatalogDriverLibrary = "library"
)

type Env struct {
	AppEnv         string `mapstructure:"APP_ENV"`
	ServerAddress  string `mapstructure:"SERVER_ADDRESS"`
	ContextTimeout int    `mapstructure:"CONTEXT_TIMEOUT"`
	LogLevel       string `mapstructure:"LOG_LEVEL"`
	LogFormat      string `mapstructure:"LOG_FORMAT"`

	StoreDriver string `mapstructure:"STORE_DRIVER"`
	StorePath   string `mapstructure:"STORE_PATH"`

	DBHost string `mapstructure:"DB_HOST"`
	DBPort string `mapstructure:"DB_PORT"`
	DBUser string `mapstructure:"DB_USER"`
	DBPass string `mapstructure:"DB_PASS"`
	DBName string `mapstructure:"DB_NAME"`

	CatalogDriver       string `mapstructure:"CATALOG_DRIVER"`
	SpotifyClientID     string `mapstructure:"SPOTIFY_CLIENT_ID"`
	SpotifyClientSecret string `mapstructure:"SPOTIFY_CLIENT_SECRET"`
	SpotifyTokenURL     string `mapstructure:"SPOTIFY_TOKEN_URL"`
	SpotifyAPIURL       string `mapstructure:"SPOTIFY_API_URL"`
	LibraryPath         string `mapstructure:"LIBRARY_PATH"`
	DefaultPlaylistID   string `mapstructure:"DEFAULT_PLAYLIST_ID"`

	AccessKeyHash         string `mapstructure:"ACCESS_KEY_HASH"`
	AccessTokenSecret     string `mapstructure:"ACCESS_TOKEN_SECRET"`
	AccessTokenExpiryHour int    `mapstructure:"ACCESS_TOKEN_EXPIRY_HOUR"`

	KeepLedgerOnComplete bool `mapstructure:"KEEP_LEDGER_ON_COMPLETE"`
}

// 所有键都要有默认值，AutomaticEnv 才能在 Unmarshal 时覆盖
var envDefaults = map[string]interface{}{
	"APP_ENV":                  "development",
	"SERVER_ADDRESS":           ":8080",
	"CONTEXT_TIMEOUT":          10,
	"LOG_LEVEL":                "info",
	"LOG_FORMAT":               "json",
	"STORE_DRIVER":             StoreDriverMemory,
	"STORE_PATH":               "",
	"DB_HOST":                  "",
	"DB_PORT":                  "27017",
	"DB_USER":                  "",
	"DB_PASS":                  "",
	"DB_NAME":                  "songrank",
	"CATALOG_DRIVER":           CatalogDriverSpotify,
	"SPOTIFY_CLIENT_ID":        "",
	"SPOTIFY_CLIENT_SECRET":    "",
	"SPOTIFY_TOKEN_URL":        "https://accounts.spotify.com/api/token",
	"SPOTIFY_API_URL":          "https://api.spotify.com/v1",
	"LIBRARY_PATH":             "",
	"DEFAULT_PLAYLIST_ID":      "",
	"ACCESS_KEY_HASH":          "",
	"ACCESS_TOKEN_SECRET":      "",
	"ACCESS_TOKEN_EXPIRY_HOUR": 24,
	"KEEP_LEDGER_ON_COMPLETE":  false,
}

var ErrInvalidEnv = errors.New("invalid environment")

// NewEnv 读取 SONGRANK_ENV_FILE 指定的文件，未指定时读取 .env；
// 文件不存在时只使用环境变量和默认值。
func NewEnv() (*Env, error) {
	v := viper.New()
	for key, value := range envDefaults {
		v.SetDefault(key, value)
	}

	file := os.Getenv("SONGRANK_ENV_FILE")
	if file == "" {
		file = ".env"
	}
	v.SetConfigFile(file)
	v.SetConfigType("env")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read env file %s: %w", file, err)
		}
	}

	env := Env{}
	if err := v.Unmarshal(&env); err != nil {
		return nil, fmt.Errorf("environment can't be loaded: %w", err)
	}
	if err := env.Validate(); err != nil {
		return nil, err
	}
	return &env, nil
}

func (e *Env) Validate() error {
	var errs []error

	switch e.StoreDriver {
	case StoreDriverMemory, StoreDriverMongo:
	case StoreDriverBadger, StoreDriverBolt:
		if e.StorePath == "" {
			errs = append(errs, fmt.Errorf("STORE_PATH is required for store driver %s", e.StoreDriver))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", e.StoreDriver))
	}

	switch e.CatalogDriver {
	case CatalogDriverSpotify:
		if e.SpotifyClientID == "" || e.SpotifyClientSecret == "" {
			errs = append(errs, errors.New("SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET are required"))
		}
	case CatalogDriverMongo:
	case CatalogDriverLibrary:
		if e.LibraryPath == "" {
			errs = append(errs, errors.New("LIBRARY_PATH is required for the library catalog"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown CATALOG_DRIVER %q", e.CatalogDriver))
	}

	if e.UsesMongo() && e.DBHost == "" {
		errs = append(errs, errors.New("DB_HOST is required when mongo is used"))
	}
	if e.AccessTokenSecret == "" {
		errs = append(errs, errors.New("ACCESS_TOKEN_SECRET is required"))
	}
	if e.AccessKeyHash == "" {
		errs = append(errs, errors.New("ACCESS_KEY_HASH is required"))
	}
	if e.ContextTimeout <= 0 {
		errs = append(errs, errors.New("CONTEXT_TIMEOUT must be positive"))
	}
	if e.AccessTokenExpiryHour <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_EXPIRY_HOUR must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidEnv, errors.Join(errs...))
	}
	return nil
}

func (e *Env) UsesMongo() bool {
	return e.StoreDriver == StoreDriverMongo || e.CatalogDriver == CatalogDriverMongo
}

func (e *Env) MongoURI() string {
	if e.DBUser == "" && e.DBPass == "" {
		return fmt.Sprintf("mongodb://%s:%s", e.DBHost, e.DBPort)
	}
	return fmt.Sprintf("mongodb://%s:%s@%s:%s", e.DBUser, e.DBPass, e.DBHost, e.DBPort)
}
