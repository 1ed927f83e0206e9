package scene_rank_interface

import (
	"context"
	"errors"

	"github.com/Super-Badmen-Viper/songrank/domain/domain_rank/scene_rank_models"
)

// CatalogSource 歌单目录来源，会话开始时调用一次，失败即会话启动失败
type CatalogSource interface {
	GetSongs(ctx context.Context, playlistID string) ([]scene_rank_models.Song, error)
}

var (
	ErrPlaylistNotFound   = errors.New("playlist not found")
	ErrCatalogUnavailable = errors.New("catalog source unavailable")
)
