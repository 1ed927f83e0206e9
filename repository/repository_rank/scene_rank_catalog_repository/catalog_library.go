package scene_rank_catalog_repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Super-Badmen-Viper/songrank/domain/domain_rank/scene_rank_interface"
	"github.com/Super-Badmen-Viper/songrank/domain/domain_rank/scene_rank_models"
	"github.com/Super-Badmen-Viper/songrank/internal/logging"
	"github.com/Super-Badmen-Viper/songrank/internal/metrics"
	"github.com/abema/go-mp4"
	"github.com/dhowden/tag"
	"github.com/h2non/filetype"
	"github.com/rs/zerolog"
	"go.senan.xyz/taglib"
)

// filetype 只需要文件头
const sniffHeaderSize = 261

type libraryCatalog struct {
	root   string
	logger zerolog.Logger
}

// NewLibraryCatalog 以本地音乐目录作为歌单来源，playlistID 是 root 下的相对目录，空串表示整个目录
func NewLibraryCatalog(root string) scene_rank_interface.CatalogSource {
	return &libraryCatalog{
		root:   filepath.Clean(root),
		logger: logging.With().Str("component", "library_catalog").Logger(),
	}
}

func (c *libraryCatalog) GetSongs(ctx context.Context, playlistID string) (songs []scene_rank_models.Song, err error) {
	start := time.Now()
	defer func() { metrics.RecordCatalogFetch("library", time.Since(start), err) }()

	dir, err := c.resolve(playlistID)
	if err != nil {
		return nil, err
	}

	// WalkDir 按字典序遍历，目录顺序稳定
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !isAudioFile(path) {
			return nil
		}

		song, err := c.readSong(path)
		if err != nil {
			c.logger.Warn().Err(err).Str("path", path).Msg("跳过无法解析的音频文件")
			return nil
		}
		songs = append(songs, normalizeSong(song))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: scan %s: %v", scene_rank_interface.ErrCatalogUnavailable, dir, err)
	}

	c.logger.Info().Str("playlist_id", playlistID).Int("songs", len(songs)).Msg("本地歌单加载完成")
	return songs, nil
}

// resolve playlistID 不能逃出 root
func (c *libraryCatalog) resolve(playlistID string) (string, error) {
	rel := filepath.Clean(filepath.FromSlash(strings.TrimSpace(playlistID)))
	if filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", scene_rank_interface.ErrPlaylistNotFound, playlistID)
	}

	dir := filepath.Join(c.root, rel)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %q", scene_rank_interface.ErrPlaylistNotFound, playlistID)
	}
	return dir, nil
}

func (c *libraryCatalog) readSong(path string) (scene_rank_models.Song, error) {
	rel, err := filepath.Rel(c.root, path)
	if err != nil {
		return scene_rank_models.Song{}, err
	}
	song := scene_rank_models.Song{ID: songIDForPath(rel)}

	if tags, err := taglib.ReadTags(path); err == nil {
		song.Title = tagString(tags, taglib.Title)
		song.Artist = tagString(tags, taglib.Artist)
		song.Album = tagString(tags, taglib.Album)
	} else if err := readFallbackTags(path, &song); err != nil {
		c.logger.Debug().Err(err).Str("path", path).Msg("未读取到标签")
	}

	if properties, err := taglib.ReadProperties(path); err == nil {
		song.Duration = properties.Length.Seconds()
	}
	if song.Duration == 0 && isMP4Container(path) {
		song.Duration = probeMP4Duration(path)
	}

	if song.Title == "" {
		base := filepath.Base(path)
		song.Title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return song, nil
}

// readFallbackTags taglib 无法解析时退回纯 Go 的 dhowden/tag
func readFallbackTags(path string, song *scene_rank_models.Song) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	metadata, err := tag.ReadFrom(file)
	if err != nil {
		return err
	}
	song.Title = strings.TrimSpace(metadata.Title())
	song.Artist = strings.TrimSpace(metadata.Artist())
	song.Album = strings.TrimSpace(metadata.Album())
	return nil
}

func probeMP4Duration(path string) float64 {
	file, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer file.Close()

	info, err := mp4.Probe(file)
	if err != nil || info.Timescale == 0 {
		return 0
	}
	return float64(info.Duration) / float64(info.Timescale)
}

func isAudioFile(path string) bool {
	file, err := os.Open(path)
	if err != nil {
		return false
	}
	defer file.Close()

	header := make([]byte, sniffHeaderSize)
	n, err := io.ReadFull(file, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return false
	}
	return filetype.IsAudio(header[:n])
}

func isMP4Container(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".m4a", ".mp4", ".m4b", ".alac":
		return true
	}
	return false
}

func tagString(tags map[string][]string, key string) string {
	if values := tags[key]; len(values) > 0 {
		return strings.TrimSpace(values[0])
	}
	return ""
}

// songIDForPath 相对路径的哈希，十六进制不含下划线，可直接用作 PairKey 的一部分
func songIDForPath(rel string) string {
	hash := sha256.Sum256([]byte(filepath.ToSlash(rel)))
	return hex.EncodeToString(hash[:12])
}
