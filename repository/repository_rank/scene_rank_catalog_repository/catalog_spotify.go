package scene_rank_catalog_repository

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Super-Badmen-Viper/songrank/domain/domain_rank/scene_rank_interface"
	"github.com/Super-Badmen-Viper/songrank/domain/domain_rank/scene_rank_models"
	"github.com/Super-Badmen-Viper/songrank/internal/logging"
	"github.com/Super-Badmen-Viper/songrank/internal/metrics"
	"github.com/goccy/go-json"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	DefaultSpotifyTokenURL = "https://accounts.spotify.com/api/token"
	DefaultSpotifyAPIURL   = "https://api.spotify.com/v1"

	// 只取排名需要的字段
	spotifyPlaylistFields = "tracks(items(track(id,name,duration_ms,artists(name),album(name,images))),next)"
	// 防止 next 链接异常时无限翻页
	spotifyMaxPages = 200
)

type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	APIURL       string
}

type spotifyCatalog struct {
	apiURL string
	oauth  clientcredentials.Config
}

// NewSpotifyCatalog 客户端凭证模式换取访问令牌，令牌过期后由 oauth2 自动刷新
func NewSpotifyCatalog(cfg SpotifyConfig) scene_rank_interface.CatalogSource {
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultSpotifyTokenURL
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultSpotifyAPIURL
	}
	return &spotifyCatalog{
		apiURL: strings.TrimRight(cfg.APIURL, "/"),
		oauth: clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
		},
	}
}

type spotifyImage struct {
	URL string `json:"url"`
}

type spotifyTrack struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	DurationMS int64  `json:"duration_ms"`
	Artists    []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Album struct {
		Name   string         `json:"name"`
		Images []spotifyImage `json:"images"`
	} `json:"album"`
}

type spotifyTrackPage struct {
	Items []struct {
		Track *spotifyTrack `json:"track"`
	} `json:"items"`
	Next *string `json:"next"`
}

type spotifyPlaylist struct {
	Tracks spotifyTrackPage `json:"tracks"`
}

func (c *spotifyCatalog) GetSongs(ctx context.Context, playlistID string) (songs []scene_rank_models.Song, err error) {
	start := time.Now()
	defer func() { metrics.RecordCatalogFetch("spotify", time.Since(start), err) }()

	if strings.TrimSpace(playlistID) == "" {
		return nil, fmt.Errorf("%w: empty playlist id", scene_rank_interface.ErrPlaylistNotFound)
	}

	client := c.oauth.Client(ctx)
	endpoint := fmt.Sprintf("%s/playlists/%s?fields=%s",
		c.apiURL, url.PathEscape(playlistID), url.QueryEscape(spotifyPlaylistFields))

	var playlist spotifyPlaylist
	if err := c.getJSON(ctx, client, endpoint, &playlist); err != nil {
		return nil, err
	}

	page := playlist.Tracks
	seen := make(map[string]struct{})
	for pages := 1; ; pages++ {
		for _, item := range page.Items {
			// 本地文件与已下架曲目没有 ID
			if item.Track == nil || item.Track.ID == "" {
				continue
			}
			if _, dup := seen[item.Track.ID]; dup {
				continue
			}
			seen[item.Track.ID] = struct{}{}
			songs = append(songs, normalizeSong(item.Track.toSong()))
		}

		if page.Next == nil || *page.Next == "" || pages >= spotifyMaxPages {
			break
		}
		next := spotifyTrackPage{}
		if err := c.getJSON(ctx, client, *page.Next, &next); err != nil {
			return nil, err
		}
		page = next
	}

	logging.Info().Str("playlist_id", playlistID).Int("songs", len(songs)).Msg("Spotify 歌单加载完成")
	return songs, nil
}

func (c *spotifyCatalog) getJSON(ctx context.Context, client *http.Client, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build spotify request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", scene_rank_interface.ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return scene_rank_interface.ErrPlaylistNotFound
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: spotify returned %d: %s",
			scene_rank_interface.ErrCatalogUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode spotify response: %v", scene_rank_interface.ErrCatalogUnavailable, err)
	}
	return nil
}

func (t *spotifyTrack) toSong() scene_rank_models.Song {
	song := scene_rank_models.Song{
		ID:       t.ID,
		Title:    t.Name,
		Album:    t.Album.Name,
		Duration: float64(t.DurationMS) / 1000,
	}
	if len(t.Artists) > 0 {
		song.Artist = t.Artists[0].Name
	}
	if len(t.Album.Images) > 0 {
		song.Image = t.Album.Images[0].URL
	}
	return song
}
