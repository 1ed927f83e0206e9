package scene_rank_catalog_repository

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/Super-Badmen-Viper/songrank/domain/domain_rank/scene_rank_interface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokenServer(t *testing.T, issued *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		user, pass, ok := r.BasicAuth()
		if !ok {
			user, pass = r.PostForm.Get("client_id"), r.PostForm.Get("client_secret")
		}
		assert.Equal(t, "client-id", user)
		assert.Equal(t, "client-secret", pass)

		atomic.AddInt32(issued, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{"access_token":"token-123","token_type":"Bearer","expires_in":3600}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSpotifyCatalog_GetSongsFollowsPages(t *testing.T) {
	var issued int32
	tokenSrv := newTokenServer(t, &issued)

	var apiSrv *httptest.Server
	apiSrv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/playlists/pl1":
			assert.Equal(t, spotifyPlaylistFields, r.URL.Query().Get("fields"))
			_, _ = fmt.Fprintf(w, `{"tracks":{"items":[
				{"track":{"id":"t1","name":"Heroes","duration_ms":371000,"artists":[{"name":"David Bowie"}],"album":{"name":"Heroes","images":[{"url":"http://img/1"}]}}},
				{"track":null},
				{"track":{"id":"","name":"Local file","artists":[]}},
				{"track":{"id":"t2","name":"晴天","artists":[{"name":"周杰伦"},{"name":"Guest"}],"album":{"name":"叶惠美","images":[]}}}
			],"next":"%s/playlists/pl1/tracks?offset=4"}}`, apiSrv.URL)
		case "/playlists/pl1/tracks":
			_, _ = fmt.Fprint(w, `{"items":[
				{"track":{"id":"t3","name":"Atmosphere","artists":[{"name":"Joy Division"}],"album":{"name":"Closer","images":[]}}},
				{"track":{"id":"t1","name":"Heroes","artists":[{"name":"David Bowie"}],"album":{"name":"Heroes","images":[]}}}
			],"next":null}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer apiSrv.Close()

	catalog := NewSpotifyCatalog(SpotifyConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		TokenURL:     tokenSrv.URL,
		APIURL:       apiSrv.URL,
	})

	songs, err := catalog.GetSongs(context.Background(), "pl1")
	require.NoError(t, err)
	require.Len(t, songs, 3)

	assert.Equal(t, []string{"t1", "t2", "t3"}, []string{songs[0].ID, songs[1].ID, songs[2].ID})
	assert.Equal(t, "David Bowie", songs[0].Artist)
	assert.Equal(t, "http://img/1", songs[0].Image)
	assert.InDelta(t, 371.0, songs[0].Duration, 1e-9)
	assert.Equal(t, "周杰伦", songs[1].Artist)
	assert.Equal(t, "zhou jie lun", songs[1].ArtistPinyin)
	assert.Empty(t, songs[1].Image)
	assert.Equal(t, int32(1), atomic.LoadInt32(&issued), "token is reused across pages")
}

func TestSpotifyCatalog_Errors(t *testing.T) {
	var issued int32
	tokenSrv := newTokenServer(t, &issued)

	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/playlists/missing":
			http.Error(w, `{"error":{"status":404}}`, http.StatusNotFound)
		case "/playlists/broken":
			_, _ = fmt.Fprint(w, `{"tracks":`)
		default:
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		}
	}))
	defer apiSrv.Close()

	catalog := NewSpotifyCatalog(SpotifyConfig{
		ClientID: "client-id", ClientSecret: "client-secret",
		TokenURL: tokenSrv.URL, APIURL: apiSrv.URL,
	})
	ctx := context.Background()

	_, err := catalog.GetSongs(ctx, "missing")
	assert.ErrorIs(t, err, scene_rank_interface.ErrPlaylistNotFound)

	_, err = catalog.GetSongs(ctx, "broken")
	assert.ErrorIs(t, err, scene_rank_interface.ErrCatalogUnavailable)

	_, err = catalog.GetSongs(ctx, "busy")
	assert.ErrorIs(t, err, scene_rank_interface.ErrCatalogUnavailable)

	_, err = catalog.GetSongs(ctx, " ")
	assert.ErrorIs(t, err, scene_rank_interface.ErrPlaylistNotFound)
}

func TestSpotifyCatalog_TokenFailure(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_client"}`, http.StatusUnauthorized)
	}))
	defer tokenSrv.Close()

	catalog := NewSpotifyCatalog(SpotifyConfig{
		ClientID: "bad", ClientSecret: "bad",
		TokenURL: tokenSrv.URL, APIURL: "http://127.0.0.1:1",
	})
	_, err := catalog.GetSongs(context.Background(), "pl1")
	assert.ErrorIs(t, err, scene_rank_interface.ErrCatalogUnavailable)
}
