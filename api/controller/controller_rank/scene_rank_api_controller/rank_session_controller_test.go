package scene_rank_api_controller

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Super-Badmen-Viper/songrank/domain/domain_rank/scene_rank_interface"
	"github.com/Super-Badmen-Viper/songrank/domain/domain_rank/scene_rank_models"
	"github.com/Super-Badmen-Viper/songrank/internal/tokenutil"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRankUsecase 记录调用参数并返回预设错误
type fakeRankUsecase struct {
	err        error
	playlistID string
	songID     string
	side       string
	search     string
	undone     bool
	reset      bool
}

func (f *fakeRankUsecase) status(playlistID string) (*scene_rank_models.SessionStatus, error) {
	f.playlistID = playlistID
	if f.err != nil {
		return nil, f.err
	}
	return &scene_rank_models.SessionStatus{
		PlaylistID: playlistID,
		State:      scene_rank_models.SessionStateAwaitingChoice,
		SongCount:  2,
		Pending: &scene_rank_models.PendingPair{
			Left:  scene_rank_models.Song{ID: "a", Title: "A"},
			Right: scene_rank_models.Song{ID: "b", Title: "B"},
		},
	}, nil
}

func (f *fakeRankUsecase) StartSession(_ context.Context, playlistID string) (*scene_rank_models.SessionStatus, error) {
	return f.status(playlistID)
}

func (f *fakeRankUsecase) GetStatus(_ context.Context, playlistID string) (*scene_rank_models.SessionStatus, error) {
	return f.status(playlistID)
}

func (f *fakeRankUsecase) Choose(_ context.Context, playlistID, songID string) (*scene_rank_models.SessionStatus, error) {
	f.songID = songID
	return f.status(playlistID)
}

func (f *fakeRankUsecase) ChooseSide(_ context.Context, playlistID, side string) (*scene_rank_models.SessionStatus, error) {
	f.side = side
	return f.status(playlistID)
}

func (f *fakeRankUsecase) Undo(_ context.Context, playlistID string) (*scene_rank_models.SessionStatus, error) {
	f.undone = true
	return f.status(playlistID)
}

func (f *fakeRankUsecase) Reset(_ context.Context, playlistID string) error {
	f.playlistID = playlistID
	f.reset = true
	return f.err
}

func (f *fakeRankUsecase) GetResult(_ context.Context, playlistID, search string) ([]scene_rank_models.Song, error) {
	f.playlistID = playlistID
	f.search = search
	if f.err != nil {
		return nil, f.err
	}
	return []scene_rank_models.Song{{ID: "b", Title: "B"}, {ID: "a", Title: "A"}}, nil
}

func (f *fakeRankUsecase) GetRanks(_ context.Context, playlistID string) ([]scene_rank_models.RankEntry, error) {
	f.playlistID = playlistID
	if f.err != nil {
		return nil, f.err
	}
	return []scene_rank_models.RankEntry{
		{Rank: 2, Song: scene_rank_models.Song{ID: "a"}},
		{Rank: 1, Song: scene_rank_models.Song{ID: "b"}},
	}, nil
}

func (f *fakeRankUsecase) Close() {}

func newTestRouter(uc scene_rank_interface.RankSessionUsecase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	ctrl := NewRankSessionController(uc, "pl-default")
	r := gin.New()
	g := r.Group("/api/rank/sessions/:playlist_id")
	g.POST("", ctrl.StartSession)
	g.GET("", ctrl.GetStatus)
	g.DELETE("", ctrl.Reset)
	g.POST("/choose", ctrl.Choose)
	g.POST("/undo", ctrl.Undo)
	g.GET("/result", ctrl.GetResult)
	g.GET("/ranks", ctrl.GetRanks)
	return r
}

func doRequest(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	body := map[string]json.RawMessage{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestStartAndStatus(t *testing.T) {
	uc := &fakeRankUsecase{}
	r := newTestRouter(uc)

	w := doRequest(r, http.MethodPost, "/api/rank/sessions/pl1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pl1", uc.playlistID)

	body := decodeBody(t, w)
	var status scene_rank_models.SessionStatus
	require.NoError(t, json.Unmarshal(body["session"], &status))
	assert.Equal(t, scene_rank_models.SessionStateAwaitingChoice, status.State)
	require.NotNil(t, status.Pending)
	assert.Equal(t, "a", status.Pending.Left.ID)

	w = doRequest(r, http.MethodGet, "/api/rank/sessions/default", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pl-default", uc.playlistID)
}

func TestChoose(t *testing.T) {
	uc := &fakeRankUsecase{}
	r := newTestRouter(uc)

	w := doRequest(r, http.MethodPost, "/api/rank/sessions/pl1/choose", `{"song_id":"b"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "b", uc.songID)

	w = doRequest(r, http.MethodPost, "/api/rank/sessions/pl1/choose", `{"side":"left"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "left", uc.side)

	for _, body := range []string{`{}`, `{"song_id":"a","side":"left"}`, `not json`} {
		w = doRequest(r, http.MethodPost, "/api/rank/sessions/pl1/choose", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestUndoResetResultRanks(t *testing.T) {
	uc := &fakeRankUsecase{}
	r := newTestRouter(uc)

	w := doRequest(r, http.MethodPost, "/api/rank/sessions/pl1/undo", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, uc.undone)

	w = doRequest(r, http.MethodDelete, "/api/rank/sessions/pl1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, uc.reset)

	w = doRequest(r, http.MethodGet, "/api/rank/sessions/pl1/result?search=zhou", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "zhou", uc.search)
	var songs []scene_rank_models.Song
	require.NoError(t, json.Unmarshal(decodeBody(t, w)["songs"], &songs))
	assert.Equal(t, []string{"b", "a"}, []string{songs[0].ID, songs[1].ID})

	w = doRequest(r, http.MethodGet, "/api/rank/sessions/pl1/ranks", "")
	require.Equal(t, http.StatusOK, w.Code)
	var ranks []scene_rank_models.RankEntry
	require.NoError(t, json.Unmarshal(decodeBody(t, w)["ranks"], &ranks))
	require.Len(t, ranks, 2)
	assert.Equal(t, 2, ranks[0].Rank)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{scene_rank_interface.ErrSessionNotFound, http.StatusNotFound, "SESSION_NOT_FOUND"},
		{scene_rank_interface.ErrPlaylistNotFound, http.StatusNotFound, "PLAYLIST_NOT_FOUND"},
		{scene_rank_interface.ErrSessionNotComplete, http.StatusConflict, "SESSION_NOT_COMPLETE"},
		{scene_rank_interface.ErrNoPendingChoice, http.StatusConflict, "NO_PENDING_CHOICE"},
		{scene_rank_interface.ErrNothingToUndo, http.StatusConflict, "NOTHING_TO_UNDO"},
		{scene_rank_interface.ErrInvalidChoice, http.StatusBadRequest, "INVALID_CHOICE"},
		{scene_rank_interface.ErrInvalidSide, http.StatusBadRequest, "INVALID_SIDE"},
		{fmt.Errorf("%w: duplicate", scene_rank_interface.ErrInvalidCatalog), http.StatusBadRequest, "INVALID_CATALOG"},
		{fmt.Errorf("%w: timeout", scene_rank_interface.ErrCatalogUnavailable), http.StatusBadGateway, "CATALOG_UNAVAILABLE"},
		{fmt.Errorf("boom"), http.StatusInternalServerError, "SERVER_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			r := newTestRouter(&fakeRankUsecase{err: tt.err})
			w := doRequest(r, http.MethodGet, "/api/rank/sessions/pl1/result", "")
			require.Equal(t, tt.status, w.Code)

			var code string
			require.NoError(t, json.Unmarshal(decodeBody(t, w)["code"], &code))
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestLogin(t *testing.T) {
	hash, err := tokenutil.HashAccessKey("open sesame")
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	lc := &LoginController{AccessKeyHash: hash, AccessTokenSecret: "secret", AccessTokenExpiry: time.Hour}
	r := gin.New()
	r.POST("/api/login", lc.Login)

	w := doRequest(r, http.MethodPost, "/api/login", `{"access_key":"open sesame"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var resp LoginResponse
	require.NoError(t, json.Unmarshal(decodeBody(t, w)["login"], &resp))
	ok, err := tokenutil.IsAuthorized(resp.AccessToken, "secret")
	require.NoError(t, err)
	assert.True(t, ok)

	w = doRequest(r, http.MethodPost, "/api/login", `{"access_key":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(r, http.MethodPost, "/api/login", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
