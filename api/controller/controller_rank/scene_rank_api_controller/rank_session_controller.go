package scene_rank_api_controller

import (
	"errors"
	"net/http"

	"github.com/Super-Badmen-Viper/songrank/api/controller"
	"github.com/Super-Badmen-Viper/songrank/domain/domain_rank/scene_rank_interface"
	"github.com/Super-Badmen-Viper/songrank/domain/domain_rank/scene_rank_models"
	"github.com/gin-gonic/gin"
)

// DefaultPlaylistAlias 路径中使用该别名时替换为配置的默认歌单
const DefaultPlaylistAlias = "default"

type RankSessionController struct {
	RankSessionUsecase scene_rank_interface.RankSessionUsecase
	DefaultPlaylistID  string
}

func NewRankSessionController(uc scene_rank_interface.RankSessionUsecase, defaultPlaylistID string) *RankSessionController {
	return &RankSessionController{RankSessionUsecase: uc, DefaultPlaylistID: defaultPlaylistID}
}

func (c *RankSessionController) playlistID(ctx *gin.Context) (string, bool) {
	id := ctx.Param("playlist_id")
	if id == DefaultPlaylistAlias && c.DefaultPlaylistID != "" {
		id = c.DefaultPlaylistID
	}
	if id == "" || id == DefaultPlaylistAlias {
		controller.ErrorResponse(ctx, http.StatusBadRequest, "INVALID_PARAMETERS", "缺少必要参数: playlist_id")
		return "", false
	}
	return id, true
}

func (c *RankSessionController) StartSession(ctx *gin.Context) {
	playlistID, ok := c.playlistID(ctx)
	if !ok {
		return
	}
	status, err := c.RankSessionUsecase.StartSession(ctx.Request.Context(), playlistID)
	if err != nil {
		rankErrorResponse(ctx, err)
		return
	}
	controller.SuccessResponse(ctx, "session", status, status.SongCount)
}

func (c *RankSessionController) GetStatus(ctx *gin.Context) {
	playlistID, ok := c.playlistID(ctx)
	if !ok {
		return
	}
	status, err := c.RankSessionUsecase.GetStatus(ctx.Request.Context(), playlistID)
	if err != nil {
		rankErrorResponse(ctx, err)
		return
	}
	controller.SuccessResponse(ctx, "session", status, status.SongCount)
}

// Choose 请求体二选一：song_id 为胜者 ID，side 为 left 或 right
func (c *RankSessionController) Choose(ctx *gin.Context) {
	playlistID, ok := c.playlistID(ctx)
	if !ok {
		return
	}

	var req struct {
		SongID string `json:"song_id" form:"song_id"`
		Side   string `json:"side" form:"side"`
	}
	if err := ctx.ShouldBind(&req); err != nil {
		controller.ErrorResponse(ctx, http.StatusBadRequest, "INVALID_PARAMETERS", err.Error())
		return
	}
	if (req.SongID == "") == (req.Side == "") {
		controller.ErrorResponse(ctx, http.StatusBadRequest, "INVALID_PARAMETERS", "song_id 与 side 必须且只能提供一个")
		return
	}

	var (
		status *scene_rank_models.SessionStatus
		err    error
	)
	if req.SongID != "" {
		status, err = c.RankSessionUsecase.Choose(ctx.Request.Context(), playlistID, req.SongID)
	} else {
		status, err = c.RankSessionUsecase.ChooseSide(ctx.Request.Context(), playlistID, req.Side)
	}
	if err != nil {
		rankErrorResponse(ctx, err)
		return
	}
	controller.SuccessResponse(ctx, "session", status, status.SongCount)
}

func (c *RankSessionController) Undo(ctx *gin.Context) {
	playlistID, ok := c.playlistID(ctx)
	if !ok {
		return
	}
	status, err := c.RankSessionUsecase.Undo(ctx.Request.Context(), playlistID)
	if err != nil {
		rankErrorResponse(ctx, err)
		return
	}
	controller.SuccessResponse(ctx, "session", status, status.SongCount)
}

func (c *RankSessionController) Reset(ctx *gin.Context) {
	playlistID, ok := c.playlistID(ctx)
	if !ok {
		return
	}
	if err := c.RankSessionUsecase.Reset(ctx.Request.Context(), playlistID); err != nil {
		rankErrorResponse(ctx, err)
		return
	}
	controller.SuccessResponse(ctx, "playlist_id", playlistID, 0)
}

func (c *RankSessionController) GetResult(ctx *gin.Context) {
	playlistID, ok := c.playlistID(ctx)
	if !ok {
		return
	}
	songs, err := c.RankSessionUsecase.GetResult(ctx.Request.Context(), playlistID, ctx.Query("search"))
	if err != nil {
		rankErrorResponse(ctx, err)
		return
	}
	controller.SuccessResponse(ctx, "songs", songs, len(songs))
}

func (c *RankSessionController) GetRanks(ctx *gin.Context) {
	playlistID, ok := c.playlistID(ctx)
	if !ok {
		return
	}
	ranks, err := c.RankSessionUsecase.GetRanks(ctx.Request.Context(), playlistID)
	if err != nil {
		rankErrorResponse(ctx, err)
		return
	}
	controller.SuccessResponse(ctx, "ranks", ranks, len(ranks))
}

func rankErrorResponse(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, scene_rank_interface.ErrSessionNotFound):
		controller.ErrorResponse(ctx, http.StatusNotFound, "SESSION_NOT_FOUND", err.Error())
	case errors.Is(err, scene_rank_interface.ErrPlaylistNotFound):
		controller.ErrorResponse(ctx, http.StatusNotFound, "PLAYLIST_NOT_FOUND", err.Error())
	case errors.Is(err, scene_rank_interface.ErrSessionNotComplete):
		controller.ErrorResponse(ctx, http.StatusConflict, "SESSION_NOT_COMPLETE", err.Error())
	case errors.Is(err, scene_rank_interface.ErrNoPendingChoice):
		controller.ErrorResponse(ctx, http.StatusConflict, "NO_PENDING_CHOICE", err.Error())
	case errors.Is(err, scene_rank_interface.ErrNothingToUndo):
		controller.ErrorResponse(ctx, http.StatusConflict, "NOTHING_TO_UNDO", err.Error())
	case errors.Is(err, scene_rank_interface.ErrInvalidChoice):
		controller.ErrorResponse(ctx, http.StatusBadRequest, "INVALID_CHOICE", err.Error())
	case errors.Is(err, scene_rank_interface.ErrInvalidSide):
		controller.ErrorResponse(ctx, http.StatusBadRequest, "INVALID_SIDE", err.Error())
	case errors.Is(err, scene_rank_interface.ErrInvalidCatalog):
		controller.ErrorResponse(ctx, http.StatusBadRequest, "INVALID_CATALOG", err.Error())
	case errors.Is(err, scene_rank_interface.ErrCatalogUnavailable):
		controller.ErrorResponse(ctx, http.StatusBadGateway, "CATALOG_UNAVAILABLE", err.Error())
	default:
		controller.ErrorResponse(ctx, http.StatusInternalServerError, "SERVER_ERROR", err.Error())
	}
}
