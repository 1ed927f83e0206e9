package scene_rank_api_controller

import (
	"net/http"
	"time"

	"github.com/Super-Badmen-Viper/songrank/api/controller"
	"github.com/Super-Badmen-Viper/songrank/internal/logging"
	"github.com/Super-Badmen-Viper/songrank/internal/tokenutil"
	"github.com/gin-gonic/gin"
)

// LoginController 用访问密钥换取 JWT，替代网页端的访问口令提示
type LoginController struct {
	AccessKeyHash     string
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
}

type LoginRequest struct {
	AccessKey string `json:"access_key" form:"access_key" binding:"required"`
}

type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (lc *LoginController) Login(ctx *gin.Context) {
	var req LoginRequest
	if err := ctx.ShouldBind(&req); err != nil {
		controller.ErrorResponse(ctx, http.StatusBadRequest, "INVALID_PARAMETERS", "缺少必要参数: access_key")
		return
	}

	if !tokenutil.CheckAccessKey(lc.AccessKeyHash, req.AccessKey) {
		logging.Warn().Str("client_ip", ctx.ClientIP()).Msg("访问密钥校验失败")
		controller.ErrorResponse(ctx, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid access key")
		return
	}

	expiresAt := time.Now().Add(lc.AccessTokenExpiry)
	token, err := tokenutil.CreateAccessToken("listener", lc.AccessTokenSecret, lc.AccessTokenExpiry)
	if err != nil {
		controller.ErrorResponse(ctx, http.StatusInternalServerError, "SERVER_ERROR", err.Error())
		return
	}

	controller.SuccessResponse(ctx, "login", LoginResponse{AccessToken: token, ExpiresAt: expiresAt}, 1)
}
