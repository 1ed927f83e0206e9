package scene_rank_api_route

import (
	"github.com/Super-Badmen-Viper/songrank/api/controller/controller_rank/scene_rank_api_controller"
	"github.com/Super-Badmen-Viper/songrank/domain/domain_rank/scene_rank_interface"
	"github.com/gin-gonic/gin"
)

// NewRankSessionRouter 会话在用例中常驻，所有请求共用同一个用例实例
func NewRankSessionRouter(
	usecase scene_rank_interface.RankSessionUsecase,
	defaultPlaylistID string,
	group *gin.RouterGroup,
) {
	ctrl := scene_rank_api_controller.NewRankSessionController(usecase, defaultPlaylistID)

	sessionGroup := group.Group("/rank/sessions/:playlist_id")
	{
		sessionGroup.POST("", ctrl.StartSession)
		sessionGroup.GET("", ctrl.GetStatus)
		sessionGroup.DELETE("", ctrl.Reset)
		sessionGroup.POST("/choose", ctrl.Choose)
		sessionGroup.POST("/undo", ctrl.Undo)
		sessionGroup.GET("/result", ctrl.GetResult)
		sessionGroup.GET("/ranks", ctrl.GetRanks)
	}
}

func NewLoginRouter(ctrl *scene_rank_api_controller.LoginController, group *gin.RouterGroup) {
	group.POST("/login", ctrl.Login)
}
