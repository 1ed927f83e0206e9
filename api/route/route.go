package route

import (
	"net/http"
	"time"

	"github.com/Super-Badmen-Viper/songrank/api/controller/controller_rank/scene_rank_api_controller"
	"github.com/Super-Badmen-Viper/songrank/api/middleware"
	"github.com/Super-Badmen-Viper/songrank/api/route/route_rank/scene_rank_api_route"
	"github.com/Super-Badmen-Viper/songrank/bootstrap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func Setup(app *bootstrap.Application, engine *gin.Engine) {
	env := app.Env
	engine.Use(middleware.MetricsMiddleware())

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	engine.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	publicRouter := engine.Group("/api")
	scene_rank_api_route.NewLoginRouter(&scene_rank_api_controller.LoginController{
		AccessKeyHash:     env.AccessKeyHash,
		AccessTokenSecret: env.AccessTokenSecret,
		AccessTokenExpiry: time.Duration(env.AccessTokenExpiryHour) * time.Hour,
	}, publicRouter)

	protectedRouter := engine.Group("/api")
	protectedRouter.Use(middleware.JwtAuthMiddleware(env.AccessTokenSecret))
	scene_rank_api_route.NewRankSessionRouter(app.RankUsecase, env.DefaultPlaylistID, protectedRouter)
}
