package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Super-Badmen-Viper/songrank/api/route"
	"github.com/Super-Badmen-Viper/songrank/bootstrap"
	"github.com/Super-Badmen-Viper/songrank/internal/logging"
	"github.com/gin-gonic/gin"
)

func main() {
	app, err := bootstrap.App()
	if err != nil {
		logging.Fatal().Err(err).Msg("应用初始化失败")
	}
	env := app.Env

	if env.AppEnv != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	route.Setup(app, engine)

	server := &http.Server{
		Addr:              env.ServerAddress,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logging.Info().Str("addr", env.ServerAddress).Msg("服务启动")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error().Err(err).Msg("服务异常退出")
			stop()
		}
	}()

	<-ctx.Done()
	logging.Info().Msg("正在关闭服务")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(env.ContextTimeout)*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("HTTP 服务关闭超时")
	}
	if err := app.Close(); err != nil {
		logging.Error().Err(err).Msg("释放资源失败")
	}
	logging.Info().Msg("服务已停止")
}
