package main

import (
	"github.com/kataras/iris/v12"
	"go.uber.org/zap"

	"github.com/TORY-SKY/swappNaija/internal/config"
	"github.com/TORY-SKY/swappNaija/internal/infra/log"
	"github.com/TORY-SKY/swappNaija/internal/server"
)

func main() {
	log.Init(false)

	cfg, err := config.Load("./config")
	if err != nil {
		zap.L().Fatal("load config failed", zap.Error(err))
	}

	app := iris.New()
	server.RegisterAdminRoutes(app, cfg)

	zap.L().Info("admin api listening", zap.String("addr", cfg.AdminServer.Addr()))
	if err := app.Listen(cfg.AdminServer.Addr(), iris.WithoutServerError(iris.ErrServerClosed)); err != nil {
		zap.L().Fatal("admin run failed", zap.Error(err))
	}
}
