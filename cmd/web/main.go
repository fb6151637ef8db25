package main

import (
	"github.com/kataras/iris/v12"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/TORY-SKY/swappNaija/internal/config"
	"github.com/TORY-SKY/swappNaija/internal/infra/log"
	"github.com/TORY-SKY/swappNaija/internal/server"
)

func main() {
	log.Init(viper.GetBool("debug"))

	cfg, err := config.Load("./config")
	if err != nil {
		zap.L().Fatal("load config failed", zap.Error(err))
	}

	app := iris.New()
	server.RegisterRoutes(app, cfg)

	zap.L().Info("marketplace api listening", zap.String("addr", cfg.Server.Addr()))
	if err := app.Listen(cfg.Server.Addr(), iris.WithoutServerError(iris.ErrServerClosed)); err != nil {
		zap.L().Fatal("app run failed", zap.Error(err))
	}
}
