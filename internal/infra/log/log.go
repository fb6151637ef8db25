package log

import (
	"sync"

	"go.uber.org/zap"
)

var once sync.Once

// Init 初始化全局 zap logger，之后通过 zap.L() 使用
func Init(debug bool) {
	once.Do(func() {
		var (
			logger *zap.Logger
			err    error
		)
		if debug {
			logger, err = zap.NewDevelopment()
		} else {
			logger, err = zap.NewProduction()
		}
		if err != nil {
			panic(err)
		}
		zap.ReplaceGlobals(logger)
	})
}
