package mysql

import (
	"sync"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/TORY-SKY/swappNaija/internal/config"
	"github.com/TORY-SKY/swappNaija/internal/datamodels/order"
	"github.com/TORY-SKY/swappNaija/internal/datamodels/payout"
	"github.com/TORY-SKY/swappNaija/internal/datamodels/product"
	"github.com/TORY-SKY/swappNaija/internal/datamodels/user"
)

var (
	db   *gorm.DB
	once sync.Once
)

// Init 初始化全局 GORM 实例并自动迁移表结构
func Init(cfg *config.MySQLConfig) *gorm.DB {
	once.Do(func() {
		var err error
		db, err = gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{})
		if err != nil {
			zap.L().Fatal("failed to connect mysql", zap.Error(err))
		}

		if err = AutoMigrate(db); err != nil {
			zap.L().Fatal("auto migrate failed", zap.Error(err))
		}
	})
	return db
}

// AutoMigrate 迁移全部业务表，测试里也会用到
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&user.User{},
		&product.Product{},
		&order.Order{},
		&payout.Payout{},
	)
}

// DB 获取全局 DB
func DB() *gorm.DB {
	return db
}
