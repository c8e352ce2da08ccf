package database

import (
	"fmt"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"github.com/hbulgarini/imbue/internal/config"
	"github.com/hbulgarini/imbue/internal/model"
)

// Models 读模型表
var Models = []interface{}{
	&model.ProjectModel{},
	&model.ProjectMilestoneModel{},
	&model.ContributeRecordModel{},
	&model.RefundRecordModel{},
	&model.WithdrawalRecordModel{},
	&model.EventModel{},
}

// DSN 由配置拼接 postgres 连接串
func DSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
}

// Init 连接读模型数据库并自动迁移
func Init(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(DSN(cfg)), Config())
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	// 自动迁移
	if err := db.AutoMigrate(Models...); err != nil {
		return nil, errors.Wrap(err, "failed to migrate database")
	}

	return db, nil
}

// Config gorm 配置，测试中与 sqlmock 共用
func Config() *gorm.Config {
	return &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent), // 禁用 GORM 的默认日志输出
		NamingStrategy: &schema.NamingStrategy{
			SingularTable: true, // 禁用复数表名
		},
	}
}
