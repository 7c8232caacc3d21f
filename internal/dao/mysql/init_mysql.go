// Package mysql 负责建立数据库连接、自动迁移表结构、初始化 Repository 层
// 默认使用 MySQL，配置 driver = "postgres" 时切换到 PostgreSQL（pgx）
package mysql

import (
	"fmt"
	"time"

	"kama_chat_hub/internal/config"
	"kama_chat_hub/internal/dao/mysql/repository"
	"kama_chat_hub/internal/model"

	"go.uber.org/zap"
	mysqldriver "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Init 建立连接并迁移，返回 Repository 聚合与底层 *gorm.DB
func Init(conf *config.DatabaseConfig) (*repository.Repositories, *gorm.DB, error) {
	dialector, err := Dialector(conf)
	if err != nil {
		return nil, nil, err
	}
	db, err := Open(dialector)
	if err != nil {
		return nil, nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}
	if conf.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(conf.MaxOpenConns)
	}
	if conf.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(conf.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	zap.L().Info("database connected", zap.String("driver", conf.Driver), zap.String("database", conf.DatabaseName))
	return repository.NewRepositories(db), db, nil
}

// Dialector 根据配置构建 DSN 与 GORM 驱动
func Dialector(conf *config.DatabaseConfig) (gorm.Dialector, error) {
	switch conf.Driver {
	case "", "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			conf.User, conf.Password, conf.Host, conf.Port, conf.DatabaseName)
		return mysqldriver.Open(dsn), nil
	case "postgres":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable TimeZone=Asia/Shanghai",
			conf.Host, conf.Port, conf.User, conf.Password, conf.DatabaseName)
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", conf.Driver)
	}
}

// Open 打开连接并执行 AutoMigrate
// TranslateError 让唯一索引冲突以 gorm.ErrDuplicatedKey 返回
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err = db.AutoMigrate(model.Tables()...); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return db, nil
}
