package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"
)

var ErrUnsupportedDriver = errors.New("unsupported db driver")

// 超过这个耗时的 SQL 以 warn 记录
const slowQuery = 200 * time.Millisecond

type Opts struct {
	Driver             string // postgres | mysql | sqlite
	DSN                string
	Username           string // 覆盖 URL 形式 DSN 里的账号
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	ConnMaxIdleMin     int
	LogLevel           string // silent | error | warn | info
	Log                *zap.Logger
}

// NewGorm 打开连接池并 ping 一次；SQL 日志走 zap
func NewGorm(o Opts) (*gorm.DB, error) {
	if o.Log == nil {
		o.Log = zap.NewNop()
	}
	dial, shown, err := dialector(o)
	if err != nil {
		return nil, err
	}
	o.Log.Info("db dialing", zap.String("driver", o.Driver), zap.String("dsn", shown))

	db, err := gorm.Open(dial, &gorm.Config{
		Logger: glogger.New(zap.NewStdLog(o.Log.Named("gorm")), glogger.Config{
			SlowThreshold:             slowQuery,
			LogLevel:                  gormLevel(o.LogLevel),
			IgnoreRecordNotFoundError: true,
		}),
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		CreateBatchSize:        200,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", o.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	maxOpen := o.MaxOpenConns
	if o.Driver == "sqlite" {
		// sqlite 单写者
		maxOpen = 1
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(o.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(o.ConnMaxLifetimeMin) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(o.ConnMaxIdleMin) * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s: %w", o.Driver, err)
	}
	return db, nil
}

// dialector 返回驱动以及脱敏后的 DSN（只用于日志）
func dialector(o Opts) (gorm.Dialector, string, error) {
	switch o.Driver {
	case "sqlite":
		return sqlite.Open(o.DSN), o.DSN, nil
	case "postgres":
		dsn := postgresDSN(o.DSN, o.Username, o.Password)
		return postgres.Open(dsn), maskDSN(dsn), nil
	case "mysql":
		dsn := normalizeMySQLDSN(o.DSN, o.Username, o.Password)
		return mysql.Open(dsn), maskDSN(dsn), nil
	}
	return nil, "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, o.Driver)
}

func gormLevel(s string) glogger.LogLevel {
	switch s {
	case "silent":
		return glogger.Silent
	case "error":
		return glogger.Error
	case "info":
		return glogger.Info
	}
	return glogger.Warn
}

// Close 关闭底层连接池
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
