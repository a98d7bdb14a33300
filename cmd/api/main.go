package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ecosol/internal/core/auth"
	"ecosol/internal/core/cache"
	"ecosol/internal/core/config"
	"ecosol/internal/core/database"
	"ecosol/internal/core/logger"
	"ecosol/internal/core/mail"
	"ecosol/internal/core/server"
	"ecosol/internal/repo"
	"ecosol/internal/service"
	"ecosol/internal/transport/http/handler"
	"ecosol/internal/transport/http/router"
)

func main() {
	_ = godotenv.Load()
	cfg := config.MustLoad(os.Getenv("CONFIG_PATH"))
	log, cleanup := logger.New(logger.Options{
		Level: cfg.Log.Level, JSON: cfg.Log.JSON, File: cfg.Log.File,
		MaxSizeMB: cfg.Log.MaxSizeMB, MaxBackups: cfg.Log.MaxBackups, MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress: cfg.Log.Compress,
	})
	defer cleanup()
	defer logger.RedirectStdLog(log)()

	// 数据库（失败会直接 Fatal）
	db := mustOpenDB(cfg, log)
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))

	// 自动迁移
	if cfg.DB.AutoMigrate {
		if err := repo.AutoMigrate(db); err != nil {
			log.Fatal("automigrate failed", zap.Error(err))
		}
		log.Info("automigrate done")
	}

	// Redis：refresh token 与分类计数缓存
	rc := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 3*time.Second)
	if err := rc.Ping(pingCtx); err != nil {
		log.Warn("redis unreachable, sessions cannot be refreshed until it recovers", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
	}
	cancelPing()

	// 邮件
	var sender mail.Sender = mail.LogSender{Log: log}
	if cfg.Mail.Host != "" {
		sender = mail.NewSMTPSender(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.Username, cfg.Mail.Password, cfg.Mail.From)
	}
	notifier := mail.NewNotifier(mail.Options{
		Sender: sender, Workers: cfg.Mail.Workers, Queue: cfg.Mail.Queue, BaseURL: cfg.App.BaseURL,
		ResetTTL: cfg.Auth.ResetTTL(), Log: log,
	})

	// 身份提供方
	provider := auth.NewProvider(auth.Options{
		Accounts: repo.NewAccountRepo(db),
		JWT: &auth.JWTer{
			Secret: []byte(cfg.Auth.Secret),
			Issuer: cfg.Auth.Issuer,
			TTL:    cfg.Auth.AccessTTL(),
		},
		Tokens:        auth.NewTokenStore(rc.RDB, cfg.Auth.RefreshTTL(), cfg.Auth.ResetTTL()),
		Cookies:       auth.CookieConfig{Domain: cfg.Auth.CookieDomain, Secure: cfg.Auth.CookieSecure},
		RefreshTTL:    cfg.Auth.RefreshTTL(),
		RefreshWindow: cfg.Auth.RefreshWindow(),
		OnReset:       notifier.PasswordReset,
		Log:           log,
	})

	// 依赖
	userRepo := repo.NewUserRepo(db)
	listingRepo := repo.NewListingRepo(db)
	users := service.NewUserService(userRepo, log)
	authz := service.NewAuthorizer(userRepo)
	notes := service.NewNotificationService(repo.NewNotificationRepo(db), listingRepo, log)
	listings := service.NewManager(service.ManagerOptions{
		Listings: listingRepo, Users: userRepo, Cache: rc, CategoryTTL: cfg.Cache.CategoryTTL(),
		Mailer: notifier, Log: log,
	})

	// 路由
	r := router.NewEngine(router.Options{
		Log:         log,
		Limits:      cfg.Limits,
		CORSOrigins: cfg.App.CORSOrigins,
		Sessions:    provider,
		Authz:       authz,
		Modules: []any{
			handler.NewAuthHandler(provider, users, log),
			handler.NewListingHandler(listings, notes),
			handler.NewMeHandler(users, notes),
			handler.NewAdminHandler(listings),
			handler.NewPageHandler(handler.PageOptions{
				Listings: listings, Users: users, Notifications: notes, Authz: authz, Log: log,
			}),
		},
	})

	// HTTP Server
	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
	)

	// 启动日志
	host4human := cfg.App.HTTP.Host
	if host4human == "" || host4human == "0.0.0.0" {
		host4human = "127.0.0.1"
	}
	baseURL := "http://" + host4human + ":" + fmt.Sprint(cfg.App.HTTP.Port)
	log.Info("ecosol starting",
		zap.String("addr", addr),
		zap.String("env", cfg.App.Env),
		zap.String("open", baseURL),
		zap.String("health", baseURL+"/health"),
		zap.String("api_v1", baseURL+"/api/v1"),
	)

	// 异步启动
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("ecosol start FAILED", zap.Error(err))
		}
	}()
	log.Info("ecosol started SUCCESS")

	// 优雅关闭：先停 HTTP，再等邮件发完，最后关连接
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	notifier.Wait()
	if err := rc.Close(); err != nil {
		log.Warn("redis close", zap.Error(err))
	}
	if err := database.Close(db); err != nil {
		log.Warn("db close", zap.Error(err))
	}
	log.Info("ecosol stopped gracefully")
}

func mustOpenDB(cfg *config.Config, l *zap.Logger) *gorm.DB {
	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		ConnMaxIdleMin:     cfg.DB.ConnMaxIdleMin,
		LogLevel:           cfg.DB.LogLevel,
		Log:                l,
	})
	if err != nil {
		l.Fatal("db open", zap.Error(err))
	}
	return db
}
