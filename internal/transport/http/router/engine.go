package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"ecosol/internal/core/config"
	"ecosol/internal/core/server"
	"ecosol/internal/domain"
	"ecosol/internal/service"
	"ecosol/internal/transport/http/ez"
	mdw "ecosol/internal/transport/http/middleware"
	resp "ecosol/internal/transport/http/response"
)

type Options struct {
	Log         *zap.Logger
	Limits      config.Limits
	CORSOrigins []string
	Sessions    mdw.SessionProvider
	Authz       *service.Authorizer
	Modules     []any // handler，按实现的接口挂到 API / 页面 / 管理页面
}

func NewEngine(o Options) *gin.Engine {
	lim := withDefaults(o.Limits)
	timeout := time.Duration(lim.TimeoutSec) * time.Second

	// 中间件：会话守卫放最后，限流/超时先挡掉异常流量
	r := server.NewRouter(o.Log, o.CORSOrigins,
		mdw.RequestID(),
		mdw.RateLimit(rate.Limit(lim.GlobalRPS), lim.GlobalBurst),
		mdw.RateLimitPerIP(rate.Limit(lim.RPS), lim.Burst),
		mdw.ConcurrencyLimit(lim.MaxConcurrent, time.Second),
		mdw.MaxBodyBytes(lim.MaxBodyBytes),
		mdw.Timeout(timeout, o.Log),
		mdw.Recovery(o.Log),
		mdw.Metrics(),
		mdw.AccessLog(o.Log),
		mdw.NewSessionGuard(o.Sessions, o.Log).Middleware(),
	)

	// 健康检查 / 指标
	r.GET("/health", func(c *gin.Context) { resp.Write(c, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.NoRoute(func(c *gin.Context) { resp.Abort(c, resp.CodeNotFound, "") })

	reg := &Registry{}
	reg.Register(o.Modules...)

	// 前缀
	reg.MountAPI(ez.New(r.Group("/api/v1"), o.Authz))

	// 页面：/profile /submit 的登录检查已在会话守卫完成
	reg.MountPages(&r.RouterGroup)

	// 管理页面：每次请求重新查角色
	admin := r.Group("/admin", mdw.RequireRolePage(o.Authz, domain.RoleAdmin, o.Log))
	reg.MountAdminPages(admin)

	return r
}

// withDefaults 未配置的限额按保守值兜底，0 会挡掉所有请求
func withDefaults(l config.Limits) config.Limits {
	if l.RPS <= 0 {
		l.RPS, l.Burst = 20, 40
	}
	if l.GlobalRPS <= 0 {
		l.GlobalRPS, l.GlobalBurst = 200, 400
	}
	if l.MaxConcurrent <= 0 {
		l.MaxConcurrent = 256
	}
	if l.MaxBodyBytes <= 0 {
		l.MaxBodyBytes = 1 << 20
	}
	if l.TimeoutSec <= 0 {
		l.TimeoutSec = 15
	}
	return l
}
