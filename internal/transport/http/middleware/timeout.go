package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	resp "ecosol/internal/transport/http/response"
)

var httpTimeouts = prometheus.NewCounterVec(
	prometheus.CounterOpts{Name: "ecosol_http_timeouts_total", Help: "Requests whose deadline expired, by route"},
	[]string{"route"},
)

func init() { prometheus.MustRegister(httpTimeouts) }

// Timeout 请求上下文的截止时间，DB/Redis 调用都会继承。
// 到期且 handler 没写响应时回 504；已写出的响应保持原样，只记一次
func Timeout(d time.Duration, l *zap.Logger) gin.HandlerFunc {
	if d <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()

		if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		httpTimeouts.WithLabelValues(route).Inc()
		l.Warn("request deadline exceeded",
			zap.String("rid", c.GetString(KeyRequestID)),
			zap.String("route", route),
			zap.Duration("limit", d),
			zap.Bool("written", c.Writer.Written()),
		)
		if !c.Writer.Written() {
			resp.Abort(c, resp.CodeTimeout, "timeout")
		}
	}
}
