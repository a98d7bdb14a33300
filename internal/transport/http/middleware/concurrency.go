package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"

	resp "ecosol/internal/transport/http/response"
)

// ConcurrencyLimit 同时处理的请求数上限；排队超过 wait 直接回 503
func ConcurrencyLimit(max int64, wait time.Duration) gin.HandlerFunc {
	sem := semaphore.NewWeighted(max)
	return func(c *gin.Context) {
		if !sem.TryAcquire(1) {
			ctx, cancel := context.WithTimeout(c.Request.Context(), wait)
			err := sem.Acquire(ctx, 1)
			cancel()
			if err != nil {
				resp.Abort(c, resp.CodeUnavailable, "server busy")
				return
			}
		}
		defer sem.Release(1)
		c.Next()
	}
}
