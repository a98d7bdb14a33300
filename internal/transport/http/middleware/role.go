package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ecosol/internal/domain"
)

type RoleChecker interface {
	RequireRole(ctx context.Context, id *domain.Identity, role domain.Role) (bool, error)
}

// RequireRolePage 页面路由的角色检查，不满足时回到 /profile；每次请求都查库
func RequireRolePage(rc RoleChecker, role domain.Role, l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := Identity(c)
		if id == nil {
			c.Redirect(http.StatusTemporaryRedirect, LoginRedirect(c.Request.URL.Path, c.Request.URL.RawQuery))
			c.Abort()
			return
		}
		ok, err := rc.RequireRole(c.Request.Context(), id, role)
		if err != nil {
			l.Warn("role lookup failed", zap.String("email", id.Email), zap.Error(err))
		}
		if !ok {
			c.Redirect(http.StatusTemporaryRedirect, "/profile")
			c.Abort()
			return
		}
		c.Next()
	}
}
