package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ecosol/internal/core/auth"
	"ecosol/internal/core/metrics"
	"ecosol/internal/domain"
)

// ProtectedPrefixes 未登录访问会被带回登录页
var ProtectedPrefixes = []string{"/profile", "/admin", "/submit"}

type SessionProvider interface {
	ValidateAndRefresh(ctx context.Context, cookies []*http.Cookie) (auth.Session, error)
}

// Decision 守卫的完整输出；Cookies 需同时写回请求和响应
type Decision struct {
	Identity *domain.Identity
	Redirect string
	Cookies  []*http.Cookie
	Err      error
}

type SessionGuard struct {
	provider SessionProvider
	log      *zap.Logger
}

func NewSessionGuard(p SessionProvider, l *zap.Logger) *SessionGuard {
	return &SessionGuard{provider: p, log: l}
}

// Resolve 不做角色查询；身份提供方出错时受保护路径按未登录处理
func (g *SessionGuard) Resolve(ctx context.Context, path, rawQuery string, cookies []*http.Cookie) Decision {
	s, err := g.provider.ValidateAndRefresh(ctx, cookies)
	d := Decision{Identity: s.Identity, Cookies: s.Cookies, Err: err}
	if err != nil {
		d.Identity, d.Cookies = nil, nil
	}

	outcome := "anonymous"
	switch {
	case d.Identity == nil && IsProtected(path):
		d.Redirect = LoginRedirect(path, rawQuery)
		outcome = "login_redirect"
	case d.Identity != nil && path == "/login":
		d.Redirect = "/profile"
		outcome = "profile_redirect"
	case d.Identity != nil:
		outcome = "authenticated"
	}
	if err != nil {
		outcome = "provider_error"
	}
	metrics.SessionResolutions.WithLabelValues(outcome).Inc()
	return d
}

func (g *SessionGuard) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		d := g.Resolve(c.Request.Context(), c.Request.URL.Path, c.Request.URL.RawQuery, c.Request.Cookies())
		if d.Err != nil {
			g.log.Warn("session provider failed", zap.String("path", c.Request.URL.Path), zap.Error(d.Err))
		}
		ApplyCookies(c.Writer, c.Request, d.Cookies)
		if d.Identity != nil {
			c.Set(KeyIdentity, d.Identity)
		}
		if d.Redirect != "" {
			c.Redirect(http.StatusTemporaryRedirect, d.Redirect)
			c.Abort()
			return
		}
		c.Next()
	}
}

func IsProtected(path string) bool {
	for _, p := range ProtectedPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// LoginRedirect /login?next=<原路径>，斜杠保持原样
func LoginRedirect(path, rawQuery string) string {
	next := path
	if rawQuery != "" {
		next += "?" + rawQuery
	}
	return "/login?next=" + strings.ReplaceAll(url.QueryEscape(next), "%2F", "/")
}

// ApplyCookies 同时写 Set-Cookie 和转发请求的 Cookie 头
func ApplyCookies(w http.ResponseWriter, r *http.Request, muts []*http.Cookie) {
	if len(muts) == 0 {
		return
	}
	for _, ck := range muts {
		http.SetCookie(w, ck)
	}

	changed := make(map[string]*http.Cookie, len(muts))
	for _, ck := range muts {
		changed[ck.Name] = ck
	}
	var parts []string
	for _, ck := range r.Cookies() {
		if _, ok := changed[ck.Name]; ok {
			continue
		}
		parts = append(parts, ck.Name+"="+ck.Value)
	}
	for _, ck := range muts {
		if ck.MaxAge < 0 || ck.Value == "" {
			continue
		}
		parts = append(parts, ck.Name+"="+ck.Value)
	}
	if len(parts) == 0 {
		r.Header.Del("Cookie")
		return
	}
	r.Header.Set("Cookie", strings.Join(parts, "; "))
}
