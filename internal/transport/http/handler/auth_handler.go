package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ecosol/internal/core/auth"
	"ecosol/internal/domain"
	"ecosol/internal/service"
	"ecosol/internal/transport/http/ez"
)

type AuthHandler struct {
	provider *auth.Provider
	users    *service.UserService
	log      *zap.Logger
}

func NewAuthHandler(p *auth.Provider, users *service.UserService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{provider: p, users: users, log: log}
}

func (h *AuthHandler) Priority() int { return 10 }

type credentialsIn struct {
	Email    string `json:"email"    binding:"required"`
	Password string `json:"password" binding:"required"`
	Next     string `json:"next"`
}

type sessionOut struct {
	ID    string      `json:"id"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role,omitempty"`
	Next  string      `json:"next"`
}

func (h *AuthHandler) MountAPI(e ez.EZ) {
	a := e.Group("/auth")

	// --- POST /auth/signup 注册并直接登录 ---
	ez.RegisterAction(a, ez.Action[credentialsIn, sessionOut]{
		Method: http.MethodPost,
		Path:   "/signup",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, _ domain.Caller, in *credentialsIn) (sessionOut, error) {
			s, err := h.provider.SignUp(c.Request.Context(), in.Email, in.Password)
			if err != nil {
				return sessionOut{}, err
			}
			return h.established(c, s, in.Next), nil
		},
	})

	// --- POST /auth/login ---
	ez.RegisterAction(a, ez.Action[credentialsIn, sessionOut]{
		Method: http.MethodPost,
		Path:   "/login",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, _ domain.Caller, in *credentialsIn) (sessionOut, error) {
			s, err := h.provider.SignIn(c.Request.Context(), in.Email, in.Password)
			if err != nil {
				return sessionOut{}, err
			}
			return h.established(c, s, in.Next), nil
		},
	})

	// --- POST /auth/logout 无会话也返回成功 ---
	ez.RegisterAction(a, ez.Action[struct{}, gin.H]{
		Method: http.MethodPost,
		Path:   "/logout",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ domain.Caller, _ *struct{}) (gin.H, error) {
			setCookies(c, h.provider.SignOut(c.Request.Context(), c.Request.Cookies()))
			return gin.H{"next": "/"}, nil
		},
	})

	type forgotIn struct {
		Email string `json:"email" binding:"required"`
	}
	// --- POST /auth/password/forgot 不区分邮箱是否存在 ---
	ez.RegisterAction(a, ez.Action[forgotIn, gin.H]{
		Method: http.MethodPost,
		Path:   "/password/forgot",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, _ domain.Caller, in *forgotIn) (gin.H, error) {
			if err := h.provider.RequestPasswordReset(c.Request.Context(), in.Email); err != nil {
				return nil, err
			}
			return gin.H{"sent": true}, nil
		},
	})

	type resetIn struct {
		Token    string `json:"token"    binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	// --- POST /auth/password/reset 成功后所有会话失效 ---
	ez.RegisterAction(a, ez.Action[resetIn, gin.H]{
		Method: http.MethodPost,
		Path:   "/password/reset",
		Binder: ez.BindJSON,
		Handler: func(c *gin.Context, _ domain.Caller, in *resetIn) (gin.H, error) {
			if err := h.provider.ResetPassword(c.Request.Context(), in.Token, in.Password); err != nil {
				return nil, err
			}
			return gin.H{"next": "/login"}, nil
		},
	})
}

// established 写 cookie 并确保 users 行存在；建行失败不影响登录
func (h *AuthHandler) established(c *gin.Context, s auth.Session, next string) sessionOut {
	setCookies(c, s.Cookies)
	out := sessionOut{ID: s.Identity.ID, Email: s.Identity.Email, Next: safeNext(next)}
	u, err := h.users.EnsureUser(c.Request.Context(), s.Identity.Email)
	if err != nil {
		h.log.Warn("ensure user row", zap.String("email", s.Identity.Email), zap.Error(err))
		return out
	}
	out.Role = u.Role
	return out
}
