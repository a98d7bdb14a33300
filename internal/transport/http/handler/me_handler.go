package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ecosol/internal/domain"
	"ecosol/internal/service"
	"ecosol/internal/transport/http/ez"
)

type MeHandler struct {
	users *service.UserService
	notes *service.NotificationService
}

func NewMeHandler(users *service.UserService, notes *service.NotificationService) *MeHandler {
	return &MeHandler{users: users, notes: notes}
}

func (h *MeHandler) MountAPI(e ez.EZ) {
	me := e.Group("/me")

	// --- GET /me 个人资料；首次访问时补建 users 行 ---
	ez.RegisterAction(me, ez.Action[struct{}, *domain.User]{
		Method: http.MethodGet,
		Path:   "",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, caller domain.Caller, _ *struct{}) (*domain.User, error) {
			return h.users.EnsureUser(c.Request.Context(), caller.Email)
		},
	})

	// --- PATCH /me 修改 name/phone/bio ---
	ez.RegisterAction(me, ez.Action[domain.Profile, *domain.User]{
		Method: http.MethodPatch,
		Path:   "",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, caller domain.Caller, in *domain.Profile) (*domain.User, error) {
			return h.users.UpdateProfile(c.Request.Context(), caller.Email, *in)
		},
	})

	// --- GET /me/role 每次都是库里的当前角色 ---
	ez.RegisterAction(me, ez.Action[struct{}, gin.H]{
		Method: http.MethodGet,
		Path:   "/role",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(_ *gin.Context, caller domain.Caller, _ *struct{}) (gin.H, error) {
			return gin.H{"role": caller.Role}, nil
		},
	})

	// --- GET /me/notifications 最近 10 条 + 未读数 ---
	ez.RegisterAction(me, ez.Action[struct{}, service.Inbox]{
		Method: http.MethodGet,
		Path:   "/notifications",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, caller domain.Caller, _ *struct{}) (service.Inbox, error) {
			return h.notes.List(c.Request.Context(), caller.Email)
		},
	})

	// --- PATCH /me/notifications/read {ids|all} ---
	ez.RegisterAction(me, ez.Action[selectionIn, countOut]{
		Method: http.MethodPatch,
		Path:   "/notifications/read",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, caller domain.Caller, in *selectionIn) (countOut, error) {
			n, err := h.notes.MarkRead(c.Request.Context(), caller.Email, in.IDs, in.All)
			return countOut{Changed: n}, err
		},
	})

	// --- DELETE /me/notifications {ids|all} ---
	ez.RegisterAction(me, ez.Action[selectionIn, countOut]{
		Method: http.MethodDelete,
		Path:   "/notifications",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, caller domain.Caller, in *selectionIn) (countOut, error) {
			n, err := h.notes.Delete(c.Request.Context(), caller.Email, in.IDs, in.All)
			return countOut{Changed: n}, err
		},
	})
}
