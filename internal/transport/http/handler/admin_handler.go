package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ecosol/internal/domain"
	"ecosol/internal/service"
	"ecosol/internal/transport/http/ez"
)

// AdminHandler 管理端接口，所有动作都限定 ADMIN
type AdminHandler struct {
	listings *service.Manager
}

func NewAdminHandler(listings *service.Manager) *AdminHandler {
	return &AdminHandler{listings: listings}
}

var admin = []domain.Role{domain.RoleAdmin}

type adminListQ struct {
	Status string `form:"status"`
	Page   int    `form:"page,default=1"`
}

type idsIn struct {
	IDs []uint `json:"ids" binding:"required"`
}

func (h *AdminHandler) MountAPI(e ez.EZ) {
	g := e.Group("/admin")

	// --- GET /admin/listings?status=pending|approved|suspended|all ---
	ez.RegisterAction(g, ez.Action[adminListQ, domain.Page[domain.Listing]]{
		Method: http.MethodGet,
		Path:   "/listings",
		Binder: ez.BindQuery,
		Roles:  admin,
		Handler: func(c *gin.Context, _ domain.Caller, in *adminListQ) (domain.Page[domain.Listing], error) {
			st, err := domain.ParseStatus(in.Status)
			if err != nil {
				return domain.Page[domain.Listing]{}, err
			}
			return h.listings.Dashboard(c.Request.Context(), st, in.Page)
		},
	})

	// --- GET /admin/trash 回收站 ---
	ez.RegisterAction(g, ez.Action[adminListQ, domain.Page[domain.Listing]]{
		Method: http.MethodGet,
		Path:   "/trash",
		Binder: ez.BindQuery,
		Roles:  admin,
		Handler: func(c *gin.Context, _ domain.Caller, in *adminListQ) (domain.Page[domain.Listing], error) {
			return h.listings.Trash(c.Request.Context(), in.Page)
		},
	})

	// --- POST /admin/listings/{approve|suspend|restore|purge} {ids} ---
	for _, a := range []struct {
		path string
		op   domain.Op
	}{
		{"/listings/approve", domain.OpApprove},
		{"/listings/suspend", domain.OpSuspend},
		{"/listings/restore", domain.OpRestore},
		{"/listings/purge", domain.OpHardDelete},
	} {
		op := a.op
		ez.RegisterAction(g, ez.Action[idsIn, domain.TransitionResult]{
			Method: http.MethodPost,
			Path:   a.path,
			Binder: ez.BindJSON,
			Roles:  admin,
			Handler: func(c *gin.Context, caller domain.Caller, in *idsIn) (domain.TransitionResult, error) {
				return transitionOut(h.listings.Transition(c.Request.Context(), op, in.IDs, caller))
			},
		})
	}
}
