package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ecosol/internal/domain"
	"ecosol/internal/service"
	mdw "ecosol/internal/transport/http/middleware"
	resp "ecosol/internal/transport/http/response"
)

// PageHandler 页面路由返回视图模型（JSON），登录/权限问题转成跳转
type PageHandler struct {
	listings *service.Manager
	users    *service.UserService
	notes    *service.NotificationService
	callers  *service.Authorizer
	log      *zap.Logger
}

type PageOptions struct {
	Listings      *service.Manager
	Users         *service.UserService
	Notifications *service.NotificationService
	Authz         *service.Authorizer
	Log           *zap.Logger
}

func NewPageHandler(o PageOptions) *PageHandler {
	return &PageHandler{listings: o.Listings, users: o.Users, notes: o.Notifications, callers: o.Authz, log: o.Log}
}

type homeView struct {
	Search     domain.SearchPage     `json:"search"`
	Categories []domain.Category     `json:"categories"`
	Counts     domain.CategoryCounts `json:"counts"`
	Q          string                `json:"q"`
	Category   string                `json:"category"`
}

type profileView struct {
	User          *domain.User     `json:"user"`
	Listings      []domain.Listing `json:"listings"`
	Notifications service.Inbox    `json:"notifications"`
}

type providerView struct {
	Listing *domain.Listing `json:"listing"`
	CanEdit bool            `json:"canEdit"`
}

type editView struct {
	Listing    *domain.Listing   `json:"listing"`
	Categories []domain.Category `json:"categories"`
}

type dashboardView struct {
	Status domain.Status               `json:"status"`
	Page   int                         `json:"page"`
	Result domain.Page[domain.Listing] `json:"result"`
}

func (h *PageHandler) MountPages(r *gin.RouterGroup) {
	r.GET("/", h.page("/profile", h.home))
	r.GET("/login", h.page("/profile", nextView))
	r.GET("/signup", h.page("/profile", nextView))
	r.GET("/update-password", h.page("/profile", func(c *gin.Context, _ domain.Caller) (any, error) {
		return gin.H{"token": c.Query("token")}, nil
	}))
	r.GET("/profile", h.page("/", h.profile))
	r.GET("/profile/edit", h.page("/", func(c *gin.Context, caller domain.Caller) (any, error) {
		return h.users.EnsureUser(c.Request.Context(), caller.Email)
	}))
	r.GET("/submit", h.page("/", func(*gin.Context, domain.Caller) (any, error) {
		return gin.H{"categories": domain.Categories}, nil
	}))
	r.GET("/provider/:id", h.page("/", h.provider))
	r.GET("/provider/edit/:id", h.page("/", h.editListing))
}

func (h *PageHandler) MountAdminPages(r *gin.RouterGroup) {
	r.GET("/dashboard", h.page("/profile", h.dashboard))
	r.GET("/trash", h.page("/profile", func(c *gin.Context, _ domain.Caller) (any, error) {
		n, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		return h.listings.Trash(c.Request.Context(), n)
	}))
	r.GET("/provider/:id/edit", h.page("/profile", h.editListing))
}

type pageFunc func(c *gin.Context, caller domain.Caller) (any, error)

// page 解析调用方后渲染；Unauthenticated → 登录页，Unauthorized → denied
func (h *PageHandler) page(denied string, fn pageFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, err := h.callers.Caller(c.Request.Context(), mdw.Identity(c))
		if err != nil {
			h.render(c, denied, err)
			return
		}
		data, err := fn(c, caller)
		if err != nil {
			h.render(c, denied, err)
			return
		}
		resp.Write(c, data)
	}
}

func (h *PageHandler) render(c *gin.Context, denied string, err error) {
	code := resp.CodeServerError
	msg := "internal error"
	switch domain.KindOf(err) {
	case domain.KindUnauthenticated:
		c.Redirect(http.StatusTemporaryRedirect, mdw.LoginRedirect(c.Request.URL.Path, c.Request.URL.RawQuery))
		return
	case domain.KindUnauthorized:
		c.Redirect(http.StatusTemporaryRedirect, denied)
		return
	case domain.KindNotFound:
		code, msg = resp.CodeNotFound, err.Error()
	case domain.KindValidation:
		code, msg = resp.CodeBadRequest, err.Error()
	case domain.KindUpstream:
		code = resp.CodeBadGateway
	}
	if code >= resp.CodeServerError {
		h.log.Error("page failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	resp.Abort(c, code, msg)
}

func nextView(c *gin.Context, _ domain.Caller) (any, error) {
	return gin.H{"next": safeNext(c.Query("next"))}, nil
}

func (h *PageHandler) home(c *gin.Context, _ domain.Caller) (any, error) {
	v := homeView{Categories: domain.Categories, Q: c.Query("q"), Category: c.Query("category")}
	n, _ := strconv.Atoi(c.DefaultQuery("page", "1"))

	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() (err error) {
		v.Search, err = h.listings.Search(ctx, v.Q, v.Category, n)
		return err
	})
	g.Go(func() (err error) {
		v.Counts, err = h.listings.CategoryCounts(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return v, nil
}

func (h *PageHandler) profile(c *gin.Context, caller domain.Caller) (any, error) {
	if !caller.Authenticated() {
		return nil, domain.Unauthenticated("login required")
	}
	var v profileView
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() (err error) {
		v.User, err = h.users.EnsureUser(ctx, caller.Email)
		return err
	})
	g.Go(func() (err error) {
		v.Listings, err = h.listings.Mine(ctx, caller)
		return err
	})
	g.Go(func() (err error) {
		v.Notifications, err = h.notes.List(ctx, caller.Email)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return v, nil
}

func (h *PageHandler) provider(c *gin.Context, caller domain.Caller) (any, error) {
	id, err := pathID(c)
	if err != nil {
		return nil, err
	}
	l, err := h.listings.View(c.Request.Context(), caller, id)
	if err != nil {
		return nil, err
	}
	return providerView{Listing: l, CanEdit: domain.CanMutate(caller, l.OwnerEmail)}, nil
}

func (h *PageHandler) editListing(c *gin.Context, caller domain.Caller) (any, error) {
	if !caller.Authenticated() {
		return nil, domain.Unauthenticated("login required")
	}
	id, err := pathID(c)
	if err != nil {
		return nil, err
	}
	l, err := h.listings.ForEdit(c.Request.Context(), caller, id)
	if err != nil {
		return nil, err
	}
	return editView{Listing: l, Categories: domain.Categories}, nil
}

func (h *PageHandler) dashboard(c *gin.Context, _ domain.Caller) (any, error) {
	st, err := domain.ParseStatus(c.DefaultQuery("status", string(domain.StatusPending)))
	if err != nil {
		return nil, err
	}
	n, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if n < 1 {
		n = 1
	}
	res, err := h.listings.Dashboard(c.Request.Context(), st, n)
	if err != nil {
		return nil, err
	}
	return dashboardView{Status: st, Page: n, Result: res}, nil
}

var errBadID = domain.NotFound("listing not found")

func pathID(c *gin.Context) (uint, error) {
	n, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || n == 0 {
		return 0, errBadID
	}
	return uint(n), nil
}
