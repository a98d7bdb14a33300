package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ecosol/internal/domain"
	"ecosol/internal/service"
	"ecosol/internal/transport/http/ez"
)

type ListingHandler struct {
	listings *service.Manager
	notes    *service.NotificationService
}

func NewListingHandler(listings *service.Manager, notes *service.NotificationService) *ListingHandler {
	return &ListingHandler{listings: listings, notes: notes}
}

type searchQ struct {
	Q        string `form:"q"`
	Category string `form:"category"`
	Page     int    `form:"page,default=1"`
}

type categoriesOut struct {
	Categories []domain.Category     `json:"categories"`
	Counts     domain.CategoryCounts `json:"counts"`
}

type editIn struct {
	ID uint `uri:"id" binding:"required"`
	domain.ListingContent
}

type batchIn struct {
	Op  string `json:"op" binding:"required"`
	IDs []uint `json:"ids"`
}

func (h *ListingHandler) MountAPI(e ez.EZ) {
	l := e.Group("/listings")

	// --- GET /listings 公开搜索 ---
	ez.RegisterAction(l, ez.Action[searchQ, domain.SearchPage]{
		Method: http.MethodGet,
		Path:   "",
		Binder: ez.BindQuery,
		Handler: func(c *gin.Context, _ domain.Caller, in *searchQ) (domain.SearchPage, error) {
			return h.listings.Search(c.Request.Context(), in.Q, in.Category, in.Page)
		},
	})

	// --- GET /listings/categories ---
	ez.RegisterAction(l, ez.Action[struct{}, categoriesOut]{
		Method: http.MethodGet,
		Path:   "/categories",
		Binder: ez.BindNone,
		Handler: func(c *gin.Context, _ domain.Caller, _ *struct{}) (categoriesOut, error) {
			counts, err := h.listings.CategoryCounts(c.Request.Context())
			if err != nil {
				return categoriesOut{}, err
			}
			return categoriesOut{Categories: domain.Categories, Counts: counts}, nil
		},
	})

	type contactIn struct {
		ID      uint   `uri:"id" binding:"required"`
		Channel string `json:"channel"`
	}
	// --- POST /listings/:id/contact 访客点击联系方式，通知所有者 ---
	ez.RegisterAction(l, ez.Action[contactIn, gin.H]{
		Method: http.MethodPost,
		Path:   "/:id/contact",
		Binder: ez.BindURIJSON,
		Handler: func(c *gin.Context, _ domain.Caller, in *contactIn) (gin.H, error) {
			if err := h.notes.ContactClicked(c.Request.Context(), in.ID, in.Channel); err != nil {
				return nil, err
			}
			return gin.H{"id": in.ID}, nil
		},
	})

	// --- GET /listings/:id 详情；未公开的条目只有所有者/管理员能看 ---
	ez.RegisterAction(l, ez.Action[idURI, *domain.Listing]{
		Method: http.MethodGet,
		Path:   "/:id",
		Binder: ez.BindURI,
		Handler: func(c *gin.Context, caller domain.Caller, in *idURI) (*domain.Listing, error) {
			return h.listings.View(c.Request.Context(), caller, in.ID)
		},
	})

	// --- POST /listings 提交，进入待审核 ---
	ez.RegisterAction(l, ez.Action[domain.ListingContent, *domain.Listing]{
		Method: http.MethodPost,
		Path:   "",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, caller domain.Caller, in *domain.ListingContent) (*domain.Listing, error) {
			return h.listings.Submit(c.Request.Context(), caller, *in)
		},
	})

	// --- PUT /listings/:id 所有者或管理员整体替换内容 ---
	ez.RegisterAction(l, ez.Action[editIn, *domain.Listing]{
		Method: http.MethodPut,
		Path:   "/:id",
		Binder: ez.BindURIJSON,
		Auth:   true,
		Handler: func(c *gin.Context, caller domain.Caller, in *editIn) (*domain.Listing, error) {
			return h.listings.Edit(c.Request.Context(), caller, in.ID, in.ListingContent)
		},
	})

	// --- DELETE /listings/:id 软删，进回收站 ---
	ez.RegisterAction(l, ez.Action[idURI, gin.H]{
		Method: http.MethodDelete,
		Path:   "/:id",
		Binder: ez.BindURI,
		Auth:   true,
		Handler: func(c *gin.Context, caller domain.Caller, in *idURI) (gin.H, error) {
			if err := h.listings.Delete(c.Request.Context(), caller, in.ID); err != nil {
				return nil, err
			}
			return gin.H{"id": in.ID}, nil
		},
	})

	// --- POST /listings/batch {op, ids}；失败时 data 里仍是完整结果 ---
	ez.RegisterAction(l, ez.Action[batchIn, domain.TransitionResult]{
		Method: http.MethodPost,
		Path:   "/batch",
		Binder: ez.BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, caller domain.Caller, in *batchIn) (domain.TransitionResult, error) {
			op, err := domain.ParseOp(in.Op)
			if err != nil {
				return domain.TransitionResult{}, err
			}
			return transitionOut(h.listings.Transition(c.Request.Context(), op, in.IDs, caller))
		},
	})

	// --- GET /me/listings 自己的条目（含待审核） ---
	ez.RegisterAction(e, ez.Action[struct{}, []domain.Listing]{
		Method: http.MethodGet,
		Path:   "/me/listings",
		Binder: ez.BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, caller domain.Caller, _ *struct{}) ([]domain.Listing, error) {
			return h.listings.Mine(c.Request.Context(), caller)
		},
	})
}

func transitionOut(res domain.TransitionResult) (domain.TransitionResult, error) {
	if err := res.Err(); err != nil {
		return res, ez.WithData(err, res)
	}
	return res, nil
}
