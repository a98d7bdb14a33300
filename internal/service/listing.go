package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"ecosol/internal/core/cache"
	"ecosol/internal/core/metrics"
	"ecosol/internal/domain"
)

const (
	SearchPageSize    = 6
	maxSearchPage     = 100
	AdminPageSize     = 20
	categoryCountsKey = "ecosol:category_counts"
)

// Mailer 邮件通知，调用方不等待结果
type Mailer interface {
	ListingSubmitted(admins []string, l domain.Listing)
	ListingPublished(ownerEmail string, id uint, name string)
}

type ManagerOptions struct {
	Listings    domain.ListingRepository
	Users       domain.UserRepository
	Cache       *cache.Cache // 可为 nil
	CategoryTTL time.Duration
	Mailer      Mailer
	Log         *zap.Logger
}

// Manager 条目生命周期与目录查询
type Manager struct {
	listings    domain.ListingRepository
	users       domain.UserRepository
	cache       *cache.Cache
	categoryTTL time.Duration
	mailer      Mailer
	log         *zap.Logger
}

func NewManager(o ManagerOptions) *Manager {
	if o.CategoryTTL <= 0 {
		o.CategoryTTL = time.Minute
	}
	if o.Log == nil {
		o.Log = zap.NewNop()
	}
	return &Manager{
		listings: o.Listings, users: o.Users, cache: o.Cache, categoryTTL: o.CategoryTTL,
		mailer: o.Mailer, log: o.Log,
	}
}

// Submit 新条目一律待审核，所有者取自调用方
func (m *Manager) Submit(ctx context.Context, caller domain.Caller, c domain.ListingContent) (*domain.Listing, error) {
	if !caller.Authenticated() {
		return nil, domain.Unauthenticated("login required")
	}
	c = c.Normalize()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	l := &domain.Listing{
		OwnerEmail: caller.Email, Name: c.Name, Category: c.Category, Description: c.Description,
		WhatsApp: c.WhatsApp, Instagram: c.Instagram, TikTok: c.TikTok, Site: c.Site, Image: c.Image,
	}
	if err := m.listings.Create(ctx, l); err != nil {
		return nil, err
	}
	m.log.Info("listing submitted", zap.Uint("id", l.ID), zap.String("owner", l.OwnerEmail))

	if m.mailer != nil {
		admins, err := m.users.EmailsByRole(ctx, domain.RoleAdmin)
		if err != nil {
			m.log.Warn("load admins for submission mail", zap.Error(err))
		}
		m.mailer.ListingSubmitted(admins, *l)
	}
	return l, nil
}

// Transition 批量生命周期操作；失败时不改动任何行
func (m *Manager) Transition(ctx context.Context, op domain.Op, ids []uint, caller domain.Caller) domain.TransitionResult {
	res := domain.TransitionResult{Op: op, Requested: len(ids), Coverage: domain.CoverageNone}
	plan, err := m.transition(ctx, op, ids, caller, &res)
	if err != nil {
		res.Error = domain.KindOf(err)
		res.Message = publicMessage(err)
		metrics.Transitions.WithLabelValues(string(op), string(res.Error)).Inc()
		lvl := m.log.Info
		if res.Error == domain.KindUpstream {
			lvl = m.log.Error
		}
		lvl("listing transition rejected",
			zap.String("op", string(op)), zap.String("caller", caller.Email),
			zap.Int("requested", res.Requested), zap.Error(err))
		return res
	}

	res.Success = true
	res.AffectedCount = plan.Affected
	res.Coverage = domain.Cover(res.Requested, plan.Affected)
	metrics.Transitions.WithLabelValues(string(op), "ok").Inc()
	metrics.TransitionRows.WithLabelValues(string(op)).Add(float64(plan.Affected))
	m.log.Info("listing transition",
		zap.String("op", string(op)), zap.String("caller", caller.Email),
		zap.Int("requested", res.Requested), zap.Int("affected", plan.Affected), zap.Int("changed", len(plan.Changed)))

	if len(plan.Changed) > 0 {
		m.invalidate(ctx)
	}
	if op == domain.OpApprove && m.mailer != nil {
		for _, s := range plan.Changed {
			m.mailer.ListingPublished(s.OwnerEmail, s.ID, s.Name)
		}
	}
	return res
}

func (m *Manager) transition(ctx context.Context, op domain.Op, ids []uint, caller domain.Caller, res *domain.TransitionResult) (domain.Plan, error) {
	if !caller.Authenticated() {
		return domain.Plan{}, domain.Unauthenticated("login required")
	}
	if op.AdminOnly() && !caller.IsAdmin() {
		return domain.Plan{}, domain.Unauthorized("admin role required")
	}
	ids, err := domain.NormalizeIDs(ids)
	if err != nil {
		return domain.Plan{}, err
	}
	res.Requested = len(ids)
	return m.listings.ApplyTransition(ctx, op, ids, func(states []domain.ListingState) (domain.Plan, error) {
		if err := domain.AuthorizeTransition(caller, op, states); err != nil {
			return domain.Plan{}, err
		}
		return domain.PlanTransition(op, states)
	})
}

func (m *Manager) Approve(ctx context.Context, caller domain.Caller, ids []uint) domain.TransitionResult {
	return m.Transition(ctx, domain.OpApprove, ids, caller)
}

func (m *Manager) Suspend(ctx context.Context, caller domain.Caller, ids []uint) domain.TransitionResult {
	return m.Transition(ctx, domain.OpSuspend, ids, caller)
}

func (m *Manager) SoftDelete(ctx context.Context, caller domain.Caller, ids []uint) domain.TransitionResult {
	return m.Transition(ctx, domain.OpSoftDelete, ids, caller)
}

func (m *Manager) Restore(ctx context.Context, caller domain.Caller, ids []uint) domain.TransitionResult {
	return m.Transition(ctx, domain.OpRestore, ids, caller)
}

func (m *Manager) HardDelete(ctx context.Context, caller domain.Caller, ids []uint) domain.TransitionResult {
	return m.Transition(ctx, domain.OpHardDelete, ids, caller)
}

// Delete 单条软删
func (m *Manager) Delete(ctx context.Context, caller domain.Caller, id uint) error {
	return m.SoftDelete(ctx, caller, []uint{id}).Err()
}

// Edit 整体替换内容字段；权限在调用时重新判断
func (m *Manager) Edit(ctx context.Context, caller domain.Caller, id uint, c domain.ListingContent) (*domain.Listing, error) {
	if !caller.Authenticated() {
		return nil, domain.Unauthenticated("login required")
	}
	c = c.Normalize()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if _, err := m.ForEdit(ctx, caller, id); err != nil {
		return nil, err
	}
	if err := m.listings.ReplaceContent(ctx, id, c); err != nil {
		return nil, err
	}
	m.invalidate(ctx)
	l, err := m.listings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, domain.NotFound("listing not found")
	}
	m.log.Info("listing edited", zap.Uint("id", id), zap.String("caller", caller.Email))
	return l, nil
}

// ForEdit 编辑页取数：所有者或管理员
func (m *Manager) ForEdit(ctx context.Context, caller domain.Caller, id uint) (*domain.Listing, error) {
	l, err := m.listings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, domain.NotFound("listing not found")
	}
	if !domain.CanMutate(caller, l.OwnerEmail) {
		return nil, domain.Unauthorized("not allowed to edit this listing")
	}
	return l, nil
}

// View 详情页；非所有者/管理员访问时浏览数 +1
func (m *Manager) View(ctx context.Context, caller domain.Caller, id uint) (*domain.Listing, error) {
	l, err := m.listings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, domain.NotFound("listing not found")
	}
	privileged := domain.CanMutate(caller, l.OwnerEmail)
	if !l.Visible() && !privileged {
		return nil, domain.NotFound("listing not found")
	}
	if !privileged {
		if err := m.listings.IncrementViews(ctx, id); err != nil {
			m.log.Warn("increment views", zap.Uint("id", id), zap.Error(err))
		} else {
			l.Views++
		}
	}
	return l, nil
}

// Search 公开目录；page 从 1 开始，结果累积返回
func (m *Manager) Search(ctx context.Context, q, category string, page int) (domain.SearchPage, error) {
	if page < 1 {
		page = 1
	}
	if page > maxSearchPage {
		page = maxSearchPage
	}
	category = strings.TrimSpace(category)
	if strings.EqualFold(category, "todas") || strings.EqualFold(category, "all") {
		category = ""
	}
	take := SearchPageSize * page
	items, total, err := m.listings.Search(ctx, domain.SearchQuery{Q: q, Category: category, Page: 1, PerPage: take})
	if err != nil {
		return domain.SearchPage{}, err
	}
	return domain.SearchPage{Items: items, Total: total, Page: page, HasMore: total > int64(take)}, nil
}

func (m *Manager) CategoryCounts(ctx context.Context) (domain.CategoryCounts, error) {
	load := func(ctx context.Context) (*domain.CategoryCounts, error) {
		items, err := m.listings.CategoryCounts(ctx)
		if err != nil {
			return nil, err
		}
		out := &domain.CategoryCounts{Items: items}
		for _, c := range items {
			out.Total += c.Count
		}
		return out, nil
	}
	var (
		cc  *domain.CategoryCounts
		err error
	)
	if m.cache != nil {
		cc, err = cache.GetOrLoadJSON(m.cache, ctx, categoryCountsKey, m.categoryTTL, load)
	} else {
		cc, err = load(ctx)
	}
	if err != nil {
		return domain.CategoryCounts{}, err
	}
	if cc == nil {
		return domain.CategoryCounts{Items: []domain.CategoryCount{}}, nil
	}
	return *cc, nil
}

func (m *Manager) Mine(ctx context.Context, caller domain.Caller) ([]domain.Listing, error) {
	if !caller.Authenticated() {
		return nil, domain.Unauthenticated("login required")
	}
	return m.listings.ListByOwner(ctx, caller.Email)
}

// Dashboard 管理后台：未删除条目按状态筛选
func (m *Manager) Dashboard(ctx context.Context, st domain.Status, page int) (domain.Page[domain.Listing], error) {
	if page < 1 {
		page = 1
	}
	items, total, err := m.listings.ListByStatus(ctx, st, (page-1)*AdminPageSize, AdminPageSize)
	if err != nil {
		return domain.Page[domain.Listing]{}, err
	}
	return domain.Page[domain.Listing]{Total: total, Items: items}, nil
}

// Trash 回收站：最近删除的在前
func (m *Manager) Trash(ctx context.Context, page int) (domain.Page[domain.Listing], error) {
	if page < 1 {
		page = 1
	}
	items, total, err := m.listings.ListDeleted(ctx, (page-1)*AdminPageSize, AdminPageSize)
	if err != nil {
		return domain.Page[domain.Listing]{}, err
	}
	return domain.Page[domain.Listing]{Total: total, Items: items}, nil
}

func (m *Manager) invalidate(ctx context.Context) {
	if m.cache == nil {
		return
	}
	if err := m.cache.Invalidate(ctx, categoryCountsKey); err != nil {
		m.log.Warn("invalidate category cache", zap.Error(err))
	}
}

// publicMessage 上游错误不把驱动信息暴露给调用方
func publicMessage(err error) string {
	if domain.KindOf(err) == domain.KindUpstream {
		return "internal error"
	}
	return err.Error()
}
