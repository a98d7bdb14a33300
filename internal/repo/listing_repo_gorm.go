package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"ecosol/internal/domain"
	"ecosol/internal/feature/listing"
	"ecosol/internal/feature/notification"
)

type ListingRepo struct{ db *gorm.DB }

func NewListingRepo(db *gorm.DB) *ListingRepo { return &ListingRepo{db: db} }

// 用户输入里的 % _ 按字面匹配；转义符用 '!'，反斜杠在 mysql 字面量里另有含义
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// visible 公开目录的过滤条件
func visible(db *gorm.DB) *gorm.DB {
	return db.Where("approved = ? AND suspended = ?", true, false)
}

func (r *ListingRepo) Create(ctx context.Context, l *domain.Listing) error {
	m := listing.FromDomain(l)
	m.ID = 0
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return domain.Upstream("create listing", err)
	}
	*l = m.ToDomain()
	return nil
}

func (r *ListingRepo) FindByID(ctx context.Context, id uint) (*domain.Listing, error) {
	var m listing.ListingModel
	err := r.db.WithContext(ctx).First(&m, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.Upstream("find listing", err)
	}
	l := m.ToDomain()
	return &l, nil
}

func (r *ListingRepo) ReplaceContent(ctx context.Context, id uint, c domain.ListingContent) error {
	res := r.db.WithContext(ctx).Model(&listing.ListingModel{}).
		Where("id = ?", id).
		Select(listing.ContentColumns).
		Updates(listing.ContentValues(c))
	if res.Error != nil {
		return domain.Upstream("update listing", res.Error)
	}
	return nil
}

// IncrementViews 原子自增，不刷新 updated_at
func (r *ListingRepo) IncrementViews(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Model(&listing.ListingModel{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1)).Error
	if err != nil {
		return domain.Upstream("increment views", err)
	}
	return nil
}

func (r *ListingRepo) ApplyTransition(ctx context.Context, op domain.Op, ids []uint,
	decide func([]domain.ListingState) (domain.Plan, error)) (domain.Plan, error) {

	var plan domain.Plan
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []listing.ListingModel
		err := tx.Unscoped().
			Select("id", "owner_email", "name", "approved", "suspended", "deleted_at").
			Where("id IN ?", ids).Order("id").
			Find(&rows).Error
		if err != nil {
			return domain.Upstream("load listings", err)
		}
		states := make([]domain.ListingState, 0, len(rows))
		for _, m := range rows {
			states = append(states, domain.ListingState{
				ID: m.ID, OwnerEmail: m.OwnerEmail, Name: m.Name,
				Approved: m.Approved, Suspended: m.Suspended, Deleted: m.DeletedAt.Valid,
			})
		}
		p, err := decide(states)
		if err != nil {
			return err
		}
		if len(p.Target) > 0 {
			if err := applyPlan(tx, p); err != nil {
				return err
			}
		}
		plan = p
		return nil
	})
	if err != nil {
		var de *domain.Error
		if errors.As(err, &de) {
			return domain.Plan{Op: op}, err
		}
		return domain.Plan{Op: op}, domain.Upstream("listing transition", err)
	}
	return plan, nil
}

// applyPlan 每种操作一条集合语句；任何一步失败整个事务回滚
func applyPlan(tx *gorm.DB, p domain.Plan) error {
	var res *gorm.DB
	switch p.Op {
	case domain.OpApprove:
		res = tx.Model(&listing.ListingModel{}).Where("id IN ?", p.Target).Update("approved", true)
		if res.Error == nil && len(p.Changed) > 0 {
			notes := make([]notification.NotificationModel, 0, len(p.Changed))
			for _, s := range p.Changed {
				notes = append(notes, notification.NotificationModel{
					UserEmail: s.OwnerEmail, Message: domain.ApprovalMessage(s.Name),
				})
			}
			if err := tx.Create(&notes).Error; err != nil {
				return domain.Upstream("notify owners", err)
			}
		}
	case domain.OpSuspend:
		res = tx.Model(&listing.ListingModel{}).Where("id IN ?", p.Target).Update("suspended", true)
	case domain.OpSoftDelete:
		res = tx.Where("id IN ?", p.Target).Delete(&listing.ListingModel{})
	case domain.OpRestore:
		res = tx.Unscoped().Model(&listing.ListingModel{}).
			Where("id IN ? AND deleted_at IS NOT NULL", p.Target).
			Update("deleted_at", nil)
	case domain.OpHardDelete:
		res = tx.Unscoped().Where("id IN ? AND deleted_at IS NOT NULL", p.Target).Delete(&listing.ListingModel{})
		if res.Error == nil && res.RowsAffected != int64(len(p.Target)) {
			// 读和删之间有并发 restore
			return domain.Conflict("listings changed during purge")
		}
	default:
		return domain.Invalid("unknown op " + string(p.Op))
	}
	if res.Error != nil {
		return domain.Upstream(string(p.Op)+" listings", res.Error)
	}
	return nil
}

func (r *ListingRepo) Search(ctx context.Context, q domain.SearchQuery) ([]domain.Listing, int64, error) {
	db := r.db.WithContext(ctx).Model(&listing.ListingModel{}).Scopes(visible)
	if q.Category != "" {
		db = db.Where("category = ?", q.Category)
	}
	if s := strings.TrimSpace(q.Q); s != "" {
		like := "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
		db = db.Where("(LOWER(name) LIKE ? ESCAPE '!' OR LOWER(category) LIKE ? ESCAPE '!' OR LOWER(description) LIKE ? ESCAPE '!')", like, like, like)
	}
	offset := (q.Page - 1) * q.PerPage
	if offset < 0 {
		offset = 0
	}
	return r.page(db, "created_at DESC, id DESC", offset, q.PerPage, "search listings")
}

func (r *ListingRepo) CategoryCounts(ctx context.Context) ([]domain.CategoryCount, error) {
	var out []domain.CategoryCount
	err := r.db.WithContext(ctx).Model(&listing.ListingModel{}).Scopes(visible).
		Select("category AS name, COUNT(*) AS count").
		Group("category").Order("category").
		Scan(&out).Error
	if err != nil {
		return nil, domain.Upstream("count categories", err)
	}
	return out, nil
}

func (r *ListingRepo) ListByOwner(ctx context.Context, email string) ([]domain.Listing, error) {
	var rows []listing.ListingModel
	err := r.db.WithContext(ctx).Where("owner_email = ?", email).
		Order("created_at DESC, id DESC").Find(&rows).Error
	if err != nil {
		return nil, domain.Upstream("list own listings", err)
	}
	return toDomain(rows), nil
}

func (r *ListingRepo) ListByStatus(ctx context.Context, st domain.Status, offset, limit int) ([]domain.Listing, int64, error) {
	db := r.db.WithContext(ctx).Model(&listing.ListingModel{})
	switch st {
	case domain.StatusPending:
		db = db.Where("approved = ? AND suspended = ?", false, false)
	case domain.StatusApproved:
		db = db.Where("approved = ? AND suspended = ?", true, false)
	case domain.StatusSuspended:
		db = db.Where("suspended = ?", true)
	case domain.StatusAll:
	default:
		return nil, 0, domain.Invalid("unknown status " + string(st))
	}
	return r.page(db, "created_at DESC, id DESC", offset, limit, "list listings")
}

func (r *ListingRepo) ListDeleted(ctx context.Context, offset, limit int) ([]domain.Listing, int64, error) {
	db := r.db.WithContext(ctx).Unscoped().Model(&listing.ListingModel{}).Where("deleted_at IS NOT NULL")
	return r.page(db, "deleted_at DESC, id DESC", offset, limit, "list trash")
}

// page 先 count 再取一页；Session 隔离两次查询的 Statement
func (r *ListingRepo) page(db *gorm.DB, order string, offset, limit int, what string) ([]domain.Listing, int64, error) {
	db = db.Session(&gorm.Session{})
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, domain.Upstream(what, err)
	}
	var rows []listing.ListingModel
	if err := db.Order(order).Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, domain.Upstream(what, err)
	}
	return toDomain(rows), total, nil
}

func toDomain(rows []listing.ListingModel) []domain.Listing {
	out := make([]domain.Listing, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out
}
