package repo

import (
	"context"

	"gorm.io/gorm"

	"ecosol/internal/domain"
	"ecosol/internal/feature/notification"
)

type NotificationRepo struct{ db *gorm.DB }

func NewNotificationRepo(db *gorm.DB) *NotificationRepo { return &NotificationRepo{db: db} }

func (r *NotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	m := notification.NotificationModel{UserEmail: n.UserEmail, Message: n.Message}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.Upstream("create notification", err)
	}
	*n = m.ToDomain()
	return nil
}

func (r *NotificationRepo) Latest(ctx context.Context, email string, limit int) ([]domain.Notification, error) {
	var rows []notification.NotificationModel
	err := r.db.WithContext(ctx).Where("user_email = ?", email).
		Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, domain.Upstream("list notifications", err)
	}
	out := make([]domain.Notification, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain())
	}
	return out, nil
}

func (r *NotificationRepo) CountUnread(ctx context.Context, email string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&notification.NotificationModel{}).
		Where("user_email = ? AND is_read = ?", email, false).Count(&n).Error
	if err != nil {
		return 0, domain.Upstream("count notifications", err)
	}
	return n, nil
}

func (r *NotificationRepo) MarkRead(ctx context.Context, email string, ids []uint) (int64, error) {
	res := r.owned(ctx, email, ids).Where("is_read = ?", false).Update("is_read", true)
	if res.Error != nil {
		return 0, domain.Upstream("mark notifications read", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *NotificationRepo) Delete(ctx context.Context, email string, ids []uint) (int64, error) {
	res := r.owned(ctx, email, ids).Delete(&notification.NotificationModel{})
	if res.Error != nil {
		return 0, domain.Upstream("delete notifications", res.Error)
	}
	return res.RowsAffected, nil
}

// owned 所有写操作都限定在调用方自己的通知内
func (r *NotificationRepo) owned(ctx context.Context, email string, ids []uint) *gorm.DB {
	db := r.db.WithContext(ctx).Model(&notification.NotificationModel{}).Where("user_email = ?", email)
	if len(ids) > 0 {
		db = db.Where("id IN ?", ids)
	}
	return db
}
