package notification

import (
	"time"

	"ecosol/internal/domain"
)

type NotificationModel struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	UserEmail string    `gorm:"column:user_email;size:255;not null;index"`
	Message   string    `gorm:"size:500;not null"`
	Read      bool      `gorm:"column:is_read;not null;default:false"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
}

func (NotificationModel) TableName() string { return "notifications" }

func (m *NotificationModel) ToDomain() domain.Notification {
	return domain.Notification{ID: m.ID, UserEmail: m.UserEmail, Message: m.Message, Read: m.Read, CreatedAt: m.CreatedAt}
}
