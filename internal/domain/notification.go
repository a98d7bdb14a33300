package domain

import (
	"context"
	"fmt"
	"time"
)

type Notification struct {
	ID        uint      `json:"id"`
	UserEmail string    `json:"-"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// NotificationRepository ids 为空表示“该用户全部”
type NotificationRepository interface {
	Create(ctx context.Context, n *Notification) error
	Latest(ctx context.Context, email string, limit int) ([]Notification, error)
	CountUnread(ctx context.Context, email string) (int64, error)
	MarkRead(ctx context.Context, email string, ids []uint) (int64, error)
	Delete(ctx context.Context, email string, ids []uint) (int64, error)
}

// ApprovalMessage 审核通过时写给所有者的站内通知
func ApprovalMessage(listingName string) string {
	return fmt.Sprintf("Seu negócio \"%s\" foi aprovado e já está visível no diretório.", listingName)
}

// ContactMessage 有访客点击联系方式时写给所有者
func ContactMessage(listingName, channel string) string {
	return fmt.Sprintf("Alguém clicou no seu %s em \"%s\".", channel, listingName)
}
