package service

import (
	"context"

	"go.uber.org/zap"

	"ecosol/internal/domain"
)

// LatestNotifications 个人页只展示最近 10 条
const LatestNotifications = 10

type NotificationService struct {
	notes    domain.NotificationRepository
	listings domain.ListingRepository
	log      *zap.Logger
}

func NewNotificationService(notes domain.NotificationRepository, listings domain.ListingRepository, log *zap.Logger) *NotificationService {
	return &NotificationService{notes: notes, listings: listings, log: log}
}

type Inbox struct {
	Unread int64                 `json:"unread"`
	Items  []domain.Notification `json:"items"`
}

func (s *NotificationService) List(ctx context.Context, email string) (Inbox, error) {
	items, err := s.notes.Latest(ctx, email, LatestNotifications)
	if err != nil {
		return Inbox{}, err
	}
	unread, err := s.notes.CountUnread(ctx, email)
	if err != nil {
		return Inbox{}, err
	}
	return Inbox{Unread: unread, Items: items}, nil
}

// MarkRead all=true 时忽略 ids
func (s *NotificationService) MarkRead(ctx context.Context, email string, ids []uint, all bool) (int64, error) {
	ids, err := selection(ids, all)
	if err != nil {
		return 0, err
	}
	return s.notes.MarkRead(ctx, email, ids)
}

func (s *NotificationService) Delete(ctx context.Context, email string, ids []uint, all bool) (int64, error) {
	ids, err := selection(ids, all)
	if err != nil {
		return 0, err
	}
	return s.notes.Delete(ctx, email, ids)
}

// ContactClicked 访客点了联系方式，通知所有者
func (s *NotificationService) ContactClicked(ctx context.Context, listingID uint, channel string) error {
	switch channel {
	case "whatsapp", "instagram", "tiktok", "site":
	case "":
		channel = "whatsapp"
	default:
		return domain.Invalid("unknown contact channel " + channel)
	}
	l, err := s.listings.FindByID(ctx, listingID)
	if err != nil {
		return err
	}
	if l == nil || !l.Visible() {
		return domain.NotFound("listing not found")
	}
	n := &domain.Notification{UserEmail: l.OwnerEmail, Message: domain.ContactMessage(l.Name, channel)}
	if err := s.notes.Create(ctx, n); err != nil {
		return err
	}
	s.log.Debug("contact click recorded", zap.Uint("listing", listingID), zap.String("channel", channel))
	return nil
}

func selection(ids []uint, all bool) ([]uint, error) {
	if all {
		return nil, nil
	}
	return domain.NormalizeIDs(ids)
}
