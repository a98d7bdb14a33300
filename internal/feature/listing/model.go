package listing

import (
	"time"

	"gorm.io/gorm"

	"ecosol/internal/domain"
)

type ListingModel struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	OwnerEmail  string `gorm:"column:owner_email;size:255;not null;index"`
	Name        string `gorm:"size:120;not null"`
	Category    string `gorm:"size:64;not null;index"`
	Description string `gorm:"type:text"`
	WhatsApp    string `gorm:"column:whatsapp;size:32"`
	Instagram   string `gorm:"size:120"`
	TikTok      string `gorm:"column:tiktok;size:120"`
	Site        string `gorm:"size:255"`
	Image       string `gorm:"size:512"`
	Approved    bool   `gorm:"not null;default:false;index"`
	Suspended   bool   `gorm:"not null;default:false"`
	Views       int64  `gorm:"not null;default:0"`

	CreatedAt time.Time      `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (ListingModel) TableName() string { return "services" }

func FromDomain(l *domain.Listing) *ListingModel {
	return &ListingModel{
		ID: l.ID, OwnerEmail: l.OwnerEmail,
		Name: l.Name, Category: l.Category, Description: l.Description,
		WhatsApp: l.WhatsApp, Instagram: l.Instagram, TikTok: l.TikTok,
		Site: l.Site, Image: l.Image,
		Approved: l.Approved, Suspended: l.Suspended, Views: l.Views,
	}
}

func (m *ListingModel) ToDomain() domain.Listing {
	l := domain.Listing{
		ID: m.ID, OwnerEmail: m.OwnerEmail,
		Name: m.Name, Category: m.Category, Description: m.Description,
		WhatsApp: m.WhatsApp, Instagram: m.Instagram, TikTok: m.TikTok,
		Site: m.Site, Image: m.Image,
		Approved: m.Approved, Suspended: m.Suspended, Views: m.Views,
		CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
	}
	if m.DeletedAt.Valid {
		t := m.DeletedAt.Time
		l.DeletedAt = &t
	}
	return l
}

// ContentColumns Edit 时整体替换的列
var ContentColumns = []string{
	"name", "category", "description", "whatsapp", "instagram", "tiktok", "site", "image",
}

func ContentValues(c domain.ListingContent) map[string]any {
	return map[string]any{
		"name": c.Name, "category": c.Category, "description": c.Description,
		"whatsapp": c.WhatsApp, "instagram": c.Instagram, "tiktok": c.TikTok,
		"site": c.Site, "image": c.Image,
	}
}
