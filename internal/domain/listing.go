package domain

import (
	"context"
	"strings"
	"time"
)

// Listing 目录条目（表名 services）
type Listing struct {
	ID          uint       `json:"id"`
	OwnerEmail  string     `json:"email"`
	Name        string     `json:"name"`
	Category    string     `json:"category"`
	Description string     `json:"description"`
	WhatsApp    string     `json:"whatsapp"`
	Instagram   string     `json:"instagram"`
	TikTok      string     `json:"tiktok"`
	Site        string     `json:"site"`
	Image       string     `json:"image"`
	Approved    bool       `json:"approved"`
	Suspended   bool       `json:"suspended"`
	Views       int64      `json:"views"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	DeletedAt   *time.Time `json:"deletedAt,omitempty"`
}

// Visible 公开可见：已审核、未封禁、未软删
func (l *Listing) Visible() bool {
	return l.Approved && !l.Suspended && l.DeletedAt == nil
}

func (l *Listing) Status() Status {
	switch {
	case l.DeletedAt != nil:
		return StatusDeleted
	case l.Suspended:
		return StatusSuspended
	case l.Approved:
		return StatusApproved
	}
	return StatusPending
}

func (l *Listing) Content() ListingContent {
	return ListingContent{
		Name: l.Name, Category: l.Category, Description: l.Description,
		WhatsApp: l.WhatsApp, Instagram: l.Instagram, TikTok: l.TikTok,
		Site: l.Site, Image: l.Image,
	}
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusSuspended Status = "suspended"
	StatusDeleted   Status = "deleted"
	StatusAll       Status = "all"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case "":
		return StatusAll, nil
	case StatusPending, StatusApproved, StatusSuspended, StatusAll:
		return st, nil
	}
	return "", Invalid("unknown status " + s)
}

// ListingContent 可编辑字段，Edit 时整体替换
type ListingContent struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
	WhatsApp    string `json:"whatsapp"`
	Instagram   string `json:"instagram"`
	TikTok      string `json:"tiktok"`
	Site        string `json:"site"`
	Image       string `json:"image"`
}

func (c ListingContent) Normalize() ListingContent {
	c.Name = strings.TrimSpace(c.Name)
	c.Category = strings.TrimSpace(c.Category)
	c.Description = strings.TrimSpace(c.Description)
	c.WhatsApp = strings.TrimSpace(c.WhatsApp)
	c.Instagram = strings.TrimSpace(c.Instagram)
	c.TikTok = strings.TrimSpace(c.TikTok)
	c.Site = strings.TrimSpace(c.Site)
	c.Image = strings.TrimSpace(c.Image)
	return c
}

func (c ListingContent) Validate() error {
	switch {
	case c.Name == "":
		return Invalid("name is required")
	case len(c.Name) > 120:
		return Invalid("name is too long")
	case c.Category == "":
		return Invalid("category is required")
	case !IsCategory(c.Category):
		return Invalid("unknown category " + c.Category)
	case len(c.Description) > 4000:
		return Invalid("description is too long")
	}
	return nil
}

type SearchQuery struct {
	Q        string
	Category string
	Page     int
	PerPage  int
}

type SearchPage struct {
	Items   []Listing `json:"items"`
	Total   int64     `json:"total"`
	Page    int       `json:"page"`
	HasMore bool      `json:"hasMore"`
}

type CategoryCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

type CategoryCounts struct {
	Total int64           `json:"total"`
	Items []CategoryCount `json:"items"`
}

type Page[T any] struct {
	Total int64 `json:"total"`
	Items []T   `json:"items"`
}

// ListingRepository 默认查询不包含软删行
type ListingRepository interface {
	Create(ctx context.Context, l *Listing) error
	FindByID(ctx context.Context, id uint) (*Listing, error)
	ReplaceContent(ctx context.Context, id uint, c ListingContent) error
	IncrementViews(ctx context.Context, id uint) error
	// ApplyTransition 在一个事务内读取状态、调用 decide、执行批量语句
	ApplyTransition(ctx context.Context, op Op, ids []uint, decide func([]ListingState) (Plan, error)) (Plan, error)
	Search(ctx context.Context, q SearchQuery) ([]Listing, int64, error)
	CategoryCounts(ctx context.Context) ([]CategoryCount, error)
	ListByOwner(ctx context.Context, email string) ([]Listing, error)
	ListByStatus(ctx context.Context, st Status, offset, limit int) ([]Listing, int64, error)
	ListDeleted(ctx context.Context, offset, limit int) ([]Listing, int64, error)
}
