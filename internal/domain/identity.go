package domain

import (
	"context"
	"strings"
	"time"
)

// Identity 由身份提供方认证的主体，应用只读
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Caller 一次请求内解析出的调用方（角色每次从库里读）
type Caller struct {
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Anonymous 未登录访客
var Anonymous = Caller{}

func (c Caller) Authenticated() bool { return c.Email != "" }
func (c Caller) IsAdmin() bool       { return c.Role == RoleAdmin }

// CanMutate 唯一的“能否修改该条目”判断：管理员或所有者
func CanMutate(c Caller, ownerEmail string) bool {
	if !c.Authenticated() {
		return false
	}
	return c.IsAdmin() || c.Email == ownerEmail
}

// Account 身份提供方持有的凭据
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

type AccountRepository interface {
	Create(ctx context.Context, a *Account) error
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByID(ctx context.Context, id string) (*Account, error)
	UpdatePassword(ctx context.Context, id, hash string) error
}

// NormalizeEmail 邮箱统一小写去空格后再比较
func NormalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
