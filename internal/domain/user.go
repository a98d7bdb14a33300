package domain

import (
	"context"
	"time"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

func (r Role) Valid() bool { return r == RoleUser || r == RoleAdmin }

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Bio       string    `json:"bio"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Profile 用户可自行修改的字段
type Profile struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Bio   string `json:"bio"`
}

// UserRepository 查不到时返回 (nil, nil)
type UserRepository interface {
	Ensure(ctx context.Context, email, name string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	UpdateProfile(ctx context.Context, email string, p Profile) (*User, error)
	SetRole(ctx context.Context, email string, role Role) error
	EmailsByRole(ctx context.Context, role Role) ([]string, error)
}
