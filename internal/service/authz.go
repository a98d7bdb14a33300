package service

import (
	"context"

	"ecosol/internal/domain"
)

// Authorizer 角色判断的唯一入口；每次都查库，不缓存
type Authorizer struct {
	users domain.UserRepository
}

func NewAuthorizer(users domain.UserRepository) *Authorizer { return &Authorizer{users: users} }

// RequireRole 无身份或无 users 记录时返回 false
func (a *Authorizer) RequireRole(ctx context.Context, id *domain.Identity, role domain.Role) (bool, error) {
	if id == nil || id.Email == "" {
		return false, nil
	}
	u, err := a.users.FindByEmail(ctx, id.Email)
	if err != nil {
		return false, err
	}
	return u != nil && u.Role == role, nil
}

// Caller 解析本次请求的调用方；没有 users 记录按普通用户处理
func (a *Authorizer) Caller(ctx context.Context, id *domain.Identity) (domain.Caller, error) {
	if id == nil || id.Email == "" {
		return domain.Anonymous, nil
	}
	u, err := a.users.FindByEmail(ctx, id.Email)
	if err != nil {
		return domain.Anonymous, err
	}
	role := domain.RoleUser
	if u != nil {
		role = u.Role
	}
	return domain.Caller{Email: id.Email, Role: role}, nil
}
