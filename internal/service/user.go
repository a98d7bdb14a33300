package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"ecosol/internal/domain"
)

type UserService struct {
	users domain.UserRepository
	log   *zap.Logger
}

func NewUserService(users domain.UserRepository, log *zap.Logger) *UserService {
	return &UserService{users: users, log: log}
}

// EnsureUser 登录/注册后调用，幂等
func (s *UserService) EnsureUser(ctx context.Context, email string) (*domain.User, error) {
	name := email
	if at := strings.IndexByte(email, '@'); at > 0 {
		name = email[:at]
	}
	return s.users.Ensure(ctx, email, name)
}

func (s *UserService) Profile(ctx context.Context, email string) (*domain.User, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.NotFound("user not found")
	}
	return u, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, email string, p domain.Profile) (*domain.User, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Phone = strings.TrimSpace(p.Phone)
	p.Bio = strings.TrimSpace(p.Bio)
	switch {
	case p.Name == "":
		return nil, domain.Invalid("name is required")
	case len(p.Name) > 120:
		return nil, domain.Invalid("name is too long")
	case len(p.Phone) > 32:
		return nil, domain.Invalid("phone is too long")
	case len(p.Bio) > 1000:
		return nil, domain.Invalid("bio is too long")
	}
	return s.users.UpdateProfile(ctx, email, p)
}

// SetRole 只给运维命令行用
func (s *UserService) SetRole(ctx context.Context, email string, role domain.Role) error {
	if !role.Valid() {
		return domain.Invalid("unknown role " + string(role))
	}
	email = domain.NormalizeEmail(email)
	if err := s.users.SetRole(ctx, email, role); err != nil {
		return err
	}
	s.log.Info("role changed", zap.String("email", email), zap.String("role", string(role)))
	return nil
}

func (s *UserService) Admins(ctx context.Context) ([]string, error) {
	return s.users.EmailsByRole(ctx, domain.RoleAdmin)
}
