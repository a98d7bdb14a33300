package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ecosol/internal/domain"
	"ecosol/internal/feature/user"
	"ecosol/pkg/utils"
)

type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

// Ensure 按 email upsert；已存在时不改动 role 等字段
func (r *UserRepo) Ensure(ctx context.Context, email, name string) (*domain.User, error) {
	m := user.UserModel{ID: utils.NewID(), Email: email, Role: string(domain.RoleUser), Name: name}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
		Create(&m).Error
	if err != nil {
		return nil, domain.Upstream("ensure user", err)
	}
	u, err := r.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.Upstream("ensure user", errors.New("row missing after upsert"))
	}
	return u, nil
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var m user.UserModel
	err := r.db.WithContext(ctx).First(&m, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.Upstream("find user", err)
	}
	return m.ToDomain(), nil
}

func (r *UserRepo) UpdateProfile(ctx context.Context, email string, p domain.Profile) (*domain.User, error) {
	u, err := r.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.NotFound("user not found")
	}
	err = r.db.WithContext(ctx).Model(&user.UserModel{}).
		Where("email = ?", email).
		Updates(map[string]any{"name": p.Name, "phone": p.Phone, "bio": p.Bio}).Error
	if err != nil {
		return nil, domain.Upstream("update profile", err)
	}
	return r.FindByEmail(ctx, email)
}

func (r *UserRepo) SetRole(ctx context.Context, email string, role domain.Role) error {
	u, err := r.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u == nil {
		return domain.NotFound("user not found")
	}
	if err := r.db.WithContext(ctx).Model(&user.UserModel{}).
		Where("email = ?", email).Update("role", string(role)).Error; err != nil {
		return domain.Upstream("set role", err)
	}
	return nil
}

func (r *UserRepo) EmailsByRole(ctx context.Context, role domain.Role) ([]string, error) {
	var emails []string
	err := r.db.WithContext(ctx).Model(&user.UserModel{}).
		Where("role = ?", string(role)).Order("email").Pluck("email", &emails).Error
	if err != nil {
		return nil, domain.Upstream("list users by role", err)
	}
	return emails, nil
}
