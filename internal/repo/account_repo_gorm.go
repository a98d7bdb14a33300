package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"ecosol/internal/domain"
	"ecosol/internal/feature/account"
)

type AccountRepo struct{ db *gorm.DB }

func NewAccountRepo(db *gorm.DB) *AccountRepo { return &AccountRepo{db: db} }

func (r *AccountRepo) Create(ctx context.Context, a *domain.Account) error {
	m := account.AccountModel{ID: a.ID, Email: a.Email, PasswordHash: a.PasswordHash}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		if isDupKey(err) {
			return domain.Conflict("email already registered")
		}
		return domain.Upstream("create account", err)
	}
	a.CreatedAt = m.CreatedAt
	return nil
}

func (r *AccountRepo) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *AccountRepo) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *AccountRepo) UpdatePassword(ctx context.Context, id, hash string) error {
	res := r.db.WithContext(ctx).Model(&account.AccountModel{}).Where("id = ?", id).Update("password_hash", hash)
	if res.Error != nil {
		return domain.Upstream("update password", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("account not found")
	}
	return nil
}

func (r *AccountRepo) first(ctx context.Context, cond string, arg any) (*domain.Account, error) {
	var m account.AccountModel
	err := r.db.WithContext(ctx).First(&m, cond, arg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.Upstream("find account", err)
	}
	return m.ToDomain(), nil
}

func isDupKey(err error) bool {
	// 不依赖 gorm.ErrDuplicatedKey（需要开启 TranslateError）
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation")
}
