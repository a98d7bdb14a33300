package account

import (
	"time"

	"ecosol/internal/domain"
)

// AccountModel 身份提供方的凭据表，与 users 分离
type AccountModel struct {
	ID           string `gorm:"primaryKey;type:varchar(32)"`
	Email        string `gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string `gorm:"size:100;not null"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (AccountModel) TableName() string { return "accounts" }

func (m *AccountModel) ToDomain() *domain.Account {
	return &domain.Account{ID: m.ID, Email: m.Email, PasswordHash: m.PasswordHash, CreatedAt: m.CreatedAt}
}
