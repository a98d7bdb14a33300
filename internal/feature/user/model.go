package user

import (
	"time"

	"ecosol/internal/domain"
)

type UserModel struct {
	ID    string `gorm:"primaryKey;type:varchar(32)"`
	Email string `gorm:"uniqueIndex;size:255;not null"`
	Role  string `gorm:"size:16;not null;default:USER;index"`
	Name  string `gorm:"size:120;not null;default:''"`
	Phone string `gorm:"size:32;not null;default:''"`
	Bio   string `gorm:"size:1000;not null;default:''"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (UserModel) TableName() string { return "users" }

func (m *UserModel) ToDomain() *domain.User {
	return &domain.User{
		ID: m.ID, Email: m.Email, Role: domain.Role(m.Role),
		Name: m.Name, Phone: m.Phone, Bio: m.Bio,
		CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
	}
}
