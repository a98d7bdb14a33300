package repo

import (
	"gorm.io/gorm"

	"ecosol/internal/feature/account"
	"ecosol/internal/feature/listing"
	"ecosol/internal/feature/notification"
	"ecosol/internal/feature/user"
)

// Models 需要自动迁移的表
func Models() []any {
	return []any{
		&account.AccountModel{},
		&user.UserModel{},
		&listing.ListingModel{},
		&notification.NotificationModel{},
	}
}

func AutoMigrate(db *gorm.DB) error { return db.AutoMigrate(Models()...) }
