package db

import (
	"gorm.io/gorm"

	"github.com/yungbote/coursecast-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.Course{},
	)
}
