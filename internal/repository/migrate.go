package repository

import "gorm.io/gorm"

// AutoMigrate creates or updates the schema for every table the
// repositories own.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&leadModel{},
		&userModel{},
		&settingModel{},
	)
}
