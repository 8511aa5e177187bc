package database

import "putevoditel/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Subscriber{},
		&models.Dream{},
		&models.Aim{},
		&models.Post{},
		&models.DreamAssociation{},
	}
}
