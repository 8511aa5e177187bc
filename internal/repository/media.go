package repository

import (
	"context"

	"putevoditel/internal/models"

	"gorm.io/gorm"
)

// MediaRepository stores the images users attach to their profile.
type MediaRepository interface {
	Create(ctx context.Context, assoc *models.DreamAssociation) error
	ListByUser(ctx context.Context, userID uint) ([]models.DreamAssociation, error)
}

type mediaRepository struct {
	db *gorm.DB
}

// NewMediaRepository returns a new MediaRepository implementation.
func NewMediaRepository(db *gorm.DB) MediaRepository {
	return &mediaRepository{db: db}
}

func (r *mediaRepository) Create(ctx context.Context, assoc *models.DreamAssociation) error {
	if err := r.db.WithContext(ctx).Create(assoc).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *mediaRepository) ListByUser(ctx context.Context, userID uint) ([]models.DreamAssociation, error) {
	var images []models.DreamAssociation
	if err := readDB(r.db).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&images).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return images, nil
}
