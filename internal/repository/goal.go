package repository

import (
	"context"
	"time"

	"putevoditel/internal/models"
	"putevoditel/internal/observability"

	"gorm.io/gorm"
)

// GoalRepository stores dreams and aims.
type GoalRepository interface {
	CreateDream(ctx context.Context, dream *models.Dream) error
	CreateAim(ctx context.Context, aim *models.Aim) error
	GetDream(ctx context.Context, id uint) (*models.Dream, error)
	GetAim(ctx context.Context, id uint) (*models.Aim, error)
	ListDreams(ctx context.Context, ownerID uint, page models.PageRequest) (models.Page[models.Dream], error)
	ListAims(ctx context.Context, ownerID uint, page models.PageRequest) (models.Page[models.Aim], error)
	UpdateDream(ctx context.Context, dream *models.Dream) error
	UpdateAim(ctx context.Context, aim *models.Aim) error
	DeleteDream(ctx context.Context, id uint) error
	DeleteAim(ctx context.Context, id uint) error
	ConvertDreamToAim(ctx context.Context, dreamID, ownerID uint, deadline time.Time) (*models.Aim, error)
}

type goalRepository struct {
	db *gorm.DB
}

// NewGoalRepository returns a new GoalRepository implementation.
func NewGoalRepository(db *gorm.DB) GoalRepository {
	return &goalRepository{db: db}
}

func (r *goalRepository) CreateDream(ctx context.Context, dream *models.Dream) error {
	if err := r.db.WithContext(ctx).Create(dream).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *goalRepository) CreateAim(ctx context.Context, aim *models.Aim) error {
	if err := r.db.WithContext(ctx).Create(aim).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *goalRepository) GetDream(ctx context.Context, id uint) (*models.Dream, error) {
	var dream models.Dream
	if err := r.db.WithContext(ctx).First(&dream, id).Error; err != nil {
		return nil, notFoundOr(err, "Dream", id)
	}
	return &dream, nil
}

func (r *goalRepository) GetAim(ctx context.Context, id uint) (*models.Aim, error) {
	var aim models.Aim
	if err := r.db.WithContext(ctx).First(&aim, id).Error; err != nil {
		return nil, notFoundOr(err, "Aim", id)
	}
	return &aim, nil
}

// listOwned pages through rows of T owned by ownerID, newest first.
func listOwned[T any](ctx context.Context, db *gorm.DB, ownerID uint, page models.PageRequest) (models.Page[T], error) {
	db = db.WithContext(ctx)

	var total int64
	if err := db.Model(new(T)).Where("user_id = ?", ownerID).Count(&total).Error; err != nil {
		return models.Page[T]{}, models.NewInternalError(err)
	}
	if err := page.Check(total); err != nil {
		return models.Page[T]{}, err
	}

	var items []T
	if err := db.Where("user_id = ?", ownerID).
		Order("created_at DESC, id DESC").
		Scopes(paginate(page)).
		Find(&items).Error; err != nil {
		return models.Page[T]{}, models.NewInternalError(err)
	}
	return models.NewPage(items, total, page), nil
}

func (r *goalRepository) ListDreams(ctx context.Context, ownerID uint, page models.PageRequest) (models.Page[models.Dream], error) {
	return listOwned[models.Dream](ctx, readDB(r.db), ownerID, page)
}

func (r *goalRepository) ListAims(ctx context.Context, ownerID uint, page models.PageRequest) (models.Page[models.Aim], error) {
	return listOwned[models.Aim](ctx, readDB(r.db), ownerID, page)
}

func (r *goalRepository) UpdateDream(ctx context.Context, dream *models.Dream) error {
	if err := r.db.WithContext(ctx).Model(dream).Select("Name", "Description").Updates(dream).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *goalRepository) UpdateAim(ctx context.Context, aim *models.Aim) error {
	if err := r.db.WithContext(ctx).Model(aim).Select("Name", "Description", "Deadline").Updates(aim).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *goalRepository) DeleteDream(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Dream{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Dream", id)
	}
	return nil
}

func (r *goalRepository) DeleteAim(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Aim{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Aim", id)
	}
	return nil
}

// ConvertDreamToAim inserts the aim and deletes the dream in one transaction.
// Nothing changes unless both statements succeed.
func (r *goalRepository) ConvertDreamToAim(ctx context.Context, dreamID, ownerID uint, deadline time.Time) (*models.Aim, error) {
	defer observability.TrackQuery("convert", "dreams")()

	var aim *models.Aim
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var dream models.Dream
		if err := forUpdate(tx).First(&dream, dreamID).Error; err != nil {
			return notFoundOr(err, "Dream", dreamID)
		}
		if dream.UserID != ownerID {
			return models.NewForbiddenError("You do not own this dream")
		}

		aim = dream.ToAim(deadline)
		if err := tx.Create(aim).Error; err != nil {
			return models.NewInternalError(err)
		}

		res := tx.Delete(&models.Dream{}, dream.ID)
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Dream", dreamID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return aim, nil
}
