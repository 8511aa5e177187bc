package repository

import (
	"context"

	"putevoditel/internal/cache"
	"putevoditel/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostRepository stores posts. Listings are global and newest first.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	List(ctx context.Context, page models.PageRequest) (models.Page[models.Post], error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository returns a new PostRepository implementation.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidatePosts(ctx)
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Preload("Creator").First(&post, id).Error; err != nil {
		return nil, notFoundOr(err, "Post", id)
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, page models.PageRequest) (models.Page[models.Post], error) {
	db := readDB(r.db).WithContext(ctx)

	var total int64
	if err := db.Model(&models.Post{}).Count(&total).Error; err != nil {
		return models.Page[models.Post]{}, models.NewInternalError(err)
	}
	if err := page.Check(total); err != nil {
		return models.Page[models.Post]{}, err
	}

	var posts []models.Post
	if err := db.Preload("Creator").
		Order("created_at DESC, id DESC").
		Scopes(paginate(page)).
		Find(&posts).Error; err != nil {
		return models.Page[models.Post]{}, models.NewInternalError(err)
	}
	return models.NewPage(posts, total, page), nil
}
