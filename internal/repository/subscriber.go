package repository

import (
	"context"

	"putevoditel/internal/cache"
	"putevoditel/internal/models"
	"putevoditel/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubscriberRepository maintains the subscription ledger together with the
// author's denormalized subscriber_count. Every mutation changes the row and
// the counter in one transaction while holding the author row lock.
type SubscriberRepository interface {
	Subscribe(ctx context.Context, authorID, userID uint) (*models.User, bool, error)
	Unsubscribe(ctx context.Context, authorID, userID uint) (bool, error)
	ListByAuthor(ctx context.Context, authorID uint, page models.PageRequest) (models.Page[models.Subscriber], error)
	Exists(ctx context.Context, authorID, userID uint) (bool, error)
	Recount(ctx context.Context, authorID uint) (int, error)
}

type subscriberRepository struct {
	db *gorm.DB
}

// NewSubscriberRepository returns a new SubscriberRepository implementation.
func NewSubscriberRepository(db *gorm.DB) SubscriberRepository {
	return &subscriberRepository{db: db}
}

func lockAuthor(tx *gorm.DB, authorID uint) (*models.User, error) {
	var author models.User
	if err := forUpdate(tx).First(&author, authorID).Error; err != nil {
		return nil, notFoundOr(err, "User", authorID)
	}
	return &author, nil
}

// Subscribe creates the (author, user) pair if it does not exist yet. It
// returns the refreshed author and whether a new row was created.
func (r *subscriberRepository) Subscribe(ctx context.Context, authorID, userID uint) (*models.User, bool, error) {
	defer observability.TrackQuery("subscribe", "subscribers")()

	var author *models.User
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := lockAuthor(tx, authorID)
		if err != nil {
			return err
		}
		if !locked.IsInspirer() {
			return models.NewForbiddenError("Only inspirers can be subscribed to")
		}

		sub := models.Subscriber{AuthorID: authorID, UserID: userID}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&sub)
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}

		if res.RowsAffected > 0 {
			created = true
			if err := tx.Model(&models.User{}).Where("id = ?", authorID).
				UpdateColumn("subscriber_count", gorm.Expr("subscriber_count + ?", 1)).Error; err != nil {
				return models.NewInternalError(err)
			}
		}

		var refreshed models.User
		if err := tx.First(&refreshed, authorID).Error; err != nil {
			return models.NewInternalError(err)
		}
		author = &refreshed
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		cache.InvalidateUser(ctx, author.Slug)
	}
	return author, created, nil
}

// Unsubscribe removes the pair. Removing a pair that does not exist is a no-op.
func (r *subscriberRepository) Unsubscribe(ctx context.Context, authorID, userID uint) (bool, error) {
	defer observability.TrackQuery("unsubscribe", "subscribers")()

	var author *models.User
	deleted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := lockAuthor(tx, authorID)
		if err != nil {
			return err
		}
		author = locked

		res := tx.Where("author_id = ? AND user_id = ?", authorID, userID).Delete(&models.Subscriber{})
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}

		deleted = true
		if err := tx.Model(&models.User{}).
			Where("id = ? AND subscriber_count > 0", authorID).
			UpdateColumn("subscriber_count", gorm.Expr("subscriber_count - ?", 1)).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	if deleted {
		cache.InvalidateUser(ctx, author.Slug)
	}
	return deleted, nil
}

// ListByAuthor returns the author together with one page of subscribers.
// The author row, the total and the page are read from the primary in one
// transaction so subscriber_count always agrees with the ledger rows.
func (r *subscriberRepository) ListByAuthor(ctx context.Context, authorID uint, page models.PageRequest) (*models.User, models.Page[models.Subscriber], error) {
	defer observability.TrackQuery("select", "subscribers")()

	var (
		author models.User
		total  int64
		subs   []models.Subscriber
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&author, authorID).Error; err != nil {
			return notFoundOr(err, "User", authorID)
		}
		if err := tx.Model(&models.Subscriber{}).Where("author_id = ?", authorID).Count(&total).Error; err != nil {
			return models.NewInternalError(err)
		}
		if err := page.Check(total); err != nil {
			return err
		}
		if err := tx.Where("author_id = ?", authorID).
			Preload("User").
			Order("id ASC").
			Scopes(paginate(page)).
			Find(&subs).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	}, snapshotRead(r.db))
	if err != nil {
		return nil, models.Page[models.Subscriber]{}, err
	}
	return &author, models.NewPage(subs, total, page), nil
}

func (r *subscriberRepository) Exists(ctx context.Context, authorID, userID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Subscriber{}).
		Where("author_id = ? AND user_id = ?", authorID, userID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// Recount rewrites subscriber_count from the ledger rows and returns the new value.
func (r *subscriberRepository) Recount(ctx context.Context, authorID uint) (int, error) {
	var count int64
	var slug string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		author, err := lockAuthor(tx, authorID)
		if err != nil {
			return err
		}
		slug = author.Slug

		if err := tx.Model(&models.Subscriber{}).Where("author_id = ?", authorID).Count(&count).Error; err != nil {
			return models.NewInternalError(err)
		}
		if err := tx.Model(&models.User{}).Where("id = ?", authorID).
			UpdateColumn("subscriber_count", count).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	cache.InvalidateUser(ctx, slug)
	return int(count), nil
}
