package repository

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"slices"

	"putevoditel/internal/cache"
	"putevoditel/internal/models"
	"putevoditel/internal/observability"

	"gorm.io/gorm"
)

const (
	slugAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	slugAttempts = 5
)

// slugSource produces candidate slugs. Tests replace it to force collisions.
var slugSource = randomSlug

func randomSlug() (string, error) {
	buf := make([]byte, models.SlugLength)
	max := big.NewInt(int64(len(slugAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = slugAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetBySlug(ctx context.Context, slug string) (*models.User, error)
	UpdateProfile(ctx context.Context, user *models.User, columns []string) error
	UpdateCapabilities(ctx context.Context, user *models.User) error
	ListWithCapability(ctx context.Context, capability string) ([]models.User, error)
	ListIDs(ctx context.Context) ([]uint, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts the user with a fresh random slug. The slug is assigned in
// the same INSERT; a slug collision is retried with a new candidate while a
// duplicate email is reported as a validation error.
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	defer observability.TrackQuery("insert", "users")()

	for attempt := 0; attempt < slugAttempts; attempt++ {
		slug, err := slugSource()
		if err != nil {
			return models.NewInternalError(err)
		}
		user.ID = 0
		user.Slug = slug

		err = r.db.WithContext(ctx).Create(user).Error
		switch {
		case err == nil:
			return nil
		case uniqueViolationOn(err, "email"):
			return models.NewValidationError("User with this email already exists")
		case uniqueViolationOn(err, "slug"):
			continue
		default:
			return models.NewInternalError(err)
		}
	}
	return models.NewInternalError(fmt.Errorf("could not allocate a unique slug after %d attempts", slugAttempts))
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFoundOr(err, "User", id)
	}
	return &user, nil
}

// GetByEmail returns (nil, nil) when no user has the email.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

// GetBySlug is served from the cache when possible. The cached copy carries
// no password hash.
func (r *userRepository) GetBySlug(ctx context.Context, slug string) (*models.User, error) {
	var user models.User
	err := cache.Aside(ctx, cache.UserSlugKey(slug), &user, cache.UserTTL, func() error {
		if err := readDB(r.db).WithContext(ctx).Where("slug = ?", slug).First(&user).Error; err != nil {
			return notFoundOr(err, "User", slug)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile writes only the named columns so concurrent counter updates
// are never overwritten.
func (r *userRepository) UpdateProfile(ctx context.Context, user *models.User, columns []string) error {
	if len(columns) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Model(user).Select(columns).Updates(user).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, user.Slug)
	// cached feed pages embed the creator's public name
	if slices.Contains(columns, "FirstName") || slices.Contains(columns, "LastName") {
		cache.InvalidatePosts(ctx)
	}
	return nil
}

func (r *userRepository) UpdateCapabilities(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Model(user).Select("Capabilities").Updates(user).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, user.Slug)
	return nil
}

// ListWithCapability scans users whose capability list contains capability.
func (r *userRepository) ListWithCapability(ctx context.Context, capability string) ([]models.User, error) {
	var users []models.User
	pattern := fmt.Sprintf("%%%q%%", capability)
	if err := readDB(r.db).WithContext(ctx).
		Where("capabilities LIKE ?", pattern).
		Order("id ASC").
		Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *userRepository) ListIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&models.User{}).Order("id ASC").Pluck("id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}
