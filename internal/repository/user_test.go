package repository

import (
	"context"
	"errors"
	"testing"

	"putevoditel/internal/cache"
	"putevoditel/internal/models"
	"putevoditel/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUser(email string) *models.User {
	return &models.User{
		Email:     email,
		Username:  email,
		FirstName: "Ivan",
		LastName:  "Petrov",
		Password:  "$2a$10$hash",
	}
}

func TestUserRepository_CreateAssignsSlug(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	a := newUser("a@example.com")
	b := newUser("b@example.com")
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	assert.Len(t, a.Slug, models.SlugLength)
	assert.Regexp(t, `^[a-z0-9]+$`, a.Slug)
	assert.NotEqual(t, a.Slug, b.Slug)

	stored, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Slug, stored.Slug)
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newUser("dup@example.com")))
	err := repo.Create(ctx, newUser("dup@example.com"))
	requireCode(t, err, models.CodeValidation)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestUserRepository_RetriesSlugCollision(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	candidates := []string{"aaaaaaaaaaaaaaaaaaaa", "aaaaaaaaaaaaaaaaaaaa", "bbbbbbbbbbbbbbbbbbbb"}
	calls := 0
	slugSource = func() (string, error) {
		s := candidates[calls]
		calls++
		return s, nil
	}
	t.Cleanup(func() { slugSource = randomSlug })

	first := newUser("first@example.com")
	require.NoError(t, repo.Create(ctx, first))
	second := newUser("second@example.com")
	require.NoError(t, repo.Create(ctx, second))

	assert.Equal(t, "aaaaaaaaaaaaaaaaaaaa", first.Slug)
	assert.Equal(t, "bbbbbbbbbbbbbbbbbbbb", second.Slug)
	assert.Equal(t, 3, calls)
}

func TestUserRepository_SlugSourceFailure(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewUserRepository(db)

	slugSource = func() (string, error) { return "", errors.New("entropy exhausted") }
	t.Cleanup(func() { slugSource = randomSlug })

	err := repo.Create(context.Background(), newUser("x@example.com"))
	requireCode(t, err, models.CodeInternal)
}

func TestUserRepository_GetBySlug(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, models.CapabilityInspirer)

	got, err := repo.GetBySlug(ctx, user.Slug)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.True(t, got.IsInspirer())

	_, err = repo.GetBySlug(ctx, "missingmissingmissin")
	requireCode(t, err, models.CodeNotFound)
}

func TestUserRepository_GetByEmailMissing(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewUserRepository(db)

	user, err := repo.GetByEmail(context.Background(), "nobody@example.com")
	assert.NoError(t, err)
	assert.Nil(t, user)
}

func TestUserRepository_UpdateProfileKeepsCounter(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := testutil.CreateUser(t, db)
	stale := *user

	require.NoError(t, db.Model(&models.User{}).Where("id = ?", user.ID).
		UpdateColumn("subscriber_count", 5).Error)

	score := 4
	stale.FirstName = "Anna"
	stale.Creativity = &score
	require.NoError(t, repo.UpdateProfile(ctx, &stale, []string{"FirstName", "Creativity"}))

	stored, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Anna", stored.FirstName)
	require.NotNil(t, stored.Creativity)
	assert.Equal(t, 4, *stored.Creativity)
	assert.Equal(t, 5, stored.SubscriberCount)
}

func TestUserRepository_UpdateProfileInvalidatesFeedOnRename(t *testing.T) {
	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(nil) })

	db := testutil.NewSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	user := testutil.CreateUser(t, db)
	feedKey := cache.PostsFirstPageKey(models.DefaultPageSize)

	require.NoError(t, mr.Set(feedKey, "{}"))
	score := 3
	user.Leadership = &score
	require.NoError(t, repo.UpdateProfile(ctx, user, []string{"Leadership"}))
	assert.True(t, mr.Exists(feedKey))

	user.LastName = "Sidorova"
	require.NoError(t, repo.UpdateProfile(ctx, user, []string{"LastName"}))
	assert.False(t, mr.Exists(feedKey))
}

func TestUserRepository_Capabilities(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	plain := testutil.CreateUser(t, db)
	testutil.CreateUser(t, db, models.CapabilityInspirer)

	require.True(t, plain.Grant(models.CapabilityInspirer))
	require.NoError(t, repo.UpdateCapabilities(ctx, plain))

	inspirers, err := repo.ListWithCapability(ctx, models.CapabilityInspirer)
	require.NoError(t, err)
	assert.Len(t, inspirers, 2)

	ids, err := repo.ListIDs(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 2)
}

func TestIsUniqueConstraintError(t *testing.T) {
	assert.False(t, isUniqueConstraintError(nil))
	assert.True(t, isUniqueConstraintError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_users_email"}))
	assert.False(t, isUniqueConstraintError(&pgconn.PgError{Code: "23503"}))
	assert.True(t, isUniqueConstraintError(errors.New("UNIQUE constraint failed: users.slug")))

	assert.True(t, uniqueViolationOn(&pgconn.PgError{Code: "23505", ConstraintName: "idx_users_email"}, "email"))
	assert.False(t, uniqueViolationOn(&pgconn.PgError{Code: "23505", ConstraintName: "idx_users_slug"}, "email"))
	assert.True(t, uniqueViolationOn(errors.New("UNIQUE constraint failed: users.slug"), "slug"))
}
