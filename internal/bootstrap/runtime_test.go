package bootstrap

import (
	"context"
	"testing"

	"putevoditel/internal/config"
	"putevoditel/internal/models"
	"putevoditel/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func devConfig() *config.Config {
	return &config.Config{
		Env:                  "development",
		DevBootstrapInspirer: true,
		DevInspirerEmail:     "Dev@Example.com",
		DevInspirerPassword:  "Inspire$2024x",
	}
}

func TestEnsureDevInspirer_Creates(t *testing.T) {
	db := testutil.NewSQLiteDB(t)

	user, err := EnsureDevInspirer(context.Background(), devConfig(), db)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "dev@example.com", user.Email)
	assert.True(t, user.IsInspirer())
	assert.Len(t, user.Slug, models.SlugLength)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("Inspire$2024x")))

	again, err := EnsureDevInspirer(context.Background(), devConfig(), db)
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)

	var n int64
	require.NoError(t, db.Model(&models.User{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestEnsureDevInspirer_PromotesExisting(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	existing := testutil.CreateUser(t, db)

	cfg := devConfig()
	cfg.DevInspirerEmail = existing.Email
	user, err := EnsureDevInspirer(context.Background(), cfg, db)
	require.NoError(t, err)
	assert.Equal(t, existing.ID, user.ID)

	var stored models.User
	require.NoError(t, db.First(&stored, existing.ID).Error)
	assert.True(t, stored.IsInspirer())
	assert.Equal(t, existing.Password, stored.Password)
}

func TestEnsureDevInspirer_Disabled(t *testing.T) {
	db := testutil.NewSQLiteDB(t)

	cfg := devConfig()
	cfg.Env = "production"
	user, err := EnsureDevInspirer(context.Background(), cfg, db)
	require.NoError(t, err)
	assert.Nil(t, user)

	cfg = devConfig()
	cfg.DevBootstrapInspirer = false
	user, err = EnsureDevInspirer(context.Background(), cfg, db)
	require.NoError(t, err)
	assert.Nil(t, user)

	cfg = devConfig()
	cfg.DevInspirerPassword = ""
	_, err = EnsureDevInspirer(context.Background(), cfg, db)
	assert.Error(t, err)
}
