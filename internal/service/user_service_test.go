package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"putevoditel/internal/config"
	"putevoditel/internal/models"
	"putevoditel/internal/repository"
	"putevoditel/internal/storage"
	"putevoditel/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const strongPassword = "Sup3r$ecretPass"

func newUserService(t *testing.T) (*UserService, *gorm.DB) {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	store := storage.NewStore(&config.Config{MediaRoot: t.TempDir()})
	media := NewMediaService(repository.NewMediaRepository(db), store)
	svc := NewUserService(repository.NewUserRepository(db), media)
	svc.hashCost = bcrypt.MinCost
	return svc, db
}

func registerInput(email string) RegisterInput {
	return RegisterInput{Email: email, FirstName: "Ivan", LastName: "Petrov", Password: strongPassword}
}

func TestUserService_Register(t *testing.T) {
	svc, db := newUserService(t)

	user, err := svc.Register(context.Background(), registerInput("ivan@Example.COM"))
	require.NoError(t, err)

	assert.Equal(t, "ivan@example.com", user.Email)
	assert.Equal(t, user.Email, user.Username)
	assert.Len(t, user.Slug, models.SlugLength)
	assert.NotEqual(t, strongPassword, user.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(strongPassword)))

	var stored models.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	assert.Equal(t, user.Slug, stored.Slug)
	assert.Equal(t, user.Password, stored.Password)
	assert.Zero(t, stored.SubscriberCount)
}

func TestUserService_RegisterRejects(t *testing.T) {
	svc, db := newUserService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerInput("taken@example.com"))
	require.NoError(t, err)

	tests := []struct {
		name string
		in   RegisterInput
	}{
		{"duplicate email", registerInput("taken@example.com")},
		{"malformed email", registerInput("not-an-email")},
		{"missing first name", RegisterInput{Email: "a@example.com", LastName: "P", Password: strongPassword}},
		{"weak password", RegisterInput{Email: "b@example.com", FirstName: "I", LastName: "P", Password: "short"}},
		{"missing password", RegisterInput{Email: "c@example.com", FirstName: "I", LastName: "P"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.in)
			assertCode(t, err, models.CodeValidation)
		})
	}

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestUserService_Authenticate(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, registerInput("login@example.com"))
	require.NoError(t, err)

	user, err := svc.Authenticate(ctx, " login@EXAMPLE.com ", strongPassword)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	_, err = svc.Authenticate(ctx, "login@example.com", "wrong")
	assertCode(t, err, models.CodeUnauthorized)

	_, err = svc.Authenticate(ctx, "nobody@example.com", strongPassword)
	assertCode(t, err, models.CodeUnauthorized)
}

func TestUserService_GetBySlug(t *testing.T) {
	svc, db := newUserService(t)
	user := testutil.CreateUser(t, db)

	got, err := svc.GetBySlug(context.Background(), user.Slug)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.GetBySlug(context.Background(), "../etc")
	assertCode(t, err, models.CodeNotFound)
}

func decodeProfile(t *testing.T, body string) ProfileInput {
	t.Helper()
	var in ProfileInput
	require.NoError(t, json.Unmarshal([]byte(body), &in))
	return in
}

func TestUserService_PatchProfile(t *testing.T) {
	svc, db := newUserService(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db)

	view, err := svc.UpdateProfile(ctx, user.ID, decodeProfile(t, `{
		"telephone": "+79991234567",
		"creativity": 5,
		"leadership": 2,
		"introvert": true,
		"who_am_i_extra_1": "climber",
		"what_i_want_10": "see the aurora"
	}`), true)
	require.NoError(t, err)
	assert.Equal(t, user.FirstName, view.FirstName)
	require.NotNil(t, view.Creativity)
	assert.Equal(t, 5, *view.Creativity)
	assert.True(t, view.Introvert)
	assert.Equal(t, "see the aurora", view.WhatIWant10)
	assert.NotNil(t, view.Images)

	view, err = svc.UpdateProfile(ctx, user.ID, decodeProfile(t, `{"creativity": null}`), true)
	require.NoError(t, err)
	assert.Nil(t, view.Creativity)
	require.NotNil(t, view.Leadership)
	assert.Equal(t, 2, *view.Leadership)
	assert.Equal(t, "+79991234567", view.Telephone)

	stored, err := svc.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.Creativity)
	assert.Equal(t, "climber", stored.WhoAmIExtra1)
}

func TestUserService_UpdateProfileRejects(t *testing.T) {
	svc, db := newUserService(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db)

	tests := []struct {
		name    string
		body    string
		partial bool
	}{
		{"score above range", `{"communication": 7}`, true},
		{"score below range", `{"achievement": 0}`, true},
		{"bad telephone", `{"telephone": "12345"}`, true},
		{"who am i too long", `{"who_am_i_extra_2": "` + strings.Repeat("a", 51) + `"}`, true},
		{"empty first name", `{"first_name": ""}`, true},
		{"full update without names", `{"creativity": 3}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdateProfile(ctx, user.ID, decodeProfile(t, tt.body), tt.partial)
			assertCode(t, err, models.CodeValidation)
		})
	}

	_, err := svc.UpdateProfile(ctx, 0, ProfileInput{}, true)
	assertCode(t, err, models.CodeUnauthorized)

	view, err := svc.UpdateProfile(ctx, user.ID, decodeProfile(t, `{"first_name": "Anna", "last_name": "Ivanova", "optimist": true}`), false)
	require.NoError(t, err)
	assert.Equal(t, "Anna", view.FirstName)
	assert.True(t, view.Optimist)
}

func TestUserService_SetCapability(t *testing.T) {
	svc, db := newUserService(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db)

	got, changed, err := svc.SetCapability(ctx, user.ID, models.CapabilityInspirer, true)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, got.IsInspirer())

	_, changed, err = svc.SetCapability(ctx, user.ID, models.CapabilityInspirer, true)
	require.NoError(t, err)
	assert.False(t, changed)

	inspirers, err := svc.ListWithCapability(ctx, models.CapabilityInspirer)
	require.NoError(t, err)
	require.Len(t, inspirers, 1)

	got, changed, err = svc.SetCapability(ctx, user.ID, models.CapabilityInspirer, false)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.False(t, got.IsInspirer())

	_, _, err = svc.SetCapability(ctx, user.ID, "wizard", true)
	assertCode(t, err, models.CodeValidation)
}
