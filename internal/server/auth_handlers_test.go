package server

import (
	"net/http"
	"testing"

	"putevoditel/internal/models"
	"putevoditel/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, jsonRequest(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":      "Ivan.Petrov@Example.com",
		"first_name": "Ivan",
		"last_name":  "Petrov",
		"password":   testPassword,
	}))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	account := decode[models.AccountView](t, resp)
	assert.NotZero(t, account.ID)
	assert.Equal(t, "Ivan", account.FirstName)
	assert.Len(t, account.Slug, models.SlugLength)

	var count int64
	require.NoError(t, env.db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRegister_Rejects(t *testing.T) {
	env := newTestEnv(t)
	existing := env.user(t)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"duplicate email", map[string]string{"email": existing.Email, "first_name": "A", "last_name": "B", "password": testPassword}},
		{"bad email", map[string]string{"email": "nope", "first_name": "A", "last_name": "B", "password": testPassword}},
		{"weak password", map[string]string{"email": "weak@example.com", "first_name": "A", "last_name": "B", "password": "short"}},
		{"missing names", map[string]string{"email": "names@example.com", "password": testPassword}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, jsonRequest(http.MethodPost, "/api/auth/register", "", tt.body))
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
			errResp := decode[models.ErrorResponse](t, resp)
			assert.Equal(t, models.CodeValidation, errResp.Code)
		})
	}
}

func TestObtainToken(t *testing.T) {
	env := newTestEnv(t)
	u := env.user(t)

	resp := env.do(t, jsonRequest(http.MethodPost, "/api/auth/token", "", map[string]string{
		"email": u.Email, "password": testPassword,
	}))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	pair := decode[service.TokenPair](t, resp)
	assert.NotEmpty(t, pair.Access)
	assert.NotEmpty(t, pair.Refresh)

	resp = env.do(t, jsonRequest(http.MethodPost, "/api/auth/token", "", map[string]string{
		"email": u.Email, "password": "Wr0ng$Password",
	}))
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = env.do(t, jsonRequest(http.MethodPost, "/api/auth/token", "", map[string]string{"email": u.Email}))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestRefreshToken(t *testing.T) {
	env := newTestEnv(t)
	u := env.user(t)
	pair, err := env.server.authService.Obtain(t.Context(), u.Email, testPassword)
	require.NoError(t, err)

	resp := env.do(t, jsonRequest(http.MethodPost, "/api/auth/refresh", "", map[string]string{"refresh": pair.Refresh}))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decode[map[string]string](t, resp)
	require.NotEmpty(t, body["access"])

	resp = env.do(t, jsonRequest(http.MethodGet, "/api/user/form", body["access"], nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// An access token is not a refresh token.
	resp = env.do(t, jsonRequest(http.MethodPost, "/api/auth/refresh", "", map[string]string{"refresh": pair.Access}))
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = env.do(t, jsonRequest(http.MethodPost, "/api/auth/refresh", "", map[string]string{}))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	u := env.user(t)
	pair, err := env.server.authService.Obtain(t.Context(), u.Email, testPassword)
	require.NoError(t, err)

	resp := env.do(t, jsonRequest(http.MethodPost, "/api/auth/logout", pair.Access, map[string]string{"refresh": pair.Refresh}))
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp = env.do(t, jsonRequest(http.MethodGet, "/api/user/form", pair.Access, nil))
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = env.do(t, jsonRequest(http.MethodPost, "/api/auth/refresh", "", map[string]string{"refresh": pair.Refresh}))
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestLogout_WithoutBody(t *testing.T) {
	env := newTestEnv(t)
	u := env.user(t)
	token := env.token(t, u)

	resp := env.do(t, jsonRequest(http.MethodPost, "/api/auth/logout", token, nil))
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp = env.do(t, jsonRequest(http.MethodPost, "/api/auth/logout", "", nil))
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
