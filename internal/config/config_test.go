package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:                      "development",
		DBSSLMode:                "disable",
		JWTSecret:                "secure-secret-at-least-32-chars-long",
		DBPassword:               "secure-password",
		Port:                     "8000",
		MediaMaxUploadSizeMB:     10,
		DBConnMaxLifetimeMinutes: 1,
		TracingSamplerRatio:      1,
		RedisURL:                 "localhost:6379",
	}
}

func TestConfig_ValidateSSLMode(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		sslMode     string
		expectError bool
	}{
		{"Production with empty SSL mode", "production", "", true},
		{"Production with disable SSL mode", "production", "disable", true},
		{"Production with require SSL mode", "production", "require", false},
		{"Prod with verify-full SSL mode", "prod", "verify-full", false},
		{"Development with disable SSL mode", "development", "disable", false},
		{"Test with empty SSL mode", "test", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			c.Env = tt.env
			c.DBSSLMode = tt.sslMode

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateProductionSecrets(t *testing.T) {
	t.Run("default jwt secret", func(t *testing.T) {
		c := validConfig()
		c.Env = "production"
		c.DBSSLMode = "require"
		c.JWTSecret = defaultJWTSecret
		assert.Error(t, c.Validate())
	})

	t.Run("short jwt secret", func(t *testing.T) {
		c := validConfig()
		c.Env = "production"
		c.DBSSLMode = "require"
		c.JWTSecret = "short"
		assert.Error(t, c.Validate())
	})

	t.Run("weak db password", func(t *testing.T) {
		c := validConfig()
		c.Env = "production"
		c.DBSSLMode = "require"
		c.DBPassword = "password"
		assert.Error(t, c.Validate())
	})

	t.Run("dev inspirer bootstrap", func(t *testing.T) {
		c := validConfig()
		c.Env = "production"
		c.DBSSLMode = "require"
		c.DevBootstrapInspirer = true
		assert.Error(t, c.Validate())
	})
}

func TestConfig_ValidateRequiredFields(t *testing.T) {
	c := validConfig()
	c.Port = ""
	assert.Error(t, c.Validate())

	c = validConfig()
	c.MediaMaxUploadSizeMB = 0
	assert.Error(t, c.Validate())

	c = validConfig()
	c.TracingSamplerRatio = 1.5
	assert.Error(t, c.Validate())

	c = validConfig()
	c.FeatureFlags = "mask_foreign_goals=yes"
	assert.Error(t, c.Validate())

	c = validConfig()
	c.FeatureFlags = "mask_foreign_goals=true"
	assert.NoError(t, c.Validate())
}

func TestLoadConfig_SSLModeNormalization(t *testing.T) {
	defer viper.Reset()

	t.Setenv("APP_ENV", "development")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, 25, c.DBMaxOpenConns)
	assert.Equal(t, "media", c.MediaRoot)
}

func TestConfig_RateLimitEnabled(t *testing.T) {
	for env, want := range map[string]bool{
		"":            false,
		"test":        false,
		"development": false,
		"stress":      false,
		"staging":     true,
		"production":  true,
	} {
		c := &Config{Env: env}
		assert.Equal(t, want, c.RateLimitEnabled(), env)
	}
}
