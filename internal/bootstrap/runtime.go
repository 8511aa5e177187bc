// Package bootstrap prepares the runtime dependencies shared by the server
// and the command line tools.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"putevoditel/internal/cache"
	"putevoditel/internal/config"
	"putevoditel/internal/database"
	"putevoditel/internal/middleware"
	"putevoditel/internal/models"
	"putevoditel/internal/repository"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const defaultDevInspirerEmail = "inspirer@putevoditel.local"

// InitRuntime connects to the database and Redis and ensures the development
// inspirer account when enabled. The Redis client is nil when Redis is
// unreachable.
func InitRuntime(cfg *config.Config) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if _, err := EnsureDevInspirer(context.Background(), cfg, db); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap development inspirer: %w", err)
	}
	return db, r, nil
}

// EnsureDevInspirer creates (or promotes) an inspirer account in development
// so that posts and subscriptions can be exercised right away. It returns nil
// when bootstrapping is disabled.
func EnsureDevInspirer(ctx context.Context, cfg *config.Config, db *gorm.DB) (*models.User, error) {
	if cfg == nil || db == nil {
		return nil, nil
	}
	if !strings.EqualFold(cfg.Env, "development") || !cfg.DevBootstrapInspirer {
		return nil, nil
	}

	email := strings.TrimSpace(strings.ToLower(cfg.DevInspirerEmail))
	if email == "" {
		email = defaultDevInspirerEmail
	}
	if cfg.DevInspirerPassword == "" {
		return nil, fmt.Errorf("DEV_INSPIRER_PASSWORD must be set when DEV_BOOTSTRAP_INSPIRER is enabled")
	}

	users := repository.NewUserRepository(db)
	user, err := users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if user == nil {
		hashed, err := bcrypt.GenerateFromPassword([]byte(cfg.DevInspirerPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash inspirer password: %w", err)
		}
		user = &models.User{
			Email:        email,
			Username:     email,
			FirstName:    "Dev",
			LastName:     "Inspirer",
			Password:     string(hashed),
			Capabilities: []string{models.CapabilityInspirer},
		}
		if err := users.Create(ctx, user); err != nil {
			return nil, err
		}
	} else if user.Grant(models.CapabilityInspirer) {
		if err := users.UpdateCapabilities(ctx, user); err != nil {
			return nil, err
		}
	}

	middleware.Logger.Info("Development inspirer ensured",
		slog.Uint64("user_id", uint64(user.ID)),
		slog.String("email", email),
		slog.String("slug", user.Slug),
	)
	return user, nil
}
