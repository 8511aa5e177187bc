// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "putevoditel/docs" // swagger docs
	"putevoditel/internal/cache"
	"putevoditel/internal/config"
	"putevoditel/internal/database"
	"putevoditel/internal/featureflags"
	"putevoditel/internal/middleware"
	"putevoditel/internal/models"
	"putevoditel/internal/notifications"
	"putevoditel/internal/repository"
	"putevoditel/internal/service"
	"putevoditel/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	store          *storage.Store
	notifier       *notifications.Notifier
	hub            *notifications.Hub
	featureFlags   *featureflags.Manager
	limiter        *middleware.Limiter

	userService         *service.UserService
	authService         *service.AuthService
	subscriptionService *service.SubscriptionService
	goalService         *service.GoalService
	postService         *service.PostService
	mediaService        *service.MediaService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Redis is optional; a nil client disables caching, revocation and notifications.
	cache.InitRedis(cfg.RedisURL)
	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	userRepo := repository.NewUserRepository(db)
	subscriberRepo := repository.NewSubscriberRepository(db)
	goalRepo := repository.NewGoalRepository(db)
	postRepo := repository.NewPostRepository(db)
	mediaRepo := repository.NewMediaRepository(db)

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("putevoditel-api"),
		store:          storage.NewStore(cfg),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
		limiter:        middleware.NewLimiter(redisClient, cfg.RateLimitEnabled()),
	}

	var publisher service.EventPublisher
	if redisClient != nil {
		server.notifier = notifications.NewNotifier(redisClient)
		server.hub = notifications.NewHub()
		publisher = server.notifier
	}

	server.mediaService = service.NewMediaService(mediaRepo, server.store)
	server.userService = service.NewUserService(userRepo, server.mediaService)
	server.authService = service.NewAuthService(cfg, server.userService, redisClient)
	server.subscriptionService = service.NewSubscriptionService(subscriberRepo, userRepo, publisher)
	server.goalService = service.NewGoalService(goalRepo, userRepo, server.featureFlags)
	server.postService = service.NewPostService(postRepo, userRepo, server.store)

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))

	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected browser requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || s.config.Env == "test"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)
	api.Get("/", s.HealthCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Putevoditel Backend Metrics Dashboard",
	}))

	api.Get("/swagger/*", swagger.HandlerDefault)

	// Uploaded images and videos
	app.Static(storage.URLPrefix, s.store.Root(), fiber.Static{
		ByteRange: true,
		MaxAge:    3600,
	})

	auth := api.Group("/auth")
	auth.Post("/register", s.limiter.Handler(middleware.LimitRegister), s.Register)
	auth.Post("/token", s.limiter.Handler(middleware.LimitToken), s.ObtainToken)
	auth.Post("/refresh", s.RefreshToken)
	auth.Post("/logout", s.AuthRequired(), s.Logout)

	// Public routes
	api.Get("/posts", s.GetPosts)
	publicUsers := api.Group("/user")
	publicUsers.Get("/:slug/subscribers", s.GetSubscribers)
	publicUsers.Get("/:slug/aims", s.GetUserAims)

	protected := api.Group("", s.AuthRequired())

	// Specific /user/form routes are registered before /user/:slug ones below.
	form := protected.Group("/user/form")
	form.Get("/", s.GetProfile)
	form.Put("/", s.ReplaceProfile)
	form.Patch("/", s.PatchProfile)
	form.Post("/image", s.limiter.Handler(middleware.LimitFormImage), s.UploadFormImage)

	subscribers := protected.Group("/user/:slug/subscribers")
	subscribers.Post("/", s.limiter.Handler(middleware.LimitSubscribe), s.Subscribe)
	subscribers.Delete("/", s.Unsubscribe)

	aims := protected.Group("/goals/aim")
	aims.Get("/", s.GetAims)
	aims.Post("/", s.CreateAim)
	aims.Get("/:id", s.GetAim)
	aims.Put("/:id", s.ReplaceAim)
	aims.Patch("/:id", s.PatchAim)
	aims.Delete("/:id", s.DeleteAim)

	dreams := protected.Group("/goals/dream")
	dreams.Get("/", s.GetDreams)
	dreams.Post("/", s.CreateDream)
	// Specific /:id/:action route before generic /:id routes
	dreams.Post("/:id/dream_to_aim", s.ConvertDreamToAim)
	dreams.Get("/:id", s.GetDream)
	dreams.Put("/:id", s.ReplaceDream)
	dreams.Patch("/:id", s.PatchDream)
	dreams.Delete("/:id", s.DeleteDream)

	posts := protected.Group("/posts")
	posts.Post("/", s.limiter.Handler(middleware.LimitCreatePost), s.CreatePost)

	protected.Get("/ws", s.WebsocketUpgradeRequired, s.WebsocketHandler())
}

func (s *Server) HealthCheck(c *fiber.Ctx) error {
	return s.ReadinessCheck(c)
}

func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports database and Redis health. Redis is optional, so an
// absent client does not make the service unready.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"message": "Putevoditel",
		"version": "1.0.0",
		"status":  overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// AuthRequired verifies the bearer access token and stores the user id in
// c.Locals("userID"). WebSocket clients, which cannot set headers from a
// browser, may pass the token in the "token" query parameter.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := ""
		if authHeader := c.Get("Authorization"); authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}
		if tokenString == "" && strings.HasPrefix(c.Path(), "/api/ws") {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		claims, err := s.authService.ParseToken(tokenString, service.TokenTypeAccess)
		if err != nil {
			return respondServiceError(c, err)
		}

		revoked, err := s.authService.IsRevoked(c.Context(), claims.ID)
		if err != nil {
			// Fail open: a Redis outage must not log everybody out.
			middleware.Logger.WarnContext(c.UserContext(), "token revocation check failed",
				slog.String("error", err.Error()))
		} else if revoked {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Token has been revoked"))
		}

		userID, err := claims.UserID()
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid user ID in token"))
		}

		c.Locals("userID", userID)
		c.Locals("claims", claims)
		c.SetUserContext(middleware.WithUserID(c.UserContext(), userID))

		return c.Next()
	}
}

// Start builds the Fiber app, wires the notification hub and listens on the
// configured port.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.NewApp()

	if s.notifier != nil && s.hub != nil {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				middleware.Logger.Error("failed to start notification wiring", slog.String("error", err.Error()))
			}
		}()
	}

	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// NewApp returns a Fiber app with the middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	bodyLimit := s.config.MediaMaxUploadSizeMB
	if bodyLimit <= 0 {
		bodyLimit = storage.DefaultMaxUploadMB
	}
	app := fiber.New(fiber.Config{
		AppName:   "Putevoditel API",
		BodyLimit: (bodyLimit + 1) * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if s.hub != nil {
		if err := s.hub.Shutdown(ctx); err != nil {
			middleware.Logger.Error("error shutting down notification hub", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
