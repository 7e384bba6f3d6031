// Package server contains the HTTP handlers for the application's API
// endpoints.
package server

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"jobfinder/internal/cache"
	"jobfinder/internal/config"
	"jobfinder/internal/database"
	"jobfinder/internal/middleware"
	"jobfinder/internal/models"
	"jobfinder/internal/oauth"
	"jobfinder/internal/policy"
	"jobfinder/internal/repository"
	"jobfinder/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	tokenIssuer   = "jobfinder-api"
	tokenAudience = "jobfinder-client"

	// identityKey is the locals slot holding the request's resolved
	// *models.User. It is the only identity representation handlers see.
	identityKey = "identity"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus

	userRepo    repository.UserRepository
	formRepo    repository.FormRepository
	pendingRepo repository.PendingLookupRepository

	companyRepo    repository.LookupRepository[models.VerifiedCompany]
	workFormatRepo repository.LookupRepository[models.WorkFormat]
	jobTypeRepo    repository.LookupRepository[models.JobType]
	currencyRepo   repository.LookupRepository[models.Currency]

	google *oauth.GoogleClient
	assets storage.AssetStorage
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)

	s := newServerWith(cfg, db, cache.GetClient())
	if cfg.GoogleClientID != "" {
		s.google = oauth.NewGoogleClient(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
	}
	if cfg.AssetCloudName != "" {
		s.assets = storage.NewCloudinaryStorage(cfg.AssetCloudName, cfg.AssetAPIKey, cfg.AssetAPISecret, cfg.AssetFolderRoot)
	}
	return s, nil
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis and
// optionally performs explicit seeding.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	return newServerWith(cfg, db, redisClient), nil
}

func newServerWith(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Server {
	return &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("jobfinder-api"),
		userRepo:       repository.NewUserRepository(db),
		formRepo:       repository.NewFormRepository(db),
		pendingRepo:    repository.NewPendingLookupRepository(db),
		companyRepo:    repository.NewLookupRepository[models.VerifiedCompany](db, models.CategoryCompany),
		workFormatRepo: repository.NewLookupRepository[models.WorkFormat](db, models.CategoryWorkFormat),
		jobTypeRepo:    repository.NewLookupRepository[models.JobType](db, models.CategoryJobType),
		currencyRepo:   repository.NewLookupRepository[models.Currency](db, models.CategoryCurrency),
	}
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
		app.Use(s.promMiddleware.Middleware)
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before middlewares that can short-circuit (e.g. limiter) so
	// browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
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
	app.Get("/health", s.HealthCheck)

	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/google", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "google_login"), s.GoogleLogin)
	auth.Post("/change-password", s.AuthRequired(), s.ChangePassword)

	// Lookup routes; one group per category, writes behind AdminRequired.
	registerLookupRoutes(s, api, models.CategoryCompany, s.companyRepo)
	registerLookupRoutes(s, api, models.CategoryWorkFormat, s.workFormatRepo)
	registerLookupRoutes(s, api, models.CategoryJobType, s.jobTypeRepo)
	registerLookupRoutes(s, api, models.CategoryCurrency, s.currencyRepo)

	// Listing routes. Browse and detail are public but identity-aware.
	forms := api.Group("/forms")
	forms.Get("/", s.OptionalAuth(), s.GetForms)
	forms.Get("/hidden", s.AuthRequired(), s.AdminRequired(), s.GetHiddenForms)
	forms.Post("/", s.AuthRequired(), middleware.RateLimit(
		s.redis, 5, 5*time.Minute, "create_form"), s.CreateForm)
	// Specific /:id/:action routes before the generic /:id routes.
	forms.Post("/:id/approve", s.AuthRequired(), s.AdminRequired(), s.ApproveForm)
	forms.Post("/:id/reject", s.AuthRequired(), s.AdminRequired(), s.RejectForm)
	forms.Post("/:id/restore", s.AuthRequired(), s.AdminRequired(), s.RestoreForm)
	forms.Put("/:id", s.AuthRequired(), s.UpdateForm)
	forms.Delete("/:id", s.AuthRequired(), s.DeleteForm)
	forms.Get("/:id", s.OptionalAuth(), s.GetForm)

	// Pending lookup proposals (admin moderation queue)
	pending := api.Group("/pending-lookups", s.AuthRequired(), s.AdminRequired())
	pending.Get("/", s.GetPendingLookups)
	pending.Post("/:id/approve", s.ApprovePendingLookup)

	// Profile routes
	profiles := api.Group("/profiles", s.AuthRequired())
	profiles.Get("/me", s.GetMyProfile)
	profiles.Put("/me", s.UpdateMyProfile)
	profiles.Post("/me/avatar", s.UploadAvatar)
	profiles.Delete("/me/avatar", s.DeleteAvatar)
	profiles.Post("/me/cv", s.UploadCV)
	profiles.Delete("/me/cv", s.DeleteCV)

	// User management
	users := api.Group("/users", s.AuthRequired())
	users.Get("/", s.AdminRequired(), s.GetUsers)
	users.Post("/:id/set-status", s.AdminRequired(), s.SetUserStatus)
	users.Get("/:id", s.GetUser)
}

// HealthCheck reports process and dependency health.
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// The app degrades without Redis; readiness only requires the DB.
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overall := "healthy"
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// AuthRequired returns middleware that resolves the bearer token into the
// canonical request identity: a fully loaded *models.User in locals.
// Downstream handlers never parse tokens themselves.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, appErr := s.resolveIdentity(c)
		if appErr != nil {
			return models.RespondWithError(c, models.StatusForError(appErr), appErr)
		}
		c.Locals(identityKey, user)
		c.Locals("userID", user.ID)
		return c.Next()
	}
}

// OptionalAuth resolves the identity when a valid bearer token is present and
// silently continues anonymously otherwise.
func (s *Server) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get("Authorization") != "" {
			if user, appErr := s.resolveIdentity(c); appErr == nil {
				c.Locals(identityKey, user)
				c.Locals("userID", user.ID)
			}
		}
		return c.Next()
	}
}

// AdminRequired rejects non-admin identities with 403. Must be placed after
// AuthRequired.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !policy.IsAdmin(identity(c)) {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewPermissionError("Admin access required"))
		}
		return c.Next()
	}
}

// resolveIdentity validates the bearer token and loads the subject user with
// role and status preloaded.
func (s *Server) resolveIdentity(c *fiber.Ctx) (*models.User, *models.AppError) {
	authHeader := c.Get("Authorization")
	tokenString := ""
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			tokenString = parts[1]
		}
	}
	if tokenString == "" {
		return nil, models.NewAuthenticationError("Authorization required")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, models.NewAuthenticationError("Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, models.NewAuthenticationError("Invalid token claims")
	}
	if issuer, issuerOk := claims["iss"].(string); !issuerOk || issuer != tokenIssuer {
		return nil, models.NewAuthenticationError("Invalid token issuer")
	}
	if audience, audienceOk := claims["aud"].(string); !audienceOk || audience != tokenAudience {
		return nil, models.NewAuthenticationError("Invalid token audience")
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return nil, models.NewAuthenticationError("Invalid subject claim")
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil {
		return nil, models.NewAuthenticationError("Invalid user ID in token")
	}

	// Check JTI for revocation
	if jti, exists := claims["jti"].(string); exists && jti != "" && s.redis != nil {
		blacklisted, err := s.redis.Exists(c.Context(), "blacklist:"+jti).Result()
		if err == nil && blacklisted > 0 {
			return nil, models.NewAuthenticationError("Token has been revoked")
		}
	}

	user, err := s.userRepo.GetByID(c.Context(), uint(userID))
	if err != nil {
		return nil, models.NewAuthenticationError("Account no longer exists")
	}
	return user, nil
}

// Start starts the server
func (s *Server) Start() error {
	app := fiber.New(fiber.Config{
		AppName:   "Jobfinder API",
		BodyLimit: 12 * 1024 * 1024, // uploads are size-checked per route
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
