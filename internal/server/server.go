// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	_ "inkwell/docs" // swagger docs
	"inkwell/internal/cache"
	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/notifications"
	"inkwell/internal/repository"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	jwtIssuer   = "inkwell-api"
	jwtAudience = "inkwell-client"
)

// Server holds the application's dependencies and HTTP handlers.
type Server struct {
	config *config.Config
	db     *gorm.DB
	redis  *redis.Client
	app    *fiber.App

	shutdownCtx context.Context
	shutdownFn  context.CancelFunc

	userRepo    repository.UserRepository
	profileRepo repository.ProfileRepository
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository

	notifier *notifications.Notifier
	feedHub  *notifications.Hub

	accounts *service.AccountService
	posts    *service.PostService
	comments *service.CommentService
	avatars  *service.AvatarService
}

// NewServer creates a fully wired server: database, Redis, repositories and
// services.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}

	cache.InitRedis(cfg.RedisURL)

	return NewServerWithDeps(cfg, db, cache.GetClient()), nil
}

// NewServerWithDeps creates a server from existing connections. Tests use it
// with an in-memory database and a miniredis client.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		config:      cfg,
		db:          db,
		redis:       rdb,
		shutdownCtx: ctx,
		shutdownFn:  cancel,
	}

	s.userRepo = repository.NewUserRepository(db)
	s.profileRepo = repository.NewProfileRepository(db)
	s.postRepo = repository.NewPostRepository(db)
	s.commentRepo = repository.NewCommentRepository(db)

	s.notifier = notifications.NewNotifier(rdb)
	s.feedHub = notifications.NewHub()

	s.accounts = service.NewAccountService(db, s.userRepo, s.profileRepo)
	s.posts = service.NewPostService(s.postRepo, s.userRepo, s.notifier)
	s.comments = service.NewCommentService(s.commentRepo, s.postRepo, s.notifier)
	s.avatars = service.NewAvatarService(s.profileRepo, cfg.MediaDir, cfg.MediaBaseURL)

	return s
}

// SetupMiddleware registers the global middleware stack in order.
func (s *Server) SetupMiddleware() {
	s.app.Use(recover.New())
	s.app.Use(requestid.New())
	s.app.Use(middleware.ContextMiddleware())

	prom := middleware.InitMetrics("inkwell")
	prom.RegisterAt(s.app, "/metrics")
	s.app.Use(middleware.MetricsMiddleware(prom))

	if s.config.TracingEnabled {
		s.app.Use(middleware.TracingMiddleware())
	}

	s.app.Use(helmet.New())
	s.app.Use(middleware.StructuredLogger())

	s.app.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.AllowedOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		AllowCredentials: true,
	}))
}

// SetupRoutes registers every API route.
func (s *Server) SetupRoutes() {
	api := s.app.Group("/api")

	api.Get("/health", s.HealthCheck)
	api.Get("/health/live", s.LivenessCheck)
	api.Get("/health/ready", s.ReadinessCheck)

	api.Get("/swagger/*", swagger.HandlerDefault)

	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(s.redis, 5, time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(s.redis, 10, time.Minute, "login"), s.Login)
	auth.Post("/logout", s.AuthRequired(), s.Logout)

	// Public reads. Register /posts/:id/comments before /posts/:id so the
	// more specific route wins.
	api.Get("/posts", s.GetPosts)
	api.Get("/posts/:id/comments", s.GetComments)
	api.Get("/posts/:id", s.GetPost)

	// /users/me before /users/:username so "me" is never treated as a name.
	me := api.Group("/users/me", s.AuthRequired())
	me.Get("/", s.GetMyAccount)
	me.Put("/", s.UpdateMyAccount)
	me.Post("/avatar", s.UploadAvatar)
	me.Delete("/", s.DeleteMyAccount)

	api.Get("/users/:username/posts", s.GetUserPosts)

	api.Post("/posts", s.AuthRequired(), middleware.RateLimit(s.redis, 20, time.Minute, "create_post"), s.CreatePost)
	api.Put("/posts/:id", s.AuthRequired(), s.UpdatePost)
	api.Delete("/posts/:id", s.AuthRequired(), s.DeletePost)
	api.Post("/posts/:id/comments", s.AuthRequired(), middleware.RateLimit(s.redis, 30, time.Minute, "create_comment"), s.CreateComment)
	api.Delete("/comments/:id", s.AuthRequired(), s.DeleteComment)

	// The live feed is public: anonymous watchers connect with user ID 0.
	ws := api.Group("/ws", s.upgradeRequired)
	ws.Get("/feed", s.optionalUserID(), s.WebSocketFeedHandler())

	s.app.Static(s.config.MediaBaseURL, s.config.MediaDir)
}

// upgradeRequired rejects plain HTTP requests on websocket routes.
func (s *Server) upgradeRequired(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// AuthRequired returns middleware that validates the Bearer token and loads
// the user ID into the request context. Anonymous callers get a 401 carrying
// the sign-in URL.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := bearerToken(c)
		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewAuthRequiredError(s.config.LoginURL))
		}

		claims, err := s.parseToken(c.Context(), tokenString)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewAuthRequiredError(s.config.LoginURL))
		}

		userID := claims.userID
		c.Locals("userID", userID)
		c.Locals("jti", claims.jti)
		c.Locals("tokenExp", claims.exp)

		// Keep the slog context handler in sync so log lines carry the user.
		ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, userID)
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// optionalUserID resolves the user ID from a token when one is present, and
// lets the request through as anonymous otherwise.
func (s *Server) optionalUserID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := bearerToken(c)
		if tokenString == "" {
			// Browsers cannot set headers on websocket dials.
			tokenString = c.Query("token")
		}
		if tokenString != "" {
			if claims, err := s.parseToken(c.Context(), tokenString); err == nil {
				c.Locals("userID", claims.userID)
			}
		}
		return c.Next()
	}
}

type tokenClaims struct {
	userID uint
	jti    string
	exp    time.Time
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// parseToken validates signature, issuer, audience and the Redis blacklist.
func (s *Server) parseToken(ctx context.Context, tokenString string) (*tokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	}, jwt.WithIssuer(jwtIssuer), jwt.WithAudience(jwtAudience), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return nil, errors.New("missing subject")
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return nil, errors.New("invalid subject")
	}

	jti, _ := claims["jti"].(string)
	if jti != "" && s.redis != nil {
		blacklisted, err := s.redis.Exists(ctx, "blacklist:"+jti).Result()
		if err == nil && blacklisted > 0 {
			return nil, errors.New("token revoked")
		}
	}

	var exp time.Time
	if expClaim, err := claims.GetExpirationTime(); err == nil && expClaim != nil {
		exp = expClaim.Time
	}

	return &tokenClaims{userID: uint(userID), jti: jti, exp: exp}, nil
}

// HealthCheck reports overall service health including its dependencies.
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	status := "ok"
	checks := fiber.Map{}

	if sqlDB, err := s.db.DB(); err != nil || sqlDB.PingContext(c.Context()) != nil {
		status = "degraded"
		checks["database"] = "down"
	} else {
		checks["database"] = "up"
	}

	if s.redis == nil {
		checks["redis"] = "disabled"
	} else if err := s.redis.Ping(c.Context()).Err(); err != nil {
		status = "degraded"
		checks["redis"] = "down"
	} else {
		checks["redis"] = "up"
	}

	code := fiber.StatusOK
	if status != "ok" {
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{
		"status": status,
		"checks": checks,
	})
}

// LivenessCheck reports that the process is up.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "alive"})
}

// ReadinessCheck reports whether the server can take traffic. Redis is
// optional, the database is not.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	sqlDB, err := s.db.DB()
	if err != nil || sqlDB.PingContext(c.Context()) != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "not ready"})
	}
	return c.JSON(fiber.Map{"status": "ready"})
}

// Start boots the HTTP server and the feed hub wiring, then blocks serving.
func (s *Server) Start() error {
	s.app = fiber.New(fiber.Config{
		AppName:      "inkwell",
		ErrorHandler: s.errorHandler,
		BodyLimit:    10 * 1024 * 1024,
	})

	s.SetupMiddleware()
	s.SetupRoutes()

	if s.redis != nil {
		if err := s.feedHub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
			log.Printf("feed hub wiring failed: %v", err)
		}
	}

	middleware.Logger.Info("Server starting", "port", s.config.Port, "env", s.config.Env)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown stops the server and closes every connection it owns.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownFn()

	var errs []error
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}
	if err := s.feedHub.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("feed hub shutdown: %w", err))
	}
	if sqlDB, err := s.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database close: %w", err))
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}
	return errors.Join(errs...)
}
