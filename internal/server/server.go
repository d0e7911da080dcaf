// Package server contains the HTTP and WebSocket handlers of the API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "thoughtnet/docs" // swagger docs
	"thoughtnet/internal/bootstrap"
	"thoughtnet/internal/config"
	"thoughtnet/internal/middleware"
	"thoughtnet/internal/models"
	"thoughtnet/internal/notifications"
	"thoughtnet/internal/presenter"
	"thoughtnet/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/gofiber/websocket/v2"
	"github.com/redis/go-redis/v9"
)

// Creation endpoints allow this many requests per client per window.
const (
	createLimit  = 30
	createWindow = time.Minute
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	store          *bootstrap.Store
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	notifier       *notifications.Notifier
	hub            *notifications.Hub
	userService    *service.UserService
	thoughtService *service.ThoughtService
}

// NewServer connects the configured backends and builds a Server.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	rt, err := bootstrap.InitRuntime(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, rt.Store, rt.Redis)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil; the activity feed then delivers on this instance only.
func NewServerWithDeps(cfg *config.Config, store *bootstrap.Store, redisClient *redis.Client) (*Server, error) {
	loc, err := cfg.DisplayLocation()
	if err != nil {
		return nil, fmt.Errorf("display timezone: %w", err)
	}
	format := presenter.NewFormatter(loc)

	s := &Server{
		config:         cfg,
		store:          store,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("thoughtnet-api"),
		notifier:       notifications.NewNotifier(redisClient),
		hub:            notifications.NewHub(),
	}
	events := notifications.NewDispatcher(s.notifier, s.hub)
	s.userService = service.NewUserService(store.Users, store.Thoughts, format, events)
	s.thoughtService = service.NewThoughtService(store.Thoughts, store.Users, format, events)

	return s, nil
}

// NewApp builds a Fiber app with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Thoughtnet API",
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: s.errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(models.ErrorResponse{Message: fe.Message})
	}
	return respondError(c, err)
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())

	// Tracing runs first so the trace id reaches the request context.
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:3000,http://127.0.0.1:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		MaxAge:       86400,
	}))

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
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Message: "Too many requests, please try again later.",
				Code:    middleware.CodeRateLimited,
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	api.Get("/", s.APIProbe)
	api.Get("/swagger/*", swagger.HandlerDefault)
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Thoughtnet Metrics Dashboard",
	}))

	write := s.writeGuard()

	users := api.Group("/users")
	users.Get("/", s.ListUsers)
	users.Post("/", write, middleware.RateLimit(s.redis, createLimit, createWindow, "create_user"), s.CreateUser)
	users.Get("/:id", s.GetUser)
	users.Put("/:id", write, s.UpdateUser)
	users.Delete("/:id", write, s.DeleteUser)
	users.Post("/:id/friends/:friendId", write, s.AddFriend)
	users.Delete("/:id/friends/:friendId", write, s.RemoveFriend)

	thoughts := api.Group("/thoughts")
	thoughts.Get("/", s.ListThoughts)
	thoughts.Post("/", write, middleware.RateLimit(s.redis, createLimit, createWindow, "create_thought"), s.CreateThought)
	thoughts.Get("/:id", s.GetThought)
	thoughts.Put("/:id", write, s.UpdateThought)
	thoughts.Delete("/:id", write, s.DeleteThought)
	thoughts.Post("/:id/reactions", write, middleware.RateLimit(s.redis, createLimit, createWindow, "create_reaction"), s.AddReaction)
	thoughts.Delete("/:id/reactions/:reactionId", write, s.DeleteReaction)

	api.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	api.Get("/ws", s.ActivityFeed())
}

// writeGuard protects mutating routes when authentication is enabled.
func (s *Server) writeGuard() fiber.Handler {
	if s.config.RequireAuth {
		return middleware.AuthRequired(s.config.JWTSecret)
	}
	return func(c *fiber.Ctx) error { return c.Next() }
}

// APIProbe handles GET /api
// @Summary Connectivity probe
// @Tags health
// @Produce json
// @Success 200 {object} service.MessageResult
// @Router / [get]
func (s *Server) APIProbe(c *fiber.Ctx) error {
	return c.JSON(service.MessageResult{Message: "Api Connected"})
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports the store and Redis status. Redis is optional and
// only fails readiness when it is configured but unreachable.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := s.store.Ping(ctx); err != nil {
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
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"driver":   s.store.Driver,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start wires the activity feed to Redis and listens on the configured port.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.NewApp()

	if s.notifier.Enabled() {
		if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
			middleware.Logger.Error("failed to start activity feed wiring", slog.String("error", err.Error()))
		}
	}

	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
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

	if err := s.hub.Shutdown(ctx); err != nil {
		middleware.Logger.Error("error shutting down activity hub", slog.String("error", err.Error()))
	}

	if err := s.store.Close(ctx); err != nil {
		middleware.Logger.Error("error closing store", slog.String("error", err.Error()))
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", err.Error()))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
