package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/route-planner/internal/config"
	"github.com/route-planner/internal/delivery/http/handler"
	"github.com/route-planner/internal/delivery/http/middleware"
	"github.com/route-planner/internal/pkg/errors"
	"github.com/route-planner/internal/pkg/utils"
	fiberSwagger "github.com/swaggo/fiber-swagger"
	"go.uber.org/zap"

	_ "github.com/route-planner/docs"
)

// Server - HTTP сервер на основе Fiber
type Server struct {
	app    *fiber.App
	config *config.Config
	logger *zap.Logger

	// Handlers
	sessionHandler *handler.SessionHandler
	routeHandler   *handler.RouteHandler
	healthHandler  *handler.HealthHandler
}

// NewServer - создание нового HTTP сервера
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	sessionHandler *handler.SessionHandler,
	routeHandler *handler.RouteHandler,
	healthHandler *handler.HealthHandler,
) *Server {
	app := fiber.New(fiber.Config{
		AppName:      "Route Planner",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorHandler: customErrorHandler(logger),
	})

	s := &Server{
		app:            app,
		config:         cfg,
		logger:         logger,
		sessionHandler: sessionHandler,
		routeHandler:   routeHandler,
		healthHandler:  healthHandler,
	}

	s.setupMiddlewares()
	s.setupRoutes()

	return s
}

// setupMiddlewares - настройка middleware
func (s *Server) setupMiddlewares() {
	s.app.Use(middleware.Logger(s.logger))
	s.app.Use(middleware.Recovery(s.logger))
	s.app.Use(middleware.CORS(s.config.Server.CORSOrigins))
	s.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
}

// setupRoutes - настройка маршрутов
func (s *Server) setupRoutes() {
	// Swagger documentation route
	s.app.Get("/swagger/*", fiberSwagger.WrapHandler)

	// Prometheus metrics
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := s.app.Group("/api/v1")

	// Health check
	api.Get("/health", s.healthHandler.Health)

	// Sessions
	api.Post("/sessions", s.sessionHandler.Create)
	api.Get("/sessions/:id", s.sessionHandler.Get)
	api.Delete("/sessions/:id", s.sessionHandler.Delete)

	session := api.Group("/sessions/:id")

	// Points
	session.Post("/points", s.sessionHandler.AppendPoint)
	session.Put("/sections/:section/points/:point", s.sessionHandler.MovePoint)
	session.Delete("/sections/:section/points/:point", s.sessionHandler.RemovePoint)
	session.Patch("/sections/:section/points/:point", s.sessionHandler.RenamePoint)
	session.Post("/insert", s.sessionHandler.Insert)
	session.Post("/candidates", s.sessionHandler.Candidates)

	// Sections
	session.Post("/sections/:section/split", s.sessionHandler.Split)
	session.Post("/sections/:section/merge", s.sessionHandler.Merge)
	session.Delete("/sections/:section", s.sessionHandler.DeleteSection)
	session.Patch("/sections/:section", s.sessionHandler.RenameSection)

	// History
	session.Post("/undo", s.sessionHandler.Undo)
	session.Post("/redo", s.sessionHandler.Redo)
	session.Post("/clear", s.sessionHandler.Clear)
	session.Put("/direct-mode", s.sessionHandler.SetDirectMode)

	// Display and export
	session.Get("/geojson", s.sessionHandler.GeoJSON)
	session.Get("/profile", s.sessionHandler.Profile)
	session.Get("/export", s.sessionHandler.Export)

	// Saved routes
	session.Post("/save", s.routeHandler.Save)
	api.Get("/routes/:id", s.routeHandler.GetRoute)
}

// App - fiber приложение, используется в тестах
func (s *Server) App() *fiber.App {
	return s.app
}

// Start - запуск HTTP сервера
func (s *Server) Start() error {
	addr := s.config.GetServerAddr()
	s.logger.Info("Starting HTTP server", zap.String("address", addr))
	return s.app.Listen(addr)
}

// Shutdown - graceful shutdown HTTP сервера
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.app.ShutdownWithContext(ctx)
}

// customErrorHandler - кастомный обработчик ошибок
func customErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		if e, ok := err.(*fiber.Error); ok {
			return c.Status(e.Code).JSON(utils.ErrorResponse{
				Error: errors.New("HTTP_ERROR", e.Message, e.Code),
			})
		}

		logger.Error("HTTP Error",
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return utils.SendError(c, err)
	}
}
