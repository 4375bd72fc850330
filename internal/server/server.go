// Package server exposes the chat engine over HTTP.
package server

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"docchat/internal/config"
	"docchat/internal/domain"
	"docchat/internal/engine"
)

// Chat is the engine surface the handlers need.
type Chat interface {
	Answer(ctx context.Context, sessionID, query string) (domain.Answer, error)
	ReindexSession(ctx context.Context, sessionID string) (engine.UploadResult, error)
	Clear(sessionID string)
}

// Uploads resolves the on-disk upload area for a session.
type Uploads interface {
	UploadDir(id string) string
}

// Server wires the fiber app around a Chat engine.
type Server struct {
	app     *fiber.App
	cfg     config.ServerConfig
	chat    Chat
	uploads Uploads
	log     *zap.Logger
}

// New builds the app and registers all routes.
func New(cfg config.ServerConfig, chat Chat, uploads Uploads, log *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit:             cfg.BodyLimitMB * 1024 * 1024,
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(cors.New())

	s := &Server{app: app, cfg: cfg, chat: chat, uploads: uploads, log: log}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Get("/healthz", s.handleHealth)
	api := s.app.Group("/api")
	api.Post("/chat", s.handleChat)
	api.Post("/upload", s.handleUpload)
	api.Post("/clear", s.handleClear)
}

// App exposes the underlying fiber app, mainly for tests.
func (s *Server) App() *fiber.App { return s.app }

// Run blocks serving HTTP until Shutdown is called.
func (s *Server) Run() error {
	s.log.Info("http server listening", zap.String("addr", s.cfg.Addr))
	return s.app.Listen(s.cfg.Addr)
}

// Shutdown drains in-flight requests within the configured timeout.
func (s *Server) Shutdown() error {
	timeout := time.Duration(s.cfg.ShutdownTimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return s.app.ShutdownWithTimeout(timeout)
}
