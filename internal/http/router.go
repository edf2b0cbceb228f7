package http

import (
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"passageai/internal/config"
	"passageai/internal/llm"
	"passageai/internal/metrics"
	"passageai/internal/prompts"
	"passageai/internal/services"
)

type Server struct {
	app    *fiber.App
	config *config.Config
	logger *slog.Logger
}

// NewServer wires the routes. inv is shared read-only by every request.
func NewServer(cfg *config.Config, inv *llm.Invoker, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	app := fiber.New(fiber.Config{
		AppName:               "passageai",
		DisableStartupMessage: true,
	})

	// Request logging + metrics middleware
	app.Use(requestLogger(logger))

	// Tag each request with the model that served it for the request log.
	provider := string(inv.Provider())
	model := inv.Model()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("llm_provider", provider)
		c.Locals("llm_model", model)
		return c.Next()
	})

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ok",
			"provider": provider,
			"model":    model,
		})
	})

	// Prometheus-style metrics endpoint
	app.Get("/metrics", func(c *fiber.Ctx) error {
		c.Type("text/plain")
		return c.SendString(metrics.Export())
	})

	set := prompts.FromConfig(cfg.Prompts)
	app.Post(cfg.Routes.Analyze, analyzeHandler(services.NewAnalyzeService(inv, set.Analyze)))
	app.Post(cfg.Routes.Mindmap, mindmapHandler(services.NewMindmapService(inv, set.Mindmap)))
	app.Post(cfg.Routes.Solve, solveHandler(services.NewSolveService(inv, set.Solve)))

	return &Server{
		app:    app,
		config: cfg,
		logger: logger,
	}
}

// App exposes the underlying Fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.logger.Info("listening",
		"addr", addr,
		"analyze", s.config.Routes.Analyze,
		"mindmap", s.config.Routes.Mindmap,
		"solve", s.config.Routes.Solve,
	)
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
