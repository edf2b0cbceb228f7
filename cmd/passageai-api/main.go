package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"passageai/internal/config"
	server "passageai/internal/http"
	"passageai/internal/llm"
)

var (
	configPath string
	port       int
	provider   string
	model      string
)

var rootCmd = &cobra.Command{
	Use:   "passageai-api",
	Short: "HTTP API for LLM-backed reading comprehension",
	Long: `passageai-api serves passage analysis, mind maps and question solving
over HTTP. Each request is a single prompt to the configured model provider.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "config/config.yaml", "path to config file")
	rootCmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides config and PORT)")
	rootCmd.Flags().StringVar(&provider, "provider", "", "llm provider: google|openai|anthropic")
	rootCmd.Flags().StringVar(&model, "model", "", "model name for the selected provider")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load(configPath, cmd.Flags().Changed("config"))
	if err != nil {
		return err
	}
	applyFlags(cfg)

	logger := newLogger(cfg.Logging, os.Stdout)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gen, prov, modelName, err := llm.NewClientFromConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("llm client: %w", err)
	}
	invoker := llm.NewInvokerFromConfig(cfg, gen, prov, modelName, logger)

	s := server.NewServer(cfg, invoker, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Listen()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		return s.Shutdown()
	}
}

// applyFlags layers command-line overrides on top of file and environment
// values.
func applyFlags(cfg *config.Config) {
	if port > 0 {
		cfg.Server.Port = port
	}
	if provider != "" {
		cfg.SetProvider(provider)
	}
	if model != "" {
		cfg.SetModel(model)
	}
}

func newLogger(cfg config.LoggingConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
