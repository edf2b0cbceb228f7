package llm

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"passageai/internal/config"
	"passageai/internal/metrics"
)

// maxLoggedReply bounds the reply text written to the log.
const maxLoggedReply = 2048

// Invoker wraps a provider Generator with the behavior every route shares:
// an optional deadline, whitespace trimming, reply logging and metrics.
// No retry is attempted; provider errors are returned as-is.
type Invoker struct {
	gen      Generator
	provider Provider
	model    string
	timeout  time.Duration
	logger   *slog.Logger
}

// NewInvoker wraps gen. A nil logger discards log output.
func NewInvoker(gen Generator, provider Provider, model string, timeout time.Duration, logger *slog.Logger) *Invoker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Invoker{
		gen:      gen,
		provider: provider,
		model:    model,
		timeout:  timeout,
		logger:   logger,
	}
}

// NewInvokerFromConfig uses the configured timeout.
func NewInvokerFromConfig(cfg *config.Config, gen Generator, provider Provider, model string, logger *slog.Logger) *Invoker {
	return NewInvoker(gen, provider, model, defaultTimeout(cfg), logger)
}

func (i *Invoker) Provider() Provider { return i.provider }

func (i *Invoker) Model() string { return i.model }

// Generate implements Generator.
func (i *Invoker) Generate(ctx context.Context, prompt string) (string, error) {
	if i.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	start := time.Now()
	reply, err := i.gen.Generate(ctx, prompt)
	latency := time.Since(start)

	metrics.RecordGeneration(string(i.provider), i.model, err == nil)

	if err != nil {
		i.logger.Warn("llm_generate_failed",
			"provider", i.provider,
			"model", i.model,
			"latency_ms", latency.Milliseconds(),
			"error", err.Error(),
		)
		return "", err
	}

	reply = strings.TrimSpace(reply)

	logged := reply
	if len(logged) > maxLoggedReply {
		logged = logged[:maxLoggedReply] + "..."
	}
	i.logger.Debug("llm_reply",
		"provider", i.provider,
		"model", i.model,
		"prompt_chars", len(prompt),
		"reply_chars", len(reply),
		"latency_ms", latency.Milliseconds(),
		"reply", logged,
	)

	return reply, nil
}
