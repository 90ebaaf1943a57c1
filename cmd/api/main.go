package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"docchat/internal/app"
	"docchat/internal/config"
	"docchat/internal/http"
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := app.NewLogger(cfg, os.Stdout)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Error("Failed to release resources", "error", err)
		}
	}()

	// Missing models are logged, not fatal.
	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	missing, err := a.Models.MissingModels(checkCtx, cfg.GeneralModel, cfg.ReasoningModel, cfg.EmbedModel)
	cancel()
	switch {
	case err != nil:
		slog.Warn("Ollama not reachable at startup", "ollama_host", cfg.OllamaHost, "error", err)
	case len(missing) > 0:
		slog.Warn("Configured models are not pulled", "missing", missing)
	default:
		slog.Info("Ollama models available", "ollama_host", cfg.OllamaHost)
	}

	router := http.NewRouter(a.RouterDeps())

	srv := newServer(":"+cfg.APIPort, router)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting API server", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, nethttp.ErrServerClosed) {
			slog.Error("API server failed", "error", err)
		}
	case <-ctx.Done():
		slog.Info("Shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Graceful shutdown failed", "error", err)
		}
	}
}

// newServer builds the API server. It sets no write deadline: a chat request
// makes one embedding call per uncached candidate plus one for the question,
// so its duration grows with the evidence. Each backend call is bounded on its
// own by EMBED_TIMEOUT_SECONDS or CHAT_TIMEOUT_SECONDS.
func newServer(addr string, handler nethttp.Handler) *nethttp.Server {
	return &nethttp.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
