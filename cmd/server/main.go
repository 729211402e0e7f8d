// Package main implements the entry point for the exam-paper API server,
// which generates question papers with remote language models, falls back to
// an offline template generator and renders the result as PDF.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/examgen/examgen-api/internal/config"
	"github.com/examgen/examgen-api/internal/platform/logger"
)

// main is the entry point for the examgen-api server. It loads configuration,
// sets up logging, wires the pipeline and serves HTTP until SIGINT or SIGTERM.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("examgen-api: %v", err)
	}
}

func run(ctx context.Context) error {
	cfg, l, err := initializeApp()
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	app, err := newApplication(ctx, cfg, l)
	if err != nil {
		return err
	}
	return app.Run(ctx)
}

// initializeApp loads configuration and sets up structured logging.
func initializeApp() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	l.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"candidates", cfg.LLM.Candidates)
	l.Debug("LLM credentials",
		"gemini_api_key_present", cfg.LLM.GeminiAPIKey != "",
		"openai_api_key_present", cfg.LLM.OpenAIAPIKey != "")

	return cfg, l, nil
}
