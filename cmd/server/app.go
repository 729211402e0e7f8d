package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/examgen/examgen-api/internal/config"
	"github.com/examgen/examgen-api/internal/generation"
	"github.com/examgen/examgen-api/internal/generation/fallback"
	"github.com/examgen/examgen-api/internal/generation/prompt"
	"github.com/examgen/examgen-api/internal/platform/gemini"
	"github.com/examgen/examgen-api/internal/platform/metrics"
	"github.com/examgen/examgen-api/internal/platform/openai"
	"github.com/examgen/examgen-api/internal/platform/pdf"
	"github.com/examgen/examgen-api/internal/service/paper"
)

// application holds the shared application dependencies.
type application struct {
	config  *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	papers  paper.Service
}

// newApplication creates a new application instance with the generation
// pipeline wired: backends, model selector, retrying client, prompt builder,
// fallback generator and renderer.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	app := &application{
		config:  cfg,
		logger:  logger,
		metrics: metrics.New(),
	}

	geminiBackend, err := gemini.NewBackend(ctx, logger.With("component", "gemini"), cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini backend: %w", err)
	}

	openaiBackend, err := openai.NewBackend(logger.With("component", "openai"), cfg.LLM, &http.Client{})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenAI backend: %w", err)
	}

	candidates, err := generation.ParseCandidates(cfg.LLM.Candidates)
	if err != nil {
		return nil, fmt.Errorf("invalid model candidates: %w", err)
	}

	selector, err := generation.NewSelector(logger.With("component", "model_selector"),
		candidates, geminiBackend, openaiBackend)
	if err != nil {
		return nil, fmt.Errorf("failed to create model selector: %w", err)
	}

	client, err := generation.NewClient(
		logger.With("component", "generation_client"),
		selector,
		cfg.LLM.CallTimeout,
		generation.RetryPolicy{
			MaxRetries: cfg.LLM.MaxRetries,
			BaseDelay:  cfg.LLM.RetryBaseDelay,
			MaxDelay:   cfg.LLM.RetryMaxDelay,
		},
		generation.WithObserver(app.metrics.ObserveAttempt),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create generation client: %w", err)
	}

	prompts, err := prompt.NewBuilder(cfg.LLM.PromptTemplatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load prompt template: %w", err)
	}

	renderer, err := pdf.NewRenderer(logger.With("component", "pdf_renderer"), cfg.Render)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize renderer: %w", err)
	}

	app.papers, err = paper.NewService(logger, client, prompts, fallback.New(), renderer,
		paper.WithRecorder(app.metrics))
	if err != nil {
		return nil, fmt.Errorf("failed to create paper service: %w", err)
	}

	logger.Info("Application initialized successfully",
		"candidates", len(candidates),
		"font_paths", len(cfg.Render.FontPaths))
	return app, nil
}

// Run serves HTTP until ctx is cancelled or the listener fails.
func (app *application) Run(ctx context.Context) error {
	if err := app.serve(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
