package gemini

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/examgen/examgen-api/internal/config"
	"github.com/examgen/examgen-api/internal/generation"
)

// validateConfig checks the generation settings the backend sends with every
// request. A missing API key is logged, not rejected.
func validateConfig(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) error {
	if cfg.GeminiAPIKey == "" {
		logger.WarnContext(ctx, "Gemini API key not set; gemini candidates will be skipped")
	}

	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		return fmt.Errorf("%w: temperature %.2f out of range [0, 2]", generation.ErrInvalidConfig, cfg.Temperature)
	}
	if cfg.TopP < 0 || cfg.TopP > 1 {
		return fmt.Errorf("%w: top_p %.2f out of range [0, 1]", generation.ErrInvalidConfig, cfg.TopP)
	}
	if cfg.TopK < 0 {
		return fmt.Errorf("%w: top_k cannot be negative", generation.ErrInvalidConfig)
	}
	if cfg.MaxOutputTokens <= 0 {
		return fmt.Errorf("%w: max output tokens must be positive", generation.ErrInvalidConfig)
	}

	logger.DebugContext(ctx, "Gemini configuration validated",
		"api_key_present", cfg.GeminiAPIKey != "",
		"base_url_override", cfg.GeminiBaseURL != "",
		"retired_models", len(cfg.RetiredModels),
		"probe_models", cfg.ProbeModels)
	return nil
}
