package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every configuration key looked up in the environment,
// e.g. server.port is read from EXAMGEN_SERVER_PORT.
const EnvPrefix = "EXAMGEN"

// DefaultCandidates is the model preference order used when none is configured.
var DefaultCandidates = []string{
	"gemini-2.5-flash",
	"gemini-2.0-flash",
	"gemini-2.0-flash-lite",
	"gemini-1.5-flash",
	"openai:gpt-4.1-mini",
}

// legacyEnv maps configuration keys to the bare variable names older
// deployments exported.
var legacyEnv = map[string]string{
	"llm.gemini_api_key": "GEMINI_API_KEY",
	"llm.openai_api_key": "OPENAI_API_KEY",
	"server.port":        "PORT",
}

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// A .env file in the working directory is loaded first when present; it never
// overrides variables that are already set.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Comma-separated lists arrive from the environment as a single element.
	cfg.LLM.Candidates = splitList(cfg.LLM.Candidates)
	cfg.LLM.RetiredModels = splitList(cfg.LLM.RetiredModels)
	cfg.Render.FontPaths = splitList(cfg.Render.FontPaths)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.max_body_bytes", 1<<20)

	v.SetDefault("llm.gemini_api_key", "")
	v.SetDefault("llm.gemini_base_url", "")
	v.SetDefault("llm.openai_api_key", "")
	v.SetDefault("llm.openai_base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.candidates", DefaultCandidates)
	v.SetDefault("llm.retired_models", []string{"gemini-pro", "gemini-1.0-pro"})
	v.SetDefault("llm.probe_models", false)
	v.SetDefault("llm.call_timeout", "60s")
	v.SetDefault("llm.max_retries", 2)
	v.SetDefault("llm.retry_base_delay", "1s")
	v.SetDefault("llm.retry_max_delay", "8s")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.top_p", 0.95)
	v.SetDefault("llm.top_k", 40)
	v.SetDefault("llm.max_output_tokens", 4096)
	v.SetDefault("llm.prompt_template_path", "")

	v.SetDefault("render.font_paths", []string{
		"static/fonts/DejaVuSans.ttf",
		"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
		"/usr/share/fonts/dejavu/DejaVuSans.ttf",
	})
	v.SetDefault("render.allow_core_font", true)
	v.SetDefault("render.font_size", 11)
	v.SetDefault("render.line_height", 6)
}

// splitList expands comma-separated entries and drops blanks.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
