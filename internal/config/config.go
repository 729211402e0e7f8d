package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server ServerConfig `mapstructure:"server" validate:"required"`
	LLM    LLMConfig    `mapstructure:"llm"    validate:"required"`
	Render RenderConfig `mapstructure:"render" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port"             validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level"        validate:"required,oneof=debug info warn error"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"     validate:"gt=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"    validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"   validate:"gt=0"`
}

// LLMConfig contains all generative-service settings.
//
// API keys are optional: without them every candidate fails handle
// construction and papers come from the offline fallback generator.
type LLMConfig struct {
	GeminiAPIKey  string `mapstructure:"gemini_api_key"`
	GeminiBaseURL string `mapstructure:"gemini_base_url" validate:"omitempty,url"`
	OpenAIAPIKey  string `mapstructure:"openai_api_key"`
	OpenAIBaseURL string `mapstructure:"openai_base_url" validate:"required,url"`

	// Candidates is the ordered model preference list, newest first.
	// Entries are "provider:model" or a bare Gemini model name.
	Candidates []string `mapstructure:"candidates" validate:"required,min=1,dive,required"`

	// RetiredModels are refused at handle construction without a network call.
	RetiredModels []string `mapstructure:"retired_models"`

	// ProbeModels makes the Gemini backend confirm a model exists before use.
	ProbeModels bool `mapstructure:"probe_models"`

	CallTimeout    time.Duration `mapstructure:"call_timeout"     validate:"gt=0"`
	MaxRetries     int           `mapstructure:"max_retries"      validate:"gte=0,lte=5"`
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay" validate:"gt=0"`
	RetryMaxDelay  time.Duration `mapstructure:"retry_max_delay"  validate:"gtefield=RetryBaseDelay"`

	Temperature     float32 `mapstructure:"temperature"       validate:"gte=0,lte=2"`
	TopP            float32 `mapstructure:"top_p"             validate:"gte=0,lte=1"`
	TopK            float32 `mapstructure:"top_k"             validate:"gte=0"`
	MaxOutputTokens int32   `mapstructure:"max_output_tokens" validate:"gt=0"`

	// PromptTemplatePath overrides the embedded prompt template when set.
	PromptTemplatePath string `mapstructure:"prompt_template_path"`
}

// RenderConfig contains document rendering settings.
type RenderConfig struct {
	// FontPaths are TrueType files tried in order for Unicode output.
	FontPaths []string `mapstructure:"font_paths"`

	// AllowCoreFont permits falling back to the built-in Helvetica face.
	AllowCoreFont bool `mapstructure:"allow_core_font"`

	FontSize   float64 `mapstructure:"font_size"   validate:"gte=6,lte=24"`
	LineHeight float64 `mapstructure:"line_height" validate:"gte=3,lte=20"`
}
