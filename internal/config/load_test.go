package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupEnv sets environment variables for the duration of the test.
// Keys mapped to "" are set empty, which viper treats as unset.
func setupEnv(t *testing.T, envVars map[string]string) {
	t.Helper()
	for name, value := range envVars {
		t.Setenv(name, value)
	}
}

// clearedEnv blanks every variable Load reads so that the host environment
// cannot leak into a test.
func clearedEnv() map[string]string {
	return map[string]string{
		"EXAMGEN_SERVER_PORT":        "",
		"EXAMGEN_SERVER_LOG_LEVEL":   "",
		"EXAMGEN_LLM_GEMINI_API_KEY": "",
		"EXAMGEN_LLM_OPENAI_API_KEY": "",
		"EXAMGEN_LLM_CANDIDATES":     "",
		"EXAMGEN_LLM_MAX_RETRIES":    "",
		"EXAMGEN_LLM_CALL_TIMEOUT":   "",
		"GEMINI_API_KEY":             "",
		"OPENAI_API_KEY":             "",
		"PORT":                       "",
	}
}

// TestLoadDefaults verifies that Load works with no environment at all;
// a missing API key is not a configuration error.
func TestLoadDefaults(t *testing.T) {
	setupEnv(t, clearedEnv())

	cfg, err := Load()

	require.NoError(t, err, "Load() should not return an error with default values")
	require.NotNil(t, cfg)
	assert.Equal(t, 3000, cfg.Server.Port, "Default server port should be 3000")
	assert.Equal(t, "info", cfg.Server.LogLevel, "Default log level should be 'info'")
	assert.Empty(t, cfg.LLM.GeminiAPIKey)
	assert.Equal(t, DefaultCandidates, cfg.LLM.Candidates)
	assert.Equal(t, 60*time.Second, cfg.LLM.CallTimeout)
	assert.Equal(t, 2, cfg.LLM.MaxRetries)
	assert.Equal(t, time.Second, cfg.LLM.RetryBaseDelay)
	assert.InDelta(t, 0.7, cfg.LLM.Temperature, 0.0001)
	assert.True(t, cfg.Render.AllowCoreFont)
	assert.NotEmpty(t, cfg.Render.FontPaths)
}

// TestLoadFromEnv verifies that Load reads prefixed environment variables.
func TestLoadFromEnv(t *testing.T) {
	env := clearedEnv()
	env["EXAMGEN_SERVER_PORT"] = "9090"
	env["EXAMGEN_SERVER_LOG_LEVEL"] = "debug"
	env["EXAMGEN_LLM_GEMINI_API_KEY"] = "test-api-key"
	env["EXAMGEN_LLM_CANDIDATES"] = "gemini-2.0-flash, openai:gpt-4o-mini"
	env["EXAMGEN_LLM_CALL_TIMEOUT"] = "5s"
	setupEnv(t, env)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, "test-api-key", cfg.LLM.GeminiAPIKey)
	assert.Equal(t, []string{"gemini-2.0-flash", "openai:gpt-4o-mini"}, cfg.LLM.Candidates)
	assert.Equal(t, 5*time.Second, cfg.LLM.CallTimeout)
}

// TestLoadLegacyEnv verifies the bare variable names are still honoured.
func TestLoadLegacyEnv(t *testing.T) {
	env := clearedEnv()
	env["GEMINI_API_KEY"] = "legacy-gemini"
	env["OPENAI_API_KEY"] = "legacy-openai"
	env["PORT"] = "8081"
	setupEnv(t, env)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "legacy-gemini", cfg.LLM.GeminiAPIKey)
	assert.Equal(t, "legacy-openai", cfg.LLM.OpenAIAPIKey)
	assert.Equal(t, 8081, cfg.Server.Port)
}

// TestLoadValidationErrors verifies that the Load function correctly validates the configuration.
func TestLoadValidationErrors(t *testing.T) {
	testCases := []struct {
		name    string
		envVars map[string]string
	}{
		{
			name:    "Invalid port number",
			envVars: map[string]string{"EXAMGEN_SERVER_PORT": "999999"},
		},
		{
			name:    "Invalid log level",
			envVars: map[string]string{"EXAMGEN_SERVER_LOG_LEVEL": "verbose"},
		},
		{
			name:    "Too many retries",
			envVars: map[string]string{"EXAMGEN_LLM_MAX_RETRIES": "50"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := clearedEnv()
			for k, v := range tc.envVars {
				env[k] = v
			}
			setupEnv(t, env)

			cfg, err := Load()

			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), "validation failed")
		})
	}
}

func TestSplitList(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"a", "b", "c"}, splitList([]string{"a, b", " ", "c"}))
	assert.Empty(t, splitList(nil))
}
