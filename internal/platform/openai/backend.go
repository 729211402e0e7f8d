// Package openai implements generation.Backend against the OpenAI
// chat-completions endpoint.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/examgen/examgen-api/internal/config"
	"github.com/examgen/examgen-api/internal/generation"
	"github.com/examgen/examgen-api/internal/redact"
)

const systemPrompt = "You write school and competitive examination papers. " +
	"Follow the requested structure and output format exactly."

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 4 << 10

// Backend implements generation.Backend for OpenAI chat models.
type Backend struct {
	logger  *slog.Logger
	apiKey  string
	baseURL string
	httpc   *http.Client
	retired map[string]bool

	temperature float32
	topP        float32
	maxTokens   int32
}

// NewBackend creates an OpenAI backend. Per-call deadlines come from the
// request context, so the HTTP client carries no timeout of its own.
func NewBackend(logger *slog.Logger, cfg config.LLMConfig, httpc *http.Client) (*Backend, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if strings.TrimSpace(cfg.OpenAIBaseURL) == "" {
		return nil, fmt.Errorf("%w: openai base URL cannot be empty", generation.ErrInvalidConfig)
	}
	if httpc == nil {
		httpc = &http.Client{}
	}

	retired := make(map[string]bool, len(cfg.RetiredModels))
	for _, m := range cfg.RetiredModels {
		retired[strings.TrimSpace(m)] = true
	}

	return &Backend{
		logger:      logger,
		apiKey:      cfg.OpenAIAPIKey,
		baseURL:     strings.TrimRight(cfg.OpenAIBaseURL, "/"),
		httpc:       httpc,
		retired:     retired,
		temperature: cfg.Temperature,
		topP:        cfg.TopP,
		maxTokens:   cfg.MaxOutputTokens,
	}, nil
}

// Provider implements generation.Backend.
func (b *Backend) Provider() string {
	return generation.ProviderOpenAI
}

// NewModel implements generation.Backend. It makes no network call.
func (b *Backend) NewModel(_ context.Context, name string) (generation.Model, error) {
	if b.apiKey == "" {
		return nil, fmt.Errorf("%w: openai API key is not set", generation.ErrNoCredential)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: empty model name", generation.ErrModelUnavailable)
	}
	if b.retired[name] {
		return nil, fmt.Errorf("%w: %s is retired", generation.ErrModelUnavailable, name)
	}

	return &model{backend: b, id: name}, nil
}

type model struct {
	backend *Backend
	id      string
}

func (m *model) ID() string {
	return m.id
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	TopP        float32       `json:"top_p"`
	MaxTokens   int32         `json:"max_completion_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}

// Generate sends prompt as a single user message.
func (m *model) Generate(ctx context.Context, prompt string) (string, error) {
	b := m.backend

	payload, err := json.Marshal(chatRequest{
		Model: m.id,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: b.temperature,
		TopP:        b.topP,
		MaxTokens:   b.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: failed to build request: %v", generation.ErrInvalidConfig, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.apiKey)

	resp, err := b.httpc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: openai request failed: %s", generation.ErrTransient, redact.Error(err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		err := classifyStatus(resp)
		b.logger.DebugContext(ctx, "openai request rejected",
			"model", m.id,
			"status", resp.StatusCode,
			"error", redact.Error(err))
		return "", err
	}

	var raw chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", fmt.Errorf("%w: failed to decode openai response: %v", generation.ErrInvalidResponse, err)
	}
	if len(raw.Choices) == 0 {
		return "", fmt.Errorf("%w: openai returned no choices", generation.ErrInvalidResponse)
	}

	choice := raw.Choices[0]
	if choice.FinishReason == "content_filter" || choice.Message.Refusal != "" {
		return "", fmt.Errorf("%w: openai refused the request", generation.ErrContentBlocked)
	}
	if strings.TrimSpace(choice.Message.Content) == "" {
		return "", fmt.Errorf("%w: openai returned empty content", generation.ErrInvalidResponse)
	}
	return choice.Message.Content, nil
}

// classifyStatus maps a non-200 response onto the generation taxonomy.
func classifyStatus(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	msg := strings.TrimSpace(string(body))
	var parsed errorResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		msg = parsed.Error.Message
	}

	var sentinel error
	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		sentinel = generation.ErrAuth
	case resp.StatusCode == http.StatusNotFound:
		sentinel = generation.ErrModelUnavailable
	case resp.StatusCode == http.StatusTooManyRequests && parsed.Error.Type == "insufficient_quota":
		// Billing exhaustion will not clear on retry.
		sentinel = generation.ErrAuth
	case resp.StatusCode == http.StatusTooManyRequests:
		sentinel = generation.ErrRateLimited
	case resp.StatusCode == http.StatusBadRequest:
		sentinel = generation.ErrModelUnavailable
	default:
		sentinel = generation.ErrTransient
	}

	return fmt.Errorf("%w: openai %d: %s", sentinel, resp.StatusCode, redact.String(msg))
}
