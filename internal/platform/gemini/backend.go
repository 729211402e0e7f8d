package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/examgen/examgen-api/internal/config"
	"github.com/examgen/examgen-api/internal/generation"
	"github.com/examgen/examgen-api/internal/redact"
	"google.golang.org/genai"
)

const systemInstruction = "You write school and competitive examination papers. " +
	"Follow the requested structure and output format exactly."

// modelsAPI is the part of genai.Models used by the backend.
type modelsAPI interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
	Get(ctx context.Context, model string, config *genai.GetModelConfig) (*genai.Model, error)
}

// Backend implements generation.Backend for Gemini models. It is read-only
// after construction and safe for concurrent use.
type Backend struct {
	logger  *slog.Logger
	api     modelsAPI
	retired map[string]bool
	probe   bool

	temperature     float32
	topP            float32
	topK            float32
	maxOutputTokens int32
}

// NewBackend creates a Gemini backend from cfg. A missing API key is not an
// error: the backend is created without a client and every handle
// construction fails with generation.ErrNoCredential.
func NewBackend(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Backend, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if err := validateConfig(ctx, logger, cfg); err != nil {
		return nil, err
	}

	var api modelsAPI
	if cfg.GeminiAPIKey != "" {
		clientConfig := &genai.ClientConfig{
			APIKey:  cfg.GeminiAPIKey,
			Backend: genai.BackendGeminiAPI,
		}
		if cfg.GeminiBaseURL != "" {
			clientConfig.HTTPOptions.BaseURL = cfg.GeminiBaseURL
		}

		client, err := genai.NewClient(ctx, clientConfig)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to create Gemini client: %s",
				generation.ErrInvalidConfig, redact.Error(err))
		}
		api = client.Models
	}

	return newBackend(logger, api, cfg), nil
}

func newBackend(logger *slog.Logger, api modelsAPI, cfg config.LLMConfig) *Backend {
	retired := make(map[string]bool, len(cfg.RetiredModels))
	for _, m := range cfg.RetiredModels {
		retired[normalizeModel(m)] = true
	}

	return &Backend{
		logger:          logger,
		api:             api,
		retired:         retired,
		probe:           cfg.ProbeModels,
		temperature:     cfg.Temperature,
		topP:            cfg.TopP,
		topK:            cfg.TopK,
		maxOutputTokens: cfg.MaxOutputTokens,
	}
}

// Provider implements generation.Backend.
func (b *Backend) Provider() string {
	return generation.ProviderGemini
}

// NewModel implements generation.Backend.
func (b *Backend) NewModel(ctx context.Context, name string) (generation.Model, error) {
	if b.api == nil {
		return nil, fmt.Errorf("%w: gemini API key is not set", generation.ErrNoCredential)
	}

	id := normalizeModel(name)
	if id == "" {
		return nil, fmt.Errorf("%w: empty model name", generation.ErrModelUnavailable)
	}
	if b.retired[id] {
		return nil, fmt.Errorf("%w: %s is retired", generation.ErrModelUnavailable, id)
	}

	if b.probe {
		if _, err := b.api.Get(ctx, id, nil); err != nil {
			b.logger.DebugContext(ctx, "gemini model probe failed",
				"model", id,
				"error", redact.Error(err))
			return nil, classifyError(err)
		}
	}

	return &model{backend: b, id: id}, nil
}

// model is a handle for one Gemini model.
type model struct {
	backend *Backend
	id      string
}

func (m *model) ID() string {
	return m.id
}

// Generate sends prompt as a single user turn and returns the concatenated
// text parts of the first candidate.
func (m *model) Generate(ctx context.Context, prompt string) (string, error) {
	b := m.backend

	contents := []*genai.Content{{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{{Text: prompt}},
	}}
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemInstruction}}},
		Temperature:       genai.Ptr(b.temperature),
		TopP:              genai.Ptr(b.topP),
		TopK:              genai.Ptr(b.topK),
		MaxOutputTokens:   b.maxOutputTokens,
	}

	resp, err := b.api.GenerateContent(ctx, m.id, contents, cfg)
	if err != nil {
		return "", classifyError(err)
	}

	return extractText(resp)
}

// extractText validates resp and joins the text parts of its first candidate.
func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("%w: nil response", generation.ErrInvalidResponse)
	}

	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("%w: prompt blocked (%s)",
				generation.ErrContentBlocked, resp.PromptFeedback.BlockReason)
		}
		return "", fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	switch candidate.FinishReason {
	case genai.FinishReasonSafety, genai.FinishReasonProhibitedContent,
		genai.FinishReasonBlocklist, genai.FinishReasonSPII:
		return "", fmt.Errorf("%w: finish reason %s", generation.ErrContentBlocked, candidate.FinishReason)
	}

	if candidate.Content == nil {
		return "", fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		sb.WriteString(part.Text)
	}

	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: response has no text", generation.ErrInvalidResponse)
	}
	return text, nil
}

// normalizeModel strips the "models/" resource prefix.
func normalizeModel(name string) string {
	return strings.TrimPrefix(strings.TrimSpace(name), "models/")
}
