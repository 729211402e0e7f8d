package generation

import (
	"context"
	"fmt"
	"strings"
)

// Known providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Model is a constructed handle for one upstream model. Handles are cheap and
// used for a single request.
type Model interface {
	// ID returns the upstream model identifier.
	ID() string

	// Generate sends prompt and returns the combined response text. Failures
	// are wrapped with one of the sentinels in errors.go so that the client
	// can classify them.
	Generate(ctx context.Context, prompt string) (string, error)
}

// Backend constructs model handles for one provider. This interface is the
// boundary between the pipeline and external LLM services.
type Backend interface {
	// Provider returns the provider name used in candidate strings.
	Provider() string

	// NewModel constructs a handle for model. It must not issue a generation
	// call. It returns ErrNoCredential when the backend has no credential and
	// ErrModelUnavailable when the model is unsupported or retired.
	NewModel(ctx context.Context, model string) (Model, error)
}

// Candidate is one entry of the ordered model preference list.
type Candidate struct {
	Provider string
	Model    string
}

// String renders the candidate in provider:model form.
func (c Candidate) String() string {
	return c.Provider + ":" + c.Model
}

// ParseCandidate parses "provider:model" or a bare model name, which is taken
// to be a Gemini model.
func ParseCandidate(s string) (Candidate, error) {
	s = strings.TrimSpace(s)
	provider, model, found := strings.Cut(s, ":")
	if !found {
		provider, model = ProviderGemini, s
	}

	provider = strings.ToLower(strings.TrimSpace(provider))
	model = strings.TrimSpace(model)
	if provider == "" || model == "" {
		return Candidate{}, fmt.Errorf("%w: malformed model candidate %q", ErrInvalidConfig, s)
	}

	return Candidate{Provider: provider, Model: model}, nil
}

// ParseCandidates parses an ordered candidate list. Duplicates are dropped
// keeping the first occurrence.
func ParseCandidates(raw []string) ([]Candidate, error) {
	seen := make(map[Candidate]bool, len(raw))
	out := make([]Candidate, 0, len(raw))
	for _, s := range raw {
		c, err := ParseCandidate(s)
		if err != nil {
			return nil, err
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%w: candidate list is empty", ErrInvalidConfig)
	}
	return out, nil
}
