package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/examgen/examgen-api/internal/generation"
)

// MockResult is one scripted response of a MockModel.
type MockResult struct {
	Text string
	Err  error
}

// MockModel implements generation.Model for testing
type MockModel struct {
	Name string

	// GenerateFn allows test cases to mock the Generate behavior
	GenerateFn func(ctx context.Context, prompt string) (string, error)

	// Results are returned in order; the last one repeats once the script
	// runs out.
	Results []MockResult

	// Call tracking for verification
	GenerateCalls struct {
		// mu protects the call tracking state for concurrent test cases
		mu sync.Mutex

		// Count tracks how many times Generate was called
		Count int

		// Prompts contains all prompts passed to Generate calls
		Prompts []string
	}
}

// NewMockModel creates a MockModel that returns the scripted results.
func NewMockModel(name string, results ...MockResult) *MockModel {
	return &MockModel{Name: name, Results: results}
}

// ID implements generation.Model
func (m *MockModel) ID() string {
	return m.Name
}

// Generate implements generation.Model
func (m *MockModel) Generate(ctx context.Context, prompt string) (string, error) {
	m.GenerateCalls.mu.Lock()
	n := m.GenerateCalls.Count
	m.GenerateCalls.Count++
	m.GenerateCalls.Prompts = append(m.GenerateCalls.Prompts, prompt)
	m.GenerateCalls.mu.Unlock()

	if m.GenerateFn != nil {
		return m.GenerateFn(ctx, prompt)
	}

	if len(m.Results) == 0 {
		return "", fmt.Errorf("%w: mock model %s has no scripted results", generation.ErrInvalidResponse, m.Name)
	}
	if n >= len(m.Results) {
		n = len(m.Results) - 1
	}
	r := m.Results[n]
	return r.Text, r.Err
}

// Calls returns how many times Generate was called.
func (m *MockModel) Calls() int {
	m.GenerateCalls.mu.Lock()
	defer m.GenerateCalls.mu.Unlock()
	return m.GenerateCalls.Count
}

// MockBackend implements generation.Backend for testing
type MockBackend struct {
	ProviderName string

	// Models maps model names to the handles returned by NewModel
	Models map[string]*MockModel

	// Errs maps model names to construction errors
	Errs map[string]error

	// Err is returned for every model without an entry in Models or Errs.
	// When nil such models fail with generation.ErrModelUnavailable.
	Err error

	// Call tracking for verification
	NewModelCalls struct {
		mu    sync.Mutex
		Names []string
	}
}

// NewMockBackend creates a MockBackend serving the given models.
func NewMockBackend(provider string, models ...*MockModel) *MockBackend {
	b := &MockBackend{
		ProviderName: provider,
		Models:       make(map[string]*MockModel, len(models)),
		Errs:         make(map[string]error),
	}
	for _, m := range models {
		b.Models[m.Name] = m
	}
	return b
}

// Provider implements generation.Backend
func (b *MockBackend) Provider() string {
	return b.ProviderName
}

// NewModel implements generation.Backend
func (b *MockBackend) NewModel(_ context.Context, model string) (generation.Model, error) {
	b.NewModelCalls.mu.Lock()
	b.NewModelCalls.Names = append(b.NewModelCalls.Names, model)
	b.NewModelCalls.mu.Unlock()

	if err, ok := b.Errs[model]; ok {
		return nil, err
	}
	if m, ok := b.Models[model]; ok {
		return m, nil
	}
	if b.Err != nil {
		return nil, b.Err
	}
	return nil, fmt.Errorf("%w: %s", generation.ErrModelUnavailable, model)
}

// Constructed returns the model names passed to NewModel, in order.
func (b *MockBackend) Constructed() []string {
	b.NewModelCalls.mu.Lock()
	defer b.NewModelCalls.mu.Unlock()
	return append([]string(nil), b.NewModelCalls.Names...)
}
