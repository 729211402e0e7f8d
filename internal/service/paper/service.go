package paper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/examgen/examgen-api/internal/domain"
	"github.com/examgen/examgen-api/internal/generation"
)

// State is a step of the paper pipeline.
type State string

// Pipeline states. Rejected, Delivered and RenderFailed are terminal.
const (
	StateValidating         State = "validating"
	StateRejected           State = "rejected"
	StateSelectingModel     State = "selecting_model"
	StateGenerating         State = "generating"
	StateSplitting          State = "splitting"
	StateFallbackGenerating State = "fallback_generating"
	StateRendering          State = "rendering"
	StateDelivered          State = "delivered"
	StateRenderFailed       State = "render_failed"
)

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateRejected || s == StateDelivered || s == StateRenderFailed
}

// NoticeFallback is reported when the paper comes from the template generator.
const NoticeFallback = "the generative service was unavailable; a template paper was produced"

// Service turns exam-paper requests into rendered documents.
type Service interface {
	// Generate validates in, produces paper and key text (remotely or from the
	// template generator) and renders them.
	//
	// The returned Outcome is never nil. Only validation failures
	// (domain.ErrValidation) and render failures (ErrRenderFailed) are
	// returned as errors; every generation problem degrades to the template
	// generator and is reported through Outcome.Notices.
	Generate(ctx context.Context, in domain.RequestInput) (*Outcome, error)

	// RenderProvided renders caller-supplied paper and key text without
	// contacting a generative service.
	RenderProvided(ctx context.Context, in ProvidedInput) (*Outcome, error)
}

// ProvidedInput is a render-only request for text produced earlier.
type ProvidedInput struct {
	Header     domain.RequestInput
	Paper      string
	Key        string
	IncludeKey *bool
}

// Outcome is the result of one pipeline run.
type Outcome struct {
	// Request is zero for render-only runs.
	Request domain.GenerationRequest

	// Header is the metadata printed on the document.
	Header domain.PaperHeader

	Document *domain.GeneratedDocument
	Rendered *domain.RenderedDocument
	Notices  []string

	// States lists every state entered, in order; the last one is terminal.
	States []State
}

// State returns the terminal state of the run.
func (o *Outcome) State() State {
	if len(o.States) == 0 {
		return ""
	}
	return o.States[len(o.States)-1]
}

func (o *Outcome) enter(s State) {
	o.States = append(o.States, s)
}

// ErrRenderFailed marks the unrecoverable rendering failure.
var ErrRenderFailed = errors.New("failed to render document")

// TextGenerator produces raw combined paper and key text from a prompt.
// *generation.Client implements it.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (generation.Result, error)
}

// PromptBuilder assembles the prompt for a request.
type PromptBuilder interface {
	Build(req domain.GenerationRequest) (string, error)
}

// FallbackGenerator produces a template document offline.
type FallbackGenerator interface {
	Generate(req domain.GenerationRequest) *domain.GeneratedDocument
}

// Renderer lays out a document.
type Renderer interface {
	Render(ctx context.Context, header domain.PaperHeader, paper, key string) (*domain.RenderedDocument, error)
}

// Recorder receives pipeline measurements.
type Recorder interface {
	ObserveGeneration(source, outcome string)
	ObserveRender(d time.Duration, pages int)
}

type nopRecorder struct{}

func (nopRecorder) ObserveGeneration(string, string) {}
func (nopRecorder) ObserveRender(time.Duration, int) {}

// Option configures the service.
type Option func(*paperService)

// WithRecorder sends pipeline measurements to r.
func WithRecorder(r Recorder) Option {
	return func(s *paperService) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithClock replaces time.Now for render timing.
func WithClock(now func() time.Time) Option {
	return func(s *paperService) { s.now = now }
}

func renderError(err error) error {
	return fmt.Errorf("%w: %w", ErrRenderFailed, err)
}
