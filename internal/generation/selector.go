package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/examgen/examgen-api/internal/redact"
)

// Selector resolves usable model handles from an ordered candidate list. The
// candidate list and backends are read-only after construction, so a Selector
// is safe for concurrent use. All per-request state lives in Resolution.
type Selector struct {
	logger     *slog.Logger
	candidates []Candidate
	backends   map[string]Backend
}

// NewSelector creates a Selector. Every candidate's provider must have a
// registered backend.
func NewSelector(logger *slog.Logger, candidates []Candidate, backends ...Backend) (*Selector, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: candidate list is empty", ErrInvalidConfig)
	}

	byProvider := make(map[string]Backend, len(backends))
	for _, b := range backends {
		if b == nil {
			continue
		}
		byProvider[b.Provider()] = b
	}

	for _, c := range candidates {
		if _, ok := byProvider[c.Provider]; !ok {
			return nil, fmt.Errorf("%w: no backend for provider %q (candidate %s)",
				ErrInvalidConfig, c.Provider, c)
		}
	}

	return &Selector{
		logger:     logger,
		candidates: append([]Candidate(nil), candidates...),
		backends:   byProvider,
	}, nil
}

// Candidates returns a copy of the configured candidate list.
func (s *Selector) Candidates() []Candidate {
	return append([]Candidate(nil), s.candidates...)
}

// Resolve starts a fresh per-request resolution. Failures recorded in one
// resolution never affect another.
func (s *Selector) Resolve() *Resolution {
	return &Resolution{
		selector: s,
		skipped:  make(map[string]bool),
	}
}

// Attempt records the outcome of one candidate within a resolution.
type Attempt struct {
	Candidate Candidate
	Err       error
}

// Resolution walks the candidate list for a single request. Each candidate
// is offered at most once. It is not safe for concurrent use.
type Resolution struct {
	selector *Selector
	next     int
	skipped  map[string]bool
	attempts []Attempt
}

// Next constructs a handle for the next viable candidate. Construction
// failures are recorded and the walk moves on. When the list is exhausted it
// returns ErrNoModelAvailable.
func (r *Resolution) Next(ctx context.Context) (Model, Candidate, error) {
	log := r.selector.logger

	for r.next < len(r.selector.candidates) {
		if err := ctx.Err(); err != nil {
			return nil, Candidate{}, err
		}

		c := r.selector.candidates[r.next]
		r.next++

		if r.skipped[c.Provider] {
			log.DebugContext(ctx, "skipping candidate of rejected provider", "candidate", c.String())
			continue
		}

		model, err := r.selector.backends[c.Provider].NewModel(ctx, c.Model)
		if err == nil {
			log.DebugContext(ctx, "model handle constructed", "candidate", c.String())
			return model, c, nil
		}

		r.Fail(c, err)
		if errors.Is(err, ErrNoCredential) || errors.Is(err, ErrAuth) {
			r.SkipProvider(c.Provider)
		}
		log.InfoContext(ctx, "model candidate unavailable",
			"candidate", c.String(),
			"reason", Outcome(err),
			"error", redact.Error(err))
	}

	return nil, Candidate{}, fmt.Errorf("%w: tried %d candidates", ErrNoModelAvailable, len(r.attempts))
}

// Fail records err against candidate c.
func (r *Resolution) Fail(c Candidate, err error) {
	r.attempts = append(r.attempts, Attempt{Candidate: c, Err: err})
}

// SkipProvider excludes every remaining candidate of provider from this
// resolution.
func (r *Resolution) SkipProvider(provider string) {
	r.skipped[provider] = true
}

// Attempts returns the failures recorded so far, in order.
func (r *Resolution) Attempts() []Attempt {
	return append([]Attempt(nil), r.attempts...)
}
