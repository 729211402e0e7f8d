package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/examgen/examgen-api/internal/redact"
)

// RetryPolicy bounds the retries spent on one model for rate-limit and
// transient failures.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// Backoff returns the delay before retry number attempt (0-based):
// base*2^attempt scaled by jitter and capped at max.
func (p RetryPolicy) Backoff(attempt int, jitter float64) time.Duration {
	d := float64(p.BaseDelay) * math.Pow(2, float64(attempt)) * jitter
	if p.MaxDelay > 0 && d > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(d)
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// AttemptObserver is notified after every call to a model.
type AttemptObserver func(c Candidate, outcome string)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithSleeper replaces the wall-clock sleeper used between retries.
func WithSleeper(s Sleeper) ClientOption {
	return func(c *Client) { c.sleep = s }
}

// WithJitter replaces the jitter source. fn must return values in [0.5, 1.0].
func WithJitter(fn func() float64) ClientOption {
	return func(c *Client) { c.jitter = fn }
}

// WithObserver registers an observer for model call outcomes.
func WithObserver(o AttemptObserver) ClientOption {
	return func(c *Client) { c.observe = o }
}

// Client performs generation calls against the candidates of a Selector,
// classifying failures and applying bounded retry per model.
type Client struct {
	logger   *slog.Logger
	selector *Selector
	timeout  time.Duration
	policy   RetryPolicy
	sleep    Sleeper
	jitter   func() float64
	observe  AttemptObserver
}

// NewClient creates a Client. callTimeout bounds every individual model call.
func NewClient(
	logger *slog.Logger,
	selector *Selector,
	callTimeout time.Duration,
	policy RetryPolicy,
	opts ...ClientOption,
) (*Client, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if selector == nil {
		return nil, errors.New("selector cannot be nil")
	}
	if callTimeout <= 0 {
		return nil, fmt.Errorf("%w: call timeout must be positive", ErrInvalidConfig)
	}
	if policy.MaxRetries < 0 {
		return nil, fmt.Errorf("%w: max retries cannot be negative", ErrInvalidConfig)
	}

	c := &Client{
		logger:   logger,
		selector: selector,
		timeout:  callTimeout,
		policy:   policy,
		sleep:    sleepContext,
		jitter:   func() float64 { return 0.5 + rand.Float64()*0.5 },
		observe:  func(Candidate, string) {},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Result describes one generation run. It is populated even when Generate
// returns an error so that callers can report what was tried.
type Result struct {
	Text      string
	Candidate Candidate
	Attempts  []Attempt
	Notices   []string

	// Selected lists the candidates whose handle was constructed and called.
	Selected []Candidate
}

// Generate resolves candidates in order and returns the first successful
// response. Authentication failures skip the rest of that provider's
// candidates; unavailable models, blocked content and empty responses move to
// the next candidate. Exhausted retries and call timeouts end the run, as does
// running out of candidates (ErrNoModelAvailable).
func (c *Client) Generate(ctx context.Context, prompt string) (res Result, err error) {
	if strings.TrimSpace(prompt) == "" {
		return res, fmt.Errorf("%w: prompt is empty", ErrInvalidConfig)
	}

	resolution := c.selector.Resolve()
	defer func() { res.Attempts = resolution.Attempts() }()

	authNoticed := make(map[string]bool)
	for {
		model, cand, err := resolution.Next(ctx)
		if err != nil {
			res.Notices = append(res.Notices, credentialNotices(resolution.Attempts(), authNoticed)...)
			return res, err
		}

		res.Selected = append(res.Selected, cand)
		text, err := c.callWithRetry(ctx, cand, model, prompt)
		if err == nil {
			res.Text = text
			res.Candidate = cand
			return res, nil
		}

		resolution.Fail(cand, err)

		switch {
		case errors.Is(err, ErrAuth):
			resolution.SkipProvider(cand.Provider)
			if !authNoticed[cand.Provider] {
				authNoticed[cand.Provider] = true
				res.Notices = append(res.Notices, fmt.Sprintf("%s rejected the configured credential", cand.Provider))
			}
		case errors.Is(err, ErrModelUnavailable),
			errors.Is(err, ErrContentBlocked),
			errors.Is(err, ErrInvalidResponse):
			// next candidate
		default:
			return res, err
		}
	}
}

// credentialNotices reports providers whose handle construction was refused
// for credential reasons.
func credentialNotices(attempts []Attempt, noticed map[string]bool) []string {
	var out []string
	for _, a := range attempts {
		if !errors.Is(a.Err, ErrAuth) || noticed[a.Candidate.Provider] {
			continue
		}
		noticed[a.Candidate.Provider] = true
		out = append(out, fmt.Sprintf("%s rejected the configured credential", a.Candidate.Provider))
	}
	return out
}

// callWithRetry makes a call to one model with exponential backoff for
// rate-limit and transient failures. Every other failure is returned
// immediately.
func (c *Client) callWithRetry(ctx context.Context, cand Candidate, model Model, prompt string) (string, error) {
	maxAttempts := c.policy.MaxRetries + 1

	for attempt := 0; attempt < maxAttempts; attempt++ {
		attemptNum := attempt + 1
		c.logger.InfoContext(ctx, "calling model",
			"candidate", cand.String(),
			"attempt", attemptNum,
			"max_attempts", maxAttempts)

		text, err := c.call(ctx, model, prompt)
		c.observe(cand, Outcome(err))
		if err == nil {
			c.logger.InfoContext(ctx, "model call successful",
				"candidate", cand.String(),
				"attempt", attemptNum,
				"response_length", len(text))
			return text, nil
		}

		c.logger.WarnContext(ctx, "model call failed",
			"candidate", cand.String(),
			"attempt", attemptNum,
			"reason", Outcome(err),
			"error", redact.Error(err))

		if !IsRetryable(err) {
			return "", err
		}

		if attempt == maxAttempts-1 {
			return "", fmt.Errorf("%w: %s after %d attempts: %w", ErrRetriesExhausted, cand, maxAttempts, err)
		}

		delay := c.policy.Backoff(attempt, c.jitter())
		c.logger.InfoContext(ctx, "retrying after delay",
			"candidate", cand.String(),
			"attempt", attemptNum,
			"delay", delay.String())

		if err := c.sleep(ctx, delay); err != nil {
			return "", err
		}
	}

	// maxAttempts is at least 1, so the loop always returns.
	return "", fmt.Errorf("%w: %s", ErrRetriesExhausted, cand)
}

// call performs a single bounded model call and normalises deadline and
// empty-response outcomes.
func (c *Client) call(ctx context.Context, model Model, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	text, err := model.Generate(callCtx, prompt)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, ErrTimeout) {
			return "", fmt.Errorf("%w: after %s: %w", ErrTimeout, c.timeout, err)
		}
		if !isClassified(err) {
			return "", fmt.Errorf("%w: %w", ErrTransient, err)
		}
		return "", err
	}

	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty response", ErrInvalidResponse)
	}
	return text, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
