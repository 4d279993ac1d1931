// Package retry wraps remote operations with transient-failure retries,
// exponential backoff with jitter, and optional client-side rate limiting.
package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
)

const (
	DefaultMaxAttempts = 5
	DefaultBaseDelay   = time.Second
	DefaultMaxQPS      = 10
)

// Config holds the retry knobs.
type Config struct {
	MaxAttempts int           // total attempts, including the first
	BaseDelay   time.Duration // backoff base; wait is BaseDelay * 2^attempt plus jitter
	MaxQPS      int           // client-side request rate cap; <= 0 disables
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = DefaultBaseDelay
	}
	return c
}

// ExhaustedError reports that an operation kept failing transiently until the
// attempt cap was reached. It wraps the last error observed.
type ExhaustedError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s: %d attempts exhausted: %v", e.Op, e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Policy executes operations with retries. Safe for sequential reuse across
// all remote calls of a run.
type Policy struct {
	cfg     Config
	limiter *rate.Limiter

	// OnRetry, when set, is called before each backoff sleep.
	OnRetry func(op string, attempt int, wait time.Duration, err error)

	sleep  func(ctx context.Context, d time.Duration) error
	jitter func() time.Duration
}

// New creates a Policy from cfg, applying defaults for zero fields.
func New(cfg Config) *Policy {
	cfg = cfg.withDefaults()
	p := &Policy{
		cfg:    cfg,
		sleep:  sleepCtx,
		jitter: func() time.Duration { return time.Duration(rand.Int63n(int64(time.Second))) },
	}
	if cfg.MaxQPS > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(cfg.MaxQPS), cfg.MaxQPS)
	}
	return p
}

// Do runs fn, retrying transient failures with exponential backoff until it
// succeeds, fails permanently, or the attempt cap is reached. Permanent
// failures are returned as-is; exhaustion is reported as *ExhaustedError.
func (p *Policy) Do(ctx context.Context, op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		err := fn()
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return err
		}

		lastErr = err
		if attempt == p.cfg.MaxAttempts {
			break
		}

		wait := p.cfg.BaseDelay*(1<<attempt) + p.jitter()
		if p.OnRetry != nil {
			p.OnRetry(op, attempt, wait, err)
		}
		if err := p.sleep(ctx, wait); err != nil {
			return err
		}
	}
	return &ExhaustedError{Op: op, Attempts: p.cfg.MaxAttempts, Err: lastErr}
}

// IsTransient reports whether err is worth retrying: rate limiting, 5xx
// server errors, or transport-level failures. Everything else (not found,
// permission denied, malformed request) is permanent.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if gerr.Code == 429 {
			return true
		}
		if gerr.Code >= 500 && gerr.Code <= 599 {
			return true
		}
		if gerr.Code == 403 {
			for _, e := range gerr.Errors {
				switch e.Reason {
				case "rateLimitExceeded", "userRateLimitExceeded", "backendError":
					return true
				}
			}
		}
		return false
	}

	var nerr net.Error
	if errors.As(err, &nerr) {
		return true
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	// fallback: if the error has Temporary() bool, trust it
	var terr interface{ Temporary() bool }
	if errors.As(err, &terr) {
		return terr.Temporary()
	}
	return false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
