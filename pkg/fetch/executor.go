package fetch

import (
	"context"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/tripsift/tripsift/pkg/core"
	"github.com/tripsift/tripsift/pkg/log"
)

// Options tunes retry behaviour for one executor. Zero values fall back
// to the defaults below; per-provider overrides come from configuration,
// never from scattered constants.
type Options struct {
	// MaxAttempts is how many times the primary transport is tried
	// before fallbacks are consulted. Default 3.
	MaxAttempts int

	// BaseDelay is the first backoff delay; attempt n waits
	// BaseDelay * 2^(n-1). Default 1s.
	BaseDelay time.Duration

	// MaxDelay caps the backoff delay. Default 30s.
	MaxDelay time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = time.Second
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = 30 * time.Second
	}
	return o
}

// Executor issues a query against a primary transport with bounded
// exponential-backoff retries, then tries each fallback transport once
// in order. Retry state lives entirely inside one Execute call; nothing
// is shared between invocations.
type Executor struct {
	primary   Transport
	fallbacks []Transport
	opts      Options
	logger    *log.Logger
}

// NewExecutor creates an executor for the given transports.
func NewExecutor(primary Transport, fallbacks []Transport, opts Options) *Executor {
	return &Executor{
		primary:   primary,
		fallbacks: fallbacks,
		opts:      opts.withDefaults(),
		logger:    log.ForService("fetch"),
	}
}

// Execute runs the query to completion or exhaustion.
//
// Transient primary failures are retried up to MaxAttempts with
// exponential backoff; a malformed payload or other permanent failure
// skips straight to the fallbacks. The first transport returning a
// usable payload wins. When everything is exhausted the returned error
// is a *SearchUnavailableError carrying the last underlying cause.
// Context cancellation aborts immediately with the context's error.
func (e *Executor) Execute(ctx context.Context, q core.SearchQuery, params url.Values) (*Response, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = e.opts.BaseDelay
	bo.MaxInterval = e.opts.MaxDelay
	bo.Multiplier = 2
	bo.RandomizationFactor = 0

	var lastErr error

	for attempt := 1; attempt <= e.opts.MaxAttempts; attempt++ {
		resp, err := e.primary.Fetch(ctx, q, params)
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err

		if !IsTransient(err) {
			e.logger.Warnf("primary %s failed permanently: %v", e.primary.Name(), err)
			break
		}
		if attempt == e.opts.MaxAttempts {
			e.logger.Warnf("primary %s exhausted after %d attempts: %v", e.primary.Name(), attempt, err)
			break
		}

		delay := bo.NextBackOff()
		e.logger.Debugf("primary %s attempt %d/%d failed, retrying in %v: %v",
			e.primary.Name(), attempt, e.opts.MaxAttempts, delay, err)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	for _, fb := range e.fallbacks {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		resp, err := fb.Fetch(ctx, q, params)
		if err == nil {
			e.logger.Infof("fallback %s served query after primary exhaustion", fb.Name())
			return resp, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		e.logger.Warnf("fallback %s failed: %v", fb.Name(), err)
		lastErr = err
	}

	return nil, &SearchUnavailableError{Cause: lastErr}
}
