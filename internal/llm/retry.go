package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/Chenxue3/restaurant-sub001/internal/apperr"
)

// Policy bounds every upstream model call: a process-wide concurrency
// limit, a per-call timeout, and retries with exponential backoff plus
// jitter on transient failures only.
type Policy struct {
	MaxAttempts int
	BackoffBase time.Duration
	CallTimeout time.Duration
	sem         *semaphore.Weighted
}

// NewPolicy builds a Policy whose semaphore caps concurrent upstream
// calls across all clients sharing it.
func NewPolicy(maxAttempts int, backoffBase, callTimeout time.Duration, maxConcurrency int64) *Policy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if backoffBase <= 0 {
		backoffBase = time.Millisecond
	}
	return &Policy{
		MaxAttempts: maxAttempts,
		BackoffBase: backoffBase,
		CallTimeout: callTimeout,
		sem:         semaphore.NewWeighted(maxConcurrency),
	}
}

// WithTimeout returns a copy of the policy with a different per-call
// timeout but the same shared semaphore and retry bounds.
func (p *Policy) WithTimeout(d time.Duration) *Policy {
	cp := *p
	cp.CallTimeout = d
	return &cp
}

// run executes fn under the concurrency bound, retrying transient
// failures. Fatal upstream errors and context cancellation stop
// immediately.
func (p *Policy) run(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := p.sem.Acquire(ctx, 1); err != nil {
			return apperr.Wrap(apperr.UpstreamTransient, name+" unavailable", err)
		}

		callCtx, cancel := context.WithTimeout(ctx, p.CallTimeout)
		err := fn(callCtx)
		cancel()
		p.sem.Release(1)

		if err == nil {
			return nil
		}
		lastErr = err

		var ae *apperr.Error
		if errors.As(err, &ae) && ae.Kind == apperr.UpstreamFatal {
			return err
		}
		if ctx.Err() != nil {
			// Parent request gone, no point retrying on its behalf.
			return apperr.Wrap(apperr.UpstreamTransient, name+" aborted", ctx.Err())
		}
		if attempt < p.MaxAttempts {
			d := p.backoff(attempt)
			log.Printf("%s attempt %d/%d failed, retrying in %s: %v", name, attempt, p.MaxAttempts, d, err)
			select {
			case <-time.After(d):
			case <-ctx.Done():
				return apperr.Wrap(apperr.UpstreamTransient, name+" aborted", ctx.Err())
			}
		}
	}
	var ae *apperr.Error
	if errors.As(lastErr, &ae) {
		return lastErr
	}
	return apperr.Wrap(apperr.UpstreamTransient, name+" failed", lastErr)
}

func (p *Policy) backoff(attempt int) time.Duration {
	d := p.BackoffBase << (attempt - 1)
	return d + time.Duration(rand.Int63n(int64(p.BackoffBase)))
}

// classifyStatus splits upstream HTTP failures into the retryable and
// non-retryable halves of the error taxonomy.
func classifyStatus(name string, status int, body []byte) error {
	kind := apperr.UpstreamFatal
	if status == http.StatusTooManyRequests || status >= 500 {
		kind = apperr.UpstreamTransient
	}
	return &apperr.Error{
		Kind: kind,
		Msg:  fmt.Sprintf("%s returned status %d", name, status),
		Raw:  string(body),
	}
}
