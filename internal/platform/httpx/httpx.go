package httpx

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// StatusCoder is implemented by upstream errors that know their HTTP status.
type StatusCoder interface {
	HTTPStatusCode() int
}

// Transient reports whether err is worth another attempt: timeouts, 408, 429
// and 5xx. Caller cancellation is final.
func Transient(err error) bool {
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return false
	case errors.Is(err, context.DeadlineExceeded):
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	var sc StatusCoder
	if !errors.As(err, &sc) {
		return false
	}
	switch code := sc.HTTPStatusCode(); {
	case code == http.StatusRequestTimeout, code == http.StatusTooManyRequests:
		return true
	default:
		return code >= 500 && code < 600
	}
}

// RetryAfter reads a Retry-After header in either delta-seconds or HTTP-date
// form. Zero means absent or unparseable.
func RetryAfter(h http.Header, now time.Time) time.Duration {
	raw := strings.TrimSpace(h.Get("Retry-After"))
	if raw == "" {
		return 0
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(raw); err == nil && at.After(now) {
		return at.Sub(now)
	}
	return 0
}

// Attempt performs one upstream call. A positive wait replaces the computed
// backoff before the next attempt (e.g. from Retry-After).
type Attempt func(ctx context.Context) (wait time.Duration, err error)

// Retry is an exponential backoff policy for outbound HTTP calls.
type Retry struct {
	MaxRetries int
	Base       time.Duration
	Cap        time.Duration
	// Final marks errors that are transient in general but must not be
	// retried by this caller.
	Final   func(error) bool
	OnRetry func(attempt int, wait time.Duration, err error)
}

// Do runs call until it succeeds, fails permanently, or retries run out. The
// last error is returned unchanged.
func (r Retry) Do(ctx context.Context, call Attempt) error {
	delay := r.Base
	if delay <= 0 {
		delay = time.Second
	}
	for n := 0; ; n++ {
		hint, err := call(ctx)
		if err == nil {
			return nil
		}
		if n >= r.MaxRetries || !Transient(err) || (r.Final != nil && r.Final(err)) {
			return err
		}
		wait := delay
		if hint > 0 {
			wait = hint
		}
		if r.Cap > 0 && wait > r.Cap {
			wait = r.Cap
		}
		wait = spread(wait)
		if r.OnRetry != nil {
			r.OnRetry(n+1, wait, err)
		}
		if Wait(ctx, wait) != nil {
			return err
		}
		delay *= 2
	}
}

// spread applies +/-20% jitter.
func spread(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	f := 0.8 + 0.4*rand.Float64()
	return time.Duration(float64(d) * f)
}

// Wait blocks for d or until ctx is done.
func Wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
