package ssp

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"ssp-admin/internal/infra/logx"
)

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Now() time.Time        { return time.Now() }
func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

// Limit defines a simple rate limit: RPS with a burst capacity.
type Limit struct {
	RPS   float64
	Burst int
}

// TransportOptions configures the retrying, rate-limited transport.
type TransportOptions struct {
	RetryMax    int
	BackoffBase time.Duration
	BackoffCap  time.Duration
	JitterFn    func(base time.Duration, attempt int) time.Duration
	Clock       Clock
	Metrics     *Metrics
	Limit       Limit
}

// DefaultTransportOptions returns conservative defaults for an SSP server.
// The admin console issues a handful of requests per keypress at most.
func DefaultTransportOptions() TransportOptions {
	return TransportOptions{
		RetryMax:    2,
		BackoffBase: 200 * time.Millisecond,
		BackoffCap:  2 * time.Second,
		Clock:       realClock{},
		JitterFn: func(base time.Duration, _ int) time.Duration {
			if base <= 0 {
				return 0
			}
			return time.Duration(rand.Int63n(base.Nanoseconds()))
		},
		Metrics: NewMetrics(),
		Limit:   Limit{RPS: 10, Burst: 10},
	}
}

// tokenBucket is a per-host rate limiter with fractional tokens.
type tokenBucket struct {
	mu     sync.Mutex
	rps    float64
	burst  float64
	tokens float64
	last   time.Time
	clock  Clock
}

func newTokenBucket(lim Limit, clock Clock) *tokenBucket {
	if lim.RPS <= 0 {
		lim.RPS = 10
	}
	burst := float64(max(1, lim.Burst))
	return &tokenBucket{
		rps:    lim.RPS,
		burst:  burst,
		tokens: burst,
		last:   clock.Now(),
		clock:  clock,
	}
}

func (tb *tokenBucket) refillLocked(now time.Time) {
	delta := now.Sub(tb.last).Seconds() * tb.rps
	if delta > 0 {
		tb.tokens = math.Min(tb.burst, tb.tokens+delta)
		tb.last = now
	}
}

func (tb *tokenBucket) Wait(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		tb.mu.Lock()
		tb.refillLocked(tb.clock.Now())
		if tb.tokens >= 1 {
			tb.tokens--
			tb.mu.Unlock()
			return nil
		}
		need := 1 - tb.tokens
		wait := time.Duration((need / tb.rps) * float64(time.Second))
		tb.mu.Unlock()
		if wait < 5*time.Millisecond {
			wait = 5 * time.Millisecond
		}
		// sleep in small steps so cancellation is observed
		deadline := tb.clock.Now().Add(wait)
		for tb.clock.Now().Before(deadline) {
			if err := ctx.Err(); err != nil {
				return err
			}
			tb.clock.Sleep(5 * time.Millisecond)
		}
	}
}

// RetryingTransport wraps a base RoundTripper with per-host rate limiting,
// retries on transient failures and request ID stamping.
type RetryingTransport struct {
	Base     http.RoundTripper
	Opts     TransportOptions
	limMu    sync.Mutex
	limiters map[string]*tokenBucket
}

func NewRetryingTransport(opts TransportOptions) *RetryingTransport {
	return &RetryingTransport{Opts: opts, limiters: make(map[string]*tokenBucket)}
}

func (t *RetryingTransport) limiter(host string) *tokenBucket {
	t.limMu.Lock()
	defer t.limMu.Unlock()
	if tb, ok := t.limiters[host]; ok {
		return tb
	}
	tb := newTokenBucket(t.Opts.Limit, t.clock())
	t.limiters[host] = tb
	return tb
}

func (t *RetryingTransport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *RetryingTransport) clock() Clock {
	if t.Opts.Clock != nil {
		return t.Opts.Clock
	}
	return realClock{}
}

// ensureReplayableBody buffers request bodies so the request can be resent.
func ensureReplayableBody(req *http.Request) error {
	if req.Body == nil || req.Body == http.NoBody || req.GetBody != nil {
		return nil
	}
	buf, err := io.ReadAll(req.Body)
	if err != nil {
		return err
	}
	_ = req.Body.Close()
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(buf)), nil
	}
	req.Body = io.NopCloser(bytes.NewReader(buf))
	return nil
}

func (t *RetryingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := ensureReplayableBody(req); err != nil {
		return nil, err
	}
	if req.Header.Get(RequestIDHeader) == "" {
		req.Header.Set(RequestIDHeader, RequestIDFromContext(req.Context()))
	}

	lim := t.limiter(req.URL.Host)
	counters := retryCountersFrom(req.Context())
	if t.Opts.Metrics != nil {
		t.Opts.Metrics.IncRequest(req.Method)
	}
	started := t.clock().Now()

	attempts := max(1, t.Opts.RetryMax+1)
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := lim.Wait(req.Context()); err != nil {
			return nil, err
		}
		if attempt > 0 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			req.Body = body
		}

		resp, err := t.base().RoundTrip(req)
		if err != nil {
			if isTransientNetErr(err) && attempt < attempts-1 {
				lastErr = err
				if t.Opts.Metrics != nil {
					t.Opts.Metrics.IncRetry()
				}
				counters.recordNet()
				logx.Debugf("retrying %s %s after network error: %v", req.Method, req.URL.Path, err)
				t.sleepBackoff(attempt)
				continue
			}
			return nil, err
		}
		if t.Opts.Metrics != nil {
			t.Opts.Metrics.IncStatus(resp.StatusCode)
		}

		if shouldRetryStatus(resp.StatusCode) && attempt < attempts-1 {
			_ = resp.Body.Close()
			if t.Opts.Metrics != nil {
				t.Opts.Metrics.IncRetry()
			}
			counters.recordStatus(resp.StatusCode)
			logx.Debugf("retrying %s %s after status %d", req.Method, req.URL.Path, resp.StatusCode)
			if ra := parseRetryAfter(resp.Header.Get("Retry-After"), t.clock().Now()); ra > 0 {
				d := minDur(ra, t.capOrDefault())
				t.addBackoff(d)
				t.clock().Sleep(d)
				continue
			}
			t.sleepBackoff(attempt)
			continue
		}

		if t.Opts.Metrics != nil {
			t.Opts.Metrics.ObserveLatency(t.clock().Now().Sub(started))
		}
		return resp, nil
	}
	if lastErr == nil {
		lastErr = errors.New("max retries exceeded")
	}
	return nil, lastErr
}

func (t *RetryingTransport) capOrDefault() time.Duration {
	if t.Opts.BackoffCap <= 0 {
		return 2 * time.Second
	}
	return t.Opts.BackoffCap
}

func (t *RetryingTransport) sleepBackoff(attempt int) {
	base := t.Opts.BackoffBase
	if base <= 0 {
		base = 200 * time.Millisecond
	}
	limit := t.capOrDefault()
	delay := minDur(time.Duration(float64(base)*math.Pow(2, float64(attempt))), limit)
	if t.Opts.JitterFn != nil {
		delay = minDur(delay+t.Opts.JitterFn(delay, attempt), limit)
	}
	t.addBackoff(delay)
	t.clock().Sleep(delay)
}

func (t *RetryingTransport) addBackoff(d time.Duration) {
	if t.Opts.Metrics != nil {
		t.Opts.Metrics.AddBackoff(d)
	}
}

func isTransientNetErr(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection reset") || strings.Contains(msg, "temporary")
}

func shouldRetryStatus(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable ||
		code == http.StatusGatewayTimeout
}

func parseRetryAfter(h string, now time.Time) time.Duration {
	h = strings.TrimSpace(h)
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(h); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if when, err := http.ParseTime(h); err == nil {
		if d := when.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

func minDur(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
