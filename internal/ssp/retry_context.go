package ssp

import (
	"context"
	"sync/atomic"
)

type retryCtxKey struct{}

// RetryCounters attributes transport retries to the calls made under one
// context. The transport updates it concurrently.
type RetryCounters struct {
	Total     atomic.Int64
	Status429 atomic.Int64
	Status5xx atomic.Int64
	Net       atomic.Int64
}

// WithRetryCounters attaches rc to ctx.
func WithRetryCounters(ctx context.Context, rc *RetryCounters) context.Context {
	return context.WithValue(ctx, retryCtxKey{}, rc)
}

func retryCountersFrom(ctx context.Context) *RetryCounters {
	rc, _ := ctx.Value(retryCtxKey{}).(*RetryCounters)
	return rc
}

func (rc *RetryCounters) recordStatus(code int) {
	if rc == nil {
		return
	}
	rc.Total.Add(1)
	switch {
	case code == 429:
		rc.Status429.Add(1)
	case code >= 500:
		rc.Status5xx.Add(1)
	}
}

func (rc *RetryCounters) recordNet() {
	if rc == nil {
		return
	}
	rc.Total.Add(1)
	rc.Net.Add(1)
}
