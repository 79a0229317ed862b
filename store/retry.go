package store

import (
	randv2 "math/rand/v2"
	"sync"
	"time"
)

// backoff hands out at most attempts waits. Each wait grows by
// factor up to ceiling, jitter adds a random share on top.
type backoff struct {
	mu       sync.Mutex
	next     time.Duration
	factor   float64
	ceiling  time.Duration
	jitter   float64
	attempts int64
}

func (b *backoff) Next() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.attempts <= 0 || b.next <= 0 {
		return 0
	}
	b.attempts--
	wait := b.next
	if b.factor > 1 {
		b.next = min(time.Duration(float64(b.next)*b.factor), b.ceiling)
	}
	if b.jitter > 0 {
		wait += time.Duration(randv2.Float64() * b.jitter * float64(wait))
	}
	return wait
}

// NoRetry fails on the first error.
func NoRetry() RetryStrategy {
	return &backoff{}
}

// LimitedRetry waits the same wait between attempts, at most
// maxCount times.
func LimitedRetry(wait time.Duration, maxCount int64) RetryStrategy {
	return &backoff{next: wait, attempts: maxCount}
}

// ExponentialBackoffRetry multiplies the wait by factor after every
// attempt, a non-positive ceiling leaves it unbounded.
func ExponentialBackoffRetry(maxSteps int64, initWait, ceiling time.Duration, factor, jitter float64) RetryStrategy {
	if ceiling <= 0 {
		ceiling = time.Duration(1<<63 - 1)
	}
	return &backoff{
		next:     initWait,
		factor:   factor,
		ceiling:  ceiling,
		jitter:   jitter,
		attempts: maxSteps,
	}
}

// DefaultExponentialBackoffRetry is what the redis store uses
// without an explicit strategy: 10ms, 20ms and 40ms plus 10% jitter.
func DefaultExponentialBackoffRetry() RetryStrategy {
	return ExponentialBackoffRetry(3, 10*time.Millisecond, 200*time.Millisecond, 2.0, 0.1)
}
