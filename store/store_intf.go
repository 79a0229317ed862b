package store

import (
	"context"
	"time"
)

// Store keeps opaque snapshots by key. The caller owns the
// encoding, a store never inspects the bytes.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
	Close() error
}

type RetryStrategy interface {
	// Next returns the backoff before the next attempt, zero
	// stops retrying.
	Next() time.Duration
}

type StoreErr string

func (err StoreErr) Error() string {
	return string(err)
}

const (
	ErrNotFound       StoreErr = "[store] key not found"
	ErrStoreClosed    StoreErr = "[store] store closed"
	ErrEmptyKey       StoreErr = "[store] empty key"
	ErrRetryExhausted StoreErr = "[store] retry reach to max"
)
