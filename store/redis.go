package store

import (
	"context"
	_ "embed"
	"errors"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"

	"github.com/benz9527/xtree/lib/infra"
	"github.com/benz9527/xtree/xlog"
)

//go:embed save.lua
var luaSaveScript string

//go:embed delete.lua
var luaDeleteScript string

//go:embed keys.lua
var luaKeysScript string

var (
	luaSave   = redis.NewScript(luaSaveScript)
	luaDelete = redis.NewScript(luaDeleteScript)
	luaKeys   = redis.NewScript(luaKeysScript)
)

const (
	defaultRedisPrefix = "xtree:"
	redisIndexKey      = "__keys__"
)

var _ Store = (*RedisStore)(nil)

type RedisStore struct {
	*redisStoreOptions
	closed atomic.Bool
}

func (s *RedisStore) key(key string) string {
	return s.prefix + key
}

func (s *RedisStore) indexKey() string {
	return s.prefix + redisIndexKey
}

// do runs fn until it succeeds, the retry strategy gives up or
// the context is done. redis.Nil is a result, never retried.
func (s *RedisStore) do(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}
	if ctx == nil {
		ctx = context.Background()
	}
	var (
		retry = s.strategy()
		timer *time.Timer
		merr  error
	)
	for {
		err := fn(ctx)
		if err == nil || errors.Is(err, redis.Nil) {
			return err
		}
		merr = multierr.Append(merr, err)
		if ctx.Err() != nil {
			return infra.WrapErrorStack(merr)
		}

		backoff := retry.Next()
		if backoff <= 0 {
			if timer == nil {
				// No retry strategy.
				return infra.WrapErrorStack(merr)
			}
			return infra.WrapErrorStackWithMessage(multierr.Append(merr, ErrRetryExhausted), "redis store")
		}
		if timer == nil {
			timer = time.NewTimer(backoff)
			defer timer.Stop()
		} else {
			timer.Reset(backoff)
		}
		select {
		case <-ctx.Done():
			return infra.WrapErrorStack(multierr.Append(merr, ctx.Err()))
		case <-timer.C:
		}
	}
}

func (s *RedisStore) Load(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.do(ctx, func(ctx context.Context) error {
		res, err := s.client.Get(ctx, s.key(key)).Bytes()
		data = res
		return err
	})
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *RedisStore) Save(ctx context.Context, key string, data []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	return s.do(ctx, func(ctx context.Context) error {
		return luaSave.Run(ctx, s.client,
			[]string{s.key(key), s.indexKey()},
			data, s.ttl.Milliseconds(),
		).Err()
	})
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.do(ctx, func(ctx context.Context) error {
		return luaDelete.Run(ctx, s.client, []string{s.key(key), s.indexKey()}).Err()
	})
}

func (s *RedisStore) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	err := s.do(ctx, func(ctx context.Context) error {
		res, err := luaKeys.Run(ctx, s.client, []string{s.indexKey()}).StringSlice()
		keys = res
		return err
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}
	res := make([]string, 0, len(keys))
	for _, k := range keys {
		res = append(res, strings.TrimPrefix(k, s.prefix))
	}
	slices.Sort(res)
	return res, nil
}

func (s *RedisStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if s.ownClient {
		return s.client.Close()
	}
	return nil
}

type redisStoreOptions struct {
	ctx       context.Context
	client    redis.UniversalClient
	ownClient bool
	strategy  func() RetryStrategy
	prefix    string
	ttl       time.Duration
	logger    xlog.XLogger
}

func RedisStoreBuilder(ctx context.Context, client redis.UniversalClient) *redisStoreOptions {
	if ctx == nil {
		ctx = context.Background()
	}
	return &redisStoreOptions{ctx: ctx, client: client}
}

// Prefix namespaces every key, the default is "xtree:".
func (opt *redisStoreOptions) Prefix(prefix string) *redisStoreOptions {
	opt.prefix = prefix
	return opt
}

func (opt *redisStoreOptions) TTL(ttl time.Duration) *redisStoreOptions {
	opt.ttl = ttl
	return opt
}

// Retry takes a factory, a strategy keeps its own attempt
// count so every call starts from a fresh one.
func (opt *redisStoreOptions) Retry(strategy func() RetryStrategy) *redisStoreOptions {
	opt.strategy = strategy
	return opt
}

// OwnClient makes Close release the client too.
func (opt *redisStoreOptions) OwnClient() *redisStoreOptions {
	opt.ownClient = true
	return opt
}

func (opt *redisStoreOptions) Logger(logger xlog.XLogger) *redisStoreOptions {
	opt.logger = logger
	return opt
}

func (opt *redisStoreOptions) Build() (*RedisStore, error) {
	if opt.client == nil {
		return nil, infra.NewErrorStack("[store] redis store without client")
	}
	if opt.prefix == "" {
		opt.prefix = defaultRedisPrefix
	}
	if opt.ttl < 0 {
		opt.ttl = 0
	}
	if opt.strategy == nil {
		opt.strategy = DefaultExponentialBackoffRetry
	}
	if opt.logger != nil {
		redis.SetLogger(xlog.NewGoRedisXLogger(opt.logger))
	}
	if err := opt.client.Ping(opt.ctx).Err(); err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "[store] redis ping")
	}
	return &RedisStore{redisStoreOptions: opt}, nil
}
