package store

import (
	"context"
	"testing"
	"time"

	mredisv2 "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/benz9527/xtree/xlog"
)

func newTestRedisStore(t *testing.T, mredis *mredisv2.Miniredis, opts ...func(*redisStoreOptions)) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:       mredis.Addr(),
		DB:         0,
		MaxRetries: -1,
	})
	builder := RedisStoreBuilder(context.TODO(), client).
		OwnClient().
		Logger(xlog.NewNopXLogger())
	for _, o := range opts {
		o(builder)
	}
	s, err := builder.Build()
	require.NoError(t, err)
	return s
}

func TestRedisStore(t *testing.T) {
	mredis := mredisv2.RunT(t)
	storeContract(t, newTestRedisStore(t, mredis))
}

func TestRedisStore_Prefix(t *testing.T) {
	mredis := mredisv2.RunT(t)
	s := newTestRedisStore(t, mredis, func(opt *redisStoreOptions) {
		opt.Prefix("demo:")
	})
	defer func() {
		require.NoError(t, s.Close())
	}()

	require.NoError(t, s.Save(context.TODO(), "tempBST", []byte("snapshot")))
	got, err := mredis.Get("demo:tempBST")
	require.NoError(t, err)
	require.Equal(t, "snapshot", got)
	members, err := mredis.Members("demo:" + redisIndexKey)
	require.NoError(t, err)
	require.Equal(t, []string{"demo:tempBST"}, members)
}

func TestRedisStore_TTL(t *testing.T) {
	mredis := mredisv2.RunT(t)
	s := newTestRedisStore(t, mredis, func(opt *redisStoreOptions) {
		opt.TTL(time.Minute)
	})
	defer func() {
		require.NoError(t, s.Close())
	}()

	ctx := context.TODO()
	require.NoError(t, s.Save(ctx, "tempSplay", []byte("snapshot")))
	require.Equal(t, time.Minute, mredis.TTL(defaultRedisPrefix+"tempSplay"))

	mredis.FastForward(2 * time.Minute)
	_, err := s.Load(ctx, "tempSplay")
	require.ErrorIs(t, err, ErrNotFound)
	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	require.Empty(t, keys)
	require.False(t, mredis.Exists(defaultRedisPrefix+redisIndexKey))
}

func TestRedisStore_RetryExhausted(t *testing.T) {
	mredis := mredisv2.RunT(t)
	attempts := 0
	s := newTestRedisStore(t, mredis, func(opt *redisStoreOptions) {
		opt.Retry(func() RetryStrategy {
			attempts++
			return LimitedRetry(time.Millisecond, 2)
		})
	})
	defer func() {
		require.NoError(t, s.Close())
	}()

	mredis.SetError("server unavailable")
	_, err := s.Load(context.TODO(), "commonParams")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrRetryExhausted)
	require.Equal(t, 1, attempts)

	mredis.SetError("")
	require.NoError(t, s.Save(context.TODO(), "commonParams", []byte("{}")))
	require.Equal(t, 2, attempts)
}

func TestRedisStore_NoRetry(t *testing.T) {
	mredis := mredisv2.RunT(t)
	s := newTestRedisStore(t, mredis, func(opt *redisStoreOptions) {
		opt.Retry(NoRetry)
	})
	defer func() {
		require.NoError(t, s.Close())
	}()

	mredis.SetError("server unavailable")
	err := s.Save(context.TODO(), "commonParams", []byte("{}"))
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrRetryExhausted)
}

func TestRedisStore_CancelledContext(t *testing.T) {
	mredis := mredisv2.RunT(t)
	s := newTestRedisStore(t, mredis, func(opt *redisStoreOptions) {
		opt.Retry(func() RetryStrategy {
			return LimitedRetry(time.Second, 10)
		})
	})
	defer func() {
		require.NoError(t, s.Close())
	}()

	mredis.SetError("server unavailable")
	ctx, cancel := context.WithTimeout(context.TODO(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := s.Load(ctx, "commonParams")
	require.Error(t, err)
	require.Less(t, time.Since(start), time.Second)
}

func TestRedisStore_BuildWithoutServer(t *testing.T) {
	_, err := RedisStoreBuilder(context.TODO(), nil).Build()
	require.Error(t, err)

	mredis := mredisv2.RunT(t)
	addr := mredis.Addr()
	mredis.Close()
	client := redis.NewClient(&redis.Options{Addr: addr, MaxRetries: -1})
	defer func() {
		_ = client.Close()
	}()
	_, err = RedisStoreBuilder(context.TODO(), client).Build()
	require.Error(t, err)
}
