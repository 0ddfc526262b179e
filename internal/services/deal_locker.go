// internal/services/deal_locker.go
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/tubetrade/dealdesk/internal/config"
)

// DealLocker serialises writers of one deal. The returned func releases the
// lock and is safe to call more than once.
type DealLocker interface {
	Lock(ctx context.Context, dealID uint) (func(), error)
}

// LocalDealLocker is an in-process per-deal mutex for single-instance setups.
type LocalDealLocker struct {
	mu    sync.Mutex
	locks map[uint]*localLock
}

type localLock struct {
	ch   chan struct{}
	refs int
}

func NewLocalDealLocker() *LocalDealLocker {
	return &LocalDealLocker{locks: make(map[uint]*localLock)}
}

func (l *LocalDealLocker) Lock(ctx context.Context, dealID uint) (func(), error) {
	l.mu.Lock()
	lock, ok := l.locks[dealID]
	if !ok {
		lock = &localLock{ch: make(chan struct{}, 1)}
		l.locks[dealID] = lock
	}
	lock.refs++
	l.mu.Unlock()

	select {
	case lock.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(dealID, lock)
		return nil, ErrLockTimeout
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-lock.ch
			l.release(dealID, lock)
		})
	}, nil
}

func (l *LocalDealLocker) release(dealID uint, lock *localLock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock.refs--
	if lock.refs == 0 {
		delete(l.locks, dealID)
	}
}

// Deletes the key only while it still holds the caller's token.
var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisDealLocker holds each lock as a key that expires after ttl.
type RedisDealLocker struct {
	client        *redis.Client
	ttl           time.Duration
	retryInterval time.Duration
}

func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

func NewRedisDealLocker(client *redis.Client, ttl time.Duration) *RedisDealLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &RedisDealLocker{
		client:        client,
		ttl:           ttl,
		retryInterval: 50 * time.Millisecond,
	}
}

func dealLockKey(dealID uint) string {
	return fmt.Sprintf("deal:lock:%d", dealID)
}

func (l *RedisDealLocker) Lock(ctx context.Context, dealID uint) (func(), error) {
	key := dealLockKey(dealID)
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				return nil, ErrLockTimeout
			}
			return nil, fmt.Errorf("failed to acquire deal lock: %w", err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ErrLockTimeout
		case <-time.After(l.retryInterval):
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := releaseLockScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
				logrus.WithError(err).WithField("deal_id", dealID).Warn("Failed to release deal lock")
			}
		})
	}, nil
}
