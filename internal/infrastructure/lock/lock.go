// Package lock runs periodic jobs on at most one worker at a time.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"pharmaledger/pkg/logger"
)

// Runner runs fn while holding the named lock. ran is false when another
// holder owns the lock; that is not an error.
type Runner interface {
	RunExclusive(ctx context.Context, name string, ttl time.Duration, fn func(ctx context.Context) error) (ran bool, err error)
}

// Redis is a Runner backed by a redislock client. The lock is refreshed at
// half its TTL while fn runs.
type Redis struct {
	locker *redislock.Client
	prefix string
}

var _ Runner = (*Redis)(nil)

// NewRedis creates a runner on an existing client.
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = "pharmaledger:lock:"
	}
	return &Redis{locker: redislock.New(client), prefix: prefix}
}

// Connect opens a client and checks it with PING.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return client, nil
}

// RunExclusive implements Runner.
func (r *Redis) RunExclusive(ctx context.Context, name string, ttl time.Duration, fn func(ctx context.Context) error) (bool, error) {
	l, err := r.locker.Obtain(ctx, r.prefix+name, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("obtain lock %s: %w", name, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(ttl / 2)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				if err := l.Refresh(runCtx, ttl, nil); err != nil {
					logger.Warn(runCtx, "lock refresh failed, stopping job", "lock", name, "error", err)
					cancel()
					return
				}
			}
		}
	}()

	runErr := fn(runCtx)
	cancel()
	wg.Wait()

	if err := l.Release(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
		logger.Warn(ctx, "lock release failed", "lock", name, "error", err)
	}
	return true, runErr
}

// Local is an in-process Runner for single-instance deployments.
type Local struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

var _ Runner = (*Local)(nil)

// NewLocal creates an in-process runner.
func NewLocal() *Local {
	return &Local{locks: make(map[string]*sync.Mutex)}
}

// RunExclusive implements Runner. ttl is ignored.
func (l *Local) RunExclusive(ctx context.Context, name string, _ time.Duration, fn func(ctx context.Context) error) (bool, error) {
	l.mu.Lock()
	m, ok := l.locks[name]
	if !ok {
		m = &sync.Mutex{}
		l.locks[name] = m
	}
	l.mu.Unlock()

	if !m.TryLock() {
		return false, nil
	}
	defer m.Unlock()
	return true, fn(ctx)
}
