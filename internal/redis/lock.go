package redis

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ErrLockTimeout is returned when a lock could not be acquired within the wait budget.
var ErrLockTimeout = errors.New("lock wait timed out")

const lockPollInterval = 50 * time.Millisecond

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`)

// renewScript extends the expiry only while the key still holds our token.
var renewScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return 0
`)

// Locker serializes work per key with SET NX PX and token-checked release.
type Locker struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
}

func NewLocker(client *redis.Client, ttl, wait time.Duration) *Locker {
	return &Locker{client: client, ttl: ttl, wait: wait}
}

// Acquire blocks until key is locked, the wait budget runs out or ctx ends.
// The lock is renewed every ttl/3 until release is called, so a holder that
// outlives ttl keeps it; a crashed holder loses it after ttl.
// When Redis itself fails the lock is skipped and a no-op release is returned.
func (l *Locker) Acquire(ctx context.Context, key string) (release func(), err error) {
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			log.Warn().Err(err).Str("key", key).Msg("lock unavailable, continuing without it")
			return func() {}, nil
		}
		if ok {
			return l.hold(key, token), nil
		}

		if time.Now().After(deadline) {
			return nil, ErrLockTimeout
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockPollInterval):
		}
	}
}

// hold keeps the lock alive in the background and returns its release func.
func (l *Locker) hold(key, token string) func() {
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		l.renew(key, token, stop)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			wg.Wait()
			l.release(key, token)
		})
	}
}

func (l *Locker) renew(key, token string, stop <-chan struct{}) {
	interval := l.ttl / 3
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			n, err := renewScript.Run(ctx, l.client, []string{key}, token, l.ttl.Milliseconds()).Int64()
			cancel()
			if err != nil {
				log.Warn().Err(err).Str("key", key).Msg("failed to renew lock")
				continue
			}
			if n == 0 {
				log.Warn().Str("key", key).Msg("lock lost before release")
				return
			}
		}
	}
}

func (l *Locker) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to release lock")
	}
}
