package lock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

const defaultPrefix = "qtfashion:"

// RedisLocker grants leases shared by every instance pointed at the same Redis.
type RedisLocker struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisLocker constructs RedisLocker. An empty prefix uses the service default.
func NewRedisLocker(client redis.UniversalClient, prefix string) *RedisLocker {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &RedisLocker{client: client, prefix: prefix}
}

// TryLock sets key with NX and a TTL. The returned release only removes our own lease.
func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error) {
	if ttl <= 0 {
		return nil, false, errors.New("lease ttl must be positive")
	}
	token, err := newToken()
	if err != nil {
		return nil, false, err
	}
	redisKey := l.prefix + key
	ok, err := l.client.SetNX(ctx, redisKey, token, ttl).Result()
	if err != nil {
		return nil, false, errors.Wrapf(err, "acquire lease %s", key)
	}
	if !ok {
		return nil, false, nil
	}
	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{redisKey}, token).Err(); err != nil {
			return errors.Wrapf(err, "release lease %s", key)
		}
		return nil
	}
	return release, true, nil
}

func newToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "lease token")
	}
	return hex.EncodeToString(buf), nil
}

// LocalLocker grants leases within this process only.
type LocalLocker struct {
	mu     sync.Mutex
	now    func() time.Time
	seq    uint64
	leases map[string]localLease
}

type localLease struct {
	token   uint64
	expires time.Time
}

// NewLocalLocker constructs LocalLocker. now defaults to time.Now.
func NewLocalLocker(now func() time.Time) *LocalLocker {
	if now == nil {
		now = time.Now
	}
	return &LocalLocker{now: now, leases: make(map[string]localLease)}
}

// TryLock takes key unless an unexpired lease exists.
func (l *LocalLocker) TryLock(_ context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error) {
	if ttl <= 0 {
		return nil, false, errors.New("lease ttl must be positive")
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if lease, ok := l.leases[key]; ok && now.Before(lease.expires) {
		return nil, false, nil
	}
	l.seq++
	token := l.seq
	l.leases[key] = localLease{token: token, expires: now.Add(ttl)}

	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if lease, ok := l.leases[key]; ok && lease.token == token {
			delete(l.leases, key)
		}
		return nil
	}, true, nil
}
