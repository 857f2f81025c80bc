package enllac

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Només esborra la clau si encara és nostra.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisLocker bloqueja arbres entre diverses instàncies amb SET NX PX.
// La TTL allibera el bloqueig si el procés mor a mig fer.
type RedisLocker struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	retry  time.Duration
}

func NewRedisLocker(redisURL string, ttl time.Duration) (*RedisLocker, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("REDIS_URL invàlida: %w", err)
	}
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("no s'ha pogut connectar a redis: %w", err)
	}
	return NewRedisLockerWithClient(client, ttl), nil
}

func NewRedisLockerWithClient(client *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisLocker{client: client, prefix: "arbres:lock:", ttl: ttl, retry: 50 * time.Millisecond}
}

func (l *RedisLocker) key(id int) string {
	return fmt.Sprintf("%s%d", l.prefix, id)
}

type redisHold struct {
	key   string
	token string
}

func (l *RedisLocker) Lock(ctx context.Context, ids ...int) (func(), error) {
	held := make([]redisHold, 0, len(ids))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			h := held[i]
			if err := releaseScript.Run(context.Background(), l.client, []string{h.key}, h.token).Err(); err != nil {
				logErrorf("no s'ha pogut alliberar %s: %v", h.key, err)
			}
		}
	}
	for _, id := range lockOrder(ids) {
		h := redisHold{key: l.key(id), token: uuid.NewString()}
		if err := l.acquire(ctx, h); err != nil {
			release()
			return nil, err
		}
		held = append(held, h)
	}
	return release, nil
}

func (l *RedisLocker) acquire(ctx context.Context, h redisHold) error {
	for {
		ok, err := l.client.SetNX(ctx, h.key, h.token, l.ttl).Result()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		t := time.NewTimer(l.retry)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

func (l *RedisLocker) Close() error {
	return l.client.Close()
}
