package redislock

import (
	"context"
	"fmt"
	"time"

	"fxhub/internal/adapters"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const DefaultKey = "fxhub:update-cycle"

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

var _ adapters.CycleLock = (*Lock)(nil)

// Lock is a cross-process cycle lock built on SET NX PX. The ttl bounds how
// long a crashed holder can block other writers.
type Lock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func New(client *redis.Client, key string, ttl time.Duration) *Lock {
	if key == "" {
		key = DefaultKey
	}
	return &Lock{client: client, key: key, ttl: ttl}
}

func (l *Lock) TryAcquire(ctx context.Context) (func(), bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire cycle lock: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	release := func() {
		// release must work even if the cycle ctx is already canceled
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, l.client, []string{l.key}, token).Err()
	}
	return release, true, nil
}
