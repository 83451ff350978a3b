package throttle

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const minPoll = 10 * time.Millisecond

// Redis is a minimum interval throttle shared through a Redis key. The key
// exists while the interval is running.
type Redis struct {
	client   redis.UniversalClient
	key      string
	interval time.Duration
}

func NewRedis(client redis.UniversalClient, key string, interval time.Duration) *Redis {
	return &Redis{client: client, key: key, interval: interval}
}

func (r *Redis) Wait(ctx context.Context) error {
	if r.interval <= 0 {
		return nil
	}
	for {
		ok, err := r.client.SetNX(ctx, r.key, 1, r.interval).Result()
		if err != nil {
			return fmt.Errorf("throttle acquire: %w", err)
		}
		if ok {
			return nil
		}
		ttl, err := r.client.PTTL(ctx, r.key).Result()
		if err != nil {
			return fmt.Errorf("throttle ttl: %w", err)
		}
		if ttl < minPoll {
			ttl = minPoll
		}
		if err := sleep(ctx, ttl); err != nil {
			return err
		}
	}
}

// Done refreshes the key so the interval counts from the end of the call.
func (r *Redis) Done(ctx context.Context) {
	if r.interval <= 0 {
		return
	}
	_ = r.client.Set(context.WithoutCancel(ctx), r.key, 1, r.interval).Err()
}
