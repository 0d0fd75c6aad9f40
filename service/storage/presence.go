package storage

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	redisx "sparrow/service/storage/redis"
)

// Redis-side presence mirror. The document store owns the durable online
// flag; these keys exist so other services can answer "is X online right
// now" without touching the primary store, and so a crashed gateway's
// entries age out on their own via TTL.

const DefaultPresenceTTL = 2 * time.Hour

// presence key: sparrow:presence:<user>
// value: gateway id; TTL bounds staleness after an unclean shutdown
func presenceKey(user string) string { return "sparrow:presence:" + user }

func PresenceOnline(ctx context.Context, user, gatewayID string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultPresenceTTL
	}
	return redisx.GetRedis().Set(ctx, presenceKey(user), gatewayID, ttl).Err()
}

func PresenceOffline(ctx context.Context, user string) error {
	return redisx.GetRedis().Del(ctx, presenceKey(user)).Err()
}

func PresenceLookup(ctx context.Context, user string) (gatewayID string, online bool, err error) {
	val, err := redisx.GetRedis().Get(ctx, presenceKey(user)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}
