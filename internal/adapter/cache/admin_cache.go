package cache

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/charchit19/auth-mindsparkle/internal/repository"
)

const adminKeyPrefix = "admin_email:"

// RedisAdminDirectory answers allow-list membership lookups, caching results
// in redis in front of the persistent admin list. Membership is consulted
// once per registration, so a short TTL is plenty.
type RedisAdminDirectory struct {
	client redis.UniversalClient
	list   repository.AdminListRepository
	ttl    time.Duration
}

func NewRedisAdminDirectory(client redis.UniversalClient, list repository.AdminListRepository, ttl time.Duration) *RedisAdminDirectory {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisAdminDirectory{client: client, list: list, ttl: ttl}
}

// IsAdminEmail reports whether email is on the admin allow-list. Cache
// failures fall through to the persistent list.
func (d *RedisAdminDirectory) IsAdminEmail(ctx context.Context, email string) (bool, error) {
	key := adminKeyPrefix + strings.ToLower(strings.TrimSpace(email))

	if cached, err := d.client.Get(ctx, key).Result(); err == nil {
		return cached == "1", nil
	}

	member, err := d.list.Contains(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return false, err
	}

	value := "0"
	if member {
		value = "1"
	}
	_ = d.client.Set(ctx, key, value, d.ttl).Err()

	return member, nil
}
