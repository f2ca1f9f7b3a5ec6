package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"school-competition-service/internal/domain"

	"github.com/redis/go-redis/v9"
)

// LeaderboardCache keeps leaderboard snapshots as JSON strings:
// SET leaderboard:{scope}:{mode}:{limit} {...}
type LeaderboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewLeaderboardCache(client *redis.Client, ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{client: client, ttl: ttl}
}

func (c *LeaderboardCache) GetLeaderboard(ctx context.Context, key string) (domain.Leaderboard, bool, error) {
	raw, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Leaderboard{}, false, nil
	}
	if err != nil {
		return domain.Leaderboard{}, false, err
	}
	var lb domain.Leaderboard
	if err := json.Unmarshal(raw, &lb); err != nil {
		return domain.Leaderboard{}, false, err
	}
	return lb, true, nil
}

func (c *LeaderboardCache) SetLeaderboard(ctx context.Context, key string, lb domain.Leaderboard) error {
	raw, err := json.Marshal(lb)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(key), raw, c.ttl).Err()
}

// InvalidateScope deletes every snapshot whose key starts with scope.
// Glob metacharacters in ids are matched literally.
func (c *LeaderboardCache) InvalidateScope(ctx context.Context, scope string) error {
	iter := c.client.Scan(ctx, 0, escapeGlob(c.key(scope))+":*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *LeaderboardCache) key(key string) string {
	return "leaderboard:" + key
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

// escapeGlob quotes the characters SCAN MATCH treats as pattern syntax.
func escapeGlob(s string) string {
	return globEscaper.Replace(s)
}
