package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/emberapp/ember-server/internal/config"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes the Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.Client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return c.Client.Get(ctx, key).Result()
}

func (c *RedisCache) Del(ctx context.Context, key string) error {
	return c.Client.Del(ctx, key).Err()
}

func (c *RedisCache) Incr(ctx context.Context, key string) (int64, error) {
	return c.Client.Incr(ctx, key).Result()
}

func (c *RedisCache) Decr(ctx context.Context, key string) (int64, error) {
	return c.Client.Decr(ctx, key).Result()
}

// KeyForLikeCount generates the Redis key for a user's like count.
func (c *RedisCache) KeyForLikeCount(userID uint64) string {
	return fmt.Sprintf("likes:count:%d", userID)
}

func (c *RedisCache) GetLikeCount(ctx context.Context, userID uint64) (int64, error) {
	key := c.KeyForLikeCount(userID)
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil // cache miss
	} else if err != nil {
		return 0, err
	}
	// refresh TTL on access
	_ = c.Client.Expire(ctx, key, time.Hour).Err()
	return strconv.ParseInt(val, 10, 64)
}

// --- pub/sub topics for live chat subscriptions ---

// ChatTopic is the channel that carries change notifications for one chat.
func ChatTopic(chatID string) string {
	return "chat:" + chatID
}

// InboxTopic carries change notifications for a user's chat list.
func InboxTopic(userID uint64) string {
	return fmt.Sprintf("inbox:%d", userID)
}

// Publish fires a change notification on a topic. The payload is advisory;
// subscribers re-read state from the database on every event.
func (c *RedisCache) Publish(ctx context.Context, topic, payload string) error {
	return c.Client.Publish(ctx, topic, payload).Err()
}

// Subscribe opens a pub/sub subscription on a topic. Callers own the
// returned PubSub and must Close it.
func (c *RedisCache) Subscribe(ctx context.Context, topic string) *redis.PubSub {
	return c.Client.Subscribe(ctx, topic)
}
