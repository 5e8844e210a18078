package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// PermissionCache caches resolved effective permission sets in Redis.
// If Redis is unreachable at startup the cache degrades to a no-op and
// every lookup falls through to the database.
type PermissionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPermissionCache creates a new permission cache instance
func NewPermissionCache(host string, port int, password string, db int, ttlSeconds int) (*PermissionCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		// Gracefully degrade to no caching
		return &PermissionCache{
			client: nil,
			ttl:    time.Duration(ttlSeconds) * time.Second,
		}, nil
	}

	return &PermissionCache{
		client: client,
		ttl:    time.Duration(ttlSeconds) * time.Second,
	}, nil
}

func (c *PermissionCache) cacheKey(userID uuid.UUID) string {
	return fmt.Sprintf("perms:%s", userID.String())
}

// Get retrieves the cached effective permission set for a user.
// Returns nil, nil on cache miss or when the cache is unavailable.
func (c *PermissionCache) Get(ctx context.Context, userID uuid.UUID) ([]string, error) {
	if c.client == nil {
		return nil, nil
	}

	data, err := c.client.Get(ctx, c.cacheKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, nil // Cache miss
	}
	if err != nil {
		return nil, err
	}

	var perms []string
	if err := json.Unmarshal(data, &perms); err != nil {
		return nil, err
	}
	return perms, nil
}

// Set caches a user's effective permission set
func (c *PermissionCache) Set(ctx context.Context, userID uuid.UUID, perms []string) error {
	if c.client == nil {
		return nil
	}

	data, err := json.Marshal(perms)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.cacheKey(userID), data, c.ttl).Err()
}

// Invalidate removes a user's cached permissions, called when their role
// or per-user overrides change.
func (c *PermissionCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	if c.client == nil {
		return nil
	}
	return c.client.Del(ctx, c.cacheKey(userID)).Err()
}

// InvalidateAll removes every cached permission set. Used when a role's
// permission list changes, since any user may hold that role.
func (c *PermissionCache) InvalidateAll(ctx context.Context) error {
	if c.client == nil {
		return nil
	}

	iter := c.client.Scan(ctx, 0, "perms:*", 100).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}

	if len(keys) > 0 {
		return c.client.Del(ctx, keys...).Err()
	}
	return nil
}

// Close closes the Redis connection
func (c *PermissionCache) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// IsAvailable returns true if the cache is backed by a live connection
func (c *PermissionCache) IsAvailable() bool {
	return c.client != nil
}
