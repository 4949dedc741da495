package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Client wraps redis.Client but fails open: a missing or unreachable Redis
// behaves like a permanent cache miss and never fails a request.
type Client struct {
	client *redis.Client
}

// New creates a new Redis-backed cache client.
func New(addr, password string, db int) *Client {
	opts := &redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}
	return &Client{client: redis.NewClient(opts)}
}

// PetListKey is the cached view of a user's pet list.
func PetListKey(ownerID uuid.UUID) string {
	return fmt.Sprintf("pets:list:%s", ownerID)
}

// PetDetailKey is the cached view of a single pet.
func PetDetailKey(ownerID, petID uuid.UUID) string {
	return fmt.Sprintf("pets:detail:%s:%s", ownerID, petID)
}

// Get returns the value or nil on miss or when redis is unavailable.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}
	res, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		// fail open: behave like cache miss
		return nil, nil
	}
	return res, nil
}

// Set stores value with TTL, ignoring redis errors.
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c == nil || c.client == nil {
		return nil
	}
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		// fail open: ignore redis errors
		return nil
	}
	return nil
}

// Delete removes a key, ignoring redis errors.
func (c *Client) Delete(ctx context.Context, key string) error {
	if c == nil || c.client == nil {
		return nil
	}
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return nil
	}
	return nil
}

// Invalidate drops every given view key after a mutation.
func (c *Client) Invalidate(ctx context.Context, keys ...string) {
	for _, key := range keys {
		_ = c.Delete(ctx, key)
	}
}
