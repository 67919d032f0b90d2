package redisclient

import (
	"context"
	"fmt"
	"time"

	"almacen-service/internal/models"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
)

// Client caches catalog stock levels in Redis for cheap external reads and
// claims checkout idempotency keys. The catalog remains the source of
// truth; a stale or missing cache entry is never an error for the core.
type Client struct {
	rdb            *redis.Client
	idempotencyTTL time.Duration
}

// NewClient creates a new Redis client.
func NewClient(addr, password string, db int, idempotencyTTL time.Duration) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb, idempotencyTTL: idempotencyTTL}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// SetStock caches one product's stock level. The services call it after
// every confirmed stock write so the cache follows the catalog.
func (c *Client) SetStock(ctx context.Context, productID string, stock decimal.Decimal) error {
	return c.rdb.Set(ctx, stockKey(productID), stock.String(), 0).Err()
}

// SyncCatalog writes every product's stock level in one pipeline. Called
// once at startup; per-write SetStock refreshes keep the cache current
// from then on.
func (c *Client) SyncCatalog(ctx context.Context, products []models.Product) error {
	pipe := c.rdb.Pipeline()
	for _, p := range products {
		pipe.Set(ctx, stockKey(p.ID), p.Stock.String(), 0)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// ClaimIdempotencyKey claims a checkout idempotency key. It returns false
// when the key was already claimed within the TTL.
func (c *Client) ClaimIdempotencyKey(ctx context.Context, key string) (bool, error) {
	return c.rdb.SetNX(ctx, fmt.Sprintf("idempotency:%s", key), "1", c.idempotencyTTL).Result()
}

func stockKey(productID string) string {
	return fmt.Sprintf("stock:%s", productID)
}
