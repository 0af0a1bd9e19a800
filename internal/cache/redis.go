package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client caches rendered event listings. Capacity reads never go through
// the cache; only listing pages with a short TTL.
type Client struct {
	client *redis.Client
	ttl    time.Duration
}

type Config struct {
	Addr     string
	Password string
	TTL      time.Duration
}

func NewClient(cfg Config) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           0,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{client: rdb, ttl: cfg.TTL}, nil
}

func eventsListKey(skip, limit int) string {
	return fmt.Sprintf("events:list:%d:%d", skip, limit)
}

// GetEventsListRaw returns the cached JSON for an events page, avoiding a
// decode/encode round trip on cache hits.
func (c *Client) GetEventsListRaw(ctx context.Context, skip, limit int) ([]byte, error) {
	data, err := c.client.Get(ctx, eventsListKey(skip, limit)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("events list not cached")
		}
		return nil, fmt.Errorf("cache lookup error: %w", err)
	}
	return data, nil
}

// SetEventsList stores a rendered events page with the configured TTL.
func (c *Client) SetEventsList(ctx context.Context, skip, limit int, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal events list: %w", err)
	}
	return c.client.Set(ctx, eventsListKey(skip, limit), data, c.ttl).Err()
}

// InvalidateEventsList drops all cached event pages. Called after an
// event is created.
func (c *Client) InvalidateEventsList(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, "events:list:*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func (c *Client) Close() error {
	return c.client.Close()
}
