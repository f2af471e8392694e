package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const countKeyPrefix = "convo_qa:count:"

// Client is a Redis backed cache.CountCache, shared by every API replica.
type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewClient(ctx context.Context, addr, password string, db int, ttl time.Duration) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	client := &Client{rdb: rdb, ttl: ttl}

	if err := client.Ping(ctx); err != nil {
		log.Error().Err(err).
			Str("addr", addr).
			Int("db", db).
			Msg("Redis connection failed")
		rdb.Close()
		return nil, fmt.Errorf("connect redis at %s: %w", addr, err)
	}

	log.Info().
		Str("addr", addr).
		Int("db", db).
		Dur("ttl", ttl).
		Msg("Redis connected successfully")

	return client, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

// Get treats Redis failures as misses; the caller falls back to counting.
func (c *Client) Get(ctx context.Context, key string) (int64, bool) {
	val, err := c.rdb.Get(ctx, countKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false
	}
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Count cache read failed")
		return 0, false
	}

	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Str("value", val).Msg("Discarding malformed cached count")
		return 0, false
	}
	return n, true
}

func (c *Client) Set(ctx context.Context, key string, count int64) {
	if err := c.rdb.Set(ctx, countKeyPrefix+key, count, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Count cache write failed")
	}
}
