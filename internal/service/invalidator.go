package service

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/beach-lounger-reservation/internal/model"
)

// Invalidator drops cached views that mention a lounger.
type Invalidator interface {
	InvalidateLounger(ctx context.Context, l model.Lounger) error
}

// NopInvalidator is used when Redis is unavailable.
type NopInvalidator struct{}

func (NopInvalidator) InvalidateLounger(context.Context, model.Lounger) error { return nil }

// BeachLoungersKey is the cached lounger list of one beach.
func BeachLoungersKey(beachID uint64) string {
	return fmt.Sprintf("beach:%d:loungers", beachID)
}

// LoungerCachePattern matches every response-cache entry tagged with
// the lounger by the cache middleware.
func LoungerCachePattern(prefix string, loungerID uint64) string {
	return fmt.Sprintf("%s:lounger:%d:*", prefix, loungerID)
}

// RedisInvalidator deletes the beach list key and scans for the
// lounger's response-cache entries.
type RedisInvalidator struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisInvalidator(rdb *redis.Client, prefix string) *RedisInvalidator {
	if prefix == "" {
		prefix = "cache"
	}
	return &RedisInvalidator{rdb: rdb, prefix: prefix}
}

func (r *RedisInvalidator) InvalidateLounger(ctx context.Context, l model.Lounger) error {
	keys := []string{BeachLoungersKey(l.BeachID)}

	iter := r.rdb.Scan(ctx, 0, LoungerCachePattern(r.prefix, l.ID), 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan lounger cache keys: %w", err)
	}
	if err := r.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete lounger cache keys: %w", err)
	}
	return nil
}
