// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// queryKeyPrefix namespaces cached reads within the Valkey database.
const queryKeyPrefix = "q:"

// scanBatch is the COUNT hint used when scanning for prefixed keys.
const scanBatch = 100

// QueryStore keeps encoded backend reads in Valkey. It implements
// query.Store.
type QueryStore struct {
	client *redis.Client
}

// NewQueryStore creates a store backed by the given Valkey client.
func NewQueryStore(client *redis.Client) *QueryStore {
	return &QueryStore{client: client}
}

// Get returns the stored value and whether it was present.
func (s *QueryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.client.Get(ctx, queryKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("valkey get %s: %w", key, err)
	}
	return val, true, nil
}

// Set stores value under key with the given TTL.
func (s *QueryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, queryKeyPrefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("valkey set %s: %w", key, err)
	}
	return nil
}

// Del removes the given keys. Missing keys are ignored.
func (s *QueryStore) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = queryKeyPrefix + k
	}
	if err := s.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("valkey del: %w", err)
	}
	return nil
}

// DelPrefix removes every key that starts with prefix, scanning in
// batches so large key sets never block the server.
func (s *QueryStore) DelPrefix(ctx context.Context, prefix string) error {
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, queryKeyPrefix+prefix+"*", scanBatch).Result()
		if err != nil {
			return fmt.Errorf("valkey scan %s: %w", prefix, err)
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("valkey bulk delete %s: %w", prefix, err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
