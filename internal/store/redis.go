package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "raven:"

// maxUpdateAttempts bounds the optimistic-lock retry loop in Update.
const maxUpdateAttempts = 10

// Redis is a Blob backed by a shared Redis instance. It is the backend the
// API and worker binaries use so that reconciliation always sees the
// current collection regardless of which process wrote it last.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Get(ctx context.Context, key string, dest any) error {
	val, err := r.client.Get(ctx, redisKeyPrefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		return fmt.Errorf("redis get %s: %w", key, err)
	}
	return json.Unmarshal([]byte(val), dest)
}

func (r *Redis) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := r.client.Set(ctx, redisKeyPrefix+key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Update runs the read-modify-write as a WATCH transaction: if any other
// client (this process or another) writes the key between the read and the
// EXEC, the transaction fails and the whole cycle is retried against the
// fresh value. This is what keeps the API's sends and the worker's
// reconciliations from overwriting each other.
func (r *Redis) Update(ctx context.Context, key string, fn func(current json.RawMessage) (json.RawMessage, error)) error {
	k := redisKeyPrefix + key

	txn := func(tx *redis.Tx) error {
		var current json.RawMessage
		val, err := tx.Get(ctx, k).Result()
		switch {
		case err == nil:
			current = json.RawMessage(val)
		case errors.Is(err, redis.Nil):
			// first write for this key
		default:
			return err
		}

		next, err := fn(current)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, []byte(next), 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxUpdateAttempts; i++ {
		err := r.client.Watch(ctx, txn, k)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return fmt.Errorf("redis update %s: %w", key, err)
	}
	return fmt.Errorf("redis update %s: contention not resolved after %d attempts", key, maxUpdateAttempts)
}
