package slots

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"folio/pkg/domain"
	"folio/pkg/platform/sentinel"
)

const (
	redisKeyPrefix   = "folio:slot:"
	maxUpsertRetries = 8
)

// Redis stores each slot under its own key. Creation relies on SETNX and
// overwrites use optimistic WATCH transactions.
type Redis struct {
	client redis.UniversalClient
}

func NewRedis(client redis.UniversalClient) *Redis {
	return &Redis{client: client}
}

func redisKey(addr domain.Address) string {
	return redisKeyPrefix + addr.String()
}

func (r *Redis) CreateIfAbsent(ctx context.Context, addr domain.Address, data []byte) error {
	ok, err := r.client.SetNX(ctx, redisKey(addr), data, 0).Result()
	if err != nil {
		return fmt.Errorf("redis setnx: %w", err)
	}
	if !ok {
		return sentinel.ErrAlreadyUsed
	}
	return nil
}

func (r *Redis) Upsert(ctx context.Context, addr domain.Address, data []byte, guard func(prev []byte) error) (bool, error) {
	key := redisKey(addr)
	for range maxUpsertRetries {
		var created bool
		err := r.client.Watch(ctx, func(tx *redis.Tx) error {
			prev, err := tx.Get(ctx, key).Bytes()
			switch {
			case errors.Is(err, redis.Nil):
				created = true
			case err != nil:
				return err
			case guard != nil:
				if err := guard(prev); err != nil {
					return err
				}
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, data, 0)
				return nil
			})
			return err
		}, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return false, err
		}
		return created, nil
	}
	return false, fmt.Errorf("slot %s kept changing: %w", addr, sentinel.ErrConflict)
}

func (r *Redis) Get(ctx context.Context, addr domain.Address) ([]byte, error) {
	data, err := r.client.Get(ctx, redisKey(addr)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return data, nil
}

// GetMany pipelines one GET per slot. Slot keys hash to different cluster
// slots, which a single MGET cannot span.
func (r *Redis) GetMany(ctx context.Context, addrs []domain.Address) (map[domain.Address][]byte, error) {
	out := make(map[domain.Address][]byte, len(addrs))
	if len(addrs) == 0 {
		return out, nil
	}
	cmds := make([]*redis.StringCmd, len(addrs))
	_, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, addr := range addrs {
			cmds[i] = pipe.Get(ctx, redisKey(addr))
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis pipelined get: %w", err)
	}
	for i, cmd := range cmds {
		data, err := cmd.Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("redis get: %w", err)
		}
		out[addrs[i]] = data
	}
	return out, nil
}
