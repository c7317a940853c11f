package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pronet/recovery-portal/internal/domain"
)

const flashKeyPrefix = "recovery:flash:"

// FlashRepository queues transient notifications per session until the next page render.
type FlashRepository interface {
	Push(ctx context.Context, sessionID string, n domain.Notification) error
	Drain(ctx context.Context, sessionID string) ([]domain.Notification, error)
}

type flashRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewFlashRepository constructs repository.
func NewFlashRepository(client *redis.Client, ttl time.Duration) FlashRepository {
	return &flashRepository{client: client, ttl: ttl}
}

func (r *flashRepository) Push(ctx context.Context, sessionID string, n domain.Notification) error {
	raw, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode flash: %w", err)
	}
	key := flashKeyPrefix + sessionID
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, raw)
		if r.ttl > 0 {
			pipe.Expire(ctx, key, r.ttl)
		}
		return nil
	})
	return err
}

func (r *flashRepository) Drain(ctx context.Context, sessionID string) ([]domain.Notification, error) {
	key := flashKeyPrefix + sessionID
	var items *redis.StringSliceCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		items = pipe.LRange(ctx, key, 0, -1)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return nil, err
	}

	raws, err := items.Result()
	if err != nil {
		return nil, err
	}
	out := make([]domain.Notification, 0, len(raws))
	for _, raw := range raws {
		var n domain.Notification
		if err := json.Unmarshal([]byte(raw), &n); err != nil {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}
