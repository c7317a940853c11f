package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pronet/recovery-portal/internal/domain"
)

const handoffKeyPrefix = "recovery:handoff:"

// ErrHandoffNotFound is returned when no hand-off is pending for the session.
var ErrHandoffNotFound = errors.New("reset hand-off not found")

// HandoffRepository carries the accepted email and code to the reset-password stage.
// A hand-off is consumed by the first Take.
type HandoffRepository interface {
	Save(ctx context.Context, sessionID string, handoff domain.Handoff) error
	Take(ctx context.Context, sessionID string) (*domain.Handoff, error)
}

type handoffRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewHandoffRepository constructs repository.
func NewHandoffRepository(client *redis.Client, ttl time.Duration) HandoffRepository {
	return &handoffRepository{client: client, ttl: ttl}
}

func (r *handoffRepository) Save(ctx context.Context, sessionID string, handoff domain.Handoff) error {
	raw, err := json.Marshal(handoff)
	if err != nil {
		return fmt.Errorf("encode hand-off: %w", err)
	}
	return r.client.Set(ctx, handoffKeyPrefix+sessionID, raw, r.ttl).Err()
}

func (r *handoffRepository) Take(ctx context.Context, sessionID string) (*domain.Handoff, error) {
	raw, err := r.client.GetDel(ctx, handoffKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrHandoffNotFound
	}
	if err != nil {
		return nil, err
	}
	var handoff domain.Handoff
	if err := json.Unmarshal(raw, &handoff); err != nil {
		return nil, fmt.Errorf("decode hand-off: %w", err)
	}
	return &handoff, nil
}
