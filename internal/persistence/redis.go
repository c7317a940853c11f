package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pronet/recovery-portal/internal/config"
)

const (
	probeTimeout = 2 * time.Second
	ioTimeout    = time.Second
)

var errRedisNotConfigured = errors.New("redis client not configured")

// Redis is the connection shared by the flash and hand-off stores.
type Redis struct {
	Client *redis.Client
	addr   string
}

// OpenRedis builds the client and probes it once. An unreachable server is
// logged, not fatal: readiness reports it and the stores fail per call.
func OpenRedis(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) *Redis {
	r := &Redis{
		Client: redis.NewClient(&redis.Options{
			Addr:         cfg.Addr,
			Password:     cfg.Password,
			DB:           cfg.DB,
			DialTimeout:  probeTimeout,
			ReadTimeout:  ioTimeout,
			WriteTimeout: ioTimeout,
		}),
		addr: cfg.Addr,
	}
	if err := r.Ping(ctx); err != nil {
		logger.Warn("redis unavailable at startup", zap.Error(err))
	} else {
		logger.Info("redis ready", zap.String("addr", cfg.Addr))
	}
	return r
}

// Ping probes the server, bounded by probeTimeout.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errRedisNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	if err := r.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis %s: %w", r.addr, err)
	}
	return nil
}

// Close releases the pool. Closing twice is not an error.
func (r *Redis) Close() error {
	if r == nil || r.Client == nil {
		return nil
	}
	if err := r.Client.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
		return err
	}
	return nil
}
