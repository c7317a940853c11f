package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pronet/recovery-portal/internal/domain"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestFlashRepository_PushDrainInOrder(t *testing.T) {
	mr, client := newRedis(t)
	repo := NewFlashRepository(client, 5*time.Minute)
	ctx := context.Background()

	require.NoError(t, repo.Push(ctx, "s1", domain.Notification{Kind: domain.NotificationError, Message: "first"}))
	require.NoError(t, repo.Push(ctx, "s1", domain.Notification{Kind: domain.NotificationSuccess, Message: "second"}))
	require.NoError(t, repo.Push(ctx, "s2", domain.Notification{Kind: domain.NotificationSuccess, Message: "other"}))

	assert.Equal(t, 5*time.Minute, mr.TTL(flashKeyPrefix+"s1"))

	got, err := repo.Drain(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []domain.Notification{
		{Kind: domain.NotificationError, Message: "first"},
		{Kind: domain.NotificationSuccess, Message: "second"},
	}, got)

	again, err := repo.Drain(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, again)
	assert.False(t, mr.Exists(flashKeyPrefix+"s1"))
	assert.True(t, mr.Exists(flashKeyPrefix+"s2"))
}

func TestFlashRepository_Expiry(t *testing.T) {
	mr, client := newRedis(t)
	repo := NewFlashRepository(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, repo.Push(ctx, "s1", domain.Notification{Kind: domain.NotificationError, Message: "stale"}))
	mr.FastForward(2 * time.Minute)

	got, err := repo.Drain(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFlashRepository_SkipsCorruptEntries(t *testing.T) {
	mr, client := newRedis(t)
	repo := NewFlashRepository(client, 0)
	ctx := context.Background()

	_, err := mr.RPush(flashKeyPrefix+"s1", "not-json")
	require.NoError(t, err)
	require.NoError(t, repo.Push(ctx, "s1", domain.Notification{Kind: domain.NotificationSuccess, Message: "ok"}))

	got, err := repo.Drain(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []domain.Notification{{Kind: domain.NotificationSuccess, Message: "ok"}}, got)
}

func TestHandoffRepository_TakeOnce(t *testing.T) {
	mr, client := newRedis(t)
	repo := NewHandoffRepository(client, 15*time.Minute)
	ctx := context.Background()

	otp := "123456"
	require.NoError(t, repo.Save(ctx, "s1", domain.Handoff{Email: "user@example.com", OTP: &otp}))
	assert.Equal(t, 15*time.Minute, mr.TTL(handoffKeyPrefix+"s1"))

	got, err := repo.Take(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", got.Email)
	require.NotNil(t, got.OTP)
	assert.Equal(t, "123456", *got.OTP)

	_, err = repo.Take(ctx, "s1")
	assert.ErrorIs(t, err, ErrHandoffNotFound)
}

func TestHandoffRepository_WithoutCode(t *testing.T) {
	_, client := newRedis(t)
	repo := NewHandoffRepository(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "s1", domain.Handoff{Email: "user@example.com"}))
	got, err := repo.Take(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, got.OTP)
}

func TestHandoffRepository_Expired(t *testing.T) {
	mr, client := newRedis(t)
	repo := NewHandoffRepository(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "s1", domain.Handoff{Email: "user@example.com"}))
	mr.FastForward(time.Minute + time.Second)

	_, err := repo.Take(ctx, "s1")
	assert.ErrorIs(t, err, ErrHandoffNotFound)
}

func TestHandoffRepository_RedisDown(t *testing.T) {
	mr, client := newRedis(t)
	repo := NewHandoffRepository(client, time.Minute)
	mr.Close()

	_, err := repo.Take(context.Background(), "s1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrHandoffNotFound)
}
