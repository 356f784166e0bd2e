package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"activity-kiosk/internal/domain"
)

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedis(client, "kiosk:")
}

func TestRedisStoreRoundTrip(t *testing.T) {
	_, store := newMiniredis(t)
	c := NewSlides(store, "slides", time.Minute, zerolog.Nop())

	require.NoError(t, c.Put(t.Context(), sampleSlides()))
	got, _, ok := c.Get(t.Context())
	require.True(t, ok)
	require.Equal(t, sampleSlides(), got)
}

func TestRedisStoreMissAfterKeyExpiry(t *testing.T) {
	mr, store := newMiniredis(t)
	c := NewSlides(store, "slides", time.Minute, zerolog.Nop())
	require.NoError(t, c.Put(t.Context(), sampleSlides()))

	mr.FastForward(61 * time.Second)

	_, _, ok := c.Get(t.Context())
	require.False(t, ok)
}

func TestRedisStoreReadMissing(t *testing.T) {
	_, store := newMiniredis(t)
	_, _, err := store.Read(t.Context(), "absent")
	require.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestRedisOnceRunsSingleHolder(t *testing.T) {
	_, store := newMiniredis(t)
	calls := 0
	fn := func() error { calls++; return nil }

	ran, err := store.Once(t.Context(), "warm-lock", time.Minute, fn)
	require.NoError(t, err)
	require.True(t, ran)

	ran, err = store.Once(t.Context(), "warm-lock", time.Minute, fn)
	require.NoError(t, err)
	require.False(t, ran)
	require.Equal(t, 1, calls)
}

func TestRedisOnceReleasesLockOnError(t *testing.T) {
	_, store := newMiniredis(t)
	boom := errors.New("boom")

	ran, err := store.Once(t.Context(), "warm-lock", time.Minute, func() error { return boom })
	require.True(t, ran)
	require.ErrorIs(t, err, boom)

	ran, err = store.Once(t.Context(), "warm-lock", time.Minute, func() error { return nil })
	require.NoError(t, err)
	require.True(t, ran)
}
