package app

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"activity-kiosk/internal/infra/cache"
	"activity-kiosk/internal/usecase/slides"
)

type countingRefresher struct{ calls atomic.Int32 }

func (r *countingRefresher) Refresh(context.Context) slides.Result {
	r.calls.Add(1)
	return slides.Result{}
}

func TestWarmerTickWithoutLocker(t *testing.T) {
	r := &countingRefresher{}
	w := NewWarmer(r, nil, time.Minute, zerolog.Nop())

	require.True(t, w.Tick(t.Context()))
	require.True(t, w.Tick(t.Context()))
	require.EqualValues(t, 2, r.calls.Load())
}

func TestWarmersShareRedisLock(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := cache.NewRedis(client, "kiosk:")

	r := &countingRefresher{}
	first := NewWarmer(r, store, time.Minute, zerolog.Nop())
	second := NewWarmer(r, store, time.Minute, zerolog.Nop())

	require.True(t, first.Tick(t.Context()))
	require.False(t, second.Tick(t.Context()))
	require.EqualValues(t, 1, r.calls.Load())

	mr.FastForward(31 * time.Second)
	require.True(t, second.Tick(t.Context()))
	require.EqualValues(t, 2, r.calls.Load())
}

func TestWarmerRunStopsOnCancel(t *testing.T) {
	r := &countingRefresher{}
	w := NewWarmer(r, nil, 10*time.Millisecond, zerolog.Nop())
	ctx, cancel := context.WithCancel(t.Context())

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	require.Eventually(t, func() bool { return r.calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}
