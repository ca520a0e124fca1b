package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func TestRedisThrottle(t *testing.T) {
	s := miniredis.RunT(t)
	throttle, err := NewRedisThrottle("redis://"+s.Addr(), 2, time.Minute)
	require.NoError(t, err)
	defer throttle.Close()
	ctx := context.Background()

	require.True(t, throttle.Allow(ctx, "10.0.0.1"))
	require.True(t, throttle.Allow(ctx, "10.0.0.1"))
	require.False(t, throttle.Allow(ctx, "10.0.0.1"))
	require.True(t, throttle.Allow(ctx, "10.0.0.2"))

	s.FastForward(2 * time.Minute)
	require.True(t, throttle.Allow(ctx, "10.0.0.1"))
}

func TestRedisThrottleKeyAlwaysExpires(t *testing.T) {
	s := miniredis.RunT(t)
	throttle, err := NewRedisThrottle("redis://"+s.Addr(), 3, time.Minute)
	require.NoError(t, err)
	defer throttle.Close()
	ctx := context.Background()

	require.True(t, throttle.Allow(ctx, "10.0.0.1"))
	require.Equal(t, time.Minute, s.TTL("comments:10.0.0.1"))

	// Later hits count inside the same window.
	s.FastForward(30 * time.Second)
	require.True(t, throttle.Allow(ctx, "10.0.0.1"))
	require.Equal(t, 30*time.Second, s.TTL("comments:10.0.0.1"))

	got, err := s.Get("comments:10.0.0.1")
	require.NoError(t, err)
	require.Equal(t, "2", got)
}

func TestRedisThrottleFailsOpen(t *testing.T) {
	s := miniredis.RunT(t)
	throttle, err := NewRedisThrottle("redis://"+s.Addr(), 1, time.Minute)
	require.NoError(t, err)
	defer throttle.Close()

	s.Close()
	require.True(t, throttle.Allow(context.Background(), "10.0.0.1"))
	require.True(t, throttle.Allow(context.Background(), "10.0.0.1"))
}

func TestNewRedisThrottleBadURL(t *testing.T) {
	_, err := NewRedisThrottle("not a url", 1, time.Minute)
	require.Error(t, err)
}

func TestNoThrottle(t *testing.T) {
	require.True(t, NoThrottle{}.Allow(context.Background(), "x"))
}
