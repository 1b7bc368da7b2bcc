package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLimiterAllowsFirstCall(t *testing.T) {
	limiter := NewLimiter()
	require.True(t, limiter.Allow("capas:1", time.Minute))
}

func TestLimiterBlocksWithinInterval(t *testing.T) {
	limiter := NewLimiter()
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	require.True(t, limiter.Allow("capas:1", 10*time.Minute))

	now = now.Add(5 * time.Minute)
	require.False(t, limiter.Allow("capas:1", 10*time.Minute))
	require.Equal(t, 5*time.Minute, limiter.Remaining("capas:1", 10*time.Minute))

	now = now.Add(5 * time.Minute)
	require.True(t, limiter.Allow("capas:1", 10*time.Minute))
}

func TestLimiterKeysAreIndependent(t *testing.T) {
	limiter := NewLimiter()

	require.True(t, limiter.Allow("capas:1", time.Hour))
	require.True(t, limiter.Allow("capas:2", time.Hour))
	require.True(t, limiter.Allow("calendario:1", time.Hour))
	require.False(t, limiter.Allow("capas:1", time.Hour))
}

func TestLimiterZeroIntervalAlwaysAllows(t *testing.T) {
	limiter := NewLimiter()
	require.True(t, limiter.Allow("ajuda:1", 0))
	require.True(t, limiter.Allow("ajuda:1", 0))
}

func TestLimiterReset(t *testing.T) {
	limiter := NewLimiter()
	require.True(t, limiter.Allow("capas:1", time.Hour))
	limiter.Reset("capas:1")
	require.True(t, limiter.Allow("capas:1", time.Hour))
}

func TestFormatRemaining(t *testing.T) {
	require.Equal(t, "2h", formatRemaining(2*time.Hour+30*time.Minute))
	require.Equal(t, "45m", formatRemaining(45*time.Minute+10*time.Second))
	require.Equal(t, "30s", formatRemaining(30*time.Second))
	require.Equal(t, "0s", formatRemaining(0))
}
