package chrono

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStandardSleepCanceled(t *testing.T) {
	impl, err := NewStandardImpl("")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = impl.Sleep(ctx, time.Hour)
	require.ErrorIs(t, err, context.Canceled)
}

func TestStandardNowUsesLocation(t *testing.T) {
	impl, err := NewStandardImpl("UTC")
	require.NoError(t, err)
	require.Equal(t, time.UTC, impl.Now().Location())
}

func TestFake(t *testing.T) {
	start := time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)
	fake := NewFake(start)

	require.NoError(t, fake.Sleep(context.Background(), 500*time.Millisecond))
	require.NoError(t, fake.Sleep(context.Background(), time.Second))
	require.Equal(t, start.Add(1500*time.Millisecond), fake.Now())
	require.Equal(t, []time.Duration{500 * time.Millisecond, time.Second}, fake.Slept())
}
