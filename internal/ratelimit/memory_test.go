package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMemoryStore_AttemptsPrunesOldEntries(t *testing.T) {
	clock := clockwork.NewFakeClockAt(testEpoch)
	s := NewMemoryStore(clock, time.Hour)
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, "k", testEpoch, time.Minute))
	require.NoError(t, s.Record(ctx, "k", testEpoch.Add(30*time.Second), time.Minute))

	got, err := s.Attempts(ctx, "k", testEpoch)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{testEpoch.Add(30 * time.Second)}, got)
}

func TestMemoryStore_AttemptsReturnsCopy(t *testing.T) {
	s := NewMemoryStore(clockwork.NewFakeClockAt(testEpoch), time.Hour)
	defer s.Close()
	ctx := context.Background()

	_ = s.Record(ctx, "k", testEpoch, time.Minute)
	got, _ := s.Attempts(ctx, "k", testEpoch.Add(-time.Second))
	got[0] = time.Time{}

	again, _ := s.Attempts(ctx, "k", testEpoch.Add(-time.Second))
	assert.Equal(t, testEpoch, again[0])
}

func TestMemoryStore_SweepDropsExpiredKeys(t *testing.T) {
	clock := clockwork.NewFakeClockAt(testEpoch)
	s := NewMemoryStore(clock, time.Hour)
	defer s.Close()
	ctx := context.Background()

	_ = s.Record(ctx, "short", testEpoch, time.Minute)
	_ = s.Record(ctx, "long", testEpoch, 10*time.Minute)
	require.Equal(t, 2, s.Len())

	clock.Advance(2 * time.Minute)
	s.sweep()
	assert.Equal(t, 1, s.Len())

	clock.Advance(10 * time.Minute)
	s.sweep()
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStore_CloseStopsJanitor(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := NewMemoryStore(clockwork.NewRealClock(), time.Millisecond)
	s.Close()
	s.Close()
}
