package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestTrigger(t *testing.T, job Job, clock *time.Time) *DailyTrigger {
	t.Helper()
	d := NewDailyTrigger("reconcile", DailyTriggerConfig{Hour: 3, Minute: 0, CheckInterval: time.Hour}, job, zaptest.NewLogger(t))
	d.now = func() time.Time { return *clock }
	return d
}

func TestDailyTrigger_CheckAndTrigger(t *testing.T) {
	ctx := context.Background()
	var runs atomic.Int32
	clock := time.Date(2026, 3, 1, 2, 59, 0, 0, time.UTC)
	d := newTestTrigger(t, func(context.Context) error {
		runs.Add(1)
		return nil
	}, &clock)

	assert.False(t, d.checkAndTrigger(ctx), "before the scheduled minute")

	clock = clock.Add(time.Minute)
	assert.True(t, d.checkAndTrigger(ctx))
	assert.False(t, d.checkAndTrigger(ctx), "same date runs once")
	assert.Equal(t, int32(1), runs.Load())

	clock = clock.Add(24 * time.Hour)
	assert.True(t, d.checkAndTrigger(ctx))
	assert.Equal(t, int32(2), runs.Load())

	last := d.LastRun()
	assert.NoError(t, last.Err)
	assert.Equal(t, clock, last.StartedAt)
}

func TestDailyTrigger_RunNow(t *testing.T) {
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	boom := errors.New("ledger unavailable")

	d := newTestTrigger(t, func(context.Context) error { return boom }, &clock)
	err := d.RunNow(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, d.LastRun().Err, boom)
}

func TestDailyTrigger_RunNowWhileActive(t *testing.T) {
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	started := make(chan struct{})
	release := make(chan struct{})

	d := newTestTrigger(t, func(context.Context) error {
		close(started)
		<-release
		return nil
	}, &clock)

	done := make(chan error, 1)
	go func() { done <- d.RunNow(context.Background()) }()
	<-started

	assert.ErrorIs(t, d.RunNow(context.Background()), ErrJobRunning)
	close(release)
	require.NoError(t, <-done)
}

func TestDailyTrigger_StartStop(t *testing.T) {
	clock := time.Now()
	d := newTestTrigger(t, func(context.Context) error { return nil }, &clock)

	require.NoError(t, d.Start(context.Background()))
	require.NoError(t, d.Start(context.Background()), "second start is a no-op")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Stop(ctx))
	require.NoError(t, d.Stop(ctx), "second stop is a no-op")
}
