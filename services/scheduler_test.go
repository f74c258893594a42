package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingStarter struct {
	runs atomic.Int32
	err  error
}

func (c *countingStarter) AutoStartScheduled(context.Context, time.Time) (int, error) {
	c.runs.Add(1)
	return 1, c.err
}

func TestStartScheduler_RunsImmediatelyAndRepeats(t *testing.T) {
	starter := &countingStarter{}
	stop, err := StartScheduler(context.Background(), starter, 50*time.Millisecond, nil)
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return starter.runs.Load() >= 1 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return starter.runs.Load() >= 3 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, stop())
	after := starter.runs.Load()
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, after, starter.runs.Load())
}

func TestStartScheduler_KeepsRunningAfterErrors(t *testing.T) {
	starter := &countingStarter{err: errors.New("database unavailable")}
	stop, err := StartScheduler(context.Background(), starter, 30*time.Millisecond, nil)
	require.NoError(t, err)
	defer stop()

	assert.Eventually(t, func() bool { return starter.runs.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
}
