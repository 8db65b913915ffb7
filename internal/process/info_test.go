package process

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlive(t *testing.T) {
	assert.True(t, Alive(os.Getpid()), "own process is alive")
	// PID near the max is effectively guaranteed to be unused
	assert.False(t, Alive(1<<22-1))
}

func TestWaitExitGoneProcess(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.True(t, WaitExit(ctx, 1<<22-1))
}

func TestWaitExitTimesOut(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	assert.False(t, WaitExit(ctx, os.Getpid()), "own process does not exit")
}

func TestUptime(t *testing.T) {
	var zero Info
	assert.Zero(t, zero.Uptime())

	started := Info{StartTime: time.Now().Add(-time.Hour)}
	assert.InDelta(t, time.Hour, started.Uptime(), float64(time.Minute))
}

func TestGatherSelf(t *testing.T) {
	info, err := Gather(os.Getpid())
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), info.PID)
	assert.NotEmpty(t, info.Command)
	assert.Equal(t, os.Getuid(), info.UID)
}

func TestGatherMissing(t *testing.T) {
	_, err := Gather(1 << 22)
	require.Error(t, err)
}
