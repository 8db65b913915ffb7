package sweep

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dnlvgl/sweep/internal/port"
)

type fakeKiller struct {
	killed []int
	err    error
}

func (f *fakeKiller) Kill(_ context.Context, l port.Listener) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.killed = append(f.killed, l.PID)
	return fmt.Sprintf("kill -SIGKILL %d", l.PID), nil
}

type fakeStopper struct {
	ran bool
	err error
}

func (f *fakeStopper) Describe() string { return "sudo ./regtest.sh stop" }

func (f *fakeStopper) Run(context.Context) error {
	f.ran = true
	return f.err
}

func staticDetector(listeners []port.Listener, err error) Detector {
	return DetectorFunc(func(port.Query) ([]port.Listener, error) {
		return listeners, err
	})
}

func newRunner(d Detector, k Killer, s Stopper) (*Runner, *bytes.Buffer) {
	var out bytes.Buffer
	return &Runner{
		Query:    port.Query{Port: 9801},
		Detector: d,
		Killer:   k,
		Stopper:  s,
		Out:      &out,
	}, &out
}

func TestRunNoListenerStillStops(t *testing.T) {
	killer := &fakeKiller{}
	stopper := &fakeStopper{}
	r, out := newRunner(staticDetector(nil, nil), killer, stopper)

	err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, killer.killed, "nothing to kill on a free port")
	assert.True(t, stopper.ran, "stop script still runs for a free port")
	assert.Contains(t, out.String(), "no process on port 9801")
}

func TestRunKillsListenerThenStops(t *testing.T) {
	killer := &fakeKiller{}
	stopper := &fakeStopper{}
	r, _ := newRunner(staticDetector([]port.Listener{
		{PID: 1234, Port: 9801, Protocol: "tcp"},
	}, nil), killer, stopper)

	err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int{1234}, killer.killed)
	assert.True(t, stopper.ran)
}

func TestRunDeduplicatesPIDs(t *testing.T) {
	killer := &fakeKiller{}
	stopper := &fakeStopper{}
	// same PID on tcp and tcp6
	r, _ := newRunner(staticDetector([]port.Listener{
		{PID: 1234, Port: 9801, Protocol: "tcp"},
		{PID: 1234, Port: 9801, Protocol: "tcp6"},
		{PID: 5678, Port: 9801, Protocol: "tcp"},
	}, nil), killer, stopper)

	err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{1234, 5678}, killer.killed)
}

func TestRunExtractionFailureSkipsStop(t *testing.T) {
	killer := &fakeKiller{}
	stopper := &fakeStopper{}
	detectErr := fmt.Errorf("listener on port 9801: %w", port.ErrNoPID)
	r, _ := newRunner(staticDetector(nil, detectErr), killer, stopper)

	err := r.Run(context.Background())
	require.Error(t, err)
	require.ErrorIs(t, err, port.ErrNoPID)

	assert.Empty(t, killer.killed)
	assert.False(t, stopper.ran, "stop script must not run after an extraction failure")
}

func TestRunKillFailureSkipsStop(t *testing.T) {
	killer := &fakeKiller{err: errors.New("operation not permitted")}
	stopper := &fakeStopper{}
	r, _ := newRunner(staticDetector([]port.Listener{
		{PID: 1234, Port: 9801, Protocol: "tcp"},
	}, nil), killer, stopper)

	err := r.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "killing PID 1234")
	assert.False(t, stopper.ran, "stop script must not run after a failed kill")
}

func TestRunStopFailurePropagates(t *testing.T) {
	killer := &fakeKiller{}
	stopper := &fakeStopper{err: errors.New("exit status 1")}
	r, _ := newRunner(staticDetector(nil, nil), killer, stopper)

	err := r.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stop script")
}

func TestRunSkipStop(t *testing.T) {
	killer := &fakeKiller{}
	stopper := &fakeStopper{}
	r, _ := newRunner(staticDetector([]port.Listener{
		{PID: 1234, Port: 9801, Protocol: "tcp"},
	}, nil), killer, stopper)
	r.SkipStop = true

	err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{1234}, killer.killed)
	assert.False(t, stopper.ran)
}

func TestRunDryRunChangesNothing(t *testing.T) {
	killer := &fakeKiller{}
	stopper := &fakeStopper{}
	r, out := newRunner(staticDetector([]port.Listener{
		{PID: 1234, Port: 9801, Protocol: "tcp"},
	}, nil), killer, stopper)
	r.DryRun = true

	err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, killer.killed)
	assert.False(t, stopper.ran)
	assert.Contains(t, out.String(), "[dry-run] would kill PID 1234")
	assert.Contains(t, out.String(), "[dry-run] would run sudo ./regtest.sh stop")
}
