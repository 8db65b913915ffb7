package ui

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dnlvgl/sweep/internal/port"
	"github.com/dnlvgl/sweep/internal/process"
	"github.com/dnlvgl/sweep/internal/sweep"
)

type nopKiller struct{}

func (nopKiller) Kill(context.Context, port.Listener) (string, error) { return "", nil }

type nopStopper struct{}

func (nopStopper) Describe() string         { return "sudo ./regtest.sh stop" }
func (nopStopper) Run(context.Context) error { return nil }

func newTestModel(skipStop bool) Model {
	detector := sweep.DetectorFunc(func(port.Query) ([]port.Listener, error) { return nil, nil })
	return New(port.Query{Port: 9801}, detector, nopKiller{}, nopStopper{}, skipStop, false)
}

func TestFreePortWithSkipStopEndsRun(t *testing.T) {
	m := newTestModel(true)

	updated, _ := m.Update(loadedMsg{})
	got, ok := updated.(Model)
	require.True(t, ok)

	assert.Equal(t, stateResult, got.state, "nothing to kill and no stop step leaves nothing to confirm")
	assert.Contains(t, got.message, "nothing to do")
	assert.False(t, got.Failed())
}

func TestFreePortStillOffersStop(t *testing.T) {
	m := newTestModel(false)

	updated, _ := m.Update(loadedMsg{})
	got, ok := updated.(Model)
	require.True(t, ok)

	assert.Equal(t, stateConfirm, got.state)
	assert.Contains(t, got.buildConfirmPrompt(), "port 9801 is free")
}

func TestListenersGoToList(t *testing.T) {
	m := newTestModel(false)

	updated, _ := m.Update(loadedMsg{items: []listenerItem{
		{
			listener: port.Listener{PID: 1234, Port: 9801, Protocol: "tcp"},
			context:  process.Context{Info: process.Info{PID: 1234}},
		},
	}})
	got, ok := updated.(Model)
	require.True(t, ok)

	assert.Equal(t, stateList, got.state)
}

func TestLoadErrorFailsRun(t *testing.T) {
	m := newTestModel(false)

	updated, _ := m.Update(loadedMsg{err: assert.AnError})
	got, ok := updated.(Model)
	require.True(t, ok)

	assert.Equal(t, stateResult, got.state)
	assert.True(t, got.Failed())
}
