package stopscript

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "regtest.sh")
	script := "#!/bin/sh\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestRunSuccess(t *testing.T) {
	var out bytes.Buffer
	r := &Runner{
		Command: writeScript(t, `echo "stopping $1"`),
		Args:    []string{"stop"},
		Stdout:  &out,
		Stderr:  &out,
	}

	err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, out.String(), "stopping stop")
}

func TestRunNonZeroExit(t *testing.T) {
	r := &Runner{
		Command: writeScript(t, "exit 3"),
		Args:    []string{"stop"},
		Stdout:  new(bytes.Buffer),
		Stderr:  new(bytes.Buffer),
	}

	err := r.Run(context.Background())
	require.Error(t, err)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 3, exitErr.Code)
}

func TestRunMissingScript(t *testing.T) {
	r := &Runner{
		Command: filepath.Join(t.TempDir(), "does-not-exist.sh"),
		Stdout:  new(bytes.Buffer),
		Stderr:  new(bytes.Buffer),
	}

	err := r.Run(context.Background())
	require.Error(t, err)

	var exitErr *ExitError
	assert.False(t, errors.As(err, &exitErr), "a missing script is not an exit status")
}

func TestRunNoCommand(t *testing.T) {
	r := &Runner{}
	require.Error(t, r.Run(context.Background()))
}

func TestDescribe(t *testing.T) {
	plain := &Runner{Command: "./regtest.sh", Args: []string{"stop"}}
	assert.Equal(t, "./regtest.sh stop", plain.Describe())

	sudo := &Runner{Command: "./regtest.sh", Args: []string{"stop"}, Sudo: true}
	assert.Equal(t, "sudo ./regtest.sh stop", sudo.Describe())
}
