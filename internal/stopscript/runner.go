// Package stopscript invokes the harness's externally maintained stop
// routine and propagates its exit status. The script itself is an
// opaque collaborator; its exit code is the only contract surface.
package stopscript

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Runner runs the stop script, optionally under sudo.
type Runner struct {
	Command string        // path to the stop script, e.g. "./regtest.sh"
	Args    []string      // arguments, e.g. ["stop"]
	Sudo    bool          // run via sudo
	Timeout time.Duration // 0 means no limit

	// Stdout/Stderr receive the script's output. Defaults to the
	// process's own streams.
	Stdout io.Writer
	Stderr io.Writer
}

// ExitError reports a stop script that ran but returned non-zero.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("stop script exited with status %d", e.Code)
}

// Describe returns the command line that Run would execute.
func (r *Runner) Describe() string {
	parts := make([]string, 0, len(r.Args)+2)
	if r.Sudo {
		parts = append(parts, "sudo")
	}
	parts = append(parts, r.Command)
	parts = append(parts, r.Args...)
	return strings.Join(parts, " ")
}

// Run executes the stop script and returns an error carrying the exit
// status when it fails. The script's output goes straight through.
func (r *Runner) Run(ctx context.Context) error {
	if r.Command == "" {
		return errors.New("no stop command configured")
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	name := r.Command
	args := r.Args
	if r.Sudo {
		name = "sudo"
		args = append([]string{r.Command}, r.Args...)
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	cmd.Stdin = os.Stdin // sudo may prompt for a password

	err := cmd.Run()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Code: exitErr.ExitCode()}
	}
	return fmt.Errorf("running %s: %w", r.Describe(), err)
}
