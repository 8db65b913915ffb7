// Package sweep wires the two-step cleanup together: free the target
// port, then ask the harness to stop. Each step is fatal on failure and
// the stop step never runs after a failed kill.
package sweep

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dnlvgl/sweep/internal/port"
)

// Detector finds listeners on the target port.
type Detector interface {
	Detect(q port.Query) ([]port.Listener, error)
}

// DetectorFunc adapts a function to the Detector interface.
type DetectorFunc func(q port.Query) ([]port.Listener, error)

func (f DetectorFunc) Detect(q port.Query) ([]port.Listener, error) { return f(q) }

// Killer terminates a single listener. It returns a description of the
// action taken for reporting.
type Killer interface {
	Kill(ctx context.Context, l port.Listener) (string, error)
}

// Stopper invokes the external stop routine.
type Stopper interface {
	Describe() string
	Run(ctx context.Context) error
}

// Runner executes the cleanup flow.
type Runner struct {
	Query    port.Query
	Detector Detector
	Killer   Killer
	Stopper  Stopper

	SkipStop bool // kill step only
	DryRun   bool // describe everything, change nothing

	Out io.Writer // human-facing progress; defaults to os.Stderr
}

func (r *Runner) out() io.Writer {
	if r.Out != nil {
		return r.Out
	}
	return os.Stderr
}

// Run performs the kill step followed by the stop step. Any failure
// aborts the run; in particular the stop script is never invoked after
// a failed detection or kill.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.killStep(ctx); err != nil {
		return err
	}
	return r.stopStep(ctx)
}

func (r *Runner) killStep(ctx context.Context) error {
	listeners, err := r.Detector.Detect(r.Query)
	if err != nil {
		return fmt.Errorf("finding process on port %d: %w", r.Query.Port, err)
	}

	if len(listeners) == 0 {
		fmt.Fprintf(r.out(), "no process on port %d\n", r.Query.Port)
		return nil
	}

	// The same PID can show up once per address family; kill it once.
	seen := make(map[int]bool)
	for _, l := range listeners {
		if seen[l.PID] {
			continue
		}
		seen[l.PID] = true

		if r.DryRun {
			fmt.Fprintf(r.out(), "[dry-run] would kill PID %d on port %d\n", l.PID, l.Port)
			continue
		}

		desc, err := r.Killer.Kill(ctx, l)
		if err != nil {
			return fmt.Errorf("killing PID %d on port %d: %w", l.PID, l.Port, err)
		}
		fmt.Fprintf(r.out(), "%s: ok\n", desc)
	}

	return nil
}

func (r *Runner) stopStep(ctx context.Context) error {
	if r.SkipStop {
		return nil
	}

	if r.DryRun {
		fmt.Fprintf(r.out(), "[dry-run] would run %s\n", r.Stopper.Describe())
		return nil
	}

	fmt.Fprintf(r.out(), "running %s\n", r.Stopper.Describe())
	if err := r.Stopper.Run(ctx); err != nil {
		return fmt.Errorf("stop script: %w", err)
	}
	fmt.Fprintf(r.out(), "stop script: ok\n")
	return nil
}
