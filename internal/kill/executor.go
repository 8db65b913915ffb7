package kill

import (
	"context"
	"fmt"
	"syscall"
	"time"

	"github.com/dnlvgl/sweep/internal/container"
	"github.com/dnlvgl/sweep/internal/process"
	"github.com/dnlvgl/sweep/internal/systemd"
)

// DefaultGracePeriod is how long a graceful kill waits for the process
// to exit before escalating to SIGKILL.
const DefaultGracePeriod = 5 * time.Second

// Strategy describes how to stop a process.
type Strategy int

const (
	StrategySignal    Strategy = iota // SIGKILL, or SIGTERM-then-SIGKILL when graceful
	StrategyContainer                 // podman/docker stop or kill
	StrategySystemd                   // systemctl stop
)

func (s Strategy) String() string {
	switch s {
	case StrategySignal:
		return "signal"
	case StrategyContainer:
		return "container"
	case StrategySystemd:
		return "systemd"
	default:
		return "unknown"
	}
}

// Action describes a kill action to take.
type Action struct {
	Strategy Strategy
	Context  process.Context
	// Graceful asks for SIGTERM with escalation instead of immediate
	// SIGKILL. Containers and systemd units are stopped gracefully by
	// their own tooling regardless.
	Graceful    bool
	GracePeriod time.Duration
}

// RecommendedStrategy picks the best strategy for a given process context.
func RecommendedStrategy(ctx process.Context) Strategy {
	if ctx.IsContainerized() {
		return StrategyContainer
	}
	if ctx.IsSystemdManaged() {
		return StrategySystemd
	}
	return StrategySignal
}

// Execute performs the kill action and waits until the process is gone.
func Execute(ctx context.Context, action Action) error {
	switch action.Strategy {
	case StrategyContainer:
		return executeContainer(action)
	case StrategySystemd:
		return systemd.Stop(action.Context.SystemdUnit)
	case StrategySignal:
		return executeSignal(ctx, action)
	default:
		return fmt.Errorf("unknown strategy: %v", action.Strategy)
	}
}

// Describe returns a human-readable description of what the action will do.
func Describe(action Action) string {
	switch action.Strategy {
	case StrategyContainer:
		verb := "kill"
		if action.Graceful {
			verb = "stop"
		}
		c := action.Context.Container
		name := c.Name
		if name == "" {
			name = container.ShortID(c.ID)
		}
		return fmt.Sprintf("%s %s %s", c.Runtime, verb, name)
	case StrategySystemd:
		return fmt.Sprintf("systemctl stop %s", action.Context.SystemdUnit)
	case StrategySignal:
		sig := "SIGKILL"
		if action.Graceful {
			sig = "SIGTERM"
		}
		return fmt.Sprintf("kill -%s %d", sig, action.Context.Info.PID)
	default:
		return "unknown action"
	}
}

func executeContainer(action Action) error {
	c := action.Context.Container
	if action.Graceful {
		return container.Stop(c.ID, c.Runtime)
	}
	return container.Kill(c.ID, c.Runtime)
}

func executeSignal(ctx context.Context, action Action) error {
	info := action.Context.Info

	if !action.Graceful {
		return info.Signal(syscall.SIGKILL)
	}

	if err := info.Signal(syscall.SIGTERM); err != nil {
		return err
	}

	period := action.GracePeriod
	if period <= 0 {
		period = DefaultGracePeriod
	}
	waitCtx, cancel := context.WithTimeout(ctx, period)
	defer cancel()
	if process.WaitExit(waitCtx, info.PID) {
		return nil
	}

	// Still alive after the grace period
	if err := info.Signal(syscall.SIGKILL); err != nil {
		return fmt.Errorf("escalating to SIGKILL: %w", err)
	}
	return nil
}
