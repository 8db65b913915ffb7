package sweep

import (
	"context"
	"fmt"
	"time"

	"github.com/dnlvgl/sweep/internal/kill"
	"github.com/dnlvgl/sweep/internal/port"
	"github.com/dnlvgl/sweep/internal/process"
)

// ProcessKiller is the default Killer. It gathers process context and
// sends the termination signal, optionally picking a container- or
// systemd-aware strategy instead of a raw signal.
type ProcessKiller struct {
	Graceful    bool
	GracePeriod time.Duration
	// Auto stops containerized and systemd-managed listeners through
	// their own tooling rather than signalling the PID directly.
	Auto bool
}

func (k *ProcessKiller) Kill(ctx context.Context, l port.Listener) (string, error) {
	// The owner can exit between the listing and the kill; a dead
	// process already freed the port.
	if !process.Alive(l.PID) {
		return fmt.Sprintf("PID %d already exited", l.PID), nil
	}

	pctx, err := process.GatherContext(l.PID, l.Port)
	if err != nil {
		pctx = process.Context{Info: process.Info{PID: l.PID, Command: l.Name}}
	}

	strategy := kill.StrategySignal
	if k.Auto {
		strategy = kill.RecommendedStrategy(pctx)
	}

	action := kill.Action{
		Strategy:    strategy,
		Context:     pctx,
		Graceful:    k.Graceful,
		GracePeriod: k.GracePeriod,
	}
	return kill.Describe(action), kill.Execute(ctx, action)
}
