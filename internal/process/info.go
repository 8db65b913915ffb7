package process

import (
	"context"
	"os"
	"syscall"
	"time"
)

// Info holds details about a running process.
type Info struct {
	PID        int
	Command    string
	Executable string
	User       string
	UID        int
	ParentPID  int
	Children   []int
	StartTime  time.Time
	MemoryKB   int64
}

// Uptime returns the duration since the process started.
func (i Info) Uptime() time.Duration {
	if i.StartTime.IsZero() {
		return 0
	}
	return time.Since(i.StartTime)
}

// IsPrivileged returns true if signalling this process requires
// elevated privileges.
func (i Info) IsPrivileged() bool {
	return i.UID != os.Getuid() && os.Getuid() != 0
}

// Signal sends a signal to the process.
func (i Info) Signal(sig syscall.Signal) error {
	proc, err := os.FindProcess(i.PID)
	if err != nil {
		return err
	}
	return proc.Signal(sig)
}

// Alive reports whether a process with the given PID exists. Signal 0
// probes existence without delivering anything.
func Alive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

// WaitExit polls until the process is gone or the context expires.
// Returns true if the process exited.
func WaitExit(ctx context.Context, pid int) bool {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if !Alive(pid) {
			return true
		}
		select {
		case <-ctx.Done():
			return !Alive(pid)
		case <-ticker.C:
		}
	}
}
