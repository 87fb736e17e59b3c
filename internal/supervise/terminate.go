package supervise

import (
	"os/exec"
	"syscall"
	"time"

	"github.com/pgembed/pgembed/internal/command"
)

// termGracePeriod is the maximum time to wait for a process to exit after
// SIGTERM before escalating to SIGKILL.
const termGracePeriod = 5 * time.Second

// killDrainTimeout is the hard upper bound for waiting on the result channel
// after SIGKILL has been sent (or after the process has already exited).
// SIGKILL cannot be caught, so the process should exit almost immediately;
// this timeout is a safety net against a cmd.Wait that never returns.
const killDrainTimeout = 10 * time.Second

// terminate shuts down a child that outlived its timeout or context:
// SIGTERM first, SIGKILL after the grace period, then a bounded wait for the
// existing cmd.Wait goroutine to deliver on resCh. The channel must receive
// the outcome of exactly one cmd.Wait call; terminate never calls Wait itself.
func (s *Supervisor) terminate(cmd *exec.Cmd, resCh <-chan result, kind command.Kind) {
	if cmd.Process == nil {
		return
	}
	pid := cmd.Process.Pid

	if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
		// Process already exited between the timeout firing and the signal;
		// collect the pending wait result with a bounded drain.
		s.awaitExit(resCh, kind, pid)
		return
	}

	grace := time.NewTimer(termGracePeriod)
	defer grace.Stop()

	select {
	case <-resCh:
		return
	case <-grace.C:
	}

	// Kill on an already-finished process returns a harmless
	// "process already finished" error.
	_ = cmd.Process.Kill()
	s.awaitExit(resCh, kind, pid)
}

// awaitExit drains resCh with killDrainTimeout as a hard upper bound,
// logging a warning if the process could not be reaped in time.
func (s *Supervisor) awaitExit(resCh <-chan result, kind command.Kind, pid int) {
	t := time.NewTimer(killDrainTimeout)
	defer t.Stop()

	select {
	case <-resCh:
	case <-t.C:
		s.log.Warn("terminated process did not exit; it may be orphaned",
			"process", kind.String(), "pid", pid)
	}
}
