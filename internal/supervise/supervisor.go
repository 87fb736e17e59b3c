package supervise

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pgembed/pgembed/internal/command"
	"github.com/pgembed/pgembed/internal/sentinel"
)

// ErrSpawn is returned when the external command cannot be started at all
// (executable missing, permission denied).
const ErrSpawn = sentinel.Error("spawning process failed")

// ErrExitFailure is returned when the command exits with a non-success code
// within the timeout.
const ErrExitFailure = sentinel.Error("process exited with failure")

// ErrTimeout is returned when the command does not exit before the timeout
// elapses. The child is terminated before Run returns.
const ErrTimeout = sentinel.Error("process timed out")

// ErrReadFile is returned when draining a captured output stream fails.
// Reading of the affected stream is aborted; the process outcome itself
// still takes precedence if it is a failure.
const ErrReadFile = sentinel.Error("reading process output failed")

// Supervisor runs external server commands to completion. It is stateless
// apart from its logger and safe for concurrent use: every Run supervises an
// independent process.
type Supervisor struct {
	log *slog.Logger
}

// New creates a Supervisor. If logger is nil, slog.Default() is used.
func New(logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{log: logger}
}

// result carries the two independent outcomes of a supervised run: the
// process exit error from cmd.Wait and any stream-drain error.
type result struct {
	wait  error
	drain error
}

// Run spawns the command described by spec and waits for it to exit within
// timeout. Captured streams are drained concurrently with the exit wait so
// the child can never deadlock filling a pipe buffer.
//
// Outcomes: nil on a zero exit code; ErrExitFailure (with kind label and
// exit code) on a non-zero exit; ErrTimeout (with kind label) when the
// timeout elapses first, in which case the child is terminated; ErrSpawn
// when the process cannot be started. Context cancellation also terminates
// the child and surfaces the context error.
func (s *Supervisor) Run(ctx context.Context, spec command.Spec, timeout time.Duration) error {
	if timeout <= 0 {
		return fmt.Errorf("%s command: timeout must be positive, got %v", spec.Kind, timeout)
	}

	cmd := exec.Command(spec.Path, spec.Args...)
	configureSysProcAttr(cmd)

	// Stdout is captured only when the spec asks for it. pg_ctl start does
	// not terminate with a piped stdout; its spec leaves stdout unpiped and
	// the command's own wait flag covers readiness.
	var stdout io.ReadCloser
	if spec.PipeStdout {
		pipe, err := cmd.StdoutPipe()
		if err != nil {
			return fmt.Errorf("%w: %s stdout pipe: %w", ErrSpawn, spec.Kind, err)
		}
		stdout = pipe
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("%w: %s stderr pipe: %w", ErrSpawn, spec.Kind, err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %s command: %w", ErrSpawn, spec.Kind, err)
	}
	s.log.Debug("process started", "process", spec.Kind.String(), "pid", cmd.Process.Pid, "path", spec.Path)

	// Drain the captured streams concurrently. The drains must complete
	// before cmd.Wait, which closes the pipes; the single goroutine below
	// sequences g.Wait -> cmd.Wait and is the only caller of cmd.Wait.
	g := new(errgroup.Group)
	if stdout != nil {
		g.Go(func() error { return s.drain(spec.Kind, "stdout", stdout) })
	}
	g.Go(func() error { return s.drain(spec.Kind, "stderr", stderr) })

	resCh := make(chan result, 1)
	go func() {
		drainErr := g.Wait()
		resCh <- result{wait: cmd.Wait(), drain: drainErr}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-resCh:
		return s.outcome(spec.Kind, res)
	case <-ctx.Done():
		s.terminate(cmd, resCh, spec.Kind)
		return fmt.Errorf("%s command canceled: %w", spec.Kind, ctx.Err())
	case <-timer.C:
		s.terminate(cmd, resCh, spec.Kind)
		return fmt.Errorf("%w: %s command did not exit within %s", ErrTimeout, spec.Kind, timeout)
	}
}

// drain reads one output stream line-by-line, surfacing each line to the log
// sink. A read error aborts further reading of this stream and is reported
// wrapped in ErrReadFile.
func (s *Supervisor) drain(kind command.Kind, stream string, r io.Reader) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		s.log.Info("server process output",
			"process", kind.String(), "stream", stream, "line", sc.Text())
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrReadFile, kind, stream, err)
	}
	return nil
}

// outcome maps the exit and drain results of a completed run onto the error
// taxonomy. A failing exit code wins over a drain error, since the exit code
// is the actionable signal.
func (s *Supervisor) outcome(kind command.Kind, res result) error {
	if res.wait != nil {
		var exitErr *exec.ExitError
		if errors.As(res.wait, &exitErr) {
			return fmt.Errorf("%w: %s command exited with code %d", ErrExitFailure, kind, exitErr.ExitCode())
		}
		return fmt.Errorf("%s command wait: %w", kind, res.wait)
	}
	return res.drain
}
